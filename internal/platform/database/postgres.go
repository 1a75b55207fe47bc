package database

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"

	"tierlist-ranking/internal/retry"
)

// NewPostgres opens a pgx-backed pool and waits for the server to accept
// connections before returning.
func NewPostgres(ctx context.Context, dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(time.Hour)

	err = retry.Do(ctx, retry.Startup, func(ctx context.Context) error {
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		return classifyPing(db.PingContext(pingCtx))
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}

// classifyPing stops retrying on errors a restart of the server will not fix:
// bad credentials, unknown database or missing privileges.
func classifyPing(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	if strings.HasPrefix(pgErr.Code, "28") || pgErr.Code == "3D000" || pgErr.Code == "42501" {
		return retry.Permanent(err)
	}
	return err
}
