// Package storage selects the repository backend from configuration.
package storage

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"

	"tierlist-ranking/internal/config"
	"tierlist-ranking/internal/domain/ballot"
	"tierlist-ranking/internal/domain/leaderboard"
	"tierlist-ranking/internal/domain/poll"
	"tierlist-ranking/internal/domain/rank"
	"tierlist-ranking/internal/platform/database"
	"tierlist-ranking/internal/repository/memory"
	"tierlist-ranking/internal/repository/postgres"
)

type Pinger interface {
	PingContext(ctx context.Context) error
}

type Store struct {
	Kind    string
	Polls   poll.Repository
	Ballots ballot.Repository
	Boards  leaderboard.Repository
	Ranks   rank.Repository
	DB      Pinger

	close func() error
}

func (s *Store) Close() error {
	if s.close == nil {
		return nil
	}
	return s.close()
}

// Open connects to Postgres and applies the schema, or builds a seeded
// in-memory store when DB_DSN is "memory".
func Open(ctx context.Context, cfg config.Config, logger *slog.Logger) (*Store, error) {
	if cfg.Memory() {
		m := memory.NewStore()
		p := m.SeedDemo()
		logger.Warn("using in-memory storage, data is lost on restart", "demo_poll", p.Slug)
		return Memory(m), nil
	}

	db, err := database.NewPostgres(ctx, cfg.DB_DSN)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := postgres.ApplySchema(ctx, db.DB); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return Postgres(db), nil
}

func Memory(m *memory.Store) *Store {
	return &Store{
		Kind:    "memory",
		Polls:   m,
		Ballots: m,
		Boards:  m,
		Ranks:   m,
		DB:      m,
	}
}

func Postgres(db *sqlx.DB) *Store {
	return &Store{
		Kind:    "postgres",
		Polls:   postgres.NewPollRepo(db.DB),
		Ballots: postgres.NewBallotRepo(db.DB),
		Boards:  postgres.NewLeaderboardRepo(db),
		Ranks:   postgres.NewRankRepo(db),
		DB:      db,
		close:   db.Close,
	}
}
