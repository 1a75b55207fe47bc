package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"

	"tierlist-ranking/internal/domain/ballot"
	"tierlist-ranking/internal/domain/leaderboard"
	"tierlist-ranking/internal/domain/rank"
)

// newMock matches SQL text exactly rather than as a regular expression.
func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func exampleBallot() (*ballot.Ballot, []ballot.ScoreDelta) {
	b := &ballot.Ballot{
		ID:       uuid.MustParse("6f1c2a34-0d6c-4d47-9a4e-3a1f5e2b7c10"),
		PollID:   1,
		VoteDay:  time.Date(2024, 5, 1, 22, 0, 0, 0, time.UTC),
		VoterKey: "vk",
		Items: []ballot.Item{
			{CandidateID: 10, Tier: ballot.TierS, Position: 0},
			{CandidateID: 11, Tier: ballot.TierA, Position: 0},
		},
	}
	return b, ballot.Deltas(b.Items)
}

func TestBallotRecordSingleTransaction(t *testing.T) {
	db, mock := newMock(t)
	repo := NewBallotRepo(db)
	b, deltas := exampleBallot()
	created := time.Date(2024, 5, 2, 9, 30, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery(queryInsertBallot).
		WithArgs(b.ID, b.PollID, b.VoteDay, "vk", sql.NullString{}, "").
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(created))
	mock.ExpectExec(queryInsertBallotItem).WithArgs(b.ID, int64(10), "S", 0).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(queryInsertBallotItem).WithArgs(b.ID, int64(11), "A", 0).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(queryUpsertDailyScore).WithArgs(int64(1), int64(10), b.VoteDay, int64(1), int64(55)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(queryUpsertDailyScore).WithArgs(int64(1), int64(11), b.VoteDay, int64(1), int64(44)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	if err := repo.Record(context.Background(), b, deltas); err != nil {
		t.Fatalf("record: %v", err)
	}
	if !b.CreatedAt.Equal(created) {
		t.Fatalf("expected created_at to be scanned, got %s", b.CreatedAt)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestBallotRecordDuplicateSkipsUpserts(t *testing.T) {
	db, mock := newMock(t)
	repo := NewBallotRepo(db)
	b, deltas := exampleBallot()

	mock.ExpectBegin()
	mock.ExpectQuery(queryInsertBallot).
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnError(&pgconn.PgError{Code: "23505"})
	mock.ExpectRollback()

	err := repo.Record(context.Background(), b, deltas)
	if !errors.Is(err, ballot.ErrDuplicateVote) {
		t.Fatalf("expected ErrDuplicateVote, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestBallotRecordUpsertFailureRollsBack(t *testing.T) {
	db, mock := newMock(t)
	repo := NewBallotRepo(db)
	b, deltas := exampleBallot()
	boom := errors.New("deadlock detected")

	mock.ExpectBegin()
	mock.ExpectQuery(queryInsertBallot).
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(time.Now()))
	mock.ExpectExec(queryInsertBallotItem).WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(queryInsertBallotItem).WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(queryUpsertDailyScore).WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).WillReturnError(boom)
	mock.ExpectRollback()

	if err := repo.Record(context.Background(), b, deltas); !errors.Is(err, boom) {
		t.Fatalf("expected upsert error, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestPollRepoGetBySlugNotFound(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPollRepo(db)

	mock.ExpectQuery(queryPollBySlug).WithArgs("missing").WillReturnError(sql.ErrNoRows)

	if _, err := repo.GetBySlug(context.Background(), "missing"); !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("expected sql.ErrNoRows, got %v", err)
	}
}

func TestPollRepoCandidates(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPollRepo(db)
	title := "Mayor"

	mock.ExpectQuery(queryCandidatesByPoll).WithArgs(int64(1)).WillReturnRows(
		sqlmock.NewRows([]string{"id", "poll_id", "name", "title", "image_url", "category", "sort_index"}).
			AddRow(int64(10), int64(1), "Ada", title, nil, "party", 0).
			AddRow(int64(11), int64(1), "Bo", nil, nil, "party", 1),
	)

	got, err := repo.Candidates(context.Background(), 1)
	if err != nil {
		t.Fatalf("candidates: %v", err)
	}
	if len(got) != 2 || got[0].Title == nil || *got[0].Title != "Mayor" || got[1].Title != nil {
		t.Fatalf("unexpected candidates %+v", got)
	}
}

func TestLeaderboardTotals(t *testing.T) {
	db, mock := newMock(t)
	repo := NewLeaderboardRepo(sqlx.NewDb(db, "sqlmock"))
	day := time.Date(2024, 5, 1, 22, 0, 0, 0, time.UTC)

	mock.ExpectQuery(queryTotals).WithArgs(int64(1), day, day).WillReturnRows(
		sqlmock.NewRows([]string{"candidate_id", "name", "sort_index", "votes", "score"}).
			AddRow(int64(10), "Ada", 0, int64(1), int64(55)).
			AddRow(int64(11), "Bo", 1, int64(0), int64(0)),
	)

	got, err := repo.Totals(context.Background(), 1, leaderboard.Range{From: &day, To: &day})
	if err != nil {
		t.Fatalf("totals: %v", err)
	}
	if len(got) != 2 || got[0].Score != 55 || got[1].Votes != 0 {
		t.Fatalf("unexpected totals %+v", got)
	}
}

func TestRankRepoSnapshotRoundTrip(t *testing.T) {
	db, mock := newMock(t)
	repo := NewRankRepo(sqlx.NewDb(db, "sqlmock"))
	ctx := context.Background()
	day := time.Date(2024, 5, 1, 22, 0, 0, 0, time.UTC)
	prevDay := day.Add(-24 * time.Hour)

	mock.ExpectBegin()
	mock.ExpectQuery(queryRankDayExists).WithArgs(int64(1), day).WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectExec(queryInsertDailyRank).WithArgs(int64(1), int64(10), day, 1, int64(1), int64(55)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	err := repo.SaveSnapshot(ctx, 1, day, []leaderboard.Entry{{CandidateID: 10, Rank: 1, Votes: 1, Score: 55}})
	if err != nil {
		t.Fatalf("save snapshot: %v", err)
	}

	mock.ExpectQuery(queryLatestRankDays).WithArgs(int64(1), 2).WillReturnRows(
		sqlmock.NewRows([]string{"day"}).AddRow(day).AddRow(prevDay),
	)
	days, err := repo.LatestDays(ctx, 1, 2)
	if err != nil {
		t.Fatalf("latest days: %v", err)
	}
	if len(days) != 2 || !days[0].Equal(day) {
		t.Fatalf("unexpected days %v", days)
	}

	mock.ExpectQuery(queryRankSnapshot).WithArgs(int64(1), day).WillReturnRows(
		sqlmock.NewRows([]string{"candidate_id", "name", "rank", "votes", "score"}).
			AddRow(int64(10), "Ada", 1, int64(1), int64(55)),
	)
	snap, err := repo.Snapshot(ctx, 1, day)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if len(snap) != 1 || snap[0].Name != "Ada" || snap[0].Rank != 1 {
		t.Fatalf("unexpected snapshot %+v", snap)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestRankRepoSnapshotKeepsFirstWriteOfTheDay(t *testing.T) {
	db, mock := newMock(t)
	repo := NewRankRepo(sqlx.NewDb(db, "sqlmock"))
	day := time.Date(2024, 5, 1, 22, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery(queryRankDayExists).WithArgs(int64(1), day).WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectRollback()

	err := repo.SaveSnapshot(context.Background(), 1, day, []leaderboard.Entry{{CandidateID: 10, Rank: 2, Votes: 3, Score: 99}})
	if err != nil {
		t.Fatalf("save snapshot: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestRankRepoAnnouncementOncePerDay(t *testing.T) {
	db, mock := newMock(t)
	repo := NewRankRepo(sqlx.NewDb(db, "sqlmock"))
	a := rank.Announcement{PollID: 1, Day: time.Date(2024, 5, 1, 22, 0, 0, 0, time.UTC), CandidateID: 10, Message: "m"}

	mock.ExpectExec(queryInsertAnnouncement).WithArgs(a.PollID, a.Day, a.CandidateID, a.Message).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(queryInsertAnnouncement).WithArgs(a.PollID, a.Day, a.CandidateID, a.Message).WillReturnResult(sqlmock.NewResult(0, 0))

	first, err := repo.RecordAnnouncement(context.Background(), a)
	if err != nil || !first {
		t.Fatalf("expected first insert to win, got %v %v", first, err)
	}
	second, err := repo.RecordAnnouncement(context.Background(), a)
	if err != nil || second {
		t.Fatalf("expected second insert to be ignored, got %v %v", second, err)
	}
}
