package poll

import (
	"context"
	"database/sql"
	"errors"
)

var (
	ErrPollNotFound = errors.New("poll not found")
	ErrPollInactive = errors.New("poll is not active")
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) BySlug(ctx context.Context, slug string) (*Poll, error) {
	if slug == "" {
		return nil, ErrPollNotFound
	}
	p, err := s.repo.GetBySlug(ctx, slug)
	return p, notFound(err)
}

func (s *Service) ByID(ctx context.Context, id int64) (*Poll, error) {
	p, err := s.repo.GetByID(ctx, id)
	return p, notFound(err)
}

// ActiveBySlug resolves a poll that is currently accepting ballots.
func (s *Service) ActiveBySlug(ctx context.Context, slug string) (*Poll, error) {
	p, err := s.BySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if !p.IsActive {
		return nil, ErrPollInactive
	}
	return p, nil
}

func (s *Service) ListActive(ctx context.Context) ([]Poll, error) {
	return s.repo.ListActive(ctx)
}

// Candidates is read on every call; callers must not cache the result
// across requests.
func (s *Service) Candidates(ctx context.Context, pollID int64) ([]Candidate, error) {
	return s.repo.Candidates(ctx, pollID)
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrPollNotFound
	}
	return err
}
