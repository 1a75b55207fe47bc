package ballot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"tierlist-ranking/internal/botcheck"
	"tierlist-ranking/internal/daybucket"
	"tierlist-ranking/internal/domain/poll"
	"tierlist-ranking/internal/identity"
	"tierlist-ranking/internal/ratelimit"
)

type Submission struct {
	PollSlug      string
	Tiers         Placements
	DeviceID      string
	IP            string
	UserAgent     string
	BotCheckToken string
	// Date is an optional YYYY-MM-DD backfill day in the poll's timezone.
	// Callers are responsible for authorizing it.
	Date string
}

// Receipt describes an accepted ballot.
type Receipt struct {
	BallotID uuid.UUID
	PollID   int64
	VoteDay  time.Time
	Deltas   []ScoreDelta
}

type Deps struct {
	Repo      Repository
	Polls     *poll.Service
	Bucketer  *daybucket.Bucketer
	Guard     *identity.Guard
	Limiter   ratelimit.Limiter
	BotCheck  botcheck.Verifier
	Publisher Publisher
	Logger    *slog.Logger
	// CheckTimeout bounds the bot check and rate limiter together.
	CheckTimeout time.Duration
}

type Service struct {
	repo         Repository
	polls        *poll.Service
	bucketer     *daybucket.Bucketer
	guard        *identity.Guard
	limiter      ratelimit.Limiter
	bot          botcheck.Verifier
	publisher    Publisher
	log          *slog.Logger
	checkTimeout time.Duration
}

func NewService(d Deps) *Service {
	s := &Service{
		repo:         d.Repo,
		polls:        d.Polls,
		bucketer:     d.Bucketer,
		guard:        d.Guard,
		limiter:      d.Limiter,
		bot:          d.BotCheck,
		publisher:    d.Publisher,
		log:          d.Logger,
		checkTimeout: d.CheckTimeout,
	}
	if s.bot == nil {
		s.bot = botcheck.Disabled{}
	}
	if s.log == nil {
		s.log = slog.Default()
	}
	if s.checkTimeout <= 0 {
		s.checkTimeout = 2 * time.Second
	}
	return s
}

// Submit validates, screens and records a ballot, then broadcasts its deltas.
// Any failure before the write leaves storage untouched.
func (s *Service) Submit(ctx context.Context, sub Submission) (*Receipt, error) {
	p, err := s.polls.ActiveBySlug(ctx, sub.PollSlug)
	if err != nil {
		return nil, err
	}
	if sub.DeviceID == "" {
		return nil, ErrMissingDevice
	}

	candidates, err := s.polls.Candidates(ctx, p.ID)
	if err != nil {
		return nil, fmt.Errorf("load candidates: %w", err)
	}
	items, err := Validate(sub.Tiers, candidates, p.RequiredSelections())
	if err != nil {
		return nil, err
	}

	day := s.bucketer.Today(p.Timezone)
	if sub.Date != "" {
		day, err = s.bucketer.ParseDay(p.Timezone, sub.Date)
		if err != nil {
			return nil, err
		}
	}

	voterKey := s.guard.VoterKey(sub.DeviceID)
	ipHash := s.guard.IPHash(sub.IP)

	if err := s.screen(ctx, sub, voterKey, ipHash); err != nil {
		return nil, err
	}

	b := &Ballot{
		ID:        uuid.New(),
		PollID:    p.ID,
		VoteDay:   day,
		VoterKey:  voterKey,
		IPHash:    ipHash,
		UserAgent: sub.UserAgent,
		Items:     items,
	}
	deltas := Deltas(items)

	if err := s.repo.Record(ctx, b, deltas); err != nil {
		if errors.Is(err, ErrDuplicateVote) {
			return nil, err
		}
		return nil, fmt.Errorf("record ballot: %w", err)
	}

	if s.publisher != nil {
		if err := s.publisher.PublishDeltas(p.ID, day, deltas); err != nil {
			s.log.Warn("broadcast failed", "poll_id", p.ID, "error", err)
		}
	}

	return &Receipt{BallotID: b.ID, PollID: p.ID, VoteDay: day, Deltas: deltas}, nil
}

// screen runs the bot check and the rate limiter concurrently. Either one
// failing, erroring or timing out rejects the ballot.
func (s *Service) screen(ctx context.Context, sub Submission, voterKey, ipHash string) error {
	ctx, cancel := context.WithTimeout(ctx, s.checkTimeout)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		ok, err := s.bot.Verify(gctx, sub.BotCheckToken, sub.IP)
		if err != nil {
			s.log.Warn("bot check unavailable", "error", err)
			return ErrBotCheckFailed
		}
		if !ok {
			return ErrBotCheckFailed
		}
		return nil
	})

	g.Go(func() error {
		keys := []string{"voter:" + voterKey}
		if ipHash != "" {
			keys = append(keys, "ip:"+ipHash)
		}
		d, err := s.limiter.Allow(gctx, keys...)
		if err != nil {
			s.log.Warn("rate limiter unavailable", "error", err)
			return &RateLimitError{RetryAfter: time.Minute}
		}
		if !d.Allowed {
			return &RateLimitError{RetryAfter: d.RetryAfter}
		}
		return nil
	})

	return g.Wait()
}
