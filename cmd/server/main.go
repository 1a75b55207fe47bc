package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"
	goredis "github.com/redis/go-redis/v9"

	_ "tierlist-ranking/docs"
	"tierlist-ranking/internal/announce"
	"tierlist-ranking/internal/botcheck"
	"tierlist-ranking/internal/config"
	"tierlist-ranking/internal/daybucket"
	"tierlist-ranking/internal/domain/ballot"
	"tierlist-ranking/internal/domain/leaderboard"
	"tierlist-ranking/internal/domain/poll"
	"tierlist-ranking/internal/domain/rank"
	api "tierlist-ranking/internal/http"
	"tierlist-ranking/internal/identity"
	"tierlist-ranking/internal/metrics"
	jwtpkg "tierlist-ranking/internal/platform/jwt"
	"tierlist-ranking/internal/ratelimit"
	"tierlist-ranking/internal/realtime"
	"tierlist-ranking/internal/retry"
	"tierlist-ranking/internal/storage"
	"tierlist-ranking/internal/worker"
)

// @title           Tier List Ranking API
// @version         1.0
// @description     Daily tier-list ballots with live score deltas, leaderboards and rank change announcements
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in              header
// @name            Authorization
func main() {
	cfg := config.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)
	api.SetLogger(logger)
	metrics.Register()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := storage.Open(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("storage error: %v", err)
	}
	defer store.Close()

	clock := clockwork.NewRealClock()
	bucketer := daybucket.New(clock, cfg.DefaultTimezone, logger)

	limiter := newLimiter(cfg, clock, logger)
	defer limiter.close()

	var verifier botcheck.Verifier = botcheck.Disabled{}
	if cfg.BotCheckSecret != "" {
		verifier = botcheck.NewSiteverify(cfg.BotCheckURL, cfg.BotCheckSecret, cfg.AbuseCheckTimeout)
	} else {
		logger.Warn("bot check disabled, BOTCHECK_SECRET is empty")
	}

	var sink rank.Sink = announce.NewLogSink(logger)
	if cfg.AnnounceWebhookURL != "" {
		sink = announce.NewWebhookSink(cfg.AnnounceWebhookURL, 5*time.Second)
	}

	broker := realtime.NewBroker(cfg.BroadcastBuffer, logger)

	pollSvc := poll.NewService(store.Polls)
	boardSvc := leaderboard.NewService(store.Boards, bucketer)
	ballotSvc := ballot.NewService(ballot.Deps{
		Repo:         store.Ballots,
		Polls:        pollSvc,
		Bucketer:     bucketer,
		Guard:        identity.NewGuard(cfg.VoterKeySalt),
		Limiter:      limiter.gate,
		BotCheck:     verifier,
		Publisher:    broker,
		Logger:       logger,
		CheckTimeout: cfg.AbuseCheckTimeout,
	})
	rankSvc := rank.NewService(store.Ranks, pollSvc, boardSvc, bucketer, sink, logger)

	rankCh := make(chan worker.RankSignal, 256)
	rankWorker := worker.NewRankWorker(rankCh, worker.RunnerFunc(func(ctx context.Context, pollID int64) error {
		res, err := rankSvc.PreviewByID(ctx, pollID)
		if err != nil {
			return err
		}
		if res.Change != nil {
			logger.Info("rank movement pending",
				"poll_id", res.PollID,
				"candidate_id", res.Change.CandidateID,
				"delta", res.Change.Delta,
				"curr_rank", res.Change.CurrRank,
			)
		}
		return nil
	}), cfg.RankSignalFlush, logger)

	scheduler, err := worker.NewScheduler(cfg.RankSnapshotSchedule, 2*time.Minute, rankSvc.RunAll, logger)
	if err != nil {
		log.Fatalf("invalid RANK_SNAPSHOT_SCHEDULE %q: %v", cfg.RankSnapshotSchedule, err)
	}

	jwtMgr := jwtpkg.NewManager(cfg.JWTSecret, "")

	router := api.NewRouter(api.Deps{
		Polls:         pollSvc,
		Ballots:       ballotSvc,
		Boards:        boardSvc,
		Ranks:         rankSvc,
		Broker:        broker,
		Bucketer:      bucketer,
		JWT:           jwtMgr,
		RankSignals:   rankCh,
		DB:            store.DB,
		SubmitTimeout: cfg.SubmitTimeout,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	workerCtx, cancelWorkers := context.WithCancel(context.Background())
	workerDone := make(chan struct{})
	go func() {
		defer close(workerDone)
		rankWorker.Run(workerCtx)
	}()
	scheduler.Start()

	go func() {
		logger.Info("server listening", "port", cfg.Port, "storage", store.Kind)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen error: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}
	scheduler.Stop()
	cancelWorkers()
	<-workerDone

	logger.Info("server stopped")
}

type limiterHandle struct {
	gate  *ratelimit.Gate
	close func()
}

func newLimiter(cfg config.Config, clock clockwork.Clock, logger *slog.Logger) limiterHandle {
	if cfg.RateLimitBackend == "redis" {
		client := goredis.NewClient(&goredis.Options{Addr: cfg.RedisAddr})
		err := retry.Do(context.Background(), retry.Startup, func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		})
		if err != nil {
			// Submissions are denied until redis answers.
			logger.Error("redis unreachable", "addr", cfg.RedisAddr, "error", err)
		}
		l := ratelimit.NewRedis(client, cfg.RateLimitInterval, "")
		return limiterHandle{
			gate:  ratelimit.NewGate(l, cfg.AbuseCheckTimeout, cfg.RateLimitInterval, logger),
			close: func() { _ = client.Close() },
		}
	}
	l := ratelimit.NewMemory(clock, cfg.RateLimitInterval)
	return limiterHandle{
		gate:  ratelimit.NewGate(l, cfg.AbuseCheckTimeout, cfg.RateLimitInterval, logger),
		close: func() {},
	}
}
