// Command rankjob snapshots ranks for every active poll once and exits.
// It is meant for external schedulers when the server's built-in cron is off.
package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/jonboulle/clockwork"

	"tierlist-ranking/internal/announce"
	"tierlist-ranking/internal/config"
	"tierlist-ranking/internal/daybucket"
	"tierlist-ranking/internal/domain/leaderboard"
	"tierlist-ranking/internal/domain/poll"
	"tierlist-ranking/internal/domain/rank"
	"tierlist-ranking/internal/storage"
)

func main() {
	slug := flag.String("poll", "", "only snapshot the poll with this slug")
	timeout := flag.Duration("timeout", 2*time.Minute, "overall deadline")
	flag.Parse()

	cfg := config.Load()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	store, err := storage.Open(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("storage error: %v", err)
	}
	defer store.Close()

	var sink rank.Sink = announce.NewLogSink(logger)
	if cfg.AnnounceWebhookURL != "" {
		sink = announce.NewWebhookSink(cfg.AnnounceWebhookURL, 5*time.Second)
	}

	bucketer := daybucket.New(clockwork.NewRealClock(), cfg.DefaultTimezone, logger)
	pollSvc := poll.NewService(store.Polls)
	boardSvc := leaderboard.NewService(store.Boards, bucketer)
	rankSvc := rank.NewService(store.Ranks, pollSvc, boardSvc, bucketer, sink, logger)

	if *slug == "" {
		if err := rankSvc.RunAll(ctx); err != nil {
			log.Fatalf("rank job: %v", err)
		}
		return
	}

	p, err := pollSvc.BySlug(ctx, *slug)
	if err != nil {
		log.Fatalf("poll %q: %v", *slug, err)
	}
	res, err := rankSvc.Run(ctx, p)
	if err != nil {
		log.Fatalf("rank job: %v", err)
	}
	logger.Info("rank snapshot", "poll_id", res.PollID, "day", daybucket.ISO(res.Day), "announced", res.Announced, "message", res.Message)
}
