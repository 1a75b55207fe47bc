package metrics

import (
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal     *prometheus.CounterVec
	ballotsTotal          *prometheus.CounterVec
	broadcastDroppedTotal prometheus.Counter
	announcementsTotal    *prometheus.CounterVec
	registerOnce          sync.Once
)

// Register initializes Prometheus metrics on the default registry.
func Register() {
	registerOnce.Do(func() {
		httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tierlist",
			Name:      "http_requests_total",
			Help:      "Total HTTP requests processed by the ranking API.",
		}, []string{"method", "path", "status"})

		ballotsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tierlist",
			Name:      "ballots_total",
			Help:      "Ballot submissions by outcome.",
		}, []string{"result"})

		broadcastDroppedTotal = promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "tierlist",
			Name:      "broadcast_dropped_total",
			Help:      "Live frames dropped because a subscriber buffer was full.",
		})

		announcementsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tierlist",
			Name:      "rank_announcements_total",
			Help:      "Rank change announcements by outcome.",
		}, []string{"result"})
	})
}

// IncRequest increments the http_requests_total counter with the given labels.
func IncRequest(method, path string, status int) {
	if httpRequestsTotal == nil {
		return
	}
	httpRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
}

// IncBallot counts a submission outcome ("accepted" or an error code).
func IncBallot(result string) {
	if ballotsTotal == nil {
		return
	}
	ballotsTotal.WithLabelValues(result).Inc()
}

func IncBroadcastDropped() {
	if broadcastDroppedTotal == nil {
		return
	}
	broadcastDroppedTotal.Inc()
}

func IncAnnouncement(result string) {
	if announcementsTotal == nil {
		return
	}
	announcementsTotal.WithLabelValues(result).Inc()
}
