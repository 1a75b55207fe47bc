// Package realtime fans ballot deltas out to live viewers of a poll day.
//
// Delivery is best-effort and at-most-once: nothing is persisted and a
// subscriber that cannot keep up misses frames.
package realtime

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"tierlist-ranking/internal/daybucket"
	"tierlist-ranking/internal/domain/ballot"
	"tierlist-ranking/internal/metrics"
)

// Channel names the stream for one poll and day bucket.
func Channel(pollID int64, day time.Time) string {
	return fmt.Sprintf("poll:%d:%s", pollID, daybucket.ISO(day))
}

type Subscription struct {
	channel string
	send    chan []byte
	broker  *Broker
	once    sync.Once
}

// C yields frames until the subscription is closed.
func (s *Subscription) C() <-chan []byte {
	return s.send
}

func (s *Subscription) Channel() string {
	return s.channel
}

func (s *Subscription) Close() {
	s.once.Do(func() { s.broker.remove(s) })
}

type Broker struct {
	mu       sync.RWMutex
	channels map[string]map[*Subscription]struct{}
	buffer   int
	log      *slog.Logger
}

func NewBroker(buffer int, logger *slog.Logger) *Broker {
	if buffer <= 0 {
		buffer = 16
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Broker{
		channels: make(map[string]map[*Subscription]struct{}),
		buffer:   buffer,
		log:      logger,
	}
}

func (b *Broker) Subscribe(channel string) *Subscription {
	s := &Subscription{
		channel: channel,
		send:    make(chan []byte, b.buffer),
		broker:  b,
	}

	b.mu.Lock()
	subs, ok := b.channels[channel]
	if !ok {
		subs = make(map[*Subscription]struct{})
		b.channels[channel] = subs
	}
	subs[s] = struct{}{}
	b.mu.Unlock()

	return s
}

func (b *Broker) remove(s *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs := b.channels[s.channel]
	if _, ok := subs[s]; !ok {
		return
	}
	delete(subs, s)
	if len(subs) == 0 {
		delete(b.channels, s.channel)
	}
	close(s.send)
}

// Publish hands msg to every subscriber of channel without blocking and
// returns how many received it.
func (b *Broker) Publish(channel string, msg []byte) int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	delivered := 0
	for s := range b.channels[channel] {
		select {
		case s.send <- msg:
			delivered++
		default:
			metrics.IncBroadcastDropped()
		}
	}
	return delivered
}

func (b *Broker) Subscribers(channel string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.channels[channel])
}

// PublishDeltas encodes a ballot frame for the poll day's channel.
func (b *Broker) PublishDeltas(pollID int64, day time.Time, deltas []ballot.ScoreDelta) error {
	payload, err := json.Marshal(NewBallotFrame(deltas))
	if err != nil {
		return err
	}
	ch := Channel(pollID, day)
	n := b.Publish(ch, payload)
	b.log.Debug("ballot frame published", "channel", ch, "subscribers", n)
	return nil
}
