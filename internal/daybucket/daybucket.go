// Package daybucket maps instants onto the local calendar day of a poll.
//
// A bucket is the UTC instant of local midnight in the poll's IANA timezone,
// so every vote cast during the same local day shares one key.
package daybucket

import (
	"errors"
	"log/slog"
	"sync"
	"time"
	_ "time/tzdata"

	"github.com/jonboulle/clockwork"
)

const (
	DefaultTimezone = "Europe/Amsterdam"
	DateLayout      = "2006-01-02"
)

var ErrInvalidDate = errors.New("date must be formatted as YYYY-MM-DD")

type Bucketer struct {
	clock    clockwork.Clock
	fallback *time.Location
	log      *slog.Logger

	mu    sync.RWMutex
	zones map[string]*time.Location
}

// New returns a Bucketer that resolves unknown zones to fallbackTZ.
func New(clock clockwork.Clock, fallbackTZ string, logger *slog.Logger) *Bucketer {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if logger == nil {
		logger = slog.Default()
	}

	fallback, err := time.LoadLocation(fallbackTZ)
	if err != nil {
		logger.Warn("fallback timezone unavailable", "timezone", fallbackTZ, "error", err)
		fallback, err = time.LoadLocation(DefaultTimezone)
		if err != nil {
			fallback = time.UTC
		}
	}

	return &Bucketer{
		clock:    clock,
		fallback: fallback,
		log:      logger,
		zones:    make(map[string]*time.Location),
	}
}

// Location resolves tz, falling back to the configured zone when tz is empty
// or unknown. Resolution failures are logged, never returned.
func (b *Bucketer) Location(tz string) *time.Location {
	if tz == "" {
		return b.fallback
	}

	b.mu.RLock()
	loc, ok := b.zones[tz]
	b.mu.RUnlock()
	if ok {
		return loc
	}

	loc, err := time.LoadLocation(tz)
	if err != nil {
		b.log.Warn("timezone resolution failed, using fallback",
			"timezone", tz,
			"fallback", b.fallback.String(),
			"error", err,
		)
		loc = b.fallback
	}

	b.mu.Lock()
	b.zones[tz] = loc
	b.mu.Unlock()
	return loc
}

// Bucket returns the UTC instant of local midnight of t's day in tz.
func (b *Bucketer) Bucket(tz string, t time.Time) time.Time {
	return Midnight(b.Location(tz), t)
}

func (b *Bucketer) Today(tz string) time.Time {
	return b.Bucket(tz, b.clock.Now())
}

// ParseDay buckets an explicit YYYY-MM-DD calendar date in tz.
func (b *Bucketer) ParseDay(tz, date string) (time.Time, error) {
	loc := b.Location(tz)
	d, err := time.ParseInLocation(DateLayout, date, loc)
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	return Midnight(loc, d), nil
}

// MonthStart is local midnight on the first day of the current month in tz.
func (b *Bucketer) MonthStart(tz string) time.Time {
	loc := b.Location(tz)
	now := b.clock.Now().In(loc)
	return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, loc).UTC()
}

func Midnight(loc *time.Location, t time.Time) time.Time {
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc).UTC()
}

// ISO formats a bucket as used in channel names and API payloads.
func ISO(day time.Time) string {
	return day.UTC().Format(time.RFC3339)
}
