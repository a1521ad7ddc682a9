// Package quota enforces the per-user generation limit over a rolling
// window. The window reset is lazy: a record is normalized only when it
// is next read, never by a background timer.
package quota

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Samandar0813/darsbot/internal/metrics"
	"github.com/Samandar0813/darsbot/internal/storage"
	"github.com/rs/zerolog"
)

const (
	// DefaultLimit is the number of generations allowed per window.
	DefaultLimit = 5

	// DefaultWindow is the rolling quota window.
	DefaultWindow = 30 * 24 * time.Hour
)

// Config holds ledger configuration
type Config struct {
	Limit  int
	Window time.Duration
}

// Ledger manages per-user usage records.
//
// One mutex serializes the whole check-then-increment sequence so that
// concurrent turns cannot push a user past the limit.
type Ledger struct {
	store  storage.UsageStore
	limit  int
	window time.Duration
	clock  Clock
	logger zerolog.Logger
	mu     sync.Mutex
}

// NewLedger creates a new usage ledger
func NewLedger(store storage.UsageStore, config Config, logger zerolog.Logger) *Ledger {
	if config.Limit == 0 {
		config.Limit = DefaultLimit
	}
	if config.Window == 0 {
		config.Window = DefaultWindow
	}

	return &Ledger{
		store:  store,
		limit:  config.Limit,
		window: config.Window,
		clock:  RealClock{},
		logger: logger.With().Str("component", "quota-ledger").Logger(),
	}
}

// SetClock replaces the ledger clock. Intended for tests.
func (l *Ledger) SetClock(clock Clock) {
	l.clock = clock
}

// Normalize applies the rolling-window reset rule to a record. If more
// than window has elapsed since WindowStart, the returned record has its
// count zeroed and its window restarted at now; the bool reports whether
// anything changed.
func Normalize(rec storage.UsageRecord, now time.Time, window time.Duration) (storage.UsageRecord, bool) {
	if now.Sub(rec.WindowStart) > window {
		rec.Count = 0
		rec.WindowStart = now
		return rec, true
	}
	return rec, false
}

// MayUse reports whether the user may start a generation. A first touch
// creates and persists a zero-count record; an expired window is reset
// and persisted as part of the read.
func (l *Ledger) MayUse(ctx context.Context, userID string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock.Now()

	rec, err := l.store.Get(ctx, userID)
	if err != nil {
		if err != storage.ErrNotFound {
			return false, fmt.Errorf("read usage record: %w", err)
		}
		fresh := storage.UsageRecord{UserID: userID, Count: 0, WindowStart: now}
		if err := l.store.Put(ctx, fresh); err != nil {
			return false, fmt.Errorf("create usage record: %w", err)
		}
		l.logger.Debug().Str("user_id", userID).Msg("Created usage record")
		return true, nil
	}

	normalized, changed := Normalize(*rec, now, l.window)
	if changed {
		if err := l.store.Put(ctx, normalized); err != nil {
			return false, fmt.Errorf("reset usage record: %w", err)
		}
		l.logger.Info().
			Str("user_id", userID).
			Int("previous_count", rec.Count).
			Time("window_start", normalized.WindowStart).
			Msg("Quota window reset")
	}

	allowed := normalized.Count < l.limit
	if !allowed {
		metrics.QuotaDenialsTotal.Inc()
		l.logger.Info().
			Str("user_id", userID).
			Int("count", normalized.Count).
			Int("limit", l.limit).
			Msg("Quota exhausted")
	}
	return allowed, nil
}

// RecordUse consumes one generation credit. Callers are expected to have
// just confirmed MayUse for the same user.
func (l *Ledger) RecordUse(ctx context.Context, userID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock.Now()

	rec, err := l.store.Get(ctx, userID)
	if err != nil {
		if err != storage.ErrNotFound {
			return fmt.Errorf("read usage record: %w", err)
		}
		rec = &storage.UsageRecord{UserID: userID, WindowStart: now}
	}

	normalized, _ := Normalize(*rec, now, l.window)
	normalized.Count++

	if err := l.store.Put(ctx, normalized); err != nil {
		return fmt.Errorf("persist usage record: %w", err)
	}

	l.logger.Debug().
		Str("user_id", userID).
		Int("count", normalized.Count).
		Msg("Recorded generation use")
	return nil
}

// Snapshot returns a normalized copy of every usage record. Records are
// not rewritten: the view applies the window rule without mutating
// storage, so a never-accessed record still resets only on its own next
// access.
func (l *Ledger) Snapshot(ctx context.Context) ([]storage.UsageRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	records, err := l.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list usage records: %w", err)
	}

	now := l.clock.Now()
	out := make([]storage.UsageRecord, 0, len(records))
	for _, rec := range records {
		normalized, _ := Normalize(rec, now, l.window)
		out = append(out, normalized)
	}
	return out, nil
}

// Limit returns the configured per-window limit.
func (l *Ledger) Limit() int { return l.limit }
