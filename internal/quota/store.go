package quota

import (
	"context"
	"fmt"
	"time"

	"github.com/ezazahamad2003/pre-funnel/internal/entity"
)

// Store is the persistence contract behind StoreTracker. Reserve must be
// atomic at the storage layer and report false when the ceiling is reached.
type Store interface {
	Reserve(ctx context.Context, subject string, channel entity.Channel, windowStart time.Time, ceiling int) (bool, error)
	Count(ctx context.Context, subject string, channel entity.Channel, windowStart time.Time) (int, error)
}

// StoreTracker meters calls through a persistent Store so counters survive
// restarts and are shared across instances.
type StoreTracker struct {
	store  Store
	limits Limits
	now    func() time.Time
}

// NewStoreTracker builds a tracker over a persistent store.
func NewStoreTracker(store Store, limits Limits) *StoreTracker {
	if limits == nil {
		limits = DefaultLimits()
	}
	return &StoreTracker{store: store, limits: limits, now: time.Now}
}

// Reserve delegates the atomic check-and-increment to the store.
func (t *StoreTracker) Reserve(ctx context.Context, subject string, channel entity.Channel) error {
	limit := t.limits[channel]
	start := WindowStart(t.now(), limit.Window)
	ok, err := t.store.Reserve(ctx, subject, channel, start, limit.Ceiling)
	if err != nil {
		return fmt.Errorf("reserve %s/%s: %w", subject, channel, err)
	}
	if !ok {
		return ErrQuotaExceeded
	}
	return nil
}

// Record increments the subject's counter without a ceiling.
func (t *StoreTracker) Record(ctx context.Context, subject string, channel entity.Channel) error {
	limit := t.limits[channel]
	start := WindowStart(t.now(), limit.Window)
	if _, err := t.store.Reserve(ctx, subject, channel, start, 0); err != nil {
		return fmt.Errorf("record %s/%s: %w", subject, channel, err)
	}
	return nil
}

// Usage reads current-window counters for every configured channel.
func (t *StoreTracker) Usage(ctx context.Context, subject string) ([]ChannelUsage, error) {
	now := t.now()
	rows := make([]ChannelUsage, 0, len(t.limits))
	for _, channel := range entity.Channels {
		limit, ok := t.limits[channel]
		if !ok {
			continue
		}
		start := WindowStart(now, limit.Window)
		used, err := t.store.Count(ctx, subject, channel, start)
		if err != nil {
			return nil, fmt.Errorf("count %s/%s: %w", subject, channel, err)
		}
		rows = append(rows, ChannelUsage{
			Channel:   channel,
			Used:      used,
			Ceiling:   limit.Ceiling,
			Remaining: remaining(used, limit.Ceiling),
			Window:    limit.Window,
			ResetsAt:  windowEnd(start, limit.Window),
		})
	}
	return rows, nil
}

// SetNow overrides the tracker clock. Tests only.
func (t *StoreTracker) SetNow(now func() time.Time) { t.now = now }

var _ Tracker = (*StoreTracker)(nil)
