package quota

import (
	"context"
	"sync"
	"time"

	"github.com/ezazahamad2003/pre-funnel/internal/entity"
)

// MemoryTracker is the zero-config Tracker. Counters roll over lazily when
// the wall clock crosses a window boundary.
type MemoryTracker struct {
	mu     sync.Mutex
	limits Limits
	counts map[counterKey]int
	now    func() time.Time
}

type counterKey struct {
	subject string
	channel entity.Channel
	start   time.Time
}

// NewMemoryTracker builds an in-memory tracker over the given limits.
func NewMemoryTracker(limits Limits) *MemoryTracker {
	if limits == nil {
		limits = DefaultLimits()
	}
	return &MemoryTracker{
		limits: limits,
		counts: make(map[counterKey]int),
		now:    time.Now,
	}
}

// Reserve increments the subject's counter for the channel's current window
// unless the ceiling is already reached. Unmetered channels always succeed.
func (t *MemoryTracker) Reserve(_ context.Context, subject string, channel entity.Channel) error {
	limit := t.limits[channel]
	key := counterKey{
		subject: subject,
		channel: channel,
		start:   WindowStart(t.now(), limit.Window),
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	used := t.counts[key]
	if limit.Ceiling > 0 && used >= limit.Ceiling {
		return ErrQuotaExceeded
	}
	t.counts[key] = used + 1
	return nil
}

// Record increments the subject's counter without a ceiling check.
func (t *MemoryTracker) Record(_ context.Context, subject string, channel entity.Channel) error {
	limit := t.limits[channel]
	key := counterKey{
		subject: subject,
		channel: channel,
		start:   WindowStart(t.now(), limit.Window),
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.counts[key]++
	return nil
}

// Usage reports the subject's current-window consumption for every
// configured channel.
func (t *MemoryTracker) Usage(_ context.Context, subject string) ([]ChannelUsage, error) {
	now := t.now()

	t.mu.Lock()
	defer t.mu.Unlock()

	rows := make([]ChannelUsage, 0, len(t.limits))
	for _, channel := range entity.Channels {
		limit, ok := t.limits[channel]
		if !ok {
			continue
		}
		start := WindowStart(now, limit.Window)
		used := t.counts[counterKey{subject: subject, channel: channel, start: start}]
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
func (t *MemoryTracker) SetNow(now func() time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.now = now
}

var _ Tracker = (*MemoryTracker)(nil)
