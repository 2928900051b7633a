// Package quota tracks per-subject, per-channel call counts against
// configured ceilings over rolling calendar windows.
package quota

import (
	"context"
	"errors"
	"time"

	"github.com/ezazahamad2003/pre-funnel/internal/entity"
)

// ErrQuotaExceeded is returned by Reserve when the current window is full.
var ErrQuotaExceeded = errors.New("quota exceeded")

// SharedSubject is the pooled-credential subject.
const SharedSubject = "shared"

// Window is the calendar period a ceiling applies to.
type Window string

const (
	WindowDaily   Window = "daily"
	WindowMonthly Window = "monthly"
)

// Limit is a ceiling over a window. A zero ceiling means unmetered.
type Limit struct {
	Ceiling int
	Window  Window
}

// Limits maps channels to their shared-tier ceilings.
type Limits map[entity.Channel]Limit

// DefaultLimits mirrors the upstream providers' free-tier allowances.
func DefaultLimits() Limits {
	return Limits{
		entity.ChannelEmail:    {Ceiling: 1000, Window: WindowMonthly},
		entity.ChannelLinkedIn: {Ceiling: 50, Window: WindowDaily},
		entity.ChannelX:        {Ceiling: 1500, Window: WindowMonthly},
		entity.ChannelWeb:      {Ceiling: 100, Window: WindowDaily},
	}
}

// ChannelUsage is one row of a subject's current-window consumption.
type ChannelUsage struct {
	Channel   entity.Channel `json:"channel"`
	Used      int            `json:"used"`
	Ceiling   int            `json:"ceiling"`
	Remaining int            `json:"remaining"`
	Window    Window         `json:"window"`
	ResetsAt  time.Time      `json:"resets_at"`
}

// Tracker meters channel calls. Reserve is atomic: the ceiling check and the
// increment are one operation, so concurrent callers cannot overshoot.
// Record increments without a ceiling, for calls that are counted but not
// bounded (personal-credential usage).
type Tracker interface {
	Reserve(ctx context.Context, subject string, channel entity.Channel) error
	Record(ctx context.Context, subject string, channel entity.Channel) error
	Usage(ctx context.Context, subject string) ([]ChannelUsage, error)
}

// WindowStart truncates now to the start of the window, UTC.
func WindowStart(now time.Time, w Window) time.Time {
	now = now.UTC()
	switch w {
	case WindowMonthly:
		return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	default:
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	}
}

// windowEnd returns the first instant of the next window.
func windowEnd(start time.Time, w Window) time.Time {
	switch w {
	case WindowMonthly:
		return start.AddDate(0, 1, 0)
	default:
		return start.AddDate(0, 0, 1)
	}
}

func remaining(used, ceiling int) int {
	if ceiling <= 0 {
		return 0
	}
	if used >= ceiling {
		return 0
	}
	return ceiling - used
}
