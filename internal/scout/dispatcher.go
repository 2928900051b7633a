package scout

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/ezazahamad2003/pre-funnel/internal/entity"
)

const (
	defaultOverallDeadline = 30 * time.Second
	defaultCallTimeout     = 10 * time.Second
	defaultRetryBackoff    = 500 * time.Millisecond
	defaultConcurrency     = 8
)

// Dispatcher fans search strategies out across the routed providers
// concurrently. Each strategy becomes one call bounded by the per-call
// timeout; the whole dispatch is bounded by the overall deadline. Failed or
// abandoned calls contribute nothing; whatever the other calls returned is
// kept. Dispatch itself never fails.
type Dispatcher struct {
	router      *Router
	overall     time.Duration
	callTimeout time.Duration
	backoff     time.Duration
	concurrency int
}

// DispatcherOption configures dispatch tunables.
type DispatcherOption func(*Dispatcher)

// WithOverallDeadline bounds a whole dispatch.
func WithOverallDeadline(d time.Duration) DispatcherOption {
	return func(disp *Dispatcher) {
		if d > 0 {
			disp.overall = d
		}
	}
}

// WithCallTimeout bounds each provider call.
func WithCallTimeout(d time.Duration) DispatcherOption {
	return func(disp *Dispatcher) {
		if d > 0 {
			disp.callTimeout = d
		}
	}
}

// WithRetryBackoff sets the pause before the single transient-failure retry.
func WithRetryBackoff(d time.Duration) DispatcherOption {
	return func(disp *Dispatcher) {
		if d > 0 {
			disp.backoff = d
		}
	}
}

// WithConcurrency caps the number of in-flight provider calls.
func WithConcurrency(n int) DispatcherOption {
	return func(disp *Dispatcher) {
		if n > 0 {
			disp.concurrency = n
		}
	}
}

// NewDispatcher builds a dispatcher over a credential router.
func NewDispatcher(router *Router, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		router:      router,
		overall:     defaultOverallDeadline,
		callTimeout: defaultCallTimeout,
		backoff:     defaultRetryBackoff,
		concurrency: defaultConcurrency,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Dispatch executes every strategy concurrently and returns the concatenated
// candidates in strategy order, each tagged with the confidence and
// network-awareness of the strategy that produced it. Results are whatever
// completed before the overall deadline.
func (d *Dispatcher) Dispatch(ctx context.Context, userID uuid.UUID, strategies []entity.Strategy) []entity.Candidate {
	if len(strategies) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, d.overall)
	defer cancel()

	// One result slot per strategy keeps concatenation order deterministic
	// regardless of goroutine completion order.
	results := make([][]entity.Candidate, len(strategies))

	g := new(errgroup.Group)
	g.SetLimit(d.concurrency)
	for i, strategy := range strategies {
		i, strategy := i, strategy
		g.Go(func() error {
			defer func() {
				if rec := recover(); rec != nil {
					log.Error().Interface("panic", rec).
						Str("channel", string(strategy.Channel)).
						Msg("scout panicked, dropping its contribution")
				}
			}()
			results[i] = d.run(ctx, userID, strategy)
			return nil
		})
	}
	g.Wait()

	var out []entity.Candidate
	for i, batch := range results {
		for _, c := range batch {
			c.StrategyConfidence = strategies[i].Confidence
			c.NetworkAware = strategies[i].NetworkAware
			out = append(out, c)
		}
	}
	return out
}

// run routes one strategy and executes it, retrying once on a transient
// failure when the overall deadline still allows.
func (d *Dispatcher) run(ctx context.Context, userID uuid.UUID, strategy entity.Strategy) []entity.Candidate {
	sel := d.router.Route(ctx, strategy.Channel, userID)
	if sel.Scout == nil {
		return nil
	}

	for attempt := 1; ; attempt++ {
		callCtx, cancel := context.WithTimeout(ctx, d.callTimeout)
		candidates, err := sel.Scout.Execute(callCtx, strategy)
		cancel()
		if err == nil {
			return candidates
		}

		log.Warn().Err(err).
			Str("channel", string(strategy.Channel)).
			Str("tier", string(sel.Tier)).
			Int("attempt", attempt).
			Msg("scout call failed")

		if attempt >= 2 || !IsTransient(err) {
			return nil
		}
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(d.backoff):
		}
	}
}
