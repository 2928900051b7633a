package scout

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/ezazahamad2003/pre-funnel/internal/entity"
)

func newTestDispatcher(router *Router, opts ...DispatcherOption) *Dispatcher {
	base := []DispatcherOption{
		WithOverallDeadline(2 * time.Second),
		WithCallTimeout(500 * time.Millisecond),
		WithRetryBackoff(5 * time.Millisecond),
	}
	return NewDispatcher(router, append(base, opts...)...)
}

func namedCandidate(name string, ch entity.Channel) entity.Candidate {
	return entity.Candidate{Name: name, Channel: ch, Source: string(ch)}
}

func TestDispatchCollectsAcrossChannels(t *testing.T) {
	router := NewRouter(&stubConnections{}, &stubTracker{},
		WithSharedScout(&stubScout{channel: entity.ChannelX, candidates: []entity.Candidate{namedCandidate("Xavier", entity.ChannelX)}}),
		WithSharedScout(&stubScout{channel: entity.ChannelWeb, candidates: []entity.Candidate{namedCandidate("Webb", entity.ChannelWeb)}}),
	)
	d := newTestDispatcher(router)

	got := d.Dispatch(context.Background(), uuid.Nil, []entity.Strategy{
		{Channel: entity.ChannelX, Query: "voice ai founders", Confidence: 0.8},
		{Channel: entity.ChannelWeb, Query: "voice ai founders", Confidence: 0.6, NetworkAware: true},
	})

	if len(got) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(got))
	}
	if got[0].Name != "Xavier" || got[1].Name != "Webb" {
		t.Fatalf("results must follow strategy order, got %q then %q", got[0].Name, got[1].Name)
	}
	if got[0].StrategyConfidence != 0.8 || got[1].StrategyConfidence != 0.6 {
		t.Fatalf("candidates must carry their strategy confidence: %+v", got)
	}
	if got[0].NetworkAware || !got[1].NetworkAware {
		t.Fatalf("network-awareness must be copied from the strategy: %+v", got)
	}
}

func TestDispatchOneFailureKeepsOtherResults(t *testing.T) {
	router := NewRouter(&stubConnections{}, &stubTracker{},
		WithSharedScout(&stubScout{channel: entity.ChannelX, err: errors.New("auth rejected")}),
		WithSharedScout(&stubScout{channel: entity.ChannelWeb, candidates: []entity.Candidate{namedCandidate("Webb", entity.ChannelWeb)}}),
	)
	d := newTestDispatcher(router)

	got := d.Dispatch(context.Background(), uuid.Nil, []entity.Strategy{
		{Channel: entity.ChannelX, Query: "q"},
		{Channel: entity.ChannelWeb, Query: "q"},
	})

	if len(got) != 1 || got[0].Name != "Webb" {
		t.Fatalf("the surviving channel's results must be kept, got %+v", got)
	}
}

func TestDispatchRetriesTransientFailureOnce(t *testing.T) {
	calls := 0
	flaky := &stubScout{channel: entity.ChannelWeb, execute: func(context.Context, entity.Strategy) ([]entity.Candidate, error) {
		calls++
		if calls == 1 {
			return nil, &UpstreamStatusError{Provider: "web", StatusCode: http.StatusTooManyRequests}
		}
		return []entity.Candidate{namedCandidate("Webb", entity.ChannelWeb)}, nil
	}}
	router := NewRouter(&stubConnections{}, &stubTracker{}, WithSharedScout(flaky))
	d := newTestDispatcher(router)

	got := d.Dispatch(context.Background(), uuid.Nil, []entity.Strategy{{Channel: entity.ChannelWeb, Query: "q"}})
	if calls != 2 {
		t.Fatalf("expected exactly one retry, got %d calls", calls)
	}
	if len(got) != 1 {
		t.Fatalf("retry result must be kept, got %+v", got)
	}
}

func TestDispatchDoesNotRetryNonTransientFailure(t *testing.T) {
	failing := &stubScout{channel: entity.ChannelX, err: &UpstreamStatusError{Provider: "x", StatusCode: http.StatusUnauthorized}}
	router := NewRouter(&stubConnections{}, &stubTracker{}, WithSharedScout(failing))
	d := newTestDispatcher(router)

	got := d.Dispatch(context.Background(), uuid.Nil, []entity.Strategy{{Channel: entity.ChannelX, Query: "q"}})
	if failing.callCount() != 1 {
		t.Fatalf("auth rejection must not be retried, got %d calls", failing.callCount())
	}
	if len(got) != 0 {
		t.Fatalf("failed channel must contribute nothing, got %+v", got)
	}
}

func TestDispatchOverallDeadlineKeepsPartialResults(t *testing.T) {
	slow := &stubScout{channel: entity.ChannelLinkedIn, execute: func(ctx context.Context, _ entity.Strategy) ([]entity.Candidate, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}}
	fast := &stubScout{channel: entity.ChannelWeb, candidates: []entity.Candidate{namedCandidate("Webb", entity.ChannelWeb)}}
	router := NewRouter(&stubConnections{}, &stubTracker{}, WithSharedScout(slow), WithSharedScout(fast))
	d := NewDispatcher(router,
		WithOverallDeadline(150*time.Millisecond),
		WithCallTimeout(100*time.Millisecond),
		WithRetryBackoff(time.Millisecond),
	)

	start := time.Now()
	got := d.Dispatch(context.Background(), uuid.Nil, []entity.Strategy{
		{Channel: entity.ChannelLinkedIn, Query: "q"},
		{Channel: entity.ChannelWeb, Query: "q"},
	})
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("dispatch must respect the overall deadline, took %s", elapsed)
	}
	if len(got) != 1 || got[0].Name != "Webb" {
		t.Fatalf("partial results must survive the deadline, got %+v", got)
	}
}

func TestDispatchConfinesPanickingScout(t *testing.T) {
	panicky := &stubScout{channel: entity.ChannelX, execute: func(context.Context, entity.Strategy) ([]entity.Candidate, error) {
		panic("scout bug")
	}}
	fine := &stubScout{channel: entity.ChannelWeb, candidates: []entity.Candidate{namedCandidate("Webb", entity.ChannelWeb)}}
	router := NewRouter(&stubConnections{}, &stubTracker{}, WithSharedScout(panicky), WithSharedScout(fine))
	d := newTestDispatcher(router)

	got := d.Dispatch(context.Background(), uuid.Nil, []entity.Strategy{
		{Channel: entity.ChannelX, Query: "q"},
		{Channel: entity.ChannelWeb, Query: "q"},
	})
	if len(got) != 1 || got[0].Name != "Webb" {
		t.Fatalf("a panicking scout must not abort the request, got %+v", got)
	}
}

func TestDispatchEmptyStrategyList(t *testing.T) {
	d := newTestDispatcher(NewRouter(&stubConnections{}, &stubTracker{}))
	if got := d.Dispatch(context.Background(), uuid.Nil, nil); got != nil {
		t.Fatalf("no strategies means no candidates, got %+v", got)
	}
}
