// Package scout hosts the discovery providers: one real and one synthetic
// implementation per channel, the credential router that picks between them,
// and the dispatcher that fans strategies out concurrently.
package scout

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/ezazahamad2003/pre-funnel/internal/entity"
)

// Scout executes one search strategy against a single channel. A failed call
// returns an error; the dispatcher turns that into an empty contribution.
type Scout interface {
	Channel() entity.Channel
	Execute(ctx context.Context, strategy entity.Strategy) ([]entity.Candidate, error)
}

const defaultHTTPTimeout = 15 * time.Second

// UpstreamStatusError reports a non-2xx response from a provider API.
type UpstreamStatusError struct {
	Provider   string
	StatusCode int
}

func (e *UpstreamStatusError) Error() string {
	return fmt.Sprintf("%s returned status %d", e.Provider, e.StatusCode)
}

// Transient reports whether the status is worth one retry.
func (e *UpstreamStatusError) Transient() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// IsTransient classifies provider failures that may succeed on a retry:
// rate limiting, upstream 5xx, timeouts.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	var statusErr *UpstreamStatusError
	if errors.As(err, &statusErr) {
		return statusErr.Transient()
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return false
}

func defaultClient() *http.Client {
	return &http.Client{Timeout: defaultHTTPTimeout}
}

func drainClose(resp *http.Response) {
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
}
