// Package upstream wraps calls to third-party HTTP APIs with a client-side
// rate limit, a circuit breaker and per-service metrics.
package upstream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/samirrijal/tripplanner/internal/pkg/metrics"
)

// maxBody caps how much of a response is read into memory.
const maxBody = 8 << 20

// Response is a fully read upstream response.
type Response struct {
	Status int
	Body   []byte
}

// OK reports a 2xx status.
func (r *Response) OK() bool {
	return r.Status >= 200 && r.Status < 300
}

// StatusError is returned for 5xx answers. They count against the breaker.
type StatusError struct {
	Service string
	Status  int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: upstream status %d", e.Service, e.Status)
}

// Options tunes a Client. Zero values pick sensible defaults.
type Options struct {
	Timeout       time.Duration
	RatePerMinute int
	HTTPClient    *http.Client
}

// Client performs rate limited, circuit broken requests to one service.
type Client struct {
	name    string
	http    *http.Client
	limiter *rate.Limiter
	cb      *gobreaker.CircuitBreaker[*Response]
}

// New creates a Client for the named service.
func New(name string, opts Options) *Client {
	hc := opts.HTTPClient
	if hc == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 15 * time.Second
		}
		hc = &http.Client{Timeout: timeout}
	}

	var limiter *rate.Limiter
	if opts.RatePerMinute > 0 {
		limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(opts.RatePerMinute)), max(1, opts.RatePerMinute/10))
	}

	metrics.CircuitBreakerState.WithLabelValues(name).Set(0)
	cb := gobreaker.NewCircuitBreaker[*Response](gobreaker.Settings{
		Name:        name,
		MaxRequests: 2,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		IsSuccessful: func(err error) bool {
			// A caller giving up is not the upstream's fault.
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("circuit breaker state change", "service", name, "from", from.String(), "to", to.String())
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateValue(to))
		},
	})

	return &Client{name: name, http: hc, limiter: limiter, cb: cb}
}

// Do sends req and reads the whole body. 4xx answers are returned as a
// Response without error; 5xx answers come back with a *StatusError.
func (c *Client) Do(req *http.Request) (*Response, error) {
	ctx := req.Context()
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			return nil, fmt.Errorf("%s: rate limit: %w", c.name, err)
		}
	}

	return c.cb.Execute(func() (*Response, error) {
		started := time.Now()
		res, err := c.http.Do(req)
		if err != nil {
			metrics.ObserveUpstream(c.name, 0, started)
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			return nil, fmt.Errorf("%s: %w", c.name, err)
		}
		defer res.Body.Close()

		body, err := io.ReadAll(io.LimitReader(res.Body, maxBody))
		metrics.ObserveUpstream(c.name, res.StatusCode, started)
		if err != nil {
			return nil, fmt.Errorf("%s: read body: %w", c.name, err)
		}
		out := &Response{Status: res.StatusCode, Body: body}
		if res.StatusCode >= 500 {
			return out, &StatusError{Service: c.name, Status: res.StatusCode}
		}
		return out, nil
	})
}

// Status is a point-in-time view of a Client's circuit breaker.
type Status struct {
	Service string
	State   string
}

// Open reports whether calls are currently being rejected.
func (s Status) Open() bool {
	return s.State == gobreaker.StateOpen.String()
}

// Status returns the service name and breaker state.
func (c *Client) Status() Status {
	return Status{Service: c.name, State: c.cb.State().String()}
}

// IsOpen reports whether err means the breaker rejected the call.
func IsOpen(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}

func stateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}
