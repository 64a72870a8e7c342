// Package gate implements the readiness gate: a bounded polling loop
// that decides whether a freshly (re)started service is accepting
// connections. One probe is in flight at a time and the loop sleeps
// only between attempts, so a timed-out run takes about
// (Attempts-1) * Interval of wall-clock time.
package gate

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/coder/quartz"
)

// ErrNotReady is returned by Run when the attempt budget is exhausted
// without seeing the expected status. It marks an informational
// outcome, not a transport failure; callers are expected to go on and
// inspect secondary signals regardless.
var ErrNotReady = errors.New("gate: target not ready within attempt budget")

// Config fixes the probe target and attempt budget for one invocation.
type Config struct {
	URL          string
	ExpectStatus int           // success condition, status code equality
	Attempts     int           // attempt budget N
	Interval     time.Duration // inter-attempt delay D
}

// Outcome is the terminal state of one gate invocation.
type Outcome struct {
	Ready      bool
	Attempt    int           // attempt that matched, or Attempts after a timeout
	Elapsed    time.Duration
	LastStatus int           // last status seen; 0 for transport errors
	LastError  string        // last transport error, empty when a response arrived
}

// Gate polls a single HTTP target.
type Gate struct {
	cfg      Config
	client   *http.Client
	clock    quartz.Clock
	progress func(attempt, total int)
}

// Option configures a Gate.
type Option func(*Gate)

// WithClient overrides the HTTP client used for probes.
func WithClient(c *http.Client) Option {
	return func(g *Gate) { g.client = c }
}

// WithClock overrides the clock used for inter-attempt sleeps.
func WithClock(c quartz.Clock) Option {
	return func(g *Gate) { g.clock = c }
}

// WithProgress registers a callback invoked at the start of every attempt.
func WithProgress(fn func(attempt, total int)) Option {
	return func(g *Gate) { g.progress = fn }
}

// New creates a Gate. Attempts below 1 are raised to 1 and a zero
// ExpectStatus defaults to 200.
func New(cfg Config, opts ...Option) *Gate {
	if cfg.Attempts < 1 {
		cfg.Attempts = 1
	}
	if cfg.ExpectStatus == 0 {
		cfg.ExpectStatus = http.StatusOK
	}
	g := &Gate{
		cfg:    cfg,
		client: &http.Client{Timeout: 10 * time.Second},
		clock:  quartz.NewReal(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Run polls the target until the expected status is seen or the budget
// runs out. Transport errors (connection refused, DNS failure) count
// the same as non-matching statuses: a failed attempt. Run stops on
// the first match and performs no further attempts.
func (g *Gate) Run(ctx context.Context) (Outcome, error) {
	start := g.clock.Now("gate")
	var out Outcome
	for i := 1; i <= g.cfg.Attempts; i++ {
		if g.progress != nil {
			g.progress(i, g.cfg.Attempts)
		}
		status, err := g.probe(ctx)
		out.LastStatus = status
		out.LastError = ""
		if err != nil {
			out.LastError = err.Error()
		}
		if err == nil && status == g.cfg.ExpectStatus {
			out.Ready = true
			out.Attempt = i
			out.Elapsed = g.clock.Since(start, "gate")
			return out, nil
		}
		if i < g.cfg.Attempts {
			if err := g.sleep(ctx); err != nil {
				out.Attempt = i
				out.Elapsed = g.clock.Since(start, "gate")
				return out, err
			}
		}
	}
	out.Attempt = g.cfg.Attempts
	out.Elapsed = g.clock.Since(start, "gate")
	return out, ErrNotReady
}

func (g *Gate) probe(ctx context.Context) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.cfg.URL, nil)
	if err != nil {
		return 0, err
	}
	resp, err := g.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	// Drain so the connection can be reused across attempts.
	io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
	return resp.StatusCode, nil
}

func (g *Gate) sleep(ctx context.Context) error {
	timer := g.clock.NewTimer(g.cfg.Interval, "gate")
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
