package gate

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/coder/quartz"
)

func TestRun_ReadyOnLaterAttempt(t *testing.T) {
	// 503 on attempts 1-3, then 200 on attempt 4.
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) <= 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	var attempts []int
	g := New(Config{
		URL:          srv.URL,
		ExpectStatus: http.StatusOK,
		Attempts:     15,
		Interval:     time.Millisecond,
	}, WithProgress(func(attempt, total int) {
		attempts = append(attempts, attempt)
	}))

	out, err := g.Run(context.Background())
	if err != nil {
		t.Fatalf("expected ready, got error %v", err)
	}
	if !out.Ready {
		t.Fatalf("expected Ready, got %+v", out)
	}
	if out.Attempt != 4 {
		t.Errorf("expected success at attempt 4, got %d", out.Attempt)
	}
	if got := hits.Load(); got != 4 {
		t.Errorf("expected exactly 4 requests, got %d", got)
	}
	if len(attempts) != 4 {
		t.Errorf("expected 4 progress callbacks, got %d", len(attempts))
	}
	if out.LastStatus != http.StatusOK {
		t.Errorf("expected last status 200, got %d", out.LastStatus)
	}
}

func TestRun_ImmediateSuccessStopsAtFirstAttempt(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	g := New(Config{URL: srv.URL, Attempts: 25, Interval: time.Millisecond})
	out, err := g.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Attempt != 1 {
		t.Errorf("expected attempt 1, got %d", out.Attempt)
	}
	if got := hits.Load(); got != 1 {
		t.Errorf("expected a single request, got %d", got)
	}
}

func TestRun_TimeoutAfterExactBudget(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	g := New(Config{URL: srv.URL, Attempts: 5, Interval: time.Millisecond})
	out, err := g.Run(context.Background())
	if !errors.Is(err, ErrNotReady) {
		t.Fatalf("expected ErrNotReady, got %v", err)
	}
	if out.Ready {
		t.Fatalf("expected not ready, got %+v", out)
	}
	if out.Attempt != 5 {
		t.Errorf("expected 5 attempts, got %d", out.Attempt)
	}
	if got := hits.Load(); got != 5 {
		t.Errorf("expected exactly 5 requests, got %d", got)
	}
	if out.LastStatus != http.StatusServiceUnavailable {
		t.Errorf("expected last status 503, got %d", out.LastStatus)
	}
}

func TestRun_ConnectionRefusedCountsAsFailedAttempt(t *testing.T) {
	// Start then immediately close a server so the port refuses connections.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	g := New(Config{URL: url, Attempts: 3, Interval: time.Millisecond})
	out, err := g.Run(context.Background())
	if !errors.Is(err, ErrNotReady) {
		t.Fatalf("expected ErrNotReady, got %v", err)
	}
	if out.Attempt != 3 {
		t.Errorf("expected 3 attempts, got %d", out.Attempt)
	}
	if out.LastStatus != 0 {
		t.Errorf("expected status 0 on transport error, got %d", out.LastStatus)
	}
	if out.LastError == "" {
		t.Error("expected a transport error message")
	}
}

func TestRun_TimedOutElapsedIsBudgetMinusOneIntervals(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	mClock := quartz.NewMock(t)
	trap := mClock.Trap().NewTimer("gate")
	defer trap.Close()

	const attempts = 15
	g := New(Config{
		URL:      srv.URL,
		Attempts: attempts,
		Interval: time.Second,
	}, WithClock(mClock))

	type result struct {
		out Outcome
		err error
	}
	done := make(chan result, 1)
	go func() {
		out, err := g.Run(ctx)
		done <- result{out, err}
	}()

	// The gate sleeps between attempts only: attempts-1 timers.
	for i := 0; i < attempts-1; i++ {
		call := trap.MustWait(ctx)
		call.MustRelease(ctx)
		mClock.Advance(time.Second).MustWait(ctx)
	}

	res := <-done
	if !errors.Is(res.err, ErrNotReady) {
		t.Fatalf("expected ErrNotReady, got %v", res.err)
	}
	if want := (attempts - 1) * time.Second; res.out.Elapsed != want {
		t.Errorf("expected elapsed %s, got %s", want, res.out.Elapsed)
	}
}

func TestRun_ReadyElapsedExcludesTrailingSleep(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) <= 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	mClock := quartz.NewMock(t)
	trap := mClock.Trap().NewTimer("gate")
	defer trap.Close()

	g := New(Config{
		URL:      srv.URL,
		Attempts: 15,
		Interval: time.Second,
	}, WithClock(mClock))

	type result struct {
		out Outcome
		err error
	}
	done := make(chan result, 1)
	go func() {
		out, err := g.Run(ctx)
		done <- result{out, err}
	}()

	// Three failed attempts, three sleeps, then success on attempt 4.
	for i := 0; i < 3; i++ {
		call := trap.MustWait(ctx)
		call.MustRelease(ctx)
		mClock.Advance(time.Second).MustWait(ctx)
	}

	res := <-done
	if res.err != nil {
		t.Fatalf("expected ready, got %v", res.err)
	}
	if res.out.Attempt != 4 {
		t.Errorf("expected attempt 4, got %d", res.out.Attempt)
	}
	if want := 3 * time.Second; res.out.Elapsed != want {
		t.Errorf("expected elapsed %s, got %s", want, res.out.Elapsed)
	}
	if got := hits.Load(); got != 4 {
		t.Errorf("expected 4 requests, got %d", got)
	}
}

func TestRun_ContextCancelDuringSleep(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	g := New(Config{URL: srv.URL, Attempts: 10, Interval: time.Hour})

	done := make(chan error, 1)
	go func() {
		_, err := g.Run(ctx)
		done <- err
	}()

	// Let the first attempt complete, then cancel mid-sleep.
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("gate did not return after cancellation")
	}
}

func TestNew_Defaults(t *testing.T) {
	g := New(Config{URL: "http://127.0.0.1:1"})
	if g.cfg.Attempts != 1 {
		t.Errorf("expected attempts raised to 1, got %d", g.cfg.Attempts)
	}
	if g.cfg.ExpectStatus != http.StatusOK {
		t.Errorf("expected default status 200, got %d", g.cfg.ExpectStatus)
	}
}
