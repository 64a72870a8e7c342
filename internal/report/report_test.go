package report

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/kagawa-dx/bosaictl/internal/gate"
	"github.com/kagawa-dx/bosaictl/internal/signal"
)

func TestHeadlineReady(t *testing.T) {
	cfg := gate.Config{ExpectStatus: 200, Attempts: 15, Interval: time.Second}
	out := gate.Outcome{Ready: true, Attempt: 4, Elapsed: 3 * time.Second}

	got := Headline(cfg, out)
	want := "OK: HTTP 200 after attempt 4 (elapsed 3 seconds)"
	if got != want {
		t.Errorf("Headline = %q, want %q", got, want)
	}
}

func TestHeadlineTimeout(t *testing.T) {
	cfg := gate.Config{ExpectStatus: 200, Attempts: 15, Interval: time.Second}
	out := gate.Outcome{Ready: false, Attempt: 15, Elapsed: 14 * time.Second}

	got := Headline(cfg, out)
	want := "TIMEOUT: no 200 after 15s (15 attempts)"
	if got != want {
		t.Errorf("Headline = %q, want %q", got, want)
	}
}

func TestProgress(t *testing.T) {
	if got, want := Progress(3, 15), "waiting... (3/15)"; got != want {
		t.Errorf("Progress = %q, want %q", got, want)
	}
}

func TestRender(t *testing.T) {
	cfg := gate.Config{
		URL:          "http://127.0.0.1:8501/_stcore/health",
		ExpectStatus: 200,
		Attempts:     15,
		Interval:     time.Second,
	}
	out := gate.Outcome{Ready: false, Attempt: 15, LastStatus: 0, LastError: "connection refused"}

	results := []NamedResult{
		{Name: "listen", Result: &signal.Result{Status: signal.StatusCritical, Message: "nothing is listening on port 8501"}},
		{Name: "logtail", Result: &signal.Result{
			Status:  signal.StatusOK,
			Message: "last 2 journal lines for bosai-dx.service",
			Data:    map[string]any{"tail": []string{"Traceback (most recent call last):", "SyntaxError: invalid syntax"}},
		}},
	}

	var buf bytes.Buffer
	Render(&buf, cfg, out, results)
	text := buf.String()

	for _, want := range []string{
		"target: http://127.0.0.1:8501/_stcore/health",
		"TIMEOUT: no 200 after 15s",
		"last error: connection refused",
		"secondary signals:",
		"[critical] listen: nothing is listening on port 8501",
		"SyntaxError: invalid syntax",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("report missing %q:\n%s", want, text)
		}
	}
}

func TestRenderReadyWithoutSignals(t *testing.T) {
	cfg := gate.Config{URL: "http://127.0.0.1:8501/_stcore/health", ExpectStatus: 200, Attempts: 15, Interval: time.Second}
	out := gate.Outcome{Ready: true, Attempt: 1, Elapsed: 0}

	var buf bytes.Buffer
	Render(&buf, cfg, out, nil)
	if strings.Contains(buf.String(), "secondary signals") {
		t.Errorf("unexpected signals section:\n%s", buf.String())
	}
	if strings.Contains(buf.String(), "last error") {
		t.Errorf("unexpected last-error line for ready run:\n%s", buf.String())
	}
}

func TestTailLinesFromJSONDecodedData(t *testing.T) {
	r := &signal.Result{Data: map[string]any{"tail": []any{"a", "b", 42}}}
	lines := tailLines(r)
	if len(lines) != 2 || lines[0] != "a" || lines[1] != "b" {
		t.Errorf("tailLines = %v", lines)
	}
}
