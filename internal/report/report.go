// Package report renders the outcome of a verification run for human
// reading. The readiness headline and each secondary signal are shown
// side by side but never merged into a single verdict; deciding
// whether the deployment is really fixed stays with the reader.
package report

import (
	"fmt"
	"io"
	"time"

	units "github.com/docker/go-units"

	"github.com/kagawa-dx/bosaictl/internal/gate"
	"github.com/kagawa-dx/bosaictl/internal/signal"
)

// NamedResult pairs a signal result with the probe that produced it.
type NamedResult struct {
	Name   string
	Result *signal.Result
}

// Headline formats the terminal line of the readiness gate.
func Headline(cfg gate.Config, out gate.Outcome) string {
	if out.Ready {
		return fmt.Sprintf("OK: HTTP %d after attempt %d (elapsed %s)",
			cfg.ExpectStatus, out.Attempt, units.HumanDuration(out.Elapsed))
	}
	budget := time.Duration(cfg.Attempts) * cfg.Interval
	return fmt.Sprintf("TIMEOUT: no %d after %s (%d attempts)",
		cfg.ExpectStatus, budget, out.Attempt)
}

// Progress formats one polling progress line.
func Progress(attempt, total int) string {
	return fmt.Sprintf("waiting... (%d/%d)", attempt, total)
}

// Render writes the full verification report.
func Render(w io.Writer, cfg gate.Config, out gate.Outcome, results []NamedResult) {
	fmt.Fprintf(w, "target: %s\n", cfg.URL)
	fmt.Fprintln(w, Headline(cfg, out))
	if !out.Ready && out.LastError != "" {
		fmt.Fprintf(w, "last error: %s\n", out.LastError)
	}

	if len(results) == 0 {
		return
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "secondary signals:")
	for _, nr := range results {
		fmt.Fprintf(w, "  [%-8s] %s: %s\n", nr.Result.Status, nr.Name, nr.Result.Message)
		for _, line := range tailLines(nr.Result) {
			fmt.Fprintf(w, "      %s\n", line)
		}
	}
}

// tailLines extracts log lines from a logtail result, if present.
func tailLines(r *signal.Result) []string {
	if r.Data == nil {
		return nil
	}
	switch tail := r.Data["tail"].(type) {
	case []string:
		return tail
	case []any:
		lines := make([]string, 0, len(tail))
		for _, v := range tail {
			if s, ok := v.(string); ok {
				lines = append(lines, s)
			}
		}
		return lines
	}
	return nil
}
