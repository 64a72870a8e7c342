// Package logtail provides the logtail signal: the most recent lines
// of the service's log stream, from journalctl when a unit is given or
// from a plain log file otherwise.
package logtail

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"

	units "github.com/docker/go-units"

	"github.com/kagawa-dx/bosaictl/internal/signal"
)

// Name is the signal subcommand name.
const Name = "logtail"

const defaultLines = 20

// Reading the whole log to tail it is fine for this app's log sizes,
// but cap it so a runaway file cannot blow up memory.
const maxReadBytes = 4 << 20

// GetDescription returns the signal description.
func GetDescription() signal.Description {
	return signal.Description{
		Name:        Name,
		Description: "Fetch the most recent lines of the service log",
		Version:     "1.0.0",
		Subcommand:  Name,
		Arguments: signal.Arguments{
			Optional: map[string]signal.ArgumentSpec{
				"unit": {
					Type:        "string",
					Description: "systemd unit to read via journalctl",
				},
				"file": {
					Type:        "string",
					Description: "Log file to tail when no unit is given",
				},
				"lines": {
					Type:        "number",
					Description: "Number of lines to fetch",
					Default:     float64(defaultLines),
				},
			},
		},
	}
}

// Run executes the signal with the given arguments.
func Run(unit, file string, lines int) *signal.Result {
	if lines <= 0 {
		lines = defaultLines
	}
	if unit != "" {
		return runJournal(unit, lines)
	}
	if file != "" {
		return runFile(file, lines)
	}
	return &signal.Result{
		Status:  signal.StatusUnknown,
		Message: "either unit or file argument is required",
	}
}

func runJournal(unit string, lines int) *signal.Result {
	cmd := exec.Command("journalctl", "-u", unit, "-n", strconv.Itoa(lines), "--no-pager", "-o", "cat")

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return &signal.Result{
			Status:  signal.StatusUnknown,
			Message: fmt.Sprintf("journalctl failed: %v, stderr: %s", err, strings.TrimSpace(stderr.String())),
		}
	}

	tail := splitLines(stdout.String())
	return &signal.Result{
		Status:  signal.StatusOK,
		Message: fmt.Sprintf("last %d journal lines for %s", len(tail), unit),
		Metrics: map[string]any{"lines": len(tail)},
		Data: map[string]any{
			"unit": unit,
			"tail": tail,
		},
	}
}

func runFile(path string, lines int) *signal.Result {
	info, err := os.Stat(path)
	if err != nil {
		return &signal.Result{
			Status:  signal.StatusUnknown,
			Message: fmt.Sprintf("cannot stat %s: %v", path, err),
		}
	}

	tail, err := tailFile(path, lines)
	if err != nil {
		return &signal.Result{
			Status:  signal.StatusUnknown,
			Message: fmt.Sprintf("cannot read %s: %v", path, err),
		}
	}

	return &signal.Result{
		Status:  signal.StatusOK,
		Message: fmt.Sprintf("last %d lines of %s (%s)", len(tail), path, units.HumanSize(float64(info.Size()))),
		Metrics: map[string]any{
			"lines":      len(tail),
			"size_bytes": info.Size(),
		},
		Data: map[string]any{
			"file": path,
			"tail": tail,
		},
	}
}

// tailFile returns the last n lines of the file at path.
func tailFile(path string, n int) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}

	var offset int64
	if info.Size() > maxReadBytes {
		offset = info.Size() - maxReadBytes
	}
	if _, err := f.Seek(offset, io.SeekStart); err != nil {
		return nil, err
	}

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}

	all := splitLines(string(data))
	if len(all) > n {
		all = all[len(all)-n:]
	}
	return all, nil
}

func splitLines(s string) []string {
	s = strings.TrimRight(s, "\n")
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}
