// Package source provides the source signal: sanity checks on the
// deployed application source. It reports whether required patterns
// are present, whether known-bad patterns are absent, and optionally
// whether a syntax-check command accepts the file. Each finding is
// reported separately; judging the combination is left to the reader.
package source

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/kagawa-dx/bosaictl/internal/signal"
)

// Name is the signal subcommand name.
const Name = "source"

// GetDescription returns the signal description.
func GetDescription() signal.Description {
	return signal.Description{
		Name:        Name,
		Description: "Check deployed source for expected and known-bad patterns",
		Version:     "1.0.0",
		Subcommand:  Name,
		Arguments: signal.Arguments{
			Required: map[string]signal.ArgumentSpec{
				"path": {
					Type:        "string",
					Description: "Source file to inspect",
				},
			},
			Optional: map[string]signal.ArgumentSpec{
				"contains": {
					Type:        "string",
					Description: "Comma-separated patterns that must be present",
				},
				"absent": {
					Type:        "string",
					Description: "Comma-separated patterns that must not be present",
				},
				"syntax_cmd": {
					Type:        "string",
					Description: "Command whose exit code validates the file's syntax",
				},
			},
		},
	}
}

// Run executes the signal with the given arguments.
func Run(path string, mustContain, mustBeAbsent []string, syntaxCmd string) *signal.Result {
	if path == "" {
		return &signal.Result{
			Status:  signal.StatusUnknown,
			Message: "path argument is required",
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return &signal.Result{
			Status:  signal.StatusUnknown,
			Message: fmt.Sprintf("cannot read %s: %v", path, err),
		}
	}

	result := evaluate(path, string(data), mustContain, mustBeAbsent)

	if syntaxCmd != "" {
		ok, detail := runSyntaxCheck(syntaxCmd)
		result.Data["syntax_ok"] = ok
		if !ok {
			result.Status = signal.StatusCritical
			result.Message = fmt.Sprintf("syntax check failed: %s", detail)
		}
	}

	return result
}

func evaluate(path, content string, mustContain, mustBeAbsent []string) *signal.Result {
	var missing, found []string
	for _, p := range trimAll(mustContain) {
		if !strings.Contains(content, p) {
			missing = append(missing, p)
		}
	}
	for _, p := range trimAll(mustBeAbsent) {
		if strings.Contains(content, p) {
			found = append(found, p)
		}
	}

	status := signal.StatusOK
	message := fmt.Sprintf("%s looks as deployed", path)
	switch {
	case len(found) > 0:
		status = signal.StatusCritical
		message = fmt.Sprintf("known-bad pattern present in %s: %q", path, found[0])
	case len(missing) > 0:
		status = signal.StatusCritical
		message = fmt.Sprintf("expected pattern missing from %s: %q", path, missing[0])
	}

	return &signal.Result{
		Status:  status,
		Message: message,
		Metrics: map[string]any{
			"missing_patterns": len(missing),
			"bad_patterns":     len(found),
		},
		Data: map[string]any{
			"path":        path,
			"missing":     missing,
			"bad_present": found,
		},
	}
}

func runSyntaxCheck(command string) (bool, string) {
	cmd := exec.Command("/bin/sh", "-c", command)
	var output bytes.Buffer
	cmd.Stdout = &output
	cmd.Stderr = &output
	if err := cmd.Run(); err != nil {
		detail := strings.TrimSpace(output.String())
		if detail == "" {
			detail = err.Error()
		}
		return false, detail
	}
	return true, ""
}

func trimAll(in []string) []string {
	var out []string
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
