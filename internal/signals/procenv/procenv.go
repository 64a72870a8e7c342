// Package procenv provides the procenv signal: whether named
// environment variables actually reached the running process. This is
// a read-only query against another process; values are never
// reported, only presence.
package procenv

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shirou/gopsutil/v3/process"

	"github.com/kagawa-dx/bosaictl/internal/signal"
)

// Name is the signal subcommand name.
const Name = "procenv"

// GetDescription returns the signal description.
func GetDescription() signal.Description {
	return signal.Description{
		Name:        Name,
		Description: "Check that environment variables propagated into a running process",
		Version:     "1.0.0",
		Subcommand:  Name,
		Arguments: signal.Arguments{
			Required: map[string]signal.ArgumentSpec{
				"pid": {
					Type:        "number",
					Description: "Process ID to inspect",
				},
				"vars": {
					Type:        "string",
					Description: "Comma-separated variable names to look for",
				},
			},
		},
	}
}

// Run executes the signal with the given arguments.
func Run(pid int32, names []string) *signal.Result {
	if pid <= 0 {
		return &signal.Result{
			Status:  signal.StatusUnknown,
			Message: "pid argument is required",
		}
	}
	if len(names) == 0 {
		return &signal.Result{
			Status:  signal.StatusUnknown,
			Message: "vars argument is required",
		}
	}

	proc, err := process.NewProcess(pid)
	if err != nil {
		return &signal.Result{
			Status:  signal.StatusUnknown,
			Message: fmt.Sprintf("no such process %d: %v", pid, err),
		}
	}
	environ, err := proc.Environ()
	if err != nil {
		return &signal.Result{
			Status:  signal.StatusUnknown,
			Message: fmt.Sprintf("cannot read environment of pid %d: %v", pid, err),
		}
	}

	return evaluate(pid, environ, names)
}

func evaluate(pid int32, environ, names []string) *signal.Result {
	present := make(map[string]bool, len(environ))
	for _, kv := range environ {
		key, value, ok := strings.Cut(kv, "=")
		if !ok {
			continue
		}
		// An empty value is as good as unset for our purposes.
		if strings.TrimSpace(value) != "" {
			present[key] = true
		}
	}

	var set, missing []string
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if present[name] {
			set = append(set, name)
		} else {
			missing = append(missing, name)
		}
	}
	sort.Strings(set)
	sort.Strings(missing)

	status := signal.StatusOK
	message := fmt.Sprintf("all %d variables set in pid %d", len(set), pid)
	if len(missing) > 0 {
		status = signal.StatusCritical
		message = fmt.Sprintf("missing in pid %d: %s", pid, strings.Join(missing, ", "))
	}

	return &signal.Result{
		Status:  status,
		Message: message,
		Metrics: map[string]any{
			"set":     len(set),
			"missing": len(missing),
		},
		Data: map[string]any{
			"pid":          pid,
			"set_vars":     set,
			"missing_vars": missing,
		},
	}
}
