// Package unit provides the unit signal: supervisor-reported metadata
// for a systemd service (state, sub-state, restart count, last exit
// code). The fields are surfaced individually for human inspection.
package unit

import (
	"bytes"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	units "github.com/docker/go-units"

	"github.com/kagawa-dx/bosaictl/internal/signal"
)

// Name is the signal subcommand name.
const Name = "unit"

// Properties queried from systemctl show.
var properties = []string{
	"ActiveState",
	"SubState",
	"NRestarts",
	"ExecMainStatus",
	"ExecMainPID",
	"ActiveEnterTimestamp",
}

// systemd's human timestamp format, e.g. "Fri 2026-08-29 10:12:03 JST".
const stampFormat = "Mon 2006-01-02 15:04:05 MST"

// GetDescription returns the signal description.
func GetDescription() signal.Description {
	return signal.Description{
		Name:        Name,
		Description: "Report systemd unit state, restart count and last exit code",
		Version:     "1.0.0",
		Subcommand:  Name,
		Arguments: signal.Arguments{
			Required: map[string]signal.ArgumentSpec{
				"unit": {
					Type:        "string",
					Description: "systemd unit name",
				},
			},
		},
	}
}

// Run executes the signal with the given arguments.
func Run(unit string) *signal.Result {
	if unit == "" {
		return &signal.Result{
			Status:  signal.StatusUnknown,
			Message: "unit argument is required",
		}
	}

	args := []string{"show", unit, "--property=" + strings.Join(properties, ","), "--no-pager"}
	cmd := exec.Command("systemctl", args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return &signal.Result{
			Status:  signal.StatusUnknown,
			Message: fmt.Sprintf("systemctl show %s failed: %v, stderr: %s", unit, err, strings.TrimSpace(stderr.String())),
		}
	}

	return evaluate(unit, parseShow(stdout.String()), time.Now())
}

// parseShow parses systemctl show key=value output.
func parseShow(out string) map[string]string {
	fields := make(map[string]string)
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		fields[key] = value
	}
	return fields
}

func evaluate(unit string, fields map[string]string, now time.Time) *signal.Result {
	active := fields["ActiveState"]
	sub := fields["SubState"]

	status := signal.StatusWarning
	switch active {
	case "active":
		status = signal.StatusOK
	case "failed":
		status = signal.StatusCritical
	case "":
		return &signal.Result{
			Status:  signal.StatusUnknown,
			Message: fmt.Sprintf("no state reported for %s", unit),
		}
	}

	restarts, _ := strconv.Atoi(fields["NRestarts"])
	exitStatus, _ := strconv.Atoi(fields["ExecMainStatus"])
	mainPID, _ := strconv.Atoi(fields["ExecMainPID"])

	message := fmt.Sprintf("%s is %s (%s)", unit, active, sub)
	if stamp, err := time.Parse(stampFormat, fields["ActiveEnterTimestamp"]); err == nil && active == "active" {
		message = fmt.Sprintf("%s is %s (%s) for %s", unit, active, sub, units.HumanDuration(now.Sub(stamp)))
	}

	return &signal.Result{
		Status:  status,
		Message: message,
		Metrics: map[string]any{
			"restarts":       restarts,
			"last_exit_code": exitStatus,
			"main_pid":       mainPID,
		},
		Data: map[string]any{
			"unit":         unit,
			"active_state": active,
			"sub_state":    sub,
		},
	}
}
