package unit

import (
	"testing"
	"time"

	"github.com/kagawa-dx/bosaictl/internal/signal"
)

func TestParseShow(t *testing.T) {
	out := "ActiveState=active\nSubState=running\nNRestarts=2\nExecMainStatus=0\nExecMainPID=1234\nActiveEnterTimestamp=Fri 2026-08-28 10:00:00 UTC\n"
	fields := parseShow(out)

	expected := map[string]string{
		"ActiveState":          "active",
		"SubState":             "running",
		"NRestarts":            "2",
		"ExecMainStatus":       "0",
		"ExecMainPID":          "1234",
		"ActiveEnterTimestamp": "Fri 2026-08-28 10:00:00 UTC",
	}
	for k, v := range expected {
		if fields[k] != v {
			t.Errorf("fields[%q] = %q, want %q", k, fields[k], v)
		}
	}
}

func TestParseShowSkipsMalformedLines(t *testing.T) {
	fields := parseShow("garbage line\n\nActiveState=active\n")
	if len(fields) != 1 {
		t.Errorf("expected 1 field, got %d: %v", len(fields), fields)
	}
}

func TestEvaluate(t *testing.T) {
	now := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		fields   map[string]string
		expected signal.Status
	}{
		{
			name: "active running",
			fields: map[string]string{
				"ActiveState": "active", "SubState": "running",
				"NRestarts": "0", "ExecMainStatus": "0", "ExecMainPID": "1234",
			},
			expected: signal.StatusOK,
		},
		{
			name: "failed",
			fields: map[string]string{
				"ActiveState": "failed", "SubState": "failed",
				"NRestarts": "5", "ExecMainStatus": "1",
			},
			expected: signal.StatusCritical,
		},
		{
			name: "activating",
			fields: map[string]string{
				"ActiveState": "activating", "SubState": "start",
			},
			expected: signal.StatusWarning,
		},
		{
			name:     "no state",
			fields:   map[string]string{},
			expected: signal.StatusUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := evaluate("bosai-dx.service", tt.fields, now)
			if result.Status != tt.expected {
				t.Errorf("evaluate() = %q, want %q (%s)", result.Status, tt.expected, result.Message)
			}
		})
	}
}

func TestEvaluateMetrics(t *testing.T) {
	result := evaluate("bosai-dx.service", map[string]string{
		"ActiveState":    "failed",
		"SubState":       "failed",
		"NRestarts":      "3",
		"ExecMainStatus": "127",
		"ExecMainPID":    "0",
	}, time.Now())

	if result.Metrics["restarts"] != 3 {
		t.Errorf("expected 3 restarts, got %v", result.Metrics["restarts"])
	}
	if result.Metrics["last_exit_code"] != 127 {
		t.Errorf("expected exit code 127, got %v", result.Metrics["last_exit_code"])
	}
}

func TestEvaluateActiveDurationInMessage(t *testing.T) {
	now := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	result := evaluate("bosai-dx.service", map[string]string{
		"ActiveState":          "active",
		"SubState":             "running",
		"ActiveEnterTimestamp": "Sat 2026-08-29 10:00:00 UTC",
	}, now)

	if result.Status != signal.StatusOK {
		t.Fatalf("expected ok, got %q", result.Status)
	}
	if want := "bosai-dx.service is active (running) for 2 hours"; result.Message != want {
		t.Errorf("message = %q, want %q", result.Message, want)
	}
}

func TestRunEmptyUnit(t *testing.T) {
	result := Run("")
	if result.Status != signal.StatusUnknown {
		t.Errorf("expected unknown for empty unit, got %q", result.Status)
	}
}
