// Package notify pushes verification outcomes to an operator.
package notify

import (
	"context"
	"fmt"
	"time"

	units "github.com/docker/go-units"

	"github.com/kagawa-dx/bosaictl/internal/gate"
)

// Channel is a notification channel.
type Channel interface {
	Send(ctx context.Context, msg *Message) error
	Type() string
}

// Message contains notification details.
type Message struct {
	Title    string
	Body     string
	Priority Priority
	Tags     []string
}

// Priority levels for notifications.
type Priority int

const (
	PriorityLow Priority = iota
	PriorityNormal
	PriorityHigh
	PriorityUrgent
)

// FormatOutcome creates a notification message for a gate outcome.
func FormatOutcome(target string, cfg gate.Config, out gate.Outcome) *Message {
	if out.Ready {
		return &Message{
			Title:    fmt.Sprintf("[ready] %s", target),
			Body:     fmt.Sprintf("HTTP %d after attempt %d of %d", cfg.ExpectStatus, out.Attempt, cfg.Attempts),
			Priority: PriorityNormal,
			Tags:     []string{"white_check_mark"},
		}
	}

	budget := time.Duration(cfg.Attempts) * cfg.Interval
	body := fmt.Sprintf("no HTTP %d within %s (%d attempts)",
		cfg.ExpectStatus, units.HumanDuration(budget), out.Attempt)
	if out.LastError != "" {
		body += ": " + out.LastError
	}
	return &Message{
		Title:    fmt.Sprintf("[timed-out] %s", target),
		Body:     body,
		Priority: PriorityUrgent,
		Tags:     []string{"rotating_light"},
	}
}
