package history

import (
	"context"
	"fmt"
	"time"

	"github.com/kagawa-dx/bosaictl/internal/signal"
)

// Outcome values stored for a run.
const (
	OutcomeReady    = "ready"
	OutcomeTimedOut = "timed-out"
)

// Run is one recorded verification run.
type Run struct {
	ID            int64          `json:"id"`
	TargetURL     string         `json:"target_url"`
	Outcome       string         `json:"outcome"`
	AttemptsUsed  int            `json:"attempts_used"`
	AttemptBudget int            `json:"attempt_budget"`
	LastStatus    int            `json:"last_status"`
	LastError     string         `json:"last_error,omitempty"`
	ElapsedMS     int64          `json:"elapsed_ms"`
	StartedAt     time.Time      `json:"started_at"`
	Signals       []SignalResult `json:"signals,omitempty"`
}

// SignalResult is one secondary signal attached to a run.
type SignalResult struct {
	Name    string        `json:"name"`
	Status  signal.Status `json:"status"`
	Message string        `json:"message"`
	Data    JSONMap       `json:"data,omitempty"`
}

// RecordRun inserts a run and its signal results in one transaction
// and returns the run ID.
func (d *DB) RecordRun(ctx context.Context, run *Run) (int64, error) {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO runs (target_url, outcome, attempts_used, attempt_budget, last_status, last_error, elapsed_ms, started_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		run.TargetURL, run.Outcome, run.AttemptsUsed, run.AttemptBudget,
		run.LastStatus, run.LastError, run.ElapsedMS,
		run.StartedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return 0, fmt.Errorf("insert run: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("run id: %w", err)
	}

	for _, s := range run.Signals {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO signal_results (run_id, name, status, message, data)
			VALUES (?, ?, ?, ?, ?)`,
			id, s.Name, string(s.Status), s.Message, s.Data,
		)
		if err != nil {
			return 0, fmt.Errorf("insert signal result %s: %w", s.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return id, nil
}

// ListRuns returns the most recent runs, newest first, without their
// signal results.
func (d *DB) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := d.db.QueryContext(ctx, `
		SELECT id, target_url, outcome, attempts_used, attempt_budget, last_status, last_error, elapsed_ms, started_at
		FROM runs ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// GetRun returns a single run with its signal results.
func (d *DB) GetRun(ctx context.Context, id int64) (*Run, error) {
	row := d.db.QueryRowContext(ctx, `
		SELECT id, target_url, outcome, attempts_used, attempt_budget, last_status, last_error, elapsed_ms, started_at
		FROM runs WHERE id = ?`, id)

	run, err := scanRun(row)
	if err != nil {
		return nil, err
	}

	rows, err := d.db.QueryContext(ctx, `
		SELECT name, status, message, data
		FROM signal_results WHERE run_id = ? ORDER BY id`, id)
	if err != nil {
		return nil, fmt.Errorf("query signal results: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var s SignalResult
		var status string
		if err := rows.Scan(&s.Name, &status, &s.Message, &s.Data); err != nil {
			return nil, fmt.Errorf("scan signal result: %w", err)
		}
		s.Status = signal.Status(status)
		run.Signals = append(run.Signals, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &run, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (Run, error) {
	var run Run
	var startedAt string
	err := row.Scan(&run.ID, &run.TargetURL, &run.Outcome, &run.AttemptsUsed,
		&run.AttemptBudget, &run.LastStatus, &run.LastError, &run.ElapsedMS, &startedAt)
	if err != nil {
		return run, fmt.Errorf("scan run: %w", err)
	}
	if t, err := time.Parse(time.RFC3339, startedAt); err == nil {
		run.StartedAt = t
	}
	return run, nil
}
