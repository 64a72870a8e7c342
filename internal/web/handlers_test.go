package web

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kagawa-dx/bosaictl/internal/history"
	"github.com/kagawa-dx/bosaictl/internal/signal"
)

func newTestServer(t *testing.T) (*Server, *history.DB) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bosaictl.db")
	if err := history.RunMigrations(path); err != nil {
		t.Fatalf("migrations: %v", err)
	}
	db, err := history.Connect(context.Background(), path)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(db.Close)

	return NewServer(zap.NewNop(), db, Config{Port: 0, AuthToken: "testtoken"}), db
}

func get(t *testing.T, handler http.Handler, path, token string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestHealthNoAuth(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := get(t, srv.Router(), "/api/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("health status = %d", rec.Code)
	}

	var body map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body["status"] != "ok" {
		t.Errorf("health body = %v", body)
	}
}

func TestRunsRequireAuth(t *testing.T) {
	srv, _ := newTestServer(t)

	if rec := get(t, srv.Router(), "/api/runs", ""); rec.Code != http.StatusUnauthorized {
		t.Errorf("no token: status = %d, want 401", rec.Code)
	}
	if rec := get(t, srv.Router(), "/api/runs", "wrong"); rec.Code != http.StatusUnauthorized {
		t.Errorf("wrong token: status = %d, want 401", rec.Code)
	}
	if rec := get(t, srv.Router(), "/api/runs", "testtoken"); rec.Code != http.StatusOK {
		t.Errorf("valid token: status = %d, want 200", rec.Code)
	}
}

func TestListRunsEmpty(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := get(t, srv.Router(), "/api/runs", "testtoken")

	var runs []history.Run
	if err := json.NewDecoder(rec.Body).Decode(&runs); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("expected no runs, got %d", len(runs))
	}
}

func TestGetRunWithSignals(t *testing.T) {
	srv, db := newTestServer(t)

	id, err := db.RecordRun(context.Background(), &history.Run{
		TargetURL:     "http://127.0.0.1:8501/_stcore/health",
		Outcome:       history.OutcomeTimedOut,
		AttemptsUsed:  15,
		AttemptBudget: 15,
		ElapsedMS:     14000,
		StartedAt:     time.Now().UTC(),
		Signals: []history.SignalResult{
			{Name: "listen", Status: signal.StatusCritical, Message: "nothing is listening on port 8501"},
		},
	})
	if err != nil {
		t.Fatalf("RecordRun: %v", err)
	}

	rec := get(t, srv.Router(), "/api/runs/"+strconv.FormatInt(id, 10), "testtoken")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var run history.Run
	if err := json.NewDecoder(rec.Body).Decode(&run); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if run.Outcome != history.OutcomeTimedOut {
		t.Errorf("outcome = %q", run.Outcome)
	}
	if len(run.Signals) != 1 || run.Signals[0].Name != "listen" {
		t.Errorf("signals = %+v", run.Signals)
	}
}

func TestGetRunNotFound(t *testing.T) {
	srv, _ := newTestServer(t)
	if rec := get(t, srv.Router(), "/api/runs/424242", "testtoken"); rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestGetRunBadID(t *testing.T) {
	srv, _ := newTestServer(t)
	if rec := get(t, srv.Router(), "/api/runs/abc", "testtoken"); rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}
