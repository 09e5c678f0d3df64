package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"reporting-sync/internal/core/domain"
	"reporting-sync/internal/core/usecases"
	"reporting-sync/internal/shell/runner"
	"reporting-sync/internal/shell/sink"
	"reporting-sync/internal/shell/storage"
)

type stubSyncer struct {
	synced chan struct{}
}

func (s *stubSyncer) SyncDataset(_ context.Context, spec usecases.DatasetSpec) (domain.SyncResult, error) {
	if s.synced != nil {
		close(s.synced)
	}
	return domain.SyncResult{DatasetID: spec.DatasetID, WindowsCommitted: 1, RowsEmitted: 3}, nil
}

type staticRunRepo struct {
	runs      []domain.SyncRun
	lastLimit int
}

func (r *staticRunRepo) Save(context.Context, domain.SyncRun) error { return nil }

func (r *staticRunRepo) ListByDataset(_ context.Context, _ string, limit int) ([]domain.SyncRun, error) {
	r.lastLimit = limit
	if limit > len(r.runs) {
		limit = len(r.runs)
	}
	return r.runs[:limit], nil
}

func newTestHandler(store *sink.MemorySink, runs *staticRunRepo, syncer runner.DatasetSyncer) *SyncHandler {
	spec := usecases.DatasetSpec{DatasetID: "conversation", WindowSeconds: 3600}
	r := runner.NewRunner(syncer, spec, runs, nil, storage.NewMemoryLockManager())
	return NewSyncHandler(store, runs, r)
}

func TestGetCursor(t *testing.T) {
	store := sink.NewMemorySink()
	store.Save(context.Background(), domain.Cursor{DatasetID: "conversation", NextWindowStart: 1717483600})

	router := SetupRoutes(newTestHandler(store, &staticRunRepo{}, &stubSyncer{}))

	req := httptest.NewRequest("GET", "/api/v1/datasets/conversation/cursor", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}

	var resp CursorResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if !resp.Initialized || resp.NextWindowStart != 1717483600 {
		t.Errorf("Unexpected cursor response: %+v", resp)
	}
}

func TestGetCursorUninitialized(t *testing.T) {
	router := SetupRoutes(newTestHandler(sink.NewMemorySink(), &staticRunRepo{}, &stubSyncer{}))

	req := httptest.NewRequest("GET", "/api/v1/datasets/conversation/cursor", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}

	var resp CursorResponse
	json.NewDecoder(w.Body).Decode(&resp)
	if resp.Initialized {
		t.Errorf("Expected uninitialized cursor, got %+v", resp)
	}
}

func TestGetCursorUnknownDataset(t *testing.T) {
	router := SetupRoutes(newTestHandler(sink.NewMemorySink(), &staticRunRepo{}, &stubSyncer{}))

	req := httptest.NewRequest("GET", "/api/v1/datasets/company/cursor", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("Expected 404 for unconfigured dataset, got %d", w.Code)
	}

	var resp ErrorResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode error response: %v", err)
	}
	if len(resp.Errors) != 1 || resp.Errors[0].Title != "Dataset Not Found" {
		t.Errorf("Unexpected error response: %+v", resp)
	}
}

func TestListRuns(t *testing.T) {
	finished := time.Now().UTC()
	repo := &staticRunRepo{runs: []domain.SyncRun{
		{ID: "run-2", DatasetID: "conversation", Status: domain.RunFailed, Error: "poll timeout"},
		{ID: "run-1", DatasetID: "conversation", Status: domain.RunCompleted, WindowsCommitted: 1, RowsEmitted: 3, FinishedAt: &finished},
	}}

	router := SetupRoutes(newTestHandler(sink.NewMemorySink(), repo, &stubSyncer{}))

	req := httptest.NewRequest("GET", "/api/v1/datasets/conversation/runs", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	if repo.lastLimit != defaultRunsLimit {
		t.Errorf("Expected default limit %d, got %d", defaultRunsLimit, repo.lastLimit)
	}

	var resp []RunResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if len(resp) != 2 {
		t.Fatalf("Expected 2 runs, got %d", len(resp))
	}
	if resp[0].ID != "run-2" || resp[0].Error != "poll timeout" {
		t.Errorf("Unexpected first run: %+v", resp[0])
	}
}

func TestListRunsLimit(t *testing.T) {
	repo := &staticRunRepo{runs: []domain.SyncRun{
		{ID: "run-2"}, {ID: "run-1"},
	}}
	router := SetupRoutes(newTestHandler(sink.NewMemorySink(), repo, &stubSyncer{}))

	req := httptest.NewRequest("GET", "/api/v1/datasets/conversation/runs?limit=1", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	if repo.lastLimit != 1 {
		t.Errorf("Expected limit 1 passed through, got %d", repo.lastLimit)
	}

	req = httptest.NewRequest("GET", "/api/v1/datasets/conversation/runs?limit=zero", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for bad limit, got %d", w.Code)
	}
}

func TestTriggerSync(t *testing.T) {
	syncer := &stubSyncer{synced: make(chan struct{})}
	router := SetupRoutes(newTestHandler(sink.NewMemorySink(), &staticRunRepo{}, syncer))

	req := httptest.NewRequest("POST", "/api/v1/datasets/conversation/sync", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusAccepted {
		t.Fatalf("Expected 202, got %d", w.Code)
	}

	var resp TriggerResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if !resp.Triggered || resp.DatasetID != "conversation" {
		t.Errorf("Unexpected trigger response: %+v", resp)
	}

	// The sync runs in the background after the response.
	select {
	case <-syncer.synced:
	case <-time.After(2 * time.Second):
		t.Fatal("Expected background sync to start")
	}
}

func TestTriggerSyncUnknownDataset(t *testing.T) {
	router := SetupRoutes(newTestHandler(sink.NewMemorySink(), &staticRunRepo{}, &stubSyncer{}))

	req := httptest.NewRequest("POST", "/api/v1/datasets/company/sync", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("Expected 404, got %d", w.Code)
	}
}

func TestHealth(t *testing.T) {
	router := SetupRoutes(newTestHandler(sink.NewMemorySink(), &staticRunRepo{}, &stubSyncer{}))

	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}

	var resp map[string]string
	json.NewDecoder(w.Body).Decode(&resp)
	if resp["status"] != "ok" {
		t.Errorf("Unexpected health response: %v", resp)
	}
}
