package http

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"reporting-sync/internal/core/domain"
	"reporting-sync/internal/core/ports"
	"reporting-sync/internal/shell/runner"
)

const defaultRunsLimit = 20

// SyncHandler exposes the connector's operational state: the cursor,
// run history, and on-demand sync triggering for the configured
// dataset.
type SyncHandler struct {
	cursors ports.CursorStore
	runs    ports.RunRepository
	runner  *runner.Runner
}

func NewSyncHandler(cursors ports.CursorStore, runs ports.RunRepository, r *runner.Runner) *SyncHandler {
	return &SyncHandler{
		cursors: cursors,
		runs:    runs,
		runner:  r,
	}
}

// GetCursor returns the persisted watermark for a dataset.
func (h *SyncHandler) GetCursor(w http.ResponseWriter, r *http.Request) {
	datasetID := mux.Vars(r)["id"]
	if datasetID != h.runner.DatasetID() {
		respondWithError(w, http.StatusNotFound, "Dataset Not Found",
			"The dataset '"+datasetID+"' is not configured on this connector")
		return
	}

	cursor, err := h.cursors.Load(r.Context(), datasetID)
	if err != nil {
		log.Printf("Failed to load cursor for %s: %v", datasetID, err)
		respondWithError(w, http.StatusInternalServerError, "Internal Server Error",
			"Failed to load cursor")
		return
	}

	resp := CursorResponse{DatasetID: datasetID}
	if cursor != nil {
		resp.NextWindowStart = cursor.NextWindowStart
		resp.Initialized = true
	}

	respondWithJSON(w, http.StatusOK, resp)
}

// ListRuns returns recent sync runs for a dataset, newest first.
func (h *SyncHandler) ListRuns(w http.ResponseWriter, r *http.Request) {
	datasetID := mux.Vars(r)["id"]
	if datasetID != h.runner.DatasetID() {
		respondWithError(w, http.StatusNotFound, "Dataset Not Found",
			"The dataset '"+datasetID+"' is not configured on this connector")
		return
	}
	if h.runs == nil {
		respondWithJSON(w, http.StatusOK, []RunResponse{})
		return
	}

	limit := defaultRunsLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			respondWithError(w, http.StatusBadRequest, "Invalid Field",
				"The field 'limit' must be a positive integer")
			return
		}
		limit = parsed
	}

	runs, err := h.runs.ListByDataset(r.Context(), datasetID, limit)
	if err != nil {
		log.Printf("Failed to list runs for %s: %v", datasetID, err)
		respondWithError(w, http.StatusInternalServerError, "Internal Server Error",
			"Failed to list runs")
		return
	}

	resp := make([]RunResponse, 0, len(runs))
	for _, run := range runs {
		resp = append(resp, runResponse(run))
	}
	respondWithJSON(w, http.StatusOK, resp)
}

// TriggerSync starts an on-demand sync invocation in the background
// and acknowledges immediately. An invocation that loses the dataset
// lock is recorded as skipped, not surfaced here.
func (h *SyncHandler) TriggerSync(w http.ResponseWriter, r *http.Request) {
	datasetID := mux.Vars(r)["id"]
	if datasetID != h.runner.DatasetID() {
		respondWithError(w, http.StatusNotFound, "Dataset Not Found",
			"The dataset '"+datasetID+"' is not configured on this connector")
		return
	}

	go func() {
		if _, err := h.runner.RunOnce(context.Background()); err != nil {
			if errors.Is(err, domain.ErrSyncInProgress) {
				return
			}
			log.Printf("Triggered sync for dataset %s failed: %v", datasetID, err)
		}
	}()

	respondWithJSON(w, http.StatusAccepted, TriggerResponse{
		DatasetID: datasetID,
		Triggered: true,
		Detail:    "sync started; check runs for the outcome",
	})
}

// Health reports liveness.
func (h *SyncHandler) Health(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func respondWithJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(payload)
}
