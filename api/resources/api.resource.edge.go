// FilePath: api/resources/api.resource.edge.go
package resources

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	nuts "github.com/vaudience/go-nuts"

	"github.com/Toyman-tech/agroflow/internal/errors"
	"github.com/Toyman-tech/agroflow/internal/realtime"
	"github.com/Toyman-tech/agroflow/internal/repository"
)

// EdgeHandlers accepts reading documents from a controller that posts
// over HTTP instead of writing to the stores directly: the document is
// archived and pushed to live subscribers in one call.
type EdgeHandlers struct {
	store   realtime.Store
	history repository.HistoryRepository
}

// @Summary Record a reading from an edge device
// @Description Archive a raw reading document and publish it as the device's live reading
// @Tags edge
// @Accept json
// @Produce json
// @Param deviceId path string true "Device ID"
// @Param reading body object true "Raw reading document"
// @Success 201 {object} map[string]string
// @Failure 400 {object} errors.APIError
// @Router /edge/{deviceId}/readings [post]
func (h *EdgeHandlers) RecordReading(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	deviceID := vars["deviceId"]
	requestID := nuts.NID("req", 12)

	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		respondWithError(w, errors.NewValidationError("failed to read request body", err).WithRequestID(requestID))
		return
	}

	// The stores only ever hold JSON objects; reject anything else here.
	var obj map[string]any
	if err := json.Unmarshal(body, &obj); err != nil || obj == nil {
		respondWithError(w, errors.NewValidationError("reading must be a JSON object", err).WithRequestID(requestID))
		return
	}

	ts := time.Now()
	if raw, ok := obj["timestamp"].(float64); ok && raw > 0 {
		ts = time.UnixMilli(int64(raw))
	}

	if err := h.history.InsertDocument(r.Context(), deviceID, ts, body); err != nil {
		respondWithError(w, errors.NewDatabaseError("failed to archive reading", err).WithRequestID(requestID))
		return
	}
	if err := h.store.PublishLiveReading(r.Context(), deviceID, body); err != nil {
		respondWithError(w, errors.NewInternalError("failed to publish reading", err).WithRequestID(requestID))
		return
	}

	respondWithJSON(w, http.StatusCreated, map[string]string{"status": "recorded"})
}
