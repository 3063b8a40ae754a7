// FilePath: api/resources/api.resource.pump.go
package resources

import (
	"encoding/json"
	"net/http"

	nuts "github.com/vaudience/go-nuts"

	"github.com/Toyman-tech/agroflow/internal/devicesync"
	"github.com/Toyman-tech/agroflow/internal/errors"
	"github.com/Toyman-tech/agroflow/internal/models"
)

// PumpHandlers exposes manual pump control.
type PumpHandlers struct {
	sync *devicesync.Syncer
}

type pumpRequest struct {
	State string `json:"state"`
}

type pumpResponse struct {
	Success bool   `json:"success"`
	State   string `json:"state"`
}

// @Summary Control the irrigation pump
// @Description Send an ON or OFF command to the controller. The new state arrives through the live subscription, not this response.
// @Tags pump
// @Accept json
// @Produce json
// @Param command body pumpRequest true "Desired pump state"
// @Success 200 {object} pumpResponse
// @Failure 400 {object} errors.APIError
// @Router /pump [post]
func (h *PumpHandlers) ControlPump(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)

	var req pumpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, errors.NewValidationError("invalid request body", err).WithRequestID(requestID))
		return
	}
	if req.State != models.PumpStateOn && req.State != models.PumpStateOff {
		respondWithError(w, errors.NewValidationError("state must be ON or OFF", nil).WithRequestID(requestID))
		return
	}

	ok := h.sync.ControlPump(r.Context(), req.State)
	respondWithJSON(w, http.StatusOK, pumpResponse{Success: ok, State: req.State})
}
