// FilePath: api/resources/api.resource.dashboard.go
package resources

import (
	"net/http"
	"time"

	"github.com/gorilla/schema"
	nuts "github.com/vaudience/go-nuts"

	"github.com/Toyman-tech/agroflow/internal/devicesync"
	"github.com/Toyman-tech/agroflow/internal/display"
	"github.com/Toyman-tech/agroflow/internal/errors"
)

var queryDecoder = schema.NewDecoder()

func init() {
	queryDecoder.IgnoreUnknownKeys(true)
}

// DashboardHandlers serves the unified sync state plus the derived
// display values.
type DashboardHandlers struct {
	sync *devicesync.Syncer
}

// DerivedView carries the display-only derivations so the page renders
// without duplicating the bucketing rules client-side. Temperature
// pointers are nil before the first real reading.
type DerivedView struct {
	SoilTempC             *float64 `json:"soil_temp_c"`
	AirTempC              *float64 `json:"air_temp_c"`
	MoistureSurfaceStatus string   `json:"moisture_surface_status,omitempty"`
	MoistureRootStatus    string   `json:"moisture_root_status,omitempty"`
	MoistureDeepStatus    string   `json:"moisture_deep_status,omitempty"`
	Signal                string   `json:"signal,omitempty"`
	SignalBars            int      `json:"signal_bars"`
	LastUpdateAgo         string   `json:"last_update_ago,omitempty"`
	LastIrrigationAgo     string   `json:"last_irrigation_ago,omitempty"`
}

// DashboardResponse is the full dashboard payload.
type DashboardResponse struct {
	devicesync.State
	Derived DerivedView `json:"derived"`
}

func buildDashboardResponse(state devicesync.State, now time.Time) DashboardResponse {
	resp := DashboardResponse{State: state}

	if state.Current != nil {
		cur := state.Current
		if v, ok := display.Temperature(cur.SoilTempRaw); ok {
			resp.Derived.SoilTempC = &v
		}
		if v, ok := display.Temperature(cur.AirTempRaw); ok {
			resp.Derived.AirTempC = &v
		}
		resp.Derived.MoistureSurfaceStatus = display.MoistureStatus(cur.MoistureSurface)
		resp.Derived.MoistureRootStatus = display.MoistureStatus(cur.MoistureRoot)
		resp.Derived.MoistureDeepStatus = display.MoistureStatus(cur.MoistureDeep)
		resp.Derived.Signal = display.SignalStrength(cur.WifiRSSI)
		resp.Derived.SignalBars = display.SignalBars(cur.WifiRSSI)
		if cur.LastIrrigation > 0 {
			resp.Derived.LastIrrigationAgo = display.TimeAgo(time.UnixMilli(cur.LastIrrigation), now)
		}
	}
	if state.LastUpdate != nil {
		resp.Derived.LastUpdateAgo = display.TimeAgo(*state.LastUpdate, now)
	}
	return resp
}

// @Summary Get the dashboard state
// @Description Get the full sync state for the watched device with derived display values
// @Tags dashboard
// @Produce json
// @Success 200 {object} DashboardResponse
// @Router /dashboard [get]
func (h *DashboardHandlers) GetDashboard(w http.ResponseWriter, r *http.Request) {
	state := h.sync.Snapshot()
	respondWithJSON(w, http.StatusOK, buildDashboardResponse(state, time.Now()))
}

type listQuery struct {
	Limit int `schema:"limit"`
}

// @Summary Get historical readings
// @Description Get the most recent decoded historical readings, newest first
// @Tags dashboard
// @Produce json
// @Param limit query int false "Maximum readings to return"
// @Success 200 {array} models.HistoricalReading
// @Router /history [get]
func (h *DashboardHandlers) GetHistory(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)

	var q listQuery
	if err := queryDecoder.Decode(&q, r.URL.Query()); err != nil {
		respondWithError(w, errors.NewValidationError("invalid query parameters", err).WithRequestID(requestID))
		return
	}

	history := h.sync.Snapshot().History
	if q.Limit > 0 && q.Limit < len(history) {
		history = history[:q.Limit]
	}
	respondWithJSON(w, http.StatusOK, history)
}

// @Summary Get irrigation events
// @Description Get the per-device irrigation log, newest first
// @Tags dashboard
// @Produce json
// @Param limit query int false "Maximum events to return"
// @Success 200 {array} models.IrrigationEvent
// @Router /irrigation-events [get]
func (h *DashboardHandlers) GetIrrigationEvents(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)

	var q listQuery
	if err := queryDecoder.Decode(&q, r.URL.Query()); err != nil {
		respondWithError(w, errors.NewValidationError("invalid query parameters", err).WithRequestID(requestID))
		return
	}

	events := h.sync.Snapshot().Events
	if q.Limit > 0 && q.Limit < len(events) {
		events = events[:q.Limit]
	}
	respondWithJSON(w, http.StatusOK, events)
}

// @Summary Trigger a manual refresh
// @Description Re-run the batch fetches and snapshot backfill
// @Tags dashboard
// @Produce json
// @Success 200 {object} DashboardResponse
// @Router /refresh [post]
func (h *DashboardHandlers) Refresh(w http.ResponseWriter, r *http.Request) {
	h.sync.Refresh(r.Context())
	state := h.sync.Snapshot()
	respondWithJSON(w, http.StatusOK, buildDashboardResponse(state, time.Now()))
}
