// FilePath: internal/models/models.irrigation.go
package models

import "time"

// Irrigation event kinds logged by the controller.
const (
	IrrigationStarted   = "started"
	IrrigationCompleted = "completed"
)

// IrrigationEvent is one pump state transition with the sensor values
// captured at that moment. Events arrive unordered from the per-device
// log; the sync layer sorts them by timestamp descending.
type IrrigationEvent struct {
	EventID         string  `json:"event_id" db:"event_id"`
	DeviceID        string  `json:"device_id" db:"device_id"`
	Event           string  `json:"event" db:"event"` // "started" or "completed"
	Timestamp       int64   `json:"timestamp" db:"timestamp"` // epoch millis
	MoistureSurface float64 `json:"moisture_surface" db:"moisture_surface"`
	MoistureRoot    float64 `json:"moisture_root" db:"moisture_root"`
	MoistureDeep    float64 `json:"moisture_deep" db:"moisture_deep"`
	SoilTempRaw     int     `json:"soil_temp" db:"soil_temp"`
	AirTempRaw      int     `json:"air_temp" db:"air_temp"`
	DailySequence   int     `json:"daily_sequence" db:"daily_sequence"`
}

// Time returns the event timestamp as a time.Time.
func (e *IrrigationEvent) Time() time.Time {
	return time.UnixMilli(e.Timestamp)
}
