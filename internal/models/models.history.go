// FilePath: internal/models/models.history.go
package models

import "time"

// HistoricalReading is one archived telemetry snapshot from the document
// store. Structurally a LiveReading plus the cumulative counters the
// controller only reports when archiving.
type HistoricalReading struct {
	DeviceID         string       `json:"device_id" db:"device_id"`
	Timestamp        int64        `json:"timestamp" db:"timestamp"` // epoch millis
	SoilTempRaw      int          `json:"soil_temp" db:"soil_temp"`
	AirTempRaw       int          `json:"air_temp" db:"air_temp"`
	Humidity         float64      `json:"humidity" db:"humidity"`
	MoistureSurface  float64      `json:"moisture_surface" db:"moisture_surface"`
	MoistureRoot     float64      `json:"moisture_root" db:"moisture_root"`
	MoistureDeep     float64      `json:"moisture_deep" db:"moisture_deep"`
	PumpActive       bool         `json:"pump_active" db:"pump_active"`
	PumpState        string       `json:"pump_state" db:"pump_state"`
	WifiRSSI         int          `json:"wifi_rssi" db:"wifi_rssi"`
	DailyIrrigations int          `json:"daily_irrigations" db:"daily_irrigations"`
	DailyCycleCount  int          `json:"daily_cycle_count" db:"daily_cycle_count"`
	UptimeSeconds    int64        `json:"uptime_seconds" db:"uptime_seconds"`
	Status           string       `json:"status" db:"status"`
	SensorHealth     SensorHealth `json:"sensor_health"`
}

// Time returns the snapshot timestamp as a time.Time.
func (r *HistoricalReading) Time() time.Time {
	return time.UnixMilli(r.Timestamp)
}
