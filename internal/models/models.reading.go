// FilePath: internal/models/models.reading.go
package models

import "time"

// Pump state strings as reported by the controller firmware.
const (
	PumpStateOn  = "ON"
	PumpStateOff = "OFF"
)

// SensorHealth holds the controller's self-reported sensor diagnostics.
type SensorHealth struct {
	SoilTempOK bool `json:"soil_temp_ok"`
	MoistureOK bool `json:"moisture_ok"`
	DHTOK      bool `json:"dht_ok"`
}

// LiveReading is the most recent telemetry snapshot for one device.
// Temperatures are fixed-point integers at ten times their real value;
// the display layer divides by ten. Replaced wholesale on every push
// from the realtime store.
type LiveReading struct {
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
	PumpReason       string       `json:"pump_reason" db:"pump_reason"`
	WifiRSSI         int          `json:"wifi_rssi" db:"wifi_rssi"` // dBm, 0 = unknown
	DailyIrrigations int          `json:"daily_irrigations" db:"daily_irrigations"`
	UploadsOK        int          `json:"uploads_ok" db:"uploads_ok"`
	UploadsFailed    int          `json:"uploads_failed" db:"uploads_failed"`
	Status           string       `json:"status" db:"status"`
	LastIrrigation   int64        `json:"last_irrigation" db:"last_irrigation"` // epoch millis
	SensorHealth     SensorHealth `json:"sensor_health"`
}

// Time returns the reading timestamp as a time.Time.
func (r *LiveReading) Time() time.Time {
	return time.UnixMilli(r.Timestamp)
}

// DeviceStatus is the cheap connectivity summary kept separate from the
// full telemetry payload.
type DeviceStatus struct {
	DeviceID         string  `json:"device_id" db:"device_id"`
	LastSeen         int64   `json:"last_seen" db:"last_seen"` // epoch millis
	Online           bool    `json:"online" db:"online"`
	PumpActive       bool    `json:"pump_active" db:"pump_active"`
	MoistureRoot     float64 `json:"moisture_root" db:"moisture_root"`
	DailyIrrigations int     `json:"daily_irrigations" db:"daily_irrigations"`
	Health           string  `json:"health" db:"health"`
}
