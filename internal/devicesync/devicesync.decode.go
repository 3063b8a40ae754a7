// FilePath: internal/devicesync/devicesync.decode.go
package devicesync

import (
	"github.com/Toyman-tech/agroflow/internal/decode"
	"github.com/Toyman-tech/agroflow/internal/models"
)

// The store documents come from embedded firmware and are decoded field
// by field with defaults: numeric fields fall back to 0, booleans to
// false, strings to "" (pump state to "OFF"). Only a payload that is
// not a JSON object at all is dropped.

func decodeLiveReading(raw []byte) (*models.LiveReading, []string, bool) {
	d, ok := decode.NewDecoder(raw)
	if !ok {
		return nil, nil, false
	}

	reading := &models.LiveReading{
		DeviceID:         d.String("device_id", ""),
		Timestamp:        d.Int64("timestamp", 0),
		SoilTempRaw:      d.Int("soil_temp", 0),
		AirTempRaw:       d.Int("air_temp", 0),
		Humidity:         d.Float("humidity", 0),
		MoistureSurface:  d.Float("moisture_surface", 0),
		MoistureRoot:     d.Float("moisture_root", 0),
		MoistureDeep:     d.Float("moisture_deep", 0),
		PumpActive:       d.Bool("pump_active", false),
		PumpState:        d.String("pump_state", models.PumpStateOff),
		PumpReason:       d.String("pump_reason", ""),
		WifiRSSI:         d.Int("wifi_rssi", 0),
		DailyIrrigations: d.Int("daily_irrigations", 0),
		UploadsOK:        d.Int("uploads_ok", 0),
		UploadsFailed:    d.Int("uploads_failed", 0),
		Status:           d.String("status", ""),
		LastIrrigation:   d.Int64("last_irrigation", 0),
	}

	health := d.Object("sensor_health")
	reading.SensorHealth = models.SensorHealth{
		SoilTempOK: health.Bool("soil_temp_ok", false),
		MoistureOK: health.Bool("moisture_ok", false),
		DHTOK:      health.Bool("dht_ok", false),
	}
	d.Merge("sensor_health", health)

	return reading, d.Defaulted(), true
}

func decodeHistoricalReading(raw []byte) (*models.HistoricalReading, []string, bool) {
	d, ok := decode.NewDecoder(raw)
	if !ok {
		return nil, nil, false
	}

	reading := &models.HistoricalReading{
		DeviceID:         d.String("device_id", ""),
		Timestamp:        d.Int64("timestamp", 0),
		SoilTempRaw:      d.Int("soil_temp", 0),
		AirTempRaw:       d.Int("air_temp", 0),
		Humidity:         d.Float("humidity", 0),
		MoistureSurface:  d.Float("moisture_surface", 0),
		MoistureRoot:     d.Float("moisture_root", 0),
		MoistureDeep:     d.Float("moisture_deep", 0),
		PumpActive:       d.Bool("pump_active", false),
		PumpState:        d.String("pump_state", models.PumpStateOff),
		WifiRSSI:         d.Int("wifi_rssi", 0),
		DailyIrrigations: d.Int("daily_irrigations", 0),
		DailyCycleCount:  d.Int("daily_cycle_count", 0),
		UptimeSeconds:    d.Int64("uptime_seconds", 0),
		Status:           d.String("status", ""),
	}

	health := d.Object("sensor_health")
	reading.SensorHealth = models.SensorHealth{
		SoilTempOK: health.Bool("soil_temp_ok", false),
		MoistureOK: health.Bool("moisture_ok", false),
		DHTOK:      health.Bool("dht_ok", false),
	}
	d.Merge("sensor_health", health)

	return reading, d.Defaulted(), true
}

func decodeIrrigationEvent(raw []byte) (*models.IrrigationEvent, []string, bool) {
	d, ok := decode.NewDecoder(raw)
	if !ok {
		return nil, nil, false
	}

	event := &models.IrrigationEvent{
		EventID:         d.String("event_id", ""),
		DeviceID:        d.String("device_id", ""),
		Event:           d.String("event", ""),
		Timestamp:       d.Int64("timestamp", 0),
		MoistureSurface: d.Float("moisture_surface", 0),
		MoistureRoot:    d.Float("moisture_root", 0),
		MoistureDeep:    d.Float("moisture_deep", 0),
		SoilTempRaw:     d.Int("soil_temp", 0),
		AirTempRaw:      d.Int("air_temp", 0),
		DailySequence:   d.Int("daily_sequence", 0),
	}

	return event, d.Defaulted(), true
}

func decodeDeviceStatus(raw []byte) (*models.DeviceStatus, []string, bool) {
	d, ok := decode.NewDecoder(raw)
	if !ok {
		return nil, nil, false
	}

	status := &models.DeviceStatus{
		DeviceID:         d.String("device_id", ""),
		LastSeen:         d.Int64("last_seen", 0),
		Online:           d.Bool("online", false),
		PumpActive:       d.Bool("pump_active", false),
		MoistureRoot:     d.Float("moisture_root", 0),
		DailyIrrigations: d.Int("daily_irrigations", 0),
		Health:           d.String("health", ""),
	}

	return status, d.Defaulted(), true
}
