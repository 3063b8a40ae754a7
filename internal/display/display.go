// FilePath: internal/display/display.go

// Package display holds the pure presentation derivations: fixed-point
// temperature decoding, moisture and WiFi-signal bucketing, and
// relative-time formatting. No remote access, no state.
package display

import (
	"fmt"
	"time"
)

// Moisture status buckets, inclusive on the lower boundary.
const (
	MoistureCritical  = "Critical"
	MoistureLow       = "Low"
	MoistureGood      = "Good"
	MoistureExcellent = "Excellent"
)

// WiFi signal buckets.
const (
	SignalExcellent = "Excellent"
	SignalGood      = "Good"
	SignalFair      = "Fair"
	SignalWeak      = "Weak"
	SignalUnknown   = "Unknown"
)

// Temperature decodes a fixed-point x10 value. A raw zero means the
// sensor has not reported yet and must not render as 0.0 degrees, so
// ok is false for it.
func Temperature(raw int) (float64, bool) {
	if raw == 0 {
		return 0, false
	}
	return float64(raw) / 10, true
}

// MoistureStatus buckets a moisture percentage: below 30 critical,
// below 50 low, below 70 good, otherwise excellent.
func MoistureStatus(pct float64) string {
	switch {
	case pct < 30:
		return MoistureCritical
	case pct < 50:
		return MoistureLow
	case pct < 70:
		return MoistureGood
	default:
		return MoistureExcellent
	}
}

// SignalStrength buckets a WiFi RSSI in dBm. Zero (or absent) maps to
// unknown since a real reading is always negative.
func SignalStrength(dbm int) string {
	if dbm == 0 {
		return SignalUnknown
	}
	switch {
	case dbm > -50:
		return SignalExcellent
	case dbm > -60:
		return SignalGood
	case dbm > -70:
		return SignalFair
	default:
		return SignalWeak
	}
}

// SignalBars maps an RSSI to 0-4 bars for the page.
func SignalBars(dbm int) int {
	switch SignalStrength(dbm) {
	case SignalExcellent:
		return 4
	case SignalGood:
		return 3
	case SignalFair:
		return 2
	case SignalWeak:
		return 1
	default:
		return 0
	}
}

// TimeAgo renders a timestamp relative to now: just now, minutes,
// hours, or days.
func TimeAgo(t, now time.Time) string {
	d := now.Sub(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	}
}
