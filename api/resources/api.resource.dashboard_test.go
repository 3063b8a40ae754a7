// FilePath: api/resources/api.resource.dashboard_test.go
package resources

import (
	"testing"
	"time"

	"github.com/matryer/is"

	"github.com/Toyman-tech/agroflow/internal/devicesync"
	"github.com/Toyman-tech/agroflow/internal/display"
	"github.com/Toyman-tech/agroflow/internal/models"
)

func TestBuildDashboardResponseDerivesDisplayValues(t *testing.T) {
	is := is.New(t)

	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	lastUpdate := now.Add(-10 * time.Minute)

	state := devicesync.State{
		DeviceID: "dev-1",
		Current: &models.LiveReading{
			SoilTempRaw:     221,
			AirTempRaw:      305,
			MoistureSurface: 25,
			MoistureRoot:    55,
			MoistureDeep:    75,
			WifiRSSI:        -58,
			LastIrrigation:  now.Add(-2 * time.Hour).UnixMilli(),
		},
		Connected:  true,
		LastUpdate: &lastUpdate,
	}

	resp := buildDashboardResponse(state, now)

	is.True(resp.Derived.SoilTempC != nil)
	is.Equal(*resp.Derived.SoilTempC, 22.1)
	is.True(resp.Derived.AirTempC != nil)
	is.Equal(*resp.Derived.AirTempC, 30.5)
	is.Equal(resp.Derived.MoistureSurfaceStatus, display.MoistureCritical)
	is.Equal(resp.Derived.MoistureRootStatus, display.MoistureGood)
	is.Equal(resp.Derived.MoistureDeepStatus, display.MoistureExcellent)
	is.Equal(resp.Derived.Signal, display.SignalGood)
	is.Equal(resp.Derived.SignalBars, 3)
	is.Equal(resp.Derived.LastUpdateAgo, "10m ago")
	is.Equal(resp.Derived.LastIrrigationAgo, "2h ago")
}

func TestBuildDashboardResponseBeforeFirstReading(t *testing.T) {
	is := is.New(t)

	now := time.Now()
	resp := buildDashboardResponse(devicesync.State{DeviceID: "dev-1"}, now)

	// No reading yet: no spurious 0.0 degrees, no buckets, no relative times.
	is.Equal(resp.Derived.SoilTempC, nil)
	is.Equal(resp.Derived.AirTempC, nil)
	is.Equal(resp.Derived.MoistureRootStatus, "")
	is.Equal(resp.Derived.Signal, "")
	is.Equal(resp.Derived.SignalBars, 0)
	is.Equal(resp.Derived.LastUpdateAgo, "")
}

func TestBuildDashboardResponseZeroTempInReading(t *testing.T) {
	is := is.New(t)

	state := devicesync.State{
		DeviceID: "dev-1",
		Current:  &models.LiveReading{MoistureRoot: 40},
	}

	resp := buildDashboardResponse(state, time.Now())

	is.Equal(resp.Derived.SoilTempC, nil) // zero raw temp is "no reading"
	is.Equal(resp.Derived.MoistureRootStatus, display.MoistureLow)
	is.Equal(resp.Derived.Signal, display.SignalUnknown)
}
