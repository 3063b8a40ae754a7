// FilePath: internal/config/config_test.go
package config

import (
	"testing"
	"time"

	"github.com/matryer/is"
)

func TestLoadAppliesDefaults(t *testing.T) {
	is := is.New(t)

	cfg, err := Load()
	is.NoErr(err)

	is.Equal(cfg.Server.Port, 8080)
	is.Equal(cfg.Device.DefaultID, "AGF-C3-001")
	is.Equal(cfg.Sync.HistoryLimit, 48)
	is.Equal(cfg.Sync.EventLimit, 20)
	is.Equal(cfg.Sync.RefreshInterval, 5*time.Minute)
}

func TestMissingConnectionParamsDegradeInsteadOfFailing(t *testing.T) {
	is := is.New(t)

	// No database or redis host configured: Load must still succeed and
	// only mark the config degraded, the first connection attempt fails
	// later and surfaces as a sync error.
	cfg, err := Load()
	is.NoErr(err)

	is.True(cfg.Degraded())
	is.True(len(cfg.MissingRequired()) >= 2)
}

func TestMissingRequiredReportsEachParameter(t *testing.T) {
	is := is.New(t)

	cfg := &Config{}
	cfg.Database.Port = 5432

	missing := cfg.MissingRequired()
	is.Equal(len(missing), 3) // database host, database user, redis host

	cfg.Database.Host = "db.local"
	cfg.Database.User = "agroflow"
	cfg.Redis.Host = "redis.local"
	is.True(!cfg.Degraded())
}
