// FilePath: api/resources/resources.go
package resources

import (
	"net/http"

	"github.com/Toyman-tech/agroflow/internal/devicesync"
	"github.com/Toyman-tech/agroflow/internal/realtime"
	"github.com/Toyman-tech/agroflow/internal/repository"
)

// Deps carries everything the handlers need.
type Deps struct {
	Sync    *devicesync.Syncer
	Store   realtime.Store
	History repository.HistoryRepository
}

// Resources holds all HTTP resource handlers
type Resources struct {
	Dashboard   *DashboardHandlers
	Pump        *PumpHandlers
	Live        *LiveHandlers
	Edge        *EdgeHandlers
	HealthCheck func(w http.ResponseWriter, r *http.Request)
	Metrics     func(w http.ResponseWriter, r *http.Request)
}

// NewResources creates a new Resources instance
func NewResources(deps Deps) *Resources {
	return &Resources{
		Dashboard: &DashboardHandlers{sync: deps.Sync},
		Pump:      &PumpHandlers{sync: deps.Sync},
		Live:      &LiveHandlers{sync: deps.Sync},
		Edge:      &EdgeHandlers{store: deps.Store, history: deps.History},
	}
}

// SetHealthCheck sets the health check handler
func (r *Resources) SetHealthCheck(h func(w http.ResponseWriter, r *http.Request)) {
	r.HealthCheck = h
}

// SetMetrics sets the metrics handler
func (r *Resources) SetMetrics(h func(w http.ResponseWriter, r *http.Request)) {
	r.Metrics = h
}
