// FilePath: api/api.router.go
package api

import (
	"net/http"
	"strings"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	nuts "github.com/vaudience/go-nuts"

	"github.com/Toyman-tech/agroflow/api/resources"
	"github.com/Toyman-tech/agroflow/web"
)

type Router struct {
	router    *mux.Router
	handler   http.Handler
	resources *resources.Resources
}

func NewRouter(res *resources.Resources) *Router {
	r := &Router{
		router:    mux.NewRouter(),
		resources: res,
	}

	r.setupRoutes()

	r.handler = handlers.CombinedLoggingHandler(logWriter{}, handlers.CORS(
		handlers.AllowedOrigins([]string{"*"}),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost}),
		handlers.AllowedHeaders([]string{"Content-Type"}),
	)(r.router))
	return r
}

func (r *Router) setupRoutes() {
	// API version prefix
	api := r.router.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/health", r.resources.HealthCheck).Methods(http.MethodGet)
	api.HandleFunc("/metrics", r.resources.Metrics).Methods(http.MethodGet)

	// Dashboard
	api.HandleFunc("/dashboard", r.resources.Dashboard.GetDashboard).Methods(http.MethodGet)
	api.HandleFunc("/history", r.resources.Dashboard.GetHistory).Methods(http.MethodGet)
	api.HandleFunc("/irrigation-events", r.resources.Dashboard.GetIrrigationEvents).Methods(http.MethodGet)
	api.HandleFunc("/refresh", r.resources.Dashboard.Refresh).Methods(http.MethodPost)

	// Pump control
	api.HandleFunc("/pump", r.resources.Pump.ControlPump).Methods(http.MethodPost)

	// Live push
	api.HandleFunc("/live", r.resources.Live.Stream).Methods(http.MethodGet)

	// Edge ingest
	api.HandleFunc("/edge/{deviceId}/readings", r.resources.Edge.RecordReading).Methods(http.MethodPost)

	// Static dashboard page
	r.router.PathPrefix("/").Handler(web.Handler())
}

// logWriter forwards access-log lines into the service logger.
type logWriter struct{}

func (logWriter) Write(p []byte) (int, error) {
	nuts.L.Debugf("[HTTP] %s", strings.TrimRight(string(p), "\n"))
	return len(p), nil
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.handler.ServeHTTP(w, req)
}
