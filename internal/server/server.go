// FilePath: internal/server/server.go
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	nuts "github.com/vaudience/go-nuts"

	"github.com/Toyman-tech/agroflow/api"
	"github.com/Toyman-tech/agroflow/api/resources"
	"github.com/Toyman-tech/agroflow/internal/config"
	"github.com/Toyman-tech/agroflow/internal/database"
	"github.com/Toyman-tech/agroflow/internal/devicesync"
	"github.com/Toyman-tech/agroflow/internal/errors"
	"github.com/Toyman-tech/agroflow/internal/monitoring"
	"github.com/Toyman-tech/agroflow/internal/realtime"
	"github.com/Toyman-tech/agroflow/internal/repository"
	"github.com/Toyman-tech/agroflow/internal/repository/postgres"
)

// Server represents our HTTP server
type Server struct {
	config     *config.Config
	srv        *http.Server
	sync       *devicesync.Syncer
	store      realtime.Store
	db         database.DB
	monitoring *monitoring.Service
}

// New creates a new server instance
func New(cfg *config.Config) *Server {
	return &Server{
		config: cfg,
	}
}

// Start wires the stores and the syncer, then begins listening for
// requests. Store connection failures degrade into sync errors the
// dashboard shows as a banner; they never abort startup.
func (s *Server) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s.monitoring = monitoring.NewService()
	s.store = s.initRealtimeStore(ctx)
	history := s.initHistoryRepository()

	s.sync = devicesync.New(s.store, history, devicesync.Config{
		DeviceID:        s.config.Device.DefaultID,
		HistoryLimit:    s.config.Sync.HistoryLimit,
		EventLimit:      s.config.Sync.EventLimit,
		RefreshInterval: s.config.Sync.RefreshInterval,
	})
	s.setupMonitoringHandlers()
	s.sync.Start(ctx)

	res := resources.NewResources(resources.Deps{
		Sync:    s.sync,
		Store:   s.store,
		History: history,
	})
	res.SetHealthCheck(s.handleHealth())
	res.SetMetrics(s.handleMetrics())

	router := api.NewRouter(res)
	s.srv = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port),
		Handler:      router,
		ReadTimeout:  s.config.Server.ReadTimeout,
		WriteTimeout: s.config.Server.WriteTimeout,
	}

	go func() {
		nuts.L.Infof("[Server] Starting server on %s", s.srv.Addr)
		if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			nuts.L.Errorf("[Server] Error starting server: %v", err)
			os.Exit(1)
		}
	}()

	return s.waitForShutdown()
}

// waitForShutdown waits for interrupt signal and gracefully shuts down the server
func (s *Server) waitForShutdown() error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	nuts.L.Infof("[Server] Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), s.config.Server.ShutdownTimeout)
	defer cancel()

	if err := s.srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("error shutting down server: %w", err)
	}

	s.sync.Close()
	if s.store != nil {
		s.store.Close()
	}
	if s.db != nil {
		s.db.Close()
	}

	nuts.L.Infof("[Server] Server shut down successfully")
	return nil
}

// handleHealth returns a simple health check handler
func (s *Server) handleHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok","version":"` + nuts.GetVersion() + `"}`))
	}
}

// handleMetrics exposes the event counters.
func (s *Server) handleMetrics() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := json.Marshal(s.monitoring.Counters())
		if err != nil {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write(body)
	}
}

func (s *Server) setupMonitoringHandlers() {
	// Handle pump command events
	s.sync.OnEvent(devicesync.EventPumpCommand, func(id string) {
		s.monitoring.RecordEvent("pump_command", map[string]string{
			"device_id": id,
		})
	})

	// Handle refresh events
	s.sync.OnEvent(devicesync.EventRefreshCompleted, func(id string) {
		s.monitoring.RecordEvent("refresh_completed", map[string]string{
			"device_id": id,
		})
	})

	// Handle dropped-record events
	s.sync.OnEvent(devicesync.EventDecodeDropped, func(id string) {
		s.monitoring.RecordEvent("decode_dropped", map[string]string{
			"device_id": id,
		})
	})
}

func (s *Server) initRealtimeStore(ctx context.Context) realtime.Store {
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	client, err := database.NewRedisClient(pingCtx, s.config.Redis)
	if err != nil {
		nuts.L.Warnf("[Server] Realtime store unreachable, dashboard will show an error until it recovers: %v", err)
	}
	return realtime.NewRedisStore(client)
}

func (s *Server) initHistoryRepository() repository.HistoryRepository {
	db, err := database.NewPostgresDB(s.config.Database)
	if err != nil {
		nuts.L.Warnf("[Server] Document store unreachable, history fetches will fail until it recovers: %v", err)
		return unavailableHistoryRepo{}
	}
	s.db = db

	repo, err := postgres.NewHistoryRepository(db)
	if err != nil {
		nuts.L.Warnf("[Server] Document store schema init failed: %v", err)
		return unavailableHistoryRepo{}
	}
	return repo
}

// unavailableHistoryRepo stands in when the document store could not be
// reached at startup; every fetch surfaces the outage as a sync error.
type unavailableHistoryRepo struct{}

func (unavailableHistoryRepo) LatestDocuments(ctx context.Context, deviceID string, limit int) ([]repository.Document, error) {
	return nil, errors.NewFetchError("document store is unavailable", nil)
}

func (unavailableHistoryRepo) InsertDocument(ctx context.Context, deviceID string, ts time.Time, doc []byte) error {
	return errors.NewFetchError("document store is unavailable", nil)
}

func (unavailableHistoryRepo) DeleteOldDocuments(ctx context.Context, before time.Time) error {
	return errors.NewFetchError("document store is unavailable", nil)
}
