// FilePath: internal/devicesync/devicesync.go

// Package devicesync keeps a local, always-renderable view of one
// irrigation controller in sync with the remote stores: two live
// subscriptions for the current reading and the device status, periodic
// batch fetches of the historical readings and the irrigation log, and
// the pump-control command path. All failures degrade the view (error
// message, connectivity flag) instead of crashing anything.
package devicesync

import (
	"context"
	"sync"
	"time"

	nuts "github.com/vaudience/go-nuts"

	"github.com/Toyman-tech/agroflow/internal/models"
	"github.com/Toyman-tech/agroflow/internal/realtime"
	"github.com/Toyman-tech/agroflow/internal/repository"
)

// Emitted events, consumed by the server's monitoring hookup.
const (
	EventStateChanged     = "sync.state_changed"
	EventPumpCommand      = "sync.pump_command"
	EventRefreshCompleted = "sync.refresh_completed"
	EventDecodeDropped    = "sync.decode_dropped"
)

// State is the unified view the dashboard renders. Snapshot returns a
// copy; writers never hand out internal slices.
type State struct {
	DeviceID   string                     `json:"device_id"`
	Current    *models.LiveReading        `json:"current"`
	History    []models.HistoricalReading `json:"history"`
	Events     []models.IrrigationEvent   `json:"events"`
	Status     *models.DeviceStatus       `json:"status"`
	Loading    bool                       `json:"loading"`
	Err        string                     `json:"error,omitempty"`
	Connected  bool                       `json:"connected"`
	LastUpdate *time.Time                 `json:"last_update,omitempty"`
}

// Config carries the sync tunables.
type Config struct {
	DeviceID        string
	HistoryLimit    int           // descending batch size, 48 by default
	EventLimit      int           // kept irrigation events, 20 by default
	RefreshInterval time.Duration // periodic re-fetch, 5m by default
}

// Syncer owns all remote-data access for one device. Create one per
// watched device; switching devices means Close and construct anew, so
// no callback tagged with a stale identifier can ever be applied.
type Syncer struct {
	cfg     Config
	store   realtime.Store
	history repository.HistoryRepository

	mu         sync.Mutex
	state      State
	generation uint64 // bumped on Close; in-flight fetches check it before applying

	readingSub realtime.Subscription
	statusSub  realtime.Subscription
	cancel     context.CancelFunc
	wg         sync.WaitGroup
	closeOnce  sync.Once

	events    *nuts.EventEmitter
	listeners map[string]func()
}

// New creates a syncer for one device. Call Start to begin syncing.
func New(store realtime.Store, history repository.HistoryRepository, cfg Config) *Syncer {
	if cfg.HistoryLimit <= 0 {
		cfg.HistoryLimit = 48
	}
	if cfg.EventLimit <= 0 {
		cfg.EventLimit = 20
	}
	if cfg.RefreshInterval <= 0 {
		cfg.RefreshInterval = 5 * time.Minute
	}
	return &Syncer{
		cfg:     cfg,
		store:   store,
		history: history,
		state: State{
			DeviceID: cfg.DeviceID,
			Loading:  true,
		},
		events:    nuts.NewEventEmitter(),
		listeners: make(map[string]func()),
	}
}

// Start opens the two live subscriptions, performs the combined initial
// load, and starts the periodic refresh. A subscription or fetch
// failure is recorded in the state and does not abort startup; the view
// falls back to last-known values.
func (s *Syncer) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	var subErrs []error

	readingSub, err := s.store.SubscribeLiveReading(ctx, s.cfg.DeviceID)
	if err != nil {
		nuts.L.Errorf("[DeviceSync] Live reading subscription failed for %s: %v", s.cfg.DeviceID, err)
		subErrs = append(subErrs, err)
	} else {
		s.readingSub = readingSub
		s.wg.Add(1)
		go s.consumeReadingEvents(readingSub)
	}

	statusSub, err := s.store.SubscribeDeviceStatus(ctx, s.cfg.DeviceID)
	if err != nil {
		nuts.L.Errorf("[DeviceSync] Device status subscription failed for %s: %v", s.cfg.DeviceID, err)
		subErrs = append(subErrs, err)
	} else {
		s.statusSub = statusSub
		s.wg.Add(1)
		go s.consumeStatusEvents(statusSub)
	}

	s.Refresh(ctx)

	// Applied after the initial load so Refresh's error reset cannot
	// swallow a failed subscription.
	for _, err := range subErrs {
		s.setError(err)
	}

	s.wg.Add(1)
	go s.autoRefresh(ctx)
}

// Close tears the syncer down: cancels the refresh ticker, closes both
// subscriptions, and invalidates in-flight fetches so a batch started
// before the teardown is discarded when it resolves. Safe to call more
// than once.
func (s *Syncer) Close() {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.generation++
		s.mu.Unlock()

		if s.cancel != nil {
			s.cancel()
		}
		if s.readingSub != nil {
			s.readingSub.Close()
		}
		if s.statusSub != nil {
			s.statusSub.Close()
		}
		s.wg.Wait()
		nuts.L.Infof("[DeviceSync] Closed sync for %s", s.cfg.DeviceID)
	})
}

// Snapshot returns a copy of the current state.
func (s *Syncer) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := s.state
	out.History = append([]models.HistoricalReading(nil), s.state.History...)
	out.Events = append([]models.IrrigationEvent(nil), s.state.Events...)
	if s.state.Current != nil {
		current := *s.state.Current
		out.Current = &current
	}
	if s.state.Status != nil {
		status := *s.state.Status
		out.Status = &status
	}
	if s.state.LastUpdate != nil {
		ts := *s.state.LastUpdate
		out.LastUpdate = &ts
	}
	return out
}

// DeviceID returns the identifier this syncer is bound to.
func (s *Syncer) DeviceID() string {
	return s.cfg.DeviceID
}

// OnChange registers a listener invoked after every state mutation.
// The id must be unique per listener and is used to remove it again.
func (s *Syncer) OnChange(id string, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners[id] = fn
}

// RemoveOnChange drops a previously registered listener.
func (s *Syncer) RemoveOnChange(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.listeners, id)
}

// OnEvent registers a callback for sync events
func (s *Syncer) OnEvent(event string, handler func(id string)) {
	s.events.On(event, "sync_handler", func(args ...interface{}) {
		if len(args) > 0 {
			if id, ok := args[0].(string); ok {
				handler(id)
			}
		}
	})
}

// consumeReadingEvents applies live-reading pushes: a present value
// replaces the stored reading, marks the device connected, stamps the
// update time and clears any prior error; an absent value clears the
// reading and drops connectivity; a transport error records the message
// but leaves the subscription open.
func (s *Syncer) consumeReadingEvents(sub realtime.Subscription) {
	defer s.wg.Done()
	for ev := range sub.Events() {
		if ev.Err != nil {
			nuts.L.Errorf("[DeviceSync] Live reading stream error for %s: %v", s.cfg.DeviceID, ev.Err)
			s.setError(ev.Err)
			continue
		}
		if ev.Payload == nil {
			s.mu.Lock()
			s.state.Current = nil
			s.state.Connected = false
			s.mu.Unlock()
			s.notifyChanged()
			continue
		}

		reading, defaulted, ok := decodeLiveReading(ev.Payload)
		if !ok {
			nuts.L.Warnf("[DeviceSync] Dropping malformed live reading for %s", s.cfg.DeviceID)
			s.events.Emit(EventDecodeDropped, s.cfg.DeviceID)
			continue
		}
		if len(defaulted) > 0 {
			nuts.L.Debugf("[DeviceSync] Live reading for %s defaulted fields: %v", s.cfg.DeviceID, defaulted)
		}
		reading.DeviceID = s.cfg.DeviceID

		now := time.Now()
		s.mu.Lock()
		s.state.Current = reading
		s.state.Connected = true
		s.state.LastUpdate = &now
		s.state.Err = ""
		s.mu.Unlock()
		s.notifyChanged()
	}
}

// consumeStatusEvents mirrors the reading stream but only maintains the
// status field; it does not touch the global connectivity flag or the
// error message.
func (s *Syncer) consumeStatusEvents(sub realtime.Subscription) {
	defer s.wg.Done()
	for ev := range sub.Events() {
		if ev.Err != nil {
			nuts.L.Errorf("[DeviceSync] Device status stream error for %s: %v", s.cfg.DeviceID, ev.Err)
			continue
		}
		if ev.Payload == nil {
			s.mu.Lock()
			s.state.Status = nil
			s.mu.Unlock()
			s.notifyChanged()
			continue
		}

		status, _, ok := decodeDeviceStatus(ev.Payload)
		if !ok {
			nuts.L.Warnf("[DeviceSync] Dropping malformed device status for %s", s.cfg.DeviceID)
			s.events.Emit(EventDecodeDropped, s.cfg.DeviceID)
			continue
		}
		status.DeviceID = s.cfg.DeviceID

		s.mu.Lock()
		s.state.Status = status
		s.mu.Unlock()
		s.notifyChanged()
	}
}

// autoRefresh re-runs the batch fetches every refresh interval. The
// live reading itself is kept fresh by the subscription and is not
// re-fetched here.
func (s *Syncer) autoRefresh(ctx context.Context) {
	defer s.wg.Done()
	ticker := time.NewTicker(s.cfg.RefreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			gen := s.currentGeneration()
			if err := s.fetchHistory(ctx, gen); err != nil {
				s.setError(err)
			}
			if err := s.fetchIrrigationEvents(ctx, gen); err != nil {
				s.setError(err)
			}
		}
	}
}

func (s *Syncer) currentGeneration() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generation
}

func (s *Syncer) setError(err error) {
	s.mu.Lock()
	s.state.Err = err.Error()
	s.state.Connected = false
	s.mu.Unlock()
	s.notifyChanged()
}

func (s *Syncer) notifyChanged() {
	s.mu.Lock()
	fns := make([]func(), 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
	s.events.Emit(EventStateChanged, s.cfg.DeviceID)
}
