// FilePath: internal/devicesync/devicesync_test.go
package devicesync

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/matryer/is"

	"github.com/Toyman-tech/agroflow/internal/errors"
	"github.com/Toyman-tech/agroflow/internal/models"
	"github.com/Toyman-tech/agroflow/internal/realtime"
	"github.com/Toyman-tech/agroflow/internal/repository"
)

// fakeSubscription delivers events pushed by the test.
type fakeSubscription struct {
	ch        chan realtime.Event
	closeOnce sync.Once
	closed    bool
}

func newFakeSubscription() *fakeSubscription {
	return &fakeSubscription{ch: make(chan realtime.Event, 16)}
}

func (f *fakeSubscription) Events() <-chan realtime.Event { return f.ch }

func (f *fakeSubscription) Close() error {
	f.closeOnce.Do(func() {
		f.closed = true
		close(f.ch)
	})
	return nil
}

// fakeStore implements realtime.Store with overridable function fields.
type fakeStore struct {
	mu sync.Mutex

	readingSub *fakeSubscription
	statusSub  *fakeSubscription

	SubscribeErr         error
	LiveSnapshotFunc     func() ([]byte, error)
	StatusSnapshotFunc   func() ([]byte, error)
	IrrigationEventsFunc func() ([][]byte, error)
	PumpCommandFunc      func(state string) error

	pumpCalls []string
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		readingSub: newFakeSubscription(),
		statusSub:  newFakeSubscription(),
	}
}

func (f *fakeStore) SubscribeLiveReading(ctx context.Context, deviceID string) (realtime.Subscription, error) {
	if f.SubscribeErr != nil {
		return nil, f.SubscribeErr
	}
	return f.readingSub, nil
}

func (f *fakeStore) SubscribeDeviceStatus(ctx context.Context, deviceID string) (realtime.Subscription, error) {
	if f.SubscribeErr != nil {
		return nil, f.SubscribeErr
	}
	return f.statusSub, nil
}

func (f *fakeStore) LiveReadingSnapshot(ctx context.Context, deviceID string) ([]byte, error) {
	f.mu.Lock()
	fn := f.LiveSnapshotFunc
	f.mu.Unlock()
	if fn != nil {
		return fn()
	}
	return nil, nil
}

func (f *fakeStore) DeviceStatusSnapshot(ctx context.Context, deviceID string) ([]byte, error) {
	f.mu.Lock()
	fn := f.StatusSnapshotFunc
	f.mu.Unlock()
	if fn != nil {
		return fn()
	}
	return nil, nil
}

func (f *fakeStore) IrrigationEvents(ctx context.Context, deviceID string) ([][]byte, error) {
	f.mu.Lock()
	fn := f.IrrigationEventsFunc
	f.mu.Unlock()
	if fn != nil {
		return fn()
	}
	return nil, nil
}

func (f *fakeStore) SendPumpCommand(ctx context.Context, deviceID string, state string) error {
	f.mu.Lock()
	f.pumpCalls = append(f.pumpCalls, state)
	fn := f.PumpCommandFunc
	f.mu.Unlock()
	if fn != nil {
		return fn(state)
	}
	return nil
}

func (f *fakeStore) PublishLiveReading(ctx context.Context, deviceID string, payload []byte) error {
	return nil
}

func (f *fakeStore) Close() error { return nil }

func (f *fakeStore) PumpCalls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.pumpCalls...)
}

// fakeHistory implements repository.HistoryRepository.
type fakeHistory struct {
	mu                  sync.Mutex
	LatestDocumentsFunc func() ([]repository.Document, error)
}

func (f *fakeHistory) LatestDocuments(ctx context.Context, deviceID string, limit int) ([]repository.Document, error) {
	f.mu.Lock()
	fn := f.LatestDocumentsFunc
	f.mu.Unlock()
	if fn != nil {
		return fn()
	}
	return nil, nil
}

func (f *fakeHistory) InsertDocument(ctx context.Context, deviceID string, ts time.Time, doc []byte) error {
	return nil
}

func (f *fakeHistory) DeleteOldDocuments(ctx context.Context, before time.Time) error {
	return nil
}

func (f *fakeHistory) setLatest(fn func() ([]repository.Document, error)) {
	f.mu.Lock()
	f.LatestDocumentsFunc = fn
	f.mu.Unlock()
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

func eventPayload(ts int64, seq int) []byte {
	raw, _ := json.Marshal(map[string]any{
		"event":          models.IrrigationCompleted,
		"timestamp":      ts,
		"moisture_root":  40.0,
		"daily_sequence": seq,
	})
	return raw
}

func historyDoc(id string, ts int64) repository.Document {
	raw, _ := json.Marshal(map[string]any{
		"timestamp":     ts,
		"moisture_root": 55.0,
		"soil_temp":     221,
	})
	return repository.Document{ID: id, DeviceID: "dev-1", Ts: time.UnixMilli(ts), Doc: raw}
}

func newTestSyncer(store *fakeStore, history *fakeHistory) *Syncer {
	return New(store, history, Config{
		DeviceID:        "dev-1",
		RefreshInterval: time.Hour, // keep the ticker out of the way
	})
}

func TestIrrigationEventsSortedDescending(t *testing.T) {
	is := is.New(t)

	store := newFakeStore()
	// Log order is t3, t1, t2; the syncer must yield t3, t2, t1.
	store.IrrigationEventsFunc = func() ([][]byte, error) {
		return [][]byte{
			eventPayload(3000, 3),
			eventPayload(1000, 1),
			eventPayload(2000, 2),
			[]byte(`"not an object"`),
		}, nil
	}

	s := newTestSyncer(store, &fakeHistory{})
	s.Start(context.Background())
	defer s.Close()

	state := s.Snapshot()
	is.Equal(len(state.Events), 3) // non-object entry filtered out
	is.Equal(state.Events[0].Timestamp, int64(3000))
	is.Equal(state.Events[1].Timestamp, int64(2000))
	is.Equal(state.Events[2].Timestamp, int64(1000))
}

func TestIrrigationEventsTruncatedToLimit(t *testing.T) {
	is := is.New(t)

	store := newFakeStore()
	store.IrrigationEventsFunc = func() ([][]byte, error) {
		raw := make([][]byte, 0, 30)
		for i := 0; i < 30; i++ {
			raw = append(raw, eventPayload(int64(i*1000), i))
		}
		return raw, nil
	}

	s := newTestSyncer(store, &fakeHistory{})
	s.Start(context.Background())
	defer s.Close()

	state := s.Snapshot()
	is.Equal(len(state.Events), 20)
	is.Equal(state.Events[0].Timestamp, int64(29000)) // newest first
}

func TestHistoryPreservesStoreOrder(t *testing.T) {
	is := is.New(t)

	history := &fakeHistory{}
	// Only 10 documents available although the batch asks for 48.
	history.LatestDocumentsFunc = func() ([]repository.Document, error) {
		docs := make([]repository.Document, 0, 10)
		for i := 9; i >= 0; i-- {
			docs = append(docs, historyDoc(fmt.Sprintf("doc-%d", i), int64(i*1000)))
		}
		return docs, nil
	}

	s := newTestSyncer(newFakeStore(), history)
	s.Start(context.Background())
	defer s.Close()

	state := s.Snapshot()
	is.Equal(len(state.History), 10)
	is.Equal(state.History[0].Timestamp, int64(9000))
	is.Equal(state.History[9].Timestamp, int64(0))
}

func TestHistoryDropsMalformedDocuments(t *testing.T) {
	is := is.New(t)

	history := &fakeHistory{}
	history.LatestDocumentsFunc = func() ([]repository.Document, error) {
		return []repository.Document{
			historyDoc("doc-2", 2000),
			{ID: "doc-bad", Doc: []byte(`[broken`)},
			historyDoc("doc-1", 1000),
		}, nil
	}

	s := newTestSyncer(newFakeStore(), history)
	s.Start(context.Background())
	defer s.Close()

	state := s.Snapshot()
	is.Equal(len(state.History), 2) // malformed document dropped, batch survives
}

func TestRefreshFailureKeepsPreviousData(t *testing.T) {
	is := is.New(t)

	store := newFakeStore()
	store.IrrigationEventsFunc = func() ([][]byte, error) {
		return [][]byte{eventPayload(1000, 1)}, nil
	}
	history := &fakeHistory{}
	history.LatestDocumentsFunc = func() ([]repository.Document, error) {
		return []repository.Document{historyDoc("doc-1", 1000)}, nil
	}

	s := newTestSyncer(store, history)
	s.Start(context.Background())
	defer s.Close()

	is.Equal(len(s.Snapshot().History), 1)
	is.Equal(len(s.Snapshot().Events), 1)

	// Both sub-fetches now fail.
	history.setLatest(func() ([]repository.Document, error) {
		return nil, errors.NewFetchError("document store is down", nil)
	})
	store.mu.Lock()
	store.IrrigationEventsFunc = func() ([][]byte, error) {
		return nil, errors.NewFetchError("realtime store is down", nil)
	}
	store.mu.Unlock()

	s.Refresh(context.Background())

	state := s.Snapshot()
	is.Equal(len(state.History), 1) // previously-loaded data retained
	is.Equal(len(state.Events), 1)
	is.True(state.Err != "")
	is.True(!state.Loading) // loading cleared on the failure path too
}

func TestLiveReadingPushUpdatesState(t *testing.T) {
	is := is.New(t)

	store := newFakeStore()
	s := newTestSyncer(store, &fakeHistory{})
	s.Start(context.Background())
	defer s.Close()

	raw, _ := json.Marshal(map[string]any{
		"timestamp":     int64(5000),
		"soil_temp":     221,
		"moisture_root": 61.0,
		"pump_state":    "ON",
		"pump_active":   true,
		"wifi_rssi":     -55,
	})
	store.readingSub.ch <- realtime.Event{DeviceID: "dev-1", Payload: raw}

	waitFor(t, func() bool { return s.Snapshot().Current != nil })

	state := s.Snapshot()
	is.True(state.Connected)
	is.True(state.LastUpdate != nil)
	is.Equal(state.Err, "")
	is.Equal(state.Current.MoistureRoot, 61.0)
	is.Equal(state.Current.PumpState, models.PumpStateOn)
	is.Equal(state.Current.DeviceID, "dev-1")

	// A push with no value clears the reading and drops connectivity.
	store.readingSub.ch <- realtime.Event{DeviceID: "dev-1"}

	waitFor(t, func() bool { return s.Snapshot().Current == nil })
	is.True(!s.Snapshot().Connected)
}

func TestStatusPushOnlyMaintainsStatus(t *testing.T) {
	is := is.New(t)

	store := newFakeStore()
	s := newTestSyncer(store, &fakeHistory{})
	s.Start(context.Background())
	defer s.Close()

	reading, _ := json.Marshal(map[string]any{"timestamp": int64(1000), "moisture_root": 50.0})
	store.readingSub.ch <- realtime.Event{DeviceID: "dev-1", Payload: reading}
	waitFor(t, func() bool { return s.Snapshot().Connected })

	status, _ := json.Marshal(map[string]any{"online": true, "health": "good", "moisture_root": 50.0})
	store.statusSub.ch <- realtime.Event{DeviceID: "dev-1", Payload: status}
	waitFor(t, func() bool { return s.Snapshot().Status != nil })

	is.Equal(s.Snapshot().Status.Health, "good")

	// A status stream error must not flip the global connectivity flag.
	store.statusSub.ch <- realtime.Event{DeviceID: "dev-1", Err: errors.NewSubscriptionError("stream broken", nil)}
	time.Sleep(50 * time.Millisecond)

	state := s.Snapshot()
	is.True(state.Connected)
	is.Equal(state.Err, "")
}

func TestControlPumpIssuesSingleCommand(t *testing.T) {
	is := is.New(t)

	store := newFakeStore()
	s := newTestSyncer(store, &fakeHistory{})
	s.Start(context.Background())
	defer s.Close()

	ok := s.ControlPump(context.Background(), models.PumpStateOn)
	is.True(ok)
	is.Equal(store.PumpCalls(), []string{"ON"})

	// Local state is not mutated optimistically.
	is.Equal(s.Snapshot().Current, nil)
}

func TestControlPumpTransportFailureReturnsFalse(t *testing.T) {
	is := is.New(t)

	store := newFakeStore()
	store.PumpCommandFunc = func(state string) error {
		return errors.NewCommandError("transport failure", nil)
	}

	s := newTestSyncer(store, &fakeHistory{})
	s.Start(context.Background())
	defer s.Close()

	ok := s.ControlPump(context.Background(), models.PumpStateOff)
	is.True(!ok) // failure is a boolean, never a panic
}

func TestControlPumpRejectsInvalidState(t *testing.T) {
	is := is.New(t)

	store := newFakeStore()
	s := newTestSyncer(store, &fakeHistory{})
	s.Start(context.Background())
	defer s.Close()

	is.True(!s.ControlPump(context.Background(), "MAYBE"))
	is.Equal(len(store.PumpCalls()), 0)
}

func TestCloseDiscardsInFlightFetch(t *testing.T) {
	is := is.New(t)

	store := newFakeStore()
	history := &fakeHistory{}
	s := newTestSyncer(store, history)
	s.Start(context.Background())

	// A fetch that blocks until the test releases it, started before
	// teardown, must not be applied after it.
	release := make(chan struct{})
	started := make(chan struct{})
	history.setLatest(func() ([]repository.Document, error) {
		close(started)
		<-release
		return []repository.Document{historyDoc("stale-doc", 9000)}, nil
	})

	refreshDone := make(chan struct{})
	go func() {
		s.Refresh(context.Background())
		close(refreshDone)
	}()

	<-started
	s.Close()
	close(release)
	<-refreshDone

	is.Equal(len(s.Snapshot().History), 0) // stale batch discarded
}

func TestCloseStopsSubscriptionsAndIsIdempotent(t *testing.T) {
	is := is.New(t)

	store := newFakeStore()
	s := newTestSyncer(store, &fakeHistory{})
	s.Start(context.Background())

	s.Close()
	s.Close() // second close must be a no-op

	is.True(store.readingSub.closed)
	is.True(store.statusSub.closed)

	// Re-initializing for another device uses fresh subscriptions; the
	// old syncer's state stays frozen.
	frozen := s.Snapshot()

	store2 := newFakeStore()
	s2 := New(store2, &fakeHistory{}, Config{DeviceID: "dev-2", RefreshInterval: time.Hour})
	s2.Start(context.Background())
	defer s2.Close()

	reading, _ := json.Marshal(map[string]any{"timestamp": int64(1000), "moisture_root": 33.0})
	store2.readingSub.ch <- realtime.Event{DeviceID: "dev-2", Payload: reading}
	waitFor(t, func() bool { return s2.Snapshot().Current != nil })

	is.Equal(s2.Snapshot().Current.DeviceID, "dev-2")
	is.Equal(s.Snapshot().Current, frozen.Current) // old device untouched
}

func TestSubscribeFailureDegradesWithoutCrash(t *testing.T) {
	is := is.New(t)

	store := newFakeStore()
	store.SubscribeErr = errors.NewSubscriptionError("realtime store unreachable", nil)

	s := newTestSyncer(store, &fakeHistory{})
	s.Start(context.Background())
	defer s.Close()

	state := s.Snapshot()
	is.True(state.Err != "")
	is.True(!state.Connected)
}

func TestRefreshBackfillsFromSnapshots(t *testing.T) {
	is := is.New(t)

	store := newFakeStore()
	reading, _ := json.Marshal(map[string]any{"timestamp": int64(7000), "moisture_root": 58.0})
	status, _ := json.Marshal(map[string]any{"online": true, "health": "good"})
	store.LiveSnapshotFunc = func() ([]byte, error) { return reading, nil }
	store.StatusSnapshotFunc = func() ([]byte, error) { return status, nil }

	s := newTestSyncer(store, &fakeHistory{})
	s.Start(context.Background())
	defer s.Close()

	state := s.Snapshot()
	is.True(state.Current != nil) // backfilled without waiting for a push
	is.Equal(state.Current.MoistureRoot, 58.0)
	is.True(state.Status != nil)
	is.True(state.Status.Online)
}
