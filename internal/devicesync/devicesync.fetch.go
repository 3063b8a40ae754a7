// FilePath: internal/devicesync/devicesync.fetch.go
package devicesync

import (
	"context"
	"sort"
	"sync"

	nuts "github.com/vaudience/go-nuts"

	"github.com/Toyman-tech/agroflow/internal/models"
)

// Refresh re-runs both batch fetches concurrently, then backfills the
// current reading and device status from one-shot snapshots instead of
// waiting for the next push. The loading flag is cleared on every path;
// a failure keeps previously-loaded data and only sets the error.
func (s *Syncer) Refresh(ctx context.Context) {
	gen := s.currentGeneration()

	s.mu.Lock()
	s.state.Loading = true
	s.state.Err = ""
	s.mu.Unlock()
	s.notifyChanged()

	defer func() {
		s.mu.Lock()
		s.state.Loading = false
		s.mu.Unlock()
		s.notifyChanged()
	}()

	var wg sync.WaitGroup
	var historyErr, eventsErr error

	wg.Add(2)
	go func() {
		defer wg.Done()
		historyErr = s.fetchHistory(ctx, gen)
	}()
	go func() {
		defer wg.Done()
		eventsErr = s.fetchIrrigationEvents(ctx, gen)
	}()
	wg.Wait()

	if historyErr != nil {
		s.setError(historyErr)
	}
	if eventsErr != nil {
		s.setError(eventsErr)
	}

	s.snapshotCurrent(ctx, gen)
	s.snapshotStatus(ctx, gen)

	s.events.Emit(EventRefreshCompleted, s.cfg.DeviceID)
}

// fetchHistory replaces the stored historical sequence with the most
// recent batch from the document store. Each document is decoded
// defensively; a malformed one is logged and dropped without failing
// the batch. Store order (descending) is preserved.
func (s *Syncer) fetchHistory(ctx context.Context, gen uint64) error {
	docs, err := s.history.LatestDocuments(ctx, s.cfg.DeviceID, s.cfg.HistoryLimit)
	if err != nil {
		return err
	}

	readings := make([]models.HistoricalReading, 0, len(docs))
	for _, doc := range docs {
		reading, defaulted, ok := decodeHistoricalReading(doc.Doc)
		if !ok {
			nuts.L.Warnf("[DeviceSync] Dropping malformed reading document %s for %s", doc.ID, s.cfg.DeviceID)
			s.events.Emit(EventDecodeDropped, s.cfg.DeviceID)
			continue
		}
		if len(defaulted) > 0 {
			nuts.L.Debugf("[DeviceSync] Reading document %s defaulted fields: %v", doc.ID, defaulted)
		}
		reading.DeviceID = s.cfg.DeviceID
		readings = append(readings, *reading)
	}

	s.mu.Lock()
	if s.generation != gen {
		s.mu.Unlock()
		nuts.L.Debugf("[DeviceSync] Discarding stale history batch for %s", s.cfg.DeviceID)
		return nil
	}
	s.state.History = readings
	s.mu.Unlock()
	s.notifyChanged()
	return nil
}

// fetchIrrigationEvents replaces the stored event sequence with the
// per-device log: non-object entries are filtered out, the rest are
// sorted by timestamp descending and truncated to the configured limit.
func (s *Syncer) fetchIrrigationEvents(ctx context.Context, gen uint64) error {
	raw, err := s.store.IrrigationEvents(ctx, s.cfg.DeviceID)
	if err != nil {
		return err
	}

	events := make([]models.IrrigationEvent, 0, len(raw))
	for _, entry := range raw {
		event, _, ok := decodeIrrigationEvent(entry)
		if !ok {
			continue
		}
		event.DeviceID = s.cfg.DeviceID
		events = append(events, *event)
	}

	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Timestamp > events[j].Timestamp
	})
	if len(events) > s.cfg.EventLimit {
		events = events[:s.cfg.EventLimit]
	}

	s.mu.Lock()
	if s.generation != gen {
		s.mu.Unlock()
		nuts.L.Debugf("[DeviceSync] Discarding stale event batch for %s", s.cfg.DeviceID)
		return nil
	}
	s.state.Events = events
	s.mu.Unlock()
	s.notifyChanged()
	return nil
}

func (s *Syncer) snapshotCurrent(ctx context.Context, gen uint64) {
	raw, err := s.store.LiveReadingSnapshot(ctx, s.cfg.DeviceID)
	if err != nil {
		s.setError(err)
		return
	}
	if raw == nil {
		return
	}
	reading, _, ok := decodeLiveReading(raw)
	if !ok {
		return
	}
	reading.DeviceID = s.cfg.DeviceID

	s.mu.Lock()
	if s.generation != gen {
		s.mu.Unlock()
		return
	}
	s.state.Current = reading
	s.state.Connected = true
	s.mu.Unlock()
	s.notifyChanged()
}

func (s *Syncer) snapshotStatus(ctx context.Context, gen uint64) {
	raw, err := s.store.DeviceStatusSnapshot(ctx, s.cfg.DeviceID)
	if err != nil {
		s.setError(err)
		return
	}
	if raw == nil {
		return
	}
	status, _, ok := decodeDeviceStatus(raw)
	if !ok {
		return
	}
	status.DeviceID = s.cfg.DeviceID

	s.mu.Lock()
	if s.generation != gen {
		s.mu.Unlock()
		return
	}
	s.state.Status = status
	s.mu.Unlock()
	s.notifyChanged()
}

// ControlPump sends a pump command and reports success. Local state is
// never mutated optimistically; the new pump state arrives through the
// live subscription. Concurrent calls are not deduplicated, the caller
// disables the control while a command is in flight.
func (s *Syncer) ControlPump(ctx context.Context, state string) bool {
	if state != models.PumpStateOn && state != models.PumpStateOff {
		nuts.L.Warnf("[DeviceSync] Rejecting pump command with invalid state %q", state)
		return false
	}

	if err := s.store.SendPumpCommand(ctx, s.cfg.DeviceID, state); err != nil {
		nuts.L.Errorf("[DeviceSync] Pump command %s failed for %s: %v", state, s.cfg.DeviceID, err)
		return false
	}

	s.events.Emit(EventPumpCommand, s.cfg.DeviceID)
	return true
}
