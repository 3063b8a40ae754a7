// FilePath: internal/realtime/realtime.go

// Package realtime is the client for the realtime key-value store the
// irrigation controller publishes into. Live values are JSON documents
// at well-known keys; the firmware publishes the fresh document on a
// channel of the same name after each write, which is what the
// subscriptions listen on.
package realtime

import "context"

// Store paths, keyed by device id.
const (
	LiveReadingPath  = "live_monitoring/%s"
	DeviceStatusPath = "device_status/%s"
	IrrigationLogKey = "irrigation_log/%s"
	PumpCommandPath  = "pump_commands/%s"
)

// Event is one push from a live subscription. Payload is the raw JSON
// document; a nil Payload means the underlying path currently has no
// value. Err is set on a transport-level failure; the subscription
// itself stays open after an error event.
type Event struct {
	DeviceID string
	Payload  []byte
	Err      error
}

// Subscription is a cancellable stream of events for one store path.
// Close is safe to call more than once; the Events channel is closed
// when the subscription ends, so range loops terminate deterministically.
type Subscription interface {
	Events() <-chan Event
	Close() error
}

// Store is the outbound surface of the realtime store: two live
// subscriptions, one-shot snapshots for backfilling state, the
// per-device irrigation log, and the pump-command channel.
type Store interface {
	SubscribeLiveReading(ctx context.Context, deviceID string) (Subscription, error)
	SubscribeDeviceStatus(ctx context.Context, deviceID string) (Subscription, error)

	// Snapshot reads return (nil, nil) when the path has no value.
	LiveReadingSnapshot(ctx context.Context, deviceID string) ([]byte, error)
	DeviceStatusSnapshot(ctx context.Context, deviceID string) ([]byte, error)

	// IrrigationEvents returns every raw entry of the per-device log in
	// store order. The store bounds the log size; there is no pagination.
	IrrigationEvents(ctx context.Context, deviceID string) ([][]byte, error)

	// SendPumpCommand asks the controller to set the pump to "ON" or
	// "OFF". The new state is observed through the live subscription,
	// never assumed locally.
	SendPumpCommand(ctx context.Context, deviceID string, state string) error

	// PublishLiveReading writes a reading document to the live path and
	// pushes it to subscribers. Used by the edge ingest endpoint.
	PublishLiveReading(ctx context.Context, deviceID string, payload []byte) error

	Close() error
}
