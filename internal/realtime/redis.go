// FilePath: internal/realtime/redis.go
package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	nuts "github.com/vaudience/go-nuts"

	"github.com/Toyman-tech/agroflow/internal/errors"
)

// RedisStore implements Store on top of a Redis client. Values live at
// plain keys, pushes arrive on pub/sub channels named after the keys.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a realtime store backed by the given client.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) SubscribeLiveReading(ctx context.Context, deviceID string) (Subscription, error) {
	return s.subscribe(ctx, deviceID, fmt.Sprintf(LiveReadingPath, deviceID))
}

func (s *RedisStore) SubscribeDeviceStatus(ctx context.Context, deviceID string) (Subscription, error) {
	return s.subscribe(ctx, deviceID, fmt.Sprintf(DeviceStatusPath, deviceID))
}

func (s *RedisStore) subscribe(ctx context.Context, deviceID, channel string) (Subscription, error) {
	pubsub := s.client.Subscribe(ctx, channel)
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, errors.NewSubscriptionError(
			fmt.Sprintf("failed to subscribe to %s", channel), err)
	}

	sub := &redisSubscription{
		pubsub: pubsub,
		events: make(chan Event, 8),
		done:   make(chan struct{}),
	}
	go sub.pump(deviceID, channel)

	nuts.L.Infof("[Realtime] Subscribed to %s", channel)
	return sub, nil
}

type redisSubscription struct {
	pubsub    *redis.PubSub
	events    chan Event
	done      chan struct{}
	closeOnce sync.Once
}

func (s *redisSubscription) Events() <-chan Event {
	return s.events
}

func (s *redisSubscription) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.done)
		err = s.pubsub.Close()
	})
	return err
}

// pump forwards pub/sub messages as events until the subscription is
// closed. An empty or "null" payload marks the path as having no value.
func (s *redisSubscription) pump(deviceID, channel string) {
	defer close(s.events)
	ch := s.pubsub.Channel()
	for {
		select {
		case <-s.done:
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			ev := Event{DeviceID: deviceID, Payload: []byte(msg.Payload)}
			if msg.Payload == "" || msg.Payload == "null" {
				ev.Payload = nil
			}
			select {
			case s.events <- ev:
			case <-s.done:
				return
			}
		}
	}
}

func (s *RedisStore) LiveReadingSnapshot(ctx context.Context, deviceID string) ([]byte, error) {
	return s.snapshot(ctx, fmt.Sprintf(LiveReadingPath, deviceID))
}

func (s *RedisStore) DeviceStatusSnapshot(ctx context.Context, deviceID string) ([]byte, error) {
	return s.snapshot(ctx, fmt.Sprintf(DeviceStatusPath, deviceID))
}

func (s *RedisStore) snapshot(ctx context.Context, key string) ([]byte, error) {
	raw, err := s.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, errors.NewFetchError(fmt.Sprintf("failed to read %s", key), err)
	}
	return raw, nil
}

func (s *RedisStore) IrrigationEvents(ctx context.Context, deviceID string) ([][]byte, error) {
	key := fmt.Sprintf(IrrigationLogKey, deviceID)
	entries, err := s.client.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, errors.NewFetchError(fmt.Sprintf("failed to read %s", key), err)
	}

	raw := make([][]byte, 0, len(entries))
	for _, v := range entries {
		raw = append(raw, []byte(v))
	}
	return raw, nil
}

// pumpCommand is the wire format of a pump-control request.
type pumpCommand struct {
	DeviceID string `json:"device_id"`
	State    string `json:"state"`
	IssuedAt int64  `json:"issued_at"` // epoch millis
}

func (s *RedisStore) SendPumpCommand(ctx context.Context, deviceID string, state string) error {
	channel := fmt.Sprintf(PumpCommandPath, deviceID)
	payload, err := json.Marshal(pumpCommand{
		DeviceID: deviceID,
		State:    state,
		IssuedAt: time.Now().UnixMilli(),
	})
	if err != nil {
		return errors.NewCommandError("failed to encode pump command", err)
	}

	// Retain the last command for a controller that reconnects between
	// the publish and its next poll.
	if err := s.client.Set(ctx, channel+"/last", payload, 0).Err(); err != nil {
		return errors.NewCommandError("failed to store pump command", err)
	}
	if err := s.client.Publish(ctx, channel, payload).Err(); err != nil {
		return errors.NewCommandError("failed to publish pump command", err)
	}

	nuts.L.Infof("[Realtime] Pump command %s sent to %s", state, deviceID)
	return nil
}

func (s *RedisStore) PublishLiveReading(ctx context.Context, deviceID string, payload []byte) error {
	key := fmt.Sprintf(LiveReadingPath, deviceID)
	if err := s.client.Set(ctx, key, payload, 0).Err(); err != nil {
		return errors.NewFetchError("failed to store live reading", err)
	}
	if err := s.client.Publish(ctx, key, payload).Err(); err != nil {
		return errors.NewSubscriptionError("failed to push live reading", err)
	}
	return nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
