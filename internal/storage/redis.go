package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dyluth/standup/pkg/standup"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// RedisStore keeps the document in Redis under the workspace's data key.
// Every write is also published on the workspace's event channel, tagged with
// the writer's origin so that a store can ignore its own echoes.
// The store is thread-safe and can be used concurrently from multiple goroutines.
type RedisStore struct {
	rdb       *redis.Client
	workspace string
	origin    string
	log       logrus.FieldLogger
}

// changeEnvelope is the Pub/Sub payload of a write.
type changeEnvelope struct {
	Origin string `json:"origin"`
	Value  string `json:"value"`
}

// NewRedisStore creates a store for the specified workspace.
//
// Parameters:
//   - redisOpts: Redis connection options (address, password, DB, etc.)
//   - workspace: board identifier (must not be empty)
//
// Returns an error if workspace is empty.
func NewRedisStore(redisOpts *redis.Options, workspace string) (*RedisStore, error) {
	if workspace == "" {
		return nil, fmt.Errorf("workspace cannot be empty")
	}

	return &RedisStore{
		rdb:       redis.NewClient(redisOpts),
		workspace: workspace,
		origin:    uuid.New().String(),
		log:       logrus.StandardLogger().WithField("component", "redis"),
	}, nil
}

// NewRedisStoreFromURL parses a redis:// URL and creates a store.
func NewRedisStoreFromURL(url, workspace string) (*RedisStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}
	return NewRedisStore(opts, workspace)
}

// SetLogger replaces the logger used for non-fatal errors.
func (s *RedisStore) SetLogger(l logrus.FieldLogger) {
	s.log = l.WithField("component", "redis")
}

// Close closes the Redis connection. Implements io.Closer.
func (s *RedisStore) Close() error {
	return s.rdb.Close()
}

// Ping verifies Redis connectivity.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

// Get reads the document. A missing key is reported as ok=false, not an error.
func (s *RedisStore) Get(ctx context.Context) (string, bool, error) {
	value, err := s.rdb.Get(ctx, standup.DataKey(s.workspace)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read document from Redis: %w", err)
	}
	return value, true, nil
}

// Set writes the document and publishes a change event. Once the document is
// stored the write has succeeded: a failed publish is only logged, and other
// sessions pick the value up on their next load.
func (s *RedisStore) Set(ctx context.Context, value string) error {
	if err := s.rdb.Set(ctx, standup.DataKey(s.workspace), value, 0).Err(); err != nil {
		return fmt.Errorf("failed to write document to Redis: %w", err)
	}

	payload, err := json.Marshal(changeEnvelope{Origin: s.origin, Value: value})
	if err != nil {
		return fmt.Errorf("failed to marshal change event: %w", err)
	}

	channel := standup.DataEventsChannel(s.workspace)
	if err := s.rdb.Publish(ctx, channel, payload).Err(); err != nil {
		s.log.WithError(err).WithField("channel", channel).Warn("Failed to publish change event")
	}

	return nil
}

// Watch subscribes to document writes made by other stores.
// Caller must call subscription.Close() when done.
// Context cancellation also stops the subscription.
//
// Events are delivered on a buffered channel (size 10) to prevent blocking.
// If the subscriber is too slow, events may be dropped by Redis Pub/Sub (at-most-once delivery).
func (s *RedisStore) Watch(ctx context.Context) (*Subscription, error) {
	channel := standup.DataEventsChannel(s.workspace)
	pubsub := s.rdb.Subscribe(ctx, channel)

	// Wait for the subscription to be confirmed so no write is missed after return
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, fmt.Errorf("failed to subscribe to %s: %w", channel, err)
	}

	eventsChan := make(chan string, 10)
	errorsChan := make(chan error, 10)

	subCtx, cancelFunc := context.WithCancel(ctx)

	go func() {
		defer close(eventsChan)
		defer close(errorsChan)
		defer pubsub.Close()

		ch := pubsub.Channel()

		for {
			select {
			case <-subCtx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}

				var env changeEnvelope
				if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
					select {
					case errorsChan <- fmt.Errorf("failed to unmarshal change event: %w", err):
					case <-subCtx.Done():
						return
					}
					continue
				}

				// Own writes are already reflected in this context
				if env.Origin == s.origin {
					continue
				}

				select {
				case eventsChan <- env.Value:
				case <-subCtx.Done():
					return
				}
			}
		}
	}()

	return &Subscription{
		events: eventsChan,
		errors: errorsChan,
		cancel: cancelFunc,
	}, nil
}
