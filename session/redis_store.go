package session

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const eventsChannel = "storefront:session:events"

// RedisStore keeps each session in a hash under session:<id> with a sliding
// TTL. Saves and invalidations are fanned out over pub/sub so that every
// instance's subscribers hear about them.
type RedisStore struct {
	client   *redis.Client
	ttl      time.Duration
	instance string
	logger   *zap.Logger
	hub      hub

	pubsub *redis.PubSub
	done   chan struct{}
	once   sync.Once
}

// NewRedisStore subscribes to the events channel before returning so no
// event published after construction is missed.
func NewRedisStore(ctx context.Context, client *redis.Client, ttl time.Duration, logger *zap.Logger) (*RedisStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &RedisStore{
		client:   client,
		ttl:      ttl,
		instance: uuid.NewString(),
		logger:   logger,
		done:     make(chan struct{}),
	}

	s.pubsub = client.Subscribe(ctx, eventsChannel)
	if _, err := s.pubsub.Receive(ctx); err != nil {
		_ = s.pubsub.Close()
		return nil, fmt.Errorf("subscribe %s: %w", eventsChannel, err)
	}
	go s.listen()
	return s, nil
}

func (s *RedisStore) key(id string) string {
	return fmt.Sprintf("session:%s", id)
}

func (s *RedisStore) Get(ctx context.Context, id string) (*Data, error) {
	fields, err := s.client.HGetAll(ctx, s.key(id)).Result()
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, ErrSessionNotFound
	}

	data := &Data{Token: fields["token"]}
	if raw := fields["user"]; raw != "" {
		if err := json.Unmarshal([]byte(raw), &data.User); err != nil {
			return nil, fmt.Errorf("decode session user: %w", err)
		}
	}
	if raw := fields["flashes"]; raw != "" {
		if err := json.Unmarshal([]byte(raw), &data.Flashes); err != nil {
			return nil, fmt.Errorf("decode session flashes: %w", err)
		}
	}
	return data, nil
}

func (s *RedisStore) Save(ctx context.Context, id string, data *Data) error {
	user, err := json.Marshal(data.User)
	if err != nil {
		return err
	}
	flashes, err := json.Marshal(data.Flashes)
	if err != nil {
		return err
	}

	key := s.key(id)
	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, key, map[string]interface{}{
		"token":   data.Token,
		"user":    string(user),
		"flashes": string(flashes),
	})
	pipe.Expire(ctx, key, s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return err
	}

	s.notify(ctx, Event{SessionID: id, Kind: EventSaved})
	return nil
}

func (s *RedisStore) Invalidate(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, s.key(id)).Err(); err != nil {
		return err
	}
	s.notify(ctx, Event{SessionID: id, Kind: EventInvalidated})
	return nil
}

func (s *RedisStore) Subscribe(fn func(Event)) func() {
	return s.hub.add(fn)
}

// notify delivers to local subscribers directly and to other instances over
// pub/sub. Our own messages are skipped when they come back around.
func (s *RedisStore) notify(ctx context.Context, e Event) {
	s.hub.publish(e)
	payload := strings.Join([]string{s.instance, string(e.Kind), e.SessionID}, "|")
	if err := s.client.Publish(ctx, eventsChannel, payload).Err(); err != nil {
		s.logger.Warn("Failed to publish session event", zap.String("kind", string(e.Kind)), zap.Error(err))
	}
}

func (s *RedisStore) listen() {
	ch := s.pubsub.Channel()
	for {
		select {
		case <-s.done:
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			parts := strings.SplitN(msg.Payload, "|", 3)
			if len(parts) != 3 || parts[0] == s.instance {
				continue
			}
			s.hub.publish(Event{SessionID: parts[2], Kind: EventKind(parts[1])})
		}
	}
}

func (s *RedisStore) Close() error {
	var err error
	s.once.Do(func() {
		close(s.done)
		err = s.pubsub.Close()
	})
	return err
}
