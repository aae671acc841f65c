package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/airkorea/flightdesk/config"
	"github.com/airkorea/flightdesk/internal/domain"
	"github.com/redis/go-redis/v9"
)

// RedisStore keeps sessions in Redis with the flow TTL as key expiry, for
// deployments where the API process restarts should not drop active flows.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(cfg config.RedisConfig, ttl time.Duration) *RedisStore {
	return &RedisStore{
		client: redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB}),
		ttl:    ttl,
	}
}

func sessionKey(id string) string {
	return fmt.Sprintf("session:%s", id)
}

func (r *RedisStore) Create(ctx context.Context, s *domain.FlightSession) error {
	return r.set(ctx, s)
}

func (r *RedisStore) Get(ctx context.Context, id string) (*domain.FlightSession, error) {
	data, err := r.client.Get(ctx, sessionKey(id)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, ErrNotFound
		}
		return nil, err
	}

	var s domain.FlightSession
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// Update rewrites the session and refreshes its expiry, so the idle timeout
// counts from the last interaction.
func (r *RedisStore) Update(ctx context.Context, s *domain.FlightSession) error {
	return r.set(ctx, s)
}

func (r *RedisStore) Delete(ctx context.Context, id string) error {
	return r.client.Del(ctx, sessionKey(id)).Err()
}

func (r *RedisStore) set(ctx context.Context, s *domain.FlightSession) error {
	payload, err := json.Marshal(s)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, sessionKey(s.ID), payload, r.ttl).Err()
}

var _ Store = (*RedisStore)(nil)
