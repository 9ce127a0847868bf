package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/go-redis/redis/v8"

	"github.com/gadget-bot/venueshare/models"
)

// SnapshotKey is where the venue snapshot lives in Redis.
const SnapshotKey = "venueshare:venues:v1"

// RedisClient is the subset of *goredis.Client the store uses.
type RedisClient interface {
	Get(ctx context.Context, key string) *goredis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *goredis.StatusCmd
}

// RedisStore keeps the venue snapshot as one JSON document.
type RedisStore struct {
	client RedisClient
	key    string
}

func NewRedisStore(client RedisClient) *RedisStore {
	return &RedisStore{client: client, key: SnapshotKey}
}

// NewRedisClient connects to addr and checks the connection.
func NewRedisClient(ctx context.Context, addr string) (*goredis.Client, error) {
	client := goredis.NewClient(&goredis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", addr, err)
	}
	return client, nil
}

// Load returns the stored venues, or nil if nothing was saved yet.
func (s *RedisStore) Load(ctx context.Context) ([]models.Venue, error) {
	raw, err := s.client.Get(ctx, s.key).Result()
	if errors.Is(err, goredis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var venues []models.Venue
	if err := json.Unmarshal([]byte(raw), &venues); err != nil {
		return nil, fmt.Errorf("failed to decode venue snapshot: %w", err)
	}
	return venues, nil
}

// Save overwrites the stored snapshot.
func (s *RedisStore) Save(ctx context.Context, venues []models.Venue) error {
	data, err := json.Marshal(venues)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.key, data, 0).Err()
}
