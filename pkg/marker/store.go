// Package marker persists the per-station last-reset-date marker that makes
// the daily reset exactly-once per calendar date.
package marker

import (
	"context"
	"fmt"
	"sync"

	"github.com/go-redis/redis/v8"
)

// Store reads and writes the last reset date for a station. Losing the
// marker is harmless: it only causes one extra reset execution, never data
// loss, so implementations do not need durability guarantees.
type Store interface {
	LastResetDate(ctx context.Context, stationID string) (string, error)
	SetLastResetDate(ctx context.Context, stationID, date string) error
}

// RedisStore keeps markers in redis so they survive engine restarts.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a redis-backed marker store.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func markerKey(stationID string) string {
	return fmt.Sprintf("reset:last-date:%s", stationID)
}

// LastResetDate returns the stored date string, or "" when no reset has ever
// run for the station.
func (s *RedisStore) LastResetDate(ctx context.Context, stationID string) (string, error) {
	val, err := s.client.Get(ctx, markerKey(stationID)).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read reset marker: %w", err)
	}
	return val, nil
}

// SetLastResetDate records the date of the reset that just completed.
func (s *RedisStore) SetLastResetDate(ctx context.Context, stationID, date string) error {
	if err := s.client.Set(ctx, markerKey(stationID), date, 0).Err(); err != nil {
		return fmt.Errorf("write reset marker: %w", err)
	}
	return nil
}

// MemoryStore is the fallback when redis is not configured. Markers live
// only as long as the process, so a restart triggers one extra reset.
type MemoryStore struct {
	mu    sync.RWMutex
	dates map[string]string
}

// NewMemoryStore creates an in-process marker store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{dates: make(map[string]string)}
}

func (s *MemoryStore) LastResetDate(_ context.Context, stationID string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dates[stationID], nil
}

func (s *MemoryStore) SetLastResetDate(_ context.Context, stationID, date string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dates[stationID] = date
	return nil
}
