package queue

import (
	"context"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"

	"campus-queue-backend/internal/models"
)

// NumberSource allocates queue numbers. Next must be linearizable: two
// concurrent calls for the same department and day must never observe
// the same pre-increment value.
type NumberSource interface {
	Next(ctx context.Context, department models.Department, day string) (int64, error)
	Reset(ctx context.Context, department models.Department, day string) error
}

/*
|--------------------------------------------------------------------------
| Redis-backed source
|--------------------------------------------------------------------------
| One INCR key per department per day. Date-scoped keys make the daily
| rollover natural: a new day starts from zero without touching the old
| key, and Reset just deletes the spent one.
*/

type RedisNumberSource struct {
	client *redis.Client
}

func NewRedisNumberSource(client *redis.Client) *RedisNumberSource {
	return &RedisNumberSource{client: client}
}

func counterKey(department models.Department, day string) string {
	return fmt.Sprintf("queue:department:%s:date:%s", department, day)
}

func (s *RedisNumberSource) Next(ctx context.Context, department models.Department, day string) (int64, error) {
	n, err := s.client.Incr(ctx, counterKey(department, day)).Result()
	if err != nil {
		return 0, unavailable("queue number allocation", err)
	}
	return n, nil
}

func (s *RedisNumberSource) Reset(ctx context.Context, department models.Department, day string) error {
	if err := s.client.Del(ctx, counterKey(department, day)).Err(); err != nil {
		return unavailable("queue number reset", err)
	}
	return nil
}

/*
|--------------------------------------------------------------------------
| In-memory source
|--------------------------------------------------------------------------
*/

// MemoryNumberSource is a mutex-guarded counter map for tests and
// single-node deployments without Redis.
type MemoryNumberSource struct {
	mu       sync.Mutex
	counters map[string]int64
}

func NewMemoryNumberSource() *MemoryNumberSource {
	return &MemoryNumberSource{counters: make(map[string]int64)}
}

func (s *MemoryNumberSource) Next(_ context.Context, department models.Department, day string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := counterKey(department, day)
	s.counters[key]++
	return s.counters[key], nil
}

func (s *MemoryNumberSource) Reset(_ context.Context, department models.Department, day string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.counters, counterKey(department, day))
	return nil
}
