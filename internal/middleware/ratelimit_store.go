package middleware

import (
	"context"
	"sync"
	"time"

	"github.com/charlesng35/sftpdrive/internal/cache"
)

// RateStore coordinates rate limiting counters for a specific key.
type RateStore interface {
	Increment(ctx context.Context, key string, window time.Duration) (count int, ttl time.Duration, err error)
}

// NewCounterRateStore shares rate limit windows through counter, typically Redis, so
// every gateway replica enforces the same budget.
func NewCounterRateStore(counter cache.Counter) RateStore {
	return counterRateStore{counter: counter}
}

type counterRateStore struct {
	counter cache.Counter
}

func (s counterRateStore) Increment(ctx context.Context, key string, window time.Duration) (int, time.Duration, error) {
	count, ttl, err := s.counter.IncrementWithTTL(ctx, "ratelimit:"+key, window)
	if err != nil {
		return 0, 0, err
	}
	return int(count), ttl, nil
}

// memoryRateStore provides process-local rate limiting. It is concurrency-safe.
type memoryRateStore struct {
	mu    sync.Mutex
	data  map[string]*memoryCounter
	clock func() time.Time
}

type memoryCounter struct {
	count     int
	windowEnd time.Time
}

// NewMemoryRateStore constructs an in-memory rate store. Expired counters are dropped
// lazily as new keys arrive.
func NewMemoryRateStore() RateStore {
	return newMemoryRateStore(time.Now)
}

func newMemoryRateStore(clock func() time.Time) *memoryRateStore {
	return &memoryRateStore{
		data:  make(map[string]*memoryCounter),
		clock: clock,
	}
}

func (s *memoryRateStore) Increment(_ context.Context, key string, window time.Duration) (int, time.Duration, error) {
	if window <= 0 {
		window = time.Minute
	}

	now := s.clock()

	s.mu.Lock()
	defer s.mu.Unlock()

	counter, ok := s.data[key]
	if !ok || now.After(counter.windowEnd) {
		if !ok {
			s.sweepLocked(now)
		}
		counter = &memoryCounter{windowEnd: now.Add(window)}
		s.data[key] = counter
	}

	counter.count++

	return counter.count, counter.windowEnd.Sub(now), nil
}

func (s *memoryRateStore) sweepLocked(now time.Time) {
	for key, counter := range s.data {
		if now.After(counter.windowEnd) {
			delete(s.data, key)
		}
	}
}
