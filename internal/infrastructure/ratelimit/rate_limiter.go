package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Result is what a call site gets back from Allow. ResetInSeconds is a
// caller-facing retry hint, only meaningful when Allowed is false.
type Result struct {
	Allowed        bool
	ResetInSeconds int
}

// Store counts requests per key inside a fixed window. The window is an
// approximation of a sliding one: the first request opens it, and once
// the window elapses the counter resets. O(1) memory and update per key.
type Store interface {
	// Incr bumps the counter for key and reports the count within the
	// current window plus the time left until the window resets.
	Incr(ctx context.Context, key string, window time.Duration) (count int64, resetIn time.Duration, err error)
}

// Limiter applies per-sender message rate limits. Thresholds are owned
// by the call sites: new-conversation creation and replies use
// different budgets over the same limiter.
type Limiter struct {
	store Store
}

func NewLimiter(store Store) *Limiter {
	return &Limiter{store: store}
}

// Allow consumes one slot for the sender/action pair. A store failure
// fails open: limiting is a protection, not a correctness property.
func (l *Limiter) Allow(ctx context.Context, senderID, action string, maxRequests int, window time.Duration) (Result, error) {
	key := senderID + ":" + action

	count, resetIn, err := l.store.Incr(ctx, key, window)
	if err != nil {
		return Result{Allowed: true}, err
	}

	if count > int64(maxRequests) {
		seconds := int(resetIn.Seconds())
		if seconds < 1 {
			seconds = 1
		}
		return Result{Allowed: false, ResetInSeconds: seconds}, nil
	}

	return Result{Allowed: true}, nil
}

type windowEntry struct {
	windowStart time.Time
	window      time.Duration
	count       int64
}

// MemoryStore keeps counters in a process-local map. A background sweep
// drops entries whose window has expired, bounding growth under many
// distinct senders. Multi-instance deployments should use RedisStore
// instead, or accept per-process limits.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]*windowEntry

	sweepEvery time.Duration
	stop       chan struct{}
	stopOnce   sync.Once
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries:    make(map[string]*windowEntry),
		sweepEvery: time.Minute,
		stop:       make(chan struct{}),
	}
}

func (s *MemoryStore) Incr(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[key]
	if !ok || now.Sub(entry.windowStart) >= window {
		s.entries[key] = &windowEntry{windowStart: now, window: window, count: 1}
		return 1, window, nil
	}

	entry.count++
	return entry.count, window - now.Sub(entry.windowStart), nil
}

// Start launches the sweep loop. Stop is idempotent.
func (s *MemoryStore) Start() {
	go func() {
		ticker := time.NewTicker(s.sweepEvery)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.sweep()
			case <-s.stop:
				return
			}
		}
	}()
}

func (s *MemoryStore) Stop() {
	s.stopOnce.Do(func() { close(s.stop) })
}

func (s *MemoryStore) sweep() {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	for key, entry := range s.entries {
		if now.Sub(entry.windowStart) >= entry.window {
			delete(s.entries, key)
		}
	}
}
