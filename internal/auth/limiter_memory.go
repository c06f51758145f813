package auth

import (
	"context"
	"sync"
	"time"
)

// MemoryLimiter is an in-memory Limiter for tests and single-process setups.
// It mirrors the redis semantics: first failure opens a counting window,
// reaching the max extends expiry to the lockout duration.
type MemoryLimiter struct {
	mu      sync.Mutex
	entries map[string]*memoryCounter

	MaxAttempts int
	Window      time.Duration
	Lockout     time.Duration

	// Now is overridable in tests.
	Now func() time.Time
}

type memoryCounter struct {
	count     int
	expiresAt time.Time
}

func NewMemoryLimiter(maxAttempts int, window, lockout time.Duration) *MemoryLimiter {
	if maxAttempts <= 0 {
		maxAttempts = 5
	}
	if window <= 0 {
		window = 15 * time.Minute
	}
	if lockout <= 0 {
		lockout = window
	}
	return &MemoryLimiter{
		entries:     map[string]*memoryCounter{},
		MaxAttempts: maxAttempts,
		Window:      window,
		Lockout:     lockout,
	}
}

func (l *MemoryLimiter) now() time.Time {
	if l.Now != nil {
		return l.Now()
	}
	return time.Now()
}

func (l *MemoryLimiter) Failures(_ context.Context, ip string) (int, time.Time, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e := l.entries[ip]
	if e == nil || !e.expiresAt.After(l.now()) {
		delete(l.entries, ip)
		return 0, time.Time{}, nil
	}
	return e.count, e.expiresAt, nil
}

func (l *MemoryLimiter) RecordFailure(_ context.Context, ip string) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	e := l.entries[ip]
	if e == nil || !e.expiresAt.After(now) {
		e = &memoryCounter{expiresAt: now.Add(l.Window)}
		l.entries[ip] = e
	}
	e.count++
	if e.count >= l.MaxAttempts {
		e.expiresAt = now.Add(l.Lockout)
	}
	return e.count, nil
}

func (l *MemoryLimiter) Clear(_ context.Context, ip string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.entries, ip)
	return nil
}
