package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

var (
	ErrNoSecret     = errors.New("auth: dashboard secret not configured")
	ErrInvalidToken = errors.New("auth: invalid token")
)

// RateLimitedError rejects an attempt without revealing whether the presented
// token was correct.
type RateLimitedError struct {
	RetryAfter time.Time
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("auth: too many failed attempts, retry after %s", e.RetryAfter.UTC().Format(time.RFC3339))
}

// Limiter tracks failed authentication attempts per client IP.
type Limiter interface {
	// Failures returns the current failure count and, when locked out, the
	// time at which the window expires.
	Failures(ctx context.Context, ip string) (count int, retryAfter time.Time, err error)
	// RecordFailure bumps the counter and returns the new count.
	RecordFailure(ctx context.Context, ip string) (count int, err error)
	// Clear resets the counter after a successful authentication.
	Clear(ctx context.Context, ip string) error
}

// Guard authenticates staff requests against a shared secret, with a
// failure-count lockout per client IP.
//
// Limiter errors never fail authentication: if the limiter is down the guard
// falls back to the plain secret comparison (fail-open for availability).
type Guard struct {
	secret      string
	limiter     Limiter
	maxAttempts int
	log         *slog.Logger
}

func NewGuard(secret string, limiter Limiter, maxAttempts int, log *slog.Logger) *Guard {
	if maxAttempts <= 0 {
		maxAttempts = 5
	}
	if log == nil {
		log = slog.Default()
	}
	return &Guard{secret: secret, limiter: limiter, maxAttempts: maxAttempts, log: log}
}

// Check validates a bearer token from the given client IP.
// Returns nil, ErrNoSecret, ErrInvalidToken, or a *RateLimitedError.
func (g *Guard) Check(ctx context.Context, token, clientIP string) error {
	if g.secret == "" {
		return ErrNoSecret
	}

	limited := g.limiter != nil
	if limited {
		count, retryAfter, err := g.limiter.Failures(ctx, clientIP)
		if err != nil {
			g.log.Warn("rate limiter unavailable, skipping limiting", "err", err)
			limited = false
		} else if count >= g.maxAttempts {
			// Reject before touching the secret so a locked-out caller learns
			// nothing about the token it just sent.
			return &RateLimitedError{RetryAfter: retryAfter}
		}
	}

	if !secureCompare(token, g.secret) {
		if limited {
			if _, err := g.limiter.RecordFailure(ctx, clientIP); err != nil {
				g.log.Warn("failed to record auth failure", "err", err)
			}
		}
		return ErrInvalidToken
	}

	if limited {
		if err := g.limiter.Clear(ctx, clientIP); err != nil {
			g.log.Warn("failed to clear auth failures", "err", err)
		}
	}
	return nil
}

// secureCompare is a length-gated fixed-time comparison. The length check
// leaks only the secret's length, never its contents.
func secureCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
