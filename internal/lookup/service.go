package lookup

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"
	"unicode"
)

const (
	// PositiveTTL bounds how long a successful lookup is reused.
	PositiveTTL = 30 * 24 * time.Hour
	// NegativeTTL bounds how long a known-bad number suppresses retries.
	NegativeTTL = time.Hour
)

// Service wraps the upstream lookup with a positive/negative cache.
// Enrichment is optional everywhere it is used: failures degrade to "no data",
// they never propagate as fatal to the voicemail pipeline.
type Service struct {
	Client Client // nil means lookups are disabled
	Cache  Cache  // nil disables caching, not lookups

	Log *slog.Logger
	Now func() time.Time
}

func (s *Service) log() *slog.Logger {
	if s.Log != nil {
		return s.Log
	}
	return slog.Default()
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Normalize coerces a phone number to E.164 form: strip spacing, prefix +.
func Normalize(number string) string {
	number = strings.TrimSpace(number)
	var b strings.Builder
	for _, r := range number {
		if unicode.IsDigit(r) || r == '+' {
			b.WriteRune(r)
		}
	}
	out := b.String()
	if out == "" {
		return ""
	}
	if !strings.HasPrefix(out, "+") {
		out = "+" + out
	}
	return out
}

// Lookup resolves caller intelligence for a number. (nil, nil) means no data:
// the feature is disabled, the number is empty or unknown, or the upstream is
// down. The returned error is reserved for genuinely unexpected states and is
// currently always nil; callers treat nil info as "skip enrichment".
func (s *Service) Lookup(ctx context.Context, number string, forceRefresh bool) (*CallerInfo, error) {
	if s.Client == nil {
		return nil, nil
	}
	e164 := Normalize(number)
	if e164 == "" || e164 == "+" {
		return nil, nil
	}

	if !forceRefresh && s.Cache != nil {
		entry, err := s.Cache.Get(ctx, e164)
		if err != nil {
			s.log().Warn("lookup cache read failed", "err", err)
		} else if entry != nil {
			if entry.LookupFailed {
				return nil, nil
			}
			info := entry.CallerInfo
			return &info, nil
		}
	}

	info, err := s.Client.Lookup(ctx, e164)
	if errors.Is(err, ErrNumberNotFound) {
		s.cachePut(ctx, e164, CacheEntry{LookupFailed: true, UpdatedAt: s.now()}, NegativeTTL)
		return nil, nil
	}
	if err != nil {
		// Transient upstream trouble: nothing cached, retry on the next call.
		s.log().Warn("lookup upstream failed", "err", err)
		return nil, nil
	}

	s.cachePut(ctx, e164, CacheEntry{CallerInfo: info, UpdatedAt: s.now()}, PositiveTTL)
	return &info, nil
}

func (s *Service) cachePut(ctx context.Context, e164 string, entry CacheEntry, ttl time.Duration) {
	if s.Cache == nil {
		return
	}
	if err := s.Cache.Put(ctx, e164, entry, ttl); err != nil {
		s.log().Warn("lookup cache write failed", "err", err)
	}
}
