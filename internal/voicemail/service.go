package voicemail

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"voicemail-platform/internal/lookup"
	"voicemail-platform/internal/telephony"
)

// LookupProvider resolves caller intelligence for a phone number.
// A nil result with a nil error means "no data"; enrichment is optional and
// must never fail the voicemail pipeline.
type LookupProvider interface {
	Lookup(ctx context.Context, number string, forceRefresh bool) (*lookup.CallerInfo, error)
}

// Notifier fans a voicemail event out to staff channels. Implementations own
// their error handling; a channel outage never reaches the webhook response.
type Notifier interface {
	NotifyNew(ctx context.Context, rec Record)
	NotifyTranscription(ctx context.Context, rec Record)
}

// Service is the voicemail lifecycle orchestrator. Each webhook-driven
// transition is idempotent under at-least-once delivery: re-applying the same
// body merges, it never re-creates or appends.
type Service struct {
	Store    Store
	Lookups  LookupProvider // nil disables enrichment
	Notifier Notifier       // nil disables notifications
	BaseURL  string

	Log *slog.Logger
	Now func() time.Time

	// Background runs enrichment off the webhook path. Overridable in tests.
	Background func(func())

	// EnrichTimeout bounds the async lookup write-back.
	EnrichTimeout time.Duration
}

func (s *Service) log() *slog.Logger {
	if s.Log != nil {
		return s.Log
	}
	return slog.Default()
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func (s *Service) background(fn func()) {
	if s.Background != nil {
		s.Background(fn)
		return
	}
	go fn()
}

// GreetingTwiML builds the recording instructions returned on an inbound call.
func (s *Service) GreetingTwiML() (string, error) {
	return telephony.VoicemailPrompt(telephony.PromptConfig{
		ActionURL:         s.BaseURL + "/webhooks/voice/recording",
		TranscribeURL:     s.BaseURL + "/webhooks/voice/transcription",
		StatusCallbackURL: s.BaseURL + "/webhooks/voice/recording-status",
	})
}

// HandleRecordingComplete creates the record, fires async caller enrichment,
// and dispatches the new-voicemail notification. A provider retry of the same
// webhook merges onto the existing record: creation time and any fields later
// webhooks already filled in survive.
func (s *Service) HandleRecordingComplete(ctx context.Context, f telephony.RecordingCompleteForm) (Record, error) {
	if f.RecordingSID == "" {
		return Record{}, errors.New("voicemail: recording sid missing from webhook")
	}

	rec := Record{
		ID:           f.RecordingSID,
		RecordingURL: f.RecordingURL,
		Duration:     f.DurationSeconds,
		CallSid:      f.CallSid,
		From:         f.From,
		To:           f.To,
		Status:       f.Status,
		CreatedAt:    s.now(),
	}

	if existing, err := s.Store.Get(ctx, rec.ID); err == nil {
		merged := existing
		merged.RecordingURL = rec.RecordingURL
		merged.Duration = rec.Duration
		merged.CallSid = rec.CallSid
		merged.From = rec.From
		merged.To = rec.To
		merged.Status = rec.Status
		rec = merged
	}

	if err := s.Store.Create(ctx, rec); err != nil {
		return Record{}, err
	}

	if s.Lookups != nil && rec.From != "" {
		id, number := rec.ID, rec.From
		s.background(func() { s.enrichCaller(id, number) })
	}

	if s.Notifier != nil {
		s.Notifier.NotifyNew(ctx, rec)
	}
	return rec, nil
}

// HandleTranscription merges transcription fields into the record. An unknown
// recording id returns ErrNotFound; the handler logs and drops it so provider
// retries do not loop forever.
func (s *Service) HandleTranscription(ctx context.Context, f telephony.TranscriptionForm) (Record, error) {
	rec, err := s.Store.Update(ctx, f.RecordingSID, func(r *Record) error {
		now := s.now()
		r.Transcription = f.TranscriptionText
		r.TranscriptionSID = f.TranscriptionSID
		r.TranscriptionURL = f.TranscriptionURL
		r.TranscriptionStatus = f.TranscriptionStatus
		r.TranscriptionUpdatedAt = &now
		return nil
	})
	if err != nil {
		return Record{}, err
	}

	if f.TranscriptionText != "" && s.Notifier != nil {
		s.Notifier.NotifyTranscription(ctx, rec)
	}
	return rec, nil
}

// HandleRecordingStatus merges duration/channel/error metadata. It may arrive
// at any point relative to transcription; ordering is not assumed.
func (s *Service) HandleRecordingStatus(ctx context.Context, f telephony.RecordingStatusForm) (Record, error) {
	return s.Store.Update(ctx, f.RecordingSID, func(r *Record) error {
		now := s.now()
		if f.Status != "" {
			r.Status = f.Status
		}
		if f.DurationSeconds > 0 {
			r.Duration = f.DurationSeconds
		}
		if f.RecordingURL != "" {
			r.RecordingURL = f.RecordingURL
		}
		if f.Channels > 0 {
			r.Channels = f.Channels
		}
		if f.Source != "" {
			r.Source = f.Source
		}
		if f.IsRealError() {
			r.ErrorCode = f.ErrorCode
		}
		r.StatusUpdatedAt = &now
		return nil
	})
}

// enrichCaller runs off the webhook path with its own deadline. Its write-back
// races with concurrent status or transcription updates; last write wins and
// that is accepted, since enrichment fields are additive and rarely contended.
func (s *Service) enrichCaller(id, number string) {
	timeout := s.EnrichTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	info, err := s.Lookups.Lookup(ctx, number, false)
	if err != nil {
		s.log().Warn("caller lookup failed", "recording_id", id, "err", err)
		return
	}
	if info == nil {
		return
	}

	if _, err := s.Store.Update(ctx, id, applyCallerInfo(info, s.now())); err != nil {
		s.log().Warn("caller enrichment write failed", "recording_id", id, "err", err)
	}
}

func applyCallerInfo(info *lookup.CallerInfo, now time.Time) func(*Record) error {
	return func(r *Record) error {
		r.CallerName = info.CallerName
		r.CallerType = info.CallerType
		r.LineType = info.LineType
		if info.CarrierName != "" || info.MobileCountryCode != "" || info.MobileNetworkCode != "" {
			r.LineTypeIntelligence = &LineTypeIntelligence{
				CarrierName:       info.CarrierName,
				MobileCountryCode: info.MobileCountryCode,
				MobileNetworkCode: info.MobileNetworkCode,
			}
		}
		r.LookupLastUpdated = &now
		return nil
	}
}

// List returns one page of records for the staff dashboard.
func (s *Service) List(ctx context.Context, opts ListOptions) (ListResult, error) {
	return s.Store.List(ctx, opts)
}

// Get returns one record by id.
func (s *Service) Get(ctx context.Context, id string) (Record, error) {
	return s.Store.Get(ctx, id)
}

// Delete removes a record. Explicit staff action is the only way a record's
// lifecycle ends.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.Store.Delete(ctx, id)
}

// MarkListened flips the staff listened flag.
func (s *Service) MarkListened(ctx context.Context, id string, listened bool) (Record, error) {
	return s.Store.Update(ctx, id, func(r *Record) error {
		r.Listened = listened
		return nil
	})
}

// RefreshLookup forces a fresh caller-intelligence call for one record,
// bypassing the cache. Unlike webhook enrichment it runs synchronously so the
// staff client sees the updated record.
func (s *Service) RefreshLookup(ctx context.Context, id string) (Record, error) {
	rec, err := s.Store.Get(ctx, id)
	if err != nil {
		return Record{}, err
	}
	if s.Lookups == nil {
		return rec, errors.New("voicemail: caller lookup is disabled")
	}

	info, err := s.Lookups.Lookup(ctx, rec.From, true)
	if err != nil {
		return Record{}, err
	}
	if info == nil {
		return rec, nil
	}
	return s.Store.Update(ctx, id, applyCallerInfo(info, s.now()))
}
