package voicemail

import (
	"context"
	"errors"
	"testing"
	"time"

	"voicemail-platform/internal/lookup"
	"voicemail-platform/internal/telephony"
)

type fakeLookup struct {
	calls   int
	forced  int
	info    *lookup.CallerInfo
	numbers []string
}

func (f *fakeLookup) Lookup(_ context.Context, number string, forceRefresh bool) (*lookup.CallerInfo, error) {
	f.calls++
	if forceRefresh {
		f.forced++
	}
	f.numbers = append(f.numbers, number)
	return f.info, nil
}

type fakeNotifier struct {
	newEvents           []Record
	transcriptionEvents []Record
}

func (f *fakeNotifier) NotifyNew(_ context.Context, rec Record) {
	f.newEvents = append(f.newEvents, rec)
}

func (f *fakeNotifier) NotifyTranscription(_ context.Context, rec Record) {
	f.transcriptionEvents = append(f.transcriptionEvents, rec)
}

// syncService runs background work inline so tests observe enrichment.
func syncService(store Store) (*Service, *fakeLookup, *fakeNotifier) {
	lookups := &fakeLookup{}
	notifier := &fakeNotifier{}
	svc := &Service{
		Store:      store,
		Lookups:    lookups,
		Notifier:   notifier,
		BaseURL:    "https://voicemail.example.com",
		Now:        func() time.Time { return time.Unix(1700000000, 0) },
		Background: func(fn func()) { fn() },
	}
	return svc, lookups, notifier
}

func completeForm() telephony.RecordingCompleteForm {
	return telephony.RecordingCompleteForm{
		RecordingSID:    "RE1",
		RecordingURL:    "https://api.twilio.com/recordings/RE1",
		DurationSeconds: 45,
		CallSid:         "CA1",
		From:            "+13055551234",
		To:              "+13055550000",
		Status:          StatusCompleted,
	}
}

func TestRecordingComplete_CreatesRecord(t *testing.T) {
	store := NewMemoryStore()
	svc, _, notifier := syncService(store)
	ctx := context.Background()

	rec, err := svc.HandleRecordingComplete(ctx, completeForm())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if rec.ID != "RE1" || rec.From != "+13055551234" || rec.Duration != 45 {
		t.Fatalf("unexpected record: %+v", rec)
	}
	if rec.Transcription != "" {
		t.Fatalf("transcription must be absent until its webhook arrives")
	}
	if len(notifier.newEvents) != 1 {
		t.Fatalf("expected one new-voicemail notification, got %d", len(notifier.newEvents))
	}
}

func TestRecordingComplete_IsIdempotent(t *testing.T) {
	store := NewMemoryStore()
	svc, _, notifier := syncService(store)
	ctx := context.Background()

	if _, err := svc.HandleRecordingComplete(ctx, completeForm()); err != nil {
		t.Fatalf("first webhook: %v", err)
	}
	if _, err := svc.HandleRecordingComplete(ctx, completeForm()); err != nil {
		t.Fatalf("retried webhook: %v", err)
	}

	if store.IndexLen() != 1 {
		t.Fatalf("expected one index entry after retry, got %d", store.IndexLen())
	}
	res, _ := store.List(ctx, ListOptions{Limit: 10})
	if res.Total != 1 || len(res.Records) != 1 {
		t.Fatalf("expected one stored record, got total=%d len=%d", res.Total, len(res.Records))
	}
	_ = notifier
}

func TestRecordingComplete_RetryPreservesLaterFields(t *testing.T) {
	store := NewMemoryStore()
	svc, _, _ := syncService(store)
	ctx := context.Background()

	if _, err := svc.HandleRecordingComplete(ctx, completeForm()); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.HandleTranscription(ctx, telephony.TranscriptionForm{
		RecordingSID:      "RE1",
		TranscriptionText: "hello",
	}); err != nil {
		t.Fatalf("transcription: %v", err)
	}

	// Provider retries the recording-complete webhook after transcription landed.
	if _, err := svc.HandleRecordingComplete(ctx, completeForm()); err != nil {
		t.Fatalf("retry: %v", err)
	}
	rec, _ := store.Get(ctx, "RE1")
	if rec.Transcription != "hello" {
		t.Fatalf("retry must not drop merged transcription, got %q", rec.Transcription)
	}
}

func TestRecordingComplete_FiresEnrichment(t *testing.T) {
	store := NewMemoryStore()
	svc, lookups, _ := syncService(store)
	lookups.info = &lookup.CallerInfo{CallerName: "Jane Caller", LineType: "mobile", CarrierName: "Acme Wireless"}
	ctx := context.Background()

	if _, err := svc.HandleRecordingComplete(ctx, completeForm()); err != nil {
		t.Fatalf("create: %v", err)
	}
	if lookups.calls != 1 || lookups.forced != 0 {
		t.Fatalf("expected one unforced lookup, got calls=%d forced=%d", lookups.calls, lookups.forced)
	}

	rec, _ := store.Get(ctx, "RE1")
	if rec.CallerName != "Jane Caller" || rec.LineType != "mobile" {
		t.Fatalf("expected caller fields merged, got %+v", rec)
	}
	if rec.LineTypeIntelligence == nil || rec.LineTypeIntelligence.CarrierName != "Acme Wireless" {
		t.Fatalf("expected carrier intelligence, got %+v", rec.LineTypeIntelligence)
	}
	if rec.LookupLastUpdated == nil {
		t.Fatalf("expected lookup timestamp")
	}
}

func TestRecordingComplete_NoDataEnrichmentLeavesRecordAlone(t *testing.T) {
	store := NewMemoryStore()
	svc, lookups, _ := syncService(store)
	lookups.info = nil
	ctx := context.Background()

	if _, err := svc.HandleRecordingComplete(ctx, completeForm()); err != nil {
		t.Fatalf("create: %v", err)
	}
	rec, _ := store.Get(ctx, "RE1")
	if rec.CallerName != "" || rec.LookupLastUpdated != nil {
		t.Fatalf("no-data lookup must not touch the record: %+v", rec)
	}
}

func TestTranscription_MergesText(t *testing.T) {
	store := NewMemoryStore()
	svc, _, notifier := syncService(store)
	ctx := context.Background()

	_, _ = svc.HandleRecordingComplete(ctx, completeForm())
	rec, err := svc.HandleTranscription(ctx, telephony.TranscriptionForm{
		RecordingSID:        "RE1",
		TranscriptionSID:    "TR1",
		TranscriptionText:   "hello",
		TranscriptionStatus: "completed",
	})
	if err != nil {
		t.Fatalf("transcription: %v", err)
	}
	if rec.Transcription != "hello" || rec.TranscriptionSID != "TR1" {
		t.Fatalf("unexpected merge: %+v", rec)
	}
	if rec.TranscriptionUpdatedAt == nil {
		t.Fatalf("expected transcription timestamp")
	}
	if len(notifier.transcriptionEvents) != 1 {
		t.Fatalf("expected transcription notification")
	}

	// The base fields survive the merge.
	if rec.From != "+13055551234" || rec.Duration != 45 {
		t.Fatalf("merge corrupted base record: %+v", rec)
	}
}

func TestTranscription_EmptyTextSkipsNotification(t *testing.T) {
	store := NewMemoryStore()
	svc, _, notifier := syncService(store)
	ctx := context.Background()

	_, _ = svc.HandleRecordingComplete(ctx, completeForm())
	if _, err := svc.HandleTranscription(ctx, telephony.TranscriptionForm{
		RecordingSID:        "RE1",
		TranscriptionStatus: "failed",
	}); err != nil {
		t.Fatalf("transcription: %v", err)
	}
	if len(notifier.transcriptionEvents) != 0 {
		t.Fatalf("empty transcription must not notify")
	}
}

func TestTranscription_UnknownRecordingDropped(t *testing.T) {
	store := NewMemoryStore()
	svc, _, _ := syncService(store)

	_, err := svc.HandleTranscription(context.Background(), telephony.TranscriptionForm{
		RecordingSID:      "RE404",
		TranscriptionText: "orphan",
	})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	// No partial record may appear.
	if _, err := store.Get(context.Background(), "RE404"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("orphan webhook must not create a record, got %v", err)
	}
}

func TestRecordingStatus_MergesMetadata(t *testing.T) {
	store := NewMemoryStore()
	svc, _, _ := syncService(store)
	ctx := context.Background()

	_, _ = svc.HandleRecordingComplete(ctx, completeForm())
	rec, err := svc.HandleRecordingStatus(ctx, telephony.RecordingStatusForm{
		RecordingSID:    "RE1",
		Status:          StatusCompleted,
		DurationSeconds: 47,
		Channels:        1,
		Source:          "RecordVerb",
		ErrorCode:       "0",
	})
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if rec.Duration != 47 || rec.Channels != 1 || rec.Source != "RecordVerb" {
		t.Fatalf("unexpected merge: %+v", rec)
	}
	if rec.ErrorCode != "" {
		t.Fatalf("error code 0 must not be recorded as a fault, got %q", rec.ErrorCode)
	}
	if rec.StatusUpdatedAt == nil {
		t.Fatalf("expected status timestamp")
	}
}

func TestRecordingStatus_RealErrorRecorded(t *testing.T) {
	store := NewMemoryStore()
	svc, _, _ := syncService(store)
	ctx := context.Background()

	_, _ = svc.HandleRecordingComplete(ctx, completeForm())
	rec, err := svc.HandleRecordingStatus(ctx, telephony.RecordingStatusForm{
		RecordingSID: "RE1",
		Status:       StatusFailed,
		ErrorCode:    "11200",
	})
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if rec.ErrorCode != "11200" || rec.Status != StatusFailed {
		t.Fatalf("expected fault recorded: %+v", rec)
	}
}

func TestStatusBeforeTranscription_OrderIndependent(t *testing.T) {
	store := NewMemoryStore()
	svc, _, _ := syncService(store)
	ctx := context.Background()

	_, _ = svc.HandleRecordingComplete(ctx, completeForm())
	if _, err := svc.HandleRecordingStatus(ctx, telephony.RecordingStatusForm{
		RecordingSID: "RE1", Status: StatusCompleted, DurationSeconds: 47,
	}); err != nil {
		t.Fatalf("status: %v", err)
	}
	if _, err := svc.HandleTranscription(ctx, telephony.TranscriptionForm{
		RecordingSID: "RE1", TranscriptionText: "hello",
	}); err != nil {
		t.Fatalf("transcription: %v", err)
	}

	rec, _ := store.Get(ctx, "RE1")
	if rec.Duration != 47 || rec.Transcription != "hello" {
		t.Fatalf("both merges must survive regardless of order: %+v", rec)
	}
}

func TestMarkListened(t *testing.T) {
	store := NewMemoryStore()
	svc, _, _ := syncService(store)
	ctx := context.Background()

	_, _ = svc.HandleRecordingComplete(ctx, completeForm())
	rec, err := svc.MarkListened(ctx, "RE1", true)
	if err != nil {
		t.Fatalf("mark listened: %v", err)
	}
	if !rec.Listened {
		t.Fatalf("expected listened flag set")
	}
}

func TestRefreshLookup_BypassesCache(t *testing.T) {
	store := NewMemoryStore()
	svc, lookups, _ := syncService(store)
	lookups.info = &lookup.CallerInfo{CallerName: "Jane Caller"}
	ctx := context.Background()

	_, _ = svc.HandleRecordingComplete(ctx, completeForm())
	rec, err := svc.RefreshLookup(ctx, "RE1")
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if lookups.forced != 1 {
		t.Fatalf("expected a forced lookup, got %d", lookups.forced)
	}
	if rec.CallerName != "Jane Caller" {
		t.Fatalf("expected caller merged: %+v", rec)
	}
}

func TestRefreshLookup_UnknownRecord(t *testing.T) {
	store := NewMemoryStore()
	svc, _, _ := syncService(store)

	if _, err := svc.RefreshLookup(context.Background(), "RE404"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
