package notify

import (
	"context"
	"log/slog"
	"time"

	"voicemail-platform/internal/voicemail"
)

// EventType selects the message a channel renders.
type EventType string

const (
	EventNew           EventType = "new"
	EventTranscription EventType = "transcription"
)

// Event is one staff-notification trigger.
type Event struct {
	Type   EventType
	Record voicemail.Record
}

// Channel delivers one event to one destination. Implementations make at most
// one attempt; there are no retries.
type Channel interface {
	Name() string
	Notify(ctx context.Context, ev Event) error
}

// Dispatcher fans events out to every configured channel. Each channel's
// failure is caught and logged in isolation: one channel's outage never blocks
// another, and nothing here ever reaches the webhook response.
type Dispatcher struct {
	Channels []Channel
	Log      *slog.Logger

	// Timeout bounds each channel attempt.
	Timeout time.Duration
}

func (d *Dispatcher) log() *slog.Logger {
	if d.Log != nil {
		return d.Log
	}
	return slog.Default()
}

func (d *Dispatcher) timeout() time.Duration {
	if d.Timeout > 0 {
		return d.Timeout
	}
	return 10 * time.Second
}

// Dispatch delivers the event to every channel, best-effort.
func (d *Dispatcher) Dispatch(ctx context.Context, ev Event) {
	for _, ch := range d.Channels {
		cctx, cancel := context.WithTimeout(ctx, d.timeout())
		if err := ch.Notify(cctx, ev); err != nil {
			d.log().Warn("notification failed",
				"channel", ch.Name(),
				"event", string(ev.Type),
				"recording_id", ev.Record.ID,
				"err", err)
		}
		cancel()
	}
}

// NotifyNew implements voicemail.Notifier.
func (d *Dispatcher) NotifyNew(ctx context.Context, rec voicemail.Record) {
	d.Dispatch(ctx, Event{Type: EventNew, Record: rec})
}

// NotifyTranscription implements voicemail.Notifier.
func (d *Dispatcher) NotifyTranscription(ctx context.Context, rec voicemail.Record) {
	d.Dispatch(ctx, Event{Type: EventTranscription, Record: rec})
}

// Truncate cuts s to at most max runes, marking the cut visibly.
func Truncate(s string, max int) string {
	if max <= 1 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-1]) + "…"
}
