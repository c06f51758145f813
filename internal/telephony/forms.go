package telephony

import (
	"net/http"
	"strconv"
	"strings"
)

// Typed parsers for the three voicemail webhooks. Twilio sends
// application/x-www-form-urlencoded by default; keep these provider-adapter-only.
// Business logic (record lifecycle) is not made here.

// RecordingCompleteForm is posted when the caller finishes recording.
type RecordingCompleteForm struct {
	RecordingSID    string
	RecordingURL    string
	DurationSeconds int
	CallSid         string
	From            string
	To              string
	Status          string
}

func ParseRecordingComplete(r *http.Request) (RecordingCompleteForm, error) {
	if err := r.ParseForm(); err != nil {
		return RecordingCompleteForm{}, err
	}
	f := RecordingCompleteForm{
		RecordingSID:    r.PostFormValue("RecordingSid"),
		RecordingURL:    r.PostFormValue("RecordingUrl"),
		DurationSeconds: formInt(r, "RecordingDuration"),
		CallSid:         r.PostFormValue("CallSid"),
		From:            normalizePhone(r.PostFormValue("From")),
		To:              normalizePhone(r.PostFormValue("To")),
		Status:          r.PostFormValue("RecordingStatus"),
	}
	if f.Status == "" {
		// The record-action callback does not carry a status; the recording
		// exists by the time it fires.
		f.Status = "completed"
	}
	return f, nil
}

// TranscriptionForm is posted once transcription finishes (or fails).
type TranscriptionForm struct {
	TranscriptionSID    string
	TranscriptionText   string
	TranscriptionStatus string
	TranscriptionURL    string
	RecordingSID        string
	CallSid             string
	From                string
}

func ParseTranscription(r *http.Request) (TranscriptionForm, error) {
	if err := r.ParseForm(); err != nil {
		return TranscriptionForm{}, err
	}
	return TranscriptionForm{
		TranscriptionSID:    r.PostFormValue("TranscriptionSid"),
		TranscriptionText:   r.PostFormValue("TranscriptionText"),
		TranscriptionStatus: r.PostFormValue("TranscriptionStatus"),
		TranscriptionURL:    r.PostFormValue("TranscriptionUrl"),
		RecordingSID:        r.PostFormValue("RecordingSid"),
		CallSid:             r.PostFormValue("CallSid"),
		From:                normalizePhone(r.PostFormValue("From")),
	}, nil
}

// RecordingStatusForm is posted on recording state changes, independent of the
// transcription callback and in no guaranteed order relative to it.
type RecordingStatusForm struct {
	RecordingSID    string
	RecordingURL    string
	Status          string
	DurationSeconds int
	Channels        int
	Source          string
	ErrorCode       string
}

func ParseRecordingStatus(r *http.Request) (RecordingStatusForm, error) {
	if err := r.ParseForm(); err != nil {
		return RecordingStatusForm{}, err
	}
	return RecordingStatusForm{
		RecordingSID:    r.PostFormValue("RecordingSid"),
		RecordingURL:    r.PostFormValue("RecordingUrl"),
		Status:          r.PostFormValue("RecordingStatus"),
		DurationSeconds: formInt(r, "RecordingDuration"),
		Channels:        formInt(r, "RecordingChannels"),
		Source:          r.PostFormValue("RecordingSource"),
		ErrorCode:       strings.TrimSpace(r.PostFormValue("ErrorCode")),
	}, nil
}

// IsRealError reports whether the status callback carries an actual fault.
// The provider sends "0" (and sometimes an empty string) for "no error".
func (f RecordingStatusForm) IsRealError() bool {
	return f.ErrorCode != "" && f.ErrorCode != "0"
}

func formInt(r *http.Request, key string) int {
	v := strings.TrimSpace(r.PostFormValue(key))
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0
	}
	return n
}

func normalizePhone(s string) string {
	s = strings.TrimSpace(s)
	// Twilio sometimes sends "anonymous" or empty; keep as-is.
	return s
}
