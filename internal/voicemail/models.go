package voicemail

import "time"

// Recording status values mirror the provider's recording states.
const (
	StatusInProgress = "in-progress"
	StatusCompleted  = "completed"
	StatusAbsent     = "absent"
	StatusFailed     = "failed"
)

// LineTypeIntelligence carries carrier metadata from the number-intelligence
// lookup. All fields are optional.
type LineTypeIntelligence struct {
	CarrierName       string `json:"carrierName,omitempty"`
	MobileCountryCode string `json:"mobileCountryCode,omitempty"`
	MobileNetworkCode string `json:"mobileNetworkCode,omitempty"`
}

// Record is one recorded voicemail message. It is created exactly once, at
// recording-complete time; every later webhook merge-updates it by ID.
// Lifecycle ends only via explicit staff deletion.
type Record struct {
	ID           string `json:"id"`
	RecordingURL string `json:"recordingUrl"`
	Duration     int    `json:"duration"`
	CallSid      string `json:"callSid"`
	From         string `json:"from"`
	To           string `json:"to"`
	Status       string `json:"status"`

	// Populated by the transcription webhook; absent until then.
	Transcription       string `json:"transcription,omitempty"`
	TranscriptionSID    string `json:"transcriptionSid,omitempty"`
	TranscriptionURL    string `json:"transcriptionUrl,omitempty"`
	TranscriptionStatus string `json:"transcriptionStatus,omitempty"`

	// Populated asynchronously by caller lookup; never required for
	// correctness of the base record.
	CallerName           string                `json:"callerName,omitempty"`
	CallerType           string                `json:"callerType,omitempty"`
	LineType             string                `json:"lineType,omitempty"`
	LineTypeIntelligence *LineTypeIntelligence `json:"lineTypeIntelligence,omitempty"`
	LookupLastUpdated    *time.Time            `json:"lookupLastUpdated,omitempty"`

	// Set by the recording-status webhook.
	Channels  int    `json:"channels,omitempty"`
	Source    string `json:"source,omitempty"`
	ErrorCode string `json:"errorCode,omitempty"`

	// Mutated only by explicit staff action.
	Listened bool `json:"listened"`

	CreatedAt              time.Time  `json:"createdAt"`
	StatusUpdatedAt        *time.Time `json:"statusUpdatedAt,omitempty"`
	TranscriptionUpdatedAt *time.Time `json:"transcriptionUpdatedAt,omitempty"`
}
