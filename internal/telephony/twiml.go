package telephony

import (
	"bytes"
	"encoding/xml"
	"errors"
)

// Minimal TwiML builder for the voicemail flow.
// It intentionally avoids any provider SDK dependency.
//
// Only include primitives we need at the adapter boundary.

type twimlResponse struct {
	XMLName xml.Name `xml:"Response"`
	Verbs   []any    `xml:",any"`
}

type twimlSay struct {
	XMLName xml.Name `xml:"Say"`
	Voice   string   `xml:"voice,attr,omitempty"`
	Text    string   `xml:",chardata"`
}

type twimlRecord struct {
	XMLName                 xml.Name `xml:"Record"`
	Action                  string   `xml:"action,attr"`
	Method                  string   `xml:"method,attr,omitempty"`
	MaxLength               int      `xml:"maxLength,attr,omitempty"`
	Timeout                 int      `xml:"timeout,attr,omitempty"`
	PlayBeep                bool     `xml:"playBeep,attr"`
	Transcribe              bool     `xml:"transcribe,attr"`
	TranscribeCallback      string   `xml:"transcribeCallback,attr,omitempty"`
	RecordingStatusCallback string   `xml:"recordingStatusCallback,attr,omitempty"`
}

type twimlPause struct {
	XMLName xml.Name `xml:"Pause"`
	Length  int      `xml:"length,attr,omitempty"`
}

type twimlHangup struct {
	XMLName xml.Name `xml:"Hangup"`
}

// PromptConfig carries the callback URLs embedded in the recording prompt.
// All three must be externally reachable by the provider.
type PromptConfig struct {
	ActionURL          string
	TranscribeURL      string
	StatusCallbackURL  string
	Greeting           string
	MaxLengthSeconds   int
	SilenceTimeoutSecs int
}

const defaultGreeting = "Please leave a message after the tone. Press the pound key or hang up when you are done."

// VoicemailPrompt renders the markup that arms recording on an inbound call.
func VoicemailPrompt(cfg PromptConfig) (string, error) {
	if cfg.ActionURL == "" {
		return "", errors.New("telephony: action url required for recording prompt")
	}
	greeting := cfg.Greeting
	if greeting == "" {
		greeting = defaultGreeting
	}
	maxLength := cfg.MaxLengthSeconds
	if maxLength <= 0 {
		maxLength = 120
	}
	timeout := cfg.SilenceTimeoutSecs
	if timeout <= 0 {
		timeout = 5
	}

	r := twimlResponse{
		Verbs: []any{
			twimlSay{Text: greeting},
			twimlPause{Length: 1},
			twimlRecord{
				Action:                  cfg.ActionURL,
				Method:                  "POST",
				MaxLength:               maxLength,
				Timeout:                 timeout,
				PlayBeep:                true,
				Transcribe:              cfg.TranscribeURL != "",
				TranscribeCallback:      cfg.TranscribeURL,
				RecordingStatusCallback: cfg.StatusCallbackURL,
			},
			// Record falls through here when the caller stays silent.
			twimlSay{Text: "No message received. Goodbye."},
			twimlHangup{},
		},
	}
	return renderTwiML(r)
}

// ReceivedPrompt confirms a recorded message and ends the call.
func ReceivedPrompt() string {
	out, _ := renderTwiML(twimlResponse{
		Verbs: []any{
			twimlSay{Text: "Thank you. Your message has been received. Goodbye."},
			twimlHangup{},
		},
	})
	return out
}

// ErrorPrompt is the spoken fallback when recording setup itself fails.
func ErrorPrompt() string {
	out, _ := renderTwiML(twimlResponse{
		Verbs: []any{
			twimlSay{Text: "We are unable to take your message right now. Please try again later."},
			twimlHangup{},
		},
	})
	return out
}

func renderTwiML(r twimlResponse) (string, error) {
	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(r); err != nil {
		return "", err
	}
	if err := enc.Flush(); err != nil {
		return "", err
	}
	return buf.String(), nil
}
