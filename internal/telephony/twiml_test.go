package telephony

import (
	"strings"
	"testing"
)

func TestVoicemailPrompt(t *testing.T) {
	out, err := VoicemailPrompt(PromptConfig{
		ActionURL:         "https://x.example.com/webhooks/voice/recording",
		TranscribeURL:     "https://x.example.com/webhooks/voice/transcription",
		StatusCallbackURL: "https://x.example.com/webhooks/voice/recording-status",
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	for _, want := range []string{
		"<Record",
		`action="https://x.example.com/webhooks/voice/recording"`,
		`transcribe="true"`,
		`transcribeCallback="https://x.example.com/webhooks/voice/transcription"`,
		`recordingStatusCallback="https://x.example.com/webhooks/voice/recording-status"`,
		"<Say>",
		"<Pause length=\"1\">",
		"<Hangup>",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in twiml:\n%s", want, out)
		}
	}
}

func TestVoicemailPrompt_RequiresActionURL(t *testing.T) {
	if _, err := VoicemailPrompt(PromptConfig{}); err == nil {
		t.Fatalf("expected error")
	}
}

func TestVoicemailPrompt_TranscriptionOptional(t *testing.T) {
	out, err := VoicemailPrompt(PromptConfig{ActionURL: "https://x.example.com/r"})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !strings.Contains(out, `transcribe="false"`) {
		t.Fatalf("expected transcription off without callback url:\n%s", out)
	}
}

func TestReceivedPrompt(t *testing.T) {
	out := ReceivedPrompt()
	if !strings.Contains(out, "received") || !strings.Contains(out, "<Hangup>") {
		t.Fatalf("unexpected prompt:\n%s", out)
	}
}

func TestErrorPrompt(t *testing.T) {
	out := ErrorPrompt()
	if !strings.Contains(out, "<Say>") {
		t.Fatalf("expected spoken fallback:\n%s", out)
	}
}
