package telephony

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
)

func TestValidateSignature_Roundtrip(t *testing.T) {
	params := url.Values{}
	params.Set("RecordingSid", "RE1")
	params.Set("From", "+13055551234")
	params.Set("CallSid", "CA1")

	u := "https://voicemail.example.com/webhooks/voice/recording"
	sig := Sign("secret", u, params)

	if err := ValidateSignature("secret", u, sig, params); err != nil {
		t.Fatalf("expected valid signature, got %v", err)
	}
}

func TestValidateSignature_RejectsMutation(t *testing.T) {
	params := url.Values{}
	params.Set("RecordingSid", "RE1")
	params.Set("From", "+13055551234")

	u := "https://voicemail.example.com/webhooks/voice/recording"
	sig := Sign("secret", u, params)

	mutated := url.Values{}
	mutated.Set("RecordingSid", "RE2")
	mutated.Set("From", "+13055551234")
	if err := ValidateSignature("secret", u, sig, mutated); !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("expected ErrInvalidSignature for mutated body, got %v", err)
	}

	if err := ValidateSignature("secret", u+"x", sig, params); !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("expected ErrInvalidSignature for mutated url, got %v", err)
	}

	if err := ValidateSignature("other", u, sig, params); !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("expected ErrInvalidSignature for wrong secret, got %v", err)
	}
}

func TestValidateSignature_MissingTokenIsMisconfiguration(t *testing.T) {
	err := ValidateSignature("", "https://x.example.com/hook", "sig", url.Values{})
	if !errors.Is(err, ErrNoAuthToken) {
		t.Fatalf("expected ErrNoAuthToken, got %v", err)
	}
}

func TestSign_SortsKeysLexically(t *testing.T) {
	a := url.Values{}
	a.Set("Zed", "1")
	a.Set("Alpha", "2")

	b := url.Values{}
	b.Set("Alpha", "2")
	b.Set("Zed", "1")

	u := "https://x.example.com/hook"
	if Sign("s", u, a) != Sign("s", u, b) {
		t.Fatalf("expected signature to be independent of insertion order")
	}
}

func TestRequestURL_PrefersForwardedHeaders(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "http://10.0.0.1:8080/webhooks/voice?foo=bar", nil)
	r.Header.Set("X-Forwarded-Proto", "https")
	r.Header.Set("X-Forwarded-Host", "voicemail.example.com")

	got := RequestURL(r)
	if got != "https://voicemail.example.com/webhooks/voice" {
		t.Fatalf("unexpected url: %q", got)
	}
}

func TestRequestURL_FallsBackToRequest(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "http://edge.internal/webhooks/voice", nil)
	got := RequestURL(r)
	if got != "http://edge.internal/webhooks/voice" {
		t.Fatalf("unexpected url: %q", got)
	}
}
