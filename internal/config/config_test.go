package config

import (
	"testing"
	"time"
)

func validConfig() Config {
	return Config{
		App:       AppConfig{Env: "local", Port: 8080, PublicBaseURL: "https://voicemail.example.com"},
		Redis:     RedisConfig{Host: "localhost", Port: 6379},
		Twilio:    TwilioConfig{AuthToken: "token"},
		Dashboard: DashboardConfig{Secret: "secret"},
	}
}

func TestValidate_ReportsMissingRequired(t *testing.T) {
	c := Config{}
	if err := c.Validate(); err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestValidate_AppliesAuthDefaults(t *testing.T) {
	c := validConfig()
	if err := c.Validate(); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if c.Dashboard.MaxAttempts != 5 {
		t.Fatalf("expected default max attempts 5, got %d", c.Dashboard.MaxAttempts)
	}
	if c.Dashboard.Window != 15*time.Minute {
		t.Fatalf("expected default window 15m, got %v", c.Dashboard.Window)
	}
	if c.Dashboard.Lockout != c.Dashboard.Window {
		t.Fatalf("expected lockout to default to window, got %v", c.Dashboard.Lockout)
	}
}

func TestValidate_PublicBaseURLMustBeHTTP(t *testing.T) {
	c := validConfig()
	c.App.PublicBaseURL = "voicemail.example.com"
	if err := c.Validate(); err == nil {
		t.Fatalf("expected error for scheme-less base url")
	}
}

func TestValidate_EmailSettingsAllOrNothing(t *testing.T) {
	c := validConfig()
	c.Notify.ResendAPIKey = "re_123"
	if err := c.Validate(); err == nil {
		t.Fatalf("expected error when api key set without from/to")
	}
	c.Notify.EmailFrom = "voicemail@example.com"
	c.Notify.EmailTo = []string{"staff@example.com"}
	if err := c.Validate(); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
}

func TestLookupActive_RequiresFlagAndCredentials(t *testing.T) {
	c := validConfig()
	if c.LookupActive() {
		t.Fatalf("lookup should be off by default")
	}
	c.Lookup.Enabled = true
	if c.LookupActive() {
		t.Fatalf("lookup should stay off without account sid")
	}
	c.Twilio.AccountSID = "AC123"
	if !c.LookupActive() {
		t.Fatalf("lookup should be active with flag and credentials")
	}
}
