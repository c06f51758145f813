package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"io"
	"net/http"
)

const defaultResendBaseURL = "https://api.resend.com"

// EmailChannel sends staff email through the Resend HTTP API.
type EmailChannel struct {
	APIKey string
	From   string
	To     []string

	// BaseURL is overridable in tests.
	BaseURL    string
	HTTPClient *http.Client
}

func (c *EmailChannel) Name() string { return "email" }

func (c *EmailChannel) baseURL() string {
	if c.BaseURL != "" {
		return c.BaseURL
	}
	return defaultResendBaseURL
}

func (c *EmailChannel) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return http.DefaultClient
}

type resendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

func (c *EmailChannel) Notify(ctx context.Context, ev Event) error {
	if c.APIKey == "" || c.From == "" || len(c.To) == 0 {
		return errors.New("notify: email channel not configured")
	}

	subject, body := emailContent(ev)
	payload, err := json.Marshal(resendRequest{From: c.From, To: c.To, Subject: subject, HTML: body})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL()+"/emails", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return fmt.Errorf("notify: email send failed: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("notify: email api returned %d", resp.StatusCode)
	}
	return nil
}

func emailContent(ev Event) (subject, body string) {
	rec := ev.Record
	caller := rec.From
	if rec.CallerName != "" {
		caller = fmt.Sprintf("%s (%s)", rec.CallerName, rec.From)
	}

	switch ev.Type {
	case EventTranscription:
		subject = fmt.Sprintf("Voicemail transcription from %s", caller)
		body = fmt.Sprintf(
			"<p>Transcription of the voicemail from <strong>%s</strong>:</p><blockquote>%s</blockquote><p><a href=%q>Listen to the recording</a></p>",
			html.EscapeString(caller),
			html.EscapeString(rec.Transcription),
			rec.RecordingURL,
		)
	default:
		subject = fmt.Sprintf("New voicemail from %s", caller)
		body = fmt.Sprintf(
			"<p>New voicemail from <strong>%s</strong> (%d seconds).</p><p><a href=%q>Listen to the recording</a></p>",
			html.EscapeString(caller),
			rec.Duration,
			rec.RecordingURL,
		)
	}
	return subject, body
}
