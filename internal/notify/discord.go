package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// Discord rejects messages over this many characters.
const discordContentLimit = 2000

// DiscordChannel posts to a Discord incoming-webhook URL.
type DiscordChannel struct {
	WebhookURL string
	HTTPClient *http.Client
}

func (c *DiscordChannel) Name() string { return "discord" }

func (c *DiscordChannel) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return http.DefaultClient
}

func (c *DiscordChannel) Notify(ctx context.Context, ev Event) error {
	if c.WebhookURL == "" {
		return errors.New("notify: discord webhook not configured")
	}

	content := discordContent(ev)
	payload, err := json.Marshal(map[string]string{"content": content})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.WebhookURL, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return fmt.Errorf("notify: discord send failed: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("notify: discord webhook returned %d", resp.StatusCode)
	}
	return nil
}

func discordContent(ev Event) string {
	rec := ev.Record
	caller := rec.From
	if rec.CallerName != "" {
		caller = fmt.Sprintf("%s (%s)", rec.CallerName, rec.From)
	}

	var content string
	switch ev.Type {
	case EventTranscription:
		content = fmt.Sprintf("📝 **Voicemail transcription** from %s:\n>>> %s", caller, rec.Transcription)
	default:
		content = fmt.Sprintf("📬 **New voicemail** from %s (%d seconds)\n%s", caller, rec.Duration, rec.RecordingURL)
	}
	return Truncate(content, discordContentLimit)
}
