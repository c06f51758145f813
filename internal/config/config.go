package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration required by the API process.
// All values must come from env (or an env-file loaded by cmd/api before Load;
// process env always wins over the env-file).
// No business logic should depend on raw environment variables.
type Config struct {
	App       AppConfig
	Redis     RedisConfig
	Twilio    TwilioConfig
	Dashboard DashboardConfig
	Lookup    LookupConfig
	Notify    NotifyConfig
}

type AppConfig struct {
	Env  string
	Port int

	// PublicBaseURL is the externally reachable base URL of this service.
	// It is embedded in the voice-prompt markup as callback URLs, so it must
	// match what the telephony provider sees (scheme + host, no trailing slash).
	PublicBaseURL string
}

type RedisConfig struct {
	Host string
	Port int
}

type TwilioConfig struct {
	AccountSID string

	// AuthToken is the shared secret used for webhook signature validation
	// and as the Lookup API basic-auth password.
	AuthToken string
}

type DashboardConfig struct {
	// Secret is the staff API bearer token.
	Secret string

	MaxAttempts int
	Window      time.Duration
	Lockout     time.Duration
}

type LookupConfig struct {
	Enabled bool
}

type NotifyConfig struct {
	ResendAPIKey      string
	EmailFrom         string
	EmailTo           []string
	DiscordWebhookURL string
}

func Load() (Config, error) {
	c := Config{}
	var parseErrs []error

	c.App.Env = strings.TrimSpace(os.Getenv("APP_ENV"))
	{
		n, err := mustInt("APP_PORT")
		n, parseErrs = appendParseErr(parseErrs, n, err)
		c.App.Port = n
	}
	c.App.PublicBaseURL = strings.TrimRight(strings.TrimSpace(os.Getenv("PUBLIC_BASE_URL")), "/")

	c.Redis.Host = strings.TrimSpace(os.Getenv("REDIS_HOST"))
	{
		n, err := mustInt("REDIS_PORT")
		n, parseErrs = appendParseErr(parseErrs, n, err)
		c.Redis.Port = n
	}

	c.Twilio.AccountSID = strings.TrimSpace(os.Getenv("TWILIO_ACCOUNT_SID"))
	c.Twilio.AuthToken = os.Getenv("TWILIO_AUTH_TOKEN")

	c.Dashboard.Secret = os.Getenv("DASHBOARD_SECRET")
	c.Dashboard.MaxAttempts = optionalInt("AUTH_MAX_ATTEMPTS")
	c.Dashboard.Window = optionalDuration("AUTH_WINDOW")
	c.Dashboard.Lockout = optionalDuration("AUTH_LOCKOUT")

	c.Lookup.Enabled = optionalBool("LOOKUP_ENABLED")

	c.Notify.ResendAPIKey = strings.TrimSpace(os.Getenv("RESEND_API_KEY"))
	c.Notify.EmailFrom = strings.TrimSpace(os.Getenv("NOTIFY_EMAIL_FROM"))
	c.Notify.EmailTo = splitList(os.Getenv("NOTIFY_EMAIL_TO"))
	c.Notify.DiscordWebhookURL = strings.TrimSpace(os.Getenv("DISCORD_WEBHOOK_URL"))

	if err := joinErrors(parseErrs); err != nil {
		return Config{}, err
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

func (c *Config) Validate() error {
	var errs []error

	if c.App.Env == "" {
		errs = append(errs, errors.New("APP_ENV is required"))
	} else if !isValidEnv(c.App.Env) {
		errs = append(errs, fmt.Errorf("APP_ENV must be one of local, dev, staging, production, got %q", c.App.Env))
	}
	if c.App.Port <= 0 || c.App.Port > 65535 {
		errs = append(errs, fmt.Errorf("APP_PORT must be a valid port, got %d", c.App.Port))
	}
	if c.App.PublicBaseURL == "" {
		errs = append(errs, errors.New("PUBLIC_BASE_URL is required"))
	} else if !strings.HasPrefix(c.App.PublicBaseURL, "http://") && !strings.HasPrefix(c.App.PublicBaseURL, "https://") {
		errs = append(errs, fmt.Errorf("PUBLIC_BASE_URL must start with http:// or https://, got %q", c.App.PublicBaseURL))
	}

	if c.Redis.Host == "" {
		errs = append(errs, errors.New("REDIS_HOST is required"))
	}
	if c.Redis.Port <= 0 || c.Redis.Port > 65535 {
		errs = append(errs, fmt.Errorf("REDIS_PORT must be a valid port, got %d", c.Redis.Port))
	}

	if c.Twilio.AuthToken == "" {
		errs = append(errs, errors.New("TWILIO_AUTH_TOKEN is required"))
	}

	if c.Dashboard.Secret == "" {
		errs = append(errs, errors.New("DASHBOARD_SECRET is required"))
	}
	if c.Dashboard.MaxAttempts <= 0 {
		c.Dashboard.MaxAttempts = 5
	}
	if c.Dashboard.Window <= 0 {
		c.Dashboard.Window = 15 * time.Minute
	}
	if c.Dashboard.Lockout <= 0 {
		// Lockout defaults to the counting window; operators may set it longer.
		c.Dashboard.Lockout = c.Dashboard.Window
	}

	// Lookup, email and Discord settings are optional: an unset channel is
	// disabled, never a startup error. Lookup additionally needs Twilio
	// credentials; without them the feature behaves as disabled.
	if c.Notify.ResendAPIKey != "" {
		if c.Notify.EmailFrom == "" {
			errs = append(errs, errors.New("NOTIFY_EMAIL_FROM is required when RESEND_API_KEY is set"))
		}
		if len(c.Notify.EmailTo) == 0 {
			errs = append(errs, errors.New("NOTIFY_EMAIL_TO is required when RESEND_API_KEY is set"))
		}
	}

	return joinErrors(errs)
}

func (c Config) IsProduction() bool {
	return c.App.Env == "production"
}

func (c Config) HTTPAddr() string {
	return fmt.Sprintf(":%d", c.App.Port)
}

func (c Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}

// LookupActive reports whether caller-intelligence lookups should run at all.
// Missing credentials behave exactly like the flag being off.
func (c Config) LookupActive() bool {
	return c.Lookup.Enabled && c.Twilio.AccountSID != "" && c.Twilio.AuthToken != ""
}

func mustInt(key string) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return 0, fmt.Errorf("%s is required", key)
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got %q", key, v)
	}
	return n, nil
}

func optionalInt(key string) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0
	}
	return n
}

func optionalDuration(key string) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return 0
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0
	}
	return d
}

func optionalBool(key string) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return false
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false
	}
	return b
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func appendParseErr(errs []error, n int, err error) (int, []error) {
	if err != nil {
		errs = append(errs, err)
	}
	return n, errs
}

func isValidEnv(v string) bool {
	switch v {
	case "local", "dev", "staging", "production":
		return true
	default:
		return false
	}
}

func joinErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	if len(errs) == 1 {
		return errs[0]
	}
	var b strings.Builder
	b.WriteString("config errors:\n")
	for _, e := range errs {
		b.WriteString("- ")
		b.WriteString(e.Error())
		b.WriteString("\n")
	}
	return errors.New(strings.TrimSpace(b.String()))
}
