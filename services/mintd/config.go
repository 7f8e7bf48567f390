package mintd

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/0xhanvalen/skaterbirds-nft/observability/logging"
)

// Duration wraps time.Duration to support YAML unmarshalling.
type Duration struct {
	time.Duration
}

// UnmarshalYAML parses human readable duration strings.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	if value == nil {
		return nil
	}
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("duration must be string")
	}
	raw := value.Value
	if raw == "" {
		d.Duration = 0
		return nil
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", raw, err)
	}
	d.Duration = parsed
	return nil
}

// Config captures the runtime configuration for mintd.
type Config struct {
	ListenAddress   string          `yaml:"listen"`
	CollectionPath  string          `yaml:"collection"`
	ShutdownTimeout Duration        `yaml:"shutdown_timeout"`
	Auth            AuthConfig      `yaml:"auth"`
	RateLimit       RateLimitConfig `yaml:"rate_limit"`
	Audit           AuditConfig     `yaml:"audit"`
	Stream          StreamConfig    `yaml:"stream"`
	Wallet          WalletConfig    `yaml:"wallet"`
	Log             LogConfig       `yaml:"log"`
	Webhook         WebhookConfig   `yaml:"webhook"`
}

// AuthConfig configures HS256 caller tokens.
type AuthConfig struct {
	Secret     string   `yaml:"secret"`
	SecretFile string   `yaml:"secret_file"`
	SecretEnv  string   `yaml:"secret_env"`
	Issuer     string   `yaml:"issuer"`
	Audience   string   `yaml:"audience"`
	ClockSkew  Duration `yaml:"clock_skew"`
}

// RateLimitConfig bounds the purchase rate per client.
type RateLimitConfig struct {
	RequestsPerMinute float64 `yaml:"requests_per_minute"`
	Burst             int     `yaml:"burst"`
}

// AuditConfig selects the audit log database.
type AuditConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

// StreamConfig tunes the websocket event stream.
type StreamConfig struct {
	Buffer       int      `yaml:"buffer"`
	WriteTimeout Duration `yaml:"write_timeout"`
}

// WalletConfig selects where treasury withdrawals are paid.
type WalletConfig struct {
	// Mode is "bank" for the in-process bank or "disabled".
	Mode          string   `yaml:"mode"`
	Confirmations int      `yaml:"confirmations"`
	PollInterval  Duration `yaml:"poll_interval"`
}

// WebhookConfig enables signed event notifications. An empty URL disables
// them.
type WebhookConfig struct {
	URL         string `yaml:"url"`
	Secret      string `yaml:"secret"`
	SecretEnv   string `yaml:"secret_env"`
	MaxAttempts int    `yaml:"max_attempts"`
	QueueSize   int    `yaml:"queue_size"`
}

// LogConfig configures the log level and the optional rotated log file.
type LogConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
	Compress   bool   `yaml:"compress"`
}

// LoadConfig reads configuration from the supplied path.
func LoadConfig(path string) (Config, error) {
	cfg := Config{}
	file, err := os.Open(path)
	if err != nil {
		return cfg, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()
	dec := yaml.NewDecoder(file)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("decode config: %w", err)
	}
	applyDefaults(&cfg)
	if err := cfg.Auth.normalise(); err != nil {
		return cfg, fmt.Errorf("auth: %w", err)
	}
	if err := cfg.Webhook.normalise(); err != nil {
		return cfg, fmt.Errorf("webhook: %w", err)
	}
	if err := validateConfig(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.ListenAddress == "" {
		cfg.ListenAddress = ":7090"
	}
	if cfg.CollectionPath == "" {
		cfg.CollectionPath = "services/mintd/collection.toml"
	}
	if cfg.ShutdownTimeout.Duration == 0 {
		cfg.ShutdownTimeout.Duration = 10 * time.Second
	}
	if cfg.Auth.ClockSkew.Duration == 0 {
		cfg.Auth.ClockSkew.Duration = 2 * time.Minute
	}
	if cfg.RateLimit.RequestsPerMinute == 0 {
		cfg.RateLimit.RequestsPerMinute = 60
	}
	if cfg.RateLimit.Burst == 0 {
		cfg.RateLimit.Burst = 5
	}
	if cfg.Audit.Driver == "" {
		cfg.Audit.Driver = AuditDriverSQLite
	}
	if cfg.Audit.DSN == "" && cfg.Audit.Driver == AuditDriverSQLite {
		cfg.Audit.DSN = "file:mintd-audit.db"
	}
	if cfg.Stream.Buffer <= 0 {
		cfg.Stream.Buffer = 64
	}
	if cfg.Stream.WriteTimeout.Duration == 0 {
		cfg.Stream.WriteTimeout.Duration = 5 * time.Second
	}
	if cfg.Wallet.Mode == "" {
		cfg.Wallet.Mode = WalletModeBank
	}
	if cfg.Wallet.PollInterval.Duration == 0 {
		cfg.Wallet.PollInterval.Duration = 3 * time.Second
	}
	if cfg.Log.File != "" && cfg.Log.MaxSizeMB <= 0 {
		cfg.Log.MaxSizeMB = 100
	}
}

func validateConfig(cfg Config) error {
	if _, err := logging.ParseLevel(cfg.Log.Level); err != nil {
		return err
	}
	if strings.TrimSpace(cfg.Auth.Secret) == "" {
		return fmt.Errorf("auth secret must be configured")
	}
	if len(cfg.Auth.Secret) < 32 {
		return fmt.Errorf("auth secret must be at least 32 bytes")
	}
	switch cfg.Audit.Driver {
	case AuditDriverSQLite, AuditDriverPostgres:
	default:
		return fmt.Errorf("audit driver %q not supported", cfg.Audit.Driver)
	}
	if strings.TrimSpace(cfg.Audit.DSN) == "" {
		return fmt.Errorf("audit dsn must be configured")
	}
	switch cfg.Wallet.Mode {
	case WalletModeBank, WalletModeDisabled:
	default:
		return fmt.Errorf("wallet mode %q not supported", cfg.Wallet.Mode)
	}
	if cfg.Wallet.Confirmations < 0 {
		return fmt.Errorf("wallet confirmations must not be negative")
	}
	if cfg.RateLimit.RequestsPerMinute < 0 || cfg.RateLimit.Burst < 0 {
		return fmt.Errorf("rate limit must not be negative")
	}
	if cfg.Webhook.URL != "" {
		parsed, err := url.Parse(cfg.Webhook.URL)
		if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
			return fmt.Errorf("webhook url %q must be an absolute http(s) url", cfg.Webhook.URL)
		}
		if cfg.Webhook.Secret == "" {
			return fmt.Errorf("webhook secret must be configured")
		}
	}
	return nil
}

func (w *WebhookConfig) normalise() error {
	w.URL = strings.TrimSpace(w.URL)
	w.Secret = strings.TrimSpace(w.Secret)
	w.SecretEnv = strings.TrimSpace(w.SecretEnv)
	if w.URL == "" || w.Secret != "" || w.SecretEnv == "" {
		return nil
	}
	value := strings.TrimSpace(os.Getenv(w.SecretEnv))
	if value == "" {
		return fmt.Errorf("secret_env %s is empty", w.SecretEnv)
	}
	w.Secret = value
	return nil
}

func (a *AuthConfig) normalise() error {
	if a == nil {
		return fmt.Errorf("auth configuration missing")
	}
	a.Secret = strings.TrimSpace(a.Secret)
	a.SecretEnv = strings.TrimSpace(a.SecretEnv)
	a.SecretFile = strings.TrimSpace(a.SecretFile)
	if a.Secret != "" {
		return nil
	}
	switch {
	case a.SecretEnv != "":
		value := strings.TrimSpace(os.Getenv(a.SecretEnv))
		if value == "" {
			return fmt.Errorf("secret_env %s is empty", a.SecretEnv)
		}
		a.Secret = value
	case a.SecretFile != "":
		contents, err := os.ReadFile(a.SecretFile)
		if err != nil {
			return fmt.Errorf("read secret_file: %w", err)
		}
		a.Secret = strings.TrimSpace(string(contents))
	default:
		return fmt.Errorf("secret is required")
	}
	return nil
}

// Wallet modes accepted in WalletConfig.Mode.
const (
	WalletModeBank     = "bank"
	WalletModeDisabled = "disabled"
)
