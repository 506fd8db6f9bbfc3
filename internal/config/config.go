// ABOUTME: Configuration loading and parsing for club-relay
// ABOUTME: Supports YAML files with environment variable expansion and duration parsing

package config

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete club-relay configuration
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Tailscale TailscaleConfig `yaml:"tailscale"`
	Database  DatabaseConfig  `yaml:"database"`
	Telegram  TelegramConfig  `yaml:"telegram"`
	Admin     AdminConfig     `yaml:"admin"`
	Limits    LimitsConfig    `yaml:"limits"`
	Dedupe    DedupeConfig    `yaml:"dedupe"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// ServerConfig holds the webhook listener configuration
type ServerConfig struct {
	HTTPAddr string `yaml:"http_addr"`
	// WebhookSecret, when set, must match the secret token header on
	// every webhook request
	WebhookSecret string `yaml:"webhook_secret"`
	// PublicURL is the externally reachable base URL registered with
	// setWebhook (not needed when Funnel provides the public address)
	PublicURL string `yaml:"public_url"`
}

// TailscaleConfig holds Tailscale tsnet configuration
type TailscaleConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Hostname  string `yaml:"hostname"`
	AuthKey   string `yaml:"auth_key"`
	StateDir  string `yaml:"state_dir"`
	Ephemeral bool   `yaml:"ephemeral"`
	Funnel    bool   `yaml:"funnel"` // Expose the webhook publicly via Funnel (implies HTTPS)
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// TelegramConfig holds Bot API credentials
type TelegramConfig struct {
	Token string `yaml:"token"`
	// APIBaseURL overrides the public Bot API endpoint, e.g. for a
	// local bot-api server
	APIBaseURL string `yaml:"api_base_url"`
}

// AdminConfig locates the admin group and its topics
type AdminConfig struct {
	GroupID            int64 `yaml:"group_id"`
	MessageTopicID     int64 `yaml:"message_topic_id"`
	ApplicationTopicID int64 `yaml:"application_topic_id"`
}

// LimitsConfig holds draft limits
type LimitsConfig struct {
	MaxFileSize int64         `yaml:"max_file_size"`
	DraftTTL    time.Duration `yaml:"-"`

	DraftTTLRaw string `yaml:"draft_ttl"`
}

// DedupeConfig holds duplicate guard configuration
type DedupeConfig struct {
	TTL     time.Duration `yaml:"-"`
	MaxSize int           `yaml:"max_size"`

	TTLRaw string `yaml:"ttl"`

	// Redis, when addr is set, shares the guard across instances
	Redis RedisConfig `yaml:"redis"`
}

// RedisConfig holds Redis connection settings for the shared guard
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads a configuration file from the given path and returns a parsed Config.
// Environment variables in the format ${VAR_NAME} are expanded.
// Duration strings are parsed into time.Duration values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Expand environment variables in the raw YAML content
	expandedData := expandEnvVars(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := parseDurations(&cfg); err != nil {
		return nil, fmt.Errorf("parsing durations: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// expandEnvVars replaces ${VAR_NAME} patterns with the corresponding environment variable values.
// If the environment variable is not set, it is replaced with an empty string.
func expandEnvVars(s string) string {
	re := regexp.MustCompile(`\$\{([^}]+)\}`)

	return re.ReplaceAllStringFunc(s, func(match string) string {
		varName := re.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}

func (c *Config) applyDefaults() {
	if c.Limits.MaxFileSize == 0 {
		c.Limits.MaxFileSize = 30 << 20
	}
	if c.Limits.DraftTTL == 0 {
		c.Limits.DraftTTL = 24 * time.Hour
	}
	if c.Dedupe.TTL == 0 {
		c.Dedupe.TTL = 10 * time.Minute
	}
	if c.Dedupe.MaxSize == 0 {
		c.Dedupe.MaxSize = 10000
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
}

// Validate checks that all required configuration fields are present and valid.
// Returns an error describing the first validation failure encountered.
func (c *Config) Validate() error {
	if !c.Tailscale.Enabled && c.Server.HTTPAddr == "" {
		return fmt.Errorf("server.http_addr is required (or enable tailscale)")
	}

	if c.Tailscale.Enabled && c.Tailscale.Hostname == "" {
		return fmt.Errorf("tailscale.hostname is required when tailscale is enabled")
	}

	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}

	if c.Telegram.Token == "" {
		return fmt.Errorf("telegram.token is required")
	}

	// The relay cannot route anywhere without the admin group
	if c.Admin.GroupID == 0 {
		return fmt.Errorf("admin.group_id is required")
	}

	return nil
}

// parseDurations converts the raw duration strings into time.Duration values
func parseDurations(cfg *Config) error {
	var err error

	if cfg.Limits.DraftTTLRaw != "" {
		cfg.Limits.DraftTTL, err = time.ParseDuration(cfg.Limits.DraftTTLRaw)
		if err != nil {
			return fmt.Errorf("parsing draft_ttl %q: %w", cfg.Limits.DraftTTLRaw, err)
		}
	}

	if cfg.Dedupe.TTLRaw != "" {
		cfg.Dedupe.TTL, err = time.ParseDuration(cfg.Dedupe.TTLRaw)
		if err != nil {
			return fmt.Errorf("parsing dedupe ttl %q: %w", cfg.Dedupe.TTLRaw, err)
		}
	}

	return nil
}
