package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/msomdec/fraudshield/internal/domain"
	"gopkg.in/yaml.v3"
)

// EnvConfigPath names the YAML file when --config is not given.
const EnvConfigPath = "FRAUDSHIELD_CONFIG"

// Config represents the complete service configuration
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Auth      AuthConfig      `yaml:"auth"`
	Inference InferenceConfig `yaml:"inference"`
	Audio     AudioConfig     `yaml:"audio"`
	Mail      MailConfig      `yaml:"mail"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	// CookieSecure should only be disabled for local development over http.
	CookieSecure bool `yaml:"cookie_secure"`
}

// DatabaseConfig contains SQLite configuration
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// AuthConfig contains password hashing and session settings
type AuthConfig struct {
	SessionSecret      string        `yaml:"-"`
	BcryptCost         int           `yaml:"bcrypt_cost"`
	SessionIdleTimeout time.Duration `yaml:"session_idle_timeout"`
	// LoginRatePerMinute limits login and registration attempts per client IP.
	LoginRatePerMinute int `yaml:"login_rate_per_minute"`
}

// InferenceConfig contains Gemini settings
type InferenceConfig struct {
	APIKey          string        `yaml:"-"`
	Model           string        `yaml:"model"`
	PollInterval    time.Duration `yaml:"poll_interval"`
	MaxPollInterval time.Duration `yaml:"max_poll_interval"`
	PollTimeout     time.Duration `yaml:"poll_timeout"`
	// RequestsPerMinute limits analyze and transcribe calls per user.
	RequestsPerMinute int `yaml:"requests_per_minute"`
}

// AudioConfig contains upload and normalization limits
type AudioConfig struct {
	MaxDuration    time.Duration `yaml:"max_duration"`
	MaxUploadBytes int64         `yaml:"max_upload_bytes"`
}

// MailConfig contains SMTP settings
type MailConfig struct {
	Host            string `yaml:"host"`
	Port            int    `yaml:"port"`
	Username        string `yaml:"-"`
	Password        string `yaml:"-"`
	From            string `yaml:"from"`
	ReportRecipient string `yaml:"-"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the settings used before any file or environment is read.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":8080",
			ShutdownTimeout: 5 * time.Second,
			CookieSecure:    true,
		},
		Database: DatabaseConfig{Path: "fraudshield.db"},
		Auth: AuthConfig{
			BcryptCost:         12,
			SessionIdleTimeout: 30 * time.Minute,
			LoginRatePerMinute: 10,
		},
		Inference: InferenceConfig{
			Model:             "gemini-1.5-flash",
			PollInterval:      2 * time.Second,
			MaxPollInterval:   10 * time.Second,
			PollTimeout:       5 * time.Minute,
			RequestsPerMinute: 6,
		},
		Audio: AudioConfig{
			MaxDuration:    60 * time.Second,
			MaxUploadBytes: 25 << 20,
		},
		Mail: MailConfig{
			Host: "smtp.gmail.com",
			Port: 465,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load builds the configuration: defaults, then the YAML file at path (or
// $FRAUDSHIELD_CONFIG), then environment variables. A .env file in the
// working directory is loaded first without overriding the real
// environment. Load does not validate; call Validate before serving.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: load .env: %w", domain.ErrConfiguration, err)
	}

	cfg := Default()

	if path == "" {
		path = os.Getenv(EnvConfigPath)
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("%w: read config file %s: %w", domain.ErrConfiguration, path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("%w: parse config file %s: %w", domain.ErrConfiguration, path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrConfiguration, err)
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	setString(&c.Inference.APIKey, "GEMINI_API_KEY")
	setString(&c.Auth.SessionSecret, "SESSION_SECRET")
	setString(&c.Mail.Username, "SMTP_USERNAME")
	setString(&c.Mail.Password, "SMTP_PASSWORD")
	setString(&c.Mail.ReportRecipient, "REPORT_RECIPIENT")
	setString(&c.Database.Path, "DATABASE_PATH")
	setString(&c.Logging.Level, "LOG_LEVEL")

	if v := os.Getenv("PORT"); v != "" {
		c.Server.Addr = ":" + v
	}
	if v := os.Getenv("COOKIE_SECURE"); v != "" {
		c.Server.CookieSecure = v != "false"
	}
	if v := os.Getenv("BCRYPT_COST"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid BCRYPT_COST: %w", err)
		}
		c.Auth.BcryptCost = n
	}
	// Local env = pretty console; others = JSON
	if env := os.Getenv("ENVIRONMENT"); env != "" && env != "local" {
		c.Logging.Format = "json"
	}
	return nil
}

func setString(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

// Validate performs comprehensive validation of the configuration
func (c *Config) Validate() error {
	checks := []struct {
		section string
		err     error
	}{
		{"server", c.Server.Validate()},
		{"database", c.Database.Validate()},
		{"auth", c.Auth.Validate()},
		{"inference", c.Inference.Validate()},
		{"audio", c.Audio.Validate()},
		{"mail", c.Mail.Validate()},
		{"logging", c.Logging.Validate()},
	}
	for _, chk := range checks {
		if chk.err != nil {
			return fmt.Errorf("%w: %s config: %w", domain.ErrConfiguration, chk.section, chk.err)
		}
	}
	return nil
}

// Validate validates server configuration
func (s *ServerConfig) Validate() error {
	if s.Addr == "" {
		return errors.New("addr cannot be empty")
	}
	if s.ShutdownTimeout <= 0 {
		return fmt.Errorf("shutdown_timeout must be positive, got %s", s.ShutdownTimeout)
	}
	return nil
}

// Validate validates database configuration
func (d *DatabaseConfig) Validate() error {
	if d.Path == "" {
		return errors.New("path cannot be empty")
	}
	return nil
}

// Validate validates auth configuration
func (a *AuthConfig) Validate() error {
	if a.SessionSecret == "" {
		return errors.New("SESSION_SECRET environment variable is required")
	}
	if len(a.SessionSecret) < 32 {
		return errors.New("SESSION_SECRET must be at least 32 characters for HMAC-SHA256 security")
	}
	if a.BcryptCost < 4 || a.BcryptCost > 14 {
		return fmt.Errorf("bcrypt_cost must be between 4 and 14, got %d", a.BcryptCost)
	}
	if a.SessionIdleTimeout < time.Minute {
		return fmt.Errorf("session_idle_timeout must be at least 1m, got %s", a.SessionIdleTimeout)
	}
	if a.LoginRatePerMinute < 1 {
		return fmt.Errorf("login_rate_per_minute must be at least 1, got %d", a.LoginRatePerMinute)
	}
	return nil
}

// Validate validates inference configuration
func (i *InferenceConfig) Validate() error {
	if i.APIKey == "" {
		return errors.New("GEMINI_API_KEY environment variable is required")
	}
	if i.Model == "" {
		return errors.New("model cannot be empty")
	}
	if i.PollInterval <= 0 {
		return fmt.Errorf("poll_interval must be positive, got %s", i.PollInterval)
	}
	if i.MaxPollInterval < i.PollInterval {
		return fmt.Errorf("max_poll_interval (%s) must not be below poll_interval (%s)", i.MaxPollInterval, i.PollInterval)
	}
	if i.PollTimeout < i.PollInterval {
		return fmt.Errorf("poll_timeout (%s) must not be below poll_interval (%s)", i.PollTimeout, i.PollInterval)
	}
	if i.RequestsPerMinute < 1 {
		return fmt.Errorf("requests_per_minute must be at least 1, got %d", i.RequestsPerMinute)
	}
	return nil
}

// Validate validates audio configuration
func (a *AudioConfig) Validate() error {
	if a.MaxDuration < time.Second {
		return fmt.Errorf("max_duration must be at least 1s, got %s", a.MaxDuration)
	}
	if a.MaxUploadBytes < 1<<10 {
		return fmt.Errorf("max_upload_bytes must be at least 1024, got %d", a.MaxUploadBytes)
	}
	return nil
}

// Validate validates mail configuration
func (m *MailConfig) Validate() error {
	if m.Host == "" {
		return errors.New("host cannot be empty")
	}
	if m.Port < 1 || m.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", m.Port)
	}
	if m.Username == "" || m.Password == "" {
		return errors.New("SMTP_USERNAME and SMTP_PASSWORD environment variables are required")
	}
	if m.ReportRecipient == "" {
		return errors.New("REPORT_RECIPIENT environment variable is required")
	}
	return nil
}

// Validate validates logging configuration
func (l *LoggingConfig) Validate() error {
	switch l.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("level must be one of debug, info, warn, error, got %q", l.Level)
	}
	switch l.Format {
	case "text", "json":
	default:
		return fmt.Errorf("format must be text or json, got %q", l.Format)
	}
	return nil
}
