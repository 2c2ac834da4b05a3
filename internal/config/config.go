// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	defaultBookingWindowDays = 30
	defaultMaxPartySize      = 10
	defaultPhoneRegion       = "US"
	defaultReminderCron      = "0 9 * * *"

	defaultSubmissionCooldown      = 30 * time.Second
	defaultMaxSubmissionsPerEmail  = 5
	defaultMaxSubmissionsPerIPHour = 20

	defaultSessionTTL       = 8 * time.Hour
	defaultPasswordHashCost = 10
	minPasswordHashCost     = 4
	maxPasswordHashCost     = 31
)

type DatabaseConfig struct {
	Driver   string `yaml:"driver"`
	Filename string `yaml:"filename"`
}

type BookingConfig struct {
	// How many days ahead of today the booked-slot feed covers.
	WindowDays   int    `yaml:"window_days"`
	MaxPartySize int    `yaml:"max_party_size"`
	PhoneRegion  string `yaml:"phone_region"`
}

// RateLimitConfig bounds booking form submissions per email and per client IP.
type RateLimitConfig struct {
	SubmissionCooldown time.Duration `yaml:"submission_cooldown"`
	MaxPerEmailPerHour int           `yaml:"max_per_email_per_hour"`
	MaxPerIPPerHour    int           `yaml:"max_per_ip_per_hour"`
	TrustProxy         bool          `yaml:"trust_proxy"`
}

// AuthConfig controls account sessions and password hashing.
type AuthConfig struct {
	SessionTTL       time.Duration `yaml:"session_ttl"`
	PasswordHashCost int           `yaml:"password_hash_cost"`
}

type EmailConfig struct {
	Region          string `yaml:"region"`
	Sender          string `yaml:"sender"`
	AccessKeyID     string `yaml:"-"` // Loaded from environment
	SecretAccessKey string `yaml:"-"` // Loaded from environment
}

// Enabled reports whether enough is configured to build an SES client.
func (e EmailConfig) Enabled() bool {
	return e.Region != "" && e.Sender != "" && e.AccessKeyID != "" && e.SecretAccessKey != ""
}

type Config struct {
	App struct {
		Name        string `yaml:"name"`
		Environment string `yaml:"environment"`
		Port        int    `yaml:"port"`
		BaseURL     string `yaml:"base_url"`
		StaticDir   string `yaml:"static_dir"`
	} `yaml:"app"`

	Database  DatabaseConfig  `yaml:"database"`
	Booking   BookingConfig   `yaml:"booking"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Auth      AuthConfig      `yaml:"auth"`
	Email     EmailConfig     `yaml:"email"`

	Scheduler struct {
		ReminderCron string `yaml:"reminder_cron"`
	} `yaml:"scheduler"`

	Features struct {
		EnableMetrics bool `yaml:"enable_metrics"`
		EnableDebug   bool `yaml:"enable_debug"`
	} `yaml:"features"`
}

// Load loads both .env and yaml configuration
func Load(configPath string) (*Config, error) {
	// Load .env file if it exists
	envPath := filepath.Join(filepath.Dir(configPath), ".env")
	if err := godotenv.Load(envPath); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, err
	}

	// Load sensitive values from environment
	cfg.Email.AccessKeyID = os.Getenv("SES_ACCESS_KEY_ID")
	cfg.Email.SecretAccessKey = os.Getenv("SES_SECRET_ACCESS_KEY")

	return cfg, nil
}

// Parse decodes YAML, fills defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.App.Environment == "" {
		c.App.Environment = "development"
	}
	if c.Booking.WindowDays == 0 {
		c.Booking.WindowDays = defaultBookingWindowDays
	}
	if c.Booking.MaxPartySize == 0 {
		c.Booking.MaxPartySize = defaultMaxPartySize
	}
	if strings.TrimSpace(c.Booking.PhoneRegion) == "" {
		c.Booking.PhoneRegion = defaultPhoneRegion
	}
	if c.RateLimit.SubmissionCooldown == 0 {
		c.RateLimit.SubmissionCooldown = defaultSubmissionCooldown
	}
	if c.RateLimit.MaxPerEmailPerHour == 0 {
		c.RateLimit.MaxPerEmailPerHour = defaultMaxSubmissionsPerEmail
	}
	if c.RateLimit.MaxPerIPPerHour == 0 {
		c.RateLimit.MaxPerIPPerHour = defaultMaxSubmissionsPerIPHour
	}
	if c.Auth.SessionTTL == 0 {
		c.Auth.SessionTTL = defaultSessionTTL
	}
	if c.Auth.PasswordHashCost == 0 {
		c.Auth.PasswordHashCost = defaultPasswordHashCost
	}
	if strings.TrimSpace(c.Scheduler.ReminderCron) == "" {
		c.Scheduler.ReminderCron = defaultReminderCron
	}
}

func (c *Config) Validate() error {
	if c.App.Name == "" {
		return fmt.Errorf("app name is required")
	}
	if c.App.Port == 0 {
		return fmt.Errorf("app port is required")
	}
	if c.Database.Driver == "" {
		return fmt.Errorf("database driver is required")
	}

	switch c.Database.Driver {
	case "sqlite":
		if c.Database.Filename == "" {
			return fmt.Errorf("database filename is required for sqlite")
		}
	default:
		return fmt.Errorf("unsupported database driver: %s", c.Database.Driver)
	}

	if c.Booking.WindowDays < 0 {
		return fmt.Errorf("booking window_days must be 0 or greater")
	}
	if c.Booking.MaxPartySize < 1 {
		return fmt.Errorf("booking max_party_size must be greater than 0")
	}
	if c.RateLimit.SubmissionCooldown < 0 || c.RateLimit.MaxPerEmailPerHour < 0 || c.RateLimit.MaxPerIPPerHour < 0 {
		return fmt.Errorf("rate_limit values must be 0 or greater")
	}
	if c.Auth.SessionTTL < 0 {
		return fmt.Errorf("auth session_ttl must be 0 or greater")
	}
	if c.Auth.PasswordHashCost < minPasswordHashCost || c.Auth.PasswordHashCost > maxPasswordHashCost {
		return fmt.Errorf("auth password_hash_cost must be between %d and %d", minPasswordHashCost, maxPasswordHashCost)
	}
	if (c.Email.Region == "") != (c.Email.Sender == "") {
		return fmt.Errorf("email region and sender must be set together")
	}

	return nil
}

// SecureCookies reports whether session cookies need the Secure attribute.
func (c *Config) SecureCookies() bool {
	return c.App.Environment != "development"
}
