// Package config resolves summit settings from ~/.summit/config.yaml, an
// optional .env file and SUMMIT_* environment variables, in that order.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const configFileName = "config.yaml"

type Config struct {
	DataDir   string `yaml:"data_dir"`
	Backend   string `yaml:"backend"` // json | sqlite
	Theme     string `yaml:"theme"`   // classic | neon | mono
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"` // text | json

	Streak   StreakConfig   `yaml:"streak"`
	Reminder ReminderConfig `yaml:"reminder"`
	Email    EmailConfig    `yaml:"email"`
	Server   ServerConfig   `yaml:"server"`
}

type StreakConfig struct {
	Threshold int `yaml:"threshold"`
}

type ReminderConfig struct {
	Window   time.Duration `yaml:"window"`
	Schedule string        `yaml:"schedule"`
}

// EmailConfig holds the non-secret EmailJS identifiers. The private
// access token lives in credentials.json.
type EmailConfig struct {
	BaseURL    string `yaml:"base_url"`
	ServiceID  string `yaml:"service_id"`
	TemplateID string `yaml:"template_id"`
	PublicKey  string `yaml:"public_key"`
	PerMinute  int    `yaml:"per_minute"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// Default returns the built-in settings.
func Default() Config {
	dir, err := Dir()
	if err != nil {
		dir = ".summit"
	}
	return Config{
		DataDir:   dir,
		Backend:   "json",
		Theme:     "classic",
		LogLevel:  "warn",
		LogFormat: "text",
		Streak:    StreakConfig{Threshold: 80},
		Reminder:  ReminderConfig{Window: 30 * time.Minute, Schedule: "@every 1m"},
		Email:     EmailConfig{BaseURL: "https://api.emailjs.com", PerMinute: 10},
		Server:    ServerConfig{Addr: "127.0.0.1:7878"},
	}
}

// Dir is the per-user settings directory (~/.summit, or $SUMMIT_CONFIG_DIR).
func Dir() (string, error) {
	if d := strings.TrimSpace(os.Getenv("SUMMIT_CONFIG_DIR")); d != "" {
		return d, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("home: %w", err)
	}
	return filepath.Join(home, ".summit"), nil
}

// Path is the config file location.
func Path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, configFileName), nil
}

// Load builds the effective configuration. envFile may be empty; a missing
// env file is not an error.
func Load(envFile string) (Config, error) {
	cfg := Default()

	p, err := Path()
	if err != nil {
		return cfg, err
	}
	b, err := os.ReadFile(p)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", p, err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return cfg, fmt.Errorf("read config: %w", err)
	}

	if envFile != "" {
		// godotenv.Load never overrides variables already set.
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return cfg, fmt.Errorf("load env (%s): %w", envFile, err)
		}
	}
	if err := applyEnv(&cfg); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

func applyEnv(cfg *Config) error {
	str := func(key string, dst *string) {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			*dst = v
		}
	}
	str("SUMMIT_DATA_DIR", &cfg.DataDir)
	str("SUMMIT_BACKEND", &cfg.Backend)
	str("SUMMIT_THEME", &cfg.Theme)
	str("SUMMIT_LOG_LEVEL", &cfg.LogLevel)
	str("SUMMIT_LOG_FORMAT", &cfg.LogFormat)
	str("SUMMIT_REMINDER_SCHEDULE", &cfg.Reminder.Schedule)
	str("SUMMIT_EMAILJS_URL", &cfg.Email.BaseURL)
	str("SUMMIT_EMAILJS_SERVICE_ID", &cfg.Email.ServiceID)
	str("SUMMIT_EMAILJS_TEMPLATE_ID", &cfg.Email.TemplateID)
	str("SUMMIT_EMAILJS_PUBLIC_KEY", &cfg.Email.PublicKey)
	str("SUMMIT_ADDR", &cfg.Server.Addr)

	if v := strings.TrimSpace(os.Getenv("SUMMIT_REMINDER_WINDOW")); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("SUMMIT_REMINDER_WINDOW: %w", err)
		}
		cfg.Reminder.Window = d
	}
	if v := strings.TrimSpace(os.Getenv("SUMMIT_STREAK_THRESHOLD")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("SUMMIT_STREAK_THRESHOLD: %w", err)
		}
		cfg.Streak.Threshold = n
	}
	return nil
}

func (c Config) Validate() error {
	switch c.Backend {
	case "json", "sqlite":
	default:
		return fmt.Errorf("backend %q: want json|sqlite", c.Backend)
	}
	if c.Streak.Threshold < 1 || c.Streak.Threshold > 100 {
		return fmt.Errorf("streak.threshold %d: want 1..100", c.Streak.Threshold)
	}
	if c.Reminder.Window <= 0 {
		return fmt.Errorf("reminder.window %s: must be positive", c.Reminder.Window)
	}
	return nil
}

// Save writes cfg to the config file, creating the directory.
func Save(cfg Config) error {
	p, err := Path()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o700); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}
	b, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("yaml marshal: %w", err)
	}
	if err := os.WriteFile(p, b, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
