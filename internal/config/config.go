// Package config loads bot configuration from the environment and an optional .env file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/dotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// DefaultEnvFile is read when present; a missing file is not an error.
const DefaultEnvFile = ".env"

// Defaults for optional settings.
const (
	DefaultLogLevel              = "info"
	DefaultLogFormat             = "console"
	DefaultMaxConcurrentMessages = 8
)

// ErrMissingRequired is returned by Validate when a required key is unset.
var ErrMissingRequired = errors.New("missing required environment variables")

// Config holds the application configuration loaded from environment variables.
type Config struct {
	// TelegramBotToken authenticates the bot with the Telegram Bot API.
	// Environment variable: TELEGRAM_BOT_TOKEN
	TelegramBotToken string `koanf:"TELEGRAM_BOT_TOKEN"`

	// NotionIntegrationToken authenticates with the Notion API.
	// Environment variable: NOTION_INTEGRATION_TOKEN
	NotionIntegrationToken string `koanf:"NOTION_INTEGRATION_TOKEN"`

	// NotionDatabaseID is the database new expense pages are created in.
	// Environment variable: NOTION_DATABASE_ID
	NotionDatabaseID string `koanf:"NOTION_DATABASE_ID"`

	// LogLevel is one of debug, info, warn, error.
	// Environment variable: LOG_LEVEL
	LogLevel string `koanf:"LOG_LEVEL"`

	// LogFormat is console or json.
	// Environment variable: LOG_FORMAT
	LogFormat string `koanf:"LOG_FORMAT"`

	// Timezone is the IANA zone used for "today" when a message has no date.
	// Empty means the process local zone.
	// Environment variable: TIMEZONE
	Timezone string `koanf:"TIMEZONE"`

	// MaxConcurrentMessages bounds how many messages are processed at once.
	// Environment variable: MAX_CONCURRENT_MESSAGES
	MaxConcurrentMessages int `koanf:"MAX_CONCURRENT_MESSAGES"`

	// HTTPAddr enables the health and preview endpoints when set, e.g. ":8080".
	// Environment variable: HTTP_ADDR
	HTTPAddr string `koanf:"HTTP_ADDR"`
}

// Load reads envFile (if it exists) and then the process environment, which
// takes precedence. The result is not validated; call Validate before
// connecting to external services.
func Load(envFile string) (*Config, error) {
	k := koanf.New(".")

	if envFile != "" {
		if _, err := os.Stat(envFile); err == nil {
			if err := k.Load(file.Provider(envFile), dotenv.Parser()); err != nil {
				return nil, fmt.Errorf("loading %s: %w", envFile, err)
			}
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("reading %s: %w", envFile, err)
		}
	}

	if err := k.Load(env.Provider("", ".", nil), nil); err != nil {
		return nil, fmt.Errorf("loading environment: %w", err)
	}

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf", FlatPaths: true}); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	if c.LogFormat == "" {
		c.LogFormat = DefaultLogFormat
	}
	if c.MaxConcurrentMessages <= 0 {
		c.MaxConcurrentMessages = DefaultMaxConcurrentMessages
	}
}

// Validate reports every missing required key and an unknown timezone.
func (c *Config) Validate() error {
	var missing []string
	if strings.TrimSpace(c.TelegramBotToken) == "" {
		missing = append(missing, "TELEGRAM_BOT_TOKEN")
	}
	if strings.TrimSpace(c.NotionIntegrationToken) == "" {
		missing = append(missing, "NOTION_INTEGRATION_TOKEN")
	}
	if strings.TrimSpace(c.NotionDatabaseID) == "" {
		missing = append(missing, "NOTION_DATABASE_ID")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingRequired, strings.Join(missing, ", "))
	}

	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// Location resolves Timezone. Empty means time.Local.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE %q: %w", c.Timezone, err)
	}
	return loc, nil
}
