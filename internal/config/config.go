// Package config loads riverflow settings from defaults, an optional YAML
// file, an optional .env file and the environment, in increasing priority.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/abelzeko/riverflow/internal/integration"
)

// DefaultConfigPath is read when RIVERFLOW_CONFIG is unset and the file exists
const DefaultConfigPath = "configs/riverflow.yaml"

// Config aggregates runtime configuration used across the commands.
type Config struct {
	API      APIConfig      `yaml:"api"`
	Log      LogConfig      `yaml:"log"`
	History  HistoryConfig  `yaml:"history"`
	Watch    WatchConfig    `yaml:"watch"`
	Telegram TelegramConfig `yaml:"telegram"`
}

// APIConfig describes the hydrometric API.
type APIConfig struct {
	BaseURL      string        `yaml:"baseUrl"`
	Key          string        `yaml:"key"`
	StationPages string        `yaml:"stationPages"`
	Timeout      time.Duration `yaml:"timeout"`
}

// LogConfig sets the stderr log level.
type LogConfig struct {
	Level string `yaml:"level"`
}

// HistoryConfig points at the lookup history database. Empty disables it.
type HistoryConfig struct {
	DBPath string `yaml:"dbPath"`
}

// WatchConfig holds the default schedule of the watch command.
type WatchConfig struct {
	Schedule string `yaml:"schedule"`
}

// TelegramConfig enables the bot command.
type TelegramConfig struct {
	BotToken string `yaml:"botToken"`
	ChatID   int64  `yaml:"chatId"`
}

// Default returns built-in defaults.
func Default() *Config {
	return &Config{
		API: APIConfig{
			BaseURL:      integration.DefaultBaseURL,
			StationPages: integration.DefaultStationPages,
			Timeout:      30 * time.Second,
		},
		Log:   LogConfig{Level: "warn"},
		Watch: WatchConfig{Schedule: "*/15 * * * *"},
	}
}

// Load builds the configuration. A .env file in the working directory, when
// present, is loaded into the environment first without overriding it.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := Default()

	if path := os.Getenv("RIVERFLOW_CONFIG"); path != "" {
		if err := hydrateFromFile(cfg, path); err != nil {
			return nil, err
		}
	} else if _, err := os.Stat(DefaultConfigPath); err == nil {
		if err := hydrateFromFile(cfg, DefaultConfigPath); err != nil {
			return nil, err
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func hydrateFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("RIVERFLOW_BASE_URL"); v != "" {
		cfg.API.BaseURL = v
	}
	if v := os.Getenv("RIVERFLOW_API_KEY"); v != "" {
		cfg.API.Key = v
	}
	if v := os.Getenv("RIVERFLOW_STATION_PAGES"); v != "" {
		cfg.API.StationPages = v
	}
	if v := os.Getenv("RIVERFLOW_HTTP_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid RIVERFLOW_HTTP_TIMEOUT %q: %w", v, err)
		}
		cfg.API.Timeout = d
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("RIVERFLOW_HISTORY_DB"); v != "" {
		cfg.History.DBPath = v
	}
	if v := os.Getenv("RIVERFLOW_WATCH_SCHEDULE"); v != "" {
		cfg.Watch.Schedule = v
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		id, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return fmt.Errorf("invalid TELEGRAM_CHAT_ID %q: %w", v, err)
		}
		cfg.Telegram.ChatID = id
	}
	return nil
}

// Validate checks settings needed by every command. The API key and the
// Telegram settings are checked by the commands that use them.
func (c *Config) Validate() error {
	u, err := url.Parse(strings.TrimSpace(c.API.BaseURL))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("api.baseUrl %q must be an absolute http(s) URL", c.API.BaseURL)
	}
	if c.API.Timeout <= 0 {
		return fmt.Errorf("api.timeout must be positive, got %s", c.API.Timeout)
	}
	if strings.TrimSpace(c.API.StationPages) == "" {
		return errors.New("api.stationPages must not be empty")
	}
	return nil
}

// Credentials exposes the configured API key as a credential provider
func (c *Config) Credentials() integration.CredentialProvider {
	return integration.StaticKey(c.API.Key)
}
