// Package config provides configuration management for the price watcher.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	API           APIConfig          `mapstructure:"api"`
	Store         StoreConfig        `mapstructure:"store"`
	Monitor       MonitorConfig      `mapstructure:"monitor"`
	Display       DisplayConfig      `mapstructure:"display"`
	Notifications NotificationConfig `mapstructure:"notifications"`
}

// APIConfig holds upstream provider configuration.
type APIConfig struct {
	BaseURL     string        `mapstructure:"base_url"`
	Timeout     time.Duration `mapstructure:"timeout"`
	MaxAttempts int           `mapstructure:"max_attempts"`
}

// StoreConfig holds local store configuration.
type StoreConfig struct {
	Path string `mapstructure:"path"`
}

// MonitorConfig holds trigger monitor configuration.
type MonitorConfig struct {
	Interval time.Duration `mapstructure:"interval"`
}

// DisplayConfig holds the settings consumed by list commands: whether to
// show the full cached catalogs or favourites only.
type DisplayConfig struct {
	ShowAllCoins      bool `mapstructure:"show_all_coins"`
	ShowAllCurrencies bool `mapstructure:"show_all_currencies"`
}

// NotificationConfig holds notification configuration.
type NotificationConfig struct {
	Enabled  bool           `mapstructure:"enabled"`
	Desktop  DesktopConfig  `mapstructure:"desktop"`
	Webhook  WebhookConfig  `mapstructure:"webhook"`
	Telegram TelegramConfig `mapstructure:"telegram"`
}

// DesktopConfig holds desktop notification configuration.
type DesktopConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// WebhookConfig holds webhook notification configuration.
type WebhookConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	URL     string `mapstructure:"url"`
}

// TelegramConfig holds Telegram notification configuration.
type TelegramConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	BotToken string `mapstructure:"bot_token"`
	ChatID   string `mapstructure:"chat_id"`
}

// DefaultConfigDir returns the default configuration directory.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".config/gecko-watch"
	}
	return filepath.Join(home, ".config", "gecko-watch")
}

// DefaultDBPath returns the default database path.
func DefaultDBPath() string {
	return filepath.Join(DefaultConfigDir(), "gecko-watch.db")
}

// Load loads configuration from the specified directory.
// If configDir is empty, uses the default config directory.
func Load(configDir string) (*Config, error) {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(configDir)

	setDefaults(v, configDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("loading config.toml: %w", err)
		}
		// First run: write a template so the user has something to edit.
		if err := createTemplateConfig(configDir); err != nil {
			return nil, fmt.Errorf("creating config template: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("loading config.toml: %w", err)
	}

	applyEnvOverrides(cfg)

	// The template ships with an empty store path meaning "next to the
	// config file".
	if cfg.Store.Path == "" {
		cfg.Store.Path = filepath.Join(configDir, "gecko-watch.db")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper, configDir string) {
	v.SetDefault("api.base_url", "https://api.coingecko.com/api/v3")
	v.SetDefault("api.timeout", 15*time.Second)
	v.SetDefault("api.max_attempts", 3)
	v.SetDefault("store.path", filepath.Join(configDir, "gecko-watch.db"))
	v.SetDefault("monitor.interval", 60*time.Second)
	v.SetDefault("display.show_all_coins", false)
	v.SetDefault("display.show_all_currencies", false)
	v.SetDefault("notifications.enabled", true)
	v.SetDefault("notifications.desktop.enabled", true)
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("GECKO_WATCH_API_URL"); v != "" {
		cfg.API.BaseURL = v
	}
	if v := os.Getenv("GECKO_WATCH_DB"); v != "" {
		cfg.Store.Path = v
	}
	if v := os.Getenv("GECKO_WATCH_TELEGRAM_TOKEN"); v != "" {
		cfg.Notifications.Telegram.BotToken = v
	}
	if v := os.Getenv("GECKO_WATCH_WEBHOOK_URL"); v != "" {
		cfg.Notifications.Webhook.URL = v
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.API.BaseURL == "" {
		return fmt.Errorf("api.base_url must not be empty")
	}
	if c.API.Timeout <= 0 {
		return fmt.Errorf("api.timeout must be positive")
	}
	if c.API.MaxAttempts < 1 {
		return fmt.Errorf("api.max_attempts must be at least 1")
	}
	if c.Store.Path == "" {
		return fmt.Errorf("store.path must not be empty")
	}
	if c.Monitor.Interval < time.Second {
		return fmt.Errorf("monitor.interval must be at least 1s")
	}
	if c.Notifications.Webhook.Enabled && c.Notifications.Webhook.URL == "" {
		return fmt.Errorf("notifications.webhook.url required when webhook is enabled")
	}
	if c.Notifications.Telegram.Enabled {
		if c.Notifications.Telegram.BotToken == "" || c.Notifications.Telegram.ChatID == "" {
			return fmt.Errorf("notifications.telegram.bot_token and chat_id required when telegram is enabled")
		}
	}
	return nil
}
