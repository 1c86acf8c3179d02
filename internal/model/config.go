package model

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	// Timezones must resolve on hosts without a zoneinfo database.
	_ "time/tzdata"

	"github.com/spf13/viper"
)

// DatabaseConfig locates the SQLite database.
type DatabaseConfig struct {
	Path string `mapstructure:"path" yaml:"path"`
}

// TelegramConfig holds settings for the Bot API transport. The token
// itself lives in the keyring or the GAMEWATCH_TELEGRAM_TOKEN variable.
type TelegramConfig struct {
	BaseURL    string        `mapstructure:"base_url" yaml:"base_url"`
	Token      string        `mapstructure:"token" yaml:"-"`
	Timeout    time.Duration `mapstructure:"timeout" yaml:"timeout"`
	MaxRetries int           `mapstructure:"max_retries" yaml:"max_retries"`
}

// StatsConfig holds settings for the stats API adapter.
type StatsConfig struct {
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`

	// Season is the season string passed to season-scoped endpoints,
	// e.g. "2024-25".
	Season string `mapstructure:"season" yaml:"season"`

	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout"`

	// RequestsPerSecond throttles outgoing calls; the API rejects bursts.
	RequestsPerSecond float64 `mapstructure:"requests_per_second" yaml:"requests_per_second"`

	// AffiliationTTL is how long a player's team is cached.
	AffiliationTTL time.Duration `mapstructure:"affiliation_ttl" yaml:"affiliation_ttl"`
}

// ScheduleConfig controls the two daily passes.
type ScheduleConfig struct {
	// Timezone is the reference zone for cron specs and for the
	// "tomorrow" and "yesterday" windows.
	Timezone string `mapstructure:"timezone" yaml:"timezone"`

	Upcoming  string `mapstructure:"upcoming" yaml:"upcoming"`
	Completed string `mapstructure:"completed" yaml:"completed"`

	PassTimeout   time.Duration `mapstructure:"pass_timeout" yaml:"pass_timeout"`
	LookupTimeout time.Duration `mapstructure:"lookup_timeout" yaml:"lookup_timeout"`
	Workers       int           `mapstructure:"workers" yaml:"workers"`
}

// Location resolves Timezone.
func (c ScheduleConfig) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("loading timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// DispatchConfig controls delivery.
type DispatchConfig struct {
	SendTimeout time.Duration `mapstructure:"send_timeout" yaml:"send_timeout"`
}

// AlertsConfig configures operator alerts. URLs use shoutrrr syntax.
type AlertsConfig struct {
	URLs          []string      `mapstructure:"urls" yaml:"urls"`
	Timeout       time.Duration `mapstructure:"timeout" yaml:"timeout"`
	OnFailureOnly bool          `mapstructure:"on_failure_only" yaml:"on_failure_only"`
}

// MetricsConfig exposes Prometheus metrics when Listen is non-empty.
type MetricsConfig struct {
	Listen string `mapstructure:"listen" yaml:"listen"`
}

// LogConfig controls the slog handler.
type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	Database DatabaseConfig `mapstructure:"database" yaml:"database"`
	Telegram TelegramConfig `mapstructure:"telegram" yaml:"telegram"`
	Stats    StatsConfig    `mapstructure:"stats" yaml:"stats"`
	Schedule ScheduleConfig `mapstructure:"schedule" yaml:"schedule"`
	Dispatch DispatchConfig `mapstructure:"dispatch" yaml:"dispatch"`
	Alerts   AlertsConfig   `mapstructure:"alerts" yaml:"alerts"`
	Metrics  MetricsConfig  `mapstructure:"metrics" yaml:"metrics"`
	Log      LogConfig      `mapstructure:"log" yaml:"log"`
}

// DefaultConfigPath returns the default path for the configuration file,
// located at ~/.config/gamewatch/config.yaml.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "config.yaml")
	}
	return filepath.Join(home, ".config", "gamewatch", "config.yaml")
}

// DefaultDatabasePath returns ~/.config/gamewatch/gamewatch.db.
func DefaultDatabasePath() string {
	return filepath.Join(filepath.Dir(DefaultConfigPath()), "gamewatch.db")
}

var defaults = map[string]any{
	"database.path":             DefaultDatabasePath(),
	"telegram.base_url":         "https://api.telegram.org",
	"telegram.token":            "",
	"telegram.timeout":          "15s",
	"telegram.max_retries":      3,
	"stats.base_url":            "https://stats.nba.com/stats",
	"stats.season":              "2024-25",
	"stats.timeout":             "30s",
	"stats.requests_per_second": 1.0,
	"stats.affiliation_ttl":     "6h",
	"schedule.timezone":         "America/New_York",
	"schedule.upcoming":         "0 18 * * *",
	"schedule.completed":        "0 9 * * *",
	"schedule.pass_timeout":     "30m",
	"schedule.lookup_timeout":   "30s",
	"schedule.workers":          4,
	"dispatch.send_timeout":     "15s",
	"alerts.urls":               []string{},
	"alerts.timeout":            "10s",
	"alerts.on_failure_only":    true,
	"metrics.listen":            "",
	"log.level":                 "info",
	"log.format":                "text",
}

// LoadConfig reads configuration from the given YAML file path using Viper.
// Every key can be overridden by a GAMEWATCH_ environment variable, e.g.
// GAMEWATCH_SCHEDULE_TIMEZONE. A missing file yields the defaults.
func LoadConfig(path string) (*AppConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("gamewatch")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if _, ok := err.(*os.PathError); !ok && !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	cfg := &AppConfig{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config %s: %w", path, err)
	}

	return cfg, nil
}

// Validate checks values that would otherwise fail late, inside a pass.
func (c *AppConfig) Validate() error {
	if _, err := c.Schedule.Location(); err != nil {
		return err
	}
	if c.Schedule.Workers < 1 {
		return fmt.Errorf("schedule.workers must be at least 1, got %d", c.Schedule.Workers)
	}
	if c.Stats.RequestsPerSecond <= 0 {
		return fmt.Errorf("stats.requests_per_second must be positive")
	}
	if c.Dispatch.SendTimeout <= 0 {
		return fmt.Errorf("dispatch.send_timeout must be positive")
	}
	return nil
}

// SaveConfig writes the given configuration to a YAML file at path,
// creating parent directories if needed. The bot token is never written.
func SaveConfig(path string, cfg *AppConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("database", map[string]any{"path": cfg.Database.Path})
	v.Set("telegram", map[string]any{
		"base_url":    cfg.Telegram.BaseURL,
		"timeout":     cfg.Telegram.Timeout.String(),
		"max_retries": cfg.Telegram.MaxRetries,
	})
	v.Set("stats", map[string]any{
		"base_url":            cfg.Stats.BaseURL,
		"season":              cfg.Stats.Season,
		"timeout":             cfg.Stats.Timeout.String(),
		"requests_per_second": cfg.Stats.RequestsPerSecond,
		"affiliation_ttl":     cfg.Stats.AffiliationTTL.String(),
	})
	v.Set("schedule", map[string]any{
		"timezone":       cfg.Schedule.Timezone,
		"upcoming":       cfg.Schedule.Upcoming,
		"completed":      cfg.Schedule.Completed,
		"pass_timeout":   cfg.Schedule.PassTimeout.String(),
		"lookup_timeout": cfg.Schedule.LookupTimeout.String(),
		"workers":        cfg.Schedule.Workers,
	})
	v.Set("dispatch", map[string]any{
		"send_timeout": cfg.Dispatch.SendTimeout.String(),
	})
	v.Set("alerts", map[string]any{
		"urls":            cfg.Alerts.URLs,
		"timeout":         cfg.Alerts.Timeout.String(),
		"on_failure_only": cfg.Alerts.OnFailureOnly,
	})
	v.Set("metrics", map[string]any{"listen": cfg.Metrics.Listen})
	v.Set("log", map[string]any{
		"level":  cfg.Log.Level,
		"format": cfg.Log.Format,
	})

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}
