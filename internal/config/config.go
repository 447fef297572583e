// Package config resolves the updater's directories and runtime settings.
// Values come from the config file, RRZE_UPDATER_* environment variables
// and command-line flags, in viper's usual precedence.
package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Settings backends and formats
const (
	BackendFile = "file"
	BackendBolt = "bolt"

	FormatTOML = "toml"
	FormatYAML = "yaml"
	FormatJSON = "json"
)

// EnvPrefix is prepended to every environment variable
const EnvPrefix = "RRZE_UPDATER"

// Config is the resolved runtime configuration
type Config struct {
	Paths Paths

	SettingsBackend string
	SettingsFormat  string

	HTTPTimeout     time.Duration
	DownloadTimeout time.Duration

	GitHubAPIURL string
	GitHubWebURL string
	GitLabURL    string

	ScheduleInterval time.Duration
	RecheckAfter     time.Duration

	TenantID        int
	PrimaryTenantID int

	LogLevel slog.Level
}

// SetDefaults registers the default value of every key on v
func SetDefaults(v *viper.Viper, paths *Paths) {
	v.SetDefault("data_dir", paths.DataDir)
	v.SetDefault("settings.backend", BackendFile)
	v.SetDefault("settings.format", FormatTOML)
	v.SetDefault("http.timeout", 10*time.Second)
	v.SetDefault("http.download_timeout", 5*time.Minute)
	v.SetDefault("github.api_url", "https://api.github.com")
	v.SetDefault("github.web_url", "https://github.com")
	v.SetDefault("gitlab.url", "https://gitlab.rrze.fau.de")
	v.SetDefault("schedule.interval", 12*time.Hour)
	v.SetDefault("schedule.recheck_after", time.Hour)
	v.SetDefault("tenant.id", 1)
	v.SetDefault("tenant.primary_id", 1)
	v.SetDefault("log.level", "info")
}

// BindEnv makes every key readable from RRZE_UPDATER_<KEY>, dots replaced
// by underscores
func BindEnv(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// Load reads the configuration from v. Plugins and themes directories
// default to subdirectories of data_dir.
func Load(v *viper.Viper) (*Config, error) {
	dataDir := v.GetString("data_dir")
	if dataDir == "" {
		return nil, fmt.Errorf("data_dir must not be empty")
	}
	paths := PathsFor(dataDir)
	if dir := v.GetString("plugins_dir"); dir != "" {
		paths.PluginsDir = dir
	}
	if dir := v.GetString("themes_dir"); dir != "" {
		paths.ThemesDir = dir
	}

	cfg := &Config{
		Paths:            *paths,
		SettingsBackend:  strings.ToLower(v.GetString("settings.backend")),
		SettingsFormat:   strings.ToLower(v.GetString("settings.format")),
		HTTPTimeout:      v.GetDuration("http.timeout"),
		DownloadTimeout:  v.GetDuration("http.download_timeout"),
		GitHubAPIURL:     v.GetString("github.api_url"),
		GitHubWebURL:     v.GetString("github.web_url"),
		GitLabURL:        v.GetString("gitlab.url"),
		ScheduleInterval: v.GetDuration("schedule.interval"),
		RecheckAfter:     v.GetDuration("schedule.recheck_after"),
		TenantID:         v.GetInt("tenant.id"),
		PrimaryTenantID:  v.GetInt("tenant.primary_id"),
	}

	switch cfg.SettingsBackend {
	case BackendFile, BackendBolt:
	default:
		return nil, fmt.Errorf("settings.backend: unknown backend %q", cfg.SettingsBackend)
	}
	if cfg.SettingsFormat == "yml" {
		cfg.SettingsFormat = FormatYAML
	}
	switch cfg.SettingsFormat {
	case FormatTOML, FormatYAML, FormatJSON:
	default:
		return nil, fmt.Errorf("settings.format: unknown format %q", cfg.SettingsFormat)
	}

	for key, d := range map[string]time.Duration{
		"http.timeout":           cfg.HTTPTimeout,
		"http.download_timeout":  cfg.DownloadTimeout,
		"schedule.interval":      cfg.ScheduleInterval,
		"schedule.recheck_after": cfg.RecheckAfter,
	} {
		if d <= 0 {
			return nil, fmt.Errorf("%s must be positive", key)
		}
	}

	if err := cfg.LogLevel.UnmarshalText([]byte(v.GetString("log.level"))); err != nil {
		return nil, fmt.Errorf("log.level: %w", err)
	}

	return cfg, nil
}

// SettingsPath returns where the registry is stored
func (c *Config) SettingsPath() string {
	return c.Paths.SettingsPath(c.SettingsBackend, c.SettingsFormat)
}
