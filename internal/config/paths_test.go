package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
)

func TestResolvePaths(t *testing.T) {
	testDir := t.TempDir()
	t.Setenv("RRZE_UPDATER_DIR", testDir)

	paths, err := ResolvePaths()
	if err != nil {
		t.Fatalf("ResolvePaths() error: %v", err)
	}

	if paths.DataDir != testDir {
		t.Errorf("DataDir = %q, want %q", paths.DataDir, testDir)
	}

	if paths.PluginsDir != filepath.Join(testDir, "plugins") {
		t.Errorf("PluginsDir = %q, want %q", paths.PluginsDir, filepath.Join(testDir, "plugins"))
	}

	if paths.ThemesDir != filepath.Join(testDir, "themes") {
		t.Errorf("ThemesDir = %q, want %q", paths.ThemesDir, filepath.Join(testDir, "themes"))
	}
}

func TestPathsSettingsPath(t *testing.T) {
	paths := PathsFor("/srv/updater")

	tests := []struct {
		backend, format, want string
	}{
		{BackendFile, FormatTOML, "/srv/updater/settings.toml"},
		{BackendFile, FormatJSON, "/srv/updater/settings.json"},
		{BackendFile, "", "/srv/updater/settings.toml"},
		{BackendBolt, FormatYAML, "/srv/updater/settings.db"},
	}
	for _, tt := range tests {
		if got := paths.SettingsPath(tt.backend, tt.format); got != tt.want {
			t.Errorf("SettingsPath(%q, %q) = %q, want %q", tt.backend, tt.format, got, tt.want)
		}
	}
}

func TestPathsIsInitialized(t *testing.T) {
	testDir := t.TempDir()
	paths := PathsFor(filepath.Join(testDir, "data"))

	if paths.IsInitialized() {
		t.Error("IsInitialized() = true, want false")
	}

	if err := os.MkdirAll(paths.DataDir, 0755); err != nil {
		t.Fatal(err)
	}

	if !paths.IsInitialized() {
		t.Error("IsInitialized() = false, want true")
	}
}

func newViper(dataDir string) *viper.Viper {
	v := viper.New()
	SetDefaults(v, PathsFor(dataDir))
	BindEnv(v)
	return v
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(newViper("/srv/updater"))
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.SettingsPath() != "/srv/updater/settings.toml" {
		t.Errorf("SettingsPath() = %q", cfg.SettingsPath())
	}
	if cfg.HTTPTimeout != 10*time.Second {
		t.Errorf("HTTPTimeout = %v, want 10s", cfg.HTTPTimeout)
	}
	if cfg.ScheduleInterval != 12*time.Hour {
		t.Errorf("ScheduleInterval = %v, want 12h", cfg.ScheduleInterval)
	}
	if cfg.RecheckAfter != time.Hour {
		t.Errorf("RecheckAfter = %v, want 1h", cfg.RecheckAfter)
	}
	if cfg.TenantID != 1 || cfg.PrimaryTenantID != 1 {
		t.Errorf("tenant = %d/%d, want 1/1", cfg.TenantID, cfg.PrimaryTenantID)
	}
	if cfg.GitLabURL != "https://gitlab.rrze.fau.de" {
		t.Errorf("GitLabURL = %q", cfg.GitLabURL)
	}
	if cfg.LogLevel != slog.LevelInfo {
		t.Errorf("LogLevel = %v, want INFO", cfg.LogLevel)
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("RRZE_UPDATER_SETTINGS_BACKEND", "bolt")
	t.Setenv("RRZE_UPDATER_SCHEDULE_INTERVAL", "30m")
	t.Setenv("RRZE_UPDATER_TENANT_ID", "4")
	t.Setenv("RRZE_UPDATER_PLUGINS_DIR", "/var/www/wp-content/plugins")
	t.Setenv("RRZE_UPDATER_LOG_LEVEL", "debug")

	cfg, err := Load(newViper("/srv/updater"))
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.SettingsPath() != "/srv/updater/settings.db" {
		t.Errorf("SettingsPath() = %q", cfg.SettingsPath())
	}
	if cfg.ScheduleInterval != 30*time.Minute {
		t.Errorf("ScheduleInterval = %v, want 30m", cfg.ScheduleInterval)
	}
	if cfg.TenantID != 4 {
		t.Errorf("TenantID = %d, want 4", cfg.TenantID)
	}
	if cfg.Paths.PluginsDir != "/var/www/wp-content/plugins" {
		t.Errorf("PluginsDir = %q", cfg.Paths.PluginsDir)
	}
	if cfg.Paths.ThemesDir != "/srv/updater/themes" {
		t.Errorf("ThemesDir = %q", cfg.Paths.ThemesDir)
	}
	if cfg.LogLevel != slog.LevelDebug {
		t.Errorf("LogLevel = %v, want DEBUG", cfg.LogLevel)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := map[string]string{
		"settings.backend":  "redis",
		"settings.format":   "xml",
		"schedule.interval": "0s",
		"log.level":         "loud",
	}
	for key, value := range tests {
		t.Run(key, func(t *testing.T) {
			v := newViper("/srv/updater")
			v.Set(key, value)
			if _, err := Load(v); err == nil {
				t.Errorf("Load() with %s=%q succeeded, want error", key, value)
			}
		})
	}
}
