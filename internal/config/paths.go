package config

import (
	"os"
	"path/filepath"
)

// Paths holds the resolved directories the updater works with
type Paths struct {
	DataDir    string // ~/.rrze-updater (settings live here)
	PluginsDir string // installed plugins root
	ThemesDir  string // installed themes root
}

// ResolvePaths resolves directories from the environment and defaults.
// RRZE_UPDATER_DIR overrides the data directory.
func ResolvePaths() (*Paths, error) {
	dataDir := os.Getenv("RRZE_UPDATER_DIR")
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		dataDir = filepath.Join(home, ".rrze-updater")
	}
	return PathsFor(dataDir), nil
}

// PathsFor derives the default layout below dataDir
func PathsFor(dataDir string) *Paths {
	return &Paths{
		DataDir:    dataDir,
		PluginsDir: filepath.Join(dataDir, "plugins"),
		ThemesDir:  filepath.Join(dataDir, "themes"),
	}
}

// SettingsPath returns the settings location for a backend and format
func (p *Paths) SettingsPath(backend, format string) string {
	if backend == BackendBolt {
		return filepath.Join(p.DataDir, "settings.db")
	}
	if format == "" {
		format = FormatTOML
	}
	return filepath.Join(p.DataDir, "settings."+format)
}

// IsInitialized checks if the data directory exists
func (p *Paths) IsInitialized() bool {
	info, err := os.Stat(p.DataDir)
	if err != nil {
		return false
	}
	return info.IsDir()
}
