// Package inspector reports which plugins and themes are installed locally
// and which version each declares in its file header.
package inspector

import (
	"bufio"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/RRZE-Webteam/rrze-updater/internal/extension"
)

// headerBytes bounds how much of a file is scanned for header fields
const headerBytes = 8192

// Inspector is the view of the local installation the core depends on
type Inspector interface {
	InstalledPluginFolders() ([]string, error)
	InstalledThemeFolders() ([]string, error)
	InstalledVersion(kind extension.Kind, folder string) (string, bool)
}

// FS inspects plugin and theme directories on disk. A plugin folder is any
// directory below PluginsDir; a theme folder is a directory below ThemesDir
// holding a style.css.
type FS struct {
	PluginsDir string
	ThemesDir  string
}

// NewFS creates an inspector over the two roots
func NewFS(pluginsDir, themesDir string) *FS {
	return &FS{PluginsDir: pluginsDir, ThemesDir: themesDir}
}

func (f *FS) InstalledPluginFolders() ([]string, error) {
	return listDirs(f.PluginsDir, nil)
}

func (f *FS) InstalledThemeFolders() ([]string, error) {
	return listDirs(f.ThemesDir, func(dir string) bool {
		_, err := os.Stat(filepath.Join(dir, "style.css"))
		return err == nil
	})
}

// InstalledVersion reads the Version header of the plugin's main file or
// the theme's style.css
func (f *FS) InstalledVersion(kind extension.Kind, folder string) (string, bool) {
	if folder == "" {
		return "", false
	}
	if kind == extension.Theme {
		h := readHeader(filepath.Join(f.ThemesDir, folder, "style.css"))
		v, ok := h["version"]
		return v, ok && v != ""
	}

	dir := filepath.Join(f.PluginsDir, folder)
	files, err := filepath.Glob(filepath.Join(dir, "*.php"))
	if err != nil {
		return "", false
	}
	sort.Strings(files)
	for _, file := range files {
		h := readHeader(file)
		if _, isMain := h["plugin name"]; !isMain {
			continue
		}
		v, ok := h["version"]
		return v, ok && v != ""
	}
	return "", false
}

func listDirs(root string, keep func(dir string) bool) ([]string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var names []string
	for _, e := range entries {
		if !e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		if keep != nil && !keep(filepath.Join(root, e.Name())) {
			continue
		}
		names = append(names, e.Name())
	}
	return names, nil
}

var headerLine = regexp.MustCompile(`^[\s/*#@]*([A-Za-z][A-Za-z ]*?)\s*:\s*(.*)$`)

// readHeader extracts "Name: value" pairs from the leading comment block.
// Keys are lower-cased; the first occurrence wins.
func readHeader(path string) map[string]string {
	fh, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer fh.Close()

	fields := make(map[string]string)
	scanner := bufio.NewScanner(io.LimitReader(fh, headerBytes))
	for scanner.Scan() {
		m := headerLine.FindStringSubmatch(scanner.Text())
		if m == nil {
			continue
		}
		key := strings.ToLower(strings.TrimSpace(m[1]))
		if _, seen := fields[key]; seen {
			continue
		}
		value := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(m[2]), "*/"))
		fields[key] = value
	}
	return fields
}
