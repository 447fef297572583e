// Package installer fetches snapshot archives and unpacks them into the
// plugin or theme directory.
package installer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-git/go-git/v5"

	"github.com/RRZE-Webteam/rrze-updater/internal/apiclient"
	uerrors "github.com/RRZE-Webteam/rrze-updater/internal/errors"
	"github.com/RRZE-Webteam/rrze-updater/internal/extension"
)

// DefaultDownloadTimeout bounds one archive download
const DefaultDownloadTimeout = 5 * time.Minute

// Download is a snapshot reference together with the headers needed to
// fetch it
type Download struct {
	URL     string
	Headers map[string]string
}

// Installer puts a downloaded snapshot in place
type Installer interface {
	Install(ctx context.Context, d Download, kind extension.Kind, folder string) error
}

// Zip installs zip snapshots, replacing the folder's previous contents
type Zip struct {
	PluginsDir string
	ThemesDir  string

	client  *apiclient.Client
	timeout time.Duration
	logger  *slog.Logger
}

// NewZip creates a zip installer. A nil client uses apiclient defaults.
func NewZip(pluginsDir, themesDir string, client *apiclient.Client, timeout time.Duration, logger *slog.Logger) *Zip {
	if client == nil {
		client = apiclient.New()
	}
	if timeout <= 0 {
		timeout = DefaultDownloadTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Zip{
		PluginsDir: pluginsDir,
		ThemesDir:  themesDir,
		client:     client,
		timeout:    timeout,
		logger:     logger,
	}
}

func (z *Zip) root(kind extension.Kind) string {
	if kind == extension.Theme {
		return z.ThemesDir
	}
	return z.PluginsDir
}

// Install downloads the archive, extracts it next to the target and swaps
// it into place. A folder that is a git working copy is never touched.
func (z *Zip) Install(ctx context.Context, d Download, kind extension.Kind, folder string) error {
	if folder == "" || folder != filepath.Base(folder) || strings.HasPrefix(folder, ".") {
		return uerrors.NewExtensionError(string(kind), folder, "install", fmt.Errorf("invalid installation folder %q", folder))
	}

	root := z.root(kind)
	target := filepath.Join(root, folder)

	if isGitCheckout(target) {
		return uerrors.NewExtensionError(string(kind), folder, "install", uerrors.ErrGitCheckout)
	}

	if err := os.MkdirAll(root, 0755); err != nil {
		return uerrors.NewExtensionError(string(kind), folder, "install", err)
	}

	archive, err := os.CreateTemp(root, ".rrze-updater-download-*.zip")
	if err != nil {
		return uerrors.NewExtensionError(string(kind), folder, "download", err)
	}
	defer os.Remove(archive.Name())

	n, err := z.client.Download(ctx, apiclient.Request{URL: d.URL, Headers: d.Headers, Timeout: z.timeout}, archive)
	if cerr := archive.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return uerrors.NewExtensionError(string(kind), folder, "download", err)
	}

	staging, err := os.MkdirTemp(root, "."+folder+"-staging-")
	if err != nil {
		return uerrors.NewExtensionError(string(kind), folder, "extract", err)
	}
	defer os.RemoveAll(staging)

	if err := extractZip(archive.Name(), staging); err != nil {
		return uerrors.NewExtensionError(string(kind), folder, "extract", err)
	}

	if err := swap(staging, target); err != nil {
		return uerrors.NewExtensionError(string(kind), folder, "install", err)
	}

	z.logger.Info("installed snapshot", "kind", kind, "folder", folder, "bytes", n)
	return nil
}

// swap replaces target with staging, restoring the old target on failure
func swap(staging, target string) error {
	backup := ""
	if _, err := os.Stat(target); err == nil {
		backup = filepath.Join(filepath.Dir(target), "."+filepath.Base(target)+"-previous")
		os.RemoveAll(backup)
		if err := os.Rename(target, backup); err != nil {
			return err
		}
	}

	if err := os.Rename(staging, target); err != nil {
		if backup != "" {
			os.Rename(backup, target)
		}
		return err
	}

	if backup != "" {
		os.RemoveAll(backup)
	}
	return nil
}

func isGitCheckout(dir string) bool {
	_, err := git.PlainOpen(dir)
	if err == nil {
		return true
	}
	return !errors.Is(err, git.ErrRepositoryNotExists) && dirExists(filepath.Join(dir, ".git"))
}

func dirExists(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && fi.IsDir()
}
