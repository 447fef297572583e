// Package updater ties the registry, the connectors, the local inspector and
// the installer together into the user-facing actions.
package updater

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/RRZE-Webteam/rrze-updater/internal/connector"
	uerrors "github.com/RRZE-Webteam/rrze-updater/internal/errors"
	"github.com/RRZE-Webteam/rrze-updater/internal/extension"
	"github.com/RRZE-Webteam/rrze-updater/internal/inspector"
	"github.com/RRZE-Webteam/rrze-updater/internal/installer"
	"github.com/RRZE-Webteam/rrze-updater/internal/settings"
)

// Service runs actions against a loaded registry. Every mutating action
// saves the registry before returning.
type Service struct {
	settings  *settings.Settings
	inspector inspector.Inspector
	installer installer.Installer
	now       func() time.Time
	logger    *slog.Logger
}

// New creates a service
func New(s *settings.Settings, insp inspector.Inspector, inst installer.Installer, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	now := s.Env().Now
	if now == nil {
		now = time.Now
	}
	return &Service{settings: s, inspector: insp, installer: inst, now: now, logger: logger}
}

// Settings exposes the registry for read-only listings
func (s *Service) Settings() *settings.Settings {
	return s.settings
}

// Inspector exposes the local installation view
func (s *Service) Inspector() inspector.Inspector {
	return s.inspector
}

// AddConnector registers a new connector
func (s *Service) AddConnector(ctx context.Context, kind connector.Kind, owner, token string) (*connector.Connector, error) {
	c, err := connector.New(kind, owner, token, s.settings.Env())
	if err != nil {
		return nil, err
	}
	s.settings.AddConnector(c)
	if err := s.settings.Save(ctx); err != nil {
		return nil, err
	}
	s.logger.Info("connector added", "id", c.ID, "type", c.Kind, "owner", c.Owner)
	return c, nil
}

// EditConnector replaces a connector's token. Owner and type are fixed once
// extensions may depend on them.
func (s *Service) EditConnector(ctx context.Context, id, token string) (*connector.Connector, error) {
	c, ok := s.settings.ConnectorByID(id)
	if !ok {
		return nil, uerrors.NewConnectorError(id, "edit", uerrors.ErrConnectorNotFound)
	}
	c.Token = strings.TrimSpace(token)
	if err := s.settings.Save(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

// DeleteConnector removes an unused connector
func (s *Service) DeleteConnector(ctx context.Context, id string) error {
	if err := s.settings.DeleteConnector(id); err != nil {
		return err
	}
	return s.settings.Save(ctx)
}

// PruneConnectors removes every connector no extension uses
func (s *Service) PruneConnectors(ctx context.Context) ([]string, error) {
	removed := s.settings.DeleteUnusedConnectors()
	if len(removed) == 0 {
		return nil, nil
	}
	if err := s.settings.Save(ctx); err != nil {
		return nil, err
	}
	return removed, nil
}

// AddExtension starts tracking a repository and installs its current
// snapshot: the remote version when tracking resolves one, else the branch.
// Nothing is saved when the connector reports an error.
func (s *Service) AddExtension(ctx context.Context, kind extension.Kind, p extension.Params) (*extension.Extension, error) {
	e, err := extension.New(kind, p)
	if err != nil {
		return nil, err
	}
	if _, exists := s.settings.ExtensionByRepository(kind, e.Repository); exists {
		return nil, uerrors.NewExtensionError(string(kind), e.Repository, "add", uerrors.ErrRepositoryExists)
	}
	c, ok := s.settings.ConnectorByID(e.ConnectorID)
	if !ok {
		return nil, uerrors.NewExtensionError(string(kind), e.Repository, "add",
			fmt.Errorf("%w: %q", uerrors.ErrConnectorNotFound, e.ConnectorID))
	}
	e.Connector = c
	e.SetClock(s.now)
	e.LastChecked = s.now().Unix()

	e.CheckForUpdates(ctx)

	ref := e.RemoteVersion
	if ref == "" {
		ref = e.Branch
	}
	if err := s.install(ctx, e, ref); err != nil {
		return nil, err
	}
	e.LocalVersion = e.RemoteVersion

	if err := s.settings.AddExtension(e); err != nil {
		return nil, err
	}
	if err := s.settings.Save(ctx); err != nil {
		return nil, err
	}
	s.logger.Info("extension added", "kind", kind, "repository", e.Repository, "version", e.LocalVersion)
	return e, nil
}

// EditExtension changes what an extension tracks and re-checks it. The
// remote version is reset to the branch name before the check.
func (s *Service) EditExtension(ctx context.Context, kind extension.Kind, id string, p extension.Params) (*extension.Extension, error) {
	e, err := s.extension(kind, id, "edit")
	if err != nil {
		return nil, err
	}
	repo := strings.TrimSpace(p.Repository)
	if repo == "" {
		return nil, uerrors.NewExtensionError(string(kind), e.Repository, "edit", uerrors.ErrRepositoryRequired)
	}
	if other, exists := s.settings.ExtensionByRepository(kind, repo); exists && other.ID != e.ID {
		return nil, uerrors.NewExtensionError(string(kind), repo, "edit", uerrors.ErrRepositoryExists)
	}

	branch := strings.TrimSpace(p.Branch)
	e.ConnectorID = strings.TrimSpace(p.ConnectorID)
	e.Repository = repo
	e.Branch = branch
	if e.Branch == "" {
		e.Branch = extension.DefaultBranch
	}
	e.Updates = p.Updates
	e.RemoteVersion = branch
	s.settings.Rebind(e)

	e.CheckForUpdates(ctx)

	if err := s.settings.Save(ctx); err != nil {
		return nil, err
	}
	return e, nil
}

// DeleteExtension stops tracking; installed files stay
func (s *Service) DeleteExtension(ctx context.Context, kind extension.Kind, id string) error {
	if err := s.settings.DeleteExtension(kind, id); err != nil {
		return err
	}
	return s.settings.Save(ctx)
}

// CheckExtension runs an update check now, ignoring the recheck interval
func (s *Service) CheckExtension(ctx context.Context, kind extension.Kind, id string) (*extension.Extension, error) {
	e, err := s.extension(kind, id, "check")
	if err != nil {
		return nil, err
	}
	e.CheckForUpdates(ctx)
	if err := s.settings.Save(ctx); err != nil {
		return nil, err
	}
	return e, nil
}

// UpdateExtension installs the last resolved remote version
func (s *Service) UpdateExtension(ctx context.Context, kind extension.Kind, id string) (*extension.Extension, error) {
	e, err := s.extension(kind, id, "update")
	if err != nil {
		return nil, err
	}
	if e.RemoteVersion == "" {
		return nil, uerrors.NewExtensionError(string(kind), e.Repository, "update", uerrors.ErrNoRemoteVersion)
	}
	if err := s.install(ctx, e, e.RemoteVersion); err != nil {
		return nil, err
	}
	e.LocalVersion = e.RemoteVersion
	if err := s.settings.Save(ctx); err != nil {
		return nil, err
	}
	s.logger.Info("extension updated", "kind", kind, "repository", e.Repository, "version", e.LocalVersion)
	return e, nil
}

// Synchronize prunes entries that are no longer installed. Listings call
// it first so they never show stale entries.
func (s *Service) Synchronize(ctx context.Context) ([]*extension.Extension, error) {
	plugins, err := s.inspector.InstalledPluginFolders()
	if err != nil {
		return nil, fmt.Errorf("list installed plugins: %w", err)
	}
	themes, err := s.inspector.InstalledThemeFolders()
	if err != nil {
		return nil, fmt.Errorf("list installed themes: %w", err)
	}

	removed := s.settings.Reconcile(plugins, themes)
	if len(removed) == 0 {
		return nil, nil
	}
	if err := s.settings.Save(ctx); err != nil {
		return nil, err
	}
	return removed, nil
}

// Outdated returns the tracked extensions with an update available
func (s *Service) Outdated() []*extension.Extension {
	var out []*extension.Extension
	for _, e := range s.settings.All() {
		if e.UpdateAvailable() {
			out = append(out, e)
		}
	}
	return out
}

// InstalledVersion reports the version an installed extension declares
func (s *Service) InstalledVersion(e *extension.Extension) string {
	v, _ := s.inspector.InstalledVersion(e.Kind, e.InstallationFolder)
	return v
}

func (s *Service) extension(kind extension.Kind, id, op string) (*extension.Extension, error) {
	e, ok := s.settings.ExtensionByID(kind, id)
	if !ok {
		e, ok = s.settings.ExtensionByRepository(kind, id)
	}
	if !ok {
		return nil, uerrors.NewExtensionError(string(kind), id, op, uerrors.ErrExtensionNotFound)
	}
	return e, nil
}

// install resolves a download reference for ref and hands it to the
// installer. A connector error aborts before anything is downloaded.
func (s *Service) install(ctx context.Context, e *extension.Extension, ref string) error {
	if e.Connector == nil {
		return uerrors.NewExtensionError(string(e.Kind), e.Repository, "install",
			fmt.Errorf("%w: %q", uerrors.ErrConnectorNotFound, e.ConnectorID))
	}
	if e.LastError != "" {
		return uerrors.NewExtensionError(string(e.Kind), e.Repository, "install", errors.New(e.LastError))
	}

	u, ok := e.Connector.ResolveDownloadReference(ctx, e.Repository, ref)
	if !ok {
		msg := e.Connector.Error()
		if msg == "" {
			msg = "no download reference for " + ref
		}
		return uerrors.NewExtensionError(string(e.Kind), e.Repository, "install", errors.New(msg))
	}

	d := installer.Download{URL: u, Headers: e.Connector.DownloadHeaders()}
	return s.installer.Install(ctx, d, e.Kind, e.InstallationFolder)
}
