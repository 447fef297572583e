// Package settings owns the registry of connectors and tracked extensions.
// The registry is loaded whole, mutated in memory and written back whole.
package settings

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/RRZE-Webteam/rrze-updater/internal/connector"
	uerrors "github.com/RRZE-Webteam/rrze-updater/internal/errors"
	"github.com/RRZE-Webteam/rrze-updater/internal/extension"
	"github.com/RRZE-Webteam/rrze-updater/internal/store"
)

// blob is the persisted layout
type blob struct {
	Connectors []connector.Record `json:"connectors" toml:"connectors" yaml:"connectors"`
	Plugins    []extension.Record `json:"plugins" toml:"plugins" yaml:"plugins"`
	Themes     []extension.Record `json:"themes" toml:"themes" yaml:"themes"`
}

// Settings is the in-memory registry. It is not safe for concurrent use;
// callers run one action or sweep at a time.
type Settings struct {
	Connectors []*connector.Connector
	Plugins    []*extension.Extension
	Themes     []*extension.Extension

	store  store.Store
	codec  Codec
	env    connector.Env
	logger *slog.Logger
}

// Open binds an empty registry to its store. Call Load to read it.
func Open(s store.Store, codec Codec, env connector.Env) *Settings {
	if codec == nil {
		codec, _ = CodecFor("toml")
	}
	logger := env.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Settings{store: s, codec: codec, env: env, logger: logger}
}

// Env returns the environment new connectors are built with
func (s *Settings) Env() connector.Env {
	return s.env
}

// Load replaces the registry with the persisted one. Connectors are built
// first so extensions can resolve their connector reference; an extension
// whose connector is gone keeps a nil reference.
func (s *Settings) Load(ctx context.Context) error {
	data, err := s.store.Load(ctx)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.Connectors, s.Plugins, s.Themes = nil, nil, nil
			return nil
		}
		return fmt.Errorf("load settings: %w", err)
	}

	var b blob
	if len(data) > 0 {
		if err := s.codec.Unmarshal(data, &b); err != nil {
			return fmt.Errorf("parse settings (%s): %w", s.codec.Name(), err)
		}
	}

	s.Connectors = make([]*connector.Connector, 0, len(b.Connectors))
	for _, r := range b.Connectors {
		c, err := connector.FromRecord(r, s.env)
		if err != nil {
			s.logger.Warn("skipping connector", "id", r.ID, "error", err)
			continue
		}
		s.Connectors = append(s.Connectors, c)
	}

	s.Plugins = s.loadExtensions(extension.Plugin, b.Plugins)
	s.Themes = s.loadExtensions(extension.Theme, b.Themes)
	return nil
}

func (s *Settings) loadExtensions(kind extension.Kind, records []extension.Record) []*extension.Extension {
	out := make([]*extension.Extension, 0, len(records))
	for _, r := range records {
		e := extension.FromRecord(kind, r)
		s.bind(e)
		if e.Connector == nil {
			s.logger.Debug("extension references unknown connector",
				"kind", kind, "repository", e.Repository, "connector", e.ConnectorID)
		}
		out = append(out, e)
	}
	return out
}

// bind resolves the connector reference and clock of an extension
func (s *Settings) bind(e *extension.Extension) {
	e.Connector, _ = s.ConnectorByID(e.ConnectorID)
	if s.env.Now != nil {
		e.SetClock(s.env.Now)
	}
}

// Save writes the whole registry in one store call
func (s *Settings) Save(ctx context.Context) error {
	b := blob{
		Connectors: make([]connector.Record, 0, len(s.Connectors)),
		Plugins:    make([]extension.Record, 0, len(s.Plugins)),
		Themes:     make([]extension.Record, 0, len(s.Themes)),
	}
	for _, c := range s.Connectors {
		b.Connectors = append(b.Connectors, c.Record())
	}
	for _, e := range s.Plugins {
		b.Plugins = append(b.Plugins, e.Record())
	}
	for _, e := range s.Themes {
		b.Themes = append(b.Themes, e.Record())
	}

	data, err := s.codec.Marshal(b)
	if err != nil {
		return fmt.Errorf("encode settings (%s): %w", s.codec.Name(), err)
	}
	if err := s.store.Save(ctx, data); err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}

// Close releases the underlying store
func (s *Settings) Close() error {
	return s.store.Close()
}

// ConnectorByID looks up a connector
func (s *Settings) ConnectorByID(id string) (*connector.Connector, bool) {
	if id == "" {
		return nil, false
	}
	for _, c := range s.Connectors {
		if c.ID == id {
			return c, true
		}
	}
	return nil, false
}

// IsConnectorUsed reports whether any plugin or theme references id
func (s *Settings) IsConnectorUsed(id string) bool {
	for _, e := range s.All() {
		if e.ConnectorID == id {
			return true
		}
	}
	return false
}

// AddConnector appends a connector
func (s *Settings) AddConnector(c *connector.Connector) {
	s.Connectors = append(s.Connectors, c)
	for _, e := range s.All() {
		if e.Connector == nil && e.ConnectorID == c.ID {
			e.Connector = c
		}
	}
}

// DeleteConnector removes a connector unless an extension still uses it
func (s *Settings) DeleteConnector(id string) error {
	if s.IsConnectorUsed(id) {
		return uerrors.NewConnectorError(id, "delete", uerrors.ErrConnectorInUse)
	}
	for i, c := range s.Connectors {
		if c.ID == id {
			s.Connectors = append(s.Connectors[:i], s.Connectors[i+1:]...)
			return nil
		}
	}
	return uerrors.NewConnectorError(id, "delete", uerrors.ErrConnectorNotFound)
}

// DeleteUnusedConnectors removes every connector no extension references
// and returns the removed ids
func (s *Settings) DeleteUnusedConnectors() []string {
	var removed []string
	kept := s.Connectors[:0]
	for _, c := range s.Connectors {
		if s.IsConnectorUsed(c.ID) {
			kept = append(kept, c)
			continue
		}
		removed = append(removed, c.ID)
	}
	s.Connectors = kept
	return removed
}

// Extensions returns the tracked list for a kind
func (s *Settings) Extensions(kind extension.Kind) []*extension.Extension {
	if kind == extension.Theme {
		return s.Themes
	}
	return s.Plugins
}

func (s *Settings) setExtensions(kind extension.Kind, list []*extension.Extension) {
	if kind == extension.Theme {
		s.Themes = list
		return
	}
	s.Plugins = list
}

// All returns plugins followed by themes
func (s *Settings) All() []*extension.Extension {
	all := make([]*extension.Extension, 0, len(s.Plugins)+len(s.Themes))
	all = append(all, s.Plugins...)
	return append(all, s.Themes...)
}

// ExtensionByID looks up a tracked extension of a kind
func (s *Settings) ExtensionByID(kind extension.Kind, id string) (*extension.Extension, bool) {
	for _, e := range s.Extensions(kind) {
		if e.ID == id {
			return e, true
		}
	}
	return nil, false
}

// ExtensionByRepository looks up a tracked extension by repository name
func (s *Settings) ExtensionByRepository(kind extension.Kind, repository string) (*extension.Extension, bool) {
	for _, e := range s.Extensions(kind) {
		if e.Repository == repository {
			return e, true
		}
	}
	return nil, false
}

func (s *Settings) PluginByID(id string) (*extension.Extension, bool) {
	return s.ExtensionByID(extension.Plugin, id)
}

func (s *Settings) PluginByRepository(repository string) (*extension.Extension, bool) {
	return s.ExtensionByRepository(extension.Plugin, repository)
}

func (s *Settings) ThemeByID(id string) (*extension.Extension, bool) {
	return s.ExtensionByID(extension.Theme, id)
}

func (s *Settings) ThemeByRepository(repository string) (*extension.Extension, bool) {
	return s.ExtensionByRepository(extension.Theme, repository)
}

// AddExtension appends an extension after checking its repository is set
// and not already tracked for the same kind
func (s *Settings) AddExtension(e *extension.Extension) error {
	if e.Repository == "" {
		return uerrors.NewExtensionError(string(e.Kind), "", "add", uerrors.ErrRepositoryRequired)
	}
	if _, exists := s.ExtensionByRepository(e.Kind, e.Repository); exists {
		return uerrors.NewExtensionError(string(e.Kind), e.Repository, "add", uerrors.ErrRepositoryExists)
	}
	s.bind(e)
	s.setExtensions(e.Kind, append(s.Extensions(e.Kind), e))
	return nil
}

// Rebind refreshes an extension's connector reference after its
// ConnectorID changed
func (s *Settings) Rebind(e *extension.Extension) {
	s.bind(e)
}

// DeleteExtension stops tracking an extension. The installed files are left
// alone.
func (s *Settings) DeleteExtension(kind extension.Kind, id string) error {
	list := s.Extensions(kind)
	for i, e := range list {
		if e.ID == id {
			s.setExtensions(kind, append(list[:i], list[i+1:]...))
			return nil
		}
	}
	return uerrors.NewExtensionError(string(kind), id, "delete", uerrors.ErrExtensionNotFound)
}
