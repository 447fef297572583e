package settings

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RRZE-Webteam/rrze-updater/internal/connector"
	uerrors "github.com/RRZE-Webteam/rrze-updater/internal/errors"
	"github.com/RRZE-Webteam/rrze-updater/internal/extension"
	"github.com/RRZE-Webteam/rrze-updater/internal/store"
)

func newSettings(t *testing.T, format string) *Settings {
	t.Helper()
	codec, err := CodecFor(format)
	require.NoError(t, err)
	return Open(store.NewFile(filepath.Join(t.TempDir(), "settings."+format)), codec, connector.Env{})
}

func mustConnector(t *testing.T, kind connector.Kind, owner, token string) *connector.Connector {
	t.Helper()
	c, err := connector.New(kind, owner, token, connector.Env{})
	require.NoError(t, err)
	return c
}

func mustExtension(t *testing.T, kind extension.Kind, connectorID, repo string) *extension.Extension {
	t.Helper()
	e, err := extension.New(kind, extension.Params{ConnectorID: connectorID, Repository: repo, Updates: extension.ModeCommits})
	require.NoError(t, err)
	return e
}

// populate builds a graph with two connectors, two plugins and one theme
func populate(t *testing.T, s *Settings) (gh, gl *connector.Connector) {
	t.Helper()
	gh = mustConnector(t, connector.GitHub, "acme", "ghp_secret")
	gl = mustConnector(t, connector.GitLab, "webteam", "")
	s.AddConnector(gh)
	s.AddConnector(gl)

	p1 := mustExtension(t, extension.Plugin, gh.ID, "widget")
	p1.LocalVersion = "abc123"
	p1.RemoteVersion = "def456"
	p1.LastChecked = 1_700_000_000
	p1.LastWarning = "GitHub API Rate Limit: 60 (50 left). It'll be reset in 1 hour."
	require.NoError(t, s.AddExtension(p1))
	require.NoError(t, s.AddExtension(mustExtension(t, extension.Plugin, gl.ID, "rrze-cache")))

	th := mustExtension(t, extension.Theme, gl.ID, "fau-theme")
	th.Updates = extension.ModeTags
	th.InstallationFolder = "FAU-Einrichtungen"
	th.LastError = "Resource not found (check repository name, branch/tag/commit name)"
	require.NoError(t, s.AddExtension(th))
	return gh, gl
}

func TestSaveLoadRoundTrip(t *testing.T) {
	for _, format := range []string{"toml", "yaml", "json"} {
		t.Run(format, func(t *testing.T) {
			ctx := context.Background()
			s := newSettings(t, format)
			populate(t, s)
			require.NoError(t, s.Save(ctx))

			loaded := Open(s.store, s.codec, connector.Env{})
			require.NoError(t, loaded.Load(ctx))

			require.Len(t, loaded.Connectors, 2)
			for i, c := range s.Connectors {
				assert.Equal(t, c.Record(), loaded.Connectors[i].Record())
			}

			for _, kind := range extension.Kinds {
				want, got := s.Extensions(kind), loaded.Extensions(kind)
				require.Len(t, got, len(want))
				for i := range want {
					assert.Equal(t, want[i].Record(), got[i].Record())
					assert.Equal(t, kind, got[i].Kind)
					require.NotNil(t, got[i].Connector)
					assert.Equal(t, want[i].ConnectorID, got[i].Connector.ID)
				}
			}
		})
	}
}

func TestLoadMissingIsEmpty(t *testing.T) {
	s := newSettings(t, "toml")
	require.NoError(t, s.Load(context.Background()))
	assert.Empty(t, s.Connectors)
	assert.Empty(t, s.All())
}

func TestLoadKeepsDanglingConnectorReference(t *testing.T) {
	ctx := context.Background()
	s := newSettings(t, "json")
	gh, _ := populate(t, s)

	// drop the connector behind the registry's back
	s.Connectors = s.Connectors[1:]
	require.NoError(t, s.Save(ctx))
	require.NoError(t, s.Load(ctx))

	p, ok := s.PluginByRepository("widget")
	require.True(t, ok)
	assert.Equal(t, gh.ID, p.ConnectorID)
	assert.Nil(t, p.Connector)
}

func TestLookups(t *testing.T) {
	s := newSettings(t, "toml")
	gh, _ := populate(t, s)

	c, ok := s.ConnectorByID(gh.ID)
	require.True(t, ok)
	assert.Same(t, gh, c)

	_, ok = s.ConnectorByID("00000000")
	assert.False(t, ok)

	p, ok := s.PluginByRepository("widget")
	require.True(t, ok)
	byID, ok := s.PluginByID(p.ID)
	require.True(t, ok)
	assert.Same(t, p, byID)

	_, ok = s.ThemeByRepository("widget")
	assert.False(t, ok)

	th, ok := s.ThemeByRepository("fau-theme")
	require.True(t, ok)
	_, ok = s.ThemeByID(th.ID)
	assert.True(t, ok)
}

func TestAddExtensionRejectsDuplicates(t *testing.T) {
	s := newSettings(t, "toml")
	gh, _ := populate(t, s)

	err := s.AddExtension(mustExtension(t, extension.Plugin, gh.ID, "widget"))
	assert.True(t, errors.Is(err, uerrors.ErrRepositoryExists))

	// same repository as a theme is fine
	require.NoError(t, s.AddExtension(mustExtension(t, extension.Theme, gh.ID, "widget")))

	err = s.AddExtension(&extension.Extension{Kind: extension.Plugin})
	assert.True(t, errors.Is(err, uerrors.ErrRepositoryRequired))
}

func TestDeleteConnector(t *testing.T) {
	s := newSettings(t, "toml")
	gh, _ := populate(t, s)
	spare := mustConnector(t, connector.GitHub, "spare", "")
	s.AddConnector(spare)

	assert.True(t, s.IsConnectorUsed(gh.ID))
	err := s.DeleteConnector(gh.ID)
	assert.True(t, errors.Is(err, uerrors.ErrConnectorInUse))
	assert.Len(t, s.Connectors, 3)

	assert.False(t, s.IsConnectorUsed(spare.ID))
	require.NoError(t, s.DeleteConnector(spare.ID))
	assert.Len(t, s.Connectors, 2)

	err = s.DeleteConnector(spare.ID)
	assert.True(t, errors.Is(err, uerrors.ErrConnectorNotFound))
}

func TestDeleteUnusedConnectors(t *testing.T) {
	s := newSettings(t, "toml")
	gh, gl := populate(t, s)
	spare := mustConnector(t, connector.GitLab, "spare", "")
	s.AddConnector(spare)

	removed := s.DeleteUnusedConnectors()
	assert.Equal(t, []string{spare.ID}, removed)
	require.Len(t, s.Connectors, 2)
	assert.Equal(t, gh.ID, s.Connectors[0].ID)
	assert.Equal(t, gl.ID, s.Connectors[1].ID)
}

func TestDeleteExtension(t *testing.T) {
	s := newSettings(t, "toml")
	populate(t, s)
	p, _ := s.PluginByRepository("widget")

	require.NoError(t, s.DeleteExtension(extension.Plugin, p.ID))
	_, ok := s.PluginByRepository("widget")
	assert.False(t, ok)

	err := s.DeleteExtension(extension.Plugin, p.ID)
	assert.True(t, errors.Is(err, uerrors.ErrExtensionNotFound))
}

func TestReconcile(t *testing.T) {
	s := newSettings(t, "toml")
	populate(t, s)
	orphan := mustExtension(t, extension.Plugin, "", "orphan")
	orphan.InstallationFolder = ""
	s.Plugins = append(s.Plugins, orphan)

	removed := s.Reconcile([]string{"widget", "akismet"}, []string{"twentytwentyfour"})
	var repos []string
	for _, e := range removed {
		repos = append(repos, e.Repository)
	}
	assert.ElementsMatch(t, []string{"rrze-cache", "orphan", "fau-theme"}, repos)
	require.Len(t, s.Plugins, 1)
	assert.Equal(t, "widget", s.Plugins[0].Repository)
	assert.Empty(t, s.Themes)

	again := s.Reconcile([]string{"widget", "akismet"}, []string{"twentytwentyfour"})
	assert.Empty(t, again)
	assert.Len(t, s.Plugins, 1)
}

func TestConnectorRepos(t *testing.T) {
	s := newSettings(t, "toml")
	_, gl := populate(t, s)

	repos := s.ConnectorRepos(gl.ID)
	require.Len(t, repos, 2)
	assert.Equal(t, extension.Plugin, repos[0].Kind)
	assert.Equal(t, "rrze-cache", repos[0].Repository)
	assert.Equal(t, extension.Theme, repos[1].Kind)
	assert.Equal(t, "FAU-Einrichtungen", repos[1].InstallationFolder)
	assert.Equal(t, "webteam", repos[1].Owner)
	assert.Equal(t, "RRZE GitLab", repos[1].Display)

	assert.Equal(t, 2, s.ConnectorRepoCount(gl.ID))
	assert.Zero(t, s.ConnectorRepoCount("nope"))
}

func TestCodecFor(t *testing.T) {
	for _, f := range []string{"toml", "YAML", "yml", "json", ""} {
		_, err := CodecFor(f)
		assert.NoError(t, err, f)
	}
	_, err := CodecFor("xml")
	assert.Error(t, err)
}
