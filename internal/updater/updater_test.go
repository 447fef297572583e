package updater

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RRZE-Webteam/rrze-updater/internal/connector"
	uerrors "github.com/RRZE-Webteam/rrze-updater/internal/errors"
	"github.com/RRZE-Webteam/rrze-updater/internal/extension"
	"github.com/RRZE-Webteam/rrze-updater/internal/installer"
	"github.com/RRZE-Webteam/rrze-updater/internal/settings"
	"github.com/RRZE-Webteam/rrze-updater/internal/store"
)

var now = time.Unix(1_700_000_000, 0)

type installCall struct {
	URL    string
	Kind   extension.Kind
	Folder string
}

type fakeInstaller struct {
	calls []installCall
	err   error
}

func (f *fakeInstaller) Install(_ context.Context, d installer.Download, kind extension.Kind, folder string) error {
	f.calls = append(f.calls, installCall{URL: d.URL, Kind: kind, Folder: folder})
	return f.err
}

type fakeInspector struct {
	plugins, themes []string
	versions        map[string]string
}

func (f *fakeInspector) InstalledPluginFolders() ([]string, error) { return f.plugins, nil }
func (f *fakeInspector) InstalledThemeFolders() ([]string, error)  { return f.themes, nil }
func (f *fakeInspector) InstalledVersion(_ extension.Kind, folder string) (string, bool) {
	v, ok := f.versions[folder]
	return v, ok
}

type harness struct {
	svc       *Service
	store     store.Store
	installer *fakeInstaller
	inspector *fakeInspector
	github    *connector.Connector
	apiURL    string
	remaining int
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{remaining: 100}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/rate_limit":
			fmt.Fprintf(w, `{"resources":{"core":{"limit":5000,"remaining":%d,"reset":%d}}}`, h.remaining, now.Add(time.Hour).Unix())
		case r.URL.Path == "/repos/acme/widget/tags":
			fmt.Fprint(w, `[{"name":"v1.2.0"}]`)
		case r.URL.Path == "/repos/acme/widget/commits":
			fmt.Fprint(w, `[{"sha":"0123456789abcdef"}]`)
		case strings.HasPrefix(r.URL.Path, "/repos/acme/widget/zipball/"):
			w.Write([]byte("PK"))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	h.apiURL = srv.URL

	env := connector.Env{
		Endpoints: connector.Endpoints{GitHubAPI: srv.URL},
		Now:       func() time.Time { return now },
	}
	h.store = store.NewFile(filepath.Join(t.TempDir(), "settings.json"))
	codec, err := settings.CodecFor("json")
	require.NoError(t, err)
	s := settings.Open(h.store, codec, env)

	h.installer = &fakeInstaller{}
	h.inspector = &fakeInspector{versions: map[string]string{}}
	h.svc = New(s, h.inspector, h.installer, nil)

	h.github, err = h.svc.AddConnector(context.Background(), connector.GitHub, "acme", "ghp_x")
	require.NoError(t, err)
	return h
}

// reload reads the persisted registry into a fresh Settings
func (h *harness) reload(t *testing.T) *settings.Settings {
	t.Helper()
	codec, _ := settings.CodecFor("json")
	s := settings.Open(h.store, codec, connector.Env{})
	require.NoError(t, s.Load(context.Background()))
	return s
}

func TestAddExtensionTracksTags(t *testing.T) {
	h := newHarness(t)

	e, err := h.svc.AddExtension(context.Background(), extension.Plugin, extension.Params{
		ConnectorID: h.github.ID,
		Repository:  "widget",
		Updates:     extension.ModeTags,
	})
	require.NoError(t, err)
	assert.Equal(t, "v1.2.0", e.RemoteVersion)
	assert.Equal(t, "v1.2.0", e.LocalVersion)
	assert.Equal(t, now.Unix(), e.LastChecked)
	assert.Equal(t, "widget", e.InstallationFolder)

	require.Len(t, h.installer.calls, 1)
	assert.Equal(t, h.apiURL+"/repos/acme/widget/zipball/v1.2.0", h.installer.calls[0].URL)
	assert.Equal(t, "widget", h.installer.calls[0].Folder)

	saved := h.reload(t)
	p, ok := saved.PluginByRepository("widget")
	require.True(t, ok)
	assert.Equal(t, "v1.2.0", p.LocalVersion)
}

func TestAddExtensionWithoutTrackingInstallsBranch(t *testing.T) {
	h := newHarness(t)

	e, err := h.svc.AddExtension(context.Background(), extension.Theme, extension.Params{
		ConnectorID:        h.github.ID,
		Repository:         "widget",
		Branch:             "develop",
		InstallationFolder: "Widget-Theme",
	})
	require.NoError(t, err)
	assert.Empty(t, e.LocalVersion)

	require.Len(t, h.installer.calls, 1)
	assert.Equal(t, h.apiURL+"/repos/acme/widget/zipball/develop", h.installer.calls[0].URL)
	assert.Equal(t, extension.Theme, h.installer.calls[0].Kind)
	assert.Equal(t, "Widget-Theme", h.installer.calls[0].Folder)
}

func TestAddExtensionValidation(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.svc.AddExtension(ctx, extension.Plugin, extension.Params{ConnectorID: h.github.ID})
	assert.True(t, errors.Is(err, uerrors.ErrRepositoryRequired))

	_, err = h.svc.AddExtension(ctx, extension.Plugin, extension.Params{ConnectorID: "nope", Repository: "widget"})
	assert.True(t, errors.Is(err, uerrors.ErrConnectorNotFound))

	_, err = h.svc.AddExtension(ctx, extension.Plugin, extension.Params{ConnectorID: h.github.ID, Repository: "widget"})
	require.NoError(t, err)
	_, err = h.svc.AddExtension(ctx, extension.Plugin, extension.Params{ConnectorID: h.github.ID, Repository: "widget"})
	assert.True(t, errors.Is(err, uerrors.ErrRepositoryExists))
}

func TestAddExtensionConnectorErrorSavesNothing(t *testing.T) {
	h := newHarness(t)
	h.remaining = 0

	_, err := h.svc.AddExtension(context.Background(), extension.Plugin, extension.Params{
		ConnectorID: h.github.ID,
		Repository:  "widget",
		Updates:     extension.ModeCommits,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GitHub API Rate Limit is reached!")
	assert.Empty(t, h.installer.calls)
	assert.Empty(t, h.reload(t).Plugins)
}

func TestEditExtensionResetsAndRechecks(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	e, err := h.svc.AddExtension(ctx, extension.Plugin, extension.Params{
		ConnectorID: h.github.ID, Repository: "widget", Updates: extension.ModeTags,
	})
	require.NoError(t, err)

	e, err = h.svc.EditExtension(ctx, extension.Plugin, e.ID, extension.Params{
		ConnectorID: h.github.ID, Repository: "widget", Branch: "release", Updates: extension.ModeCommits,
	})
	require.NoError(t, err)
	assert.Equal(t, "release", e.Branch)
	assert.Equal(t, "0123456789abcdef", e.RemoteVersion)
	assert.True(t, e.UpdateAvailable())
	assert.Equal(t, "012345… (commit)", e.VersionLabel(e.RemoteVersion))

	e, err = h.svc.EditExtension(ctx, extension.Plugin, e.ID, extension.Params{
		ConnectorID: h.github.ID, Repository: "widget", Branch: "release",
	})
	require.NoError(t, err)
	assert.Equal(t, "release", e.RemoteVersion, "disabled tracking keeps the branch name")

	_, err = h.svc.EditExtension(ctx, extension.Plugin, "missing", extension.Params{Repository: "x"})
	assert.True(t, errors.Is(err, uerrors.ErrExtensionNotFound))
}

func TestUpdateExtension(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	e, err := h.svc.AddExtension(ctx, extension.Plugin, extension.Params{
		ConnectorID: h.github.ID, Repository: "widget", Updates: extension.ModeCommits,
	})
	require.NoError(t, err)
	e.LocalVersion = "old"
	assert.Len(t, h.svc.Outdated(), 1)

	e, err = h.svc.UpdateExtension(ctx, extension.Plugin, "widget")
	require.NoError(t, err)
	assert.Equal(t, "0123456789abcdef", e.LocalVersion)
	assert.Empty(t, h.svc.Outdated())
	assert.Len(t, h.installer.calls, 2)

	e.RemoteVersion = ""
	_, err = h.svc.UpdateExtension(ctx, extension.Plugin, e.ID)
	assert.True(t, errors.Is(err, uerrors.ErrNoRemoteVersion))
}

func TestUpdateExtensionInstallFailureKeepsLocalVersion(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	e, err := h.svc.AddExtension(ctx, extension.Plugin, extension.Params{
		ConnectorID: h.github.ID, Repository: "widget", Updates: extension.ModeTags,
	})
	require.NoError(t, err)
	e.LocalVersion = "v1.0.0"

	h.installer.err = uerrors.ErrGitCheckout
	_, err = h.svc.UpdateExtension(ctx, extension.Plugin, e.ID)
	assert.True(t, errors.Is(err, uerrors.ErrGitCheckout))
	assert.Equal(t, "v1.0.0", e.LocalVersion)
}

func TestCheckExtension(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	e, err := h.svc.AddExtension(ctx, extension.Plugin, extension.Params{
		ConnectorID: h.github.ID, Repository: "widget", Updates: extension.ModeTags,
	})
	require.NoError(t, err)

	h.remaining = 1
	e, err = h.svc.CheckExtension(ctx, extension.Plugin, e.ID)
	require.NoError(t, err)
	assert.Empty(t, e.RemoteVersion)
	assert.Contains(t, e.LastError, "It'll be available in 1 hour")

	saved := h.reload(t)
	p, _ := saved.PluginByID(e.ID)
	assert.Equal(t, e.LastError, p.LastError)
}

func TestSynchronize(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	_, err := h.svc.AddExtension(ctx, extension.Plugin, extension.Params{ConnectorID: h.github.ID, Repository: "widget"})
	require.NoError(t, err)

	h.inspector.plugins = []string{"widget"}
	removed, err := h.svc.Synchronize(ctx)
	require.NoError(t, err)
	assert.Empty(t, removed)

	h.inspector.plugins = nil
	removed, err = h.svc.Synchronize(ctx)
	require.NoError(t, err)
	require.Len(t, removed, 1)
	assert.Empty(t, h.reload(t).Plugins)
}

func TestConnectorLifecycle(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.svc.AddConnector(ctx, connector.GitLab, "", "")
	assert.True(t, errors.Is(err, uerrors.ErrOwnerRequired))

	spare, err := h.svc.AddConnector(ctx, connector.GitLab, "webteam", "")
	require.NoError(t, err)

	c, err := h.svc.EditConnector(ctx, spare.ID, " glpat-new ")
	require.NoError(t, err)
	assert.Equal(t, "glpat-new", c.Token)

	_, err = h.svc.AddExtension(ctx, extension.Plugin, extension.Params{ConnectorID: h.github.ID, Repository: "widget"})
	require.NoError(t, err)

	err = h.svc.DeleteConnector(ctx, h.github.ID)
	assert.True(t, errors.Is(err, uerrors.ErrConnectorInUse))

	removed, err := h.svc.PruneConnectors(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{spare.ID}, removed)

	saved := h.reload(t)
	require.Len(t, saved.Connectors, 1)
	assert.Equal(t, h.github.ID, saved.Connectors[0].ID)
}
