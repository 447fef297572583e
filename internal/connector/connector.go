// Package connector talks to source-control hosting APIs on behalf of
// tracked extensions. A Connector is a tagged value (its Kind selects the
// Driver that implements every operation) carrying the account it acts for
// and the diagnostics of its most recent resolution call.
package connector

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/RRZE-Webteam/rrze-updater/internal/apiclient"
	uerrors "github.com/RRZE-Webteam/rrze-updater/internal/errors"
	"github.com/RRZE-Webteam/rrze-updater/internal/ident"
)

// Kind is the connector variant tag
type Kind string

const (
	GitHub Kind = "github"
	GitLab Kind = "gitlab"
)

// Endpoints holds the host base URLs used by the drivers
type Endpoints struct {
	GitHubAPI string // REST API base, e.g. https://api.github.com
	GitHubWeb string // repository URL base, e.g. https://github.com
	GitLab    string // GitLab host, API lives under /api/v4
}

// DefaultEndpoints returns the public hosts
func DefaultEndpoints() Endpoints {
	return Endpoints{
		GitHubAPI: "https://api.github.com",
		GitHubWeb: "https://github.com",
		GitLab:    "https://gitlab.rrze.fau.de",
	}
}

// Env carries the runtime collaborators a connector needs
type Env struct {
	Client    *apiclient.Client
	Endpoints Endpoints
	Now       func() time.Time
	Logger    *slog.Logger
}

func (e Env) withDefaults() Env {
	if e.Client == nil {
		e.Client = apiclient.New()
	}
	def := DefaultEndpoints()
	if e.Endpoints.GitHubAPI == "" {
		e.Endpoints.GitHubAPI = def.GitHubAPI
	}
	if e.Endpoints.GitHubWeb == "" {
		e.Endpoints.GitHubWeb = def.GitHubWeb
	}
	if e.Endpoints.GitLab == "" {
		e.Endpoints.GitLab = def.GitLab
	}
	e.Endpoints.GitHubAPI = strings.TrimRight(e.Endpoints.GitHubAPI, "/")
	e.Endpoints.GitHubWeb = strings.TrimRight(e.Endpoints.GitHubWeb, "/")
	e.Endpoints.GitLab = strings.TrimRight(e.Endpoints.GitLab, "/")
	if e.Now == nil {
		e.Now = time.Now
	}
	if e.Logger == nil {
		e.Logger = slog.Default()
	}
	return e
}

// Record is the persisted form of a connector
type Record struct {
	Type    string `json:"type" toml:"type" yaml:"type"`
	ID      string `json:"id" toml:"id" yaml:"id"`
	Display string `json:"display" toml:"display" yaml:"display"`
	Owner   string `json:"owner" toml:"owner" yaml:"owner"`
	Token   string `json:"token" toml:"token" yaml:"token"`
}

// Connector is an authenticated gateway to one hosting API account.
// ID never changes after creation.
type Connector struct {
	ID      string
	Kind    Kind
	Display string
	Owner   string
	Token   string

	warning string
	err     string
	env     Env
}

// New creates a connector with a fresh ID
func New(kind Kind, owner, token string, env Env) (*Connector, error) {
	d, ok := DriverFor(kind)
	if !ok {
		return nil, uerrors.NewConnectorError("", "create", fmt.Errorf("%w: %q", uerrors.ErrUnknownConnectorType, kind))
	}
	owner = strings.TrimSpace(owner)
	if owner == "" {
		return nil, uerrors.NewConnectorError("", "create", uerrors.ErrOwnerRequired)
	}
	return &Connector{
		ID:      ident.New(),
		Kind:    kind,
		Display: d.DisplayName(),
		Owner:   owner,
		Token:   strings.TrimSpace(token),
		env:     env.withDefaults(),
	}, nil
}

// FromRecord rebuilds a connector from persisted data. The type tag selects
// the variant; a missing ID is generated and the display name is always the
// variant's fixed label.
func FromRecord(r Record, env Env) (*Connector, error) {
	kind := Kind(strings.TrimSpace(r.Type))
	d, ok := DriverFor(kind)
	if !ok {
		return nil, uerrors.NewConnectorError(r.ID, "load", fmt.Errorf("%w: %q", uerrors.ErrUnknownConnectorType, r.Type))
	}
	id := strings.TrimSpace(r.ID)
	if id == "" {
		id = ident.New()
	}
	return &Connector{
		ID:      id,
		Kind:    kind,
		Display: d.DisplayName(),
		Owner:   strings.TrimSpace(r.Owner),
		Token:   strings.TrimSpace(r.Token),
		env:     env.withDefaults(),
	}, nil
}

// Record returns the persisted form
func (c *Connector) Record() Record {
	return Record{
		Type:    string(c.Kind),
		ID:      c.ID,
		Display: c.Display,
		Owner:   c.Owner,
		Token:   c.Token,
	}
}

// Warning returns the warning recorded by the most recent resolution call
func (c *Connector) Warning() string {
	return c.warning
}

// Error returns the error recorded by the most recent resolution call
func (c *Connector) Error() string {
	return c.err
}

// ResolveURL returns the repository's web URL. No network call is made.
func (c *Connector) ResolveURL(repository string) string {
	d, ok := DriverFor(c.Kind)
	if !ok {
		return ""
	}
	return d.URL(c, repository)
}

// ResolveLatestCommit returns the most recent commit on branch
func (c *Connector) ResolveLatestCommit(ctx context.Context, repository, branch string) (string, bool) {
	d, ok := c.begin()
	if !ok {
		return "", false
	}
	return d.LatestCommit(ctx, c, repository, branch)
}

// ResolveLatestTag returns the first tag the host lists. Hosts list tags
// newest first; the order is trusted as-is.
func (c *Connector) ResolveLatestTag(ctx context.Context, repository string) (string, bool) {
	d, ok := c.begin()
	if !ok {
		return "", false
	}
	return d.LatestTag(ctx, c, repository)
}

// ResolveDownloadReference returns a snapshot archive URL for ref (a commit,
// tag or branch)
func (c *Connector) ResolveDownloadReference(ctx context.Context, repository, ref string) (string, bool) {
	d, ok := c.begin()
	if !ok {
		return "", false
	}
	return d.DownloadReference(ctx, c, repository, ref)
}

// DownloadHeaders returns the headers needed to fetch a download reference
func (c *Connector) DownloadHeaders() map[string]string {
	d, ok := DriverFor(c.Kind)
	if !ok {
		return nil
	}
	return d.Headers(c)
}

// begin clears the diagnostics of the previous call and looks up the driver
func (c *Connector) begin() (Driver, bool) {
	c.warning = ""
	c.err = ""
	d, ok := DriverFor(c.Kind)
	if !ok {
		c.err = fmt.Sprintf("%s: %q", uerrors.ErrUnknownConnectorType, c.Kind)
	}
	return d, ok
}

// environment returns the connector's Env, filling defaults for connectors
// built without one
func (c *Connector) environment() Env {
	if c.env.Client == nil {
		c.env = c.env.withDefaults()
	}
	return c.env
}

func (c *Connector) get(ctx context.Context, url string, headers map[string]string, into any) error {
	_, err := c.environment().Client.Get(ctx, apiclient.Request{URL: url, Headers: headers, Into: into})
	return err
}

func (c *Connector) head(ctx context.Context, url string, headers map[string]string) error {
	_, err := c.environment().Client.Head(ctx, apiclient.Request{URL: url, Headers: headers})
	return err
}

func (c *Connector) fail(err error) {
	c.err = err.Error()
	c.environment().Logger.Debug("connector call failed", "connector", c.ID, "type", c.Kind, "error", c.err)
}
