// Package extension models a tracked plugin or theme: a local artifact bound
// to a remote repository through a connector, together with the outcome of
// its most recent update check.
package extension

import (
	"context"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/dustin/go-humanize"

	"github.com/RRZE-Webteam/rrze-updater/internal/connector"
	uerrors "github.com/RRZE-Webteam/rrze-updater/internal/errors"
	"github.com/RRZE-Webteam/rrze-updater/internal/ident"
)

// DefaultBranch is used when an extension is created without a branch
const DefaultBranch = "main"

// Kind selects which local-artifact inspector applies
type Kind string

const (
	Plugin Kind = "plugin"
	Theme  Kind = "theme"
)

// Kinds lists both variants in display order
var Kinds = []Kind{Plugin, Theme}

// Mode is the tracked upstream reference
type Mode string

const (
	ModeDisabled Mode = ""
	ModeTags     Mode = "tags"
	ModeCommits  Mode = "commits"
)

// ParseMode accepts "tags", "commits" and the empty/"none" disabled mode
func ParseMode(s string) (Mode, bool) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeTags:
		return ModeTags, true
	case ModeCommits:
		return ModeCommits, true
	case ModeDisabled, "none", "disabled":
		return ModeDisabled, true
	}
	return ModeDisabled, false
}

// Enabled reports whether the mode triggers remote checks
func (m Mode) Enabled() bool {
	return m == ModeTags || m == ModeCommits
}

// State is derived from the mode and the last diagnostics
type State string

const (
	StateDisabled State = "disabled"
	StateOK       State = "ok"
	StateWarning  State = "warning"
	StateError    State = "error"
)

// Extension is one tracked plugin or theme
type Extension struct {
	ID                 string
	Kind               Kind
	ConnectorID        string
	Repository         string
	Branch             string
	InstallationFolder string
	Updates            Mode
	LocalVersion       string
	RemoteVersion      string
	LastChecked        int64 // unix seconds, 0 = never
	LastWarning        string
	LastError          string

	// Connector is resolved from ConnectorID on load; nil when the id
	// matches no connector.
	Connector *connector.Connector

	now func() time.Time
}

// Params are the user-supplied fields of a new extension
type Params struct {
	ConnectorID        string
	Repository         string
	Branch             string
	InstallationFolder string
	Updates            Mode
}

// New creates an extension with a fresh ID. Branch defaults to main and the
// installation folder to the repository name.
func New(kind Kind, p Params) (*Extension, error) {
	repo := strings.TrimSpace(p.Repository)
	if repo == "" {
		return nil, uerrors.NewExtensionError(string(kind), "", "create", uerrors.ErrRepositoryRequired)
	}
	e := &Extension{
		ID:                 ident.New(),
		Kind:               kind,
		ConnectorID:        strings.TrimSpace(p.ConnectorID),
		Repository:         repo,
		Branch:             strings.TrimSpace(p.Branch),
		InstallationFolder: strings.TrimSpace(p.InstallationFolder),
		Updates:            p.Updates,
	}
	if e.Branch == "" {
		e.Branch = DefaultBranch
	}
	if e.InstallationFolder == "" {
		e.InstallationFolder = repo
	}
	return e, nil
}

// SetClock overrides the time source used to stamp checks
func (e *Extension) SetClock(now func() time.Time) {
	e.now = now
}

func (e *Extension) clock() time.Time {
	if e.now != nil {
		return e.now()
	}
	return time.Now()
}

// CheckForUpdates resolves the upstream reference for the tracked mode and
// records the outcome on the extension. It does nothing when tracking is
// disabled. A check always counts as done, even when it fails; an error
// from the connector always empties the remote version.
func (e *Extension) CheckForUpdates(ctx context.Context) {
	if !e.Updates.Enabled() {
		return
	}
	e.LastChecked = e.clock().Unix()

	if e.Connector == nil {
		e.LastWarning = ""
		e.LastError = uerrors.ErrConnectorNotFound.Error()
		e.RemoteVersion = ""
		return
	}

	var remote string
	switch e.Updates {
	case ModeTags:
		remote, _ = e.Connector.ResolveLatestTag(ctx, e.Repository)
	case ModeCommits:
		remote, _ = e.Connector.ResolveLatestCommit(ctx, e.Repository, e.Branch)
	}

	e.LastWarning = e.Connector.Warning()
	e.LastError = e.Connector.Error()
	if e.LastError != "" {
		remote = ""
	}
	e.RemoteVersion = remote
}

// DueForCheck reports whether the last check is older than recheckAfter
func (e *Extension) DueForCheck(now time.Time, recheckAfter time.Duration) bool {
	if e.LastChecked == 0 {
		return true
	}
	return now.Sub(time.Unix(e.LastChecked, 0)) > recheckAfter
}

// UpdateAvailable reports whether the remote version differs from the
// installed one. Tags that both parse as semantic versions must move
// forward to count.
func (e *Extension) UpdateAvailable() bool {
	if e.RemoteVersion == "" || e.RemoteVersion == e.LocalVersion {
		return false
	}
	if e.Updates == ModeTags && e.LocalVersion != "" {
		remote, rerr := semver.NewVersion(e.RemoteVersion)
		local, lerr := semver.NewVersion(e.LocalVersion)
		if rerr == nil && lerr == nil {
			return remote.GreaterThan(local)
		}
	}
	return true
}

// VersionLabel renders a version for display; commit ids are shortened
func (e *Extension) VersionLabel(v string) string {
	if v == "" {
		return ""
	}
	if e.Updates == ModeCommits && len(v) > 6 {
		return v[:6] + "… (commit)"
	}
	return v
}

// State derives the check state from mode and diagnostics
func (e *Extension) State() State {
	switch {
	case !e.Updates.Enabled():
		return StateDisabled
	case e.LastError != "":
		return StateError
	case e.LastWarning != "":
		return StateWarning
	default:
		return StateOK
	}
}

// LastCheckedPhrase renders the last check as "5 minutes ago" within a day
// and as a date otherwise
func (e *Extension) LastCheckedPhrase(now time.Time) string {
	if e.LastChecked == 0 {
		return "never"
	}
	t := time.Unix(e.LastChecked, 0)
	if now.Sub(t) < 24*time.Hour {
		return humanize.RelTime(t, now, "ago", "from now")
	}
	return t.Local().Format("2006-01-02 15:04")
}
