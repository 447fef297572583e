package extension

import (
	"strings"

	"github.com/RRZE-Webteam/rrze-updater/internal/ident"
)

// Record is the persisted form of an extension. Diagnostics are stored as
// plain text.
type Record struct {
	ID                 string `json:"id" toml:"id" yaml:"id"`
	ConnectorID        string `json:"connectorId" toml:"connectorId" yaml:"connectorId"`
	Repository         string `json:"repository" toml:"repository" yaml:"repository"`
	Branch             string `json:"branch" toml:"branch" yaml:"branch"`
	InstallationFolder string `json:"installationFolder" toml:"installationFolder" yaml:"installationFolder"`
	LocalVersion       string `json:"localVersion" toml:"localVersion" yaml:"localVersion"`
	RemoteVersion      string `json:"remoteVersion" toml:"remoteVersion" yaml:"remoteVersion"`
	Updates            string `json:"updates" toml:"updates" yaml:"updates"`
	LastChecked        int64  `json:"lastChecked" toml:"lastChecked" yaml:"lastChecked"`
	LastWarning        string `json:"lastWarning" toml:"lastWarning" yaml:"lastWarning"`
	LastError          string `json:"lastError" toml:"lastError" yaml:"lastError"`
}

// FromRecord rebuilds an extension. The connector reference is left for the
// caller to resolve. An unrecognised mode loads as disabled and a missing
// branch as DefaultBranch.
func FromRecord(kind Kind, r Record) *Extension {
	id := strings.TrimSpace(r.ID)
	if id == "" {
		id = ident.New()
	}
	branch := strings.TrimSpace(r.Branch)
	if branch == "" {
		branch = DefaultBranch
	}
	mode, _ := ParseMode(r.Updates)
	return &Extension{
		ID:                 id,
		Kind:               kind,
		ConnectorID:        r.ConnectorID,
		Repository:         r.Repository,
		Branch:             branch,
		InstallationFolder: r.InstallationFolder,
		Updates:            mode,
		LocalVersion:       r.LocalVersion,
		RemoteVersion:      r.RemoteVersion,
		LastChecked:        r.LastChecked,
		LastWarning:        r.LastWarning,
		LastError:          r.LastError,
	}
}

// Record returns the persisted form
func (e *Extension) Record() Record {
	return Record{
		ID:                 e.ID,
		ConnectorID:        e.ConnectorID,
		Repository:         e.Repository,
		Branch:             e.Branch,
		InstallationFolder: e.InstallationFolder,
		LocalVersion:       e.LocalVersion,
		RemoteVersion:      e.RemoteVersion,
		Updates:            string(e.Updates),
		LastChecked:        e.LastChecked,
		LastWarning:        e.LastWarning,
		LastError:          e.LastError,
	}
}
