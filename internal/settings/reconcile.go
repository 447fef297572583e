package settings

import (
	"github.com/RRZE-Webteam/rrze-updater/internal/extension"
)

// Reconcile prunes tracked extensions whose installation folder is empty or
// not among the installed folders, and returns what it removed. Entries are
// never added back.
func (s *Settings) Reconcile(installedPlugins, installedThemes []string) []*extension.Extension {
	var removed []*extension.Extension
	s.Plugins, removed = prune(s.Plugins, installedPlugins, removed)
	s.Themes, removed = prune(s.Themes, installedThemes, removed)

	for _, e := range removed {
		s.logger.Info("no longer installed, untracking",
			"kind", e.Kind, "repository", e.Repository, "folder", e.InstallationFolder)
	}
	return removed
}

func prune(list []*extension.Extension, installed []string, removed []*extension.Extension) ([]*extension.Extension, []*extension.Extension) {
	present := make(map[string]struct{}, len(installed))
	for _, f := range installed {
		present[f] = struct{}{}
	}

	kept := make([]*extension.Extension, 0, len(list))
	for _, e := range list {
		if _, ok := present[e.InstallationFolder]; e.InstallationFolder != "" && ok {
			kept = append(kept, e)
			continue
		}
		removed = append(removed, e)
	}
	return kept, removed
}

// RepoUsage describes one extension served by a connector
type RepoUsage struct {
	Kind               extension.Kind
	ExtensionID        string
	Repository         string
	InstallationFolder string
	Branch             string
	Owner              string
	Display            string
}

// ConnectorRepos lists the plugins and themes that use a connector
func (s *Settings) ConnectorRepos(id string) []RepoUsage {
	c, _ := s.ConnectorByID(id)

	var repos []RepoUsage
	for _, e := range s.All() {
		if e.ConnectorID != id {
			continue
		}
		u := RepoUsage{
			Kind:               e.Kind,
			ExtensionID:        e.ID,
			Repository:         e.Repository,
			InstallationFolder: e.InstallationFolder,
			Branch:             e.Branch,
		}
		if c != nil {
			u.Owner = c.Owner
			u.Display = c.Display
		}
		repos = append(repos, u)
	}
	return repos
}

// ConnectorRepoCount counts the extensions that use a connector
func (s *Settings) ConnectorRepoCount(id string) int {
	n := 0
	for _, e := range s.All() {
		if e.ConnectorID == id {
			n++
		}
	}
	return n
}
