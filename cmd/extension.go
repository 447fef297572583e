package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/RRZE-Webteam/rrze-updater/internal/extension"
	"github.com/RRZE-Webteam/rrze-updater/internal/picker"
)

// newExtensionCmd builds the command group for one extension kind. Plugins
// and themes share every subcommand.
func newExtensionCmd(kind extension.Kind, plural string) *cobra.Command {
	c := &cobra.Command{
		Use:     string(kind),
		Aliases: []string{plural},
		Short:   "Manage tracked " + plural,
		Long: fmt.Sprintf(`Track %s installed from a Git repository.

A tracked %s follows either the latest tag or the latest commit on a branch
of its repository. Entries whose installation folder disappears are dropped
on the next check.`, plural, kind),
	}

	c.AddCommand(
		newExtensionAddCmd(kind),
		newExtensionEditCmd(kind),
		newExtensionListCmd(kind, plural),
		newExtensionRemoveCmd(kind),
		newExtensionCheckCmd(kind),
		newExtensionUpdateCmd(kind, plural),
	)
	return c
}

func init() {
	rootCmd.AddCommand(
		newExtensionCmd(extension.Plugin, "plugins"),
		newExtensionCmd(extension.Theme, "themes"),
	)
}

// parseMode reads the --updates flag
func parseMode(s string) (extension.Mode, error) {
	m, ok := extension.ParseMode(s)
	if !ok {
		return "", fmt.Errorf("invalid --updates %q: use tags, commits or none", s)
	}
	return m, nil
}

// chooseConnector returns id when set. Otherwise a single registered
// connector is used as is, and several are offered in a picker when the
// session is interactive.
func chooseConnector(a *app, id string) (string, error) {
	if id != "" {
		return id, nil
	}

	connectors := a.settings.Connectors
	switch {
	case len(connectors) == 0:
		return "", fmt.Errorf("no connectors registered: run 'rrze-updater connector add' first")
	case len(connectors) == 1:
		return connectors[0].ID, nil
	case !picker.Interactive():
		return "", fmt.Errorf("several connectors registered: choose one with --connector")
	}

	items := make([]picker.Item, 0, len(connectors))
	for _, c := range connectors {
		items = append(items, picker.Item{ID: c.ID, Label: c.Owner, Hint: c.Display + " " + c.ID})
	}
	chosen, err := picker.RunSingle("Select a connector", items)
	if err != nil {
		return "", err
	}
	if chosen == "" {
		return "", fmt.Errorf("cancelled")
	}
	return chosen, nil
}

// extensionRef renders an extension for one-line messages
func extensionRef(e *extension.Extension) string {
	var b strings.Builder
	b.WriteString(e.Repository)
	if e.InstallationFolder != e.Repository {
		b.WriteString(" → ")
		b.WriteString(e.InstallationFolder)
	}
	return b.String()
}
