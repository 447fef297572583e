package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/RRZE-Webteam/rrze-updater/internal/extension"
)

func newExtensionAddCmd(kind extension.Kind) *cobra.Command {
	var (
		connectorID string
		branch      string
		folder      string
		updates     string
	)

	c := &cobra.Command{
		Use:   "add <repository>",
		Short: fmt.Sprintf("Install a %s from its repository and track it", kind),
		Long: fmt.Sprintf(`Download the current snapshot of a repository, install it as a %s and
start tracking it. The snapshot is the latest tag or commit for the chosen
--updates mode, or the branch head when tracking is off.

Examples:
  rrze-updater %s add rrze-faq --updates tags
  rrze-updater %s add rrze-theme --connector 1a2b3c4d --branch develop --updates commits`,
			kind, kind, kind),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mode, err := parseMode(updates)
			if err != nil {
				return err
			}

			ctx := context.Background()
			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			id, err := chooseConnector(a, connectorID)
			if err != nil {
				return err
			}

			e, err := a.service.AddExtension(ctx, kind, extension.Params{
				ConnectorID:        id,
				Repository:         args[0],
				Branch:             branch,
				InstallationFolder: folder,
				Updates:            mode,
			})
			if err != nil {
				return err
			}

			fmt.Printf("Installed %s %s\n", kind, extensionRef(e))
			if v := e.VersionLabel(e.LocalVersion); v != "" {
				fmt.Printf("  version: %s\n", v)
			}
			if e.LastWarning != "" {
				fmt.Printf("  %s\n", warningStyle.Render(e.LastWarning))
			}
			return nil
		},
	}

	c.Flags().StringVarP(&connectorID, "connector", "c", "", "connector id (asks when several exist)")
	c.Flags().StringVarP(&branch, "branch", "b", extension.DefaultBranch, "branch to track")
	c.Flags().StringVarP(&folder, "folder", "f", "", "installation folder (default: repository name)")
	c.Flags().StringVarP(&updates, "updates", "u", "none", "what to follow: tags, commits or none")
	return c
}
