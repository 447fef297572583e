package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/RRZE-Webteam/rrze-updater/internal/extension"
)

func newExtensionEditCmd(kind extension.Kind) *cobra.Command {
	var (
		connectorID string
		repository  string
		branch      string
		updates     string
	)

	c := &cobra.Command{
		Use:   "edit <id|repository>",
		Short: fmt.Sprintf("Change what a %s tracks", kind),
		Long: `Change the connector, repository, branch or tracking mode. Flags that are
not given keep their current value. The entry is checked again right away;
nothing is installed.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			e, ok := a.settings.ExtensionByID(kind, args[0])
			if !ok {
				e, ok = a.settings.ExtensionByRepository(kind, args[0])
			}
			if !ok {
				return fmt.Errorf("%s %q is not tracked", kind, args[0])
			}

			p := extension.Params{
				ConnectorID: e.ConnectorID,
				Repository:  e.Repository,
				Branch:      e.Branch,
				Updates:     e.Updates,
			}
			flags := cmd.Flags()
			if flags.Changed("connector") {
				p.ConnectorID = connectorID
			}
			if flags.Changed("repository") {
				p.Repository = repository
			}
			if flags.Changed("branch") {
				p.Branch = branch
			}
			if flags.Changed("updates") {
				if p.Updates, err = parseMode(updates); err != nil {
					return err
				}
			}

			e, err = a.service.EditExtension(ctx, kind, e.ID, p)
			if err != nil {
				return err
			}

			fmt.Printf("Updated %s %s (%s)\n", kind, extensionRef(e), stateLabel(e.State()))
			if msg := diagnostic(e); msg != "" {
				fmt.Printf("  %s\n", msg)
			}
			return nil
		},
	}

	c.Flags().StringVarP(&connectorID, "connector", "c", "", "connector id")
	c.Flags().StringVarP(&repository, "repository", "r", "", "repository name")
	c.Flags().StringVarP(&branch, "branch", "b", "", "branch to track")
	c.Flags().StringVarP(&updates, "updates", "u", "", "what to follow: tags, commits or none")
	return c
}
