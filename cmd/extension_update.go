package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/RRZE-Webteam/rrze-updater/internal/extension"
	"github.com/RRZE-Webteam/rrze-updater/internal/picker"
)

func newExtensionUpdateCmd(kind extension.Kind, plural string) *cobra.Command {
	var all bool

	c := &cobra.Command{
		Use:   "update [id|repository...]",
		Short: "Install the latest checked version",
		Long: fmt.Sprintf(`Install the remote version found by the last check. Without arguments the
outdated %s are offered in a checklist, or all of them with --all.`, plural),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			targets := args
			if len(targets) == 0 {
				var outdated []*extension.Extension
				for _, e := range a.service.Outdated() {
					if e.Kind == kind {
						outdated = append(outdated, e)
					}
				}
				if len(outdated) == 0 {
					fmt.Printf("All %s are up to date\n", plural)
					return nil
				}

				switch {
				case all:
					for _, e := range outdated {
						targets = append(targets, e.ID)
					}
				case picker.Interactive():
					items := make([]picker.Item, 0, len(outdated))
					for _, e := range outdated {
						items = append(items, picker.Item{
							ID:       e.ID,
							Label:    e.Repository,
							Hint:     orDash(e.VersionLabel(e.LocalVersion)) + " → " + e.VersionLabel(e.RemoteVersion),
							Selected: true,
						})
					}
					if targets, err = picker.RunChecklist("Select "+plural+" to update", items); err != nil {
						return err
					}
				default:
					return fmt.Errorf("%d %s outdated: name them or pass --all", len(outdated), plural)
				}
			}

			failed := 0
			for _, target := range targets {
				e, err := a.service.UpdateExtension(ctx, kind, target)
				if err != nil {
					fmt.Printf("%s %s\n", errorStyle.Render("✗"), err)
					failed++
					continue
				}
				fmt.Printf("%s %s %s\n", okStyle.Render("✓"), extensionRef(e), e.VersionLabel(e.LocalVersion))
			}

			if failed > 0 {
				return fmt.Errorf("%d of %d updates failed", failed, len(targets))
			}
			return nil
		},
	}

	c.Flags().BoolVarP(&all, "all", "a", false, "update every outdated entry without asking")
	return c
}
