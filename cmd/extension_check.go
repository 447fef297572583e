package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/RRZE-Webteam/rrze-updater/internal/extension"
)

func newExtensionCheckCmd(kind extension.Kind) *cobra.Command {
	return &cobra.Command{
		Use:   "check <id|repository>",
		Short: fmt.Sprintf("Check a %s for updates now", kind),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			e, err := a.service.CheckExtension(ctx, kind, args[0])
			if err != nil {
				return err
			}

			if !e.Updates.Enabled() {
				fmt.Printf("%s: update tracking is off\n", e.Repository)
				return nil
			}

			fmt.Printf("%s: %s\n", e.Repository, stateLabel(e.State()))
			if msg := diagnostic(e); msg != "" {
				fmt.Printf("  %s\n", msg)
			}
			switch {
			case e.UpdateAvailable():
				fmt.Printf("  update available: %s → %s\n",
					orDash(e.VersionLabel(e.LocalVersion)), e.VersionLabel(e.RemoteVersion))
			case e.RemoteVersion != "":
				fmt.Printf("  up to date (%s)\n", e.VersionLabel(e.RemoteVersion))
			}
			return nil
		},
	}
}
