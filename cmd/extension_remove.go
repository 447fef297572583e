package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/RRZE-Webteam/rrze-updater/internal/extension"
)

func newExtensionRemoveCmd(kind extension.Kind) *cobra.Command {
	return &cobra.Command{
		Use:     "remove <id|repository>",
		Aliases: []string{"rm"},
		Short:   fmt.Sprintf("Stop tracking a %s", kind),
		Long:    `Stop tracking an entry. The installed files are left in place.`,
		Args:    cobra.ExactArgs(1),
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

			if err := a.service.DeleteExtension(ctx, kind, e.ID); err != nil {
				return err
			}

			fmt.Printf("Stopped tracking %s %s\n", kind, extensionRef(e))
			return nil
		},
	}
}
