package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var outdatedCmd = &cobra.Command{
	Use:   "outdated",
	Short: "Show plugins and themes with available updates",
	Long: `List every tracked entry whose last check found a newer remote version.
Nothing is fetched; run 'rrze-updater check' first for fresh results.

Examples:
  rrze-updater outdated
  rrze-updater plugin update --all   # install them`,
	RunE: runOutdated,
}

func init() {
	rootCmd.AddCommand(outdatedCmd)
}

func runOutdated(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	if _, err := a.service.Synchronize(ctx); err != nil {
		return err
	}

	outdated := a.service.Outdated()
	if len(outdated) == 0 {
		fmt.Println("Everything is up to date")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "KIND\tREPOSITORY\tCURRENT\tAVAILABLE\tCHECKED\n")
	for _, e := range outdated {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			e.Kind,
			e.Repository,
			orDash(e.VersionLabel(e.LocalVersion)),
			okStyle.Render(e.VersionLabel(e.RemoteVersion)),
			lastChecked(e),
		)
	}
	return w.Flush()
}
