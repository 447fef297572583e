package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/RRZE-Webteam/rrze-updater/internal/extension"
)

func newExtensionListCmd(kind extension.Kind, plural string) *cobra.Command {
	var asJSON bool

	c := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List tracked " + plural,
		Long: `List tracked entries with their versions and the outcome of the last
check. Entries that are no longer installed are dropped first.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			if _, err := a.service.Synchronize(ctx); err != nil {
				return err
			}
			list := a.settings.Extensions(kind)

			if asJSON {
				type extensionJSON struct {
					ID            string `json:"id"`
					Repository    string `json:"repository"`
					URL           string `json:"url,omitempty"`
					Folder        string `json:"installationFolder"`
					Branch        string `json:"branch"`
					Updates       string `json:"updates"`
					Installed     string `json:"installedVersion,omitempty"`
					LocalVersion  string `json:"localVersion"`
					RemoteVersion string `json:"remoteVersion"`
					State         string `json:"state"`
					Message       string `json:"message,omitempty"`
					LastChecked   int64  `json:"lastChecked"`
				}

				output := []extensionJSON{}
				for _, e := range list {
					ej := extensionJSON{
						ID:            e.ID,
						Repository:    e.Repository,
						Folder:        e.InstallationFolder,
						Branch:        e.Branch,
						Updates:       string(e.Updates),
						Installed:     a.service.InstalledVersion(e),
						LocalVersion:  e.LocalVersion,
						RemoteVersion: e.RemoteVersion,
						State:         string(e.State()),
						Message:       diagnostic(e),
						LastChecked:   e.LastChecked,
					}
					if e.Connector != nil {
						ej.URL = e.Connector.ResolveURL(e.Repository)
					}
					output = append(output, ej)
				}

				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(output)
			}

			if len(list) == 0 {
				fmt.Printf("No %s tracked\n", plural)
				fmt.Println()
				fmt.Println("Add one with:")
				fmt.Printf("  rrze-updater %s add <repository>\n", kind)
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintf(w, "ID\tREPOSITORY\tFOLDER\tUPDATES\tINSTALLED\tREMOTE\tSTATE\tCHECKED\n")
			for _, e := range list {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
					e.ID,
					e.Repository,
					e.InstallationFolder,
					orDash(string(e.Updates)),
					orDash(a.service.InstalledVersion(e)),
					orDash(e.VersionLabel(e.RemoteVersion)),
					stateLabel(e.State()),
					lastChecked(e),
				)
			}
			if err := w.Flush(); err != nil {
				return err
			}

			for _, e := range list {
				if msg := diagnostic(e); msg != "" {
					fmt.Printf("\n%s: %s", e.Repository, msg)
				}
			}
			fmt.Println()
			return nil
		},
	}

	c.Flags().BoolVarP(&asJSON, "json", "j", false, "Output as JSON")
	return c
}
