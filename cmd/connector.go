package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/RRZE-Webteam/rrze-updater/internal/connector"
)

var connectorCmd = &cobra.Command{
	Use:     "connector",
	Aliases: []string{"connectors"},
	Short:   "Manage GitHub and GitLab connectors",
	Long: `A connector is one account on a hosting service: GitHub.com or RRZE GitLab.
Plugins and themes reference a connector to reach their repository.`,
}

var (
	connectorAddType  string
	connectorAddToken string
	connectorEditTok  string
	connectorListJSON bool
)

var connectorAddCmd = &cobra.Command{
	Use:   "add <owner>",
	Short: "Register a connector",
	Long: `Register a connector for a repository owner (user, organisation or group).

Examples:
  rrze-updater connector add RRZE-Webteam
  rrze-updater connector add webteam --type gitlab --token glpat-xxxx`,
	Args: cobra.ExactArgs(1),
	RunE: runConnectorAdd,
}

var connectorEditCmd = &cobra.Command{
	Use:   "edit <id>",
	Short: "Replace a connector's access token",
	Args:  cobra.ExactArgs(1),
	RunE:  runConnectorEdit,
}

var connectorListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List connectors and how many extensions use them",
	RunE:    runConnectorList,
}

var connectorRemoveCmd = &cobra.Command{
	Use:     "remove <id>",
	Aliases: []string{"rm"},
	Short:   "Remove a connector no extension uses",
	Args:    cobra.ExactArgs(1),
	RunE:    runConnectorRemove,
}

var connectorPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Remove every connector no extension uses",
	RunE:  runConnectorPrune,
}

func init() {
	connectorAddCmd.Flags().StringVarP(&connectorAddType, "type", "t", string(connector.GitHub),
		"connector type ("+kindList()+")")
	connectorAddCmd.Flags().StringVar(&connectorAddToken, "token", "", "access token")
	connectorEditCmd.Flags().StringVar(&connectorEditTok, "token", "", "new access token (empty removes it)")
	connectorListCmd.Flags().BoolVarP(&connectorListJSON, "json", "j", false, "Output as JSON")

	connectorCmd.AddCommand(connectorAddCmd, connectorEditCmd, connectorListCmd, connectorRemoveCmd, connectorPruneCmd)
	rootCmd.AddCommand(connectorCmd)
}

func kindList() string {
	var kinds []string
	for _, k := range connector.Kinds() {
		kinds = append(kinds, string(k))
	}
	return strings.Join(kinds, "|")
}

func runConnectorAdd(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	kind := connector.Kind(strings.ToLower(connectorAddType))
	c, err := a.service.AddConnector(ctx, kind, args[0], connectorAddToken)
	if err != nil {
		return err
	}

	fmt.Printf("Added connector %s (%s, %s)\n", c.ID, c.Display, c.Owner)
	return nil
}

func runConnectorEdit(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	c, err := a.service.EditConnector(ctx, args[0], connectorEditTok)
	if err != nil {
		return err
	}

	if c.Token == "" {
		fmt.Printf("Removed token of connector %s\n", c.ID)
	} else {
		fmt.Printf("Updated token of connector %s\n", c.ID)
	}
	return nil
}

func runConnectorList(cmd *cobra.Command, args []string) error {
	a, err := openApp(context.Background())
	if err != nil {
		return err
	}
	defer a.Close()

	connectors := a.settings.Connectors
	if connectorListJSON {
		type repoJSON struct {
			Kind       string `json:"kind"`
			ID         string `json:"id"`
			Repository string `json:"repository"`
			Folder     string `json:"installationFolder"`
			Branch     string `json:"branch"`
		}
		type connectorJSON struct {
			ID      string     `json:"id"`
			Type    string     `json:"type"`
			Display string     `json:"display"`
			Owner   string     `json:"owner"`
			Token   bool       `json:"hasToken"`
			Repos   []repoJSON `json:"repositories"`
		}

		output := []connectorJSON{}
		for _, c := range connectors {
			cj := connectorJSON{
				ID:      c.ID,
				Type:    string(c.Kind),
				Display: c.Display,
				Owner:   c.Owner,
				Token:   c.Token != "",
				Repos:   []repoJSON{},
			}
			for _, u := range a.settings.ConnectorRepos(c.ID) {
				cj.Repos = append(cj.Repos, repoJSON{
					Kind:       string(u.Kind),
					ID:         u.ExtensionID,
					Repository: u.Repository,
					Folder:     u.InstallationFolder,
					Branch:     u.Branch,
				})
			}
			output = append(output, cj)
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(output)
	}

	if len(connectors) == 0 {
		fmt.Println("No connectors registered")
		fmt.Println()
		fmt.Println("Add one with:")
		fmt.Println("  rrze-updater connector add <owner> [--type github|gitlab] [--token TOKEN]")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "ID\tSERVICE\tOWNER\tTOKEN\tREPOSITORIES\n")
	for _, c := range connectors {
		token := "no"
		if c.Token != "" {
			token = "yes"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\n", c.ID, c.Display, c.Owner, token, a.settings.ConnectorRepoCount(c.ID))
	}
	return w.Flush()
}

func runConnectorRemove(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	id := args[0]
	if repos := a.settings.ConnectorRepos(id); len(repos) > 0 {
		fmt.Printf("Connector %s is used by %d extensions:\n", id, len(repos))
		for _, u := range repos {
			fmt.Printf("  - %s %s (%s)\n", u.Kind, u.Repository, u.InstallationFolder)
		}
		fmt.Println()
		fmt.Println("Remove or edit them first")
	}

	if err := a.service.DeleteConnector(ctx, id); err != nil {
		return err
	}

	fmt.Printf("Removed connector: %s\n", id)
	return nil
}

func runConnectorPrune(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	removed, err := a.service.PruneConnectors(ctx)
	if err != nil {
		return err
	}

	if len(removed) == 0 {
		fmt.Println("No unused connectors")
		return nil
	}
	for _, id := range removed {
		fmt.Printf("Removed connector: %s\n", id)
	}
	return nil
}
