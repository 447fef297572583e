package cmd

import (
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/RRZE-Webteam/rrze-updater/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration utilities",
	Long:  `Show and initialize the rrze-updater configuration.`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Long: `Print every configuration key with its effective value, after the
config file, RRZE_UPDATER_* environment variables and flags are applied.`,
	RunE: runConfigShow,
}

func init() {
	configCmd.AddCommand(configShowCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	if _, err := config.Load(viper.GetViper()); err != nil {
		return err
	}

	if used := viper.ConfigFileUsed(); used != "" {
		fmt.Printf("Config file: %s\n\n", used)
	}

	keys := viper.AllKeys()
	sort.Strings(keys)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "KEY\tVALUE\n")
	for _, k := range keys {
		fmt.Fprintf(w, "%s\t%v\n", k, viper.Get(k))
	}
	return w.Flush()
}
