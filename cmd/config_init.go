package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default configuration to $HOME/.rrze-updater.yaml",
	Long: `Write every configuration key with its current value to a YAML config
file. An existing file is left untouched.

Example .rrze-updater.yaml:

  data_dir: /var/lib/rrze-updater
  plugins_dir: /var/www/html/wp-content/plugins
  themes_dir: /var/www/html/wp-content/themes
  settings:
    backend: file
    format: toml
  schedule:
    interval: 12h
    recheck_after: 1h`,
	RunE: runConfigInit,
}

func init() {
	configCmd.AddCommand(configInitCmd)
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	configPath := cfgFile
	if configPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return err
		}
		configPath = filepath.Join(home, ".rrze-updater.yaml")
	}

	if err := viper.SafeWriteConfigAs(configPath); err != nil {
		var exists viper.ConfigFileAlreadyExistsError
		if errors.As(err, &exists) {
			fmt.Printf("Config already exists: %s\n", configPath)
			fmt.Println("Edit it directly or delete to regenerate.")
			return nil
		}
		return fmt.Errorf("failed to save config: %w", err)
	}

	fmt.Printf("Created: %s\n", configPath)
	return nil
}
