package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/RRZE-Webteam/rrze-updater/internal/config"
	"github.com/RRZE-Webteam/rrze-updater/internal/connector"
	"github.com/RRZE-Webteam/rrze-updater/internal/settings"
	"github.com/RRZE-Webteam/rrze-updater/internal/store"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the data directories and an empty registry",
	Long: `Create the data directory, the plugins and themes directories and an
empty settings registry. Running it again leaves an existing registry as is.`,
	RunE: runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return err
	}

	for _, dir := range []string{cfg.Paths.DataDir, cfg.Paths.PluginsDir, cfg.Paths.ThemesDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}

	ctx := context.Background()
	st, err := store.Open(cfg.SettingsBackend, cfg.SettingsPath())
	if err != nil {
		return err
	}
	defer st.Close()

	if _, err := st.Load(ctx); err == nil {
		fmt.Printf("Already initialized: %s\n", cfg.SettingsPath())
		return nil
	} else if !errors.Is(err, store.ErrNotFound) {
		return err
	}

	codec, err := settings.CodecFor(cfg.SettingsFormat)
	if err != nil {
		return err
	}
	if err := settings.Open(st, codec, connector.Env{}).Save(ctx); err != nil {
		return err
	}

	fmt.Printf("Initialized %s\n", cfg.Paths.DataDir)
	fmt.Printf("  settings: %s\n", cfg.SettingsPath())
	fmt.Printf("  plugins:  %s\n", cfg.Paths.PluginsDir)
	fmt.Printf("  themes:   %s\n", cfg.Paths.ThemesDir)
	return nil
}
