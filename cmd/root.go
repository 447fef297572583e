package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/RRZE-Webteam/rrze-updater/internal/config"
)

var Version = "dev"

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "rrze-updater",
	Short: "Keep plugins and themes in sync with their Git repositories",
	Long: `rrze-updater tracks WordPress plugins and themes that live in GitHub or
RRZE GitLab repositories. It checks them for new tags or commits, reports what
is outdated and installs new versions on request.`,
	Version: Version,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		setupLogging()
	},
	SilenceUsage:  true,
	SilenceErrors: true,
	Run:           runRoot,
}

func runRoot(cmd *cobra.Command, args []string) {
	paths := config.PathsFor(viper.GetString("data_dir"))
	if !paths.IsInitialized() {
		fmt.Println("rrze-updater")
		fmt.Println()
		fmt.Println("Not initialized. Get started with:")
		fmt.Println()
		fmt.Println("  rrze-updater init                 Create the data directories")
		fmt.Println("  rrze-updater connector add ...    Register a GitHub or GitLab account")
		fmt.Println("  rrze-updater --help               Show all commands")
		return
	}

	cmd.Help()
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.rrze-updater.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().String("data-dir", "", "directory holding the settings")
	rootCmd.PersistentFlags().String("plugins-dir", "", "directory of installed plugins")
	rootCmd.PersistentFlags().String("themes-dir", "", "directory of installed themes")

	viper.BindPFlag("data_dir", rootCmd.PersistentFlags().Lookup("data-dir"))
	viper.BindPFlag("plugins_dir", rootCmd.PersistentFlags().Lookup("plugins-dir"))
	viper.BindPFlag("themes_dir", rootCmd.PersistentFlags().Lookup("themes-dir"))

	rootCmd.CompletionOptions.HiddenDefaultCmd = true
}

// initConfig loads configuration from the config file and environment
func initConfig() {
	paths, err := config.ResolvePaths()
	if err != nil {
		slog.Error("failed to resolve data directory", "error", err)
		os.Exit(1)
	}
	config.SetDefaults(viper.GetViper(), paths)
	config.BindEnv(viper.GetViper())

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			slog.Error("failed to find home directory", "error", err)
			os.Exit(1)
		}

		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".rrze-updater")
	}

	if err := viper.ReadInConfig(); err == nil {
		slog.Debug("using config file", "file", viper.ConfigFileUsed())
	}
}

func setupLogging() {
	level := slog.LevelInfo
	if lvl := viper.GetString("log.level"); lvl != "" {
		level.UnmarshalText([]byte(lvl))
	}
	if verbose {
		level = slog.LevelDebug
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)
}
