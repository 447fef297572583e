package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Diagnose common issues",
	Long: `Check for common rrze-updater issues.

Checks:
- Can the settings registry be read?
- Do the plugins and themes directories exist?
- Does every extension reference an existing connector?
- Is every tracked extension still installed?`,
	RunE: runDoctor,
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}

func runDoctor(cmd *cobra.Command, args []string) error {
	fmt.Println("=== rrze-updater doctor ===")
	fmt.Println()

	fmt.Print("Checking settings... ")
	a, err := openApp(context.Background())
	if err != nil {
		fmt.Println("FAIL")
		fmt.Printf("  → %v\n", err)
		return nil
	}
	defer a.Close()
	fmt.Printf("OK → %s\n", a.cfg.SettingsPath())

	issues := 0

	for _, dir := range []struct{ name, path string }{
		{"plugins", a.cfg.Paths.PluginsDir},
		{"themes", a.cfg.Paths.ThemesDir},
	} {
		fmt.Printf("Checking %s directory... ", dir.name)
		if info, err := os.Stat(dir.path); err != nil || !info.IsDir() {
			fmt.Println("FAIL")
			fmt.Printf("  → %s is not a directory\n", dir.path)
			issues++
			continue
		}
		fmt.Println("OK")
	}

	fmt.Print("Checking connector references... ")
	var dangling []string
	for _, e := range a.settings.All() {
		if e.Connector == nil {
			dangling = append(dangling, fmt.Sprintf("%s %s (connector %s)", e.Kind, e.Repository, orDash(e.ConnectorID)))
		}
	}
	if len(dangling) > 0 {
		fmt.Printf("FAIL (%d)\n", len(dangling))
		for _, d := range dangling {
			fmt.Printf("  → %s\n", d)
		}
		fmt.Println("  → Run 'rrze-updater plugin edit' or 'theme edit' to pick a connector")
		issues += len(dangling)
	} else {
		fmt.Println("OK")
	}

	fmt.Print("Checking installations... ")
	var missing []string
	installed := map[string]map[string]bool{}
	plugins, perr := a.inspector.InstalledPluginFolders()
	themes, terr := a.inspector.InstalledThemeFolders()
	if perr != nil || terr != nil {
		fmt.Println("SKIP")
	} else {
		installed["plugin"] = toSet(plugins)
		installed["theme"] = toSet(themes)
		for _, e := range a.settings.All() {
			if !installed[string(e.Kind)][e.InstallationFolder] {
				missing = append(missing, fmt.Sprintf("%s %s (%s)", e.Kind, e.Repository, e.InstallationFolder))
			}
		}
		if len(missing) > 0 {
			fmt.Printf("WARN (%d not installed)\n", len(missing))
			for _, m := range missing[:min(5, len(missing))] {
				fmt.Printf("  → %s\n", m)
			}
			if len(missing) > 5 {
				fmt.Printf("  → ... and %d more\n", len(missing)-5)
			}
			fmt.Println("  → The next 'rrze-updater check' stops tracking them")
		} else {
			fmt.Println("OK")
		}
	}

	fmt.Println()
	if issues == 0 {
		fmt.Println("All checks passed!")
	} else {
		fmt.Printf("Found %d issue(s)\n", issues)
	}

	return nil
}

func toSet(items []string) map[string]bool {
	set := make(map[string]bool, len(items))
	for _, it := range items {
		set[it] = true
	}
	return set
}
