package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/RRZE-Webteam/rrze-updater/internal/scheduler"
)

var checkForce bool

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Run one update sweep",
	Long: `Drop entries that are no longer installed, then check every plugin and
theme whose last check is older than schedule.recheck_after. This is the
same pass the scheduler runs; use it from cron when no scheduler is running.

Like 'schedule', only the primary tenant checks. Pass --force to check from
any other tenant anyway.`,
	RunE: runCheck,
}

func init() {
	checkCmd.Flags().BoolVar(&checkForce, "force", false, "check even when this is not the primary tenant")
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	s := a.newScheduler()
	sweep := s.PrimarySweep
	if checkForce {
		sweep = s.Sweep
	}

	report, err := sweep(ctx)
	if errors.Is(err, scheduler.ErrNotPrimary) {
		fmt.Printf("Tenant %d is not the primary tenant (%d): nothing to schedule\n",
			a.cfg.TenantID, a.cfg.PrimaryTenantID)
		return nil
	}
	if err != nil {
		return err
	}

	fmt.Printf("Checked %d, skipped %d, dropped %d", report.Checked, report.Skipped, report.Pruned)
	if report.Failed > 0 {
		fmt.Printf(", %s", errorStyle.Render(fmt.Sprintf("%d failed", report.Failed)))
	}
	fmt.Println()

	if n := len(a.service.Outdated()); n > 0 {
		fmt.Printf("%d updates available: run 'rrze-updater outdated'\n", n)
	}
	return nil
}
