package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Run update sweeps on a fixed cadence until interrupted",
	Long: `Run a sweep every schedule.interval until SIGINT or SIGTERM.

In a multi-tenant deployment only the tenant whose tenant.id equals
tenant.primary_id schedules sweeps; every other tenant exits immediately.`,
	RunE: runSchedule,
}

func init() {
	rootCmd.AddCommand(scheduleCmd)
}

func runSchedule(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	s := a.newScheduler()
	if !s.Activate() {
		fmt.Printf("Tenant %d is not the primary tenant (%d): nothing to schedule\n",
			a.cfg.TenantID, a.cfg.PrimaryTenantID)
		return nil
	}

	slog.Info("waiting for signal", "interval", a.cfg.ScheduleInterval)
	<-ctx.Done()
	s.Stop()
	return nil
}
