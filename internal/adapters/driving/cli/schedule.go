package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-datasets/internal/core/domain"
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Run background maintenance tasks",
	Long: `The repair task rebuilds every indexed dataset from the store so the
vector index recovers from drift. It runs on the repair.schedule cron
expression while 'schedule start' is running.`,
}

var scheduleRunCmd = &cobra.Command{
	Use:   "run [task-id]",
	Short: "Run a task now",
	Long:  "Run a task immediately. Defaults to " + domain.TaskIDIndexRepair + ".",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runScheduleRun,
}

var scheduleStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Run scheduled tasks until interrupted",
	Args:  cobra.NoArgs,
	RunE:  runScheduleStart,
}

func init() {
	addGopsFlag(scheduleStartCmd)
	scheduleCmd.AddCommand(scheduleRunCmd)
	scheduleCmd.AddCommand(scheduleStartCmd)
	rootCmd.AddCommand(scheduleCmd)
}

func runScheduleRun(cmd *cobra.Command, args []string) error {
	if scheduler == nil {
		return errors.New("scheduler not configured")
	}

	taskID := domain.TaskIDIndexRepair
	if len(args) == 1 {
		taskID = args[0]
	}

	if err := scheduler.RunNow(cmd.Context(), taskID); err != nil {
		return fmt.Errorf("task %s failed: %w", taskID, err)
	}
	cmd.Println(cliStyles.Success.Render("Task " + taskID + " completed"))
	return nil
}

func runScheduleStart(cmd *cobra.Command, _ []string) error {
	if scheduler == nil {
		return errors.New("scheduler not configured")
	}
	stop := startGops(cmd)
	defer stop()

	cmd.Println("Scheduler running (Ctrl+C to stop)")
	err := scheduler.Start(cmd.Context())
	if stopErr := scheduler.Stop(); stopErr != nil {
		cmd.PrintErrf("scheduler stop error: %v\n", stopErr)
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("scheduler stopped: %w", err)
	}
	return nil
}
