package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/counselhq/triage/internal/scheduler"
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Run the background scheduler",
	Long: `Run the background scheduler in the foreground until interrupted.

Registered jobs:
  - weekly reconciliation sweep (Sunday 03:00)
  - daily cache cleanup (04:30)

Job errors are logged and the scheduler keeps running.`,
	Run: func(cmd *cobra.Command, args []string) {
		a, err := initApp(true)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer a.close()

		sched := scheduler.New(a.logger)

		err = sched.Register(scheduler.Job{
			Name: "weekly-sweep",
			Spec: scheduler.WeeklySweepSpec,
			Run: func(ctx context.Context) error {
				_, err := a.sweep.Run(ctx)
				return err
			},
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: failed to register sweep job: %v\n", err)
			os.Exit(1)
		}

		err = sched.Register(scheduler.Job{
			Name: "daily-cleanup",
			Spec: scheduler.DailyCleanupSpec,
			Run: func(ctx context.Context) error {
				_, err := a.cache.Purge(ctx)
				return err
			},
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: failed to register cleanup job: %v\n", err)
			os.Exit(1)
		}

		sched.Start()
		fmt.Println("Scheduler running. Press Ctrl+C to stop.")

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
		<-sigCh

		fmt.Println("\nStopping scheduler...")
		sched.Stop()
	},
}

func init() {
	rootCmd.AddCommand(scheduleCmd)
}
