package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Recompute historical similarity for all open tickets",
	Long: `Run the reconciliation sweep once, immediately.

The sweep compares every open ticket against the corpus of resolved tickets
and replaces each ticket's historical similarity snapshot. A failure on one
ticket is logged and skipped; the sweep continues with the rest.

Normally the scheduler runs this weekly (Sunday 03:00); use this command to
force a run after a bulk import or a threshold change.`,
	Run: func(cmd *cobra.Command, args []string) {
		a, err := initApp(true)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer a.close()

		green := color.New(color.FgGreen).SprintFunc()
		red := color.New(color.FgRed).SprintFunc()

		fmt.Println("Starting reconciliation sweep...")

		stats, err := a.sweep.Run(context.Background())
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: sweep failed: %v\n", err)
			os.Exit(1)
		}

		fmt.Printf("\nSweep complete in %s\n", stats.Duration.Round(time.Millisecond))
		fmt.Printf("  Open tickets:     %d\n", stats.Unresolved)
		fmt.Printf("  Resolved corpus:  %d\n", stats.Resolved)
		fmt.Printf("  Succeeded:        %s\n", green(fmt.Sprintf("%d", stats.Succeeded)))
		if stats.Failed > 0 {
			fmt.Printf("  Failed:           %s\n", red(fmt.Sprintf("%d", stats.Failed)))
		} else {
			fmt.Printf("  Failed:           %d\n", stats.Failed)
		}
	},
}

func init() {
	rootCmd.AddCommand(sweepCmd)
}
