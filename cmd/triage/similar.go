package main

import (
	"context"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/counselhq/triage/internal/types"
)

var similarHistorical bool

var similarCmd = &cobra.Command{
	Use:   "similar <ticket-id>",
	Short: "Find tickets similar to the given ticket",
	Long: `Find tickets similar to the given open ticket.

By default this compares against other open tickets, serving from the
similarity cache when a fresh snapshot exists and calling the model
otherwise. With --historical it reads the cached snapshot computed by the
weekly sweep against resolved tickets (no model calls).`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		a, err := initApp(!similarHistorical)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer a.close()

		ctx := context.Background()
		ticketID := args[0]

		var results []types.SimilarityResult
		if similarHistorical {
			results = a.cache.Lookup(ctx, ticketID, types.MatchHistorical)
		} else {
			results, err = a.service.FindSimilarActive(ctx, ticketID)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
		}

		if len(results) == 0 {
			fmt.Println("No similar tickets found.")
			return
		}

		cyan := color.New(color.FgCyan).SprintFunc()
		fmt.Printf("Similar tickets for %s:\n\n", cyan(ticketID))
		for _, r := range results {
			fmt.Printf("  %s  score %d\n", r.TicketID, r.Score)
		}
	},
}

func init() {
	similarCmd.Flags().BoolVar(&similarHistorical, "historical", false, "Read the cached snapshot against resolved tickets")
	rootCmd.AddCommand(similarCmd)
}
