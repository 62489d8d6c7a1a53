package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/counselhq/triage/internal/types"
)

var ticketCmd = &cobra.Command{
	Use:   "ticket",
	Short: "Create, resolve, and inspect tickets",
}

var ticketCreateCmd = &cobra.Command{
	Use:   "create <title> [description]",
	Short: "Create a ticket",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		a, err := initApp(false)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer a.close()

		now := time.Now().UTC()
		ticket := &types.Ticket{
			ID:          uuid.New().String(),
			Title:       args[0],
			Description: strings.Join(args[1:], " "),
			Status:      types.StatusOpen,
			CreatedAt:   now,
			UpdatedAt:   now,
		}

		if err := a.store.CreateTicket(context.Background(), ticket); err != nil {
			fmt.Fprintf(os.Stderr, "Error: failed to create ticket: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Created ticket %s\n", color.CyanString(ticket.ID))
	},
}

var ticketResolveCmd = &cobra.Command{
	Use:   "resolve <ticket-id> <resolution>",
	Short: "Mark a ticket resolved",
	Long: `Mark a ticket resolved with a resolution summary.

The resolution text is what the weekly sweep feeds the model when scoring
open tickets against past cases, so write it as the answer that helped.`,
	Args: cobra.MinimumNArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		a, err := initApp(false)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer a.close()

		id := args[0]
		resolution := strings.Join(args[1:], " ")

		if err := a.store.ResolveTicket(context.Background(), id, resolution); err != nil {
			fmt.Fprintf(os.Stderr, "Error: failed to resolve ticket: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Resolved ticket %s\n", color.CyanString(id))
	},
}

var ticketShowCmd = &cobra.Command{
	Use:   "show <ticket-id>",
	Short: "Show a ticket",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		a, err := initApp(false)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer a.close()

		ticket, err := a.store.GetTicket(context.Background(), args[0])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if ticket == nil {
			fmt.Fprintf(os.Stderr, "Error: ticket %s not found\n", args[0])
			os.Exit(1)
		}

		fmt.Printf("ID:          %s\n", ticket.ID)
		fmt.Printf("Title:       %s\n", ticket.Title)
		fmt.Printf("Status:      %s\n", ticket.Status)
		fmt.Printf("Created:     %s\n", ticket.CreatedAt.Format(time.RFC3339))
		if ticket.Description != "" {
			fmt.Printf("Description: %s\n", ticket.Description)
		}
		if ticket.Resolution != "" {
			fmt.Printf("Resolution:  %s\n", ticket.Resolution)
		}
	},
}

func init() {
	ticketCmd.AddCommand(ticketCreateCmd)
	ticketCmd.AddCommand(ticketResolveCmd)
	ticketCmd.AddCommand(ticketShowCmd)
	rootCmd.AddCommand(ticketCmd)
}
