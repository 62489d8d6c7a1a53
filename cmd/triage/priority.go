package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/counselhq/triage/internal/types"
)

var priorityCmd = &cobra.Command{
	Use:   "priority <title> [description]",
	Short: "Classify a ticket's priority",
	Long: `Classify the priority of a ticket from its title and description.

The classifier returns one of: urgent, high, medium, low. An unusable model
response falls back to medium rather than failing the intake flow.`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		a, err := initApp(true)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer a.close()

		title := args[0]
		description := strings.Join(args[1:], " ")

		p := a.classifier.DetectPriority(context.Background(), title, description)
		fmt.Printf("Priority: %s\n", colorPriority(p))
	},
}

func colorPriority(p types.Priority) string {
	switch p {
	case types.PriorityUrgent:
		return color.RedString(string(p))
	case types.PriorityHigh:
		return color.YellowString(string(p))
	case types.PriorityLow:
		return color.HiBlackString(string(p))
	default:
		return string(p)
	}
}

func init() {
	rootCmd.AddCommand(priorityCmd)
}
