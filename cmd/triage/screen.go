package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var screenCmd = &cobra.Command{
	Use:   "screen <message>",
	Short: "Screen a message for crisis and grief indicators",
	Long: `Screen an incoming message for crisis and grief indicators.

Both checks deliberately fail to false on any error: a provider outage must
never block intake, and a flagged message always gets human review anyway.`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		a, err := initApp(true)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer a.close()

		ctx := context.Background()
		message := strings.Join(args, " ")

		crisis := a.classifier.DetectCrisis(ctx, message)
		grief := a.classifier.DetectGrief(ctx, message)

		if crisis {
			fmt.Printf("Crisis: %s\n", color.RedString("DETECTED"))
		} else {
			fmt.Println("Crisis: not detected")
		}
		if grief {
			fmt.Printf("Grief:  %s\n", color.YellowString("detected"))
		} else {
			fmt.Println("Grief:  not detected")
		}
	},
}

func init() {
	rootCmd.AddCommand(screenCmd)
}
