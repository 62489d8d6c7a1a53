// Command triage is the operational CLI for the ticket-triage similarity
// service: run the reconciliation sweep, query similar tickets, classify
// priorities, and manage the similarity cache.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "triage",
	Short: "AI-powered ticket triage and similarity matching",
	Long: `triage runs the AI-call resilience and similarity-matching core of the
counseling-support platform: rate-limited, retried model calls that score
ticket relatedness, cached with TTLs in the local database.`,
	SilenceUsage: true,
}

var configPath string

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to YAML config file")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
