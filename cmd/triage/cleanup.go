package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Purge expired similarity cache rows",
	Long: `Delete similarity rows whose TTL has elapsed.

Expired rows are already invisible to lookups; this reclaims the space. The
scheduler runs this daily at 04:30, so manual runs are only needed after a
large sweep or before a backup.`,
	Run: func(cmd *cobra.Command, args []string) {
		a, err := initApp(false)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer a.close()

		n, err := a.cache.Purge(context.Background())
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: purge failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Purged %d expired similarity rows\n", n)
	},
}

func init() {
	rootCmd.AddCommand(cleanupCmd)
}
