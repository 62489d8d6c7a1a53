package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/counselhq/triage/internal/triageai"
)

var booksCatalogPath string

var booksCmd = &cobra.Command{
	Use:   "books <need>",
	Short: "Rank catalog books against a stated need",
	Long: `Rank books from a YAML catalog against a stated need.

The catalog file is a list of entries:

  - id: grief-01
    title: A Grief Observed
    author: C.S. Lewis
    topics: grief, loss of spouse

Ranking is best-effort: on any model failure an empty list is returned.`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		data, err := os.ReadFile(booksCatalogPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: failed to read catalog: %v\n", err)
			os.Exit(1)
		}
		var catalog []triageai.Book
		if err := yaml.Unmarshal(data, &catalog); err != nil {
			fmt.Fprintf(os.Stderr, "Error: failed to parse catalog: %v\n", err)
			os.Exit(1)
		}

		a, err := initApp(true)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer a.close()

		need := strings.Join(args, " ")
		recs := a.classifier.RankBooks(context.Background(), need, catalog)
		if len(recs) == 0 {
			fmt.Println("No recommendations.")
			return
		}

		byID := make(map[string]triageai.Book, len(catalog))
		for _, b := range catalog {
			byID[b.ID] = b
		}
		for _, r := range recs {
			b := byID[r.BookID]
			fmt.Printf("  %3d  %s (%s)\n", r.Score, b.Title, b.Author)
		}
	},
}

func init() {
	booksCmd.Flags().StringVar(&booksCatalogPath, "catalog", "books.yaml", "Path to YAML book catalog")
	rootCmd.AddCommand(booksCmd)
}
