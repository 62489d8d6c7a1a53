package triageai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/counselhq/triage/internal/ai"
)

// Book is one entry in the recommendation catalog.
type Book struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Author string `json:"author"`
	Topics string `json:"topics,omitempty"`
}

// BookRecommendation is a ranked catalog entry.
type BookRecommendation struct {
	BookID string `json:"book_id"`
	Score  int    `json:"score"`
}

// rankCatalogCap bounds the catalog slice sent in one request, same idea
// as the similarity batch cap.
const rankCatalogCap = 20

const rankPrompt = `You recommend books from a counseling platform's catalog. Score how well each book serves the stated need, 0-100. Return a JSON array of {"index": <catalog index>, "score": <0-100>}, best first. Omit books scoring 40 or below; return [] if none fit.`

// RankBooks orders catalog entries by fit for the stated need. Fails open:
// any model or validation error yields an empty ranking, and the caller
// shows no recommendations rather than an error.
func (c *Classifier) RankBooks(ctx context.Context, need string, catalog []Book) []BookRecommendation {
	if len(catalog) == 0 {
		return nil
	}

	limited := catalog
	if len(limited) > rankCatalogCap {
		limited = limited[:rankCatalogCap]
	}

	type indexedBook struct {
		Index int `json:"index"`
		Book
	}
	list := make([]indexedBook, len(limited))
	for i, b := range limited {
		list[i] = indexedBook{Index: i, Book: b}
	}
	encoded, err := json.Marshal(list)
	if err != nil {
		c.logger.Error("failed to encode book catalog", "error", err)
		return nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Need: %s\n\nCatalog (JSON):\n%s", need, encoded)

	type scoredIndex struct {
		Index int `json:"index"`
		Score int `json:"score"`
	}
	var scored []scoredIndex
	err = c.retryer.Execute(ctx, "rank_books", func(ctx context.Context) error {
		var callErr error
		scored, callErr = ai.JSONCompletion[[]scoredIndex](ctx, c.gateway, ai.TierFast, []ai.Message{
			{Role: ai.RoleSystem, Content: rankPrompt},
			{Role: ai.RoleUser, Content: b.String()},
		}, ai.CompletionOptions{MaxTokens: 1024})
		return callErr
	})
	if err != nil {
		c.logger.Warn("book ranking failed, returning empty", "error", err)
		return nil
	}

	out := make([]BookRecommendation, 0, len(scored))
	for _, s := range scored {
		if s.Index < 0 || s.Index >= len(limited) {
			c.logger.Warn("book ranking referenced invalid index, returning empty",
				"index", s.Index, "catalog", len(limited))
			return nil
		}
		out = append(out, BookRecommendation{BookID: limited[s.Index].ID, Score: s.Score})
	}
	return out
}
