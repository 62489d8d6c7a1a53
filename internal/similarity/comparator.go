package similarity

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/counselhq/triage/internal/ai"
	"github.com/counselhq/triage/internal/types"
)

// Comparator scores the relatedness of one source ticket against a set of
// candidate tickets using a single JSON-mode model call per batch.
type Comparator struct {
	gateway  *ai.Gateway
	retryer  *ai.Retryer
	tier     ai.Tier
	batchCap int
	logger   *slog.Logger
}

// NewComparator creates a comparator. batchCap bounds how many candidates
// go into one request; extras are silently excluded from that call.
func NewComparator(gateway *ai.Gateway, retryer *ai.Retryer, tier ai.Tier, batchCap int, logger *slog.Logger) *Comparator {
	if batchCap < 1 {
		batchCap = DefaultConfig().BatchCap
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Comparator{
		gateway:  gateway,
		retryer:  retryer,
		tier:     tier,
		batchCap: batchCap,
		logger:   logger,
	}
}

// scoredIndex is one element of the model's response: a 0-based position in
// the truncated candidate list plus a relatedness score.
type scoredIndex struct {
	Index int `json:"index"`
	Score int `json:"score"`
}

// Compare scores candidates against source. It never fails: model, parse,
// and validation errors are logged and collapse to an empty result, which
// callers must read as "no matches found", not "no matches exist".
func (c *Comparator) Compare(ctx context.Context, source *types.Ticket, candidates []*types.Ticket) []types.SimilarityResult {
	results, err := c.CompareStrict(ctx, source, candidates)
	if err != nil {
		c.logger.Error("similarity comparison failed",
			"sourceID", source.ID, "candidates", len(candidates), "error", err)
		return nil
	}
	return results
}

// CompareStrict is Compare without the error swallowing, for callers (the
// sweep) that need to distinguish a failed comparison from an empty one.
func (c *Comparator) CompareStrict(ctx context.Context, source *types.Ticket, candidates []*types.Ticket) ([]types.SimilarityResult, error) {
	if len(candidates) == 0 {
		// Cost-avoidance short circuit: no network call for nothing
		return nil, nil
	}

	limited := candidates
	if len(limited) > c.batchCap {
		limited = limited[:c.batchCap]
	}

	prompt, err := c.buildPrompt(source, limited)
	if err != nil {
		return nil, fmt.Errorf("building comparison prompt: %w", err)
	}

	var scored []scoredIndex
	err = c.retryer.Execute(ctx, "similarity_compare", func(ctx context.Context) error {
		var callErr error
		scored, callErr = ai.JSONCompletion[[]scoredIndex](ctx, c.gateway, c.tier, []ai.Message{
			{Role: ai.RoleSystem, Content: comparePrompt},
			{Role: ai.RoleUser, Content: prompt},
		}, ai.CompletionOptions{MaxTokens: 2048})
		return callErr
	})
	if err != nil {
		return nil, fmt.Errorf("similarity model call failed: %w", err)
	}

	c.logger.Debug("similarity batch scored",
		"sourceID", source.ID, "batchSize", len(limited), "matches", len(scored))

	// Out-of-range indices are a hard error for the whole call, not
	// silently dropped.
	results := make([]types.SimilarityResult, 0, len(scored))
	for _, s := range scored {
		if s.Index < 0 || s.Index >= len(limited) {
			return nil, fmt.Errorf("model referenced invalid candidate index %d (batch size %d)", s.Index, len(limited))
		}
		if s.Score < 0 || s.Score > 100 {
			return nil, fmt.Errorf("model returned out-of-range score %d for index %d", s.Score, s.Index)
		}
		results = append(results, types.SimilarityResult{
			TicketID: limited[s.Index].ID,
			Score:    s.Score,
		})
	}
	return results, nil
}

const comparePrompt = `You compare support tickets from a counseling platform and judge how related they are. Score relatedness 0-100 based on whether the tickets describe the same underlying problem or need, not on surface wording.`

func (c *Comparator) buildPrompt(source *types.Ticket, candidates []*types.Ticket) (string, error) {
	type promptTicket struct {
		Index       int    `json:"index"`
		Title       string `json:"title"`
		Description string `json:"description"`
		Resolution  string `json:"resolution,omitempty"`
	}

	list := make([]promptTicket, len(candidates))
	for i, t := range candidates {
		list[i] = promptTicket{
			Index:       i,
			Title:       t.Title,
			Description: t.Description,
			Resolution:  t.Resolution,
		}
	}
	encoded, err := json.Marshal(list)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Source ticket:\nTitle: %s\nDescription: %s\n\n", source.Title, source.Description)
	fmt.Fprintf(&b, "Candidate tickets (JSON):\n%s\n\n", encoded)
	b.WriteString(`Return a JSON array of {"index": <candidate index>, "score": <0-100>} for related candidates. Omit candidates scoring 40 or below. Return [] if none qualify.`)
	return b.String(), nil
}
