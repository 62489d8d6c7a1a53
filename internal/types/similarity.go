package types

import (
	"fmt"
	"time"
)

// MatchType classifies a similarity computation.
//
// Active matches come from real-time lookups against currently open tickets
// and are cached briefly. Historical matches come from the weekly sweep
// against resolved tickets and are cached for a week.
type MatchType string

const (
	MatchActive     MatchType = "active"
	MatchHistorical MatchType = "historical"
)

// Validate checks that the match type is one of the known classes
func (m MatchType) Validate() error {
	switch m {
	case MatchActive, MatchHistorical:
		return nil
	}
	return fmt.Errorf("invalid match type: %q", m)
}

// SimilarityResult is the public shape returned to callers of the
// similarity service: one scored candidate per entry, in model order.
type SimilarityResult struct {
	TicketID string `json:"ticket_id"`
	Score    int    `json:"score"` // 0-100 relatedness confidence
}

// SimilarityRow is a cached relatedness judgment as persisted in the
// record store. Rows past ExpiresAt are filtered by queries and hard
// deleted by the daily cleanup.
type SimilarityRow struct {
	SourceID    string    `json:"source_id"`
	CandidateID string    `json:"candidate_id"`
	Score       int       `json:"score"`
	MatchType   MatchType `json:"match_type"`
	ExpiresAt   time.Time `json:"expires_at"`
	CreatedAt   time.Time `json:"created_at"`
}
