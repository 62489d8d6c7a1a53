// Package storage defines the record-store interface consumed by the
// similarity core. Concrete backends live in subpackages.
package storage

import (
	"context"
	"time"

	"github.com/counselhq/triage/internal/types"
)

// Storage is the abstract record store for tickets and cached similarity
// judgments.
type Storage interface {
	// Tickets
	CreateTicket(ctx context.Context, ticket *types.Ticket) error
	GetTicket(ctx context.Context, id string) (*types.Ticket, error)
	ListOpenTickets(ctx context.Context, limit int) ([]*types.Ticket, error)
	// ListResolvedTickets returns resolved tickets that carry a non-empty
	// resolution; tickets closed without one are useless as comparison
	// material for the sweep.
	ListResolvedTickets(ctx context.Context, limit int) ([]*types.Ticket, error)
	ResolveTicket(ctx context.Context, id, resolution string) error

	// Similarity rows
	//
	// FindSimilarityRows returns only rows whose expires_at is after now.
	// ReplaceSimilarityRows deletes every live row for (sourceID, matchType)
	// and inserts the new set in a single transaction, so readers never
	// observe a half-replaced snapshot.
	FindSimilarityRows(ctx context.Context, sourceID string, matchType types.MatchType, now time.Time) ([]*types.SimilarityRow, error)
	ReplaceSimilarityRows(ctx context.Context, sourceID string, matchType types.MatchType, rows []*types.SimilarityRow) error
	// PurgeExpired hard-deletes rows past expires_at, returning the count.
	PurgeExpired(ctx context.Context, now time.Time) (int, error)

	Close() error
}
