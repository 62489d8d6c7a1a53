package similarity

import (
	"context"
	"log/slog"
	"time"

	"github.com/counselhq/triage/internal/storage"
	"github.com/counselhq/triage/internal/types"
)

// Cache persists scored similarity results with a TTL. It is threshold
// agnostic: callers filter before storing.
//
// Reads fail open: a storage error is logged and reported as a miss, so a
// degraded database slows the system down instead of breaking lookups.
// Writes surface their error so callers (and monitoring) can see a cache
// that silently never persists.
type Cache struct {
	store  storage.Storage
	logger *slog.Logger
	now    func() time.Time
}

// NewCache creates a cache over the given store.
func NewCache(store storage.Storage, logger *slog.Logger) *Cache {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache{store: store, logger: logger, now: time.Now}
}

// Lookup returns unexpired cached results for (sourceID, matchType), or nil
// on miss or storage error.
func (c *Cache) Lookup(ctx context.Context, sourceID string, matchType types.MatchType) []types.SimilarityResult {
	rows, err := c.store.FindSimilarityRows(ctx, sourceID, matchType, c.now())
	if err != nil {
		c.logger.Warn("similarity cache read failed, treating as miss",
			"sourceID", sourceID, "matchType", string(matchType), "error", err)
		return nil
	}
	if len(rows) == 0 {
		c.logger.Debug("similarity cache miss", "sourceID", sourceID, "matchType", string(matchType))
		return nil
	}

	results := make([]types.SimilarityResult, len(rows))
	for i, r := range rows {
		results[i] = types.SimilarityResult{TicketID: r.CandidateID, Score: r.Score}
	}
	c.logger.Debug("similarity cache hit",
		"sourceID", sourceID, "matchType", string(matchType), "results", len(results))
	return results
}

// Store replaces the cached snapshot for (sourceID, matchType) with
// results, expiring after ttl. An empty result set still clears the prior
// snapshot. The delete and insert happen in one storage transaction.
func (c *Cache) Store(ctx context.Context, sourceID string, results []types.SimilarityResult, matchType types.MatchType, ttl time.Duration) error {
	expiresAt := c.now().Add(ttl)

	rows := make([]*types.SimilarityRow, len(results))
	for i, r := range results {
		rows[i] = &types.SimilarityRow{
			SourceID:    sourceID,
			CandidateID: r.TicketID,
			Score:       r.Score,
			MatchType:   matchType,
			ExpiresAt:   expiresAt,
		}
	}
	return c.store.ReplaceSimilarityRows(ctx, sourceID, matchType, rows)
}

// Purge hard-deletes expired rows. Run daily; expired rows are already
// invisible to Lookup, this just reclaims space.
func (c *Cache) Purge(ctx context.Context) (int, error) {
	n, err := c.store.PurgeExpired(ctx, c.now())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		c.logger.Info("purged expired similarity rows", "count", n)
	}
	return n, nil
}
