package similarity

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/counselhq/triage/internal/ai"
	"github.com/counselhq/triage/internal/storage"
	"github.com/counselhq/triage/internal/types"
)

// Service is the real-time entry point for similarity lookups. It checks
// the cache first and only computes (and re-caches) on a miss.
type Service struct {
	store      storage.Storage
	cache      *Cache
	comparator *Comparator
	limiter    *ai.IntervalLimiter
	cfg        Config
	logger     *slog.Logger
}

// NewService wires the similarity lookup flow. All dependencies are
// required except logger.
func NewService(store storage.Storage, cache *Cache, comparator *Comparator, limiter *ai.IntervalLimiter, cfg Config, logger *slog.Logger) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("store cannot be nil")
	}
	if cache == nil {
		return nil, fmt.Errorf("cache cannot be nil")
	}
	if comparator == nil {
		return nil, fmt.Errorf("comparator cannot be nil")
	}
	if limiter == nil {
		return nil, fmt.Errorf("rate limiter cannot be nil")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:      store,
		cache:      cache,
		comparator: comparator,
		limiter:    limiter,
		cfg:        cfg,
		logger:     logger,
	}, nil
}

// FindSimilarActive returns open tickets similar to the given one, scored
// at or above the active threshold. A cache hit returns without touching
// the ticket store or the model.
func (s *Service) FindSimilarActive(ctx context.Context, ticketID string) ([]types.SimilarityResult, error) {
	if cached := s.cache.Lookup(ctx, ticketID, types.MatchActive); len(cached) > 0 {
		return cached, nil
	}

	source, err := s.store.GetTicket(ctx, ticketID)
	if err != nil {
		return nil, fmt.Errorf("fetching source ticket %s: %w", ticketID, err)
	}
	if source == nil {
		return nil, fmt.Errorf("ticket %s not found", ticketID)
	}

	open, err := s.store.ListOpenTickets(ctx, s.cfg.MaxCandidates)
	if err != nil {
		return nil, fmt.Errorf("fetching open tickets: %w", err)
	}

	candidates := make([]*types.Ticket, 0, len(open))
	for _, t := range open {
		if t.ID != source.ID {
			candidates = append(candidates, t)
		}
	}

	var all []types.SimilarityResult
	for _, chunk := range chunkTickets(candidates, s.cfg.BatchCap) {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter wait: %w", err)
		}
		// Fail-open per chunk: a failed batch contributes no matches
		all = append(all, s.comparator.Compare(ctx, source, chunk)...)
	}

	filtered := filterByScore(all, s.cfg.ActiveThreshold)

	if err := s.cache.Store(ctx, ticketID, filtered, types.MatchActive, s.cfg.ActiveTTL); err != nil {
		// Write failures are visible but not fatal to the lookup
		s.logger.Error("failed to cache active similarity results",
			"sourceID", ticketID, "error", err)
	}
	return filtered, nil
}

// FindSimilarResolved returns the cached historical matches computed by the
// weekly sweep. A miss means the sweep has not covered this ticket yet (or
// the snapshot expired); it returns empty rather than computing on demand.
func (s *Service) FindSimilarResolved(ctx context.Context, ticketID string) []types.SimilarityResult {
	return s.cache.Lookup(ctx, ticketID, types.MatchHistorical)
}

// chunkTickets splits tickets into batches of at most size.
func chunkTickets(tickets []*types.Ticket, size int) [][]*types.Ticket {
	if size < 1 {
		size = 1
	}
	var chunks [][]*types.Ticket
	for start := 0; start < len(tickets); start += size {
		end := start + size
		if end > len(tickets) {
			end = len(tickets)
		}
		chunks = append(chunks, tickets[start:end])
	}
	return chunks
}

// filterByScore keeps results at or above threshold, preserving order.
func filterByScore(results []types.SimilarityResult, threshold int) []types.SimilarityResult {
	filtered := make([]types.SimilarityResult, 0, len(results))
	for _, r := range results {
		if r.Score >= threshold {
			filtered = append(filtered, r)
		}
	}
	return filtered
}
