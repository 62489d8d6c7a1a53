package similarity

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/counselhq/triage/internal/ai"
	"github.com/counselhq/triage/internal/storage"
	"github.com/counselhq/triage/internal/types"
)

// SweepStats summarizes one reconciliation run.
type SweepStats struct {
	Unresolved int           // open tickets considered
	Resolved   int           // resolved tickets used as comparison material
	Succeeded  int           // tickets whose snapshot was recomputed and stored
	Failed     int           // tickets skipped due to an isolated failure
	Duration   time.Duration `json:"-"`
}

// Sweep recomputes historical similarity snapshots for every open ticket
// against the corpus of resolved tickets. It runs weekly via the scheduler
// and on demand via the CLI.
type Sweep struct {
	store      storage.Storage
	cache      *Cache
	comparator *Comparator
	limiter    *ai.IntervalLimiter
	cfg        Config
	logger     *slog.Logger
}

// NewSweep wires the reconciliation sweep.
func NewSweep(store storage.Storage, cache *Cache, comparator *Comparator, limiter *ai.IntervalLimiter, cfg Config, logger *slog.Logger) (*Sweep, error) {
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
	return &Sweep{
		store:      store,
		cache:      cache,
		comparator: comparator,
		limiter:    limiter,
		cfg:        cfg,
		logger:     logger,
	}, nil
}

// Run executes one full sweep. A failure of the initial bulk fetches is
// fatal and propagates to the caller (the scheduler logs it). Failures
// while processing an individual ticket are isolated: logged, counted, and
// the sweep moves on.
func (s *Sweep) Run(ctx context.Context) (*SweepStats, error) {
	start := time.Now()

	unresolved, err := s.store.ListOpenTickets(ctx, 0)
	if err != nil {
		return nil, fmt.Errorf("sweep: fetching open tickets: %w", err)
	}
	resolved, err := s.store.ListResolvedTickets(ctx, 0)
	if err != nil {
		return nil, fmt.Errorf("sweep: fetching resolved tickets: %w", err)
	}

	stats := &SweepStats{Unresolved: len(unresolved), Resolved: len(resolved)}
	if len(unresolved) == 0 || len(resolved) == 0 {
		s.logger.Info("sweep has nothing to reconcile",
			"unresolved", len(unresolved), "resolved", len(resolved))
		stats.Duration = time.Since(start)
		return stats, nil
	}

	s.logger.Info("sweep starting",
		"unresolved", len(unresolved), "resolved", len(resolved))

	// Sequential on purpose: each ticket's batches go through the shared
	// rate limiter, and parallelism would only queue up behind it.
	for _, ticket := range unresolved {
		if err := s.processTicket(ctx, ticket, resolved); err != nil {
			stats.Failed++
			s.logger.Error("sweep: ticket processing failed, continuing",
				"ticketID", ticket.ID, "error", err)
			continue
		}
		stats.Succeeded++
	}

	stats.Duration = time.Since(start)
	s.logger.Info("sweep complete",
		"processed", stats.Unresolved,
		"succeeded", stats.Succeeded,
		"failed", stats.Failed,
		"duration", stats.Duration)
	return stats, nil
}

// processTicket recomputes one ticket's historical snapshot. A hard chunk
// failure aborts this ticket without storing, preserving the previous
// snapshot rather than overwriting it with a partial or empty one.
func (s *Sweep) processTicket(ctx context.Context, ticket *types.Ticket, resolved []*types.Ticket) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter wait: %w", err)
	}

	var all []types.SimilarityResult
	for _, chunk := range chunkTickets(resolved, s.cfg.BatchCap) {
		results, err := s.comparator.CompareStrict(ctx, ticket, chunk)
		if err != nil {
			return fmt.Errorf("comparing against chunk of %d: %w", len(chunk), err)
		}
		all = append(all, results...)
	}

	filtered := filterByScore(all, s.cfg.HistoricalThreshold)
	if err := s.cache.Store(ctx, ticket.ID, filtered, types.MatchHistorical, s.cfg.HistoricalTTL); err != nil {
		return fmt.Errorf("storing historical snapshot: %w", err)
	}

	s.logger.Debug("sweep: snapshot stored",
		"ticketID", ticket.ID, "matches", len(filtered), "scored", len(all))
	return nil
}
