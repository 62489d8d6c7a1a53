package similarity

import (
	"context"
	"fmt"
	"time"

	"github.com/counselhq/triage/internal/ai"
	"github.com/counselhq/triage/internal/types"
)

// scriptedProvider returns canned responses in order, or errors, and
// records every request it sees.
type scriptedProvider struct {
	responses []string
	errs      []error
	calls     int
	prompts   []string
	systems   []string
}

func (p *scriptedProvider) Invoke(ctx context.Context, modelID, system string, messages []ai.Message, opts ai.CompletionOptions) (string, ai.Usage, error) {
	i := p.calls
	p.calls++
	var prompt string
	for _, m := range messages {
		prompt += m.Content
	}
	p.prompts = append(p.prompts, prompt)
	p.systems = append(p.systems, system)

	if i < len(p.errs) && p.errs[i] != nil {
		return "", ai.Usage{}, p.errs[i]
	}
	if i < len(p.responses) {
		return p.responses[i], ai.Usage{}, nil
	}
	return "[]", ai.Usage{}, nil
}

// fakeStore is an in-memory storage.Storage with call counters and
// injectable failures.
type fakeStore struct {
	tickets map[string]*types.Ticket
	rows    map[string][]*types.SimilarityRow // keyed by sourceID|matchType

	getTicketCalls int
	listOpenCalls  int

	failListOpen     error
	failListResolved error
	failReplace      error
	failFind         error
	// failReplaceFor fails ReplaceSimilarityRows only for this sourceID
	failReplaceFor string
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		tickets: make(map[string]*types.Ticket),
		rows:    make(map[string][]*types.SimilarityRow),
	}
}

func rowKey(sourceID string, mt types.MatchType) string {
	return sourceID + "|" + string(mt)
}

func (f *fakeStore) CreateTicket(ctx context.Context, t *types.Ticket) error {
	f.tickets[t.ID] = t
	return nil
}

func (f *fakeStore) GetTicket(ctx context.Context, id string) (*types.Ticket, error) {
	f.getTicketCalls++
	return f.tickets[id], nil
}

func (f *fakeStore) ListOpenTickets(ctx context.Context, limit int) ([]*types.Ticket, error) {
	f.listOpenCalls++
	if f.failListOpen != nil {
		return nil, f.failListOpen
	}
	return f.byStatus(types.StatusOpen), nil
}

func (f *fakeStore) ListResolvedTickets(ctx context.Context, limit int) ([]*types.Ticket, error) {
	if f.failListResolved != nil {
		return nil, f.failListResolved
	}
	var out []*types.Ticket
	for _, t := range f.byStatus(types.StatusResolved) {
		if t.Resolution != "" {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeStore) byStatus(status types.TicketStatus) []*types.Ticket {
	var out []*types.Ticket
	// Deterministic order for tests: t-1, t-2, ...
	for i := 1; i <= len(f.tickets)+100; i++ {
		if t, ok := f.tickets[fmt.Sprintf("t-%d", i)]; ok && t.Status == status {
			out = append(out, t)
		}
	}
	return out
}

func (f *fakeStore) ResolveTicket(ctx context.Context, id, resolution string) error {
	t, ok := f.tickets[id]
	if !ok {
		return fmt.Errorf("ticket %s not found", id)
	}
	t.Status = types.StatusResolved
	t.Resolution = resolution
	return nil
}

func (f *fakeStore) FindSimilarityRows(ctx context.Context, sourceID string, mt types.MatchType, now time.Time) ([]*types.SimilarityRow, error) {
	if f.failFind != nil {
		return nil, f.failFind
	}
	var live []*types.SimilarityRow
	for _, r := range f.rows[rowKey(sourceID, mt)] {
		if r.ExpiresAt.After(now) {
			live = append(live, r)
		}
	}
	return live, nil
}

func (f *fakeStore) ReplaceSimilarityRows(ctx context.Context, sourceID string, mt types.MatchType, rows []*types.SimilarityRow) error {
	if f.failReplace != nil {
		return f.failReplace
	}
	if f.failReplaceFor != "" && f.failReplaceFor == sourceID {
		return fmt.Errorf("injected replace failure for %s", sourceID)
	}
	f.rows[rowKey(sourceID, mt)] = rows
	return nil
}

func (f *fakeStore) PurgeExpired(ctx context.Context, now time.Time) (int, error) {
	purged := 0
	for key, rows := range f.rows {
		var kept []*types.SimilarityRow
		for _, r := range rows {
			if r.ExpiresAt.After(now) {
				kept = append(kept, r)
			} else {
				purged++
			}
		}
		f.rows[key] = kept
	}
	return purged, nil
}

func (f *fakeStore) Close() error { return nil }

func openTicket(n int) *types.Ticket {
	return &types.Ticket{
		ID:          fmt.Sprintf("t-%d", n),
		Title:       fmt.Sprintf("Ticket %d", n),
		Description: fmt.Sprintf("Description %d", n),
		Status:      types.StatusOpen,
	}
}

func resolvedTicket(n int) *types.Ticket {
	t := openTicket(n)
	t.Status = types.StatusResolved
	t.Resolution = fmt.Sprintf("Resolution %d", n)
	return t
}

func testGateway(p ai.Provider) *ai.Gateway {
	return ai.NewGateway(p, map[ai.Tier]string{
		ai.TierFast:     "model-fast",
		ai.TierBalanced: "model-balanced",
		ai.TierPowerful: "model-powerful",
	}, nil)
}

func testRetryer() *ai.Retryer {
	return ai.NewRetryer(ai.RetryOptions{MaxAttempts: 1, InitialDelay: time.Millisecond}, nil)
}

// fastLimiter gives negligible spacing so tests don't sleep.
func fastLimiter() *ai.IntervalLimiter {
	return ai.NewIntervalLimiter(6_000_000)
}
