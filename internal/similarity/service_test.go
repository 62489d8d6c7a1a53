package similarity

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/counselhq/triage/internal/ai"
	"github.com/counselhq/triage/internal/types"
)

func newTestService(t *testing.T, store *fakeStore, provider ai.Provider) *Service {
	t.Helper()
	cache := NewCache(store, nil)
	comparator := NewComparator(testGateway(provider), testRetryer(), ai.TierBalanced, 20, nil)
	svc, err := NewService(store, cache, comparator, fastLimiter(), DefaultConfig(), nil)
	require.NoError(t, err)
	return svc
}

func TestFindSimilarActiveCacheHitSkipsTicketFetch(t *testing.T) {
	store := newFakeStore()
	provider := &scriptedProvider{}
	svc := newTestService(t, store, provider)
	ctx := context.Background()

	// Pre-existing unexpired active cache row scoring 85
	store.rows[rowKey("t-1", types.MatchActive)] = []*types.SimilarityRow{{
		SourceID:    "t-1",
		CandidateID: "t-9",
		Score:       85,
		MatchType:   types.MatchActive,
		ExpiresAt:   time.Now().Add(30 * time.Minute),
	}}

	results, err := svc.FindSimilarActive(ctx, "t-1")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, types.SimilarityResult{TicketID: "t-9", Score: 85}, results[0])

	assert.Equal(t, 0, store.getTicketCalls, "cache hit must not fetch the ticket")
	assert.Equal(t, 0, store.listOpenCalls)
	assert.Equal(t, 0, provider.calls)
}

func TestFindSimilarActiveMissComputesFiltersAndCaches(t *testing.T) {
	store := newFakeStore()
	require.NoError(t, store.CreateTicket(context.Background(), openTicket(1)))
	require.NoError(t, store.CreateTicket(context.Background(), openTicket(2)))
	require.NoError(t, store.CreateTicket(context.Background(), openTicket(3)))

	// Candidates are t-2 (index 0) and t-3 (index 1); the source itself is
	// excluded. One scores above the active threshold, one below.
	provider := &scriptedProvider{responses: []string{
		`[{"index": 0, "score": 75}, {"index": 1, "score": 45}]`,
	}}
	svc := newTestService(t, store, provider)

	results, err := svc.FindSimilarActive(context.Background(), "t-1")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, types.SimilarityResult{TicketID: "t-2", Score: 75}, results[0])

	// The filtered set was cached as the active snapshot
	cached := store.rows[rowKey("t-1", types.MatchActive)]
	require.Len(t, cached, 1)
	assert.Equal(t, "t-2", cached[0].CandidateID)

	// Source ticket never appears in the outbound payload
	assert.NotContains(t, provider.prompts[0], `"title":"Ticket 1"`)
}

func TestFindSimilarActiveUnknownTicket(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(t, store, &scriptedProvider{})

	_, err := svc.FindSimilarActive(context.Background(), "t-404")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestFindSimilarActiveChunksLargeCandidateSets(t *testing.T) {
	store := newFakeStore()
	ctx := context.Background()
	for i := 1; i <= 45; i++ { // source + 44 candidates = 3 chunks of <=20
		require.NoError(t, store.CreateTicket(ctx, openTicket(i)))
	}

	provider := &scriptedProvider{responses: []string{`[]`, `[]`, `[]`}}
	svc := newTestService(t, store, provider)

	_, err := svc.FindSimilarActive(ctx, "t-1")
	require.NoError(t, err)
	assert.Equal(t, 3, provider.calls)
}

func TestFindSimilarActiveCacheWriteFailureNonFatal(t *testing.T) {
	store := newFakeStore()
	ctx := context.Background()
	require.NoError(t, store.CreateTicket(ctx, openTicket(1)))
	require.NoError(t, store.CreateTicket(ctx, openTicket(2)))
	store.failReplace = fmt.Errorf("readonly database")

	provider := &scriptedProvider{responses: []string{`[{"index": 0, "score": 90}]`}}
	svc := newTestService(t, store, provider)

	results, err := svc.FindSimilarActive(ctx, "t-1")
	require.NoError(t, err, "cache write failure must not fail the lookup")
	require.Len(t, results, 1)
	assert.Equal(t, "t-2", results[0].TicketID)
}

func TestFindSimilarResolvedReadsHistoricalCacheOnly(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(t, store, &scriptedProvider{})
	ctx := context.Background()

	store.rows[rowKey("t-1", types.MatchHistorical)] = []*types.SimilarityRow{{
		SourceID:    "t-1",
		CandidateID: "t-30",
		Score:       92,
		MatchType:   types.MatchHistorical,
		ExpiresAt:   time.Now().Add(24 * time.Hour),
	}}

	results := svc.FindSimilarResolved(ctx, "t-1")
	require.Len(t, results, 1)
	assert.Equal(t, "t-30", results[0].TicketID)

	// A miss returns empty without computing anything
	assert.Empty(t, svc.FindSimilarResolved(ctx, "t-2"))
}

func TestNewServiceValidation(t *testing.T) {
	store := newFakeStore()
	cache := NewCache(store, nil)
	comparator := NewComparator(testGateway(&scriptedProvider{}), testRetryer(), ai.TierBalanced, 20, nil)

	_, err := NewService(nil, cache, comparator, fastLimiter(), DefaultConfig(), nil)
	assert.Error(t, err)

	bad := DefaultConfig()
	bad.BatchCap = 0
	_, err = NewService(store, cache, comparator, fastLimiter(), bad, nil)
	assert.Error(t, err)
}

func TestChunkTickets(t *testing.T) {
	var tickets []*types.Ticket
	for i := 0; i < 45; i++ {
		tickets = append(tickets, openTicket(i + 1))
	}

	chunks := chunkTickets(tickets, 20)
	require.Len(t, chunks, 3)
	assert.Len(t, chunks[0], 20)
	assert.Len(t, chunks[1], 20)
	assert.Len(t, chunks[2], 5)

	assert.Nil(t, chunkTickets(nil, 20))
}
