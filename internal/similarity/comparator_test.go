package similarity

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/counselhq/triage/internal/ai"
	"github.com/counselhq/triage/internal/types"
)

func newTestComparator(p ai.Provider) *Comparator {
	return NewComparator(testGateway(p), testRetryer(), ai.TierBalanced, 20, nil)
}

func TestCompareEmptyCandidatesShortCircuits(t *testing.T) {
	provider := &scriptedProvider{}
	c := newTestComparator(provider)

	results := c.Compare(context.Background(), openTicket(1), nil)

	assert.Empty(t, results)
	assert.Equal(t, 0, provider.calls, "no provider call for an empty candidate set")
}

func TestCompareTruncatesToBatchCap(t *testing.T) {
	provider := &scriptedProvider{responses: []string{`[]`}}
	c := newTestComparator(provider)

	var candidates []*types.Ticket
	for i := 2; i < 24; i++ { // 22 candidates
		candidates = append(candidates, openTicket(i))
	}

	_ = c.Compare(context.Background(), openTicket(1), candidates)

	require.Equal(t, 1, provider.calls)
	prompt := provider.prompts[0]
	assert.Contains(t, prompt, `"index":19`)
	assert.NotContains(t, prompt, `"index":20`)
	assert.NotContains(t, prompt, `"index":21`)
	// The 21st candidate's title never reaches the payload
	assert.NotContains(t, prompt, "Ticket 22")
	assert.NotContains(t, prompt, "Ticket 23")
}

func TestCompareMapsIndicesToTicketIDs(t *testing.T) {
	provider := &scriptedProvider{responses: []string{
		`[{"index": 2, "score": 90}, {"index": 0, "score": 65}]`,
	}}
	c := newTestComparator(provider)

	candidates := []*types.Ticket{openTicket(10), openTicket(11), openTicket(12)}
	results := c.Compare(context.Background(), openTicket(1), candidates)

	// Model-assigned order is preserved
	require.Len(t, results, 2)
	assert.Equal(t, types.SimilarityResult{TicketID: "t-12", Score: 90}, results[0])
	assert.Equal(t, types.SimilarityResult{TicketID: "t-10", Score: 65}, results[1])
}

func TestCompareInvalidIndexIsHardError(t *testing.T) {
	provider := &scriptedProvider{responses: []string{
		`[{"index": 0, "score": 90}, {"index": 7, "score": 80}]`,
	}}
	c := newTestComparator(provider)
	candidates := []*types.Ticket{openTicket(10), openTicket(11)}

	_, err := c.CompareStrict(context.Background(), openTicket(1), candidates)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid candidate index 7")

	// The fail-open wrapper collapses the same failure to empty, dropping
	// even the valid entries
	results := c.Compare(context.Background(), openTicket(1), candidates)
	assert.Empty(t, results)
}

func TestCompareOutOfRangeScoreIsHardError(t *testing.T) {
	provider := &scriptedProvider{responses: []string{`[{"index": 0, "score": 150}]`}}
	c := newTestComparator(provider)

	_, err := c.CompareStrict(context.Background(), openTicket(1), []*types.Ticket{openTicket(2)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "out-of-range score")
}

func TestCompareProviderFailureFailsOpen(t *testing.T) {
	provider := &scriptedProvider{errs: []error{errors.New("boom")}}
	c := newTestComparator(provider)

	results := c.Compare(context.Background(), openTicket(1), []*types.Ticket{openTicket(2)})
	assert.Empty(t, results)
}

func TestCompareRetriesTransientProviderFailure(t *testing.T) {
	provider := &scriptedProvider{
		errs:      []error{errors.New("503 service unavailable"), nil},
		responses: []string{"", `[{"index": 0, "score": 88}]`},
	}
	gw := testGateway(provider)
	retryer := ai.NewRetryer(ai.RetryOptions{MaxAttempts: 2, InitialDelay: 1}, nil)
	c := NewComparator(gw, retryer, ai.TierBalanced, 20, nil)

	results, err := c.CompareStrict(context.Background(), openTicket(1), []*types.Ticket{openTicket(2)})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, 88, results[0].Score)
	assert.Equal(t, 2, provider.calls)
}

func TestCompareFencedResponse(t *testing.T) {
	provider := &scriptedProvider{responses: []string{
		"```json\n[{\"index\": 0, \"score\": 72}]\n```",
	}}
	c := newTestComparator(provider)

	results := c.Compare(context.Background(), openTicket(1), []*types.Ticket{openTicket(2)})
	require.Len(t, results, 1)
	assert.Equal(t, 72, results[0].Score)
}

func TestComparePromptContainsResolutions(t *testing.T) {
	provider := &scriptedProvider{responses: []string{`[]`}}
	c := newTestComparator(provider)

	_ = c.Compare(context.Background(), openTicket(1), []*types.Ticket{resolvedTicket(5)})

	require.Equal(t, 1, provider.calls)
	assert.Contains(t, provider.prompts[0], "Resolution 5")
	assert.Contains(t, provider.prompts[0], fmt.Sprintf("Ticket %d", 5))
}
