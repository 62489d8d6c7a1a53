package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "bare object passes through",
			input: `{"a": 1}`,
			want:  `{"a": 1}`,
		},
		{
			name:  "json fence",
			input: "```json\n{\"a\": 1}\n```",
			want:  `{"a": 1}`,
		},
		{
			name:  "json fence without trailing newline",
			input: "```json\n{\"a\": 1}```",
			want:  `{"a": 1}`,
		},
		{
			name:  "uppercase JSON fence",
			input: "```JSON\n[1, 2]\n```",
			want:  `[1, 2]`,
		},
		{
			name:  "generic fence",
			input: "```\n{\"b\": 2}\n```",
			want:  `{"b": 2}`,
		},
		{
			name:  "fence after prose",
			input: "Here is the result:\n```json\n{\"c\": 3}\n```",
			want:  `{"c": 3}`,
		},
		{
			name:  "object embedded in prose",
			input: `The answer is {"d": 4} as requested.`,
			want:  `{"d": 4}`,
		},
		{
			name:  "array embedded in prose",
			input: `Scores: [{"index": 0, "score": 90}] — hope that helps!`,
			want:  `[{"index": 0, "score": 90}]`,
		},
		{
			name:  "trailing prose after array",
			input: `[1, 2, 3]

Let me know if you need anything else.`,
			want: `[1, 2, 3]`,
		},
		{
			name:  "no json at all",
			input: "I cannot answer that.",
			want:  "I cannot answer that.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractJSON(tt.input))
		})
	}
}

// Extraction of fenced valid JSON must yield the same value the unwrapped
// text parses to.
func TestExtractJSONIdempotentOnFencedJSON(t *testing.T) {
	raw := `{"ticket_id": "t-7", "score": 85}`
	fenced := "```json\n" + raw + "\n```"

	type result struct {
		TicketID string `json:"ticket_id"`
		Score    int    `json:"score"`
	}

	fromRaw, err := ParseJSON[result](raw)
	require.NoError(t, err)
	fromFenced, err := ParseJSON[result](fenced)
	require.NoError(t, err)
	assert.Equal(t, fromRaw, fromFenced)
}

func TestParseJSON(t *testing.T) {
	type match struct {
		Index int `json:"index"`
		Score int `json:"score"`
	}

	t.Run("direct array", func(t *testing.T) {
		got, err := ParseJSON[[]match](`[{"index": 0, "score": 90}, {"index": 3, "score": 62}]`)
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, match{Index: 0, Score: 90}, got[0])
		assert.Equal(t, match{Index: 3, Score: 62}, got[1])
	})

	t.Run("fenced with prose", func(t *testing.T) {
		got, err := ParseJSON[[]match]("Sure! Here you go:\n```json\n[{\"index\": 1, \"score\": 75}]\n```\nAnything else?")
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, 75, got[0].Score)
	})

	t.Run("empty array", func(t *testing.T) {
		got, err := ParseJSON[[]match](`[]`)
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("unparseable returns JSONError", func(t *testing.T) {
		_, err := ParseJSON[[]match]("definitely not json")
		require.Error(t, err)
		var jsonErr *JSONError
		require.ErrorAs(t, err, &jsonErr)
		assert.Contains(t, jsonErr.Raw, "definitely not json")
	})

	t.Run("empty input", func(t *testing.T) {
		_, err := ParseJSON[[]match]("   ")
		require.Error(t, err)
	})

	t.Run("error previews are truncated", func(t *testing.T) {
		long := make([]byte, 5000)
		for i := range long {
			long[i] = 'x'
		}
		_, err := ParseJSON[[]match](string(long))
		require.Error(t, err)
		// 1000 chars of preview plus ellipsis and framing, not 5000
		assert.Less(t, len(err.Error()), 2500)
	})
}
