package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCosineSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, cosineSimilarity([]float32{1, 0}, []float32{2, 0}), 1e-9)
	assert.InDelta(t, 0.0, cosineSimilarity([]float32{1, 0}, []float32{0, 3}), 1e-9)
	assert.InDelta(t, -1.0, cosineSimilarity([]float32{1, 0}, []float32{-1, 0}), 1e-9)

	// Degenerate inputs score zero rather than NaN.
	assert.Equal(t, 0.0, cosineSimilarity(nil, nil))
	assert.Equal(t, 0.0, cosineSimilarity([]float32{0, 0}, []float32{1, 1}))
	assert.Equal(t, 0.0, cosineSimilarity([]float32{1}, []float32{1, 2}))
}

func TestMMRSelectBounds(t *testing.T) {
	query := []float32{1, 0}
	candidates := [][]float32{{1, 0}, {0.9, 0.1}, {0, 1}}

	assert.Nil(t, mmrSelect(query, nil, 5, 0.5))
	assert.Nil(t, mmrSelect(query, candidates, 0, 0.5))

	picked := mmrSelect(query, candidates, 10, 0.5)
	assert.Len(t, picked, 3)

	picked = mmrSelect(query, candidates, 2, 0.5)
	assert.Len(t, picked, 2)

	// No candidate is ever picked twice.
	seen := map[int]bool{}
	for _, idx := range mmrSelect(query, candidates, 3, 0.5) {
		assert.False(t, seen[idx])
		seen[idx] = true
	}
}

func TestMMRSelectMostRelevantFirst(t *testing.T) {
	query := []float32{1, 0}
	candidates := [][]float32{{0, 1}, {1, 0}, {0.5, 0.5}}

	picked := mmrSelect(query, candidates, 3, 0.5)
	require.NotEmpty(t, picked)
	assert.Equal(t, 1, picked[0])
}

func TestMMRSelectPrefersDiversity(t *testing.T) {
	query := []float32{1, 0.1, 0}
	// Candidates 0 and 1 are near-duplicates close to the query;
	// candidate 2 is less relevant but points elsewhere.
	candidates := [][]float32{
		{1, 0, 0},
		{0.99, 0.01, 0},
		{0.5, 0.8, 0},
	}

	picked := mmrSelect(query, candidates, 2, 0.5)
	require.Len(t, picked, 2)
	assert.Equal(t, 1, picked[0])
	assert.Equal(t, 2, picked[1], "the near-duplicate should lose to the diverse candidate")
}
