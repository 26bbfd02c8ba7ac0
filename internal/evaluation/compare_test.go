package evaluation

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeEmbedder maps texts to fixed vectors so cosine scores are
// predictable.
type fakeEmbedder struct {
	vecs map[string][]float32
}

func (f *fakeEmbedder) EmbedSingle(ctx context.Context, text string) ([]float32, error) {
	vec, ok := f.vecs[text]
	if !ok {
		return nil, fmt.Errorf("no vector for %q", text)
	}
	return vec, nil
}

func TestCompareIdenticalStrings(t *testing.T) {
	embedder := &fakeEmbedder{vecs: map[string][]float32{
		"hello": {1, 0},
	}}
	c := NewComparator(embedder)

	scores, err := c.Compare(context.Background(), map[string][]map[string]any{
		"a": {{"greeting": "hello"}},
		"b": {{"greeting": "hello"}},
	})
	require.NoError(t, err)
	require.Contains(t, scores, "a_vs_b")

	score := scores["a_vs_b"]
	require.NotNil(t, score.StringSimilarity)
	assert.InDelta(t, 1.0, *score.StringSimilarity, 1e-9)
	assert.Equal(t, 1, score.StringSamples)
	assert.Nil(t, score.NumericSimilarity)
	assert.Equal(t, 0, score.NumericSamples)
}

func TestCompareNumericValues(t *testing.T) {
	c := NewComparator(&fakeEmbedder{})

	scores, err := c.Compare(context.Background(), map[string][]map[string]any{
		"a": {{"score": 2.0, "count": 0.0}},
		"b": {{"score": 4.0, "count": 0.0}},
	})
	require.NoError(t, err)

	score := scores["a_vs_b"]
	require.NotNil(t, score.NumericSimilarity)
	// (1 - 2/4 = 0.5) and (both zero = 1) average to 0.75.
	assert.InDelta(t, 0.75, *score.NumericSimilarity, 1e-9)
	assert.Equal(t, 2, score.NumericSamples)
	assert.Nil(t, score.StringSimilarity)
}

func TestCompareSkipsMixedTypesAndMissingKeys(t *testing.T) {
	embedder := &fakeEmbedder{vecs: map[string][]float32{
		"x": {1, 0},
		"y": {0, 1},
	}}
	c := NewComparator(embedder)

	scores, err := c.Compare(context.Background(), map[string][]map[string]any{
		"a": {{"text": "x", "mixed": "str", "only_a": 1.0}},
		"b": {{"text": "y", "mixed": 3.0}},
	})
	require.NoError(t, err)

	score := scores["a_vs_b"]
	assert.Equal(t, 1, score.StringSamples, "only the matching string key counts")
	assert.Equal(t, 0, score.NumericSamples, "mixed and missing keys are skipped")
	require.NotNil(t, score.StringSimilarity)
	assert.InDelta(t, 0.0, *score.StringSimilarity, 1e-9)
}

func TestCompareKeepsScoreKindsSeparate(t *testing.T) {
	embedder := &fakeEmbedder{vecs: map[string][]float32{
		"same": {1, 1},
	}}
	c := NewComparator(embedder)

	scores, err := c.Compare(context.Background(), map[string][]map[string]any{
		"a": {{"text": "same", "value": 10.0}},
		"b": {{"text": "same", "value": 5.0}},
	})
	require.NoError(t, err)

	score := scores["a_vs_b"]
	require.NotNil(t, score.StringSimilarity)
	require.NotNil(t, score.NumericSimilarity)
	assert.InDelta(t, 1.0, *score.StringSimilarity, 1e-9)
	assert.InDelta(t, 0.5, *score.NumericSimilarity, 1e-9)
}

func TestCompareAllPairsSortedNames(t *testing.T) {
	c := NewComparator(&fakeEmbedder{})

	outputs := map[string][]map[string]any{
		"gamma": {{"v": 1.0}},
		"alpha": {{"v": 1.0}},
		"beta":  {{"v": 1.0}},
	}
	scores, err := c.Compare(context.Background(), outputs)
	require.NoError(t, err)

	assert.Len(t, scores, 3)
	assert.Contains(t, scores, "alpha_vs_beta")
	assert.Contains(t, scores, "alpha_vs_gamma")
	assert.Contains(t, scores, "beta_vs_gamma")
}

func TestCompareUnevenRecordCounts(t *testing.T) {
	c := NewComparator(&fakeEmbedder{})

	scores, err := c.Compare(context.Background(), map[string][]map[string]any{
		"a": {{"v": 1.0}, {"v": 2.0}, {"v": 3.0}},
		"b": {{"v": 1.0}},
	})
	require.NoError(t, err)

	// Only the overlapping prefix is compared.
	assert.Equal(t, 1, scores["a_vs_b"].NumericSamples)
}

func TestCompareEmbedderErrorPropagates(t *testing.T) {
	c := NewComparator(&fakeEmbedder{})

	_, err := c.Compare(context.Background(), map[string][]map[string]any{
		"a": {{"text": "unknown"}},
		"b": {{"text": "unknown"}},
	})
	assert.Error(t, err)
}
