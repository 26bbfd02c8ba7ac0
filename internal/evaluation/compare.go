package evaluation

import (
	"context"
	"fmt"
	"sort"

	"github.com/distillhq/distillery/pkg/similarity"
)

// Embedder turns text into a vector. Satisfied by *embedding.Service.
type Embedder interface {
	EmbedSingle(ctx context.Context, text string) ([]float32, error)
}

// PairScore holds the two independent similarity means for one model
// pair. A nil mean signals that no comparable values of that kind were
// found; the two are never combined into one score.
type PairScore struct {
	StringSimilarity  *float64 `json:"string_similarity,omitempty"`
	NumericSimilarity *float64 `json:"numeric_similarity,omitempty"`
	StringSamples     int      `json:"string_samples"`
	NumericSamples    int      `json:"numeric_samples"`
}

// Comparator scores parsed model outputs pairwise.
type Comparator struct {
	embedder Embedder
}

func NewComparator(embedder Embedder) *Comparator {
	return &Comparator{embedder: embedder}
}

// Compare walks every candidate pair and every matching output key:
// string values score by embedding cosine similarity, numeric values by
// normalized absolute difference; mixed-type or missing-key comparisons
// are skipped entirely. Keys of the result map are "<a>_vs_<b>" with
// candidate names in sorted order.
func (c *Comparator) Compare(ctx context.Context, outputs map[string][]map[string]any) (map[string]PairScore, error) {
	names := make([]string, 0, len(outputs))
	for name := range outputs {
		names = append(names, name)
	}
	sort.Strings(names)

	scores := make(map[string]PairScore)
	for i := 0; i < len(names); i++ {
		for j := i + 1; j < len(names); j++ {
			score, err := c.comparePair(ctx, outputs[names[i]], outputs[names[j]])
			if err != nil {
				return nil, fmt.Errorf("compare %s vs %s: %w", names[i], names[j], err)
			}
			scores[names[i]+"_vs_"+names[j]] = score
		}
	}
	return scores, nil
}

func (c *Comparator) comparePair(ctx context.Context, a, b []map[string]any) (PairScore, error) {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}

	var stringSims, numericSims []float64
	for rec := 0; rec < n; rec++ {
		for _, key := range sortedKeys(a[rec]) {
			v1 := a[rec][key]
			v2, ok := b[rec][key]
			if !ok {
				continue
			}

			switch x := v1.(type) {
			case string:
				y, ok := v2.(string)
				if !ok {
					continue
				}
				sim, err := c.stringSimilarity(ctx, x, y)
				if err != nil {
					return PairScore{}, err
				}
				stringSims = append(stringSims, sim)
			case float64:
				y, ok := v2.(float64)
				if !ok {
					continue
				}
				numericSims = append(numericSims, similarity.Numeric(x, y))
			}
		}
	}

	return PairScore{
		StringSimilarity:  mean(stringSims),
		NumericSimilarity: mean(numericSims),
		StringSamples:     len(stringSims),
		NumericSamples:    len(numericSims),
	}, nil
}

func (c *Comparator) stringSimilarity(ctx context.Context, a, b string) (float64, error) {
	va, err := c.embedder.EmbedSingle(ctx, a)
	if err != nil {
		return 0, err
	}
	vb, err := c.embedder.EmbedSingle(ctx, b)
	if err != nil {
		return 0, err
	}
	return similarity.Cosine(va, vb), nil
}

func mean(values []float64) *float64 {
	if len(values) == 0 {
		return nil
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	m := sum / float64(len(values))
	return &m
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
