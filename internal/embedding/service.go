// Package embedding generates text embeddings through the provider
// API, with an optional redis cache in front.
package embedding

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/distillhq/distillery/internal/cache"
)

// API limit on inputs per embeddings call.
const batchSize = 100

type Service struct {
	api        *openai.Client
	cache      *cache.Cache
	model      string
	dimensions int
	ttl        time.Duration
}

// NewService builds an embedding service. cache may be nil, in which
// case every call hits the provider.
func NewService(api *openai.Client, c *cache.Cache, model string, dimensions int, ttl time.Duration) *Service {
	if model == "" {
		model = "text-embedding-3-small"
	}
	if dimensions <= 0 {
		dimensions = 1024
	}
	return &Service{api: api, cache: c, model: model, dimensions: dimensions, ttl: ttl}
}

// Embed returns one vector per input text, in order.
func (s *Service) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	out := make([][]float32, len(texts))
	var missing []int
	for i, text := range texts {
		if vec, ok := s.cached(ctx, text); ok {
			out[i] = vec
		} else {
			missing = append(missing, i)
		}
	}

	for start := 0; start < len(missing); start += batchSize {
		end := start + batchSize
		if end > len(missing) {
			end = len(missing)
		}
		chunk := missing[start:end]

		input := make([]string, len(chunk))
		for j, idx := range chunk {
			input[j] = texts[idx]
		}

		resp, err := s.api.CreateEmbeddings(ctx, openai.EmbeddingRequest{
			Input:          input,
			Model:          openai.EmbeddingModel(s.model),
			EncodingFormat: openai.EmbeddingEncodingFormatFloat,
			Dimensions:     s.dimensions,
		})
		if err != nil {
			return nil, fmt.Errorf("embed batch %d: %w", start/batchSize, err)
		}
		if len(resp.Data) != len(input) {
			return nil, fmt.Errorf("embed batch %d: got %d embeddings for %d inputs", start/batchSize, len(resp.Data), len(input))
		}

		for j, d := range resp.Data {
			idx := chunk[j]
			out[idx] = d.Embedding
			s.store(ctx, texts[idx], d.Embedding)
		}
	}

	return out, nil
}

// EmbedSingle embeds one text.
func (s *Service) EmbedSingle(ctx context.Context, text string) ([]float32, error) {
	vecs, err := s.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vecs) == 0 || vecs[0] == nil {
		return nil, fmt.Errorf("no embedding returned")
	}
	return vecs[0], nil
}

func (s *Service) cached(ctx context.Context, text string) ([]float32, bool) {
	if s.cache == nil {
		return nil, false
	}
	var vec []float32
	err := s.cache.Get(ctx, s.key(text), &vec)
	if err != nil {
		if !errors.Is(err, cache.ErrMiss) {
			slog.Warn("embedding cache read failed", "error", err)
		}
		return nil, false
	}
	return vec, true
}

func (s *Service) store(ctx context.Context, text string, vec []float32) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, s.key(text), vec, s.ttl); err != nil {
		slog.Warn("embedding cache write failed", "error", err)
	}
}

func (s *Service) key(text string) string {
	sum := sha256.Sum256([]byte(s.model + "\x00" + text))
	return "emb:" + hex.EncodeToString(sum[:])
}
