// Package hash provides an offline embedding service based on feature hashing.
//
// Each lower-cased word and adjacent word pair is hashed with HighwayHash
// into one of Dimensions buckets with a hash-derived sign, and the vector is
// L2-normalised. Texts sharing vocabulary land close together under cosine
// similarity. No model or network is needed, so it is the default provider.
package hash

import (
	"context"
	"fmt"
	"math"
	"strings"
	"unicode"

	"github.com/minio/highwayhash"

	"github.com/custodia-labs/sercha-datasets/internal/core/ports/driven"
)

// Ensure EmbeddingService implements the interface.
var _ driven.EmbeddingService = (*EmbeddingService)(nil)

// DefaultDimensions is the vector size when none is configured.
const DefaultDimensions = 256

// key is fixed so vectors stay stable across runs and machines.
var key = []byte("sercha-datasets/hash-embedder/v1")

// EmbeddingService embeds text by hashing its tokens.
type EmbeddingService struct {
	dimensions int
}

// NewEmbeddingService creates a hash embedder. A non-positive size uses DefaultDimensions.
func NewEmbeddingService(dimensions int) *EmbeddingService {
	if dimensions <= 0 {
		dimensions = DefaultDimensions
	}
	return &EmbeddingService{dimensions: dimensions}
}

// Embed hashes the text into a normalised vector.
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	vec := make([]float32, s.dimensions)
	words := tokenize(text)
	for i, w := range words {
		if err := s.add(vec, w); err != nil {
			return nil, err
		}
		if i > 0 {
			if err := s.add(vec, words[i-1]+" "+w); err != nil {
				return nil, err
			}
		}
	}
	normalize(vec)
	return vec, nil
}

// EmbedBatch embeds each text in turn.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		vec, err := s.Embed(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("embed text %d: %w", i, err)
		}
		out[i] = vec
	}
	return out, nil
}

// Dimensions returns the embedding vector size.
func (s *EmbeddingService) Dimensions() int {
	return s.dimensions
}

// ModelName returns "hash-<dimensions>".
func (s *EmbeddingService) ModelName() string {
	return fmt.Sprintf("hash-%d", s.dimensions)
}

// Ping always succeeds.
func (s *EmbeddingService) Ping(context.Context) error {
	return nil
}

// Close releases resources.
func (s *EmbeddingService) Close() error {
	return nil
}

func (s *EmbeddingService) add(vec []float32, feature string) error {
	h, err := highwayhash.New64(key)
	if err != nil {
		return fmt.Errorf("hash: %w", err)
	}
	if _, err := h.Write([]byte(feature)); err != nil {
		return fmt.Errorf("hash: %w", err)
	}
	sum := h.Sum64()

	bucket := sum % uint64(len(vec))
	if sum>>63 == 1 {
		vec[bucket]--
	} else {
		vec[bucket]++
	}
	return nil
}

func normalize(vec []float32) {
	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	if sum == 0 {
		return
	}
	norm := float32(math.Sqrt(sum))
	for i := range vec {
		vec[i] /= norm
	}
}

// tokenize splits text into lower-cased runs of letters and digits.
func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
