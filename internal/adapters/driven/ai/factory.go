// Package ai provides factory functions for creating embedding and vector index adapters.
package ai

import (
	"context"
	"fmt"
	"time"

	hashembed "github.com/custodia-labs/sercha-datasets/internal/adapters/driven/embedding/hash"
	ollamaembed "github.com/custodia-labs/sercha-datasets/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/custodia-labs/sercha-datasets/internal/adapters/driven/embedding/openai"
	memoryvector "github.com/custodia-labs/sercha-datasets/internal/adapters/driven/vector/memory"
	sqlitevector "github.com/custodia-labs/sercha-datasets/internal/adapters/driven/vector/sqlite"
	"github.com/custodia-labs/sercha-datasets/internal/core/domain"
	"github.com/custodia-labs/sercha-datasets/internal/core/ports/driven"
)

// pingTimeout is the maximum time to wait for service connectivity validation.
const pingTimeout = 5 * time.Second

// InitResult contains the result of embedding stack initialisation.
type InitResult struct {
	EmbeddingService driven.EmbeddingService
	VectorIndex      driven.VectorIndex
	Warnings         []string // Non-fatal issues; indexing operations will fail until fixed.
}

// Close releases all resources held by InitResult.
func (r *InitResult) Close() {
	if r.EmbeddingService != nil {
		r.EmbeddingService.Close()
	}
	if r.VectorIndex != nil {
		r.VectorIndex.Close()
	}
}

// Initialise builds the embedding service and vector index from settings.
// An unreachable embedding provider is reported as a warning and leaves
// EmbeddingService nil, so datapoint storage keeps working while indexing
// returns ErrEmbeddingUnavailable. A vector index that cannot be opened is fatal.
func Initialise(settings domain.AppSettings, dataDir string) (*InitResult, error) {
	result := &InitResult{}

	index, err := CreateVectorIndex(settings.VectorIndex.Backend, dataDir)
	if err != nil {
		return nil, err
	}
	result.VectorIndex = index

	svc, err := CreateAndValidateEmbeddingService(&settings.Embedding)
	if err != nil {
		result.Warnings = append(result.Warnings, err.Error())
	}
	result.EmbeddingService = svc

	return result, nil
}

// CreateVectorIndex opens the configured vector index backend.
func CreateVectorIndex(backend domain.VectorBackend, dataDir string) (driven.VectorIndex, error) {
	switch backend {
	case domain.VectorBackendMemory:
		return memoryvector.NewIndex(), nil
	case domain.VectorBackendSQLite, "":
		idx, err := sqlitevector.Open(dataDir)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrVectorIndexUnavailable, err)
		}
		return idx, nil
	default:
		return nil, fmt.Errorf("%w: unsupported vector backend: %s", domain.ErrVectorIndexUnavailable, backend)
	}
}

// CreateAndValidateEmbeddingService creates an embedding service and validates connectivity.
// Returns the service if successful, or an error with guidance.
func CreateAndValidateEmbeddingService(settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, fmt.Errorf("%w: provider not configured. Run 'sercha-datasets config embedding' to fix",
			domain.ErrEmbeddingUnavailable)
	}

	svc, err := CreateEmbeddingService(settings)
	if err != nil {
		return nil, fmt.Errorf("%w: %w. Run 'sercha-datasets config embedding' to fix",
			domain.ErrEmbeddingUnavailable, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	if err := svc.Ping(ctx); err != nil {
		svc.Close()
		return nil, fmt.Errorf("%w: service unreachable (%w). Run 'sercha-datasets config embedding' to fix",
			domain.ErrEmbeddingUnavailable, err)
	}

	return svc, nil
}

// ValidateEmbeddingConfig validates an embedding configuration by creating a service and pinging it.
func ValidateEmbeddingConfig(settings *domain.EmbeddingSettings) error {
	if settings == nil || !settings.IsConfigured() {
		return fmt.Errorf("%w: embedding provider not configured", domain.ErrInvalidInput)
	}

	svc, err := CreateEmbeddingService(settings)
	if err != nil {
		return err
	}
	defer svc.Close()

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	return svc.Ping(ctx)
}

// CreateEmbeddingService creates the embedding service for the configured provider.
func CreateEmbeddingService(settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, fmt.Errorf("%w: embedding provider not configured", domain.ErrInvalidInput)
	}

	switch settings.Provider {
	case domain.AIProviderHash:
		return hashembed.NewEmbeddingService(settings.Dimensions), nil

	case domain.AIProviderOllama:
		return ollamaembed.NewEmbeddingService(ollamaembed.Config{
			BaseURL:           settings.BaseURL,
			Model:             settings.Model,
			Dimensions:        settings.Dimensions,
			RequestsPerSecond: settings.RequestsPerSecond,
		}), nil

	case domain.AIProviderOpenAI:
		return openaiembed.NewEmbeddingService(openaiembed.Config{
			APIKey:            settings.APIKey,
			BaseURL:           settings.BaseURL,
			Model:             settings.Model,
			Dimensions:        settings.Dimensions,
			RequestsPerSecond: settings.RequestsPerSecond,
		})

	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", settings.Provider)
	}
}
