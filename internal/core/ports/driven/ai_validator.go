package driven

import "github.com/custodia-labs/sercha-datasets/internal/core/domain"

// AIConfigValidator validates embedding provider configurations by
// creating a service and pinging it.
type AIConfigValidator interface {
	// ValidateEmbedding validates an embedding configuration.
	// Returns nil if the configuration is valid and the service is reachable.
	ValidateEmbedding(config *domain.EmbeddingSettings) error
}
