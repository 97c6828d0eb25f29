package driving

import "github.com/custodia-labs/sercha-datasets/internal/core/domain"

// SettingsService manages application settings.
type SettingsService interface {
	// Get retrieves current application settings.
	Get() (*domain.AppSettings, error)

	// Save persists application settings.
	Save(settings *domain.AppSettings) error

	// SetEmbeddingProvider configures the embedding provider.
	SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error

	// SetBatchSize sets the number of datapoints per upsert batch.
	SetBatchSize(size int) error

	// SetVectorBackend selects the vector index implementation.
	SetVectorBackend(backend domain.VectorBackend) error

	// GetValue returns the effective value of a settings key as text.
	GetValue(key string) (string, error)

	// SetValue parses, validates and persists a textual value for a settings key.
	SetValue(key, value string) error

	// Validate checks if current settings are usable.
	Validate() error

	// GetDefaults returns default settings.
	GetDefaults() domain.AppSettings

	// GetSchedulerConfig returns the repair scheduler configuration.
	GetSchedulerConfig() domain.SchedulerConfig

	// ValidateEmbeddingConfig validates the current embedding configuration by pinging the provider.
	ValidateEmbeddingConfig() error
}
