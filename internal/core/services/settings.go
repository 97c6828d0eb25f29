package services

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/robfig/cron/v3"

	"github.com/custodia-labs/sercha-datasets/internal/core/domain"
	"github.com/custodia-labs/sercha-datasets/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-datasets/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	KeyBatchSize        = "indexing.batch_size"
	KeyEmbedProvider    = "embedding.provider"
	KeyEmbedModel       = "embedding.model"
	KeyEmbedBaseURL     = "embedding.base_url"
	KeyEmbedAPIKey      = "embedding.api_key"
	KeyEmbedDimensions  = "embedding.dimensions"
	KeyEmbedRPS         = "embedding.requests_per_second"
	KeyVectorBackend    = "vector_index.backend"
	KeyRepairEnabled    = "repair.enabled"
	KeyRepairSchedule   = "repair.schedule"
	keySchedulerEnabled = "scheduler.enabled"
)

// KnownKeys lists every settings key in display order.
func KnownKeys() []string {
	return []string{
		KeyBatchSize,
		KeyEmbedProvider,
		KeyEmbedModel,
		KeyEmbedBaseURL,
		KeyEmbedAPIKey,
		KeyEmbedDimensions,
		KeyEmbedRPS,
		KeyVectorBackend,
		KeyRepairEnabled,
		KeyRepairSchedule,
	}
}

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
	aiValidator driven.AIConfigValidator
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore, aiValidator driven.AIConfigValidator) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		aiValidator: aiValidator,
	}
}

// Get retrieves current application settings.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	defaults := domain.DefaultAppSettings()

	provider := s.getProvider(KeyEmbedProvider, defaults.Embedding.Provider)
	model := s.configStore.GetString(KeyEmbedModel)
	if model == "" {
		model = domain.DefaultEmbeddingModels()[provider]
	}
	// Zero means the model's own size; only the hash embedder has a default here.
	dimensions := s.configStore.GetInt(KeyEmbedDimensions)
	if dimensions == 0 && provider == domain.AIProviderHash {
		dimensions = defaults.Embedding.Dimensions
	}

	settings := &domain.AppSettings{
		Embedding: domain.EmbeddingSettings{
			Provider:          provider,
			Model:             model,
			BaseURL:           s.configStore.GetString(KeyEmbedBaseURL), // No default - adapters pick their own
			APIKey:            s.configStore.GetString(KeyEmbedAPIKey),
			Dimensions:        dimensions,
			RequestsPerSecond: s.configStore.GetFloat(KeyEmbedRPS),
		},
		VectorIndex: domain.VectorIndexSettings{
			Backend: s.getBackend(defaults.VectorIndex.Backend),
		},
		Indexing: domain.IndexingSettings{
			BatchSize: s.getInt(KeyBatchSize, defaults.Indexing.BatchSize),
		},
		Repair: domain.RepairSettings{
			Enabled:  s.getBool(KeyRepairEnabled, defaults.Repair.Enabled),
			Schedule: s.getString(KeyRepairSchedule, defaults.Repair.Schedule),
		},
	}

	return settings, nil
}

// Save persists application settings.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	// Save embedding settings
	if err := s.configStore.Set(KeyEmbedProvider, settings.Embedding.Provider.String()); err != nil {
		return fmt.Errorf("save embedding provider: %w", err)
	}
	if err := s.configStore.Set(KeyEmbedModel, settings.Embedding.Model); err != nil {
		return fmt.Errorf("save embedding model: %w", err)
	}
	if err := s.configStore.Set(KeyEmbedBaseURL, settings.Embedding.BaseURL); err != nil {
		return fmt.Errorf("save embedding base_url: %w", err)
	}
	if settings.Embedding.APIKey != "" {
		if err := s.configStore.Set(KeyEmbedAPIKey, settings.Embedding.APIKey); err != nil {
			return fmt.Errorf("save embedding api_key: %w", err)
		}
	}
	if err := s.configStore.Set(KeyEmbedDimensions, settings.Embedding.Dimensions); err != nil {
		return fmt.Errorf("save embedding dimensions: %w", err)
	}
	if err := s.configStore.Set(KeyEmbedRPS, settings.Embedding.RequestsPerSecond); err != nil {
		return fmt.Errorf("save embedding requests_per_second: %w", err)
	}

	// Save index settings
	if err := s.configStore.Set(KeyVectorBackend, settings.VectorIndex.Backend.String()); err != nil {
		return fmt.Errorf("save vector backend: %w", err)
	}
	if err := s.configStore.Set(KeyBatchSize, settings.Indexing.BatchSize); err != nil {
		return fmt.Errorf("save batch size: %w", err)
	}

	// Save repair settings
	if err := s.configStore.Set(KeyRepairEnabled, settings.Repair.Enabled); err != nil {
		return fmt.Errorf("save repair enabled: %w", err)
	}
	if err := s.configStore.Set(KeyRepairSchedule, settings.Repair.Schedule); err != nil {
		return fmt.Errorf("save repair schedule: %w", err)
	}

	return nil
}

// SetEmbeddingProvider configures the embedding provider.
func (s *SettingsService) SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() || !slices.Contains(domain.AllEmbeddingProviders(), provider) {
		return fmt.Errorf("%w: embedding provider %s", domain.ErrUnsupportedType, provider)
	}

	// Validate API key if required
	if provider.RequiresAPIKey() && apiKey == "" {
		return fmt.Errorf("%w: API key required for %s", domain.ErrInvalidInput, provider)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	if settings.Embedding.Provider != provider {
		settings.Embedding.Dimensions = 0
	}
	settings.Embedding.Provider = provider

	// Set model - use provided or default
	if model != "" {
		settings.Embedding.Model = model
	} else {
		settings.Embedding.Model = domain.DefaultEmbeddingModels()[provider]
	}

	// Only Ollama needs a local endpoint by default
	switch provider {
	case domain.AIProviderOllama:
		if settings.Embedding.BaseURL == "" {
			settings.Embedding.BaseURL = "http://localhost:11434"
		}
	default:
		settings.Embedding.BaseURL = ""
	}

	settings.Embedding.APIKey = apiKey

	return s.Save(settings)
}

// SetBatchSize sets the number of datapoints per upsert batch.
func (s *SettingsService) SetBatchSize(size int) error {
	if size <= 0 {
		return fmt.Errorf("%w: batch size must be positive, got %d", domain.ErrInvalidInput, size)
	}
	return s.configStore.Set(KeyBatchSize, size)
}

// SetVectorBackend selects the vector index implementation.
func (s *SettingsService) SetVectorBackend(backend domain.VectorBackend) error {
	if !backend.IsValid() {
		return fmt.Errorf("%w: vector backend %s", domain.ErrUnsupportedType, backend)
	}
	return s.configStore.Set(KeyVectorBackend, backend.String())
}

// Validate checks if current settings are usable.
func (s *SettingsService) Validate() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}

	if !settings.Embedding.IsConfigured() {
		return fmt.Errorf("%w: embedding provider %q is not fully configured",
			domain.ErrEmbeddingUnavailable, settings.Embedding.Provider)
	}
	if settings.Indexing.BatchSize <= 0 {
		return fmt.Errorf("%w: batch size must be positive", domain.ErrInvalidInput)
	}
	if settings.Repair.Enabled {
		if _, err := cron.ParseStandard(settings.Repair.Schedule); err != nil {
			return fmt.Errorf("%w: repair schedule %q: %w", domain.ErrInvalidInput, settings.Repair.Schedule, err)
		}
	}

	return nil
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// GetSchedulerConfig returns the scheduler configuration.
// Returns default configuration if nothing is configured.
func (s *SettingsService) GetSchedulerConfig() domain.SchedulerConfig {
	settings, err := s.Get()
	if err != nil {
		return domain.DefaultSchedulerConfig()
	}

	cfg := settings.SchedulerConfig()
	if _, exists := s.configStore.Get(keySchedulerEnabled); exists {
		cfg.Enabled = s.configStore.GetBool(keySchedulerEnabled)
	}
	return cfg
}

// ValidateEmbeddingConfig validates the current embedding configuration by pinging the provider.
func (s *SettingsService) ValidateEmbeddingConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateEmbedding(&settings.Embedding)
}

// GetValue returns the effective value of a settings key as text,
// defaults included.
func (s *SettingsService) GetValue(key string) (string, error) {
	settings, err := s.Get()
	if err != nil {
		return "", err
	}

	switch key {
	case KeyBatchSize:
		return strconv.Itoa(settings.Indexing.BatchSize), nil
	case KeyEmbedProvider:
		return settings.Embedding.Provider.String(), nil
	case KeyEmbedModel:
		return settings.Embedding.Model, nil
	case KeyEmbedBaseURL:
		return settings.Embedding.BaseURL, nil
	case KeyEmbedAPIKey:
		return settings.Embedding.APIKey, nil
	case KeyEmbedDimensions:
		return strconv.Itoa(settings.Embedding.Dimensions), nil
	case KeyEmbedRPS:
		return strconv.FormatFloat(settings.Embedding.RequestsPerSecond, 'f', -1, 64), nil
	case KeyVectorBackend:
		return settings.VectorIndex.Backend.String(), nil
	case KeyRepairEnabled:
		return strconv.FormatBool(settings.Repair.Enabled), nil
	case KeyRepairSchedule:
		return settings.Repair.Schedule, nil
	default:
		return "", fmt.Errorf("%w: unknown settings key %q", domain.ErrInvalidInput, key)
	}
}

// SetValue parses a textual value for key, validates it and persists it.
func (s *SettingsService) SetValue(key, value string) error {
	value = strings.TrimSpace(value)

	switch key {
	case KeyBatchSize:
		n, err := strconv.Atoi(value)
		if err != nil {
			return invalidValue(key, value)
		}
		return s.SetBatchSize(n)
	case KeyEmbedProvider:
		if !domain.AIProvider(value).IsValid() {
			return fmt.Errorf("%w: embedding provider %s", domain.ErrUnsupportedType, value)
		}
		return s.configStore.Set(key, value)
	case KeyEmbedModel, KeyEmbedBaseURL, KeyEmbedAPIKey:
		return s.configStore.Set(key, value)
	case KeyEmbedDimensions:
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			return invalidValue(key, value)
		}
		return s.configStore.Set(key, n)
	case KeyEmbedRPS:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil || f < 0 {
			return invalidValue(key, value)
		}
		return s.configStore.Set(key, f)
	case KeyVectorBackend:
		return s.SetVectorBackend(domain.VectorBackend(value))
	case KeyRepairEnabled:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return invalidValue(key, value)
		}
		return s.configStore.Set(key, b)
	case KeyRepairSchedule:
		if _, err := cron.ParseStandard(value); err != nil {
			return fmt.Errorf("%w: repair schedule %q: %w", domain.ErrInvalidInput, value, err)
		}
		return s.configStore.Set(key, value)
	default:
		return fmt.Errorf("%w: unknown settings key %q", domain.ErrInvalidInput, key)
	}
}

func invalidValue(key, value string) error {
	return fmt.Errorf("%w: invalid value %q for %s", domain.ErrInvalidInput, value, key)
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	val := s.configStore.GetInt(key)
	if val == 0 {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getBool(key string, defaultVal bool) bool {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetBool(key)
}

func (s *SettingsService) getProvider(key string, defaultVal domain.AIProvider) domain.AIProvider {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	provider := domain.AIProvider(val)
	if !provider.IsValid() {
		return defaultVal
	}
	return provider
}

func (s *SettingsService) getBackend(defaultVal domain.VectorBackend) domain.VectorBackend {
	val := s.configStore.GetString(KeyVectorBackend)
	if val == "" {
		return defaultVal
	}
	backend := domain.VectorBackend(val)
	if !backend.IsValid() {
		return defaultVal
	}
	return backend
}
