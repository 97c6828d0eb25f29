// Package app is the composition root. It opens the stores named by the
// global flags and wires them into the core services.
package app

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/custodia-labs/sercha-datasets/internal/adapters/driven/ai"
	"github.com/custodia-labs/sercha-datasets/internal/adapters/driven/config/file"
	"github.com/custodia-labs/sercha-datasets/internal/adapters/driven/fileparser"
	"github.com/custodia-labs/sercha-datasets/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/sercha-datasets/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/sercha-datasets/internal/adapters/driving/cli"
	"github.com/custodia-labs/sercha-datasets/internal/core/domain"
	"github.com/custodia-labs/sercha-datasets/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-datasets/internal/core/services"
	"github.com/custodia-labs/sercha-datasets/internal/logger"
)

// homeDirName is the directory under $HOME used when no directory flag is set.
const homeDirName = ".sercha-datasets"

// Dirs resolves the config and data directories, applying the defaults
// ~/.sercha-datasets and ~/.sercha-datasets/data.
func Dirs(opts cli.Options) (configDir, dataDir string, err error) {
	configDir, dataDir = opts.ConfigDir, opts.DataDir
	if configDir != "" && dataDir != "" {
		return configDir, dataDir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", "", fmt.Errorf("getting home directory: %w", err)
	}
	if configDir == "" {
		configDir = filepath.Join(home, homeDirName)
	}
	if dataDir == "" {
		dataDir = filepath.Join(home, homeDirName, "data")
	}
	return configDir, dataDir, nil
}

// Build opens the stores and returns the wired services.
//
// Settings always come from config.toml. With opts.Ephemeral the dataset
// store, scheduler store and vector index live in memory and nothing is
// written under the data directory.
func Build(opts cli.Options) (*cli.Services, error) {
	configDir, dataDir, err := Dirs(opts)
	if err != nil {
		return nil, err
	}

	configStore, err := file.NewConfigStore(configDir)
	if err != nil {
		return nil, fmt.Errorf("opening config: %w", err)
	}
	settingsService := services.NewSettingsService(configStore, ai.NewConfigValidator())

	settings, err := settingsService.Get()
	if err != nil {
		return nil, fmt.Errorf("loading settings: %w", err)
	}

	var (
		datasetStore   driven.DatasetStore
		schedulerStore driven.SchedulerStore
		closers        []func() error
	)
	if opts.Ephemeral {
		settings.VectorIndex.Backend = domain.VectorBackendMemory
		datasetStore = memory.NewDatasetStore()
		schedulerStore = memory.NewSchedulerStore()
		logger.Debug("Using in-memory stores")
	} else {
		store, err := sqlite.NewStore(dataDir)
		if err != nil {
			return nil, fmt.Errorf("opening dataset store: %w", err)
		}
		datasetStore = store.DatasetStore()
		schedulerStore = store.SchedulerStore()
		closers = append(closers, store.Close)
		logger.Debug("Dataset store: %s", store.Path())
	}

	stack, err := ai.Initialise(*settings, dataDir)
	if err != nil {
		closeAll(closers)
		return nil, err
	}
	for _, w := range stack.Warnings {
		logger.Warn("%s", w)
	}
	closers = append(closers, func() error {
		stack.Close()
		return nil
	})

	client := services.NewEmbeddingClient(stack.EmbeddingService, stack.VectorIndex)
	indexer := services.NewBatchIndexer(client, settings.Indexing.BatchSize)
	locks := services.NewDatasetLocks()
	parser := fileparser.New()

	indexService := services.NewIndexService(datasetStore, client, indexer, locks)

	return &cli.Services{
		Dataset:   services.NewDatasetService(datasetStore),
		Datapoint: services.NewDatapointService(datasetStore, client, indexer, parser, locks),
		Deletion:  services.NewDeletionService(datasetStore, client, locks, indexService),
		Index:     indexService,
		Settings:  settingsService,
		Scheduler: services.NewScheduler(settingsService.GetSchedulerConfig(), schedulerStore, indexService),
		Supports:  parser.Supports,
		Close: func() error {
			return closeAll(closers)
		},
	}, nil
}

// closeAll runs closers in reverse order and joins their errors.
func closeAll(closers []func() error) error {
	var errs []error
	for i := len(closers) - 1; i >= 0; i-- {
		if err := closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
