// Package cli provides the sercha-datasets command line interface.
// It is a driving adapter: commands translate flags and arguments into
// calls on the driving ports and render the results.
package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-datasets/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-datasets/internal/logger"
)

// version is set at build time via ldflags.
var version = "dev"

// Services injected by the composition root.
var (
	datasetService   driving.DatasetService
	datapointService driving.DatapointService
	deletionService  driving.DeletionService
	indexService     driving.IndexService
	settingsService  driving.SettingsService
	scheduler        driving.Scheduler

	// supportsFile reports whether a filename can be uploaded.
	supportsFile func(filename string) bool

	closeServices func() error
)

// Services groups the driving ports used by the commands.
type Services struct {
	Dataset   driving.DatasetService
	Datapoint driving.DatapointService
	Deletion  driving.DeletionService
	Index     driving.IndexService
	Settings  driving.SettingsService
	Scheduler driving.Scheduler

	// Supports reports whether a file type can be uploaded. Nil accepts all.
	Supports func(filename string) bool

	// Close releases stores opened for the services.
	Close func() error
}

// Options are the global flags handed to the bootstrap function.
type Options struct {
	// DataDir holds the dataset and vector databases.
	DataDir string

	// ConfigDir holds config.toml.
	ConfigDir string

	// Ephemeral keeps every store in memory.
	Ephemeral bool
}

// BootstrapFunc builds the services from the global flags.
type BootstrapFunc func(opts Options) (*Services, error)

var bootstrap BootstrapFunc

// Global flags.
var (
	flagVerbose   bool
	flagDataDir   string
	flagConfigDir string
	flagProject   string
	flagEphemeral bool
)

// skipBootstrapAnnotation marks commands that run without services.
const skipBootstrapAnnotation = "skip-bootstrap"

var rootCmd = &cobra.Command{
	Use:   "sercha-datasets",
	Short: "Keep dataset embeddings in sync with their datapoints",
	Long: `sercha-datasets stores labeled datapoints in datasets and keeps a vector
index in sync with them.

Each dataset may be indexed on one datapoint field (e.g. "data.text").
Changing that field deletes the old embeddings before the new ones are
written, and every datapoint change is propagated to the vector index.`,
	SilenceUsage:      true,
	PersistentPreRunE: prepareServices,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.BoolVarP(&flagVerbose, "verbose", "v", false, "enable verbose logging")
	flags.StringVar(&flagDataDir, "data-dir", "", "directory for the dataset and vector databases (default ~/.sercha-datasets/data)")
	flags.StringVar(&flagConfigDir, "config-dir", "", "directory holding config.toml (default ~/.sercha-datasets)")
	flags.StringVarP(&flagProject, "project", "P", "default", "project that owns the datasets")
	flags.BoolVar(&flagEphemeral, "ephemeral", false, "keep all data in memory for this run")
}

// SetServices injects the services used by the commands.
func SetServices(s *Services) {
	if s == nil {
		s = &Services{}
	}
	datasetService = s.Dataset
	datapointService = s.Datapoint
	deletionService = s.Deletion
	indexService = s.Index
	settingsService = s.Settings
	scheduler = s.Scheduler
	supportsFile = s.Supports
	closeServices = s.Close
}

// SetBootstrap registers the function that builds the services on first use.
func SetBootstrap(fn BootstrapFunc) {
	bootstrap = fn
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// Execute runs the root command and releases the services afterwards.
func Execute(ctx context.Context) error {
	defer func() {
		if err := shutdown(); err != nil {
			logger.Warn("closing stores: %v", err)
		}
	}()
	return rootCmd.ExecuteContext(ctx)
}

func prepareServices(cmd *cobra.Command, _ []string) error {
	logger.SetVerbose(flagVerbose)

	if cmd.Annotations[skipBootstrapAnnotation] == "true" || bootstrap == nil || datasetService != nil {
		return nil
	}

	s, err := bootstrap(Options{
		DataDir:   flagDataDir,
		ConfigDir: flagConfigDir,
		Ephemeral: flagEphemeral,
	})
	if err != nil {
		return err
	}
	SetServices(s)
	return nil
}

func shutdown() error {
	if closeServices == nil {
		return nil
	}
	fn := closeServices
	closeServices = nil
	return fn()
}

// project returns the project selected by the --project flag.
func project() string {
	return flagProject
}
