package cli

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-datasets/internal/core/domain"
	"github.com/custodia-labs/sercha-datasets/internal/logger"
)

type testServices struct {
	dataset   *mockDatasetService
	datapoint *mockDatapointService
	deletion  *mockDeletionService
	index     *mockIndexService
	settings  *mockSettingsService
	scheduler *mockScheduler
}

// setupTestServices installs mock services and returns them with a
// cleanup function restoring an unconfigured CLI.
func setupTestServices() (*testServices, func()) {
	col := "data.text"
	ts := &testServices{
		dataset: &mockDatasetService{datasets: []domain.Dataset{
			{ID: "ds-1", ProjectID: "default", Name: "reviews", IndexedOn: &col},
			{ID: "ds-2", ProjectID: "default", Name: "faq"},
		}},
		datapoint: &mockDatapointService{},
		deletion:  &mockDeletionService{},
		index:     &mockIndexService{},
		settings:  newMockSettingsService(),
		scheduler: &mockScheduler{},
	}
	SetServices(&Services{
		Dataset:   ts.dataset,
		Datapoint: ts.datapoint,
		Deletion:  ts.deletion,
		Index:     ts.index,
		Settings:  ts.settings,
		Scheduler: ts.scheduler,
		Supports: func(name string) bool {
			return strings.HasSuffix(name, ".json") || strings.HasSuffix(name, ".jsonl")
		},
	})
	return ts, func() {
		SetServices(nil)
		SetBootstrap(nil)
	}
}

// resetFlags restores every flag to its default so commands can be
// executed repeatedly within one test binary.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

// execute runs the root command with args and returns the combined output.
func execute(t *testing.T, stdin io.Reader, args ...string) (string, error) {
	t.Helper()
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetIn(stdin)
	rootCmd.SetArgs(args)
	defer func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetIn(nil)
		resetFlags(rootCmd)
	}()

	err := rootCmd.ExecuteContext(context.Background())
	return buf.String(), err
}

func TestRootCmd_Use(t *testing.T) {
	assert.Equal(t, "sercha-datasets", rootCmd.Use)
}

func TestRootCmd_PersistentFlags(t *testing.T) {
	for _, name := range []string{"verbose", "data-dir", "config-dir", "project", "ephemeral"} {
		assert.NotNil(t, rootCmd.PersistentFlags().Lookup(name), name)
	}
	assert.Equal(t, "default", rootCmd.PersistentFlags().Lookup("project").DefValue)
}

func TestRootCmd_Subcommands(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"dataset", "datapoint", "config", "schedule", "mcp", "version"} {
		assert.True(t, names[want], "missing command %s", want)
	}
}

func TestRootCmd_BootstrapOnFirstUse(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()
	SetServices(nil)

	var got Options
	closed := false
	SetBootstrap(func(opts Options) (*Services, error) {
		got = opts
		return &Services{
			Dataset: &mockDatasetService{},
			Close: func() error {
				closed = true
				return nil
			},
		}, nil
	})

	out, err := execute(t, nil, "dataset", "list", "--ephemeral", "--data-dir", "/tmp/d", "--config-dir", "/tmp/c")

	require.NoError(t, err)
	assert.Contains(t, out, "No datasets found.")
	assert.Equal(t, Options{DataDir: "/tmp/d", ConfigDir: "/tmp/c", Ephemeral: true}, got)

	require.NoError(t, shutdown())
	assert.True(t, closed)
	assert.NoError(t, shutdown(), "closing twice is a no-op")
}

func TestRootCmd_BootstrapError(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()
	SetServices(nil)
	SetBootstrap(func(Options) (*Services, error) {
		return nil, errors.New("opening store: disk full")
	})

	_, err := execute(t, nil, "dataset", "list")

	assert.EqualError(t, err, "opening store: disk full")
}

func TestRootCmd_VersionSkipsBootstrap(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()
	SetServices(nil)
	SetBootstrap(func(Options) (*Services, error) {
		t.Fatal("bootstrap must not run for version")
		return nil, nil
	})

	_, err := execute(t, nil, "version")

	assert.NoError(t, err)
}

func TestRootCmd_VerboseFlag(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()
	defer logger.SetVerbose(false)

	_, err := execute(t, nil, "--verbose", "dataset", "list")

	require.NoError(t, err)
	assert.True(t, logger.IsVerbose())
}

func TestRootCmd_ProjectFlag(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()

	_, err := execute(t, nil, "--project", "acme", "dataset", "list")

	require.NoError(t, err)
	assert.Equal(t, "acme", ts.dataset.gotProject)
	assert.Equal(t, "default", project(), "flags are reset after each run")
}

func TestSetVersion(t *testing.T) {
	original := version
	defer func() { version = original }()

	SetVersion("")
	assert.Equal(t, original, version)
	SetVersion("1.2.3")
	assert.Equal(t, "1.2.3", version)
}
