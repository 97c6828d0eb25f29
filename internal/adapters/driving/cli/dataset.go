package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/sercha-datasets/internal/adapters/driving/tui"
	"github.com/custodia-labs/sercha-datasets/internal/core/domain"
)

var (
	datasetJSON   bool
	datasetAll    bool
	indexColumn   string
	indexClear    bool
	indexProgress bool
)

var datasetCmd = &cobra.Command{
	Use:   "dataset",
	Short: "Manage datasets and their vector index",
	Long: `Create and inspect datasets, choose the datapoint field their vector
index mirrors, and rebuild or delete them.`,
}

var datasetCreateCmd = &cobra.Command{
	Use:   "create [name]",
	Short: "Create an unindexed dataset",
	Args:  cobra.ExactArgs(1),
	RunE:  runDatasetCreate,
}

var datasetListCmd = &cobra.Command{
	Use:   "list",
	Short: "List datasets of the project",
	Args:  cobra.NoArgs,
	RunE:  runDatasetList,
}

var datasetGetCmd = &cobra.Command{
	Use:   "get [dataset-id]",
	Short: "Show a dataset",
	Args:  cobra.ExactArgs(1),
	RunE:  runDatasetGet,
}

var datasetIndexCmd = &cobra.Command{
	Use:   "index [dataset-id]",
	Short: "Change the field the vector index mirrors",
	Long: `Switch the datapoint field a dataset is indexed on.

Embeddings of the previous field are deleted before the new field is
embedded in batches. The dataset only records the new field once every
batch succeeded; a failed run can simply be retried.

Examples:
  sercha-datasets dataset index 1c9e... --column data.text
  sercha-datasets dataset index 1c9e... --column metadata.title --progress
  sercha-datasets dataset index 1c9e... --clear`,
	Args: cobra.ExactArgs(1),
	RunE: runDatasetIndex,
}

var datasetRebuildCmd = &cobra.Command{
	Use:   "rebuild [dataset-id]",
	Short: "Delete and re-create every embedding of a dataset",
	Args:  cobra.ExactArgs(1),
	RunE:  runDatasetRebuild,
}

var datasetRebuildAllCmd = &cobra.Command{
	Use:   "rebuild-all",
	Short: "Rebuild every indexed dataset",
	Args:  cobra.NoArgs,
	RunE:  runDatasetRebuildAll,
}

var datasetStatusCmd = &cobra.Command{
	Use:   "status [dataset-id]",
	Short: "Show the index lifecycle state of a dataset",
	Args:  cobra.ExactArgs(1),
	RunE:  runDatasetStatus,
}

var datasetDeleteCmd = &cobra.Command{
	Use:   "delete [dataset-id]",
	Short: "Delete a dataset, its datapoints and their embeddings",
	Args:  cobra.ExactArgs(1),
	RunE:  runDatasetDelete,
}

func init() {
	datasetListCmd.Flags().BoolVar(&datasetJSON, "json", false, "output as JSON")
	datasetListCmd.Flags().BoolVar(&datasetAll, "all", false, "list datasets of every project")
	datasetGetCmd.Flags().BoolVar(&datasetJSON, "json", false, "output as JSON")
	datasetStatusCmd.Flags().BoolVar(&datasetJSON, "json", false, "output as JSON")

	datasetIndexCmd.Flags().StringVarP(&indexColumn, "column", "c", "", "datapoint field to index, e.g. data.text")
	datasetIndexCmd.Flags().BoolVar(&indexClear, "clear", false, "remove the dataset from the vector index")
	datasetIndexCmd.Flags().BoolVar(&indexProgress, "progress", false, "show a live progress view")
	datasetIndexCmd.MarkFlagsMutuallyExclusive("column", "clear")
	datasetIndexCmd.MarkFlagsOneRequired("column", "clear")
	datasetRebuildCmd.Flags().BoolVar(&indexProgress, "progress", false, "show a live progress view")

	datasetCmd.AddCommand(datasetCreateCmd)
	datasetCmd.AddCommand(datasetListCmd)
	datasetCmd.AddCommand(datasetGetCmd)
	datasetCmd.AddCommand(datasetIndexCmd)
	datasetCmd.AddCommand(datasetRebuildCmd)
	datasetCmd.AddCommand(datasetRebuildAllCmd)
	datasetCmd.AddCommand(datasetStatusCmd)
	datasetCmd.AddCommand(datasetDeleteCmd)
	rootCmd.AddCommand(datasetCmd)
}

func runDatasetCreate(cmd *cobra.Command, args []string) error {
	if datasetService == nil {
		return errors.New("dataset service not configured")
	}

	ds, err := datasetService.Create(cmd.Context(), project(), args[0])
	if err != nil {
		return fmt.Errorf("failed to create dataset: %w", err)
	}

	cmd.Println(cliStyles.Success.Render("Created dataset " + ds.ID))
	printDataset(cmd, ds)
	return nil
}

func runDatasetList(cmd *cobra.Command, _ []string) error {
	if datasetService == nil {
		return errors.New("dataset service not configured")
	}

	projectID := project()
	if datasetAll {
		projectID = ""
	}
	datasets, err := datasetService.List(cmd.Context(), projectID)
	if err != nil {
		return fmt.Errorf("failed to list datasets: %w", err)
	}

	if datasetJSON {
		return printJSON(cmd, datasets)
	}
	if len(datasets) == 0 {
		cmd.Println("No datasets found.")
		return nil
	}

	cmd.Println(cliStyles.Title.Render(fmt.Sprintf("%-36s  %-24s  %s", "ID", "NAME", "INDEXED ON")))
	for i := range datasets {
		ds := &datasets[i]
		cmd.Printf("%-36s  %-24s  %s\n", ds.ID, truncate(ds.Name, 24), indexedOnLabel(ds.IndexedOn))
	}
	return nil
}

func runDatasetGet(cmd *cobra.Command, args []string) error {
	if datasetService == nil {
		return errors.New("dataset service not configured")
	}

	ds, err := datasetService.Get(cmd.Context(), project(), args[0])
	if err != nil {
		return fmt.Errorf("failed to get dataset: %w", err)
	}

	if datasetJSON {
		return printJSON(cmd, ds)
	}
	printDataset(cmd, ds)
	return nil
}

func runDatasetIndex(cmd *cobra.Command, args []string) error {
	if indexService == nil {
		return errors.New("index service not configured")
	}

	datasetID := args[0]
	var column *string
	if !indexClear {
		column = &indexColumn
	}

	title := fmt.Sprintf("Indexing %s on %s", datasetID, indexedOnLabel(column))
	ds, err := runIndexOperation(cmd, datasetID, title, func(ctx context.Context) (*domain.Dataset, error) {
		return indexService.Reindex(ctx, project(), datasetID, column)
	})
	if err != nil {
		return fmt.Errorf("failed to index dataset: %w", describeReindexError(err))
	}

	if column == nil {
		cmd.Println(cliStyles.Success.Render("Dataset removed from the vector index"))
	} else {
		cmd.Println(cliStyles.Success.Render("Dataset indexed on " + *column))
	}
	printDataset(cmd, ds)
	return nil
}

func runDatasetRebuild(cmd *cobra.Command, args []string) error {
	if indexService == nil {
		return errors.New("index service not configured")
	}

	datasetID := args[0]
	ds, err := runIndexOperation(cmd, datasetID, "Rebuilding "+datasetID, func(ctx context.Context) (*domain.Dataset, error) {
		return indexService.Rebuild(ctx, project(), datasetID)
	})
	if err != nil {
		return fmt.Errorf("failed to rebuild dataset: %w", describeReindexError(err))
	}

	cmd.Println(cliStyles.Success.Render("Rebuilt dataset " + ds.ID))
	printDataset(cmd, ds)
	return nil
}

func runDatasetRebuildAll(cmd *cobra.Command, _ []string) error {
	if indexService == nil {
		return errors.New("index service not configured")
	}

	n, err := indexService.RebuildAll(cmd.Context())
	cmd.Printf("Rebuilt %d datasets\n", n)
	if err != nil {
		return fmt.Errorf("some datasets failed to rebuild: %w", err)
	}
	return nil
}

func runDatasetStatus(cmd *cobra.Command, args []string) error {
	if indexService == nil {
		return errors.New("index service not configured")
	}

	st, err := indexService.Status(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to get status: %w", err)
	}

	if datasetJSON {
		return printJSON(cmd, st)
	}
	printStatus(cmd, st)
	return nil
}

func runDatasetDelete(cmd *cobra.Command, args []string) error {
	if deletionService == nil {
		return errors.New("deletion service not configured")
	}

	if err := deletionService.DeleteDataset(cmd.Context(), project(), args[0]); err != nil {
		return fmt.Errorf("failed to delete dataset: %w", describeReindexError(err))
	}

	cmd.Println(cliStyles.Success.Render("Deleted dataset " + args[0]))
	return nil
}

// runIndexOperation runs op directly, or behind the progress view when
// --progress is set and stdout is a terminal.
func runIndexOperation(cmd *cobra.Command, datasetID, title string, op tui.Operation) (*domain.Dataset, error) {
	if !indexProgress || !term.IsTerminal(int(os.Stdout.Fd())) {
		return op(cmd.Context())
	}
	return tui.Run(cmd.Context(), tui.NewPorts(indexService), datasetID, title, op)
}
