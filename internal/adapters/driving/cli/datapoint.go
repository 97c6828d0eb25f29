package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-datasets/internal/connectors/filesystem"
	"github.com/custodia-labs/sercha-datasets/internal/core/domain"
)

var (
	datapointJSON   bool
	datapointLimit  int
	datapointOffset int
	searchLimit     int
	watchScan       bool
)

var datapointCmd = &cobra.Command{
	Use:   "datapoint",
	Short: "Add, change and remove datapoints",
	Long: `Manage the datapoints of a dataset. Every change is propagated to the
vector index when the dataset is indexed.`,
}

var datapointCreateCmd = &cobra.Command{
	Use:   "create [dataset-id] [json]",
	Short: "Create datapoints from JSON",
	Long: `Create one datapoint from a JSON object or several from a JSON array.
The JSON is read from stdin when omitted or given as "-".

Each value needs a "data" field; "target", "metadata" and "id" are
optional. Invalid values are reported and skipped.

Example:
  sercha-datasets datapoint create 1c9e... '{"data":{"text":"hello"},"target":"greeting"}'`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runDatapointCreate,
}

var datapointUploadCmd = &cobra.Command{
	Use:   "upload [dataset-id] [file]",
	Short: "Upload datapoints from a file",
	Long: `Upload datapoints from a .json, .jsonl, .ndjson, .csv, .yaml, .xlsx or
.pdf file. CSV and spreadsheet rows become {"data": {column: value}};
"target" and "metadata.*" columns are routed accordingly.`,
	Args: cobra.ExactArgs(2),
	RunE: runDatapointUpload,
}

var datapointUpdateCmd = &cobra.Command{
	Use:   "update [dataset-id] [datapoint-id] [json]",
	Short: "Replace a datapoint's content",
	Args:  cobra.RangeArgs(2, 3),
	RunE:  runDatapointUpdate,
}

var datapointDeleteCmd = &cobra.Command{
	Use:   "delete [dataset-id] [datapoint-id...]",
	Short: "Delete datapoints and their embeddings",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runDatapointDelete,
}

var datapointDeleteAllCmd = &cobra.Command{
	Use:   "delete-all [dataset-id]",
	Short: "Delete every datapoint of a dataset",
	Args:  cobra.ExactArgs(1),
	RunE:  runDatapointDeleteAll,
}

var datapointListCmd = &cobra.Command{
	Use:   "list [dataset-id]",
	Short: "List datapoints of a dataset",
	Args:  cobra.ExactArgs(1),
	RunE:  runDatapointList,
}

var datapointSearchCmd = &cobra.Command{
	Use:   "search [dataset-id] [query]",
	Short: "Find the datapoints nearest to a query",
	Args:  cobra.ExactArgs(2),
	RunE:  runDatapointSearch,
}

var datapointWatchCmd = &cobra.Command{
	Use:   "watch [dataset-id] [dir]",
	Short: "Upload files dropped into a folder",
	Long: `Watch a folder and upload every supported file that is created or
rewritten in it. Use --scan to upload the files already present first.
Stop with Ctrl+C.`,
	Args: cobra.ExactArgs(2),
	RunE: runDatapointWatch,
}

func init() {
	datapointListCmd.Flags().IntVarP(&datapointLimit, "limit", "n", 20, "maximum number of datapoints (0 = all)")
	datapointListCmd.Flags().IntVar(&datapointOffset, "offset", 0, "number of datapoints to skip")
	datapointListCmd.Flags().BoolVar(&datapointJSON, "json", false, "output as JSON")
	datapointSearchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 10, "maximum number of results")
	datapointSearchCmd.Flags().BoolVar(&datapointJSON, "json", false, "output as JSON")
	datapointWatchCmd.Flags().BoolVar(&watchScan, "scan", false, "upload existing files before watching")

	datapointCmd.AddCommand(datapointCreateCmd)
	datapointCmd.AddCommand(datapointUploadCmd)
	datapointCmd.AddCommand(datapointUpdateCmd)
	datapointCmd.AddCommand(datapointDeleteCmd)
	datapointCmd.AddCommand(datapointDeleteAllCmd)
	datapointCmd.AddCommand(datapointListCmd)
	datapointCmd.AddCommand(datapointSearchCmd)
	datapointCmd.AddCommand(datapointWatchCmd)
	rootCmd.AddCommand(datapointCmd)
}

func runDatapointCreate(cmd *cobra.Command, args []string) error {
	if datapointService == nil {
		return errors.New("datapoint service not configured")
	}

	value, err := readJSONArg(cmd, args, 1)
	if err != nil {
		return err
	}
	raws, ok := value.([]any)
	if !ok {
		raws = []any{value}
	}

	res, err := datapointService.Create(cmd.Context(), project(), args[0], raws)
	printIngestResult(cmd, res)
	if err != nil {
		return fmt.Errorf("failed to create datapoints: %w", err)
	}
	return nil
}

func runDatapointUpload(cmd *cobra.Command, args []string) error {
	if datapointService == nil {
		return errors.New("datapoint service not configured")
	}

	path := args[1]
	if supportsFile != nil && !supportsFile(path) {
		return fmt.Errorf("%w: %s", domain.ErrUnsupportedType, filepath.Ext(path))
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	res, err := datapointService.Upload(cmd.Context(), project(), args[0], filepath.Base(path), content)
	printIngestResult(cmd, res)
	if err != nil {
		return fmt.Errorf("failed to upload %s: %w", path, err)
	}
	return nil
}

func runDatapointUpdate(cmd *cobra.Command, args []string) error {
	if datapointService == nil {
		return errors.New("datapoint service not configured")
	}

	raw, err := readJSONArg(cmd, args, 2)
	if err != nil {
		return err
	}

	dp, err := datapointService.Update(cmd.Context(), project(), args[0], args[1], raw)
	if err != nil {
		return fmt.Errorf("failed to update datapoint: %w", err)
	}

	cmd.Println(cliStyles.Success.Render("Updated datapoint " + dp.ID))
	return nil
}

func runDatapointDelete(cmd *cobra.Command, args []string) error {
	if deletionService == nil {
		return errors.New("deletion service not configured")
	}

	datasetID, ids := args[0], args[1:]
	if len(ids) == 1 {
		if err := deletionService.DeleteDatapoint(cmd.Context(), project(), datasetID, ids[0]); err != nil {
			return fmt.Errorf("failed to delete datapoint: %w", err)
		}
		cmd.Println(cliStyles.Success.Render("Deleted datapoint " + ids[0]))
		return nil
	}

	deleted, err := deletionService.DeleteDatapoints(cmd.Context(), project(), datasetID, ids)
	if err != nil {
		return fmt.Errorf("failed to delete datapoints: %w", err)
	}
	cmd.Println(cliStyles.Success.Render(fmt.Sprintf("Deleted %d of %d datapoints", len(deleted), len(ids))))
	return nil
}

func runDatapointDeleteAll(cmd *cobra.Command, args []string) error {
	if deletionService == nil {
		return errors.New("deletion service not configured")
	}

	deleted, err := deletionService.DeleteAllDatapoints(cmd.Context(), project(), args[0])
	if err != nil {
		return fmt.Errorf("failed to delete datapoints: %w", err)
	}
	cmd.Println(cliStyles.Success.Render(fmt.Sprintf("Deleted %d datapoints", len(deleted))))
	return nil
}

func runDatapointList(cmd *cobra.Command, args []string) error {
	if datapointService == nil {
		return errors.New("datapoint service not configured")
	}

	dps, err := datapointService.List(cmd.Context(), project(), args[0], datapointLimit, datapointOffset)
	if err != nil {
		return fmt.Errorf("failed to list datapoints: %w", err)
	}

	if datapointJSON {
		return printJSON(cmd, dps)
	}
	if len(dps) == 0 {
		cmd.Println("No datapoints found.")
		return nil
	}
	for i := range dps {
		data, _ := json.Marshal(dps[i].Data)
		cmd.Printf("%s  %s\n", dps[i].ID, truncate(string(data), 80))
	}
	return nil
}

func runDatapointSearch(cmd *cobra.Command, args []string) error {
	if datapointService == nil {
		return errors.New("datapoint service not configured")
	}

	hits, err := datapointService.Search(cmd.Context(), project(), args[0], args[1], searchLimit)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if datapointJSON {
		return printJSON(cmd, hits)
	}
	if len(hits) == 0 {
		cmd.Println("No results found.")
		return nil
	}

	cmd.Println("Results:")
	cmd.Println()
	for i, hit := range hits {
		cmd.Printf("[%d] %s (%.3f)\n", i+1, hit.ID, hit.Similarity)
		if meta := payloadMetadata(hit.Payload); meta != "" {
			cmd.Println(cliStyles.Muted.Render("    " + truncate(meta, 76)))
		}
	}
	return nil
}

func runDatapointWatch(cmd *cobra.Command, args []string) error {
	if datapointService == nil {
		return errors.New("datapoint service not configured")
	}

	dir := filesystem.ResolvePath(args[1])
	w := filesystem.New(project(), args[0], dir, datapointService, supportsFile).
		OnResult(func(path string, res *domain.IngestResult, err error) {
			if err != nil {
				cmd.Println(cliStyles.Error.Render(fmt.Sprintf("%s: %v", filepath.Base(path), err)))
				return
			}
			cmd.Printf("%s: ", filepath.Base(path))
			printIngestResult(cmd, res)
		})

	if watchScan {
		n, err := w.Scan(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to scan %s: %w", dir, err)
		}
		cmd.Printf("Uploaded %d existing files\n", n)
	}

	cmd.Printf("Watching %s (Ctrl+C to stop)\n", dir)
	if err := w.Watch(cmd.Context()); err != nil && !errors.Is(err, cmd.Context().Err()) {
		return fmt.Errorf("watch failed: %w", err)
	}
	return nil
}

// payloadMetadata renders the datapoint metadata stored with a point.
func payloadMetadata(payload map[string]any) string {
	keys := make([]string, 0, len(payload))
	for k := range payload {
		if k != domain.PayloadKeyID && k != domain.PayloadKeyDatasource {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%v", k, payload[k])
	}
	return strings.Join(parts, " ")
}

// readJSONArg decodes args[i] as JSON, or stdin when it is absent or "-".
func readJSONArg(cmd *cobra.Command, args []string, i int) (any, error) {
	var data []byte
	if len(args) > i && args[i] != "-" {
		data = []byte(args[i])
	} else {
		b, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, fmt.Errorf("failed to read stdin: %w", err)
		}
		data = b
	}

	var value any
	if err := json.Unmarshal(data, &value); err != nil {
		return nil, fmt.Errorf("%w: invalid JSON: %w", domain.ErrInvalidInput, err)
	}
	return value, nil
}
