package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-datasets/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/sercha-datasets/internal/core/domain"
)

var cliStyles = styles.DefaultStyles()

func printJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func printDataset(cmd *cobra.Command, ds *domain.Dataset) {
	cmd.Println(cliStyles.Field("ID", ds.ID))
	cmd.Println(cliStyles.Field("Name", ds.Name))
	cmd.Println(cliStyles.Field("Project", ds.ProjectID))
	cmd.Println(cliStyles.Field("Indexed on", indexedOnLabel(ds.IndexedOn)))
	if !ds.CreatedAt.IsZero() {
		cmd.Println(cliStyles.Field("Created", ds.CreatedAt.Format("2006-01-02 15:04:05")))
	}
}

func printStatus(cmd *cobra.Command, st *domain.ReindexStatus) {
	cmd.Println(cliStyles.Field("Dataset", st.DatasetID))
	cmd.Println(cliStyles.Field("State", cliStyles.State(st.State).Render(st.State.String())))
	if st.From != nil || st.To != nil {
		cmd.Println(cliStyles.Field("Column", indexedOnLabel(st.From)+" -> "+indexedOnLabel(st.To)))
	}
	if st.BatchesTotal > 0 {
		cmd.Println(cliStyles.Field("Batches", fmt.Sprintf("%d / %d", st.BatchesDone, st.BatchesTotal)))
	}
	if !st.StartedAt.IsZero() {
		cmd.Println(cliStyles.Field("Started", st.StartedAt.Format("2006-01-02 15:04:05")))
	}
	if st.Error != "" {
		cmd.Println(cliStyles.Field("Error", cliStyles.Error.Render(st.Error)))
	}
}

// printIngestResult summarises a create or upload.
func printIngestResult(cmd *cobra.Command, res *domain.IngestResult) {
	if res == nil {
		return
	}
	rejected := res.Parse.Rejected()
	cmd.Printf("Stored %d datapoints", len(res.Datapoints))
	if len(rejected) > 0 {
		cmd.Printf(", rejected %d", len(rejected))
	}
	cmd.Println()

	for _, r := range rejected {
		cmd.Println(cliStyles.Warning.Render(fmt.Sprintf("  record %d: %v", r.Index+1, r.Reason)))
	}
	printIndexReport(cmd, res.Index)
}

func printIndexReport(cmd *cobra.Command, report *domain.IndexReport) {
	if report == nil {
		cmd.Println(cliStyles.Muted.Render("Dataset is not indexed; no embeddings written."))
		return
	}
	cmd.Printf("Indexed %d of %d datapoints in %d batches of %d\n",
		report.Indexed(), report.Total, len(report.Batches), report.BatchSize)
	if failed, ok := report.Failed(); ok {
		cmd.Println(cliStyles.Error.Render(fmt.Sprintf("Batch %d failed: %v", failed.Batch+1, failed.Err)))
		cmd.Printf("Datapoints from offset %d are stored but not indexed; run 'sercha-datasets dataset rebuild' to retry.\n",
			report.ResumeOffset())
	}
}

// describeReindexError adds a hint to re-index failures with a known remedy.
func describeReindexError(err error) error {
	var batchErr *domain.BatchError
	switch {
	case errors.As(err, &batchErr):
		return fmt.Errorf("%w (the index column was left unchanged; retry to converge)", err)
	case errors.Is(err, domain.ErrReindexInProgress):
		return fmt.Errorf("%w: wait for the running operation or check 'dataset status'", err)
	default:
		return err
	}
}

func indexedOnLabel(col *string) string {
	if col == nil {
		return "(none)"
	}
	return *col
}

func truncate(s string, n int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
