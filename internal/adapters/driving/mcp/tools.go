package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/sercha-datasets/internal/core/domain"
)

// defaultSearchLimit is used when a search names no limit.
const defaultSearchLimit = 10

// DatasetOutput describes a dataset after an index operation.
type DatasetOutput struct {
	ID        string `json:"id"`
	ProjectID string `json:"project_id"`
	Name      string `json:"name"`
	IndexedOn string `json:"indexed_on,omitempty"`
	Indexed   bool   `json:"indexed"`
}

// IndexDatasetInput is the input schema for the index_dataset tool.
type IndexDatasetInput struct {
	Project   string `json:"project,omitempty" jsonschema:"project id (defaults to the server's project)"`
	DatasetID string `json:"dataset_id" jsonschema:"the dataset to re-index"`
	Column    string `json:"column,omitempty" jsonschema:"field path to index, e.g. data.text"`
	Clear     bool   `json:"clear,omitempty" jsonschema:"remove the dataset from the vector index instead"`
}

// RebuildDatasetInput is the input schema for the rebuild_dataset tool.
type RebuildDatasetInput struct {
	Project   string `json:"project,omitempty" jsonschema:"project id (defaults to the server's project)"`
	DatasetID string `json:"dataset_id" jsonschema:"the dataset to rebuild"`
}

// DeleteDatapointsInput is the input schema for the delete_datapoints tool.
type DeleteDatapointsInput struct {
	Project   string   `json:"project,omitempty" jsonschema:"project id (defaults to the server's project)"`
	DatasetID string   `json:"dataset_id" jsonschema:"the dataset holding the datapoints"`
	IDs       []string `json:"ids,omitempty" jsonschema:"datapoint ids to delete"`
	All       bool     `json:"all,omitempty" jsonschema:"delete every datapoint of the dataset"`
}

// DeleteDatapointsOutput is the output schema for the delete_datapoints tool.
type DeleteDatapointsOutput struct {
	Deleted []string `json:"deleted"`
	Count   int      `json:"count"`
}

// SearchDatapointsInput is the input schema for the search_datapoints tool.
type SearchDatapointsInput struct {
	Project   string `json:"project,omitempty" jsonschema:"project id (defaults to the server's project)"`
	DatasetID string `json:"dataset_id" jsonschema:"the indexed dataset to search"`
	Query     string `json:"query" jsonschema:"text to find similar datapoints for"`
	Limit     int    `json:"limit,omitempty" jsonschema:"maximum number of results to return (default 10)"`
}

// SearchDatapointsOutput is the output schema for the search_datapoints tool.
type SearchDatapointsOutput struct {
	Results []SearchHitOutput `json:"results"`
	Count   int               `json:"count"`
}

// SearchHitOutput represents a single nearest datapoint.
type SearchHitOutput struct {
	DatapointID string         `json:"datapoint_id"`
	Similarity  float64        `json:"similarity"`
	Payload     map[string]any `json:"payload,omitempty"`
}

// IndexStatusInput is the input schema for the index_status tool.
type IndexStatusInput struct {
	DatasetID string `json:"dataset_id" jsonschema:"the dataset to inspect"`
}

// IndexStatusOutput is the output schema for the index_status tool.
type IndexStatusOutput struct {
	DatasetID    string  `json:"dataset_id"`
	State        string  `json:"state"`
	BatchesDone  int     `json:"batches_done"`
	BatchesTotal int     `json:"batches_total"`
	Progress     float64 `json:"progress"`
	Error        string  `json:"error,omitempty"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "index_dataset",
		Description: "Change which datapoint field a dataset's vector index is built on",
	}, s.handleIndexDataset)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "rebuild_dataset",
		Description: "Re-create every embedding of a dataset from stored datapoints",
	}, s.handleRebuildDataset)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "delete_datapoints",
		Description: "Delete datapoints and their embeddings",
	}, s.handleDeleteDatapoints)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "search_datapoints",
		Description: "Find the datapoints of an indexed dataset most similar to a query",
	}, s.handleSearchDatapoints)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "index_status",
		Description: "Show the re-index state of a dataset",
	}, s.handleIndexStatus)
}

func (s *Server) handleIndexDataset(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input IndexDatasetInput,
) (*mcp.CallToolResult, DatasetOutput, error) {
	var column *string
	switch {
	case input.Clear && input.Column != "":
		return nil, DatasetOutput{}, fmt.Errorf("%w: column and clear are exclusive", domain.ErrInvalidInput)
	case input.Clear:
	case input.Column == "":
		return nil, DatasetOutput{}, fmt.Errorf("%w: column is required unless clear is set", domain.ErrInvalidInput)
	default:
		column = &input.Column
	}

	dataset, err := s.ports.Index.Reindex(ctx, s.ports.project(input.Project), input.DatasetID, column)
	if err != nil {
		return nil, DatasetOutput{}, err
	}
	return nil, toDatasetOutput(dataset), nil
}

func (s *Server) handleRebuildDataset(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input RebuildDatasetInput,
) (*mcp.CallToolResult, DatasetOutput, error) {
	dataset, err := s.ports.Index.Rebuild(ctx, s.ports.project(input.Project), input.DatasetID)
	if err != nil {
		return nil, DatasetOutput{}, err
	}
	return nil, toDatasetOutput(dataset), nil
}

func (s *Server) handleDeleteDatapoints(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input DeleteDatapointsInput,
) (*mcp.CallToolResult, DeleteDatapointsOutput, error) {
	project := s.ports.project(input.Project)

	var (
		deleted []string
		err     error
	)
	switch {
	case input.All && len(input.IDs) > 0:
		return nil, DeleteDatapointsOutput{}, fmt.Errorf("%w: ids and all are exclusive", domain.ErrInvalidInput)
	case input.All:
		deleted, err = s.ports.Deletion.DeleteAllDatapoints(ctx, project, input.DatasetID)
	default:
		deleted, err = s.ports.Deletion.DeleteDatapoints(ctx, project, input.DatasetID, input.IDs)
	}
	if err != nil {
		return nil, DeleteDatapointsOutput{}, err
	}

	if deleted == nil {
		deleted = []string{}
	}
	return nil, DeleteDatapointsOutput{Deleted: deleted, Count: len(deleted)}, nil
}

func (s *Server) handleSearchDatapoints(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchDatapointsInput,
) (*mcp.CallToolResult, SearchDatapointsOutput, error) {
	limit := input.Limit
	if limit <= 0 {
		limit = defaultSearchLimit
	}

	hits, err := s.ports.Datapoint.Search(ctx, s.ports.project(input.Project), input.DatasetID, input.Query, limit)
	if err != nil {
		return nil, SearchDatapointsOutput{}, err
	}

	output := SearchDatapointsOutput{
		Results: make([]SearchHitOutput, len(hits)),
		Count:   len(hits),
	}
	for i := range hits {
		output.Results[i] = SearchHitOutput{
			DatapointID: hits[i].ID,
			Similarity:  hits[i].Similarity,
			Payload:     hits[i].Payload,
		}
	}
	return nil, output, nil
}

func (s *Server) handleIndexStatus(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input IndexStatusInput,
) (*mcp.CallToolResult, IndexStatusOutput, error) {
	status, err := s.ports.Index.Status(ctx, input.DatasetID)
	if err != nil {
		return nil, IndexStatusOutput{}, err
	}
	return nil, IndexStatusOutput{
		DatasetID:    status.DatasetID,
		State:        status.State.String(),
		BatchesDone:  status.BatchesDone,
		BatchesTotal: status.BatchesTotal,
		Progress:     status.Progress(),
		Error:        status.Error,
	}, nil
}

func toDatasetOutput(ds *domain.Dataset) DatasetOutput {
	return DatasetOutput{
		ID:        ds.ID,
		ProjectID: ds.ProjectID,
		Name:      ds.Name,
		IndexedOn: ds.IndexedOnString(),
		Indexed:   ds.IsIndexed(),
	}
}
