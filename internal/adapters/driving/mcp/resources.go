package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	// uriScheme is the custom URI scheme for dataset resources.
	uriScheme = "sercha-datasets://"
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	// Static resource for listing datasets.
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "datasets",
		Name:        "datasets",
		Description: "Datasets of the server's project with their indexed field",
		MIMEType:    "application/json",
	}, s.handleDatasetsResource)

	// Template for the first page of a dataset's datapoints.
	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "datasets/{datasetId}/datapoints",
		Name:        "dataset-datapoints",
		Description: "Stored datapoints of a dataset, in insertion order",
		MIMEType:    "application/json",
	}, s.handleDatapointsResource)
}

// resourcePageSize bounds the datapoints returned by one resource read.
const resourcePageSize = 100

// handleDatasetsResource returns the datasets of the configured project.
func (s *Server) handleDatasetsResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Dataset == nil {
		return jsonResource(req.Params.URI, []DatasetOutput{})
	}

	datasets, err := s.ports.Dataset.List(ctx, s.ports.Project)
	if err != nil {
		return nil, fmt.Errorf("listing datasets: %w", err)
	}

	infos := make([]DatasetOutput, len(datasets))
	for i := range datasets {
		infos[i] = toDatasetOutput(&datasets[i])
	}
	return jsonResource(req.Params.URI, infos)
}

// handleDatapointsResource returns the first page of a dataset's datapoints.
func (s *Server) handleDatapointsResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	datasetID := extractDatasetID(req.Params.URI)
	if datasetID == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	datapoints, err := s.ports.Datapoint.List(ctx, s.ports.Project, datasetID, resourcePageSize, 0)
	if err != nil {
		return nil, fmt.Errorf("listing datapoints: %w", err)
	}
	return jsonResource(req.Params.URI, datapoints)
}

func jsonResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling resource: %w", err)
	}
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// extractDatasetID extracts the dataset ID from a URI like sercha-datasets://datasets/{datasetId}/datapoints.
func extractDatasetID(uri string) string {
	const prefix = uriScheme + "datasets/"
	const suffix = "/datapoints"

	if !strings.HasPrefix(uri, prefix) {
		return ""
	}

	uri = strings.TrimPrefix(uri, prefix)
	if !strings.HasSuffix(uri, suffix) {
		return ""
	}

	return strings.TrimSuffix(uri, suffix)
}
