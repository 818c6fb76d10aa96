package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// uriScheme is the custom URI scheme for Recall resources.
const uriScheme = "recall://"

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	// Static resource for listing tracked documents.
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "documents",
		Name:        "documents",
		Description: "Tracked documents with their processing status",
		MIMEType:    "application/json",
	}, s.handleDocumentsResource)
}

// handleDocumentsResource returns summaries of all tracked documents.
func (s *Server) handleDocumentsResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	summaries, err := s.ports.Retrieval.Summaries(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}

	// Build simplified document list.
	type docInfo struct {
		SourceID   string `json:"sourceId"`
		Title      string `json:"title"`
		Kind       string `json:"kind"`
		Status     string `json:"status"`
		ChunkCount int    `json:"chunkCount"`
		PageCount  int    `json:"pageCount,omitempty"`
		Version    int    `json:"version"`
	}

	infos := make([]docInfo, len(summaries))
	for i, sum := range summaries {
		infos[i] = docInfo{
			SourceID:   sum.SourceID,
			Title:      sum.Title,
			Kind:       sum.Kind,
			Status:     string(sum.Status),
			ChunkCount: sum.ChunkCount,
			PageCount:  sum.PageCount,
			Version:    sum.Version,
		}
	}

	data, err := json.MarshalIndent(infos, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling documents: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}
