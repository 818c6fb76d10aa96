package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/recall/internal/core/domain"
)

// Tool parameter bounds and defaults.
const (
	defaultTopK       = 5
	maxTopK           = 25
	defaultExpand     = 1
	maxExpand         = 1000
	defaultBM25Weight = 0.5
)

// SearchRAGInput is the input schema for the search_rag tool.
type SearchRAGInput struct {
	Query      string   `json:"query" jsonschema:"the search query to find passages"`
	Source     string   `json:"source,omitempty" jsonschema:"restrict results to one sourceId"`
	TopK       int      `json:"top_k,omitempty" jsonschema:"maximum number of results, 1-25 (default 5)"`
	Mode       string   `json:"mode,omitempty" jsonschema:"retrieval mode: semantic, keyword, withContext or hybrid (default hybrid)"`
	Expand     *int     `json:"expand,omitempty" jsonschema:"neighbouring context chunks per hit, 0-1000 (default 1)"`
	BM25Weight *float64 `json:"bm25_weight,omitempty" jsonschema:"lexical share of the fused score, 0-1 (default 0.5)"`
}

// SearchRAGOutput is the output schema for the search_rag tool.
type SearchRAGOutput struct {
	Results []SearchRAGResult `json:"results"`
	Count   int               `json:"count"`
}

// SearchRAGResult represents a single retrieved passage.
type SearchRAGResult struct {
	SourceID  string   `json:"sourceId"`
	StartPage *int     `json:"startPage,omitempty"`
	Excerpt   string   `json:"excerpt"`
	Text      string   `json:"text"`
	BM25      float64  `json:"bm25"`
	Cosine    *float64 `json:"cosine,omitempty"`
	Score     float64  `json:"score"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "search_rag",
		Description: "Retrieve relevant passages from the local corpus to ground an answer",
	}, s.handleSearchRAG)
}

// handleSearchRAG handles the search_rag tool invocation.
func (s *Server) handleSearchRAG(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchRAGInput,
) (*mcp.CallToolResult, SearchRAGOutput, error) {
	topK := input.TopK
	if topK <= 0 {
		topK = defaultTopK
	}
	if topK > maxTopK {
		topK = maxTopK
	}

	expand := defaultExpand
	if input.Expand != nil {
		expand = *input.Expand
		if expand < 0 {
			expand = 0
		}
		if expand > maxExpand {
			expand = maxExpand
		}
	}

	weight := defaultBM25Weight
	if input.BM25Weight != nil {
		weight = *input.BM25Weight
	}

	var mode domain.SearchMode
	switch input.Mode {
	case "semantic":
		mode = domain.Semantic()
	case "keyword":
		mode = domain.Keyword()
	case "withContext":
		mode = domain.WithContext(expand)
	case "hybrid", "":
		mode = domain.Hybrid(expand, weight)
	default:
		return nil, SearchRAGOutput{}, &UnknownModeError{Mode: input.Mode}
	}

	results, err := s.ports.Retrieval.Search(ctx, input.Query, input.Source, topK, mode)
	if err != nil {
		return nil, SearchRAGOutput{}, err
	}

	output := SearchRAGOutput{
		Results: make([]SearchRAGResult, len(results)),
		Count:   len(results),
	}

	for i := range results {
		output.Results[i] = SearchRAGResult{
			SourceID:  results[i].SourceID,
			StartPage: results[i].StartPage,
			Excerpt:   results[i].Excerpt,
			Text:      results[i].Text,
			BM25:      results[i].BM25Score,
			Cosine:    results[i].CosineScore,
			Score:     results[i].FusedScore,
		}
	}

	return nil, output, nil
}
