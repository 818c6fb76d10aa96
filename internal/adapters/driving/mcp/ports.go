package mcp

import (
	"errors"

	"github.com/custodia-labs/recall/internal/core/ports/driving"
)

// ErrMissingRetrievalService indicates the server was constructed
// without its required retrieval port.
var ErrMissingRetrievalService = errors.New("mcp: retrieval service is required")

// Ports aggregates the driving port interfaces required by the MCP
// server. This provides a single injection point for dependency
// injection.
type Ports struct {
	// Retrieval provides ingestion and search capabilities.
	Retrieval driving.RetrievalService
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Retrieval == nil {
		return ErrMissingRetrievalService
	}
	return nil
}
