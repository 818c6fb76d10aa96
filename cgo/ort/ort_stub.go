//go:build !cgo

package ort

import (
	"context"
	"errors"

	"github.com/custodia-labs/recall/internal/core/domain"
	"github.com/custodia-labs/recall/internal/core/ports/driven"
)

// Ensure Session implements the interface.
var _ driven.ModelSession = (*Session)(nil)

// Session wraps an ONNX Runtime inference session.
// This is a stub for builds without CGO.
type Session struct {
	path string
}

// Open loads the ONNX model at path.
// This is a stub for builds without CGO.
func Open(path string) (*Session, error) {
	if path == "" {
		return nil, errors.New("ort: model path cannot be empty")
	}
	return &Session{path: path}, nil
}

// InputNames returns the model's input tensor names.
func (s *Session) InputNames() []string {
	return nil
}

// OutputNames returns the model's output tensor names.
func (s *Session) OutputNames() []string {
	return nil
}

// Run executes the model with the given named inputs.
func (s *Session) Run(_ context.Context, _ map[string]driven.Tensor) (map[string]driven.Tensor, error) {
	return nil, domain.ErrNotImplemented
}

// Close releases the session.
func (s *Session) Close() error {
	return nil
}
