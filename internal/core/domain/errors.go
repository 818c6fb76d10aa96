package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotImplemented indicates functionality is not yet available.
	ErrNotImplemented = errors.New("not implemented")

	// Embedding Engine Errors.

	// ErrConfiguration indicates the embedding engine could not be
	// constructed, typically because a required tensor name could not
	// be resolved. The engine is unusable; this is fatal.
	ErrConfiguration = errors.New("engine configuration invalid")

	// ErrTokenization indicates the tokenizer failed to encode text.
	ErrTokenization = errors.New("tokenization failed")

	// ErrInference indicates the model invocation itself failed.
	ErrInference = errors.New("inference failed")

	// ErrDimension indicates the model produced an output of
	// unsupported rank (neither [1,dim] nor [1,seq,dim]).
	ErrDimension = errors.New("unsupported output dimensions")

	// Orchestrator Errors.

	// ErrIngest indicates document ingestion failed.
	ErrIngest = errors.New("ingest failed")

	// ErrSearch indicates a search operation failed.
	ErrSearch = errors.New("search failed")
)

// OutputMissingError indicates the model returned outputs but none
// matched the resolved output tensor name. It lists the outputs that
// were actually present so the mismatch can be diagnosed.
type OutputMissingError struct {
	// Name is the output tensor name the engine expected.
	Name string

	// Available are the output names the model actually returned.
	Available []string
}

func (e *OutputMissingError) Error() string {
	return fmt.Sprintf("output tensor %q missing (available: %s)",
		e.Name, strings.Join(e.Available, ", "))
}
