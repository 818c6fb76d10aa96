package mcp

import "fmt"

// UnknownModeError indicates a search_rag call named a retrieval mode
// the server does not implement.
type UnknownModeError struct {
	// Mode is the mode string the caller supplied.
	Mode string
}

func (e *UnknownModeError) Error() string {
	return fmt.Sprintf("unknown search mode %q (expected semantic, keyword, withContext or hybrid)", e.Mode)
}
