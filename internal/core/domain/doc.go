// Package domain contains the core business types for Recall:
// documents, canonical source records, search modes and results,
// the document lifecycle state machine, and the error taxonomy.
//
// The domain layer has no dependencies on adapters or infrastructure.
package domain
