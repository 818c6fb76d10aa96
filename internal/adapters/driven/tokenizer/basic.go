// Package tokenizer provides a basic word-level tokenizer adapter.
// It stands in for a full subword tokenizer when a model's vocabulary
// file is not available: tokens are lowercased word runes hashed into
// a fixed id space. Deterministic, vocabulary-free, and sufficient
// for the framing the embedding engine needs (ids plus mask).
package tokenizer

import (
	"hash/fnv"
	"strings"
	"unicode"

	"github.com/custodia-labs/recall/internal/core/ports/driven"
)

// Ensure Basic implements the interface.
var _ driven.Tokenizer = (*Basic)(nil)

// DefaultVocabSize is the id space tokens are hashed into.
const DefaultVocabSize = 30522

// Basic is a deterministic word-hashing tokenizer.
type Basic struct {
	vocabSize int64
}

// New creates a basic tokenizer with the given vocabulary size.
// A non-positive size falls back to DefaultVocabSize.
func New(vocabSize int) *Basic {
	if vocabSize <= 0 {
		vocabSize = DefaultVocabSize
	}
	return &Basic{vocabSize: int64(vocabSize)}
}

// Encode converts text into token ids, one per word. Ids start at 1;
// 0 is reserved for padding.
func (t *Basic) Encode(text string) ([]int64, error) {
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})

	ids := make([]int64, len(words))
	for i, word := range words {
		h := fnv.New32a()
		h.Write([]byte(word))
		ids[i] = int64(h.Sum32())%(t.vocabSize-1) + 1
	}

	return ids, nil
}
