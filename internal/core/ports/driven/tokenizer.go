package driven

// Tokenizer converts text into integer token ids.
// The encoded sequence is unbounded; the embedding engine truncates
// or pads to its configured sequence length.
type Tokenizer interface {
	// Encode converts text into token ids.
	Encode(text string) ([]int64, error)
}
