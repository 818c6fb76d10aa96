// Package local provides an embedding service backed by a local
// numeric model invoked through named tensors. It owns tokenization
// framing, pooling, precision widening and L2 normalization; the
// model itself is a black box behind driven.ModelSession.
package local

import (
	"context"
	"fmt"
	"math"
	"sync"

	"github.com/custodia-labs/recall/internal/core/domain"
	"github.com/custodia-labs/recall/internal/core/ports/driven"
	"github.com/custodia-labs/recall/internal/logger"
)

// Ensure Engine implements the interface.
var _ driven.EmbeddingService = (*Engine)(nil)

// Default configuration values.
const (
	DefaultSeqLen   = 256
	DefaultStoreDim = 384
)

// normFloor is the minimum value under the square root during L2
// normalization, guarding against division by zero.
const normFloor = 1e-12

// Pooling selects how a rank-3 [1, seq, dim] output is reduced to a
// single vector.
type Pooling string

const (
	// PoolingMean averages token vectors at unmasked positions.
	PoolingMean Pooling = "mean"

	// PoolingFirst takes the first unmasked token vector.
	PoolingFirst Pooling = "first"

	// PoolingLast takes the last unmasked token vector.
	PoolingLast Pooling = "last"
)

// Overrides supplies explicit tensor names, bypassing resolution.
type Overrides struct {
	InputIDs string
	Mask     string
	Output   string
}

// Config holds configuration for the local embedding engine.
type Config struct {
	// ModelName is a display name for the loaded model.
	ModelName string

	// SeqLen is the fixed token sequence length (default 256).
	SeqLen int

	// StoreDim is the number of vector components kept (default 384).
	// Must not exceed the model's native output dimension; shorter
	// model outputs are kept whole.
	StoreDim int

	// Pooling is the rank-3 reduction strategy (default mean).
	Pooling Pooling

	// Overrides are explicit tensor names, bypassing resolution.
	Overrides Overrides
}

// Engine turns text into L2-normalized fixed-dimension vectors.
//
// The model session is not assumed safe for concurrent invocation, so
// Embed serializes all runs behind a mutex.
type Engine struct {
	mu        sync.Mutex
	session   driven.ModelSession
	tokenizer driven.Tokenizer
	spec      ioSpec
	cfg       Config
}

// NewEngine creates an embedding engine over session and tokenizer.
// Tensor names are resolved once here; a missing candidate for any of
// the three required tensors is a fatal configuration error. After
// resolution one warmup inference runs; its failure is logged but
// non-fatal.
func NewEngine(session driven.ModelSession, tokenizer driven.Tokenizer, cfg Config) (*Engine, error) {
	if cfg.SeqLen <= 0 {
		cfg.SeqLen = DefaultSeqLen
	}
	if cfg.StoreDim <= 0 {
		cfg.StoreDim = DefaultStoreDim
	}
	if cfg.Pooling == "" {
		cfg.Pooling = PoolingMean
	}

	spec, err := resolveSpec(session.InputNames(), session.OutputNames(), cfg.Overrides)
	if err != nil {
		return nil, err
	}

	e := &Engine{
		session:   session,
		tokenizer: tokenizer,
		spec:      spec,
		cfg:       cfg,
	}

	// Warmup pays tokenizer and graph initialization cost up front.
	if _, err := e.Embed(context.Background(), "warmup"); err != nil {
		logger.Warn("Warmup inference failed: %v", err)
	}

	return e, nil
}

// Embed generates an L2-normalized vector embedding for text.
func (e *Engine) Embed(ctx context.Context, text string) ([]float32, error) {
	ids, mask, err := e.encode(text)
	if err != nil {
		return nil, err
	}

	shape := []int64{1, int64(e.cfg.SeqLen)}
	inputs := map[string]driven.Tensor{
		e.spec.inputIDs: {Shape: shape, I64: ids},
		e.spec.mask:     {Shape: shape, I64: mask},
	}

	e.mu.Lock()
	outputs, err := e.session.Run(ctx, inputs)
	e.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInference, err)
	}

	out, ok := outputs[e.spec.output]
	if !ok {
		available := make([]string, 0, len(outputs))
		for name := range outputs {
			available = append(available, name)
		}
		return nil, &domain.OutputMissingError{Name: e.spec.output, Available: available}
	}

	vec, err := e.reduce(out, mask)
	if err != nil {
		return nil, err
	}

	if len(vec) > e.cfg.StoreDim {
		vec = vec[:e.cfg.StoreDim]
	}

	l2Normalize(vec)
	return vec, nil
}

// EmbedBatch generates embeddings for multiple texts in input order.
// Items are embedded sequentially; true batched inference is an
// optimization, not a correctness requirement.
func (e *Engine) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	embeddings := make([][]float32, len(texts))
	for i, text := range texts {
		embedding, err := e.Embed(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("embed text %d: %w", i, err)
		}
		embeddings[i] = embedding
	}
	return embeddings, nil
}

// Dimensions returns the stored embedding vector size.
func (e *Engine) Dimensions() int {
	return e.cfg.StoreDim
}

// ModelName returns the name of the embedding model being used.
func (e *Engine) ModelName() string {
	return e.cfg.ModelName
}

// Close releases the underlying model session.
func (e *Engine) Close() error {
	return e.session.Close()
}

// encode tokenizes text into fixed-length id and mask sequences.
// Overlong sequences are truncated to the first SeqLen tokens; short
// ones are right-padded with zero ids and zero mask bits.
func (e *Engine) encode(text string) (ids, mask []int64, err error) {
	tokens, err := e.tokenizer.Encode(text)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", domain.ErrTokenization, err)
	}

	seqLen := e.cfg.SeqLen
	if len(tokens) > seqLen {
		tokens = tokens[:seqLen]
	}

	ids = make([]int64, seqLen)
	mask = make([]int64, seqLen)
	for i, tok := range tokens {
		ids[i] = tok
		mask[i] = 1
	}

	return ids, mask, nil
}

// reduce converts the raw output tensor to a float32 vector, pooling
// across the sequence dimension when the output is rank 3.
func (e *Engine) reduce(out driven.Tensor, mask []int64) ([]float32, error) {
	data := out.F32
	if data == nil && out.F16 != nil {
		data = widenF16(out.F16)
	}
	if data == nil {
		return nil, fmt.Errorf("%w: output has no float data", domain.ErrDimension)
	}

	switch out.Rank() {
	case 2:
		// [1, dim]: the model pooled already.
		vec := make([]float32, len(data))
		copy(vec, data)
		return vec, nil

	case 3:
		seq := int(out.Shape[1])
		dim := int(out.Shape[2])
		return pool(data, seq, dim, mask, e.cfg.Pooling)

	default:
		return nil, fmt.Errorf("%w: rank %d", domain.ErrDimension, out.Rank())
	}
}

// pool reduces a [1, seq, dim] buffer to one vector of length dim
// using the configured strategy. Positions with a zero mask bit are
// padding and excluded; fully masked input falls back as documented
// on each strategy.
func pool(data []float32, seq, dim int, mask []int64, strategy Pooling) ([]float32, error) {
	vec := make([]float32, dim)

	switch strategy {
	case PoolingMean:
		count := 0
		for pos := 0; pos < seq; pos++ {
			if pos >= len(mask) || mask[pos] == 0 {
				continue
			}
			for d := 0; d < dim; d++ {
				vec[d] += data[pos*dim+d]
			}
			count++
		}
		if count == 0 {
			// Nothing unmasked: fall back to the first dim values.
			copy(vec, data[:dim])
			return vec, nil
		}
		for d := 0; d < dim; d++ {
			vec[d] /= float32(count)
		}

	case PoolingFirst:
		pos := 0
		for p := 0; p < seq && p < len(mask); p++ {
			if mask[p] == 1 {
				pos = p
				break
			}
		}
		copy(vec, data[pos*dim:(pos+1)*dim])

	case PoolingLast:
		pos := seq - 1
		for p := seq - 1; p >= 0; p-- {
			if p < len(mask) && mask[p] == 1 {
				pos = p
				break
			}
		}
		copy(vec, data[pos*dim:(pos+1)*dim])

	default:
		return nil, fmt.Errorf("%w: unknown pooling strategy %q", domain.ErrConfiguration, strategy)
	}

	return vec, nil
}

// l2Normalize scales vec to unit Euclidean length in place. The floor
// under the square root keeps an all-zero vector unchanged instead of
// producing NaNs.
func l2Normalize(vec []float32) {
	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	if sum < normFloor {
		return
	}
	norm := float32(math.Sqrt(sum))
	for i := range vec {
		vec[i] /= norm
	}
}
