package driven

import "context"

// Tensor is a dense numeric buffer with an explicit shape.
// Exactly one of the value slices is set, matching the element type.
// F16 carries raw IEEE 754 half-precision bits; consumers widen to
// float32 before use.
type Tensor struct {
	// Shape is the dimension sizes, outermost first.
	Shape []int64

	// I64 holds 64-bit integer elements (token ids, masks).
	I64 []int64

	// F32 holds single-precision float elements.
	F32 []float32

	// F16 holds half-precision float elements as raw bits.
	F16 []uint16
}

// Rank returns the number of dimensions.
func (t Tensor) Rank() int {
	return len(t.Shape)
}

// ModelSession is a black-box numeric model invoked with named input
// tensors and producing named output tensors.
//
// Sessions are not assumed safe for concurrent invocation; callers
// serialize Run unless the backing runtime is known to be thread-safe.
type ModelSession interface {
	// InputNames returns the model's input tensor names.
	InputNames() []string

	// OutputNames returns the model's output tensor names.
	OutputNames() []string

	// Run executes the model with the given named inputs.
	Run(ctx context.Context, inputs map[string]Tensor) (map[string]Tensor, error)

	// Close releases resources.
	Close() error
}
