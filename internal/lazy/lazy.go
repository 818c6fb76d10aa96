// Package lazy provides at-most-once construction of shared service
// handles. The first caller triggers construction; concurrent callers
// issued before construction completes await the same in-flight build
// rather than starting a second one.
package lazy

import (
	"context"
	"sync"
)

// Value memoizes the result of a single construction. A failed
// construction is also memoized: the engine either exists once or is
// permanently unusable, matching fatal configuration semantics.
type Value[T any] struct {
	build func(ctx context.Context) (T, error)

	once sync.Once
	val  T
	err  error
}

// New creates a Value that constructs with build on first Get.
func New[T any](build func(ctx context.Context) (T, error)) *Value[T] {
	return &Value[T]{build: build}
}

// Get returns the constructed value, building it on first call.
// The context of the first caller drives construction; later callers
// block until that construction completes.
func (v *Value[T]) Get(ctx context.Context) (T, error) {
	v.once.Do(func() {
		v.val, v.err = v.build(ctx)
	})
	return v.val, v.err
}
