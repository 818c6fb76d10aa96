package lazy

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValue_Get_BuildsOnce(t *testing.T) {
	var builds int32
	v := New(func(_ context.Context) (int, error) {
		atomic.AddInt32(&builds, 1)
		return 42, nil
	})

	ctx := context.Background()
	first, err := v.Get(ctx)
	require.NoError(t, err)
	second, err := v.Get(ctx)
	require.NoError(t, err)

	assert.Equal(t, 42, first)
	assert.Equal(t, 42, second)
	assert.Equal(t, int32(1), atomic.LoadInt32(&builds))
}

func TestValue_Get_ConcurrentCallersShareOneBuild(t *testing.T) {
	var builds int32
	v := New(func(_ context.Context) (string, error) {
		atomic.AddInt32(&builds, 1)
		return "shared", nil
	})

	const callers = 16
	var wg sync.WaitGroup
	results := make([]string, callers)

	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			got, err := v.Get(context.Background())
			assert.NoError(t, err)
			results[i] = got
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&builds))
	for _, got := range results {
		assert.Equal(t, "shared", got)
	}
}

func TestValue_Get_FailureIsMemoized(t *testing.T) {
	var builds int32
	buildErr := errors.New("construction failed")
	v := New(func(_ context.Context) (int, error) {
		atomic.AddInt32(&builds, 1)
		return 0, buildErr
	})

	ctx := context.Background()
	_, err := v.Get(ctx)
	require.ErrorIs(t, err, buildErr)

	// A failed build is not retried.
	_, err = v.Get(ctx)
	require.ErrorIs(t, err, buildErr)
	assert.Equal(t, int32(1), atomic.LoadInt32(&builds))
}
