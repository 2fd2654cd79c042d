package embedder

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingEmbedder tracks how many times Embed is called per text.
type countingEmbedder struct {
	mu    sync.Mutex
	calls map[string]int
	dim   int
}

func newCountingEmbedder(dim int) *countingEmbedder {
	return &countingEmbedder{calls: make(map[string]int), dim: dim}
}

func (e *countingEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	e.mu.Lock()
	e.calls[text]++
	e.mu.Unlock()

	vec := make([]float32, e.dim)
	for i, r := range text {
		vec[i%e.dim] += float32(r)
	}
	return vec, nil
}

func (e *countingEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, err := e.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (e *countingEmbedder) Dimension() int    { return e.dim }
func (e *countingEmbedder) ModelInfo() string { return "counting" }

func TestCachedEmbedder_Memoizes(t *testing.T) {
	inner := newCountingEmbedder(8)
	cached, err := NewCachedEmbedder(inner, 100)
	require.NoError(t, err)

	ctx := context.Background()
	first, err := cached.Embed(ctx, "hello world")
	require.NoError(t, err)

	second, err := cached.Embed(ctx, "hello world")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, inner.calls["hello world"])
}

func TestCachedEmbedder_Eviction(t *testing.T) {
	inner := newCountingEmbedder(4)
	cached, err := NewCachedEmbedder(inner, 2)
	require.NoError(t, err)

	ctx := context.Background()
	for _, text := range []string{"a", "b", "c"} {
		_, err := cached.Embed(ctx, text)
		require.NoError(t, err)
	}

	// "a" was evicted by "c", so embedding it again hits the inner embedder.
	_, err = cached.Embed(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, 2, inner.calls["a"])
	assert.Equal(t, 2, cached.Len())
}

func TestCachedEmbedder_ConcurrentAccess(t *testing.T) {
	inner := newCountingEmbedder(4)
	cached, err := NewCachedEmbedder(inner, 100)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := cached.Embed(context.Background(), "shared text")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	vec, err := cached.Embed(context.Background(), "shared text")
	require.NoError(t, err)
	assert.Len(t, vec, 4)
}

func TestCachedEmbedder_DelegatesMetadata(t *testing.T) {
	inner := newCountingEmbedder(16)
	cached, err := NewCachedEmbedder(inner, 0) // falls back to default size
	require.NoError(t, err)

	assert.Equal(t, 16, cached.Dimension())
	assert.Equal(t, "counting", cached.ModelInfo())
}
