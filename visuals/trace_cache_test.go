package visuals

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"whiteboard-pipeline/segment"
	"whiteboard-pipeline/trace"
	"whiteboard-pipeline/types"
)

func TestTraceCachePutGet(t *testing.T) {
	dir := t.TempDir()
	index := filepath.Join(dir, "index.json")
	rules := segment.DefaultRules()
	c, err := NewTraceCache(dir, index, "run1", rules, zap.NewNop().Sugar())
	require.NoError(t, err)

	canvas := segment.Canvas{Width: 640, Height: 360}
	paths := segment.New(canvas, rules).Segment("M 10 10 L 300 10 L 300 200 Z M 400 300 L 420 300 L 420 320 Z")
	require.Len(t, paths, 2)

	_, ok := c.Get("missing")
	assert.False(t, ok)

	require.NoError(t, c.Put("k1", canvas, paths))
	got, ok := c.Get("k1")
	require.True(t, ok)
	assert.Equal(t, paths, got)

	// The index survives a reopen and records every run that used an entry.
	reopened, err := NewTraceCache(dir, index, "run2", rules, zap.NewNop().Sugar())
	require.NoError(t, err)
	_, ok = reopened.Get("k1")
	require.True(t, ok)
	assert.Equal(t, []string{"run1", "run2"}, reopened.index["k1"].Runs)
}

func TestTraceCacheDropsCorruptEntries(t *testing.T) {
	dir := t.TempDir()
	c, err := NewTraceCache(dir, filepath.Join(dir, "index.json"), "run", segment.DefaultRules(), zap.NewNop().Sugar())
	require.NoError(t, err)

	require.NoError(t, c.Put("k", segment.Canvas{Width: 100, Height: 100}, []types.VectorPath{
		{Commands: "M 1 1 L 50 50", Classification: types.Stroke},
	}))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "k.svg"), []byte("garbage"), 0644))

	_, ok := c.Get("k")
	assert.False(t, ok)
	assert.Zero(t, c.Len())
}

func TestCacheKey(t *testing.T) {
	img := types.RasterImage{Pix: []byte{0, 1, 2, 3}, Width: 2, Height: 2, Depth: 1}
	opts := trace.DefaultOptions()
	rules := segment.DefaultRules()
	base := CacheKey(img, opts, rules)
	assert.Len(t, base, 64)
	assert.Equal(t, base, CacheKey(img, opts, rules))

	other := img
	other.Pix = []byte{0, 1, 2, 4}
	assert.NotEqual(t, base, CacheKey(other, opts, rules))

	opts.Threshold = 100
	assert.NotEqual(t, base, CacheKey(img, opts, rules))

	for _, mutate := range []func(*trace.Options){
		func(o *trace.Options) { o.AutoThreshold = true },
		func(o *trace.Options) { o.Denoise = 1 },
		func(o *trace.Options) { o.Stretch = true },
	} {
		o := trace.DefaultOptions()
		mutate(&o)
		assert.NotEqual(t, base, CacheKey(img, o, rules))
	}

	rules.GlyphMaxArea = 0.5
	assert.NotEqual(t, base, CacheKey(img, trace.DefaultOptions(), rules))
}
