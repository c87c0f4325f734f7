package visuals

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"go.uber.org/zap"

	"whiteboard-pipeline/artifact"
	"whiteboard-pipeline/segment"
	"whiteboard-pipeline/trace"
	"whiteboard-pipeline/types"
)

// TraceCache keeps segmented path sets from earlier runs so an unchanged
// diagram is not traced again. Entries are artifact documents on disk; an
// index records when each was made and which runs reused it.
type TraceCache struct {
	dir       string
	indexPath string
	rules     segment.Rules
	runID     string
	log       *zap.SugaredLogger

	mu    sync.Mutex
	index map[string]*cacheEntry // key → entry
}

type cacheEntry struct {
	File      string   `json:"file"`
	Paths     int      `json:"paths"`
	CreatedAt string   `json:"created_at"`
	Runs      []string `json:"runs"`
}

// NewTraceCache opens the cache in dir, creating it if needed. A missing or
// corrupt index starts empty.
func NewTraceCache(dir, indexPath, runID string, rules segment.Rules, log *zap.SugaredLogger) (*TraceCache, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create trace cache: %w", err)
	}
	return &TraceCache{
		dir:       dir,
		indexPath: indexPath,
		rules:     rules,
		runID:     runID,
		log:       log,
		index:     loadIndex(indexPath, log),
	}, nil
}

// CacheKey identifies a normalized image together with every setting that
// affects what tracing and segmentation produce from it.
func CacheKey(img types.RasterImage, opts trace.Options, rules segment.Rules) string {
	h := sha256.New()
	fmt.Fprintf(h, "%dx%dx%d|", img.Width, img.Height, img.Depth)
	h.Write(img.Pix)
	fmt.Fprintf(h, "|%d|%t|%t|%g|%t|%d|%d|%g|%t|%g", opts.Threshold, opts.AutoThreshold, opts.Invert,
		opts.Denoise, opts.Stretch, opts.TurdSize, opts.TurnPolicy, opts.AlphaMax, opts.OptiCurve, opts.OptTolerance)
	fmt.Fprintf(h, "|%g|%g|%g|%g|%g|%g", rules.CloseTolerance, rules.BackgroundCoverage,
		rules.BackgroundOrigin, rules.GlyphMaxArea, rules.GlyphMaxWidth, rules.GlyphMaxHeight)
	return hex.EncodeToString(h.Sum(nil))
}

// Get returns the cached paths for key in their original segmentation
// order. Unreadable entries are dropped and reported as a miss.
func (c *TraceCache) Get(key string) ([]types.VectorPath, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.index[key]
	if !ok {
		return nil, false
	}
	f, err := os.Open(filepath.Join(c.dir, entry.File))
	if err != nil {
		c.log.Warnw("cache entry unreadable, dropping", "key", short(key), "error", err)
		delete(c.index, key)
		c.saveIndex()
		return nil, false
	}
	defer f.Close()

	_, paths, err := artifact.Read(f, c.rules)
	if err != nil {
		c.log.Warnw("cache entry corrupt, dropping", "key", short(key), "error", err)
		delete(c.index, key)
		c.saveIndex()
		return nil, false
	}

	if !slices.Contains(entry.Runs, c.runID) {
		entry.Runs = append(entry.Runs, c.runID)
		c.saveIndex()
	}
	c.log.Debugw("cache hit", "key", short(key), "paths", len(paths))
	return paths, true
}

// Put stores paths under key.
func (c *TraceCache) Put(key string, canvas segment.Canvas, paths []types.VectorPath) error {
	var buf bytes.Buffer
	if err := artifact.Write(&buf, canvas, paths); err != nil {
		return err
	}
	name := key + ".svg"
	tmp := filepath.Join(c.dir, name+".tmp")
	if err := os.WriteFile(tmp, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("write cache entry: %w", err)
	}
	if err := os.Rename(tmp, filepath.Join(c.dir, name)); err != nil {
		return fmt.Errorf("commit cache entry: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.index[key] = &cacheEntry{
		File:      name,
		Paths:     len(paths),
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
		Runs:      []string{c.runID},
	}
	c.saveIndex()
	return nil
}

// Len is the number of indexed entries.
func (c *TraceCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.index)
}

func loadIndex(path string, log *zap.SugaredLogger) map[string]*cacheEntry {
	index := make(map[string]*cacheEntry)
	data, err := os.ReadFile(path)
	if err != nil {
		return index
	}
	if err := json.Unmarshal(data, &index); err != nil {
		log.Warnw("trace cache index corrupt, starting empty", "path", path, "error", err)
		return make(map[string]*cacheEntry)
	}
	return index
}

// saveIndex must be called with c.mu held.
func (c *TraceCache) saveIndex() {
	data, _ := json.MarshalIndent(c.index, "", "  ")
	if err := os.MkdirAll(filepath.Dir(c.indexPath), 0755); err != nil {
		c.log.Warnw("save trace cache index", "error", err)
		return
	}
	if err := os.WriteFile(c.indexPath, data, 0644); err != nil {
		c.log.Warnw("save trace cache index", "error", err)
	}
}

func short(key string) string {
	if len(key) > 12 {
		return key[:12]
	}
	return key
}
