package visuals

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"whiteboard-pipeline/artifact"
	"whiteboard-pipeline/canvas"
	"whiteboard-pipeline/config"
	"whiteboard-pipeline/geometry"
	"whiteboard-pipeline/segment"
	"whiteboard-pipeline/trace"
	"whiteboard-pipeline/types"
)

// Assembler turns every diagram into a normalized raster plus an ordered,
// classified path set ready for the reveal.
type Assembler struct {
	cfg       *config.Config
	cache     *TraceCache
	segmenter *segment.Segmenter
	size      canvas.Size
	normOpts  canvas.Options
	traceOpts trace.Options
	order     segment.OrderPolicy
	log       *zap.SugaredLogger
}

// NewAssembler builds an Assembler from cfg. runID is recorded against the
// cache entries this run touches.
func NewAssembler(cfg *config.Config, runID string, log *zap.SugaredLogger) (*Assembler, error) {
	traceOpts, err := TraceOptions(cfg)
	if err != nil {
		return nil, err
	}
	bg, err := canvas.ParseHexColor(cfg.Canvas.Background)
	if err != nil {
		return nil, fmt.Errorf("canvas.background: %w", err)
	}
	order, err := segment.ParseOrderPolicy(cfg.Classify.Order)
	if err != nil {
		return nil, fmt.Errorf("classify.order: %w", err)
	}

	rules := SegmentRules(cfg)
	cache, err := NewTraceCache(cfg.Paths.Cache, cfg.Paths.CacheIndex, runID, rules, log.Named("cache"))
	if err != nil {
		return nil, err
	}

	size := canvas.Size{Width: cfg.Canvas.Width, Height: cfg.Canvas.Height}
	return &Assembler{
		cfg:       cfg,
		cache:     cache,
		segmenter: segment.New(segment.Canvas{Width: float64(size.Width), Height: float64(size.Height)}, rules),
		size:      size,
		normOpts:  canvas.Options{MaxUpscale: cfg.Canvas.MaxUpscale, Background: bg},
		traceOpts: traceOpts,
		order:     order,
		log:       log,
	}, nil
}

// TraceOptions maps the trace section of cfg onto trace.Options.
func TraceOptions(cfg *config.Config) (trace.Options, error) {
	policy, err := trace.ParseTurnPolicy(cfg.Trace.TurnPolicy)
	if err != nil {
		return trace.Options{}, fmt.Errorf("trace.turn_policy: %w", err)
	}
	opts := trace.Options{
		Threshold:    trace.DefaultOptions().Threshold,
		Invert:       cfg.Trace.Invert,
		Denoise:      cfg.Trace.Denoise,
		Stretch:      cfg.Trace.StretchContrast,
		TurdSize:     cfg.Trace.TurdSize,
		TurnPolicy:   policy,
		AlphaMax:     cfg.Trace.AlphaMax,
		OptiCurve:    cfg.Trace.OptiCurve,
		OptTolerance: cfg.Trace.OptTolerance,
		Timeout:      cfg.Trace.Timeout,
	}
	if cfg.Trace.Threshold == config.AutoThreshold {
		opts.AutoThreshold = true
	} else {
		opts.Threshold = uint8(cfg.Trace.Threshold)
	}
	return opts, nil
}

// SegmentRules maps the classify section of cfg onto segment.Rules.
func SegmentRules(cfg *config.Config) segment.Rules {
	c := cfg.Classify
	return segment.Rules{
		CloseTolerance:     c.CloseTolerance,
		BackgroundCoverage: c.BackgroundCoverage,
		BackgroundOrigin:   c.BackgroundOrigin,
		GlyphMaxArea:       c.GlyphMaxArea,
		GlyphMaxWidth:      c.GlyphMaxWidth,
		GlyphMaxHeight:     c.GlyphMaxHeight,
	}
}

// Run prepares all diagrams concurrently, at most cfg.Trace.Workers at a
// time. Diagrams that cannot be traced fall back to a fade presentation; an
// unreadable or invalid source image fails the run.
func (a *Assembler) Run(ctx context.Context, diagrams []*types.Diagram, outputDir string) error {
	a.log.Infof("Vectorizing %d diagram(s) with %d worker(s)", len(diagrams), a.cfg.Trace.Workers)

	visualDir := filepath.Join(outputDir, "visuals")
	if err := os.MkdirAll(visualDir, 0755); err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, a.cfg.Trace.Workers))
	for _, d := range diagrams {
		g.Go(func() error {
			if err := a.prepare(ctx, d, visualDir); err != nil {
				return fmt.Errorf("diagram %d (%s): %w", d.Index, d.SourceFile, err)
			}
			return nil
		})
	}
	return g.Wait()
}

func (a *Assembler) prepare(ctx context.Context, d *types.Diagram, dir string) error {
	log := a.log.With("diagram", d.Index)

	data, err := os.ReadFile(d.SourceFile)
	if err != nil {
		return err
	}
	img, err := canvas.Decode(data)
	if err != nil {
		return err
	}
	norm, err := canvas.Normalize(img, a.size, a.normOpts)
	if err != nil {
		return err
	}
	log.Debugw("normalized", "from", fmt.Sprintf("%dx%d", img.Width, img.Height),
		"policy", canvas.ChoosePolicy(canvas.Size{Width: img.Width, Height: img.Height}, a.size).String())

	d.NormalizedFile = filepath.Join(dir, fmt.Sprintf("diagram_%03d.png", d.Index))
	if err := writePNG(d.NormalizedFile, norm); err != nil {
		return err
	}

	rules := a.segmenter.Rules
	key := CacheKey(norm, a.traceOpts, rules)
	stats := &types.DiagramStats{}
	paths, hit := a.cache.Get(key)
	if !hit {
		start := time.Now()
		raws, err := trace.Trace(ctx, norm, a.traceOpts)
		stats.TraceMillis = time.Since(start).Milliseconds()
		switch {
		case err == nil:
		case ctx.Err() != nil:
			return ctx.Err()
		case errors.Is(err, trace.ErrTracingTimeout), errors.Is(err, trace.ErrNoContours):
			a.fallback(d, err.Error())
			return nil
		default:
			return err
		}

		stats.RawRegions = len(raws)
		paths = a.segmenter.SegmentAll(raws)
		if len(paths) == 0 {
			a.fallback(d, "no drawable paths after segmentation")
			return nil
		}
		if err := a.cache.Put(key, a.segmenter.Canvas, paths); err != nil {
			log.Warnw("could not cache trace", "error", err)
		}
	}

	paths = segment.Order(paths, a.order, a.cfg.Classify.OrderTolerance)
	for _, p := range paths {
		if p.Classification == types.GlyphFill {
			stats.GlyphFills++
		} else {
			stats.Strokes++
		}
		stats.EstimatedLength += p.EstimatedLength
		stats.MeasuredLength += geometry.Measure(p.Commands, a.segmenter.Canvas.Width, a.segmenter.Canvas.Height)
	}

	d.ArtifactFile = filepath.Join(dir, fmt.Sprintf("diagram_%03d.svg", d.Index))
	if err := writeArtifact(d.ArtifactFile, a.segmenter.Canvas, paths); err != nil {
		return err
	}

	d.Paths = paths
	d.Stats = stats
	d.CacheHit = hit
	d.Presentation = types.PresentSketch
	log.Infow("Diagram ready", "paths", len(paths), "strokes", stats.Strokes,
		"glyph_fills", stats.GlyphFills, "cache_hit", hit, "trace_ms", stats.TraceMillis)
	return nil
}

// fallback switches d to a plain fade-in of its normalized raster.
func (a *Assembler) fallback(d *types.Diagram, reason string) {
	a.log.Warnw("Falling back to fade-in", "diagram", d.Index, "reason", reason)
	d.Presentation = types.PresentFade
	d.FallbackReason = reason
	d.Paths = nil
}

func writePNG(path string, img types.RasterImage) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := canvas.EncodePNG(f, img); err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return f.Close()
}

func writeArtifact(path string, c segment.Canvas, paths []types.VectorPath) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := artifact.Write(f, c, paths); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
