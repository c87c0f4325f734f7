package render

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"whiteboard-pipeline/config"
	"whiteboard-pipeline/reveal"
	"whiteboard-pipeline/types"
)

// Renderer turns a prepared diagram into per-frame drawing instructions for
// the video composition layer.
type Renderer struct {
	cfg      *config.Config
	sched    *reveal.Scheduler
	strategy reveal.Strategy
	phases   reveal.PhaseOptions
	log      *zap.SugaredLogger
}

// New creates a Renderer from the reveal section of cfg.
func New(cfg *config.Config, log *zap.SugaredLogger) (*Renderer, error) {
	opts, err := SchedulerOptions(cfg)
	if err != nil {
		return nil, err
	}
	strategy, err := reveal.ParseStrategy(cfg.Reveal.Strategy)
	if err != nil {
		return nil, fmt.Errorf("reveal.strategy: %w", err)
	}
	return &Renderer{
		cfg:      cfg,
		sched:    reveal.NewScheduler(opts),
		strategy: strategy,
		phases:   PhaseOptions(cfg),
		log:      log,
	}, nil
}

// SchedulerOptions maps the reveal section of cfg onto reveal.Options.
func SchedulerOptions(cfg *config.Config) (reveal.Options, error) {
	r := cfg.Reveal
	alloc, err := reveal.ParseAllocation(r.Allocation)
	if err != nil {
		return reveal.Options{}, fmt.Errorf("reveal.allocation: %w", err)
	}
	ease, err := reveal.ParseEasing(r.Easing, r.Bezier)
	if err != nil {
		return reveal.Options{}, fmt.Errorf("reveal.easing: %w", err)
	}
	return reveal.Options{
		Allocation:    alloc,
		PauseFraction: r.PauseFraction,
		MaxPauseTotal: r.MaxPauseTotal,
		Stagger:       r.Stagger,
		Easing:        ease,
		EasePasses:    r.EasePasses,
	}, nil
}

// PhaseOptions maps the reveal section of cfg onto reveal.PhaseOptions.
func PhaseOptions(cfg *config.Config) reveal.PhaseOptions {
	r := cfg.Reveal
	return reveal.PhaseOptions{
		DrawFraction: r.DrawFraction,
		DelaySeconds: r.DelaySeconds,
		DelayOfDraw:  r.DelayOfDraw,
		ZoomFrom:     r.ZoomFrom,
		ZoomTo:       r.ZoomTo,
	}
}

// Timeline is the document written for one diagram.
type Timeline struct {
	DiagramID    string             `json:"diagram_id"`
	Presentation types.Presentation `json:"presentation"`
	Image        string             `json:"image"`
	Artifact     string             `json:"artifact,omitempty"`
	FPS          int                `json:"fps"`
	Strategy     string             `json:"strategy"`
	Phases       *reveal.Timeline   `json:"phases"`
	Windows      []reveal.Window    `json:"windows,omitempty"`
	Frames       []Frame            `json:"frames"`
}

// Frame is the state of the scene at one video frame.
type Frame struct {
	Index   int         `json:"index"`
	Time    float64     `json:"time"`
	Stage   string      `json:"stage"`
	Zoom    float64     `json:"zoom"`
	Opacity *float64    `json:"opacity,omitempty"` // fade presentation only
	Paths   []PathFrame `json:"paths,omitempty"`
}

// PathFrame positions one path. Strokes are revealed by shrinking the dash
// offset of a dash as long as the path; glyph fills fade in.
type PathFrame struct {
	ID          int      `json:"id"`
	Progress    float64  `json:"progress"`
	DashArray   *float64 `json:"dash_array,omitempty"`
	DashOffset  *float64 `json:"dash_offset,omitempty"`
	FillOpacity *float64 `json:"fill_opacity,omitempty"`
}

// Build computes every frame of d's scene.
func (r *Renderer) Build(d *types.Diagram) (*Timeline, error) {
	scene := d.SceneDurationSec
	if scene <= 0 {
		scene = r.cfg.Reveal.DefaultSceneSec
	}
	tl, err := reveal.NewTimeline(scene, r.phases)
	if err != nil {
		return nil, err
	}

	fps := r.cfg.Visuals.FPS
	doc := &Timeline{
		DiagramID:    d.ID,
		Presentation: d.Presentation,
		Image:        d.NormalizedFile,
		Artifact:     d.ArtifactFile,
		FPS:          fps,
		Strategy:     r.strategy.String(),
		Phases:       tl,
	}
	sketch := d.Presentation == types.PresentSketch && len(d.Paths) > 0
	if sketch {
		doc.Windows = r.sched.Windows(d.Paths, r.strategy)
	}

	n := max(1, int(math.Round(scene*float64(fps))))
	doc.Frames = make([]Frame, n)
	for i := range doc.Frames {
		t := float64(i) / float64(fps)
		f := Frame{Index: i, Time: t, Stage: tl.Stage(t).String(), Zoom: tl.Zoom(t)}
		if !sketch {
			op := r.sched.Ease(tl.DrawTime(t) / tl.Drawing)
			f.Opacity = &op
			doc.Frames[i] = f
			continue
		}

		progress, err := tl.ProgressAt(r.sched, d.Paths, t, r.strategy)
		if err != nil {
			return nil, err
		}
		f.Paths = make([]PathFrame, len(d.Paths))
		for j, p := range d.Paths {
			pf := PathFrame{ID: p.ID, Progress: progress[j]}
			if p.Classification == types.GlyphFill {
				op := reveal.FillOpacity(progress[j], r.cfg.Reveal.FillStart)
				pf.FillOpacity = &op
			} else {
				length := p.EstimatedLength
				offset := length * (1 - progress[j])
				pf.DashArray, pf.DashOffset = &length, &offset
			}
			f.Paths[j] = pf
		}
		doc.Frames[i] = f
	}
	return doc, nil
}

// Run writes the timeline and metadata documents of every diagram.
func (r *Renderer) Run(diagrams []*types.Diagram, outputDir string) error {
	r.log.Infof("Building frame timelines for %d diagram(s)...", len(diagrams))

	dir := filepath.Join(outputDir, "timelines")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	for _, d := range diagrams {
		doc, err := r.Build(d)
		if err != nil {
			return fmt.Errorf("diagram %d timeline: %w", d.Index, err)
		}
		d.TimelineFile = filepath.Join(dir, fmt.Sprintf("diagram_%03d_timeline.json", d.Index))
		if err := writeJSON(d.TimelineFile, doc); err != nil {
			return err
		}

		meta := BuildMetadata(d, doc, r.cfg)
		d.MetadataFile = filepath.Join(dir, fmt.Sprintf("diagram_%03d_metadata.json", d.Index))
		if err := writeJSON(d.MetadataFile, meta); err != nil {
			return err
		}
		r.log.Infow("Timeline ready", "diagram", d.Index, "presentation", d.Presentation,
			"frames", len(doc.Frames), "file", d.TimelineFile)
	}
	return nil
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", filepath.Base(path), err)
	}
	return os.WriteFile(path, data, 0644)
}
