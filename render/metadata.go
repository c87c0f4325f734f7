package render

import (
	"time"

	"whiteboard-pipeline/config"
	"whiteboard-pipeline/reveal"
	"whiteboard-pipeline/types"
)

// MetadataVersion is bumped whenever the timeline or metadata layout changes.
const MetadataVersion = 1

// Metadata summarizes one diagram's reveal for the composition layer and
// for tuning the heuristics.
type Metadata struct {
	Version        int                 `json:"version"`
	DiagramID      string              `json:"diagram_id"`
	Source         string              `json:"source"`
	Presentation   types.Presentation  `json:"presentation"`
	FallbackReason string              `json:"fallback_reason,omitempty"`
	Canvas         [2]int              `json:"canvas"`
	Strategy       string              `json:"strategy"`
	Allocation     string              `json:"allocation"`
	Easing         string              `json:"easing"`
	EasePasses     int                 `json:"ease_passes"`
	Phases         *reveal.Timeline    `json:"phases"`
	FramesPerStage map[string]int      `json:"frames_per_stage"`
	Stats          *types.DiagramStats `json:"stats,omitempty"`

	// LengthRatio is estimated over measured length. Values far from 1 mean
	// the cheap estimate misjudges how long these paths take to draw.
	LengthRatio float64 `json:"length_ratio,omitempty"`

	CacheHit    bool   `json:"cache_hit"`
	GeneratedAt string `json:"generated_at"`
}

// BuildMetadata derives the metadata of d from its rendered timeline.
func BuildMetadata(d *types.Diagram, tl *Timeline, cfg *config.Config) *Metadata {
	m := &Metadata{
		Version:        MetadataVersion,
		DiagramID:      d.ID,
		Source:         d.SourceFile,
		Presentation:   d.Presentation,
		FallbackReason: d.FallbackReason,
		Canvas:         [2]int{cfg.Canvas.Width, cfg.Canvas.Height},
		Strategy:       tl.Strategy,
		Allocation:     cfg.Reveal.Allocation,
		Easing:         cfg.Reveal.Easing,
		EasePasses:     cfg.Reveal.EasePasses,
		Phases:         tl.Phases,
		FramesPerStage: make(map[string]int),
		Stats:          d.Stats,
		CacheHit:       d.CacheHit,
		GeneratedAt:    time.Now().UTC().Format(time.RFC3339),
	}
	for _, f := range tl.Frames {
		m.FramesPerStage[f.Stage]++
	}
	if s := d.Stats; s != nil && s.MeasuredLength > 0 {
		m.LengthRatio = s.EstimatedLength / s.MeasuredLength
	}
	return m
}
