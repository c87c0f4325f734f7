package types

import "fmt"

// RasterImage is a decoded pixel buffer for one diagram
type RasterImage struct {
	Pix    []byte `json:"-"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Depth  int    `json:"depth"` // bytes per pixel: 1 gray | 3 rgb | 4 rgba
}

// Point is a coordinate on the canvas
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// BoundingBox is an axis-aligned box in canvas units
type BoundingBox struct {
	MinX float64 `json:"min_x"`
	MinY float64 `json:"min_y"`
	MaxX float64 `json:"max_x"`
	MaxY float64 `json:"max_y"`
}

func (b BoundingBox) Width() float64  { return b.MaxX - b.MinX }
func (b BoundingBox) Height() float64 { return b.MaxY - b.MinY }
func (b BoundingBox) Area() float64   { return b.Width() * b.Height() }

// Classification decides how a path is animated
type Classification string

const (
	Stroke    Classification = "stroke"    // drawn progressively as an outline
	GlyphFill Classification = "glyphFill" // small closed hole, faded in as a solid fill
)

// ParseClassification accepts the text form used in config and artifacts
func ParseClassification(s string) (Classification, error) {
	switch Classification(s) {
	case Stroke, GlyphFill:
		return Classification(s), nil
	}
	return "", fmt.Errorf("unknown classification %q", s)
}

// VectorPath is one traced sub-path ready for animation
type VectorPath struct {
	ID              int            `json:"id"`
	Commands        string         `json:"commands"`
	EstimatedLength float64        `json:"estimated_length"`
	StartPoint      Point          `json:"start_point"`
	BoundingBox     BoundingBox    `json:"bounding_box"`
	IsClosed        bool           `json:"is_closed"`
	Classification  Classification `json:"classification"`
}

// Presentation is how a diagram ends up on screen
type Presentation string

const (
	PresentSketch Presentation = "sketch" // hand-drawn reveal of traced paths
	PresentFade   Presentation = "fade"   // plain fade-in of the raster
)

// Diagram tracks one illustration through the pipeline
type Diagram struct {
	ID               string        `json:"id"`
	Index            int           `json:"index"`
	SourceFile       string        `json:"source_file"`
	SceneDurationSec float64       `json:"scene_duration_sec"`
	NormalizedFile   string        `json:"normalized_file"`
	ArtifactFile     string        `json:"artifact_file"`
	TimelineFile     string        `json:"timeline_file"`
	MetadataFile     string        `json:"metadata_file"`
	Presentation     Presentation  `json:"presentation"`
	FallbackReason   string        `json:"fallback_reason,omitempty"`
	CacheHit         bool          `json:"cache_hit"`
	Paths            []VectorPath  `json:"-"`
	Stats            *DiagramStats `json:"stats,omitempty"`
}

// DiagramStats summarizes the traced paths of a diagram
type DiagramStats struct {
	RawRegions      int     `json:"raw_regions"`
	Strokes         int     `json:"strokes"`
	GlyphFills      int     `json:"glyph_fills"`
	EstimatedLength float64 `json:"estimated_length"`
	MeasuredLength  float64 `json:"measured_length"`
	TraceMillis     int64   `json:"trace_millis"`
}

// PipelineState tracks the full state of one pipeline run
type PipelineState struct {
	RunID       string     `json:"run_id"`
	StartedAt   string     `json:"started_at"`
	CompletedAt string     `json:"completed_at"`
	Diagrams    []*Diagram `json:"diagrams"`
	Error       string     `json:"error,omitempty"`
}
