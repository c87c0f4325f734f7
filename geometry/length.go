// Package geometry estimates path lengths from path-command text alone, so
// animation timing can be computed without a rendering surface.
package geometry

import (
	"math"

	"whiteboard-pipeline/svgpath"
)

const (
	// MinLength is the floor every estimate is clamped to, so degenerate
	// paths still get an animatable duration.
	MinLength = 50.0

	// MaxLength caps estimates so coordinates near the float64 limit, whose
	// sums overflow to Inf or NaN, still yield a finite length.
	MaxLength = 1e9

	// ReferenceWidth and ReferenceHeight are the canvas the factors below
	// were tuned against.
	ReferenceWidth  = 1920.0
	ReferenceHeight = 1080.0

	cubicFactor   = 0.85
	quadFactor    = 0.75
	arcFactor     = 1.2
	unknownFactor = 0.8

	measureAccuracy = 0.1
)

// EstimateLength approximates the drawn length of commands on a canvas of the
// given size. Curves use scaled control-polygon lengths, arcs a scaled chord.
// The result is deterministic and within [MinLength, MaxLength].
func EstimateLength(commands string, canvasWidth, canvasHeight float64) float64 {
	// A syntax error still leaves a usable prefix.
	cmds, _ := svgpath.Parse(commands)

	var raw float64
	for seg := range svgpath.Segments(cmds) {
		switch seg.Kind {
		case svgpath.MoveTo:
		case svgpath.LineTo, svgpath.ClosePath:
			switch seg.Op | 0x20 {
			case 'h':
				raw += math.Abs(seg.To.X - seg.From.X)
			case 'v':
				raw += math.Abs(seg.To.Y - seg.From.Y)
			default:
				raw += svgpath.Distance(seg.From, seg.To)
			}
		case svgpath.CubicTo:
			raw += cubicFactor * (svgpath.Distance(seg.From, seg.C1) +
				svgpath.Distance(seg.C1, seg.C2) +
				svgpath.Distance(seg.C2, seg.To))
		case svgpath.QuadTo:
			raw += quadFactor * (svgpath.Distance(seg.From, seg.C1) + svgpath.Distance(seg.C1, seg.To))
		case svgpath.ArcTo:
			raw += arcFactor * svgpath.Distance(seg.From, seg.To)
		default:
			raw += unknownFactor * svgpath.Distance(seg.From, seg.To)
		}
	}
	return clampLength(raw * CanvasScale(canvasWidth, canvasHeight))
}

// clampLength bounds l to [MinLength, MaxLength]. NaN only arises once the
// running sum has overflowed to Inf, so it maps to the ceiling.
func clampLength(l float64) float64 {
	switch {
	case math.IsNaN(l) || l > MaxLength:
		return MaxLength
	case l < MinLength:
		return MinLength
	}
	return l
}

// CanvasScale maps lengths tuned on the reference canvas onto another canvas
// size. Sizes that are not positive and finite fall back to the reference.
func CanvasScale(canvasWidth, canvasHeight float64) float64 {
	if !validSize(canvasWidth) || !validSize(canvasHeight) {
		return 1
	}
	s := math.Sqrt((canvasWidth * canvasHeight) / (ReferenceWidth * ReferenceHeight))
	if math.IsInf(s, 1) {
		return 1
	}
	return s
}

func validSize(v float64) bool { return v > 0 && !math.IsInf(v, 1) }

// Measure flattens commands with curve and returns the accurate arc length,
// scaled like EstimateLength but without the floor. Paths with
// non-finite coordinates measure 0. Arcs and unknown commands
// count as straight lines. It is used for diagnostics only.
func Measure(commands string, canvasWidth, canvasHeight float64) float64 {
	cmds, _ := svgpath.Parse(commands)
	path := svgpath.ToBezPath(cmds)
	if !path.HasSegments() || path.IsInf() || path.IsNaN() {
		return 0
	}
	l := path.Arclen(measureAccuracy) * CanvasScale(canvasWidth, canvasHeight)
	if math.IsNaN(l) || l > MaxLength {
		return MaxLength
	}
	return l
}
