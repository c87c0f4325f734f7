// Package segment splits traced path data into independently animatable
// sub-paths and classifies each one as a stroke or a glyph fill.
package segment

import (
	"strconv"
	"strings"

	"honnef.co/go/curve"

	"whiteboard-pipeline/geometry"
	"whiteboard-pipeline/svgpath"
	"whiteboard-pipeline/types"
)

// Canvas is the coordinate space the paths were traced in.
type Canvas struct {
	Width  float64
	Height float64
}

// Rules holds the classification thresholds. Fractions are relative to the
// canvas dimensions; CloseTolerance is in canvas units.
type Rules struct {
	CloseTolerance     float64
	BackgroundCoverage float64
	BackgroundOrigin   float64
	GlyphMaxArea       float64
	GlyphMaxWidth      float64
	GlyphMaxHeight     float64
}

// DefaultRules returns the thresholds used when none are configured.
func DefaultRules() Rules {
	return Rules{
		CloseTolerance:     5,
		BackgroundCoverage: 0.95,
		BackgroundOrigin:   0.05,
		GlyphMaxArea:       0.02,
		GlyphMaxWidth:      0.06,
		GlyphMaxHeight:     0.06,
	}
}

// Segmenter turns raw path strings into classified VectorPaths.
type Segmenter struct {
	Canvas Canvas
	Rules  Rules
}

// New returns a Segmenter for canvas. Zero-valued rules are replaced by the
// defaults.
func New(canvas Canvas, rules Rules) *Segmenter {
	def := DefaultRules()
	if rules.CloseTolerance <= 0 {
		rules.CloseTolerance = def.CloseTolerance
	}
	if rules.BackgroundCoverage <= 0 {
		rules.BackgroundCoverage = def.BackgroundCoverage
	}
	if rules.BackgroundOrigin <= 0 {
		rules.BackgroundOrigin = def.BackgroundOrigin
	}
	if rules.GlyphMaxArea <= 0 {
		rules.GlyphMaxArea = def.GlyphMaxArea
	}
	if rules.GlyphMaxWidth <= 0 {
		rules.GlyphMaxWidth = def.GlyphMaxWidth
	}
	if rules.GlyphMaxHeight <= 0 {
		rules.GlyphMaxHeight = def.GlyphMaxHeight
	}
	return &Segmenter{Canvas: canvas, Rules: rules}
}

// Segment splits raw into sub-paths, drops the background frame and anything
// without a drawable segment, and classifies the rest. IDs are assigned in
// source order starting at 0.
func (s *Segmenter) Segment(raw string) []types.VectorPath {
	return s.SegmentAll([]string{raw})
}

// SegmentAll segments every raw path and numbers the survivors consecutively
// across all of them.
func (s *Segmenter) SegmentAll(raws []string) []types.VectorPath {
	var out []types.VectorPath
	for _, raw := range raws {
		for _, piece := range Split(raw) {
			p, ok := s.Describe(piece)
			if !ok || s.IsBackground(p.BoundingBox) {
				continue
			}
			p.ID = len(out)
			out = append(out, p)
		}
	}
	return out
}

// Describe computes the geometry and classification of a single sub-path.
// It reports false when commands contains nothing drawable.
func (s *Segmenter) Describe(commands string) (types.VectorPath, bool) {
	cmds, _ := svgpath.Parse(commands)
	bez := svgpath.ToBezPath(cmds)
	if !bez.HasSegments() {
		return types.VectorPath{}, false
	}

	var (
		pen    svgpath.Pen
		first  curve.Point
		seen   bool
		closes bool
	)
	for _, cmd := range cmds {
		pen.Apply(cmd, func(seg svgpath.Segment) bool {
			if !seen {
				first = seg.From
				if seg.Kind == svgpath.MoveTo {
					first = seg.To
				}
				seen = true
			}
			return true
		})
	}
	if last := cmds[len(cmds)-1]; last.Op|0x20 == 'z' {
		closes = true
	}

	box := bez.ControlBox()
	p := types.VectorPath{
		Commands:        strings.TrimSpace(commands),
		EstimatedLength: geometry.EstimateLength(commands, s.Canvas.Width, s.Canvas.Height),
		StartPoint:      types.Point{X: first.X, Y: first.Y},
		BoundingBox:     types.BoundingBox{MinX: box.X0, MinY: box.Y0, MaxX: box.X1, MaxY: box.Y1},
		IsClosed:        closes || svgpath.Distance(pen.Cur, first) < s.Rules.CloseTolerance,
	}
	p.Classification = s.Classify(p)
	return p, true
}

// IsBackground reports whether box spans essentially the whole canvas from
// its origin, which is how a traced page border or paper edge looks.
func (s *Segmenter) IsBackground(box types.BoundingBox) bool {
	w, h := s.Canvas.Width, s.Canvas.Height
	if w <= 0 || h <= 0 {
		return false
	}
	r := s.Rules
	return box.Width() >= r.BackgroundCoverage*w &&
		box.Height() >= r.BackgroundCoverage*h &&
		box.MinX <= r.BackgroundOrigin*w &&
		box.MinY <= r.BackgroundOrigin*h
}

// Classify returns GlyphFill for small closed shapes and Stroke otherwise.
func (s *Segmenter) Classify(p types.VectorPath) types.Classification {
	w, h := s.Canvas.Width, s.Canvas.Height
	if !p.IsClosed || w <= 0 || h <= 0 {
		return types.Stroke
	}
	r := s.Rules
	box := p.BoundingBox
	if box.Area() < r.GlyphMaxArea*w*h &&
		box.Width() < r.GlyphMaxWidth*w &&
		box.Height() < r.GlyphMaxHeight*h {
		return types.GlyphFill
	}
	return types.Stroke
}

// Split cuts raw at every move command that follows whitespace or a comma.
// A piece that starts with a relative move is rewritten to start with an
// absolute one, so each piece draws in place on its own.
func Split(raw string) []string {
	cmds, _ := svgpath.Parse(raw)
	if len(cmds) == 0 {
		if t := strings.TrimSpace(raw); t != "" {
			return []string{t}
		}
		return nil
	}

	type cut struct {
		idx int
		at  curve.Point
	}
	cuts := []cut{{idx: 0}}
	var pen svgpath.Pen
	for i, cmd := range cmds {
		if i > 0 && cmd.Op|0x20 == 'm' && isBoundary(raw[cmd.Off-1]) {
			cuts = append(cuts, cut{idx: i, at: pen.Cur})
		}
		pen.Apply(cmd, func(svgpath.Segment) bool { return true })
	}

	pieces := make([]string, 0, len(cuts))
	for k, c := range cuts {
		end := len(raw)
		if k+1 < len(cuts) {
			end = cmds[cuts[k+1].idx].Off
		}
		start := cmds[c.idx].Off
		if k == 0 {
			start = 0
		}
		text := raw[start:end]
		if cmd := cmds[c.idx]; k > 0 && cmd.Op == 'm' && len(cmd.Args) >= 2 {
			text = rebase(cmd, c.at, raw, end, cmds, c.idx)
		}
		if t := strings.TrimSpace(text); t != "" {
			pieces = append(pieces, t)
		}
	}
	return pieces
}

// rebase rewrites the relative move cmds[idx] as an absolute move from at,
// keeping any implicit line pairs relative, and appends the rest of the piece.
func rebase(cmd svgpath.Command, at curve.Point, raw string, end int, cmds []svgpath.Command, idx int) string {
	var b strings.Builder
	b.WriteString("M")
	b.WriteString(formatNumber(at.X + cmd.Args[0]))
	b.WriteByte(',')
	b.WriteString(formatNumber(at.Y + cmd.Args[1]))
	if len(cmd.Args) > 2 {
		b.WriteString(" l")
		for _, v := range cmd.Args[2:] {
			b.WriteByte(' ')
			b.WriteString(formatNumber(v))
		}
	}
	if idx+1 < len(cmds) && cmds[idx+1].Off < end {
		b.WriteByte(' ')
		b.WriteString(raw[cmds[idx+1].Off:end])
	}
	return b.String()
}

func isBoundary(c byte) bool {
	return c == ' ' || c == ',' || c == '\t' || c == '\n' || c == '\r' || c == '\f'
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
