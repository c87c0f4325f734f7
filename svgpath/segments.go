package svgpath

import (
	"iter"

	"honnef.co/go/curve"
)

type Kind uint8

const (
	MoveTo Kind = iota + 1
	LineTo
	CubicTo
	QuadTo
	ArcTo
	ClosePath
	Unknown
)

// Segment is a command repetition resolved to absolute coordinates.
type Segment struct {
	Kind   Kind
	Op     byte
	From   curve.Point
	To     curve.Point
	C1, C2 curve.Point // control points; QuadTo only uses C1
}

// Pen tracks the current point and the start of the current sub-path while
// commands are applied in order.
type Pen struct {
	Cur   curve.Point
	Start curve.Point
}

// Segments walks cmds from the origin. Incomplete trailing argument groups
// are skipped.
func Segments(cmds []Command) iter.Seq[Segment] {
	return func(yield func(Segment) bool) {
		var pen Pen
		for _, cmd := range cmds {
			if !pen.Apply(cmd, yield) {
				return
			}
		}
	}
}

func (pen *Pen) abs(rel bool, x, y float64) curve.Point {
	if rel {
		return curve.Point{X: pen.Cur.X + x, Y: pen.Cur.Y + y}
	}
	return curve.Point{X: x, Y: y}
}

// Apply resolves cmd against the pen, advancing it, and passes every
// resulting segment to yield. It reports false if yield asked to stop.
func (pen *Pen) Apply(cmd Command, yield func(Segment) bool) bool {
	rel := cmd.Relative()
	a := cmd.Args
	switch cmd.Op | 0x20 {
	case 'm':
		for i := 0; i+1 < len(a); i += 2 {
			p := pen.abs(rel, a[i], a[i+1])
			seg := Segment{Kind: MoveTo, Op: cmd.Op, From: pen.Cur, To: p}
			// Extra pairs after a move are implicit line-tos.
			if i > 0 {
				seg.Kind = LineTo
			} else {
				pen.Start = p
			}
			pen.Cur = p
			if !yield(seg) {
				return false
			}
		}
	case 'l':
		for i := 0; i+1 < len(a); i += 2 {
			seg := Segment{Kind: LineTo, Op: cmd.Op, From: pen.Cur, To: pen.abs(rel, a[i], a[i+1])}
			pen.Cur = seg.To
			if !yield(seg) {
				return false
			}
		}
	case 'h', 'v':
		horizontal := cmd.Op|0x20 == 'h'
		for _, v := range a {
			p := pen.Cur
			switch {
			case horizontal && rel:
				p.X += v
			case horizontal:
				p.X = v
			case rel:
				p.Y += v
			default:
				p.Y = v
			}
			seg := Segment{Kind: LineTo, Op: cmd.Op, From: pen.Cur, To: p}
			pen.Cur = p
			if !yield(seg) {
				return false
			}
		}
	case 'c':
		for i := 0; i+5 < len(a); i += 6 {
			seg := Segment{
				Kind: CubicTo,
				Op:   cmd.Op,
				From: pen.Cur,
				C1:   pen.abs(rel, a[i], a[i+1]),
				C2:   pen.abs(rel, a[i+2], a[i+3]),
				To:   pen.abs(rel, a[i+4], a[i+5]),
			}
			pen.Cur = seg.To
			if !yield(seg) {
				return false
			}
		}
	case 'q':
		for i := 0; i+3 < len(a); i += 4 {
			seg := Segment{
				Kind: QuadTo,
				Op:   cmd.Op,
				From: pen.Cur,
				C1:   pen.abs(rel, a[i], a[i+1]),
				To:   pen.abs(rel, a[i+2], a[i+3]),
			}
			pen.Cur = seg.To
			if !yield(seg) {
				return false
			}
		}
	case 'a':
		for i := 0; i+6 < len(a); i += 7 {
			seg := Segment{Kind: ArcTo, Op: cmd.Op, From: pen.Cur, To: pen.abs(rel, a[i+5], a[i+6])}
			pen.Cur = seg.To
			if !yield(seg) {
				return false
			}
		}
	case 'z':
		seg := Segment{Kind: ClosePath, Op: cmd.Op, From: pen.Cur, To: pen.Start}
		pen.Cur = pen.Start
		return yield(seg)
	default:
		if len(a) < 2 {
			return true
		}
		seg := Segment{Kind: Unknown, Op: cmd.Op, From: pen.Cur, To: pen.abs(rel, a[len(a)-2], a[len(a)-1])}
		pen.Cur = seg.To
		return yield(seg)
	}
	return true
}

// ToBezPath converts cmds to a curve.BezPath. Arcs and unknown commands become
// straight lines to their end point.
func ToBezPath(cmds []Command) curve.BezPath {
	var p curve.BezPath
	for seg := range Segments(cmds) {
		if len(p) == 0 && seg.Kind != MoveTo {
			if seg.Kind == ClosePath {
				continue
			}
			p.MoveTo(seg.From)
		}
		switch seg.Kind {
		case MoveTo:
			p.MoveTo(seg.To)
		case CubicTo:
			p.CubicTo(seg.C1, seg.C2, seg.To)
		case QuadTo:
			p.QuadTo(seg.C1, seg.To)
		case ClosePath:
			p.ClosePath()
		default:
			p.LineTo(seg.To)
		}
	}
	return p
}

// Distance returns the Euclidean distance between two points.
func Distance(p, q curve.Point) float64 {
	return p.Sub(q).Hypot()
}
