// Package reveal schedules when each traced path is drawn during a scene.
//
// The Scheduler is a pure function of the ordered path list, the elapsed
// time, the total duration and a Strategy. Nothing is stored between calls,
// so it can be queried once per rendered frame. Timeline wraps it in the
// Delay, Drawing and Hold macro phases of a scene.
package reveal

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"whiteboard-pipeline/geometry"
	"whiteboard-pipeline/types"
)

// ErrInvalidDuration is returned for a non-positive total duration.
var ErrInvalidDuration = errors.New("invalid duration")

// Strategy decides how draw windows are laid out over the timeline.
type Strategy int

const (
	// Sequential draws one path at a time in list order.
	Sequential Strategy = iota
	// Parallel draws every path at once.
	Parallel
	// Balanced overlaps consecutive windows so several pens are moving.
	Balanced
)

func (s Strategy) String() string {
	switch s {
	case Sequential:
		return "sequential"
	case Parallel:
		return "parallel"
	case Balanced:
		return "balanced"
	}
	return fmt.Sprintf("Strategy(%d)", int(s))
}

// ParseStrategy accepts the lowercase strategy names.
func ParseStrategy(s string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "sequential":
		return Sequential, nil
	case "parallel":
		return Parallel, nil
	case "balanced":
		return Balanced, nil
	}
	return 0, fmt.Errorf("unknown strategy %q", s)
}

// Allocation decides how much of the timeline each path gets.
type Allocation int

const (
	// ByLength gives each path time proportional to its estimated length,
	// so the pen moves at a steady speed.
	ByLength Allocation = iota
	// Equal gives every path the same time.
	Equal
)

// ParseAllocation accepts "length" and "equal".
func ParseAllocation(s string) (Allocation, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "length":
		return ByLength, nil
	case "equal":
		return Equal, nil
	}
	return 0, fmt.Errorf("unknown allocation %q", s)
}

// Options tunes window layout and easing.
type Options struct {
	Allocation    Allocation
	PauseFraction float64 // pause between sequential windows, per gap
	MaxPauseTotal float64 // cap on the sum of all pauses
	Stagger       float64 // balanced overlap, as a fraction of the previous window
	Easing        Easing
	EasePasses    int
}

// DefaultOptions returns length allocation, 2% pauses capped at 20%, a 15%
// stagger and a single CSS ease-in-out pass.
func DefaultOptions() Options {
	return Options{
		Allocation:    ByLength,
		PauseFraction: 0.02,
		MaxPauseTotal: 0.2,
		Stagger:       0.15,
		Easing:        CubicBezier(0.42, 0, 0.58, 1),
		EasePasses:    1,
	}
}

// Window is the normalized [Start, End] span in which a path goes from 0 to 1.
type Window struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// Scheduler computes per-path progress. The zero value is not usable; use
// NewScheduler.
type Scheduler struct {
	opts Options
	ease Easing
}

// NewScheduler returns a Scheduler with opts. A nil Easing means Linear;
// out-of-range fractions are clamped.
func NewScheduler(opts Options) *Scheduler {
	if opts.Easing == nil {
		opts.Easing = Linear
	}
	opts.PauseFraction = math.Max(0, opts.PauseFraction)
	opts.MaxPauseTotal = math.Min(math.Max(0, opts.MaxPauseTotal), 0.9)
	opts.Stagger = math.Min(math.Max(0, opts.Stagger), 0.95)
	return &Scheduler{opts: opts, ease: Repeat(opts.Easing, opts.EasePasses)}
}

// Ease applies the configured easing passes to x.
func (s *Scheduler) Ease(x float64) float64 { return s.ease(x) }

// ProgressAt returns the progress in [0,1] of every path at time t of a
// reveal lasting totalDuration. t is clamped to [0, totalDuration]; at 0
// every path is 0 and at totalDuration every path is 1.
func (s *Scheduler) ProgressAt(paths []types.VectorPath, t, totalDuration float64, strategy Strategy) ([]float64, error) {
	if !(totalDuration > 0) || math.IsInf(totalDuration, 1) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDuration, totalDuration)
	}
	out := make([]float64, len(paths))
	x := t / totalDuration
	switch {
	case len(paths) == 0 || x <= 0 || math.IsNaN(x):
		return out, nil
	case x >= 1:
		for i := range out {
			out[i] = 1
		}
		return out, nil
	}

	for i, w := range s.Windows(paths, strategy) {
		out[i] = s.local(w, x)
	}
	return out, nil
}

func (s *Scheduler) local(w Window, x float64) float64 {
	switch {
	case x >= w.End:
		return 1
	case x <= w.Start:
		return 0
	}
	return s.ease((x - w.Start) / (w.End - w.Start))
}

// Windows lays out one draw window per path on the normalized timeline.
// Windows depend only on path order, lengths and the strategy, so callers
// rendering many frames can compute them once.
func (s *Scheduler) Windows(paths []types.VectorPath, strategy Strategy) []Window {
	n := len(paths)
	out := make([]Window, n)
	if n == 0 {
		return out
	}
	switch strategy {
	case Parallel:
		for i := range out {
			out[i] = Window{Start: 0, End: 1}
		}
	case Balanced:
		s.balanced(out, s.weights(paths))
	default:
		s.sequential(out, s.weights(paths))
	}
	return out
}

// weights returns each path's share of the drawing time, summing to 1.
func (s *Scheduler) weights(paths []types.VectorPath) []float64 {
	w := make([]float64, len(paths))
	var sum float64
	for i, p := range paths {
		w[i] = 1
		if s.opts.Allocation == ByLength {
			w[i] = lengthWeight(p.EstimatedLength)
		}
		sum += w[i]
	}
	for i := range w {
		w[i] /= sum
	}
	return w
}

func (s *Scheduler) sequential(out []Window, w []float64) {
	gaps := float64(len(w) - 1)
	pause := math.Min(s.opts.PauseFraction*gaps, s.opts.MaxPauseTotal)
	gap := 0.0
	if gaps > 0 {
		gap = pause / gaps
	}
	drawable := 1 - pause

	at := 0.0
	for i := range w {
		out[i] = Window{Start: at, End: at + drawable*w[i]}
		at = out[i].End + gap
	}
	out[len(out)-1].End = 1
}

func (s *Scheduler) balanced(out []Window, w []float64) {
	var at, span float64
	for i := range w {
		out[i] = Window{Start: at, End: at + w[i]}
		span = math.Max(span, out[i].End)
		at += w[i] * (1 - s.opts.Stagger)
	}
	for i := range out {
		out[i].Start /= span
		out[i].End /= span
	}
}

// lengthWeight bounds a length to the range geometry estimates produce, so
// hand-built paths with NaN or infinite lengths cannot poison the layout.
func lengthWeight(l float64) float64 {
	switch {
	case math.IsNaN(l) || l < geometry.MinLength:
		return geometry.MinLength
	case l > geometry.MaxLength:
		return geometry.MaxLength
	}
	return l
}
