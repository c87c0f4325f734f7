package reveal

import (
	"fmt"
	"math"

	"whiteboard-pipeline/types"
)

// Stage is the macro phase a scene is in.
type Stage int

const (
	StageDelay   Stage = iota // pen positioning, nothing drawn yet
	StageDrawing              // the Scheduler is running
	StageHold                 // everything drawn, camera pushes in
)

func (s Stage) String() string {
	switch s {
	case StageDelay:
		return "delay"
	case StageDrawing:
		return "drawing"
	case StageHold:
		return "hold"
	}
	return fmt.Sprintf("Stage(%d)", int(s))
}

// PhaseOptions splits a scene into its macro phases.
type PhaseOptions struct {
	DrawFraction float64 // share of the scene for delay plus drawing
	DelaySeconds float64 // fixed lead-in; when zero DelayOfDraw applies
	DelayOfDraw  float64 // lead-in as a share of the draw budget
	ZoomFrom     float64
	ZoomTo       float64
}

// DefaultPhaseOptions gives 75% of the scene to drawing with a 0.3s lead-in
// and a 1.0 to 1.05 push-in during the hold.
func DefaultPhaseOptions() PhaseOptions {
	return PhaseOptions{
		DrawFraction: 0.75,
		DelaySeconds: 0.3,
		DelayOfDraw:  0.1,
		ZoomFrom:     1,
		ZoomTo:       1.05,
	}
}

// Timeline is a scene split into Delay, Drawing and Hold, in seconds.
type Timeline struct {
	Scene    float64 `json:"scene"`
	Delay    float64 `json:"delay"`
	Drawing  float64 `json:"drawing"`
	Hold     float64 `json:"hold"`
	ZoomFrom float64 `json:"zoom_from"`
	ZoomTo   float64 `json:"zoom_to"`
}

// NewTimeline splits a scene of sceneSec seconds. The lead-in never takes
// more than half of the draw budget.
func NewTimeline(sceneSec float64, opts PhaseOptions) (*Timeline, error) {
	if !(sceneSec > 0) || math.IsInf(sceneSec, 1) {
		return nil, fmt.Errorf("%w: scene of %v seconds", ErrInvalidDuration, sceneSec)
	}
	frac := opts.DrawFraction
	if frac <= 0 || frac > 1 {
		frac = DefaultPhaseOptions().DrawFraction
	}
	budget := sceneSec * frac

	delay := opts.DelaySeconds
	if delay <= 0 {
		delay = math.Max(0, opts.DelayOfDraw) * budget
	}
	delay = math.Min(delay, budget/2)

	zoomFrom, zoomTo := opts.ZoomFrom, opts.ZoomTo
	if zoomFrom <= 0 {
		zoomFrom = 1
	}
	if zoomTo <= 0 {
		zoomTo = zoomFrom
	}
	return &Timeline{
		Scene:    sceneSec,
		Delay:    delay,
		Drawing:  budget - delay,
		Hold:     sceneSec - budget,
		ZoomFrom: zoomFrom,
		ZoomTo:   zoomTo,
	}, nil
}

// DrawEnd is the time drawing finishes.
func (tl *Timeline) DrawEnd() float64 { return tl.Delay + tl.Drawing }

// Stage returns the phase at scene time t.
func (tl *Timeline) Stage(t float64) Stage {
	switch {
	case t < tl.Delay:
		return StageDelay
	case t < tl.DrawEnd():
		return StageDrawing
	}
	return StageHold
}

// DrawTime maps scene time t to elapsed drawing time in [0, Drawing].
func (tl *Timeline) DrawTime(t float64) float64 {
	return math.Min(math.Max(t-tl.Delay, 0), tl.Drawing)
}

// Zoom returns the camera scale at t: ZoomFrom until the hold starts, then
// eased towards ZoomTo by the end of the scene.
func (tl *Timeline) Zoom(t float64) float64 {
	if tl.Hold <= 0 || t <= tl.DrawEnd() {
		return tl.ZoomFrom
	}
	u := Smoothstep((t - tl.DrawEnd()) / tl.Hold)
	return tl.ZoomFrom + (tl.ZoomTo-tl.ZoomFrom)*u
}

// ProgressAt runs s over the drawing phase: every path is 0 during the
// delay and 1 during the hold.
func (tl *Timeline) ProgressAt(s *Scheduler, paths []types.VectorPath, t float64, strategy Strategy) ([]float64, error) {
	return s.ProgressAt(paths, tl.DrawTime(t), tl.Drawing, strategy)
}

// FillOpacity remaps stroke progress p to the opacity of a glyph fill, which
// starts once p reaches start and is fully opaque at 1.
func FillOpacity(p, start float64) float64 {
	if start >= 1 {
		if p >= 1 {
			return 1
		}
		return 0
	}
	start = math.Max(0, start)
	return clamp01((p - start) / (1 - start))
}
