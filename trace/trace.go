// Package trace converts a binarized raster into path-command strings using
// a potrace port.
package trace

import (
	"context"
	"errors"
	"fmt"
	"image/color"
	"strings"
	"time"

	"github.com/dennwc/gotrace"

	"whiteboard-pipeline/canvas"
	"whiteboard-pipeline/types"
)

var (
	// ErrTracingTimeout means the context expired before tracing finished.
	ErrTracingTimeout = errors.New("tracing timed out")
	// ErrNoContours means the image produced no foreground regions.
	ErrNoContours = errors.New("no contours found")
)

// Options tunes binarization and curve fitting.
type Options struct {
	// Threshold is the luma at or below which a pixel is foreground ink.
	Threshold uint8
	// AutoThreshold replaces Threshold with Otsu's cut-off for each image.
	AutoThreshold bool
	// Invert treats bright pixels as ink, for chalkboard-style art.
	Invert bool

	// Denoise is the sigma in pixels of a gaussian blur applied before
	// binarizing. Zero disables it.
	Denoise float64
	// Stretch spreads the image's luma range over 0..255 before binarizing,
	// which rescues faint drawings on uneven backgrounds.
	Stretch bool

	TurdSize     int     // speckles up to this many pixels are dropped
	TurnPolicy   gotrace.TurnPolicy
	AlphaMax     float64 // corner threshold; higher gives smoother curves
	OptiCurve    bool    // join adjacent curve segments
	OptTolerance float64 // how far a joined curve may deviate

	// Timeout bounds a single call on top of the context deadline. Zero
	// means the context alone decides.
	Timeout time.Duration
}

// DefaultOptions uses a mid-range threshold and the potrace defaults.
func DefaultOptions() Options {
	return Options{
		Threshold:    127,
		TurdSize:     gotrace.Defaults.TurdSize,
		TurnPolicy:   gotrace.Defaults.TurnPolicy,
		AlphaMax:     gotrace.Defaults.AlphaMax,
		OptiCurve:    gotrace.Defaults.OptiCurve,
		OptTolerance: gotrace.Defaults.OptTolerance,
	}
}

func (o Options) params() *gotrace.Params {
	return &gotrace.Params{
		TurdSize:     o.TurdSize,
		TurnPolicy:   o.TurnPolicy,
		AlphaMax:     o.AlphaMax,
		OptiCurve:    o.OptiCurve,
		OptTolerance: o.OptTolerance,
	}
}

// ParseTurnPolicy maps the potrace policy names to gotrace values.
func ParseTurnPolicy(s string) (gotrace.TurnPolicy, error) {
	switch strings.ToLower(s) {
	case "", "minority":
		return gotrace.TurnMinority, nil
	case "majority":
		return gotrace.TurnMajority, nil
	case "black":
		return gotrace.TurnBlack, nil
	case "white":
		return gotrace.TurnWhite, nil
	case "left":
		return gotrace.TurnLeft, nil
	case "right":
		return gotrace.TurnRight, nil
	case "random":
		return gotrace.TurnRandom, nil
	}
	return 0, fmt.Errorf("unknown turn policy %q", s)
}

// Trace binarizes img and returns one command string per filled region: the
// outer contour followed by the contours of its holes. Denoising, contrast
// stretching and the auto threshold run inside the timeout budget.
//
// gotrace cannot be interrupted, so on timeout the worker goroutine is left
// to finish in the background and its result is discarded.
func Trace(ctx context.Context, img types.RasterImage, opts Options) ([]string, error) {
	src, err := canvas.ToImage(img)
	if err != nil {
		return nil, err
	}
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTracingTimeout, err)
	}

	type result struct {
		paths []gotrace.Path
		err   error
	}
	done := make(chan result, 1)
	go func() {
		img, o := preprocess(src, opts), opts
		if o.AutoThreshold {
			o.Threshold = Otsu(histogram(img))
		}
		bm := gotrace.NewBitmapFromImage(img, o.ink)
		paths, err := gotrace.Trace(bm, opts.params())
		done <- result{paths: paths, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %w", ErrTracingTimeout, ctx.Err())
	case res := <-done:
		if res.err != nil {
			return nil, fmt.Errorf("potrace: %w", res.err)
		}
		regions := Regions(res.paths)
		if len(regions) == 0 {
			return nil, ErrNoContours
		}
		return regions, nil
	}
}

func (o Options) ink(_, _ int, cl color.Color) bool {
	if _, _, _, a := cl.RGBA(); a == 0 {
		return false
	}
	y := color.GrayModel.Convert(cl).(color.Gray).Y
	if o.Invert {
		return y > o.Threshold
	}
	return y <= o.Threshold
}

// Regions groups a flat potrace path list into regions. A positive path
// opens a region and the negative paths after it are its holes.
func Regions(paths []gotrace.Path) []string {
	var (
		out []string
		cur strings.Builder
	)
	flush := func() {
		if cur.Len() > 0 {
			out = append(out, cur.String())
			cur.Reset()
		}
	}
	for _, p := range paths {
		d := strings.TrimSpace(p.ToSvgPath())
		if d == "" {
			continue
		}
		if p.Sign > 0 {
			flush()
		} else if cur.Len() > 0 {
			cur.WriteByte(' ')
		}
		cur.WriteString(d)
	}
	flush()
	return out
}
