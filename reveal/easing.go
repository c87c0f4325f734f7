package reveal

import (
	"fmt"
	"strings"
)

// Easing maps linear progress in [0,1] to eased progress. Every Easing in
// this package is non-decreasing with f(0)=0 and f(1)=1.
type Easing func(x float64) float64

// Linear is the identity.
func Linear(x float64) float64 { return clamp01(x) }

// Smoothstep is the Hermite slow-in/slow-out curve 3x²-2x³.
func Smoothstep(x float64) float64 {
	x = clamp01(x)
	return x * x * (3 - 2*x)
}

// CubicInOut accelerates through the first half and decelerates through the
// second.
func CubicInOut(x float64) float64 {
	x = clamp01(x)
	if x < 0.5 {
		return 4 * x * x * x
	}
	u := -2*x + 2
	return 1 - u*u*u/2
}

// CubicBezier returns the CSS cubic-bezier(x1, y1, x2, y2) timing function.
// Control points are clamped to the unit square, which keeps the curve a
// monotone function of x.
func CubicBezier(x1, y1, x2, y2 float64) Easing {
	x1, y1, x2, y2 = clamp01(x1), clamp01(y1), clamp01(x2), clamp01(y2)
	bez := func(u, p1, p2 float64) float64 {
		v := 1 - u
		return 3*v*v*u*p1 + 3*v*u*u*p2 + u*u*u
	}
	return func(x float64) float64 {
		switch {
		case x <= 0:
			return 0
		case x >= 1:
			return 1
		}
		lo, hi := 0.0, 1.0
		for range 48 {
			mid := (lo + hi) / 2
			if bez(mid, x1, x2) < x {
				lo = mid
			} else {
				hi = mid
			}
		}
		return clamp01(bez((lo+hi)/2, y1, y2))
	}
}

// Repeat applies e passes times. Cascading a slow-in/slow-out curve makes
// the motion more deliberate. passes below 1 count as 1.
func Repeat(e Easing, passes int) Easing {
	if passes <= 1 {
		return e
	}
	return func(x float64) float64 {
		for range passes {
			x = e(x)
		}
		return x
	}
}

// ParseEasing resolves an easing by name. bezier holds the control points
// used by "bezier".
func ParseEasing(name string, bezier [4]float64) (Easing, error) {
	switch strings.ToLower(name) {
	case "linear":
		return Linear, nil
	case "smoothstep":
		return Smoothstep, nil
	case "cubic":
		return CubicInOut, nil
	case "", "bezier":
		return CubicBezier(bezier[0], bezier[1], bezier[2], bezier[3]), nil
	}
	return nil, fmt.Errorf("unknown easing %q", name)
}

func clamp01(x float64) float64 {
	switch {
	case x <= 0:
		return 0
	case x >= 1:
		return 1
	}
	return x
}
