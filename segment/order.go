package segment

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"whiteboard-pipeline/types"
)

// OrderPolicy decides the sequence paths are drawn in.
type OrderPolicy string

const (
	// OrderNone keeps tracing order.
	OrderNone OrderPolicy = "none"
	// OrderSpatial draws row by row, top to bottom and left to right, the way
	// a person would sketch a diagram.
	OrderSpatial OrderPolicy = "spatial"
	// OrderArea draws the largest shapes first.
	OrderArea OrderPolicy = "area"
)

// ParseOrderPolicy accepts the policy names case-insensitively. An empty
// string means OrderNone.
func ParseOrderPolicy(s string) (OrderPolicy, error) {
	switch p := OrderPolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return OrderNone, nil
	case OrderNone, OrderSpatial, OrderArea:
		return p, nil
	}
	return "", fmt.Errorf("unknown order policy %q", s)
}

// Order returns a reordered copy of paths. IDs are left untouched; the slice
// position is the drawing order. rowTolerance is the vertical distance within
// which start points count as the same row for OrderSpatial.
func Order(paths []types.VectorPath, policy OrderPolicy, rowTolerance float64) []types.VectorPath {
	out := slices.Clone(paths)
	switch policy {
	case OrderSpatial:
		slices.SortStableFunc(out, func(a, b types.VectorPath) int {
			return cmp.Compare(a.StartPoint.Y, b.StartPoint.Y)
		})
		row := 0
		for i := 1; i <= len(out); i++ {
			if i < len(out) && out[i].StartPoint.Y-out[row].StartPoint.Y <= rowTolerance {
				continue
			}
			slices.SortStableFunc(out[row:i], func(a, b types.VectorPath) int {
				return cmp.Compare(a.StartPoint.X, b.StartPoint.X)
			})
			row = i
		}
	case OrderArea:
		slices.SortStableFunc(out, func(a, b types.VectorPath) int {
			return cmp.Compare(b.BoundingBox.Area(), a.BoundingBox.Area())
		})
	}
	return out
}
