package geometry

import (
	"fmt"
	"math"
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEstimateLengthCommands(t *testing.T) {
	tests := []struct {
		name string
		d    string
		want float64
	}{
		{"line", "M 0 0 L 300 400", 500},
		{"relative line", "m 100 100 l 300 400", 500},
		{"horizontal and vertical", "M 0 0 H 200 V 150", 350},
		{"relative axis", "M 10 10 h -200 v -150", 350},
		{"close", "M 0 0 L 100 0 L 100 100 Z", 200 + 100*math.Sqrt2},
		{"implicit line after move", "M 0 0 100 0 100 100", 200},
		{"cubic", "M 0 0 C 0 100 100 100 100 0", 0.85 * 300},
		{"relative cubic", "M 50 50 c 0 100 100 100 100 0", 0.85 * 300},
		{"quadratic", "M 0 0 Q 100 100 200 0", 0.75 * 2 * 100 * math.Sqrt2},
		{"arc", "M 0 0 A 50 50 0 0 1 100 0", 120},
		{"unknown command", "M 0 0 T 100 0", 80},
		{"unknown uses last pair", "M 0 0 S 10 10 0 100", 80},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EstimateLength(tt.d, ReferenceWidth, ReferenceHeight)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestEstimateLengthCanvasScaling(t *testing.T) {
	d := "M 0 0 L 300 400"
	assert.InDelta(t, 250, EstimateLength(d, 960, 540), 1e-9)
	assert.InDelta(t, 1000, EstimateLength(d, 3840, 2160), 1e-9)
	assert.InDelta(t, 500, EstimateLength(d, 0, 1080), 1e-9)
}

func TestEstimateLengthFloor(t *testing.T) {
	for _, d := range []string{"", "M 0 0", "M 0 0 L 1 1", "not a path", "M 0 0 Z", "M 0 0 L 10"} {
		assert.Equal(t, MinLength, EstimateLength(d, ReferenceWidth, ReferenceHeight), "input %q", d)
	}
	assert.GreaterOrEqual(t, EstimateLength("M 0 0 L 10 0", 1, 1), MinLength)
}

func TestEstimateLengthOverflowStaysFinite(t *testing.T) {
	nan, inf := math.NaN(), math.Inf(1)
	tests := []struct {
		name          string
		d             string
		width, height float64
	}{
		{"inf minus inf", "m 1e308 0 l 1e308 0 l -1e308 0", ReferenceWidth, ReferenceHeight},
		{"overflowing sum", "M -1e308 0 L 1e308 0 L -1e308 0", ReferenceWidth, ReferenceHeight},
		{"huge cubic", "M 0 0 C 1e308 1e308 -1e308 -1e308 1e308 0", ReferenceWidth, ReferenceHeight},
		{"nan canvas", "M 0 0 L 300 400", nan, ReferenceHeight},
		{"inf canvas", "M 0 0 L 300 400", ReferenceWidth, inf},
		{"overflowing canvas area", "M 0 0 L 300 400", 1e200, 1e200},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EstimateLength(tt.d, tt.width, tt.height)
			assert.False(t, math.IsNaN(got))
			assert.GreaterOrEqual(t, got, MinLength)
			assert.LessOrEqual(t, got, MaxLength)
		})
	}

	// Once a path has overflowed, appending to it keeps it at the ceiling.
	assert.Equal(t, MaxLength, EstimateLength("m 1e308 0 l 1e308 0", ReferenceWidth, ReferenceHeight))
	assert.Equal(t, MaxLength, EstimateLength("m 1e308 0 l 1e308 0 l -1e308 0", ReferenceWidth, ReferenceHeight))
}

func TestCanvasScaleFallsBackOnBadSizes(t *testing.T) {
	for _, size := range [][2]float64{{0, 1080}, {-1, 1080}, {math.NaN(), 1080}, {1920, math.Inf(1)}, {1e200, 1e200}} {
		assert.Equal(t, 1.0, CanvasScale(size[0], size[1]), "size %v", size)
	}
	assert.InDelta(t, 0.5, CanvasScale(960, 540), 1e-12)
}

func TestEstimateLengthDeterministic(t *testing.T) {
	d := "M 12.5 7 C 30 40 60 -2 90 11 Q 100 100 140 20 A 30 30 0 1 0 200 200 Z"
	first := EstimateLength(d, 1280, 720)
	for range 10 {
		assert.Equal(t, first, EstimateLength(d, 1280, 720))
	}
}

func TestEstimateLengthMonotonicUnderAppend(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	ops := []string{"L", "l", "C", "c", "Q", "q", "H", "v", "A", "Z"}
	for i := range 200 {
		var b strings.Builder
		fmt.Fprintf(&b, "M %.2f %.2f", rng.Float64()*1920, rng.Float64()*1080)
		for range rng.Intn(8) {
			op := ops[rng.Intn(len(ops))]
			b.WriteString(" " + op)
			n := map[string]int{"L": 2, "l": 2, "C": 6, "c": 6, "Q": 4, "q": 4, "H": 1, "v": 1, "A": 7, "Z": 0}[op]
			for k := range n {
				if op == "A" && (k == 3 || k == 4) {
					fmt.Fprintf(&b, " %d", rng.Intn(2))
					continue
				}
				fmt.Fprintf(&b, " %.2f", rng.Float64()*400-200)
			}
		}
		before := EstimateLength(b.String(), 1920, 1080)
		dx, dy := rng.Float64()*300+1, rng.Float64()*300+1
		after := EstimateLength(fmt.Sprintf("%s L %.2f %.2f", b.String(), dx, dy), 1920, 1080)
		assert.GreaterOrEqual(t, after, before, "case %d: %q", i, b.String())
	}
}

func TestMeasure(t *testing.T) {
	assert.InDelta(t, 500, Measure("M 0 0 L 300 400", ReferenceWidth, ReferenceHeight), 1e-6)
	assert.Zero(t, Measure("M 10 10", ReferenceWidth, ReferenceHeight))

	d := "M 0 0 C 0 100 100 100 100 0"
	measured := Measure(d, ReferenceWidth, ReferenceHeight)
	estimated := EstimateLength(d, ReferenceWidth, ReferenceHeight)
	assert.Greater(t, measured, 100.0)
	assert.Less(t, measured, estimated)

	assert.Zero(t, Measure("m 1e308 0 l 1e308 0 l 1 1", ReferenceWidth, ReferenceHeight), "non-finite coordinates")
}
