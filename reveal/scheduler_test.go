package reveal

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"whiteboard-pipeline/types"
)

var strategies = []Strategy{Sequential, Parallel, Balanced}

func withLengths(lengths ...float64) []types.VectorPath {
	out := make([]types.VectorPath, len(lengths))
	for i, l := range lengths {
		out[i] = types.VectorPath{ID: i, EstimatedLength: l, Classification: types.Stroke}
	}
	return out
}

func randomPaths(rng *rand.Rand) []types.VectorPath {
	n := 1 + rng.Intn(12)
	lengths := make([]float64, n)
	for i := range lengths {
		lengths[i] = 50 + rng.Float64()*2000
	}
	return withLengths(lengths...)
}

func TestProgressBoundaries(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for _, opts := range []Options{DefaultOptions(), {Allocation: Equal, Easing: Smoothstep, EasePasses: 3}} {
		s := NewScheduler(opts)
		for range 50 {
			paths := randomPaths(rng)
			d := 0.5 + rng.Float64()*20
			for _, st := range strategies {
				start, err := s.ProgressAt(paths, 0, d, st)
				require.NoError(t, err)
				end, err := s.ProgressAt(paths, d, d, st)
				require.NoError(t, err)
				for i := range paths {
					assert.Zero(t, start[i], "%v path %d at t=0", st, i)
					assert.Equal(t, 1.0, end[i], "%v path %d at t=D", st, i)
				}
			}
		}
	}
}

func TestProgressMonotonic(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	s := NewScheduler(Options{
		Allocation:    ByLength,
		PauseFraction: 0.02,
		MaxPauseTotal: 0.2,
		Stagger:       0.15,
		Easing:        CubicBezier(0.42, 0, 0.58, 1),
		EasePasses:    2,
	})
	for range 30 {
		paths := randomPaths(rng)
		d := 1 + rng.Float64()*10
		for _, st := range strategies {
			prev := make([]float64, len(paths))
			for step := 0; step <= 400; step++ {
				got, err := s.ProgressAt(paths, d*float64(step)/400, d, st)
				require.NoError(t, err)
				for i, p := range got {
					require.GreaterOrEqual(t, p, prev[i], "%v path %d step %d", st, i, step)
					require.LessOrEqual(t, p, 1.0)
				}
				prev = got
			}
		}
	}
}

func TestSequentialExclusive(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	s := NewScheduler(DefaultOptions())
	for range 30 {
		paths := randomPaths(rng)
		for step := 1; step < 1000; step++ {
			got, err := s.ProgressAt(paths, float64(step)/100, 10, Sequential)
			require.NoError(t, err)
			active := 0
			for _, p := range got {
				if p > 0 && p < 1 {
					active++
				}
			}
			require.LessOrEqual(t, active, 1, "step %d", step)
		}
	}
}

func TestSequentialLengthScenario(t *testing.T) {
	s := NewScheduler(Options{Allocation: ByLength, Easing: Linear})
	paths := withLengths(200, 800)

	got, err := s.ProgressAt(paths, 2, 10, Sequential)
	require.NoError(t, err)
	assert.InDelta(t, 1, got[0], 1e-9)
	assert.InDelta(t, 0, got[1], 1e-9)

	got, err = s.ProgressAt(paths, 9, 10, Sequential)
	require.NoError(t, err)
	assert.Equal(t, 1.0, got[0])
	assert.InDelta(t, 0.875, got[1], 1e-9)
}

func TestSequentialPauses(t *testing.T) {
	s := NewScheduler(Options{Allocation: Equal, PauseFraction: 0.02, MaxPauseTotal: 0.2, Easing: Linear})
	w := s.Windows(withLengths(100, 100, 100), Sequential)
	require.Len(t, w, 3)
	assert.InDelta(t, 0.32, w[0].End, 1e-9)
	assert.InDelta(t, 0.34, w[1].Start, 1e-9)
	assert.InDelta(t, 0.68, w[2].Start, 1e-9)
	assert.Equal(t, 1.0, w[2].End)

	// 40 gaps at 2% would eat 80% of the timeline, so the total is capped.
	many := s.Windows(withLengths(make([]float64, 41)...), Sequential)
	var pause float64
	for i := 1; i < len(many); i++ {
		pause += many[i].Start - many[i-1].End
	}
	assert.InDelta(t, 0.2, pause, 1e-9)
}

func TestBalancedOverlaps(t *testing.T) {
	s := NewScheduler(Options{Allocation: Equal, Stagger: 0.15, Easing: Linear})
	w := s.Windows(withLengths(1, 1, 1), Balanced)
	require.Len(t, w, 3)
	assert.Zero(t, w[0].Start)
	assert.Equal(t, 1.0, w[2].End)
	for i := 1; i < len(w); i++ {
		assert.Less(t, w[i].Start, w[i-1].End, "window %d should overlap the previous one", i)
		width := w[i-1].End - w[i-1].Start
		assert.InDelta(t, 0.15*width, w[i-1].End-w[i].Start, 1e-9)
	}
}

func TestParallelUsesOverallEase(t *testing.T) {
	s := NewScheduler(Options{Easing: Smoothstep})
	got, err := s.ProgressAt(withLengths(100, 900, 50), 2.5, 10, Parallel)
	require.NoError(t, err)
	for _, p := range got {
		assert.InDelta(t, Smoothstep(0.25), p, 1e-12)
	}
}

func TestProgressAtInvalidDuration(t *testing.T) {
	s := NewScheduler(DefaultOptions())
	for _, d := range []float64{0, -1} {
		_, err := s.ProgressAt(withLengths(100), 1, d, Sequential)
		assert.ErrorIs(t, err, ErrInvalidDuration)
	}
}

func TestProgressAtEmpty(t *testing.T) {
	got, err := NewScheduler(DefaultOptions()).ProgressAt(nil, 1, 5, Balanced)
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestProgressWithNonFiniteLengths(t *testing.T) {
	s := NewScheduler(DefaultOptions())
	paths := withLengths(math.NaN(), 200, math.Inf(1), -5)
	for _, st := range strategies {
		for _, tm := range []float64{0, 1.3, 2.5, 4.9, 5} {
			got, err := s.ProgressAt(paths, tm, 5, st)
			require.NoError(t, err)
			for i, p := range got {
				assert.False(t, math.IsNaN(p), "%v t=%v path %d", st, tm, i)
				assert.GreaterOrEqual(t, p, 0.0)
				assert.LessOrEqual(t, p, 1.0)
			}
		}
		end, err := s.ProgressAt(paths, 5, 5, st)
		require.NoError(t, err)
		assert.Equal(t, []float64{1, 1, 1, 1}, end)
	}
}

func TestProgressClampsTime(t *testing.T) {
	s := NewScheduler(DefaultOptions())
	paths := withLengths(100, 200)
	before, err := s.ProgressAt(paths, -3, 5, Sequential)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0}, before)
	after, err := s.ProgressAt(paths, 8, 5, Sequential)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 1}, after)
}

func TestParseStrategyAndAllocation(t *testing.T) {
	st, err := ParseStrategy("Balanced")
	require.NoError(t, err)
	assert.Equal(t, Balanced, st)
	_, err = ParseStrategy("random")
	assert.Error(t, err)

	a, err := ParseAllocation("equal")
	require.NoError(t, err)
	assert.Equal(t, Equal, a)
	_, err = ParseAllocation("weighted")
	assert.Error(t, err)
}
