package spline

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCurveRejectsBadNodes(t *testing.T) {
	_, err := NewCurve([]float64{0}, []float64{1}, []float64{0})
	assert.ErrorIs(t, err, ErrTooFewNodes)

	_, err = NewCurve([]float64{0, 1}, []float64{1}, []float64{0, 0})
	assert.ErrorIs(t, err, ErrLengthMismatch)

	_, err = NewCurve([]float64{0, 1, 1}, []float64{0, 1, 2}, []float64{0, 0, 0})
	assert.ErrorIs(t, err, ErrNotIncreasing)

	_, err = CatmullRom([]float64{0, 1, 2}, []float64{0, 1, 2}, true)
	assert.ErrorIs(t, err, ErrNotClosedCurve)
}

func TestCurvePassesThroughNodes(t *testing.T) {
	xs := []float64{0, 1, 3, 4}
	ys := []float64{2, -1, 5, 2}
	c, err := CatmullRom(xs, ys, false)
	require.NoError(t, err)

	for i := range xs {
		assert.Equal(t, ys[i], c.YCalculatedSlowly(xs[i]), "node %d", i)
	}
	assert.Equal(t, 0.0, c.StartX())
	assert.Equal(t, 4.0, c.EndX())
	assert.Equal(t, 4, c.NumNodes())
}

func TestCurveHoldsEndValues(t *testing.T) {
	c, err := NewCurve([]float64{1, 2}, []float64{10, 20}, []float64{3, 4})
	require.NoError(t, err)

	assert.Equal(t, 10.0, c.YCalculatedSlowly(-5))
	assert.Equal(t, 20.0, c.YCalculatedSlowly(7))
	assert.Equal(t, 4.0, c.DerivativeCalculatedSlowly(7))

	ys := make([]float64, 3)
	c.BulkYs(-1, 4, ys)
	assert.Equal(t, []float64{10, 20, 20}, ys)
}

func TestBulkMatchesPointSampling(t *testing.T) {
	xs := []float64{0, 0.5, 1.25, 2, 3.5, 4}
	ys := []float64{0, 1, -2, 0.5, 3, 0}
	c, err := CatmullRom(xs, ys, true)
	require.NoError(t, err)

	const dt = 0.1
	n := int(math.Floor(c.EndX()/dt)) + 1
	bulk := make([]float64, n)
	c.BulkYs(0, dt, bulk)

	var cur Cursor
	for k := 0; k < n; k++ {
		x := float64(k) * dt
		want := c.YCalculatedSlowly(x)
		assert.InDelta(t, want, bulk[k], 1e-12, "bulk sample %d", k)

		y, dy := cur.Sample(c, x)
		assert.InDelta(t, want, y, 1e-12, "cursor sample %d", k)
		assert.InDelta(t, c.DerivativeCalculatedSlowly(x), dy, 1e-12, "cursor slope %d", k)
	}
}

func TestCursorSeeksBackwards(t *testing.T) {
	c, err := CatmullRom([]float64{0, 1, 2, 3}, []float64{0, 1, 4, 9}, false)
	require.NoError(t, err)

	var cur Cursor
	for _, x := range []float64{2.5, 0.25, 2.9, 1.0, 3.0, -1} {
		y, _ := cur.Sample(c, x)
		assert.InDelta(t, c.YCalculatedSlowly(x), y, 1e-12, "x=%g", x)
	}
}

func TestClosedCurveSeamIsSmooth(t *testing.T) {
	c, err := CatmullRom([]float64{0, 1, 2, 3, 4}, []float64{0, 1, 0, -1, 0}, true)
	require.NoError(t, err)

	start := c.DerivativeCalculatedSlowly(0)
	end := c.DerivativeCalculatedSlowly(c.EndX())
	assert.Equal(t, start, end)
}
