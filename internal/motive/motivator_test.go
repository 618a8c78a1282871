package motive

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raftrail/railsim/internal/spline"
)

// line runs x from 0 to 4 over time [0, 4]; y and z stay at 1 and 2.
func line(t *testing.T) [3]*spline.Curve {
	t.Helper()
	xs := []float64{0, 4}
	x, err := spline.NewCurve(xs, []float64{0, 4}, []float64{1, 1})
	require.NoError(t, err)
	y, err := spline.NewCurve(xs, []float64{1, 1}, []float64{0, 0})
	require.NoError(t, err)
	z, err := spline.NewCurve(xs, []float64{2, 2}, []float64{0, 0})
	require.NoError(t, err)
	return [3]*spline.Curve{x, y, z}
}

func TestZeroMotivatorIsInvalid(t *testing.T) {
	var m Motivator
	assert.False(t, m.Valid())
	m.Advance(1)
	assert.False(t, m.Advanced())
	assert.Equal(t, mgl64.Vec3{}, m.Value())
	assert.Equal(t, 0.0, m.TargetTime())
}

func TestAdvanceForwardWraps(t *testing.T) {
	var m Motivator
	m.SetSpline(Playback{Splines: line(t), StartTime: 1, Repeat: true, Rate: 1})

	assert.True(t, m.Valid())
	assert.False(t, m.Advanced())
	assert.Equal(t, 1.0, m.SplineTime())
	assert.Equal(t, 3.0, m.TargetTime())
	assert.Equal(t, mgl64.Vec3{1, 1, 2}, m.Value())

	m.Advance(2.5)
	assert.True(t, m.Advanced())
	assert.Equal(t, 3.5, m.SplineTime())
	assert.Equal(t, 0.5, m.TargetTime())

	m.Advance(0.5)
	assert.Equal(t, 0.0, m.SplineTime(), "wraps at the boundary")
	assert.Equal(t, 4.0, m.TargetTime())
	assert.Equal(t, mgl64.Vec3{0, 1, 2}, m.Value())

	m.Advance(9)
	assert.Equal(t, 1.0, m.SplineTime())
}

func TestAdvanceBackward(t *testing.T) {
	var m Motivator
	m.SetSpline(Playback{Splines: line(t), Repeat: true, Rate: -2})

	assert.Equal(t, 0.0, m.SplineTime())
	assert.Equal(t, 4.0, m.TargetTime())

	m.Advance(0.5)
	assert.Equal(t, 3.0, m.CursorTime())
	assert.Equal(t, 1.0, m.SplineTime())
	assert.Equal(t, mgl64.Vec3{3, 1, 2}, m.Value())
	assert.Equal(t, mgl64.Vec3{-2, 0, 0}, m.Velocity())

	m.Advance(1.5)
	assert.Equal(t, 0.0, m.SplineTime(), "wraps at the boundary")
}

func TestNonRepeatingClamps(t *testing.T) {
	var m Motivator
	m.SetSpline(Playback{Splines: line(t), Rate: 1})

	m.Advance(10)
	assert.Equal(t, 4.0, m.CursorTime())
	assert.Equal(t, mgl64.Vec3{4, 1, 2}, m.Value())

	m.SetSplinePlaybackRate(-1)
	m.Advance(10)
	assert.Equal(t, 0.0, m.CursorTime())
}

func TestRateChangeAffectsNextAdvance(t *testing.T) {
	var m Motivator
	m.SetSpline(Playback{Splines: line(t), Repeat: true, Rate: 0.5})

	m.Advance(1)
	assert.Equal(t, 0.5, m.SplineTime())

	m.SetSplinePlaybackRate(m.SplinePlaybackRate() * 3)
	assert.Equal(t, 1.5, m.SplinePlaybackRate())
	m.Advance(1)
	assert.Equal(t, 2.0, m.SplineTime())
}

func TestSetSplineResetsState(t *testing.T) {
	var m Motivator
	m.SetSpline(Playback{Splines: line(t), StartTime: 0.25, Repeat: true, Rate: 1})
	m.Advance(1)
	m.SetSplinePlaybackRate(3)

	m.SetSpline(Playback{Splines: line(t), StartTime: 0.25, Repeat: true, Rate: 1})
	assert.False(t, m.Advanced())
	assert.Equal(t, 0.25, m.SplineTime())
	assert.Equal(t, 1.0, m.SplinePlaybackRate())

	m.SetSplineTime(6)
	assert.Equal(t, 2.0, m.SplineTime())
}
