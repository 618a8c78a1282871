// Package motive drives a value along a set of splines over time.
package motive

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/raftrail/railsim/internal/spline"
)

// Playback configures a Motivator. StartTime is measured from the start of
// the splines' time domain.
type Playback struct {
	Splines   [3]*spline.Curve
	StartTime float64
	Repeat    bool
	Rate      float64
}

// Motivator plays back three splines as a Vec3. The time cursor moves by
// Rate*dt on each Advance; a negative rate plays backwards. With Repeat the
// cursor wraps around the domain, otherwise it stops at either end.
//
// SplineTime counts from the last loop boundary in the direction of travel
// and TargetTime is the time left until the next one. Both are in [0, length]
// and sum to the domain length.
type Motivator struct {
	splines  [3]*spline.Curve
	cursors  [3]spline.Cursor
	startX   float64
	length   float64
	local    float64 // cursor offset from startX
	rate     float64
	repeat   bool
	valid    bool
	advanced bool
}

// SetSpline (re)initializes playback. All previous cursor state is dropped.
func (m *Motivator) SetSpline(p Playback) {
	*m = Motivator{
		splines: p.Splines,
		startX:  p.Splines[0].StartX(),
		length:  p.Splines[0].EndX() - p.Splines[0].StartX(),
		rate:    p.Rate,
		repeat:  p.Repeat,
		valid:   true,
	}
	m.local = m.normalize(p.StartTime)
}

// Valid reports whether SetSpline has been called.
func (m *Motivator) Valid() bool { return m.valid }

// Advanced reports whether Advance has run since the last SetSpline.
func (m *Motivator) Advanced() bool { return m.advanced }

func (m *Motivator) SplinePlaybackRate() float64 { return m.rate }

// SetSplinePlaybackRate takes effect on the next Advance.
func (m *Motivator) SetSplinePlaybackRate(rate float64) { m.rate = rate }

// Advance moves the time cursor by rate*dt.
func (m *Motivator) Advance(dt float64) {
	if !m.valid || math.IsNaN(dt) {
		return
	}
	m.advanced = true
	m.local = m.normalize(m.local + m.rate*dt)
}

// SetSplineTime moves the cursor to t, measured from the domain start.
func (m *Motivator) SetSplineTime(t float64) {
	if m.valid {
		m.local = m.normalize(t)
	}
}

// CursorTime is the cursor's offset from the start of the domain.
func (m *Motivator) CursorTime() float64 { return m.local }

// SplineTime is the time travelled since the last loop boundary.
func (m *Motivator) SplineTime() float64 {
	if !m.valid {
		return 0
	}
	if m.rate < 0 {
		t := m.length - m.local
		if t >= m.length {
			t = 0
		}
		return t
	}
	if m.repeat && m.local >= m.length {
		return 0
	}
	return m.local
}

// TargetTime is the time left until the next loop boundary.
func (m *Motivator) TargetTime() float64 {
	if !m.valid {
		return 0
	}
	return m.length - m.SplineTime()
}

// Value is the rail-local position at the cursor.
func (m *Motivator) Value() mgl64.Vec3 {
	var v mgl64.Vec3
	if !m.valid {
		return v
	}
	x := m.startX + m.local
	for d, s := range m.splines {
		v[d], _ = m.cursors[d].Sample(s, x)
	}
	return v
}

// Velocity is the rail-local velocity at the cursor, including the rate.
func (m *Motivator) Velocity() mgl64.Vec3 {
	var v mgl64.Vec3
	if !m.valid {
		return v
	}
	x := m.startX + m.local
	for d, s := range m.splines {
		_, dy := m.cursors[d].Sample(s, x)
		v[d] = dy * m.rate
	}
	return v
}

// normalize maps a cursor offset into the domain. Repeating playback keeps
// forward cursors in [0, length) and backward cursors in (0, length], so the
// boundary is crossed exactly when the cursor wraps.
func (m *Motivator) normalize(t float64) float64 {
	if math.IsInf(t, 0) || math.IsNaN(t) {
		return m.local
	}
	if !m.repeat || !(m.length > 0) {
		return math.Max(0, math.Min(t, m.length))
	}
	t = math.Mod(t, m.length)
	if t < 0 {
		t += m.length
	}
	if m.rate < 0 && t == 0 {
		t = m.length
	}
	return t
}
