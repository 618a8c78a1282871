// Package rail holds named 3-dimensional spline paths that denizens ride on.
package rail

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/raftrail/railsim/internal/spline"
)

// Dimensions is the number of independent splines in a rail.
const Dimensions = 3

// MaxPositions bounds the sample count of a single Positions call.
const MaxPositions = 1 << 24

var (
	ErrDomainMismatch = errors.New("rail splines do not share a time domain")
	ErrBadSpeed       = errors.New("rail speed must be positive")
)

// Rail is immutable after construction and shared by every bound denizen.
type Rail struct {
	name    string
	splines [Dimensions]*spline.Curve
}

// New wraps a set of per-dimension curves. All curves must have the same
// knot times.
func New(name string, splines [Dimensions]*spline.Curve) (*Rail, error) {
	if splines[0] == nil {
		return nil, fmt.Errorf("rail %q: %w", name, spline.ErrTooFewNodes)
	}
	xs := splines[0].NodeXs()
	for d := 1; d < Dimensions; d++ {
		if splines[d] == nil {
			return nil, fmt.Errorf("rail %q: %w", name, spline.ErrTooFewNodes)
		}
		other := splines[d].NodeXs()
		if len(other) != len(xs) {
			return nil, fmt.Errorf("rail %q dimension %d: %w", name, d, ErrDomainMismatch)
		}
		for i := range xs {
			if xs[i] != other[i] {
				return nil, fmt.Errorf("rail %q dimension %d: %w", name, d, ErrDomainMismatch)
			}
		}
	}
	return &Rail{name: name, splines: splines}, nil
}

// Node is one control point. Time is optional; untimed nodes are placed by
// chord length at the rail's speed.
type Node struct {
	Position mgl64.Vec3
	Time     *float64
}

// Build fits Catmull-Rom splines through nodes. A looped rail is closed by
// repeating its first node, so the curve and its tangent are continuous
// across the seam.
func Build(name string, nodes []Node, speed float64, looped bool) (*Rail, error) {
	if !(speed > 0) {
		return nil, fmt.Errorf("rail %q: %w", name, ErrBadSpeed)
	}
	if len(nodes) < 2 {
		return nil, fmt.Errorf("rail %q: %w", name, spline.ErrTooFewNodes)
	}

	times := make([]float64, 0, len(nodes)+1)
	points := make([]mgl64.Vec3, 0, len(nodes)+1)
	for i, n := range nodes {
		t := 0.0
		switch {
		case n.Time != nil:
			t = *n.Time
		case i > 0:
			t = times[i-1] + n.Position.Sub(points[i-1]).Len()/speed
		}
		times = append(times, t)
		points = append(points, n.Position)
	}
	if looped && points[len(points)-1] != points[0] {
		last := len(points) - 1
		times = append(times, times[last]+points[0].Sub(points[last]).Len()/speed)
		points = append(points, points[0])
	}

	var splines [Dimensions]*spline.Curve
	ys := make([]float64, len(points))
	for d := 0; d < Dimensions; d++ {
		for i, p := range points {
			ys[i] = p[d]
		}
		c, err := spline.CatmullRom(times, ys, looped)
		if err != nil {
			return nil, fmt.Errorf("rail %q dimension %d: %w", name, d, err)
		}
		splines[d] = c
	}
	return &Rail{name: name, splines: splines}, nil
}

// FromPoints builds a rail with chord-length timing.
func FromPoints(name string, points []mgl64.Vec3, speed float64, looped bool) (*Rail, error) {
	nodes := make([]Node, len(points))
	for i, p := range points {
		nodes[i].Position = p
	}
	return Build(name, nodes, speed, looped)
}

func (r *Rail) Name() string { return r.name }

// Splines returns the per-dimension curves.
func (r *Rail) Splines() [Dimensions]*spline.Curve { return r.splines }

// EndTime is the length of the rail's time domain.
func (r *Rail) EndTime() float64 {
	return r.splines[0].EndX() - r.splines[0].StartX()
}

// Positions fills out with points every deltaTime from 0 to EndTime
// inclusive and returns it. A non-positive step, or one so small that more
// than MaxPositions samples would be needed, yields an empty slice.
func (r *Rail) Positions(deltaTime float64, out []mgl64.Vec3) []mgl64.Vec3 {
	out = out[:0]
	if !(deltaTime > 0) || math.IsInf(deltaTime, 0) {
		return out
	}
	count := math.Floor(r.EndTime()/deltaTime) + 1
	if !(count <= MaxPositions) {
		return out
	}
	n := int(count)
	if cap(out) < n {
		out = make([]mgl64.Vec3, n)
	}
	out = out[:n]

	start := r.splines[0].StartX()
	scratch := make([]float64, n)
	for d, s := range r.splines {
		s.BulkYs(start, deltaTime, scratch)
		for i, v := range scratch {
			out[i][d] = v
		}
	}
	return out
}

// PositionCalculatedSlowly samples every dimension directly at time.
func (r *Rail) PositionCalculatedSlowly(time float64) mgl64.Vec3 {
	var p mgl64.Vec3
	t := r.splines[0].StartX() + time
	for d, s := range r.splines {
		p[d] = s.YCalculatedSlowly(t)
	}
	return p
}

// Velocity is the rail-local derivative of position with respect to spline
// time.
func (r *Rail) Velocity(time float64) mgl64.Vec3 {
	var v mgl64.Vec3
	t := r.splines[0].StartX() + time
	for d, s := range r.splines {
		v[d] = s.DerivativeCalculatedSlowly(t)
	}
	return v
}
