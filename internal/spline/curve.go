// Package spline holds one-dimensional cubic Hermite curves over parametric
// time. Point sampling goes through gonum's PiecewiseCubic; bulk and cursor
// sampling evaluate the same segment polynomials without a per-sample search.
package spline

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/interp"
)

var (
	ErrTooFewNodes    = errors.New("spline needs at least two nodes")
	ErrNotIncreasing  = errors.New("node times must be strictly increasing")
	ErrLengthMismatch = errors.New("node slices differ in length")
	ErrNotClosedCurve = errors.New("closed curve must end where it starts")
)

// Curve is a C1 piecewise cubic y(x). Segment i covers [xs[i], xs[i+1]).
// Outside the domain the curve holds its end values.
type Curve struct {
	fit interp.PiecewiseCubic

	xs []float64
	// coeffs holds 4 polynomial coefficients per segment, lowest order first,
	// in the same form gonum fits them.
	coeffs []float64
	lastY  float64
	lastDy float64
}

// NewCurve fits a curve through (xs[i], ys[i]) with slopes dydxs[i].
func NewCurve(xs, ys, dydxs []float64) (*Curve, error) {
	n := len(xs)
	if len(ys) != n || len(dydxs) != n {
		return nil, ErrLengthMismatch
	}
	if n < 2 {
		return nil, ErrTooFewNodes
	}
	for i := 1; i < n; i++ {
		if !(xs[i] > xs[i-1]) {
			return nil, fmt.Errorf("%w: x[%d]=%g, x[%d]=%g", ErrNotIncreasing, i-1, xs[i-1], i, xs[i])
		}
	}

	c := &Curve{
		xs:     append([]float64(nil), xs...),
		coeffs: make([]float64, 4*(n-1)),
		lastY:  ys[n-1],
		lastDy: dydxs[n-1],
	}
	c.fit.FitWithDerivatives(xs, ys, dydxs)
	for i := 0; i < n-1; i++ {
		dx := xs[i+1] - xs[i]
		dy := ys[i+1] - ys[i]
		a := c.coeffs[4*i : 4*i+4]
		a[0] = ys[i]
		a[1] = dydxs[i]
		a[2] = (3*dy - (2*dydxs[i]+dydxs[i+1])*dx) / dx / dx
		a[3] = (-2*dy + (dydxs[i]+dydxs[i+1])*dx) / dx / dx / dx
	}
	return c, nil
}

// CatmullRom fits a curve with Catmull-Rom slopes. When closed is set the
// last node must repeat the first one and the slope there wraps around, so a
// looping playback has no kink at the seam.
func CatmullRom(xs, ys []float64, closed bool) (*Curve, error) {
	n := len(xs)
	if len(ys) != n {
		return nil, ErrLengthMismatch
	}
	if n < 2 {
		return nil, ErrTooFewNodes
	}
	d := make([]float64, n)
	for i := 1; i < n-1; i++ {
		d[i] = (ys[i+1] - ys[i-1]) / (xs[i+1] - xs[i-1])
	}
	switch {
	case closed && n > 2:
		if ys[0] != ys[n-1] {
			return nil, ErrNotClosedCurve
		}
		wrap := (ys[1] - ys[n-2]) / ((xs[1] - xs[0]) + (xs[n-1] - xs[n-2]))
		d[0], d[n-1] = wrap, wrap
	default:
		d[0] = (ys[1] - ys[0]) / (xs[1] - xs[0])
		d[n-1] = (ys[n-1] - ys[n-2]) / (xs[n-1] - xs[n-2])
	}
	for _, v := range d {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, ErrNotIncreasing
		}
	}
	return NewCurve(xs, ys, d)
}

func (c *Curve) StartX() float64 { return c.xs[0] }
func (c *Curve) EndX() float64   { return c.xs[len(c.xs)-1] }
func (c *Curve) NumNodes() int   { return len(c.xs) }

// NodeXs returns a copy of the knot times.
func (c *Curve) NodeXs() []float64 { return append([]float64(nil), c.xs...) }

// YCalculatedSlowly evaluates y(x) with a binary search over the knots.
func (c *Curve) YCalculatedSlowly(x float64) float64 {
	return c.fit.Predict(x)
}

// DerivativeCalculatedSlowly evaluates dy/dx at x.
func (c *Curve) DerivativeCalculatedSlowly(x float64) float64 {
	return c.fit.PredictDerivative(x)
}

// BulkYs writes len(ys) samples at startX, startX+deltaX, ... into ys.
// deltaX must be positive. Samples are walked forward segment by segment, so
// the cost is O(len(ys) + nodes) instead of O(len(ys) * log(nodes)).
func (c *Curve) BulkYs(startX, deltaX float64, ys []float64) {
	seg := 0
	last := len(c.xs) - 1
	for k := range ys {
		x := startX + float64(k)*deltaX
		for seg < last && x >= c.xs[seg+1] {
			seg++
		}
		ys[k] = c.eval(seg, x)
	}
}

// Cursor samples a curve at nearby x values, reusing the last segment as a
// search hint. The zero Cursor is ready to use.
type Cursor struct {
	seg int
}

// Sample returns y and dy/dx at x.
func (cur *Cursor) Sample(c *Curve, x float64) (y, dy float64) {
	last := len(c.xs) - 1
	if cur.seg >= last {
		cur.seg = last - 1
	}
	for cur.seg > 0 && x < c.xs[cur.seg] {
		cur.seg--
	}
	for cur.seg < last-1 && x >= c.xs[cur.seg+1] {
		cur.seg++
	}
	if x >= c.xs[last] {
		return c.lastY, c.lastDy
	}
	if x < c.xs[0] {
		a := c.coeffs[0:4]
		return a[0], a[1]
	}
	dx := x - c.xs[cur.seg]
	a := c.coeffs[4*cur.seg : 4*cur.seg+4]
	y = ((a[3]*dx+a[2])*dx+a[1])*dx + a[0]
	dy = (3*a[3]*dx+2*a[2])*dx + a[1]
	return y, dy
}

func (c *Curve) eval(seg int, x float64) float64 {
	if x >= c.xs[len(c.xs)-1] {
		return c.lastY
	}
	if x < c.xs[0] {
		return c.coeffs[0]
	}
	dx := x - c.xs[seg]
	a := c.coeffs[4*seg : 4*seg+4]
	return ((a[3]*dx+a[2])*dx+a[1])*dx + a[0]
}
