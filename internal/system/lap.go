package system

import "math"

// DetectLap updates a fractional lap counter from the motivator's loop
// timing. splineTime is the time since the last loop boundary and
// targetTime the time until the next one, so their sum is the loop length.
//
// The new fraction is splineTime's share of the loop. It falls below the
// previous fraction only when the cursor wrapped past the boundary, and that
// dip is the sole lap signal: the counter then moves to the next integer.
// ok is false when the loop length is degenerate; the lap is then unchanged.
func DetectLap(previousLap, splineTime, targetTime float64) (lap float64, completed bool, ok bool) {
	total := splineTime + targetTime
	if !(total > 0) || math.IsInf(total, 0) {
		return previousLap, false, false
	}
	percent := splineTime / total
	if !(percent >= 0 && percent < 1) {
		return previousLap, false, false
	}
	lap = math.Floor(previousLap) + percent
	if lap < previousLap {
		return lap + 1, true, true
	}
	return lap, false, true
}
