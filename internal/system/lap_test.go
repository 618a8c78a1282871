package system

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectLap(t *testing.T) {
	tests := []struct {
		name                  string
		prev, spline, target  float64
		wantLap               float64
		wantCompleted, wantOK bool
	}{
		{"first tick", 0, 1, 3, 0.25, false, true},
		{"progress", 0.25, 2, 2, 0.5, false, true},
		{"later lap", 2.5, 3, 1, 2.75, false, true},
		{"wrap", 0.75, 0, 4, 1, true, true},
		{"wrap past zero", 2.9, 0.4, 3.6, 3.1, true, true},
		{"zero length", 1.5, 0, 0, 1.5, false, false},
		{"negative length", 1.5, 1, -2, 1.5, false, false},
		{"infinite", 1.5, 1, math.Inf(1), 1.5, false, false},
		{"nan", 1.5, math.NaN(), 1, 1.5, false, false},
		{"at end", 0.5, 4, 0, 0.5, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lap, completed, ok := DetectLap(tt.prev, tt.spline, tt.target)
			assert.InDelta(t, tt.wantLap, lap, 1e-12)
			assert.Equal(t, tt.wantCompleted, completed)
			assert.Equal(t, tt.wantOK, ok)
		})
	}
}
