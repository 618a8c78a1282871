package persist

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLapsGained(t *testing.T) {
	tests := []struct {
		name              string
		previous, current float64
		want              int32
	}{
		{"first save", 0, 0.75, 0},
		{"one lap", 0.9, 1.1, 1},
		{"several laps between saves", 1.25, 4.5, 3},
		{"same lap", 2.1, 2.9, 0},
		{"counter went back", 5.5, 2.5, 0},
		{"never saved", 0, 3.25, 3},
		{"overflow", 0, math.Inf(1), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, lapsGained(tt.previous, tt.current))
		})
	}
}
