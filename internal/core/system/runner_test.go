package system_test

import (
	"testing"
	"time"

	"github.com/raftrail/railsim/internal/core/system"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	name  string
	phase system.Phase
	log   *[]string
}

func (r *recorder) Phase() system.Phase { return r.phase }
func (r *recorder) Name() string        { return r.name }
func (r *recorder) Update(time.Duration) {
	*r.log = append(*r.log, r.name)
}

func TestRunnerOrdersByPhaseThenRegistration(t *testing.T) {
	var log []string
	r := system.NewRunner()
	r.Register(&recorder{name: "cleanup", phase: system.PhaseCleanup, log: &log})
	r.Register(&recorder{name: "motion", phase: system.PhaseUpdate, log: &log})
	r.Register(&recorder{name: "events", phase: system.PhasePreUpdate, log: &log})
	r.Register(&recorder{name: "laps", phase: system.PhaseUpdate, log: &log})

	r.Tick(time.Second)
	assert.Equal(t, []string{"events", "motion", "laps", "cleanup"}, log)
	assert.Equal(t, int64(1), r.Ticks())
}

func TestRunnerTickPhase(t *testing.T) {
	var log []string
	r := system.NewRunner()
	r.Register(&recorder{name: "events", phase: system.PhasePreUpdate, log: &log})
	r.Register(&recorder{name: "motion", phase: system.PhaseUpdate, log: &log})

	r.TickPhase(system.PhaseUpdate, time.Second)
	assert.Equal(t, []string{"motion"}, log)
	assert.Equal(t, int64(0), r.Ticks())
}

func TestRunnerStats(t *testing.T) {
	var log []string
	r := system.NewRunner()
	r.Register(&recorder{name: "motion", phase: system.PhaseUpdate, log: &log})
	r.Tick(time.Millisecond)
	r.Tick(time.Millisecond)

	stats := r.Stats()
	require.Len(t, stats, 1)
	assert.Equal(t, "motion", stats[0].Name)
	assert.Equal(t, int64(2), stats[0].Ticks)
	assert.GreaterOrEqual(t, stats[0].Max, stats[0].Last)
}
