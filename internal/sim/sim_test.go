package sim

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/raftrail/railsim/internal/action"
	"github.com/raftrail/railsim/internal/config"
	"github.com/raftrail/railsim/internal/data"
)

// sampleConfig loads the shipped configuration with paths made relative to
// this package.
func sampleConfig(t *testing.T) *config.Config {
	t.Helper()
	root := filepath.Join("..", "..")
	cfg, err := config.Load(filepath.Join(root, "config", "railsim.toml"))
	require.NoError(t, err)
	rebase := func(paths []string) []string {
		out := make([]string, len(paths))
		for i, p := range paths {
			out[i] = filepath.Join(root, p)
		}
		return out
	}
	cfg.Data.Rails = rebase(cfg.Data.Rails)
	cfg.Data.Libraries = rebase(cfg.Data.Libraries)
	cfg.Data.Entities = rebase(cfg.Data.Entities)
	cfg.Data.ScriptsDir = filepath.Join(root, cfg.Data.ScriptsDir)
	return cfg
}

func TestSampleDataLoads(t *testing.T) {
	sm, err := New(sampleConfig(t), zap.NewNop())
	require.NoError(t, err)
	defer sm.Close()

	assert.Equal(t, []string{"ferry_line", "lake", "river"}, sm.Rails.Names())
	assert.Equal(t, 9, sm.State.EntityCount())
	assert.Equal(t, 5, sm.State.Denizens.Len())
	assert.Equal(t, 4, sm.State.Nodes.Len())

	for _, name := range []string{"raft", "duck", "racer", "ferry", "barge"} {
		id, ok := sm.State.Lookup(name)
		require.True(t, ok, name)
		d, _ := sm.State.Denizens.Get(id)
		assert.True(t, d.Bound(), name)
	}

	racer, _ := sm.State.Lookup("racer")
	d, _ := sm.State.Denizens.Get(racer)
	assert.Equal(t, action.Borrowed, d.OnNewLap.Ownership(), "library action")
	assert.Equal(t, 1.5, d.SplinePlaybackRate)

	raft, _ := sm.State.Lookup("raft")
	d, _ = sm.State.Denizens.Get(raft)
	assert.Equal(t, action.Owned, d.OnNewLap.Ownership())
	assert.Equal(t, raft, sm.State.Owner())
}

func TestSampleRunCompletesLaps(t *testing.T) {
	sm, err := New(sampleConfig(t), zap.NewNop())
	require.NoError(t, err)
	defer sm.Close()

	for i := 0; i < 2000; i++ {
		sm.Runner.Tick(50 * time.Millisecond)
	}
	assert.Greater(t, sm.Denizens.Laps(), uint64(5))
	assert.Greater(t, sm.Dispatcher.Dispatched(), uint64(0))

	raft, _ := sm.State.Lookup("raft")
	d, _ := sm.State.Denizens.Get(raft)
	assert.GreaterOrEqual(t, d.Lap, 1.0)
	assert.Contains(t, []float64{1, 1.5}, d.SplinePlaybackRate, "set by the lua lap script")

	out := filepath.Join(t.TempDir(), "export.yaml")
	require.NoError(t, sm.Export(out))
	l, err := data.LoadEntityList(out)
	require.NoError(t, err)
	assert.Len(t, l.Entities, 9)
}
