package system

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/raftrail/railsim/internal/persist"
)

type staticSource []persist.DenizenSnapshot

func (s staticSource) Snapshots() []persist.DenizenSnapshot { return s }

type fakeSaver struct {
	batches [][]persist.DenizenSnapshot
	err     error
	hadDL   bool
}

func (f *fakeSaver) SaveSnapshots(ctx context.Context, snaps []persist.DenizenSnapshot) error {
	_, f.hadDL = ctx.Deadline()
	if f.err != nil {
		return f.err
	}
	f.batches = append(f.batches, snaps)
	return nil
}

func TestPersistenceSavesEveryInterval(t *testing.T) {
	src := staticSource{{Name: "boat", RailName: "square", Lap: 2.5}}
	saver := &fakeSaver{}
	sys := NewPersistenceSystem(src, saver, zap.NewNop(), 3)

	for i := 0; i < 7; i++ {
		sys.Update(0)
	}
	require.Len(t, saver.batches, 2)
	assert.Equal(t, []persist.DenizenSnapshot(src), saver.batches[0])
	assert.True(t, saver.hadDL, "saves run under a deadline")
	assert.Equal(t, 2, sys.Saves())
}

func TestPersistenceDisabledInterval(t *testing.T) {
	saver := &fakeSaver{}
	sys := NewPersistenceSystem(staticSource{{Name: "boat"}}, saver, zap.NewNop(), 0)
	for i := 0; i < 10; i++ {
		sys.Update(0)
	}
	assert.Empty(t, saver.batches)

	sys.SaveAll()
	assert.Len(t, saver.batches, 1)
}

func TestPersistenceSkipsEmptyAndLogsFailures(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	saver := &fakeSaver{}

	NewPersistenceSystem(staticSource{}, saver, zap.New(core), 1).Update(0)
	assert.Empty(t, saver.batches)

	saver.err = errors.New("connection refused")
	sys := NewPersistenceSystem(staticSource{{Name: "boat"}}, saver, zap.New(core), 1)
	sys.Update(0)
	assert.Equal(t, 0, sys.Saves())
	assert.Equal(t, 1, logs.FilterMessage("snapshot save failed").Len())
}
