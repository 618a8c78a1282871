package system

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/raftrail/railsim/internal/core/ecs"
	"github.com/raftrail/railsim/internal/data"
)

type forgetLog []ecs.EntityID

func (f *forgetLog) Forget(id ecs.EntityID) { *f = append(*f, id) }

func TestCleanupForgetsDestroyedEntities(t *testing.T) {
	f := newFixture(t)
	stray := f.spawn(t, "stray", data.RailDenizenDef{RailName: ptr("nowhere")})
	keep := f.spawn(t, "boat", data.RailDenizenDef{RailName: ptr("square")})

	var forgotten forgetLog
	cleanup := NewCleanupSystem(f.state.ECS(), zap.NewNop(), f.sys, &forgotten)

	f.sys.Advance(tick)
	f.state.Destroy(stray)
	cleanup.Update(0)

	assert.Equal(t, forgetLog{stray}, forgotten)
	assert.Equal(t, uint64(1), cleanup.Destroyed())
	assert.False(t, f.state.Alive(stray))
	assert.False(t, f.state.Denizens.Has(stray))
	assert.True(t, f.state.Denizens.Has(keep))

	_, named := f.state.Lookup("stray")
	assert.False(t, named)

	cleanup.Update(0)
	assert.Len(t, forgotten, 1, "nothing queued")
}
