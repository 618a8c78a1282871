package action

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"gopkg.in/yaml.v3"

	"github.com/raftrail/railsim/internal/core/ecs"
	"github.com/raftrail/railsim/internal/core/event"
)

type recordingScripts struct {
	calls []string
	ctxs  []Context
	err   error
}

func (r *recordingScripts) RunAction(function, source string, ctx Context) error {
	r.calls = append(r.calls, function+source)
	r.ctxs = append(r.ctxs, ctx)
	return r.err
}

const lapYAML = `
change_rail_speed: {op: multiply, value: 1.5}
actions:
  - log: {message: lap done, level: warn}
  - script: {function: on_lap}
`

func TestDefYAML(t *testing.T) {
	var def Def
	require.NoError(t, yaml.Unmarshal([]byte(lapYAML), &def))

	require.NotNil(t, def.ChangeRailSpeed)
	assert.Equal(t, event.OpMultiply, def.ChangeRailSpeed.Op)
	assert.Equal(t, 1.5, def.ChangeRailSpeed.Value)
	require.Len(t, def.Actions, 2)
	assert.Equal(t, "lap done", def.Actions[0].Log.Message)
	assert.Equal(t, "on_lap", def.Actions[1].Script.Function)

	out, err := yaml.Marshal(&def)
	require.NoError(t, err)
	assert.Contains(t, string(out), "op: multiply")
}

func TestDefRejectsUnknownOperation(t *testing.T) {
	var def Def
	err := yaml.Unmarshal([]byte("change_rail_speed: {op: divide, value: 2}"), &def)
	assert.Error(t, err)
}

func TestRefOwnership(t *testing.T) {
	lib := &Def{Log: &LogDef{Message: "hi"}, Actions: []Def{{Script: &ScriptDef{Function: "f"}}}}

	var none Ref
	assert.Equal(t, None, none.Ownership())
	assert.False(t, none.IsSet())
	assert.Nil(t, none.Def())
	assert.False(t, Own(nil).IsSet())

	b := Borrow(lib)
	assert.Equal(t, Borrowed, b.Ownership())
	assert.Same(t, lib, b.Def())

	o := Own(lib)
	assert.Equal(t, Owned, o.Ownership())
	assert.NotSame(t, lib, o.Def())
	assert.Equal(t, lib, o.Def())

	lib.Log.Message = "changed"
	lib.Actions[0].Script.Function = "g"
	assert.Equal(t, "hi", o.Def().Log.Message)
	assert.Equal(t, "f", o.Def().Actions[0].Script.Function)
	assert.Equal(t, "changed", b.Def().Log.Message)
}

func TestDispatchChangeRailSpeedTargetsSource(t *testing.T) {
	bus := event.NewBus()
	d := NewDispatcher(bus, zap.NewNop())
	src := ecs.NewEntityID(3, 1)

	var got []event.ChangeRailSpeed
	event.Subscribe(bus, func(ev event.ChangeRailSpeed) { got = append(got, ev) })

	def := &Def{ChangeRailSpeed: &ChangeRailSpeedDef{Op: event.OpAdd, Value: 2}}
	require.NoError(t, d.Dispatch(def, Context{Source: src}))
	assert.Empty(t, got, "delivered next tick")
	assert.Equal(t, 1, bus.Pending())

	bus.SwapBuffers()
	bus.DispatchAll()
	require.Len(t, got, 1)
	assert.Equal(t, event.ChangeRailSpeed{Entity: src, Op: event.OpAdd, Value: 2}, got[0])
	assert.Equal(t, uint64(1), d.Dispatched())
}

func TestDispatchRunsEveryStep(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	bus := event.NewBus()
	d := NewDispatcher(bus, zap.New(core))
	scripts := &recordingScripts{}
	d.SetScripts(scripts)

	var def Def
	require.NoError(t, yaml.Unmarshal([]byte(lapYAML), &def))
	ctx := Context{Source: ecs.NewEntityID(1, 1), Owner: ecs.NewEntityID(2, 1), Lap: 3}
	require.NoError(t, d.Dispatch(&def, ctx))

	assert.Equal(t, 1, bus.Pending())
	assert.Equal(t, []string{"on_lap"}, scripts.calls)
	assert.Equal(t, ctx, scripts.ctxs[0])

	entries := logs.FilterMessage("lap done").All()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.WarnLevel, entries[0].Level)
	assert.Equal(t, 3.0, entries[0].ContextMap()["lap"])
}

func TestDispatchReturnsErrors(t *testing.T) {
	bus := event.NewBus()
	d := NewDispatcher(bus, zap.NewNop())
	boom := errors.New("boom")

	err := d.Dispatch(&Def{}, Context{})
	assert.ErrorIs(t, err, ErrEmptyAction)

	err = d.Dispatch(&Def{Script: &ScriptDef{Function: "f"}}, Context{})
	assert.ErrorContains(t, err, "no script engine")

	d.SetScripts(&recordingScripts{err: boom})
	err = d.Dispatch(&Def{
		Actions: []Def{
			{Script: &ScriptDef{Function: "f"}},
			{Log: &LogDef{Message: "still runs"}},
			{ChangeRailSpeed: &ChangeRailSpeedDef{Value: 1}},
		},
	}, Context{})
	assert.ErrorIs(t, err, boom)
	assert.ErrorContains(t, err, "no source entity")
}
