package event_test

import (
	"testing"

	"github.com/raftrail/railsim/internal/core/ecs"
	"github.com/raftrail/railsim/internal/core/event"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBusDeliversNextTick(t *testing.T) {
	bus := event.NewBus()
	var got []event.ChangeRailSpeed
	event.Subscribe(bus, func(ev event.ChangeRailSpeed) { got = append(got, ev) })

	bus.Emit(event.ChangeRailSpeed{Entity: ecs.NewEntityID(1, 1), Op: event.OpAdd, Value: 2})
	bus.DispatchAll()
	assert.Empty(t, got, "emitted events are not visible before the swap")

	bus.SwapBuffers()
	bus.DispatchAll()
	require.Len(t, got, 1)
	assert.Equal(t, 2.0, got[0].Value)

	bus.SwapBuffers()
	bus.DispatchAll()
	assert.Len(t, got, 1, "events are delivered once")
}

func TestBusRoutesByKind(t *testing.T) {
	bus := event.NewBus()
	var kinds []event.Kind
	record := func(p event.Payload) { kinds = append(kinds, p.Kind()) }
	bus.Listen(event.KindEditor, record)

	bus.Emit(event.ChangeRailSpeed{})
	bus.Emit(event.EditorEvent{Action: event.EditorEntityUpdated})
	bus.SwapBuffers()
	bus.DispatchAll()

	assert.Equal(t, []event.Kind{event.KindEditor}, kinds)
}

func TestBusHandlerEmitsDeferToNextTick(t *testing.T) {
	bus := event.NewBus()
	calls := 0
	bus.Listen(event.KindChangeRailSpeed, func(p event.Payload) {
		calls++
		bus.Emit(p)
	})

	bus.Emit(event.ChangeRailSpeed{})
	bus.SwapBuffers()
	bus.DispatchAll()
	assert.Equal(t, 1, calls)
	assert.Equal(t, 1, bus.Pending())
}

func TestOperationApply(t *testing.T) {
	tests := []struct {
		op   event.Operation
		want float64
	}{
		{event.OpSet, 3},
		{event.OpAdd, 5},
		{event.OpMultiply, 6},
	}
	for _, tt := range tests {
		t.Run(tt.op.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.op.Apply(2, 3))
		})
	}
}

func TestParseOperation(t *testing.T) {
	op, err := event.ParseOperation("Multiply")
	require.NoError(t, err)
	assert.Equal(t, event.OpMultiply, op)

	_, err = event.ParseOperation("divide")
	assert.Error(t, err)
}
