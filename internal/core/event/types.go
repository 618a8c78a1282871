package event

import "github.com/raftrail/railsim/internal/core/ecs"

// Kind tags an event payload. The tag, not the Go type, selects handlers.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindChangeRailSpeed
	KindEditor
)

func (k Kind) String() string {
	switch k {
	case KindChangeRailSpeed:
		return "change_rail_speed"
	case KindEditor:
		return "editor"
	default:
		return "invalid"
	}
}

// Payload is implemented by the event structs of this package only.
type Payload interface {
	Kind() Kind
	payload()
}

// ChangeRailSpeed asks the rail denizen on Entity to apply Op with Value to
// its spline playback rate.
type ChangeRailSpeed struct {
	Entity ecs.EntityID
	Op     Operation
	Value  float64
}

func (ChangeRailSpeed) Kind() Kind { return KindChangeRailSpeed }
func (ChangeRailSpeed) payload()   {}

// EditorAction says what the world editor did to an entity.
type EditorAction uint8

const (
	EditorEntered EditorAction = iota
	EditorExited
	EditorEntityCreated
	EditorEntityUpdated
	EditorEntityDeleted
)

// EditorEvent is raised by authoring tools when they change the world.
type EditorEvent struct {
	Action EditorAction
	Entity ecs.EntityID
}

func (EditorEvent) Kind() Kind { return KindEditor }
func (EditorEvent) payload()   {}
