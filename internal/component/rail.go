package component

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/raftrail/railsim/internal/action"
	"github.com/raftrail/railsim/internal/motive"
)

// RailDenizen moves its entity along a named rail.
type RailDenizen struct {
	RailName string
	// Motivator is nil while the entity is not bound to a rail.
	Motivator *motive.Motivator

	StartTime          float64
	SplinePlaybackRate float64

	RailOffset      mgl64.Vec3
	RailOrientation mgl64.Quat
	RailEuler       mgl64.Vec3 // authored angles behind RailOrientation
	RailScale       mgl64.Vec3

	UpdateOrientation    bool
	InheritTransformData bool

	// Lap: integer part counts completed loops, fraction is progress.
	Lap      float64
	OnNewLap action.Ref
	Enabled  bool
}

// Bound reports whether the denizen has a motivator to drive it.
func (d *RailDenizen) Bound() bool {
	return d.Motivator != nil && d.Motivator.Valid()
}

// RailNode marks an entity as a control point of a rail assembled in the
// world. Its position is the entity's Transform.
type RailNode struct {
	RailName string
	Ordinal  int
}

// Meta carries authoring data needed to export an entity.
type Meta struct {
	Name      string
	Prototype string
	// Euler is the authored transform orientation, nil when none was given.
	Euler *mgl64.Vec3
}
