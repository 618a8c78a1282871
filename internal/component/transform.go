package component

import "github.com/go-gl/mathgl/mgl64"

// Transform is an entity's placement in world space.
type Transform struct {
	Position    mgl64.Vec3
	Scale       mgl64.Vec3
	Orientation mgl64.Quat
}

// NewTransform returns a transform at origin with unit scale and no rotation.
func NewTransform() *Transform {
	return &Transform{
		Scale:       mgl64.Vec3{1, 1, 1},
		Orientation: mgl64.QuatIdent(),
	}
}
