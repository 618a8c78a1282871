package world

import (
	"sort"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/raftrail/railsim/internal/component"
	"github.com/raftrail/railsim/internal/core/ecs"
	"github.com/raftrail/railsim/internal/rail"
)

// State is the simulation world. Accessed only from the tick loop goroutine,
// no locks needed.
type State struct {
	ecs *ecs.World

	Transforms *ecs.PtrComponentStore[component.Transform]
	Denizens   *ecs.PtrComponentStore[component.RailDenizen]
	Nodes      *ecs.PtrComponentStore[component.RailNode]
	Metas      *ecs.PtrComponentStore[component.Meta]

	byName    map[string]ecs.EntityID // entity name → id, latest wins
	ownerName string
}

func NewState() *State {
	w := ecs.NewWorld()
	return &State{
		ecs:        w,
		Transforms: ecs.Register[component.Transform](w),
		Denizens:   ecs.Register[component.RailDenizen](w),
		Nodes:      ecs.Register[component.RailNode](w),
		Metas:      ecs.Register[component.Meta](w),
		byName:     make(map[string]ecs.EntityID),
	}
}

// ECS exposes the underlying entity world.
func (s *State) ECS() *ecs.World { return s.ecs }

// CreateEntity allocates an entity. Named entities can be found with Lookup.
func (s *State) CreateEntity(name string) ecs.EntityID {
	id := s.ecs.CreateEntity()
	s.Metas.Set(id, &component.Meta{Name: name})
	if name != "" {
		s.byName[name] = id
	}
	return id
}

func (s *State) Alive(id ecs.EntityID) bool { return s.ecs.Alive(id) }

// Destroy queues the entity for removal at the end of the tick.
func (s *State) Destroy(id ecs.EntityID) {
	s.unname(id)
	s.ecs.MarkForDestruction(id)
}

// DestroyNow removes the entity at once. Not for use inside component
// iteration.
func (s *State) DestroyNow(id ecs.EntityID) {
	s.unname(id)
	s.ecs.DestroyNow(id)
}

func (s *State) unname(id ecs.EntityID) {
	if m, ok := s.Metas.Get(id); ok && m.Name != "" && s.byName[m.Name] == id {
		delete(s.byName, m.Name)
	}
}

// Lookup finds a live entity by name.
func (s *State) Lookup(name string) (ecs.EntityID, bool) {
	id, ok := s.byName[name]
	if !ok || !s.ecs.Alive(id) {
		return 0, false
	}
	return id, true
}

// SetOwner names the reference entity handed to actions as their owner.
func (s *State) SetOwner(name string) { s.ownerName = name }

// Owner returns the reference entity, or the zero id when it does not exist.
func (s *State) Owner() ecs.EntityID {
	if s.ownerName == "" {
		return 0
	}
	id, _ := s.Lookup(s.ownerName)
	return id
}

// EntityCount returns the number of live entities.
func (s *State) EntityCount() int { return s.ecs.Pool().Len() }

// RailNodePositions returns the positions of every rail node of the named
// rail, ordered by ordinal.
func (s *State) RailNodePositions(name string) []mgl64.Vec3 {
	type node struct {
		ordinal int
		id      ecs.EntityID
		pos     mgl64.Vec3
	}
	var nodes []node
	key := rail.Key(name)
	ecs.Each2(s.Nodes, s.Transforms, func(id ecs.EntityID, n *component.RailNode, t *component.Transform) {
		if rail.Key(n.RailName) == key {
			nodes = append(nodes, node{ordinal: n.Ordinal, id: id, pos: t.Position})
		}
	})
	sort.Slice(nodes, func(i, j int) bool {
		if nodes[i].ordinal != nodes[j].ordinal {
			return nodes[i].ordinal < nodes[j].ordinal
		}
		return nodes[i].id.Index() < nodes[j].id.Index()
	})
	out := make([]mgl64.Vec3, len(nodes))
	for i, n := range nodes {
		out[i] = n.pos
	}
	return out
}

// RailNameOf resolves a rail-node entity to the rail it defines.
func (s *State) RailNameOf(id ecs.EntityID) (string, bool) {
	n, ok := s.Nodes.Get(id)
	if !ok {
		return "", false
	}
	return n.RailName, true
}
