package world

import (
	"errors"
	"fmt"
	"sort"

	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"

	"github.com/raftrail/railsim/internal/action"
	"github.com/raftrail/railsim/internal/component"
	"github.com/raftrail/railsim/internal/core/ecs"
	"github.com/raftrail/railsim/internal/data"
	"github.com/raftrail/railsim/internal/rail"
)

var (
	ErrPrototypeNotFound = errors.New("prototype not found")
	ErrPrototypeCycle    = errors.New("prototype chain too deep")
)

const maxPrototypeDepth = 16

// DenizenLoader attaches and exports rail denizen state.
type DenizenLoader interface {
	AddFromDef(id ecs.EntityID, def *data.RailDenizenDef) error
	Export(id ecs.EntityID) (*data.RailDenizenDef, bool)
}

// EntityFactory builds entities from definitions. Definitions in libraries
// stay loaded for the life of the factory; entity files are dropped once
// their entities exist.
type EntityFactory struct {
	state    *State
	denizens DenizenLoader
	log      *zap.Logger

	libraries  []*data.EntityList
	prototypes map[string]*data.EntityDef
	kept       map[*action.Def]struct{}
}

func NewEntityFactory(state *State, log *zap.Logger) *EntityFactory {
	return &EntityFactory{
		state:      state,
		log:        log,
		prototypes: make(map[string]*data.EntityDef),
		kept:       make(map[*action.Def]struct{}),
	}
}

// SetDenizenLoader installs the handler for rail_denizen definitions.
func (f *EntityFactory) SetDenizenLoader(l DenizenLoader) { f.denizens = l }

// AddEntityLibrary loads a prototype library from a YAML file.
func (f *EntityFactory) AddEntityLibrary(path string) error {
	l, err := data.LoadEntityList(path)
	if err != nil {
		return err
	}
	f.AddLibrary(l)
	f.log.Info("entity library loaded",
		zap.String("file", path),
		zap.Int("prototypes", len(l.Prototypes)+len(l.Entities)),
	)
	return nil
}

// AddLibrary keeps l for the life of the factory. Both its prototypes and
// its entities become prototypes, addressed by name.
func (f *EntityFactory) AddLibrary(l *data.EntityList) {
	f.libraries = append(f.libraries, l)
	for _, defs := range [][]data.EntityDef{l.Prototypes, l.Entities} {
		for i := range defs {
			def := &defs[i]
			if def.Name != "" {
				f.prototypes[def.Name] = def
			}
			if def.RailDenizen != nil && def.RailDenizen.OnNewLap != nil {
				f.keep(def.RailDenizen.OnNewLap)
			}
		}
	}
}

func (f *EntityFactory) keep(def *action.Def) {
	f.kept[def] = struct{}{}
	for i := range def.Actions {
		f.keep(&def.Actions[i])
	}
}

// WillBeKeptInMemory reports whether def lives in a library and so outlives
// every entity.
func (f *EntityFactory) WillBeKeptInMemory(def *action.Def) bool {
	_, ok := f.kept[def]
	return ok
}

// LoadEntitiesFromFile creates every entity listed in a YAML file.
func (f *EntityFactory) LoadEntitiesFromFile(path string) ([]ecs.EntityID, error) {
	l, err := data.LoadEntityList(path)
	if err != nil {
		return nil, err
	}
	ids, err := f.CreateEntities(l)
	if err != nil {
		return ids, fmt.Errorf("load entities %s: %w", path, err)
	}
	f.log.Info("entities loaded", zap.String("file", path), zap.Int("count", len(ids)))
	return ids, nil
}

// CreateEntities creates the entities of l. Prototypes declared in l are
// visible only to entities of l. Creation stops at the first failure.
func (f *EntityFactory) CreateEntities(l *data.EntityList) ([]ecs.EntityID, error) {
	local := make(map[string]*data.EntityDef, len(l.Prototypes))
	for i := range l.Prototypes {
		local[l.Prototypes[i].Name] = &l.Prototypes[i]
	}
	ids := make([]ecs.EntityID, 0, len(l.Entities))
	for i := range l.Entities {
		id, err := f.createEntity(&l.Entities[i], local)
		if err != nil {
			return ids, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// CreateEntity creates one entity from def.
func (f *EntityFactory) CreateEntity(def *data.EntityDef) (ecs.EntityID, error) {
	return f.createEntity(def, nil)
}

func (f *EntityFactory) createEntity(def *data.EntityDef, local map[string]*data.EntityDef) (ecs.EntityID, error) {
	id := f.state.CreateEntity(def.Name)
	if m, ok := f.state.Metas.Get(id); ok {
		m.Prototype = def.Prototype
	}
	if err := f.loadComponents(id, def, local, 0); err != nil {
		f.state.DestroyNow(id)
		return 0, fmt.Errorf("entity %q: %w", def.Name, err)
	}
	return id, nil
}

// loadComponents applies the prototype chain base first, so later
// definitions override earlier ones component by component.
func (f *EntityFactory) loadComponents(id ecs.EntityID, def *data.EntityDef, local map[string]*data.EntityDef, depth int) error {
	if def.Prototype != "" {
		if depth >= maxPrototypeDepth {
			return fmt.Errorf("%w: %q", ErrPrototypeCycle, def.Prototype)
		}
		proto, ok := local[def.Prototype]
		if !ok {
			proto, ok = f.prototypes[def.Prototype]
		}
		if !ok {
			return fmt.Errorf("%w: %q", ErrPrototypeNotFound, def.Prototype)
		}
		if err := f.loadComponents(id, proto, local, depth+1); err != nil {
			return err
		}
	}

	if t := def.Transform; t != nil {
		tr := f.state.Transforms.Ensure(id, component.NewTransform)
		tr.Position = mgl64.Vec3(t.Position)
		if t.Scale != nil {
			tr.Scale = mgl64.Vec3(*t.Scale)
		}
		if t.Orientation != nil {
			e := mgl64.Vec3(*t.Orientation)
			tr.Orientation = mgl64.AnglesToQuat(e[0], e[1], e[2], mgl64.XYZ)
			if m, ok := f.state.Metas.Get(id); ok {
				m.Euler = &e
			}
		}
	}
	if n := def.RailNode; n != nil {
		f.state.Nodes.Set(id, &component.RailNode{RailName: rail.Key(n.RailName), Ordinal: n.Ordinal})
	}
	if d := def.RailDenizen; d != nil {
		if f.denizens == nil {
			return errors.New("rail_denizen: no loader installed")
		}
		if err := f.denizens.AddFromDef(id, d); err != nil {
			return fmt.Errorf("rail_denizen: %w", err)
		}
	}
	return nil
}

// ExportEntity writes the entity's current state back into a definition.
func (f *EntityFactory) ExportEntity(id ecs.EntityID) (data.EntityDef, bool) {
	m, ok := f.state.Metas.Get(id)
	if !ok || !f.state.Alive(id) {
		return data.EntityDef{}, false
	}
	def := data.EntityDef{Name: m.Name, Prototype: m.Prototype}
	if t, ok := f.state.Transforms.Get(id); ok {
		td := &data.TransformDef{Position: data.Vec3(t.Position)}
		if t.Scale != (mgl64.Vec3{1, 1, 1}) {
			s := data.Vec3(t.Scale)
			td.Scale = &s
		}
		if m.Euler != nil {
			e := data.Vec3(*m.Euler)
			td.Orientation = &e
		}
		def.Transform = td
	}
	if n, ok := f.state.Nodes.Get(id); ok {
		def.RailNode = &data.RailNodeRef{RailName: n.RailName, Ordinal: n.Ordinal}
	}
	if f.denizens != nil {
		if d, ok := f.denizens.Export(id); ok {
			def.RailDenizen = d
		}
	}
	return def, true
}

// ExportAll exports every live entity in creation order.
func (f *EntityFactory) ExportAll() *data.EntityList {
	ids := f.state.Metas.IDs()
	sort.Slice(ids, func(i, j int) bool { return ids[i].Index() < ids[j].Index() })
	l := &data.EntityList{}
	for _, id := range ids {
		if def, ok := f.ExportEntity(id); ok {
			l.Entities = append(l.Entities, def)
		}
	}
	return l
}
