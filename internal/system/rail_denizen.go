package system

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/kamstrup/intmap"
	"go.uber.org/zap"

	"github.com/raftrail/railsim/internal/action"
	"github.com/raftrail/railsim/internal/component"
	"github.com/raftrail/railsim/internal/core/ecs"
	"github.com/raftrail/railsim/internal/core/event"
	coresys "github.com/raftrail/railsim/internal/core/system"
	"github.com/raftrail/railsim/internal/data"
	"github.com/raftrail/railsim/internal/motive"
	"github.com/raftrail/railsim/internal/persist"
	"github.com/raftrail/railsim/internal/rail"
	"github.com/raftrail/railsim/internal/world"
)

var ErrNoRailName = errors.New("rail denizen has no rail name")

// Up is the axis a denizen's orientation points along its direction of
// travel.
var Up = mgl64.Vec3{0, 1, 0}

// ActionDispatcher runs on-new-lap actions.
type ActionDispatcher interface {
	Dispatch(def *action.Def, ctx action.Context) error
}

// KeepChecker tells whether an action def outlives the entities built from
// it. Defs that do are borrowed, all others are copied.
type KeepChecker interface {
	WillBeKeptInMemory(def *action.Def) bool
}

// RailDenizenSystem moves rail denizens along their rails, counts their laps
// and fires their on-new-lap actions. Phase 1 (Update).
type RailDenizenSystem struct {
	state   *world.State
	rails   *rail.Manager
	actions ActionDispatcher
	keep    KeepChecker
	log     *zap.Logger

	warned *intmap.Set[ecs.EntityID] // enabled but unbound, already reported
	laps   uint64
}

func NewRailDenizenSystem(ws *world.State, rails *rail.Manager, actions ActionDispatcher, log *zap.Logger) *RailDenizenSystem {
	return &RailDenizenSystem{
		state:   ws,
		rails:   rails,
		actions: actions,
		log:     log,
		warned:  intmap.NewSet[ecs.EntityID](16),
	}
}

// SetKeepChecker installs the lifetime check used when loading on_new_lap.
// Without one every action is copied.
func (s *RailDenizenSystem) SetKeepChecker(k KeepChecker) { s.keep = k }

// Subscribe registers the system for the events it handles.
func (s *RailDenizenSystem) Subscribe(bus *event.Bus) {
	bus.Listen(event.KindChangeRailSpeed, s.OnEvent)
	bus.Listen(event.KindEditor, s.OnEvent)
}

func (s *RailDenizenSystem) Phase() coresys.Phase { return coresys.PhaseUpdate }

func (s *RailDenizenSystem) Update(dt time.Duration) {
	s.Advance(dt.Seconds())
}

// Laps returns the number of laps completed by all denizens so far.
func (s *RailDenizenSystem) Laps() uint64 { return s.laps }

// Advance moves every enabled denizen by dt seconds of wall time.
func (s *RailDenizenSystem) Advance(dt float64) {
	s.state.Denizens.Each(func(id ecs.EntityID, d *component.RailDenizen) {
		if !d.Enabled {
			return
		}
		if !d.Bound() {
			if !s.warned.Has(id) {
				s.warned.Add(id)
				s.log.Warn("enabled rail denizen is not bound to a rail",
					zap.Stringer("entity", id),
					zap.String("rail", d.RailName),
				)
			}
			return
		}
		s.updateEntity(id, d, dt)
	})
}

func (s *RailDenizenSystem) updateEntity(id ecs.EntityID, d *component.RailDenizen, dt float64) {
	m := d.Motivator
	m.Advance(dt)

	t := s.state.Transforms.Ensure(id, component.NewTransform)
	t.Position = WorldPosition(d, m.Value())
	if d.UpdateOrientation {
		if v := m.Velocity(); v.LenSqr() > 0 {
			q := mgl64.QuatBetweenVectors(Up, v)
			if d.InheritTransformData {
				q = d.RailOrientation.Mul(q)
			}
			t.Orientation = q
		}
	}

	if !m.Advanced() {
		return
	}
	lap, completed, ok := DetectLap(d.Lap, m.SplineTime(), m.TargetTime())
	if !ok {
		return
	}
	d.Lap = lap
	if !completed {
		return
	}
	s.laps++
	if !d.OnNewLap.IsSet() {
		return
	}
	ctx := action.Context{Source: id, Owner: s.state.Owner(), Lap: d.Lap}
	if err := s.actions.Dispatch(d.OnNewLap.Def(), ctx); err != nil {
		s.log.Error("on_new_lap action failed",
			zap.Stringer("entity", id),
			zap.Float64("lap", d.Lap),
			zap.Error(err),
		)
	}
}

// WorldPosition places a rail-local point: undo the rail orientation, scale,
// then offset.
func WorldPosition(d *component.RailDenizen, local mgl64.Vec3) mgl64.Vec3 {
	p := d.RailOrientation.Inverse().Rotate(local)
	return mgl64.Vec3{
		p[0]*d.RailScale[0] + d.RailOffset[0],
		p[1]*d.RailScale[1] + d.RailOffset[1],
		p[2]*d.RailScale[2] + d.RailOffset[2],
	}
}

// AddFromDef attaches a rail denizen built from def and binds it to its
// rail. A binding failure is logged and leaves the denizen unbound; it is
// not returned as an error.
func (s *RailDenizenSystem) AddFromDef(id ecs.EntityID, def *data.RailDenizenDef) error {
	if !s.state.Alive(id) {
		return fmt.Errorf("entity %s is not alive", id)
	}
	d := &component.RailDenizen{
		StartTime:            def.StartTime,
		SplinePlaybackRate:   def.PlaybackRate(),
		RailOrientation:      mgl64.QuatIdent(),
		RailScale:            mgl64.Vec3{1, 1, 1},
		UpdateOrientation:    def.UpdateOrientation,
		InheritTransformData: def.InheritTransformData,
		Enabled:              def.IsEnabled(),
	}
	if def.RailName != nil {
		d.RailName = rail.Key(*def.RailName)
	}
	if def.RailOffset != nil {
		d.RailOffset = mgl64.Vec3(*def.RailOffset)
	}
	if def.RailOrientation != nil {
		d.RailEuler = mgl64.Vec3(*def.RailOrientation)
		d.RailOrientation = mgl64.AnglesToQuat(d.RailEuler[0], d.RailEuler[1], d.RailEuler[2], mgl64.XYZ)
	}
	if def.RailScale != nil {
		d.RailScale = mgl64.Vec3(*def.RailScale)
	}
	if def.OnNewLap != nil {
		if s.keep != nil && s.keep.WillBeKeptInMemory(def.OnNewLap) {
			d.OnNewLap = action.Borrow(def.OnNewLap)
		} else {
			d.OnNewLap = action.Own(def.OnNewLap)
		}
	}
	s.state.Denizens.Set(id, d)
	s.InitEntity(id)

	if err := s.InitializeRail(id); err != nil {
		s.log.Error("rail denizen left unbound",
			zap.Stringer("entity", id),
			zap.String("rail", d.RailName),
			zap.Error(err),
		)
	}
	return nil
}

// InitEntity gives the denizen's entity a Transform to drive.
func (s *RailDenizenSystem) InitEntity(id ecs.EntityID) {
	s.state.Transforms.Ensure(id, component.NewTransform)
}

// InitializeRail (re)binds the denizen to its rail, restarting playback at
// its start time with its playback rate. Any previous motivator state is
// dropped. On failure the denizen is left unbound.
func (s *RailDenizenSystem) InitializeRail(id ecs.EntityID) error {
	d, ok := s.state.Denizens.Get(id)
	if !ok {
		return fmt.Errorf("entity %s has no rail denizen", id)
	}
	if d.RailName == "" {
		d.Motivator = nil
		return ErrNoRailName
	}
	r, err := s.rails.GetRailFromComponents(d.RailName, s.state)
	if err != nil {
		d.Motivator = nil
		return fmt.Errorf("bind %s: %w", id, err)
	}

	m := &motive.Motivator{}
	m.SetSpline(motive.Playback{
		Splines:   r.Splines(),
		StartTime: d.StartTime,
		Repeat:    true,
		Rate:      d.SplinePlaybackRate,
	})
	// Applied again after binding; the rate after bind must equal the
	// configured rate whatever SetSpline does with it.
	m.SetSplinePlaybackRate(d.SplinePlaybackRate)
	d.Motivator = m

	// Keep completed laps but restart the fraction at the new start, so a
	// rebind never counts as a lap.
	if lap, _, ok := DetectLap(0, m.SplineTime(), m.TargetTime()); ok {
		d.Lap = math.Floor(d.Lap) + lap
	}
	s.warned.Del(id)
	return nil
}

// OnEvent handles the two event kinds the system subscribes to.
func (s *RailDenizenSystem) OnEvent(p event.Payload) {
	switch ev := p.(type) {
	case event.ChangeRailSpeed:
		d, ok := s.state.Denizens.Get(ev.Entity)
		if !ok {
			return
		}
		d.SplinePlaybackRate = ev.Op.Apply(d.SplinePlaybackRate, ev.Value)
		if d.Motivator != nil {
			d.Motivator.SetSplinePlaybackRate(d.SplinePlaybackRate)
		}
	case event.EditorEvent:
		if ev.Action != event.EditorEntityUpdated || ev.Entity.IsZero() {
			return
		}
		name, ok := s.state.RailNameOf(ev.Entity)
		if !ok {
			return
		}
		s.rails.Invalidate(name)
		s.rebindAll(name)
	default:
		s.log.DPanic("rail denizen system received unexpected event",
			zap.Stringer("kind", p.Kind()),
		)
	}
}

func (s *RailDenizenSystem) rebindAll(name string) {
	for _, id := range s.state.Denizens.IDs() {
		d, _ := s.state.Denizens.Get(id)
		if d.RailName != rail.Key(name) {
			continue
		}
		if err := s.InitializeRail(id); err != nil {
			s.log.Error("rail rebind failed",
				zap.Stringer("entity", id),
				zap.String("rail", name),
				zap.Error(err),
			)
		}
	}
}

// SetEnabled freezes or resumes a denizen. It returns false when the entity
// has no rail denizen.
func (s *RailDenizenSystem) SetEnabled(id ecs.EntityID, enabled bool) bool {
	d, ok := s.state.Denizens.Get(id)
	if !ok {
		return false
	}
	d.Enabled = enabled
	return true
}

// Export writes the denizen back into its authored form. The playback rate
// exported is the current one.
func (s *RailDenizenSystem) Export(id ecs.EntityID) (*data.RailDenizenDef, bool) {
	d, ok := s.state.Denizens.Get(id)
	if !ok {
		return nil, false
	}
	rate := d.SplinePlaybackRate
	enabled := d.Enabled
	offset := data.Vec3(d.RailOffset)
	euler := data.Vec3(d.RailEuler)
	scale := data.Vec3(d.RailScale)
	def := &data.RailDenizenDef{
		StartTime:            d.StartTime,
		InitialPlaybackRate:  &rate,
		RailOffset:           &offset,
		RailOrientation:      &euler,
		RailScale:            &scale,
		UpdateOrientation:    d.UpdateOrientation,
		InheritTransformData: d.InheritTransformData,
		Enabled:              &enabled,
		OnNewLap:             d.OnNewLap.Def().Clone(),
	}
	if d.RailName != "" {
		name := d.RailName
		def.RailName = &name
	}
	return def, true
}

// Snapshots captures every named denizen.
func (s *RailDenizenSystem) Snapshots() []persist.DenizenSnapshot {
	var out []persist.DenizenSnapshot
	s.state.Denizens.Each(func(id ecs.EntityID, d *component.RailDenizen) {
		m, ok := s.state.Metas.Get(id)
		if !ok || m.Name == "" {
			return
		}
		snap := persist.DenizenSnapshot{
			Name:     m.Name,
			RailName: d.RailName,
			Lap:      d.Lap,
			Rate:     d.SplinePlaybackRate,
			Enabled:  d.Enabled,
		}
		if d.Motivator != nil {
			snap.CursorTime = d.Motivator.CursorTime()
		}
		out = append(out, snap)
	})
	return out
}

// Restore applies a snapshot to the named denizen. Snapshots for another
// rail are ignored, the geometry they were taken on is gone.
func (s *RailDenizenSystem) Restore(snap persist.DenizenSnapshot) bool {
	id, ok := s.state.Lookup(snap.Name)
	if !ok {
		return false
	}
	d, ok := s.state.Denizens.Get(id)
	if !ok || d.RailName != rail.Key(snap.RailName) {
		return false
	}
	d.Lap = snap.Lap
	d.SplinePlaybackRate = snap.Rate
	d.Enabled = snap.Enabled
	if d.Motivator != nil {
		d.Motivator.SetSplinePlaybackRate(snap.Rate)
		d.Motivator.SetSplineTime(snap.CursorTime)
	}
	return true
}

// Forget drops the unbound warning state of a destroyed entity.
func (s *RailDenizenSystem) Forget(id ecs.EntityID) {
	s.warned.Del(id)
}
