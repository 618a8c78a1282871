package action

import (
	"errors"
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/raftrail/railsim/internal/core/ecs"
	"github.com/raftrail/railsim/internal/core/event"
)

// Context is handed to every action. Source is the entity that fired it,
// Owner the designated reference entity of the world (zero when none).
type Context struct {
	Source ecs.EntityID
	Owner  ecs.EntityID
	Lap    float64
}

// ScriptRunner executes script actions.
type ScriptRunner interface {
	RunAction(function, source string, ctx Context) error
}

// Dispatcher interprets action defs. Effects on simulation state are emitted
// as events, so they apply on the next tick.
type Dispatcher struct {
	bus     *event.Bus
	scripts ScriptRunner
	log     *zap.Logger

	dispatched uint64
}

func NewDispatcher(bus *event.Bus, log *zap.Logger) *Dispatcher {
	return &Dispatcher{bus: bus, log: log}
}

// SetScripts installs the script runner. Without one, script actions fail.
func (d *Dispatcher) SetScripts(s ScriptRunner) { d.scripts = s }

// Dispatched returns how many top-level actions have been dispatched.
func (d *Dispatcher) Dispatched() uint64 { return d.dispatched }

// Dispatch runs def. A failing step does not stop later steps; all errors
// are joined and returned.
func (d *Dispatcher) Dispatch(def *Def, ctx Context) error {
	if def.Empty() {
		return ErrEmptyAction
	}
	d.dispatched++
	return d.run(def, ctx)
}

func (d *Dispatcher) run(def *Def, ctx Context) error {
	var errs []error
	if c := def.ChangeRailSpeed; c != nil {
		if ctx.Source.IsZero() {
			errs = append(errs, errors.New("change_rail_speed: no source entity"))
		} else {
			d.bus.Emit(event.ChangeRailSpeed{Entity: ctx.Source, Op: c.Op, Value: c.Value})
		}
	}
	if s := def.Script; s != nil {
		switch {
		case d.scripts == nil:
			errs = append(errs, errors.New("script: no script engine"))
		case s.Function == "" && s.Source == "":
			errs = append(errs, errors.New("script: neither function nor source set"))
		default:
			if err := d.scripts.RunAction(s.Function, s.Source, ctx); err != nil {
				errs = append(errs, fmt.Errorf("script: %w", err))
			}
		}
	}
	if l := def.Log; l != nil {
		lvl := zapcore.InfoLevel
		if l.Level != "" {
			parsed, err := zapcore.ParseLevel(l.Level)
			if err != nil {
				errs = append(errs, fmt.Errorf("log: %w", err))
			} else {
				lvl = parsed
			}
		}
		// Actions may not panic or exit the process.
		if lvl > zapcore.ErrorLevel {
			lvl = zapcore.ErrorLevel
		}
		d.log.Log(lvl, l.Message,
			zap.Stringer("source", ctx.Source),
			zap.Float64("lap", ctx.Lap),
		)
	}
	for i := range def.Actions {
		if err := d.run(&def.Actions[i], ctx); err != nil {
			errs = append(errs, fmt.Errorf("actions[%d]: %w", i, err))
		}
	}
	return errors.Join(errs...)
}
