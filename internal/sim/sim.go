// Package sim assembles the simulation from its configuration: rails,
// world, event bus, action dispatch, scripting, entities and systems.
package sim

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/raftrail/railsim/internal/action"
	"github.com/raftrail/railsim/internal/config"
	"github.com/raftrail/railsim/internal/core/event"
	coresys "github.com/raftrail/railsim/internal/core/system"
	"github.com/raftrail/railsim/internal/data"
	"github.com/raftrail/railsim/internal/rail"
	"github.com/raftrail/railsim/internal/scripting"
	"github.com/raftrail/railsim/internal/system"
	"github.com/raftrail/railsim/internal/world"
)

// Sim is a loaded, runnable simulation. It is driven from a single
// goroutine by calling Runner.Tick.
type Sim struct {
	Rails      *rail.Manager
	State      *world.State
	Bus        *event.Bus
	Dispatcher *action.Dispatcher
	Scripts    *scripting.Engine
	Denizens   *system.RailDenizenSystem
	Factory    *world.EntityFactory
	Runner     *coresys.Runner

	log *zap.Logger
}

// New loads everything cfg names. Systems are registered for the
// PreUpdate, Update and Cleanup phases; callers add their own.
func New(cfg *config.Config, log *zap.Logger) (*Sim, error) {
	s := &Sim{
		Rails: rail.NewManager(log),
		State: world.NewState(),
		Bus:   event.NewBus(),
		log:   log,
	}
	s.Rails.SetNodeSpeed(cfg.Simulation.NodeRailSpeed)
	for _, path := range cfg.Data.Rails {
		defs, err := data.LoadRailDefs(path)
		if err != nil {
			return nil, fmt.Errorf("load rails: %w", err)
		}
		if err := s.Rails.LoadDefs(defs); err != nil {
			return nil, err
		}
	}

	s.State.SetOwner(cfg.Simulation.Owner)
	s.Dispatcher = action.NewDispatcher(s.Bus, log)
	engine, err := scripting.NewEngine(cfg.Data.ScriptsDir, s.Bus, log)
	if err != nil {
		return nil, fmt.Errorf("scripting: %w", err)
	}
	s.Scripts = engine
	s.Dispatcher.SetScripts(engine)

	s.Denizens = system.NewRailDenizenSystem(s.State, s.Rails, s.Dispatcher, log)
	s.Denizens.Subscribe(s.Bus)
	s.Factory = world.NewEntityFactory(s.State, log)
	s.Factory.SetDenizenLoader(s.Denizens)
	s.Denizens.SetKeepChecker(s.Factory)

	for _, path := range cfg.Data.Libraries {
		if err := s.Factory.AddEntityLibrary(path); err != nil {
			engine.Close()
			return nil, fmt.Errorf("load library: %w", err)
		}
	}
	for _, path := range cfg.Data.Entities {
		if _, err := s.Factory.LoadEntitiesFromFile(path); err != nil {
			engine.Close()
			return nil, err
		}
	}

	s.Runner = coresys.NewRunner()
	s.Runner.Register(system.NewEventDispatchSystem(s.Bus))
	s.Runner.Register(s.Denizens)
	s.Runner.Register(system.NewCleanupSystem(s.State.ECS(), log, s.Denizens))
	return s, nil
}

// Export writes every live entity to path.
func (s *Sim) Export(path string) error {
	return data.WriteEntityList(path, s.Factory.ExportAll())
}

// Close releases the scripting VM.
func (s *Sim) Close() {
	s.Scripts.Close()
}
