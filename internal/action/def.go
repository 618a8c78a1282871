// Package action holds declarative gameplay actions and the dispatcher that
// executes them.
package action

import (
	"errors"

	"github.com/raftrail/railsim/internal/core/event"
)

var ErrEmptyAction = errors.New("action has no effect")

// Def is a declarative action as authored in YAML. Every set field runs, in
// field order, followed by the nested Actions.
//
//	on_new_lap:
//	  change_rail_speed: {op: multiply, value: 1.5}
//	  actions:
//	    - log: {message: lap complete}
//	    - script: {function: on_lap}
type Def struct {
	ChangeRailSpeed *ChangeRailSpeedDef `yaml:"change_rail_speed,omitempty"`
	Script          *ScriptDef          `yaml:"script,omitempty"`
	Log             *LogDef             `yaml:"log,omitempty"`
	Actions         []Def               `yaml:"actions,omitempty"`
}

// ChangeRailSpeedDef changes the playback rate of the denizen that fired the
// action.
type ChangeRailSpeedDef struct {
	Op    event.Operation `yaml:"op"`
	Value float64         `yaml:"value"`
}

// ScriptDef calls a named Lua function, or runs Source as an inline chunk.
type ScriptDef struct {
	Function string `yaml:"function,omitempty"`
	Source   string `yaml:"source,omitempty"`
}

type LogDef struct {
	Message string `yaml:"message"`
	Level   string `yaml:"level,omitempty"` // zap level name, default info
}

// Empty reports whether d would do nothing.
func (d *Def) Empty() bool {
	if d == nil {
		return true
	}
	if d.ChangeRailSpeed != nil || d.Script != nil || d.Log != nil {
		return false
	}
	for i := range d.Actions {
		if !d.Actions[i].Empty() {
			return false
		}
	}
	return true
}

// Clone returns a deep copy that shares no memory with d.
func (d *Def) Clone() *Def {
	if d == nil {
		return nil
	}
	c := &Def{}
	if d.ChangeRailSpeed != nil {
		v := *d.ChangeRailSpeed
		c.ChangeRailSpeed = &v
	}
	if d.Script != nil {
		v := *d.Script
		c.Script = &v
	}
	if d.Log != nil {
		v := *d.Log
		c.Log = &v
	}
	if d.Actions != nil {
		c.Actions = make([]Def, len(d.Actions))
		for i := range d.Actions {
			c.Actions[i] = *d.Actions[i].Clone()
		}
	}
	return c
}
