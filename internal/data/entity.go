package data

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/raftrail/railsim/internal/action"
)

// EntityDef describes one entity. Components left nil are not added, or are
// inherited from Prototype.
type EntityDef struct {
	Name        string          `yaml:"name,omitempty"`
	Prototype   string          `yaml:"prototype,omitempty"`
	Transform   *TransformDef   `yaml:"transform,omitempty"`
	RailNode    *RailNodeRef    `yaml:"rail_node,omitempty"`
	RailDenizen *RailDenizenDef `yaml:"rail_denizen,omitempty"`
}

type TransformDef struct {
	Position    Vec3  `yaml:"position,flow"`
	Orientation *Vec3 `yaml:"orientation,omitempty,flow"` // Euler radians
	Scale       *Vec3 `yaml:"scale,omitempty,flow"`
}

// RailNodeRef marks an entity as a control point of the named rail. Nodes
// are joined in Ordinal order.
type RailNodeRef struct {
	RailName string `yaml:"rail_name"`
	Ordinal  int    `yaml:"ordinal"`
}

// RailDenizenDef is the authored state of a rail denizen. Vector fields keep
// their defaults when absent: offset zero, orientation identity, scale one.
type RailDenizenDef struct {
	RailName             *string     `yaml:"rail_name,omitempty"`
	StartTime            float64     `yaml:"start_time"`
	InitialPlaybackRate  *float64    `yaml:"initial_playback_rate,omitempty"` // absent means 1
	RailOffset           *Vec3       `yaml:"rail_offset,omitempty,flow"`
	RailOrientation      *Vec3       `yaml:"rail_orientation,omitempty,flow"` // Euler radians
	RailScale            *Vec3       `yaml:"rail_scale,omitempty,flow"`
	UpdateOrientation    bool        `yaml:"update_orientation"`
	InheritTransformData bool        `yaml:"inherit_transform_data"`
	Enabled              *bool       `yaml:"enabled,omitempty"` // absent means enabled
	OnNewLap             *action.Def `yaml:"on_new_lap,omitempty"`
}

// PlaybackRate applies the playback rate default.
func (d *RailDenizenDef) PlaybackRate() float64 {
	if d.InitialPlaybackRate == nil {
		return 1
	}
	return *d.InitialPlaybackRate
}

// IsEnabled applies the enabled default.
func (d *RailDenizenDef) IsEnabled() bool {
	return d.Enabled == nil || *d.Enabled
}

// EntityList is the content of an entity file. Prototypes are only used as
// bases for other entities and are never spawned themselves.
type EntityList struct {
	Prototypes []EntityDef `yaml:"prototypes,omitempty"`
	Entities   []EntityDef `yaml:"entities,omitempty"`
}

// LoadEntityList loads an entity or prototype library file.
func LoadEntityList(path string) (*EntityList, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read entity_list: %w", err)
	}
	var l EntityList
	if err := yaml.Unmarshal(data, &l); err != nil {
		return nil, fmt.Errorf("parse entity_list %s: %w", path, err)
	}
	return &l, nil
}

// MarshalEntityList encodes l as YAML with two-space indentation.
func MarshalEntityList(l *EntityList) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(l); err != nil {
		return nil, fmt.Errorf("encode entity_list: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encode entity_list: %w", err)
	}
	return buf.Bytes(), nil
}

// WriteEntityList writes l to path.
func WriteEntityList(path string, l *EntityList) error {
	out, err := MarshalEntityList(l)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, out, 0o644); err != nil {
		return fmt.Errorf("write entity_list: %w", err)
	}
	return nil
}
