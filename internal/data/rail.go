package data

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// Vec3 is an x, y, z triple written as a flow sequence.
type Vec3 [3]float64

// RailNodeDef is one control point of an authored rail. Time is optional.
type RailNodeDef struct {
	Position Vec3     `yaml:"position,flow"`
	Time     *float64 `yaml:"time,omitempty"`
}

// RailDef defines a rail in a data file.
type RailDef struct {
	Name          string        `yaml:"name"`
	Looped        bool          `yaml:"looped"`
	ReliableSpeed float64       `yaml:"reliable_speed,omitempty"` // node spacing speed, default 1
	Nodes         []RailNodeDef `yaml:"nodes"`
}

type railListFile struct {
	Rails []RailDef `yaml:"rails"`
}

// LoadRailDefs loads rail definitions from a YAML file.
func LoadRailDefs(path string) ([]RailDef, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rail_list: %w", err)
	}
	var f railListFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse rail_list: %w", err)
	}
	seen := make(map[string]bool, len(f.Rails))
	for _, r := range f.Rails {
		if r.Name == "" {
			return nil, fmt.Errorf("parse rail_list: rail without name")
		}
		if seen[r.Name] {
			return nil, fmt.Errorf("parse rail_list: duplicate rail %q", r.Name)
		}
		seen[r.Name] = true
	}
	return f.Rails, nil
}

// WriteRailDefs writes rails to path in the format LoadRailDefs reads.
func WriteRailDefs(path string, rails []RailDef) error {
	out, err := yaml.Marshal(railListFile{Rails: rails})
	if err != nil {
		return fmt.Errorf("encode rail_list: %w", err)
	}
	if err := os.WriteFile(path, out, 0o644); err != nil {
		return fmt.Errorf("write rail_list: %w", err)
	}
	return nil
}

// BakeRails turns the rail-node entities of l into looped rail definitions,
// one per rail name, nodes in ordinal order. Nodes without a transform are
// skipped and counted.
func BakeRails(l *EntityList, speed float64) (rails []RailDef, skipped int) {
	type node struct {
		ordinal int
		seq     int
		pos     Vec3
	}
	byRail := make(map[string][]node)
	for i, e := range l.Entities {
		if e.RailNode == nil {
			continue
		}
		if e.Transform == nil {
			skipped++
			continue
		}
		byRail[e.RailNode.RailName] = append(byRail[e.RailNode.RailName], node{
			ordinal: e.RailNode.Ordinal,
			seq:     i,
			pos:     e.Transform.Position,
		})
	}

	names := make([]string, 0, len(byRail))
	for name := range byRail {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		nodes := byRail[name]
		sort.Slice(nodes, func(i, j int) bool {
			if nodes[i].ordinal != nodes[j].ordinal {
				return nodes[i].ordinal < nodes[j].ordinal
			}
			return nodes[i].seq < nodes[j].seq
		})
		def := RailDef{Name: name, Looped: true, ReliableSpeed: speed}
		for _, n := range nodes {
			def.Nodes = append(def.Nodes, RailNodeDef{Position: n.pos})
		}
		rails = append(rails, def)
	}
	return rails, skipped
}
