package rail

import (
	"errors"
	"fmt"
	"sort"

	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"
	"golang.org/x/text/unicode/norm"

	"github.com/raftrail/railsim/internal/data"
)

var ErrRailNotFound = errors.New("rail not found")

// NodeSource lists the positions of the rail-node entities that define a
// rail, in ordinal order.
type NodeSource interface {
	RailNodePositions(name string) []mgl64.Vec3
}

// Manager resolves rail names to rails. Rails come from two places: static
// definitions loaded from data files, and rails assembled from rail-node
// entities in the world. Assembled rails are cached until Invalidate.
// Names are compared in Unicode NFC form.
type Manager struct {
	log       *zap.Logger
	nodeSpeed float64
	defined   map[string]*Rail
	assembled map[string]*Rail
}

func NewManager(log *zap.Logger) *Manager {
	return &Manager{
		log:       log,
		nodeSpeed: 1,
		defined:   make(map[string]*Rail),
		assembled: make(map[string]*Rail),
	}
}

// Key is the canonical form of a rail name. Every rail name comparison goes
// through it.
func Key(name string) string { return norm.NFC.String(name) }

// SetNodeSpeed sets the speed used to time rails assembled from nodes.
func (m *Manager) SetNodeSpeed(speed float64) {
	if speed > 0 {
		m.nodeSpeed = speed
	}
}

// Add registers a rail under its own name, replacing any previous one.
func (m *Manager) Add(r *Rail) {
	m.defined[Key(r.Name())] = r
}

// LoadDefs builds and registers every rail definition.
func (m *Manager) LoadDefs(defs []data.RailDef) error {
	for _, def := range defs {
		nodes := make([]Node, len(def.Nodes))
		for i, n := range def.Nodes {
			nodes[i] = Node{Position: mgl64.Vec3(n.Position), Time: n.Time}
		}
		speed := def.ReliableSpeed
		if speed == 0 {
			speed = 1
		}
		r, err := Build(def.Name, nodes, speed, def.Looped)
		if err != nil {
			return fmt.Errorf("load rail defs: %w", err)
		}
		m.Add(r)
		m.log.Debug("rail loaded",
			zap.String("rail", def.Name),
			zap.Int("nodes", len(def.Nodes)),
			zap.Float64("end_time", r.EndTime()),
		)
	}
	return nil
}

// Get returns a statically defined rail.
func (m *Manager) Get(name string) (*Rail, bool) {
	r, ok := m.defined[Key(name)]
	return r, ok
}

// GetRailFromComponents returns the rail for name, assembling it from
// rail-node entities when no static definition exists. Assembled rails loop.
func (m *Manager) GetRailFromComponents(name string, src NodeSource) (*Rail, error) {
	k := Key(name)
	if r, ok := m.defined[k]; ok {
		return r, nil
	}
	if r, ok := m.assembled[k]; ok {
		return r, nil
	}
	if src == nil {
		return nil, fmt.Errorf("%w: %q", ErrRailNotFound, name)
	}
	points := src.RailNodePositions(k)
	if len(points) < 2 {
		return nil, fmt.Errorf("%w: %q has %d nodes", ErrRailNotFound, name, len(points))
	}
	r, err := FromPoints(name, points, m.nodeSpeed, true)
	if err != nil {
		return nil, err
	}
	m.assembled[k] = r
	m.log.Debug("rail assembled from nodes",
		zap.String("rail", name),
		zap.Int("nodes", len(points)),
	)
	return r, nil
}

// Invalidate drops the cached assembly of name so the next lookup rebuilds
// it from the current nodes.
func (m *Manager) Invalidate(name string) {
	delete(m.assembled, Key(name))
}

// Names returns every known rail name, sorted.
func (m *Manager) Names() []string {
	names := make([]string, 0, len(m.defined)+len(m.assembled))
	for _, r := range m.defined {
		names = append(names, r.Name())
	}
	for k, r := range m.assembled {
		if _, ok := m.defined[k]; !ok {
			names = append(names, r.Name())
		}
	}
	sort.Strings(names)
	return names
}

func (m *Manager) Count() int { return len(m.Names()) }
