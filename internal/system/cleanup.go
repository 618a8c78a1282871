package system

import (
	"time"

	"go.uber.org/zap"

	"github.com/raftrail/railsim/internal/core/ecs"
	coresys "github.com/raftrail/railsim/internal/core/system"
)

// Forgetter drops per-entity bookkeeping kept outside component stores.
type Forgetter interface {
	Forget(id ecs.EntityID)
}

// CleanupSystem flushes the deferred entity destruction queue at tick end.
// Phase 4 (Cleanup).
type CleanupSystem struct {
	world      *ecs.World
	forgetters []Forgetter
	log        *zap.Logger
	destroyed  uint64
}

func NewCleanupSystem(world *ecs.World, log *zap.Logger, forgetters ...Forgetter) *CleanupSystem {
	return &CleanupSystem{world: world, forgetters: forgetters, log: log}
}

func (s *CleanupSystem) Phase() coresys.Phase { return coresys.PhaseCleanup }

func (s *CleanupSystem) Update(_ time.Duration) {
	flushed := s.world.FlushDestroyQueue()
	if len(flushed) == 0 {
		return
	}
	for _, id := range flushed {
		for _, f := range s.forgetters {
			f.Forget(id)
		}
	}
	s.destroyed += uint64(len(flushed))
	s.log.Debug("entities destroyed", zap.Int("count", len(flushed)))
}

// Destroyed returns the number of entities removed so far.
func (s *CleanupSystem) Destroyed() uint64 { return s.destroyed }
