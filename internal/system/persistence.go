package system

import (
	"context"
	"time"

	"go.uber.org/zap"

	coresys "github.com/raftrail/railsim/internal/core/system"
	"github.com/raftrail/railsim/internal/persist"
)

// SnapshotSaver stores denizen snapshots.
type SnapshotSaver interface {
	SaveSnapshots(ctx context.Context, snaps []persist.DenizenSnapshot) error
}

// SnapshotSource produces denizen snapshots.
type SnapshotSource interface {
	Snapshots() []persist.DenizenSnapshot
}

// PersistenceSystem periodically saves the motion state of every named
// denizen. Phase 3 (Persist).
type PersistenceSystem struct {
	source    SnapshotSource
	saver     SnapshotSaver
	log       *zap.Logger
	tickCount int
	interval  int // save every N ticks
	saves     int
}

func NewPersistenceSystem(source SnapshotSource, saver SnapshotSaver, log *zap.Logger, intervalTicks int) *PersistenceSystem {
	return &PersistenceSystem{
		source:   source,
		saver:    saver,
		log:      log,
		interval: intervalTicks,
	}
}

func (s *PersistenceSystem) Phase() coresys.Phase { return coresys.PhasePersist }

func (s *PersistenceSystem) Update(_ time.Duration) {
	if s.interval <= 0 {
		return
	}
	s.tickCount++
	if s.tickCount < s.interval {
		return
	}
	s.tickCount = 0
	s.SaveAll()
}

// SaveAll saves immediately. Called on graceful shutdown as well.
func (s *PersistenceSystem) SaveAll() {
	snaps := s.source.Snapshots()
	if len(snaps) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.saver.SaveSnapshots(ctx, snaps); err != nil {
		s.log.Error("snapshot save failed", zap.Int("denizens", len(snaps)), zap.Error(err))
		return
	}
	s.saves++
	s.log.Debug("snapshots saved", zap.Int("denizens", len(snaps)))
}

// Saves returns the number of successful saves.
func (s *PersistenceSystem) Saves() int { return s.saves }
