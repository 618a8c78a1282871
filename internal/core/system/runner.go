package system

import (
	"fmt"
	"sort"
	"time"
)

// Stats is the execution record of one registered system.
type Stats struct {
	Name  string
	Phase Phase
	Ticks int64
	Last  time.Duration
	Max   time.Duration
	Total time.Duration
}

// Avg returns the mean update duration.
func (s Stats) Avg() time.Duration {
	if s.Ticks == 0 {
		return 0
	}
	return s.Total / time.Duration(s.Ticks)
}

type entry struct {
	sys   System
	stats Stats
}

// Runner executes systems in phase order each tick. Systems sharing a phase
// run in registration order.
type Runner struct {
	entries []*entry
	sorted  bool
	ticks   int64
}

func NewRunner() *Runner {
	return &Runner{
		entries: make([]*entry, 0, 16),
	}
}

func (r *Runner) Register(s System) {
	r.entries = append(r.entries, &entry{
		sys:   s,
		stats: Stats{Name: systemName(s), Phase: s.Phase()},
	})
	r.sorted = false
}

// Tick runs every system once.
func (r *Runner) Tick(dt time.Duration) {
	r.ensureSorted()
	for _, e := range r.entries {
		r.run(e, dt)
	}
	r.ticks++
}

// TickPhase runs only the systems registered for phase.
func (r *Runner) TickPhase(phase Phase, dt time.Duration) {
	r.ensureSorted()
	for _, e := range r.entries {
		if e.sys.Phase() == phase {
			r.run(e, dt)
		}
	}
}

// Ticks returns how many full ticks have run.
func (r *Runner) Ticks() int64 { return r.ticks }

// Stats returns a copy of the per-system execution records in run order.
func (r *Runner) Stats() []Stats {
	r.ensureSorted()
	out := make([]Stats, len(r.entries))
	for i, e := range r.entries {
		out[i] = e.stats
	}
	return out
}

func (r *Runner) run(e *entry, dt time.Duration) {
	start := time.Now()
	e.sys.Update(dt)
	d := time.Since(start)

	e.stats.Ticks++
	e.stats.Last = d
	e.stats.Total += d
	if d > e.stats.Max {
		e.stats.Max = d
	}
}

func (r *Runner) ensureSorted() {
	if !r.sorted {
		sort.SliceStable(r.entries, func(i, j int) bool {
			return r.entries[i].sys.Phase() < r.entries[j].sys.Phase()
		})
		r.sorted = true
	}
}

func systemName(s System) string {
	if n, ok := s.(interface{ Name() string }); ok {
		return n.Name()
	}
	return fmt.Sprintf("%T", s)
}
