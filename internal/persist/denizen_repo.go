package persist

import (
	"context"
	"fmt"
	"math"

	"github.com/jackc/pgx/v5"
)

// DenizenSnapshot is the saved motion state of one named rail denizen.
type DenizenSnapshot struct {
	Name       string
	RailName   string
	Lap        float64
	CursorTime float64
	Rate       float64
	Enabled    bool
}

type DenizenRepo struct {
	db *DB
}

func NewDenizenRepo(db *DB) *DenizenRepo {
	return &DenizenRepo{db: db}
}

// SaveSnapshots upserts all snapshots in one transaction and records in
// lap_history how many laps each denizen completed since its previous save.
func (r *DenizenRepo) SaveSnapshots(ctx context.Context, snaps []DenizenSnapshot) error {
	if len(snaps) == 0 {
		return nil
	}
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("snapshot begin: %w", err)
	}
	defer tx.Rollback(ctx)

	names := make([]string, len(snaps))
	for i, s := range snaps {
		names[i] = s.Name
	}
	rows, err := tx.Query(ctx,
		`SELECT name, lap FROM denizen_snapshots WHERE name = ANY($1)`, names,
	)
	if err != nil {
		return fmt.Errorf("snapshot previous laps: %w", err)
	}
	previous := make(map[string]float64, len(snaps))
	for rows.Next() {
		var name string
		var lap float64
		if err := rows.Scan(&name, &lap); err != nil {
			rows.Close()
			return fmt.Errorf("scan previous lap: %w", err)
		}
		previous[name] = lap
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("snapshot previous laps: %w", err)
	}

	batch := &pgx.Batch{}
	for _, s := range snaps {
		if gained := lapsGained(previous[s.Name], s.Lap); gained > 0 {
			batch.Queue(
				`INSERT INTO lap_history (name, rail_name, lap, laps) VALUES ($1, $2, $3, $4)`,
				s.Name, s.RailName, int32(math.Floor(s.Lap)), gained,
			)
		}
		batch.Queue(
			`INSERT INTO denizen_snapshots (name, rail_name, lap, cursor_time, rate, enabled, saved_at)
			 VALUES ($1, $2, $3, $4, $5, $6, now())
			 ON CONFLICT (name) DO UPDATE SET
			   rail_name = EXCLUDED.rail_name,
			   lap = EXCLUDED.lap,
			   cursor_time = EXCLUDED.cursor_time,
			   rate = EXCLUDED.rate,
			   enabled = EXCLUDED.enabled,
			   saved_at = EXCLUDED.saved_at`,
			s.Name, s.RailName, s.Lap, s.CursorTime, s.Rate, s.Enabled,
		)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("snapshot upsert: %w", err)
	}
	return tx.Commit(ctx)
}

// lapsGained is the number of whole laps completed between two lap
// counters. A counter that went backwards gained nothing.
func lapsGained(previous, current float64) int32 {
	gained := math.Floor(current) - math.Floor(previous)
	if !(gained > 0) || gained > math.MaxInt32 {
		return 0
	}
	return int32(gained)
}

// LoadSnapshots returns every saved snapshot.
func (r *DenizenRepo) LoadSnapshots(ctx context.Context) ([]DenizenSnapshot, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT name, rail_name, lap, cursor_time, rate, enabled FROM denizen_snapshots ORDER BY name`,
	)
	if err != nil {
		return nil, fmt.Errorf("load snapshots: %w", err)
	}
	defer rows.Close()

	var out []DenizenSnapshot
	for rows.Next() {
		var s DenizenSnapshot
		if err := rows.Scan(&s.Name, &s.RailName, &s.Lap, &s.CursorTime, &s.Rate, &s.Enabled); err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// LapCount returns the number of laps recorded for name across all saves.
func (r *DenizenRepo) LapCount(ctx context.Context, name string) (int64, error) {
	var n int64
	err := r.db.Pool.QueryRow(ctx,
		`SELECT COALESCE(sum(laps), 0)::bigint FROM lap_history WHERE name = $1`, name,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("lap count: %w", err)
	}
	return n, nil
}
