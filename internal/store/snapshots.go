package store

import (
	"fmt"
	"time"

	"github.com/jacobreesgit/musicmemory/internal/domain"
)

// SaveChartSnapshots replaces the snapshot rows for one chart period with the
// given entries. Called after each chart computation so the next period can
// diff against it.
func (db *DB) SaveChartSnapshots(entityType domain.EntityType, periodStart, periodEnd time.Time, entries []domain.ChartEntry) error {
	tx, err := db.Beginx()
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	_, err = tx.Exec(`
		DELETE FROM chart_snapshots
		WHERE entity_type = ? AND period_start = ? AND period_end = ?`,
		string(entityType), periodStart.Format(dayLayout), periodEnd.Format(dayLayout))
	if err != nil {
		return fmt.Errorf("failed to clear old snapshots: %w", err)
	}

	for _, e := range entries {
		_, err = tx.Exec(`
			INSERT INTO chart_snapshots (entity_id, entity_type, period_start, period_end, position, plays_in_period)
			VALUES (?, ?, ?, ?, ?, ?)`,
			e.EntityID, string(entityType), periodStart.Format(dayLayout), periodEnd.Format(dayLayout), e.Position, e.PlayCount)
		if err != nil {
			return fmt.Errorf("failed to insert snapshot for %s: %w", e.EntityID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit snapshots: %w", err)
	}
	return nil
}

// PreviousPositions returns entityID -> position for the chart stored for
// the exact given period, or nil when no chart was ever computed for it.
func (db *DB) PreviousPositions(entityType domain.EntityType, periodStart, periodEnd time.Time) (map[string]int, error) {
	type row struct {
		EntityID string `db:"entity_id"`
		Position int    `db:"position"`
	}

	var rows []row
	err := db.Select(&rows, `
		SELECT entity_id, position FROM chart_snapshots
		WHERE entity_type = ? AND period_start = ? AND period_end = ?`,
		string(entityType), periodStart.Format(dayLayout), periodEnd.Format(dayLayout))
	if err != nil {
		return nil, fmt.Errorf("failed to query previous positions: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	positions := make(map[string]int, len(rows))
	for _, r := range rows {
		positions[r.EntityID] = r.Position
	}
	return positions, nil
}

// HasCharted reports whether the entity appeared in any chart snapshot for a
// period starting before the given time. Backs the re-entry-vs-new
// distinction in movement classification.
func (db *DB) HasCharted(entityID string, entityType domain.EntityType, before time.Time) (bool, error) {
	var count int
	err := db.Get(&count, `
		SELECT COUNT(*) FROM chart_snapshots
		WHERE entity_id = ? AND entity_type = ? AND period_start < ?`,
		entityID, string(entityType), before.Format(dayLayout))
	if err != nil {
		return false, fmt.Errorf("failed to query chart history: %w", err)
	}
	return count > 0, nil
}
