package store

import (
	"fmt"
	"time"

	"github.com/jacobreesgit/musicmemory/internal/domain"
)

// AppendPlayEvent inserts the event and folds it into the daily aggregates
// for all three entity types in one transaction. A crash can therefore never
// leave an event without its aggregate increments.
func (db *DB) AppendPlayEvent(e *domain.PlayEvent) error {
	tx, err := db.Beginx()
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	_, err = tx.NamedExec(`INSERT INTO play_events (
		id, track_id, release_id, performer_id, timestamp,
		play_duration, completion_fraction, source, session_id
	) VALUES (
		:id, :track_id, :release_id, :performer_id, :timestamp,
		:play_duration, :completion_fraction, :source, :session_id
	)`, e)
	if err != nil {
		return fmt.Errorf("failed to append play event: %w", err)
	}

	day := e.Day().Format(dayLayout)
	for _, entityType := range []domain.EntityType{domain.EntityTrack, domain.EntityRelease, domain.EntityPerformer} {
		entityID := e.EntityID(entityType)
		if entityID == "" {
			continue
		}
		if err := upsertDailyAggregate(tx, entityID, entityType, day, e.PlayDuration, e.CompletionFraction); err != nil {
			return fmt.Errorf("failed to upsert %s aggregate: %w", entityType, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit play event: %w", err)
	}
	return nil
}

// QueryEvents returns all events with timestamps in [start, end] ordered by
// time. Both bounds are inclusive.
func (db *DB) QueryEvents(start, end time.Time) ([]domain.PlayEvent, error) {
	var events []domain.PlayEvent
	err := db.Select(&events, `
		SELECT * FROM play_events
		WHERE timestamp >= ? AND timestamp <= ?
		ORDER BY timestamp ASC`, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	return events, nil
}

// RecentEvents returns the newest events up to limit.
func (db *DB) RecentEvents(limit int) ([]domain.PlayEvent, error) {
	var events []domain.PlayEvent
	err := db.Select(&events, `
		SELECT * FROM play_events
		ORDER BY timestamp DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent events: %w", err)
	}
	return events, nil
}

// CountEvents returns the total number of stored play events.
func (db *DB) CountEvents() (int, error) {
	var count int
	if err := db.Get(&count, "SELECT COUNT(*) FROM play_events"); err != nil {
		return 0, fmt.Errorf("failed to count events: %w", err)
	}
	return count, nil
}
