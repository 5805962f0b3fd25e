package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/jacobreesgit/musicmemory/internal/domain"
)

const dayLayout = "2006-01-02"

// upsertDailyAggregate creates or increments one daily rollup row. The
// average is folded in as a running mean on every write: SQLite evaluates
// the update expressions against the pre-update row, so play_count in the
// average formula is the old count.
func upsertDailyAggregate(tx *sqlx.Tx, entityID string, entityType domain.EntityType, day string, duration, completion float64) error {
	_, err := tx.Exec(`
		INSERT INTO daily_aggregates (entity_id, entity_type, day, play_count, total_duration, average_completion)
		VALUES (?, ?, ?, 1, ?, ?)
		ON CONFLICT(entity_id, entity_type, day) DO UPDATE SET
			average_completion = (average_completion * play_count + excluded.average_completion) / (play_count + 1),
			play_count = play_count + 1,
			total_duration = total_duration + excluded.total_duration
	`, entityID, string(entityType), day, duration, completion)
	return err
}

type dailyAggregateRow struct {
	EntityID          string  `db:"entity_id"`
	EntityType        string  `db:"entity_type"`
	Day               string  `db:"day"`
	PlayCount         int     `db:"play_count"`
	TotalDuration     float64 `db:"total_duration"`
	AverageCompletion float64 `db:"average_completion"`
}

// QueryDailyAggregates returns the daily rollups for one entity type with
// days in [start, end].
func (db *DB) QueryDailyAggregates(entityType domain.EntityType, start, end time.Time) ([]domain.DailyAggregate, error) {
	var rows []dailyAggregateRow
	err := db.Select(&rows, `
		SELECT * FROM daily_aggregates
		WHERE entity_type = ? AND day >= ? AND day <= ?
		ORDER BY day ASC, entity_id ASC`,
		string(entityType), start.Format(dayLayout), end.Format(dayLayout))
	if err != nil {
		return nil, fmt.Errorf("failed to query daily aggregates: %w", err)
	}

	aggs := make([]domain.DailyAggregate, 0, len(rows))
	for _, r := range rows {
		day, err := time.Parse(dayLayout, r.Day)
		if err != nil {
			return nil, fmt.Errorf("bad day value %q: %w", r.Day, err)
		}
		aggs = append(aggs, domain.DailyAggregate{
			EntityID:          r.EntityID,
			EntityType:        domain.EntityType(r.EntityType),
			Day:               day,
			PlayCount:         r.PlayCount,
			TotalDuration:     r.TotalDuration,
			AverageCompletion: r.AverageCompletion,
		})
	}
	return aggs, nil
}

// QueryWeeklyAggregates returns the weekly rollups for one entity type with
// week starts in [start, end].
func (db *DB) QueryWeeklyAggregates(entityType domain.EntityType, start, end time.Time) ([]domain.WeeklyAggregate, error) {
	type weeklyRow struct {
		EntityID          string  `db:"entity_id"`
		EntityType        string  `db:"entity_type"`
		WeekStart         string  `db:"week_start"`
		PlayCount         int     `db:"play_count"`
		TotalDuration     float64 `db:"total_duration"`
		AverageCompletion float64 `db:"average_completion"`
	}

	var rows []weeklyRow
	err := db.Select(&rows, `
		SELECT * FROM weekly_aggregates
		WHERE entity_type = ? AND week_start >= ? AND week_start <= ?
		ORDER BY week_start ASC, entity_id ASC`,
		string(entityType), start.Format(dayLayout), end.Format(dayLayout))
	if err != nil {
		return nil, fmt.Errorf("failed to query weekly aggregates: %w", err)
	}

	aggs := make([]domain.WeeklyAggregate, 0, len(rows))
	for _, r := range rows {
		week, err := time.Parse(dayLayout, r.WeekStart)
		if err != nil {
			return nil, fmt.Errorf("bad week_start value %q: %w", r.WeekStart, err)
		}
		aggs = append(aggs, domain.WeeklyAggregate{
			EntityID:          r.EntityID,
			EntityType:        domain.EntityType(r.EntityType),
			WeekStart:         week,
			PlayCount:         r.PlayCount,
			TotalDuration:     r.TotalDuration,
			AverageCompletion: r.AverageCompletion,
		})
	}
	return aggs, nil
}

// RollupWeek folds the daily rows of the week starting at weekStart (a
// Monday) into weekly_aggregates. Replaces any prior rollup for the week, so
// re-running is idempotent.
func (db *DB) RollupWeek(weekStart time.Time) error {
	weekEnd := weekStart.AddDate(0, 0, 6)
	_, err := db.Exec(`
		INSERT INTO weekly_aggregates (entity_id, entity_type, week_start, play_count, total_duration, average_completion)
		SELECT entity_id, entity_type, ?,
			SUM(play_count),
			SUM(total_duration),
			SUM(average_completion * play_count) / SUM(play_count)
		FROM daily_aggregates
		WHERE day >= ? AND day <= ?
		GROUP BY entity_id, entity_type
		ON CONFLICT(entity_id, entity_type, week_start) DO UPDATE SET
			play_count = excluded.play_count,
			total_duration = excluded.total_duration,
			average_completion = excluded.average_completion
	`, weekStart.Format(dayLayout), weekStart.Format(dayLayout), weekEnd.Format(dayLayout))
	if err != nil {
		return fmt.Errorf("failed to roll up week %s: %w", weekStart.Format(dayLayout), err)
	}
	return nil
}

// EarliestAggregateDay returns the first day with any daily rollup, or zero
// time when there is no data yet.
func (db *DB) EarliestAggregateDay() (time.Time, error) {
	var day sql.NullString
	err := db.Get(&day, "SELECT MIN(day) FROM daily_aggregates")
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to query earliest day: %w", err)
	}
	if !day.Valid || day.String == "" {
		return time.Time{}, nil
	}
	return time.Parse(dayLayout, day.String)
}

// EarliestWeekStart returns the first rolled-up week, or zero time when no
// rollups exist yet.
func (db *DB) EarliestWeekStart() (time.Time, error) {
	var week sql.NullString
	err := db.Get(&week, "SELECT MIN(week_start) FROM weekly_aggregates")
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to query earliest week: %w", err)
	}
	if !week.Valid || week.String == "" {
		return time.Time{}, nil
	}
	return time.Parse(dayLayout, week.String)
}
