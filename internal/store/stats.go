package store

import (
	"fmt"
	"time"
)

// Overview summarizes listening over a date range straight from the event
// log.
type Overview struct {
	PlayCount          int     `db:"play_count" json:"play_count"`
	TotalDuration      float64 `db:"total_duration" json:"total_duration"`
	DistinctTracks     int     `db:"distinct_tracks" json:"distinct_tracks"`
	DistinctReleases   int     `db:"distinct_releases" json:"distinct_releases"`
	DistinctPerformers int     `db:"distinct_performers" json:"distinct_performers"`
}

// QueryOverview computes range totals over raw events.
func (db *DB) QueryOverview(start, end time.Time) (*Overview, error) {
	var o Overview
	err := db.Get(&o, `
		SELECT
			COUNT(*) AS play_count,
			COALESCE(SUM(play_duration), 0) AS total_duration,
			COUNT(DISTINCT track_id) AS distinct_tracks,
			COUNT(DISTINCT release_id) AS distinct_releases,
			COUNT(DISTINCT performer_id) AS distinct_performers
		FROM play_events
		WHERE timestamp >= ? AND timestamp <= ?`, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to query overview: %w", err)
	}
	return &o, nil
}
