package domain

import (
	"math"
	"time"
)

// EntityType identifies which kind of entity a chart or aggregate refers to.
type EntityType string

const (
	EntityTrack     EntityType = "track"
	EntityRelease   EntityType = "release"
	EntityPerformer EntityType = "performer"
)

// Valid reports whether t is one of the three known entity types.
func (t EntityType) Valid() bool {
	switch t {
	case EntityTrack, EntityRelease, EntityPerformer:
		return true
	}
	return false
}

// PlaySource identifies where the audio came from.
type PlaySource string

const (
	SourceLocal    PlaySource = "local"
	SourceStreamed PlaySource = "streamed"
)

// PlayEvent is an immutable record of one completed listening instance.
// Created exactly once per qualifying listen; never mutated; retained forever.
type PlayEvent struct {
	ID                 string     `json:"id" db:"id"`
	TrackID            string     `json:"track_id" db:"track_id"`
	ReleaseID          string     `json:"release_id" db:"release_id"`
	PerformerID        string     `json:"performer_id" db:"performer_id"`
	Timestamp          time.Time  `json:"timestamp" db:"timestamp"`
	PlayDuration       float64    `json:"play_duration" db:"play_duration"`
	CompletionFraction float64    `json:"completion_fraction" db:"completion_fraction"`
	Source             PlaySource `json:"source" db:"source"`
	SessionID          string     `json:"session_id" db:"session_id"`
}

// Day returns the calendar day of the event timestamp.
func (e *PlayEvent) Day() time.Time {
	y, m, d := e.Timestamp.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, e.Timestamp.Location())
}

// EntityID returns the event's ID for the given entity type.
func (e *PlayEvent) EntityID(t EntityType) string {
	switch t {
	case EntityRelease:
		return e.ReleaseID
	case EntityPerformer:
		return e.PerformerID
	default:
		return e.TrackID
	}
}

// DailyAggregate is a per-entity, per-day rollup of play statistics.
// AverageCompletion is a running mean over every contributing event.
type DailyAggregate struct {
	EntityID          string     `json:"entity_id" db:"entity_id"`
	EntityType        EntityType `json:"entity_type" db:"entity_type"`
	Day               time.Time  `json:"day" db:"day"`
	PlayCount         int        `json:"play_count" db:"play_count"`
	TotalDuration     float64    `json:"total_duration" db:"total_duration"`
	AverageCompletion float64    `json:"average_completion" db:"average_completion"`
}

// WeeklyAggregate mirrors DailyAggregate at ISO-week granularity. Rows are
// produced by the rollup worker folding completed weeks of daily rows.
type WeeklyAggregate struct {
	EntityID          string     `json:"entity_id" db:"entity_id"`
	EntityType        EntityType `json:"entity_type" db:"entity_type"`
	WeekStart         time.Time  `json:"week_start" db:"week_start"`
	PlayCount         int        `json:"play_count" db:"play_count"`
	TotalDuration     float64    `json:"total_duration" db:"total_duration"`
	AverageCompletion float64    `json:"average_completion" db:"average_completion"`
}

// ChartSnapshot records one entity's position in a computed chart, keyed by
// the period it was computed for. Snapshots back movement comparison across
// periods and the has-ever-charted check for re-entry classification.
type ChartSnapshot struct {
	EntityID      string     `json:"entity_id" db:"entity_id"`
	EntityType    EntityType `json:"entity_type" db:"entity_type"`
	PeriodStart   time.Time  `json:"period_start" db:"period_start"`
	PeriodEnd     time.Time  `json:"period_end" db:"period_end"`
	Position      int        `json:"position" db:"position"`
	PlaysInPeriod int        `json:"plays_in_period" db:"plays_in_period"`
}

// MovementKind classifies an entity's trend relative to the prior period.
type MovementKind string

const (
	MovementNew     MovementKind = "new"
	MovementReEntry MovementKind = "re-entry"
	MovementUp      MovementKind = "up"
	MovementDown    MovementKind = "down"
	MovementSteady  MovementKind = "steady"
)

// Movement is the position change of one chart entry versus the previous
// period. Delta is positions gained (positive = climbed).
type Movement struct {
	Kind  MovementKind `json:"kind"`
	Delta int          `json:"delta,omitempty"`
}

// ChartEntry is one ranked row of a computed chart.
type ChartEntry struct {
	Position          int        `json:"position"`
	EntityID          string     `json:"entity_id"`
	EntityType        EntityType `json:"entity_type"`
	Title             string     `json:"title"`
	Subtitle          string     `json:"subtitle,omitempty"`
	ArtworkPath       string     `json:"artwork_path,omitempty"`
	PlayCount         int        `json:"play_count"`
	TotalDuration     float64    `json:"total_duration"`
	AverageCompletion float64    `json:"average_completion"`
	DistinctTracks    int        `json:"distinct_tracks,omitempty"`
	DistinctReleases  int        `json:"distinct_releases,omitempty"`
	Movement          Movement   `json:"movement"`
}

// Tier is the granularity used to answer a chart query.
type Tier string

const (
	TierEvent  Tier = "event"
	TierDaily  Tier = "daily"
	TierWeekly Tier = "weekly"
)

// Chart is a fully computed ranked list for one entity type and date range.
type Chart struct {
	EntityType EntityType   `json:"entity_type"`
	Start      time.Time    `json:"start"`
	End        time.Time    `json:"end"`
	Tier       Tier         `json:"tier"`
	Entries    []ChartEntry `json:"entries"`
	ComputedAt time.Time    `json:"computed_at"`
	// DroppedEntities counts groups excluded because their metadata could
	// not be resolved. Exposed for observability, not an error.
	DroppedEntities int `json:"dropped_entities,omitempty"`
}

// EntityMetadata is read-only reference data for one entity.
type EntityMetadata struct {
	EntityID    string     `json:"entity_id" db:"entity_id"`
	EntityType  EntityType `json:"entity_type" db:"entity_type"`
	Title       string     `json:"title" db:"title"`
	ParentID    string     `json:"parent_id,omitempty" db:"parent_id"`
	Subtitle    string     `json:"subtitle,omitempty" db:"subtitle"`
	ArtworkPath string     `json:"artwork_path,omitempty" db:"artwork_path"`
	Duration    float64    `json:"duration,omitempty" db:"duration"`
}

// ListeningSession is a contiguous listening period bounded by idle gaps no
// longer than the configured maximum.
type ListeningSession struct {
	ID        string      `json:"id" db:"id"`
	StartTime time.Time   `json:"start_time" db:"start_time"`
	EndTime   *time.Time  `json:"end_time,omitempty" db:"end_time"`
	TrackIDs  StringSlice `json:"track_ids" db:"track_ids"`
}

// CompletionFraction computes position/duration clamped to 1.0. Returns 0
// when duration is zero or unknown.
func CompletionFraction(position, duration float64) float64 {
	if duration <= 0 {
		return 0
	}
	return math.Min(position/duration, 1.0)
}
