package store

const Schema = `
CREATE TABLE IF NOT EXISTS play_events (
	id TEXT PRIMARY KEY,
	track_id TEXT NOT NULL,
	release_id TEXT NOT NULL,
	performer_id TEXT NOT NULL,
	timestamp DATETIME NOT NULL,
	play_duration REAL NOT NULL,
	completion_fraction REAL NOT NULL,
	source TEXT NOT NULL,
	session_id TEXT
);

-- Append-only event log; queried by time range for the event tier.
CREATE INDEX IF NOT EXISTS idx_play_events_timestamp ON play_events(timestamp);
CREATE INDEX IF NOT EXISTS idx_play_events_track ON play_events(track_id);
CREATE INDEX IF NOT EXISTS idx_play_events_session ON play_events(session_id);

CREATE TABLE IF NOT EXISTS daily_aggregates (
	entity_id TEXT NOT NULL,
	entity_type TEXT NOT NULL,
	day TEXT NOT NULL,
	play_count INTEGER NOT NULL DEFAULT 0,
	total_duration REAL NOT NULL DEFAULT 0,
	average_completion REAL NOT NULL DEFAULT 0,
	PRIMARY KEY (entity_id, entity_type, day)
);

CREATE INDEX IF NOT EXISTS idx_daily_aggregates_day ON daily_aggregates(entity_type, day);

CREATE TABLE IF NOT EXISTS weekly_aggregates (
	entity_id TEXT NOT NULL,
	entity_type TEXT NOT NULL,
	week_start TEXT NOT NULL,
	play_count INTEGER NOT NULL DEFAULT 0,
	total_duration REAL NOT NULL DEFAULT 0,
	average_completion REAL NOT NULL DEFAULT 0,
	PRIMARY KEY (entity_id, entity_type, week_start)
);

CREATE INDEX IF NOT EXISTS idx_weekly_aggregates_week ON weekly_aggregates(entity_type, week_start);

CREATE TABLE IF NOT EXISTS chart_snapshots (
	entity_id TEXT NOT NULL,
	entity_type TEXT NOT NULL,
	period_start TEXT NOT NULL,
	period_end TEXT NOT NULL,
	position INTEGER NOT NULL,
	plays_in_period INTEGER NOT NULL,
	PRIMARY KEY (entity_id, entity_type, period_start, period_end)
);

CREATE INDEX IF NOT EXISTS idx_chart_snapshots_period ON chart_snapshots(entity_type, period_start, period_end);
CREATE INDEX IF NOT EXISTS idx_chart_snapshots_entity ON chart_snapshots(entity_id, entity_type);

CREATE TABLE IF NOT EXISTS sessions (
	id TEXT PRIMARY KEY,
	start_time DATETIME NOT NULL,
	end_time DATETIME,
	track_ids TEXT  -- JSON array
);

CREATE TABLE IF NOT EXISTS entities (
	entity_id TEXT NOT NULL,
	entity_type TEXT NOT NULL,
	title TEXT NOT NULL,
	parent_id TEXT,
	subtitle TEXT,
	artwork_path TEXT,
	duration REAL,
	PRIMARY KEY (entity_id, entity_type)
);

CREATE TABLE IF NOT EXISTS settings (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL,
	updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
);
`
