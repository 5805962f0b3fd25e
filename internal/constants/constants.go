// Package constants contains application-wide constants to avoid magic numbers and strings.
package constants

import "time"

// Application defaults
const (
	DefaultPort           = "8080"
	DefaultDBPath         = "musicmemory.db"
	DefaultLibraryDir     = "Music"
	DefaultArtworkDir     = "artwork"
	DefaultPollInterval   = 500 * time.Millisecond
	DefaultChartCacheTTL  = 5 * time.Minute
	DefaultMaxRangeDays   = 3650
	DefaultSessionIdleGap = 30 * time.Minute
	DefaultRollupInterval = 15 * time.Minute
)

// Completion thresholds. A play counts when the track ends naturally with
// at least half heard, or when the listened fraction crosses the
// high-completion mark regardless of how the track ends.
const (
	NaturalEndRemaining    = 5 * time.Second
	NaturalEndMinFraction  = 0.5
	HighCompletionFraction = 0.8
	SoftIdleAfterStop      = 5 * time.Second
)

// Query tier boundaries in whole days.
const (
	EventTierMaxDays = 30
	DailyTierMaxDays = 365
)

// File extensions recognized by the library scanner.
const (
	ExtFLAC = ".flac"
	ExtMP3  = ".mp3"
)

// File permissions
const (
	DirPermissions  = 0755
	FilePermissions = 0644
)

// HTTP
const (
	MaxHistoryItems = 100
)
