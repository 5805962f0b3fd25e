// Package charts computes ranked play charts from events and rollups.
package charts

import (
	"time"

	"github.com/jacobreesgit/musicmemory/internal/constants"
	"github.com/jacobreesgit/musicmemory/internal/domain"
)

// SelectTier picks the query granularity for a date range. Short ranges go
// to raw events for maximum fidelity; longer ones to daily rollups; anything
// beyond a year to weekly rollups.
func SelectTier(start, end time.Time) domain.Tier {
	d := DaySpan(start, end)
	switch {
	case d <= constants.EventTierMaxDays:
		return domain.TierEvent
	case d <= constants.DailyTierMaxDays:
		return domain.TierDaily
	default:
		return domain.TierWeekly
	}
}

// DaySpan returns end minus start in whole calendar days.
func DaySpan(start, end time.Time) int {
	return int(truncateDay(end).Sub(truncateDay(start)).Hours() / 24)
}

// WeekStart returns the Monday of the ISO week containing t, at midnight.
func WeekStart(t time.Time) time.Time {
	t = truncateDay(t)
	weekday := int(t.Weekday())
	if weekday == 0 {
		weekday = 7 // Sunday
	}
	return t.AddDate(0, 0, 1-weekday)
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
