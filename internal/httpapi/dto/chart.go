package dto

import (
	"time"

	"github.com/jacobreesgit/musicmemory/internal/domain"
)

const dateLayout = "2006-01-02"

// ChartRequest is a parsed and syntactically valid chart query. Semantic
// range rules (ordering, future dates, span limits) are enforced by the
// charts service.
type ChartRequest struct {
	EntityType domain.EntityType
	Start      time.Time
	End        time.Time
}

// ParseChartRequest validates the raw URL inputs of a chart query.
func ParseChartRequest(entityType, start, end string) (*ChartRequest, []ValidationError) {
	var errs []ValidationError

	et := domain.EntityType(entityType)
	if !et.Valid() {
		errs = append(errs, ValidationError{Field: "entityType", Message: "must be one of: track, release, performer"})
	}

	startTime, startErrs := parseDate("start", start)
	endTime, endErrs := parseDate("end", end)
	errs = append(errs, startErrs...)
	errs = append(errs, endErrs...)

	if len(errs) > 0 {
		return nil, errs
	}

	return &ChartRequest{EntityType: et, Start: startTime, End: endTime}, nil
}

// ParseDateRange validates a plain start/end query pair.
func ParseDateRange(start, end string) (time.Time, time.Time, []ValidationError) {
	var errs []ValidationError

	startTime, startErrs := parseDate("start", start)
	endTime, endErrs := parseDate("end", end)
	errs = append(errs, startErrs...)
	errs = append(errs, endErrs...)

	if len(errs) == 0 && startTime.After(endTime) {
		errs = append(errs, ValidationError{Field: "start", Message: "must not be after end"})
	}
	return startTime, endTime, errs
}

func parseDate(field, value string) (time.Time, []ValidationError) {
	if value == "" {
		return time.Time{}, []ValidationError{{Field: field, Message: "is required (format: YYYY-MM-DD)"}}
	}
	t, err := time.Parse(dateLayout, value)
	if err != nil {
		return time.Time{}, []ValidationError{{Field: field, Message: "invalid date format (expected: YYYY-MM-DD)"}}
	}
	return t, nil
}
