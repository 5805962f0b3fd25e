package charts

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jacobreesgit/musicmemory/internal/domain"
	"github.com/jacobreesgit/musicmemory/internal/logger"
)

// Validation failures surfaced to callers before any ranking work happens.
var (
	ErrInvalidEntityType = errors.New("invalid entity type")
	ErrStartAfterEnd     = errors.New("start date is after end date")
	ErrEndInFuture       = errors.New("end date is in the future")
	ErrRangeTooLarge     = errors.New("date range exceeds maximum span")
)

// Store is the read surface the service computes charts from, plus the
// snapshot writes that back movement tracking.
type Store interface {
	MetadataStore
	HistoryStore
	QueryEvents(start, end time.Time) ([]domain.PlayEvent, error)
	QueryDailyAggregates(entityType domain.EntityType, start, end time.Time) ([]domain.DailyAggregate, error)
	QueryWeeklyAggregates(entityType domain.EntityType, start, end time.Time) ([]domain.WeeklyAggregate, error)
	EarliestWeekStart() (time.Time, error)
	PreviousPositions(entityType domain.EntityType, periodStart, periodEnd time.Time) (map[string]int, error)
	SaveChartSnapshots(entityType domain.EntityType, periodStart, periodEnd time.Time, entries []domain.ChartEntry) error
}

// Service answers chart requests: validate, consult the cache, pick a tier,
// rank, diff against the previous period and snapshot the result.
type Service struct {
	store        Store
	cache        *Cache
	log          *logger.Logger
	maxRangeDays int
	now          func() time.Time
}

func NewService(store Store, cacheTTL time.Duration, maxRangeDays int, log *logger.Logger) *Service {
	return &Service{
		store:        store,
		cache:        NewCache(cacheTTL),
		log:          log.WithComponent("charts"),
		maxRangeDays: maxRangeDays,
		now:          time.Now,
	}
}

// Cache exposes the service's cache for freshness-sensitive callers.
func (s *Service) Cache() *Cache {
	return s.cache
}

// Calculate returns the ranked chart for one entity type and date range,
// served from cache when a fresh entry exists.
func (s *Service) Calculate(ctx context.Context, entityType domain.EntityType, start, end time.Time) (*domain.Chart, error) {
	if err := s.validateRange(entityType, start, end); err != nil {
		return nil, err
	}

	if chart, ok := s.cache.Get(entityType, start, end); ok {
		return chart, nil
	}

	chart, err := s.compute(ctx, entityType, start, end)
	if err != nil {
		return nil, err
	}

	s.cache.Put(chart)
	return chart, nil
}

// Result carries an asynchronously computed chart.
type Result struct {
	Chart *domain.Chart
	Err   error
}

// CalculateAsync runs Calculate on its own goroutine so chart computation
// never blocks the ingestion path. The result channel receives exactly one
// value.
func (s *Service) CalculateAsync(ctx context.Context, entityType domain.EntityType, start, end time.Time) <-chan Result {
	out := make(chan Result, 1)
	go func() {
		chart, err := s.Calculate(ctx, entityType, start, end)
		out <- Result{Chart: chart, Err: err}
		close(out)
	}()
	return out
}

func (s *Service) validateRange(entityType domain.EntityType, start, end time.Time) error {
	if !entityType.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidEntityType, entityType)
	}
	if start.After(end) {
		return fmt.Errorf("%w: %s > %s", ErrStartAfterEnd, start.Format("2006-01-02"), end.Format("2006-01-02"))
	}
	if DaySpan(s.now(), end) > 0 {
		return fmt.Errorf("%w: %s", ErrEndInFuture, end.Format("2006-01-02"))
	}
	if DaySpan(start, end) > s.maxRangeDays {
		return fmt.Errorf("%w: %d days (max %d)", ErrRangeTooLarge, DaySpan(start, end), s.maxRangeDays)
	}
	return nil
}

func (s *Service) compute(ctx context.Context, entityType domain.EntityType, start, end time.Time) (*domain.Chart, error) {
	tier := SelectTier(start, end)

	records, tier, err := s.loadRecords(entityType, start, end, tier)
	if err != nil {
		return nil, err
	}

	entries, dropped, err := Rank(entityType, records, s.store)
	if err != nil {
		return nil, err
	}
	if dropped > 0 {
		s.log.Warn("entities dropped from chart, metadata unresolved",
			"entity_type", entityType, "dropped", dropped)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Diff against the chart stored for the immediately preceding period of
	// the same length.
	span := DaySpan(start, end)
	prevEnd := start.AddDate(0, 0, -1)
	prevStart := prevEnd.AddDate(0, 0, -span)

	previous, err := s.store.PreviousPositions(entityType, prevStart, prevEnd)
	if err != nil {
		// A failed lookup degrades to a chart with no movement history.
		s.log.Error("previous chart lookup failed", "entity_type", entityType, "error", err)
		previous = nil
	}
	ApplyMovement(entries, previous, entityType, start, s.store, s.log)

	if err := s.store.SaveChartSnapshots(entityType, start, end, entries); err != nil {
		s.log.Error("failed to persist chart snapshots", "entity_type", entityType, "error", err)
	}

	return &domain.Chart{
		EntityType:      entityType,
		Start:           start,
		End:             end,
		Tier:            tier,
		Entries:         entries,
		ComputedAt:      s.now(),
		DroppedEntities: dropped,
	}, nil
}

// loadRecords queries the selected tier. The weekly tier falls back to daily
// rollups when the requested range predates weekly rollup coverage; the
// returned tier reflects what was actually used.
func (s *Service) loadRecords(entityType domain.EntityType, start, end time.Time, tier domain.Tier) ([]Record, domain.Tier, error) {
	switch tier {
	case domain.TierEvent:
		events, err := s.store.QueryEvents(start, endOfDay(end))
		if err != nil {
			return nil, tier, err
		}
		return RecordsFromEvents(entityType, events), tier, nil

	case domain.TierWeekly:
		earliest, err := s.store.EarliestWeekStart()
		if err == nil && !earliest.IsZero() && !earliest.After(WeekStart(start)) {
			aggs, err := s.store.QueryWeeklyAggregates(entityType, WeekStart(start), end)
			if err != nil {
				return nil, tier, err
			}
			return RecordsFromWeekly(aggs), domain.TierWeekly, nil
		}
		if err != nil {
			s.log.Error("weekly coverage lookup failed, using daily tier", "error", err)
		}
		fallthrough

	default:
		aggs, err := s.store.QueryDailyAggregates(entityType, start, end)
		if err != nil {
			return nil, domain.TierDaily, err
		}
		return RecordsFromDaily(aggs), domain.TierDaily, nil
	}
}

func endOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 23, 59, 59, int(time.Second-time.Nanosecond), t.Location())
}
