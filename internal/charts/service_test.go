package charts

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jacobreesgit/musicmemory/internal/domain"
	"github.com/jacobreesgit/musicmemory/internal/logger"
)

// fakeStore satisfies the full Store surface with canned data.
type fakeStore struct {
	entities     map[string]domain.EntityMetadata
	events       []domain.PlayEvent
	daily        []domain.DailyAggregate
	weekly       []domain.WeeklyAggregate
	earliestWeek time.Time
	previous     map[string]int
	charted      map[string]bool

	eventQueries  int
	dailyQueries  int
	weeklyQueries int
	weeklyStart   time.Time
	savedPeriods  []time.Time
}

func (f *fakeStore) GetEntities(entityType domain.EntityType, ids []string) (map[string]domain.EntityMetadata, error) {
	result := make(map[string]domain.EntityMetadata)
	for _, id := range ids {
		if m, ok := f.entities[id]; ok {
			result[id] = m
		}
	}
	return result, nil
}

func (f *fakeStore) HasCharted(entityID string, entityType domain.EntityType, before time.Time) (bool, error) {
	return f.charted[entityID], nil
}

func (f *fakeStore) QueryEvents(start, end time.Time) ([]domain.PlayEvent, error) {
	f.eventQueries++
	return f.events, nil
}

func (f *fakeStore) QueryDailyAggregates(entityType domain.EntityType, start, end time.Time) ([]domain.DailyAggregate, error) {
	f.dailyQueries++
	return f.daily, nil
}

func (f *fakeStore) QueryWeeklyAggregates(entityType domain.EntityType, start, end time.Time) ([]domain.WeeklyAggregate, error) {
	f.weeklyQueries++
	f.weeklyStart = start
	return f.weekly, nil
}

func (f *fakeStore) EarliestWeekStart() (time.Time, error) {
	return f.earliestWeek, nil
}

func (f *fakeStore) PreviousPositions(entityType domain.EntityType, periodStart, periodEnd time.Time) (map[string]int, error) {
	return f.previous, nil
}

func (f *fakeStore) SaveChartSnapshots(entityType domain.EntityType, periodStart, periodEnd time.Time, entries []domain.ChartEntry) error {
	f.savedPeriods = append(f.savedPeriods, periodStart)
	return nil
}

func newTestService(store *fakeStore, now time.Time) *Service {
	svc := NewService(store, 5*time.Minute, 3650, logger.Default())
	svc.now = func() time.Time { return now }
	svc.cache.now = svc.now
	return svc
}

func storeWithTrack(id string) *fakeStore {
	return &fakeStore{
		entities: map[string]domain.EntityMetadata{
			id: {EntityID: id, EntityType: domain.EntityTrack, Title: "Title " + id},
		},
		events: []domain.PlayEvent{
			{TrackID: id, ReleaseID: "r1", PerformerID: "p1", PlayDuration: 180, CompletionFraction: 0.9},
		},
	}
}

func TestService_ValidateRange(t *testing.T) {
	now := day(2025, 6, 15)
	svc := newTestService(&fakeStore{}, now)

	tests := []struct {
		name       string
		entityType domain.EntityType
		start, end time.Time
		wantErr    error
	}{
		{"unknown entity type", "album", day(2025, 6, 1), day(2025, 6, 7), ErrInvalidEntityType},
		{"start after end", domain.EntityTrack, day(2025, 6, 7), day(2025, 6, 1), ErrStartAfterEnd},
		{"end in future", domain.EntityTrack, day(2025, 6, 1), day(2025, 6, 16), ErrEndInFuture},
		{"range too large", domain.EntityTrack, day(2010, 1, 1), day(2025, 6, 1), ErrRangeTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Calculate(context.Background(), tt.entityType, tt.start, tt.end)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestService_EndingTodayIsValid(t *testing.T) {
	now := time.Date(2025, 6, 15, 9, 30, 0, 0, time.UTC)
	svc := newTestService(storeWithTrack("t1"), now)

	if _, err := svc.Calculate(context.Background(), domain.EntityTrack, day(2025, 6, 9), day(2025, 6, 15)); err != nil {
		t.Errorf("Range ending today should be valid, got %v", err)
	}
}

func TestService_CacheHitReturnsSameChart(t *testing.T) {
	now := day(2025, 6, 15)
	store := storeWithTrack("t1")
	svc := newTestService(store, now)

	start, end := day(2025, 6, 1), day(2025, 6, 7)
	first, err := svc.Calculate(context.Background(), domain.EntityTrack, start, end)
	if err != nil {
		t.Fatalf("Calculate failed: %v", err)
	}
	second, err := svc.Calculate(context.Background(), domain.EntityTrack, start, end)
	if err != nil {
		t.Fatalf("Calculate failed: %v", err)
	}

	if first != second {
		t.Error("Second call inside the TTL must return the identical chart")
	}
	if store.eventQueries != 1 {
		t.Errorf("Expected 1 store query, got %d", store.eventQueries)
	}
}

func TestService_TierSelection(t *testing.T) {
	now := day(2025, 6, 15)

	t.Run("short range uses events", func(t *testing.T) {
		store := storeWithTrack("t1")
		svc := newTestService(store, now)

		chart, err := svc.Calculate(context.Background(), domain.EntityTrack, day(2025, 6, 1), day(2025, 6, 7))
		if err != nil {
			t.Fatalf("Calculate failed: %v", err)
		}
		if chart.Tier != domain.TierEvent {
			t.Errorf("Expected event tier, got %s", chart.Tier)
		}
		if store.eventQueries != 1 || store.dailyQueries != 0 {
			t.Errorf("Wrong tier queried: events=%d daily=%d", store.eventQueries, store.dailyQueries)
		}
	})

	t.Run("medium range uses daily rollups", func(t *testing.T) {
		store := storeWithTrack("t1")
		store.daily = []domain.DailyAggregate{{EntityID: "t1", PlayCount: 3, AverageCompletion: 0.9}}
		svc := newTestService(store, now)

		chart, err := svc.Calculate(context.Background(), domain.EntityTrack, day(2025, 1, 1), day(2025, 6, 1))
		if err != nil {
			t.Fatalf("Calculate failed: %v", err)
		}
		if chart.Tier != domain.TierDaily {
			t.Errorf("Expected daily tier, got %s", chart.Tier)
		}
		if store.dailyQueries != 1 || store.eventQueries != 0 {
			t.Errorf("Wrong tier queried: events=%d daily=%d", store.eventQueries, store.dailyQueries)
		}
	})

	t.Run("long range uses weekly rollups when covered", func(t *testing.T) {
		store := storeWithTrack("t1")
		store.weekly = []domain.WeeklyAggregate{{EntityID: "t1", PlayCount: 10, AverageCompletion: 0.8}}
		store.earliestWeek = day(2022, 1, 3)
		svc := newTestService(store, now)

		chart, err := svc.Calculate(context.Background(), domain.EntityTrack, day(2023, 1, 1), day(2025, 6, 1))
		if err != nil {
			t.Fatalf("Calculate failed: %v", err)
		}
		if chart.Tier != domain.TierWeekly {
			t.Errorf("Expected weekly tier, got %s", chart.Tier)
		}
		if store.weeklyQueries != 1 {
			t.Errorf("Expected weekly query, got %d", store.weeklyQueries)
		}
	})

	t.Run("long range falls back to daily without rollup coverage", func(t *testing.T) {
		store := storeWithTrack("t1")
		store.daily = []domain.DailyAggregate{{EntityID: "t1", PlayCount: 3, AverageCompletion: 0.9}}
		svc := newTestService(store, now)

		chart, err := svc.Calculate(context.Background(), domain.EntityTrack, day(2023, 1, 1), day(2025, 6, 1))
		if err != nil {
			t.Fatalf("Calculate failed: %v", err)
		}
		if chart.Tier != domain.TierDaily {
			t.Errorf("Expected daily fallback tier, got %s", chart.Tier)
		}
		if store.weeklyQueries != 0 || store.dailyQueries != 1 {
			t.Errorf("Wrong tier queried: weekly=%d daily=%d", store.weeklyQueries, store.dailyQueries)
		}
	})
}

func TestService_WeeklyTierQueriesFromWeekBoundary(t *testing.T) {
	now := day(2025, 6, 15)
	store := storeWithTrack("t1")
	store.weekly = []domain.WeeklyAggregate{{EntityID: "t1", PlayCount: 10, AverageCompletion: 0.8}}
	store.earliestWeek = day(2022, 1, 3)
	svc := newTestService(store, now)

	// Thursday 2023-01-05: the weekly tier reads whole weeks, so the query
	// widens back to the enclosing Monday.
	if _, err := svc.Calculate(context.Background(), domain.EntityTrack, day(2023, 1, 5), day(2025, 6, 1)); err != nil {
		t.Fatalf("Calculate failed: %v", err)
	}
	if want := day(2023, 1, 2); !store.weeklyStart.Equal(want) {
		t.Errorf("Expected weekly query from %s, got %s", want, store.weeklyStart)
	}
}

func TestService_MovementAgainstPreviousPeriod(t *testing.T) {
	now := day(2025, 6, 15)
	store := storeWithTrack("t1")
	store.previous = map[string]int{"t1": 3}
	svc := newTestService(store, now)

	chart, err := svc.Calculate(context.Background(), domain.EntityTrack, day(2025, 6, 1), day(2025, 6, 7))
	if err != nil {
		t.Fatalf("Calculate failed: %v", err)
	}
	if len(chart.Entries) != 1 {
		t.Fatalf("Expected 1 entry, got %d", len(chart.Entries))
	}
	if chart.Entries[0].Movement.Kind != domain.MovementUp || chart.Entries[0].Movement.Delta != 2 {
		t.Errorf("Expected up 2, got %+v", chart.Entries[0].Movement)
	}
}

func TestService_SnapshotsSavedForPeriod(t *testing.T) {
	now := day(2025, 6, 15)
	store := storeWithTrack("t1")
	svc := newTestService(store, now)

	start := day(2025, 6, 1)
	if _, err := svc.Calculate(context.Background(), domain.EntityTrack, start, day(2025, 6, 7)); err != nil {
		t.Fatalf("Calculate failed: %v", err)
	}
	if len(store.savedPeriods) != 1 || !store.savedPeriods[0].Equal(start) {
		t.Errorf("Expected snapshot saved for %s, got %v", start, store.savedPeriods)
	}
}

func TestService_DroppedEntitiesReported(t *testing.T) {
	now := day(2025, 6, 15)
	store := storeWithTrack("t1")
	store.events = append(store.events, domain.PlayEvent{
		TrackID: "unknown", ReleaseID: "r9", PerformerID: "p9", PlayDuration: 60, CompletionFraction: 0.85,
	})
	svc := newTestService(store, now)

	chart, err := svc.Calculate(context.Background(), domain.EntityTrack, day(2025, 6, 1), day(2025, 6, 7))
	if err != nil {
		t.Fatalf("Calculate failed: %v", err)
	}
	if chart.DroppedEntities != 1 {
		t.Errorf("Expected 1 dropped entity, got %d", chart.DroppedEntities)
	}
	if len(chart.Entries) != 1 {
		t.Errorf("Expected 1 charted entry, got %d", len(chart.Entries))
	}
}

func TestService_CalculateAsync(t *testing.T) {
	now := day(2025, 6, 15)
	svc := newTestService(storeWithTrack("t1"), now)

	result := <-svc.CalculateAsync(context.Background(), domain.EntityTrack, day(2025, 6, 1), day(2025, 6, 7))
	if result.Err != nil {
		t.Fatalf("CalculateAsync failed: %v", result.Err)
	}
	if result.Chart == nil || result.Chart.Tier != domain.TierEvent {
		t.Errorf("Unexpected async chart: %+v", result.Chart)
	}
}
