package charts

import (
	"fmt"
	"sort"

	"github.com/jacobreesgit/musicmemory/internal/domain"
)

// Record is one unit of play data fed into ranking, normalized from either
// raw events or rollup rows.
type Record struct {
	EntityID      string
	PlayCount     int
	TotalDuration float64
	// CompletionSum is the sum of completion fractions across the record's
	// plays, so a weighted mean survives mixing records of different sizes.
	CompletionSum float64
	// Child refs, populated only for event-tier records.
	TrackID   string
	ReleaseID string
}

// RecordsFromEvents projects raw events onto the requested entity type.
func RecordsFromEvents(entityType domain.EntityType, events []domain.PlayEvent) []Record {
	records := make([]Record, 0, len(events))
	for _, e := range events {
		records = append(records, Record{
			EntityID:      e.EntityID(entityType),
			PlayCount:     1,
			TotalDuration: e.PlayDuration,
			CompletionSum: e.CompletionFraction,
			TrackID:       e.TrackID,
			ReleaseID:     e.ReleaseID,
		})
	}
	return records
}

// RecordsFromDaily converts daily rollup rows.
func RecordsFromDaily(aggs []domain.DailyAggregate) []Record {
	records := make([]Record, 0, len(aggs))
	for _, a := range aggs {
		records = append(records, Record{
			EntityID:      a.EntityID,
			PlayCount:     a.PlayCount,
			TotalDuration: a.TotalDuration,
			CompletionSum: a.AverageCompletion * float64(a.PlayCount),
		})
	}
	return records
}

// RecordsFromWeekly converts weekly rollup rows.
func RecordsFromWeekly(aggs []domain.WeeklyAggregate) []Record {
	records := make([]Record, 0, len(aggs))
	for _, a := range aggs {
		records = append(records, Record{
			EntityID:      a.EntityID,
			PlayCount:     a.PlayCount,
			TotalDuration: a.TotalDuration,
			CompletionSum: a.AverageCompletion * float64(a.PlayCount),
		})
	}
	return records
}

// MetadataStore resolves entity metadata in batch.
type MetadataStore interface {
	GetEntities(entityType domain.EntityType, ids []string) (map[string]domain.EntityMetadata, error)
}

type group struct {
	playCount     int
	totalDuration float64
	completionSum float64
	tracks        map[string]struct{}
	releases      map[string]struct{}
}

// Rank groups records by entity, joins metadata and assigns 1-based
// positions. Entities whose metadata cannot be resolved are dropped; the
// count of dropped groups is returned for observability.
//
// Sorting is by play count descending with entity ID as the tie-break: map
// iteration order is not deterministic, so the secondary key is what makes
// repeated computations produce identical charts.
func Rank(entityType domain.EntityType, records []Record, meta MetadataStore) ([]domain.ChartEntry, int, error) {
	groups := make(map[string]*group)
	for _, r := range records {
		if r.EntityID == "" {
			continue
		}
		g, ok := groups[r.EntityID]
		if !ok {
			g = &group{
				tracks:   make(map[string]struct{}),
				releases: make(map[string]struct{}),
			}
			groups[r.EntityID] = g
		}
		g.playCount += r.PlayCount
		g.totalDuration += r.TotalDuration
		g.completionSum += r.CompletionSum
		if r.TrackID != "" {
			g.tracks[r.TrackID] = struct{}{}
		}
		if r.ReleaseID != "" {
			g.releases[r.ReleaseID] = struct{}{}
		}
	}

	ids := make([]string, 0, len(groups))
	for id := range groups {
		ids = append(ids, id)
	}

	metadata, err := meta.GetEntities(entityType, ids)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to resolve metadata: %w", err)
	}

	entries := make([]domain.ChartEntry, 0, len(groups))
	dropped := 0
	for id, g := range groups {
		m, ok := metadata[id]
		if !ok {
			dropped++
			continue
		}

		entry := domain.ChartEntry{
			EntityID:          id,
			EntityType:        entityType,
			Title:             m.Title,
			Subtitle:          m.Subtitle,
			ArtworkPath:       m.ArtworkPath,
			PlayCount:         g.playCount,
			TotalDuration:     g.totalDuration,
			AverageCompletion: g.completionSum / float64(g.playCount),
		}
		switch entityType {
		case domain.EntityRelease:
			entry.DistinctTracks = len(g.tracks)
		case domain.EntityPerformer:
			entry.DistinctTracks = len(g.tracks)
			entry.DistinctReleases = len(g.releases)
		}
		entries = append(entries, entry)
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].PlayCount != entries[j].PlayCount {
			return entries[i].PlayCount > entries[j].PlayCount
		}
		return entries[i].EntityID < entries[j].EntityID
	})

	for i := range entries {
		entries[i].Position = i + 1
	}

	return entries, dropped, nil
}
