package charts

import (
	"errors"
	"math"
	"testing"

	"github.com/jacobreesgit/musicmemory/internal/domain"
)

type fakeMeta struct {
	entities map[string]domain.EntityMetadata
	err      error
}

func (f *fakeMeta) GetEntities(entityType domain.EntityType, ids []string) (map[string]domain.EntityMetadata, error) {
	if f.err != nil {
		return nil, f.err
	}
	result := make(map[string]domain.EntityMetadata)
	for _, id := range ids {
		if m, ok := f.entities[id]; ok {
			result[id] = m
		}
	}
	return result, nil
}

func metaFor(ids ...string) *fakeMeta {
	entities := make(map[string]domain.EntityMetadata)
	for _, id := range ids {
		entities[id] = domain.EntityMetadata{EntityID: id, Title: "Title " + id}
	}
	return &fakeMeta{entities: entities}
}

func TestRank_OrderAndPositions(t *testing.T) {
	records := []Record{
		{EntityID: "b", PlayCount: 2, CompletionSum: 1.8},
		{EntityID: "a", PlayCount: 5, CompletionSum: 4.5},
		{EntityID: "c", PlayCount: 2, CompletionSum: 2.0},
	}

	entries, dropped, err := Rank(domain.EntityTrack, records, metaFor("a", "b", "c"))
	if err != nil {
		t.Fatalf("Rank failed: %v", err)
	}
	if dropped != 0 {
		t.Errorf("Expected no drops, got %d", dropped)
	}

	wantOrder := []string{"a", "b", "c"} // ties broken by entity ID
	if len(entries) != len(wantOrder) {
		t.Fatalf("Expected %d entries, got %d", len(wantOrder), len(entries))
	}
	for i, want := range wantOrder {
		if entries[i].EntityID != want {
			t.Errorf("Position %d: expected %s, got %s", i+1, want, entries[i].EntityID)
		}
		if entries[i].Position != i+1 {
			t.Errorf("Expected position %d, got %d", i+1, entries[i].Position)
		}
	}
}

func TestRank_GroupsRecordsForSameEntity(t *testing.T) {
	records := []Record{
		{EntityID: "a", PlayCount: 2, TotalDuration: 400, CompletionSum: 1.6},
		{EntityID: "a", PlayCount: 3, TotalDuration: 500, CompletionSum: 3.0},
	}

	entries, _, err := Rank(domain.EntityTrack, records, metaFor("a"))
	if err != nil {
		t.Fatalf("Rank failed: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("Expected 1 entry, got %d", len(entries))
	}

	e := entries[0]
	if e.PlayCount != 5 {
		t.Errorf("Expected play count 5, got %d", e.PlayCount)
	}
	if e.TotalDuration != 900 {
		t.Errorf("Expected total duration 900, got %f", e.TotalDuration)
	}
	// Weighted mean across both records: (1.6 + 3.0) / 5
	if math.Abs(e.AverageCompletion-0.92) > 1e-9 {
		t.Errorf("Expected average completion 0.92, got %f", e.AverageCompletion)
	}
}

func TestRank_DropsUnresolvedEntities(t *testing.T) {
	records := []Record{
		{EntityID: "known", PlayCount: 1, CompletionSum: 1},
		{EntityID: "ghost", PlayCount: 9, CompletionSum: 9},
	}

	entries, dropped, err := Rank(domain.EntityTrack, records, metaFor("known"))
	if err != nil {
		t.Fatalf("Rank failed: %v", err)
	}
	if dropped != 1 {
		t.Errorf("Expected 1 dropped entity, got %d", dropped)
	}
	if len(entries) != 1 || entries[0].EntityID != "known" {
		t.Errorf("Expected only the resolved entity to chart, got %+v", entries)
	}
	if entries[0].Position != 1 {
		t.Errorf("Positions must be contiguous after drops, got %d", entries[0].Position)
	}
}

func TestRank_SkipsEmptyEntityIDs(t *testing.T) {
	records := []Record{
		{EntityID: "", PlayCount: 3, CompletionSum: 3},
		{EntityID: "a", PlayCount: 1, CompletionSum: 1},
	}

	entries, dropped, err := Rank(domain.EntityTrack, records, metaFor("a"))
	if err != nil {
		t.Fatalf("Rank failed: %v", err)
	}
	if dropped != 0 {
		t.Errorf("Empty IDs are skipped, not dropped; got %d drops", dropped)
	}
	if len(entries) != 1 {
		t.Errorf("Expected 1 entry, got %d", len(entries))
	}
}

func TestRank_ReleaseCountsDistinctTracks(t *testing.T) {
	records := []Record{
		{EntityID: "rel1", PlayCount: 1, CompletionSum: 1, TrackID: "t1", ReleaseID: "rel1"},
		{EntityID: "rel1", PlayCount: 1, CompletionSum: 1, TrackID: "t2", ReleaseID: "rel1"},
		{EntityID: "rel1", PlayCount: 1, CompletionSum: 1, TrackID: "t1", ReleaseID: "rel1"},
	}

	entries, _, err := Rank(domain.EntityRelease, records, metaFor("rel1"))
	if err != nil {
		t.Fatalf("Rank failed: %v", err)
	}
	if entries[0].DistinctTracks != 2 {
		t.Errorf("Expected 2 distinct tracks, got %d", entries[0].DistinctTracks)
	}
}

func TestRank_PerformerCountsTracksAndReleases(t *testing.T) {
	records := []Record{
		{EntityID: "p1", PlayCount: 1, CompletionSum: 1, TrackID: "t1", ReleaseID: "r1"},
		{EntityID: "p1", PlayCount: 1, CompletionSum: 1, TrackID: "t2", ReleaseID: "r1"},
		{EntityID: "p1", PlayCount: 1, CompletionSum: 1, TrackID: "t3", ReleaseID: "r2"},
	}

	entries, _, err := Rank(domain.EntityPerformer, records, metaFor("p1"))
	if err != nil {
		t.Fatalf("Rank failed: %v", err)
	}
	if entries[0].DistinctTracks != 3 {
		t.Errorf("Expected 3 distinct tracks, got %d", entries[0].DistinctTracks)
	}
	if entries[0].DistinctReleases != 2 {
		t.Errorf("Expected 2 distinct releases, got %d", entries[0].DistinctReleases)
	}
}

func TestRank_MetadataError(t *testing.T) {
	meta := &fakeMeta{err: errors.New("db closed")}
	_, _, err := Rank(domain.EntityTrack, []Record{{EntityID: "a", PlayCount: 1}}, meta)
	if err == nil {
		t.Fatal("Expected error when metadata lookup fails")
	}
}

func TestRecordsFromEvents_ProjectsEntityType(t *testing.T) {
	events := []domain.PlayEvent{
		{TrackID: "t1", ReleaseID: "r1", PerformerID: "p1", PlayDuration: 180, CompletionFraction: 0.9},
	}

	records := RecordsFromEvents(domain.EntityPerformer, events)
	if len(records) != 1 {
		t.Fatalf("Expected 1 record, got %d", len(records))
	}
	if records[0].EntityID != "p1" {
		t.Errorf("Expected performer ID, got %s", records[0].EntityID)
	}
	if records[0].PlayCount != 1 || records[0].CompletionSum != 0.9 {
		t.Errorf("Unexpected record: %+v", records[0])
	}
}

func TestRecordsFromDaily_PreservesWeightedCompletion(t *testing.T) {
	aggs := []domain.DailyAggregate{
		{EntityID: "a", PlayCount: 4, TotalDuration: 720, AverageCompletion: 0.75},
	}

	records := RecordsFromDaily(aggs)
	if math.Abs(records[0].CompletionSum-3.0) > 1e-9 {
		t.Errorf("Expected completion sum 3.0, got %f", records[0].CompletionSum)
	}
}
