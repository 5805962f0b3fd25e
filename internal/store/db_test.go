package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/jacobreesgit/musicmemory/internal/domain"
)

func setupTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := NewSQLiteDB(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to open db: %v", err)
	}
	t.Cleanup(func() {
		if cErr := db.Close(); cErr != nil {
			t.Logf("db.Close error: %v", cErr)
		}
	})
	return db
}

func testEvent(id, trackID string, ts time.Time, completion float64) *domain.PlayEvent {
	return &domain.PlayEvent{
		ID:                 id,
		TrackID:            trackID,
		ReleaseID:          "r1",
		PerformerID:        "p1",
		Timestamp:          ts,
		PlayDuration:       180,
		CompletionFraction: completion,
		Source:             domain.SourceLocal,
		SessionID:          "s1",
	}
}
