package library

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/jacobreesgit/musicmemory/internal/domain"
	"github.com/jacobreesgit/musicmemory/internal/logger"
)

type fakeEntityStore struct {
	upserts []domain.EntityMetadata
}

func (f *fakeEntityStore) UpsertEntity(m *domain.EntityMetadata) error {
	f.upserts = append(f.upserts, *m)
	return nil
}

func TestEntityID_Stable(t *testing.T) {
	a := EntityID(domain.EntityTrack, "Artist", "Album", "Song")
	b := EntityID(domain.EntityTrack, "Artist", "Album", "Song")
	if a != b {
		t.Errorf("Same inputs must produce the same ID: %s vs %s", a, b)
	}
	if len(a) != 16 {
		t.Errorf("Expected 16-char ID, got %d chars", len(a))
	}
}

func TestEntityID_NormalizesCaseAndSpace(t *testing.T) {
	a := EntityID(domain.EntityTrack, "Artist", "Album", "Song")
	b := EntityID(domain.EntityTrack, " artist ", "ALBUM", "song")
	if a != b {
		t.Error("IDs must be case and whitespace insensitive")
	}
}

func TestEntityID_TypeAndPartsDistinct(t *testing.T) {
	track := EntityID(domain.EntityTrack, "Artist", "Album")
	release := EntityID(domain.EntityRelease, "Artist", "Album")
	if track == release {
		t.Error("Different entity types must produce different IDs")
	}

	// Part boundaries matter: "ab"+"c" is not "a"+"bc".
	x := EntityID(domain.EntityTrack, "ab", "c")
	y := EntityID(domain.EntityTrack, "a", "bc")
	if x == y {
		t.Error("Part boundaries must be part of the hash")
	}
}

func TestScanner_EmptyLibrary(t *testing.T) {
	store := &fakeEntityStore{}
	s := NewScanner(t.TempDir(), t.TempDir(), store, logger.Default())

	stats, err := s.Scan(context.Background())
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if stats.Tracks != 0 || stats.Skipped != 0 {
		t.Errorf("Expected empty stats, got %+v", stats)
	}
	if len(store.upserts) != 0 {
		t.Errorf("Expected no upserts, got %d", len(store.upserts))
	}
}

func TestScanner_SkipsUnreadableAudio(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "broken.flac"), []byte("not a flac"), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	// Non-audio files are not audio, so they are ignored, not skipped.
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("hello"), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	store := &fakeEntityStore{}
	s := NewScanner(dir, t.TempDir(), store, logger.Default())

	stats, err := s.Scan(context.Background())
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if stats.Skipped != 1 {
		t.Errorf("Expected 1 skipped file, got %d", stats.Skipped)
	}
	if stats.Tracks != 0 || len(store.upserts) != 0 {
		t.Errorf("Broken files must not produce entities: %+v", stats)
	}
}

func TestScanner_CancelledContext(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "a.flac"), []byte("x"), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := NewScanner(dir, t.TempDir(), &fakeEntityStore{}, logger.Default())
	if _, err := s.Scan(ctx); err == nil {
		t.Error("Expected error when the scan context is cancelled")
	}
}

func TestReadTags_UnsupportedExtension(t *testing.T) {
	if _, err := readTags("/tmp/file.ogg"); err == nil {
		t.Error("Expected error for unsupported extension")
	}
}

func TestFLACDuration(t *testing.T) {
	// StreamInfo block: 44100 Hz, 44100 * 60 samples = 60 seconds.
	data := make([]byte, 18)
	sampleRate := 44100
	data[10] = byte(sampleRate >> 12)
	data[11] = byte(sampleRate >> 4)
	data[12] = byte(sampleRate&0x0F) << 4
	totalSamples := int64(sampleRate) * 60
	data[13] = byte(totalSamples >> 32 & 0x0F)
	data[14] = byte(totalSamples >> 24)
	data[15] = byte(totalSamples >> 16)
	data[16] = byte(totalSamples >> 8)
	data[17] = byte(totalSamples)

	if got := flacDuration(data); got != 60 {
		t.Errorf("Expected 60 seconds, got %f", got)
	}
}

func TestFLACDuration_ShortBlock(t *testing.T) {
	if got := flacDuration([]byte{1, 2, 3}); got != 0 {
		t.Errorf("Expected 0 for truncated block, got %f", got)
	}
}
