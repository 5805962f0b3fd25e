// Package library populates entity metadata by scanning a local music
// directory and reading its audio tags.
package library

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/jacobreesgit/musicmemory/internal/constants"
	"github.com/jacobreesgit/musicmemory/internal/domain"
	"github.com/jacobreesgit/musicmemory/internal/logger"
)

// EntityStore receives the metadata rows the scanner produces.
type EntityStore interface {
	UpsertEntity(*domain.EntityMetadata) error
}

// Stats summarizes one scan pass.
type Stats struct {
	Tracks     int `json:"tracks"`
	Releases   int `json:"releases"`
	Performers int `json:"performers"`
	Skipped    int `json:"skipped"`
}

type Scanner struct {
	libraryDir string
	artworkDir string
	store      EntityStore
	log        *logger.Logger
}

func NewScanner(libraryDir, artworkDir string, store EntityStore, log *logger.Logger) *Scanner {
	return &Scanner{
		libraryDir: libraryDir,
		artworkDir: artworkDir,
		store:      store,
		log:        log.WithComponent("library"),
	}
}

// Scan walks the library directory and upserts track, release and performer
// metadata derived from file tags. Unreadable files are skipped, not fatal.
func (s *Scanner) Scan(ctx context.Context) (*Stats, error) {
	if err := os.MkdirAll(s.artworkDir, constants.DirPermissions); err != nil {
		return nil, fmt.Errorf("failed to create artwork dir: %w", err)
	}

	stats := &Stats{}
	seenReleases := make(map[string]bool)
	seenPerformers := make(map[string]bool)

	err := filepath.WalkDir(s.libraryDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() {
			return nil
		}

		ext := strings.ToLower(filepath.Ext(path))
		if ext != constants.ExtFLAC && ext != constants.ExtMP3 {
			return nil
		}

		tags, err := readTags(path)
		if err != nil {
			s.log.Warn("skipping unreadable file", "path", path, "error", err)
			stats.Skipped++
			return nil
		}

		s.index(tags, stats, seenReleases, seenPerformers)
		return nil
	})
	if err != nil {
		return stats, fmt.Errorf("library scan failed: %w", err)
	}

	s.log.Info("library scan finished",
		"tracks", stats.Tracks,
		"releases", stats.Releases,
		"performers", stats.Performers,
		"skipped", stats.Skipped)
	return stats, nil
}

func (s *Scanner) index(tags *fileTags, stats *Stats, seenReleases, seenPerformers map[string]bool) {
	performerName := tags.AlbumArtist
	if performerName == "" {
		performerName = "Unknown Artist"
	}
	albumName := tags.Album
	if albumName == "" {
		albumName = "Unknown Album"
	}

	performerID := EntityID(domain.EntityPerformer, performerName)
	releaseID := EntityID(domain.EntityRelease, performerName, albumName)
	trackID := EntityID(domain.EntityTrack, performerName, albumName, tags.Title)

	artworkPath := ""
	if tags.Artwork != nil {
		artworkPath = s.saveArtwork(releaseID, tags.Artwork, tags.ArtworkMIME)
	}

	if !seenPerformers[performerID] {
		seenPerformers[performerID] = true
		stats.Performers++
		s.upsert(&domain.EntityMetadata{
			EntityID:    performerID,
			EntityType:  domain.EntityPerformer,
			Title:       performerName,
			ArtworkPath: artworkPath,
		})
	}

	if !seenReleases[releaseID] {
		seenReleases[releaseID] = true
		stats.Releases++
		s.upsert(&domain.EntityMetadata{
			EntityID:    releaseID,
			EntityType:  domain.EntityRelease,
			Title:       albumName,
			ParentID:    performerID,
			Subtitle:    performerName,
			ArtworkPath: artworkPath,
		})
	}

	stats.Tracks++
	s.upsert(&domain.EntityMetadata{
		EntityID:    trackID,
		EntityType:  domain.EntityTrack,
		Title:       tags.Title,
		ParentID:    releaseID,
		Subtitle:    tags.Artist,
		ArtworkPath: artworkPath,
		Duration:    tags.Duration,
	})
}

func (s *Scanner) upsert(m *domain.EntityMetadata) {
	if err := s.store.UpsertEntity(m); err != nil {
		s.log.Error("failed to upsert entity", "entity_id", m.EntityID, "error", err)
	}
}

// saveArtwork writes embedded art once per release and returns its path.
func (s *Scanner) saveArtwork(releaseID string, data []byte, mime string) string {
	ext := ".jpg"
	if strings.Contains(mime, "png") {
		ext = ".png"
	}
	path := filepath.Join(s.artworkDir, releaseID+ext)

	if _, err := os.Stat(path); err == nil {
		return path
	}
	if err := os.WriteFile(path, data, constants.FilePermissions); err != nil {
		s.log.Warn("failed to write artwork", "path", path, "error", err)
		return ""
	}
	return path
}

// EntityID derives a stable identifier from an entity's normalized naming
// path. The same tags always map to the same ID across rescans, which is
// what lets play events join back to metadata.
func EntityID(entityType domain.EntityType, parts ...string) string {
	h := sha1.New()
	h.Write([]byte(entityType))
	for _, p := range parts {
		h.Write([]byte{0})
		h.Write([]byte(strings.ToLower(strings.TrimSpace(p))))
	}
	return hex.EncodeToString(h.Sum(nil))[:16]
}
