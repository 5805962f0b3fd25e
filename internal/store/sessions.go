package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jacobreesgit/musicmemory/internal/domain"
)

// SaveSession inserts or updates a listening session.
func (db *DB) SaveSession(s *domain.ListeningSession) error {
	_, err := db.NamedExec(`
		INSERT INTO sessions (id, start_time, end_time, track_ids)
		VALUES (:id, :start_time, :end_time, :track_ids)
		ON CONFLICT(id) DO UPDATE SET
			end_time = excluded.end_time,
			track_ids = excluded.track_ids
	`, s)
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// GetSession returns one session by ID, or nil when it does not exist.
func (db *DB) GetSession(id string) (*domain.ListeningSession, error) {
	var s domain.ListeningSession
	err := db.Get(&s, "SELECT * FROM sessions WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return &s, nil
}

// CloseSession marks a session as ended.
func (db *DB) CloseSession(id string, end time.Time) error {
	_, err := db.Exec("UPDATE sessions SET end_time = ? WHERE id = ? AND end_time IS NULL", end, id)
	if err != nil {
		return fmt.Errorf("failed to close session: %w", err)
	}
	return nil
}

// OpenSessions returns all sessions without an end time, oldest first. Used
// on startup and by the worker to close sessions left open past the idle gap.
func (db *DB) OpenSessions() ([]domain.ListeningSession, error) {
	var sessions []domain.ListeningSession
	err := db.Select(&sessions, "SELECT * FROM sessions WHERE end_time IS NULL ORDER BY start_time ASC")
	if err != nil {
		return nil, fmt.Errorf("failed to query open sessions: %w", err)
	}
	return sessions, nil
}
