package store

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/jacobreesgit/musicmemory/internal/domain"
)

// UpsertEntity writes one metadata row, replacing any prior value.
func (db *DB) UpsertEntity(m *domain.EntityMetadata) error {
	_, err := db.NamedExec(`
		INSERT INTO entities (entity_id, entity_type, title, parent_id, subtitle, artwork_path, duration)
		VALUES (:entity_id, :entity_type, :title, :parent_id, :subtitle, :artwork_path, :duration)
		ON CONFLICT(entity_id, entity_type) DO UPDATE SET
			title = excluded.title,
			parent_id = excluded.parent_id,
			subtitle = excluded.subtitle,
			artwork_path = excluded.artwork_path,
			duration = excluded.duration
	`, m)
	if err != nil {
		return fmt.Errorf("failed to upsert entity: %w", err)
	}
	return nil
}

// GetEntity returns metadata for one entity, or nil when unknown.
func (db *DB) GetEntity(entityID string, entityType domain.EntityType) (*domain.EntityMetadata, error) {
	var m domain.EntityMetadata
	err := db.Get(&m, "SELECT * FROM entities WHERE entity_id = ? AND entity_type = ?", entityID, string(entityType))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get entity: %w", err)
	}
	return &m, nil
}

// GetEntities batch-resolves metadata for a set of entity IDs of one type.
// IDs without a row are simply absent from the result map.
func (db *DB) GetEntities(entityType domain.EntityType, ids []string) (map[string]domain.EntityMetadata, error) {
	if len(ids) == 0 {
		return map[string]domain.EntityMetadata{}, nil
	}

	query, args, err := sqlx.In(
		"SELECT * FROM entities WHERE entity_type = ? AND entity_id IN (?)",
		string(entityType), ids)
	if err != nil {
		return nil, fmt.Errorf("failed to build entity query: %w", err)
	}

	var rows []domain.EntityMetadata
	if err := db.Select(&rows, db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to query entities: %w", err)
	}

	result := make(map[string]domain.EntityMetadata, len(rows))
	for _, m := range rows {
		result[m.EntityID] = m
	}
	return result, nil
}

// CountEntities returns the number of metadata rows for one entity type.
func (db *DB) CountEntities(entityType domain.EntityType) (int, error) {
	var count int
	err := db.Get(&count, "SELECT COUNT(*) FROM entities WHERE entity_type = ?", string(entityType))
	if err != nil {
		return 0, fmt.Errorf("failed to count entities: %w", err)
	}
	return count, nil
}
