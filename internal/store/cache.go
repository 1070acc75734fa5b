package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// GetCached reads a generated-content cache entry by (id, partition).
// The second return reports whether an entry exists.
func (s *SQLiteStore) GetCached(ctx context.Context, id, partition string) (string, bool, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT payload FROM content_cache WHERE id = ? AND partition = ?`,
		id, partition,
	)
	var payload string
	if err := row.Scan(&payload); err != nil {
		if err == sql.ErrNoRows {
			return "", false, nil
		}
		return "", false, fmt.Errorf("get cached %s/%s: %w", partition, id, err)
	}
	return payload, true, nil
}

// UpsertCached writes a generated-content cache entry, overwriting any
// previous payload for the same (id, partition). No versioning, last write
// wins.
func (s *SQLiteStore) UpsertCached(ctx context.Context, id, partition, payload string) error {
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO content_cache (id, partition, payload, updated_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(id, partition) DO UPDATE SET
			payload=excluded.payload,
			updated_at=excluded.updated_at`,
		id, partition, payload, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("upsert cached %s/%s: %w", partition, id, err)
	}
	return nil
}
