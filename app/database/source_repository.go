package database

import (
	"database/sql"
	"fmt"
	"time"
)

// SourceRepo handles database operations for sources
type SourceRepo struct {
	db *DB
}

func NewSourceRepository(db *DB) *SourceRepo {
	return &SourceRepo{db: db}
}

// UpsertSource inserts a source or refreshes its URL and kind
func (r *SourceRepo) UpsertSource(sourceName, sourceURL, kind string) error {
	now := formatTimestamp(time.Now())
	_, err := r.db.Exec(`
		INSERT INTO sources (name, url, kind, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (name) DO UPDATE SET
			url = excluded.url,
			kind = excluded.kind,
			updated_at = excluded.updated_at
	`, sourceName, sourceURL, kind, now, now)

	if err != nil {
		return fmt.Errorf("failed to upsert source: %w", err)
	}

	return nil
}

// UpdateSourceMetadata records page metadata and scheduling after a successful fetch
func (r *SourceRepo) UpdateSourceMetadata(sourceName string, title string, imageURL string, language string, fetchedAt time.Time, nextFetch time.Time) error {
	result, err := r.db.Exec(`
		UPDATE sources
		SET title = ?, image_url = ?, language = ?, last_fetched_at = ?, next_fetch_at = ?, updated_at = ?
		WHERE name = ?
	`, title, imageURL, language, formatTimestamp(fetchedAt), formatTimestamp(nextFetch), formatTimestamp(time.Now()), sourceName)

	if err != nil {
		return fmt.Errorf("failed to update source metadata: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update source metadata: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("source not found: %s", sourceName)
	}

	return nil
}

// GetSource returns nil without error when the source is unknown
func (r *SourceRepo) GetSource(sourceName string) (*Source, error) {
	var src Source
	var lastFetched, nextFetch sql.NullString
	var createdAt, updatedAt string

	err := r.db.QueryRow(`
		SELECT name, url, kind, title, image_url, language,
		       last_fetched_at, next_fetch_at, created_at, updated_at
		FROM sources
		WHERE name = ?
	`, sourceName).Scan(
		&src.Name, &src.URL, &src.Kind, &src.Title, &src.ImageURL, &src.Language,
		&lastFetched, &nextFetch, &createdAt, &updatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get source: %w", err)
	}

	if src.LastFetchedAt, err = parseNullTimestamp(lastFetched); err != nil {
		return nil, err
	}
	if src.NextFetchAt, err = parseNullTimestamp(nextFetch); err != nil {
		return nil, err
	}
	if src.CreatedAt, err = parseTimestamp(createdAt); err != nil {
		return nil, err
	}
	if src.UpdatedAt, err = parseTimestamp(updatedAt); err != nil {
		return nil, err
	}

	return &src, nil
}

func (r *SourceRepo) GetSourceCount() (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM sources").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get source count: %w", err)
	}
	return count, nil
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTimestamp(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid stored timestamp %q: %w", s, err)
	}
	return t, nil
}

func parseNullTimestamp(s sql.NullString) (*time.Time, error) {
	if !s.Valid {
		return nil, nil
	}
	t, err := parseTimestamp(s.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
