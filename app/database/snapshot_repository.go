package database

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lysyi3m/event-comb/app/card"
)

// SnapshotRepo handles database operations for snapshot history
type SnapshotRepo struct {
	db *DB
}

func NewSnapshotRepository(db *DB) *SnapshotRepo {
	return &SnapshotRepo{db: db}
}

// SaveSnapshot stores a snapshot and returns its id
func (r *SnapshotRepo) SaveSnapshot(snapshot Snapshot) (int64, error) {
	raw := snapshot.Raw
	if raw == nil {
		raw = []card.RawRecord{}
	}
	rawData, err := json.Marshal(raw)
	if err != nil {
		return 0, fmt.Errorf("failed to encode raw records: %w", err)
	}

	result, err := r.db.Exec(`
		INSERT INTO snapshots (source_name, captured_at, payload, raw, kept, dropped, unparsed, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, snapshot.SourceName, formatTimestamp(snapshot.CapturedAt), snapshot.Payload, rawData,
		snapshot.Kept, snapshot.Dropped, snapshot.Unparsed, formatTimestamp(time.Now()))

	if err != nil {
		return 0, fmt.Errorf("failed to save snapshot: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get snapshot id: %w", err)
	}

	return id, nil
}

// GetLatestSnapshot returns nil without error when the source has no history
func (r *SnapshotRepo) GetLatestSnapshot(sourceName string) (*Snapshot, error) {
	var snapshot Snapshot
	var capturedAt, createdAt string
	var rawData []byte

	err := r.db.QueryRow(`
		SELECT id, source_name, captured_at, payload, raw, kept, dropped, unparsed, created_at
		FROM snapshots
		WHERE source_name = ?
		ORDER BY id DESC
		LIMIT 1
	`, sourceName).Scan(
		&snapshot.ID, &snapshot.SourceName, &capturedAt, &snapshot.Payload, &rawData,
		&snapshot.Kept, &snapshot.Dropped, &snapshot.Unparsed, &createdAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest snapshot: %w", err)
	}

	captured, err := parseTimestamp(capturedAt)
	if err != nil {
		return nil, err
	}
	snapshot.CapturedAt = captured.In(card.Location)

	if snapshot.CreatedAt, err = parseTimestamp(createdAt); err != nil {
		return nil, err
	}

	if err := json.Unmarshal(rawData, &snapshot.Raw); err != nil {
		return nil, fmt.Errorf("failed to decode raw records: %w", err)
	}

	return &snapshot, nil
}

func (r *SnapshotRepo) GetSnapshotCount(sourceName string) (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM snapshots WHERE source_name = ?", sourceName).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get snapshot count: %w", err)
	}
	return count, nil
}

// PruneSnapshots keeps the newest keep snapshots of a source. keep <= 0 disables pruning.
func (r *SnapshotRepo) PruneSnapshots(sourceName string, keep int) (int64, error) {
	if keep <= 0 {
		return 0, nil
	}

	result, err := r.db.Exec(`
		DELETE FROM snapshots
		WHERE source_name = ?
		  AND id NOT IN (
			SELECT id FROM snapshots
			WHERE source_name = ?
			ORDER BY id DESC
			LIMIT ?
		  )
	`, sourceName, sourceName, keep)

	if err != nil {
		return 0, fmt.Errorf("failed to prune snapshots: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count pruned snapshots: %w", err)
	}

	return deleted, nil
}
