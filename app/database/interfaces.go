package database

import (
	"time"
)

type SourceRepository interface {
	GetSource(sourceName string) (*Source, error)
	GetSourceCount() (int, error)

	UpsertSource(sourceName, sourceURL, kind string) error
	UpdateSourceMetadata(sourceName string, title string, imageURL string, language string, fetchedAt time.Time, nextFetch time.Time) error
}

type SnapshotRepository interface {
	SaveSnapshot(snapshot Snapshot) (int64, error)
	GetLatestSnapshot(sourceName string) (*Snapshot, error)
	GetSnapshotCount(sourceName string) (int, error)
	PruneSnapshots(sourceName string, keep int) (int64, error)
}

var (
	_ SourceRepository   = (*SourceRepo)(nil)
	_ SnapshotRepository = (*SnapshotRepo)(nil)
)
