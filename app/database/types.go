package database

import (
	"time"

	"github.com/lysyi3m/event-comb/app/card"
)

type Source struct {
	Name          string // Configuration source identifier derived from filename
	URL           string // Listing page URL from configuration
	Kind          string
	Title         string // <title> of the listing page
	ImageURL      string
	Language      string
	LastFetchedAt *time.Time
	NextFetchAt   *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type Snapshot struct {
	ID         int64
	SourceName string
	CapturedAt time.Time
	Payload    []byte           // canonical JSON document
	Raw        []card.RawRecord // input of the pipeline run, kept for reclassification
	Kept       int
	Dropped    int
	Unparsed   int
	CreatedAt  time.Time
}
