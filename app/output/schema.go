package output

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/lysyi3m/event-comb/app/card"
)

// Document is the canonical JSON layout of a snapshot. The schema is the
// same for every source kind.
type Document struct {
	CrawlTime string         `json:"crawl_time"`
	Source    string         `json:"source"`
	Cards     []DocumentCard `json:"cards"`
}

type DocumentCard struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	ImageURL    string   `json:"image_url"`
	Status      string   `json:"status"`
	Lifecycle   string   `json:"lifecycle"`
	Tags        []string `json:"tags"`
	Categories  []string `json:"categories"`
	Progress    string   `json:"progress"`
	StartTime   *string  `json:"start_time"`
	EndTime     *string  `json:"end_time"`
}

func NewDocument(sourceName string, snapshot card.Snapshot) Document {
	doc := Document{
		CrawlTime: formatTime(snapshot.CapturedAt),
		Source:    sourceName,
		Cards:     make([]DocumentCard, 0, len(snapshot.Records)),
	}

	for _, record := range snapshot.Records {
		tags := record.Tags
		if tags == nil {
			tags = []string{}
		}
		doc.Cards = append(doc.Cards, DocumentCard{
			Title:       record.Title,
			Description: record.Description,
			ImageURL:    record.ImageURL,
			Status:      record.StatusText,
			Lifecycle:   record.Lifecycle.String(),
			Tags:        tags,
			Categories:  []string(record.Categories),
			Progress:    record.ProgressText,
			StartTime:   formatOptional(record.Window.Start),
			EndTime:     formatOptional(record.Window.End),
		})
	}

	return doc
}

// Encode renders the snapshot as indented JSON.
func Encode(sourceName string, snapshot card.Snapshot) ([]byte, error) {
	data, err := json.MarshalIndent(NewDocument(sourceName, snapshot), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode snapshot: %w", err)
	}
	return data, nil
}

// Decode reads a document back into a snapshot.
func Decode(data []byte) (string, card.Snapshot, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return "", card.Snapshot{}, fmt.Errorf("failed to decode snapshot: %w", err)
	}

	capturedAt, err := time.Parse(time.RFC3339, doc.CrawlTime)
	if err != nil {
		return "", card.Snapshot{}, fmt.Errorf("invalid crawl_time %q: %w", doc.CrawlTime, err)
	}

	snapshot := card.Snapshot{
		CapturedAt: capturedAt.In(card.Location),
		Records:    make([]card.NormalizedRecord, 0, len(doc.Cards)),
	}

	for i, c := range doc.Cards {
		start, err := parseOptional(c.StartTime)
		if err != nil {
			return "", card.Snapshot{}, fmt.Errorf("card %d: %w", i, err)
		}
		end, err := parseOptional(c.EndTime)
		if err != nil {
			return "", card.Snapshot{}, fmt.Errorf("card %d: %w", i, err)
		}

		snapshot.Records = append(snapshot.Records, card.NormalizedRecord{
			RawRecord: card.RawRecord{
				Title:        c.Title,
				Description:  c.Description,
				ImageURL:     c.ImageURL,
				StatusText:   c.Status,
				ProgressText: c.Progress,
				Tags:         c.Tags,
			},
			Lifecycle:  card.ParseLifecycle(c.Lifecycle),
			Categories: card.CategorySet(c.Categories),
			Window:     card.TimeWindow{Start: start, End: end},
		})
	}

	return doc.Source, snapshot, nil
}

func formatTime(t time.Time) string {
	return t.In(card.Location).Format(time.RFC3339)
}

func formatOptional(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := formatTime(*t)
	return &s
}

func parseOptional(s *string) (*time.Time, error) {
	if s == nil {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, *s)
	if err != nil {
		return nil, fmt.Errorf("invalid timestamp %q: %w", *s, err)
	}
	t = t.In(card.Location)
	return &t, nil
}
