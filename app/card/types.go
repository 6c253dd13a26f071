package card

import (
	"time"
)

// Location is the fixed UTC+8 zone every timestamp of a run is expressed in.
var Location = time.FixedZone("UTC+8", 8*60*60)

// RawRecord is one card as extracted from the listing page.
type RawRecord struct {
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	ImageURL     string   `json:"image_url"`
	StatusText   string   `json:"status"`
	ProgressText string   `json:"progress"`
	Tags         []string `json:"tags"`
}

type Lifecycle int

const (
	Unknown Lifecycle = iota
	Upcoming
	Ongoing
	Ended
)

func (l Lifecycle) String() string {
	switch l {
	case Upcoming:
		return "upcoming"
	case Ongoing:
		return "ongoing"
	case Ended:
		return "ended"
	default:
		return "unknown"
	}
}

// ParseLifecycle is the inverse of Lifecycle.String.
func ParseLifecycle(s string) Lifecycle {
	switch s {
	case "upcoming":
		return Upcoming
	case "ongoing":
		return Ongoing
	case "ended":
		return Ended
	default:
		return Unknown
	}
}

// TimeWindow holds the resolved bounds of a record. Either bound may be nil.
type TimeWindow struct {
	Start *time.Time
	End   *time.Time
}

func (w TimeWindow) IsEmpty() bool {
	return w.Start == nil && w.End == nil
}

// CategorySet is ordered by rule table priority and never empty.
type CategorySet []string

type NormalizedRecord struct {
	RawRecord
	Lifecycle  Lifecycle
	Categories CategorySet
	Window     TimeWindow
}

type Snapshot struct {
	CapturedAt time.Time
	Records    []NormalizedRecord
}

// CaptureInstant anchors t in UTC+8 and truncates it to the whole hour.
func CaptureInstant(t time.Time) time.Time {
	return t.In(Location).Truncate(time.Hour)
}

type DropReason string

const (
	DropMalformed        DropReason = "malformed"
	DropUnknownLifecycle DropReason = "unknown_lifecycle"
)

// Drop describes a raw record that did not make it into the snapshot.
type Drop struct {
	Index  int
	Title  string
	Status string
	Reason DropReason
}
