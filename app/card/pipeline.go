package card

import (
	"errors"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
)

// Result is the outcome of one pipeline run. Dropped records are not part of
// the snapshot; unparsed ones are, with an empty window.
type Result struct {
	Snapshot Snapshot
	Dropped  []Drop
	Unparsed []*UnparseableTimeError
	Buckets  map[Lifecycle]int
}

type Pipeline struct {
	Name        string
	Classifier  Classifier
	Bucketer    *Bucketer
	Selector    *Selector
	Concurrency int
}

func NewPipeline(name string, classifier Classifier, bucketer *Bucketer, selector *Selector) *Pipeline {
	return &Pipeline{
		Name:        name,
		Classifier:  classifier,
		Bucketer:    bucketer,
		Selector:    selector,
		Concurrency: 1,
	}
}

type outcome struct {
	record NormalizedRecord
	drop   *Drop
	diag   *UnparseableTimeError
}

func (p *Pipeline) Run(raw []RawRecord, capturedAt time.Time) Result {
	capturedAt = CaptureInstant(capturedAt)
	outcomes := p.enrichAll(raw, capturedAt)

	result := Result{Buckets: make(map[Lifecycle]int, 3)}
	var ongoing, upcoming, ended []NormalizedRecord

	for _, o := range outcomes {
		if o.drop != nil {
			slog.Debug("Card dropped", "source", p.Name, "title", o.drop.Title, "status", o.drop.Status, "reason", o.drop.Reason)
			result.Dropped = append(result.Dropped, *o.drop)
			continue
		}
		if o.diag != nil {
			slog.Warn("Unparseable time text", "source", p.Name, "title", o.record.Title, "progress", o.diag.Text, "reason", o.diag.Reason)
			result.Unparsed = append(result.Unparsed, o.diag)
		}

		result.Buckets[o.record.Lifecycle]++
		switch o.record.Lifecycle {
		case Ongoing:
			ongoing = append(ongoing, o.record)
		case Upcoming:
			upcoming = append(upcoming, o.record)
		case Ended:
			ended = append(ended, o.record)
		}
	}

	result.Snapshot = Snapshot{
		CapturedAt: capturedAt,
		Records:    p.Selector.Select(ongoing, upcoming, ended),
	}

	slog.Info("Cards classified",
		"source", p.Name,
		"total", len(raw),
		"ongoing", len(ongoing),
		"upcoming", len(upcoming),
		"ended", len(ended),
		"kept", len(result.Snapshot.Records),
		"dropped", len(result.Dropped),
		"unparsed", len(result.Unparsed))

	return result
}

// enrichAll keeps input order regardless of concurrency: each worker writes
// only its own index.
func (p *Pipeline) enrichAll(raw []RawRecord, capturedAt time.Time) []outcome {
	outcomes := make([]outcome, len(raw))

	if p.Concurrency <= 1 || len(raw) < 2 {
		for i, record := range raw {
			outcomes[i] = p.enrich(i, record, capturedAt)
		}
		return outcomes
	}

	var g errgroup.Group
	g.SetLimit(p.Concurrency)
	for i, record := range raw {
		g.Go(func() error {
			outcomes[i] = p.enrich(i, record, capturedAt)
			return nil
		})
	}
	_ = g.Wait()

	return outcomes
}

func (p *Pipeline) enrich(index int, raw RawRecord, capturedAt time.Time) outcome {
	if strings.TrimSpace(raw.Title) == "" || strings.TrimSpace(raw.StatusText) == "" {
		return outcome{drop: &Drop{Index: index, Title: raw.Title, Status: raw.StatusText, Reason: DropMalformed}}
	}

	lifecycle, ok := p.Bucketer.Bucket(raw.StatusText)
	if !ok {
		return outcome{drop: &Drop{Index: index, Title: raw.Title, Status: raw.StatusText, Reason: DropUnknownLifecycle}}
	}

	record := NormalizedRecord{
		RawRecord:  raw,
		Lifecycle:  lifecycle,
		Categories: p.Classifier.Classify(raw.Title),
	}

	window, err := Resolve(raw.ProgressText, lifecycle, capturedAt)
	if err != nil {
		var diag *UnparseableTimeError
		if !errors.As(err, &diag) {
			diag = &UnparseableTimeError{Text: raw.ProgressText, Reason: err.Error()}
		}
		return outcome{record: record, diag: diag}
	}
	record.Window = window

	return outcome{record: record}
}
