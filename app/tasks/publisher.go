package tasks

import (
	"fmt"
	"log/slog"

	"github.com/lysyi3m/event-comb/app/card"
	"github.com/lysyi3m/event-comb/app/database"
	"github.com/lysyi3m/event-comb/app/metrics"
	"github.com/lysyi3m/event-comb/app/output"
)

// Publisher stores a pipeline result as the source's newest snapshot and
// replaces its JSON document.
type Publisher struct {
	snapshotRepo database.SnapshotRepository
	writer       DocumentWriter
	metrics      *metrics.Metrics
}

func NewPublisher(snapshotRepo database.SnapshotRepository, writer DocumentWriter, m *metrics.Metrics) *Publisher {
	return &Publisher{
		snapshotRepo: snapshotRepo,
		writer:       writer,
		metrics:      m,
	}
}

// Publish returns the id of the stored snapshot. history <= 0 keeps every
// snapshot.
func (p *Publisher) Publish(sourceName string, history int, raw []card.RawRecord, result card.Result) (int64, error) {
	payload, err := output.Encode(sourceName, result.Snapshot)
	if err != nil {
		return 0, err
	}

	// A failed write leaves no stored snapshot behind.
	if err := p.writer.Write(sourceName, payload); err != nil {
		return 0, fmt.Errorf("failed to write snapshot document: %w", err)
	}

	id, err := p.snapshotRepo.SaveSnapshot(database.Snapshot{
		SourceName: sourceName,
		CapturedAt: result.Snapshot.CapturedAt,
		Payload:    payload,
		Raw:        raw,
		Kept:       len(result.Snapshot.Records),
		Dropped:    len(result.Dropped),
		Unparsed:   len(result.Unparsed),
	})
	if err != nil {
		return 0, fmt.Errorf("failed to save snapshot: %w", err)
	}

	if pruned, err := p.snapshotRepo.PruneSnapshots(sourceName, history); err != nil {
		slog.Warn("Failed to prune snapshot history", "source", sourceName, "error", err)
	} else if pruned > 0 {
		slog.Debug("Pruned snapshot history", "source", sourceName, "deleted", pruned)
	}

	p.metrics.ObserveResult(sourceName, result)

	return id, nil
}
