package tasks

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/lysyi3m/event-comb/app/database"
	"github.com/lysyi3m/event-comb/app/source"
)

// ReclassifySourceTask re-runs the pipeline over the raw records of the latest
// snapshot with the current configuration. The capture instant is kept, so
// relative progress text resolves to the same window as before.
type ReclassifySourceTask struct {
	Task
	SourceConfig *source.Config
	snapshotRepo database.SnapshotRepository
	publisher    *Publisher
}

func NewReclassifySourceTask(sourceName string, sourceConfig *source.Config, snapshotRepo database.SnapshotRepository, publisher *Publisher) *ReclassifySourceTask {
	return &ReclassifySourceTask{
		Task:         NewTask(TaskTypeReclassifySource, sourceName),
		SourceConfig: sourceConfig,
		snapshotRepo: snapshotRepo,
		publisher:    publisher,
	}
}

func (t *ReclassifySourceTask) Execute(ctx context.Context) error {

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	latest, err := t.snapshotRepo.GetLatestSnapshot(t.SourceName)
	if err != nil {
		return fmt.Errorf("failed to get latest snapshot: %w", err)
	}
	if latest == nil {
		slog.Debug("No snapshot to reclassify", "source", t.SourceName)
		return nil
	}

	result := t.SourceConfig.NewPipeline().Run(latest.Raw, latest.CapturedAt)

	snapshotID, err := t.publisher.Publish(t.SourceName, t.SourceConfig.Settings.History, latest.Raw, result)
	if err != nil {
		return err
	}

	slog.Info("Task completed",
		"type", "ReclassifySource",
		"source", t.SourceName,
		"duration", t.GetDuration(),
		"from_snapshot", latest.ID,
		"snapshot", snapshotID,
		"kept", len(result.Snapshot.Records),
		"dropped", len(result.Dropped))

	return nil
}
