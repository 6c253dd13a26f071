package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/lysyi3m/event-comb/app/card"
	"github.com/lysyi3m/event-comb/app/database"
	"github.com/lysyi3m/event-comb/app/source"
)

type ProcessSourceTask struct {
	Task
	SourceConfig *source.Config
	fetcher      PageFetcher
	extractor    CardExtractor
	sourceRepo   database.SourceRepository
	publisher    *Publisher
	now          func() time.Time
}

func NewProcessSourceTask(sourceName string, sourceConfig *source.Config, fetcher PageFetcher, extractor CardExtractor, sourceRepo database.SourceRepository, publisher *Publisher) *ProcessSourceTask {
	return &ProcessSourceTask{
		Task:         NewTask(TaskTypeProcessSource, sourceName),
		SourceConfig: sourceConfig,
		fetcher:      fetcher,
		extractor:    extractor,
		sourceRepo:   sourceRepo,
		publisher:    publisher,
		now:          time.Now,
	}
}

func (t *ProcessSourceTask) Execute(ctx context.Context) error {

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if !t.SourceConfig.Settings.Enabled {
		slog.Debug("Source disabled, skipping", "source", t.SourceName)
		return nil
	}

	timeout := time.Duration(t.SourceConfig.Settings.Timeout) * time.Second
	data, err := t.fetcher.Fetch(ctx, t.SourceConfig.URL, timeout)
	if err != nil {
		return fmt.Errorf("failed to fetch source page: %w", err)
	}

	metadata, raw, err := t.extractor.Run(data, t.SourceConfig.URL, t.SourceConfig.Selectors)
	if err != nil {
		return fmt.Errorf("failed to extract cards: %w", err)
	}

	now := t.now()
	result := t.SourceConfig.NewPipeline().Run(raw, card.CaptureInstant(now))

	snapshotID, err := t.publisher.Publish(t.SourceName, t.SourceConfig.Settings.History, raw, result)
	if err != nil {
		return err
	}

	nextFetch := now.UTC().Add(time.Duration(t.SourceConfig.Settings.RefreshInterval) * time.Second)
	err = t.sourceRepo.UpdateSourceMetadata(t.SourceName, metadata.Title, metadata.ImageURL, metadata.Language, now.UTC(), nextFetch)
	if err != nil {
		return fmt.Errorf("failed to update source metadata and next fetch time: %w", err)
	}

	slog.Info("Task completed",
		"type", "ProcessSource",
		"source", t.SourceName,
		"duration", t.GetDuration(),
		"snapshot", snapshotID,
		"total", len(raw),
		"kept", len(result.Snapshot.Records),
		"dropped", len(result.Dropped),
		"unparsed", len(result.Unparsed))

	return nil
}
