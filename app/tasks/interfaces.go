package tasks

import (
	"context"
	"time"

	"github.com/lysyi3m/event-comb/app/card"
	"github.com/lysyi3m/event-comb/app/scrape"
	"github.com/lysyi3m/event-comb/app/source"
)

// TaskSchedulerInterface defines the interface for task scheduling operations.
// Used by the main application and the API to run background work.
// Example usage:
//
//	scheduler := NewScheduler(configCache, sourceRepo, snapshotRepo, fetcher, extractor, publisher, metrics)
//	scheduler.Start()
//	defer scheduler.Stop()
//	scheduler.EnqueueTask(NewReclassifySourceTask(...))
type TaskSchedulerInterface interface {
	Start()
	Stop()
	EnqueueTask(task TaskInterface) error
}

type PageFetcher interface {
	Fetch(ctx context.Context, url string, timeout time.Duration) ([]byte, error)
}

type CardExtractor interface {
	Run(data []byte, pageURL string, sel source.Selectors) (*scrape.PageMetadata, []card.RawRecord, error)
}

type DocumentWriter interface {
	Write(sourceName string, data []byte) error
}

var (
	_ PageFetcher   = (*scrape.Fetcher)(nil)
	_ CardExtractor = (*scrape.Extractor)(nil)
)
