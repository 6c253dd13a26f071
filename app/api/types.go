package api

import (
	"net/http"

	"github.com/lysyi3m/event-comb/app/card"
	"github.com/lysyi3m/event-comb/app/database"
	"github.com/lysyi3m/event-comb/app/output"
	"github.com/lysyi3m/event-comb/app/source"
	"github.com/lysyi3m/event-comb/app/tasks"
)

type GeneratorInterface interface {
	Run(src database.Source, snapshot card.Snapshot) (string, error)
}

var _ GeneratorInterface = (*output.Generator)(nil)

type Handler struct {
	sourceRepo     database.SourceRepository
	snapshotRepo   database.SnapshotRepository
	generator      GeneratorInterface
	configCache    *source.ConfigCache
	publisher      *tasks.Publisher
	scheduler      tasks.TaskSchedulerInterface
	metricsHandler http.Handler
}
