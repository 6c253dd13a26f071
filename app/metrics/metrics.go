package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/lysyi3m/event-comb/app/card"
)

const namespace = "eventcomb"

type Metrics struct {
	cardsTotal    *prometheus.CounterVec
	droppedTotal  *prometheus.CounterVec
	unparsedTotal *prometheus.CounterVec
	snapshotCards *prometheus.GaugeVec
	taskDuration  *prometheus.HistogramVec
}

// New registers the collectors with reg. Tests pass a private registry,
// the service passes prometheus.DefaultRegisterer.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		cardsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cards_total",
			Help:      "Cards kept in published snapshots by lifecycle",
		}, []string{"source", "lifecycle"}),
		droppedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cards_dropped_total",
			Help:      "Scraped cards excluded from snapshots by reason",
		}, []string{"source", "reason"}),
		unparsedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "time_unparsed_total",
			Help:      "Cards whose progress text could not be resolved to a time window",
		}, []string{"source"}),
		snapshotCards: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "snapshot_cards",
			Help:      "Number of cards in the latest snapshot",
		}, []string{"source"}),
		taskDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "task_duration_seconds",
			Help:      "Time spent executing scheduler tasks",
			Buckets:   prometheus.DefBuckets,
		}, []string{"type"}),
	}

	reg.MustRegister(
		m.cardsTotal, m.droppedTotal, m.unparsedTotal,
		m.snapshotCards, m.taskDuration,
	)

	return m
}

// ObserveResult records the outcome of one pipeline run.
func (m *Metrics) ObserveResult(sourceName string, result card.Result) {
	if m == nil {
		return
	}

	for _, record := range result.Snapshot.Records {
		m.cardsTotal.WithLabelValues(sourceName, record.Lifecycle.String()).Inc()
	}
	for _, drop := range result.Dropped {
		m.droppedTotal.WithLabelValues(sourceName, string(drop.Reason)).Inc()
	}
	if len(result.Unparsed) > 0 {
		m.unparsedTotal.WithLabelValues(sourceName).Add(float64(len(result.Unparsed)))
	}
	m.snapshotCards.WithLabelValues(sourceName).Set(float64(len(result.Snapshot.Records)))
}

func (m *Metrics) ObserveTask(taskType string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.taskDuration.WithLabelValues(taskType).Observe(elapsed.Seconds())
}
