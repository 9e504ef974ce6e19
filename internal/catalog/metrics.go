package catalog

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	labelCollection = "collection"
	labelOutcome    = "outcome"
	labelShared     = "shared"

	outcomeOK    = "ok"
	outcomeError = "error"
	outcomeStale = "stale"
)

type StoreMetrics struct {
	Fetches  *prometheus.CounterVec
	Duration *prometheus.HistogramVec
	Waiters  *prometheus.CounterVec
}

func NewStoreMetrics(reg prometheus.Registerer) *StoreMetrics {
	m := &StoreMetrics{
		Fetches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "catalog_repository_fetch_total",
				Help: "Repository fetches by outcome",
			},
			[]string{labelCollection, labelOutcome},
		),
		Duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "catalog_repository_fetch_duration_seconds",
				Help: "Repository fetch latency",
			},
			[]string{labelCollection},
		),
		Waiters: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "catalog_fetch_waiters_total",
				Help: "Callers that waited on a fetch, by whether the flight was shared",
			},
			[]string{labelCollection, labelShared},
		),
	}

	reg.MustRegister(m.Fetches, m.Duration, m.Waiters)
	return m
}

func (m *StoreMetrics) observeFetch(collection, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.Fetches.WithLabelValues(collection, outcome).Inc()
	m.Duration.WithLabelValues(collection).Observe(d.Seconds())
}

func (m *StoreMetrics) observeWaiter(collection string, shared bool) {
	if m == nil {
		return
	}
	m.Waiters.WithLabelValues(collection, strconv.FormatBool(shared)).Inc()
}
