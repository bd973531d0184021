package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the timeline service.
// Tracks reconstruction counts, emitted events and upstream fetch behaviour.
type Metrics struct {
	TimelinesBuilt   prometheus.Counter
	EventsEmitted    prometheus.Counter
	EventsExcluded   prometheus.Counter
	RegistryFetches  prometheus.Counter
	CacheHits        prometheus.Counter
	BuildDuration    prometheus.Histogram
	RegistryDuration prometheus.Histogram
}

// New creates a Metrics instance with all timeline metrics registered on the
// default registry.
func New() *Metrics {
	return &Metrics{
		TimelinesBuilt: promauto.NewCounter(prometheus.CounterOpts{
			Name: "virkdata_timelines_built_total",
			Help: "Total number of company timelines reconstructed",
		}),
		EventsEmitted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "virkdata_timeline_events_total",
			Help: "Total number of change events emitted across all timelines",
		}),
		EventsExcluded: promauto.NewCounter(prometheus.CounterOpts{
			Name: "virkdata_timeline_events_excluded_total",
			Help: "Total number of transitions excluded because no date could be determined",
		}),
		RegistryFetches: promauto.NewCounter(prometheus.CounterOpts{
			Name: "virkdata_registry_fetches_total",
			Help: "Total number of upstream registry API calls",
		}),
		CacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Name: "virkdata_registry_cache_hits_total",
			Help: "Total number of payloads served from the Redis cache",
		}),
		BuildDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "virkdata_timeline_build_duration_seconds",
			Help:    "Duration of timeline reconstruction",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1},
		}),
		RegistryDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "virkdata_registry_fetch_duration_seconds",
			Help:    "Duration of upstream registry fetches",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
	}
}

// ObserveBuild records one reconstruction with its event and exclusion counts.
func (m *Metrics) ObserveBuild(start time.Time, events, excluded int) {
	m.TimelinesBuilt.Inc()
	m.EventsEmitted.Add(float64(events))
	m.EventsExcluded.Add(float64(excluded))
	m.BuildDuration.Observe(time.Since(start).Seconds())
}

// ObserveRegistryFetch records one upstream registry call.
func (m *Metrics) ObserveRegistryFetch(start time.Time) {
	m.RegistryFetches.Inc()
	m.RegistryDuration.Observe(time.Since(start).Seconds())
}
