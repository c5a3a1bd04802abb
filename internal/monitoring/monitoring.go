package monitoring

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	nuts "github.com/vaudience/go-nuts"
)

const namespace = "triaxis"

// Service provides monitoring functionality
type Service struct {
	registry     *prometheus.Registry
	events       *prometheus.CounterVec
	jobsEnqueued *prometheus.CounterVec
	jobsFinished *prometheus.CounterVec
	jobDuration  *prometheus.HistogramVec
}

// NewService creates a new monitoring service with its own registry
func NewService() *Service {
	s := &Service{
		registry: prometheus.NewRegistry(),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_total",
			Help:      "Monitored events by name.",
		}, []string{"event"}),
		jobsEnqueued: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "jobs_enqueued_total",
			Help:      "Analysis jobs accepted by the queue.",
		}, []string{"kind"}),
		jobsFinished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "jobs_finished_total",
			Help:      "Analysis jobs finished, by outcome.",
		}, []string{"outcome"}),
		jobDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "job_duration_seconds",
			Help:      "Time spent executing analysis jobs.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"outcome"}),
	}
	s.registry.MustRegister(
		s.events, s.jobsEnqueued, s.jobsFinished, s.jobDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return s
}

// RecordEvent records a monitored event with labels
func (s *Service) RecordEvent(eventName string, labels map[string]string) {
	s.events.WithLabelValues(eventName).Inc()
	nuts.L.Debugf("[Monitoring] Event %s recorded with labels: %v", eventName, labels)
}

// JobEnqueued counts an accepted job
func (s *Service) JobEnqueued(kind string) {
	s.jobsEnqueued.WithLabelValues(kind).Inc()
}

// JobFinished counts a finished job and observes its run time
func (s *Service) JobFinished(outcome string, duration time.Duration) {
	s.jobsFinished.WithLabelValues(outcome).Inc()
	s.jobDuration.WithLabelValues(outcome).Observe(duration.Seconds())
}

// Registry exposes the underlying registry
func (s *Service) Registry() *prometheus.Registry {
	return s.registry
}

// Handler serves the metrics in the Prometheus exposition format
func (s *Service) Handler() http.Handler {
	return promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})
}
