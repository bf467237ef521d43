// Package metrics counts relay outcomes and translation hops. The relay is a
// batch job, so metrics are written to a node-exporter textfile after each
// run instead of being scraped.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Recorder is safe to use as a nil pointer; every method is then a no-op.
type Recorder struct {
	registry *prometheus.Registry

	posts       *prometheus.CounterVec
	hops        *prometheus.CounterVec
	hopDuration *prometheus.HistogramVec
	lastRun     prometheus.Gauge
}

func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		posts: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "feedmunger_posts_total", Help: "Relayed posts by outcome"},
			[]string{"outcome"},
		),
		hops: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "feedmunger_translation_hops_total", Help: "Translation hops by service and status"},
			[]string{"service", "status"},
		),
		hopDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{Name: "feedmunger_translation_hop_duration_seconds", Help: "Translation hop latency", Buckets: prometheus.DefBuckets},
			[]string{"service"},
		),
		lastRun: prometheus.NewGauge(
			prometheus.GaugeOpts{Name: "feedmunger_last_run_timestamp_seconds", Help: "Unix time of the last completed relay run"},
		),
	}
	r.registry.MustRegister(r.posts, r.hops, r.hopDuration, r.lastRun)
	return r
}

// Post counts one post with the given outcome.
func (r *Recorder) Post(outcome string) {
	if r == nil {
		return
	}
	r.posts.WithLabelValues(outcome).Inc()
}

// Hop records one translation call. Cached and failed hops are counted but
// not timed.
func (r *Recorder) Hop(service, status string, latency time.Duration) {
	if r == nil {
		return
	}
	r.hops.WithLabelValues(service, status).Inc()
	if status != StatusCached && status != StatusError {
		r.hopDuration.WithLabelValues(service).Observe(latency.Seconds())
	}
}

// RunFinished stamps the completion time of a run.
func (r *Recorder) RunFinished(at time.Time) {
	if r == nil {
		return
	}
	r.lastRun.Set(float64(at.Unix()))
}

// Hop statuses.
const (
	StatusOK     = "ok"
	StatusCached = "cached"
	StatusEmpty  = "empty"
	StatusError  = "error"
)

// WriteTextfile writes every metric to path atomically in the text
// exposition format. An empty path is a no-op.
func (r *Recorder) WriteTextfile(path string) error {
	if r == nil || path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("write metrics to %s: %w", path, err)
	}
	return nil
}

// Gatherer exposes the private registry.
func (r *Recorder) Gatherer() prometheus.Gatherer {
	return r.registry
}
