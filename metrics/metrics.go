// Copyright 2022 The mhttp Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package metrics provides Prometheus metrics for a client. It tracks
// enqueued requests, started and completed operations, retries,
// timeouts, the number of operations in flight, and operation latency.
package metrics

import (
	"github.com/mwiki/mhttp"
	"github.com/mwiki/mhttp/request"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Namespace for all metrics
const Namespace = "mhttp"

// A Recorder holds the metrics of one or more clients. Install it in a
// client's handler group to record that client's events.
type Recorder struct {
	// Enqueued counts requests submitted to a scheduler, including
	// retries
	Enqueued prometheus.Counter
	// Started counts operations started
	Started prometheus.Counter
	// Completed counts finished operations by outcome, transient error
	// category, and mode (queued or sync)
	Completed *prometheus.CounterVec
	// Retries counts automatic retries
	Retries prometheus.Counter
	// Timeouts counts operations which timed out
	Timeouts prometheus.Counter
	// InFlight tracks operations currently executing
	InFlight prometheus.Gauge
	// Duration measures operation latency by outcome
	Duration *prometheus.HistogramVec
}

// NewRecorder creates a Recorder whose metrics are registered with reg.
// If reg is nil, the metrics are created but not registered.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		Enqueued: f.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "requests_enqueued_total",
			Help:      "Total requests submitted to the scheduler",
		}),
		Started: f.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "operations_started_total",
			Help:      "Total operations started",
		}),
		Completed: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "operations_completed_total",
			Help:      "Total operations completed by outcome, error category and mode",
		}, []string{"outcome", "category", "mode"}),
		Retries: f.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "retries_total",
			Help:      "Total automatic retries",
		}),
		Timeouts: f.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "operation_timeouts_total",
			Help:      "Total operations which timed out",
		}),
		InFlight: f.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "operations_in_flight",
			Help:      "Number of operations currently executing",
		}),
		Duration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "operation_duration_seconds",
			Help:      "Operation latency distribution by outcome",
			Buckets:   []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"outcome"}),
	}
}

// Install adds the recorder's handlers to g.
func (rec *Recorder) Install(g *mhttp.HandlerGroup) {
	if g == nil {
		panic("mhttp/metrics: nil handler group")
	}

	g.PushBack(mhttp.AfterEnqueue, mhttp.HandlerFunc(rec.enqueued))
	g.PushBack(mhttp.BeforeStart, mhttp.HandlerFunc(rec.started))
	g.PushBack(mhttp.AfterAttemptTimeout, mhttp.HandlerFunc(rec.timedOut))
	g.PushBack(mhttp.AfterComplete, mhttp.HandlerFunc(rec.completed))
	g.PushBack(mhttp.BeforeRetry, mhttp.HandlerFunc(rec.retried))
}

func (rec *Recorder) enqueued(_ mhttp.Event, _ *request.Request) {
	rec.Enqueued.Inc()
}

func (rec *Recorder) started(_ mhttp.Event, _ *request.Request) {
	rec.Started.Inc()
	rec.InFlight.Inc()
}

func (rec *Recorder) timedOut(_ mhttp.Event, _ *request.Request) {
	rec.Timeouts.Inc()
}

func (rec *Recorder) completed(_ mhttp.Event, r *request.Request) {
	rec.InFlight.Dec()
	m := r.Metadata()
	outcome := r.Result().Outcome.String()
	category, mode := "none", "queued"
	if m != nil {
		category = m.Category.Name()
		if m.Sync {
			mode = "sync"
		}
		rec.Duration.WithLabelValues(outcome).Observe(m.Duration().Seconds())
	}
	rec.Completed.WithLabelValues(outcome, category, mode).Inc()
}

func (rec *Recorder) retried(_ mhttp.Event, _ *request.Request) {
	rec.Retries.Inc()
}
