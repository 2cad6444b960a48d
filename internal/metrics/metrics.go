// Package metrics provides Prometheus collectors for the pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the collectors incremented by the orchestrator and the
// task sweeper.
type Metrics struct {
	MessagesProcessed   *prometheus.CounterVec // by summary type and urgency
	ValidationRejects   prometheus.Counter
	ClassifierFallbacks prometheus.Counter
	TemporalResolutions *prometheus.CounterVec // by resolution method
	TasksCreated        *prometheus.CounterVec // by priority
	TasksSweptMissed    prometheus.Counter
	FeedbackRecorded    *prometheus.CounterVec // by rating
	ProcessDuration     prometheus.Histogram
	BatchDuration       prometheus.Histogram
}

// New creates and registers all collectors on reg. Pass
// prometheus.DefaultRegisterer in production wiring and a fresh registry in
// tests.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		MessagesProcessed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "inbrief_messages_processed_total",
				Help: "Messages classified, by summary type and urgency",
			},
			[]string{"type", "urgency"},
		),
		ValidationRejects: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "inbrief_validation_rejects_total",
				Help: "Messages rejected before classification",
			},
		),
		ClassifierFallbacks: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "inbrief_classifier_fallbacks_total",
				Help: "Classifications where no rule matched",
			},
		),
		TemporalResolutions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "inbrief_temporal_resolutions_total",
				Help: "Schedule resolutions, by method",
			},
			[]string{"method"},
		),
		TasksCreated: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "inbrief_tasks_created_total",
				Help: "Tasks synthesized, by priority",
			},
			[]string{"priority"},
		),
		TasksSweptMissed: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "inbrief_tasks_swept_missed_total",
				Help: "Pending tasks marked missed by the sweeper",
			},
		),
		FeedbackRecorded: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "inbrief_feedback_recorded_total",
				Help: "Feedback events appended, by rating",
			},
			[]string{"rating"},
		),
		ProcessDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "inbrief_process_duration_seconds",
				Help:    "Duration of single message processing",
				Buckets: prometheus.DefBuckets,
			},
		),
		BatchDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "inbrief_batch_duration_seconds",
				Help:    "Duration of batch runs",
				Buckets: prometheus.DefBuckets,
			},
		),
	}
}
