package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	model "github.com/nerdfunk-net/cockpit-ng-sub003/pkg/bulkops/core/domain/model"
	metrics "github.com/nerdfunk-net/cockpit-ng-sub003/pkg/bulkops/core/metrics"
	logger "github.com/nerdfunk-net/cockpit-ng-sub003/pkg/bulkops/support/util/logger"
)

// PrometheusRecorder is a Prometheus implementation of the
// metrics.MetricRecorder interface.
type PrometheusRecorder struct {
	registry *prometheus.Registry

	submissionCounter   *prometheus.CounterVec
	pollCounter         *prometheus.CounterVec
	compositeStateGauge *prometheus.GaugeVec
	durationSeconds     *prometheus.HistogramVec
}

// NewPrometheusRecorder creates a new instance of PrometheusRecorder.
func NewPrometheusRecorder() metrics.MetricRecorder {
	registry := prometheus.NewRegistry()

	// Register Go standard metrics and process/OS metrics.
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	r := &PrometheusRecorder{
		registry: registry,
		submissionCounter: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bulkops_submission_total",
			Help: "Total number of batch submission attempts by result.",
		}, []string{"result"}),
		pollCounter: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bulkops_poll_total",
			Help: "Total number of job status polls by reported state and result.",
		}, []string{"state", "result"}),
		compositeStateGauge: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "bulkops_composite_state",
			Help: "Current composite state of the tracked bulk operation (1 for the active state).",
		}, []string{"state"}),
		durationSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "bulkops_operation_duration_seconds",
			Help:    "Duration of named orchestrator operations.",
			Buckets: prometheus.DefBuckets,
		}, []string{"name"}),
	}

	registry.MustRegister(r.submissionCounter)
	registry.MustRegister(r.pollCounter)
	registry.MustRegister(r.compositeStateGauge)
	registry.MustRegister(r.durationSeconds)

	return r
}

// GetRegistry returns the Prometheus registry.
func (r *PrometheusRecorder) GetRegistry() *prometheus.Registry {
	return r.registry
}

// RecordSubmission records one batch submission attempt.
func (r *PrometheusRecorder) RecordSubmission(ctx context.Context, batchIndex int, err error) {
	result := "success"
	if err != nil {
		result = "error"
	}
	r.submissionCounter.WithLabelValues(result).Inc()
	logger.Debugf("Metrics: Submission of batch %d recorded (%s).", batchIndex, result)
}

// RecordPoll records one status poll of one job.
func (r *PrometheusRecorder) RecordPoll(ctx context.Context, jobID string, state model.JobState, err error) {
	result := "success"
	if err != nil {
		result = "error"
	}
	r.pollCounter.WithLabelValues(state.String(), result).Inc()
}

// RecordCompositeState records the derived composite state. Only the active
// state's gauge is set to 1 so dashboards can display the state as an enum.
func (r *PrometheusRecorder) RecordCompositeState(ctx context.Context, state model.JobState) {
	for _, s := range []model.JobState{model.StatePending, model.StateRunning, model.StateSucceeded, model.StateFailed, model.StateCancelled} {
		value := 0.0
		if s == state {
			value = 1.0
		}
		r.compositeStateGauge.WithLabelValues(s.String()).Set(value)
	}
}

// RecordDuration records the execution time of a named operation.
func (r *PrometheusRecorder) RecordDuration(ctx context.Context, name string, duration time.Duration, tags map[string]string) {
	r.durationSeconds.WithLabelValues(name).Observe(duration.Seconds())
}

var _ metrics.MetricRecorder = (*PrometheusRecorder)(nil)
