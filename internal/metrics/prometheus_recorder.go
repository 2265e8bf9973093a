package metrics

import (
	"net/http"
	"strconv"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	updateDuration *prom.HistogramVec
	buildDuration  *prom.HistogramVec
	updateOutcome  *prom.CounterVec
	buildOutcome   *prom.CounterVec
	orchDuration   prom.Histogram
	httpRequests   *prom.CounterVec
}

// NewPrometheusRecorder constructs and registers the dochost metrics on reg.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		updateDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "dochost",
			Name:      "update_duration_seconds",
			Help:      "Duration of per-project source updates",
			Buckets:   prom.DefBuckets,
		}, []string{"project", "result"}),
		buildDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "dochost",
			Name:      "build_duration_seconds",
			Help:      "Duration of per-project documentation builds",
			Buckets:   prom.DefBuckets,
		}, []string{"project", "result"}),
		updateOutcome: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "dochost",
			Name:      "update_outcomes_total",
			Help:      "Update outcomes by result",
		}, []string{"outcome"}),
		buildOutcome: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "dochost",
			Name:      "build_outcomes_total",
			Help:      "Build outcomes by result",
		}, []string{"outcome"}),
		orchDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: "dochost",
			Name:      "orchestration_duration_seconds",
			Help:      "Total duration of one orchestration pass",
			Buckets:   prom.DefBuckets,
		}),
		httpRequests: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "dochost",
			Name:      "http_requests_total",
			Help:      "HTTP requests by status code",
		}, []string{"code"}),
	}
	reg.MustRegister(pr.updateDuration, pr.buildDuration, pr.updateOutcome, pr.buildOutcome, pr.orchDuration, pr.httpRequests)
	return pr
}

func resultLabel(success bool) string {
	if success {
		return OutcomeSuccess
	}
	return OutcomeFailed
}

func (p *PrometheusRecorder) ObserveUpdateDuration(route string, d time.Duration, success bool) {
	if p == nil {
		return
	}
	p.updateDuration.WithLabelValues(route, resultLabel(success)).Observe(d.Seconds())
}

func (p *PrometheusRecorder) ObserveBuildDuration(route string, d time.Duration, success bool) {
	if p == nil {
		return
	}
	p.buildDuration.WithLabelValues(route, resultLabel(success)).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncUpdateOutcome(outcome string) {
	if p == nil {
		return
	}
	p.updateOutcome.WithLabelValues(outcome).Inc()
}

func (p *PrometheusRecorder) IncBuildOutcome(outcome string) {
	if p == nil {
		return
	}
	p.buildOutcome.WithLabelValues(outcome).Inc()
}

func (p *PrometheusRecorder) ObserveOrchestrationDuration(d time.Duration) {
	if p == nil {
		return
	}
	p.orchDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncHTTPRequest(code int) {
	if p == nil {
		return
	}
	p.httpRequests.WithLabelValues(strconv.Itoa(code)).Inc()
}

// HTTPHandler returns an http.Handler serving the registry in the Prometheus
// exposition format.
func HTTPHandler(reg *prom.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{EnableOpenMetrics: true})
}
