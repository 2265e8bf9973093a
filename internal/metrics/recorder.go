// Package metrics defines observability hooks for the orchestration pipeline
// and the HTTP server.
package metrics

import "time"

// Outcome labels for update/build result counters.
const (
	OutcomeSuccess = "success"
	OutcomeFailed  = "failed"
	OutcomeSkipped = "skipped"
)

// Recorder defines the metric hooks recorded during orchestration and request
// handling. All methods must be safe on the NoopRecorder so injection stays
// optional.
type Recorder interface {
	ObserveUpdateDuration(projectRoute string, d time.Duration, success bool)
	ObserveBuildDuration(projectRoute string, d time.Duration, success bool)
	IncUpdateOutcome(outcome string)
	IncBuildOutcome(outcome string)
	ObserveOrchestrationDuration(d time.Duration)
	IncHTTPRequest(code int)
}

// NoopRecorder is a Recorder that does nothing (default when metrics are not
// configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveUpdateDuration(string, time.Duration, bool) {}
func (NoopRecorder) ObserveBuildDuration(string, time.Duration, bool)  {}
func (NoopRecorder) IncUpdateOutcome(string)                           {}
func (NoopRecorder) IncBuildOutcome(string)                            {}
func (NoopRecorder) ObserveOrchestrationDuration(time.Duration)        {}
func (NoopRecorder) IncHTTPRequest(int)                                {}
