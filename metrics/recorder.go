// Package metrics records language server activity. The server and handlers
// depend on the Recorder interface; NoopRecorder is used unless metrics are
// enabled, in which case PrometheusRecorder backs it.
package metrics

import "time"

// Outcome labels a finished request.
type Outcome string

const (
	OutcomeOK        Outcome = "ok"
	OutcomeError     Outcome = "error"
	OutcomeCancelled Outcome = "cancelled"
)

// HoverResult labels what a hover request produced.
type HoverResult string

const (
	HoverShown           HoverResult = "shown"
	HoverNoGroup         HoverResult = "no_group"
	HoverGateFailed      HoverResult = "gate_failed"
	HoverNoMatch         HoverResult = "no_match"
	HoverUnknownDocument HoverResult = "unknown_document"
)

// Recorder defines observability hooks. Implementations must be safe for
// concurrent use.
type Recorder interface {
	ObserveRequest(method string, d time.Duration, outcome Outcome)
	IncHover(result HoverResult)
	AddDiagnostics(n int)
	SetOpenDocuments(n int)
}

// NoopRecorder is a Recorder that does nothing.
type NoopRecorder struct{}

func (NoopRecorder) ObserveRequest(string, time.Duration, Outcome) {}
func (NoopRecorder) IncHover(HoverResult)                          {}
func (NoopRecorder) AddDiagnostics(int)                            {}
func (NoopRecorder) SetOpenDocuments(int)                          {}
