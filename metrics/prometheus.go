package metrics

import (
	"net/http"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "jsondate_lsp"

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	requestDuration *prom.HistogramVec
	requests        *prom.CounterVec
	hovers          *prom.CounterVec
	diagnostics     prom.Counter
	openDocuments   prom.Gauge
}

// NewPrometheusRecorder constructs the collectors and registers them on reg.
// A nil reg gets a fresh registry.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		requestDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "request_duration_seconds",
			Help:      "Duration of LSP request handling",
			Buckets:   []float64{.0005, .001, .005, .01, .05, .1, .5, 1},
		}, []string{"method"}),
		requests: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "LSP requests by method and outcome",
		}, []string{"method", "outcome"}),
		hovers: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "hovers_total",
			Help:      "Hover requests by result",
		}, []string{"result"}),
		diagnostics: prom.NewCounter(prom.CounterOpts{
			Namespace: namespace,
			Name:      "diagnostics_published_total",
			Help:      "Diagnostics published for malformed date tokens",
		}),
		openDocuments: prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "open_documents",
			Help:      "Documents currently open in the client",
		}),
	}
	reg.MustRegister(pr.requestDuration, pr.requests, pr.hovers, pr.diagnostics, pr.openDocuments)
	return pr
}

func (p *PrometheusRecorder) ObserveRequest(method string, d time.Duration, outcome Outcome) {
	p.requestDuration.WithLabelValues(method).Observe(d.Seconds())
	p.requests.WithLabelValues(method, string(outcome)).Inc()
}

func (p *PrometheusRecorder) IncHover(result HoverResult) {
	p.hovers.WithLabelValues(string(result)).Inc()
}

func (p *PrometheusRecorder) AddDiagnostics(n int) {
	if n > 0 {
		p.diagnostics.Add(float64(n))
	}
}

func (p *PrometheusRecorder) SetOpenDocuments(n int) {
	p.openDocuments.Set(float64(n))
}

// HTTPHandler serves the metrics of reg in the Prometheus exposition format.
func HTTPHandler(reg *prom.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{EnableOpenMetrics: true})
}
