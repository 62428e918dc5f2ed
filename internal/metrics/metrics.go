// Package metrics exposes Prometheus metrics for the A5 Flight service.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hugr-lab/airport-a5/flight"
	"github.com/hugr-lab/airport-a5/functions"
)

// Batch outcomes reported in the outcome label.
const (
	OutcomeOK       = "ok"
	OutcomeInvalid  = "invalid_argument"
	OutcomeForeign  = "foreign_error"
	OutcomeCanceled = "canceled"
	OutcomeError    = "error"
)

type BuildInfo struct {
	Version   string
	Revision  string
	BuildDate string
}

type Config struct {
	Build BuildInfo
}

// Provider owns a private registry and the per-function batch metrics.
// It implements flight.BatchObserver.
type Provider struct {
	reg       *prometheus.Registry
	buildInfo *prometheus.GaugeVec

	batches       *prometheus.CounterVec
	rows          *prometheus.CounterVec
	duration      *prometheus.HistogramVec
	foreignErrors *prometheus.CounterVec
}

var _ flight.BatchObserver = (*Provider)(nil)

func Init(cfg Config) *Provider {
	reg := prometheus.NewRegistry()

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	build := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "a5_build_info",
			Help: "Build info for this binary (value is always 1).",
		},
		[]string{"version", "revision", "build_date"},
	)
	v := cfg.Build
	if v.Version == "" {
		v.Version = "dev"
	}
	build.WithLabelValues(v.Version, v.Revision, v.BuildDate).Set(1)

	p := &Provider{
		reg:       reg,
		buildInfo: build,
		batches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "a5_batches_total",
			Help: "Scalar function batches by outcome.",
		}, []string{"function", "outcome"}),
		rows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "a5_rows_total",
			Help: "Rows received by scalar functions.",
		}, []string{"function"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "a5_batch_duration_seconds",
			Help:    "Time to execute one scalar function batch.",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 14),
		}, []string{"function"}),
		foreignErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "a5_foreign_errors_total",
			Help: "Batches aborted by an error from the native A5 library.",
		}, []string{"function"}),
	}
	reg.MustRegister(build, p.batches, p.rows, p.duration, p.foreignErrors)
	return p
}

func (p *Provider) Handler() http.Handler {
	return promhttp.HandlerFor(p.reg, promhttp.HandlerOpts{})
}

func (p *Provider) Register(cs ...prometheus.Collector) {
	for _, c := range cs {
		p.reg.MustRegister(c)
	}
}

func (p *Provider) Registerer() prometheus.Registerer { return p.reg }

// ObserveBatch records one scalar function batch.
func (p *Provider) ObserveBatch(function string, rows int64, elapsed time.Duration, err error) {
	outcome := Outcome(err)
	p.batches.WithLabelValues(function, outcome).Inc()
	p.rows.WithLabelValues(function).Add(float64(rows))
	p.duration.WithLabelValues(function).Observe(elapsed.Seconds())
	if outcome == OutcomeForeign {
		p.foreignErrors.WithLabelValues(function).Inc()
	}
}

// Outcome classifies a batch error for the outcome label.
func Outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeOK
	case functions.IsForeign(err):
		return OutcomeForeign
	case errors.Is(err, functions.ErrInvalidArgument):
		return OutcomeInvalid
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return OutcomeCanceled
	default:
		return OutcomeError
	}
}
