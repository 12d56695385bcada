package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/Simplici0/cotizador/internal/pricing"
)

const (
	OutcomeOK                 = "ok"
	OutcomeValidation         = "validation"
	OutcomeNotFound           = "not_found"
	OutcomePricingUnavailable = "pricing_unavailable"
	OutcomeDependency         = "dependency"
	OutcomeError              = "error"
)

// Metrics exposes the quotation engine's Prometheus collectors.
type Metrics struct {
	quotes          *prometheus.CounterVec
	duration        *prometheus.HistogramVec
	multipleMatches *prometheus.CounterVec
	quotesSaved     *prometheus.CounterVec
}

var _ pricing.Observer = (*Metrics)(nil)

// New registers the collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		quotes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "quotes_calculated_total",
			Help: "Quote calculations by category and outcome.",
		}, []string{"category", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "quote_calculation_seconds",
			Help:    "Quote calculation latency by category.",
			Buckets: prometheus.DefBuckets,
		}, []string{"category"}),
		multipleMatches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "catalog_multiple_matches_total",
			Help: "Catalog lookups that matched more than one entry.",
		}, []string{"provider"}),
		quotesSaved: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "quotes_saved_total",
			Help: "Persisted quotes by category.",
		}, []string{"category"}),
	}
	reg.MustRegister(m.quotes, m.duration, m.multipleMatches, m.quotesSaved)
	return m
}

// ObserveQuote records one calculation.
func (m *Metrics) ObserveQuote(category string, started time.Time, err error) {
	m.quotes.WithLabelValues(category, Outcome(err)).Inc()
	m.duration.WithLabelValues(category).Observe(time.Since(started).Seconds())
}

func (m *Metrics) QuoteSaved(category string) {
	m.quotesSaved.WithLabelValues(category).Inc()
}

// CatalogMultipleMatches implements pricing.Observer.
func (m *Metrics) CatalogMultipleMatches(provider string, _ int) {
	m.multipleMatches.WithLabelValues(provider).Inc()
}

// Outcome classifies a calculation error into a bounded label value.
func Outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeOK
	case errors.Is(err, pricing.ErrValidation):
		return OutcomeValidation
	case errors.Is(err, pricing.ErrNotFound):
		return OutcomeNotFound
	case errors.Is(err, pricing.ErrPricingUnavailable):
		return OutcomePricingUnavailable
	case errors.Is(err, pricing.ErrDependency):
		return OutcomeDependency
	default:
		return OutcomeError
	}
}
