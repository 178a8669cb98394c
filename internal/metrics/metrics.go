// Package metrics exposes Prometheus counters for the stats pipeline and
// the feedback generator. A nil *Metrics is valid and records nothing.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	lookups           *prometheus.CounterVec
	cacheLookups      *prometheus.CounterVec
	providerCalls     *prometheus.CounterVec
	fallbackLookups   prometheus.Counter
	feedbackResponses *prometheus.CounterVec
}

// New registers the collectors on reg. Pass prometheus.NewRegistry() in
// tests to avoid clashing with the default registry.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		lookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stats_lookups_total",
			Help: "Stats lookups by final outcome.",
		}, []string{"outcome"}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cache_lookups_total",
			Help: "Cache lookups by namespace and result.",
		}, []string{"namespace", "result"}),
		providerCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "provider_requests_total",
			Help: "Outbound provider requests by provider and result.",
		}, []string{"provider", "result"}),
		fallbackLookups: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "stats_fallback_lookups_total",
			Help: "Alternate stats lookups triggered after an empty or not-found answer.",
		}),
		feedbackResponses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "feedback_responses_total",
			Help: "Feedback texts served by source (cache, api, fallback).",
		}, []string{"source"}),
	}
	reg.MustRegister(m.lookups, m.cacheLookups, m.providerCalls, m.fallbackLookups, m.feedbackResponses)
	return m
}

func (m *Metrics) Lookup(outcome string) {
	if m == nil {
		return
	}
	m.lookups.WithLabelValues(outcome).Inc()
}

func (m *Metrics) Cache(namespace string, hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.WithLabelValues(namespace, result).Inc()
}

func (m *Metrics) ProviderCall(provider, result string) {
	if m == nil {
		return
	}
	m.providerCalls.WithLabelValues(provider, result).Inc()
}

func (m *Metrics) Fallback() {
	if m == nil {
		return
	}
	m.fallbackLookups.Inc()
}

func (m *Metrics) Feedback(source string) {
	if m == nil {
		return
	}
	m.feedbackResponses.WithLabelValues(source).Inc()
}
