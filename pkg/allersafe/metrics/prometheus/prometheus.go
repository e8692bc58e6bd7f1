package prommetrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics implements allersafe.Metrics using Prometheus.
type Metrics struct {
	gatewayCallsTotal    *prometheus.CounterVec
	gatewayCallDuration  *prometheus.HistogramVec
	reconciliationsTotal *prometheus.CounterVec
	reconciliationPolls  *prometheus.HistogramVec
	scansTotal           *prometheus.CounterVec
	analysesTotal        *prometheus.CounterVec
	policyDeniedTotal    *prometheus.CounterVec
	sessionRefreshTotal  *prometheus.CounterVec
}

// NewMetrics creates a new Prometheus metrics implementation.
func NewMetrics(reg prometheus.Registerer, namespace string) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		gatewayCallsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "gateway_calls_total",
			Help:      "Total number of backend gateway requests.",
		}, []string{"endpoint", "outcome"}),

		gatewayCallDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "gateway_call_duration_seconds",
			Help:      "Latency of backend gateway requests.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"endpoint"}),

		reconciliationsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checkout_reconciliations_total",
			Help:      "Total number of finished checkout reconciliations.",
		}, []string{"outcome"}),

		reconciliationPolls: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "checkout_reconciliation_polls",
			Help:      "Distribution of polls issued per reconciliation.",
			Buckets:   []float64{1, 2, 3, 4, 5},
		}, []string{"outcome"}),

		scansTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "menu_scans_total",
			Help:      "Total number of menu scan attempts.",
		}, []string{"success"}),

		analysesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "safety_analyses_total",
			Help:      "Total number of safety analysis attempts.",
		}, []string{"success"}),

		policyDeniedTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "policy_denied_total",
			Help:      "Total number of capabilities refused locally by the policy.",
		}, []string{"capability"}),

		sessionRefreshTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_refreshes_total",
			Help:      "Total number of principal refreshes.",
		}, []string{"success"}),
	}
}

func (m *Metrics) RecordGatewayCall(endpoint, outcome string, duration time.Duration) {
	m.gatewayCallsTotal.WithLabelValues(endpoint, outcome).Inc()
	m.gatewayCallDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
}

func (m *Metrics) RecordReconciliation(outcome string, attempts int) {
	m.reconciliationsTotal.WithLabelValues(outcome).Inc()
	m.reconciliationPolls.WithLabelValues(outcome).Observe(float64(attempts))
}

func (m *Metrics) RecordScan(success bool) {
	m.scansTotal.WithLabelValues(strconv.FormatBool(success)).Inc()
}

func (m *Metrics) RecordAnalysis(success bool) {
	m.analysesTotal.WithLabelValues(strconv.FormatBool(success)).Inc()
}

func (m *Metrics) RecordPolicyDenied(capability string) {
	m.policyDeniedTotal.WithLabelValues(capability).Inc()
}

func (m *Metrics) RecordSessionRefresh(success bool) {
	m.sessionRefreshTotal.WithLabelValues(strconv.FormatBool(success)).Inc()
}

// DefaultMetrics returns a Metrics implementation using the default Prometheus registerer.
func DefaultMetrics(namespace string) *Metrics {
	return NewMetrics(prometheus.DefaultRegisterer, namespace)
}
