package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the verifier's Prometheus collectors.
type Metrics struct {
	TransactionsCreated  prometheus.Counter
	RequestsServed       prometheus.Counter
	ResponsesAccepted    prometheus.Counter
	ResponsesRejected    *prometheus.CounterVec
	ResultsRedeemed      prometheus.Counter
	ResultsRejected      *prometheus.CounterVec
	DocumentLoads        *prometheus.CounterVec
	DIDCacheLookups      *prometheus.CounterVec
	AuditEventsDropped   prometheus.Counter
	ResponseVerification prometheus.Histogram
	HTTPLatency          *prometheus.HistogramVec
	RateLimited          *prometheus.CounterVec
}

// New registers all collectors with reg. Tests pass a fresh registry.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		TransactionsCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "verifier_transactions_created_total",
			Help: "Total number of verification transactions created",
		}),
		RequestsServed: factory.NewCounter(prometheus.CounterOpts{
			Name: "verifier_authorization_requests_total",
			Help: "Total number of authorization requests served to wallets",
		}),
		ResponsesAccepted: factory.NewCounter(prometheus.CounterOpts{
			Name: "verifier_responses_accepted_total",
			Help: "Total number of wallet responses that passed verification",
		}),
		ResponsesRejected: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "verifier_responses_rejected_total",
			Help: "Total number of wallet responses rejected, by error code",
		}, []string{"code"}),
		ResultsRedeemed: factory.NewCounter(prometheus.CounterOpts{
			Name: "verifier_results_redeemed_total",
			Help: "Total number of successful result redemptions",
		}),
		ResultsRejected: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "verifier_results_rejected_total",
			Help: "Total number of failed result redemptions, by error code",
		}, []string{"code"}),
		DocumentLoads: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "verifier_document_loads_total",
			Help: "Document loader lookups by source",
		}, []string{"source"}),
		DIDCacheLookups: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "verifier_did_cache_lookups_total",
			Help: "DID document cache lookups by tier and outcome",
		}, []string{"tier", "outcome"}),
		AuditEventsDropped: factory.NewCounter(prometheus.CounterOpts{
			Name: "verifier_audit_events_dropped_total",
			Help: "Audit events dropped because the buffer was full",
		}),
		ResponseVerification: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "verifier_response_verification_duration_seconds",
			Help:    "Time spent verifying a wallet response",
			Buckets: prometheus.DefBuckets,
		}),
		HTTPLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "verifier_http_request_duration_seconds",
			Help:    "HTTP request latency by route pattern and status",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "status"}),
		RateLimited: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "verifier_rate_limited_total",
			Help: "Requests rejected with 429, by endpoint class",
		}, []string{"class"}),
	}
}

func (m *Metrics) IncrementTransactionsCreated() { m.TransactionsCreated.Inc() }

func (m *Metrics) IncrementRequestsServed() { m.RequestsServed.Inc() }

func (m *Metrics) IncrementResponsesAccepted() { m.ResponsesAccepted.Inc() }

func (m *Metrics) IncrementResponsesRejected(code string) {
	m.ResponsesRejected.WithLabelValues(code).Inc()
}

func (m *Metrics) IncrementResultsRedeemed() { m.ResultsRedeemed.Inc() }

func (m *Metrics) IncrementResultsRejected(code string) {
	m.ResultsRejected.WithLabelValues(code).Inc()
}

// IncrementDocumentLoads counts a loader lookup; source is context, did or unsupported.
func (m *Metrics) IncrementDocumentLoads(source string) {
	m.DocumentLoads.WithLabelValues(source).Inc()
}

func (m *Metrics) IncrementDIDCacheLookup(tier, outcome string) {
	m.DIDCacheLookups.WithLabelValues(tier, outcome).Inc()
}

func (m *Metrics) IncrementAuditEventsDropped() { m.AuditEventsDropped.Inc() }

// ObserveResponseVerification records the time since start.
func (m *Metrics) ObserveResponseVerification(start time.Time) {
	m.ResponseVerification.Observe(time.Since(start).Seconds())
}

func (m *Metrics) ObserveHTTPRequest(route string, status int, start time.Time) {
	m.HTTPLatency.WithLabelValues(route, strconv.Itoa(status)).Observe(time.Since(start).Seconds())
}

func (m *Metrics) IncrementRateLimited(class string) {
	m.RateLimited.WithLabelValues(class).Inc()
}

// RegisterSize exposes size as a gauge read on every scrape.
func RegisterSize(reg prometheus.Registerer, name, help string, size func() int) {
	promauto.With(reg).NewGaugeFunc(prometheus.GaugeOpts{Name: name, Help: help}, func() float64 {
		return float64(size())
	})
}
