package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the enforcement engine's Prometheus collectors.
type Metrics struct {
	Decisions           *prometheus.CounterVec
	CheckDuration       prometheus.Histogram
	RuleMatches         *prometheus.CounterVec
	Confirmations       *prometheus.CounterVec
	TokensIssued        prometheus.Counter
	TokensPurged        prometheus.Counter
	KillSwitchToggles   *prometheus.CounterVec
	AuditEntries        *prometheus.CounterVec
	AuditPersistFailure prometheus.Counter
	AuditPublishFailure prometheus.Counter
	AuditCircuitOpen    prometheus.Gauge

	OutboxPublished       prometheus.Counter
	OutboxPublishFailures prometheus.Counter
	OutboxPending         prometheus.Gauge
	OutboxBatchSize       prometheus.Histogram
	OutboxPublishDuration prometheus.Histogram
}

// New registers the collectors with reg. A nil reg leaves them unregistered,
// which lets tests build several instances.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Decisions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "trustgate_enforcement_decisions_total",
			Help: "Enforcement decisions, labeled by applied mode and whether the action was allowed",
		}, []string{"mode", "allowed"}),
		CheckDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "trustgate_enforcement_check_duration_seconds",
			Help:    "Duration of enforcement checks",
			Buckets: []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25},
		}),
		RuleMatches: f.NewCounterVec(prometheus.CounterOpts{
			Name: "trustgate_enforcement_rule_matches_total",
			Help: "Matched rule outcomes, labeled by rule type and source",
		}, []string{"rule_type", "source"}),
		Confirmations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "trustgate_enforcement_confirmations_total",
			Help: "Confirmation attempts, labeled by outcome",
		}, []string{"outcome"}),
		TokensIssued: f.NewCounter(prometheus.CounterOpts{
			Name: "trustgate_confirmation_tokens_issued_total",
			Help: "Confirmation tokens issued for soft-blocked actions",
		}),
		TokensPurged: f.NewCounter(prometheus.CounterOpts{
			Name: "trustgate_confirmation_tokens_purged_total",
			Help: "Expired confirmation tokens removed by the cleanup worker",
		}),
		KillSwitchToggles: f.NewCounterVec(prometheus.CounterOpts{
			Name: "trustgate_kill_switch_toggles_total",
			Help: "Kill switch writes, labeled by the resulting state",
		}, []string{"enabled"}),
		AuditEntries: f.NewCounterVec(prometheus.CounterOpts{
			Name: "trustgate_audit_entries_total",
			Help: "Audit entries persisted, labeled by event",
		}, []string{"event"}),
		AuditPersistFailure: f.NewCounter(prometheus.CounterOpts{
			Name: "trustgate_audit_persist_failures_total",
			Help: "Audit entries that could not be persisted (degraded audit)",
		}),
		AuditPublishFailure: f.NewCounter(prometheus.CounterOpts{
			Name: "trustgate_audit_publish_failures_total",
			Help: "Audit entries that could not be handed to the event stream",
		}),
		AuditCircuitOpen: f.NewGauge(prometheus.GaugeOpts{
			Name: "trustgate_audit_circuit_open",
			Help: "1 while the audit persistence circuit breaker is open",
		}),
		OutboxPublished: f.NewCounter(prometheus.CounterOpts{
			Name: "trustgate_audit_outbox_published_total",
			Help: "Outbox entries published to the event stream",
		}),
		OutboxPublishFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "trustgate_audit_outbox_publish_failures_total",
			Help: "Outbox fetch or publish failures; entries are retried on the next poll",
		}),
		OutboxPending: f.NewGauge(prometheus.GaugeOpts{
			Name: "trustgate_audit_outbox_pending",
			Help: "Outbox entries not yet published",
		}),
		OutboxBatchSize: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "trustgate_audit_outbox_batch_size",
			Help:    "Entries fetched per non-empty outbox poll",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500},
		}),
		OutboxPublishDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "trustgate_audit_outbox_publish_duration_seconds",
			Help:    "Time to publish a single outbox entry",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

func (m *Metrics) ObserveDecision(mode string, allowed bool, start time.Time) {
	m.Decisions.WithLabelValues(mode, strconv.FormatBool(allowed)).Inc()
	m.CheckDuration.Observe(time.Since(start).Seconds())
}

func (m *Metrics) IncrementRuleMatch(ruleType, source string) {
	m.RuleMatches.WithLabelValues(ruleType, source).Inc()
}

func (m *Metrics) IncrementConfirmation(outcome string) {
	m.Confirmations.WithLabelValues(outcome).Inc()
}

func (m *Metrics) IncrementTokensIssued() {
	m.TokensIssued.Inc()
}

func (m *Metrics) AddTokensPurged(n int) {
	m.TokensPurged.Add(float64(n))
}

func (m *Metrics) IncrementKillSwitchToggle(enabled bool) {
	m.KillSwitchToggles.WithLabelValues(strconv.FormatBool(enabled)).Inc()
}

func (m *Metrics) IncrementAuditEntry(event string) {
	m.AuditEntries.WithLabelValues(event).Inc()
}

func (m *Metrics) IncrementAuditPersistFailure() {
	m.AuditPersistFailure.Inc()
}

func (m *Metrics) IncrementAuditPublishFailure() {
	m.AuditPublishFailure.Inc()
}

func (m *Metrics) SetAuditCircuitOpen(open bool) {
	if open {
		m.AuditCircuitOpen.Set(1)
		return
	}
	m.AuditCircuitOpen.Set(0)
}

func (m *Metrics) IncrementOutboxPublished() {
	m.OutboxPublished.Inc()
}

func (m *Metrics) IncrementOutboxPublishFailure() {
	m.OutboxPublishFailures.Inc()
}

func (m *Metrics) SetOutboxPending(n int64) {
	m.OutboxPending.Set(float64(n))
}

func (m *Metrics) ObserveOutboxBatch(size int) {
	m.OutboxBatchSize.Observe(float64(size))
}

func (m *Metrics) ObserveOutboxPublish(d time.Duration) {
	m.OutboxPublishDuration.Observe(d.Seconds())
}
