package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_RegistersWithRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ObserveDecision("soft_block", false, time.Now())
	m.IncrementAuditPersistFailure()

	families, err := reg.Gather()
	require.NoError(t, err)
	names := make(map[string]bool, len(families))
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["trustgate_enforcement_decisions_total"])
	assert.True(t, names["trustgate_audit_persist_failures_total"])
}

func TestNew_NilRegistryAllowsMultipleInstances(t *testing.T) {
	a := New(nil)
	b := New(nil)

	a.IncrementTokensIssued()
	assert.Equal(t, float64(1), testutil.ToFloat64(a.TokensIssued))
	assert.Equal(t, float64(0), testutil.ToFloat64(b.TokensIssued))
}

func TestCounters(t *testing.T) {
	m := New(nil)

	m.ObserveDecision("hard_block", false, time.Now())
	m.ObserveDecision("hard_block", false, time.Now())
	m.IncrementConfirmation("confirmed")
	m.AddTokensPurged(3)
	m.IncrementKillSwitchToggle(true)
	m.SetAuditCircuitOpen(true)

	assert.Equal(t, float64(2), testutil.ToFloat64(m.Decisions.WithLabelValues("hard_block", "false")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.Confirmations.WithLabelValues("confirmed")))
	assert.Equal(t, float64(3), testutil.ToFloat64(m.TokensPurged))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.KillSwitchToggles.WithLabelValues("true")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.AuditCircuitOpen))

	m.SetAuditCircuitOpen(false)
	assert.Equal(t, float64(0), testutil.ToFloat64(m.AuditCircuitOpen))
}
