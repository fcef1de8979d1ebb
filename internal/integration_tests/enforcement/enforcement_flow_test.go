package enforcement

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trustgate/internal/enforcement/audit"
	"trustgate/internal/enforcement/handler"
	"trustgate/internal/enforcement/killswitch"
	"trustgate/internal/enforcement/metrics"
	"trustgate/internal/enforcement/rules"
	"trustgate/internal/enforcement/service"
	"trustgate/internal/enforcement/settings"
	"trustgate/internal/enforcement/tokens"
	jwttoken "trustgate/internal/jwt_token"
	"trustgate/internal/platform/health"
	httptransport "trustgate/internal/transport/http"
	id "trustgate/pkg/domain"
	"trustgate/pkg/platform/middleware/admin"
	request "trustgate/pkg/platform/middleware/request"
	"trustgate/pkg/testutil"
)

const operator = "ops@acme.test"

type harness struct {
	router http.Handler
	jwt    *jwttoken.JWTService
	log    *audit.Log
}

func setup(t *testing.T) *harness {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	auditLog := audit.New(audit.NewInMemoryStore(), audit.WithMetrics(m), audit.WithLogger(logger))
	svc := service.New(
		settings.New(settings.NewInMemoryStore(), settings.WithLogger(logger)),
		rules.NewEngine(rules.NewInMemoryStore()),
		tokens.NewVault(tokens.NewInMemoryStore(), tokens.WithLogger(logger)),
		killswitch.New(killswitch.NewInMemoryStore(), killswitch.WithLogger(logger)),
		auditLog,
		service.WithMetrics(m),
		service.WithLogger(logger),
	)

	jwtService := jwttoken.NewJWTService("integration-secret", "trustgate", 15*time.Minute)
	healthHandler := health.New("test")
	healthHandler.RegisterCheck("audit", auditLog.Check)

	router := httptransport.NewRouter(httptransport.RouterConfig{
		Logger:         logger,
		Enforcement:    handler.New(svc, logger),
		Validator:      jwttoken.NewJWTServiceAdapter(jwtService),
		Health:         healthHandler,
		Metrics:        request.NewMetrics(reg),
		MetricsHandler: promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		AdminToken:     opsToken,
	})
	return &harness{router: router, jwt: jwtService, log: auditLog}
}

func (h *harness) bearer(t *testing.T, tenantID id.TenantID) string {
	t.Helper()
	token, _, err := h.jwt.GenerateToken(tenantID, operator)
	require.NoError(t, err)
	return "Bearer " + token
}

func (h *harness) call(t *testing.T, method, path, auth string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)
	return rec
}

const opsToken = "ops-token"

func path(tenantID id.TenantID, suffix string) string {
	return "/tenant/" + tenantID.String() + "/autopilot/enforcement/" + suffix
}

func TestAuthBoundary(t *testing.T) {
	h := setup(t)
	acme := testutil.TestIDs.TenantID1
	globex := testutil.TestIDs.TenantID2

	rec := h.call(t, http.MethodGet, path(acme, "settings"), "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = h.call(t, http.MethodGet, path(acme, "settings"), "Bearer not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = h.call(t, http.MethodGet, path(globex, "settings"), h.bearer(t, acme), nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = h.call(t, http.MethodGet, path(acme, "settings"), h.bearer(t, acme), nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestSoftBlockConfirmFlow(t *testing.T) {
	h := setup(t)
	tenantID := testutil.TestIDs.TenantID1
	auth := h.bearer(t, tenantID)

	rec := h.call(t, http.MethodPut, path(tenantID, "settings"), auth, map[string]any{"default_mode": "soft_block"})
	require.Equal(t, http.StatusOK, rec.Code)

	action := testutil.NewActionBuilder().WithProposedBudget(800).WithCurrentBudget(500).Build()
	rec = h.call(t, http.MethodPost, path(tenantID, "check"), auth, action)
	require.Equal(t, http.StatusOK, rec.Code)

	var decision handler.DecisionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decision))
	assert.False(t, decision.Allowed)
	assert.Equal(t, "soft_block", decision.ModeApplied)
	require.NotNil(t, decision.ConfirmationToken)

	confirm := map[string]string{"confirmation_token": *decision.ConfirmationToken, "override_reason": "seasonal push approved"}
	rec = h.call(t, http.MethodPost, path(tenantID, "confirm"), auth, confirm)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decision))
	assert.True(t, decision.Allowed)
	assert.Equal(t, "override_confirmed", decision.ReasonCode)
	require.NotNil(t, decision.Action)
	assert.Equal(t, action.EntityID, decision.Action.EntityID)

	rec = h.call(t, http.MethodPost, path(tenantID, "confirm"), auth, confirm)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = h.call(t, http.MethodGet, path(tenantID, "audit-log?limit=10"), auth, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var log handler.AuditLogResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &log))

	events := make([]string, 0, log.Count)
	for _, e := range log.Entries {
		events = append(events, e.Event)
		assert.Equal(t, operator, e.Actor)
		assert.NotEmpty(t, e.RequestID)
	}
	assert.ElementsMatch(t, []string{"settings_updated", "decision_made", "override_confirmed", "confirmation_failed"}, events)
	for i := 1; i < len(log.Entries); i++ {
		assert.False(t, log.Entries[i].Timestamp.After(log.Entries[i-1].Timestamp), "entries must be newest first")
	}
}

func TestKillSwitchFlow(t *testing.T) {
	h := setup(t)
	tenantID := testutil.TestIDs.TenantID1
	auth := h.bearer(t, tenantID)

	rec := h.call(t, http.MethodPost, path(tenantID, "rules"), auth, map[string]any{
		"rule_id": testutil.TestIDs.RuleID1, "rule_type": "budget_exceeded", "threshold_value": 1000, "enforcement_mode": "advisory",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = h.call(t, http.MethodPost, path(tenantID, "kill-switch"), auth, map[string]any{"enabled": true, "reason": "incident"})
	require.Equal(t, http.StatusOK, rec.Code)

	action := testutil.NewActionBuilder().WithProposedBudget(10).Build()
	rec = h.call(t, http.MethodPost, path(tenantID, "check"), auth, action)
	require.Equal(t, http.StatusOK, rec.Code)
	var decision handler.DecisionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decision))
	assert.False(t, decision.Allowed)
	assert.Equal(t, "hard_block", decision.ModeApplied)
	assert.Equal(t, "kill_switch_active", decision.ReasonCode)
	assert.Nil(t, decision.ConfirmationToken)

	// Other tenants are unaffected.
	other := testutil.TestIDs.TenantID2
	rec = h.call(t, http.MethodPost, path(other, "check"), h.bearer(t, other), action)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decision))
	assert.True(t, decision.Allowed)

	rec = h.call(t, http.MethodPost, path(tenantID, "kill-switch"), auth, map[string]any{"enabled": false})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = h.call(t, http.MethodDelete, path(tenantID, "rules/"+testutil.TestIDs.RuleID1.String()), auth, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = h.call(t, http.MethodDelete, path(tenantID, "rules/"+testutil.TestIDs.RuleID1.String()), auth, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"rule_id":"rule-budget-cap","deleted":false}`, rec.Body.String())
}

func TestProbesAndMetrics(t *testing.T) {
	h := setup(t)

	rec := h.call(t, http.MethodGet, "/health/live", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = h.call(t, http.MethodGet, "/health/ready", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, h.log.Check(context.Background()))

	tenantID := testutil.TestIDs.TenantID1
	h.call(t, http.MethodPost, path(tenantID, "check"), h.bearer(t, tenantID), testutil.NewActionBuilder().Build())

	rec = h.call(t, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	req.Header.Set(admin.HeaderToken, opsToken)
	rec = httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "trustgate_enforcement_decisions_total")
	assert.Contains(t, rec.Body.String(), `route="/tenant/{tenantID}/autopilot/enforcement/check"`)
}
