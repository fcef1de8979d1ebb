package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"trustgate/internal/enforcement/models"
	id "trustgate/pkg/domain"
	dErrors "trustgate/pkg/domain-errors"
	"trustgate/pkg/platform/httputil"
	"trustgate/pkg/requestcontext"
)

// Service defines the enforcement operations exposed over HTTP.
// Returns domain objects, not HTTP response DTOs.
type Service interface {
	Check(ctx context.Context, tenantID id.TenantID, action models.ProposedAction) (*models.Decision, error)
	Confirm(ctx context.Context, tenantID id.TenantID, token, overrideReason string) (*models.Decision, error)
	GetSettings(ctx context.Context, tenantID id.TenantID) (*models.EnforcementSettings, error)
	UpdateSettings(ctx context.Context, tenantID id.TenantID, patch models.SettingsPatch, actor string) (*models.EnforcementSettings, error)
	AddRule(ctx context.Context, tenantID id.TenantID, rule models.EnforcementRule, actor string) (*models.EnforcementRule, error)
	DeleteRule(ctx context.Context, tenantID id.TenantID, ruleID id.RuleID, actor string) (bool, error)
	ListRules(ctx context.Context, tenantID id.TenantID) ([]models.EnforcementRule, error)
	SetKillSwitch(ctx context.Context, tenantID id.TenantID, enabled bool, reason, actor string) (*models.KillSwitchState, error)
	GetKillSwitch(ctx context.Context, tenantID id.TenantID) (*models.KillSwitchState, error)
	QueryAudit(ctx context.Context, tenantID id.TenantID, start, end time.Time, limit int) ([]models.AuditEntry, error)
}

// BasePath is the tenant-scoped prefix every enforcement route lives under.
const BasePath = "/tenant/{tenantID}/autopilot/enforcement"

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the enforcement routes on r. Authentication and the
// tenant match check are applied by the caller around r.
func (h *Handler) Register(r chi.Router) {
	r.Get("/settings", h.HandleGetSettings)
	r.Put("/settings", h.HandleUpdateSettings)
	r.Post("/check", h.HandleCheck)
	r.Post("/confirm", h.HandleConfirm)
	r.Get("/kill-switch", h.HandleGetKillSwitch)
	r.Post("/kill-switch", h.HandleSetKillSwitch)
	r.Get("/audit-log", h.HandleQueryAudit)
	r.Get("/rules", h.HandleListRules)
	r.Post("/rules", h.HandleAddRule)
	r.Delete("/rules/{ruleID}", h.HandleDeleteRule)
}

// PathTenant extracts the raw tenant segment of a routed request.
func PathTenant(r *http.Request) string {
	return chi.URLParam(r, "tenantID")
}

func (h *Handler) tenant(w http.ResponseWriter, r *http.Request) (id.TenantID, bool) {
	tenantID, err := id.ParseTenantID(PathTenant(r))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid tenant id"))
		return "", false
	}
	return tenantID, true
}

// HandleCheck evaluates a proposed action and returns the decision.
func (h *Handler) HandleCheck(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	tenantID, ok := h.tenant(w, r)
	if !ok {
		return
	}

	req, ok := httputil.DecodeAndPrepare[CheckRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	decision, err := h.service.Check(ctx, tenantID, req.ToAction())
	if err != nil {
		h.logger.ErrorContext(ctx, "enforcement check failed", "error", err, "request_id", requestID, "tenant_id", tenantID)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, toDecisionResponse(decision))
}

// HandleConfirm exchanges a confirmation token and override reason for approval.
func (h *Handler) HandleConfirm(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	tenantID, ok := h.tenant(w, r)
	if !ok {
		return
	}

	req, ok := httputil.DecodeAndPrepare[ConfirmRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	decision, err := h.service.Confirm(ctx, tenantID, req.ConfirmationToken, req.OverrideReason)
	if err != nil {
		h.logger.WarnContext(ctx, "confirmation rejected", "error", err, "request_id", requestID, "tenant_id", tenantID)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, toDecisionResponse(decision))
}

func (h *Handler) HandleGetSettings(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	tenantID, ok := h.tenant(w, r)
	if !ok {
		return
	}

	settings, err := h.service.GetSettings(ctx, tenantID)
	if err != nil {
		h.logger.ErrorContext(ctx, "get settings failed", "error", err, "request_id", requestID, "tenant_id", tenantID)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, toSettingsResponse(settings))
}

// HandleUpdateSettings applies a partial update. Omitted fields are left
// untouched; an explicit null max_campaign_budget removes the cap.
func (h *Handler) HandleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	tenantID, ok := h.tenant(w, r)
	if !ok {
		return
	}

	req, ok := httputil.DecodeAndPrepare[UpdateSettingsRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	settings, err := h.service.UpdateSettings(ctx, tenantID, req.ToPatch(), requestcontext.Actor(ctx))
	if err != nil {
		h.logger.WarnContext(ctx, "update settings failed", "error", err, "request_id", requestID, "tenant_id", tenantID)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, toSettingsResponse(settings))
}

func (h *Handler) HandleGetKillSwitch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	tenantID, ok := h.tenant(w, r)
	if !ok {
		return
	}

	state, err := h.service.GetKillSwitch(ctx, tenantID)
	if err != nil {
		h.logger.ErrorContext(ctx, "get kill switch failed", "error", err, "request_id", requestID, "tenant_id", tenantID)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, toKillSwitchResponse(state))
}

func (h *Handler) HandleSetKillSwitch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	tenantID, ok := h.tenant(w, r)
	if !ok {
		return
	}

	req, ok := httputil.DecodeAndPrepare[KillSwitchRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	state, err := h.service.SetKillSwitch(ctx, tenantID, *req.Enabled, req.Reason, requestcontext.Actor(ctx))
	if err != nil {
		h.logger.ErrorContext(ctx, "set kill switch failed", "error", err, "request_id", requestID, "tenant_id", tenantID)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, toKillSwitchResponse(state))
}

// HandleQueryAudit returns audit entries newest first. start and end are
// RFC 3339 timestamps; both are optional.
func (h *Handler) HandleQueryAudit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	tenantID, ok := h.tenant(w, r)
	if !ok {
		return
	}

	start, end, limit, err := parseAuditQuery(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	entries, err := h.service.QueryAudit(ctx, tenantID, start, end, limit)
	if err != nil {
		h.logger.WarnContext(ctx, "audit query failed", "error", err, "request_id", requestID, "tenant_id", tenantID)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, toAuditLogResponse(entries))
}

func (h *Handler) HandleListRules(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	tenantID, ok := h.tenant(w, r)
	if !ok {
		return
	}

	rules, err := h.service.ListRules(ctx, tenantID)
	if err != nil {
		h.logger.ErrorContext(ctx, "list rules failed", "error", err, "request_id", requestID, "tenant_id", tenantID)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, toRuleListResponse(rules))
}

func (h *Handler) HandleAddRule(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	tenantID, ok := h.tenant(w, r)
	if !ok {
		return
	}

	req, ok := httputil.DecodeAndPrepare[AddRuleRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	rule, err := h.service.AddRule(ctx, tenantID, req.ToRule(tenantID), requestcontext.Actor(ctx))
	if err != nil {
		h.logger.WarnContext(ctx, "add rule failed", "error", err, "request_id", requestID, "tenant_id", tenantID)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, toRuleResponse(rule))
}

// HandleDeleteRule always answers 200; deleting a missing rule is a no-op.
func (h *Handler) HandleDeleteRule(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	tenantID, ok := h.tenant(w, r)
	if !ok {
		return
	}

	rawID := chi.URLParam(r, "ruleID")
	ruleID, err := id.ParseRuleID(rawID)
	if err != nil {
		// No stored rule can carry a malformed id.
		httputil.WriteJSON(w, http.StatusOK, &DeleteRuleResponse{RuleID: rawID, Deleted: false})
		return
	}

	deleted, err := h.service.DeleteRule(ctx, tenantID, ruleID, requestcontext.Actor(ctx))
	if err != nil {
		h.logger.ErrorContext(ctx, "delete rule failed", "error", err, "request_id", requestID, "tenant_id", tenantID)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, &DeleteRuleResponse{RuleID: ruleID.String(), Deleted: deleted})
}

func parseAuditQuery(r *http.Request) (start, end time.Time, limit int, err error) {
	q := r.URL.Query()
	if raw := q.Get("start"); raw != "" {
		start, err = time.Parse(time.RFC3339, raw)
		if err != nil {
			return start, end, 0, dErrors.New(dErrors.CodeValidation, "start must be an RFC 3339 timestamp")
		}
	}
	if raw := q.Get("end"); raw != "" {
		end, err = time.Parse(time.RFC3339, raw)
		if err != nil {
			return start, end, 0, dErrors.New(dErrors.CodeValidation, "end must be an RFC 3339 timestamp")
		}
	}
	if raw := q.Get("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 0 {
			return start, end, 0, dErrors.New(dErrors.CodeValidation, "limit must be a non-negative integer")
		}
		// Values above the cap are clamped by the audit log.
	}
	return start, end, limit, nil
}
