package models

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "trustgate/pkg/domain-errors"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestStrictest(t *testing.T) {
	tests := []struct {
		name  string
		modes []Mode
		want  Mode
		found bool
	}{
		{name: "none", modes: nil, found: false},
		{name: "single advisory", modes: []Mode{ModeAdvisory}, want: ModeAdvisory, found: true},
		{name: "hard beats soft", modes: []Mode{ModeSoftBlock, ModeHardBlock}, want: ModeHardBlock, found: true},
		{name: "order independent", modes: []Mode{ModeHardBlock, ModeAdvisory, ModeSoftBlock}, want: ModeHardBlock, found: true},
		{name: "soft beats advisory", modes: []Mode{ModeAdvisory, ModeSoftBlock}, want: ModeSoftBlock, found: true},
		{name: "invalid ignored", modes: []Mode{"frozen"}, found: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Strictest(tt.modes...)
			assert.Equal(t, tt.found, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseMode(t *testing.T) {
	m, err := ParseMode(" Soft_Block ")
	require.NoError(t, err)
	assert.Equal(t, ModeSoftBlock, m)

	_, err = ParseMode("cuts_only")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
}

func TestSettingsApply_MergesOnlySuppliedFields(t *testing.T) {
	budget := dec("10000")
	base := DefaultSettings("acme")
	base.MaxCampaignBudget = &budget
	base.DefaultMode = ModeSoftBlock

	roas := dec("1.5")
	merged := base.Apply(SettingsPatch{MinROASThreshold: &roas})

	assert.True(t, merged.MinROASThreshold.Equal(roas))
	assert.Equal(t, ModeSoftBlock, merged.DefaultMode)
	require.NotNil(t, merged.MaxCampaignBudget)
	assert.True(t, merged.MaxCampaignBudget.Equal(budget))
	assert.True(t, base.MinROASThreshold.IsZero(), "original must not change")
}

func TestSettingsApply_ClearBudget(t *testing.T) {
	budget := dec("500")
	base := DefaultSettings("acme")
	base.MaxCampaignBudget = &budget

	merged := base.Apply(SettingsPatch{ClearMaxCampaignBudget: true})

	assert.Nil(t, merged.MaxCampaignBudget)
	assert.NotNil(t, base.MaxCampaignBudget)
}

func TestSettingsPatchValidate(t *testing.T) {
	neg := dec("-0.1")
	zero := dec("0")
	bad := Mode("frozen")

	assert.Error(t, SettingsPatch{MinROASThreshold: &neg}.Validate())
	assert.Error(t, SettingsPatch{MaxCampaignBudget: &zero}.Validate())
	assert.Error(t, SettingsPatch{DefaultMode: &bad}.Validate())
	assert.Error(t, SettingsPatch{MaxCampaignBudget: ptr(dec("1")), ClearMaxCampaignBudget: true}.Validate())
	assert.NoError(t, SettingsPatch{MinROASThreshold: &zero}.Validate())
	assert.True(t, SettingsPatch{}.IsEmpty())
}

func TestDefaultSettingsAreValid(t *testing.T) {
	s := DefaultSettings("acme")
	require.NoError(t, s.Validate())
	assert.Equal(t, ModeAdvisory, s.DefaultMode)
	assert.Nil(t, s.MaxCampaignBudget)
	assert.True(t, s.MinROASThreshold.IsZero())
}

func TestRuleValidate(t *testing.T) {
	valid := EnforcementRule{TenantID: "acme", Type: RuleBudgetExceeded, Threshold: dec("5000"), Mode: ModeHardBlock, Enabled: true}
	require.NoError(t, valid.Validate())

	unknown := valid
	unknown.Type = "budget_doubled"
	assert.True(t, dErrors.HasCode(unknown.Validate(), dErrors.CodeValidation))

	negative := valid
	negative.Threshold = dec("-1")
	assert.Error(t, negative.Validate())

	badMode := valid
	badMode.Mode = "normal"
	assert.Error(t, badMode.Validate())
}

func TestParseRuleType(t *testing.T) {
	rt, err := ParseRuleType("ROAS_BELOW_THRESHOLD")
	require.NoError(t, err)
	assert.Equal(t, RuleROASBelowThreshold, rt)

	_, err = ParseRuleType("unknown")
	assert.Error(t, err)
}

func TestProposedActionNumericAccessors(t *testing.T) {
	a := ProposedAction{
		ActionType:    "budget_change",
		EntityID:      "cmp_1",
		ProposedValue: map[string]any{"budget": json.Number("6000.50")},
		CurrentValue:  map[string]any{"budget": float64(5000)},
		Metrics:       map[string]any{"roas": "1.25", "spend": 10, "emq": true},
	}

	b, ok := a.ProposedBudget()
	require.True(t, ok)
	assert.True(t, b.Equal(dec("6000.50")))

	c, ok := a.CurrentBudget()
	require.True(t, ok)
	assert.True(t, c.Equal(dec("5000")))

	roas, ok := a.Metric(MetricROAS)
	require.True(t, ok)
	assert.True(t, roas.Equal(dec("1.25")))

	spend, ok := a.Metric(MetricSpend)
	require.True(t, ok)
	assert.True(t, spend.Equal(dec("10")))

	_, ok = a.Metric(MetricEMQ)
	assert.False(t, ok, "booleans are not numeric")

	_, ok = a.Metric("missing")
	assert.False(t, ok)
}

func TestProposedActionValidate(t *testing.T) {
	assert.Error(t, ProposedAction{EntityID: "x"}.Validate())
	assert.Error(t, ProposedAction{ActionType: "pause"}.Validate())
	assert.NoError(t, ProposedAction{ActionType: "pause", EntityID: "x"}.Validate())
}

func TestProposedActionClone(t *testing.T) {
	a := ProposedAction{ActionType: "pause", EntityID: "x", Metrics: map[string]any{"roas": 1.0}}
	c := a.Clone()
	c.Metrics["roas"] = 2.0

	assert.Equal(t, 1.0, a.Metrics["roas"])
}

func TestConfirmationTokenExpiry(t *testing.T) {
	now := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	tok := ConfirmationToken{IssuedAt: now, ExpiresAt: now.Add(15 * time.Minute)}

	assert.False(t, tok.IsExpired(now.Add(14*time.Minute)))
	assert.True(t, tok.IsExpired(now.Add(15*time.Minute)))
	assert.True(t, tok.IsExpired(now.Add(16*time.Minute)))
}

func TestKillSwitchDecision(t *testing.T) {
	d := KillSwitchDecision(KillSwitchState{TenantID: "acme", Enabled: true, Reason: "data outage"}, time.Now())

	assert.False(t, d.Allowed)
	assert.Equal(t, ModeHardBlock, d.ModeApplied)
	assert.Equal(t, ReasonKillSwitchActive, d.Reason.Code)
	assert.Contains(t, d.Reason.Message, "kill_switch_active")
	assert.Contains(t, d.Reason.Message, "data outage")
	assert.Nil(t, d.ConfirmationToken)
}

func TestDomainErrorsMatchByCode(t *testing.T) {
	wrapped := dErrors.Wrap(ErrTokenExpired, dErrors.CodeInternal, "consume failed")

	assert.True(t, errors.Is(wrapped, ErrTokenExpired))
	assert.False(t, errors.Is(wrapped, ErrTokenAlreadyUsed))
}

func TestDecisionJSONShape(t *testing.T) {
	d := Decision{Allowed: true, ModeApplied: ModeAdvisory, Reason: Reason{Code: ReasonDefaultMode}, MatchedRules: []RuleOutcome{}}
	raw, err := json.Marshal(d)
	require.NoError(t, err)

	var body map[string]any
	require.NoError(t, json.Unmarshal(raw, &body))
	assert.Contains(t, body, "confirmation_token")
	assert.Nil(t, body["confirmation_token"])
	assert.Equal(t, "advisory", body["mode_applied"])
}

func ptr[T any](v T) *T { return &v }
