package models

import (
	"encoding/json"
	"fmt"
	"maps"
	"strings"

	"github.com/shopspring/decimal"

	dErrors "trustgate/pkg/domain-errors"
)

// Well-known payload keys.
const (
	KeyBudget = "budget"

	MetricROAS         = "roas"
	MetricSpend        = "spend"
	MetricEMQ          = "emq"
	MetricSignalHealth = "signal_health"
)

// ProposedAction is an automated action submitted for a decision. It is
// never stored on its own; snapshots are kept on tokens and audit entries.
type ProposedAction struct {
	ActionType    string         `json:"action_type"`
	EntityType    string         `json:"entity_type"`
	EntityID      string         `json:"entity_id"`
	ProposedValue map[string]any `json:"proposed_value,omitempty"`
	CurrentValue  map[string]any `json:"current_value,omitempty"`
	Metrics       map[string]any `json:"metrics,omitempty"`
}

// Validate requires the fields every audit entry and token snapshot needs.
func (a ProposedAction) Validate() error {
	if strings.TrimSpace(a.ActionType) == "" {
		return dErrors.New(dErrors.CodeValidation, "action_type is required")
	}
	if strings.TrimSpace(a.EntityID) == "" {
		return dErrors.New(dErrors.CodeValidation, "entity_id is required")
	}
	return nil
}

// Clone returns a copy whose top-level maps are independent of a.
func (a ProposedAction) Clone() ProposedAction {
	c := a
	c.ProposedValue = maps.Clone(a.ProposedValue)
	c.CurrentValue = maps.Clone(a.CurrentValue)
	c.Metrics = maps.Clone(a.Metrics)
	return c
}

// ProposedBudget returns proposed_value.budget when it is numeric.
func (a ProposedAction) ProposedBudget() (decimal.Decimal, bool) {
	return numberAt(a.ProposedValue, KeyBudget)
}

// CurrentBudget returns current_value.budget when it is numeric.
func (a ProposedAction) CurrentBudget() (decimal.Decimal, bool) {
	return numberAt(a.CurrentValue, KeyBudget)
}

// Metric returns a numeric metric from metrics.
func (a ProposedAction) Metric(name string) (decimal.Decimal, bool) {
	return MetricFrom(a.Metrics, name)
}

// MetricFrom reads a numeric value from a metrics map.
func MetricFrom(metrics map[string]any, name string) (decimal.Decimal, bool) {
	return numberAt(metrics, name)
}

func numberAt(m map[string]any, key string) (decimal.Decimal, bool) {
	if m == nil {
		return decimal.Decimal{}, false
	}
	v, ok := m[key]
	if !ok || v == nil {
		return decimal.Decimal{}, false
	}
	d, err := ToDecimal(v)
	if err != nil {
		return decimal.Decimal{}, false
	}
	return d, true
}

// ToDecimal converts JSON-decoded numeric values to a decimal. Numeric
// strings are accepted; booleans, objects and empty strings are not.
func ToDecimal(v any) (decimal.Decimal, error) {
	switch n := v.(type) {
	case decimal.Decimal:
		return n, nil
	case json.Number:
		return decimal.NewFromString(n.String())
	case float64:
		return decimal.NewFromFloat(n), nil
	case float32:
		return decimal.NewFromFloat32(n), nil
	case int:
		return decimal.NewFromInt(int64(n)), nil
	case int64:
		return decimal.NewFromInt(n), nil
	case int32:
		return decimal.NewFromInt32(n), nil
	case string:
		s := strings.TrimSpace(n)
		if s == "" {
			return decimal.Decimal{}, fmt.Errorf("empty numeric string")
		}
		return decimal.NewFromString(s)
	default:
		return decimal.Decimal{}, fmt.Errorf("unsupported numeric type %T", v)
	}
}
