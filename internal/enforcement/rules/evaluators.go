package rules

import (
	"github.com/shopspring/decimal"

	"trustgate/internal/enforcement/models"
)

// Input is what a comparator sees: the proposed action plus the metrics it
// is evaluated against.
type Input struct {
	Action  models.ProposedAction
	Metrics map[string]any
}

// comparator reports the observed value and whether the rule matches.
// ok=false means the input needed by the rule is missing, which never matches.
type comparator func(threshold decimal.Decimal, in Input) (observed decimal.Decimal, matched bool, ok bool)

var hundred = decimal.NewFromInt(100)

// comparators is the closed dispatch table. Every models.RuleType must have
// an entry; TestComparatorsCoverAllRuleTypes keeps the two in sync.
var comparators = map[models.RuleType]comparator{
	models.RuleBudgetExceeded: func(threshold decimal.Decimal, in Input) (decimal.Decimal, bool, bool) {
		budget, ok := in.Action.ProposedBudget()
		if !ok {
			return decimal.Decimal{}, false, false
		}
		return budget, budget.GreaterThan(threshold), true
	},
	models.RuleROASBelowThreshold: func(threshold decimal.Decimal, in Input) (decimal.Decimal, bool, bool) {
		roas, ok := models.MetricFrom(in.Metrics, models.MetricROAS)
		if !ok {
			return decimal.Decimal{}, false, false
		}
		return roas, roas.LessThan(threshold), true
	},
	models.RuleBudgetChangePctExceeded: func(threshold decimal.Decimal, in Input) (decimal.Decimal, bool, bool) {
		proposed, ok := in.Action.ProposedBudget()
		if !ok {
			return decimal.Decimal{}, false, false
		}
		current, ok := in.Action.CurrentBudget()
		if !ok || !current.IsPositive() {
			return decimal.Decimal{}, false, false
		}
		pct := proposed.Sub(current).Abs().Div(current).Mul(hundred)
		return pct, pct.GreaterThan(threshold), true
	},
	models.RuleSpendExceeded: func(threshold decimal.Decimal, in Input) (decimal.Decimal, bool, bool) {
		spend, ok := models.MetricFrom(in.Metrics, models.MetricSpend)
		if !ok {
			return decimal.Decimal{}, false, false
		}
		return spend, spend.GreaterThan(threshold), true
	},
	models.RuleSignalHealthBelowThreshold: func(threshold decimal.Decimal, in Input) (decimal.Decimal, bool, bool) {
		score, ok := models.MetricFrom(in.Metrics, models.MetricEMQ)
		if !ok {
			score, ok = models.MetricFrom(in.Metrics, models.MetricSignalHealth)
		}
		if !ok {
			return decimal.Decimal{}, false, false
		}
		return score, score.LessThan(threshold), true
	},
}

// Match evaluates a single rule. Disabled rules never match.
func Match(rule models.EnforcementRule, in Input) (models.RuleOutcome, bool) {
	if !rule.Enabled {
		return models.RuleOutcome{}, false
	}
	cmp, known := comparators[rule.Type]
	if !known {
		return models.RuleOutcome{}, false
	}
	observed, matched, ok := cmp(rule.Threshold, in)
	if !ok || !matched {
		return models.RuleOutcome{}, false
	}
	return models.RuleOutcome{
		RuleID:      rule.ID,
		RuleType:    rule.Type,
		Mode:        rule.Mode,
		Threshold:   rule.Threshold,
		Observed:    observed,
		Source:      models.SourceRule,
		Description: rule.Description,
	}, true
}
