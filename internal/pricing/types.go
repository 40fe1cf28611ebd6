package pricing

import (
	"github.com/shopspring/decimal"
)

// RuleType represents the kind of pricing rule.
type RuleType string

const (
	RuleTypeSeasonal     RuleType = "seasonal"
	RuleTypeEarlyBird    RuleType = "early-bird"
	RuleTypeLastMinute   RuleType = "last-minute"
	RuleTypeDemand       RuleType = "demand"
	RuleTypeSpecialEvent RuleType = "special-event"
)

// Valid reports whether t is one of the known rule types.
func (t RuleType) Valid() bool {
	switch t {
	case RuleTypeSeasonal, RuleTypeEarlyBird, RuleTypeLastMinute, RuleTypeDemand, RuleTypeSpecialEvent:
		return true
	}
	return false
}

// isBookingTiming reports whether the rule type ends evaluation once it fires.
func (t RuleType) isBookingTiming() bool {
	return t == RuleTypeEarlyBird || t == RuleTypeLastMinute
}

// AdjustmentType determines how AdjustmentValue is interpreted.
type AdjustmentType string

const (
	AdjustmentPercentage AdjustmentType = "percentage"
	AdjustmentFixed      AdjustmentType = "fixed"
)

func (a AdjustmentType) Valid() bool {
	return a == AdjustmentPercentage || a == AdjustmentFixed
}

// PricingRule defines a single declarative pricing rule.
type PricingRule struct {
	ID             string         `json:"id" yaml:"id"`
	Name           string         `json:"name" yaml:"name"`
	Type           RuleType       `json:"type" yaml:"type"`
	AdjustmentType AdjustmentType `json:"adjustment_type" yaml:"adjustment_type"`
	// AdjustmentValue is signed: negative is a discount, positive a surcharge.
	// Percentages apply to the running price, not the base price.
	AdjustmentValue decimal.Decimal `json:"adjustment_value" yaml:"adjustment_value"`
	// StartDate and EndDate form a recurring annual window. Both must be set for the
	// window to be checked.
	StartDate MonthDay `json:"start_date,omitempty" yaml:"start_date,omitempty"`
	EndDate   MonthDay `json:"end_date,omitempty" yaml:"end_date,omitempty"`
	// DaysBeforeDeparture is a lower bound for early-bird rules and an upper bound
	// for last-minute rules. Ignored by the other types.
	DaysBeforeDeparture *int               `json:"days_before_departure,omitempty" yaml:"days_before_departure,omitempty"`
	Conditions          []PricingCondition `json:"conditions,omitempty" yaml:"conditions,omitempty"`
	Priority            int                `json:"priority" yaml:"priority"`
}

func (r PricingRule) hasWindow() bool {
	return r.StartDate != "" && r.EndDate != ""
}

// clone returns a deep copy so catalog callers cannot mutate shared state.
func (r PricingRule) clone() PricingRule {
	out := r
	if r.DaysBeforeDeparture != nil {
		days := *r.DaysBeforeDeparture
		out.DaysBeforeDeparture = &days
	}
	if r.Conditions != nil {
		out.Conditions = make([]PricingCondition, len(r.Conditions))
		copy(out.Conditions, r.Conditions)
	}
	return out
}

// PriceAdjustment describes the effect of one rule that fired.
type PriceAdjustment struct {
	RuleName string          `json:"rule_name"`
	RuleType RuleType        `json:"rule_type"`
	Amount   decimal.Decimal `json:"amount"`
	// IsIncrease is true for surcharges and false for discounts.
	IsIncrease bool `json:"is_increase"`
}

// DynamicPrice is the result of a single evaluation.
type DynamicPrice struct {
	OriginalPrice     decimal.Decimal   `json:"original_price"`
	FinalPrice        decimal.Decimal   `json:"final_price"`
	Adjustments       []PriceAdjustment `json:"adjustments"`
	Savings           decimal.Decimal   `json:"savings"`
	SavingsPercentage int               `json:"savings_percentage"`
}

// hasAdjustment reports whether a rule of type t fired and, when match is set,
// whether that adjustment satisfies it.
func (p DynamicPrice) hasAdjustment(t RuleType, match func(PriceAdjustment) bool) bool {
	for _, adj := range p.Adjustments {
		if adj.RuleType == t && (match == nil || match(adj)) {
			return true
		}
	}
	return false
}

func intPtr(v int) *int {
	return &v
}
