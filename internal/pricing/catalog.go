package pricing

import (
	"fmt"
	"os"
	"sort"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// Catalog is an immutable, priority-ordered set of pricing rules. It is safe for
// concurrent use.
type Catalog struct {
	rules []PricingRule
	byID  map[string]int
}

// NewCatalog validates rules and orders them by priority, highest first. Rules
// with equal priority keep the order they were passed in.
func NewCatalog(rules ...PricingRule) (*Catalog, error) {
	byID := make(map[string]int, len(rules))
	for _, r := range rules {
		if err := r.Validate(); err != nil {
			return nil, err
		}
		if _, dup := byID[r.ID]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateRule, r.ID)
		}
		byID[r.ID] = -1
	}

	sorted := sortByPriority(rules)
	for i, r := range sorted {
		byID[r.ID] = i
	}

	return &Catalog{rules: sorted, byID: byID}, nil
}

// MustCatalog is like NewCatalog but panics on invalid rules. It is meant for
// rule sets compiled into the binary.
func MustCatalog(rules ...PricingRule) *Catalog {
	c, err := NewCatalog(rules...)
	if err != nil {
		panic(err)
	}
	return c
}

// Rules returns a copy of the rules in evaluation order.
func (c *Catalog) Rules() []PricingRule {
	out := make([]PricingRule, len(c.rules))
	for i, r := range c.rules {
		out[i] = r.clone()
	}
	return out
}

// Get returns a rule by ID. Second return indicates existence.
func (c *Catalog) Get(id string) (PricingRule, bool) {
	i, ok := c.byID[id]
	if !ok {
		return PricingRule{}, false
	}
	return c.rules[i].clone(), true
}

func (c *Catalog) Len() int {
	return len(c.rules)
}

// Filter returns a new catalog holding the rules for which keep returns true.
func (c *Catalog) Filter(keep func(PricingRule) bool) *Catalog {
	kept := make([]PricingRule, 0, len(c.rules))
	byID := make(map[string]int, len(c.rules))
	for _, r := range c.rules {
		r = r.clone()
		if keep(r) {
			byID[r.ID] = len(kept)
			kept = append(kept, r)
		}
	}
	return &Catalog{rules: kept, byID: byID}
}

// Validate checks a single rule definition.
func (r PricingRule) Validate() error {
	if r.ID == "" {
		return fmt.Errorf("%w: id is required", ErrInvalidRule)
	}
	if !r.Type.Valid() {
		return fmt.Errorf("%w: %s: unknown type %q", ErrInvalidRule, r.ID, r.Type)
	}
	if !r.AdjustmentType.Valid() {
		return fmt.Errorf("%w: %s: unknown adjustment type %q", ErrInvalidRule, r.ID, r.AdjustmentType)
	}
	if (r.StartDate == "") != (r.EndDate == "") {
		return fmt.Errorf("%w: %s: start_date and end_date must be set together", ErrInvalidRule, r.ID)
	}
	if r.hasWindow() {
		if err := r.StartDate.Validate(); err != nil {
			return fmt.Errorf("%s: start_date: %w", r.ID, err)
		}
		if err := r.EndDate.Validate(); err != nil {
			return fmt.Errorf("%s: end_date: %w", r.ID, err)
		}
		if r.StartDate > r.EndDate {
			return fmt.Errorf("%w: %s: %s..%s", ErrWrappingWindow, r.ID, r.StartDate, r.EndDate)
		}
	}
	for i, cond := range r.Conditions {
		if !cond.Field.Valid() {
			return fmt.Errorf("%w: %s: condition %d: unknown field %q", ErrInvalidRule, r.ID, i, cond.Field)
		}
		if !cond.Operator.Valid() {
			return fmt.Errorf("%w: %s: condition %d: unknown operator %q", ErrInvalidRule, r.ID, i, cond.Operator)
		}
		if cond.Value.IsNaN() {
			return fmt.Errorf("%w: %s: condition %d: value is not a number", ErrInvalidRule, r.ID, i)
		}
	}
	return nil
}

// ParseRules decodes a YAML or JSON rule list. The result is not validated;
// pass it to NewCatalog for that.
func ParseRules(data []byte) ([]PricingRule, error) {
	var doc struct {
		Rules []PricingRule `yaml:"rules"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse rules: %w", err)
	}
	return doc.Rules, nil
}

// ReadRulesFile reads a rule list from a YAML or JSON file
func ReadRulesFile(path string) ([]PricingRule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rules file: %w", err)
	}
	return ParseRules(data)
}

func sortByPriority(rules []PricingRule) []PricingRule {
	sorted := make([]PricingRule, len(rules))
	for i, r := range rules {
		sorted[i] = r.clone()
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Priority > sorted[j].Priority
	})
	return sorted
}

func pct(v int64) decimal.Decimal {
	return decimal.NewFromInt(v)
}

func availabilityAbove(n float64) PricingCondition {
	return PricingCondition{Field: FieldAvailability, Operator: OpGreaterThan, Value: ConditionValue(n)}
}

func availabilityAtMost(n float64) PricingCondition {
	return PricingCondition{Field: FieldAvailability, Operator: OpLessOrEqual, Value: ConditionValue(n)}
}

// DefaultRules returns the built-in rule set in insertion order, which is the
// tie-break order for equal priorities.
func DefaultRules() []PricingRule {
	return []PricingRule{
		{
			ID: "summer-peak", Name: "Summer Peak Season", Type: RuleTypeSeasonal,
			AdjustmentType: AdjustmentPercentage, AdjustmentValue: pct(20),
			StartDate: "06-01", EndDate: "08-31", Priority: 10,
		},
		{
			ID: "spring-shoulder", Name: "Spring Shoulder Season", Type: RuleTypeSeasonal,
			AdjustmentType: AdjustmentPercentage, AdjustmentValue: pct(-10),
			StartDate: "03-01", EndDate: "04-30", Priority: 10,
		},
		{
			ID: "autumn-shoulder", Name: "Autumn Shoulder Season", Type: RuleTypeSeasonal,
			AdjustmentType: AdjustmentPercentage, AdjustmentValue: pct(-10),
			StartDate: "09-15", EndDate: "11-15", Priority: 10,
		},
		// The festive period is two rules: MM-DD windows cannot cross Dec 31.
		{
			ID: "festive-season", Name: "Festive Season", Type: RuleTypeSpecialEvent,
			AdjustmentType: AdjustmentPercentage, AdjustmentValue: pct(25),
			StartDate: "12-20", EndDate: "12-31", Priority: 15,
		},
		{
			ID: "new-year", Name: "New Year Holidays", Type: RuleTypeSpecialEvent,
			AdjustmentType: AdjustmentPercentage, AdjustmentValue: pct(15),
			StartDate: "01-01", EndDate: "01-06", Priority: 15,
		},
		{
			ID: "early-bird-90", Name: "Early Bird (90+ days)", Type: RuleTypeEarlyBird,
			AdjustmentType: AdjustmentPercentage, AdjustmentValue: pct(-20),
			DaysBeforeDeparture: intPtr(90), Priority: 20,
		},
		{
			ID: "early-bird-60", Name: "Early Bird (60+ days)", Type: RuleTypeEarlyBird,
			AdjustmentType: AdjustmentPercentage, AdjustmentValue: pct(-15),
			DaysBeforeDeparture: intPtr(60), Priority: 19,
		},
		{
			ID: "early-bird-30", Name: "Early Bird (30+ days)", Type: RuleTypeEarlyBird,
			AdjustmentType: AdjustmentPercentage, AdjustmentValue: pct(-10),
			DaysBeforeDeparture: intPtr(30), Priority: 18,
		},
		{
			ID: "last-minute-3", Name: "Last Minute (3 days)", Type: RuleTypeLastMinute,
			AdjustmentType: AdjustmentPercentage, AdjustmentValue: pct(-30),
			DaysBeforeDeparture: intPtr(3), Priority: 26,
			Conditions: []PricingCondition{availabilityAbove(3)},
		},
		{
			ID: "last-minute-7", Name: "Last Minute (7 days)", Type: RuleTypeLastMinute,
			AdjustmentType: AdjustmentPercentage, AdjustmentValue: pct(-20),
			DaysBeforeDeparture: intPtr(7), Priority: 25,
			Conditions: []PricingCondition{availabilityAbove(5)},
		},
		{
			ID: "high-demand", Name: "High Demand", Type: RuleTypeDemand,
			AdjustmentType: AdjustmentPercentage, AdjustmentValue: pct(15),
			Priority:   5,
			Conditions: []PricingCondition{availabilityAtMost(5)},
		},
		{
			ID: "last-few-spots", Name: "Last Few Spots", Type: RuleTypeDemand,
			AdjustmentType: AdjustmentPercentage, AdjustmentValue: pct(10),
			Priority:   4,
			Conditions: []PricingCondition{availabilityAtMost(2)},
		},
	}
}

var defaultCatalog = MustCatalog(DefaultRules()...)

// DefaultCatalog returns the built-in catalog. The returned value is shared but
// immutable.
func DefaultCatalog() *Catalog {
	return defaultCatalog
}
