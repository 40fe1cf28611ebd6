package pricing

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalog_Order(t *testing.T) {
	rules := DefaultCatalog().Rules()
	require.Len(t, rules, len(DefaultRules()))

	ids := make([]string, len(rules))
	for i, r := range rules {
		ids[i] = r.ID
	}
	assert.Equal(t, []string{
		"last-minute-3", "last-minute-7",
		"early-bird-90", "early-bird-60", "early-bird-30",
		"festive-season", "new-year",
		"summer-peak", "spring-shoulder", "autumn-shoulder",
		"high-demand", "last-few-spots",
	}, ids)
}

func TestCatalog_RulesAreCopies(t *testing.T) {
	c := DefaultCatalog()

	rules := c.Rules()
	*rules[0].DaysBeforeDeparture = 1000
	rules[0].Conditions[0].Value = 99
	rules[0].Name = "changed"

	again, ok := c.Get(rules[0].ID)
	require.True(t, ok)
	assert.Equal(t, 3, *again.DaysBeforeDeparture)
	assert.Equal(t, ConditionValue(3), again.Conditions[0].Value)
	assert.Equal(t, "Last Minute (3 days)", again.Name)
}

func TestCatalog_Get(t *testing.T) {
	r, ok := DefaultCatalog().Get("summer-peak")
	require.True(t, ok)
	assert.Equal(t, RuleTypeSeasonal, r.Type)

	_, ok = DefaultCatalog().Get("missing")
	assert.False(t, ok)
}

func TestCatalog_Filter(t *testing.T) {
	demand := DefaultCatalog().Filter(func(r PricingRule) bool { return r.Type == RuleTypeDemand })

	assert.Equal(t, 2, demand.Len())
	_, ok := demand.Get("high-demand")
	assert.True(t, ok)
	_, ok = demand.Get("summer-peak")
	assert.False(t, ok)
	assert.Equal(t, 12, DefaultCatalog().Len())
}

func TestNewCatalog_Validation(t *testing.T) {
	valid := demandRule("ok", 10, 1)

	tests := []struct {
		name    string
		rules   []PricingRule
		wantErr error
	}{
		{"missing id", []PricingRule{{Type: RuleTypeDemand, AdjustmentType: AdjustmentFixed}}, ErrInvalidRule},
		{"unknown type", []PricingRule{{ID: "x", Type: "loyalty", AdjustmentType: AdjustmentFixed}}, ErrInvalidRule},
		{"unknown adjustment", []PricingRule{{ID: "x", Type: RuleTypeDemand, AdjustmentType: "factor"}}, ErrInvalidRule},
		{"half window", []PricingRule{{ID: "x", Type: RuleTypeSeasonal, AdjustmentType: AdjustmentFixed, StartDate: "01-01"}}, ErrInvalidRule},
		{"bad month day", []PricingRule{{ID: "x", Type: RuleTypeSeasonal, AdjustmentType: AdjustmentFixed, StartDate: "00-10", EndDate: "02-01"}}, ErrInvalidMonthDay},
		{"wrapping window", []PricingRule{{ID: "x", Type: RuleTypeSeasonal, AdjustmentType: AdjustmentFixed, StartDate: "11-01", EndDate: "01-31"}}, ErrWrappingWindow},
		{"non-numeric condition value", []PricingRule{{ID: "x", Type: RuleTypeDemand, AdjustmentType: AdjustmentFixed, Conditions: []PricingCondition{{Field: FieldAvailability, Operator: OpLessThan, Value: ConditionValue(math.NaN())}}}}, ErrInvalidRule},
		{"bad condition field", []PricingRule{{ID: "x", Type: RuleTypeDemand, AdjustmentType: AdjustmentFixed, Conditions: []PricingCondition{{Field: "weather", Operator: OpEqual}}}}, ErrInvalidRule},
		{"bad operator", []PricingRule{{ID: "x", Type: RuleTypeDemand, AdjustmentType: AdjustmentFixed, Conditions: []PricingCondition{{Field: FieldAvailability, Operator: "ne"}}}}, ErrInvalidRule},
		{"duplicate id", []PricingRule{valid, valid}, ErrDuplicateRule},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewCatalog(tt.rules...)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	c, err := NewCatalog(valid)
	require.NoError(t, err)
	assert.Equal(t, 1, c.Len())

	// a negative threshold lets a last-minute rule match departures already past
	overdue := PricingRule{
		ID: "overdue", Type: RuleTypeLastMinute, AdjustmentType: AdjustmentPercentage,
		AdjustmentValue: dec("-40"), DaysBeforeDeparture: intPtr(-1),
	}
	_, err = NewCatalog(overdue)
	require.NoError(t, err)
}

func TestParseRules_NonNumericValueRejected(t *testing.T) {
	rules, err := ParseRules([]byte(`
rules:
  - id: few-left
    name: Few Left
    type: demand
    adjustment_type: percentage
    adjustment_value: 10
    conditions:
      - field: availability
        operator: lte
        value: few
`))
	require.NoError(t, err)

	_, err = NewCatalog(rules...)
	assert.ErrorIs(t, err, ErrInvalidRule)
	assert.Contains(t, err.Error(), "few-left")
}

func TestMustCatalog_Panics(t *testing.T) {
	assert.Panics(t, func() {
		MustCatalog(PricingRule{ID: "broken"})
	})
}

func TestParseRules(t *testing.T) {
	data := []byte(`
rules:
  - id: ramadan-special
    name: Ramadan Special
    type: special-event
    adjustment_type: percentage
    adjustment_value: -12.5
    start_date: "03-01"
    end_date: "03-30"
    priority: 12
  - id: last-call
    name: Last Call
    type: last-minute
    adjustment_type: fixed
    adjustment_value: "-150"
    days_before_departure: 5
    conditions:
      - field: availability
        operator: gt
        value: 2
    priority: 30
`)

	rules, err := ParseRules(data)
	require.NoError(t, err)
	require.Len(t, rules, 2)

	assert.Equal(t, RuleTypeSpecialEvent, rules[0].Type)
	assert.True(t, rules[0].AdjustmentValue.Equal(dec("-12.5")))
	assert.Equal(t, MonthDay("03-01"), rules[0].StartDate)
	require.NotNil(t, rules[1].DaysBeforeDeparture)
	assert.Equal(t, 5, *rules[1].DaysBeforeDeparture)
	assert.Equal(t, ConditionValue(2), rules[1].Conditions[0].Value)
	assert.True(t, rules[1].AdjustmentValue.Equal(dec("-150")))

	c, err := NewCatalog(rules...)
	require.NoError(t, err)
	assert.Equal(t, "last-call", c.Rules()[0].ID)

	_, err = ParseRules([]byte("rules: [unclosed"))
	assert.Error(t, err)
}

func TestReadRulesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"rules": [
		{"id": "flash", "name": "Flash", "type": "special-event",
		 "adjustment_type": "fixed", "adjustment_value": -25, "priority": 3}
	]}`), 0o600))

	rules, err := ReadRulesFile(path)
	require.NoError(t, err)
	require.Len(t, rules, 1)
	assert.Equal(t, "flash", rules[0].ID)
	assert.True(t, rules[0].AdjustmentValue.Equal(dec("-25")))

	_, err = ReadRulesFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
