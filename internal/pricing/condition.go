package pricing

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ConditionField names the value a guard condition compares against.
type ConditionField string

const (
	FieldAvailability ConditionField = "availability"
	// Bookings, DayOfWeek and GroupSize are accepted in rule definitions but are
	// not backed by evaluation context; they always resolve to 0.
	FieldBookings  ConditionField = "bookings"
	FieldDayOfWeek ConditionField = "dayOfWeek"
	FieldGroupSize ConditionField = "groupSize"
)

func (f ConditionField) Valid() bool {
	switch f {
	case FieldAvailability, FieldBookings, FieldDayOfWeek, FieldGroupSize:
		return true
	}
	return false
}

// Operator is a comparison operator used by guard conditions.
type Operator string

const (
	OpLessThan       Operator = "lt"
	OpLessOrEqual    Operator = "lte"
	OpGreaterThan    Operator = "gt"
	OpGreaterOrEqual Operator = "gte"
	OpEqual          Operator = "eq"
)

func (o Operator) Valid() bool {
	switch o {
	case OpLessThan, OpLessOrEqual, OpGreaterThan, OpGreaterOrEqual, OpEqual:
		return true
	}
	return false
}

// ConditionValue is the right-hand side of a guard condition. It decodes from a
// number or a numeric string; any other string becomes NaN and never matches.
// NaN encodes as JSON null.
type ConditionValue float64

func (v ConditionValue) IsNaN() bool {
	return math.IsNaN(float64(v))
}

func (v ConditionValue) MarshalJSON() ([]byte, error) {
	if v.IsNaN() {
		return []byte("null"), nil
	}
	return json.Marshal(float64(v))
}

func (v *ConditionValue) UnmarshalJSON(data []byte) error {
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("condition value: %w", err)
	}
	switch val := raw.(type) {
	case float64:
		*v = ConditionValue(val)
	case string:
		*v = parseConditionValue(val)
	case nil:
		*v = ConditionValue(math.NaN())
	default:
		return fmt.Errorf("condition value: unsupported JSON type %T", raw)
	}
	return nil
}

func (v *ConditionValue) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("condition value: expected scalar at line %d", node.Line)
	}
	*v = parseConditionValue(node.Value)
	return nil
}

func parseConditionValue(s string) ConditionValue {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return ConditionValue(math.NaN())
	}
	return ConditionValue(f)
}

// PricingCondition is a single guard that must hold for a rule to apply.
type PricingCondition struct {
	Field    ConditionField `json:"field" yaml:"field"`
	Operator Operator       `json:"operator" yaml:"operator"`
	Value    ConditionValue `json:"value" yaml:"value"`
}

// Evaluate checks the condition against the current available spots.
func (c PricingCondition) Evaluate(availableSpots int) bool {
	var left float64
	if c.Field == FieldAvailability {
		left = float64(availableSpots)
	}
	right := float64(c.Value)

	switch c.Operator {
	case OpLessThan:
		return left < right
	case OpLessOrEqual:
		return left <= right
	case OpGreaterThan:
		return left > right
	case OpGreaterOrEqual:
		return left >= right
	case OpEqual:
		return left == right
	default:
		return false
	}
}

// MonthDay is a recurring calendar date in MM-DD form. MonthDay values compare
// lexicographically, so a window cannot span the end of the year.
type MonthDay string

// MonthDayOf formats t as a MonthDay in t's location.
func MonthDayOf(t time.Time) MonthDay {
	return MonthDay(t.Format("01-02"))
}

// Validate checks that m is a real calendar day in MM-DD form. 02-29 is accepted.
func (m MonthDay) Validate() error {
	if len(m) != 5 || m[2] != '-' {
		return fmt.Errorf("%w: %q is not MM-DD", ErrInvalidMonthDay, string(m))
	}
	// 2000 is a leap year, so 02-29 parses.
	if _, err := time.Parse("2006-01-02", "2000-"+string(m)); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidMonthDay, string(m))
	}
	return nil
}

// Within reports whether m lies in the inclusive window [start, end].
func (m MonthDay) Within(start, end MonthDay) bool {
	return m >= start && m <= end
}
