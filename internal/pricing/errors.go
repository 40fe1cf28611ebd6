package pricing

import "errors"

var (
	// ErrInvalidRule is returned when a rule definition is malformed.
	ErrInvalidRule = errors.New("invalid pricing rule")
	// ErrInvalidMonthDay is returned for dates that are not MM-DD calendar days.
	ErrInvalidMonthDay = errors.New("invalid month-day")
	// ErrWrappingWindow is returned for windows that would cross Dec 31. The
	// lexicographic MM-DD comparison cannot express them; split the rule instead.
	ErrWrappingWindow = errors.New("date window crosses year end")
	// ErrDuplicateRule is returned when two rules share an ID.
	ErrDuplicateRule = errors.New("duplicate pricing rule id")
)
