package pricing

import (
	"time"
)

// IsApplicable reports whether rule fires for a booking made at now for a trip
// departing at departure. daysUntilDeparture is passed in rather than derived so
// that one evaluation uses a single value for every rule.
func IsApplicable(rule PricingRule, now, departure time.Time, daysUntilDeparture, availableSpots int) bool {
	if rule.hasWindow() && !MonthDayOf(now).Within(rule.StartDate, rule.EndDate) {
		return false
	}

	if rule.DaysBeforeDeparture != nil {
		threshold := *rule.DaysBeforeDeparture
		switch rule.Type {
		case RuleTypeEarlyBird:
			if daysUntilDeparture < threshold {
				return false
			}
		case RuleTypeLastMinute:
			if daysUntilDeparture > threshold {
				return false
			}
		}
	}

	for _, cond := range rule.Conditions {
		if !cond.Evaluate(availableSpots) {
			return false
		}
	}

	return true
}
