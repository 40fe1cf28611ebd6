package pricing

import (
	"math"
	"time"

	"github.com/shopspring/decimal"
)

var (
	// minPriceRatio is the floor applied after all rules: never below half of base.
	minPriceRatio = decimal.NewFromFloat(0.5)
	hundred       = decimal.NewFromInt(100)
	half          = decimal.New(5, -1)
)

const pricePlaces = 2

// Calculator computes dynamic prices from a base price and a rule catalog.
// A Calculator holds no mutable state and may be shared between goroutines.
type Calculator struct {
	catalog *Catalog
	now     func() time.Time
}

// Option configures a Calculator.
type Option func(*Calculator)

// WithClock overrides the evaluation clock. Defaults to time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Calculator) {
		c.now = now
	}
}

// NewCalculator creates a calculator over catalog. A nil catalog selects
// DefaultCatalog.
func NewCalculator(catalog *Catalog, opts ...Option) *Calculator {
	if catalog == nil {
		catalog = DefaultCatalog()
	}
	c := &Calculator{catalog: catalog, now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Catalog returns the catalog the calculator evaluates by default.
func (c *Calculator) Catalog() *Catalog {
	return c.catalog
}

// Calculate prices a trip against the calculator's catalog.
// totalSpots is accepted for interface parity and does not affect the result.
func (c *Calculator) Calculate(basePrice decimal.Decimal, departure time.Time, availableSpots, totalSpots int) DynamicPrice {
	return c.evaluate(basePrice, departure, availableSpots, c.catalog.rules)
}

// CalculateWithRules prices a trip using the provided rules instead of the
// catalog. Rules are ordered by priority with a stable sort, so equal
// priorities keep the order given.
func (c *Calculator) CalculateWithRules(basePrice decimal.Decimal, departure time.Time, availableSpots, totalSpots int, rules []PricingRule) DynamicPrice {
	return c.evaluate(basePrice, departure, availableSpots, sortByPriority(rules))
}

// DaysUntil returns the whole days from now to departure, rounding partial days up.
func DaysUntil(now, departure time.Time) int {
	return int(math.Ceil(departure.Sub(now).Hours() / 24))
}

// evaluate expects rules already ordered by priority.
func (c *Calculator) evaluate(basePrice decimal.Decimal, departure time.Time, availableSpots int, rules []PricingRule) DynamicPrice {
	now := c.now()
	days := DaysUntil(now, departure)

	price := basePrice
	adjustments := make([]PriceAdjustment, 0, 2)

	for _, rule := range rules {
		if !IsApplicable(rule, now, departure, days, availableSpots) {
			continue
		}

		delta := adjustmentFor(rule, price)
		if delta.IsZero() {
			continue
		}

		adjustments = append(adjustments, PriceAdjustment{
			RuleName:   rule.Name,
			RuleType:   rule.Type,
			Amount:     delta.Abs(),
			IsIncrease: delta.IsPositive(),
		})
		price = price.Add(delta)

		// Booking-timing discounts never stack with anything evaluated after them.
		if rule.Type.isBookingTiming() {
			break
		}
	}

	floor := basePrice.Mul(minPriceRatio)
	if price.LessThan(floor) {
		price = floor
	}
	final := price.Round(pricePlaces)

	savings := basePrice.Sub(final)
	return DynamicPrice{
		OriginalPrice:     basePrice,
		FinalPrice:        final,
		Adjustments:       adjustments,
		Savings:           savings,
		SavingsPercentage: savingsPercentage(savings, basePrice),
	}
}

func adjustmentFor(rule PricingRule, current decimal.Decimal) decimal.Decimal {
	switch rule.AdjustmentType {
	case AdjustmentPercentage:
		return current.Mul(rule.AdjustmentValue).Div(hundred)
	case AdjustmentFixed:
		return rule.AdjustmentValue
	default:
		return decimal.Zero
	}
}

func savingsPercentage(savings, basePrice decimal.Decimal) int {
	if basePrice.IsZero() {
		return 0
	}
	// halves round toward +inf: -12.5 becomes -12, 12.5 becomes 13
	return int(savings.Div(basePrice).Mul(hundred).Add(half).Floor().IntPart())
}
