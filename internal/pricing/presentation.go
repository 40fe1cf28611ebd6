package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

const (
	BadgeEarlyBird  = "Early Bird"
	BadgeLastMinute = "Last Minute Deal"
	BadgeSeasonal   = "Seasonal Discount"
	BadgeSpecial    = "Special Offer"

	// savingsBadgeThreshold is the savings percentage that earns a "Save N%" badge.
	savingsBadgeThreshold = 20
	// earlyBirdUrgencyThreshold is the savings percentage needed for the early-bird message.
	earlyBirdUrgencyThreshold = 15
)

const (
	MessageLastMinute = "Last minute deal! Book now before it's gone."
	MessageEarlyBird  = "Early bird savings! Book early to lock in this price."
)

var discountBadges = map[RuleType]string{
	RuleTypeEarlyBird:    BadgeEarlyBird,
	RuleTypeLastMinute:   BadgeLastMinute,
	RuleTypeSeasonal:     BadgeSeasonal,
	RuleTypeSpecialEvent: BadgeSpecial,
}

// Badges derives display badges from the discounts that fired. The result has no
// duplicates and keeps the order of first occurrence.
func Badges(p DynamicPrice) []string {
	badges := make([]string, 0, len(p.Adjustments)+1)
	seen := make(map[string]struct{}, len(p.Adjustments)+1)
	add := func(b string) {
		if _, ok := seen[b]; ok {
			return
		}
		seen[b] = struct{}{}
		badges = append(badges, b)
	}

	for _, adj := range p.Adjustments {
		if adj.IsIncrease {
			continue
		}
		if b, ok := discountBadges[adj.RuleType]; ok {
			add(b)
		}
	}
	if p.SavingsPercentage >= savingsBadgeThreshold {
		add(fmt.Sprintf("Save %d%%", p.SavingsPercentage))
	}
	return badges
}

// UrgencyMessage picks at most one urgency line for a price. The checks run in
// order: last-minute deal, demand surcharge, then a large early-bird discount.
func UrgencyMessage(p DynamicPrice, availableSpots int) (string, bool) {
	if p.hasAdjustment(RuleTypeLastMinute, nil) {
		return MessageLastMinute, true
	}
	if p.hasAdjustment(RuleTypeDemand, func(a PriceAdjustment) bool { return a.IsIncrease }) {
		return fmt.Sprintf("High demand! Only %d spots left.", availableSpots), true
	}
	if p.hasAdjustment(RuleTypeEarlyBird, nil) && p.SavingsPercentage >= earlyBirdUrgencyThreshold {
		return MessageEarlyBird, true
	}
	return "", false
}

// PriceDisplay holds the strings shown next to a price.
type PriceDisplay struct {
	Original   string `json:"original"`
	Final      string `json:"final"`
	Savings    string `json:"savings,omitempty"`
	HasSavings bool   `json:"has_savings"`
}

// Formatter renders money amounts with a currency symbol and locale grouping.
type Formatter struct {
	symbol  string
	printer *message.Printer
}

// NewFormatter creates a formatter for the given symbol and language tag. An
// unparsable tag falls back to English.
func NewFormatter(symbol, lang string) *Formatter {
	tag, err := language.Parse(lang)
	if err != nil {
		tag = language.English
	}
	return &Formatter{symbol: symbol, printer: message.NewPrinter(tag)}
}

// Format renders amount with two decimals, e.g. "$1,200.00".
func (f *Formatter) Format(amount decimal.Decimal) string {
	sign := ""
	if amount.IsNegative() {
		sign = "-"
		amount = amount.Abs()
	}
	return sign + f.symbol + f.printer.Sprint(number.Decimal(amount.InexactFloat64(), number.Scale(pricePlaces)))
}

// FormatPriceWithSavings renders p for display. Savings is only filled in when
// the net effect is a discount.
func (f *Formatter) FormatPriceWithSavings(p DynamicPrice) PriceDisplay {
	d := PriceDisplay{
		Original:   f.Format(p.OriginalPrice),
		Final:      f.Format(p.FinalPrice),
		HasSavings: p.Savings.IsPositive(),
	}
	if d.HasSavings {
		d.Savings = f.Format(p.Savings)
	}
	return d
}
