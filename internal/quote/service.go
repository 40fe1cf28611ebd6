package quote

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/zoeholiday/pricingservice/internal/domain"
	"github.com/zoeholiday/pricingservice/internal/events"
	"github.com/zoeholiday/pricingservice/internal/log"
	"github.com/zoeholiday/pricingservice/internal/metrics"
	"github.com/zoeholiday/pricingservice/internal/pricing"
	"github.com/zoeholiday/pricingservice/internal/tracing"
)

// Catalog labels used in metrics
const (
	catalogDefault = "default"
	catalogCustom  = "custom"
)

// Request is the input for pricing a single trip departure
type Request struct {
	TripID         string          `json:"trip_id"`
	BasePrice      decimal.Decimal `json:"base_price"`
	DepartureDate  time.Time       `json:"departure_date"`
	AvailableSpots int             `json:"available_spots"`
	TotalSpots     int             `json:"total_spots"`
}

// Quote is a priced trip together with its display hints
type Quote struct {
	ID           string               `json:"id"`
	TripID       string               `json:"trip_id,omitempty"`
	Price        pricing.DynamicPrice `json:"price"`
	Badges       []string             `json:"badges"`
	Display      pricing.PriceDisplay `json:"display"`
	Urgency      string               `json:"urgency,omitempty"`
	CalculatedAt time.Time            `json:"calculated_at"`
}

// Service prices trips and announces the results
type Service struct {
	calculator *pricing.Calculator
	formatter  *pricing.Formatter
	publisher  events.Publisher
	now        func() time.Time
}

// Option configures a Service
type Option func(*Service)

// WithPublisher sets the publisher quote events are sent to. nil keeps the
// no-op publisher.
func WithPublisher(publisher events.Publisher) Option {
	return func(s *Service) {
		if publisher != nil {
			s.publisher = publisher
		}
	}
}

// WithClock sets the clock used to stamp quotes. It should match the clock
// of the calculator.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// NewService creates a new quote service
func NewService(calculator *pricing.Calculator, formatter *pricing.Formatter, opts ...Option) *Service {
	s := &Service{
		calculator: calculator,
		formatter:  formatter,
		publisher:  events.NoopPublisher{},
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Quote prices a trip against the default catalog
func (s *Service) Quote(ctx context.Context, req Request) (*Quote, error) {
	ctx, span := tracing.StartSpan(ctx, "quote.Quote", requestAttributes(req, catalogDefault)...)
	defer span.End()

	if err := validateRequest(req); err != nil {
		tracing.RecordError(ctx, err)
		metrics.RecordError("invalid_input", "quote")
		return nil, err
	}

	start := time.Now()
	price := s.calculator.Calculate(req.BasePrice, req.DepartureDate, req.AvailableSpots, req.TotalSpots)
	return s.finish(ctx, req, price, catalogDefault, time.Since(start)), nil
}

// Simulate prices a trip against a caller supplied rule set. The rules are
// validated the same way as a catalog.
func (s *Service) Simulate(ctx context.Context, req Request, rules []pricing.PricingRule) (*Quote, error) {
	ctx, span := tracing.StartSpan(ctx, "quote.Simulate", requestAttributes(req, catalogCustom)...)
	defer span.End()

	if err := validateRequest(req); err != nil {
		tracing.RecordError(ctx, err)
		metrics.RecordError("invalid_input", "quote")
		return nil, err
	}

	catalog, err := pricing.NewCatalog(rules...)
	if err != nil {
		derr := domain.NewInvalidRulesError(err)
		tracing.RecordError(ctx, derr)
		metrics.RecordError("invalid_rules", "quote")
		return nil, derr
	}

	start := time.Now()
	price := s.calculator.CalculateWithRules(req.BasePrice, req.DepartureDate, req.AvailableSpots, req.TotalSpots, catalog.Rules())
	return s.finish(ctx, req, price, catalogCustom, time.Since(start)), nil
}

// Rules returns the default catalog in evaluation order
func (s *Service) Rules() []pricing.PricingRule {
	return s.calculator.Catalog().Rules()
}

func (s *Service) finish(ctx context.Context, req Request, price pricing.DynamicPrice, catalog string, elapsed time.Duration) *Quote {
	q := &Quote{
		ID:           uuid.NewString(),
		TripID:       req.TripID,
		Price:        price,
		Badges:       pricing.Badges(price),
		Display:      s.formatter.FormatPriceWithSavings(price),
		CalculatedAt: s.now().UTC(),
	}
	if msg, ok := pricing.UrgencyMessage(price, req.AvailableSpots); ok {
		q.Urgency = msg
	}

	outcome := "unchanged"
	switch {
	case price.Savings.IsPositive():
		outcome = "discounted"
	case price.Savings.IsNegative():
		outcome = "surcharged"
	}
	metrics.RecordQuote(catalog, outcome, price.SavingsPercentage, elapsed)
	for _, adj := range price.Adjustments {
		metrics.RecordAdjustment(string(adj.RuleType), adj.IsIncrease)
	}

	tracing.SetAttributes(ctx,
		attribute.String("quote_id", q.ID),
		attribute.Int("adjustments", len(price.Adjustments)),
		attribute.String("final_price", price.FinalPrice.StringFixed(2)))

	log.Debug(ctx, "Quote calculated",
		zap.String("quote_id", q.ID),
		zap.String("trip_id", req.TripID),
		zap.String("catalog", catalog),
		zap.String("original_price", price.OriginalPrice.String()),
		zap.String("final_price", price.FinalPrice.String()),
		zap.Int("adjustments", len(price.Adjustments)))

	s.publish(ctx, q, catalog)
	return q
}

// publish announces a quote. Failures are logged and never fail the quote.
func (s *Service) publish(ctx context.Context, q *Quote, catalog string) {
	aggregate := q.TripID
	if aggregate == "" {
		aggregate = q.ID
	}

	event := events.NewEvent(events.TypeQuoteCalculated, aggregate, map[string]interface{}{
		"quote_id":           q.ID,
		"trip_id":            q.TripID,
		"catalog":            catalog,
		"original_price":     q.Price.OriginalPrice.String(),
		"final_price":        q.Price.FinalPrice.String(),
		"savings_percentage": q.Price.SavingsPercentage,
		"adjustments":        len(q.Price.Adjustments),
		"calculated_at":      q.CalculatedAt.Format(time.RFC3339),
	})

	err := s.publisher.Publish(ctx, event)
	metrics.RecordEventPublished(event.Type, err)
	if err != nil {
		log.Warn(ctx, "Failed to publish quote event",
			zap.String("quote_id", q.ID),
			zap.String("event_id", event.ID),
			zap.Error(err))
	}
}

func validateRequest(req Request) error {
	if req.BasePrice.IsNegative() {
		return domain.NewInvalidInputError("base price must not be negative", fmt.Sprintf("base_price: %s", req.BasePrice))
	}
	if req.DepartureDate.IsZero() {
		return domain.NewInvalidInputError("departure date is required", "departure_date")
	}
	if req.AvailableSpots < 0 {
		return domain.NewInvalidInputError("available spots must not be negative", fmt.Sprintf("available_spots: %d", req.AvailableSpots))
	}
	if req.TotalSpots < 0 {
		return domain.NewInvalidInputError("total spots must not be negative", fmt.Sprintf("total_spots: %d", req.TotalSpots))
	}
	return nil
}

func requestAttributes(req Request, catalog string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("trip_id", req.TripID),
		attribute.String("catalog", catalog),
		attribute.Int("available_spots", req.AvailableSpots),
	}
}
