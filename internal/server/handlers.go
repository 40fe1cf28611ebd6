package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/zoeholiday/pricingservice/internal/domain"
	"github.com/zoeholiday/pricingservice/internal/log"
	"github.com/zoeholiday/pricingservice/internal/pricing"
	"github.com/zoeholiday/pricingservice/internal/quote"
)

// QuoteRequest is the JSON body of POST /v1/quotes. departure_date accepts
// RFC 3339 timestamps or plain YYYY-MM-DD dates, read as midnight UTC.
type QuoteRequest struct {
	TripID         string           `json:"trip_id"`
	BasePrice      *decimal.Decimal `json:"base_price" binding:"required"`
	DepartureDate  string           `json:"departure_date" binding:"required"`
	AvailableSpots int              `json:"available_spots"`
	TotalSpots     int              `json:"total_spots"`
}

// SimulateRequest is the JSON body of POST /v1/quotes/simulate
type SimulateRequest struct {
	QuoteRequest
	Rules []pricing.PricingRule `json:"rules" binding:"required"`
}

// RulesResponse lists the catalog in evaluation order
type RulesResponse struct {
	Rules []pricing.PricingRule `json:"rules"`
	Count int                   `json:"count"`
}

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

type ErrorBody struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Details   string `json:"details,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// QuoteHandler serves the quote API
type QuoteHandler struct {
	service *quote.Service
}

// NewQuoteHandler creates a new quote handler
func NewQuoteHandler(service *quote.Service) *QuoteHandler {
	return &QuoteHandler{service: service}
}

// CreateQuote prices a trip against the default catalog
func (h *QuoteHandler) CreateQuote(c *gin.Context) {
	var body QuoteRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		abortWithError(c, domain.NewInvalidInputError("invalid request body", err.Error()))
		return
	}

	req, err := body.toQuoteRequest()
	if err != nil {
		abortWithError(c, err)
		return
	}

	ctx := log.WithTripID(c.Request.Context(), req.TripID)
	q, err := h.service.Quote(ctx, req)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, q)
}

// SimulateQuote prices a trip against the rules in the request body
func (h *QuoteHandler) SimulateQuote(c *gin.Context) {
	var body SimulateRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		abortWithError(c, domain.NewInvalidInputError("invalid request body", err.Error()))
		return
	}

	req, err := body.toQuoteRequest()
	if err != nil {
		abortWithError(c, err)
		return
	}

	ctx := log.WithTripID(c.Request.Context(), req.TripID)
	q, err := h.service.Simulate(ctx, req, body.Rules)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, q)
}

// ListRules returns the default catalog
func (h *QuoteHandler) ListRules(c *gin.Context) {
	rules := h.service.Rules()
	c.JSON(http.StatusOK, RulesResponse{Rules: rules, Count: len(rules)})
}

func (r QuoteRequest) toQuoteRequest() (quote.Request, error) {
	departure, err := parseDepartureDate(r.DepartureDate)
	if err != nil {
		return quote.Request{}, domain.NewInvalidInputError("invalid departure date", err.Error())
	}
	return quote.Request{
		TripID:         r.TripID,
		BasePrice:      *r.BasePrice,
		DepartureDate:  departure,
		AvailableSpots: r.AvailableSpots,
		TotalSpots:     r.TotalSpots,
	}, nil
}

func parseDepartureDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("departure_date %q is neither RFC 3339 nor YYYY-MM-DD", s)
	}
	return t, nil
}

// abortWithError writes err as an ErrorResponse with the status it maps to
func abortWithError(c *gin.Context, err error) {
	ctx := c.Request.Context()
	status := domain.HTTPStatus(err)
	_ = c.Error(err)

	body := ErrorBody{
		Code:      domain.ErrCodeInternal,
		Message:   "internal server error",
		RequestID: log.RequestID(ctx),
	}
	if derr := domain.GetDomainError(err); derr != nil {
		body.Code = derr.Code
		body.Message = derr.Message
		body.Details = derr.Details
	} else {
		log.Error(ctx, "Unhandled error", zap.Error(err))
	}

	c.AbortWithStatusJSON(status, ErrorResponse{Error: body})
}
