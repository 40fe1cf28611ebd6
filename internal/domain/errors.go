package domain

import (
	"errors"
	"fmt"
	"net/http"
)

// DomainError represents a domain-specific error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
	Cause   error  `json:"-"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *DomainError) Unwrap() error {
	return e.Cause
}

// Common domain error codes
const (
	ErrCodeInvalidInput = "INVALID_INPUT"
	ErrCodeInvalidRules = "INVALID_RULES"
	ErrCodeRateLimited  = "RATE_LIMITED"
	ErrCodeInternal     = "INTERNAL_ERROR"
)

// NewInvalidInputError creates a new invalid input error
func NewInvalidInputError(message, details string) *DomainError {
	return &DomainError{
		Code:    ErrCodeInvalidInput,
		Message: message,
		Details: details,
	}
}

// NewInvalidRulesError wraps a rule validation failure
func NewInvalidRulesError(cause error) *DomainError {
	return &DomainError{
		Code:    ErrCodeInvalidRules,
		Message: "Pricing rules are invalid",
		Details: cause.Error(),
		Cause:   cause,
	}
}

// NewRateLimitedError creates a new rate limited error
func NewRateLimitedError() *DomainError {
	return &DomainError{
		Code:    ErrCodeRateLimited,
		Message: "Too many requests",
	}
}

// NewInternalError creates a new internal error
func NewInternalError(message string, cause error) *DomainError {
	return &DomainError{
		Code:    ErrCodeInternal,
		Message: message,
		Cause:   cause,
	}
}

// GetDomainError extracts a domain error anywhere in err's chain
func GetDomainError(err error) *DomainError {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	return nil
}

// HTTPStatus maps an error to the HTTP status it should be reported with.
// Errors that are not domain errors are internal.
func HTTPStatus(err error) int {
	domainErr := GetDomainError(err)
	if domainErr == nil {
		return http.StatusInternalServerError
	}
	switch domainErr.Code {
	case ErrCodeInvalidInput, ErrCodeInvalidRules:
		return http.StatusBadRequest
	case ErrCodeRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}
