package domain

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDomainError_Error(t *testing.T) {
	err := NewInvalidInputError("base_price must not be negative", "got -1")
	assert.Equal(t, "INVALID_INPUT: base_price must not be negative (got -1)", err.Error())

	assert.Equal(t, "RATE_LIMITED: Too many requests", NewRateLimitedError().Error())
}

func TestHTTPStatus(t *testing.T) {
	cause := errors.New("bad window")

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"invalid input", NewInvalidInputError("x", ""), http.StatusBadRequest},
		{"invalid rules", NewInvalidRulesError(cause), http.StatusBadRequest},
		{"rate limited", NewRateLimitedError(), http.StatusTooManyRequests},
		{"internal", NewInternalError("boom", cause), http.StatusInternalServerError},
		{"wrapped domain error", fmt.Errorf("quote: %w", NewInvalidInputError("x", "")), http.StatusBadRequest},
		{"plain error", cause, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(tt.err))
		})
	}
}

func TestDomainError_Unwrap(t *testing.T) {
	cause := errors.New("bad window")
	err := NewInvalidRulesError(cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "bad window", err.Details)
	assert.Nil(t, GetDomainError(cause))
}
