package rest

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/feral-file/lattice-ledger/internal/domain"
	"github.com/feral-file/lattice-ledger/internal/logger"
)

// ErrorCode represents a standardized error code
type ErrorCode string

const (
	// Client errors (4xx)
	errCodeBadRequest       ErrorCode = "bad_request"
	errCodeNotFound         ErrorCode = "not_found"
	errCodeValidationFailed ErrorCode = "validation_failed"
	errCodeForbidden        ErrorCode = "forbidden"
	errCodeConflict         ErrorCode = "conflict"
	errCodePaymentRequired  ErrorCode = "insufficient_payment"

	// Server errors (5xx)
	errCodeInternalError ErrorCode = "internal_error"
)

// errorResponse represents a standardized error response
type errorResponse struct {
	Error errorDetail `json:"error"`
}

// errorDetail contains error information
type errorDetail struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Details string    `json:"details,omitempty"`
}

// respondWithError sends a standardized error response
func respondWithError(c *gin.Context, statusCode int, code ErrorCode, message string, details ...string) {
	response := errorResponse{
		Error: errorDetail{
			Code:    code,
			Message: message,
		},
	}

	if len(details) > 0 {
		response.Error.Details = details[0]
	}

	c.JSON(statusCode, response)
}

// respondBadRequest sends a 400 Bad Request response
func respondBadRequest(c *gin.Context, message string, details ...string) {
	respondWithError(c, http.StatusBadRequest, errCodeBadRequest, message, details...)
}

// respondNotFound sends a 404 Not Found response
func respondNotFound(c *gin.Context, message string, details ...string) {
	respondWithError(c, http.StatusNotFound, errCodeNotFound, message, details...)
}

// respondValidationError sends a 400 Bad Request with validation error
func respondValidationError(c *gin.Context, details string) {
	respondWithError(c, http.StatusBadRequest, errCodeValidationFailed, "Validation failed", details)
}

// respondInternalError sends a 500 Internal Server Error response and logs the error
func respondInternalError(c *gin.Context, err error, message string, fields ...zap.Field) {
	logger.Error(err, fields...)
	respondWithError(c, http.StatusInternalServerError, errCodeInternalError, message)
}

// respondDomainError maps ledger sentinel errors to HTTP responses.
// Anything unrecognized is treated as an internal error.
func respondDomainError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidParameters),
		errors.Is(err, domain.ErrInvalidRoyalty):
		respondValidationError(c, err.Error())

	case errors.Is(err, domain.ErrNotAuthorized):
		respondWithError(c, http.StatusForbidden, errCodeForbidden, "Not authorized", err.Error())

	case errors.Is(err, domain.ErrCollectionNotFound),
		errors.Is(err, domain.ErrNftNotFound),
		errors.Is(err, domain.ErrListingNotFound):
		respondNotFound(c, err.Error())

	case errors.Is(err, domain.ErrInsufficientPayment):
		respondWithError(c, http.StatusPaymentRequired, errCodePaymentRequired, err.Error())

	case errors.Is(err, domain.ErrCollectionClosed),
		errors.Is(err, domain.ErrCollectionLimitReached),
		errors.Is(err, domain.ErrNotOwner),
		errors.Is(err, domain.ErrListingExists),
		errors.Is(err, domain.ErrOwnerLimitReached):
		respondWithError(c, http.StatusConflict, errCodeConflict, err.Error())

	default:
		respondInternalError(c, err, "Operation failed")
	}
}
