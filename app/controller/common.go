package controller

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/bayarqu/ms-go-paybridge/app/service"
	"github.com/bayarqu/ms-go-paybridge/app/types"
)

func jsonOk(c echo.Context, status int, data interface{}) error {
	return c.JSON(status, types.APIResponse{Success: true, Data: data})
}

func writeError(c echo.Context, status int, code, message string, details ...string) error {
	return c.JSON(status, types.ErrorResponse{
		Error: types.ErrorBody{Code: code, Message: message, Details: details},
	})
}

func writeValidationError(c echo.Context, err error) error {
	return writeError(c, http.StatusBadRequest, "invalid_request", "request validation failed", err.Error())
}

// writeServiceError maps service sentinels onto the HTTP error vocabulary.
func writeServiceError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, service.ErrInvalidRequest):
		return writeError(c, http.StatusBadRequest, "invalid_request", "request validation failed")
	case errors.Is(err, service.ErrTransactionNotFound):
		return writeError(c, http.StatusNotFound, "not_found", "transaction not found")
	case errors.Is(err, service.ErrWithdrawalNotFound):
		return writeError(c, http.StatusNotFound, "not_found", "withdrawal not found")
	case errors.Is(err, service.ErrIdempotencyConflict):
		return writeError(c, http.StatusConflict, "idempotency_conflict", "idempotency key was already used with a different request")
	case errors.Is(err, service.ErrIdempotencyInFlight):
		return writeError(c, http.StatusConflict, "request_in_flight", "a request with this idempotency key is still being processed")
	case errors.Is(err, service.ErrGatewayFailure):
		return writeError(c, http.StatusBadGateway, "gateway_error", "the payment gateway could not process the request")
	case errors.Is(err, service.ErrWithdrawalBelowMinimum):
		return writeError(c, http.StatusBadRequest, "below_minimum", "withdrawal amount is below the minimum")
	case errors.Is(err, service.ErrInsufficientBalance):
		return writeError(c, http.StatusBadRequest, "insufficient_balance", "withdrawable balance is insufficient")
	case errors.Is(err, service.ErrPayoutAccountNotSet):
		return writeError(c, http.StatusBadRequest, "payout_account_missing", "a payout account must be configured first")
	default:
		return writeError(c, http.StatusInternalServerError, "internal_error", "something went wrong")
	}
}

func writeUnauthorized(c echo.Context) error {
	return writeError(c, http.StatusUnauthorized, "unauthorized", "a valid api key is required")
}

// applyRateLimitHeaders sets the x-ratelimit-* headers that accompany every
// limited route, including rejected requests.
func applyRateLimitHeaders(c echo.Context, decision *service.RateLimitDecision) {
	h := c.Response().Header()
	h.Set("X-RateLimit-Limit", strconv.FormatInt(decision.Limit, 10))
	h.Set("X-RateLimit-Remaining", strconv.FormatInt(decision.Remaining, 10))
	h.Set("X-RateLimit-Reset", strconv.FormatInt(decision.Reset.Unix(), 10))
}

func writeRateLimited(c echo.Context) error {
	return writeError(c, http.StatusTooManyRequests, "rate_limited", "rate limit exceeded, retry after the window resets")
}
