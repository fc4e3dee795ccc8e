package service

import "errors"

var (
	ErrInvalidRequest      = errors.New("invalid request")
	ErrTransactionNotFound = errors.New("transaction not found")

	// ErrIdempotencyConflict means the key was reused with a different body.
	ErrIdempotencyConflict = errors.New("idempotency key reused with a different request")
	// ErrIdempotencyInFlight means an equivalent request is still being
	// processed under a live lease.
	ErrIdempotencyInFlight = errors.New("request with this idempotency key is still in flight")

	ErrGatewayFailure = errors.New("payment gateway request failed")

	ErrWithdrawalBelowMinimum = errors.New("withdrawal amount is below the minimum")
	ErrInsufficientBalance    = errors.New("insufficient withdrawable balance")
	ErrPayoutAccountNotSet    = errors.New("payout account is not configured")
	ErrWithdrawalNotFound     = errors.New("withdrawal not found")
)
