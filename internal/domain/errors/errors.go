package errors

import (
	"errors"
	"fmt"
)

var (
	ErrAlreadyExists       = errors.New("already exists")
	ErrNotFound            = errors.New("not found")
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrInvalidMethod       = errors.New("unknown payment method")
	ErrSignature           = errors.New("webhook signature mismatch")
	ErrOrderExpired        = errors.New("order expired")
	ErrInvalidTransition   = errors.New("invalid status transition")
	ErrProofRequired       = errors.New("bank transfer requires a proof of payment reference")
	ErrProviderUnavailable = errors.New("payment provider unavailable")
)

// UnderpaymentError reports the exact shortfall so the client can correct
// the amount and retry.
type UnderpaymentError struct {
	Required  float64
	Paid      float64
	Shortfall float64
}

func (e UnderpaymentError) Error() string {
	return fmt.Sprintf("underpayment: required %.2f, paid %.2f, short %.2f", e.Required, e.Paid, e.Shortfall)
}

// ProviderRejectedError is a terminal business-level rejection from a
// payment provider. It is never retried.
type ProviderRejectedError struct {
	Provider string
	Reason   string
}

func (e ProviderRejectedError) Error() string {
	return fmt.Sprintf("%s rejected payment: %s", e.Provider, e.Reason)
}

// ConcurrentModificationError signals a lost compare-and-swap race after
// internal retries were exhausted. The caller should re-fetch the order.
type ConcurrentModificationError struct {
	OrderID string
}

func (e ConcurrentModificationError) Error() string {
	return fmt.Sprintf("order %s was modified concurrently", e.OrderID)
}
