package provider

import (
	"context"

	domainErrors "github.com/mwangikib/coursepay/internal/domain/errors"
	"github.com/mwangikib/coursepay/internal/domain/model"
)

// Status is the canonical provider-agnostic payment status.
type Status string

const (
	StatusSuccess Status = "SUCCESS"
	StatusFailed  Status = "FAILED"
	StatusPending Status = "PENDING"
)

// InitiateResult is returned when a provider accepts a payment request.
type InitiateResult struct {
	// ProviderRef is the provider's own transaction identifier, used later
	// for verification and webhook correlation.
	ProviderRef string
	// ActionTarget tells the client what happens next: a checkout URL, a
	// push prompt notice, or a manual-review acknowledgement.
	ActionTarget string
}

// Adapter wraps one external payment method behind initiate and verify.
// Extending the platform with a new method means adding an implementation,
// not branching on method names.
type Adapter interface {
	Name() string
	Initiate(ctx context.Context, order *model.PaymentOrder) (*InitiateResult, error)
	Verify(ctx context.Context, providerRef string) (Status, error)
}

// Registry resolves adapters by payment method.
type Registry map[model.PaymentMethod]Adapter

// For returns the adapter registered for a method.
func (r Registry) For(method model.PaymentMethod) (Adapter, error) {
	adapter, ok := r[method]
	if !ok {
		return nil, domainErrors.ErrInvalidMethod
	}
	return adapter, nil
}
