package provider

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	domainErrors "github.com/mwangikib/coursepay/internal/domain/errors"
	"github.com/mwangikib/coursepay/internal/domain/model"
)

// BankTransferAdapter records an uploaded proof of payment. There is no
// external API behind it: settlement happens when an operator approves the
// proof, so verify always reports pending.
type BankTransferAdapter struct {
	logger *slog.Logger
}

// NewBankTransferAdapter constructs BankTransferAdapter.
func NewBankTransferAdapter(logger *slog.Logger) *BankTransferAdapter {
	return &BankTransferAdapter{logger: logger}
}

func (a *BankTransferAdapter) Name() string {
	return "bank_transfer"
}

// Initiate accepts the order's proof-of-payment reference and queues it
// for manual review.
func (a *BankTransferAdapter) Initiate(ctx context.Context, order *model.PaymentOrder) (*InitiateResult, error) {
	if order.ProofRef == "" {
		return nil, domainErrors.ErrProofRequired
	}

	ref := "bt-" + uuid.NewString()
	a.logger.Info("bank transfer proof recorded",
		slog.String("order_id", order.OrderID),
		slog.String("proof_ref", order.ProofRef),
		slog.String("provider_ref", ref),
	)
	return &InitiateResult{
		ProviderRef:  ref,
		ActionTarget: "proof of payment received, awaiting manual review",
	}, nil
}

// Verify reports pending: bank transfers are settled by an operator, never
// by an automatic poll.
func (a *BankTransferAdapter) Verify(ctx context.Context, providerRef string) (Status, error) {
	return StatusPending, nil
}
