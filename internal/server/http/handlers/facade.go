package handlers

import (
	"context"

	"github.com/mwangikib/coursepay/internal/domain/model"
	"github.com/mwangikib/coursepay/internal/usecase"
)

// PaymentFacade describes payment operations required by handlers.
type PaymentFacade interface {
	CreateOrder(ctx context.Context, input usecase.CreateOrderInput) (*usecase.CreateOrderResult, error)
	ValidateAmount(ctx context.Context, courseID int64, method model.PaymentMethod, paid float64) (*usecase.ValidateAmountResult, error)
	GetOrder(ctx context.Context, orderID string) (*model.PaymentOrder, []model.HistoryEntry, error)
	VerifyPayment(ctx context.Context, orderID string) (*model.PaymentOrder, error)
}

// AdminFacade covers the manual-review and refund operations.
type AdminFacade interface {
	ApprovePayment(ctx context.Context, orderID, reason string) (*model.PaymentOrder, error)
	RejectPayment(ctx context.Context, orderID, reason string) (*model.PaymentOrder, error)
	RefundPayment(ctx context.Context, orderID, reason string) (*model.PaymentOrder, error)
}

// WebhookFacade ingests provider callbacks.
type WebhookFacade interface {
	ProcessWebhook(ctx context.Context, providerName string, body []byte, sig string) error
}

// HealthFacade reports storage connectivity.
type HealthFacade interface {
	HealthCheck(ctx context.Context) error
}

// SettlementFacade aggregates the full set of operations used across handlers.
type SettlementFacade interface {
	PaymentFacade
	AdminFacade
	WebhookFacade
	HealthFacade
}
