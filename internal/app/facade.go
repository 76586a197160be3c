package app

import (
	"context"

	"github.com/mwangikib/coursepay/internal/domain/model"
	"github.com/mwangikib/coursepay/internal/domain/repository"
	"github.com/mwangikib/coursepay/internal/usecase"
)

// HealthChecker reports storage connectivity for the health endpoint.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// PaymentFacade aggregates the settlement use cases behind the surface
// the HTTP layer and the background worker consume.
type PaymentFacade struct {
	payments   *usecase.PaymentUseCase
	webhooks   *usecase.WebhookUseCase
	reconciler *usecase.Reconciler
	orders     repository.OrderRepository
	health     HealthChecker
}

// NewPaymentFacade constructs PaymentFacade.
func NewPaymentFacade(
	payments *usecase.PaymentUseCase,
	webhooks *usecase.WebhookUseCase,
	reconciler *usecase.Reconciler,
	orders repository.OrderRepository,
	health HealthChecker,
) *PaymentFacade {
	return &PaymentFacade{
		payments:   payments,
		webhooks:   webhooks,
		reconciler: reconciler,
		orders:     orders,
		health:     health,
	}
}

func (f *PaymentFacade) CreateOrder(ctx context.Context, input usecase.CreateOrderInput) (*usecase.CreateOrderResult, error) {
	return f.payments.CreateOrder(ctx, input)
}

func (f *PaymentFacade) ValidateAmount(ctx context.Context, courseID int64, method model.PaymentMethod, paid float64) (*usecase.ValidateAmountResult, error) {
	return f.payments.ValidateAmount(ctx, courseID, method, paid)
}

func (f *PaymentFacade) GetOrder(ctx context.Context, orderID string) (*model.PaymentOrder, []model.HistoryEntry, error) {
	return f.payments.GetOrder(ctx, orderID)
}

func (f *PaymentFacade) VerifyPayment(ctx context.Context, orderID string) (*model.PaymentOrder, error) {
	return f.payments.Verify(ctx, orderID)
}

func (f *PaymentFacade) ApprovePayment(ctx context.Context, orderID, reason string) (*model.PaymentOrder, error) {
	return f.payments.Approve(ctx, orderID, reason)
}

func (f *PaymentFacade) RejectPayment(ctx context.Context, orderID, reason string) (*model.PaymentOrder, error) {
	return f.payments.Reject(ctx, orderID, reason)
}

func (f *PaymentFacade) RefundPayment(ctx context.Context, orderID, reason string) (*model.PaymentOrder, error) {
	return f.payments.Refund(ctx, orderID, reason)
}

func (f *PaymentFacade) ProcessWebhook(ctx context.Context, providerName string, body []byte, sig string) error {
	return f.webhooks.Process(ctx, providerName, body, sig)
}

func (f *PaymentFacade) HealthCheck(ctx context.Context) error {
	return f.health.HealthCheck(ctx)
}

// Worker-facing operations.

func (f *PaymentFacade) ExpiredOrders(ctx context.Context, limit int) ([]model.PaymentOrder, error) {
	return f.orders.SelectExpired(ctx, limit)
}

func (f *PaymentFacade) InFlightOrders(ctx context.Context, limit int) ([]model.PaymentOrder, error) {
	return f.orders.SelectInFlight(ctx, limit)
}

func (f *PaymentFacade) EnrollmentBacklog(ctx context.Context, limit int) ([]model.PaymentOrder, error) {
	return f.orders.SelectEnrollmentPending(ctx, limit)
}

func (f *PaymentFacade) ExpireOrder(ctx context.Context, orderID string) error {
	_, err := f.reconciler.Apply(ctx, orderID, model.OrderStatusExpired, "sweep", "payment window elapsed", "")
	return err
}

func (f *PaymentFacade) PollProvider(ctx context.Context, orderID string) error {
	_, err := f.payments.Verify(ctx, orderID)
	return err
}

func (f *PaymentFacade) RetryEnrollment(ctx context.Context, order *model.PaymentOrder) error {
	return f.reconciler.RetryEnrollment(ctx, order)
}
