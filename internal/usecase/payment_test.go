package usecase_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	domainErrors "github.com/mwangikib/coursepay/internal/domain/errors"
	"github.com/mwangikib/coursepay/internal/domain/model"
	"github.com/mwangikib/coursepay/internal/metrics"
	"github.com/mwangikib/coursepay/internal/pkg/fees"
	"github.com/mwangikib/coursepay/internal/pkg/orderid"
	"github.com/mwangikib/coursepay/internal/provider"
	"github.com/mwangikib/coursepay/internal/test"
	"github.com/mwangikib/coursepay/internal/usecase"
)

type paymentFixture struct {
	*reconcilerFixture
	payments *usecase.PaymentUseCase
	registry provider.Registry
}

func defaultRates() fees.Rates {
	return fees.Rates{
		PlatformFeeRate:    0.10,
		CardFeeRate:        0.029,
		CardFixedFee:       0.30,
		MobileMoneyFeeRate: 0.03,
		ExchangeRate:       129,
		BaseCurrency:       "USD",
		DisplayCurrency:    "KES",
	}
}

func newPaymentFixture(t *testing.T, registry provider.Registry) *paymentFixture {
	t.Helper()
	f := newReconcilerFixture()
	f.catalog.Courses = map[int64]*model.Course{
		42: {ID: 42, Title: "Distributed Systems", BasePrice: 50},
	}

	generator, err := orderid.New()
	if err != nil {
		t.Fatalf("order id generator: %v", err)
	}

	payments := usecase.NewPaymentUseCase(
		f.orders, f.catalog,
		fees.NewCalculator(defaultRates()),
		fees.NewValidator(0.01, 100),
		registry, generator, f.reconciler,
		metrics.NewSettlement(), testLogger(),
		24*time.Hour, 20*time.Minute,
	)
	return &paymentFixture{reconcilerFixture: f, payments: payments, registry: registry}
}

func momoRegistry(stub test.AdapterStub) provider.Registry {
	stub.NameVal = "mobile_money"
	return provider.Registry{model.MethodMobileMoney: stub}
}

func TestCreateOrderHappyPath(t *testing.T) {
	f := newPaymentFixture(t, momoRegistry(test.AdapterStub{ProviderRef: "mm-777"}))

	result, err := f.payments.CreateOrder(context.Background(), usecase.CreateOrderInput{
		UserID:          11,
		CourseID:        42,
		Method:          model.MethodMobileMoney,
		RequestedAmount: 56.50,
		Phone:           "+254700000001",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	order := result.Order
	if order.Status != model.OrderStatusPending {
		t.Fatalf("expected PENDING, got %s", order.Status)
	}
	if order.PlatformFee != 5.00 || order.ProcessingFee != 1.50 || order.NetAmount != 43.50 || order.TotalAmount != 56.50 {
		t.Fatalf("unexpected amounts %+v", order)
	}
	if order.ProviderRef != "mm-777" {
		t.Fatalf("provider ref not persisted: %q", order.ProviderRef)
	}
	if result.ActionTarget == "" {
		t.Fatal("expected action target")
	}
	if result.Quote.DisplayCurrency != "KES" || result.Quote.DisplayAmount != 7289 {
		t.Fatalf("unexpected display quote %+v", result.Quote)
	}
}

func TestCreateOrderDuplicateGuard(t *testing.T) {
	f := newPaymentFixture(t, momoRegistry(test.AdapterStub{}))

	input := usecase.CreateOrderInput{
		UserID:          11,
		CourseID:        42,
		Method:          model.MethodMobileMoney,
		RequestedAmount: 56.50,
		Phone:           "+254700000001",
	}
	first, err := f.payments.CreateOrder(context.Background(), input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	second, err := f.payments.CreateOrder(context.Background(), input)
	if !errors.Is(err, domainErrors.ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}
	if second == nil || second.Order.OrderID != first.Order.OrderID {
		t.Fatal("existing order must be returned")
	}
}

func TestCreateOrderConcurrentDuplicatesYieldOneOrder(t *testing.T) {
	f := newPaymentFixture(t, momoRegistry(test.AdapterStub{ProviderRef: "mm-race"}))

	// Both creators pass the duplicate check before either inserts; the
	// store's uniqueness on the active (user, course) pair must break the
	// tie.
	var checks int32
	barrier := make(chan struct{})
	f.orders.FindActiveFn = func(context.Context, int64, int64, time.Duration) (*model.PaymentOrder, error) {
		if atomic.AddInt32(&checks, 1) == 2 {
			close(barrier)
		}
		<-barrier
		return nil, domainErrors.ErrNotFound
	}

	input := usecase.CreateOrderInput{
		UserID:          11,
		CourseID:        42,
		Method:          model.MethodMobileMoney,
		RequestedAmount: 56.50,
		Phone:           "+254700000001",
	}

	errs := make(chan error, 2)
	for i := 0; i < 2; i++ {
		go func() {
			_, err := f.payments.CreateOrder(context.Background(), input)
			errs <- err
		}()
	}

	var created, duplicates int
	for i := 0; i < 2; i++ {
		switch err := <-errs; {
		case err == nil:
			created++
		case errors.Is(err, domainErrors.ErrAlreadyExists):
			duplicates++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if created != 1 || duplicates != 1 {
		t.Fatalf("expected one winner and one duplicate, got %d created, %d duplicates", created, duplicates)
	}
	if _, ok := f.orders.Snapshot(2); ok {
		t.Fatal("only one order may be stored")
	}
}

func TestCreateOrderUnderpayment(t *testing.T) {
	f := newPaymentFixture(t, momoRegistry(test.AdapterStub{}))

	_, err := f.payments.CreateOrder(context.Background(), usecase.CreateOrderInput{
		UserID:          11,
		CourseID:        42,
		Method:          model.MethodMobileMoney,
		RequestedAmount: 50,
		Phone:           "+254700000001",
	})
	var underpaid domainErrors.UnderpaymentError
	if !errors.As(err, &underpaid) {
		t.Fatalf("expected UnderpaymentError, got %v", err)
	}
	if underpaid.Shortfall != 6.50 {
		t.Fatalf("expected shortfall 6.50, got %.2f", underpaid.Shortfall)
	}
}

func TestCreateOrderUnknownMethod(t *testing.T) {
	f := newPaymentFixture(t, momoRegistry(test.AdapterStub{}))

	_, err := f.payments.CreateOrder(context.Background(), usecase.CreateOrderInput{
		UserID:          11,
		CourseID:        42,
		Method:          model.PaymentMethod("crypto"),
		RequestedAmount: 56.50,
	})
	if !errors.Is(err, domainErrors.ErrInvalidMethod) {
		t.Fatalf("expected ErrInvalidMethod, got %v", err)
	}
}

func TestCreateOrderBankTransferRequiresProof(t *testing.T) {
	registry := provider.Registry{model.MethodBankTransfer: test.AdapterStub{NameVal: "bank_transfer"}}
	f := newPaymentFixture(t, registry)

	_, err := f.payments.CreateOrder(context.Background(), usecase.CreateOrderInput{
		UserID:          11,
		CourseID:        42,
		Method:          model.MethodBankTransfer,
		RequestedAmount: 55,
	})
	if !errors.Is(err, domainErrors.ErrProofRequired) {
		t.Fatalf("expected ErrProofRequired, got %v", err)
	}
}

func TestCreateOrderProviderRejectionFailsOrder(t *testing.T) {
	rejection := domainErrors.ProviderRejectedError{Provider: "mobile_money", Reason: "insufficient funds"}
	f := newPaymentFixture(t, momoRegistry(test.AdapterStub{InitiateErr: rejection}))

	result, err := f.payments.CreateOrder(context.Background(), usecase.CreateOrderInput{
		UserID:          11,
		CourseID:        42,
		Method:          model.MethodMobileMoney,
		RequestedAmount: 56.50,
		Phone:           "+254700000001",
	})
	var rejected domainErrors.ProviderRejectedError
	if !errors.As(err, &rejected) {
		t.Fatalf("expected rejection, got %v", err)
	}
	final, _ := f.orders.Snapshot(result.Order.ID)
	if final.Status != model.OrderStatusFailed {
		t.Fatalf("rejected order must be FAILED, got %s", final.Status)
	}
}

func TestValidateAmountVerdicts(t *testing.T) {
	f := newPaymentFixture(t, momoRegistry(test.AdapterStub{}))

	tests := []struct {
		name string
		paid float64
		want fees.ResultType
	}{
		{"exact", 56.50, fees.ResultValid},
		{"within tolerance", 56.49, fees.ResultValid},
		{"short", 50.00, fees.ResultUnderpaid},
		{"zero", 0, fees.ResultInvalid},
		{"large overpayment", 200, fees.ResultOverpaid},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			result, err := f.payments.ValidateAmount(context.Background(), 42, model.MethodMobileMoney, tc.paid)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if result.Result.Type != tc.want {
				t.Fatalf("expected %s, got %s", tc.want, result.Result.Type)
			}
		})
	}
}

func TestVerifyReconcilesSuccess(t *testing.T) {
	f := newPaymentFixture(t, momoRegistry(test.AdapterStub{VerifyStatus: provider.StatusSuccess}))
	seeded := pendingOrder("CP-V-000001")
	seeded.ProviderRef = "mm-1"
	stored := f.orders.Seed(seeded)

	order, err := f.payments.Verify(context.Background(), stored.OrderID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if order.Status != model.OrderStatusCompleted {
		t.Fatalf("expected COMPLETED, got %s", order.Status)
	}
	if f.enrollments.Count() != 1 {
		t.Fatalf("expected one enrollment, got %d", f.enrollments.Count())
	}
}

func TestVerifyLeavesTerminalOrdersAlone(t *testing.T) {
	f := newPaymentFixture(t, momoRegistry(test.AdapterStub{VerifyStatus: provider.StatusSuccess}))
	seeded := pendingOrder("CP-V-000002")
	seeded.Status = model.OrderStatusFailed
	seeded.ProviderRef = "mm-2"
	stored := f.orders.Seed(seeded)

	order, err := f.payments.Verify(context.Background(), stored.OrderID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if order.Status != model.OrderStatusFailed {
		t.Fatalf("terminal order must not change, got %s", order.Status)
	}
}

func TestVerifyExpiresOverduePendingOrder(t *testing.T) {
	f := newPaymentFixture(t, momoRegistry(test.AdapterStub{VerifyStatus: provider.StatusSuccess}))
	seeded := pendingOrder("CP-V-000003")
	seeded.ProviderRef = "mm-3"
	seeded.ExpiresAt = time.Now().Add(-time.Minute)
	stored := f.orders.Seed(seeded)

	order, err := f.payments.Verify(context.Background(), stored.OrderID)
	if !errors.Is(err, domainErrors.ErrOrderExpired) {
		t.Fatalf("expected ErrOrderExpired, got %v", err)
	}
	if order.Status != model.OrderStatusExpired {
		t.Fatalf("expected EXPIRED, got %s", order.Status)
	}
	if f.enrollments.Count() != 0 {
		t.Fatal("an overdue order must not enroll")
	}
}

func TestGetOrderReturnsHistory(t *testing.T) {
	f := newPaymentFixture(t, momoRegistry(test.AdapterStub{}))

	created, err := f.payments.CreateOrder(context.Background(), usecase.CreateOrderInput{
		UserID:          11,
		CourseID:        42,
		Method:          model.MethodMobileMoney,
		RequestedAmount: 56.50,
		Phone:           "+254700000001",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	order, history, err := f.payments.GetOrder(context.Background(), created.Order.OrderID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if order.OrderID != created.Order.OrderID {
		t.Fatalf("unexpected order %s", order.OrderID)
	}
	if len(history) != 1 || history[0].Status != model.OrderStatusPending {
		t.Fatalf("expected creation history, got %+v", history)
	}
}

func TestRefundOnlyFromCompleted(t *testing.T) {
	f := newPaymentFixture(t, momoRegistry(test.AdapterStub{}))
	stored := f.orders.Seed(pendingOrder("CP-R-000001"))

	if _, err := f.payments.Refund(context.Background(), stored.OrderID, "chargeback"); !errors.Is(err, domainErrors.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}

	if _, err := f.payments.Approve(context.Background(), stored.OrderID, "proof verified"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	order, err := f.payments.Refund(context.Background(), stored.OrderID, "chargeback")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if order.Status != model.OrderStatusRefunded {
		t.Fatalf("expected REFUNDED, got %s", order.Status)
	}
}
