package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/mwangikib/coursepay/internal/adapter/catalog"
	domainErrors "github.com/mwangikib/coursepay/internal/domain/errors"
	"github.com/mwangikib/coursepay/internal/domain/model"
	"github.com/mwangikib/coursepay/internal/domain/repository"
	"github.com/mwangikib/coursepay/internal/metrics"
	"github.com/mwangikib/coursepay/internal/pkg/fees"
	"github.com/mwangikib/coursepay/internal/pkg/orderid"
	"github.com/mwangikib/coursepay/internal/provider"
)

// CreateOrderInput carries everything a buyer submits to open an order.
type CreateOrderInput struct {
	UserID          int64
	CourseID        int64
	Method          model.PaymentMethod
	RequestedAmount float64
	Phone           string
	Network         string
	ProofRef        string
}

// CreateOrderResult is the created (or pre-existing) order with its fee
// breakdown and the provider's next-action hint.
type CreateOrderResult struct {
	Order        *model.PaymentOrder
	Quote        fees.Quote
	ActionTarget string
}

// ValidateAmountResult pairs the validation verdict with the quote it was
// checked against.
type ValidateAmountResult struct {
	Quote  fees.Quote
	Result fees.Result
}

// PaymentUseCase owns the buyer-facing payment lifecycle: quoting,
// creation with the duplicate guard, reads, verify polling, and the
// admin actions.
type PaymentUseCase struct {
	orders     repository.OrderRepository
	catalog    catalog.Client
	calculator *fees.Calculator
	validator  *fees.Validator
	registry   provider.Registry
	orderIDs   *orderid.Generator
	reconciler *Reconciler
	metrics    *metrics.Settlement
	logger     *slog.Logger

	duplicateWindow time.Duration
	orderTTL        time.Duration
}

// NewPaymentUseCase constructs PaymentUseCase.
func NewPaymentUseCase(
	orders repository.OrderRepository,
	catalogClient catalog.Client,
	calculator *fees.Calculator,
	validator *fees.Validator,
	registry provider.Registry,
	orderIDs *orderid.Generator,
	reconciler *Reconciler,
	settlement *metrics.Settlement,
	logger *slog.Logger,
	duplicateWindow, orderTTL time.Duration,
) *PaymentUseCase {
	return &PaymentUseCase{
		orders:          orders,
		catalog:         catalogClient,
		calculator:      calculator,
		validator:       validator,
		registry:        registry,
		orderIDs:        orderIDs,
		reconciler:      reconciler,
		metrics:         settlement,
		logger:          logger,
		duplicateWindow: duplicateWindow,
		orderTTL:        orderTTL,
	}
}

// CreateOrder opens a payment order and hands it to the provider. A
// still-active order for the same user and course inside the duplicate
// window is returned with ErrAlreadyExists instead of creating another.
func (u *PaymentUseCase) CreateOrder(ctx context.Context, input CreateOrderInput) (*CreateOrderResult, error) {
	adapter, err := u.registry.For(input.Method)
	if err != nil {
		return nil, err
	}
	if input.Method == model.MethodBankTransfer && input.ProofRef == "" {
		return nil, domainErrors.ErrProofRequired
	}

	if existing, err := u.orders.FindActive(ctx, input.UserID, input.CourseID, u.duplicateWindow); err == nil {
		return &CreateOrderResult{Order: existing}, domainErrors.ErrAlreadyExists
	} else if !errors.Is(err, domainErrors.ErrNotFound) {
		return nil, err
	}

	course, err := u.catalog.Course(ctx, input.CourseID)
	if err != nil {
		return nil, fmt.Errorf("load course %d: %w", input.CourseID, err)
	}

	quote := u.calculator.Quote(course.BasePrice, input.Method)
	verdict := u.validator.Check(quote.TotalAmount, input.RequestedAmount)
	switch verdict.Type {
	case fees.ResultInvalid:
		return nil, domainErrors.ErrInvalidAmount
	case fees.ResultUnderpaid:
		return nil, domainErrors.UnderpaymentError{
			Required:  verdict.Required,
			Paid:      verdict.Paid,
			Shortfall: verdict.Shortfall,
		}
	}

	now := time.Now()
	order := &model.PaymentOrder{
		OrderID:         u.orderIDs.Next(),
		UserID:          input.UserID,
		CourseID:        input.CourseID,
		Method:          input.Method,
		RequestedAmount: input.RequestedAmount,
		PlatformFee:     quote.PlatformFee,
		ProcessingFee:   quote.ProcessingFee,
		NetAmount:       quote.NetAmount,
		TotalAmount:     quote.TotalAmount,
		Currency:        quote.Currency,
		Phone:           input.Phone,
		Network:         input.Network,
		ProofRef:        input.ProofRef,
		ExpiresAt:       now.Add(u.orderTTL),
	}

	stored, err := u.orders.Create(ctx, order)
	if err != nil {
		// The unique index on the active (user, course) pair catches a
		// concurrent create that slipped past the FindActive check.
		if errors.Is(err, domainErrors.ErrAlreadyExists) {
			if existing, findErr := u.orders.FindActive(ctx, input.UserID, input.CourseID, u.duplicateWindow); findErr == nil {
				return &CreateOrderResult{Order: existing}, domainErrors.ErrAlreadyExists
			}
		}
		return nil, err
	}
	u.metrics.OrderCreated(string(stored.Method), stored.Currency)

	result, err := adapter.Initiate(ctx, stored)
	if err != nil {
		var rejected domainErrors.ProviderRejectedError
		if errors.As(err, &rejected) {
			if _, applyErr := u.reconciler.Apply(ctx, stored.OrderID, model.OrderStatusFailed, "provider", rejected.Reason, ""); applyErr != nil {
				u.logger.Error("rejected order not failed",
					slog.String("order_id", stored.OrderID),
					slog.String("error", applyErr.Error()),
				)
			}
		}
		// An unavailable provider leaves the order pending; the buyer can
		// retry verify before the TTL expires it.
		return &CreateOrderResult{Order: stored, Quote: quote}, err
	}

	if err := u.orders.SetProviderRef(ctx, stored.ID, result.ProviderRef); err != nil {
		return nil, err
	}
	stored.ProviderRef = result.ProviderRef

	return &CreateOrderResult{Order: stored, Quote: quote, ActionTarget: result.ActionTarget}, nil
}

// ValidateAmount quotes a course and checks a candidate amount against
// it without touching the store.
func (u *PaymentUseCase) ValidateAmount(ctx context.Context, courseID int64, method model.PaymentMethod, paid float64) (*ValidateAmountResult, error) {
	if method != "" && !method.Valid() {
		return nil, domainErrors.ErrInvalidMethod
	}

	course, err := u.catalog.Course(ctx, courseID)
	if err != nil {
		return nil, err
	}

	quote := u.calculator.Quote(course.BasePrice, method)
	return &ValidateAmountResult{
		Quote:  quote,
		Result: u.validator.Check(quote.TotalAmount, paid),
	}, nil
}

// GetOrder returns the order together with its full audit history.
func (u *PaymentUseCase) GetOrder(ctx context.Context, orderID string) (*model.PaymentOrder, []model.HistoryEntry, error) {
	order, err := u.orders.GetByOrderID(ctx, orderID)
	if err != nil {
		return nil, nil, err
	}
	history, err := u.orders.History(ctx, order.ID)
	if err != nil {
		return nil, nil, err
	}
	return order, history, nil
}

// Verify polls the provider for the order's current state and reconciles
// the answer. Terminal orders are returned untouched; a pending order past
// its payment window is expired instead of polled.
func (u *PaymentUseCase) Verify(ctx context.Context, orderID string) (*model.PaymentOrder, error) {
	order, err := u.orders.GetByOrderID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status.Terminal() {
		return order, nil
	}
	if order.Status == model.OrderStatusPending && time.Now().After(order.ExpiresAt) {
		expired, applyErr := u.reconciler.Apply(ctx, orderID, model.OrderStatusExpired, "verify", "payment window elapsed", "")
		if applyErr != nil {
			return nil, applyErr
		}
		return expired, domainErrors.ErrOrderExpired
	}
	if order.ProviderRef == "" {
		return order, nil
	}

	adapter, err := u.registry.For(order.Method)
	if err != nil {
		return nil, err
	}

	status, err := adapter.Verify(ctx, order.ProviderRef)
	if err != nil {
		return nil, err
	}

	switch status {
	case provider.StatusSuccess:
		return u.reconciler.Apply(ctx, orderID, model.OrderStatusCompleted, "verify", "provider verification succeeded", "")
	case provider.StatusFailed:
		return u.reconciler.Apply(ctx, orderID, model.OrderStatusFailed, "verify", "provider verification failed", "")
	default:
		return order, nil
	}
}

// Approve settles a manually reviewed order, typically a bank transfer
// whose proof checked out.
func (u *PaymentUseCase) Approve(ctx context.Context, orderID, reason string) (*model.PaymentOrder, error) {
	if reason == "" {
		reason = "approved by administrator"
	}
	return u.reconciler.Apply(ctx, orderID, model.OrderStatusCompleted, "admin", reason, "")
}

// Reject fails a manually reviewed order.
func (u *PaymentUseCase) Reject(ctx context.Context, orderID, reason string) (*model.PaymentOrder, error) {
	if reason == "" {
		reason = "rejected by administrator"
	}
	return u.reconciler.Apply(ctx, orderID, model.OrderStatusFailed, "admin", reason, "")
}

// Refund moves a completed order to REFUNDED. Money movement happens
// outside this service; this records the decision.
func (u *PaymentUseCase) Refund(ctx context.Context, orderID, reason string) (*model.PaymentOrder, error) {
	if reason == "" {
		reason = "refunded by administrator"
	}
	return u.reconciler.Apply(ctx, orderID, model.OrderStatusRefunded, "admin", reason, "")
}
