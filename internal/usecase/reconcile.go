package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	domainErrors "github.com/mwangikib/coursepay/internal/domain/errors"
	"github.com/mwangikib/coursepay/internal/domain/model"
	"github.com/mwangikib/coursepay/internal/domain/repository"
	"github.com/mwangikib/coursepay/internal/metrics"
)

// casAttempts bounds the internal retry on a lost version race. Every
// signal source redelivers, so one retry is enough before handing the
// conflict back to the caller.
const casAttempts = 2

// Reconciler is the only writer of order status. Every signal — webhook,
// verify poll, expiry sweep, admin action — funnels through Apply so the
// state machine and the first-completion side effect live in one place.
type Reconciler struct {
	orders  repository.OrderRepository
	enroll  *EnrollmentExecutor
	metrics *metrics.Settlement
	logger  *slog.Logger
}

// NewReconciler constructs Reconciler.
func NewReconciler(
	orders repository.OrderRepository,
	enroll *EnrollmentExecutor,
	settlement *metrics.Settlement,
	logger *slog.Logger,
) *Reconciler {
	return &Reconciler{orders: orders, enroll: enroll, metrics: settlement, logger: logger}
}

// Apply drives the order toward target. Re-applying the status the order
// already has is a successful no-op and appends no history. A transition
// the state machine forbids returns ErrInvalidTransition, so a success
// webhook arriving after expiry is rejected rather than resurrecting the
// order. The first transition into COMPLETED synchronously runs the
// enrollment executor; an executor failure flags the order for the retry
// worker without reverting the settlement.
func (r *Reconciler) Apply(ctx context.Context, orderID string, target model.OrderStatus, actor, message, eventID string) (*model.PaymentOrder, error) {
	for attempt := 0; attempt < casAttempts; attempt++ {
		order, err := r.orders.GetByOrderID(ctx, orderID)
		if err != nil {
			return nil, err
		}

		if order.Status == target {
			return order, nil
		}
		if !order.Status.CanTransition(target) {
			return order, fmt.Errorf("%w: %s -> %s", domainErrors.ErrInvalidTransition, order.Status, target)
		}

		entry := model.HistoryEntry{Status: target, Actor: actor, Message: message, EventID: eventID}
		applied, err := r.orders.UpdateStatusCAS(ctx, order.ID, order.Version, target, entry)
		if err != nil {
			return nil, err
		}
		if !applied {
			r.metrics.CASConflict()
			r.logger.Info("order version race, retrying",
				slog.String("order_id", orderID),
				slog.String("target", string(target)),
			)
			continue
		}

		order.Status = target
		order.Version++
		order.UpdatedAt = time.Now()
		r.recordOutcome(order, target)

		if target == model.OrderStatusCompleted {
			r.runEnrollment(ctx, order)
		}
		return order, nil
	}

	return nil, domainErrors.ConcurrentModificationError{OrderID: orderID}
}

// RetryEnrollment re-runs the enrollment executor for a completed order
// that was flagged enrollment_pending, clearing the flag on success.
func (r *Reconciler) RetryEnrollment(ctx context.Context, order *model.PaymentOrder) error {
	if err := r.enroll.Execute(ctx, order); err != nil {
		return err
	}
	if err := r.orders.SetEnrollmentPending(ctx, order.ID, false); err != nil {
		return err
	}
	order.EnrollmentPending = false
	return nil
}

func (r *Reconciler) runEnrollment(ctx context.Context, order *model.PaymentOrder) {
	if err := r.enroll.Execute(ctx, order); err != nil {
		r.logger.Error("enrollment deferred",
			slog.String("order_id", order.OrderID),
			slog.String("error", err.Error()),
		)
		r.metrics.EnrollmentDeferred()
		if err := r.orders.SetEnrollmentPending(ctx, order.ID, true); err != nil {
			r.logger.Error("enrollment pending flag not persisted",
				slog.String("order_id", order.OrderID),
				slog.String("error", err.Error()),
			)
			return
		}
		order.EnrollmentPending = true
	}
}

func (r *Reconciler) recordOutcome(order *model.PaymentOrder, target model.OrderStatus) {
	settleSeconds := time.Since(order.CreatedAt).Seconds()
	switch target {
	case model.OrderStatusCompleted:
		r.metrics.OrderCompleted(string(order.Method), order.Currency, order.TotalAmount, order.PlatformFee, settleSeconds)
	case model.OrderStatusFailed:
		r.metrics.OrderFailed(string(order.Method), settleSeconds)
	case model.OrderStatusExpired:
		r.metrics.OrderExpired()
	case model.OrderStatusRefunded:
		r.metrics.OrderRefunded()
	}
}
