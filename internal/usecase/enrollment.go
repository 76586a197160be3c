package usecase

import (
	"context"
	"log/slog"

	"github.com/mwangikib/coursepay/internal/adapter/catalog"
	"github.com/mwangikib/coursepay/internal/adapter/notify"
	"github.com/mwangikib/coursepay/internal/domain/model"
	"github.com/mwangikib/coursepay/internal/domain/repository"
	"github.com/mwangikib/coursepay/internal/metrics"
)

// EnrollmentExecutor grants course access after a payment settles. The
// enrollment write is idempotent; the catalog counter and the user
// notification are best effort and never fail the settlement.
type EnrollmentExecutor struct {
	enrollments repository.EnrollmentRepository
	catalog     catalog.Client
	notifier    notify.Notifier
	metrics     *metrics.Settlement
	logger      *slog.Logger
}

// NewEnrollmentExecutor constructs EnrollmentExecutor.
func NewEnrollmentExecutor(
	enrollments repository.EnrollmentRepository,
	catalogClient catalog.Client,
	notifier notify.Notifier,
	settlement *metrics.Settlement,
	logger *slog.Logger,
) *EnrollmentExecutor {
	return &EnrollmentExecutor{
		enrollments: enrollments,
		catalog:     catalogClient,
		notifier:    notifier,
		metrics:     settlement,
		logger:      logger,
	}
}

// Execute enrolls the paying user into the course. Calling it again for
// the same order is a no-op.
func (e *EnrollmentExecutor) Execute(ctx context.Context, order *model.PaymentOrder) error {
	_, created, err := e.enrollments.CreateIfAbsent(ctx, order.UserID, order.CourseID, order.ID)
	if err != nil {
		return err
	}
	if !created {
		e.logger.Info("enrollment already present",
			slog.Int64("user_id", order.UserID),
			slog.Int64("course_id", order.CourseID),
			slog.String("order_id", order.OrderID),
		)
		return nil
	}

	e.metrics.EnrollmentGranted()

	if err := e.catalog.IncrementEnrolled(ctx, order.CourseID); err != nil {
		e.logger.Warn("catalog enrolled counter not updated",
			slog.Int64("course_id", order.CourseID),
			slog.String("error", err.Error()),
		)
	}
	if err := e.notifier.EnrollmentConfirmed(ctx, order.UserID, order.CourseID, order.OrderID); err != nil {
		e.logger.Warn("enrollment notification not sent",
			slog.String("order_id", order.OrderID),
			slog.String("error", err.Error()),
		)
	}
	return nil
}
