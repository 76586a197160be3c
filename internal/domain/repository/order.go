package repository

import (
	"context"
	"time"

	"github.com/mwangikib/coursepay/internal/domain/model"
)

// OrderRepository persists payment orders and their audit history.
type OrderRepository interface {
	// Create inserts a pending order together with its initial history
	// entry and returns the stored record.
	Create(ctx context.Context, order *model.PaymentOrder) (*model.PaymentOrder, error)
	GetByOrderID(ctx context.Context, orderID string) (*model.PaymentOrder, error)
	GetByProviderRef(ctx context.Context, ref string) (*model.PaymentOrder, error)
	// FindActive returns the newest order for (user, course) still inside
	// the duplicate-suppression window with an active or completed status.
	FindActive(ctx context.Context, userID, courseID int64, window time.Duration) (*model.PaymentOrder, error)
	// UpdateStatusCAS commits the status and appends the history entry only
	// if the stored version still equals expectedVersion. It reports
	// whether the write was applied; a lost race is (false, nil).
	UpdateStatusCAS(ctx context.Context, paymentID, expectedVersion int64, status model.OrderStatus, entry model.HistoryEntry) (bool, error)
	SetProviderRef(ctx context.Context, paymentID int64, ref string) error
	SetEnrollmentPending(ctx context.Context, paymentID int64, pending bool) error
	History(ctx context.Context, paymentID int64) ([]model.HistoryEntry, error)
	// HasEvent reports whether a webhook event id was already recorded for
	// the order, which makes provider redelivery cheap to skip.
	HasEvent(ctx context.Context, paymentID int64, eventID string) (bool, error)
	SelectExpired(ctx context.Context, limit int) ([]model.PaymentOrder, error)
	SelectInFlight(ctx context.Context, limit int) ([]model.PaymentOrder, error)
	SelectEnrollmentPending(ctx context.Context, limit int) ([]model.PaymentOrder, error)
}
