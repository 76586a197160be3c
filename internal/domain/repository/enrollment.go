package repository

import (
	"context"

	"github.com/mwangikib/coursepay/internal/domain/model"
)

// EnrollmentRepository persists course enrollments keyed by (user, course).
type EnrollmentRepository interface {
	// CreateIfAbsent inserts an enrollment unless one already exists for
	// the pair; it returns the stored record and whether it was created by
	// this call.
	CreateIfAbsent(ctx context.Context, userID, courseID, paymentID int64) (*model.Enrollment, bool, error)
	GetByUserCourse(ctx context.Context, userID, courseID int64) (*model.Enrollment, error)
}
