package model

import "time"

// Enrollment grants a user access to a course, backed by a settled payment.
type Enrollment struct {
	ID        int64
	UserID    int64
	CourseID  int64
	PaymentID int64
	CreatedAt time.Time
}
