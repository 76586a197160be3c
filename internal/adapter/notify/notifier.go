package notify

import (
	"context"
	"log/slog"
)

// Notifier delivers enrollment confirmations to the user. Calls are best
// effort: failures are logged by the caller and never reverse settlement.
type Notifier interface {
	EnrollmentConfirmed(ctx context.Context, userID, courseID int64, orderID string) error
}

// LogNotifier records notifications in the service log. It stands in for
// the platform's transactional mail collaborator.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier constructs LogNotifier.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) EnrollmentConfirmed(ctx context.Context, userID, courseID int64, orderID string) error {
	n.logger.Info("enrollment confirmation queued",
		slog.Int64("user_id", userID),
		slog.Int64("course_id", courseID),
		slog.String("order_id", orderID),
	)
	return nil
}
