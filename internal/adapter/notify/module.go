package notify

import (
	"log/slog"

	"go.uber.org/fx"
)

// Module wires the notification collaborator.
var Module = fx.Provide(func(logger *slog.Logger) Notifier {
	return NewLogNotifier(logger)
})
