package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	domainErrors "github.com/mwangikib/coursepay/internal/domain/errors"
	"github.com/mwangikib/coursepay/internal/domain/model"
	"github.com/mwangikib/coursepay/internal/domain/repository"
	"github.com/mwangikib/coursepay/internal/metrics"
	"github.com/mwangikib/coursepay/internal/pkg/fees"
	"github.com/mwangikib/coursepay/internal/pkg/signature"
)

// Provider route names accepted by webhook ingestion.
const (
	ProviderMobileMoney = "mobilemoney"
	ProviderCardWallet  = "cardwallet"
)

// WebhookEvent is the canonical form of a provider callback after
// per-provider parsing.
type WebhookEvent struct {
	EventID     string
	Reference   string
	ProviderRef string
	Status      string
	Amount      float64
}

// WebhookUseCase verifies, parses, deduplicates, and reconciles provider
// callbacks.
type WebhookUseCase struct {
	orders     repository.OrderRepository
	verifiers  map[string]signature.Verifier
	validator  *fees.Validator
	reconciler *Reconciler
	metrics    *metrics.Settlement
	logger     *slog.Logger
}

// NewWebhookUseCase constructs WebhookUseCase.
func NewWebhookUseCase(
	orders repository.OrderRepository,
	verifiers map[string]signature.Verifier,
	validator *fees.Validator,
	reconciler *Reconciler,
	settlement *metrics.Settlement,
	logger *slog.Logger,
) *WebhookUseCase {
	return &WebhookUseCase{
		orders:     orders,
		verifiers:  verifiers,
		validator:  validator,
		reconciler: reconciler,
		metrics:    settlement,
		logger:     logger,
	}
}

// Process handles one webhook delivery. The body is the raw request
// payload so the HMAC is computed over exactly what the provider signed.
//
// Outcomes the handler maps to HTTP: nil for accepted or harmlessly
// ignored deliveries, ErrSignature for a bad signature, ErrNotFound for
// an unknown provider, ErrOrderExpired when the delivery arrived after
// the payment window and forced the expiry, ConcurrentModificationError
// when the delivery lost its race and should be redelivered.
func (u *WebhookUseCase) Process(ctx context.Context, providerName string, body []byte, sig string) error {
	verifier, ok := u.verifiers[providerName]
	if !ok {
		return fmt.Errorf("%w: webhook provider %q", domainErrors.ErrNotFound, providerName)
	}
	if err := verifier.Verify(body, sig); err != nil {
		u.metrics.WebhookRejected(providerName, "signature")
		return domainErrors.ErrSignature
	}

	event, err := parseEvent(providerName, body)
	if err != nil {
		u.metrics.WebhookRejected(providerName, "payload")
		return err
	}

	order, err := u.findOrder(ctx, event)
	if err != nil {
		if errors.Is(err, domainErrors.ErrNotFound) {
			// Unknown orders are logged and acknowledged so the provider
			// stops redelivering something we will never match.
			u.logger.Warn("webhook for unknown order",
				slog.String("provider", providerName),
				slog.String("reference", event.Reference),
				slog.String("provider_ref", event.ProviderRef),
			)
			u.metrics.WebhookRejected(providerName, "unknown_order")
			return nil
		}
		return err
	}

	if event.EventID != "" {
		seen, err := u.orders.HasEvent(ctx, order.ID, event.EventID)
		if err != nil {
			return err
		}
		if seen {
			u.logger.Info("duplicate webhook event skipped",
				slog.String("order_id", order.OrderID),
				slog.String("event_id", event.EventID),
			)
			return nil
		}
	}

	if order.Status == model.OrderStatusPending && time.Now().After(order.ExpiresAt) {
		u.logger.Warn("webhook after payment window",
			slog.String("order_id", order.OrderID),
			slog.String("provider", providerName),
			slog.String("status", event.Status),
		)
		u.metrics.WebhookRejected(providerName, "expired")
		_, applyErr := u.reconciler.Apply(ctx, order.OrderID, model.OrderStatusExpired, providerName, "payment window elapsed", event.EventID)
		if applyErr != nil && !errors.Is(applyErr, domainErrors.ErrInvalidTransition) {
			return applyErr
		}
		return domainErrors.ErrOrderExpired
	}

	target, message := u.resolveTarget(order, event)
	if target == "" {
		u.logger.Info("webhook status ignored",
			slog.String("order_id", order.OrderID),
			slog.String("status", event.Status),
		)
		return nil
	}

	u.metrics.WebhookAccepted(providerName)
	_, err = u.reconciler.Apply(ctx, order.OrderID, target, providerName, message, event.EventID)
	return err
}

func (u *WebhookUseCase) findOrder(ctx context.Context, event WebhookEvent) (*model.PaymentOrder, error) {
	if event.Reference != "" {
		order, err := u.orders.GetByOrderID(ctx, event.Reference)
		if err == nil {
			return order, nil
		}
		if !errors.Is(err, domainErrors.ErrNotFound) {
			return nil, err
		}
	}
	return u.orders.GetByProviderRef(ctx, event.ProviderRef)
}

// resolveTarget maps the provider's status to a state-machine target. A
// success callback carrying an amount short of the order total beyond
// the configured tolerance settles as FAILED with the shortfall on
// record.
func (u *WebhookUseCase) resolveTarget(order *model.PaymentOrder, event WebhookEvent) (model.OrderStatus, string) {
	switch strings.ToLower(event.Status) {
	case "success", "successful", "paid", "completed":
		if event.Amount > 0 {
			if verdict := u.validator.Check(order.TotalAmount, event.Amount); verdict.Type == fees.ResultUnderpaid {
				return model.OrderStatusFailed, fmt.Sprintf("underpaid: required %.2f, received %.2f", verdict.Required, verdict.Paid)
			}
		}
		return model.OrderStatusCompleted, "provider confirmed payment"
	case "failed", "cancelled", "declined", "abandoned":
		return model.OrderStatusFailed, "provider reported " + strings.ToLower(event.Status)
	case "pending", "processing":
		if order.Status == model.OrderStatusPending {
			return model.OrderStatusProcessing, "provider acknowledged payment"
		}
		return "", ""
	default:
		return "", ""
	}
}

func parseEvent(providerName string, body []byte) (WebhookEvent, error) {
	switch providerName {
	case ProviderMobileMoney:
		var payload struct {
			EventID       string  `json:"event_id"`
			Reference     string  `json:"reference"`
			TransactionID string  `json:"transaction_id"`
			Status        string  `json:"status"`
			Amount        float64 `json:"amount"`
		}
		if err := json.Unmarshal(body, &payload); err != nil {
			return WebhookEvent{}, fmt.Errorf("decode mobile money webhook: %w", err)
		}
		return WebhookEvent{
			EventID:     payload.EventID,
			Reference:   payload.Reference,
			ProviderRef: payload.TransactionID,
			Status:      payload.Status,
			Amount:      payload.Amount,
		}, nil
	case ProviderCardWallet:
		var payload struct {
			EventID string `json:"event_id"`
			Data    struct {
				Reference string  `json:"reference"`
				OrderRef  string  `json:"order_ref"`
				Status    string  `json:"status"`
				Amount    float64 `json:"amount"`
			} `json:"data"`
		}
		if err := json.Unmarshal(body, &payload); err != nil {
			return WebhookEvent{}, fmt.Errorf("decode card wallet webhook: %w", err)
		}
		return WebhookEvent{
			EventID:     payload.EventID,
			Reference:   payload.Data.Reference,
			ProviderRef: payload.Data.OrderRef,
			Status:      payload.Data.Status,
			Amount:      payload.Data.Amount,
		}, nil
	default:
		return WebhookEvent{}, fmt.Errorf("%w: webhook provider %q", domainErrors.ErrNotFound, providerName)
	}
}
