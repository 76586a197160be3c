package usecase

import (
	"log/slog"

	"go.uber.org/fx"

	"github.com/mwangikib/coursepay/internal/adapter/catalog"
	"github.com/mwangikib/coursepay/internal/config"
	"github.com/mwangikib/coursepay/internal/domain/repository"
	"github.com/mwangikib/coursepay/internal/metrics"
	"github.com/mwangikib/coursepay/internal/pkg/fees"
	"github.com/mwangikib/coursepay/internal/pkg/orderid"
	"github.com/mwangikib/coursepay/internal/pkg/signature"
	"github.com/mwangikib/coursepay/internal/provider"
)

// Module provides core settlement use cases to the fx container.
var Module = fx.Provide(
	NewEnrollmentExecutor,
	NewReconciler,
	NewWebhookUseCase,
	newPaymentUseCase,
	newWebhookVerifiers,
)

func newPaymentUseCase(
	cfg *config.Config,
	orders repository.OrderRepository,
	catalogClient catalog.Client,
	calculator *fees.Calculator,
	validator *fees.Validator,
	registry provider.Registry,
	orderIDs *orderid.Generator,
	reconciler *Reconciler,
	settlement *metrics.Settlement,
	logger *slog.Logger,
) *PaymentUseCase {
	return NewPaymentUseCase(
		orders, catalogClient, calculator, validator, registry, orderIDs,
		reconciler, settlement, logger, cfg.DuplicateWindow, cfg.OrderTTL,
	)
}

// newWebhookVerifiers binds each provider route to its signature scheme.
// A missing secret downgrades to accept-all outside production; config
// validation refuses that combination in production.
func newWebhookVerifiers(cfg *config.Config) map[string]signature.Verifier {
	verifiers := make(map[string]signature.Verifier, 2)

	if cfg.MobileMoneySecret != "" {
		verifiers[ProviderMobileMoney] = signature.NewSHA256(cfg.MobileMoneySecret)
	} else {
		verifiers[ProviderMobileMoney] = signature.AcceptAll{}
	}
	if cfg.CardWalletSecret != "" {
		verifiers[ProviderCardWallet] = signature.NewSHA512(cfg.CardWalletSecret)
	} else {
		verifiers[ProviderCardWallet] = signature.AcceptAll{}
	}
	return verifiers
}
