package fees

import (
	"go.uber.org/fx"

	"github.com/mwangikib/coursepay/internal/config"
)

// Module provides fee computation primitives via fx.
var Module = fx.Options(
	fx.Provide(newCalculator),
	fx.Provide(newValidator),
)

func newCalculator(cfg *config.Config) *Calculator {
	return NewCalculator(Rates{
		PlatformFeeRate:    cfg.PlatformFeeRate,
		CardFeeRate:        cfg.CardFeeRate,
		CardFixedFee:       cfg.CardFixedFee,
		MobileMoneyFeeRate: cfg.MobileMoneyFeeRate,
		ExchangeRate:       cfg.ExchangeRate,
		BaseCurrency:       cfg.BaseCurrency,
		DisplayCurrency:    cfg.DisplayCurrency,
	})
}

func newValidator(cfg *config.Config) *Validator {
	return NewValidator(cfg.AmountTolerance, cfg.OverpaymentThreshold)
}
