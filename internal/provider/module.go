package provider

import (
	"log/slog"

	"go.uber.org/fx"

	"github.com/mwangikib/coursepay/internal/config"
	"github.com/mwangikib/coursepay/internal/domain/model"
)

// Module exposes the provider adapter registry to the fx graph.
var Module = fx.Provide(newRegistry)

type registryParams struct {
	fx.In

	Config *config.Config
	Logger *slog.Logger
}

func newRegistry(p registryParams) (Registry, error) {
	momo, err := NewMobileMoneyClient(p.Config.MobileMoneyAddress, p.Logger)
	if err != nil {
		return nil, err
	}
	cardWallet, err := NewCardWalletClient(p.Config.CardWalletAddress, p.Logger)
	if err != nil {
		return nil, err
	}
	return Registry{
		model.MethodMobileMoney:  momo,
		model.MethodCardWallet:   cardWallet,
		model.MethodBankTransfer: NewBankTransferAdapter(p.Logger),
	}, nil
}
