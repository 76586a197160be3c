package di

import (
	"go.uber.org/fx"

	"github.com/mwangikib/coursepay/internal/adapter/catalog"
	"github.com/mwangikib/coursepay/internal/adapter/notify"
	"github.com/mwangikib/coursepay/internal/app"
	"github.com/mwangikib/coursepay/internal/config"
	"github.com/mwangikib/coursepay/internal/logger"
	"github.com/mwangikib/coursepay/internal/metrics"
	"github.com/mwangikib/coursepay/internal/pkg/fees"
	"github.com/mwangikib/coursepay/internal/pkg/orderid"
	"github.com/mwangikib/coursepay/internal/provider"
	"github.com/mwangikib/coursepay/internal/server/http/handlers"
	"github.com/mwangikib/coursepay/internal/server/http/router"
	"github.com/mwangikib/coursepay/internal/storage/postgres"
	"github.com/mwangikib/coursepay/internal/usecase"
)

func Module(opts ...fx.Option) fx.Option {
	modules := []fx.Option{
		config.Module,
		logger.Module,
		metrics.Module,
		fees.Module,
		fx.Provide(orderid.New),
		postgres.Module,
		catalog.Module,
		notify.Module,
		provider.Module,
		usecase.Module,
		fx.Provide(func(f *app.PaymentFacade) handlers.SettlementFacade { return f }),
		router.Module,
		app.Module,
	}
	modules = append(modules, opts...)
	return fx.Options(modules...)
}
