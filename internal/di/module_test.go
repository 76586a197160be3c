package di

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"go.uber.org/fx"

	"github.com/mwangikib/coursepay/internal/adapter/catalog"
	"github.com/mwangikib/coursepay/internal/adapter/notify"
	"github.com/mwangikib/coursepay/internal/app"
	"github.com/mwangikib/coursepay/internal/config"
	"github.com/mwangikib/coursepay/internal/domain/model"
	"github.com/mwangikib/coursepay/internal/domain/repository"
	"github.com/mwangikib/coursepay/internal/provider"
	"github.com/mwangikib/coursepay/internal/storage/postgres"
	"github.com/mwangikib/coursepay/internal/test"
)

func TestModuleComposesGraphWithReplacements(t *testing.T) {
	cfg := &config.Config{
		RunAddress:         ":0",
		DatabaseURI:        "postgres://stub",
		Environment:        "test",
		CatalogAddress:     "http://localhost",
		MobileMoneyAddress: "http://localhost",
		CardWalletAddress:  "http://localhost",
		PlatformFeeRate:    0.10,
		MobileMoneyFeeRate: 0.03,
		CardFeeRate:        0.029,
		CardFixedFee:       0.30,
		ExchangeRate:       129.0,
		BaseCurrency:       "USD",
		DisplayCurrency:    "KES",
		AmountTolerance:    0.01,
		DuplicateWindow:    time.Hour,
		OrderTTL:           time.Minute,
		SweepInterval:      time.Millisecond,
		SweepBatchSize:     1,
		WorkerPoolSize:     1,
		ShutdownTimeout:    time.Millisecond,
	}
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	orderRepo := test.NewOrderRepositoryStub()
	enrollmentRepo := test.NewEnrollmentRepositoryStub()
	catalogStub := &test.CatalogStub{Courses: map[int64]*model.Course{}}
	registry := provider.Registry{
		model.MethodMobileMoney: test.AdapterStub{NameVal: "mobilemoney"},
	}

	var facade *app.PaymentFacade
	fxApp := fx.New(
		fx.NopLogger,
		fx.Supply(context.Background()),
		Module(
			fx.Replace(cfg),
			fx.Replace(logger),
			fx.Replace(&postgres.Storage{}),
			fx.Replace(repository.OrderRepository(orderRepo)),
			fx.Replace(repository.EnrollmentRepository(enrollmentRepo)),
			fx.Replace(catalog.Client(catalogStub)),
			fx.Replace(notify.Notifier(&test.NotifierStub{})),
			fx.Replace(registry),
		),
		fx.Populate(&facade),
	)

	if err := fxApp.Err(); err != nil {
		t.Fatalf("fx app returned error: %v", err)
	}
	t.Cleanup(func() { _ = fxApp.Stop(context.Background()) })
	if facade == nil {
		t.Fatal("expected payment facade instance")
	}
}
