package config

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application level configuration loaded from environment and flags.
type Config struct {
	RunAddress  string
	DatabaseURI string
	Environment string

	CatalogAddress     string
	MobileMoneyAddress string
	MobileMoneySecret  string
	CardWalletAddress  string
	CardWalletSecret   string

	PlatformFeeRate    float64
	CardFeeRate        float64
	CardFixedFee       float64
	MobileMoneyFeeRate float64
	ExchangeRate       float64
	BaseCurrency       string
	DisplayCurrency    string

	AmountTolerance      float64
	OverpaymentThreshold float64

	DuplicateWindow time.Duration
	OrderTTL        time.Duration
	SweepInterval   time.Duration
	SweepBatchSize  int
	WorkerPoolSize  int
	ShutdownTimeout time.Duration
}

const (
	defaultRunAddress           = ":8080"
	defaultEnvironment          = "development"
	defaultPlatformFeeRate      = 0.10
	defaultCardFeeRate          = 0.029
	defaultCardFixedFee         = 0.30
	defaultMobileMoneyFeeRate   = 0.03
	defaultExchangeRate         = 129.0
	defaultBaseCurrency         = "USD"
	defaultDisplayCurrency      = "KES"
	defaultAmountTolerance      = 0.01
	defaultOverpaymentThreshold = 100.0
	defaultDuplicateWindow      = 24 * time.Hour
	defaultOrderTTL             = 20 * time.Minute
	defaultSweepInterval        = 15 * time.Second
	defaultSweepBatchSize       = 32
	defaultWorkerPoolSize       = 4
	defaultShutdownTimeout      = 10 * time.Second
)

// Load parses configuration from an optional .env file, environment
// variables, and flags.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return load(os.Args[1:], os.LookupEnv)
}

type envLookup func(string) (string, bool)

func load(args []string, lookup envLookup) (*Config, error) {
	cfg := &Config{
		RunAddress:           getString(lookup, "RUN_ADDRESS", defaultRunAddress),
		DatabaseURI:          getString(lookup, "DATABASE_URI", ""),
		Environment:          getString(lookup, "ENVIRONMENT", defaultEnvironment),
		CatalogAddress:       getString(lookup, "CATALOG_ADDRESS", ""),
		MobileMoneyAddress:   getString(lookup, "MOBILE_MONEY_ADDRESS", ""),
		MobileMoneySecret:    getString(lookup, "MOBILE_MONEY_WEBHOOK_SECRET", ""),
		CardWalletAddress:    getString(lookup, "CARD_WALLET_ADDRESS", ""),
		CardWalletSecret:     getString(lookup, "CARD_WALLET_WEBHOOK_SECRET", ""),
		PlatformFeeRate:      getFloat(lookup, "PLATFORM_FEE_RATE", defaultPlatformFeeRate),
		CardFeeRate:          getFloat(lookup, "CARD_FEE_RATE", defaultCardFeeRate),
		CardFixedFee:         getFloat(lookup, "CARD_FIXED_FEE", defaultCardFixedFee),
		MobileMoneyFeeRate:   getFloat(lookup, "MOBILE_MONEY_FEE_RATE", defaultMobileMoneyFeeRate),
		ExchangeRate:         getFloat(lookup, "EXCHANGE_RATE", defaultExchangeRate),
		BaseCurrency:         getString(lookup, "BASE_CURRENCY", defaultBaseCurrency),
		DisplayCurrency:      getString(lookup, "DISPLAY_CURRENCY", defaultDisplayCurrency),
		AmountTolerance:      getFloat(lookup, "AMOUNT_TOLERANCE", defaultAmountTolerance),
		OverpaymentThreshold: getFloat(lookup, "OVERPAYMENT_THRESHOLD", defaultOverpaymentThreshold),
		DuplicateWindow:      getDuration(lookup, "DUPLICATE_WINDOW", defaultDuplicateWindow),
		OrderTTL:             getDuration(lookup, "ORDER_TTL", defaultOrderTTL),
		SweepInterval:        getDuration(lookup, "SWEEP_INTERVAL", defaultSweepInterval),
		SweepBatchSize:       getInt(lookup, "SWEEP_BATCH_SIZE", defaultSweepBatchSize),
		WorkerPoolSize:       getInt(lookup, "WORKER_POOL_SIZE", defaultWorkerPoolSize),
		ShutdownTimeout:      getDuration(lookup, "SHUTDOWN_TIMEOUT", defaultShutdownTimeout),
	}

	fs := flag.NewFlagSet("coursepay", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var (
		windowStr   = cfg.DuplicateWindow.String()
		ttlStr      = cfg.OrderTTL.String()
		sweepStr    = cfg.SweepInterval.String()
		shutdownStr = cfg.ShutdownTimeout.String()
	)

	fs.StringVar(&cfg.RunAddress, "a", cfg.RunAddress, "HTTP server listen address")
	fs.StringVar(&cfg.DatabaseURI, "d", cfg.DatabaseURI, "PostgreSQL DSN")
	fs.StringVar(&cfg.Environment, "env", cfg.Environment, "Deployment environment name")
	fs.StringVar(&cfg.CatalogAddress, "catalog", cfg.CatalogAddress, "Course catalog base URL")
	fs.StringVar(&cfg.MobileMoneyAddress, "momo", cfg.MobileMoneyAddress, "Mobile money provider base URL")
	fs.StringVar(&cfg.CardWalletAddress, "cardwallet", cfg.CardWalletAddress, "Card/wallet provider base URL")
	fs.StringVar(&windowStr, "duplicate-window", windowStr, "Duplicate order suppression window")
	fs.StringVar(&ttlStr, "order-ttl", ttlStr, "Time before an unpaid order expires")
	fs.StringVar(&sweepStr, "sweep-interval", sweepStr, "Interval between reconciliation sweeps")
	fs.StringVar(&shutdownStr, "shutdown-timeout", shutdownStr, "Graceful shutdown timeout")
	fs.IntVar(&cfg.SweepBatchSize, "sweep-batch", cfg.SweepBatchSize, "Maximum orders per sweep batch")
	fs.IntVar(&cfg.WorkerPoolSize, "worker-pool", cfg.WorkerPoolSize, "Number of concurrent sweep workers")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	var err error

	if cfg.DuplicateWindow, err = time.ParseDuration(windowStr); err != nil {
		return nil, fmt.Errorf("invalid duplicate window: %w", err)
	}
	if cfg.OrderTTL, err = time.ParseDuration(ttlStr); err != nil {
		return nil, fmt.Errorf("invalid order ttl: %w", err)
	}
	if cfg.SweepInterval, err = time.ParseDuration(sweepStr); err != nil {
		return nil, fmt.Errorf("invalid sweep interval: %w", err)
	}
	if cfg.ShutdownTimeout, err = time.ParseDuration(shutdownStr); err != nil {
		return nil, fmt.Errorf("invalid shutdown timeout: %w", err)
	}

	if cfg.SweepBatchSize <= 0 {
		cfg.SweepBatchSize = defaultSweepBatchSize
	}
	if cfg.WorkerPoolSize <= 0 {
		cfg.WorkerPoolSize = defaultWorkerPoolSize
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = defaultSweepInterval
	}
	if cfg.OrderTTL <= 0 {
		cfg.OrderTTL = defaultOrderTTL
	}
	if cfg.DuplicateWindow <= 0 {
		cfg.DuplicateWindow = defaultDuplicateWindow
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = defaultShutdownTimeout
	}

	if cfg.DatabaseURI == "" {
		return nil, fmt.Errorf("database URI must be provided")
	}
	if cfg.CatalogAddress == "" {
		return nil, fmt.Errorf("catalog address must be provided")
	}
	if cfg.MobileMoneyAddress == "" {
		return nil, fmt.Errorf("mobile money address must be provided")
	}
	if cfg.CardWalletAddress == "" {
		return nil, fmt.Errorf("card/wallet address must be provided")
	}
	if cfg.IsProduction() && (cfg.MobileMoneySecret == "" || cfg.CardWalletSecret == "") {
		return nil, fmt.Errorf("webhook secrets must be configured in production")
	}

	return cfg, nil
}

// IsProduction reports whether the accept-all webhook fallback is forbidden.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func getString(lookup envLookup, key, def string) string {
	if v, ok := lookup(key); ok && v != "" {
		return v
	}
	return def
}

func getInt(lookup envLookup, key string, def int) int {
	if v, ok := lookup(key); ok && v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getFloat(lookup envLookup, key string, def float64) float64 {
	if v, ok := lookup(key); ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getDuration(lookup envLookup, key string, def time.Duration) time.Duration {
	if v, ok := lookup(key); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
