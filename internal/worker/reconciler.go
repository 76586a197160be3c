package worker

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	domainErrors "github.com/mwangikib/coursepay/internal/domain/errors"
	"github.com/mwangikib/coursepay/internal/domain/model"
)

// SettlementFacade exposes the subset of application functionality
// required by the background reconciler.
type SettlementFacade interface {
	ExpiredOrders(ctx context.Context, limit int) ([]model.PaymentOrder, error)
	InFlightOrders(ctx context.Context, limit int) ([]model.PaymentOrder, error)
	EnrollmentBacklog(ctx context.Context, limit int) ([]model.PaymentOrder, error)
	ExpireOrder(ctx context.Context, orderID string) error
	PollProvider(ctx context.Context, orderID string) error
	RetryEnrollment(ctx context.Context, order *model.PaymentOrder) error
}

type jobKind int

const (
	jobExpire jobKind = iota
	jobPoll
	jobEnrollmentRetry
)

type job struct {
	kind  jobKind
	order model.PaymentOrder
}

// Reconciler periodically sweeps the order store: expiring stale pending
// orders, polling providers for in-flight ones, and retrying deferred
// enrollments. Work is fanned out over a fixed worker pool.
type Reconciler struct {
	facade        SettlementFacade
	sweepInterval time.Duration
	batchSize     int
	workers       int
	logger        *slog.Logger

	jobs   chan job
	wg     sync.WaitGroup
	cancel context.CancelFunc
	mu     sync.Mutex
}

// NewReconciler constructs the background reconciler worker pool.
func NewReconciler(facade SettlementFacade, sweepInterval time.Duration, batchSize, workers int, logger *slog.Logger) *Reconciler {
	if workers <= 0 {
		workers = 1
	}
	if batchSize <= 0 {
		batchSize = 1
	}
	return &Reconciler{
		facade:        facade,
		sweepInterval: sweepInterval,
		batchSize:     batchSize,
		workers:       workers,
		logger:        logger,
		jobs:          make(chan job, batchSize*workers),
	}
}

// Start launches the sweep loop and worker pool.
func (r *Reconciler) Start(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()

	runCtx, cancel := context.WithCancel(ctx)
	r.cancel = cancel

	for i := 0; i < r.workers; i++ {
		r.wg.Add(1)
		go r.worker(runCtx)
	}

	r.wg.Add(1)
	go r.dispatch(runCtx)
}

// Stop waits for all workers to finish.
func (r *Reconciler) Stop() {
	r.mu.Lock()
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}
	r.mu.Unlock()

	r.wg.Wait()
}

func (r *Reconciler) dispatch(ctx context.Context) {
	defer r.wg.Done()
	defer close(r.jobs)
	ticker := time.NewTicker(r.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.sweep(ctx)
		}
	}
}

func (r *Reconciler) sweep(ctx context.Context) {
	r.enqueue(ctx, jobExpire, r.facade.ExpiredOrders, "expired")
	r.enqueue(ctx, jobPoll, r.facade.InFlightOrders, "in-flight")
	r.enqueue(ctx, jobEnrollmentRetry, r.facade.EnrollmentBacklog, "enrollment backlog")
}

func (r *Reconciler) enqueue(ctx context.Context, kind jobKind, fetch func(context.Context, int) ([]model.PaymentOrder, error), what string) {
	orders, err := fetch(ctx, r.batchSize)
	if err != nil {
		r.logger.Error("sweep fetch failed", slog.String("batch", what), slog.String("error", err.Error()))
		return
	}
	for _, order := range orders {
		select {
		case <-ctx.Done():
			return
		case r.jobs <- job{kind: kind, order: order}:
		}
	}
}

func (r *Reconciler) worker(ctx context.Context) {
	defer r.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case j, ok := <-r.jobs:
			if !ok {
				return
			}
			r.handle(ctx, j)
		}
	}
}

func (r *Reconciler) handle(ctx context.Context, j job) {
	var err error
	switch j.kind {
	case jobExpire:
		err = r.facade.ExpireOrder(ctx, j.order.OrderID)
	case jobPoll:
		err = r.facade.PollProvider(ctx, j.order.OrderID)
	case jobEnrollmentRetry:
		order := j.order
		err = r.facade.RetryEnrollment(ctx, &order)
	}
	if err == nil {
		return
	}

	switch {
	case errors.Is(err, domainErrors.ErrInvalidTransition), errors.Is(err, domainErrors.ErrOrderExpired):
		// A signal settled or expired the order between the sweep select
		// and the job; the next sweep no longer picks it up.
	case errors.Is(err, domainErrors.ErrProviderUnavailable):
		r.logger.Warn("provider unavailable during sweep", slog.String("order", j.order.OrderID))
	default:
		r.logger.Error("sweep job failed",
			slog.String("order", j.order.OrderID),
			slog.String("error", err.Error()),
		)
	}
}
