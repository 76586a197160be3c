package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	domainErrors "github.com/mwangikib/coursepay/internal/domain/errors"
	"github.com/mwangikib/coursepay/internal/domain/model"
	"github.com/mwangikib/coursepay/internal/domain/repository"
)

// pgxPool is the slice of pgxpool.Pool the storage uses; it lets tests
// substitute a mock pool.
type pgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	BeginTx(ctx context.Context, opts pgx.TxOptions) (pgx.Tx, error)
	Ping(ctx context.Context) error
	Close()
}

var newPgxPool = func(ctx context.Context, cfg *pgxpool.Config) (pgxPool, error) {
	return pgxpool.NewWithConfig(ctx, cfg)
}

// Storage acts as repository facade backed by PostgreSQL.
type Storage struct {
	pool   pgxPool
	logger *slog.Logger
}

type orderRepository struct {
	storage *Storage
}

type enrollmentRepository struct {
	storage *Storage
}

// New creates storage with schema initialization.
func New(ctx context.Context, dsn string, logger *slog.Logger) (*Storage, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}

	pool, err := newPgxPool(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect db: %w", err)
	}

	storage := &Storage{pool: pool, logger: logger}
	if err := storage.initSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return storage, nil
}

// Close releases database resources.
func (s *Storage) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Factory methods for domain repositories.
func (s *Storage) Orders() repository.OrderRepository {
	return &orderRepository{storage: s}
}

func (s *Storage) Enrollments() repository.EnrollmentRepository {
	return &enrollmentRepository{storage: s}
}

func (s *Storage) initSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS orders (
            id BIGSERIAL PRIMARY KEY,
            order_id TEXT UNIQUE NOT NULL,
            user_id BIGINT NOT NULL,
            course_id BIGINT NOT NULL,
            method TEXT NOT NULL,
            requested_amount DOUBLE PRECISION NOT NULL,
            platform_fee DOUBLE PRECISION NOT NULL,
            processing_fee DOUBLE PRECISION NOT NULL,
            net_amount DOUBLE PRECISION NOT NULL,
            total_amount DOUBLE PRECISION NOT NULL,
            currency TEXT NOT NULL,
            phone TEXT NOT NULL DEFAULT '',
            network TEXT NOT NULL DEFAULT '',
            provider_ref TEXT NOT NULL DEFAULT '',
            proof_ref TEXT NOT NULL DEFAULT '',
            status TEXT NOT NULL,
            enrollment_pending BOOLEAN NOT NULL DEFAULT FALSE,
            version BIGINT NOT NULL DEFAULT 1,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            expires_at TIMESTAMPTZ NOT NULL
        )`,
		`CREATE TABLE IF NOT EXISTS order_history (
            id BIGSERIAL PRIMARY KEY,
            payment_id BIGINT NOT NULL REFERENCES orders(id),
            status TEXT NOT NULL,
            actor TEXT NOT NULL,
            message TEXT NOT NULL,
            event_id TEXT NOT NULL DEFAULT '',
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        )`,
		`CREATE TABLE IF NOT EXISTS enrollments (
            id BIGSERIAL PRIMARY KEY,
            user_id BIGINT NOT NULL,
            course_id BIGINT NOT NULL,
            payment_id BIGINT NOT NULL,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            UNIQUE (user_id, course_id)
        )`,
		`CREATE INDEX IF NOT EXISTS idx_orders_guard ON orders(user_id, course_id, status, created_at DESC)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_orders_active_pair ON orders(user_id, course_id)
	        WHERE status IN ('PENDING','PROCESSING')`,
		`CREATE INDEX IF NOT EXISTS idx_orders_provider_ref ON orders(provider_ref)`,
		`CREATE INDEX IF NOT EXISTS idx_orders_expiry ON orders(status, expires_at)`,
		`CREATE INDEX IF NOT EXISTS idx_history_payment ON order_history(payment_id, id)`,
	}

	for _, stmt := range statements {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}

	return nil
}

const orderColumns = `id, order_id, user_id, course_id, method, requested_amount, platform_fee,
           processing_fee, net_amount, total_amount, currency, phone, network, provider_ref,
           proof_ref, status, enrollment_pending, version, created_at, updated_at, expires_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (*model.PaymentOrder, error) {
	var o model.PaymentOrder
	err := row.Scan(&o.ID, &o.OrderID, &o.UserID, &o.CourseID, &o.Method, &o.RequestedAmount,
		&o.PlatformFee, &o.ProcessingFee, &o.NetAmount, &o.TotalAmount, &o.Currency, &o.Phone,
		&o.Network, &o.ProviderRef, &o.ProofRef, &o.Status, &o.EnrollmentPending, &o.Version,
		&o.CreatedAt, &o.UpdatedAt, &o.ExpiresAt)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// --- OrderRepository implementation ---

func (r *orderRepository) Create(ctx context.Context, order *model.PaymentOrder) (*model.PaymentOrder, error) {
	stored := *order
	err := r.storage.WithinTransaction(ctx, func(tx pgx.Tx) error {
		const insertOrder = `INSERT INTO orders (order_id, user_id, course_id, method, requested_amount,
                                platform_fee, processing_fee, net_amount, total_amount, currency,
                                phone, network, proof_ref, status, expires_at)
                             VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
                             RETURNING id, version, created_at, updated_at`
		err := tx.QueryRow(ctx, insertOrder,
			order.OrderID, order.UserID, order.CourseID, order.Method, order.RequestedAmount,
			order.PlatformFee, order.ProcessingFee, order.NetAmount, order.TotalAmount, order.Currency,
			order.Phone, order.Network, order.ProofRef, model.OrderStatusPending, order.ExpiresAt,
		).Scan(&stored.ID, &stored.Version, &stored.CreatedAt, &stored.UpdatedAt)
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == "23505" {
				return domainErrors.ErrAlreadyExists
			}
			return err
		}
		stored.Status = model.OrderStatusPending

		const insertHistory = `INSERT INTO order_history (payment_id, status, actor, message) VALUES ($1,$2,$3,$4)`
		_, err = tx.Exec(ctx, insertHistory, stored.ID, model.OrderStatusPending, "system", "order created")
		return err
	})
	if err != nil {
		return nil, err
	}
	return &stored, nil
}

func (r *orderRepository) GetByOrderID(ctx context.Context, orderID string) (*model.PaymentOrder, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE order_id=$1`
	order, err := scanOrder(r.storage.pool.QueryRow(ctx, query, orderID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrNotFound
		}
		return nil, err
	}
	return order, nil
}

func (r *orderRepository) GetByProviderRef(ctx context.Context, ref string) (*model.PaymentOrder, error) {
	if ref == "" {
		return nil, domainErrors.ErrNotFound
	}
	query := `SELECT ` + orderColumns + ` FROM orders WHERE provider_ref=$1`
	order, err := scanOrder(r.storage.pool.QueryRow(ctx, query, ref))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrNotFound
		}
		return nil, err
	}
	return order, nil
}

func (r *orderRepository) FindActive(ctx context.Context, userID, courseID int64, window time.Duration) (*model.PaymentOrder, error) {
	query := `SELECT ` + orderColumns + ` FROM orders
               WHERE user_id=$1 AND course_id=$2
                 AND status IN ('PENDING','PROCESSING','COMPLETED')
                 AND created_at > $3
               ORDER BY created_at DESC
               LIMIT 1`
	cutoff := time.Now().Add(-window)
	order, err := scanOrder(r.storage.pool.QueryRow(ctx, query, userID, courseID, cutoff))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrNotFound
		}
		return nil, err
	}
	return order, nil
}

func (r *orderRepository) UpdateStatusCAS(ctx context.Context, paymentID, expectedVersion int64, status model.OrderStatus, entry model.HistoryEntry) (bool, error) {
	applied := false
	err := r.storage.WithinTransaction(ctx, func(tx pgx.Tx) error {
		const update = `UPDATE orders SET status=$1, version=version+1, updated_at=NOW()
                        WHERE id=$2 AND version=$3`
		tag, err := tx.Exec(ctx, update, status, paymentID, expectedVersion)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return nil
		}

		const insertHistory = `INSERT INTO order_history (payment_id, status, actor, message, event_id)
                               VALUES ($1,$2,$3,$4,$5)`
		if _, err := tx.Exec(ctx, insertHistory, paymentID, entry.Status, entry.Actor, entry.Message, entry.EventID); err != nil {
			return err
		}
		applied = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return applied, nil
}

func (r *orderRepository) SetProviderRef(ctx context.Context, paymentID int64, ref string) error {
	const query = `UPDATE orders SET provider_ref=$1, updated_at=NOW() WHERE id=$2`
	_, err := r.storage.pool.Exec(ctx, query, ref, paymentID)
	return err
}

func (r *orderRepository) SetEnrollmentPending(ctx context.Context, paymentID int64, pending bool) error {
	const query = `UPDATE orders SET enrollment_pending=$1, updated_at=NOW() WHERE id=$2`
	_, err := r.storage.pool.Exec(ctx, query, pending, paymentID)
	return err
}

func (r *orderRepository) History(ctx context.Context, paymentID int64) ([]model.HistoryEntry, error) {
	const query = `SELECT id, payment_id, status, actor, message, event_id, created_at
                   FROM order_history WHERE payment_id=$1 ORDER BY id`
	rows, err := r.storage.pool.Query(ctx, query, paymentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []model.HistoryEntry
	for rows.Next() {
		var e model.HistoryEntry
		if err := rows.Scan(&e.ID, &e.PaymentID, &e.Status, &e.Actor, &e.Message, &e.EventID, &e.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *orderRepository) HasEvent(ctx context.Context, paymentID int64, eventID string) (bool, error) {
	if eventID == "" {
		return false, nil
	}
	const query = `SELECT EXISTS(SELECT 1 FROM order_history WHERE payment_id=$1 AND event_id=$2)`
	var exists bool
	if err := r.storage.pool.QueryRow(ctx, query, paymentID, eventID).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (r *orderRepository) SelectExpired(ctx context.Context, limit int) ([]model.PaymentOrder, error) {
	query := `SELECT ` + orderColumns + ` FROM orders
               WHERE status='PENDING' AND expires_at < NOW()
               ORDER BY expires_at
               LIMIT $1`
	return r.selectOrders(ctx, query, limit)
}

func (r *orderRepository) SelectInFlight(ctx context.Context, limit int) ([]model.PaymentOrder, error) {
	query := `SELECT ` + orderColumns + ` FROM orders
               WHERE status IN ('PENDING','PROCESSING') AND provider_ref <> '' AND expires_at > NOW()
               ORDER BY updated_at
               LIMIT $1`
	return r.selectOrders(ctx, query, limit)
}

func (r *orderRepository) SelectEnrollmentPending(ctx context.Context, limit int) ([]model.PaymentOrder, error) {
	query := `SELECT ` + orderColumns + ` FROM orders
               WHERE status='COMPLETED' AND enrollment_pending
               ORDER BY updated_at
               LIMIT $1`
	return r.selectOrders(ctx, query, limit)
}

func (r *orderRepository) selectOrders(ctx context.Context, query string, limit int) ([]model.PaymentOrder, error) {
	rows, err := r.storage.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []model.PaymentOrder
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *order)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// --- EnrollmentRepository implementation ---

func (r *enrollmentRepository) CreateIfAbsent(ctx context.Context, userID, courseID, paymentID int64) (*model.Enrollment, bool, error) {
	const query = `INSERT INTO enrollments (user_id, course_id, payment_id) VALUES ($1,$2,$3)
                   ON CONFLICT (user_id, course_id) DO NOTHING
                   RETURNING id, created_at`
	enrollment := model.Enrollment{UserID: userID, CourseID: courseID, PaymentID: paymentID}
	err := r.storage.pool.QueryRow(ctx, query, userID, courseID, paymentID).Scan(&enrollment.ID, &enrollment.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			existing, err := r.GetByUserCourse(ctx, userID, courseID)
			if err != nil {
				return nil, false, err
			}
			return existing, false, nil
		}
		return nil, false, err
	}
	return &enrollment, true, nil
}

func (r *enrollmentRepository) GetByUserCourse(ctx context.Context, userID, courseID int64) (*model.Enrollment, error) {
	const query = `SELECT id, user_id, course_id, payment_id, created_at
                   FROM enrollments WHERE user_id=$1 AND course_id=$2`
	var e model.Enrollment
	err := r.storage.pool.QueryRow(ctx, query, userID, courseID).Scan(&e.ID, &e.UserID, &e.CourseID, &e.PaymentID, &e.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrNotFound
		}
		return nil, err
	}
	return &e, nil
}

// WithinTransaction executes function inside transaction boundary.
func (s *Storage) WithinTransaction(ctx context.Context, fn func(pgx.Tx) error) (err error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		} else {
			err = tx.Commit(ctx)
		}
	}()

	err = fn(tx)
	return err
}

// HealthCheck verifies database connectivity.
func (s *Storage) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return s.pool.Ping(ctx)
}
