package test

import (
	"context"
	"sync"
	"time"

	domainErrors "github.com/mwangikib/coursepay/internal/domain/errors"
	"github.com/mwangikib/coursepay/internal/domain/model"
)

// OrderRepositoryStub is a mutex-guarded in-memory order store with real
// compare-and-swap semantics, so reconciliation races can be exercised
// with concurrent goroutines.
type OrderRepositoryStub struct {
	mu      sync.Mutex
	next    int64
	byID    map[int64]*model.PaymentOrder
	byOrder map[string]int64
	history map[int64][]model.HistoryEntry

	Err error

	CreateFn          func(context.Context, *model.PaymentOrder) (*model.PaymentOrder, error)
	UpdateStatusCASFn func(context.Context, int64, int64, model.OrderStatus, model.HistoryEntry) (bool, error)
	FindActiveFn      func(context.Context, int64, int64, time.Duration) (*model.PaymentOrder, error)
}

// NewOrderRepositoryStub constructs the stub with initialized maps.
func NewOrderRepositoryStub() *OrderRepositoryStub {
	return &OrderRepositoryStub{
		next:    1,
		byID:    make(map[int64]*model.PaymentOrder),
		byOrder: make(map[string]int64),
		history: make(map[int64][]model.HistoryEntry),
	}
}

// Seed inserts an order directly, bypassing validation, and returns the
// stored copy.
func (s *OrderRepositoryStub) Seed(order model.PaymentOrder) *model.PaymentOrder {
	s.mu.Lock()
	defer s.mu.Unlock()

	if order.ID == 0 {
		order.ID = s.next
		s.next++
	} else if order.ID >= s.next {
		s.next = order.ID + 1
	}
	if order.Version == 0 {
		order.Version = 1
	}
	if order.Status == "" {
		order.Status = model.OrderStatusPending
	}
	if order.CreatedAt.IsZero() {
		order.CreatedAt = time.Now()
	}
	stored := order
	s.byID[stored.ID] = &stored
	s.byOrder[stored.OrderID] = stored.ID
	return &stored
}

// Snapshot returns a copy of the stored order.
func (s *OrderRepositoryStub) Snapshot(paymentID int64) (model.PaymentOrder, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	order, ok := s.byID[paymentID]
	if !ok {
		return model.PaymentOrder{}, false
	}
	return *order, true
}

func (s *OrderRepositoryStub) Create(ctx context.Context, order *model.PaymentOrder) (*model.PaymentOrder, error) {
	if s.CreateFn != nil {
		return s.CreateFn(ctx, order)
	}
	if s.Err != nil {
		return nil, s.Err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byOrder[order.OrderID]; exists {
		return nil, domainErrors.ErrAlreadyExists
	}
	// Mirrors the partial unique index on the active (user, course) pair.
	for _, existing := range s.byID {
		if existing.UserID == order.UserID && existing.CourseID == order.CourseID &&
			(existing.Status == model.OrderStatusPending || existing.Status == model.OrderStatusProcessing) {
			return nil, domainErrors.ErrAlreadyExists
		}
	}

	stored := *order
	stored.ID = s.next
	s.next++
	stored.Status = model.OrderStatusPending
	stored.Version = 1
	now := time.Now()
	stored.CreatedAt = now
	stored.UpdatedAt = now

	s.byID[stored.ID] = &stored
	s.byOrder[stored.OrderID] = stored.ID
	s.history[stored.ID] = append(s.history[stored.ID], model.HistoryEntry{
		PaymentID: stored.ID,
		Status:    model.OrderStatusPending,
		Actor:     "system",
		Message:   "order created",
		CreatedAt: now,
	})

	result := stored
	return &result, nil
}

func (s *OrderRepositoryStub) GetByOrderID(ctx context.Context, orderID string) (*model.PaymentOrder, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.byOrder[orderID]
	if !ok {
		return nil, domainErrors.ErrNotFound
	}
	order := *s.byID[id]
	return &order, nil
}

func (s *OrderRepositoryStub) GetByProviderRef(ctx context.Context, ref string) (*model.PaymentOrder, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	if ref == "" {
		return nil, domainErrors.ErrNotFound
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, order := range s.byID {
		if order.ProviderRef == ref {
			copied := *order
			return &copied, nil
		}
	}
	return nil, domainErrors.ErrNotFound
}

func (s *OrderRepositoryStub) FindActive(ctx context.Context, userID, courseID int64, window time.Duration) (*model.PaymentOrder, error) {
	if s.FindActiveFn != nil {
		return s.FindActiveFn(ctx, userID, courseID, window)
	}
	if s.Err != nil {
		return nil, s.Err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	cutoff := time.Now().Add(-window)
	var newest *model.PaymentOrder
	for _, order := range s.byID {
		if order.UserID != userID || order.CourseID != courseID {
			continue
		}
		switch order.Status {
		case model.OrderStatusPending, model.OrderStatusProcessing, model.OrderStatusCompleted:
		default:
			continue
		}
		if !order.CreatedAt.After(cutoff) {
			continue
		}
		if newest == nil || order.CreatedAt.After(newest.CreatedAt) {
			newest = order
		}
	}
	if newest == nil {
		return nil, domainErrors.ErrNotFound
	}
	copied := *newest
	return &copied, nil
}

func (s *OrderRepositoryStub) UpdateStatusCAS(ctx context.Context, paymentID, expectedVersion int64, status model.OrderStatus, entry model.HistoryEntry) (bool, error) {
	if s.UpdateStatusCASFn != nil {
		return s.UpdateStatusCASFn(ctx, paymentID, expectedVersion, status, entry)
	}
	if s.Err != nil {
		return false, s.Err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	order, ok := s.byID[paymentID]
	if !ok {
		return false, domainErrors.ErrNotFound
	}
	if order.Version != expectedVersion {
		return false, nil
	}

	order.Status = status
	order.Version++
	order.UpdatedAt = time.Now()
	entry.PaymentID = paymentID
	entry.CreatedAt = order.UpdatedAt
	s.history[paymentID] = append(s.history[paymentID], entry)
	return true, nil
}

func (s *OrderRepositoryStub) SetProviderRef(ctx context.Context, paymentID int64, ref string) error {
	if s.Err != nil {
		return s.Err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	order, ok := s.byID[paymentID]
	if !ok {
		return domainErrors.ErrNotFound
	}
	order.ProviderRef = ref
	return nil
}

func (s *OrderRepositoryStub) SetEnrollmentPending(ctx context.Context, paymentID int64, pending bool) error {
	if s.Err != nil {
		return s.Err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	order, ok := s.byID[paymentID]
	if !ok {
		return domainErrors.ErrNotFound
	}
	order.EnrollmentPending = pending
	return nil
}

func (s *OrderRepositoryStub) History(ctx context.Context, paymentID int64) ([]model.HistoryEntry, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	entries := make([]model.HistoryEntry, len(s.history[paymentID]))
	copy(entries, s.history[paymentID])
	return entries, nil
}

func (s *OrderRepositoryStub) HasEvent(ctx context.Context, paymentID int64, eventID string) (bool, error) {
	if s.Err != nil {
		return false, s.Err
	}
	if eventID == "" {
		return false, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, entry := range s.history[paymentID] {
		if entry.EventID == eventID {
			return true, nil
		}
	}
	return false, nil
}

func (s *OrderRepositoryStub) SelectExpired(ctx context.Context, limit int) ([]model.PaymentOrder, error) {
	return s.selectWhere(limit, func(o *model.PaymentOrder) bool {
		return o.Status == model.OrderStatusPending && o.ExpiresAt.Before(time.Now())
	})
}

func (s *OrderRepositoryStub) SelectInFlight(ctx context.Context, limit int) ([]model.PaymentOrder, error) {
	return s.selectWhere(limit, func(o *model.PaymentOrder) bool {
		if o.ProviderRef == "" || !o.ExpiresAt.After(time.Now()) {
			return false
		}
		return o.Status == model.OrderStatusPending || o.Status == model.OrderStatusProcessing
	})
}

func (s *OrderRepositoryStub) SelectEnrollmentPending(ctx context.Context, limit int) ([]model.PaymentOrder, error) {
	return s.selectWhere(limit, func(o *model.PaymentOrder) bool {
		return o.Status == model.OrderStatusCompleted && o.EnrollmentPending
	})
}

func (s *OrderRepositoryStub) selectWhere(limit int, match func(*model.PaymentOrder) bool) ([]model.PaymentOrder, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []model.PaymentOrder
	for _, order := range s.byID {
		if len(result) >= limit {
			break
		}
		if match(order) {
			result = append(result, *order)
		}
	}
	return result, nil
}

// EnrollmentRepositoryStub stores enrollments keyed by (user, course).
type EnrollmentRepositoryStub struct {
	mu      sync.Mutex
	next    int64
	entries map[[2]int64]*model.Enrollment

	Err error
}

// NewEnrollmentRepositoryStub constructs the stub.
func NewEnrollmentRepositoryStub() *EnrollmentRepositoryStub {
	return &EnrollmentRepositoryStub{next: 1, entries: make(map[[2]int64]*model.Enrollment)}
}

func (s *EnrollmentRepositoryStub) CreateIfAbsent(ctx context.Context, userID, courseID, paymentID int64) (*model.Enrollment, bool, error) {
	if s.Err != nil {
		return nil, false, s.Err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	key := [2]int64{userID, courseID}
	if existing, ok := s.entries[key]; ok {
		copied := *existing
		return &copied, false, nil
	}
	enrollment := &model.Enrollment{
		ID:        s.next,
		UserID:    userID,
		CourseID:  courseID,
		PaymentID: paymentID,
		CreatedAt: time.Now(),
	}
	s.next++
	s.entries[key] = enrollment
	copied := *enrollment
	return &copied, true, nil
}

func (s *EnrollmentRepositoryStub) GetByUserCourse(ctx context.Context, userID, courseID int64) (*model.Enrollment, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if enrollment, ok := s.entries[[2]int64{userID, courseID}]; ok {
		copied := *enrollment
		return &copied, nil
	}
	return nil, domainErrors.ErrNotFound
}

// Count returns the number of stored enrollments.
func (s *EnrollmentRepositoryStub) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
