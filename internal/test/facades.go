package test

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	domainErrors "github.com/mwangikib/coursepay/internal/domain/errors"
	"github.com/mwangikib/coursepay/internal/domain/model"
	"github.com/mwangikib/coursepay/internal/pkg/fees"
	"github.com/mwangikib/coursepay/internal/provider"
	"github.com/mwangikib/coursepay/internal/usecase"
)

// CatalogStub serves configured courses and counts enrollment increments.
type CatalogStub struct {
	CourseFn       func(context.Context, int64) (*model.Course, error)
	Courses        map[int64]*model.Course
	IncrementErr   error
	IncrementCalls int32
}

func (s *CatalogStub) Course(ctx context.Context, courseID int64) (*model.Course, error) {
	if s.CourseFn != nil {
		return s.CourseFn(ctx, courseID)
	}
	if course, ok := s.Courses[courseID]; ok {
		return course, nil
	}
	return nil, domainErrors.ErrNotFound
}

func (s *CatalogStub) IncrementEnrolled(ctx context.Context, courseID int64) error {
	atomic.AddInt32(&s.IncrementCalls, 1)
	return s.IncrementErr
}

// NotifierStub records enrollment confirmations.
type NotifierStub struct {
	mu    sync.Mutex
	Calls []string
	Err   error
}

func (s *NotifierStub) EnrollmentConfirmed(ctx context.Context, userID, courseID int64, orderID string) error {
	if s.Err != nil {
		return s.Err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Calls = append(s.Calls, orderID)
	return nil
}

// CallCount returns the number of confirmations delivered.
func (s *NotifierStub) CallCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.Calls)
}

// AdapterStub fakes one payment provider.
type AdapterStub struct {
	NameVal      string
	InitiateFn   func(context.Context, *model.PaymentOrder) (*provider.InitiateResult, error)
	VerifyFn     func(context.Context, string) (provider.Status, error)
	VerifyStatus provider.Status
	ProviderRef  string
	InitiateErr  error
}

func (s AdapterStub) Name() string {
	if s.NameVal != "" {
		return s.NameVal
	}
	return "stub"
}

func (s AdapterStub) Initiate(ctx context.Context, order *model.PaymentOrder) (*provider.InitiateResult, error) {
	if s.InitiateFn != nil {
		return s.InitiateFn(ctx, order)
	}
	if s.InitiateErr != nil {
		return nil, s.InitiateErr
	}
	ref := s.ProviderRef
	if ref == "" {
		ref = "ref-" + order.OrderID
	}
	return &provider.InitiateResult{ProviderRef: ref, ActionTarget: "https://pay.example/" + ref}, nil
}

func (s AdapterStub) Verify(ctx context.Context, providerRef string) (provider.Status, error) {
	if s.VerifyFn != nil {
		return s.VerifyFn(ctx, providerRef)
	}
	if s.VerifyStatus != "" {
		return s.VerifyStatus, nil
	}
	return provider.StatusPending, nil
}

// PaymentFacadeStub drives the payment HTTP handlers.
type PaymentFacadeStub struct {
	CreateOrderFn    func(context.Context, usecase.CreateOrderInput) (*usecase.CreateOrderResult, error)
	ValidateAmountFn func(context.Context, int64, model.PaymentMethod, float64) (*usecase.ValidateAmountResult, error)
	GetOrderFn       func(context.Context, string) (*model.PaymentOrder, []model.HistoryEntry, error)
	VerifyFn         func(context.Context, string) (*model.PaymentOrder, error)
	ApproveFn        func(context.Context, string, string) (*model.PaymentOrder, error)
	RejectFn         func(context.Context, string, string) (*model.PaymentOrder, error)
	RefundFn         func(context.Context, string, string) (*model.PaymentOrder, error)
}

func defaultOrder(orderID string) *model.PaymentOrder {
	now := time.Now()
	return &model.PaymentOrder{
		ID:              1,
		OrderID:         orderID,
		UserID:          1,
		CourseID:        1,
		Method:          model.MethodMobileMoney,
		RequestedAmount: 56.50,
		TotalAmount:     56.50,
		Currency:        "USD",
		Status:          model.OrderStatusPending,
		Version:         1,
		CreatedAt:       now,
		UpdatedAt:       now,
		ExpiresAt:       now.Add(20 * time.Minute),
	}
}

func (s PaymentFacadeStub) CreateOrder(ctx context.Context, input usecase.CreateOrderInput) (*usecase.CreateOrderResult, error) {
	if s.CreateOrderFn != nil {
		return s.CreateOrderFn(ctx, input)
	}
	order := defaultOrder("CP-STUB-000001")
	order.UserID = input.UserID
	order.CourseID = input.CourseID
	order.Method = input.Method
	return &usecase.CreateOrderResult{Order: order, ActionTarget: "https://pay.example/stub"}, nil
}

func (s PaymentFacadeStub) ValidateAmount(ctx context.Context, courseID int64, method model.PaymentMethod, paid float64) (*usecase.ValidateAmountResult, error) {
	if s.ValidateAmountFn != nil {
		return s.ValidateAmountFn(ctx, courseID, method, paid)
	}
	return &usecase.ValidateAmountResult{
		Result: fees.Result{Type: fees.ResultValid, Valid: true, Required: paid, Paid: paid},
	}, nil
}

func (s PaymentFacadeStub) GetOrder(ctx context.Context, orderID string) (*model.PaymentOrder, []model.HistoryEntry, error) {
	if s.GetOrderFn != nil {
		return s.GetOrderFn(ctx, orderID)
	}
	order := defaultOrder(orderID)
	return order, []model.HistoryEntry{{PaymentID: order.ID, Status: model.OrderStatusPending, Actor: "system"}}, nil
}

func (s PaymentFacadeStub) VerifyPayment(ctx context.Context, orderID string) (*model.PaymentOrder, error) {
	if s.VerifyFn != nil {
		return s.VerifyFn(ctx, orderID)
	}
	return defaultOrder(orderID), nil
}

func (s PaymentFacadeStub) ApprovePayment(ctx context.Context, orderID, reason string) (*model.PaymentOrder, error) {
	if s.ApproveFn != nil {
		return s.ApproveFn(ctx, orderID, reason)
	}
	order := defaultOrder(orderID)
	order.Status = model.OrderStatusCompleted
	return order, nil
}

func (s PaymentFacadeStub) RejectPayment(ctx context.Context, orderID, reason string) (*model.PaymentOrder, error) {
	if s.RejectFn != nil {
		return s.RejectFn(ctx, orderID, reason)
	}
	order := defaultOrder(orderID)
	order.Status = model.OrderStatusFailed
	return order, nil
}

func (s PaymentFacadeStub) RefundPayment(ctx context.Context, orderID, reason string) (*model.PaymentOrder, error) {
	if s.RefundFn != nil {
		return s.RefundFn(ctx, orderID, reason)
	}
	order := defaultOrder(orderID)
	order.Status = model.OrderStatusRefunded
	return order, nil
}

// WebhookFacadeStub drives the webhook handler.
type WebhookFacadeStub struct {
	ProcessFn func(context.Context, string, []byte, string) error
	Calls     int32
}

func (s *WebhookFacadeStub) ProcessWebhook(ctx context.Context, providerName string, body []byte, sig string) error {
	atomic.AddInt32(&s.Calls, 1)
	if s.ProcessFn != nil {
		return s.ProcessFn(ctx, providerName, body, sig)
	}
	return nil
}

// HealthFacadeStub drives the health handler.
type HealthFacadeStub struct {
	Err error
}

func (s HealthFacadeStub) HealthCheck(ctx context.Context) error {
	return s.Err
}

// SettlementFacadeStub mimics worker interactions with the settlement facade.
type SettlementFacadeStub struct {
	mu sync.Mutex

	Expired  [][]model.PaymentOrder
	InFlight [][]model.PaymentOrder
	Backlog  [][]model.PaymentOrder

	ExpireFn func(context.Context, string) error
	PollFn   func(context.Context, string) error
	RetryFn  func(context.Context, *model.PaymentOrder) error

	ExpireCalls []string
	PollCalls   []string
	RetryCalls  []string

	expiredCall  int32
	inFlightCall int32
	backlogCall  int32
}

func takeBatch(batches [][]model.PaymentOrder, call *int32) []model.PaymentOrder {
	n := atomic.AddInt32(call, 1)
	if int(n) <= len(batches) {
		return batches[n-1]
	}
	time.Sleep(10 * time.Millisecond)
	return nil
}

func (s *SettlementFacadeStub) ExpiredOrders(ctx context.Context, limit int) ([]model.PaymentOrder, error) {
	return takeBatch(s.Expired, &s.expiredCall), nil
}

func (s *SettlementFacadeStub) InFlightOrders(ctx context.Context, limit int) ([]model.PaymentOrder, error) {
	return takeBatch(s.InFlight, &s.inFlightCall), nil
}

func (s *SettlementFacadeStub) EnrollmentBacklog(ctx context.Context, limit int) ([]model.PaymentOrder, error) {
	return takeBatch(s.Backlog, &s.backlogCall), nil
}

func (s *SettlementFacadeStub) ExpireOrder(ctx context.Context, orderID string) error {
	s.mu.Lock()
	s.ExpireCalls = append(s.ExpireCalls, orderID)
	s.mu.Unlock()
	if s.ExpireFn != nil {
		return s.ExpireFn(ctx, orderID)
	}
	return nil
}

func (s *SettlementFacadeStub) PollProvider(ctx context.Context, orderID string) error {
	s.mu.Lock()
	s.PollCalls = append(s.PollCalls, orderID)
	s.mu.Unlock()
	if s.PollFn != nil {
		return s.PollFn(ctx, orderID)
	}
	return nil
}

func (s *SettlementFacadeStub) RetryEnrollment(ctx context.Context, order *model.PaymentOrder) error {
	s.mu.Lock()
	s.RetryCalls = append(s.RetryCalls, order.OrderID)
	s.mu.Unlock()
	if s.RetryFn != nil {
		return s.RetryFn(ctx, order)
	}
	return nil
}

// Snapshot helpers for concurrent assertions.
func (s *SettlementFacadeStub) ExpireCallCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.ExpireCalls)
}

func (s *SettlementFacadeStub) PollCallCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.PollCalls)
}

func (s *SettlementFacadeStub) RetryCallCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.RetryCalls)
}
