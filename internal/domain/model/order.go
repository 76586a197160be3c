package model

import "time"

// PaymentMethod identifies the provider used to settle an order.
type PaymentMethod string

const (
	MethodMobileMoney  PaymentMethod = "mobile_money"
	MethodCardWallet   PaymentMethod = "card_wallet"
	MethodBankTransfer PaymentMethod = "bank_transfer"
)

// Valid reports whether the method is one of the supported variants.
func (m PaymentMethod) Valid() bool {
	switch m {
	case MethodMobileMoney, MethodCardWallet, MethodBankTransfer:
		return true
	}
	return false
}

// OrderStatus describes the settlement lifecycle.
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "PENDING"
	OrderStatusProcessing OrderStatus = "PROCESSING"
	OrderStatusCompleted  OrderStatus = "COMPLETED"
	OrderStatusFailed     OrderStatus = "FAILED"
	OrderStatusExpired    OrderStatus = "EXPIRED"
	OrderStatusRefunded   OrderStatus = "REFUNDED"
)

// Terminal reports whether provider signals may no longer move the order.
func (s OrderStatus) Terminal() bool {
	switch s {
	case OrderStatusCompleted, OrderStatusFailed, OrderStatusExpired, OrderStatusRefunded:
		return true
	}
	return false
}

// CanTransition reports whether the state machine admits s -> target.
// Re-applying the current status is resolved by the reconciler as a no-op
// and never reaches this check.
func (s OrderStatus) CanTransition(target OrderStatus) bool {
	switch s {
	case OrderStatusPending:
		switch target {
		case OrderStatusProcessing, OrderStatusCompleted, OrderStatusFailed, OrderStatusExpired:
			return true
		}
	case OrderStatusProcessing:
		switch target {
		case OrderStatusCompleted, OrderStatusFailed:
			return true
		}
	case OrderStatusCompleted:
		return target == OrderStatusRefunded
	}
	return false
}

// PaymentOrder is the settlement record for one course purchase attempt.
// Status is owned by the reconciler; every other field is written once at
// creation, except ProviderRef (set after initiate) and EnrollmentPending.
type PaymentOrder struct {
	ID                int64  // storage-assigned payment id
	OrderID           string // human-readable lookup key
	UserID            int64
	CourseID          int64
	Method            PaymentMethod
	RequestedAmount   float64
	PlatformFee       float64
	ProcessingFee     float64
	NetAmount         float64
	TotalAmount       float64
	Currency          string
	Phone             string
	Network           string
	ProviderRef       string
	ProofRef          string
	Status            OrderStatus
	EnrollmentPending bool
	Version           int64
	CreatedAt         time.Time
	UpdatedAt         time.Time
	ExpiresAt         time.Time
}

// HistoryEntry is one immutable record in an order's audit trail.
type HistoryEntry struct {
	ID        int64
	PaymentID int64
	Status    OrderStatus
	Actor     string
	Message   string
	EventID   string
	CreatedAt time.Time
}
