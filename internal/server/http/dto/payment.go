package dto

import "time"

// CreateOrderRequest is the POST /api/payments payload.
type CreateOrderRequest struct {
	UserID          int64   `json:"userId" binding:"required"`
	CourseID        int64   `json:"courseId" binding:"required"`
	Method          string  `json:"method" binding:"required"`
	RequestedAmount float64 `json:"requestedAmount" binding:"required"`
	Phone           string  `json:"phone"`
	Network         string  `json:"network"`
	ProofRef        string  `json:"proofRef"`
}

// QuoteResponse is the fee breakdown attached to order responses.
type QuoteResponse struct {
	BasePrice       float64 `json:"basePrice"`
	PlatformFee     float64 `json:"platformFee"`
	ProcessingFee   float64 `json:"processingFee"`
	NetAmount       float64 `json:"netAmount"`
	TotalAmount     float64 `json:"totalAmount"`
	Currency        string  `json:"currency"`
	DisplayAmount   float64 `json:"displayAmount,omitempty"`
	DisplayCurrency string  `json:"displayCurrency,omitempty"`
}

// OrderResponse is the wire form of a payment order.
type OrderResponse struct {
	OrderID           string    `json:"orderId"`
	PaymentID         int64     `json:"paymentId"`
	UserID            int64     `json:"userId"`
	CourseID          int64     `json:"courseId"`
	Method            string    `json:"method"`
	RequestedAmount   float64   `json:"requestedAmount"`
	PlatformFee       float64   `json:"platformFee"`
	ProcessingFee     float64   `json:"processingFee"`
	NetAmount         float64   `json:"netAmount"`
	TotalAmount       float64   `json:"totalAmount"`
	Currency          string    `json:"currency"`
	Status            string    `json:"status"`
	ProviderRef       string    `json:"providerRef,omitempty"`
	ActionTarget      string    `json:"actionTarget,omitempty"`
	EnrollmentPending bool      `json:"enrollmentPending,omitempty"`
	CreatedAt         time.Time `json:"createdAt"`
	ExpiresAt         time.Time `json:"expiresAt"`
}

// CreateOrderResponse is returned from POST /api/payments.
type CreateOrderResponse struct {
	Order OrderResponse `json:"order"`
	Quote QuoteResponse `json:"quote"`
}

// HistoryEntryResponse is one audit trail record.
type HistoryEntryResponse struct {
	Status    string    `json:"status"`
	Actor     string    `json:"actor"`
	Message   string    `json:"message,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// OrderDetailResponse is returned from GET /api/payments/:orderID.
type OrderDetailResponse struct {
	Order   OrderResponse          `json:"order"`
	History []HistoryEntryResponse `json:"history"`
}

// ValidateAmountRequest is the POST /api/payments/validate payload.
type ValidateAmountRequest struct {
	CourseID   int64   `json:"courseId" binding:"required"`
	Method     string  `json:"method"`
	PaidAmount float64 `json:"paidAmount"`
}

// ValidateAmountResponse reports the validation verdict with exact figures.
type ValidateAmountResponse struct {
	Result               string        `json:"result"`
	Valid                bool          `json:"valid"`
	Required             float64       `json:"required"`
	Paid                 float64       `json:"paid"`
	Shortfall            float64       `json:"shortfall,omitempty"`
	Overpayment          float64       `json:"overpayment,omitempty"`
	RequiresConfirmation bool          `json:"requiresConfirmation,omitempty"`
	Quote                QuoteResponse `json:"quote"`
}

// AdminActionRequest carries the reason for a manual decision.
type AdminActionRequest struct {
	Reason string `json:"reason"`
}

// ErrorResponse is the uniform error payload.
type ErrorResponse struct {
	Error     string  `json:"error"`
	Required  float64 `json:"required,omitempty"`
	Paid      float64 `json:"paid,omitempty"`
	Shortfall float64 `json:"shortfall,omitempty"`
}
