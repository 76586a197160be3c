package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	domainErrors "github.com/mwangikib/coursepay/internal/domain/errors"
	"github.com/mwangikib/coursepay/internal/domain/model"
	"github.com/mwangikib/coursepay/internal/server/http/dto"
	"github.com/mwangikib/coursepay/internal/usecase"
)

// PaymentHandler manages the buyer-facing payment endpoints.
type PaymentHandler struct {
	facade PaymentFacade
}

// NewPaymentHandler constructs PaymentHandler.
func NewPaymentHandler(facade PaymentFacade) *PaymentHandler {
	return &PaymentHandler{facade: facade}
}

// Create handles POST /api/payments.
func (h *PaymentHandler) Create(c *gin.Context) {
	var req dto.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid request body"})
		return
	}

	result, err := h.facade.CreateOrder(c.Request.Context(), usecase.CreateOrderInput{
		UserID:          req.UserID,
		CourseID:        req.CourseID,
		Method:          model.PaymentMethod(req.Method),
		RequestedAmount: req.RequestedAmount,
		Phone:           req.Phone,
		Network:         req.Network,
		ProofRef:        req.ProofRef,
	})
	if err != nil {
		if errors.Is(err, domainErrors.ErrAlreadyExists) && result != nil {
			c.JSON(http.StatusConflict, dto.CreateOrderResponse{
				Order: toOrderResponse(result.Order, ""),
			})
			return
		}
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.CreateOrderResponse{
		Order: toOrderResponse(result.Order, result.ActionTarget),
		Quote: toQuoteResponse(result.Quote),
	})
}

// Validate handles POST /api/payments/validate.
func (h *PaymentHandler) Validate(c *gin.Context) {
	var req dto.ValidateAmountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid request body"})
		return
	}

	result, err := h.facade.ValidateAmount(c.Request.Context(), req.CourseID, model.PaymentMethod(req.Method), req.PaidAmount)
	if err != nil {
		writeError(c, err)
		return
	}

	verdict := result.Result
	c.JSON(http.StatusOK, dto.ValidateAmountResponse{
		Result:               string(verdict.Type),
		Valid:                verdict.Valid,
		Required:             verdict.Required,
		Paid:                 verdict.Paid,
		Shortfall:            verdict.Shortfall,
		Overpayment:          verdict.Overpayment,
		RequiresConfirmation: verdict.RequiresConfirmation,
		Quote:                toQuoteResponse(result.Quote),
	})
}

// Get handles GET /api/payments/:orderID.
func (h *PaymentHandler) Get(c *gin.Context) {
	order, history, err := h.facade.GetOrder(c.Request.Context(), c.Param("orderID"))
	if err != nil {
		writeError(c, err)
		return
	}

	entries := make([]dto.HistoryEntryResponse, 0, len(history))
	for _, entry := range history {
		entries = append(entries, dto.HistoryEntryResponse{
			Status:    string(entry.Status),
			Actor:     entry.Actor,
			Message:   entry.Message,
			CreatedAt: entry.CreatedAt,
		})
	}

	c.JSON(http.StatusOK, dto.OrderDetailResponse{
		Order:   toOrderResponse(order, ""),
		History: entries,
	})
}

// Verify handles POST /api/payments/:orderID/verify.
func (h *PaymentHandler) Verify(c *gin.Context) {
	order, err := h.facade.VerifyPayment(c.Request.Context(), c.Param("orderID"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toOrderResponse(order, ""))
}
