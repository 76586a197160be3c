package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	domainErrors "github.com/mwangikib/coursepay/internal/domain/errors"
	"github.com/mwangikib/coursepay/internal/domain/model"
	"github.com/mwangikib/coursepay/internal/pkg/fees"
	"github.com/mwangikib/coursepay/internal/server/http/dto"
)

func toOrderResponse(order *model.PaymentOrder, actionTarget string) dto.OrderResponse {
	return dto.OrderResponse{
		OrderID:           order.OrderID,
		PaymentID:         order.ID,
		UserID:            order.UserID,
		CourseID:          order.CourseID,
		Method:            string(order.Method),
		RequestedAmount:   order.RequestedAmount,
		PlatformFee:       order.PlatformFee,
		ProcessingFee:     order.ProcessingFee,
		NetAmount:         order.NetAmount,
		TotalAmount:       order.TotalAmount,
		Currency:          order.Currency,
		Status:            string(order.Status),
		ProviderRef:       order.ProviderRef,
		ActionTarget:      actionTarget,
		EnrollmentPending: order.EnrollmentPending,
		CreatedAt:         order.CreatedAt,
		ExpiresAt:         order.ExpiresAt,
	}
}

func toQuoteResponse(quote fees.Quote) dto.QuoteResponse {
	return dto.QuoteResponse{
		BasePrice:       quote.BasePrice,
		PlatformFee:     quote.PlatformFee,
		ProcessingFee:   quote.ProcessingFee,
		NetAmount:       quote.NetAmount,
		TotalAmount:     quote.TotalAmount,
		Currency:        quote.Currency,
		DisplayAmount:   quote.DisplayAmount,
		DisplayCurrency: quote.DisplayCurrency,
	}
}

// writeError maps domain errors onto HTTP statuses with the uniform
// error payload.
func writeError(c *gin.Context, err error) {
	var underpaid domainErrors.UnderpaymentError
	if errors.As(err, &underpaid) {
		c.JSON(http.StatusUnprocessableEntity, dto.ErrorResponse{
			Error:     "underpayment",
			Required:  underpaid.Required,
			Paid:      underpaid.Paid,
			Shortfall: underpaid.Shortfall,
		})
		return
	}
	var rejected domainErrors.ProviderRejectedError
	if errors.As(err, &rejected) {
		c.JSON(http.StatusUnprocessableEntity, dto.ErrorResponse{Error: rejected.Error()})
		return
	}
	var conflict domainErrors.ConcurrentModificationError
	if errors.As(err, &conflict) {
		c.JSON(http.StatusConflict, dto.ErrorResponse{Error: conflict.Error()})
		return
	}

	switch {
	case errors.Is(err, domainErrors.ErrNotFound):
		c.JSON(http.StatusNotFound, dto.ErrorResponse{Error: "not found"})
	case errors.Is(err, domainErrors.ErrInvalidAmount):
		c.JSON(http.StatusUnprocessableEntity, dto.ErrorResponse{Error: "invalid amount"})
	case errors.Is(err, domainErrors.ErrInvalidMethod):
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "unknown payment method"})
	case errors.Is(err, domainErrors.ErrProofRequired):
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "proof of payment required"})
	case errors.Is(err, domainErrors.ErrOrderExpired):
		c.JSON(http.StatusGone, dto.ErrorResponse{Error: "order expired"})
	case errors.Is(err, domainErrors.ErrInvalidTransition):
		c.JSON(http.StatusConflict, dto.ErrorResponse{Error: "status transition not allowed"})
	case errors.Is(err, domainErrors.ErrProviderUnavailable):
		c.JSON(http.StatusBadGateway, dto.ErrorResponse{Error: "payment provider unavailable"})
	default:
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "internal error"})
	}
}
