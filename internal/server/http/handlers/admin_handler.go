package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mwangikib/coursepay/internal/domain/model"
	"github.com/mwangikib/coursepay/internal/server/http/dto"
)

// AdminHandler covers manual review and refunds.
type AdminHandler struct {
	facade AdminFacade
}

// NewAdminHandler constructs AdminHandler.
func NewAdminHandler(facade AdminFacade) *AdminHandler {
	return &AdminHandler{facade: facade}
}

// Approve handles POST /api/admin/payments/:orderID/approve.
func (h *AdminHandler) Approve(c *gin.Context) {
	h.act(c, h.facade.ApprovePayment)
}

// Reject handles POST /api/admin/payments/:orderID/reject.
func (h *AdminHandler) Reject(c *gin.Context) {
	h.act(c, h.facade.RejectPayment)
}

// Refund handles POST /api/admin/payments/:orderID/refund.
func (h *AdminHandler) Refund(c *gin.Context) {
	h.act(c, h.facade.RefundPayment)
}

func (h *AdminHandler) act(c *gin.Context, action func(ctx context.Context, orderID, reason string) (*model.PaymentOrder, error)) {
	var req dto.AdminActionRequest
	// The body is optional; a missing reason falls back to a default.
	_ = c.ShouldBindJSON(&req)

	order, err := action(c.Request.Context(), c.Param("orderID"), req.Reason)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toOrderResponse(order, ""))
}
