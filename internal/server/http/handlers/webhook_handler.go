package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	domainErrors "github.com/mwangikib/coursepay/internal/domain/errors"
	"github.com/mwangikib/coursepay/internal/server/http/dto"
	"github.com/mwangikib/coursepay/internal/usecase"
)

// signatureHeaders maps each provider route to the header carrying its
// HMAC digest.
var signatureHeaders = map[string]string{
	usecase.ProviderMobileMoney: "X-Momo-Signature",
	usecase.ProviderCardWallet:  "X-Checkout-Signature",
}

// WebhookHandler ingests provider callbacks.
type WebhookHandler struct {
	facade WebhookFacade
}

// NewWebhookHandler constructs WebhookHandler.
func NewWebhookHandler(facade WebhookFacade) *WebhookHandler {
	return &WebhookHandler{facade: facade}
}

// Handle processes POST /api/webhooks/:provider. The raw body is passed
// through untouched so signature verification sees exactly the bytes
// the provider signed.
func (h *WebhookHandler) Handle(c *gin.Context) {
	providerName := c.Param("provider")

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "unreadable body"})
		return
	}

	header, ok := signatureHeaders[providerName]
	if !ok {
		c.JSON(http.StatusNotFound, dto.ErrorResponse{Error: "unknown provider"})
		return
	}

	err = h.facade.ProcessWebhook(c.Request.Context(), providerName, body, c.GetHeader(header))
	switch {
	case err == nil:
		c.Status(http.StatusOK)
	case errors.Is(err, domainErrors.ErrSignature):
		c.JSON(http.StatusUnauthorized, dto.ErrorResponse{Error: "signature mismatch"})
	case errors.Is(err, domainErrors.ErrNotFound):
		c.JSON(http.StatusNotFound, dto.ErrorResponse{Error: "unknown provider"})
	case errors.Is(err, domainErrors.ErrInvalidTransition), errors.Is(err, domainErrors.ErrOrderExpired):
		// The order is already terminal or just expired; acknowledging
		// stops redelivery.
		c.Status(http.StatusOK)
	default:
		// Includes lost CAS races: a 5xx makes the provider redeliver.
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "processing failed"})
	}
}
