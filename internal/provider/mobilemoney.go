package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"time"

	"github.com/google/uuid"

	domainErrors "github.com/mwangikib/coursepay/internal/domain/errors"
	"github.com/mwangikib/coursepay/internal/domain/model"
)

// MobileMoneyClient drives an STK-push style mobile money API: initiate
// sends a payment prompt to the subscriber's phone, verify polls the
// resulting transaction.
type MobileMoneyClient struct {
	baseURL    *url.URL
	httpClient *http.Client
	logger     *slog.Logger
	attempts   int
	backoff    time.Duration
}

type momoPushRequest struct {
	Reference string  `json:"reference"`
	Phone     string  `json:"phone"`
	Network   string  `json:"network"`
	Amount    float64 `json:"amount"`
	Currency  string  `json:"currency"`
}

type momoPushResponse struct {
	TransactionID string `json:"transaction_id"`
	Message       string `json:"message"`
}

type momoStatusResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// NewMobileMoneyClient creates a mobile money adapter with a bounded
// request timeout.
func NewMobileMoneyClient(baseURL string, logger *slog.Logger) (*MobileMoneyClient, error) {
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse mobile money url: %w", err)
	}
	if !parsed.IsAbs() {
		return nil, fmt.Errorf("mobile money url must be absolute")
	}
	return &MobileMoneyClient{
		baseURL:  parsed,
		logger:   logger,
		attempts: defaultAttempts,
		backoff:  defaultBackoff,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}, nil
}

func (c *MobileMoneyClient) Name() string {
	return "mobile_money"
}

// Initiate requests a payment push to the order's phone number.
func (c *MobileMoneyClient) Initiate(ctx context.Context, order *model.PaymentOrder) (*InitiateResult, error) {
	if order.Phone == "" {
		return nil, fmt.Errorf("mobile money order %s has no phone number", order.OrderID)
	}

	payload, err := json.Marshal(momoPushRequest{
		Reference: order.OrderID,
		Phone:     order.Phone,
		Network:   order.Network,
		Amount:    order.TotalAmount,
		Currency:  order.Currency,
	})
	if err != nil {
		return nil, err
	}

	var result *InitiateResult
	err = withRetry(ctx, c.attempts, c.backoff, func() error {
		endpoint := *c.baseURL
		endpoint.Path = path.Join(endpoint.Path, "/v1/push")

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint.String(), bytes.NewReader(payload))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("%w: %v", domainErrors.ErrProviderUnavailable, err)
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}

		switch {
		case resp.StatusCode < http.StatusMultipleChoices:
			var data momoPushResponse
			if err := json.Unmarshal(body, &data); err != nil {
				return err
			}
			ref := data.TransactionID
			if ref == "" {
				ref = uuid.NewString()
			}
			result = &InitiateResult{
				ProviderRef:  ref,
				ActionTarget: "payment prompt sent to " + order.Phone,
			}
			return nil
		case resp.StatusCode < http.StatusInternalServerError:
			return domainErrors.ProviderRejectedError{Provider: c.Name(), Reason: rejectionReason(body)}
		default:
			c.logger.Error("mobile money push failed", slog.Int("status", resp.StatusCode), slog.String("body", string(body)))
			return fmt.Errorf("%w: %s", domainErrors.ErrProviderUnavailable, resp.Status)
		}
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Verify polls the provider for the transaction's current status.
func (c *MobileMoneyClient) Verify(ctx context.Context, providerRef string) (Status, error) {
	endpoint := *c.baseURL
	endpoint.Path = path.Join(endpoint.Path, "/v1/transactions/", providerRef)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return StatusPending, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return StatusPending, fmt.Errorf("%w: %v", domainErrors.ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		c.logger.Error("mobile money status failed", slog.Int("status", resp.StatusCode), slog.String("body", string(body)))
		return StatusPending, fmt.Errorf("%w: %s", domainErrors.ErrProviderUnavailable, resp.Status)
	}

	var data momoStatusResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return StatusPending, err
	}

	switch data.Status {
	case "SUCCESS", "SUCCESSFUL":
		return StatusSuccess, nil
	case "FAILED", "CANCELLED":
		return StatusFailed, nil
	default:
		return StatusPending, nil
	}
}

func rejectionReason(body []byte) string {
	var data struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &data); err == nil {
		if data.Message != "" {
			return data.Message
		}
		if data.Error != "" {
			return data.Error
		}
	}
	return "request rejected"
}
