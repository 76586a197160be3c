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

	domainErrors "github.com/mwangikib/coursepay/internal/domain/errors"
	"github.com/mwangikib/coursepay/internal/domain/model"
)

// CardWalletClient drives a hosted-checkout card/wallet API: initiate
// creates a checkout order and returns its URL, verify polls the order.
type CardWalletClient struct {
	baseURL    *url.URL
	httpClient *http.Client
	logger     *slog.Logger
	attempts   int
	backoff    time.Duration
}

type checkoutRequest struct {
	Reference string  `json:"reference"`
	Amount    float64 `json:"amount"`
	Currency  string  `json:"currency"`
}

type checkoutResponse struct {
	Data struct {
		OrderRef    string `json:"order_ref"`
		CheckoutURL string `json:"checkout_url"`
	} `json:"data"`
	Message string `json:"message"`
}

type checkoutStatusResponse struct {
	Data struct {
		Status string `json:"status"`
	} `json:"data"`
}

// NewCardWalletClient creates a card/wallet adapter with a bounded request
// timeout.
func NewCardWalletClient(baseURL string, logger *slog.Logger) (*CardWalletClient, error) {
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse card wallet url: %w", err)
	}
	if !parsed.IsAbs() {
		return nil, fmt.Errorf("card wallet url must be absolute")
	}
	return &CardWalletClient{
		baseURL:  parsed,
		logger:   logger,
		attempts: defaultAttempts,
		backoff:  defaultBackoff,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}, nil
}

func (c *CardWalletClient) Name() string {
	return "card_wallet"
}

// Initiate opens a hosted checkout order for the payment.
func (c *CardWalletClient) Initiate(ctx context.Context, order *model.PaymentOrder) (*InitiateResult, error) {
	payload, err := json.Marshal(checkoutRequest{
		Reference: order.OrderID,
		Amount:    order.TotalAmount,
		Currency:  order.Currency,
	})
	if err != nil {
		return nil, err
	}

	var result *InitiateResult
	err = withRetry(ctx, c.attempts, c.backoff, func() error {
		endpoint := *c.baseURL
		endpoint.Path = path.Join(endpoint.Path, "/v1/checkout")

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
			var data checkoutResponse
			if err := json.Unmarshal(body, &data); err != nil {
				return err
			}
			if data.Data.OrderRef == "" {
				return fmt.Errorf("checkout response missing order reference")
			}
			result = &InitiateResult{
				ProviderRef:  data.Data.OrderRef,
				ActionTarget: data.Data.CheckoutURL,
			}
			return nil
		case resp.StatusCode < http.StatusInternalServerError:
			return domainErrors.ProviderRejectedError{Provider: c.Name(), Reason: rejectionReason(body)}
		default:
			c.logger.Error("checkout create failed", slog.Int("status", resp.StatusCode), slog.String("body", string(body)))
			return fmt.Errorf("%w: %s", domainErrors.ErrProviderUnavailable, resp.Status)
		}
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Verify polls the checkout order for its current status.
func (c *CardWalletClient) Verify(ctx context.Context, providerRef string) (Status, error) {
	endpoint := *c.baseURL
	endpoint.Path = path.Join(endpoint.Path, "/v1/orders/", providerRef)

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
		c.logger.Error("checkout status failed", slog.Int("status", resp.StatusCode), slog.String("body", string(body)))
		return StatusPending, fmt.Errorf("%w: %s", domainErrors.ErrProviderUnavailable, resp.Status)
	}

	var data checkoutStatusResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return StatusPending, err
	}

	switch data.Data.Status {
	case "paid", "success":
		return StatusSuccess, nil
	case "failed", "cancelled", "abandoned":
		return StatusFailed, nil
	default:
		return StatusPending, nil
	}
}
