package provider

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	domainErrors "github.com/mwangikib/coursepay/internal/domain/errors"
	"github.com/mwangikib/coursepay/internal/domain/model"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func momoOrder() *model.PaymentOrder {
	return &model.PaymentOrder{
		OrderID:     "CP-TEST-000001",
		Method:      model.MethodMobileMoney,
		Phone:       "+254700000001",
		Network:     "safari",
		TotalAmount: 56.50,
		Currency:    "USD",
	}
}

func TestMobileMoneyInitiateSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/push" || r.Method != http.MethodPost {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(`{"transaction_id":"mm-123","message":"prompt sent"}`))
	}))
	defer srv.Close()

	client, err := NewMobileMoneyClient(srv.URL, testLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	result, err := client.Initiate(context.Background(), momoOrder())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.ProviderRef != "mm-123" {
		t.Fatalf("unexpected provider ref %s", result.ProviderRef)
	}
}

func TestMobileMoneyInitiateRejectedIsTerminal(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"message":"insufficient funds"}`))
	}))
	defer srv.Close()

	client, err := NewMobileMoneyClient(srv.URL, testLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err = client.Initiate(context.Background(), momoOrder())
	var rejected domainErrors.ProviderRejectedError
	if !errors.As(err, &rejected) {
		t.Fatalf("expected rejection, got %v", err)
	}
	if rejected.Reason != "insufficient funds" {
		t.Fatalf("unexpected reason %q", rejected.Reason)
	}
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Fatalf("rejection must not be retried, got %d calls", got)
	}
}

func TestMobileMoneyInitiateRetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"transaction_id":"mm-retry"}`))
	}))
	defer srv.Close()

	client, err := NewMobileMoneyClient(srv.URL, testLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	client.backoff = time.Millisecond

	result, err := client.Initiate(context.Background(), momoOrder())
	if err != nil {
		t.Fatalf("expected retry to succeed, got %v", err)
	}
	if result.ProviderRef != "mm-retry" {
		t.Fatalf("unexpected provider ref %s", result.ProviderRef)
	}
	if got := atomic.LoadInt32(&calls); got != 3 {
		t.Fatalf("expected 3 attempts, got %d", got)
	}
}

func TestMobileMoneyInitiateRequiresPhone(t *testing.T) {
	client, err := NewMobileMoneyClient("http://momo.local", testLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	order := momoOrder()
	order.Phone = ""
	if _, err := client.Initiate(context.Background(), order); err == nil {
		t.Fatal("expected error for missing phone")
	}
}

func TestMobileMoneyVerifyStatusMapping(t *testing.T) {
	tests := []struct {
		provider string
		want     Status
	}{
		{"SUCCESS", StatusSuccess},
		{"SUCCESSFUL", StatusSuccess},
		{"FAILED", StatusFailed},
		{"CANCELLED", StatusFailed},
		{"PENDING", StatusPending},
		{"SOMETHING_ELSE", StatusPending},
	}
	for _, tc := range tests {
		t.Run(tc.provider, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"status":"` + tc.provider + `"}`))
			}))
			defer srv.Close()

			client, err := NewMobileMoneyClient(srv.URL, testLogger())
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			got, err := client.Verify(context.Background(), "mm-123")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("expected %s, got %s", tc.want, got)
			}
		})
	}
}

func TestMobileMoneyVerifyServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client, err := NewMobileMoneyClient(srv.URL, testLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := client.Verify(context.Background(), "mm-123"); !errors.Is(err, domainErrors.ErrProviderUnavailable) {
		t.Fatalf("expected provider unavailable, got %v", err)
	}
}
