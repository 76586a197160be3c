package usecase_test

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"testing"
	"time"

	domainErrors "github.com/mwangikib/coursepay/internal/domain/errors"
	"github.com/mwangikib/coursepay/internal/domain/model"
	"github.com/mwangikib/coursepay/internal/metrics"
	"github.com/mwangikib/coursepay/internal/pkg/fees"
	"github.com/mwangikib/coursepay/internal/pkg/signature"
	"github.com/mwangikib/coursepay/internal/usecase"
)

type webhookFixture struct {
	*reconcilerFixture
	webhooks *usecase.WebhookUseCase
}

func newWebhookFixture(verifiers map[string]signature.Verifier) *webhookFixture {
	return newWebhookFixtureWithValidator(verifiers, fees.NewValidator(0.01, 100))
}

func newWebhookFixtureWithValidator(verifiers map[string]signature.Verifier, validator *fees.Validator) *webhookFixture {
	f := newReconcilerFixture()
	if verifiers == nil {
		verifiers = map[string]signature.Verifier{
			usecase.ProviderMobileMoney: signature.AcceptAll{},
			usecase.ProviderCardWallet:  signature.AcceptAll{},
		}
	}
	webhooks := usecase.NewWebhookUseCase(f.orders, verifiers, validator, f.reconciler, metrics.NewSettlement(), testLogger())
	return &webhookFixture{reconcilerFixture: f, webhooks: webhooks}
}

func sign256(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func TestProcessRejectsBadSignature(t *testing.T) {
	f := newWebhookFixture(map[string]signature.Verifier{
		usecase.ProviderMobileMoney: signature.NewSHA256("topsecret"),
	})
	stored := f.orders.Seed(pendingOrder("CP-W-000001"))

	body := []byte(`{"reference":"` + stored.OrderID + `","status":"SUCCESS","event_id":"evt-1"}`)
	err := f.webhooks.Process(context.Background(), usecase.ProviderMobileMoney, body, "deadbeef")
	if !errors.Is(err, domainErrors.ErrSignature) {
		t.Fatalf("expected ErrSignature, got %v", err)
	}

	final, _ := f.orders.Snapshot(stored.ID)
	if final.Status != model.OrderStatusPending {
		t.Fatal("store must not change on signature failure")
	}
}

func TestProcessAcceptsSignedDelivery(t *testing.T) {
	f := newWebhookFixture(map[string]signature.Verifier{
		usecase.ProviderMobileMoney: signature.NewSHA256("topsecret"),
	})
	stored := f.orders.Seed(pendingOrder("CP-W-000002"))

	body := []byte(`{"reference":"` + stored.OrderID + `","status":"SUCCESS","event_id":"evt-1","amount":56.50}`)
	if err := f.webhooks.Process(context.Background(), usecase.ProviderMobileMoney, body, sign256("topsecret", body)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	final, _ := f.orders.Snapshot(stored.ID)
	if final.Status != model.OrderStatusCompleted {
		t.Fatalf("expected COMPLETED, got %s", final.Status)
	}
	if f.enrollments.Count() != 1 {
		t.Fatalf("expected one enrollment, got %d", f.enrollments.Count())
	}
}

func TestProcessUnknownProvider(t *testing.T) {
	f := newWebhookFixture(nil)
	err := f.webhooks.Process(context.Background(), "paypal", []byte(`{}`), "")
	if !errors.Is(err, domainErrors.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestProcessUnknownOrderIsAcknowledged(t *testing.T) {
	f := newWebhookFixture(nil)
	body := []byte(`{"reference":"CP-NOPE","transaction_id":"mm-0","status":"SUCCESS"}`)
	if err := f.webhooks.Process(context.Background(), usecase.ProviderMobileMoney, body, ""); err != nil {
		t.Fatalf("unknown order must be acknowledged, got %v", err)
	}
}

func TestProcessDuplicateEventSkipped(t *testing.T) {
	f := newWebhookFixture(nil)
	stored := f.orders.Seed(pendingOrder("CP-W-000003"))

	body := []byte(`{"reference":"` + stored.OrderID + `","status":"SUCCESS","event_id":"evt-7"}`)
	for i := 0; i < 3; i++ {
		if err := f.webhooks.Process(context.Background(), usecase.ProviderMobileMoney, body, ""); err != nil {
			t.Fatalf("delivery %d: unexpected error: %v", i, err)
		}
	}

	history, _ := f.orders.History(context.Background(), stored.ID)
	completions := 0
	for _, entry := range history {
		if entry.Status == model.OrderStatusCompleted {
			completions++
		}
	}
	if completions != 1 {
		t.Fatalf("expected one completion entry, got %d", completions)
	}
	if f.enrollments.Count() != 1 {
		t.Fatalf("expected one enrollment, got %d", f.enrollments.Count())
	}
}

func TestProcessUnderpaidSuccessFailsOrder(t *testing.T) {
	f := newWebhookFixture(nil)
	stored := f.orders.Seed(pendingOrder("CP-W-000004"))

	body := []byte(`{"reference":"` + stored.OrderID + `","status":"SUCCESS","event_id":"evt-1","amount":40}`)
	if err := f.webhooks.Process(context.Background(), usecase.ProviderMobileMoney, body, ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	final, _ := f.orders.Snapshot(stored.ID)
	if final.Status != model.OrderStatusFailed {
		t.Fatalf("underpaid settlement must fail, got %s", final.Status)
	}
	if f.enrollments.Count() != 0 {
		t.Fatal("underpaid settlement must not enroll")
	}
}

func TestProcessUnderpaymentUsesConfiguredTolerance(t *testing.T) {
	f := newWebhookFixtureWithValidator(nil, fees.NewValidator(1.00, 100))
	stored := f.orders.Seed(pendingOrder("CP-W-000009"))

	// 56.00 against 56.50 is inside the 1.00 tolerance and settles.
	body := []byte(`{"reference":"` + stored.OrderID + `","status":"SUCCESS","event_id":"evt-1","amount":56.00}`)
	if err := f.webhooks.Process(context.Background(), usecase.ProviderMobileMoney, body, ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	final, _ := f.orders.Snapshot(stored.ID)
	if final.Status != model.OrderStatusCompleted {
		t.Fatalf("shortfall within tolerance must settle, got %s", final.Status)
	}
	if f.enrollments.Count() != 1 {
		t.Fatalf("expected one enrollment, got %d", f.enrollments.Count())
	}
}

func TestProcessLateWebhookAfterExpiry(t *testing.T) {
	f := newWebhookFixture(nil)
	expired := pendingOrder("CP-W-000005")
	expired.Status = model.OrderStatusExpired
	stored := f.orders.Seed(expired)

	body := []byte(`{"reference":"` + stored.OrderID + `","status":"SUCCESS","event_id":"evt-1"}`)
	err := f.webhooks.Process(context.Background(), usecase.ProviderMobileMoney, body, "")
	if !errors.Is(err, domainErrors.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
	final, _ := f.orders.Snapshot(stored.ID)
	if final.Status != model.OrderStatusExpired {
		t.Fatalf("expired order must stay expired, got %s", final.Status)
	}
}

func TestProcessExpiresOverduePendingOrder(t *testing.T) {
	f := newWebhookFixture(nil)
	overdue := pendingOrder("CP-W-000008")
	overdue.ExpiresAt = time.Now().Add(-time.Minute)
	stored := f.orders.Seed(overdue)

	body := []byte(`{"reference":"` + stored.OrderID + `","status":"SUCCESS","event_id":"evt-1","amount":56.50}`)
	err := f.webhooks.Process(context.Background(), usecase.ProviderMobileMoney, body, "")
	if !errors.Is(err, domainErrors.ErrOrderExpired) {
		t.Fatalf("expected ErrOrderExpired, got %v", err)
	}

	final, _ := f.orders.Snapshot(stored.ID)
	if final.Status != model.OrderStatusExpired {
		t.Fatalf("expected EXPIRED, got %s", final.Status)
	}
	if f.enrollments.Count() != 0 {
		t.Fatal("an overdue success must not enroll")
	}
}

func TestProcessPendingAcknowledgement(t *testing.T) {
	f := newWebhookFixture(nil)
	stored := f.orders.Seed(pendingOrder("CP-W-000006"))

	body := []byte(`{"reference":"` + stored.OrderID + `","status":"PENDING","event_id":"evt-1"}`)
	if err := f.webhooks.Process(context.Background(), usecase.ProviderMobileMoney, body, ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	final, _ := f.orders.Snapshot(stored.ID)
	if final.Status != model.OrderStatusProcessing {
		t.Fatalf("expected PROCESSING, got %s", final.Status)
	}
}

func TestProcessCardWalletPayload(t *testing.T) {
	f := newWebhookFixture(nil)
	seeded := pendingOrder("CP-W-000007")
	seeded.Method = model.MethodCardWallet
	seeded.ProviderRef = "co-55"
	stored := f.orders.Seed(seeded)

	// Matched through the provider reference, not the order id.
	body := []byte(`{"event_id":"evt-2","data":{"order_ref":"co-55","status":"paid","amount":56.50}}`)
	if err := f.webhooks.Process(context.Background(), usecase.ProviderCardWallet, body, ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	final, _ := f.orders.Snapshot(stored.ID)
	if final.Status != model.OrderStatusCompleted {
		t.Fatalf("expected COMPLETED, got %s", final.Status)
	}
}
