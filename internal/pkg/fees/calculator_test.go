package fees

import (
	"testing"

	"github.com/mwangikib/coursepay/internal/domain/model"
)

func testRates() Rates {
	return Rates{
		PlatformFeeRate:    0.10,
		CardFeeRate:        0.029,
		CardFixedFee:       0.30,
		MobileMoneyFeeRate: 0.03,
		ExchangeRate:       129.0,
		BaseCurrency:       "USD",
		DisplayCurrency:    "KES",
	}
}

func TestCalculatorQuoteMobileMoney(t *testing.T) {
	calc := NewCalculator(testRates())
	q := calc.Quote(50, model.MethodMobileMoney)

	if q.PlatformFee != 5.00 {
		t.Fatalf("platform fee: expected 5.00, got %.2f", q.PlatformFee)
	}
	if q.ProcessingFee != 1.50 {
		t.Fatalf("processing fee: expected 1.50, got %.2f", q.ProcessingFee)
	}
	if q.NetAmount != 43.50 {
		t.Fatalf("net amount: expected 43.50, got %.2f", q.NetAmount)
	}
	if q.TotalAmount != 56.50 {
		t.Fatalf("total amount: expected 56.50, got %.2f", q.TotalAmount)
	}
}

func TestCalculatorQuoteByMethod(t *testing.T) {
	calc := NewCalculator(testRates())

	tests := []struct {
		name       string
		method     model.PaymentMethod
		processing float64
		total      float64
	}{
		{"card wallet", model.MethodCardWallet, 3.20, 113.20},
		{"mobile money", model.MethodMobileMoney, 3.00, 113.00},
		{"bank transfer", model.MethodBankTransfer, 0, 110.00},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			q := calc.Quote(100, tc.method)
			if q.ProcessingFee != tc.processing {
				t.Fatalf("processing fee: expected %.2f, got %.2f", tc.processing, q.ProcessingFee)
			}
			if q.TotalAmount != tc.total {
				t.Fatalf("total: expected %.2f, got %.2f", tc.total, q.TotalAmount)
			}
			if q.PlatformFee != 10.00 {
				t.Fatalf("platform fee: expected 10.00, got %.2f", q.PlatformFee)
			}
		})
	}
}

func TestCalculatorQuoteDeterministic(t *testing.T) {
	calc := NewCalculator(testRates())
	first := calc.Quote(49.99, model.MethodCardWallet)
	second := calc.Quote(49.99, model.MethodCardWallet)
	if first != second {
		t.Fatalf("expected identical quotes, got %+v vs %+v", first, second)
	}
}

func TestCalculatorConvertRoundsToWholeUnits(t *testing.T) {
	calc := NewCalculator(testRates())
	if got := calc.Convert(56.50); got != 7289 {
		t.Fatalf("expected 7289, got %.2f", got)
	}
	if got := calc.Convert(0.004); got != 1 {
		t.Fatalf("expected 1, got %.2f", got)
	}
}

func TestRound2HalfAwayFromZero(t *testing.T) {
	if got := round2(2.375); got != 2.38 {
		t.Fatalf("expected 2.38, got %v", got)
	}
	if got := round2(-2.375); got != -2.38 {
		t.Fatalf("expected -2.38, got %v", got)
	}
}
