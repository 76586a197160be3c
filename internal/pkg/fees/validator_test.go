package fees

import (
	"math"
	"testing"
)

func TestValidatorCheck(t *testing.T) {
	v := NewValidator(0.01, 100)

	tests := []struct {
		name        string
		required    float64
		paid        float64
		wantType    ResultType
		wantValid   bool
		shortfall   float64
		overpayment float64
		confirm     bool
	}{
		{"exact", 56.50, 56.50, ResultValid, true, 0, 0, false},
		{"within tolerance", 56.50, 56.49, ResultValid, true, 0, 0, false},
		{"underpaid", 56.50, 50.00, ResultUnderpaid, false, 6.50, 0, false},
		{"just below tolerance boundary", 56.50, 56.48, ResultUnderpaid, false, 0.02, 0, false},
		{"small overpayment", 56.50, 60.00, ResultValid, true, 0, 3.50, false},
		{"overpayment at threshold", 56.50, 156.50, ResultValid, true, 0, 100, false},
		{"overpayment above threshold", 56.50, 200.00, ResultOverpaid, true, 0, 143.50, true},
		{"zero paid", 56.50, 0, ResultInvalid, false, 0, 0, false},
		{"negative paid", 56.50, -5, ResultInvalid, false, 0, 0, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := v.Check(tc.required, tc.paid)
			if got.Type != tc.wantType {
				t.Fatalf("type: expected %s, got %s", tc.wantType, got.Type)
			}
			if got.Valid != tc.wantValid {
				t.Fatalf("valid: expected %v, got %v", tc.wantValid, got.Valid)
			}
			if got.Shortfall != tc.shortfall {
				t.Fatalf("shortfall: expected %.2f, got %.2f", tc.shortfall, got.Shortfall)
			}
			if got.Overpayment != tc.overpayment {
				t.Fatalf("overpayment: expected %.2f, got %.2f", tc.overpayment, got.Overpayment)
			}
			if got.RequiresConfirmation != tc.confirm {
				t.Fatalf("requiresConfirmation: expected %v, got %v", tc.confirm, got.RequiresConfirmation)
			}
		})
	}
}

func TestValidatorRejectsNonFiniteAmounts(t *testing.T) {
	v := NewValidator(0.01, 100)
	for _, paid := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		if got := v.Check(56.50, paid); got.Type != ResultInvalid {
			t.Fatalf("expected invalid for %v, got %s", paid, got.Type)
		}
	}
}

func TestValidatorShortfallIsExact(t *testing.T) {
	v := NewValidator(0.01, 100)
	got := v.Check(113.20, 99.99)
	if got.Shortfall != 13.21 {
		t.Fatalf("expected shortfall 13.21, got %v", got.Shortfall)
	}
}
