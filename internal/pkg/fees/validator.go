package fees

import "math"

// ResultType classifies an amount validation verdict.
type ResultType string

const (
	ResultValid       ResultType = "VALID"
	ResultInvalid     ResultType = "INVALID_AMOUNT"
	ResultUnderpaid   ResultType = "UNDERPAYMENT"
	ResultOverpaid    ResultType = "OVERPAYMENT_WARNING"
)

// Result reports whether a paid amount settles a required amount, with the
// exact shortfall or overpayment figures.
type Result struct {
	Type                 ResultType
	Valid                bool
	Required             float64
	Paid                 float64
	Shortfall            float64
	Overpayment          float64
	RequiresConfirmation bool
}

// Validator applies the amount acceptance policy. Excess above the
// overpayment threshold is accepted with a warning, never auto-refunded.
type Validator struct {
	tolerance            float64
	overpaymentThreshold float64
}

// NewValidator constructs Validator with the configured tolerance and
// overpayment threshold, both in base-currency units.
func NewValidator(tolerance, overpaymentThreshold float64) *Validator {
	return &Validator{tolerance: tolerance, overpaymentThreshold: overpaymentThreshold}
}

// Check validates paid against required. Pure and repeatable.
func (v *Validator) Check(required, paid float64) Result {
	if paid <= 0 || math.IsNaN(paid) || math.IsInf(paid, 0) {
		return Result{Type: ResultInvalid, Required: required, Paid: paid}
	}

	if shortfall := round2(required - paid); shortfall > v.tolerance {
		return Result{
			Type:      ResultUnderpaid,
			Required:  required,
			Paid:      paid,
			Shortfall: shortfall,
		}
	}

	overpayment := round2(paid - required)
	if overpayment < 0 {
		overpayment = 0
	}

	result := Result{
		Type:        ResultValid,
		Valid:       true,
		Required:    required,
		Paid:        paid,
		Overpayment: overpayment,
	}
	if overpayment > v.overpaymentThreshold {
		result.Type = ResultOverpaid
		result.RequiresConfirmation = true
	}
	return result
}
