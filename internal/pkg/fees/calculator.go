package fees

import (
	"math"

	"github.com/mwangikib/coursepay/internal/domain/model"
)

// Rates holds the configured fee and conversion constants. The exchange
// rate is fixed configuration, never fetched live.
type Rates struct {
	PlatformFeeRate    float64
	CardFeeRate        float64
	CardFixedFee       float64
	MobileMoneyFeeRate float64
	ExchangeRate       float64
	BaseCurrency       string
	DisplayCurrency    string
}

// Quote is the full cost breakdown for one course purchase.
type Quote struct {
	BasePrice       float64
	PlatformFee     float64
	ProcessingFee   float64
	NetAmount       float64
	TotalAmount     float64
	Currency        string
	DisplayAmount   float64
	DisplayCurrency string
}

// Calculator derives fees and currency conversions. Pure: no I/O, and
// identical input always yields identical output.
type Calculator struct {
	rates Rates
}

// NewCalculator constructs Calculator with the given rates.
func NewCalculator(rates Rates) *Calculator {
	return &Calculator{rates: rates}
}

// Quote computes the fee breakdown for a base price and payment method.
// The net amount is what the platform settles to the course owner; the
// total amount is what the buyer must pay.
func (c *Calculator) Quote(basePrice float64, method model.PaymentMethod) Quote {
	platformFee := round2(basePrice * c.rates.PlatformFeeRate)

	var processingFee float64
	switch method {
	case model.MethodCardWallet:
		processingFee = round2(basePrice*c.rates.CardFeeRate + c.rates.CardFixedFee)
	case model.MethodMobileMoney:
		processingFee = round2(basePrice * c.rates.MobileMoneyFeeRate)
	case model.MethodBankTransfer:
		processingFee = 0
	}

	total := round2(basePrice + platformFee + processingFee)

	return Quote{
		BasePrice:       basePrice,
		PlatformFee:     platformFee,
		ProcessingFee:   processingFee,
		NetAmount:       round2(basePrice - platformFee - processingFee),
		TotalAmount:     total,
		Currency:        c.rates.BaseCurrency,
		DisplayAmount:   c.Convert(total),
		DisplayCurrency: c.rates.DisplayCurrency,
	}
}

// Convert translates a base-currency amount into the display currency,
// rounded to the nearest whole unit.
func (c *Calculator) Convert(amount float64) float64 {
	return math.Round(amount * c.rates.ExchangeRate)
}

// round2 rounds to two decimals, half away from zero.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
