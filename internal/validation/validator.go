package validation

import (
	validatorv10 "github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// New returns a configured validator with custom struct-level validation
// registered.
func New() *validatorv10.Validate {
	v := validatorv10.New()

	// checkout amounts are converted to integer minor units (x100), so a
	// sub-cent amount would silently truncate; reject it up front.
	v.RegisterStructValidation(checkoutSessionStructValidation, CreateCheckoutSessionRequest{})

	return v
}

func checkoutSessionStructValidation(sl validatorv10.StructLevel) {
	req := sl.Current().Interface().(CreateCheckoutSessionRequest)

	amount := decimal.NewFromFloat(req.Amount)
	if !amount.Shift(2).Equal(amount.Shift(2).Truncate(0)) {
		sl.ReportError(req.Amount, "amount", "Amount", "whole_minor_units", "amount has sub-cent precision")
	}
}
