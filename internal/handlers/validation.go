package handlers

import (
	"fmt"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// decimalOf unwraps the field under validation into a decimal.
func decimalOf(fl validator.FieldLevel) (decimal.Decimal, bool) {
	switch v := fl.Field().Interface().(type) {
	case decimal.Decimal:
		return v, true
	case *decimal.Decimal:
		if v == nil {
			return decimal.Decimal{}, false
		}
		return *v, true
	}
	return decimal.Decimal{}, false
}

func decimalPositive(fl validator.FieldLevel) bool {
	d, ok := decimalOf(fl)
	return ok && d.IsPositive()
}

func decimalNonNegative(fl validator.FieldLevel) bool {
	d, ok := decimalOf(fl)
	return ok && !d.IsNegative()
}

// RegisterValidators adds the decimal tags used by the request DTOs to gin's
// validator: dgt0 (strictly positive) and dgte0 (zero or more).
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return fmt.Errorf("unexpected validator engine %T", binding.Validator.Engine())
	}
	if err := v.RegisterValidation("dgt0", decimalPositive); err != nil {
		return fmt.Errorf("failed to register dgt0: %w", err)
	}
	if err := v.RegisterValidation("dgte0", decimalNonNegative); err != nil {
		return fmt.Errorf("failed to register dgte0: %w", err)
	}
	return nil
}
