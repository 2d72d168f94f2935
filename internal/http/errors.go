package http

import (
	"context"
	"errors"
	"fmt"

	"shipments/internal/core"
	"shipments/internal/log"
)

var errTemplatesNotLoaded = errors.New("templates not loaded")

// storeErrorType classifies a failed store call for the error_type log field.
func storeErrorType(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return log.ErrorTypeTimeout
	}
	return log.ErrorTypeStorage
}

// validationMessage turns a validation error into text for the entry form.
func validationMessage(err error, policy core.QuantityPolicy) string {
	switch {
	case errors.Is(err, core.ErrInvalidDate):
		return "Choose a valid shipment date."
	case errors.Is(err, core.ErrEmptyStaff):
		return "Choose your name."
	case errors.Is(err, core.ErrEmptyVegetable):
		return "Choose a vegetable."
	case errors.Is(err, core.ErrInvalidQuantity), errors.Is(err, core.ErrNonPositiveQuantity):
		return "Please enter a quantity."
	case errors.Is(err, core.ErrQuantityPrecision):
		if policy.Places == 0 {
			return "Quantity must be a whole number."
		}
		return fmt.Sprintf("Quantity allows at most %d decimal places.", policy.Places)
	default:
		return "The entry is not valid."
	}
}
