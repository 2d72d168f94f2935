package core

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// QuantityPolicy describes which quantities are accepted and how they are shown.
type QuantityPolicy struct {
	Name   string
	Places int32 // maximum decimal places accepted
	Unit   string
}

var (
	// FractionalPolicy accepts weights in kilograms.
	FractionalPolicy = QuantityPolicy{Name: "fractional", Places: 2, Unit: "kg"}
	// IntegerPolicy accepts whole counts only.
	IntegerPolicy = QuantityPolicy{Name: "integer", Places: 0}
)

// PolicyByName resolves a configured policy name.
func PolicyByName(name string) (QuantityPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", FractionalPolicy.Name:
		return FractionalPolicy, nil
	case IntegerPolicy.Name:
		return IntegerPolicy, nil
	default:
		return QuantityPolicy{}, fmt.Errorf("unknown quantity policy %q", name)
	}
}

// Validate requires q > 0 and at most Places decimal digits.
func (p QuantityPolicy) Validate(q decimal.Decimal) error {
	if !q.IsPositive() {
		return ErrNonPositiveQuantity
	}
	if !q.Equal(q.Truncate(p.Places)) {
		return ErrQuantityPrecision
	}
	return nil
}

// Step is the finest quantity the policy accepts, e.g. 0.01 for two places.
func (p QuantityPolicy) Step() decimal.Decimal {
	return decimal.New(1, -p.Places)
}

// Format renders q with the policy unit, e.g. "12.5 kg".
func (p QuantityPolicy) Format(q decimal.Decimal) string {
	s := q.Round(p.Places).String()
	if p.Unit == "" {
		return s
	}
	return s + " " + p.Unit
}

// ParseQuantity parses user input, accepting both "1.5" and "1,5".
func ParseQuantity(s string, p QuantityPolicy) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrInvalidQuantity
	}
	s = strings.ReplaceAll(s, ",", ".")
	q, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidQuantity, s)
	}
	if err := p.Validate(q); err != nil {
		return decimal.Zero, err
	}
	return q, nil
}
