// Package stock validates and clamps requested purchase quantities against
// the advisory stock count carried on each product.
package stock

import (
	"errors"
	"strconv"
	"strings"
)

var (
	// ErrOutOfStock means no valid quantity exists for the product; callers
	// must disable quantity mutation instead of clamping to a phantom value.
	ErrOutOfStock = errors.New("stock: product is out of stock")

	// ErrInvalidQuantity means the input could not be parsed as a positive
	// integer. The caller keeps its previous valid value.
	ErrInvalidQuantity = errors.New("stock: invalid quantity")
)

// Clamp forces a requested quantity into [1, available]. It returns
// ErrOutOfStock when available <= 0, since no quantity >= 1 exists.
func Clamp(requested, available int) (int, error) {
	if available <= 0 {
		return 0, ErrOutOfStock
	}
	if requested < 1 {
		requested = 1
	}
	if requested > available {
		requested = available
	}
	return requested, nil
}

// ParseQuantity parses raw user input into a non-negative integer quantity.
// Fractional, signed, exponent-style and non-numeric input is rejected with
// ErrInvalidQuantity so the caller can leave its prior value untouched.
func ParseQuantity(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.ContainsAny(raw, ".,-e E+") {
		return 0, ErrInvalidQuantity
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, ErrInvalidQuantity
	}
	return n, nil
}
