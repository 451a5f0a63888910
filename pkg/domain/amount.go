package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// MinPointsExchange is the smallest points amount accepted by a points to token conversion.
var MinPointsExchange = decimal.NewFromInt(1000)

// ValidateAmount accepts non-negative whole amounts only.
func ValidateAmount(amount decimal.Decimal) error {
	if amount.IsNegative() {
		return fmt.Errorf("%w: %s is negative", ErrInvalidAmount, amount)
	}
	if !amount.Equal(amount.Truncate(0)) {
		return fmt.Errorf("%w: %s is not a whole amount", ErrInvalidAmount, amount)
	}
	return nil
}

// ValidateMultiplier accepts any non-negative decimal.
func ValidateMultiplier(m decimal.Decimal) error {
	if m.IsNegative() {
		return fmt.Errorf("%w: multiplier %s is negative", ErrInvalidAmount, m)
	}
	return nil
}
