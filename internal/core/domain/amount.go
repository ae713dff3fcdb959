package domain

import (
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
)

// ParseAmount converts a user-provided decimal string into an integer amount
// expressed in the asset's smallest unit, given the asset's decimal scale.
// Non-positive, unparseable or over-precise values are rejected with
// ErrInvalidAmount before any collaborator is involved.
func ParseAmount(value string, decimals uint32) (*big.Int, error) {
	amount, err := decimal.NewFromString(value)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidAmount, value)
	}
	if amount.Sign() <= 0 {
		return nil, fmt.Errorf("%w: %s", ErrInvalidAmount, value)
	}
	scaled := amount.Shift(int32(decimals))
	if !scaled.IsInteger() {
		return nil, fmt.Errorf(
			"%w: %s has more than %d decimal places", ErrInvalidAmount, value, decimals,
		)
	}
	return scaled.BigInt(), nil
}

// ValidateAmount checks that a monetary string parses to a positive number,
// without knowing the asset's scale yet. It lets callers fail fast before
// reaching out to any collaborator.
func ValidateAmount(value string) error {
	amount, err := decimal.NewFromString(value)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidAmount, value)
	}
	if amount.Sign() <= 0 {
		return fmt.Errorf("%w: %s", ErrInvalidAmount, value)
	}
	return nil
}

// ParseBalance converts a balance string returned by the indexer into an
// integer in the asset's smallest unit. An empty string means no holding yet
// and parses to zero.
func ParseBalance(value string, decimals uint32) (*big.Int, error) {
	if value == "" {
		return big.NewInt(0), nil
	}
	balance, err := decimal.NewFromString(value)
	if err != nil {
		return nil, fmt.Errorf("invalid balance %s: %s", value, err)
	}
	return balance.Shift(int32(decimals)).BigInt(), nil
}
