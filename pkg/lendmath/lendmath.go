// Package lendmath holds the fixed-point helpers used to size loans.
// Amounts are integers scaled by token decimals; prices are decimals. No float64 anywhere.
package lendmath

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

// BorrowSafetyFactor is the share of the available borrowing power that gets borrowed.
var BorrowSafetyFactor = decimal.RequireFromString("0.95")

var (
	ErrNonPositivePrice = errors.New("lendmath: price must be positive")
	ErrNegativeAmount   = errors.New("lendmath: amount must not be negative")
)

// ParseUnits converts a human amount ("0.02") to its integer representation at the given decimals.
// Digits beyond the precision are rejected rather than rounded.
func ParseUnits(s string, decimals int32) (*big.Int, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return nil, fmt.Errorf("lendmath: invalid amount %q: %w", s, err)
	}
	if d.IsNegative() {
		return nil, ErrNegativeAmount
	}
	scaled := d.Shift(decimals)
	if !scaled.Equal(scaled.Truncate(0)) {
		return nil, fmt.Errorf("lendmath: %q has more than %d decimals", s, decimals)
	}
	return scaled.BigInt(), nil
}

// FormatUnits renders an integer amount as a decimal string.
func FormatUnits(v *big.Int, decimals int32) string {
	if v == nil {
		return "0"
	}
	return decimal.NewFromBigInt(v, -decimals).String()
}

// ScaleAnswer turns a raw oracle answer into a price.
func ScaleAnswer(answer *big.Int, decimals int32) decimal.Decimal {
	if answer == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(answer, -decimals)
}

// BorrowAmount returns floor(available * 10^(target-base) * BorrowSafetyFactor / price),
// i.e. how many target-asset base units to borrow given the available borrowing power
// (in the collateral base unit) and the target/base price.
//
// The safety factor multiplication is the only step that discards precision; the
// division is floored so the result never exceeds the exact value.
func BorrowAmount(availableBase *big.Int, price decimal.Decimal, baseDecimals, targetDecimals int32) (*big.Int, error) {
	if !price.IsPositive() {
		return nil, ErrNonPositivePrice
	}
	if availableBase == nil || availableBase.Sign() < 0 {
		return nil, ErrNegativeAmount
	}
	available := decimal.NewFromBigInt(availableBase, targetDecimals-baseDecimals)
	capped := available.Mul(BorrowSafetyFactor)
	q, _ := capped.QuoRem(price, 0)
	return q.BigInt(), nil
}
