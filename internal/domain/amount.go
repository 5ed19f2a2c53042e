package domain

import (
	"math/big"

	"github.com/shopspring/decimal"
)

// DisplayPrecision number of fractional digits amounts are shown with.
const DisplayPrecision = 18

// Amount scales a raw integer balance by 10^-decimals.
// Digits beyond DisplayPrecision are truncated toward zero.
func Amount(raw *big.Int, decimals uint8) decimal.Decimal {
	if raw == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(raw, -int32(decimals)).Truncate(DisplayPrecision)
}

// DisplaysAsZero reports whether the scaled amount is zero at display precision.
func DisplaysAsZero(raw *big.Int, decimals uint8) bool {
	return Amount(raw, decimals).IsZero()
}
