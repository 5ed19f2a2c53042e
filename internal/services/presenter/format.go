package presenter

import (
	"math/big"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/Hattyot/BalanceSnapshotter/internal/domain"
)

// FormatAmount renders a raw balance scaled by 10^-decimals with
// 18 fractional digits and thousands separators, e.g. "1,234.500000000000000000".
func FormatAmount(raw *big.Int, decimals uint8) string {
	amount := domain.Amount(raw, decimals)

	sign := ""
	if amount.IsNegative() {
		sign = "-"
		amount = amount.Neg()
	}

	intPart, frac, _ := strings.Cut(amount.StringFixed(domain.DisplayPrecision), ".")
	whole, ok := new(big.Int).SetString(intPart, 10)
	if !ok {
		whole = new(big.Int)
	}

	return sign + humanize.BigComma(whole) + "." + frac
}

// FormatDelta is FormatAmount with an explicit plus sign on increases.
func FormatDelta(raw *big.Int, decimals uint8) string {
	s := FormatAmount(raw, decimals)
	if !strings.HasPrefix(s, "-") && !domain.DisplaysAsZero(raw, decimals) {
		return "+" + s
	}
	return s
}
