package viewModel

import (
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

// FormatBasisPoints renders a basis point value as a percentage with two decimals.
func FormatBasisPoints(bps *big.Int) string {
	if bps == nil {
		return "0.00"
	}
	return decimal.NewFromBigInt(bps, -2).StringFixed(2)
}

func pow10(decimals int) *big.Int {
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
}

// FormatTokenAmount scales amount by 10^decimals and renders the whole part with
// thousands separators followed by exactly two truncated fractional digits.
func FormatTokenAmount(amount *big.Int, decimals int) string {
	if amount == nil || amount.Sign() == 0 {
		return "0.00"
	}
	if decimals < 0 {
		decimals = 0
	}
	whole, remainder := new(big.Int).QuoRem(amount, pow10(decimals), new(big.Int))

	frac := remainder.Abs(remainder).String()
	if len(frac) < decimals {
		frac = strings.Repeat("0", decimals-len(frac)) + frac
	}
	if len(frac) > 2 {
		frac = frac[:2]
	}
	for len(frac) < 2 {
		frac += "0"
	}

	sign := ""
	if amount.Sign() < 0 && whole.Sign() == 0 {
		sign = "-"
	}
	return fmt.Sprintf("%s%s.%s", sign, humanize.BigComma(whole), frac)
}

var compactSuffixes = []struct {
	threshold decimal.Decimal
	suffix    string
}{
	{decimal.New(1, 9), "B"},
	{decimal.New(1, 6), "M"},
	{decimal.New(1, 3), "K"},
}

// FormatCompact renders amount as a dollar value with a B/M/K suffix chosen by magnitude.
func FormatCompact(amount *big.Int, decimals int) string {
	if amount == nil || amount.Sign() == 0 {
		return "$0"
	}
	value := decimal.NewFromBigInt(amount, int32(-decimals))
	for _, s := range compactSuffixes {
		if value.GreaterThanOrEqual(s.threshold) {
			return fmt.Sprintf("$%s%s", value.Div(s.threshold).StringFixed(2), s.suffix)
		}
	}
	return fmt.Sprintf("$%s", value.StringFixed(2))
}

// FormatRelativeUnix formats the time elapsed since a unix timestamp in seconds.
func FormatRelativeUnix(seconds int64, now time.Time) string {
	return formatElapsed(now.Unix() - seconds)
}

// FormatRelativeTime formats the time elapsed since t.
func FormatRelativeTime(t time.Time, now time.Time) string {
	return formatElapsed(int64(now.Sub(t) / time.Second))
}

func formatElapsed(diff int64) string {
	if diff < 0 {
		diff = 0
	}
	switch {
	case diff < 60:
		return fmt.Sprintf("%ds ago", diff)
	case diff < 3600:
		return fmt.Sprintf("%dm ago", diff/60)
	case diff < 86400:
		return fmt.Sprintf("%dh ago", diff/3600)
	default:
		return fmt.Sprintf("%dd ago", diff/86400)
	}
}

// ShortenAddress renders 0x1234...abcd.
func ShortenAddress(address common.Address) string {
	hex := address.Hex()
	return hex[:6] + "..." + hex[len(hex)-4:]
}

func ShortenHash(hash common.Hash) string {
	hex := hash.Hex()
	return hex[:10] + "..." + hex[len(hex)-8:]
}
