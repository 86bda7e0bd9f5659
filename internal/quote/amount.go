package quote

import (
	"math/big"
	"strings"

	"swapDesk/internal/swaperr"
)

// DisplayDecimals is the number of fractional digits FormatTokenAmount keeps.
const DisplayDecimals = 6

// ParseTokenAmount converts a human decimal string into base units.
// Empty, signed, malformed or over-precise input fails with ParseError.
func ParseTokenAmount(s string, decimals uint8) (*big.Int, error) {
	text := strings.TrimSpace(s)
	if text == "" {
		return nil, swaperr.New(swaperr.KindParse, "empty amount")
	}
	whole, frac, hasDot := strings.Cut(text, ".")
	if hasDot && strings.Contains(frac, ".") {
		return nil, swaperr.New(swaperr.KindParse, "malformed amount "+text)
	}
	if whole == "" && frac == "" {
		return nil, swaperr.New(swaperr.KindParse, "malformed amount "+text)
	}
	if !isDigits(whole) || !isDigits(frac) {
		return nil, swaperr.New(swaperr.KindParse, "malformed amount "+text)
	}
	if len(frac) > int(decimals) {
		return nil, swaperr.New(swaperr.KindParse, "too many decimal places in "+text)
	}

	digits := whole + frac + strings.Repeat("0", int(decimals)-len(frac))
	digits = strings.TrimLeft(digits, "0")
	if digits == "" {
		return big.NewInt(0), nil
	}
	value, ok := new(big.Int).SetString(digits, 10)
	if !ok {
		return nil, swaperr.New(swaperr.KindParse, "malformed amount "+text)
	}
	return value, nil
}

// FormatTokenAmount renders base units as a decimal string. The fractional
// part is truncated to DisplayDecimals digits and trailing zeros are trimmed,
// so formatting is lossy for tokens with more than six decimals.
func FormatTokenAmount(value *big.Int, decimals uint8) string {
	if value == nil {
		return "0"
	}
	if decimals == 0 {
		return value.String()
	}
	sign := value.Sign()
	abs := new(big.Int).Abs(value)
	denom := pow10(decimals)
	whole, rem := new(big.Int).QuoRem(abs, denom, new(big.Int))

	frac := rem.String()
	frac = strings.Repeat("0", int(decimals)-len(frac)) + frac
	if len(frac) > DisplayDecimals {
		frac = frac[:DisplayDecimals]
	}
	frac = strings.TrimRight(frac, "0")

	text := whole.String()
	if frac != "" {
		text += "." + frac
	}
	if sign < 0 && text != "0" {
		return "-" + text
	}
	return text
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func pow10(n uint8) *big.Int {
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(n)), nil)
}

func toHuman(value *big.Int, decimals uint8) *big.Rat {
	if value == nil {
		return new(big.Rat)
	}
	return new(big.Rat).SetFrac(value, pow10(decimals))
}
