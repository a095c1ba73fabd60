// Package currencyutils provides locale-aware decimal parsing, exact rate
// expressions and currency code helpers.
package currencyutils

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// PricePrecision is the number of decimal places kept when a quotient cannot be
// represented exactly (rates such as 1000/559). Every division in the pipeline
// rounds once, at this precision, so equal rationals yield equal decimals.
const PricePrecision int32 = 28

// NumberFormat describes the thousands and decimal symbols of a source file.
type NumberFormat struct {
	Thousands string
	Decimal   string
}

// DefaultNumberFormat matches a German-localised GnuCash export ("10.000,00").
var DefaultNumberFormat = NumberFormat{Thousands: ".", Decimal: ","}

var (
	currencyCodeRegex = regexp.MustCompile(`^(?:[A-Z][A-Z0-9'._-]{0,22}[A-Z0-9]|[A-Z])$`)
	mixedFractionRe   = regexp.MustCompile(`^([+-]?[^/+]*?[0-9])\s*([+-])\s*([0-9]+)\s*/\s*([0-9]+)$`)
	fractionRe        = regexp.MustCompile(`^([+-]?[0-9]+)\s*/\s*([0-9]+)$`)
	spaceRe           = regexp.MustCompile(`[\s\x{00A0}\x{202F}]+`)
)

// Standardize removes thousands separators and whitespace and turns the decimal
// symbol into a dot, leaving a string decimal.NewFromString understands.
func (f NumberFormat) Standardize(s string) string {
	s = spaceRe.ReplaceAllString(s, "")
	if thousands := spaceRe.ReplaceAllString(f.Thousands, ""); thousands != "" && thousands != f.Decimal {
		s = strings.ReplaceAll(s, thousands, "")
	}
	if f.Decimal != "" && f.Decimal != "." {
		s = strings.ReplaceAll(s, f.Decimal, ".")
	}
	return s
}

// ParseAmount parses a locale-formatted number such as "-1.000,00" into an exact decimal.
// The scale of the input is preserved ("120,00" keeps two places).
func ParseAmount(amountStr string, f NumberFormat) (decimal.Decimal, error) {
	if strings.TrimSpace(amountStr) == "" {
		return decimal.Zero, fmt.Errorf("empty amount")
	}
	amount, err := decimal.NewFromString(f.Standardize(amountStr))
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to parse amount '%s': %w", amountStr, err)
	}
	return amount, nil
}

// ParseRate parses an exchange rate given either as a plain number ("1,0000")
// or as a fraction expression ("1 + 441/559", "441/559", "2 - 1/3").
// Fractions are evaluated as one exact quotient (a*c ± b)/c and rounded once.
func ParseRate(rateStr string, f NumberFormat) (decimal.Decimal, error) {
	s := strings.TrimSpace(rateStr)
	if s == "" {
		return decimal.Zero, fmt.Errorf("empty rate")
	}

	if m := mixedFractionRe.FindStringSubmatch(s); m != nil {
		whole, err := ParseAmount(m[1], f)
		if err != nil {
			return decimal.Zero, fmt.Errorf("invalid rate '%s': %w", rateStr, err)
		}
		num, den, err := fractionParts(m[3], m[4])
		if err != nil {
			return decimal.Zero, fmt.Errorf("invalid rate '%s': %w", rateStr, err)
		}
		if m[2] == "-" {
			num = num.Neg()
		}
		return Quotient(whole.Mul(den).Add(num), den), nil
	}

	if m := fractionRe.FindStringSubmatch(s); m != nil {
		num, den, err := fractionParts(m[1], m[2])
		if err != nil {
			return decimal.Zero, fmt.Errorf("invalid rate '%s': %w", rateStr, err)
		}
		return Quotient(num, den), nil
	}

	rate, err := ParseAmount(s, f)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid rate '%s': %w", rateStr, err)
	}
	return rate, nil
}

func fractionParts(numStr, denStr string) (decimal.Decimal, decimal.Decimal, error) {
	num, err := decimal.NewFromString(numStr)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	den, err := decimal.NewFromString(denStr)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	if den.IsZero() {
		return decimal.Zero, decimal.Zero, fmt.Errorf("division by zero")
	}
	return num, den, nil
}

// Quotient divides num by den at PricePrecision. An exact result keeps its
// natural scale (120/120 is "1", 50/25 is "2").
func Quotient(num, den decimal.Decimal) decimal.Decimal {
	q := num.DivRound(den, PricePrecision)
	if q.Mul(den).Equal(num) {
		return trimZeros(q)
	}
	return q
}

func trimZeros(d decimal.Decimal) decimal.Decimal {
	trimmed, err := decimal.NewFromString(d.String())
	if err != nil {
		return d
	}
	return trimmed
}

// FormatNumber renders d at its own scale, so "1000.00" keeps its zeros.
func FormatNumber(d decimal.Decimal) string {
	if exp := d.Exponent(); exp < 0 {
		return d.StringFixed(-exp)
	}
	return d.String()
}

// StripQualifier reduces a namespaced commodity such as "CURRENCY::EUR" to "EUR".
func StripQualifier(code string) string {
	code = strings.TrimSpace(code)
	if i := strings.LastIndex(code, "::"); i >= 0 {
		code = code[i+2:]
	}
	return strings.TrimSpace(code)
}

// IsCurrencyCode reports whether code is a valid commodity name for the ledger grammar.
func IsCurrencyCode(code string) bool {
	return currencyCodeRegex.MatchString(code)
}
