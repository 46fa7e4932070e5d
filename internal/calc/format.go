package calc

import (
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/abacus-app/abacus/internal/model"
)

const (
	nbsp     = "\u00a0"
	infinity = "∞"
)

// FormatCurrency formats v as a currency amount with two fraction digits.
// EUR uses German grouping and a trailing euro sign ("1.234,50 €"); every
// other currency, including an empty one, uses US dollars ("$1,234.50").
// Values with the sign bit set keep the minus, so -0.001 is "-$0.00".
func FormatCurrency(v float64, currency model.Currency) string {
	sign := ""
	if math.Signbit(v) {
		sign = "-"
	}

	tag := language.AmericanEnglish
	if currency == model.CurrencyEUR {
		tag = language.German
	}
	digits := formatDigits(message.NewPrinter(tag), math.Abs(v))

	if currency == model.CurrencyEUR {
		return sign + digits + nbsp + "€"
	}
	return sign + "$" + digits
}

func formatDigits(p *message.Printer, abs float64) string {
	if math.IsInf(abs, 1) {
		return infinity
	}
	return p.Sprint(number.Decimal(roundCents(abs), number.MinFractionDigits(2), number.MaxFractionDigits(2)))
}

// roundCents rounds abs half away from zero at the second fraction digit of
// its shortest decimal form, so 1.005 becomes 1.01.
func roundCents(abs float64) float64 {
	whole, frac, ok := strings.Cut(strconv.FormatFloat(abs, 'f', -1, 64), ".")
	if !ok || len(frac) <= 2 {
		return abs
	}

	r, err := strconv.ParseFloat(whole+"."+frac[:2], 64)
	if err != nil {
		return abs
	}
	if frac[2] >= '5' {
		r += 0.01
	}
	return r
}
