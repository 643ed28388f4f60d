package report

import (
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
)

// FormatGrouped rounds d half to even to places and groups the integer part
// in thousands, e.g. 1234.5 with 2 places is "1,234.50".
func FormatGrouped(d decimal.Decimal, places int32) string {
	rounded := d.RoundBank(places)

	sign := ""
	if rounded.IsNegative() {
		sign = "-"
		rounded = rounded.Neg()
	}

	s := sign + humanize.Comma(rounded.IntPart())
	if places > 0 {
		fixed := rounded.StringFixed(places)
		s += fixed[strings.IndexByte(fixed, '.'):]
	}
	return s
}

// FormatMoney formats d in currency with its symbol, rounded to whole units,
// e.g. "$1,320.00" for AUD. An unknown currency falls back to FormatGrouped.
func FormatMoney(d decimal.Decimal, currency string) string {
	code := strings.ToUpper(currency)
	cur := money.GetCurrency(code)
	if cur == nil {
		return FormatGrouped(d, 0)
	}

	factor, _ := decimal.NewFromInt(10).PowInt32(int32(cur.Fraction))
	minor := d.RoundBank(0).Mul(factor)
	return money.New(minor.IntPart(), code).Display()
}
