// Package rates holds daily exchange rates against the tax currency.
//
// A Table maps a calendar day and a currency code to the number of tax currency
// units one unit of that currency was worth on that day. The table is supplied
// externally (usually from a rates.csv file) and is only ever read by the
// normalizer.
package rates

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DayLayout is the layout of the date keys of a Table.
const DayLayout = "2006-01-02"

// ErrNoRates is returned when a rate is needed but no table was provided.
var ErrNoRates = errors.New("no exchange rates provided")

// MissingRateError is returned when the table has no rate for a day and code.
type MissingRateError struct {
	Day  string
	Code string
}

func (e *MissingRateError) Error() string {
	return fmt.Sprintf("conversion rate missing from rates file for %s on %s", e.Code, e.Day)
}

// Table is an in-memory exchange rate table.
type Table struct {
	days map[string]map[string]decimal.Decimal
}

// NewTable creates an empty table.
func NewTable() *Table {
	return &Table{days: make(map[string]map[string]decimal.Decimal)}
}

// Set records the rate for code on the calendar day of t (in t's location).
func (t *Table) Set(day time.Time, code string, rate decimal.Decimal) {
	t.SetDay(day.Format(DayLayout), code, rate)
}

// SetDay records the rate for code on a YYYY-MM-DD day key.
func (t *Table) SetDay(day, code string, rate decimal.Decimal) {
	code = strings.ToLower(code)
	rates, ok := t.days[day]
	if !ok {
		rates = make(map[string]decimal.Decimal)
		t.days[day] = rates
	}
	rates[code] = rate
}

// Lookup returns the rate of code on the calendar day of t. A nil table
// returns ErrNoRates.
func (t *Table) Lookup(day time.Time, code string) (decimal.Decimal, error) {
	if t == nil {
		return decimal.Zero, ErrNoRates
	}
	key := day.Format(DayLayout)
	rate, ok := t.days[key][strings.ToLower(code)]
	if !ok {
		return decimal.Zero, &MissingRateError{Day: key, Code: strings.ToLower(code)}
	}
	return rate, nil
}

// Len returns the number of days in the table.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.days)
}

// Days returns all day keys in ascending order.
func (t *Table) Days() []string {
	if t == nil {
		return nil
	}
	days := make([]string, 0, len(t.days))
	for day := range t.days {
		days = append(days, day)
	}
	sort.Strings(days)
	return days
}
