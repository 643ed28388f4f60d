// Package record defines the transaction data model shared by the parser, the
// normalizer, the ledger and the writers.
//
// A Raw is a single row as read from a transactions file: it may be priced in
// any currency and its date still carries the source timezone. A Transaction is
// the normalized form: amounts in the tax currency, date in the reporting
// timezone. Transactions are values and are never modified after normalization.
package record

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the layout used to read and write effective dates.
const DateLayout = "2006-01-02T15:04:05"

// Kind is the direction of a transaction.
type Kind string

const (
	// Acquire adds quantity of an asset (a buy).
	Acquire Kind = "acquire"
	// Dispose removes quantity of an asset (a sell).
	Dispose Kind = "dispose"
)

// Label returns the label used for the kind in transaction files.
func (k Kind) Label() string {
	switch k {
	case Acquire:
		return "buy"
	case Dispose:
		return "sell"
	default:
		return string(k)
	}
}

// Opposite returns the other direction.
func (k Kind) Opposite() Kind {
	if k == Acquire {
		return Dispose
	}
	return Acquire
}

// ParseKind parses a transaction type label. Both the file labels "buy" and
// "sell" and the names "acquire" and "dispose" are accepted, case-insensitively.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "buy", "acquire":
		return Acquire, nil
	case "sell", "dispose":
		return Dispose, nil
	default:
		return "", &UnknownKindError{Label: s}
	}
}

// UnknownKindError is returned when a transaction type label is neither a buy
// nor a sell.
type UnknownKindError struct {
	Label string
}

func (e *UnknownKindError) Error() string {
	return fmt.Sprintf("unknown transaction type %q", e.Label)
}

// Position identifies a row in a source file.
type Position struct {
	Filename string
	Line     int // Line number (1-indexed, the header is line 1)
}

// String returns "filename:line", or just the line when there is no filename.
func (p Position) String() string {
	if p.Filename != "" {
		return fmt.Sprintf("%s:%d", p.Filename, p.Line)
	}
	return fmt.Sprintf("line %d", p.Line)
}

// IsZero returns true if the position was never set.
func (p Position) IsZero() bool {
	return p.Filename == "" && p.Line == 0
}

// Raw is a transaction row as it appears in a transactions file. Codes are
// lower-cased by the parser; Kind and Date are kept as written and validated
// by the normalizer.
type Raw struct {
	RawID        string
	Exchange     string
	Date         string
	Timezone     string
	Kind         string
	BaseCurrency string
	Asset        string
	Quantity     decimal.Decimal
	Price        decimal.Decimal
	FeeCurrency  string
	Fee          decimal.Decimal
	Note         string

	Pos Position
}

// Transaction is a normalized transaction denominated in the tax currency.
type Transaction struct {
	RawID    string
	Exchange string
	Date     time.Time // Effective date in the reporting timezone
	Timezone string    // Name of the reporting timezone
	Kind     Kind
	Asset    string
	Currency string // Currency of Price and Fee (the tax currency)
	Quantity decimal.Decimal
	Price    decimal.Decimal
	Fee      decimal.Decimal
	FeeUnit  decimal.Decimal // Fee / Quantity rounded to two places
	Note     string

	Pos Position
}

// Amount returns Quantity * Price.
func (t Transaction) Amount() decimal.Decimal {
	return t.Quantity.Mul(t.Price)
}

// String returns a short human readable form, e.g.
// "2019-05-01T00:00:00 sell 0.7 btc @ 12000 usd (fee 10)".
func (t Transaction) String() string {
	s := fmt.Sprintf("%s %s %s %s @ %s %s",
		t.Date.Format(DateLayout), t.Kind.Label(), t.Quantity, t.Asset, t.Price, t.Currency)
	if !t.Fee.IsZero() {
		s += fmt.Sprintf(" (fee %s)", t.Fee)
	}
	return s
}
