package normalize

import (
	"fmt"

	"github.com/robinvdvleuten/capitalg/record"
	"github.com/shopspring/decimal"
)

// RowError wraps the first error raised while normalizing a raw row and
// carries the row for context.
type RowError struct {
	Pos record.Position
	Raw record.Raw
	Err error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("%s: %s", e.Pos, e.Err)
}

func (e *RowError) GetPosition() record.Position {
	return e.Pos
}

func (e *RowError) Unwrap() error {
	return e.Err
}

// InvalidAmountError is returned for a quantity that is not positive or a
// price or fee that is negative.
type InvalidAmountError struct {
	Field  string
	Amount decimal.Decimal
}

func (e *InvalidAmountError) Error() string {
	if e.Field == "qty" {
		return fmt.Sprintf("qty must be positive, got %s", e.Amount)
	}
	return fmt.Sprintf("%s must not be negative, got %s", e.Field, e.Amount)
}

// InvalidDateError is returned when a date cannot be parsed.
type InvalidDateError struct {
	Value string
}

func (e *InvalidDateError) Error() string {
	return fmt.Sprintf("invalid date %q, expected ISO 8601 date-time", e.Value)
}
