package ledger

import (
	"fmt"
	"strings"

	"github.com/robinvdvleuten/capitalg/record"
	"github.com/shopspring/decimal"
)

// QuantityMismatchError is returned when the lots matched to a disposal do not
// add up to the disposed quantity.
type QuantityMismatchError struct {
	Disposal record.Transaction
	Lots     []Lot
	Matched  decimal.Decimal
}

// Shortfall reports whether fewer units were matched than disposed, which
// means the disposal sells more than was ever acquired.
func (e *QuantityMismatchError) Shortfall() bool {
	return e.Matched.LessThan(e.Disposal.Quantity)
}

func (e *QuantityMismatchError) Error() string {
	var b strings.Builder
	b.WriteString(e.Disposal.Pos.String())
	b.WriteString(": ")
	if e.Shortfall() {
		fmt.Fprintf(&b, "quantity disposed exceeds quantity acquired: sold %s %s, matched %s (missing cost base transactions?)",
			e.Disposal.Quantity, e.Disposal.Asset, e.Matched)
	} else {
		fmt.Fprintf(&b, "matched more than disposed: sold %s %s, matched %s",
			e.Disposal.Quantity, e.Disposal.Asset, e.Matched)
	}
	return b.String()
}

func (e *QuantityMismatchError) GetPosition() record.Position {
	return e.Disposal.Pos
}

func (e *QuantityMismatchError) GetTransaction() record.Transaction {
	return e.Disposal
}

// UnsortedError is returned when transactions are not in date order.
type UnsortedError struct {
	Transaction record.Transaction
	Previous    record.Transaction
}

func (e *UnsortedError) Error() string {
	return fmt.Sprintf("%s: transaction dated %s follows one dated %s, transactions must be sorted by date",
		e.Transaction.Pos, e.Transaction.Date.Format(record.DateLayout), e.Previous.Date.Format(record.DateLayout))
}

func (e *UnsortedError) GetPosition() record.Position {
	return e.Transaction.Pos
}

func (e *UnsortedError) GetTransaction() record.Transaction {
	return e.Transaction
}
