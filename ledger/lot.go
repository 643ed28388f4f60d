package ledger

import (
	"github.com/robinvdvleuten/capitalg/record"
	"github.com/shopspring/decimal"
)

// Lot is an acquisition held as open inventory. Quantity is the remaining
// quantity and shrinks as the lot is partially consumed; every other field is
// a snapshot of the acquiring transaction.
type Lot struct {
	record.Transaction
}

// NewLot creates a lot from an acquire transaction.
func NewLot(txn record.Transaction) Lot {
	return Lot{Transaction: txn}
}

// Cost returns Quantity * (Price + FeeUnit).
func (l Lot) Cost() decimal.Decimal {
	return l.Quantity.Mul(l.Price.Add(l.FeeUnit))
}

// sumQuantity returns the total quantity of lots.
func sumQuantity(lots []Lot) decimal.Decimal {
	total := decimal.Zero
	for _, lot := range lots {
		total = total.Add(lot.Quantity)
	}
	return total
}
