package ledger

import (
	"time"

	"github.com/robinvdvleuten/capitalg/record"
	"github.com/shopspring/decimal"
)

// GainEvent is the result of matching one disposal against cost base.
type GainEvent struct {
	Disposal record.Transaction
	// GroupID links the event to its lots in the cost base audit trail.
	GroupID string
	Lots    []Lot

	Quantity     decimal.Decimal
	CostBase     decimal.Decimal // Lot costs plus the disposal fee
	Gain         decimal.Decimal
	LongTermGain decimal.Decimal
}

// Proceeds returns Quantity * disposal price.
func (e *GainEvent) Proceeds() decimal.Decimal {
	return e.Quantity.Mul(e.Disposal.Price)
}

// ShortTermGain returns the part of Gain that is not long-term.
func (e *GainEvent) ShortTermGain() decimal.Decimal {
	return e.Gain.Sub(e.LongTermGain)
}

// CalculateGain computes the gain of disposal against its matched lots.
//
// Each lot costs qty * (price + feeUnit). A lot held for at least
// longTermDays whole days adds qty * (sale price - sale feeUnit) - cost to the
// long-term gain. The disposal fee is added to the cost base once, and the
// total gain is qty * sale price - cost base.
//
// The lots must sum to the disposal quantity, otherwise a
// *QuantityMismatchError is returned.
func CalculateGain(disposal record.Transaction, lots []Lot, longTermDays int) (*GainEvent, error) {
	qty := decimal.Zero
	cost := decimal.Zero
	longTerm := decimal.Zero
	netPrice := disposal.Price.Sub(disposal.FeeUnit)

	for _, lot := range lots {
		lotCost := lot.Cost()
		qty = qty.Add(lot.Quantity)
		cost = cost.Add(lotCost)

		if IsLongTerm(lot.Date, disposal.Date, longTermDays) {
			longTerm = longTerm.Add(lot.Quantity.Mul(netPrice).Sub(lotCost))
		}
	}

	if !qty.Equal(disposal.Quantity) {
		return nil, &QuantityMismatchError{
			Disposal: disposal,
			Lots:     lots,
			Matched:  qty,
		}
	}

	costBase := cost.Add(disposal.Fee)
	return &GainEvent{
		Disposal:     disposal,
		Lots:         lots,
		Quantity:     qty,
		CostBase:     costBase,
		Gain:         qty.Mul(disposal.Price).Sub(costBase),
		LongTermGain: longTerm,
	}, nil
}

// IsLongTerm reports whether an asset acquired at acquired and disposed of at
// disposed was held for at least days whole days. Days are counted on the
// wall clock of each date, so daylight saving shifts do not move the
// boundary.
func IsLongTerm(acquired, disposed time.Time, days int) bool {
	return wholeDays(acquired, disposed) >= days
}

func wholeDays(from, to time.Time) int {
	elapsed := record.WallClock(to).Sub(record.WallClock(from))
	n := int(elapsed / (24 * time.Hour))
	if elapsed < 0 && elapsed%(24*time.Hour) != 0 {
		n--
	}
	return n
}
