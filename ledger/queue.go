package ledger

import (
	"github.com/shopspring/decimal"
	"golang.org/x/exp/slices"
)

// Queue holds the open lots of one asset in acquisition order.
//
// The queue does not look at dates: callers must add lots in chronological
// order. Lots are only appended at the back and removed from the end the
// method walks from, so the remaining lots never change relative order.
type Queue struct {
	method Method
	lots   []Lot
}

// NewQueue creates an empty queue.
func NewQueue(method Method) *Queue {
	return &Queue{method: method}
}

// Method returns the matching method of the queue.
func (q *Queue) Method() Method {
	return q.method
}

// Add appends a lot at the back of the queue.
func (q *Queue) Add(lot Lot) {
	q.lots = append(q.lots, lot)
}

// Consume matches qty against the queue, walking from the front for FIFO and
// from the back for LIFO, and returns copies of the matched lots in walk
// order.
//
// A lot larger than what is left of qty is split: the copy carries the
// requested quantity and the lot stays queued with the difference. Lots that
// are used up are removed. Running out of lots is not an error here; the
// returned lots then sum to less than qty and CalculateGain reports the
// shortfall. A qty that is not positive matches nothing.
func (q *Queue) Consume(qty decimal.Decimal) []Lot {
	if !qty.IsPositive() {
		return nil
	}

	var matched []Lot
	remaining := qty
	consumed := 0
	n := len(q.lots)

	for i := 0; i < n && remaining.IsPositive(); i++ {
		idx := i
		if q.method == LIFO {
			idx = n - 1 - i
		}
		lot := &q.lots[idx]

		if remaining.LessThan(lot.Quantity) {
			part := *lot
			part.Quantity = remaining
			lot.Quantity = lot.Quantity.Sub(remaining)
			matched = append(matched, part)
			break
		}

		matched = append(matched, *lot)
		remaining = remaining.Sub(lot.Quantity)
		consumed++
	}

	if consumed > 0 {
		if q.method == LIFO {
			q.lots = q.lots[:n-consumed]
		} else {
			q.lots = slices.Delete(q.lots, 0, consumed)
		}
	}

	return matched
}

// Lots returns a copy of the queued lots in acquisition order.
func (q *Queue) Lots() []Lot {
	return slices.Clone(q.lots)
}

// Len returns the number of queued lots.
func (q *Queue) Len() int {
	return len(q.lots)
}

// Total returns the remaining quantity across all lots.
func (q *Queue) Total() decimal.Decimal {
	return sumQuantity(q.lots)
}
