// Package ledger matches disposals against acquisitions and computes capital
// gains.
//
// Every asset has its own Queue of open lots. Acquisitions are appended to the
// queue; a disposal consumes lots from it according to the configured Method
// and produces a GainEvent. Lots left in the queues after processing are the
// unallocated cost base: positions still held.
//
// Example usage:
//
//	l := ledger.New(ledger.NewConfig())
//	if err := l.Process(ctx, txns, w); err != nil {
//	    var mismatch *ledger.QuantityMismatchError
//	    if errors.As(err, &mismatch) {
//	        fmt.Println(mismatch.Disposal, mismatch.Lots)
//	    }
//	}
//	for _, lot := range l.Unallocated() {
//	    fmt.Println(lot)
//	}
package ledger

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/robinvdvleuten/capitalg/record"
	"github.com/robinvdvleuten/capitalg/telemetry"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// Writer receives the results of a ledger run.
type Writer interface {
	// WriteCostBase records the lots matched to a disposal under groupID.
	WriteCostBase(groupID string, lots []Lot) error
	// WriteGainEvent records a gain event.
	WriteGainEvent(event *GainEvent) error
}

// Ledger holds the per-asset queues and the gain events of a run.
type Ledger struct {
	config  *Config
	queues  map[string]*Queue
	events  []*GainEvent
	groupID func() string
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithGroupID replaces the generator of cost base group ids. The default
// generates random UUIDs.
func WithGroupID(fn func() string) Option {
	return func(l *Ledger) {
		l.groupID = fn
	}
}

// New creates an empty ledger. A nil config uses NewConfig.
func New(cfg *Config, opts ...Option) *Ledger {
	if cfg == nil {
		cfg = NewConfig()
	}

	l := &Ledger{
		config:  cfg,
		queues:  make(map[string]*Queue),
		groupID: uuid.NewString,
	}

	for _, opt := range opts {
		opt(l)
	}

	return l
}

// Process walks txns in order. Acquisitions are queued; each disposal is
// matched, its lots are written with WriteCostBase and its event with
// WriteGainEvent. w may be nil.
//
// Processing stops at the first error: an *UnsortedError when a transaction
// is dated before its predecessor, a *QuantityMismatchError when a disposal
// cannot be fully matched, or an error returned by w.
func (l *Ledger) Process(ctx context.Context, txns []record.Transaction, w Writer) error {
	timer := telemetry.StartTimer(ctx, fmt.Sprintf("ledger.processing (%d transactions)", len(txns)))
	defer timer.End()

	for i, txn := range txns {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if i > 0 && record.WallClock(txn.Date).Before(record.WallClock(txns[i-1].Date)) {
			return &UnsortedError{Transaction: txn, Previous: txns[i-1]}
		}

		if err := l.processTransaction(txn, w); err != nil {
			return err
		}
	}

	return nil
}

func (l *Ledger) processTransaction(txn record.Transaction, w Writer) error {
	queue := l.queue(txn.Asset)

	switch txn.Kind {
	case record.Acquire:
		queue.Add(NewLot(txn))
		return nil

	case record.Dispose:
		lots := queue.Consume(txn.Quantity)
		event, err := CalculateGain(txn, lots, l.config.LongTermDays)
		if err != nil {
			return err
		}
		event.GroupID = l.groupID()
		l.events = append(l.events, event)

		if w == nil {
			return nil
		}
		if err := w.WriteCostBase(event.GroupID, event.Lots); err != nil {
			return fmt.Errorf("failed to write cost base: %w", err)
		}
		if err := w.WriteGainEvent(event); err != nil {
			return fmt.Errorf("failed to write gain event: %w", err)
		}
		return nil

	default:
		return fmt.Errorf("%s: %w", txn.Pos, &record.UnknownKindError{Label: string(txn.Kind)})
	}
}

func (l *Ledger) queue(asset string) *Queue {
	q, ok := l.queues[asset]
	if !ok {
		q = NewQueue(l.config.Method)
		l.queues[asset] = q
	}
	return q
}

// Queue returns the queue of an asset.
func (l *Ledger) Queue(asset string) (*Queue, bool) {
	q, ok := l.queues[asset]
	return q, ok
}

// Assets returns the codes of every asset seen, sorted.
func (l *Ledger) Assets() []string {
	assets := maps.Keys(l.queues)
	slices.Sort(assets)
	return assets
}

// Events returns the gain events in processing order.
func (l *Ledger) Events() []*GainEvent {
	return l.events
}

// Unallocated returns the lots still queued, grouped by asset in code order
// and in acquisition order within an asset.
func (l *Ledger) Unallocated() []Lot {
	var lots []Lot
	for _, asset := range l.Assets() {
		lots = append(lots, l.queues[asset].lots...)
	}
	return lots
}
