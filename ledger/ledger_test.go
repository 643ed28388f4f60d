package ledger

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/alecthomas/assert/v2"
	"github.com/google/uuid"
	"github.com/robinvdvleuten/capitalg/record"
)

type recordingWriter struct {
	costBase map[string][]Lot
	groups   []string
	events   []*GainEvent
	err      error
}

func (w *recordingWriter) WriteCostBase(groupID string, lots []Lot) error {
	if w.err != nil {
		return w.err
	}
	if w.costBase == nil {
		w.costBase = make(map[string][]Lot)
	}
	w.groups = append(w.groups, groupID)
	w.costBase[groupID] = lots
	return nil
}

func (w *recordingWriter) WriteGainEvent(event *GainEvent) error {
	w.events = append(w.events, event)
	return nil
}

func txn(id, kind, asset, qty, price, feeUnit, when string) record.Transaction {
	k, err := record.ParseKind(kind)
	if err != nil {
		panic(err)
	}
	return record.Transaction{
		RawID:    id,
		Kind:     k,
		Asset:    asset,
		Quantity: d(qty),
		Price:    d(price),
		Fee:      d(feeUnit).Mul(d(qty)),
		FeeUnit:  d(feeUnit),
		Date:     date(when),
	}
}

func sequentialIDs() Option {
	n := 0
	return WithGroupID(func() string {
		n++
		return fmt.Sprintf("group-%d", n)
	})
}

func history() []record.Transaction {
	return []record.Transaction{
		txn("1", "buy", "btc", "1", "1000", "0", "2017-01-01T00:00:00"),
		txn("2", "buy", "eth", "10", "10", "0", "2017-03-01T00:00:00"),
		txn("3", "buy", "btc", "1", "3000", "0", "2018-06-01T00:00:00"),
		txn("4", "sell", "btc", "1.5", "5000", "0", "2018-07-01T00:00:00"),
		txn("5", "sell", "eth", "4", "20", "0", "2018-08-01T00:00:00"),
	}
}

func TestProcessFIFO(t *testing.T) {
	cfg := NewConfig()
	l := New(cfg, sequentialIDs())
	w := &recordingWriter{}

	err := l.Process(context.Background(), history(), w)
	assert.NoError(t, err)

	assert.Equal(t, []string{"group-1", "group-2"}, w.groups)
	assert.Equal(t, 2, len(w.events))

	btc := w.events[0]
	assert.Equal(t, "group-1", btc.GroupID)
	assert.Equal(t, "4", btc.Disposal.RawID)
	assertLots(t, []matched{{"1", "1"}, {"3", "0.5"}}, w.costBase["group-1"])
	// 1.5 * 5000 - (1000 + 0.5 * 3000)
	assert.True(t, d("5000").Equal(btc.Gain), "gain %s", btc.Gain)
	// only lot 1 is held for over a year: 5000 - 1000
	assert.True(t, d("4000").Equal(btc.LongTermGain), "long-term %s", btc.LongTermGain)

	eth := w.events[1]
	assert.True(t, d("40").Equal(eth.Gain))
	assert.True(t, d("40").Equal(eth.LongTermGain))

	assert.Equal(t, l.Events(), w.events)

	unallocated := l.Unallocated()
	assert.Equal(t, 2, len(unallocated))
	assert.Equal(t, "btc", unallocated[0].Asset)
	assert.True(t, d("0.5").Equal(unallocated[0].Quantity))
	assert.Equal(t, "eth", unallocated[1].Asset)
	assert.True(t, d("6").Equal(unallocated[1].Quantity))

	assert.Equal(t, []string{"btc", "eth"}, l.Assets())
}

func TestProcessLIFO(t *testing.T) {
	cfg := NewConfig()
	cfg.Method = LIFO
	l := New(cfg, sequentialIDs())
	w := &recordingWriter{}

	err := l.Process(context.Background(), history(), w)
	assert.NoError(t, err)

	btc := w.events[0]
	assertLots(t, []matched{{"3", "1"}, {"1", "0.5"}}, w.costBase["group-1"])
	// 1.5 * 5000 - (3000 + 0.5 * 1000)
	assert.True(t, d("4000").Equal(btc.Gain))
	// 0.5 * 5000 - 500
	assert.True(t, d("2000").Equal(btc.LongTermGain))

	q, ok := l.Queue("btc")
	assert.True(t, ok)
	assertLots(t, []matched{{"1", "0.5"}}, q.Lots())
}

func TestProcessWithoutWriter(t *testing.T) {
	l := New(nil)
	err := l.Process(context.Background(), history(), nil)
	assert.NoError(t, err)
	assert.Equal(t, 2, len(l.Events()))

	_, err = uuid.Parse(l.Events()[0].GroupID)
	assert.NoError(t, err)
	assert.NotEqual(t, l.Events()[0].GroupID, l.Events()[1].GroupID)
}

func TestProcessInsufficientCostBase(t *testing.T) {
	txns := []record.Transaction{
		txn("1", "buy", "btc", "1", "1000", "0", "2017-01-01T00:00:00"),
		txn("2", "sell", "btc", "2", "2000", "0", "2017-02-01T00:00:00"),
		txn("3", "sell", "btc", "1", "2000", "0", "2017-03-01T00:00:00"),
	}

	l := New(nil)
	w := &recordingWriter{}
	err := l.Process(context.Background(), txns, w)

	var mismatch *QuantityMismatchError
	assert.True(t, errors.As(err, &mismatch))
	assert.Equal(t, "2", mismatch.Disposal.RawID)
	assertLots(t, []matched{{"1", "1"}}, mismatch.Lots)
	assert.Equal(t, 0, len(w.events))
	assert.Equal(t, 0, len(l.Events()))
}

func TestProcessUnsorted(t *testing.T) {
	txns := []record.Transaction{
		txn("1", "buy", "btc", "1", "1000", "0", "2017-02-01T00:00:00"),
		txn("2", "buy", "btc", "1", "1000", "0", "2017-01-01T00:00:00"),
	}

	err := New(nil).Process(context.Background(), txns, nil)
	var unsorted *UnsortedError
	assert.True(t, errors.As(err, &unsorted))
	assert.Equal(t, "2", unsorted.Transaction.RawID)
	assert.Equal(t, "1", unsorted.Previous.RawID)
}

func TestProcessOrdersOnWallClock(t *testing.T) {
	sydney, err := time.LoadLocation("Australia/Sydney")
	assert.NoError(t, err)

	buy := txn("1", "buy", "btc", "1", "1000", "0", "2018-01-01T00:00:00")
	buy.Date = time.Date(2018, 3, 31, 16, 10, 0, 0, time.UTC).In(sydney)
	sell := txn("2", "sell", "btc", "1", "1500", "0", "2018-01-01T00:00:00")
	sell.Date = time.Date(2018, 3, 31, 15, 30, 0, 0, time.UTC).In(sydney)

	// The sale happened first but reads 02:30, after the purchase at 02:10.
	l := New(nil)
	assert.NoError(t, l.Process(context.Background(), []record.Transaction{buy, sell}, nil))
	assert.True(t, d("500").Equal(l.Events()[0].Gain))
}

func TestProcessSameDateKeepsOrder(t *testing.T) {
	txns := []record.Transaction{
		txn("1", "buy", "btc", "1", "1000", "0", "2017-01-01T00:00:00"),
		txn("2", "sell", "btc", "1", "1500", "0", "2017-01-01T00:00:00"),
	}

	l := New(nil)
	assert.NoError(t, l.Process(context.Background(), txns, nil))
	assert.True(t, d("500").Equal(l.Events()[0].Gain))
}

func TestProcessWriterError(t *testing.T) {
	w := &recordingWriter{err: errors.New("disk full")}
	err := New(nil).Process(context.Background(), history(), w)
	assert.EqualError(t, err, "failed to write cost base: disk full")
}

func TestProcessCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := New(nil).Process(ctx, history(), nil)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestProcessFees(t *testing.T) {
	txns := []record.Transaction{
		txn("1", "buy", "btc", "2", "1000", "5", "2017-01-01T00:00:00"),
		txn("2", "sell", "btc", "1", "2000", "10", "2017-02-01T00:00:00"),
	}

	l := New(nil)
	assert.NoError(t, l.Process(context.Background(), txns, nil))

	event := l.Events()[0]
	// 1 * (1000 + 5) + 10
	assert.True(t, d("1015").Equal(event.CostBase))
	assert.True(t, d("985").Equal(event.Gain))
}

func TestParseMethod(t *testing.T) {
	tests := []struct {
		input    string
		expected Method
		err      bool
	}{
		{"fifo", FIFO, false},
		{"LIFO", LIFO, false},
		{" Fifo ", FIFO, false},
		{"hifo", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			method, err := ParseMethod(tt.input)
			if tt.err {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.expected, method)
		})
	}
}

func TestNewConfig(t *testing.T) {
	cfg := NewConfig()
	assert.Equal(t, FIFO, cfg.Method)
	assert.Equal(t, 365, cfg.LongTermDays)
}
