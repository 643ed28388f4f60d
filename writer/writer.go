// Package writer writes the CSV outputs of a calculation: gain events, the
// cost base audit trail linking each event to its lots, the unallocated cost
// base and the formatted transactions.
package writer

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/robinvdvleuten/capitalg/ledger"
	"github.com/robinvdvleuten/capitalg/parser"
	"github.com/robinvdvleuten/capitalg/record"
)

// Output columns not shared with the transactions file.
const (
	ColumnSaleID           = "sale_id"
	ColumnCostBaseID       = "cost_base_id"
	ColumnSaleAmount       = "sale_amount"
	ColumnSaleBrokerage    = "sale_brokerage"
	ColumnCostBaseAmount   = "cost_base_amount"
	ColumnCapitalGainTotal = "capital_gain_total"
	ColumnCapitalGainLT    = "capital_gain_lt"
	ColumnCapitalGainST    = "capital_gain_st"
)

// UnallocatedColumns are the columns of the unallocated cost base file.
var UnallocatedColumns = []string{
	parser.ColumnRawID,
	parser.ColumnExchange,
	parser.ColumnDate,
	parser.ColumnTimezone,
	parser.ColumnType,
	parser.ColumnBaseCurrency,
	parser.ColumnAsset,
	parser.ColumnQuantity,
	parser.ColumnPrice,
	parser.ColumnFeeCurrency,
	parser.ColumnFee,
	parser.ColumnNote,
}

// TransactionColumns are the columns of the formatted transactions file.
var TransactionColumns = []string{
	parser.ColumnRawID,
	parser.ColumnExchange,
	parser.ColumnDate,
	parser.ColumnTimezone,
	parser.ColumnType,
	parser.ColumnBaseCurrency,
	parser.ColumnAsset,
	parser.ColumnQuantity,
	parser.ColumnPrice,
	parser.ColumnFeeCurrency,
	parser.ColumnFee,
	parser.ColumnFeeUnit,
	parser.ColumnNote,
}

// CostBaseColumns are the columns of the cost base audit file.
var CostBaseColumns = append([]string{ColumnCostBaseID}, TransactionColumns...)

// GainEventColumns are the columns of the gain events file.
var GainEventColumns = []string{
	parser.ColumnDate,
	ColumnSaleID,
	parser.ColumnExchange,
	ColumnCostBaseID,
	parser.ColumnAsset,
	parser.ColumnQuantity,
	parser.ColumnPrice,
	ColumnSaleAmount,
	ColumnSaleBrokerage,
	ColumnCostBaseAmount,
	ColumnCapitalGainTotal,
	ColumnCapitalGainLT,
	ColumnCapitalGainST,
	parser.ColumnNote,
}

// Writer writes gain events and their cost base lots as they are produced by
// a ledger run. It implements ledger.Writer.
type Writer struct {
	events   *csv.Writer
	costBase *csv.Writer
}

var _ ledger.Writer = (*Writer)(nil)

// New creates a Writer and writes the headers of both files.
func New(events, costBase io.Writer) (*Writer, error) {
	w := &Writer{
		events:   csv.NewWriter(events),
		costBase: csv.NewWriter(costBase),
	}
	if err := w.events.Write(GainEventColumns); err != nil {
		return nil, err
	}
	if err := w.costBase.Write(CostBaseColumns); err != nil {
		return nil, err
	}
	return w, nil
}

// WriteGainEvent writes one gain event row.
func (w *Writer) WriteGainEvent(event *ledger.GainEvent) error {
	sale := event.Disposal
	return w.events.Write([]string{
		formatDate(sale),
		sale.RawID,
		sale.Exchange,
		event.GroupID,
		sale.Asset,
		sale.Quantity.String(),
		sale.Price.String(),
		event.Proceeds().String(),
		sale.Fee.String(),
		event.CostBase.String(),
		event.Gain.String(),
		event.LongTermGain.String(),
		event.ShortTermGain().String(),
		sale.Note,
	})
}

// WriteCostBase writes the lots matched to one disposal under groupID.
func (w *Writer) WriteCostBase(groupID string, lots []ledger.Lot) error {
	for _, lot := range lots {
		row := append([]string{groupID}, transactionRow(lot.Transaction)...)
		if err := w.costBase.Write(row); err != nil {
			return err
		}
	}
	return nil
}

// Flush flushes both files and returns the first write error.
func (w *Writer) Flush() error {
	w.events.Flush()
	w.costBase.Flush()
	if err := w.events.Error(); err != nil {
		return fmt.Errorf("failed to write gain events: %w", err)
	}
	if err := w.costBase.Error(); err != nil {
		return fmt.Errorf("failed to write cost base: %w", err)
	}
	return nil
}

// WriteTransactions writes normalized transactions with a header.
func WriteTransactions(out io.Writer, txns []record.Transaction) error {
	cw := csv.NewWriter(out)
	if err := cw.Write(TransactionColumns); err != nil {
		return err
	}
	for _, txn := range txns {
		if err := cw.Write(transactionRow(txn)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteUnallocated writes the lots left after a ledger run with a header.
func WriteUnallocated(out io.Writer, lots []ledger.Lot) error {
	cw := csv.NewWriter(out)
	if err := cw.Write(UnallocatedColumns); err != nil {
		return err
	}
	for _, lot := range lots {
		row := transactionRow(lot.Transaction)
		// Same layout as a formatted transaction without the fee unit.
		row = append(row[:11:11], row[12])
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func transactionRow(txn record.Transaction) []string {
	return []string{
		txn.RawID,
		txn.Exchange,
		formatDate(txn),
		txn.Timezone,
		txn.Kind.Label(),
		txn.Currency,
		txn.Asset,
		txn.Quantity.String(),
		txn.Price.String(),
		txn.Currency,
		txn.Fee.String(),
		txn.FeeUnit.String(),
		txn.Note,
	}
}

func formatDate(txn record.Transaction) string {
	return txn.Date.Format(record.DateLayout)
}
