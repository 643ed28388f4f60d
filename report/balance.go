package report

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/robinvdvleuten/capitalg/parser"
	"github.com/shopspring/decimal"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// Balance is the estimated quantity held per asset.
type Balance map[string]decimal.Decimal

// Codes returns the asset codes of the balance, sorted.
func (b Balance) Codes() []string {
	codes := maps.Keys(b)
	slices.Sort(codes)
	return codes
}

// UnallocatedTotals sums the quantity of an unallocated cost base file per
// asset.
func UnallocatedTotals(filename string, r io.Reader) (Balance, error) {
	return sumColumn(filename, r, parser.ColumnAsset, parser.ColumnQuantity, func(parser.Row) bool { return true })
}

// FeeTotals sums the fees of a transactions file per fee currency, skipping
// fees paid in the tax currency.
func FeeTotals(filename string, r io.Reader, taxCurrency string) (Balance, error) {
	taxCurrency = strings.ToLower(taxCurrency)
	return sumColumn(filename, r, parser.ColumnFeeCurrency, parser.ColumnFee, func(row parser.Row) bool {
		return strings.ToLower(row.Get(parser.ColumnFeeCurrency)) != taxCurrency
	})
}

// Estimate subtracts fees from the unallocated quantity of each asset. Only
// assets with unallocated cost base are returned. Withdrawal fees are not
// known here; record them as sells at price 0 to take them from the cost base.
func Estimate(unallocated, fees Balance) Balance {
	balance := make(Balance, len(unallocated))
	for asset, qty := range unallocated {
		balance[asset] = qty.Sub(fees[asset])
	}
	return balance
}

// EstimateFiles estimates the balance from a transactions file and an
// unallocated cost base file.
func EstimateFiles(transactionsFile, unallocatedFile, taxCurrency string) (Balance, error) {
	unallocated, err := readFile(unallocatedFile, func(r io.Reader) (Balance, error) {
		return UnallocatedTotals(unallocatedFile, r)
	})
	if err != nil {
		return nil, err
	}

	fees, err := readFile(transactionsFile, func(r io.Reader) (Balance, error) {
		return FeeTotals(transactionsFile, r, taxCurrency)
	})
	if err != nil {
		return nil, err
	}

	return Estimate(unallocated, fees), nil
}

func readFile(filename string, fn func(io.Reader) (Balance, error)) (Balance, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", filename, err)
	}
	defer func() { _ = f.Close() }()

	return fn(f)
}

func sumColumn(filename string, r io.Reader, keyColumn, valueColumn string, include func(parser.Row) bool) (Balance, error) {
	_, rows, err := parser.ReadRows(filename, r)
	if err != nil {
		return nil, err
	}

	totals := make(Balance)
	for _, row := range rows {
		if !include(row) {
			continue
		}
		value, err := row.OptionalDecimal(valueColumn)
		if err != nil {
			return nil, err
		}
		key := strings.ToLower(row.Get(keyColumn))
		totals[key] = totals[key].Add(value)
	}
	return totals, nil
}
