// Package loader loads a capitalg folder: it reads transactions.csv and
// rates.csv, normalizes the transactions into the tax currency and returns
// them sorted by date, ready for the ledger.
//
// Example usage:
//
//	ldr := loader.New("aud", loader.WithLocation(loc), loader.WithCutoff(year.End))
//	result, err := ldr.Load(ctx, "files")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(len(result.Transactions))
package loader

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/robinvdvleuten/capitalg/normalize"
	"github.com/robinvdvleuten/capitalg/parser"
	"github.com/robinvdvleuten/capitalg/rates"
	"github.com/robinvdvleuten/capitalg/record"
	"github.com/robinvdvleuten/capitalg/telemetry"
)

// Names of the files in a capitalg folder.
const (
	FileTransactions = "transactions.csv"
	FileRates        = "rates.csv"
	FileFormatted    = "formatted_transactions.csv"
	FileEvents       = "cgt_events.csv"
	FileCostBase     = "cost_base_transactions.csv"
	FileUnallocated  = "unallocated_cost_base_transactions.csv"
)

// Outputs lists the files written by a calculation.
var Outputs = []string{FileFormatted, FileEvents, FileCostBase, FileUnallocated}

// Loader reads and normalizes the inputs of a folder.
//
// Configure the loader using functional options passed to New:
//
//	ldr := New("aud", WithLocation(loc))
type Loader struct {
	// TaxCurrency is the currency all transactions are converted to.
	TaxCurrency string
	// Location is the reporting timezone (default UTC).
	Location *time.Location
	// Cutoff drops transactions dated on or after it (default: keep all).
	Cutoff time.Time
}

// Option configures how a folder is loaded.
type Option func(*Loader)

// WithLocation sets the reporting timezone.
func WithLocation(loc *time.Location) Option {
	return func(l *Loader) {
		l.Location = loc
	}
}

// WithCutoff drops transactions dated on or after cutoff, usually the first
// instant after the tax year end.
func WithCutoff(cutoff time.Time) Option {
	return func(l *Loader) {
		l.Cutoff = cutoff
	}
}

// New creates a new Loader for taxCurrency with the given options.
func New(taxCurrency string, opts ...Option) *Loader {
	l := &Loader{
		TaxCurrency: strings.ToLower(taxCurrency),
		Location:    time.UTC,
	}

	for _, opt := range opts {
		opt(l)
	}

	return l
}

// Result is a loaded folder.
type Result struct {
	Dir          string
	Raw          []record.Raw
	Rates        *rates.Table
	Transactions []record.Transaction // Normalized and sorted by date
}

// Path returns the path of name inside the loaded folder.
func (r *Result) Path(name string) string {
	return filepath.Join(r.Dir, name)
}

// Load reads dir/transactions.csv and dir/rates.csv and normalizes the
// transactions. A missing rates file is an empty table; a missing
// transactions file is an error.
func (l *Loader) Load(ctx context.Context, dir string) (*Result, error) {
	table, err := l.LoadRates(ctx, filepath.Join(dir, FileRates))
	if err != nil {
		return nil, err
	}

	raws, err := l.LoadTransactions(ctx, filepath.Join(dir, FileTransactions))
	if err != nil {
		return nil, err
	}

	norm := normalize.New(l.TaxCurrency, l.Location, l.Cutoff, table)
	txns, err := norm.Normalize(ctx, raws)
	if err != nil {
		return nil, err
	}

	return &Result{
		Dir:          dir,
		Raw:          raws,
		Rates:        table,
		Transactions: txns,
	}, nil
}

// LoadTransactions parses a transactions file.
func (l *Loader) LoadTransactions(ctx context.Context, filename string) ([]record.Raw, error) {
	timer := telemetry.StartTimer(ctx, "loader.transactions")
	defer timer.End()

	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", filename, err)
	}
	defer func() { _ = f.Close() }()

	return parser.ParseTransactions(ctx, filename, f)
}

// LoadRates parses a rates file. A file that does not exist yields an empty
// table.
func (l *Loader) LoadRates(ctx context.Context, filename string) (*rates.Table, error) {
	timer := telemetry.StartTimer(ctx, "loader.rates")
	defer timer.End()

	f, err := os.Open(filename)
	if errors.Is(err, fs.ErrNotExist) {
		return rates.NewTable(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", filename, err)
	}
	defer func() { _ = f.Close() }()

	return parser.ParseRates(ctx, filename, f)
}
