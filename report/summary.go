// Package report aggregates the CSV outputs of a calculation: the capital
// gains of a tax year and an estimate of the assets still held.
package report

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/robinvdvleuten/capitalg/parser"
	"github.com/robinvdvleuten/capitalg/record"
	"github.com/robinvdvleuten/capitalg/writer"
	"github.com/shopspring/decimal"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// Gains is a total, long-term and short-term capital gain.
type Gains struct {
	Total     decimal.Decimal
	LongTerm  decimal.Decimal
	ShortTerm decimal.Decimal
}

// Add returns the sum of g and other.
func (g Gains) Add(other Gains) Gains {
	return Gains{
		Total:     g.Total.Add(other.Total),
		LongTerm:  g.LongTerm.Add(other.LongTerm),
		ShortTerm: g.ShortTerm.Add(other.ShortTerm),
	}
}

// Summary is the capital gain of a tax year per asset.
type Summary struct {
	Year   record.TaxYear
	Assets map[string]Gains
	Total  Gains
}

// Codes returns the asset codes of the summary, sorted.
func (s *Summary) Codes() []string {
	codes := maps.Keys(s.Assets)
	slices.Sort(codes)
	return codes
}

// Summarize sums the gain events dated inside year.
func Summarize(filename string, r io.Reader, year record.TaxYear) (*Summary, error) {
	header, rows, err := parser.ReadRows(filename, r)
	if err != nil {
		return nil, err
	}

	summary := &Summary{Year: year, Assets: make(map[string]Gains)}
	if header == nil {
		return summary, nil
	}

	loc := year.Start.Location()
	for _, row := range rows {
		value := row.Get(parser.ColumnDate)
		date, err := time.ParseInLocation(record.DateLayout, value, loc)
		if err != nil {
			return nil, &parser.ParseError{Pos: row.Pos, Message: fmt.Sprintf("invalid date %q", value), Underlying: err}
		}
		if !year.Contains(date) {
			continue
		}

		var gains Gains
		if gains.Total, err = row.Decimal(writer.ColumnCapitalGainTotal); err != nil {
			return nil, err
		}
		if gains.LongTerm, err = row.Decimal(writer.ColumnCapitalGainLT); err != nil {
			return nil, err
		}
		if gains.ShortTerm, err = row.Decimal(writer.ColumnCapitalGainST); err != nil {
			return nil, err
		}

		asset := strings.ToLower(row.Get(parser.ColumnAsset))
		summary.Assets[asset] = summary.Assets[asset].Add(gains)
		summary.Total = summary.Total.Add(gains)
	}

	return summary, nil
}

// SummarizeFile summarizes a gain events file.
func SummarizeFile(filename string, year record.TaxYear) (*Summary, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", filename, err)
	}
	defer func() { _ = f.Close() }()

	return Summarize(filename, f, year)
}
