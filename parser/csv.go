// Package parser reads the CSV files consumed by capitalg: the raw transactions
// file and the daily exchange rates file.
//
// Columns are matched by header name (case-insensitive), so extra columns are
// ignored and column order does not matter. Every row keeps its position so
// later stages can report errors against the offending line.
package parser

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/robinvdvleuten/capitalg/record"
	"github.com/shopspring/decimal"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Row is a single CSV record addressed by header name.
type Row struct {
	Pos    record.Position
	header map[string]int
	fields []string
}

// Get returns the trimmed value of column, or "" when the column is absent.
func (r Row) Get(column string) string {
	i, ok := r.header[column]
	if !ok || i >= len(r.fields) {
		return ""
	}
	return strings.TrimSpace(r.fields[i])
}

// Has reports whether the header declares column.
func (r Row) Has(column string) bool {
	_, ok := r.header[column]
	return ok
}

// Decimal parses column as a required decimal.
func (r Row) Decimal(column string) (decimal.Decimal, error) {
	value := r.Get(column)
	if value == "" {
		return decimal.Zero, newParseError(r.Pos, nil, "missing value for %s", column)
	}
	d, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, newParseError(r.Pos, err, "invalid %s %q", column, value)
	}
	return d, nil
}

// OptionalDecimal parses column as a decimal, treating an empty cell as zero.
func (r Row) OptionalDecimal(column string) (decimal.Decimal, error) {
	if r.Get(column) == "" {
		return decimal.Zero, nil
	}
	return r.Decimal(column)
}

// Header is the lower-cased header of a CSV file in column order.
type Header []string

// ReadRows reads every record of a CSV file. The first record is the header.
// Blank lines are skipped by encoding/csv; rows shorter than the header read
// as empty cells.
func ReadRows(filename string, r io.Reader) (Header, []Row, error) {
	br := bufio.NewReader(r)
	if prefix, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(prefix, utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
	}

	cr := csv.NewReader(br)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	first, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, wrapCSVError(filename, err)
	}

	header := make(Header, len(first))
	index := make(map[string]int, len(first))
	for i, name := range first {
		name = strings.ToLower(strings.TrimSpace(name))
		header[i] = name
		if _, dup := index[name]; !dup {
			index[name] = i
		}
	}

	var rows []Row
	for {
		fields, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, wrapCSVError(filename, err)
		}
		line, _ := cr.FieldPos(0)
		rows = append(rows, Row{
			Pos:    record.Position{Filename: filename, Line: line},
			header: index,
			fields: fields,
		})
	}

	return header, rows, nil
}

// requireColumns returns an error naming the first missing column.
func requireColumns(filename string, header Header, columns ...string) error {
	present := make(map[string]bool, len(header))
	for _, name := range header {
		present[name] = true
	}
	for _, column := range columns {
		if !present[column] {
			return newParseError(record.Position{Filename: filename, Line: 1}, nil, "missing column %q", column)
		}
	}
	return nil
}

func wrapCSVError(filename string, err error) error {
	var perr *csv.ParseError
	if errors.As(err, &perr) {
		return newParseError(record.Position{Filename: filename, Line: perr.Line}, err, "%s", perr.Err)
	}
	return fmt.Errorf("failed to read %s: %w", filename, err)
}
