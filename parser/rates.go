package parser

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/robinvdvleuten/capitalg/rates"
	"github.com/robinvdvleuten/capitalg/telemetry"
	"github.com/shopspring/decimal"
)

// ParseRates reads a rates file. The date column holds a day (YYYY-MM-DD) or
// an ISO 8601 date-time whose date part is used; every other column is a
// currency code. Empty cells are skipped.
func ParseRates(ctx context.Context, filename string, r io.Reader) (*rates.Table, error) {
	timer := telemetry.StartTimer(ctx, fmt.Sprintf("parser.rates %s", filename))
	defer timer.End()

	table := rates.NewTable()

	header, rows, err := ReadRows(filename, r)
	if err != nil {
		return nil, err
	}
	if header == nil {
		return table, nil
	}
	if err := requireColumns(filename, header, ColumnDate); err != nil {
		return nil, err
	}

	for _, row := range rows {
		day, err := parseRateDay(row.Get(ColumnDate))
		if err != nil {
			return nil, newParseError(row.Pos, err, "invalid date format %q", row.Get(ColumnDate))
		}

		for _, code := range header {
			if code == ColumnDate || code == "" {
				continue
			}
			value := row.Get(code)
			if value == "" {
				continue
			}
			rate, err := decimal.NewFromString(value)
			if err != nil {
				return nil, newParseError(row.Pos, err, "invalid rate %q for %s", value, code)
			}
			table.SetDay(day, code, rate)
		}
	}

	return table, nil
}

func parseRateDay(value string) (string, error) {
	if len(value) < len(rates.DayLayout) {
		return "", errors.New("too short")
	}
	t, err := time.Parse(rates.DayLayout, value[:len(rates.DayLayout)])
	if err != nil {
		return "", err
	}
	if rest := value[len(rates.DayLayout):]; rest != "" && rest[0] != 'T' && rest[0] != ' ' {
		return "", fmt.Errorf("unexpected %q after date", rest)
	}
	return t.Format(rates.DayLayout), nil
}
