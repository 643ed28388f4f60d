package parser

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/robinvdvleuten/capitalg/record"
	"github.com/robinvdvleuten/capitalg/telemetry"
)

// Transaction file columns.
const (
	ColumnRawID        = "raw_id"
	ColumnExchange     = "exchange"
	ColumnDate         = "date"
	ColumnTimezone     = "tz"
	ColumnType         = "type"
	ColumnBaseCurrency = "base_currency"
	ColumnAsset        = "asset_code"
	ColumnQuantity     = "qty"
	ColumnPrice        = "price"
	ColumnFeeCurrency  = "fee_currency"
	ColumnFee          = "fee"
	ColumnFeeUnit      = "fee_unit"
	ColumnNote         = "note"
)

var requiredTransactionColumns = []string{
	ColumnDate,
	ColumnType,
	ColumnBaseCurrency,
	ColumnAsset,
	ColumnQuantity,
	ColumnPrice,
}

// ParseTransactions reads a transactions file into raw rows. Currency and
// asset codes are lower-cased. The type label and the date are kept as
// written; the normalizer validates them.
func ParseTransactions(ctx context.Context, filename string, r io.Reader) ([]record.Raw, error) {
	timer := telemetry.StartTimer(ctx, fmt.Sprintf("parser.transactions %s", filename))
	defer timer.End()

	header, rows, err := ReadRows(filename, r)
	if err != nil {
		return nil, err
	}
	if header == nil {
		return nil, nil
	}
	if err := requireColumns(filename, header, requiredTransactionColumns...); err != nil {
		return nil, err
	}

	raws := make([]record.Raw, 0, len(rows))
	for _, row := range rows {
		raw, err := parseRaw(row)
		if err != nil {
			return nil, err
		}
		raws = append(raws, raw)
	}
	return raws, nil
}

func parseRaw(row Row) (record.Raw, error) {
	qty, err := row.Decimal(ColumnQuantity)
	if err != nil {
		return record.Raw{}, err
	}
	price, err := row.Decimal(ColumnPrice)
	if err != nil {
		return record.Raw{}, err
	}
	fee, err := row.OptionalDecimal(ColumnFee)
	if err != nil {
		return record.Raw{}, err
	}

	date := row.Get(ColumnDate)
	if date == "" {
		return record.Raw{}, newParseError(row.Pos, nil, "missing value for %s", ColumnDate)
	}

	return record.Raw{
		RawID:        row.Get(ColumnRawID),
		Exchange:     row.Get(ColumnExchange),
		Date:         date,
		Timezone:     row.Get(ColumnTimezone),
		Kind:         row.Get(ColumnType),
		BaseCurrency: strings.ToLower(row.Get(ColumnBaseCurrency)),
		Asset:        strings.ToLower(row.Get(ColumnAsset)),
		Quantity:     qty,
		Price:        price,
		FeeCurrency:  strings.ToLower(row.Get(ColumnFeeCurrency)),
		Fee:          fee,
		Note:         row.Get(ColumnNote),
		Pos:          row.Pos,
	}, nil
}
