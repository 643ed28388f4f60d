package normalize

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alecthomas/assert/v2"
	"github.com/robinvdvleuten/capitalg/rates"
	"github.com/robinvdvleuten/capitalg/record"
	"github.com/shopspring/decimal"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertDecimal(t *testing.T, expected string, actual decimal.Decimal) {
	t.Helper()
	assert.True(t, d(expected).Equal(actual), "expected %s, got %s", expected, actual)
}

func day(s string) time.Time {
	t, err := time.Parse(rates.DayLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

func raw(date, kind, base, asset, qty, price, feeCurrency, fee string) record.Raw {
	return record.Raw{
		RawID:        "r1",
		Exchange:     "binance",
		Date:         date,
		Kind:         kind,
		BaseCurrency: base,
		Asset:        asset,
		Quantity:     d(qty),
		Price:        d(price),
		FeeCurrency:  feeCurrency,
		Fee:          d(fee),
		Note:         "note",
		Pos:          record.Position{Filename: "transactions.csv", Line: 2},
	}
}

func TestNormalizeSameCurrency(t *testing.T) {
	n := New("AUD", nil, time.Time{}, nil)

	txns, err := n.NormalizeRow(raw("2018-01-01T10:00:00", "buy", "aud", "btc", "0.4", "10000", "aud", "40"))
	assert.NoError(t, err)
	assert.Equal(t, 1, len(txns))

	txn := txns[0]
	assert.Equal(t, "r1", txn.RawID)
	assert.Equal(t, "binance", txn.Exchange)
	assert.Equal(t, record.Acquire, txn.Kind)
	assert.Equal(t, "btc", txn.Asset)
	assert.Equal(t, "aud", txn.Currency)
	assert.Equal(t, "UTC", txn.Timezone)
	assertDecimal(t, "0.4", txn.Quantity)
	assertDecimal(t, "10000", txn.Price)
	assertDecimal(t, "40", txn.Fee)
	assertDecimal(t, "100", txn.FeeUnit)
	assert.Equal(t, "note", txn.Note)
	assert.True(t, txn.Date.Equal(time.Date(2018, 1, 1, 10, 0, 0, 0, time.UTC)))
}

func TestNormalizeCrossCurrencyBuy(t *testing.T) {
	table := rates.NewTable()
	table.SetDay("2018-02-01", "btc", d("40000"))

	n := New("aud", time.UTC, time.Time{}, table)
	txns, err := n.NormalizeRow(raw("2018-02-01T10:00:00", "buy", "btc", "eth", "5", "0.025", "btc", "0.001"))
	assert.NoError(t, err)
	assert.Equal(t, 2, len(txns))

	base, asset := txns[0], txns[1]

	assert.Equal(t, record.Dispose, base.Kind)
	assert.Equal(t, "btc", base.Asset)
	assertDecimal(t, "0.125", base.Quantity)
	assertDecimal(t, "40000", base.Price)
	assertDecimal(t, "40", base.Fee)
	assertDecimal(t, "320", base.FeeUnit)

	assert.Equal(t, record.Acquire, asset.Kind)
	assert.Equal(t, "eth", asset.Asset)
	assertDecimal(t, "5", asset.Quantity)
	assertDecimal(t, "1000", asset.Price)
	assert.True(t, asset.Fee.IsZero())
	assert.True(t, asset.FeeUnit.IsZero())

	assert.Equal(t, "aud", base.Currency)
	assert.Equal(t, "aud", asset.Currency)
	assert.True(t, base.Date.Equal(asset.Date))
}

func TestNormalizeCrossCurrencySell(t *testing.T) {
	table := rates.NewTable()
	table.SetDay("2018-02-01", "btc", d("40000"))
	table.SetDay("2018-02-01", "bnb", d("10"))

	n := New("aud", time.UTC, time.Time{}, table)
	txns, err := n.NormalizeRow(raw("2018-02-01T10:00:00", "SELL", "BTC", "ETH", "5", "0.025", "bnb", "2"))
	assert.NoError(t, err)
	assert.Equal(t, 2, len(txns))

	base, asset := txns[0], txns[1]

	assert.Equal(t, record.Acquire, base.Kind)
	assert.Equal(t, "btc", base.Asset)
	assert.True(t, base.Fee.IsZero())

	assert.Equal(t, record.Dispose, asset.Kind)
	assert.Equal(t, "eth", asset.Asset)
	assertDecimal(t, "1000", asset.Price)
	assertDecimal(t, "20", asset.Fee)
	assertDecimal(t, "4", asset.FeeUnit)
}

func TestNormalizeFeeRebasing(t *testing.T) {
	table := rates.NewTable()
	table.SetDay("2018-02-01", "usd", d("1.3"))

	n := New("aud", time.UTC, time.Time{}, table)

	t.Run("zero fee needs no rate", func(t *testing.T) {
		txns, err := n.NormalizeRow(raw("2018-02-01T00:00:00", "buy", "aud", "btc", "1", "100", "xyz", "0"))
		assert.NoError(t, err)
		assert.True(t, txns[0].Fee.IsZero())
	})

	t.Run("tax currency fee unchanged", func(t *testing.T) {
		txns, err := n.NormalizeRow(raw("2018-02-01T00:00:00", "buy", "aud", "btc", "3", "100", "AUD", "10"))
		assert.NoError(t, err)
		assertDecimal(t, "10", txns[0].Fee)
		assertDecimal(t, "3.33", txns[0].FeeUnit)
	})

	t.Run("foreign fee converted", func(t *testing.T) {
		txns, err := n.NormalizeRow(raw("2018-02-01T00:00:00", "buy", "aud", "btc", "2", "100", "usd", "10"))
		assert.NoError(t, err)
		assertDecimal(t, "13", txns[0].Fee)
		assertDecimal(t, "6.5", txns[0].FeeUnit)
	})

	t.Run("missing fee rate", func(t *testing.T) {
		_, err := n.NormalizeRow(raw("2018-02-02T00:00:00", "buy", "aud", "btc", "2", "100", "usd", "10"))
		var missing *rates.MissingRateError
		assert.True(t, errors.As(err, &missing))
		assert.Equal(t, "usd", missing.Code)
		assert.Equal(t, "2018-02-02", missing.Day)
	})
}

func TestNormalizeDates(t *testing.T) {
	sydney, err := record.LoadLocation("Australia/Sydney")
	assert.NoError(t, err)

	tests := []struct {
		name     string
		date     string
		tz       string
		dest     *time.Location
		expected time.Time
	}{
		{
			name:     "source timezone converted",
			date:     "2018-01-01T10:00:00",
			tz:       "Australia/Sydney",
			dest:     time.UTC,
			expected: time.Date(2017, 12, 31, 23, 0, 0, 0, time.UTC),
		},
		{
			name:     "zulu overrides timezone",
			date:     "2018-01-01T10:00:00Z",
			tz:       "Australia/Sydney",
			dest:     sydney,
			expected: time.Date(2018, 1, 1, 21, 0, 0, 0, sydney),
		},
		{
			name:     "lower case zulu",
			date:     "2018-01-01T10:00:00z",
			dest:     time.UTC,
			expected: time.Date(2018, 1, 1, 10, 0, 0, 0, time.UTC),
		},
		{
			name:     "fractional seconds truncated",
			date:     "2018-01-01T10:00:00.987",
			dest:     time.UTC,
			expected: time.Date(2018, 1, 1, 10, 0, 0, 0, time.UTC),
		},
		{
			name:     "date only",
			date:     "2018-01-01",
			dest:     time.UTC,
			expected: time.Date(2018, 1, 1, 0, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := New("aud", tt.dest, time.Time{}, nil)
			r := raw(tt.date, "buy", "aud", "btc", "1", "1", "aud", "0")
			r.Timezone = tt.tz
			txns, err := n.NormalizeRow(r)
			assert.NoError(t, err)
			assert.True(t, tt.expected.Equal(txns[0].Date), "got %s", txns[0].Date)
			assert.Equal(t, tt.dest.String(), txns[0].Date.Location().String())
		})
	}
}

func TestNormalizeRateUsesTaxTimezoneDay(t *testing.T) {
	sydney, err := record.LoadLocation("Australia/Sydney")
	assert.NoError(t, err)

	table := rates.NewTable()
	table.SetDay("2018-01-02", "btc", d("20000"))

	// 2018-01-01T20:00Z is already 2 January in Sydney.
	n := New("aud", sydney, time.Time{}, table)
	txns, err := n.NormalizeRow(raw("2018-01-01T20:00:00Z", "buy", "btc", "eth", "1", "0.1", "btc", "0"))
	assert.NoError(t, err)
	assertDecimal(t, "20000", txns[0].Price)
}

func TestNormalizeErrors(t *testing.T) {
	n := New("aud", time.UTC, time.Time{}, nil)

	t.Run("unknown kind", func(t *testing.T) {
		_, err := n.NormalizeRow(raw("2018-01-01T00:00:00", "transfer", "aud", "btc", "1", "1", "aud", "0"))
		var rowErr *RowError
		assert.True(t, errors.As(err, &rowErr))
		assert.Equal(t, 2, rowErr.GetPosition().Line)

		var kindErr *record.UnknownKindError
		assert.True(t, errors.As(err, &kindErr))
		assert.Equal(t, `transactions.csv:2: unknown transaction type "transfer"`, err.Error())
	})

	t.Run("no rates", func(t *testing.T) {
		_, err := n.NormalizeRow(raw("2018-01-01T00:00:00", "buy", "btc", "eth", "1", "1", "aud", "0"))
		assert.True(t, errors.Is(err, rates.ErrNoRates))
	})

	t.Run("zero quantity", func(t *testing.T) {
		_, err := n.NormalizeRow(raw("2018-01-01T00:00:00", "buy", "aud", "btc", "0", "1", "aud", "0"))
		var amountErr *InvalidAmountError
		assert.True(t, errors.As(err, &amountErr))
		assert.Equal(t, "qty", amountErr.Field)
	})

	t.Run("negative fee", func(t *testing.T) {
		_, err := n.NormalizeRow(raw("2018-01-01T00:00:00", "buy", "aud", "btc", "1", "1", "aud", "-1"))
		var amountErr *InvalidAmountError
		assert.True(t, errors.As(err, &amountErr))
		assert.Equal(t, "fee must not be negative, got -1", amountErr.Error())
	})

	t.Run("invalid date", func(t *testing.T) {
		_, err := n.NormalizeRow(raw("01/02/2018", "buy", "aud", "btc", "1", "1", "aud", "0"))
		var dateErr *InvalidDateError
		assert.True(t, errors.As(err, &dateErr))
	})

	t.Run("unknown timezone", func(t *testing.T) {
		r := raw("2018-01-01T00:00:00", "buy", "aud", "btc", "1", "1", "aud", "0")
		r.Timezone = "Mars/Olympus"
		_, err := n.NormalizeRow(r)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "Mars/Olympus")
	})
}

func TestNormalizeCutoffAndSort(t *testing.T) {
	table := rates.NewTable()
	table.SetDay("2018-03-01", "btc", d("10000"))

	cutoff := time.Date(2018, 7, 1, 0, 0, 0, 0, time.UTC)
	n := New("aud", time.UTC, cutoff, table)

	raws := []record.Raw{
		raw("2018-05-01T00:00:00", "buy", "aud", "btc", "1", "9000", "aud", "0"),
		raw("2018-07-01T00:00:00", "buy", "aud", "btc", "1", "9000", "aud", "0"),
		raw("2018-03-01T00:00:00", "buy", "btc", "eth", "10", "0.1", "btc", "0"),
		raw("2018-06-30T23:59:59", "sell", "aud", "btc", "1", "9500", "aud", "0"),
		raw("2018-05-01T00:00:00", "buy", "aud", "ltc", "1", "100", "aud", "0"),
	}
	raws[0].RawID = "a"
	raws[4].RawID = "b"

	txns, err := n.Normalize(context.Background(), raws)
	assert.NoError(t, err)
	assert.Equal(t, 5, len(txns))

	var got []string
	for _, txn := range txns {
		got = append(got, txn.Asset+":"+string(txn.Kind))
	}
	assert.Equal(t, []string{"btc:dispose", "eth:acquire", "btc:acquire", "ltc:acquire", "btc:dispose"}, got)

	assert.Equal(t, "a", txns[2].RawID)
	assert.Equal(t, "b", txns[3].RawID)

	for i := 1; i < len(txns); i++ {
		assert.False(t, txns[i].Date.Before(txns[i-1].Date))
		assert.True(t, txns[i].Date.Before(cutoff))
	}
}

func TestNormalizeSortsOnWallClock(t *testing.T) {
	sydney, err := record.LoadLocation("Australia/Sydney")
	assert.NoError(t, err)

	// Daylight saving ended in Sydney at 2018-04-01T03:00 local time, so
	// 16:10Z reads 02:10 while the earlier 15:30Z reads 02:30.
	raws := []record.Raw{
		raw("2018-03-31T15:30:00Z", "sell", "aud", "btc", "1", "9500", "aud", "0"),
		raw("2018-03-31T16:10:00Z", "buy", "aud", "btc", "1", "9000", "aud", "0"),
	}
	raws[0].RawID = "later"
	raws[1].RawID = "earlier"

	txns, err := New("aud", sydney, time.Time{}, nil).Normalize(context.Background(), raws)
	assert.NoError(t, err)
	assert.Equal(t, 2, len(txns))
	assert.Equal(t, "earlier", txns[0].RawID)
	assert.Equal(t, "2018-04-01T02:10:00", txns[0].Date.Format(record.DateLayout))
	assert.Equal(t, "later", txns[1].RawID)
	assert.Equal(t, "2018-04-01T02:30:00", txns[1].Date.Format(record.DateLayout))
}

func TestNormalizeStopsAtFirstError(t *testing.T) {
	n := New("aud", time.UTC, time.Time{}, nil)
	raws := []record.Raw{
		raw("2018-05-01T00:00:00", "buy", "aud", "btc", "1", "9000", "aud", "0"),
		raw("2018-05-02T00:00:00", "gift", "aud", "btc", "1", "9000", "aud", "0"),
	}
	raws[1].Pos.Line = 3

	txns, err := n.Normalize(context.Background(), raws)
	assert.Zero(t, txns)

	var rowErr *RowError
	assert.True(t, errors.As(err, &rowErr))
	assert.Equal(t, 3, rowErr.Pos.Line)
	assert.Equal(t, "gift", rowErr.Raw.Kind)
}

func TestFeeUnit(t *testing.T) {
	assertDecimal(t, "14.29", FeeUnit(d("10"), d("0.7")))
	assertDecimal(t, "0", FeeUnit(d("10"), d("0")))
	assertDecimal(t, "0.12", FeeUnit(d("0.125"), d("1")))
	assertDecimal(t, "0.38", FeeUnit(d("0.375"), d("1")))
}
