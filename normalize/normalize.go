// Package normalize converts raw transaction rows into transactions
// denominated in the tax currency.
//
// A row priced in the tax currency becomes a single transaction. A row priced
// in any other currency is a trade between two assets and is split into two
// legs, each priced in the tax currency using the rate of the base currency on
// the trade date:
//
//	buy 5 eth @ 0.025 btc, btc = 40000 aud
//	  -> sell 0.125 btc @ 40000 aud (carries the fee)
//	  -> buy  5 eth     @ 1000 aud
//
// The entire fee is assigned to the leg that disposes of an asset. This is a
// modeling assumption: a fee debits the currency given up in a trade, and
// keeping it on the dispose leg lets the gain calculation apply it once.
package normalize

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/robinvdvleuten/capitalg/rates"
	"github.com/robinvdvleuten/capitalg/record"
	"github.com/robinvdvleuten/capitalg/telemetry"
	"github.com/shopspring/decimal"
	"golang.org/x/exp/slices"
)

// FeeUnitPlaces is the number of decimal places of a per-unit fee.
const FeeUnitPlaces = 2

// Normalizer converts raw rows into tax currency transactions.
type Normalizer struct {
	// TaxCurrency is the lower-case code of the reporting currency.
	TaxCurrency string
	// Location is the reporting timezone. Nil means UTC.
	Location *time.Location
	// Cutoff drops rows dated on or after it. The zero value keeps every row.
	Cutoff time.Time
	// Rates converts other currencies to the tax currency. May be nil when
	// every row is priced and charged in the tax currency.
	Rates *rates.Table

	zones zones
}

// New creates a Normalizer.
func New(taxCurrency string, loc *time.Location, cutoff time.Time, table *rates.Table) *Normalizer {
	return &Normalizer{
		TaxCurrency: strings.ToLower(taxCurrency),
		Location:    loc,
		Cutoff:      cutoff,
		Rates:       table,
	}
}

// Normalize converts every row and returns the transactions sorted by their
// wall clock date in the reporting timezone. The sort is stable, so rows sharing a date keep their file order and the
// base leg of a split stays ahead of its asset leg. The first failing row
// aborts with a *RowError.
func (n *Normalizer) Normalize(ctx context.Context, raws []record.Raw) ([]record.Transaction, error) {
	timer := telemetry.StartTimer(ctx, fmt.Sprintf("normalize (%d rows)", len(raws)))
	defer timer.End()

	txns := make([]record.Transaction, 0, len(raws))
	for _, raw := range raws {
		out, err := n.NormalizeRow(raw)
		if err != nil {
			return nil, err
		}
		txns = append(txns, out...)
	}

	slices.SortStableFunc(txns, func(a, b record.Transaction) int {
		return record.WallClock(a.Date).Compare(record.WallClock(b.Date))
	})

	return txns, nil
}

// NormalizeRow converts a single row into zero, one or two transactions. Zero
// transactions are returned for rows dated on or after the cutoff.
func (n *Normalizer) NormalizeRow(raw record.Raw) ([]record.Transaction, error) {
	out, err := n.normalizeRow(raw)
	if err != nil {
		return nil, &RowError{Pos: raw.Pos, Raw: raw, Err: err}
	}
	return out, nil
}

func (n *Normalizer) normalizeRow(raw record.Raw) ([]record.Transaction, error) {
	kind, err := record.ParseKind(raw.Kind)
	if err != nil {
		return nil, err
	}
	if err := validateAmounts(raw); err != nil {
		return nil, err
	}

	if n.zones == nil {
		n.zones = make(zones)
	}
	date, err := n.zones.parseDate(raw.Date, raw.Timezone, n.location())
	if err != nil {
		return nil, err
	}
	if !n.Cutoff.IsZero() && !date.Before(n.Cutoff) {
		return nil, nil
	}

	base := strings.ToLower(raw.BaseCurrency)
	if base == n.TaxCurrency {
		txn, err := n.format(raw, date, kind, strings.ToLower(raw.Asset), raw.Quantity, raw.Price, raw.Fee)
		if err != nil {
			return nil, err
		}
		return []record.Transaction{txn}, nil
	}

	return n.split(raw, date, kind, base)
}

// split rebases a cross currency trade into a base leg followed by an asset
// leg.
func (n *Normalizer) split(raw record.Raw, date time.Time, kind record.Kind, base string) ([]record.Transaction, error) {
	rate, err := n.Rates.Lookup(date, base)
	if err != nil {
		return nil, err
	}

	baseFee, assetFee := raw.Fee, decimal.Zero
	if kind == record.Dispose {
		baseFee, assetFee = decimal.Zero, raw.Fee
	}

	baseLeg, err := n.format(raw, date, kind.Opposite(), base, raw.Quantity.Mul(raw.Price), rate, baseFee)
	if err != nil {
		return nil, err
	}
	assetLeg, err := n.format(raw, date, kind, strings.ToLower(raw.Asset), raw.Quantity, raw.Price.Mul(rate), assetFee)
	if err != nil {
		return nil, err
	}

	return []record.Transaction{baseLeg, assetLeg}, nil
}

func (n *Normalizer) format(raw record.Raw, date time.Time, kind record.Kind, asset string, qty, price, fee decimal.Decimal) (record.Transaction, error) {
	rebased, err := n.rebaseFee(date, raw.FeeCurrency, fee)
	if err != nil {
		return record.Transaction{}, err
	}

	return record.Transaction{
		RawID:    raw.RawID,
		Exchange: raw.Exchange,
		Date:     date,
		Timezone: n.location().String(),
		Kind:     kind,
		Asset:    asset,
		Currency: n.TaxCurrency,
		Quantity: qty,
		Price:    price,
		Fee:      rebased,
		FeeUnit:  FeeUnit(rebased, qty),
		Note:     raw.Note,
		Pos:      raw.Pos,
	}, nil
}

// rebaseFee converts fee to the tax currency. A zero fee needs no rate.
func (n *Normalizer) rebaseFee(date time.Time, currency string, fee decimal.Decimal) (decimal.Decimal, error) {
	if fee.IsZero() {
		return decimal.Zero, nil
	}
	currency = strings.ToLower(currency)
	if currency == n.TaxCurrency {
		return fee, nil
	}
	rate, err := n.Rates.Lookup(date, currency)
	if err != nil {
		return decimal.Zero, err
	}
	return fee.Mul(rate), nil
}

func (n *Normalizer) location() *time.Location {
	if n.Location == nil {
		return time.UTC
	}
	return n.Location
}

// FeeUnit returns fee / qty rounded half to even to FeeUnitPlaces, or zero
// when qty is not positive.
func FeeUnit(fee, qty decimal.Decimal) decimal.Decimal {
	if !qty.IsPositive() {
		return decimal.Zero
	}
	return fee.Div(qty).RoundBank(FeeUnitPlaces)
}

func validateAmounts(raw record.Raw) error {
	switch {
	case !raw.Quantity.IsPositive():
		return &InvalidAmountError{Field: "qty", Amount: raw.Quantity}
	case raw.Price.IsNegative():
		return &InvalidAmountError{Field: "price", Amount: raw.Price}
	case raw.Fee.IsNegative():
		return &InvalidAmountError{Field: "fee", Amount: raw.Fee}
	}
	return nil
}
