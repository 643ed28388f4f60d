// Large Ledger Generator
//
// This tool generates a capitalg folder with a large transactions.csv and a
// matching rates.csv for performance testing and profiling. Sells never
// exceed the quantity bought before them, so the result calculates cleanly.
//
// Usage:
//
//	go run main.go perf                 # 100000 transactions into ./perf
//	go run main.go perf 1000000         # Specify the number of transactions
//	capitalg calculate -p perf -q fifo -c aud -d 2024-06-30 --telemetry
package main

import (
	"encoding/csv"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/robinvdvleuten/capitalg/loader"
	"github.com/robinvdvleuten/capitalg/parser"
	"github.com/robinvdvleuten/capitalg/rates"
	"github.com/robinvdvleuten/capitalg/record"
)

const defaultCount = 100000

var (
	exchanges = []string{"coinjar", "binance", "kraken", "coinspot"}
	assets    = []string{"btc", "eth", "ltc", "xrp", "ada", "dot"}

	// Rough prices in aud to random walk from.
	startPrices = map[string]float64{
		"btc": 9000, "eth": 600, "ltc": 120, "xrp": 0.5, "ada": 0.2, "dot": 8,
	}

	header = []string{
		parser.ColumnRawID, parser.ColumnExchange, parser.ColumnDate, parser.ColumnTimezone,
		parser.ColumnType, parser.ColumnBaseCurrency, parser.ColumnAsset, parser.ColumnQuantity,
		parser.ColumnPrice, parser.ColumnFeeCurrency, parser.ColumnFee, parser.ColumnNote,
	}
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: generate_ledger <folder> [transactions]")
		os.Exit(2)
	}
	dir := os.Args[1]

	count := defaultCount
	if len(os.Args) > 2 {
		if n, err := strconv.Atoi(os.Args[2]); err == nil {
			count = n
		}
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		fatal(err)
	}

	g := newGenerator(time.Date(2017, 1, 1, 9, 0, 0, 0, time.UTC))
	if err := g.writeTransactions(filepath.Join(dir, loader.FileTransactions), count); err != nil {
		fatal(err)
	}
	if err := g.writeRates(filepath.Join(dir, loader.FileRates)); err != nil {
		fatal(err)
	}

	fmt.Fprintf(os.Stderr, "Generated %d transactions over %d days in %s\n", count, g.rates.Len(), dir)
}

type generator struct {
	date     time.Time
	prices   map[string]float64
	holdings map[string]decimal.Decimal
	rates    *rates.Table
}

func newGenerator(start time.Time) *generator {
	prices := make(map[string]float64, len(startPrices))
	for asset, price := range startPrices {
		prices[asset] = price
	}
	return &generator{
		date:     start,
		prices:   prices,
		holdings: make(map[string]decimal.Decimal),
		rates:    rates.NewTable(),
	}
}

func (g *generator) writeTransactions(path string, count int) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return err
	}

	for i := 1; i <= count; i++ {
		// Advance 0-6 hours
		g.date = g.date.Add(time.Duration(rand.Intn(7)) * time.Hour)
		g.walkPrices()

		if err := w.Write(g.next(i)); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

// next returns one transaction row. Roughly a third are sells of an asset
// held; a tenth of the buys are paid in btc to exercise currency splits.
func (g *generator) next(id int) []string {
	asset := assets[rand.Intn(len(assets))]
	exchange := exchanges[rand.Intn(len(exchanges))]
	price := decimal.NewFromFloat(g.prices[asset]).Round(4)
	held := g.holdings[asset]

	kind := record.Acquire
	qty := randQuantity(g.prices[asset])
	if held.IsPositive() && rand.Intn(3) == 0 {
		kind = record.Dispose
		qty = held.Mul(decimal.NewFromFloat(rand.Float64())).Round(8)
		if !qty.IsPositive() {
			kind, qty = record.Acquire, randQuantity(g.prices[asset])
		}
	}

	base := "aud"
	if kind == record.Acquire && asset != "btc" && rand.Intn(10) == 0 {
		// Paying in btc sells btc, so it must be held.
		btcPrice := decimal.NewFromFloat(g.prices[asset] / g.prices["btc"]).Round(8)
		if cost := qty.Mul(btcPrice); cost.LessThanOrEqual(g.holdings["btc"]) {
			base, price = "btc", btcPrice
			g.holdings["btc"] = g.holdings["btc"].Sub(cost)
		}
	}

	if kind == record.Acquire {
		g.holdings[asset] = held.Add(qty)
	} else {
		g.holdings[asset] = held.Sub(qty)
	}

	fee := qty.Mul(price).Mul(decimal.RequireFromString("0.001")).Round(8)

	return []string{
		strconv.Itoa(id),
		exchange,
		g.date.Format(record.DateLayout),
		"UTC",
		kind.Label(),
		base,
		asset,
		qty.String(),
		price.String(),
		base,
		fee.String(),
		"",
	}
}

// walkPrices moves every price by up to 2% and records the btc and usd rates
// of the current day.
func (g *generator) walkPrices() {
	for asset, price := range g.prices {
		g.prices[asset] = price * (0.99 + rand.Float64()*0.02)
	}
	g.rates.Set(g.date, "btc", decimal.NewFromFloat(g.prices["btc"]).Round(2))
	g.rates.Set(g.date, "usd", decimal.RequireFromString("1.35"))
}

func (g *generator) writeRates(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	w := csv.NewWriter(f)
	if err := w.Write([]string{parser.ColumnDate, "btc", "usd"}); err != nil {
		return err
	}
	for _, day := range g.rates.Days() {
		t, err := time.Parse(rates.DayLayout, day)
		if err != nil {
			return err
		}
		btc, _ := g.rates.Lookup(t, "btc")
		usd, _ := g.rates.Lookup(t, "usd")
		if err := w.Write([]string{day, btc.String(), usd.String()}); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

func randQuantity(price float64) decimal.Decimal {
	// Spend between 50 and 5000 aud
	spend := 50 + rand.Float64()*4950
	return decimal.NewFromFloat(spend / price).Round(8)
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
