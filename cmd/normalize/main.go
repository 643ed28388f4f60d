// Command normalize prints the normalized transactions of a capitalg folder,
// which helps when checking how a cross-currency row is split.
package main

import (
	"context"

	"github.com/alecthomas/kong"
	"github.com/alecthomas/repr"

	"github.com/robinvdvleuten/capitalg/loader"
	"github.com/robinvdvleuten/capitalg/record"
)

var (
	cli struct {
		Folder      string `help:"Folder containing transactions.csv and rates.csv." arg:"" type:"existingdir"`
		TaxCurrency string `help:"Currency in which tax is paid." short:"c" required:""`
		Timezone    string `help:"Tax reporting timezone." short:"t" default:"UTC"`
		Raw         bool   `help:"Print the parsed rows instead of the normalized transactions."`
	}
)

func main() {
	ctx := kong.Parse(&cli)

	loc, err := record.LoadLocation(cli.Timezone)
	ctx.FatalIfErrorf(err)

	result, err := loader.New(cli.TaxCurrency, loader.WithLocation(loc)).Load(context.Background(), cli.Folder)
	ctx.FatalIfErrorf(err)

	if cli.Raw {
		repr.Println(result.Raw)
		return
	}
	repr.Println(result.Transactions, repr.Indent("  "), repr.OmitEmpty(true))
}
