package cli

import (
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/alecthomas/kong"
	"github.com/shopspring/decimal"

	"github.com/robinvdvleuten/capitalg/config"
	"github.com/robinvdvleuten/capitalg/loader"
	"github.com/robinvdvleuten/capitalg/output"
	"github.com/robinvdvleuten/capitalg/record"
	"github.com/robinvdvleuten/capitalg/report"
)

type SummaryCmd struct {
	TaxYearEnd  string `short:"d" required:"" env:"CAPITALG_TAX_YEAR_END" help:"The last day of the tax year (YYYY-MM-DD)."`
	FolderPath  string `short:"p" default:"files" type:"path" env:"CAPITALG_FOLDER_PATH" help:"Folder containing the output files."`
	TaxCurrency string `short:"c" env:"CAPITALG_TAX_CURRENCY" help:"Show amounts as money in this currency."`
}

func (cmd *SummaryCmd) Run(ctx *kong.Context, globals *Globals) error {
	// Event dates are written without an offset, so the window is compared
	// on wall clock time.
	year, err := record.ParseTaxYear(cmd.TaxYearEnd, time.UTC)
	if err != nil {
		return err
	}
	if cmd.TaxCurrency != "" {
		if err := config.ValidateCurrency(cmd.TaxCurrency); err != nil {
			return err
		}
	}

	summary, err := report.SummarizeFile(filepath.Join(cmd.FolderPath, loader.FileEvents), year)
	if err != nil {
		renderError(ctx.Stderr, globals, err)
		return NewCommandError(1)
	}

	return writeSummary(ctx.Stdout, summary, cmd.TaxCurrency)
}

func writeSummary(w io.Writer, summary *report.Summary, currency string) error {
	styles := output.NewStyles(w)

	if len(summary.Assets) == 0 {
		printInfof(w, "No capital gains in tax year %s", summary.Year)
		return nil
	}

	amount := func(d decimal.Decimal) cell {
		text := report.FormatGrouped(d, 0)
		if currency != "" {
			text = report.FormatMoney(d, currency)
		}
		return styled(text, func(s string) string { return styles.Gain(d, s) })
	}

	t := &table{}
	t.add(styled("Asset", styles.Keyword), styled("Total", styles.Keyword), styled("Long term", styles.Keyword), styled("Short term", styles.Keyword))
	for _, code := range summary.Codes() {
		gains := summary.Assets[code]
		t.add(styled(code, styles.Asset), amount(gains.Total), amount(gains.LongTerm), amount(gains.ShortTerm))
	}
	t.add(styled("total", styles.Keyword), amount(summary.Total.Total), amount(summary.Total.LongTerm), amount(summary.Total.ShortTerm))

	_, _ = fmt.Fprintf(w, "%s %s\n\n", styles.Keyword("Capital gains"), styles.Dim(summary.Year.String()))
	return t.render(w)
}
