package cli

import (
	"io"
	"path/filepath"

	"github.com/alecthomas/kong"

	"github.com/robinvdvleuten/capitalg/config"
	"github.com/robinvdvleuten/capitalg/loader"
	"github.com/robinvdvleuten/capitalg/output"
	"github.com/robinvdvleuten/capitalg/report"
)

// balancePlaces is the precision balances are printed with.
const balancePlaces = 4

type BalanceCmd struct {
	TaxCurrency string `short:"c" required:"" env:"CAPITALG_TAX_CURRENCY" help:"Currency in which tax is paid."`
	FolderPath  string `short:"p" default:"files" type:"path" env:"CAPITALG_FOLDER_PATH" help:"Folder containing the input and output files."`
}

func (cmd *BalanceCmd) Run(ctx *kong.Context, globals *Globals) error {
	if err := config.ValidateCurrency(cmd.TaxCurrency); err != nil {
		return err
	}

	balance, err := report.EstimateFiles(
		filepath.Join(cmd.FolderPath, loader.FileTransactions),
		filepath.Join(cmd.FolderPath, loader.FileUnallocated),
		cmd.TaxCurrency,
	)
	if err != nil {
		renderError(ctx.Stderr, globals, err)
		return NewCommandError(1)
	}

	return writeBalance(ctx.Stdout, balance)
}

func writeBalance(w io.Writer, balance report.Balance) error {
	styles := output.NewStyles(w)

	if len(balance) == 0 {
		printInfof(w, "No assets held")
		return nil
	}

	t := &table{}
	for _, code := range balance.Codes() {
		qty := balance[code]
		amount := plain(report.FormatGrouped(qty, balancePlaces))
		if qty.IsNegative() {
			amount.style = styles.Warning
		}
		t.add(styled(code, styles.Asset), amount)
	}
	return t.render(w)
}
