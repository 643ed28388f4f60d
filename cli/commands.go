package cli

import "github.com/alecthomas/kong"

// Globals defines global flags available to all commands.
type Globals struct {
	Telemetry   bool            `help:"Show timing telemetry for operations."`
	Config      kong.ConfigFlag `help:"Path to a YAML config file." placeholder:"FILE"`
	ErrorFormat string          `enum:"text,json" default:"text" help:"Format of error output (${enum})."`
}

func (g *Globals) jsonErrors() bool {
	return g != nil && g.ErrorFormat == "json"
}

type Commands struct {
	Globals

	Calculate CalculateCmd `cmd:"" help:"Calculate capital gains from a folder of transactions."`
	Summary   SummaryCmd   `cmd:"" help:"Summarize the capital gains of a tax year."`
	Balance   BalanceCmd   `cmd:"" help:"Estimate the balance of each asset still held."`
}
