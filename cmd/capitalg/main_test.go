package main

import (
	"testing"

	"github.com/alecthomas/assert/v2"
	"github.com/alecthomas/kong"
)

func parse(t *testing.T, args ...string) (*CLI, *kong.Context) {
	t.Helper()

	var app CLI
	parser, err := kong.New(&app, append(options(&app), kong.Exit(func(int) { t.Fatal("unexpected exit") }))...)
	assert.NoError(t, err)

	ctx, err := parser.Parse(args)
	assert.NoError(t, err)
	return &app, ctx
}

func TestCalculateFlags(t *testing.T) {
	app, ctx := parse(t, "calculate", "-q", "lifo", "-c", "aud", "-d", "2019-06-30", "-t", "Australia/Sydney")
	assert.Equal(t, "calculate", ctx.Command())
	assert.Equal(t, "lifo", app.Calculate.QueueType)
	assert.Equal(t, "aud", app.Calculate.TaxCurrency)
	assert.Equal(t, "2019-06-30", app.Calculate.TaxYearEnd)
	assert.Equal(t, "Australia/Sydney", app.Calculate.Timezone)
	assert.False(t, app.Calculate.Watch)
	assert.Equal(t, "text", app.ErrorFormat)
}

func TestCalculateEnvironment(t *testing.T) {
	t.Setenv("CAPITALG_QUEUE_TYPE", "fifo")
	t.Setenv("CAPITALG_TAX_CURRENCY", "usd")
	t.Setenv("CAPITALG_TAX_YEAR_END", "2020-12-31")

	app, _ := parse(t, "calculate")
	assert.Equal(t, "fifo", app.Calculate.QueueType)
	assert.Equal(t, "usd", app.Calculate.TaxCurrency)
	assert.Equal(t, "2020-12-31", app.Calculate.TaxYearEnd)
	assert.Equal(t, "UTC", app.Calculate.Timezone)
}

func TestInvalidQueueType(t *testing.T) {
	var app CLI
	parser, err := kong.New(&app, options(&app)...)
	assert.NoError(t, err)

	_, err = parser.Parse([]string{"calculate", "-q", "hifo", "-c", "aud", "-d", "2019-06-30"})
	assert.Error(t, err)
}

func TestBuildVersion(t *testing.T) {
	Version, CommitSHA = "", ""
	assert.Equal(t, "dev", buildVersion())

	Version, CommitSHA = "1.2.0", "abc123"
	assert.Equal(t, "1.2.0 (abc123)", buildVersion())
	Version, CommitSHA = "", ""
}
