// Package cli implements the capitalg commands.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/robinvdvleuten/capitalg/output"
	"github.com/robinvdvleuten/capitalg/telemetry"
)

var (
	successSymbol = "✓"
	errorSymbol   = "✗"
	infoSymbol    = "→"

	successStyle = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#00D787", Dark: "#00D787"})
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#FF5F87", Dark: "#FF5F87"})
	infoStyle    = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#5FAFFF", Dark: "#5FAFFF"})
	pathStyle    = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#00D7D7", Dark: "#00D7D7"})
)

func printSuccess(w io.Writer, message string) {
	_, _ = fmt.Fprintf(w, "%s %s\n",
		successStyle.Render(successSymbol),
		message,
	)
}

func printError(w io.Writer, message string) {
	_, _ = fmt.Fprintf(w, "%s %s\n",
		errorStyle.Render(errorSymbol),
		errorStyle.Render(message),
	)
}

func printInfof(w io.Writer, format string, args ...any) {
	formatted := fmt.Sprintf(format, args...)
	_, _ = fmt.Fprintf(w, "%s %s\n",
		infoStyle.Render(infoSymbol),
		formatted,
	)
}

// promptYesNo prompts the user with a yes/no question.
// Returns false by default if stdin is not a terminal.
func promptYesNo(question string) (bool, error) {
	if !isTerminal() {
		return false, nil
	}

	var confirm bool

	form := huh.NewConfirm().
		Title(question).
		WithButtonAlignment(lipgloss.Left).
		Value(&confirm)

	err := form.Run()
	if err != nil {
		return false, fmt.Errorf("failed to read response: %w", err)
	}

	return confirm, nil
}

func isTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// startTelemetry attaches a timing collector to ctx when --telemetry is set.
// The returned report func ends the root timer and prints the timing tree to
// w; it only reports once.
func startTelemetry(ctx context.Context, globals *Globals, name string, w io.Writer) (context.Context, func()) {
	if globals == nil || !globals.Telemetry {
		return ctx, func() {}
	}

	collector := telemetry.NewTimingCollector()
	ctx = telemetry.WithCollector(ctx, collector)

	root := collector.Start(name)
	ctx = telemetry.WithRootTimer(ctx, root)

	var once sync.Once
	return ctx, func() {
		once.Do(func() {
			root.End()
			_, _ = fmt.Fprintln(w)
			collector.Report(w, output.NewStyles(w))
		})
	}
}
