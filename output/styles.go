// Package output provides styling helpers for terminal output.
package output

import (
	"io"

	"github.com/muesli/termenv"
	"github.com/shopspring/decimal"
)

// Styles provides styled output helpers for the CLI. When the writer is not a
// terminal termenv degrades to plain text.
type Styles struct {
	output *termenv.Output
}

// NewStyles creates a new Styles instance for the given writer.
func NewStyles(w io.Writer) *Styles {
	return &Styles{
		output: termenv.NewOutput(w),
	}
}

// FilePath returns a styled file path (cyan).
func (s *Styles) FilePath(text string) string {
	return s.output.String(text).
		Foreground(s.output.Color("6")).
		String()
}

// Asset returns a styled asset code (yellow).
func (s *Styles) Asset(text string) string {
	return s.output.String(text).
		Foreground(s.output.Color("3")).
		String()
}

// Gain colors an amount by its sign: green for gains, red for losses and
// plain for zero. text is the already formatted amount.
func (s *Styles) Gain(amount decimal.Decimal, text string) string {
	switch amount.Sign() {
	case 1:
		return s.output.String(text).Foreground(s.output.Color("2")).String()
	case -1:
		return s.output.String(text).Foreground(s.output.Color("1")).String()
	default:
		return text
	}
}

// Keyword returns a styled keyword (bold).
func (s *Styles) Keyword(text string) string {
	return s.output.String(text).
		Bold().
		String()
}

// Dim returns dimmed text (for secondary information).
func (s *Styles) Dim(text string) string {
	return s.output.String(text).
		Faint().
		String()
}

// Warning returns a styled warning (yellow + bold).
func (s *Styles) Warning(text string) string {
	return s.output.String(text).
		Foreground(s.output.Color("3")).
		Bold().
		String()
}
