package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"

	errfmt "github.com/robinvdvleuten/capitalg/errors"
	"github.com/robinvdvleuten/capitalg/record"
)

var (
	errCaretStyle   = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#FF5F87", Dark: "#FF5F87"})
	errContextStyle = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#808080", Dark: "#808080"})
)

type positioned interface {
	error
	GetPosition() record.Position
}

type transactional interface {
	positioned
	GetTransaction() record.Transaction
}

// renderError writes err to w as JSON or with row context, depending on
// --error-format.
func renderError(w io.Writer, globals *Globals, err error) {
	if globals.jsonErrors() {
		_, _ = fmt.Fprintln(w, errfmt.NewJSONFormatter().Format(err))
		return
	}
	_, _ = fmt.Fprintln(w, NewErrorRenderer().Render(err))
}

// ErrorRenderer renders errors with terminal styling and the CSV rows they
// point at.
type ErrorRenderer struct {
	readFile func(name string) ([]byte, error)
	sources  map[string][]string
}

// NewErrorRenderer creates a renderer that reads row context from disk.
func NewErrorRenderer() *ErrorRenderer {
	return &ErrorRenderer{
		readFile: os.ReadFile,
		sources:  make(map[string][]string),
	}
}

// Render formats a single error with styling and context.
func (r *ErrorRenderer) Render(err error) string {
	var txnErr transactional
	if errors.As(err, &txnErr) {
		return r.renderWithTransaction(txnErr.GetPosition(), err.Error(), txnErr.GetTransaction())
	}

	var posErr positioned
	if errors.As(err, &posErr) {
		if lines := r.source(posErr.GetPosition().Filename); lines != nil {
			return r.renderWithSourceContext(posErr.GetPosition(), err.Error(), lines)
		}
	}

	return errorStyle.Render(err.Error())
}

func (r *ErrorRenderer) source(filename string) []string {
	if filename == "" {
		return nil
	}
	if lines, ok := r.sources[filename]; ok {
		return lines
	}

	var lines []string
	if data, err := r.readFile(filename); err == nil {
		lines = strings.Split(strings.TrimRight(string(data), "\r\n"), "\n")
		for i, line := range lines {
			lines[i] = strings.TrimRight(line, "\r")
		}
	}
	r.sources[filename] = lines
	return lines
}

// renderWithSourceContext shows the header row, up to two rows before the
// failing one and the failing row itself, marked with a caret.
func (r *ErrorRenderer) renderWithSourceContext(pos record.Position, message string, lines []string) string {
	var buf strings.Builder

	buf.WriteString(errorStyle.Render(message))
	buf.WriteString("\n\n")

	idx := pos.Line - 1
	if idx < 0 || idx >= len(lines) {
		return strings.TrimRight(buf.String(), "\n")
	}

	width := len(fmt.Sprint(pos.Line))
	writeLine := func(i int, marker string) {
		prefix := fmt.Sprintf("%s %*d | ", marker, width, i+1)
		if i == idx {
			buf.WriteString(errCaretStyle.Render(prefix))
			buf.WriteString(lines[i])
		} else {
			buf.WriteString(errContextStyle.Render(prefix + lines[i]))
		}
		buf.WriteByte('\n')
	}

	start := max(idx-2, 1)
	if idx > 0 {
		writeLine(0, " ")
		if start > 1 {
			buf.WriteString(errContextStyle.Render(fmt.Sprintf("  %*s | ...", width, "")))
			buf.WriteByte('\n')
		}
	}
	for i := start; i < idx; i++ {
		writeLine(i, " ")
	}
	writeLine(idx, "^")

	return buf.String()
}

func (r *ErrorRenderer) renderWithContext(message string, txn record.Transaction) string {
	var buf strings.Builder

	buf.WriteString(errorStyle.Render(message))
	buf.WriteString("\n\n")
	buf.WriteString("   ")
	buf.WriteString(errContextStyle.Render(txn.String()))
	buf.WriteByte('\n')

	return buf.String()
}

// renderWithTransaction shows the source row when it can be read and the
// normalized transaction below it. A cross-currency row yields two
// transactions, so the normalized form tells which leg failed.
func (r *ErrorRenderer) renderWithTransaction(pos record.Position, message string, txn record.Transaction) string {
	lines := r.source(pos.Filename)
	if lines == nil {
		return r.renderWithContext(message, txn)
	}

	var buf strings.Builder
	buf.WriteString(r.renderWithSourceContext(pos, message, lines))
	buf.WriteString("\n   ")
	buf.WriteString(errContextStyle.Render(txn.String()))
	buf.WriteByte('\n')
	return buf.String()
}
