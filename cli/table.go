package cli

import (
	"io"
	"strings"

	"github.com/mattn/go-runewidth"
)

type cell struct {
	text  string
	style func(string) string
}

func plain(text string) cell {
	return cell{text: text}
}

func styled(text string, style func(string) string) cell {
	return cell{text: text, style: style}
}

// table prints rows in aligned columns. The first column is left aligned,
// the others hold amounts and are right aligned. Widths are measured before
// styling so escape sequences do not shift the columns.
type table struct {
	rows [][]cell
}

func (t *table) add(cells ...cell) {
	t.rows = append(t.rows, cells)
}

func (t *table) render(w io.Writer) error {
	var widths []int
	for _, row := range t.rows {
		for i, c := range row {
			if i >= len(widths) {
				widths = append(widths, 0)
			}
			widths[i] = max(widths[i], runewidth.StringWidth(c.text))
		}
	}

	var b strings.Builder
	for _, row := range t.rows {
		for i, c := range row {
			if i > 0 {
				b.WriteString("  ")
			}

			var text string
			switch {
			case i == 0 && i == len(row)-1:
				text = c.text
			case i == 0:
				text = runewidth.FillRight(c.text, widths[i])
			default:
				text = runewidth.FillLeft(c.text, widths[i])
			}

			if c.style != nil {
				text = c.style(text)
			}
			b.WriteString(text)
		}
		b.WriteByte('\n')
	}

	_, err := io.WriteString(w, b.String())
	return err
}
