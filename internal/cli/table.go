package cli

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Table renders rows in aligned columns. Widths are measured in terminal
// cells so styled cells (swatches) line up.
type Table struct {
	headers   []string
	rows      [][]string
	padding   int
	maxWidths map[int]int // 0 or absent means unlimited
}

// NewTable creates a table with the given headers.
func NewTable(headers []string) *Table {
	return &Table{
		headers:   headers,
		padding:   2,
		maxWidths: make(map[int]int),
	}
}

// SetColumnMaxWidth wraps text in column col at maxWidth cells.
func (t *Table) SetColumnMaxWidth(col, maxWidth int) {
	t.maxWidths[col] = maxWidth
}

// AddRow adds a row, padding or truncating it to the header count.
func (t *Table) AddRow(row []string) {
	fitted := make([]string, len(t.headers))
	copy(fitted, row)
	t.rows = append(t.rows, fitted)
}

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.rows) }

// Render returns the table with a dashed separator under the headers.
func (t *Table) Render() string {
	if len(t.headers) == 0 {
		return ""
	}

	cells := make([][][]string, len(t.rows))
	widths := make([]int, len(t.headers))
	for i, h := range t.headers {
		widths[i] = lipgloss.Width(h)
	}
	for r, row := range t.rows {
		cells[r] = make([][]string, len(row))
		for c, cell := range row {
			lines := wrapText(cell, t.maxWidths[c])
			cells[r][c] = lines
			for _, line := range lines {
				widths[c] = max(widths[c], lipgloss.Width(line))
			}
		}
	}

	gap := strings.Repeat(" ", t.padding)
	var b strings.Builder
	writeLine := func(parts []string) {
		b.WriteString(strings.TrimRight(strings.Join(parts, gap), " "))
		b.WriteByte('\n')
	}

	parts := make([]string, len(t.headers))
	for i, h := range t.headers {
		parts[i] = padRight(h, widths[i])
	}
	writeLine(parts)
	for i, w := range widths {
		parts[i] = strings.Repeat("-", w)
	}
	writeLine(parts)

	for _, row := range cells {
		height := 1
		for _, lines := range row {
			height = max(height, len(lines))
		}
		for line := range height {
			for c := range t.headers {
				text := ""
				if line < len(row[c]) {
					text = row[c][line]
				}
				parts[c] = padRight(text, widths[c])
			}
			writeLine(parts)
		}
	}
	return b.String()
}

func padRight(s string, width int) string {
	if w := lipgloss.Width(s); w < width {
		return s + strings.Repeat(" ", width-w)
	}
	return s
}

// wrapText breaks text at spaces so no line exceeds width cells. Words
// longer than width are split. A width of zero disables wrapping.
func wrapText(text string, width int) []string {
	if width <= 0 || len(text) <= width {
		return []string{text}
	}
	words := strings.Fields(text)
	if len(words) == 0 {
		return []string{text}
	}

	var lines []string
	current := ""
	for _, word := range words {
		for len(word) > width {
			if current != "" {
				lines = append(lines, current)
				current = ""
			}
			lines = append(lines, word[:width])
			word = word[width:]
		}
		switch {
		case current == "":
			current = word
		case len(current)+1+len(word) <= width:
			current += " " + word
		default:
			lines = append(lines, current)
			current = word
		}
	}
	if current != "" {
		lines = append(lines, current)
	}
	return lines
}
