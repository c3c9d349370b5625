package cli

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

var styles = newPalette("#7D56F4", "#04B575", "#FF4D4D", "#FFA500", "#626262")

// palette holds the named styles used for command output.
type palette struct {
	title  lipgloss.Style
	ok     lipgloss.Style
	err    lipgloss.Style
	warn   lipgloss.Style
	muted  lipgloss.Style
	header lipgloss.Style
	cell   lipgloss.Style
}

func newPalette(title, ok, err, warn, muted string) palette {
	return palette{
		title:  newBold(title),
		ok:     newBold(ok),
		err:    newBold(err),
		warn:   newStyle(warn),
		muted:  newStyle(muted).Italic(true),
		header: newBold(title).Padding(0, 1),
		cell:   lipgloss.NewStyle().Padding(0, 1),
	}
}

func newStyle(fg string) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(fg))
}

func newBold(fg string) lipgloss.Style {
	return newStyle(fg).Bold(true)
}

// renderTable draws rows under headers with the palette's table styles.
func renderTable(headers []string, rows [][]string) string {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(styles.muted).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return styles.header
			}
			return styles.cell
		}).
		String()
}
