package cli

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

var (
	colorCyan   = lipgloss.Color("36")
	colorGreen  = lipgloss.Color("35")
	colorYellow = lipgloss.Color("220")
	colorDim    = lipgloss.Color("240")
	colorGray   = lipgloss.Color("245")
)

var (
	StyleTitle   = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	StyleNumber  = lipgloss.NewStyle().Foreground(colorCyan)
	StyleDim     = lipgloss.NewStyle().Foreground(colorDim)
	StyleSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	StyleWarning = lipgloss.NewStyle().Foreground(colorYellow)
	StyleHeader  = lipgloss.NewStyle().Bold(true).Foreground(colorGray).Padding(0, 1)
	StyleCell    = lipgloss.NewStyle().Padding(0, 1)
)

func printTitle(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, StyleTitle.Render(fmt.Sprintf(format, args...)))
}

func printSuccess(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, StyleSuccess.Render("✓ "+fmt.Sprintf(format, args...)))
}

func printWarning(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, StyleWarning.Render("! "+fmt.Sprintf(format, args...)))
}

func printDetail(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, StyleDim.Render("  "+fmt.Sprintf(format, args...)))
}

// printTable draws rows under headers with a rounded border. Cells are
// measured by display width, so styled values keep their column.
func printTable(w io.Writer, headers []string, rows [][]string) {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return StyleHeader
			}
			return StyleCell
		})
	fmt.Fprintln(w, t.Render())
}
