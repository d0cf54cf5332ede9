// Package preview draws a sheet for the terminal: pages stacked vertically,
// each with its three columns side by side.
package preview

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/starford/cheatsheet/internal/markup"
	"github.com/starford/cheatsheet/internal/models"
)

// DefaultWidth is used when the terminal width is unknown.
const DefaultWidth = 120

const columnGap = 2

var (
	colorAccent = lipgloss.Color("36")  // Teal
	colorMark   = lipgloss.Color("220") // Amber
	colorDim    = lipgloss.Color("240") // Dim gray

	styleTitle  = lipgloss.NewStyle().Bold(true).Foreground(colorAccent)
	styleDim    = lipgloss.NewStyle().Foreground(colorDim)
	styleBlock  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(colorDim).Padding(0, 1)
	styleStrong = styleBlock.BorderForeground(colorMark).Bold(true)
)

// Sheet renders doc within width terminal cells.
func Sheet(doc models.Document, width int) string {
	if width <= 0 {
		width = DefaultWidth
	}
	colWidth := (width - columnGap*(models.ColumnsPerPage-1)) / models.ColumnsPerPage
	if colWidth < 8 {
		colWidth = 8
	}

	var out []string
	for p, page := range doc.Pages {
		out = append(out, styleTitle.Render(fmt.Sprintf("Page %d", p+1)))
		cols := make([]string, 0, 2*models.ColumnsPerPage-1)
		for c, col := range page {
			if c > 0 {
				cols = append(cols, strings.Repeat(" ", columnGap))
			}
			cols = append(cols, column(col, colWidth))
		}
		out = append(out, lipgloss.JoinHorizontal(lipgloss.Top, cols...), "")
	}
	return strings.Join(out, "\n")
}

func column(col models.Column, width int) string {
	if len(col) == 0 {
		return lipgloss.NewStyle().Width(width).Render(styleDim.Render("(empty)"))
	}
	parts := make([]string, 0, len(col))
	for _, b := range col {
		parts = append(parts, block(b, width))
	}
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func block(b models.Block, width int) string {
	switch b.Kind {
	case models.KindSingleDivider:
		return styleDim.Render(strings.Repeat("─", width))
	case models.KindDoubleDivider:
		return styleDim.Render(strings.Repeat("═", width))
	}

	text, err := markup.UnicodeTypesetter{}.Typeset(context.Background(), b.Content)
	if err != nil {
		text = b.Content
	}

	st := styleBlock
	if b.Emphasized {
		st = styleStrong
	}
	// Border and padding take four cells.
	inner := width - 4
	body := lipgloss.NewStyle().Width(inner).Align(horizontal(b.HAlign)).Render(text)

	size := "auto"
	if !b.AutoHeight {
		size = b.Height
	}
	footer := styleDim.Render(fmt.Sprintf("%s · %s · %d%%", b.Kind, size, b.FontScale))

	return st.Render(lipgloss.JoinVertical(lipgloss.Left, body, footer))
}

func horizontal(a models.Align) lipgloss.Position {
	switch a {
	case models.AlignStart:
		return lipgloss.Left
	case models.AlignEnd:
		return lipgloss.Right
	default:
		return lipgloss.Center
	}
}
