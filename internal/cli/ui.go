package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/tabledraw/pkg/layout"
)

var (
	colorCyan   = lipgloss.Color("36")
	colorGreen  = lipgloss.Color("35")
	colorYellow = lipgloss.Color("220")
	colorRed    = lipgloss.Color("167")
	colorBlue   = lipgloss.Color("75")
	colorWhite  = lipgloss.Color("255")
	colorGray   = lipgloss.Color("245")
	colorDim    = lipgloss.Color("240")
)

var (
	StyleTitle  = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	StyleDim    = lipgloss.NewStyle().Foreground(colorDim)
	StyleValue  = lipgloss.NewStyle().Foreground(colorWhite)
	StyleNumber = lipgloss.NewStyle().Foreground(colorCyan)

	styleIconSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	styleIconError   = lipgloss.NewStyle().Foreground(colorRed)
	styleIconInfo    = lipgloss.NewStyle().Foreground(colorGray)
	styleIconSpinner = lipgloss.NewStyle().Foreground(colorCyan)
	styleKey         = lipgloss.NewStyle().Foreground(colorGray).Width(12)
	styleCommand     = lipgloss.NewStyle().Foreground(colorBlue)
	styleTableHeader = lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	styleTableBorder = lipgloss.NewStyle().Foreground(colorDim)
)

// statusColors maps the item fills written into pages to terminal colours.
var statusColors = map[string]lipgloss.Color{
	layout.FillRed:   colorRed,
	layout.FillAmber: colorYellow,
	layout.FillGreen: colorGreen,
}

const (
	iconSuccess = "✓"
	iconError   = "✗"
	iconInfo    = "›"
	iconArrow   = "→"
	iconItem    = "■"
	sep         = " · "
)

// statusLine writes an icon-prefixed message to the command output.
func (c *CLI) statusLine(icon string, style lipgloss.Style, format string, args ...any) {
	fmt.Fprintln(c.out, style.Render(icon)+" "+fmt.Sprintf(format, args...))
}

func (c *CLI) success(format string, args ...any) {
	c.statusLine(iconSuccess, styleIconSuccess, format, args...)
}

func (c *CLI) failure(format string, args ...any) {
	c.statusLine(iconError, styleIconError, format, args...)
}

func (c *CLI) info(format string, args ...any) {
	c.statusLine(iconInfo, styleIconInfo, format, args...)
}

// detail writes an indented, dimmed line.
func (c *CLI) detail(format string, args ...any) {
	fmt.Fprintln(c.out, "  "+StyleDim.Render(fmt.Sprintf(format, args...)))
}

// file writes a path produced by the command.
func (c *CLI) file(path string) {
	fmt.Fprintln(c.out, "  "+StyleDim.Render(iconArrow)+" "+StyleValue.Render(path))
}

func (c *CLI) keyValue(key, value string) {
	fmt.Fprintln(c.out, styleKey.Render(key)+" "+StyleValue.Render(value))
}

// docStats writes the page, shape and connector counts of one document and
// whether its pages came from the cache.
func (c *CLI) docStats(pages, vertices, edges int, cached bool) {
	source := lipgloss.NewStyle().Foreground(colorGray).Render("fresh")
	if cached {
		source = styleIconSuccess.Render("cached")
	}
	parts := []string{
		StyleDim.Render(fmt.Sprintf("%d pages", pages)),
		StyleDim.Render(fmt.Sprintf("%d shapes", vertices)),
		StyleDim.Render(fmt.Sprintf("%d connectors", edges)),
		source,
	}
	fmt.Fprintln(c.out, "  "+strings.Join(parts, StyleDim.Render(sep)))
}

// nextStep suggests a follow-up command.
func (c *CLI) nextStep(description, cmd string) {
	fmt.Fprintln(c.out)
	fmt.Fprintln(c.out, StyleDim.Render(description+":")+" "+styleCommand.Render(cmd))
}

// renderTable renders rows under headers; columns after the first are
// numeric.
func renderTable(headers []string, rows [][]string) string {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(styleTableBorder).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return styleTableHeader.Padding(0, 1)
			case col > 0:
				return StyleNumber.Padding(0, 1)
			}
			return StyleValue.Padding(0, 1)
		}).
		Render()
}
