package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
	panelStyle        = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(colorDim).
				Padding(0, 1)
)

// =============================================================================
// PageBrowserModel - Interactive page browser
// =============================================================================

// PageBrowserModel is the bubbletea model for browsing document pages. The
// left panel lists pages, the right panel shows the selected page's
// sub-headers and items.
type PageBrowserModel struct {
	Title  string
	Pages  []pageSummary
	Cursor int
	Height int
	Offset int
}

func newPageBrowser(title string, pages []pageSummary) PageBrowserModel {
	return PageBrowserModel{
		Title:  title,
		Pages:  pages,
		Height: 15,
	}
}

func (m PageBrowserModel) Init() tea.Cmd {
	return nil
}

func (m PageBrowserModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
				if m.Cursor < m.Offset {
					m.Offset = m.Cursor
				}
			}
		case "down", "j":
			if m.Cursor < len(m.Pages)-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case "home", "g":
			m.Cursor, m.Offset = 0, 0
		case "end", "G":
			m.Cursor = max(len(m.Pages)-1, 0)
			m.Offset = max(m.Cursor-m.Height+1, 0)
		}
	case tea.WindowSizeMsg:
		m.Height = max(msg.Height-6, 5)
	}
	return m, nil
}

func (m PageBrowserModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render(m.Title))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  q quit"))
	b.WriteString("\n\n")

	if len(m.Pages) == 0 {
		b.WriteString(listDimStyle.Render("no pages"))
		return b.String()
	}

	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
		panelStyle.Render(m.pageList()),
		panelStyle.Render(m.pageDetail(m.Pages[m.Cursor])),
	))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(m.Pages))))
	return b.String()
}

func (m PageBrowserModel) pageList() string {
	end := min(m.Offset+m.Height, len(m.Pages))
	lines := make([]string, 0, end-m.Offset)
	for i := m.Offset; i < end; i++ {
		p := m.Pages[i]
		if i == m.Cursor {
			lines = append(lines, listSelectedStyle.Render("▸ "+p.Name))
			continue
		}
		lines = append(lines, listNormalStyle.Render("  "+p.Name))
	}
	return strings.Join(lines, "\n")
}

func (m PageBrowserModel) pageDetail(p pageSummary) string {
	var b strings.Builder
	b.WriteString(StyleTitle.Render(p.Name))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("%d shapes · %d connectors", p.Vertices, p.Edges)))
	b.WriteString("\n")

	if len(p.Groups) == 0 {
		b.WriteString("\n")
		b.WriteString(listDimStyle.Render("no sub-headers"))
		return b.String()
	}
	for _, g := range p.Groups {
		b.WriteString("\n")
		b.WriteString(listNormalStyle.Render(g.Name))
		b.WriteString(listDimStyle.Render(fmt.Sprintf(" (%d)", len(g.Items))))
		for _, it := range g.Items {
			b.WriteString("\n  ")
			b.WriteString(lipgloss.NewStyle().Foreground(statusColors[it.Fill]).Render(iconItem))
			b.WriteString(" ")
			b.WriteString(it.Name)
		}
	}
	return b.String()
}
