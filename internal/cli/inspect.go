package cli

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/matzehuels/tabledraw/pkg/drawio"
	"github.com/matzehuels/tabledraw/pkg/errors"
	"github.com/matzehuels/tabledraw/pkg/mxgraph"
)

// pageSummary is the decoded structure of one diagram page.
type pageSummary struct {
	Name     string
	Vertices int
	Edges    int
	Groups   []groupSummary
}

// Items returns the number of items across all groups.
func (p pageSummary) Items() int {
	n := 0
	for _, g := range p.Groups {
		n += len(g.Items)
	}
	return n
}

type groupSummary struct {
	Name  string
	Items []itemSummary
}

type itemSummary struct {
	Name string
	Fill string
}

// inspectCommand creates the inspect command.
func (c *CLI) inspectCommand() *cobra.Command {
	var interactive bool

	cmd := &cobra.Command{
		Use:   "inspect <file.drawio>",
		Short: "Decode a draw.io document and summarize its pages",
		Long: `Decode a draw.io document and summarize its pages.

Every page is inflated and parsed. The summary lists the shapes and
connectors per page and the header / sub-header / item structure recovered
from the connectors. Use --interactive to browse pages in the terminal.`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeFiles(documentExts),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runInspect(cmd.Context(), args[0], interactive)
		},
	}

	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "browse pages interactively")

	return cmd
}

func (c *CLI) runInspect(ctx context.Context, path string, interactive bool) error {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return errors.Wrap(errors.ErrCodeFileNotFound, err, "document %s", path)
	}
	if err != nil {
		return err
	}

	doc, err := drawio.ParseDocument(data)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	pages := make([]pageSummary, len(doc.Pages))
	for i, p := range doc.Pages {
		m, err := p.Model()
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		pages[i] = summarizePage(m)
	}

	if interactive {
		_, err := tea.NewProgram(newPageBrowser(path, pages), tea.WithContext(ctx)).Run()
		return err
	}

	fmt.Fprintln(c.out, StyleTitle.Render(path))
	fmt.Fprintln(c.out, StyleDim.Render(fmt.Sprintf("%s · %s · modified %s",
		doc.Host, doc.Agent, doc.Modified.UTC().Format(drawio.ModifiedLayout))))

	rows := make([][]string, len(pages))
	for i, p := range pages {
		rows[i] = []string{
			p.Name,
			strconv.Itoa(len(p.Groups)),
			strconv.Itoa(p.Items()),
			strconv.Itoa(p.Vertices),
			strconv.Itoa(p.Edges),
		}
	}
	fmt.Fprintln(c.out, renderTable([]string{"Page", "Sub-headers", "Items", "Shapes", "Connectors"}, rows))
	return nil
}

// summarizePage recovers the hierarchy from a decoded page. The first vertex
// is the header; edges leaving it reach sub-headers, and edges leaving a
// sub-header reach its items.
func summarizePage(m *mxgraph.Model) pageSummary {
	s := pageSummary{Name: m.Name}
	s.Vertices, s.Edges = m.Counts()

	cells := make(map[string]mxgraph.Cell, len(m.Cells))
	header := ""
	for _, c := range m.Cells {
		cells[c.ID] = c
		if c.Vertex && header == "" {
			header = c.ID
		}
	}

	groups := make(map[string]int)
	for _, c := range m.Cells {
		if !c.Edge {
			continue
		}
		target, ok := cells[c.Target]
		if !ok {
			continue
		}
		if c.Source == header {
			groups[target.ID] = len(s.Groups)
			s.Groups = append(s.Groups, groupSummary{Name: target.Value})
			continue
		}
		if gi, ok := groups[c.Source]; ok {
			s.Groups[gi].Items = append(s.Groups[gi].Items, itemSummary{
				Name: target.Value,
				Fill: styleValue(target.Style, "fillColor"),
			})
		}
	}
	return s
}

// styleValue returns the value of key in a draw.io style string.
func styleValue(style, key string) string {
	for _, kv := range strings.Split(style, ";") {
		if k, v, ok := strings.Cut(kv, "="); ok && k == key {
			return v
		}
	}
	return ""
}
