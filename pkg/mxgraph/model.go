// Package mxgraph assembles laid-out pages into flat draw.io cell lists.
//
// Every model starts with the two structural cells draw.io expects: the root
// cell "0" and the default layer "1", which is the parent of every visible
// cell. Visible cells follow in creation order: the header, then for each
// sub-header its vertex, the edge into it, and each of its items followed by
// the edge into that item.
package mxgraph

import (
	"fmt"

	"github.com/matzehuels/tabledraw/pkg/config"
	"github.com/matzehuels/tabledraw/pkg/layout"
)

// Structural cell ids.
const (
	RootID  = "0"
	LayerID = "1"
)

// Geometry is the mxGeometry of a cell. Vertices use the rectangle; edges
// are relative and carry anchor and bend points.
type Geometry struct {
	X, Y          float64
	Width, Height float64

	Relative    bool
	SourcePoint *layout.Point
	TargetPoint *layout.Point
	Points      []layout.Point
}

// Cell is one mxCell.
type Cell struct {
	ID     string
	Value  string
	Style  string
	Parent string
	Vertex bool
	Edge   bool
	Source string
	Target string

	// Geometry is nil for the structural cells.
	Geometry *Geometry
}

// Structural reports whether c is the root or default layer cell.
func (c Cell) Structural() bool { return c.Geometry == nil }

// Model is the cell list of one page together with its canvas attributes.
type Model struct {
	Name  string
	Page  config.Page
	Cells []Cell
}

// Assemble converts a layout into a model, drawing one id per visible cell
// from ids.
func Assemble(l *layout.Layout, page config.Page, ids IDGenerator) *Model {
	m := &Model{
		Name:  l.Header,
		Page:  page,
		Cells: make([]Cell, 0, 2+len(l.Nodes)+len(l.Edges)),
	}
	m.Cells = append(m.Cells, Cell{ID: RootID}, Cell{ID: LayerID, Parent: RootID})

	nodeIDs := make([]string, len(l.Nodes))
	for i, n := range l.Nodes {
		nodeIDs[i] = ids.NewID()
		m.Cells = append(m.Cells, vertex(nodeIDs[i], n))
		if e := l.EdgeInto(i); e != nil {
			m.Cells = append(m.Cells, edge(ids.NewID(), nodeIDs[e.Source], nodeIDs[i], *e))
		}
	}
	return m
}

func vertex(id string, n layout.Node) Cell {
	return Cell{
		ID:     id,
		Value:  n.Value,
		Style:  n.Style,
		Parent: LayerID,
		Vertex: true,
		Geometry: &Geometry{
			X:      n.X,
			Y:      n.Y,
			Width:  n.Width,
			Height: n.Height,
		},
	}
}

func edge(id, source, target string, e layout.Edge) Cell {
	src, dst := e.SourcePoint, e.TargetPoint
	return Cell{
		ID:     id,
		Style:  e.Style,
		Parent: LayerID,
		Edge:   true,
		Source: source,
		Target: target,
		Geometry: &Geometry{
			Relative:    true,
			SourcePoint: &src,
			TargetPoint: &dst,
			Points:      append([]layout.Point(nil), e.Points...),
		},
	}
}

// Counts returns the number of vertex and edge cells.
func (m *Model) Counts() (vertices, edges int) {
	for _, c := range m.Cells {
		switch {
		case c.Vertex:
			vertices++
		case c.Edge:
			edges++
		}
	}
	return vertices, edges
}

// Validate checks that ids are unique and that every parent, source and
// target reference resolves to a cell in the model.
func (m *Model) Validate() error {
	seen := make(map[string]bool, len(m.Cells))
	for _, c := range m.Cells {
		if c.ID == "" {
			return fmt.Errorf("page %q: cell without id", m.Name)
		}
		if seen[c.ID] {
			return fmt.Errorf("page %q: duplicate cell id %q", m.Name, c.ID)
		}
		seen[c.ID] = true
	}
	for _, c := range m.Cells {
		refs := []string{c.Parent}
		if c.Edge {
			refs = append(refs, c.Source, c.Target)
		}
		for _, ref := range refs {
			if ref != "" && !seen[ref] {
				return fmt.Errorf("page %q: cell %q references missing cell %q", m.Name, c.ID, ref)
			}
		}
		if c.Edge && (c.Source == "" || c.Target == "") {
			return fmt.Errorf("page %q: edge %q is not connected", m.Name, c.ID)
		}
	}
	return nil
}
