// Package layout computes page geometry for one Header of a grouped table.
//
// The engine places a fixed three-tier hierarchy: the header at the top
// left, its sub-headers stacked below it with an indent, and each
// sub-header's items to the right of it, wrapped into rows of at most
// layout.item_wrap_limit items.
//
// Layout runs in two passes. The first pass assigns every item a column and
// tracks the rightmost item edge, which fixes the header width. The second
// pass places every node top to bottom and routes the connectors.
package layout

import (
	"math"

	"github.com/matzehuels/tabledraw/pkg/config"
	"github.com/matzehuels/tabledraw/pkg/errors"
	"github.com/matzehuels/tabledraw/pkg/table"
)

// Edge kinds.
const (
	EdgeHeader = "header"
	EdgeItem   = "item"
)

// Connector styles.
const (
	HeaderEdgeStyle = "edgeStyle=orthogonalEdgeStyle;exitX=0.5;exitY=1;entryX=0;entryY=0.5;"
	ItemEdgeStyle   = "edgeStyle=orthogonalEdgeStyle;exitX=0.5;exitY=1;entryX=0.5;entryY=0;entryDx=0;entryDy=0;"
)

// ItemBendOffset is the distance above an item's top edge at which its
// connector turns horizontal.
const ItemBendOffset = 20

// Node is a positioned vertex.
type Node struct {
	Kind  string
	Value string
	Style string
	Block
}

// Edge is a routed connector between two nodes, referenced by index into
// [Layout.Nodes].
type Edge struct {
	Kind        string
	Style       string
	Source      int
	Target      int
	SourcePoint Point
	TargetPoint Point
	Points      []Point
}

// Group records which nodes belong to one sub-header.
type Group struct {
	Subheader int
	Items     []int
	Rows      int
}

// Layout is the geometry of one page.
//
// Nodes[0] is the header. Nodes are stored in creation order: each
// sub-header is followed by its items. Every other node has exactly one
// incoming edge, and Edges[i-1] is the edge into Nodes[i].
type Layout struct {
	Header string
	Nodes  []Node
	Edges  []Edge
	Groups []Group
}

// EdgeInto returns the edge whose target is Nodes[i], or nil for the header.
func (l *Layout) EdgeInto(i int) *Edge {
	if i < 1 || i > len(l.Edges) {
		return nil
	}
	return &l.Edges[i-1]
}

// Bounds returns the smallest block containing every node.
func (l *Layout) Bounds() Block {
	if len(l.Nodes) == 0 {
		return Block{}
	}
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, n := range l.Nodes {
		minX = math.Min(minX, n.X)
		minY = math.Min(minY, n.Y)
		maxX = math.Max(maxX, n.Right())
		maxY = math.Max(maxY, n.Bottom())
	}
	return Block{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}

// Compute lays out one section. The section is not modified.
//
// An item without a name is a MALFORMED_RECORD error naming the header,
// sub-header and item index. A section without sub-headers yields a lone
// header node.
func Compute(cfg config.Config, s *table.Section) (*Layout, error) {
	wrap := cfg.Layout.ItemWrapLimit
	if wrap < 1 {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "layout.item_wrap_limit must be >= 1, got %d", wrap)
	}
	for _, g := range s.Groups {
		for i, it := range g.Items {
			if it.Name == "" {
				return nil, errors.New(errors.ErrCodeMalformedRecord,
					"header %q, sub-header %q: item %d has no name", s.Name, g.Name, i)
			}
		}
	}

	e := engine{cfg: cfg, wrap: wrap}
	return e.place(s, e.headerWidth(s)), nil
}

type engine struct {
	cfg  config.Config
	wrap int
}

// column returns the x offset of the given item column from the item origin.
func (e engine) column(i int) float64 {
	return float64(i%e.wrap) * e.cfg.Layout.ItemSpacingX
}

// headerWidth is the first pass: the header spans from header_x to one gap
// past the rightmost item.
func (e engine) headerWidth(s *table.Section) float64 {
	lay, sub, item := e.cfg.Layout, e.cfg.Shape.Subheader, e.cfg.Shape.Item
	left := lay.HeaderX + lay.SubheaderIndentX + sub.Width + lay.ItemGapX

	right, found := 0.0, false
	for _, g := range s.Groups {
		for i := range g.Items {
			right = math.Max(right, left+e.column(i)+item.Width)
			found = true
		}
	}
	if !found {
		return math.Max(e.cfg.Shape.Header.Width, lay.SubheaderIndentX+sub.Width+lay.ItemGapX)
	}
	return right - lay.HeaderX + lay.ItemGapX
}

// place is the second pass.
func (e engine) place(s *table.Section, width float64) *Layout {
	lay, shapes := e.cfg.Layout, e.cfg.Shape
	l := &Layout{Header: s.Name}

	header := Block{X: lay.HeaderX, Y: lay.HeaderY, Width: width, Height: shapes.Header.Height}
	l.Nodes = append(l.Nodes, Node{Kind: config.KindHeader, Value: s.Name, Style: shapes.Header.Style, Block: header})

	bendY := header.Bottom() + lay.SubheaderGapY/2
	y := header.Bottom() + lay.SubheaderGapY
	for _, g := range s.Groups {
		sub := Block{X: lay.HeaderX + lay.SubheaderIndentX, Y: y, Width: shapes.Subheader.Width, Height: shapes.Subheader.Height}
		subIdx := len(l.Nodes)
		l.Nodes = append(l.Nodes, Node{Kind: config.KindSubheader, Value: g.Name, Style: shapes.Subheader.Style, Block: sub})
		l.Edges = append(l.Edges, Edge{
			Kind:        EdgeHeader,
			Style:       HeaderEdgeStyle,
			Source:      0,
			Target:      subIdx,
			SourcePoint: header.BottomCenter(),
			TargetPoint: sub.LeftMiddle(),
			Points:      []Point{{header.CenterX(), bendY}, {sub.X, bendY}},
		})

		rows := (len(g.Items) + e.wrap - 1) / e.wrap
		grp := Group{Subheader: subIdx, Rows: rows}
		for i, it := range g.Items {
			row := i / e.wrap
			blk := Block{
				X:      sub.Right() + lay.ItemGapX + e.column(i),
				Y:      sub.Bottom() + lay.ItemGapY + float64(row)*(shapes.Item.Height+lay.ItemGapY),
				Width:  shapes.Item.Width,
				Height: shapes.Item.Height,
			}
			idx := len(l.Nodes)
			l.Nodes = append(l.Nodes, Node{Kind: config.KindItem, Value: it.Name, Style: ItemStyle(it.Status), Block: blk})

			src, dst := sub.BottomCenter(), blk.TopCenter()
			l.Edges = append(l.Edges, Edge{
				Kind:        EdgeItem,
				Style:       ItemEdgeStyle,
				Source:      subIdx,
				Target:      idx,
				SourcePoint: src,
				TargetPoint: dst,
				Points:      []Point{{src.X, blk.Y - ItemBendOffset}, {dst.X, blk.Y - ItemBendOffset}},
			})
			grp.Items = append(grp.Items, idx)
		}
		l.Groups = append(l.Groups, grp)

		blockHeight := float64(rows) * (shapes.Item.Height + lay.ItemGapY)
		y = sub.Bottom() + blockHeight + lay.ItemToSubheaderGapY
	}
	return l
}
