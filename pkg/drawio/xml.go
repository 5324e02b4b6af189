package drawio

import (
	"encoding/xml"
	"strconv"

	"github.com/matzehuels/tabledraw/pkg/config"
	"github.com/matzehuels/tabledraw/pkg/errors"
	"github.com/matzehuels/tabledraw/pkg/layout"
	"github.com/matzehuels/tabledraw/pkg/mxgraph"
)

type xmlModel struct {
	XMLName    xml.Name `xml:"mxGraphModel"`
	DX         string   `xml:"dx,attr"`
	DY         string   `xml:"dy,attr"`
	Grid       string   `xml:"grid,attr"`
	GridSize   string   `xml:"gridSize,attr"`
	Guides     string   `xml:"guides,attr"`
	Tooltips   string   `xml:"tooltips,attr"`
	Connect    string   `xml:"connect,attr"`
	Arrows     string   `xml:"arrows,attr"`
	Fold       string   `xml:"fold,attr"`
	Page       string   `xml:"page,attr"`
	PageScale  string   `xml:"pageScale,attr"`
	PageWidth  string   `xml:"pageWidth,attr"`
	PageHeight string   `xml:"pageHeight,attr"`
	Background string   `xml:"background,attr"`
	Root       xmlRoot  `xml:"root"`
}

type xmlRoot struct {
	Cells []xmlCell `xml:"mxCell"`
}

type xmlCell struct {
	ID       string       `xml:"id,attr"`
	Value    *string      `xml:"value,attr"`
	Style    *string      `xml:"style,attr"`
	Vertex   string       `xml:"vertex,attr,omitempty"`
	Edge     string       `xml:"edge,attr,omitempty"`
	Parent   string       `xml:"parent,attr,omitempty"`
	Source   string       `xml:"source,attr,omitempty"`
	Target   string       `xml:"target,attr,omitempty"`
	Geometry *xmlGeometry `xml:"mxGeometry"`
}

type xmlGeometry struct {
	X        string     `xml:"x,attr,omitempty"`
	Y        string     `xml:"y,attr,omitempty"`
	Width    string     `xml:"width,attr,omitempty"`
	Height   string     `xml:"height,attr,omitempty"`
	Relative string     `xml:"relative,attr,omitempty"`
	As       string     `xml:"as,attr"`
	Anchors  []xmlPoint `xml:"mxPoint"`
	Array    *xmlArray  `xml:"Array"`
}

type xmlArray struct {
	As     string     `xml:"as,attr"`
	Points []xmlPoint `xml:"mxPoint"`
}

type xmlPoint struct {
	X  string `xml:"x,attr"`
	Y  string `xml:"y,attr"`
	As string `xml:"as,attr,omitempty"`
}

// MarshalModel renders m as compact mxGraphModel XML.
func MarshalModel(m *mxgraph.Model) ([]byte, error) {
	data, err := xml.Marshal(toXML(m))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeEncodingFailure, err, "page %q: marshal model", m.Name)
	}
	return data, nil
}

// UnmarshalModel parses mxGraphModel XML. Attributes missing from the input
// are left at their zero value.
func UnmarshalModel(data []byte) (*mxgraph.Model, error) {
	var x xmlModel
	if err := xml.Unmarshal(data, &x); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "parse mxGraphModel")
	}
	return fromXML(&x)
}

func toXML(m *mxgraph.Model) *xmlModel {
	p := m.Page
	x := &xmlModel{
		DX:         "0",
		DY:         "0",
		Grid:       strconv.Itoa(p.Grid),
		GridSize:   strconv.Itoa(p.GridSize),
		Guides:     strconv.Itoa(p.Guides),
		Tooltips:   strconv.Itoa(p.Tooltips),
		Connect:    strconv.Itoa(p.Connect),
		Arrows:     strconv.Itoa(p.Arrows),
		Fold:       strconv.Itoa(p.Fold),
		Page:       "1",
		PageScale:  num(p.PageScale),
		PageWidth:  strconv.Itoa(p.PageWidth),
		PageHeight: strconv.Itoa(p.PageHeight),
		Background: p.Background,
	}
	x.Root.Cells = make([]xmlCell, len(m.Cells))
	for i, c := range m.Cells {
		x.Root.Cells[i] = cellToXML(c)
	}
	return x
}

func cellToXML(c mxgraph.Cell) xmlCell {
	xc := xmlCell{ID: c.ID, Parent: c.Parent}
	if c.Structural() {
		return xc
	}
	value, style := c.Value, c.Style
	xc.Value, xc.Style = &value, &style
	xc.Source, xc.Target = c.Source, c.Target

	g := c.Geometry
	if c.Edge {
		xc.Edge = "1"
		xc.Geometry = &xmlGeometry{Relative: "1", As: "geometry"}
		if g.SourcePoint != nil {
			xc.Geometry.Anchors = append(xc.Geometry.Anchors, point(*g.SourcePoint, "sourcePoint"))
		}
		if g.TargetPoint != nil {
			xc.Geometry.Anchors = append(xc.Geometry.Anchors, point(*g.TargetPoint, "targetPoint"))
		}
		arr := &xmlArray{As: "points"}
		for _, pt := range g.Points {
			arr.Points = append(arr.Points, point(pt, ""))
		}
		xc.Geometry.Array = arr
		return xc
	}

	xc.Vertex, xc.Edge = "1", "0"
	xc.Geometry = &xmlGeometry{
		X:      num(g.X),
		Y:      num(g.Y),
		Width:  num(g.Width),
		Height: num(g.Height),
		As:     "geometry",
	}
	return xc
}

func point(p layout.Point, as string) xmlPoint {
	return xmlPoint{X: num(p.X), Y: num(p.Y), As: as}
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func fromXML(x *xmlModel) (*mxgraph.Model, error) {
	var p parser
	m := &mxgraph.Model{
		Page: config.Page{
			Grid:       p.int(x.Grid),
			GridSize:   p.int(x.GridSize),
			Guides:     p.int(x.Guides),
			Tooltips:   p.int(x.Tooltips),
			Connect:    p.int(x.Connect),
			Arrows:     p.int(x.Arrows),
			Fold:       p.int(x.Fold),
			PageScale:  p.float(x.PageScale),
			PageWidth:  p.int(x.PageWidth),
			PageHeight: p.int(x.PageHeight),
			Background: x.Background,
		},
		Cells: make([]mxgraph.Cell, 0, len(x.Root.Cells)),
	}
	for _, xc := range x.Root.Cells {
		c := mxgraph.Cell{
			ID:     xc.ID,
			Parent: xc.Parent,
			Vertex: xc.Vertex == "1",
			Edge:   xc.Edge == "1",
			Source: xc.Source,
			Target: xc.Target,
		}
		if xc.Value != nil {
			c.Value = *xc.Value
		}
		if xc.Style != nil {
			c.Style = *xc.Style
		}
		if g := xc.Geometry; g != nil {
			c.Geometry = &mxgraph.Geometry{
				X:        p.float(g.X),
				Y:        p.float(g.Y),
				Width:    p.float(g.Width),
				Height:   p.float(g.Height),
				Relative: g.Relative == "1",
			}
			for _, a := range g.Anchors {
				pt := layout.Point{X: p.float(a.X), Y: p.float(a.Y)}
				switch a.As {
				case "sourcePoint":
					c.Geometry.SourcePoint = &pt
				case "targetPoint":
					c.Geometry.TargetPoint = &pt
				}
			}
			if g.Array != nil {
				for _, a := range g.Array.Points {
					c.Geometry.Points = append(c.Geometry.Points, layout.Point{X: p.float(a.X), Y: p.float(a.Y)})
				}
			}
		}
		m.Cells = append(m.Cells, c)
	}
	if p.err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, p.err, "parse mxGraphModel")
	}
	return m, nil
}

// parser converts attribute strings, keeping the first error.
type parser struct{ err error }

func (p *parser) float(s string) float64 {
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil && p.err == nil {
		p.err = err
	}
	return v
}

func (p *parser) int(s string) int {
	return int(p.float(s))
}
