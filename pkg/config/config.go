// Package config defines the geometry configuration that drives page layout.
//
// A [Config] is read once per conversion and never mutated afterwards. It has
// three sections:
//
//   - Page: pass-through attributes of the draw.io canvas (grid, page size, ...)
//   - Shape: width, height and style string for headers, sub-headers and items
//   - Layout: the spacing constants the layout engine works with
//
// Configs are loaded from TOML, YAML or JSON with [Load] or [Parse]. Every
// field except layout.item_wrap_limit is required; a missing field or a
// negative dimension is reported as an INVALID_CONFIG error before any layout
// work starts.
package config

// DefaultItemWrapLimit is the number of items placed per row when the config
// does not set layout.item_wrap_limit.
const DefaultItemWrapLimit = 4

// Shape kinds.
const (
	KindHeader    = "header"
	KindSubheader = "subheader"
	KindItem      = "item"
)

// Config is the validated, immutable geometry configuration.
type Config struct {
	Page   Page
	Shape  Shapes
	Layout Layout
}

// Page holds the canvas attributes written onto every mxGraphModel.
type Page struct {
	Grid       int
	GridSize   int
	Guides     int
	Tooltips   int
	Connect    int
	Arrows     int
	Fold       int
	PageScale  float64
	PageWidth  int
	PageHeight int
	Background string
}

// Shape is the size and opaque draw.io style string of one node kind.
type Shape struct {
	Width  float64
	Height float64
	Style  string
}

// Shapes groups the three node kinds.
type Shapes struct {
	Header    Shape
	Subheader Shape
	Item      Shape
}

// Layout holds the spacing constants used by the layout engine.
type Layout struct {
	HeaderX             float64
	HeaderY             float64
	SubheaderIndentX    float64
	SubheaderGapY       float64
	ItemGapX            float64
	ItemGapY            float64
	ItemSpacingX        float64
	ItemToSubheaderGapY float64
	ItemWrapLimit       int
}

// Default returns a configuration for A3 landscape pages with 40px spacing.
func Default() Config {
	return Config{
		Page: Page{
			Grid:       1,
			GridSize:   10,
			Guides:     1,
			Tooltips:   1,
			Connect:    1,
			Arrows:     1,
			Fold:       1,
			PageScale:  1,
			PageWidth:  1654,
			PageHeight: 1169,
			Background: "#ffffff",
		},
		Shape: Shapes{
			Header: Shape{
				Width:  200,
				Height: 40,
				Style:  "rounded=0;whiteSpace=wrap;html=1;fillColor=#dae8fc;strokeColor=#6c8ebf;fontStyle=1;",
			},
			Subheader: Shape{
				Width:  160,
				Height: 40,
				Style:  "rounded=0;whiteSpace=wrap;html=1;fillColor=#e1d5e7;strokeColor=#9673a6;",
			},
			Item: Shape{
				Width:  120,
				Height: 40,
				Style:  "rounded=1;whiteSpace=wrap;html=1;",
			},
		},
		Layout: Layout{
			HeaderX:             40,
			HeaderY:             40,
			SubheaderIndentX:    40,
			SubheaderGapY:       40,
			ItemGapX:            40,
			ItemGapY:            40,
			ItemSpacingX:        140,
			ItemToSubheaderGapY: 40,
			ItemWrapLimit:       DefaultItemWrapLimit,
		},
	}
}

// ShapeFor returns the shape of the given kind.
func (c Config) ShapeFor(kind string) (Shape, bool) {
	switch kind {
	case KindHeader:
		return c.Shape.Header, true
	case KindSubheader:
		return c.Shape.Subheader, true
	case KindItem:
		return c.Shape.Item, true
	}
	return Shape{}, false
}
