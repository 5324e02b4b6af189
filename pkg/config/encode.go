package config

import (
	"encoding/json"
	"io"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/matzehuels/tabledraw/pkg/errors"
)

// Encode writes cfg to w in the given format. The output round-trips through
// [Parse].
func Encode(cfg Config, format string, w io.Writer) error {
	fc := fromConfig(cfg)
	switch format {
	case FormatTOML:
		return toml.NewEncoder(w).Encode(fc)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(fc); err != nil {
			return err
		}
		return enc.Close()
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(fc)
	}
	return errors.New(errors.ErrCodeInvalidConfig, "unsupported config format %q", format)
}

func fromConfig(c Config) fileConfig {
	wrap := c.Layout.ItemWrapLimit
	return fileConfig{
		Page: &filePage{
			Grid:       &c.Page.Grid,
			GridSize:   &c.Page.GridSize,
			Guides:     &c.Page.Guides,
			Tooltips:   &c.Page.Tooltips,
			Connect:    &c.Page.Connect,
			Arrows:     &c.Page.Arrows,
			Fold:       &c.Page.Fold,
			PageScale:  &c.Page.PageScale,
			PageWidth:  &c.Page.PageWidth,
			PageHeight: &c.Page.PageHeight,
			Background: &c.Page.Background,
		},
		Shape: &fileShapes{
			Header:    fromShape(c.Shape.Header),
			Subheader: fromShape(c.Shape.Subheader),
			Item:      fromShape(c.Shape.Item),
		},
		Layout: &fileLayout{
			HeaderX:             &c.Layout.HeaderX,
			HeaderY:             &c.Layout.HeaderY,
			SubheaderIndentX:    &c.Layout.SubheaderIndentX,
			SubheaderGapY:       &c.Layout.SubheaderGapY,
			ItemGapX:            &c.Layout.ItemGapX,
			ItemGapY:            &c.Layout.ItemGapY,
			ItemSpacingX:        &c.Layout.ItemSpacingX,
			ItemToSubheaderGapY: &c.Layout.ItemToSubheaderGapY,
			ItemWrapLimit:       &wrap,
		},
	}
}

func fromShape(s Shape) *fileShape {
	return &fileShape{Width: &s.Width, Height: &s.Height, Style: &s.Style}
}
