package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
	"github.com/mazznoer/csscolorparser"
	"gopkg.in/yaml.v3"

	"github.com/matzehuels/tabledraw/pkg/errors"
)

// Supported config formats.
const (
	FormatTOML = "toml"
	FormatYAML = "yaml"
	FormatJSON = "json"
)

// fileConfig mirrors Config with pointer fields so that an absent key can be
// told apart from an explicit zero.
type fileConfig struct {
	Page   *filePage   `toml:"page" yaml:"page" json:"page" validate:"required"`
	Shape  *fileShapes `toml:"shape" yaml:"shape" json:"shape" validate:"required"`
	Layout *fileLayout `toml:"layout" yaml:"layout" json:"layout" validate:"required"`
}

type filePage struct {
	Grid       *int     `toml:"grid" yaml:"grid" json:"grid" validate:"required,gte=0"`
	GridSize   *int     `toml:"gridSize" yaml:"gridSize" json:"gridSize" validate:"required,gte=0"`
	Guides     *int     `toml:"guides" yaml:"guides" json:"guides" validate:"required,gte=0"`
	Tooltips   *int     `toml:"tooltips" yaml:"tooltips" json:"tooltips" validate:"required,gte=0"`
	Connect    *int     `toml:"connect" yaml:"connect" json:"connect" validate:"required,gte=0"`
	Arrows     *int     `toml:"arrows" yaml:"arrows" json:"arrows" validate:"required,gte=0"`
	Fold       *int     `toml:"fold" yaml:"fold" json:"fold" validate:"required,gte=0"`
	PageScale  *float64 `toml:"pageScale" yaml:"pageScale" json:"pageScale" validate:"required,gte=0"`
	PageWidth  *int     `toml:"pageWidth" yaml:"pageWidth" json:"pageWidth" validate:"required,gte=0"`
	PageHeight *int     `toml:"pageHeight" yaml:"pageHeight" json:"pageHeight" validate:"required,gte=0"`
	Background *string  `toml:"background" yaml:"background" json:"background" validate:"required,csscolor"`
}

type fileShape struct {
	Width  *float64 `toml:"width" yaml:"width" json:"width" validate:"required,gte=0"`
	Height *float64 `toml:"height" yaml:"height" json:"height" validate:"required,gte=0"`
	Style  *string  `toml:"style" yaml:"style" json:"style" validate:"required"`
}

type fileShapes struct {
	Header    *fileShape `toml:"header" yaml:"header" json:"header" validate:"required"`
	Subheader *fileShape `toml:"subheader" yaml:"subheader" json:"subheader" validate:"required"`
	Item      *fileShape `toml:"item" yaml:"item" json:"item" validate:"required"`
}

type fileLayout struct {
	HeaderX             *float64 `toml:"header_x" yaml:"header_x" json:"header_x" validate:"required,gte=0"`
	HeaderY             *float64 `toml:"header_y" yaml:"header_y" json:"header_y" validate:"required,gte=0"`
	SubheaderIndentX    *float64 `toml:"subheader_indent_x" yaml:"subheader_indent_x" json:"subheader_indent_x" validate:"required,gte=0"`
	SubheaderGapY       *float64 `toml:"subheader_gap_y" yaml:"subheader_gap_y" json:"subheader_gap_y" validate:"required,gte=0"`
	ItemGapX            *float64 `toml:"item_gap_x" yaml:"item_gap_x" json:"item_gap_x" validate:"required,gte=0"`
	ItemGapY            *float64 `toml:"item_gap_y" yaml:"item_gap_y" json:"item_gap_y" validate:"required,gte=0"`
	ItemSpacingX        *float64 `toml:"item_spacing_x" yaml:"item_spacing_x" json:"item_spacing_x" validate:"required,gte=0"`
	ItemToSubheaderGapY *float64 `toml:"item_to_subheader_gap_y" yaml:"item_to_subheader_gap_y" json:"item_to_subheader_gap_y" validate:"required,gte=0"`
	ItemWrapLimit       *int     `toml:"item_wrap_limit,omitempty" yaml:"item_wrap_limit,omitempty" json:"item_wrap_limit,omitempty" validate:"omitempty,gte=1"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("toml"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("csscolor", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		if s == "none" || s == "" {
			return true
		}
		_, err := csscolorparser.Parse(s)
		return err == nil
	})
	return v
}

// FormatFromPath infers the config format from a file extension.
func FormatFromPath(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return FormatTOML, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	}
	return "", errors.New(errors.ErrCodeInvalidConfig, "unsupported config format %q (want .toml, .yaml or .json)", filepath.Ext(path))
}

// Load reads and validates a config file. The format is chosen by extension.
func Load(path string) (Config, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return Config{}, err
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Config{}, errors.Wrap(errors.ErrCodeFileNotFound, err, "config %s", path)
	}
	if err != nil {
		return Config{}, errors.Wrap(errors.ErrCodeInvalidConfig, err, "read %s", path)
	}
	cfg, err := Parse(data, format)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes and validates config data in the given format.
// Unknown keys are rejected so that typos do not silently fall back to zero.
func Parse(data []byte, format string) (Config, error) {
	var fc fileConfig
	if err := decode(data, format, &fc); err != nil {
		return Config{}, err
	}
	if err := validate.Struct(&fc); err != nil {
		return Config{}, formatValidationError(err)
	}
	return fc.resolve(), nil
}

func decode(data []byte, format string, fc *fileConfig) error {
	switch format {
	case FormatTOML:
		md, err := toml.Decode(string(data), fc)
		if err != nil {
			return errors.Wrap(errors.ErrCodeInvalidConfig, err, "decode toml")
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return errors.New(errors.ErrCodeInvalidConfig, "unknown key %q", undecoded[0].String())
		}
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(fc); err != nil && err != io.EOF {
			return errors.Wrap(errors.ErrCodeInvalidConfig, err, "decode yaml")
		}
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(fc); err != nil && err != io.EOF {
			return errors.Wrap(errors.ErrCodeInvalidConfig, err, "decode json")
		}
	default:
		return errors.New(errors.ErrCodeInvalidConfig, "unsupported config format %q", format)
	}
	return nil
}

// formatValidationError turns validator errors into one INVALID_CONFIG error
// listing every offending key by its dotted config path.
func formatValidationError(err error) error {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "validate")
	}
	msgs := make([]string, 0, len(verrs))
	for _, e := range verrs {
		msgs = append(msgs, formatFieldError(e))
	}
	sort.Strings(msgs)
	return errors.New(errors.ErrCodeInvalidConfig, "%s", strings.Join(msgs, "; "))
}

func formatFieldError(e validator.FieldError) string {
	key := e.Namespace()
	if i := strings.Index(key, "."); i >= 0 {
		key = key[i+1:]
	}
	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", key)
	case "gte":
		return fmt.Sprintf("%s must be >= %s", key, e.Param())
	case "csscolor":
		return fmt.Sprintf("%s must be a CSS colour or \"none\"", key)
	default:
		return fmt.Sprintf("%s is invalid", key)
	}
}

func (fc *fileConfig) resolve() Config {
	p, s, l := fc.Page, fc.Shape, fc.Layout
	cfg := Config{
		Page: Page{
			Grid:       *p.Grid,
			GridSize:   *p.GridSize,
			Guides:     *p.Guides,
			Tooltips:   *p.Tooltips,
			Connect:    *p.Connect,
			Arrows:     *p.Arrows,
			Fold:       *p.Fold,
			PageScale:  *p.PageScale,
			PageWidth:  *p.PageWidth,
			PageHeight: *p.PageHeight,
			Background: *p.Background,
		},
		Shape: Shapes{
			Header:    s.Header.resolve(),
			Subheader: s.Subheader.resolve(),
			Item:      s.Item.resolve(),
		},
		Layout: Layout{
			HeaderX:             *l.HeaderX,
			HeaderY:             *l.HeaderY,
			SubheaderIndentX:    *l.SubheaderIndentX,
			SubheaderGapY:       *l.SubheaderGapY,
			ItemGapX:            *l.ItemGapX,
			ItemGapY:            *l.ItemGapY,
			ItemSpacingX:        *l.ItemSpacingX,
			ItemToSubheaderGapY: *l.ItemToSubheaderGapY,
			ItemWrapLimit:       DefaultItemWrapLimit,
		},
	}
	if l.ItemWrapLimit != nil {
		cfg.Layout.ItemWrapLimit = *l.ItemWrapLimit
	}
	return cfg
}

func (fs *fileShape) resolve() Shape {
	return Shape{Width: *fs.Width, Height: *fs.Height, Style: *fs.Style}
}
