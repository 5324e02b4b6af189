// Package table holds the grouped input of a conversion.
//
// Input rows carry a Header, a Sub-Header and an Item. They are grouped into
// a two-level hierarchy whose order at every level is the order of first
// appearance in the source rows:
//
//	Grouped
//	└── Section (one per Header, becomes one diagram page)
//	    └── Group (one per Sub-Header)
//	        └── Item
//
// Grouped values are built once per request and treated as read-only by the
// layout engine.
package table

import (
	"encoding/json"
	"strings"

	"github.com/matzehuels/tabledraw/pkg/errors"
)

// Status is the RAG status of an item.
type Status string

// Known statuses. Anything else is treated as StatusAmber.
const (
	StatusRed   Status = "Red"
	StatusAmber Status = "Amber"
	StatusGreen Status = "Green"
)

// ParseStatus maps a raw cell value to a Status. Empty and unrecognized
// values become StatusAmber. Matching is exact after trimming whitespace.
func ParseStatus(s string) Status {
	switch st := Status(strings.TrimSpace(s)); st {
	case StatusRed, StatusAmber, StatusGreen:
		return st
	}
	return StatusAmber
}

// Item is a single leaf record.
type Item struct {
	Name   string            `json:"name"`
	Status Status            `json:"status"`
	Extra  map[string]string `json:"extra,omitempty"`
}

// Group is the ordered list of items under one Sub-Header.
type Group struct {
	Name  string `json:"name"`
	Items []Item `json:"items"`
}

// Section is one Header with its Sub-Headers in first-appearance order.
type Section struct {
	Name   string   `json:"name"`
	Groups []*Group `json:"groups"`

	index map[string]int
}

// NewSection creates an empty section.
func NewSection(name string) *Section {
	return &Section{Name: name, index: make(map[string]int)}
}

// Group returns the named Sub-Header group, creating it if absent.
func (s *Section) Group(name string) *Group {
	if s.index == nil {
		s.reindex()
	}
	if i, ok := s.index[name]; ok {
		return s.Groups[i]
	}
	g := &Group{Name: name}
	s.index[name] = len(s.Groups)
	s.Groups = append(s.Groups, g)
	return g
}

// ItemCount returns the number of items across all groups.
func (s *Section) ItemCount() int {
	n := 0
	for _, g := range s.Groups {
		n += len(g.Items)
	}
	return n
}

func (s *Section) reindex() {
	s.index = make(map[string]int, len(s.Groups))
	for i, g := range s.Groups {
		s.index[g.Name] = i
	}
}

// Grouped is the full Header → Sub-Header → Item hierarchy.
type Grouped struct {
	sections []*Section
	index    map[string]int
}

// New creates an empty Grouped table.
func New() *Grouped {
	return &Grouped{index: make(map[string]int)}
}

// Add appends item under header and subHeader, creating either on first
// use. Empty keys or an empty item name are MALFORMED_RECORD errors.
func (t *Grouped) Add(header, subHeader string, item Item) error {
	switch {
	case header == "":
		return errors.New(errors.ErrCodeMalformedRecord, "empty Header")
	case subHeader == "":
		return errors.New(errors.ErrCodeMalformedRecord, "header %q: empty Sub-Header", header)
	case item.Name == "":
		return errors.New(errors.ErrCodeMalformedRecord, "header %q, sub-header %q: empty Item", header, subHeader)
	}
	if item.Status == "" {
		item.Status = StatusAmber
	}
	g := t.Section(header).Group(subHeader)
	g.Items = append(g.Items, item)
	return nil
}

// Section returns the named Header section, creating it if absent.
func (t *Grouped) Section(name string) *Section {
	if t.index == nil {
		t.index = make(map[string]int)
	}
	if i, ok := t.index[name]; ok {
		return t.sections[i]
	}
	s := NewSection(name)
	t.index[name] = len(t.sections)
	t.sections = append(t.sections, s)
	return s
}

// Lookup returns the named section without creating it.
func (t *Grouped) Lookup(name string) (*Section, bool) {
	i, ok := t.index[name]
	if !ok {
		return nil, false
	}
	return t.sections[i], true
}

// Sections returns the Header sections in first-appearance order.
func (t *Grouped) Sections() []*Section { return t.sections }

// Headers returns the Header names in first-appearance order.
func (t *Grouped) Headers() []string {
	names := make([]string, len(t.sections))
	for i, s := range t.sections {
		names[i] = s.Name
	}
	return names
}

// Counts returns the number of headers, sub-headers and items.
func (t *Grouped) Counts() (headers, subHeaders, items int) {
	for _, s := range t.sections {
		subHeaders += len(s.Groups)
		items += s.ItemCount()
	}
	return len(t.sections), subHeaders, items
}

// MarshalJSON encodes the table as an ordered list of sections. The output
// is stable for equal tables and is used for cache keys.
func (t *Grouped) MarshalJSON() ([]byte, error) {
	sections := t.sections
	if sections == nil {
		sections = []*Section{}
	}
	return json.Marshal(sections)
}

// UnmarshalJSON decodes the form produced by MarshalJSON.
func (t *Grouped) UnmarshalJSON(data []byte) error {
	var sections []*Section
	if err := json.Unmarshal(data, &sections); err != nil {
		return err
	}
	t.sections = sections
	t.index = make(map[string]int, len(sections))
	for i, s := range sections {
		s.reindex()
		t.index[s.Name] = i
	}
	return nil
}
