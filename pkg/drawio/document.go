// Package drawio writes and reads the draw.io file format.
//
// A .drawio file is an mxfile element holding one diagram element per page.
// Each diagram body is an mxGraphModel that has been deflated and base64
// encoded:
//
//	<mxfile host="app.diagrams.net" modified="..." agent="..." version="..." type="device">
//	  <diagram name="Header A">7ZdRb5swEIB/DY+bMG...</diagram>
//	</mxfile>
//
// The compression is raw deflate: a zlib stream with its 2-byte header and
// 4-byte checksum trailer removed. draw.io rejects pages that keep the zlib
// framing.
package drawio

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strings"
	"time"

	"github.com/matzehuels/tabledraw/pkg/errors"
	"github.com/matzehuels/tabledraw/pkg/mxgraph"
)

// Provenance defaults written onto new documents.
const (
	DefaultHost    = "app.diagrams.net"
	DefaultType    = "device"
	DefaultVersion = "24.7.17"
)

// ModifiedLayout is the timestamp layout draw.io writes.
const ModifiedLayout = "2006-01-02T15:04:05.000Z"

// Page is one encoded diagram.
type Page struct {
	ID      string
	Name    string
	Payload string

	inline *xmlModel
}

// EncodeModel marshals and compresses m into a page named after it.
func EncodeModel(m *mxgraph.Model) (Page, error) {
	data, err := MarshalModel(m)
	if err != nil {
		return Page{}, err
	}
	payload, err := EncodePage(data)
	if err != nil {
		return Page{}, fmt.Errorf("page %q: %w", m.Name, err)
	}
	return Page{Name: m.Name, Payload: payload}, nil
}

// XML returns the page's mxGraphModel text.
func (p Page) XML() ([]byte, error) {
	if p.inline != nil {
		return xml.Marshal(p.inline)
	}
	return DecodePage(p.Payload)
}

// Model decodes the page into cells.
func (p Page) Model() (*mxgraph.Model, error) {
	var (
		m   *mxgraph.Model
		err error
	)
	if p.inline != nil {
		m, err = fromXML(p.inline)
	} else {
		var data []byte
		if data, err = DecodePage(p.Payload); err == nil {
			m, err = UnmarshalModel(data)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("page %q: %w", p.Name, err)
	}
	m.Name = p.Name
	return m, nil
}

// Document is an mxfile with its provenance attributes.
type Document struct {
	Host     string
	Modified time.Time
	Agent    string
	Version  string
	Type     string
	Pages    []Page
}

// NewDocument returns a document with default host, type and version. The
// modification time is supplied by the caller.
func NewDocument(agent string, modified time.Time) *Document {
	return &Document{
		Host:     DefaultHost,
		Modified: modified,
		Agent:    agent,
		Version:  DefaultVersion,
		Type:     DefaultType,
	}
}

type xmlFile struct {
	XMLName  xml.Name     `xml:"mxfile"`
	Host     string       `xml:"host,attr"`
	Modified string       `xml:"modified,attr"`
	Agent    string       `xml:"agent,attr"`
	Version  string       `xml:"version,attr"`
	Type     string       `xml:"type,attr"`
	Diagrams []xmlDiagram `xml:"diagram"`
}

type xmlDiagram struct {
	ID      string    `xml:"id,attr,omitempty"`
	Name    string    `xml:"name,attr"`
	Payload string    `xml:",chardata"`
	Model   *xmlModel `xml:"mxGraphModel"`
}

// Render returns the document as indented XML with a declaration.
func (d *Document) Render() ([]byte, error) {
	f := xmlFile{
		Host:     d.Host,
		Modified: d.Modified.UTC().Format(ModifiedLayout),
		Agent:    d.Agent,
		Version:  d.Version,
		Type:     d.Type,
		Diagrams: make([]xmlDiagram, len(d.Pages)),
	}
	for i, p := range d.Pages {
		f.Diagrams[i] = xmlDiagram{ID: p.ID, Name: p.Name, Payload: p.Payload, Model: p.inline}
	}

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(f); err != nil {
		return nil, errors.Wrap(errors.ErrCodeEncodingFailure, err, "render document")
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

// ParseDocument reads an mxfile. Pages may be compressed or hold an inline
// mxGraphModel, as written by draw.io with compression turned off.
func ParseDocument(data []byte) (*Document, error) {
	var f xmlFile
	if err := xml.Unmarshal(data, &f); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "parse mxfile")
	}

	d := &Document{
		Host:    f.Host,
		Agent:   f.Agent,
		Version: f.Version,
		Type:    f.Type,
		Pages:   make([]Page, len(f.Diagrams)),
	}
	if f.Modified != "" {
		t, err := time.Parse(time.RFC3339, f.Modified)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "parse modified timestamp")
		}
		d.Modified = t
	}
	for i, x := range f.Diagrams {
		d.Pages[i] = Page{ID: x.ID, Name: x.Name, Payload: strings.TrimSpace(x.Payload), inline: x.Model}
	}
	return d, nil
}

// PageNames returns the page names in order.
func (d *Document) PageNames() []string {
	names := make([]string, len(d.Pages))
	for i, p := range d.Pages {
		names[i] = p.Name
	}
	return names
}
