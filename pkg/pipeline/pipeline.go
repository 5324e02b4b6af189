// Package pipeline provides the conversion pipeline for tabledraw.
//
// This package implements the complete table → layout → draw.io document
// pipeline used by both the CLI and the HTTP server. Centralizing it keeps
// caching, logging and instrumentation identical across entry points.
//
// # Architecture
//
// A conversion runs these stages for every Header of the table, in order:
//
//  1. Layout: place header, sub-header and item nodes and route edges
//  2. Assemble: turn the layout into an mxGraph cell list with fresh ids
//  3. Encode: marshal the cells and compress them into a diagram page
//
// The pages are then wrapped into an mxfile container. Stages 1-3 are pure;
// with a fixed id seed their output depends only on the table and the
// geometry config, so the encoded pages can be cached.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	result, err := runner.Convert(ctx, grouped, pipeline.Options{
//	    Config: cfg,
//	    Seed:   "42",
//	})
//	if err != nil {
//	    return err
//	}
//	os.WriteFile("diagram.drawio", result.Document, 0o644)
package pipeline

import (
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/tabledraw/pkg/buildinfo"
	"github.com/matzehuels/tabledraw/pkg/config"
	"github.com/matzehuels/tabledraw/pkg/mxgraph"
)

// Options contains all configuration for one conversion.
type Options struct {
	// Config is the validated geometry configuration.
	Config config.Config

	// Seed makes cell ids reproducible. An empty seed uses random ids,
	// which also disables caching.
	Seed string

	// Modified is written as the document's modification time. Zero means
	// the time the conversion starts.
	Modified time.Time

	// Agent is written as the document's agent attribute.
	Agent string

	// Refresh bypasses cached pages.
	Refresh bool

	// Runtime options
	Logger *log.Logger

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool
}

// ValidateAndSetDefaults applies defaults. It is idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if o.Modified.IsZero() {
		o.Modified = time.Now().UTC()
	}
	if o.Agent == "" {
		o.Agent = buildinfo.Agent()
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	o.validated = true
	return nil
}

// Deterministic reports whether the conversion produces reproducible ids.
func (o *Options) Deterministic() bool {
	return o.Seed != ""
}

// IDs returns a fresh id generator for one conversion.
func (o *Options) IDs() mxgraph.IDGenerator {
	if o.Seed == "" {
		return mxgraph.RandomIDs{}
	}
	return mxgraph.NewSeededIDs(o.Seed)
}

// Result contains the outputs of one conversion.
type Result struct {
	// Document is the rendered .drawio file.
	Document []byte

	// Pages describes each page in document order.
	Pages []PageInfo

	// TableHash is the content hash of the input table.
	TableHash string

	// Stats contains timing and size information.
	Stats Stats

	// CacheHit reports whether the encoded pages came from the cache.
	CacheHit bool
}

// PageInfo summarizes one encoded page.
type PageInfo struct {
	Name     string `json:"name"`
	Payload  string `json:"payload"`
	Vertices int    `json:"vertices"`
	Edges    int    `json:"edges"`
}

// PageNames returns the page names in order.
func (r *Result) PageNames() []string {
	names := make([]string, len(r.Pages))
	for i, p := range r.Pages {
		names[i] = p.Name
	}
	return names
}

// Stats contains pipeline execution statistics.
type Stats struct {
	Headers    int
	SubHeaders int
	Items      int
	Vertices   int
	Edges      int
	Bytes      int
	PagesTime  time.Duration
	RenderTime time.Duration
}
