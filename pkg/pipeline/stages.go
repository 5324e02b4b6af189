package pipeline

import (
	"context"
	"time"

	"github.com/matzehuels/tabledraw/pkg/config"
	"github.com/matzehuels/tabledraw/pkg/drawio"
	"github.com/matzehuels/tabledraw/pkg/layout"
	"github.com/matzehuels/tabledraw/pkg/mxgraph"
	"github.com/matzehuels/tabledraw/pkg/observability"
	"github.com/matzehuels/tabledraw/pkg/table"
)

// LayoutSection places one header section. It fires the layout hooks.
func LayoutSection(ctx context.Context, cfg config.Config, s *table.Section) (*layout.Layout, error) {
	hooks := observability.Pipeline()
	hooks.OnLayoutStart(ctx, s.Name, s.ItemCount())

	start := time.Now()
	l, err := layout.Compute(cfg, s)
	nodes := 0
	if l != nil {
		nodes = len(l.Nodes)
	}
	hooks.OnLayoutComplete(ctx, s.Name, nodes, time.Since(start), err)
	return l, err
}

// BuildPage runs layout, assembly and encoding for one header section.
// Ids are drawn from ids, so sharing one generator across the pages of a
// document keeps ids unique document-wide.
func BuildPage(ctx context.Context, cfg config.Config, s *table.Section, ids mxgraph.IDGenerator) (PageInfo, error) {
	l, err := LayoutSection(ctx, cfg, s)
	if err != nil {
		return PageInfo{}, err
	}

	m := mxgraph.Assemble(l, cfg.Page, ids)
	page, err := drawio.EncodeModel(m)
	if err != nil {
		return PageInfo{}, err
	}

	vertices, edges := m.Counts()
	return PageInfo{
		Name:     page.Name,
		Payload:  page.Payload,
		Vertices: vertices,
		Edges:    edges,
	}, nil
}

// EncodePages builds one page per header in first-appearance order.
func EncodePages(ctx context.Context, t *table.Grouped, opts Options) ([]PageInfo, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}

	hooks := observability.Pipeline()
	sections := t.Sections()
	hooks.OnEncodeStart(ctx, len(sections))

	start := time.Now()
	ids := opts.IDs()
	pages := make([]PageInfo, 0, len(sections))
	size := 0
	for _, s := range sections {
		if err := ctx.Err(); err != nil {
			hooks.OnEncodeComplete(ctx, len(pages), size, time.Since(start), err)
			return nil, err
		}
		p, err := BuildPage(ctx, opts.Config, s, ids)
		if err != nil {
			hooks.OnEncodeComplete(ctx, len(pages), size, time.Since(start), err)
			return nil, err
		}
		opts.Logger.Debug("encoded page",
			"header", p.Name,
			"vertices", p.Vertices,
			"edges", p.Edges)
		size += len(p.Payload)
		pages = append(pages, p)
	}
	hooks.OnEncodeComplete(ctx, len(pages), size, time.Since(start), nil)
	return pages, nil
}

// RenderDocument wraps encoded pages into an mxfile.
func RenderDocument(pages []PageInfo, opts Options) ([]byte, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	doc := drawio.NewDocument(opts.Agent, opts.Modified)
	doc.Pages = make([]drawio.Page, len(pages))
	for i, p := range pages {
		doc.Pages[i] = drawio.Page{Name: p.Name, Payload: p.Payload}
	}
	return doc.Render()
}
