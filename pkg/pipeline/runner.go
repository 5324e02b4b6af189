package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/tabledraw/pkg/cache"
	"github.com/matzehuels/tabledraw/pkg/errors"
	"github.com/matzehuels/tabledraw/pkg/observability"
	"github.com/matzehuels/tabledraw/pkg/render/nodelink"
	"github.com/matzehuels/tabledraw/pkg/table"
)

// Cache key types reported to the cache hooks.
const (
	keyTypeDocument = "document"
	keyTypePreview  = "preview"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and API use it to avoid duplicating caching logic.
//
// The Runner is stateless except for the cache and logger. Multiple
// goroutines can safely use the same Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Convert turns a grouped table into a rendered .drawio document with one
// page per header.
func (r *Runner) Convert(ctx context.Context, t *table.Grouped, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	headers, subHeaders, items := t.Counts()
	if headers == 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "table has no rows")
	}

	hooks := observability.Pipeline()
	hooks.OnConvertStart(ctx, headers, items)
	start := time.Now()

	result, err := r.convert(ctx, t, opts)
	pages := 0
	if result != nil {
		pages = len(result.Pages)
		result.Stats.Headers = headers
		result.Stats.SubHeaders = subHeaders
		result.Stats.Items = items
	}
	hooks.OnConvertComplete(ctx, pages, time.Since(start), err)
	if err != nil {
		return nil, err
	}

	opts.Logger.Info("converted table",
		"pages", pages,
		"vertices", result.Stats.Vertices,
		"edges", result.Stats.Edges,
		"bytes", result.Stats.Bytes,
		"cached", result.CacheHit,
		"duration", time.Since(start))
	return result, nil
}

func (r *Runner) convert(ctx context.Context, t *table.Grouped, opts Options) (*Result, error) {
	result := &Result{}

	pagesStart := time.Now()
	pages, hit, tableHash, err := r.EncodePagesWithCacheInfo(ctx, t, opts)
	if err != nil {
		return nil, err
	}
	result.Pages = pages
	result.TableHash = tableHash
	result.CacheHit = hit
	result.Stats.PagesTime = time.Since(pagesStart)
	for _, p := range pages {
		result.Stats.Vertices += p.Vertices
		result.Stats.Edges += p.Edges
	}

	renderStart := time.Now()
	doc, err := RenderDocument(pages, opts)
	if err != nil {
		return nil, err
	}
	result.Document = doc
	result.Stats.Bytes = len(doc)
	result.Stats.RenderTime = time.Since(renderStart)
	return result, nil
}

// EncodePagesWithCacheInfo encodes every page of t, reusing cached pages
// when the conversion is deterministic. It returns the pages, whether they
// came from the cache and the table hash.
func (r *Runner) EncodePagesWithCacheInfo(ctx context.Context, t *table.Grouped, opts Options) ([]PageInfo, bool, string, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, false, "", err
	}

	tableHash, configHash, err := hashInputs(t, opts)
	if err != nil {
		return nil, false, "", err
	}

	// Random ids change every run, so there is nothing to reuse.
	if !opts.Deterministic() {
		pages, err := EncodePages(ctx, t, opts)
		return pages, false, tableHash, err
	}

	hooks := observability.Cache()
	key := r.Keyer.DocumentKey(tableHash, configHash, cache.DocumentKeyOpts{Seed: opts.Seed})

	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
			var pages []PageInfo
			if err := json.Unmarshal(data, &pages); err == nil {
				hooks.OnCacheHit(ctx, keyTypeDocument)
				opts.Logger.Debug("using cached pages", "pages", len(pages))
				return pages, true, tableHash, nil
			}
			// Fall through to re-encode a corrupt entry.
		} else if err != nil {
			opts.Logger.Warn("cache read failed", "error", err)
		}
		hooks.OnCacheMiss(ctx, keyTypeDocument)
	}

	pages, err := EncodePages(ctx, t, opts)
	if err != nil {
		return nil, false, tableHash, err
	}

	if data, err := json.Marshal(pages); err == nil {
		if err := r.Cache.Set(ctx, key, data, cache.DefaultTTL); err != nil {
			opts.Logger.Warn("cache write failed", "error", err)
		} else {
			hooks.OnCacheSet(ctx, keyTypeDocument, len(data))
		}
	}
	return pages, false, tableHash, nil
}

// PreviewOptions configures a hierarchy preview.
type PreviewOptions struct {
	nodelink.Options

	// Refresh bypasses a cached preview.
	Refresh bool
}

// Preview renders the hierarchy of one header as SVG. Previews depend only
// on the table, so they are always cacheable.
func (r *Runner) Preview(ctx context.Context, t *table.Grouped, header string, opts PreviewOptions) ([]byte, error) {
	s, ok := t.Lookup(header)
	if !ok {
		return nil, errors.New(errors.ErrCodeNotFound, "header %q not in table", header)
	}

	tableHash, err := cache.HashJSON(t)
	if err != nil {
		return nil, err
	}
	format := "svg"
	if opts.Detailed {
		format += "+detailed"
	}
	if opts.LeftToRight {
		format += "+lr"
	}
	key := r.Keyer.PreviewKey(tableHash, header, format)

	hooks := observability.Cache()
	if !opts.Refresh {
		if svg, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
			hooks.OnCacheHit(ctx, keyTypePreview)
			return svg, nil
		}
		hooks.OnCacheMiss(ctx, keyTypePreview)
	}

	svg, err := nodelink.RenderSVG(ctx, nodelink.ToDOT(s, opts.Options))
	if err != nil {
		return nil, err
	}
	if err := r.Cache.Set(ctx, key, svg, cache.DefaultTTL); err == nil {
		hooks.OnCacheSet(ctx, keyTypePreview, len(svg))
	}
	r.Logger.Debug("rendered preview", "header", header, "bytes", len(svg))
	return svg, nil
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}

func hashInputs(t *table.Grouped, opts Options) (tableHash, configHash string, err error) {
	if tableHash, err = cache.HashJSON(t); err != nil {
		return "", "", err
	}
	if configHash, err = cache.HashJSON(opts.Config); err != nil {
		return "", "", err
	}
	return tableHash, configHash, nil
}
