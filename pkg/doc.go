// Package pkg provides the core libraries for tabledraw.
//
// # Overview
//
// Tabledraw turns a flat CSV of Header, Sub-Header and Item rows into a
// draw.io document with one page per Header. Each page shows the header at
// the top, its sub-headers stacked beneath it, and the items of every
// sub-header laid out in wrapped rows coloured by their RAG status.
//
// # Architecture
//
// The data flow through tabledraw:
//
//	CSV file / upload
//	         ↓
//	    [table] package (group rows in first-appearance order)
//	         ↓
//	    [layout] package (block positions and edge routes per header)
//	         ↓
//	    [mxgraph] package (cells, styles and ids of one page)
//	         ↓
//	    [drawio] package (deflate + base64 pages, mxfile document)
//	         ↓
//	    .drawio XML
//
// [pipeline] runs these stages for the CLI and the HTTP server so both
// produce byte-identical documents for the same inputs and seed.
//
// # Quick Start
//
//	import (
//	    "context"
//	    "os"
//
//	    "github.com/matzehuels/tabledraw/pkg/config"
//	    "github.com/matzehuels/tabledraw/pkg/pipeline"
//	    "github.com/matzehuels/tabledraw/pkg/table"
//	)
//
//	t, _ := table.ReadCSVFile("roadmap.csv")
//	runner := pipeline.NewRunner(nil, nil, nil)
//	res, _ := runner.Convert(context.Background(), t, pipeline.Options{
//	    Config: config.Default(),
//	    Seed:   "roadmap",
//	})
//	os.WriteFile("roadmap.drawio", res.Document, 0644)
//
// # Main Packages
//
// [table] - Row grouping and CSV reading. Unknown statuses become Amber.
//
// [config] - Page, shape and layout settings loaded from TOML, YAML or JSON
// and validated before any layout runs.
//
// [layout] - Pure geometry. Computes header, sub-header and item blocks plus
// the orthogonal connector routes between them.
//
// [mxgraph] - Builds the mxGraphModel cell list for one page with random or
// seeded ids.
//
// [drawio] - Page compression codec and the mxfile document writer/reader.
//
// [render/nodelink] - Graphviz previews of a single header's hierarchy.
//
// # Infrastructure
//
// [cache] - Byte caches for encoded pages and previews: NullCache, FileCache
// (CLI) and RedisCache (server), addressed through a [cache.Keyer].
//
// [storage] - Archive of generated documents for later download, in memory or
// in MongoDB.
//
// [observability] - Hook interfaces fired by the pipeline, caches and server,
// with a Prometheus collector implementation.
//
// [errors] - Coded errors shared by every entry point.
//
// [buildinfo] - Version and agent string written into each document.
//
// # Testing
//
//	go test ./pkg/...                    # All tests
//	go test ./pkg/layout/...             # Specific package
//
// [table]: https://pkg.go.dev/github.com/matzehuels/tabledraw/pkg/table
// [config]: https://pkg.go.dev/github.com/matzehuels/tabledraw/pkg/config
// [layout]: https://pkg.go.dev/github.com/matzehuels/tabledraw/pkg/layout
// [mxgraph]: https://pkg.go.dev/github.com/matzehuels/tabledraw/pkg/mxgraph
// [drawio]: https://pkg.go.dev/github.com/matzehuels/tabledraw/pkg/drawio
// [render/nodelink]: https://pkg.go.dev/github.com/matzehuels/tabledraw/pkg/render/nodelink
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/tabledraw/pkg/pipeline
// [cache]: https://pkg.go.dev/github.com/matzehuels/tabledraw/pkg/cache
// [cache.Keyer]: https://pkg.go.dev/github.com/matzehuels/tabledraw/pkg/cache#Keyer
// [storage]: https://pkg.go.dev/github.com/matzehuels/tabledraw/pkg/storage
// [observability]: https://pkg.go.dev/github.com/matzehuels/tabledraw/pkg/observability
// [errors]: https://pkg.go.dev/github.com/matzehuels/tabledraw/pkg/errors
// [buildinfo]: https://pkg.go.dev/github.com/matzehuels/tabledraw/pkg/buildinfo
package pkg
