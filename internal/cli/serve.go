package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/tabledraw/internal/server"
	"github.com/matzehuels/tabledraw/pkg/cache"
	"github.com/matzehuels/tabledraw/pkg/observability"
	"github.com/matzehuels/tabledraw/pkg/pipeline"
	"github.com/matzehuels/tabledraw/pkg/storage"
)

// serveOpts holds the command-line flags for the serve command.
type serveOpts struct {
	addr          string
	redisAddr     string
	redisPassword string
	redisDB       int
	namespace     string
	mongoURI      string
	mongoDatabase string
	retention     time.Duration
	archiveMax    int
	seed          string
	origins       []string
}

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	opts := serveOpts{
		addr:          server.DefaultAddr,
		mongoDatabase: appName,
		archiveMax:    storage.DefaultMaxDocuments,
	}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP conversion server",
		Long: `Run the HTTP conversion server.

POST a CSV to /api/v1/convert as multipart field "file" (optionally with a
"config" file) to receive a .drawio document. Converted documents are
archived in memory, or in MongoDB with --mongo, and can be downloaded again
from /api/v1/documents/{id}. With --redis, encoded pages of seeded
conversions are cached in Redis. Prometheus metrics are served on /metrics.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.addr, "addr", opts.addr, "listen address")
	cmd.Flags().StringVar(&opts.redisAddr, "redis", "", "redis address for the page cache (host:port)")
	cmd.Flags().StringVar(&opts.redisPassword, "redis-password", "", "redis password")
	cmd.Flags().IntVar(&opts.redisDB, "redis-db", 0, "redis database number")
	cmd.Flags().StringVar(&opts.namespace, "cache-namespace", "", "prefix for cache keys shared between deployments")
	cmd.Flags().StringVar(&opts.mongoURI, "mongo", "", "mongodb URI for the document archive")
	cmd.Flags().StringVar(&opts.mongoDatabase, "mongo-db", opts.mongoDatabase, "mongodb database name")
	cmd.Flags().DurationVar(&opts.retention, "retention", 0, "delete archived documents after this long, at least 1s (0 keeps them)")
	cmd.Flags().IntVar(&opts.archiveMax, "archive-max", opts.archiveMax, "documents kept by the in-memory archive, oldest evicted first (0 for no cap)")
	cmd.Flags().StringVar(&opts.seed, "seed", "", "default id seed for conversions, combined with each table's hash")
	cmd.Flags().StringSliceVar(&opts.origins, "cors-origin", nil, "allowed CORS origins (default any)")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, opts serveOpts) error {
	var pageCache cache.Cache = cache.NewNullCache()
	if opts.redisAddr != "" {
		rc, err := cache.NewRedisCache(ctx, cache.RedisConfig{
			Addr:     opts.redisAddr,
			Password: opts.redisPassword,
			DB:       opts.redisDB,
			Prefix:   appName + ":",
		})
		if err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		pageCache = rc
		c.keyValue("Cache", "redis "+opts.redisAddr)
	}

	var store storage.Store = memoryArchive(opts)
	if opts.mongoURI != "" {
		ms, err := storage.NewMongoStore(ctx, storage.MongoConfig{
			URI:        opts.mongoURI,
			Database:   opts.mongoDatabase,
			Collection: "documents",
			TTL:        opts.retention,
		})
		if err != nil {
			return fmt.Errorf("connect mongodb: %w", err)
		}
		store = ms
		c.keyValue("Archive", "mongodb "+opts.mongoDatabase)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := store.Close(closeCtx); err != nil {
			c.Logger.Warn("close archive", "error", err)
		}
	}()

	metrics := observability.NewCollector(appName)
	observability.SetPipelineHooks(metrics)
	observability.SetCacheHooks(metrics)
	observability.SetHTTPHooks(metrics)

	var keyer cache.Keyer
	if opts.namespace != "" {
		keyer = cache.NewScopedKeyer(nil, opts.namespace+":")
	}
	runner := pipeline.NewRunner(pageCache, keyer, c.Logger)
	defer runner.Close()

	srv := server.New(server.Config{
		Addr:           opts.addr,
		Logger:         c.Logger,
		Runner:         runner,
		Store:          store,
		Metrics:        metrics,
		AllowedOrigins: opts.origins,
		Seed:           opts.seed,
	})

	c.success("Serving on %s", opts.addr)
	return srv.ListenAndServe(ctx)
}

// memoryArchive builds the in-memory document archive used without --mongo.
func memoryArchive(opts serveOpts) *storage.MemoryStore {
	return storage.NewMemoryStore(
		storage.WithMaxDocuments(opts.archiveMax),
		storage.WithTTL(opts.retention),
	)
}
