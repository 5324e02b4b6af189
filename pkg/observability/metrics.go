package observability

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector records hook events as Prometheus metrics. It implements
// [PipelineHooks], [CacheHooks] and [HTTPHooks].
//
// Each Collector owns its registry, so tests can create as many as they
// like without duplicate registration panics.
type Collector struct {
	registry *prometheus.Registry

	Conversions       *prometheus.CounterVec
	ConvertDuration   prometheus.Histogram
	LayoutDuration    prometheus.Histogram
	EncodeDuration    prometheus.Histogram
	PagesEncoded      prometheus.Counter
	DocumentBytes     prometheus.Histogram
	NodesPlaced       prometheus.Counter
	CacheRequests     *prometheus.CounterVec
	CacheWrittenBytes prometheus.Counter
	HTTPRequests      *prometheus.CounterVec
	HTTPDuration      *prometheus.HistogramVec
	HTTPErrors        *prometheus.CounterVec
}

// NewCollector creates a collector whose metric names start with namespace.
func NewCollector(namespace string) *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		Conversions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "conversions_total",
			Help:      "Total number of conversions by result.",
		}, []string{"result"}),
		ConvertDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "convert_duration_seconds",
			Help:      "End-to-end conversion duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		}),
		LayoutDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "layout_duration_seconds",
			Help:      "Per-page layout duration in seconds.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8),
		}),
		EncodeDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "encode_duration_seconds",
			Help:      "Document encoding duration in seconds.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8),
		}),
		PagesEncoded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pages_encoded_total",
			Help:      "Total number of diagram pages encoded.",
		}),
		DocumentBytes: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "document_size_bytes",
			Help:      "Size of rendered documents in bytes.",
			Buckets:   prometheus.ExponentialBuckets(1024, 4, 8),
		}),
		NodesPlaced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "nodes_placed_total",
			Help:      "Total number of diagram nodes laid out.",
		}),
		CacheRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_requests_total",
			Help:      "Cache lookups by key type and result.",
		}, []string{"key_type", "result"}),
		CacheWrittenBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_written_bytes_total",
			Help:      "Bytes written to the cache.",
		}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests.",
		}, []string{"method", "route", "status"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		HTTPErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_errors_total",
			Help:      "HTTP requests that failed, by error code.",
		}, []string{"method", "route", "code"}),
	}

	c.registry.MustRegister(
		c.Conversions,
		c.ConvertDuration,
		c.LayoutDuration,
		c.EncodeDuration,
		c.PagesEncoded,
		c.DocumentBytes,
		c.NodesPlaced,
		c.CacheRequests,
		c.CacheWrittenBytes,
		c.HTTPRequests,
		c.HTTPDuration,
		c.HTTPErrors,
	)
	return c
}

// Registry returns the Prometheus registry for this collector.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the collector's metrics in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

func (c *Collector) OnConvertStart(context.Context, int, int) {}

func (c *Collector) OnConvertComplete(_ context.Context, _ int, d time.Duration, err error) {
	c.Conversions.WithLabelValues(result(err)).Inc()
	c.ConvertDuration.Observe(d.Seconds())
}

func (c *Collector) OnLayoutStart(context.Context, string, int) {}

func (c *Collector) OnLayoutComplete(_ context.Context, _ string, nodes int, d time.Duration, err error) {
	c.LayoutDuration.Observe(d.Seconds())
	if err == nil {
		c.NodesPlaced.Add(float64(nodes))
	}
}

func (c *Collector) OnEncodeStart(context.Context, int) {}

func (c *Collector) OnEncodeComplete(_ context.Context, pages, size int, d time.Duration, err error) {
	c.EncodeDuration.Observe(d.Seconds())
	if err == nil {
		c.PagesEncoded.Add(float64(pages))
		c.DocumentBytes.Observe(float64(size))
	}
}

func (c *Collector) OnCacheHit(_ context.Context, keyType string) {
	c.CacheRequests.WithLabelValues(keyType, "hit").Inc()
}

func (c *Collector) OnCacheMiss(_ context.Context, keyType string) {
	c.CacheRequests.WithLabelValues(keyType, "miss").Inc()
}

func (c *Collector) OnCacheSet(_ context.Context, _ string, size int) {
	c.CacheWrittenBytes.Add(float64(size))
}

func (c *Collector) OnRequest(context.Context, string, string) {}

func (c *Collector) OnResponse(_ context.Context, method, route string, status int, d time.Duration) {
	c.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.HTTPDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

func (c *Collector) OnError(_ context.Context, method, route, code string) {
	c.HTTPErrors.WithLabelValues(method, route, code).Inc()
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

var (
	_ PipelineHooks = (*Collector)(nil)
	_ CacheHooks    = (*Collector)(nil)
	_ HTTPHooks     = (*Collector)(nil)
)
