package pipeline

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/tabledraw/pkg/cache"
	"github.com/matzehuels/tabledraw/pkg/config"
	"github.com/matzehuels/tabledraw/pkg/drawio"
	"github.com/matzehuels/tabledraw/pkg/errors"
	"github.com/matzehuels/tabledraw/pkg/observability"
	"github.com/matzehuels/tabledraw/pkg/table"
)

const sampleCSV = `Header,Sub-Header,Item,Status
Platform,Compute,VMs,Green
Platform,Compute,Containers,Amber
Platform,Storage,Blobs,Red
Apps,Web,Portal,Green
`

var fixedTime = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func sampleTable(t *testing.T) *table.Grouped {
	t.Helper()
	g, err := ParseTable(strings.NewReader(sampleCSV), "sample.csv")
	require.NoError(t, err)
	return g
}

func seededOptions() Options {
	return Options{
		Config:   config.Default(),
		Seed:     "42",
		Modified: fixedTime,
		Agent:    "test",
	}
}

func TestValidateAndSetDefaults(t *testing.T) {
	var opts Options
	require.NoError(t, opts.ValidateAndSetDefaults())

	assert.False(t, opts.Modified.IsZero())
	assert.NotEmpty(t, opts.Agent)
	assert.NotNil(t, opts.Logger)
	assert.False(t, opts.Deterministic())

	modified := opts.Modified
	require.NoError(t, opts.ValidateAndSetDefaults())
	assert.Equal(t, modified, opts.Modified, "second call must not change defaults")
}

func TestConvert(t *testing.T) {
	r := NewRunner(nil, nil, nil)
	result, err := r.Convert(context.Background(), sampleTable(t), seededOptions())
	require.NoError(t, err)

	assert.Equal(t, []string{"Platform", "Apps"}, result.PageNames())
	assert.Equal(t, 2, result.Stats.Headers)
	assert.Equal(t, 3, result.Stats.SubHeaders)
	assert.Equal(t, 4, result.Stats.Items)
	// header + sub-headers + items per page
	assert.Equal(t, 1+2+3+1+1+1, result.Stats.Vertices)
	assert.Equal(t, result.Stats.Vertices-2, result.Stats.Edges)
	assert.Equal(t, len(result.Document), result.Stats.Bytes)
	assert.NotEmpty(t, result.TableHash)
	assert.False(t, result.CacheHit)

	doc, err := drawio.ParseDocument(result.Document)
	require.NoError(t, err)
	assert.Equal(t, "test", doc.Agent)
	assert.True(t, doc.Modified.Equal(fixedTime))
	assert.Equal(t, result.PageNames(), doc.PageNames())

	for i, p := range doc.Pages {
		m, err := p.Model()
		require.NoError(t, err)
		require.NoError(t, m.Validate())
		v, e := m.Counts()
		assert.Equal(t, result.Pages[i].Vertices, v)
		assert.Equal(t, result.Pages[i].Edges, e)
	}
}

func TestConvertDeterministic(t *testing.T) {
	r := NewRunner(nil, nil, nil)
	g := sampleTable(t)

	a, err := r.Convert(context.Background(), g, seededOptions())
	require.NoError(t, err)
	b, err := r.Convert(context.Background(), g, seededOptions())
	require.NoError(t, err)
	assert.Equal(t, string(a.Document), string(b.Document))

	other := seededOptions()
	other.Seed = "43"
	c, err := r.Convert(context.Background(), g, other)
	require.NoError(t, err)
	assert.NotEqual(t, string(a.Document), string(c.Document))
}

func TestConvertRandomIDsDiffer(t *testing.T) {
	r := NewRunner(nil, nil, nil)
	g := sampleTable(t)
	opts := seededOptions()
	opts.Seed = ""

	a, err := r.Convert(context.Background(), g, opts)
	require.NoError(t, err)
	b, err := r.Convert(context.Background(), g, opts)
	require.NoError(t, err)
	assert.NotEqual(t, string(a.Document), string(b.Document))
}

func TestConvertErrors(t *testing.T) {
	r := NewRunner(nil, nil, nil)

	_, err := r.Convert(context.Background(), table.New(), seededOptions())
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidInput), "empty table: %v", err)

	opts := seededOptions()
	opts.Config.Layout.ItemWrapLimit = 0
	_, err = r.Convert(context.Background(), sampleTable(t), opts)
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidConfig), "bad config: %v", err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = r.Convert(ctx, sampleTable(t), seededOptions())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestConvertUsesCache(t *testing.T) {
	c, err := cache.NewFileCache(t.TempDir())
	require.NoError(t, err)

	metrics := observability.NewCollector("test")
	observability.SetPipelineHooks(metrics)
	observability.SetCacheHooks(metrics)
	t.Cleanup(observability.Reset)

	r := NewRunner(c, nil, nil)
	defer r.Close()
	g := sampleTable(t)

	first, err := r.Convert(context.Background(), g, seededOptions())
	require.NoError(t, err)
	assert.False(t, first.CacheHit)

	second, err := r.Convert(context.Background(), g, seededOptions())
	require.NoError(t, err)
	assert.True(t, second.CacheHit)
	assert.Equal(t, string(first.Document), string(second.Document))

	refresh := seededOptions()
	refresh.Refresh = true
	third, err := r.Convert(context.Background(), g, refresh)
	require.NoError(t, err)
	assert.False(t, third.CacheHit)

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.CacheRequests.WithLabelValues("document", "hit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.CacheRequests.WithLabelValues("document", "miss")))
	assert.Equal(t, 3.0, testutil.ToFloat64(metrics.Conversions.WithLabelValues("ok")))
	// Only the two encoding runs place nodes.
	assert.Equal(t, 2.0*9, testutil.ToFloat64(metrics.NodesPlaced))
}

func TestConvertSkipsCacheWithoutSeed(t *testing.T) {
	c, err := cache.NewFileCache(t.TempDir())
	require.NoError(t, err)
	r := NewRunner(c, nil, nil)

	opts := seededOptions()
	opts.Seed = ""
	for range 2 {
		result, err := r.Convert(context.Background(), sampleTable(t), opts)
		require.NoError(t, err)
		assert.False(t, result.CacheHit)
	}

	entries, err := os.ReadDir(c.Dir())
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestConvertChangedConfigMisses(t *testing.T) {
	c, err := cache.NewFileCache(t.TempDir())
	require.NoError(t, err)
	r := NewRunner(c, nil, nil)
	g := sampleTable(t)

	_, err = r.Convert(context.Background(), g, seededOptions())
	require.NoError(t, err)

	opts := seededOptions()
	opts.Config.Layout.ItemWrapLimit = 1
	result, err := r.Convert(context.Background(), g, opts)
	require.NoError(t, err)
	assert.False(t, result.CacheHit)
}

func TestPreview(t *testing.T) {
	c, err := cache.NewFileCache(t.TempDir())
	require.NoError(t, err)

	metrics := observability.NewCollector("test")
	observability.SetCacheHooks(metrics)
	t.Cleanup(observability.Reset)

	r := NewRunner(c, nil, nil)
	g := sampleTable(t)

	svg, err := r.Preview(context.Background(), g, "Platform", PreviewOptions{})
	require.NoError(t, err)
	assert.True(t, bytes.Contains(svg, []byte("<svg")))

	again, err := r.Preview(context.Background(), g, "Platform", PreviewOptions{})
	require.NoError(t, err)
	assert.Equal(t, svg, again)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.CacheRequests.WithLabelValues("preview", "hit")))

	_, err = r.Preview(context.Background(), g, "Missing", PreviewOptions{})
	assert.True(t, errors.Is(err, errors.ErrCodeNotFound))
}

func TestResolveConfig(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, source, err := ResolveConfig("")
	require.NoError(t, err)
	assert.Empty(t, source)
	assert.Equal(t, config.Default(), cfg)

	want := config.Default()
	want.Layout.ItemWrapLimit = 2
	var buf bytes.Buffer
	require.NoError(t, config.Encode(want, config.FormatTOML, &buf))
	require.NoError(t, os.WriteFile(DefaultConfigPath, buf.Bytes(), 0o644))

	cfg, source, err = ResolveConfig("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfigPath, source)
	assert.Equal(t, 2, cfg.Layout.ItemWrapLimit)

	_, _, err = ResolveConfig(filepath.Join("nope", "config.yaml"))
	assert.True(t, errors.Is(err, errors.ErrCodeFileNotFound))
}

func TestParseTableNamesSource(t *testing.T) {
	_, err := ParseTable(strings.NewReader("Header,Sub-Header\n"), "input.csv")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "input.csv")
	assert.True(t, errors.Is(err, errors.ErrCodeMalformedRecord))
}
