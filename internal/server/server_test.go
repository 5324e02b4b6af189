package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/tabledraw/pkg/drawio"
	"github.com/matzehuels/tabledraw/pkg/observability"
	"github.com/matzehuels/tabledraw/pkg/storage"
)

const sampleCSV = "Header,Sub-Header,Item,Status\nA,S,x,Green\nA,S,y,Red\nB,T,z,\n"

func newTestServer(t *testing.T, store storage.Store) *Server {
	t.Helper()
	metrics := observability.NewCollector("test")
	observability.SetHTTPHooks(metrics)
	t.Cleanup(observability.Reset)

	s := New(Config{
		Logger:  log.New(io.Discard),
		Store:   store,
		Metrics: metrics,
	})
	return s
}

type part struct {
	field, filename, content string
}

func multipartRequest(t *testing.T, target string, parts ...part) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for _, p := range parts {
		if p.filename == "" {
			require.NoError(t, mw.WriteField(p.field, p.content))
			continue
		}
		w, err := mw.CreateFormFile(p.field, p.filename)
		require.NoError(t, err)
		_, err = io.WriteString(w, p.content)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, target, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorBody {
	t.Helper()
	var body errorBody
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body
}

func TestHealthAndIndex(t *testing.T) {
	s := newTestServer(t, nil)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `action="/api/v1/convert"`)
}

func TestConvert(t *testing.T) {
	store := storage.NewMemoryStore()
	s := newTestServer(t, store)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, multipartRequest(t, "/api/v1/convert",
		part{field: "file", filename: "plan.csv", content: sampleCSV},
		part{field: "seed", content: "7"}))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "application/xml", rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="diagram.drawio"`, rec.Header().Get("Content-Disposition"))

	doc, err := drawio.ParseDocument(rec.Body.Bytes())
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, doc.PageNames())

	id := rec.Header().Get(DocumentIDHeader)
	require.NotEmpty(t, id)
	archived, err := store.Get(t.Context(), id)
	require.NoError(t, err)
	assert.Equal(t, "plan.drawio", archived.Name)
	assert.Equal(t, rec.Body.Bytes(), archived.Content)

	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/documents/"+id, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, archived.Content, rec.Body.Bytes())
	assert.Equal(t, `attachment; filename="plan.drawio"`, rec.Header().Get("Content-Disposition"))

	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, rec.Body.String(), `test_http_requests_total{method="POST",route="/api/v1/convert",status="200"} 1`)
}

func TestConvertWithConfig(t *testing.T) {
	s := newTestServer(t, nil)
	yaml := `
page: {grid: 1, gridSize: 10, guides: 1, tooltips: 1, connect: 1, arrows: 1, fold: 1, pageScale: 1, pageWidth: 1169, pageHeight: 827, background: none}
shape:
  header: {width: 200, height: 40, style: "rounded=0;"}
  subheader: {width: 160, height: 30, style: "rounded=0;"}
  item: {width: 120, height: 40, style: "rounded=1;"}
layout: {header_x: 20, header_y: 20, subheader_indent_x: 40, subheader_gap_y: 30, item_gap_x: 30, item_gap_y: 30, item_spacing_x: 140, item_to_subheader_gap_y: 20}
`
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, multipartRequest(t, "/api/v1/convert",
		part{field: "file", filename: "plan.csv", content: sampleCSV},
		part{field: "config", filename: "config.yaml", content: yaml}))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	doc, err := drawio.ParseDocument(rec.Body.Bytes())
	require.NoError(t, err)
	data, err := doc.Pages[0].XML()
	require.NoError(t, err)
	assert.Contains(t, string(data), `background="none"`)
}

func TestConvertErrors(t *testing.T) {
	tests := []struct {
		name       string
		parts      []part
		wantStatus int
		wantCode   string
	}{
		{
			name:       "missing file",
			parts:      []part{{field: "seed", content: "1"}},
			wantStatus: http.StatusUnprocessableEntity,
			wantCode:   "INVALID_INPUT",
		},
		{
			name:       "malformed row",
			parts:      []part{{field: "file", filename: "x.csv", content: "Header,Sub-Header,Item\nA,,x\n"}},
			wantStatus: http.StatusUnprocessableEntity,
			wantCode:   "MALFORMED_RECORD",
		},
		{
			name:       "no rows",
			parts:      []part{{field: "file", filename: "x.csv", content: "Header,Sub-Header,Item\n"}},
			wantStatus: http.StatusUnprocessableEntity,
			wantCode:   "INVALID_INPUT",
		},
		{
			name: "bad config",
			parts: []part{
				{field: "file", filename: "x.csv", content: sampleCSV},
				{field: "config", filename: "config.yaml", content: "page: {}\n"},
			},
			wantStatus: http.StatusUnprocessableEntity,
			wantCode:   "INVALID_CONFIG",
		},
		{
			name: "unknown config format",
			parts: []part{
				{field: "file", filename: "x.csv", content: sampleCSV},
				{field: "config", filename: "config.ini", content: "a=b\n"},
			},
			wantStatus: http.StatusUnprocessableEntity,
			wantCode:   "INVALID_CONFIG",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t, nil)
			rec := httptest.NewRecorder()
			s.Handler().ServeHTTP(rec, multipartRequest(t, "/api/v1/convert", tt.parts...))

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			body := decodeError(t, rec)
			assert.Equal(t, tt.wantCode, body.Code)
			assert.NotEmpty(t, body.Message)
		})
	}
}

func TestConvertNotMultipart(t *testing.T) {
	s := newTestServer(t, nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/convert", strings.NewReader("x")))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "INVALID_INPUT", decodeError(t, rec).Code)
}

func TestDocumentNotFound(t *testing.T) {
	s := newTestServer(t, storage.NewMemoryStore())
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/documents/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "NOT_FOUND", decodeError(t, rec).Code)

	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, rec.Body.String(), `test_http_errors_total{code="NOT_FOUND",method="GET",route="/api/v1/documents/{id}"} 1`)
}

func TestDocumentArchiveDisabled(t *testing.T) {
	s := newTestServer(t, nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/documents/abc", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPreview(t *testing.T) {
	s := newTestServer(t, nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, multipartRequest(t, "/api/v1/preview",
		part{field: "file", filename: "plan.csv", content: sampleCSV},
		part{field: "header", content: "B"}))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "image/svg+xml", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "<svg")

	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, multipartRequest(t, "/api/v1/preview",
		part{field: "file", filename: "plan.csv", content: sampleCSV},
		part{field: "header", content: "Z"}))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCORSPreflight(t *testing.T) {
	s := newTestServer(t, nil)
	req := httptest.NewRequest(http.MethodOptions, "/api/v1/convert", nil)
	req.Header.Set("Origin", "https://example.com")
	req.Header.Set("Access-Control-Request-Method", "POST")

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

type recordedRequest struct {
	method, route string
}

// recordingHooks captures the routes reported to the HTTP hooks.
type recordingHooks struct {
	mu        sync.Mutex
	requests  []recordedRequest
	responses []recordedRequest
}

func (h *recordingHooks) OnRequest(_ context.Context, method, route string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.requests = append(h.requests, recordedRequest{method, route})
}

func (h *recordingHooks) OnResponse(_ context.Context, method, route string, _ int, _ time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.responses = append(h.responses, recordedRequest{method, route})
}

func (h *recordingHooks) OnError(context.Context, string, string, string) {}

func TestInstrumentReportsRoutePattern(t *testing.T) {
	hooks := &recordingHooks{}
	observability.SetHTTPHooks(hooks)
	t.Cleanup(observability.Reset)
	s := New(Config{Logger: log.New(io.Discard), Store: storage.NewMemoryStore()})

	for _, target := range []string{"/api/v1/documents/abc", "/api/v1/documents/def", "/api/v1/nothing-here"} {
		s.Handler().ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, target, nil))
	}

	want := []recordedRequest{
		{http.MethodGet, "/api/v1/documents/{id}"},
		{http.MethodGet, "/api/v1/documents/{id}"},
		{http.MethodGet, unmatchedRoute},
	}
	assert.Equal(t, want, hooks.requests)
	assert.Equal(t, want, hooks.responses)
}

// vertexIDs returns the ids of the non-structural cells on every page.
func vertexIDs(t *testing.T, data []byte) []string {
	t.Helper()
	doc, err := drawio.ParseDocument(data)
	require.NoError(t, err)
	var ids []string
	for _, p := range doc.Pages {
		m, err := p.Model()
		require.NoError(t, err)
		for _, c := range m.Cells[2:] {
			ids = append(ids, c.ID)
		}
	}
	return ids
}

func TestServerSeedIsScopedPerTable(t *testing.T) {
	t.Cleanup(observability.Reset)
	s := New(Config{Logger: log.New(io.Discard), Seed: "shared"})

	convert := func(csv string, extra ...part) []string {
		rec := httptest.NewRecorder()
		parts := append([]part{{field: "file", filename: "plan.csv", content: csv}}, extra...)
		s.Handler().ServeHTTP(rec, multipartRequest(t, "/api/v1/convert", parts...))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		return vertexIDs(t, rec.Body.Bytes())
	}

	first := convert(sampleCSV)
	require.NotEmpty(t, first)
	assert.Equal(t, first, convert(sampleCSV), "same table and seed must reproduce ids")

	other := convert("Header,Sub-Header,Item\nC,U,w\n")
	for _, id := range other {
		assert.NotContains(t, first, id)
	}

	// An explicit seed is used as given, independent of the table.
	a := convert(sampleCSV, part{field: "seed", content: "7"})
	b := convert("Header,Sub-Header,Item\nC,U,w\n", part{field: "seed", content: "7"})
	assert.Equal(t, a[0], b[0])
}
