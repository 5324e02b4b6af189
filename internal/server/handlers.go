package server

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/tabledraw/pkg/cache"
	"github.com/matzehuels/tabledraw/pkg/config"
	"github.com/matzehuels/tabledraw/pkg/errors"
	"github.com/matzehuels/tabledraw/pkg/pipeline"
	"github.com/matzehuels/tabledraw/pkg/render/nodelink"
	"github.com/matzehuels/tabledraw/pkg/storage"
	"github.com/matzehuels/tabledraw/pkg/table"
)

//go:embed index.html
var indexHTML []byte

// DocumentIDHeader carries the archive id of a converted document.
const DocumentIDHeader = "X-Document-ID"

func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(indexHTML)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	in, err := s.readUpload(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	opts := pipeline.Options{
		Config: in.config,
		Seed:   r.FormValue("seed"),
	}
	if opts.Seed == "" && s.cfg.Seed != "" {
		if opts.Seed, err = tableSeed(s.cfg.Seed, in.table); err != nil {
			s.writeError(w, r, err)
			return
		}
	}

	result, err := s.cfg.Runner.Convert(r.Context(), in.table, opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	if s.cfg.Store != nil {
		doc := &storage.Document{
			Name:    in.baseName + ".drawio",
			Headers: result.PageNames(),
			Content: result.Document,
		}
		if err := s.cfg.Store.Save(r.Context(), doc); err != nil {
			s.logger.Warn("archive document", "error", err)
		} else {
			w.Header().Set(DocumentIDHeader, doc.ID)
		}
	}

	writeDiagram(w, "diagram.drawio", result.Document)
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	in, err := s.readUpload(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	header := r.FormValue("header")
	if header == "" {
		header = in.table.Headers()[0]
	}
	svg, err := s.cfg.Runner.Preview(r.Context(), in.table, header, pipeline.PreviewOptions{
		Options: nodelink.Options{
			Detailed:    r.FormValue("detailed") == "true",
			LeftToRight: r.FormValue("direction") == "lr",
		},
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	_, _ = w.Write(svg)
}

func (s *Server) handleDocument(w http.ResponseWriter, r *http.Request) {
	if s.cfg.Store == nil {
		s.writeError(w, r, errors.New(errors.ErrCodeNotFound, "document archive disabled"))
		return
	}
	doc, err := s.cfg.Store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeDiagram(w, doc.Name, doc.Content)
}

// tableSeed scopes the server-wide seed to one table, so documents converted
// from different tables do not share cell ids while a repeated conversion
// stays reproducible.
func tableSeed(seed string, t *table.Grouped) (string, error) {
	h, err := cache.HashJSON(t)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInternal, err, "hash table")
	}
	return seed + ":" + h[:16], nil
}

func writeDiagram(w http.ResponseWriter, name string, data []byte) {
	w.Header().Set("Content-Type", "application/xml")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	_, _ = w.Write(data)
}

type upload struct {
	table    *table.Grouped
	config   config.Config
	baseName string
}

// readUpload parses the multipart form: a required CSV "file" and an
// optional "config" whose format follows its filename extension.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) (*upload, error) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxUploadBytes)
	if err := r.ParseMultipartForm(MaxUploadBytes); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "parse multipart form")
	}

	f, fh, err := r.FormFile("file")
	if err != nil {
		return nil, errors.New(errors.ErrCodeInvalidInput, "missing form field %q", "file")
	}
	defer f.Close()

	t, err := pipeline.ParseTable(f, fh.Filename)
	if err != nil {
		return nil, err
	}
	if len(t.Sections()) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "%s: table has no rows", fh.Filename)
	}

	cfg := config.Default()
	if cf, ch, err := r.FormFile("config"); err == nil {
		defer cf.Close()
		if cfg, err = readConfig(cf, ch); err != nil {
			return nil, err
		}
	}

	return &upload{
		table:    t,
		config:   cfg,
		baseName: strings.TrimSuffix(filepath.Base(fh.Filename), filepath.Ext(fh.Filename)),
	}, nil
}

func readConfig(f multipart.File, fh *multipart.FileHeader) (config.Config, error) {
	format, err := config.FormatFromPath(fh.Filename)
	if err != nil {
		return config.Config{}, err
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, f); err != nil {
		return config.Config{}, errors.Wrap(errors.ErrCodeInvalidInput, err, "read config upload")
	}
	return config.Parse(buf.Bytes(), format)
}
