// Package server exposes dependency graphs over HTTP as JSON, CSV, SVG or PNG.
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/msalah0e/depviz/internal/graph"
	"github.com/msalah0e/depviz/internal/layout"
	"github.com/msalah0e/depviz/internal/render"
	"github.com/msalah0e/depviz/internal/session"
	"github.com/msalah0e/depviz/internal/source"
)

// Fetcher loads the graph for a model id. *source.Client satisfies it.
type Fetcher interface {
	Fetch(ctx context.Context, id string) (*graph.Graph, error)
}

type Options struct {
	Fetcher Fetcher
	// Session is the base for every render; query parameters override
	// layout, grouping and edge style per request.
	Session        session.Options
	Fit            bool
	FitMargin      float64
	MaxFrames      int
	AllowedOrigins []string
	Logger         *zap.Logger
}

// Stats counts served requests.
type Stats struct {
	Requests  int64            `json:"requests"`
	Failures  int64            `json:"failures"`
	ByFormat  map[string]int64 `json:"by_format"`
	StartedAt time.Time        `json:"started_at"`
}

// Server renders graphs on request. It keeps no per-model state between
// requests.
type Server struct {
	opts Options
	log  *zap.Logger

	mu    sync.Mutex
	stats Stats
}

func New(opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if len(opts.AllowedOrigins) == 0 {
		opts.AllowedOrigins = []string{"*"}
	}
	return &Server{
		opts: opts,
		log:  opts.Logger,
		stats: Stats{
			ByFormat:  make(map[string]int64),
			StartedAt: time.Now(),
		},
	}
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(requestLogger(s.log))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.opts.AllowedOrigins,
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))

	r.Get("/health", s.health)
	r.Get("/stats", s.statsHandler)
	r.Get("/models/{id}/graph", s.modelGraph)

	return r
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.log.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}

// Stats returns a snapshot of the request counters.
func (s *Server) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.stats
	out.ByFormat = make(map[string]int64, len(s.stats.ByFormat))
	for k, v := range s.stats.ByFormat {
		out.ByFormat[k] = v
	}
	return out
}

func (s *Server) record(format string, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stats.Requests++
	if !ok {
		s.stats.Failures++
		return
	}
	s.stats.ByFormat[format]++
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"healthy"}`))
}

func (s *Server) statsHandler(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, s.Stats())
}

// modelGraph handles GET /models/{id}/graph.
func (s *Server) modelGraph(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	q := r.URL.Query()
	format := strings.ToLower(q.Get("format"))
	if format == "" {
		format = string(render.FormatSVG)
	}

	req, err := s.parseQuery(format, q)
	if err != nil {
		s.record(format, false)
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	g, err := s.opts.Fetcher.Fetch(r.Context(), id)
	if err != nil {
		if errors.Is(err, source.ErrUnavailable) {
			s.log.Error("fetch failed", zap.String("model", id), zap.Error(err))
			s.record(format, false)
			s.respondError(w, http.StatusBadGateway, "relationships backend unavailable")
			return
		}
		// Bad payloads degrade to whatever graph came back, usually empty.
		s.log.Warn("rendering degraded graph", zap.String("model", id), zap.Error(err))
	}

	visible := req.filter.Apply(g)
	if req.selectID != "" && !visible.Has(req.selectID) {
		s.record(format, false)
		s.respondError(w, http.StatusBadRequest, fmt.Sprintf("%v: %q", session.ErrNotVisible, req.selectID))
		return
	}

	var (
		body        []byte
		contentType string
	)
	switch format {
	case "json":
		body, err = visible.ExportJSON()
		contentType = "application/json"
	case "csv":
		body = []byte(visible.ExportCSV())
		contentType = "text/csv; charset=utf-8"
	default:
		body, contentType, err = s.draw(r.Context(), g, req)
	}
	if err != nil {
		if errors.Is(err, session.ErrNotVisible) {
			s.record(format, false)
			s.respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.log.Error("render failed", zap.String("model", id), zap.Error(err))
		s.record(format, false)
		s.respondError(w, http.StatusInternalServerError, "failed to render graph")
		return
	}

	s.record(format, true)
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}

func (s *Server) draw(ctx context.Context, g *graph.Graph, req request) ([]byte, string, error) {
	sess, err := session.Headless(ctx, g, req.opts, session.Scene{
		Filter:    req.filter,
		Select:    req.selectID,
		Fit:       s.opts.Fit,
		FitMargin: s.opts.FitMargin,
		MaxFrames: s.opts.MaxFrames,
	})
	if err != nil {
		return nil, "", err
	}
	defer sess.Stop()

	var buf bytes.Buffer
	if err := render.Encode(&buf, req.format, sess.Frame(), sess.RenderOptions()); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), req.format.ContentType(), nil
}

type request struct {
	format   render.Format
	opts     session.Options
	filter   graph.Filter
	selectID string
}

func (s *Server) parseQuery(format string, q map[string][]string) (request, error) {
	get := func(key string) string {
		if v := q[key]; len(v) > 0 {
			return v[0]
		}
		return ""
	}

	req := request{opts: s.opts.Session, selectID: get("select")}
	req.opts.Logger = s.log

	switch format {
	case "json", "csv":
	case string(render.FormatSVG), string(render.FormatPNG):
		req.format = render.Format(format)
	default:
		return req, fmt.Errorf("unknown format %q (use json, csv, svg or png)", format)
	}

	if v := get("layout"); v != "" {
		kind, err := layout.ParseKind(v)
		if err != nil {
			return req, err
		}
		req.opts.Layout = kind
	}
	if v := get("group"); v != "" {
		by, err := graph.ParseGroupBy(v)
		if err != nil {
			return req, err
		}
		req.opts.Render.GroupBy = by
	}
	if v := get("edges"); v != "" {
		style, err := render.ParseEdgeStyle(v)
		if err != nil {
			return req, err
		}
		req.opts.Render.EdgeStyle = style
	}

	f, err := graph.NewFilter(list(q["risk"]), list(q["department"]), list(q["owner"]))
	if err != nil {
		return req, err
	}
	req.filter = f
	return req, nil
}

// list accepts both repeated parameters and comma-separated values.
func list(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Error("failed to encode response", zap.Error(err))
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]any{
		"error":   true,
		"message": message,
		"code":    status,
	})
}
