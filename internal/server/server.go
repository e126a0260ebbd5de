// Package server exposes the frame pipeline over HTTP.
//
// # Routes
//
//	GET  /healthz                  liveness and version
//	POST /v1/frames                scene JSON in, frame report (or one artifact) out
//	GET  /v1/reports/{sceneHash}   a previously built report, from cache
//
// POST /v1/frames accepts these query parameters:
//
//	format         dot, svg, png or pdf; responds with the artifact instead of the report
//	dpr            device pixel ratio
//	no_tile_cache  disable tile caching for the frame
//	refresh        bypass cached reports and artifacts
//	detailed, rects, pruned   diagram options for format
//
// Every frame response carries the scene hash in X-Scene-Hash, which is the
// path parameter of GET /v1/reports.
package server

import (
	"bytes"
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/picgraph/pkg/buildinfo"
	"github.com/matzehuels/picgraph/pkg/builder"
	"github.com/matzehuels/picgraph/pkg/cache"
	"github.com/matzehuels/picgraph/pkg/errors"
	"github.com/matzehuels/picgraph/pkg/httputil"
	"github.com/matzehuels/picgraph/pkg/pipeline"
	"github.com/matzehuels/picgraph/pkg/render"
	"github.com/matzehuels/picgraph/pkg/scene"
)

const (
	// KeyPrefix scopes server cache entries.
	KeyPrefix = "picgraph:server:"

	// ShutdownTimeout bounds graceful shutdown once the context is done.
	ShutdownTimeout = 10 * time.Second

	headerSceneHash = "X-Scene-Hash"
	headerCache     = "X-Cache"
)

var contentTypes = map[string]string{
	render.FormatDOT: "text/vnd.graphviz; charset=utf-8",
	render.FormatSVG: "image/svg+xml",
	render.FormatPNG: "image/png",
	render.FormatPDF: "application/pdf",
}

// Server handles frame requests with a shared pipeline runner.
type Server struct {
	runner   *pipeline.Runner
	defaults pipeline.Options
	logger   *log.Logger
}

// New creates a server. defaults seeds the options of every request; query
// parameters override them. A runner without a scoped keyer gets one with
// KeyPrefix.
func New(runner *pipeline.Runner, defaults pipeline.Options, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	if _, ok := runner.Keyer.(*cache.ScopedKeyer); !ok {
		runner.Keyer = cache.NewScopedKeyer(runner.Keyer, KeyPrefix)
	}
	return &Server{runner: runner, defaults: defaults, logger: logger}
}

// Handler returns the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(httputil.RequestLogger(s.logger))

	r.Get("/healthz", s.handleHealth)
	r.Route("/v1", func(r chi.Router) {
		r.Post("/frames", s.handleFrame)
		r.Get("/reports/{sceneHash}", s.handleReport)
	})
	return r
}

// ListenAndServe serves on addr until ctx is done, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr, "version", buildinfo.Version)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// =============================================================================
// Handlers
// =============================================================================

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": buildinfo.Version,
	})
}

func (s *Server) handleFrame(w http.ResponseWriter, r *http.Request) {
	var file scene.File
	if err := httputil.DecodeJSON(r, &file, 0); err != nil {
		httputil.WriteError(w, err)
		return
	}
	sc, err := scene.FromFile(file)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	opts, err := s.options(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	result, err := s.runner.Execute(r.Context(), sc, opts)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	w.Header().Set(headerSceneHash, result.SceneHash)
	w.Header().Set(headerCache, result.CacheInfo.String())

	if len(opts.Formats) == 0 {
		httputil.WriteJSON(w, http.StatusOK, result.Report)
		return
	}
	format := opts.Formats[0]
	w.Header().Set("Content-Type", contentTypes[format])
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(result.Artifacts[format])
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	sceneHash := chi.URLParam(r, "sceneHash")
	opts, err := s.options(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		httputil.WriteError(w, err)
		return
	}

	key := s.runner.Keyer.ReportKey(sceneHash, cache.ReportKeyOpts{
		DevicePixelRatio: opts.DevicePixelRatio,
		DisableTileCache: opts.DisableTileCache,
	})
	data, hit, err := s.runner.Cache.Get(r.Context(), key)
	if err != nil {
		httputil.WriteError(w, errors.Wrap(errors.ErrCodeCache, err, "read report"))
		return
	}
	if !hit {
		httputil.WriteError(w, errors.New(errors.ErrCodeNotFound, "no report for scene %s", sceneHash))
		return
	}
	report, err := builder.ReadReport(bytes.NewReader(data))
	if err != nil {
		httputil.WriteError(w, errors.Wrap(errors.ErrCodeCache, err, "corrupt report"))
		return
	}
	w.Header().Set(headerSceneHash, sceneHash)
	httputil.WriteJSON(w, http.StatusOK, report)
}

// options merges query parameters into the server defaults. At most one
// format may be requested.
func (s *Server) options(r *http.Request) (pipeline.Options, error) {
	opts := s.defaults
	opts.Formats = nil
	q := r.URL.Query()

	if f := strings.TrimSpace(q.Get("format")); f != "" {
		if strings.Contains(f, ",") {
			return opts, errors.New(errors.ErrCodeInvalidInput, "request one format at a time, got %q", f)
		}
		opts.Formats = []string{strings.ToLower(f)}
	}
	if v := q.Get("dpr"); v != "" {
		dpr, err := strconv.ParseFloat(v, 32)
		if err != nil || dpr <= 0 {
			return opts, errors.New(errors.ErrCodeInvalidInput, "invalid dpr %q", v)
		}
		opts.DevicePixelRatio = float32(dpr)
	}

	flags := []struct {
		name string
		dst  *bool
	}{
		{"no_tile_cache", &opts.DisableTileCache},
		{"refresh", &opts.Refresh},
		{"detailed", &opts.Render.Detailed},
		{"rects", &opts.Render.ShowRects},
		{"pruned", &opts.Render.Pruned},
	}
	for _, f := range flags {
		v := q.Get(f.name)
		if v == "" {
			continue
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return opts, errors.New(errors.ErrCodeInvalidInput, "invalid %s %q", f.name, v)
		}
		*f.dst = b
	}
	return opts, nil
}
