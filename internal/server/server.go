// Package server exposes a running pipeline over local HTTP so a browser can
// preview, pin and rename traits while the assets are being authored.
package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"slices"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/traitstack/pkg/catalog"
	"github.com/matzehuels/traitstack/pkg/errors"
	tsio "github.com/matzehuels/traitstack/pkg/io"
	"github.com/matzehuels/traitstack/pkg/observability"
	"github.com/matzehuels/traitstack/pkg/pipeline"
)

// maxUpload bounds an uploaded trait image.
const maxUpload = 16 << 20

// Server serves one Runner.
type Server struct {
	runner *pipeline.Runner
	static *catalog.DirSource // nil disables uploads
	logger *log.Logger
	router *chi.Mux
}

// New builds the router. static may be nil when the catalog is not backed by
// a directory.
func New(runner *pipeline.Runner, static *catalog.DirSource, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	s := &Server{runner: runner, static: static, logger: logger}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/preview.png", s.handlePreview)
	r.Route("/api", func(r chi.Router) {
		r.Get("/layers", s.handleLayers)
		r.Post("/randomize", s.handleRandomize)
		r.Post("/refresh", s.handleRefresh)
		r.Post("/apply", s.handleApply)
		r.Delete("/overrides", s.handleClearOverrides)
		r.Put("/layers/{layer}/override", s.handleSetOverride)
		r.Delete("/layers/{layer}/override", s.handleClearOverride)
		r.Post("/layers/{layer}/rename", s.handleRename)
		r.Post("/layers/{layer}/assets", s.handleUpload)
	})
	s.router = r
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdown)
	}()
	s.logger.Info("serving previews", "addr", "http://"+addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		observability.HTTP().OnRequest(r.Context(), r.Method, r.URL.Path)
		next.ServeHTTP(ww, r)
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		observability.HTTP().OnResponse(r.Context(), r.Method, r.URL.Path, status, time.Since(start))
		s.logger.Debug("request", "method", r.Method, "path", r.URL.Path, "status", status,
			"duration", time.Since(start).Round(time.Microsecond), "id", middleware.GetReqID(r.Context()))
	})
}

// =============================================================================
// Handlers
// =============================================================================

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	full, _ := strconv.ParseBool(r.URL.Query().Get("full"))
	frame := s.runner.Preview(r.Context())
	if full {
		frame = s.runner.Composite(r.Context())
	}
	data, err := tsio.EncodePNG(frame.Image)
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("X-Noise-Seed", strconv.FormatUint(frame.Seed, 10))
	_, _ = w.Write(data)
}

func (s *Server) handleLayers(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.runner.Layers())
}

func (s *Server) handleRandomize(w http.ResponseWriter, r *http.Request) {
	s.runner.Randomize()
	writeJSON(w, http.StatusOK, s.runner.Layers())
}

type refreshResponse struct {
	Assets   int      `json:"assets"`
	Hidden   int      `json:"hidden"`
	Warnings []string `json:"warnings,omitempty"`
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	report, err := s.runner.Refresh(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, refreshResponse{
		Assets:   report.Assets,
		Hidden:   report.Hidden,
		Warnings: messages(report.Warnings),
	})
}

type applyResponse struct {
	Selected int      `json:"selected"`
	Renamed  int      `json:"renamed"`
	Failed   []string `json:"failed,omitempty"`
}

func (s *Server) handleApply(w http.ResponseWriter, r *http.Request) {
	var edits []pipeline.LayerEdit
	if !s.decode(w, r, &edits) {
		return
	}
	report := s.runner.ApplyAll(r.Context(), edits)
	writeJSON(w, http.StatusOK, applyResponse{
		Selected: report.Selected,
		Renamed:  report.Renamed,
		Failed:   messages(report.Failed),
	})
}

type overrideRequest struct {
	Name string `json:"name"`
}

func (s *Server) handleSetOverride(w http.ResponseWriter, r *http.Request) {
	var req overrideRequest
	if !s.decode(w, r, &req) {
		return
	}
	if err := s.runner.SetOverride(chi.URLParam(r, "layer"), req.Name); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.runner.Layers())
}

func (s *Server) handleClearOverride(w http.ResponseWriter, r *http.Request) {
	if !s.runner.ClearOverride(chi.URLParam(r, "layer")) {
		s.writeError(w, errors.New(errors.ErrCodeNotFound, "layer %s has no override", chi.URLParam(r, "layer")))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type clearResponse struct {
	Cleared int                  `json:"cleared"`
	Layers  []pipeline.LayerInfo `json:"layers"`
}

func (s *Server) handleClearOverrides(w http.ResponseWriter, r *http.Request) {
	n := s.runner.ClearOverrides()
	writeJSON(w, http.StatusOK, clearResponse{Cleared: n, Layers: s.runner.Layers()})
}

type renameRequest struct {
	From string `json:"from"`
	To   string `json:"to"`
}

type renameResponse struct {
	Layer string `json:"layer"`
	Name  string `json:"name"`
}

func (s *Server) handleRename(w http.ResponseWriter, r *http.Request) {
	var req renameRequest
	if !s.decode(w, r, &req) {
		return
	}
	layer := chi.URLParam(r, "layer")
	a, err := s.runner.Rename(r.Context(), layer, req.From, req.To)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, renameResponse{Layer: layer, Name: a.Name()})
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if s.static == nil {
		s.writeError(w, errors.New(errors.ErrCodeUnsupported, "uploads need a directory-backed catalog"))
		return
	}
	layer := chi.URLParam(r, "layer")
	if err := errors.ValidateLayerName(layer); err != nil {
		s.writeError(w, err)
		return
	}
	if !slices.Contains(s.runner.Config().Layers, layer) {
		s.writeError(w, errors.New(errors.ErrCodeInvalidLayer, "layer %s is not in the stack", layer))
		return
	}
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxUpload))
	if err != nil {
		s.writeError(w, errors.Wrap(errors.ErrCodeInvalidInput, err, "read upload"))
		return
	}
	if _, err := tsio.Decode(data); err != nil {
		s.writeError(w, err)
		return
	}
	suggested := r.URL.Query().Get("name")
	if suggested == "" {
		suggested = layer
	}
	name, err := tsio.Persist(s.static.Dir(layer), data, suggested)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if _, err := s.runner.Refresh(r.Context()); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, renameResponse{Layer: layer, Name: name})
}

// =============================================================================
// Helpers
// =============================================================================

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(v); err != nil {
		s.writeError(w, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode request body"))
		return false
	}
	return true
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := statusFor(errors.GetCode(err))
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "err", err)
	}
	code := errors.GetCode(err)
	if code == "" {
		code = errors.ErrCodeInternal
	}
	writeJSON(w, status, errorResponse{Code: string(code), Message: errors.UserMessage(err)})
}

func statusFor(code errors.Code) int {
	switch code {
	case errors.ErrCodeNameConflict, errors.ErrCodeNoBackground:
		return http.StatusConflict
	case errors.ErrCodeNotFound, errors.ErrCodeFileNotFound:
		return http.StatusNotFound
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidLayer, errors.ErrCodeInvalidName, errors.ErrCodeInvalidPath:
		return http.StatusBadRequest
	case errors.ErrCodeDecodeFailure:
		return http.StatusUnsupportedMediaType
	case errors.ErrCodeUnsupported:
		return http.StatusNotImplemented
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func messages(ws errors.Warnings) []string {
	out := make([]string, 0, len(ws))
	for _, w := range ws {
		out = append(out, w.Error())
	}
	return out
}
