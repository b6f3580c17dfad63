// Package server exposes an editor session over HTTP.
//
// The front end posts editor messages to /api/ipc and listens for events on
// /api/events (server-sent events). Frames are served as JSON or SVG so any
// client can draw them:
//
//	GET  /api/diagram              current diagram with positions
//	GET  /api/scene.json           computed frame (boxes, routes, markers)
//	GET  /api/scene.svg            frame rendered as SVG
//	POST /api/viewport             fit the view to {"width","height"}
//	POST /api/ipc                  table_moved, save_layout, export_png
//	PUT  /api/tables/{id}/position move one table to {"x","y"}
//	POST /api/reset                discard positions and re-run auto-layout
//	POST /api/export               render a PNG beside the source file
//	GET  /api/events               event stream of table_moved / save_layout
//	GET  /api/version              build information
package server

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/erdraw/pkg/buildinfo"
	"github.com/matzehuels/erdraw/pkg/editor"
	"github.com/matzehuels/erdraw/pkg/erd"
	"github.com/matzehuels/erdraw/pkg/errors"
	"github.com/matzehuels/erdraw/pkg/observability"
	"github.com/matzehuels/erdraw/pkg/render/sink"
)

// DefaultAddr is the listen address used when none is configured.
const DefaultAddr = "127.0.0.1:7878"

// maxBodyBytes bounds request bodies. PNG data URLs are the largest payload.
const maxBodyBytes = 32 << 20

// Server serves one editor session.
type Server struct {
	session *editor.Session
	hub     *Hub
	logger  *log.Logger
	addr    string
	pngOpts []sink.PNGOption
	router  chi.Router
}

// Option configures a [Server].
type Option func(*Server)

// WithLogger sets the server logger. Defaults to log.Default().
func WithLogger(l *log.Logger) Option { return func(s *Server) { s.logger = l } }

// WithHub sets the event hub. Pass the same hub to the session with
// editor.WithNotifier so session events reach the stream.
func WithHub(h *Hub) Option { return func(s *Server) { s.hub = h } }

// WithAddr sets the listen address. Defaults to [DefaultAddr].
func WithAddr(addr string) Option { return func(s *Server) { s.addr = addr } }

// WithPNGOptions configures server-side PNG export.
func WithPNGOptions(opts ...sink.PNGOption) Option {
	return func(s *Server) { s.pngOpts = append(s.pngOpts, opts...) }
}

// New creates a server for sess.
func New(sess *editor.Session, opts ...Option) *Server {
	s := &Server{session: sess, addr: DefaultAddr}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = log.Default()
	}
	if s.hub == nil {
		s.hub = NewHub(s.logger)
	}
	s.router = s.routes()
	return s
}

// Hub returns the server's event hub.
func (s *Server) Hub() *Hub { return s.hub }

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(requestLogger(s.logger))
	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Get("/diagram", s.handleDiagram)
		r.Get("/scene.json", s.handleSceneJSON)
		r.Get("/scene.svg", s.handleSceneSVG)
		r.Post("/viewport", s.handleViewport)
		r.Post("/ipc", s.handleIPC)
		r.Put("/tables/{id}/position", s.handleMoveTable)
		r.Post("/reset", s.handleReset)
		r.Post("/export", s.handleExport)
		r.Get("/events", s.handleEvents)
		r.Get("/version", s.handleVersion)
	})
	return r
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()
	s.logger.Info("editor listening", "addr", ln.Addr().String(), "source", s.session.Source())

	select {
	case err := <-errCh:
		if stderrors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	s.logger.Info("editor stopped")
	return nil
}

// =============================================================================
// Handlers
// =============================================================================

func (s *Server) handleDiagram(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.session.Diagram())
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, buildinfo.Get())
}

func (s *Server) handleSceneJSON(w http.ResponseWriter, r *http.Request) {
	data, err := sink.RenderJSON(s.session.Scene())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	_, _ = w.Write(data)
}

func (s *Server) handleSceneSVG(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "image/svg+xml")
	_, _ = w.Write(sink.RenderSVG(s.session.Scene()))
}

type viewportRequest struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

func (s *Server) handleViewport(w http.ResponseWriter, r *http.Request) {
	var req viewportRequest
	if err := s.decode(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if req.Width <= 0 || req.Height <= 0 {
		s.writeError(w, r, errors.New(errors.ErrCodeInvalidInput, "width and height must be positive"))
		return
	}
	s.session.FitToView(req.Width, req.Height)
	s.writeJSON(w, http.StatusOK, s.session.Viewport())
}

type pathResponse struct {
	Path string `json:"path"`
}

func (s *Server) handleIPC(w http.ResponseWriter, r *http.Request) {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	var raw json.RawMessage
	if err := json.NewDecoder(body).Decode(&raw); err != nil {
		s.writeError(w, r, errors.Wrap(errors.ErrCodeInvalidMessage, err, "read message"))
		return
	}
	msg, err := editor.ParseMessage(raw)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	path, err := s.session.Handle(r.Context(), msg)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if msg.Type() == editor.TypeExportPNG {
		s.writeJSON(w, http.StatusOK, pathResponse{Path: path})
		return
	}
	// Relay position changes to the other connected editors.
	if err := s.hub.Notify(r.Context(), msg); err != nil {
		s.logger.Warn("relay failed", "type", msg.Type(), "err", err)
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleMoveTable(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := errors.ValidateTableKey(id); err != nil {
		s.writeError(w, r, err)
		return
	}
	var p erd.Point
	if err := s.decode(w, r, &p); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.session.MoveTable(r.Context(), id, p.X, p.Y); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	s.session.ResetLayout(r.Context())
	s.writeJSON(w, http.StatusOK, editor.SaveLayout{Tables: s.session.Diagram().Positions()})
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	path, err := s.session.ExportNative(r.Context(), s.pngOpts...)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, pathResponse{Path: path})
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		s.writeError(w, r, errors.New(errors.ErrCodeUnsupported, "streaming not supported"))
		return
	}
	id, events, cancel := s.hub.Subscribe()
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, ": connected\n\n")
	flusher.Flush()
	s.logger.Debug("event stream opened", "subscriber", id)

	for {
		select {
		case <-r.Context().Done():
			s.logger.Debug("event stream closed", "subscriber", id)
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Type, ev.Data)
			flusher.Flush()
		}
	}
}

// =============================================================================
// Encoding
// =============================================================================

type errorResponse struct {
	Code    errors.Code `json:"code"`
	Message string      `json:"message"`
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "decode request")
	}
	return nil
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("encode response", "err", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	id := RequestIDFromContext(r.Context())
	observability.HTTP().OnError(r.Context(), id, r.Method, r.URL.Path, err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "id", id, "path", r.URL.Path, "err", err)
	} else {
		s.logger.Debug("request rejected", "id", id, "path", r.URL.Path, "err", err)
	}

	code := errors.GetCode(err)
	if code == "" {
		code = errors.ErrCodeInternal
	}
	s.writeJSON(w, status, errorResponse{Code: code, Message: errors.UserMessage(err)})
}

func statusFor(err error) int {
	switch errors.GetCode(err) {
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidMessage,
		errors.ErrCodeInvalidDiagram, errors.ErrCodeInvalidPath:
		return http.StatusBadRequest
	case errors.ErrCodeNotFound, errors.ErrCodeTableNotFound, errors.ErrCodeFileNotFound:
		return http.StatusNotFound
	case errors.ErrCodeUnsupported:
		return http.StatusNotImplemented
	}
	return http.StatusInternalServerError
}
