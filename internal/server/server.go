// Package server exposes the service over HTTP with JSON bodies.
// Routing uses method-qualified patterns on the standard library mux.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/vexhq/vexdb/internal/service"
)

// Server is the HTTP front end.
type Server struct {
	svc    *service.Service
	logger *slog.Logger

	httpServer *http.Server
}

// New creates a server around the given service.
func New(svc *service.Service, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{svc: svc, logger: logger}
}

// Handler builds the full route table wrapped in the version check and
// request logging middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.handleHealth)

	mux.HandleFunc("POST /api/libraries", s.handleCreateLibrary)
	mux.HandleFunc("GET /api/libraries", s.handleListLibraries)
	mux.HandleFunc("GET /api/libraries/{id}", s.handleGetLibrary)
	mux.HandleFunc("PATCH /api/libraries/{id}", s.handleUpdateLibrary)
	mux.HandleFunc("DELETE /api/libraries/{id}", s.handleDeleteLibrary)
	mux.HandleFunc("POST /api/libraries/{id}/index", s.handleBuildIndex)
	mux.HandleFunc("GET /api/libraries/{id}/index/status", s.handleIndexStatus)
	mux.HandleFunc("POST /api/libraries/{id}/search", s.handleSearch)

	mux.HandleFunc("POST /api/documents", s.handleCreateDocument)
	mux.HandleFunc("GET /api/documents", s.handleListDocuments)
	mux.HandleFunc("GET /api/documents/{id}", s.handleGetDocument)
	mux.HandleFunc("PATCH /api/documents/{id}", s.handleUpdateDocument)
	mux.HandleFunc("DELETE /api/documents/{id}", s.handleDeleteDocument)
	mux.HandleFunc("GET /api/documents/library/{id}", s.handleListDocumentsByLibrary)

	mux.HandleFunc("POST /api/chunks", s.handleCreateChunk)
	mux.HandleFunc("POST /api/chunks/batch", s.handleCreateChunksBatch)
	mux.HandleFunc("GET /api/chunks", s.handleListChunks)
	mux.HandleFunc("GET /api/chunks/{id}", s.handleGetChunk)
	mux.HandleFunc("PATCH /api/chunks/{id}", s.handleUpdateChunk)
	mux.HandleFunc("DELETE /api/chunks/{id}", s.handleDeleteChunk)
	mux.HandleFunc("GET /api/chunks/document/{id}", s.handleListChunksByDocument)

	return s.requestLogger(s.checkAPIVersion(mux))
}

// Start listens on addr and serves until Shutdown is called.
func (s *Server) Start(addr string) error {
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	s.logger.Info("starting http server", slog.String("addr", addr))
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests and stops the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
