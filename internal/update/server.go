package update

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/pwallis/outletd/internal/infrastructure/config"
)

// maxImageSize caps uploaded firmware images (16MB). The original appliance
// flash is 1MB; the cap leaves generous headroom for larger targets.
const maxImageSize = 16 << 20

// shutdownTimeout bounds graceful HTTP shutdown.
const shutdownTimeout = 5 * time.Second

// Status is the device snapshot returned by the status endpoint.
type Status struct {
	State    string `json:"state"`
	On       bool   `json:"on"`
	Firmware string `json:"firmware"`
	Serial   string `json:"serial"`
}

// StatusFunc supplies the current device snapshot.
type StatusFunc func() Status

// Logger defines the logging interface used by the Server.
type Logger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Server is the firmware update listener.
//
// It accepts firmware images over HTTP and stages them to disk under a
// generated id; applying a staged image is left to the platform's flashing
// tooling. It also exposes the device status for update orchestrators that
// check state before pushing an image.
type Server struct {
	cfg    config.UpdateConfig
	status StatusFunc
	logger Logger

	httpServer *http.Server
}

// NewServer creates the update listener. status must be non-nil.
func NewServer(cfg config.UpdateConfig, status StatusFunc) *Server {
	return &Server{
		cfg:    cfg,
		status: status,
		logger: noopLogger{},
	}
}

// SetLogger sets the logger for the server.
func (s *Server) SetLogger(logger Logger) {
	s.logger = logger
}

// Handler returns the HTTP routes. Exposed for tests.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Get("/v1/status", s.handleStatus)
	r.Post("/v1/firmware", s.handleUpload)

	return r
}

// Start begins listening and serves until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	if err := os.MkdirAll(s.cfg.StagingDir, 0750); err != nil {
		return fmt.Errorf("creating staging directory: %w", err)
	}

	addr := net.JoinHostPort(s.cfg.Host, fmt.Sprintf("%d", s.cfg.Port))
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", addr, err)
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			s.logger.Warn("update listener shutdown", "error", err)
		}
	}()

	go func() {
		s.logger.Info("update listener started", "addr", addr)
		if err := s.httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("update listener failed", "error", err)
		}
	}()

	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok")) //nolint:errcheck // best effort response
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.status())
}

// uploadResponse is returned after a firmware image is staged.
type uploadResponse struct {
	ID   string `json:"id"`
	Size int64  `json:"size"`
	Path string `json:"path"`
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	id := uuid.New().String()
	path := filepath.Join(s.cfg.StagingDir, id+".bin")

	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
	if err != nil {
		s.logger.Error("staging firmware failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "staging failed"})
		return
	}

	body := http.MaxBytesReader(w, r.Body, maxImageSize)
	size, err := io.Copy(file, body)
	closeErr := file.Close()
	if err != nil || closeErr != nil {
		os.Remove(path) //nolint:errcheck // best effort cleanup of partial image
		if err == nil {
			err = closeErr
		}
		s.logger.Warn("firmware upload aborted", "error", err)
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "upload failed"})
		return
	}
	if size == 0 {
		os.Remove(path) //nolint:errcheck // best effort cleanup
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "empty image"})
		return
	}

	s.logger.Info("firmware staged", "id", id, "size", size)
	writeJSON(w, http.StatusCreated, uploadResponse{ID: id, Size: size, Path: path})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best effort response
}
