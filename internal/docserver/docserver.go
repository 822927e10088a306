// Package docserver implements the standalone document storage service: a
// small HTTP server that exposes a documents directory for the ingestion
// pipeline's http backend. It lists document references and serves raw bytes;
// it never interprets document contents.
package docserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Config holds the document storage service configuration.
type Config struct {
	// Host is the address to bind to (default: 127.0.0.1).
	Host string
	// Port is the TCP port to listen on (default: 8081).
	Port int
	// Root is the directory served as the document tree. Required.
	Root string
	// ShutdownTimeout is the maximum duration for a graceful shutdown.
	ShutdownTimeout time.Duration
	// Logger is the structured logger. If nil, slog.Default() is used.
	Logger *slog.Logger
}

// Server serves a documents directory over HTTP.
type Server struct {
	root       string
	cfg        *Config
	httpServer *http.Server
	log        *slog.Logger
}

// New constructs a Server rooted at cfg.Root. The root must exist and be a
// directory.
func New(cfg *Config) (*Server, error) {
	if cfg == nil || cfg.Root == "" {
		return nil, fmt.Errorf("docserver: root directory is required")
	}
	info, err := os.Stat(cfg.Root)
	if err != nil {
		return nil, fmt.Errorf("docserver: root %s: %w", cfg.Root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("docserver: root %s is not a directory", cfg.Root)
	}
	if cfg.Host == "" {
		cfg.Host = "127.0.0.1"
	}
	if cfg.Port == 0 {
		cfg.Port = 8081
	}
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	s := &Server{root: cfg.Root, cfg: cfg, log: cfg.Logger}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /documents", s.handleList)
	mux.HandleFunc("GET /documents/{path...}", s.handleGet)

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      mux,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
	}

	return s, nil
}

// Start begins listening and serving HTTP requests. It blocks until the
// context is cancelled, then performs a graceful shutdown.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		s.log.Info("document storage listening",
			slog.String("addr", s.httpServer.Addr),
			slog.String("root", s.root),
		)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("docserver: listen error: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("docserver: graceful shutdown failed: %w", err)
		}
		return nil
	}
}

// handleHealth handles GET /health for liveness checks.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// handleList handles GET /documents: a flat JSON array of slash-separated
// references relative to the root, recursing into subdirectories.
func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	refs := []string{}
	err := filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(s.root, path)
		if err != nil {
			return err
		}
		refs = append(refs, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		s.log.Error("document listing failed", slog.Any("error", err))
		http.Error(w, "listing failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(refs); err != nil {
		s.log.Error("listing encode error", slog.Any("error", err))
	}
}

// handleGet handles GET /documents/{path...}, serving the raw file bytes.
// Unknown references return 404. References that escape the root return 404
// as well, never a different status that would leak tree structure.
func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	ref := r.PathValue("path")

	path, ok := s.resolve(ref)
	if !ok {
		http.NotFound(w, r)
		return
	}

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			http.NotFound(w, r)
			return
		}
		s.log.Error("document open failed",
			slog.String("ref", ref),
			slog.Any("error", err),
		)
		http.Error(w, "read failed", http.StatusInternalServerError)
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil || info.IsDir() {
		http.NotFound(w, r)
		return
	}

	// ServeContent handles range requests and content-type sniffing.
	http.ServeContent(w, r, filepath.Base(path), info.ModTime(), f)
}

// resolve maps a request reference to an absolute path under the root,
// rejecting anything that traverses outside it.
func (s *Server) resolve(ref string) (string, bool) {
	if ref == "" {
		return "", false
	}
	cleaned := filepath.Clean(filepath.FromSlash(ref))
	if cleaned == ".." || strings.HasPrefix(cleaned, ".."+string(filepath.Separator)) || filepath.IsAbs(cleaned) {
		return "", false
	}
	return filepath.Join(s.root, cleaned), true
}
