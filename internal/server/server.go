package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/bstardust/imgmeta/internal/config"
	"github.com/bstardust/imgmeta/internal/fileinfo"
	"github.com/bstardust/imgmeta/internal/logger"
	"github.com/bstardust/imgmeta/pkg/metadata"
)

// Server serves image metadata for the files of one folder
type Server struct {
	cfg    config.ServerConfig
	router *mux.Router
	server *http.Server
}

// MetadataResponse is the body of GET /images/{name}/metadata
type MetadataResponse struct {
	Success           bool                        `json:"success"`
	RawMetadata       *metadata.Record            `json:"raw_metadata,omitempty"`
	FormattedMetadata *metadata.FormattedMetadata `json:"formatted_metadata,omitempty"`
	Summary           string                      `json:"summary,omitempty"`
	Error             string                      `json:"error,omitempty"`
}

// New creates a server for cfg.ImagesDir
func New(cfg config.ServerConfig) *Server {
	s := &Server{cfg: cfg}

	// Encoded paths let names like "a%2Fb" reach the handler and be rejected
	r := mux.NewRouter().UseEncodedPath()
	r.Use(s.recoverPanics, logRequests)
	s.setupRoutes(r)
	s.router = r
	return s
}

// Handler returns the routed handler
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) setupRoutes(r *mux.Router) {
	r.HandleFunc("/healthz", s.handleHealth).Methods("GET")
	r.HandleFunc("/images", s.handleImages).Methods("GET")
	r.HandleFunc("/images/{name}/metadata", s.handleMetadata).Methods("GET")
}

// Start serves until ctx is done, then shuts down gracefully
func (s *Server) Start(ctx context.Context) error {
	if st, err := os.Stat(s.cfg.ImagesDir); err != nil || !st.IsDir() {
		return fmt.Errorf("images folder %s is not a directory", s.cfg.ImagesDir)
	}

	s.server = &http.Server{
		Addr:         s.cfg.Addr,
		Handler:      s.router,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		<-ctx.Done()
		logger.Info("Shutting down server...")

		timeout := s.cfg.ShutdownTimeout
		if timeout <= 0 {
			timeout = 5 * time.Second
		}
		ctxShutdown, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := s.server.Shutdown(ctxShutdown); err != nil {
			logger.Error("Server shutdown failed: %v", err)
		}
	}()

	logger.Info("Server starting on %s, serving %s", s.cfg.Addr, s.cfg.ImagesDir)
	err := s.server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		<-done
		return nil
	}
	return err
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

func (s *Server) handleImages(w http.ResponseWriter, r *http.Request) {
	entries, err := os.ReadDir(s.cfg.ImagesDir)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, MetadataResponse{Error: "Failed to list images"})
		logger.Error("Failed to list %s: %v", s.cfg.ImagesDir, err)
		return
	}

	images := []string{}
	for _, e := range entries {
		if e.Type().IsRegular() && fileinfo.IsImageFile(e.Name()) && !fileinfo.IsHidden(e.Name()) {
			images = append(images, e.Name())
		}
	}
	sort.Strings(images)
	writeJSON(w, http.StatusOK, images)
}

func (s *Server) handleMetadata(w http.ResponseWriter, r *http.Request) {
	name, err := url.PathUnescape(mux.Vars(r)["name"])
	if err != nil || !validName(name) {
		writeJSON(w, http.StatusBadRequest, MetadataResponse{Error: "Invalid image name"})
		return
	}

	p := filepath.Join(s.cfg.ImagesDir, name)
	if st, err := os.Stat(p); err != nil || st.IsDir() {
		writeJSON(w, http.StatusNotFound, MetadataResponse{Error: "Image not found"})
		return
	}

	raw := metadata.Extract(p)
	writeJSON(w, http.StatusOK, MetadataResponse{
		Success:           true,
		RawMetadata:       raw,
		FormattedMetadata: metadata.FormatForDisplay(raw),
		Summary:           metadata.Summarize(raw),
	})
}

// validName accepts a single path element inside the images folder
func validName(name string) bool {
	return name != "" && name != "." && name != ".." &&
		!strings.ContainsAny(name, `/\`) && !strings.ContainsRune(name, 0)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		logger.Error("Failed to write response: %v", err)
	}
}

func (s *Server) recoverPanics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				logger.Error("Panic serving %s: %v", r.URL.Path, rec)
				writeJSON(w, http.StatusInternalServerError, MetadataResponse{Error: fmt.Sprint(rec)})
			}
		}()
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.status = code
	sr.ResponseWriter.WriteHeader(code)
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sr := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sr, r)
		logger.Debug("%s %s %d %s", r.Method, r.URL.Path, sr.status, time.Since(start).Round(time.Microsecond))
	})
}
