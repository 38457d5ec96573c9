// Package blobserver is a small JSON blob store compatible with the sync
// client in internal/blob. It backs `blobd` for local and self-hosted runs.
package blobserver

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

const (
	basePath = "/api/blobs"
	paramID  = "id"

	// DefaultMaxBytes bounds a single blob body.
	DefaultMaxBytes int64 = 4 << 20
	// DefaultTTL is how long an untouched blob is kept.
	DefaultTTL = 30 * 24 * time.Hour
	// DefaultRequestTimeout caps each request.
	DefaultRequestTimeout = 30 * time.Second
)

// Options configures a Server.
type Options struct {
	Store          *MemStore
	Logger         *slog.Logger
	MaxBytes       int64
	RequestTimeout time.Duration
}

// Server serves blobs over HTTP.
type Server struct {
	store    *MemStore
	logger   *slog.Logger
	maxBytes int64
	timeout  time.Duration
}

// New builds a server. A nil store gets a MemStore with DefaultTTL.
func New(opts Options) *Server {
	s := &Server{
		store:    opts.Store,
		logger:   opts.Logger,
		maxBytes: opts.MaxBytes,
		timeout:  opts.RequestTimeout,
	}
	if s.store == nil {
		s.store = NewMemStore(nil, DefaultTTL)
	}
	if s.logger == nil {
		s.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if s.maxBytes <= 0 {
		s.maxBytes = DefaultMaxBytes
	}
	if s.timeout <= 0 {
		s.timeout = DefaultRequestTimeout
	}
	return s
}

// Store returns the backing store.
func (s *Server) Store() *MemStore { return s.store }

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(s.timeout))

	r.Route(basePath, func(r chi.Router) {
		r.Post("/", s.handle(s.handleCreate))
		r.Route("/{"+paramID+"}", func(r chi.Router) {
			r.Get("/", s.handle(s.handleGet))
			r.Put("/", s.handle(s.handlePut))
			r.Delete("/", s.handle(s.handleDelete))
		})
	})

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "blobs": s.store.Len()})
	})
	return r
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) error {
	data, err := s.readBody(w, r)
	if err != nil {
		return err
	}
	id := s.store.Create(data)
	s.logger.Info("blob created", "id", id, "bytes", len(data))

	w.Header().Set("Location", basePath+"/"+id)
	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
	return nil
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) error {
	data, ok := s.store.Get(chi.URLParam(r, paramID))
	if !ok {
		return errNotFound()
	}
	w.Header().Set("Content-Type", "application/json")
	_, err := w.Write(data)
	return err
}

func (s *Server) handlePut(w http.ResponseWriter, r *http.Request) error {
	id := chi.URLParam(r, paramID)
	data, err := s.readBody(w, r)
	if err != nil {
		return err
	}
	if !s.store.Put(id, data) {
		return errNotFound()
	}
	s.logger.Debug("blob updated", "id", id, "bytes", len(data))
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, err = w.Write(data)
	return err
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) error {
	id := chi.URLParam(r, paramID)
	if !s.store.Delete(id) {
		return errNotFound()
	}
	s.logger.Info("blob deleted", "id", id)
	w.WriteHeader(http.StatusNoContent)
	return nil
}

// readBody enforces the size limit and requires a JSON document.
func (s *Server) readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	defer r.Body.Close()
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.maxBytes))
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, errTooLarge()
		}
		return nil, err
	}
	if !json.Valid(data) {
		return nil, errBadRequest("body must be JSON")
	}
	return data, nil
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
