// Package server exposes a live profiler store over HTTP.
package server

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Ljiacheng/aleo-std/internal/logging"
	"github.com/Ljiacheng/aleo-std/internal/metrics"
	"github.com/Ljiacheng/aleo-std/internal/report"
	"github.com/Ljiacheng/aleo-std/pkg/profiler"
)

// Server serves reports and metrics for one store.
type Server struct {
	store  *profiler.Store
	log    *logging.Logger
	host   *report.HostInfo
	router *mux.Router
}

// New creates a server reading from store.
func New(store *profiler.Store, log *logging.Logger) *Server {
	s := &Server{
		store:  store,
		log:    log.WithComponent("server"),
		host:   report.Host(),
		router: mux.NewRouter(),
	}

	s.router.Use(s.logRequests)
	s.router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	s.router.Handle("/metrics", promhttp.HandlerFor(metrics.Registry(store), promhttp.HandlerOpts{})).Methods(http.MethodGet)
	s.router.HandleFunc("/report", s.handleReport).Methods(http.MethodGet)
	s.router.HandleFunc("/works", s.handleWorks).Methods(http.MethodGet)
	return s
}

// Handler returns the router.
func (s *Server) Handler() http.Handler {
	return s.router
}

// HTTPServer wraps the router in an http.Server listening on addr.
func (s *Server) HTTPServer(addr string) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "ok")
}

func (s *Server) handleWorks(w http.ResponseWriter, r *http.Request) {
	var b bytes.Buffer
	for _, name := range s.store.Works() {
		fmt.Fprintln(&b, name)
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write(b.Bytes())
}

var contentTypes = map[string]string{
	report.FormatJSON:  "application/json",
	report.FormatYAML:  "application/yaml",
	report.FormatTable: "text/plain; charset=utf-8",
	"prometheus":       "text/plain; version=0.0.4; charset=utf-8",
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	work := q.Get("work")
	if work == "" {
		work = profiler.DefaultWork
	}
	format := q.Get("format")
	if format == "" {
		format = report.FormatJSON
	}
	contentType, ok := contentTypes[format]
	if !ok {
		http.Error(w, fmt.Sprintf("Unknown format: %s", format), http.StatusBadRequest)
		return
	}

	// Render into a buffer so a failure can still become an error status.
	var b bytes.Buffer
	if format == "prometheus" {
		if err := report.WritePrometheus(&b, s.store); err != nil {
			http.Error(w, fmt.Sprintf("Failed to render metrics: %v", err), http.StatusInternalServerError)
			return
		}
	} else {
		rep, err := report.Build(s.store.Snapshot(), work)
		if err != nil {
			http.Error(w, err.Error(), statusFor(err))
			return
		}
		rep.Host = s.host
		if err := report.Write(&b, rep, format); err != nil {
			http.Error(w, fmt.Sprintf("Failed to render report: %v", err), http.StatusInternalServerError)
			return
		}
	}

	w.Header().Set("Content-Type", contentType)
	w.Write(b.Bytes())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, profiler.ErrNotStarted):
		return http.StatusNotFound
	case errors.Is(err, profiler.ErrNotEnded):
		return http.StatusConflict
	case profiler.IsUsage(err):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.log.Debug("request", logging.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   rec.status,
			"duration": time.Since(start).String(),
		})
	})
}
