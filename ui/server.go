package ui

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"degreport/internal"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Server serves a rendered report directory over HTTP. It is a convenience
// for browsing artifacts; nothing in the pipeline depends on it.
type Server struct {
	dir  string
	port string
	log  *internal.Logger
}

// NewServer creates a report server over the given output directory
func NewServer(dir, port string, log *internal.Logger) *Server {
	if log == nil {
		log = internal.DefaultLogger
	}
	return &Server{dir: dir, port: port, log: log}
}

// Router builds the chi router: health check plus static report files
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	r.Get("/", func(w http.ResponseWriter, req *http.Request) {
		http.Redirect(w, req, "/"+ReportFileName, http.StatusFound)
	})
	r.Handle("/*", http.FileServer(http.Dir(s.dir)))

	return r
}

// ListenAndServe blocks until the context is cancelled or the listener fails
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:    ":" + s.port,
		Handler: s.Router(),
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("serving %s on http://localhost:%s", s.dir, s.port)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown failed: %w", err)
		}
		return nil
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}
