// Package web serves the document portal: a browsable view of the
// Markdown document tree with conversion, version history, and backup
// endpoints.
package web

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	md2docx "github.com/alnah/go-md2docx"
	"github.com/alnah/go-md2docx/internal/backup"
	"github.com/alnah/go-md2docx/internal/history"
	"github.com/alnah/go-md2docx/internal/logging"
	"github.com/alnah/go-md2docx/internal/store"
)

// Server is the portal HTTP server. Construct with NewServer.
type Server struct {
	store      *store.Store
	pool       *md2docx.ServicePool
	tracker    *history.Tracker
	backups    *backup.Manager
	dateLayout string
	mux        *http.ServeMux
}

// Option configures a Server.
type Option func(*Server)

// WithHistory attaches a version tracker. Without one the history
// endpoints report the feature as disabled.
func WithHistory(t *history.Tracker) Option {
	return func(s *Server) { s.tracker = t }
}

// WithBackups attaches a backup manager. Without one the backup
// endpoints report the feature as disabled.
func WithBackups(m *backup.Manager) Option {
	return func(s *Server) { s.backups = m }
}

// WithDateLayout sets the Go time layout for dates shown on portal
// pages. The default is "02.01.2006".
func WithDateLayout(layout string) Option {
	return func(s *Server) {
		if layout != "" {
			s.dateLayout = layout
		}
	}
}

// NewServer creates the portal server over a document store and a
// conversion service pool.
func NewServer(st *store.Store, pool *md2docx.ServicePool, opts ...Option) (*Server, error) {
	if st == nil {
		return nil, errors.New("web: nil document store")
	}
	if pool == nil {
		return nil, errors.New("web: nil service pool")
	}

	s := &Server{store: st, pool: pool, dateLayout: displayDateLayout}
	for _, opt := range opts {
		opt(s)
	}
	s.mux = http.NewServeMux()
	s.routes()
	return s, nil
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /{$}", s.handleIndex)
	s.mux.HandleFunc("GET /static/portal.css", s.handleStylesheet)
	s.mux.HandleFunc("GET /healthz", s.handleHealth)

	s.mux.HandleFunc("GET /document/{path...}", s.handleDocument)
	s.mux.HandleFunc("GET /version/{version}/{path...}", s.handleVersionPage)
	s.mux.HandleFunc("GET /attachment/{path...}", s.handleAttachment)
	s.mux.HandleFunc("GET /export/docx/{path...}", s.handleExportDOCX)
	s.mux.HandleFunc("GET /export/html/{path...}", s.handleExportHTML)
	s.mux.HandleFunc("GET /export/md/{path...}", s.handleExportMarkdown)
	s.mux.HandleFunc("GET /export/pdf/{path...}", s.handleExportPDF)

	s.mux.HandleFunc("GET /api/organizations", s.handleOrganizations)
	s.mux.HandleFunc("GET /api/departments", s.handleDepartments)
	s.mux.HandleFunc("GET /api/documents", s.handleDocuments)
	s.mux.HandleFunc("POST /api/import", s.handleImport)
	s.mux.HandleFunc("GET /api/history/{path...}", s.handleHistory)
	s.mux.HandleFunc("GET /api/version/{version}/{path...}", s.handleVersionJSON)
	s.mux.HandleFunc("GET /api/backups", s.handleBackupList)
	s.mux.HandleFunc("POST /api/backups", s.handleBackupCreate)
}

// Handler returns the complete portal handler with the standard
// middleware chain applied.
func (s *Server) Handler() http.Handler {
	return logging.Middleware(recoverPanics(s.mux))
}

// Run serves the portal on addr until ctx is canceled, then shuts down
// gracefully within shutdownTimeout.
func (s *Server) Run(ctx context.Context, addr string, shutdownTimeout time.Duration) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	logging.Info("portal listening", "addr", addr, "documents", s.store.Root())

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serving portal: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down portal: %w", err)
	}
	logging.Info("portal stopped")
	return nil
}

// recoverPanics turns handler panics into 500 responses so one bad
// request cannot take the portal down.
func recoverPanics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if v := recover(); v != nil {
				logging.Error("panic while serving",
					"path", r.URL.Path,
					"request_id", logging.RequestID(r.Context()),
					"panic", v,
				)
				http.Error(w, "Внутренняя ошибка сервера", http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}
