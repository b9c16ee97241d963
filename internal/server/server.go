// Package server exposes SQLDesk over HTTP with a chi router.
//
// Every endpoint answers JSON. Failures use the body
// {"success": false, "message": "..."} with a status derived from the error
// kind; successes carry "success": true next to their payload.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/koustreak/sqldesk/internal/assistant"
	"github.com/koustreak/sqldesk/internal/builder"
	"github.com/koustreak/sqldesk/internal/config"
	"github.com/koustreak/sqldesk/internal/database"
	"github.com/koustreak/sqldesk/internal/filestore"
	"github.com/koustreak/sqldesk/internal/filestore/memory"
	"github.com/koustreak/sqldesk/internal/history"
	"github.com/koustreak/sqldesk/internal/logger"
	"github.com/koustreak/sqldesk/internal/savedquery"
	"github.com/koustreak/sqldesk/internal/schemacache"
)

// Options wires the server's collaborators. Connector is required; the
// rest default to in-memory implementations.
type Options struct {
	Connector  database.Connector
	Schemas    *schemacache.Cache
	History    *history.History
	Files      filestore.Store
	Assistant  *assistant.Client
	Workspaces *builder.Workspaces
	Log        *logger.Logger

	// MaxUploadBytes caps /api/import bodies. 0 means 64 MiB.
	MaxUploadBytes int64
}

type Server struct {
	connector  database.Connector
	schemas    *schemacache.Cache
	history    *history.History
	files      filestore.Store
	saved      *savedquery.Store
	assistant  *assistant.Client
	workspaces *builder.Workspaces
	log        *logger.Logger
	maxUpload  int64
}

func New(opts Options) *Server {
	s := &Server{
		connector:  opts.Connector,
		schemas:    opts.Schemas,
		history:    opts.History,
		files:      opts.Files,
		assistant:  opts.Assistant,
		workspaces: opts.Workspaces,
		log:        opts.Log,
		maxUpload:  opts.MaxUploadBytes,
	}
	if s.schemas == nil {
		s.schemas = schemacache.New(schemacache.DefaultConfig())
	}
	if s.history == nil {
		s.history = history.New(history.DefaultCapacity)
	}
	if s.files == nil {
		s.files = memory.New()
	}
	if s.assistant == nil {
		s.assistant = assistant.New(assistant.DefaultConfig(), s.log)
	}
	if s.workspaces == nil {
		s.workspaces = builder.NewWorkspaces(builder.DefaultWorkspaceConfig())
	}
	if s.log == nil {
		s.log = logger.Nop()
	}
	if s.maxUpload <= 0 {
		s.maxUpload = 64 << 20
	}
	s.saved = savedquery.New(s.files)
	return s
}

// Routes builds the HTTP handler.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.log.Middleware)
	r.Use(middleware.Recoverer)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, envelope{"success": false, "message": "Not found"})
	})
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, envelope{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Post("/connect", s.handleConnect)
		r.Post("/schema", s.handleSchema)
		r.Post("/query", s.handleQuery)
		r.Post("/import", s.handleImport)
		r.Post("/ai", s.handleAI)
		r.Post("/editor/statement", s.handleStatement)
		r.Post("/grid/updates", s.handleGridUpdates)
		r.Post("/tables/preview", s.handlePreview)

		r.Route("/builder", func(r chi.Router) {
			r.Post("/compile", s.handleCompile)
			r.Post("/sessions", s.handleCreateSession)
			r.Route("/sessions/{sessionID}", func(r chi.Router) {
				r.Get("/", s.handleGetSession)
				r.Delete("/", s.handleDropSession)
				r.Get("/sql", s.handleSessionSQL)
				r.Post("/clear", s.handleClearSession)
				r.Post("/nodes", s.handleAddTable)
				r.Delete("/nodes/{nodeID}", s.handleDeleteNode)
				r.Post("/nodes/{nodeID}/toggle", s.handleToggleColumn)
				r.Post("/edges", s.handleConnectEdge)
				r.Delete("/edges/{edgeID}", s.handleDisconnect)
			})
		})

		r.Route("/stats", func(r chi.Router) {
			r.Post("/dashboard", s.handleDashboard)
			r.Post("/status", s.handleServerStatus)
			r.Post("/processes", s.handleProcesses)
			r.Post("/kill", s.handleKill)
		})

		r.Get("/history", s.handleHistory)
		r.Delete("/history", s.handleClearHistory)

		r.Route("/saved-queries", func(r chi.Router) {
			r.Get("/", s.handleListSaved)
			r.Post("/", s.handleSaveQuery)
			r.Get("/{id}", s.handleGetSaved)
			r.Delete("/{id}", s.handleDeleteSaved)
		})
	})

	return r
}

// Run serves until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, cfg config.Server) error {
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.Routes(),
		ReadTimeout:       cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		ReadHeaderTimeout: 10 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.With().Str("addr", cfg.Addr).Logger().Info("sqldesk listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.log.Info("shutting down server gracefully")
	timeout := cfg.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
