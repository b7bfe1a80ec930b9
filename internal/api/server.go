// Package api exposes the FreshKeep HTTP surface: inventory CRUD, expiry
// queries, notification settings, the toast feed, image upload, and the
// classification endpoints.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/dmikhr/freshkeep/internal/classifier"
	"github.com/dmikhr/freshkeep/internal/config"
	"github.com/dmikhr/freshkeep/internal/notify"
	"github.com/dmikhr/freshkeep/internal/storage"
)

// Server stitches together configuration, storage, notifications, image
// storage, and the classifier client behind HTTP handlers.
type Server struct {
	cfg        *config.Config
	inventory  storage.Inventory
	settings   storage.SettingsStore
	images     ImageBackend
	classify   *classifier.Client
	dispatcher *notify.Dispatcher
	logger     *slog.Logger
	now        func() time.Time

	// onSettingsChange triggers an immediate expiry check when settings
	// are saved; wired to the watcher or the task queue by the binary.
	onSettingsChange func(ctx context.Context)

	server *http.Server
	once   sync.Once
}

// Options carries the optional collaborators.
type Options struct {
	Images           ImageBackend
	Classifier       *classifier.Client
	Dispatcher       *notify.Dispatcher
	Logger           *slog.Logger
	Now              func() time.Time
	OnSettingsChange func(ctx context.Context)
}

// New constructs a Server.
func New(cfg *config.Config, inventory storage.Inventory, settings storage.SettingsStore, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Server{
		cfg:              cfg,
		inventory:        inventory,
		settings:         settings,
		images:           opts.Images,
		classify:         opts.Classifier,
		dispatcher:       opts.Dispatcher,
		logger:           opts.Logger,
		now:              opts.Now,
		onSettingsChange: opts.OnSettingsChange,
	}
}

// Handler builds the route table; exported for httptest use.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/items", s.handleItems)
	mux.HandleFunc("/items/", s.handleItemRoute)
	mux.HandleFunc("/settings", s.handleSettings)
	mux.HandleFunc("/toasts", s.handleToasts)
	mux.HandleFunc("/classify", s.handleClassify)
	mux.HandleFunc("/classify/base64", s.handleClassifyBase64)
	mux.HandleFunc("/images/download", s.handleImageDownload)
	return corsMiddleware(s.loggingMiddleware(mux))
}

// Run starts the HTTP server and blocks until the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	s.once.Do(func() {
		s.server = &http.Server{
			Addr:    s.cfg.Address,
			Handler: s.Handler(),
		}
	})
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()
	s.logger.Info("api listening", "address", s.cfg.Address)
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleToasts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if s.dispatcher == nil {
		respondJSON(w, http.StatusOK, []notify.Toast{})
		return
	}
	toasts := s.dispatcher.Toasts().Recent()
	if toasts == nil {
		toasts = []notify.Toast{}
	}
	respondJSON(w, http.StatusOK, toasts)
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("encode response", "error", err)
	}
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, map[string]string{"error": msg})
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,PUT,DELETE,OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type,Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Debug("request", "method", r.Method, "path", r.URL.Path, "duration", time.Since(start))
	})
}
