package server

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dukerupert/chorify/internal/auth"
	"github.com/dukerupert/chorify/internal/handler"
	"github.com/dukerupert/chorify/internal/middleware"
	"github.com/dukerupert/chorify/internal/store"
	ws "github.com/dukerupert/chorify/internal/websocket"
)

// Options configures the HTTP surface.
type Options struct {
	TokenSecret []byte
	TokenTTL    time.Duration
	// StaticDir, when set, is served for unmatched GET requests with
	// index.html as the fallback for client-side routes.
	StaticDir string
	// AllowedOrigins are host patterns allowed to open WebSocket
	// connections cross-origin.
	AllowedOrigins []string
}

type Server struct {
	db            *sql.DB
	hub           *ws.Hub
	authSvc       *auth.Service
	authH         *handler.AuthHandler
	accountH      *handler.AccountHandler
	shoppingListH *handler.ShoppingListHandler
	todoH         *handler.TodoHandler
	metrics       *middleware.Metrics
	registry      *prometheus.Registry
	opts          Options
	logger        *slog.Logger
}

func New(db *sql.DB, opts Options, logger *slog.Logger) *Server {
	hub := ws.NewHub(logger.With("component", "websocket"))

	accountStore := store.NewAccountStore(db)
	sessionStore := store.NewSessionStore(db)
	shoppingListStore := store.NewShoppingListStore(db)
	todoStore := store.NewTodoStore(db)

	authSvc := auth.NewService(accountStore, sessionStore, auth.NewTokenIssuer(opts.TokenSecret), opts.TokenTTL, logger)

	metrics := middleware.NewMetrics()
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	registry.MustRegister(metrics.PrometheusCollectors()...)

	return &Server{
		db:            db,
		hub:           hub,
		authSvc:       authSvc,
		authH:         handler.NewAuthHandler(authSvc, logger),
		accountH:      handler.NewAccountHandler(accountStore, authSvc, hub, logger),
		shoppingListH: handler.NewShoppingListHandler(shoppingListStore, hub, logger),
		todoH:         handler.NewTodoHandler(todoStore, hub, logger),
		metrics:       metrics,
		registry:      registry,
		opts:          opts,
		logger:        logger,
	}
}

// AuthService returns the auth service for cleanup tasks.
func (s *Server) AuthService() *auth.Service {
	return s.authSvc
}

// Hub returns the websocket hub.
func (s *Server) Hub() *ws.Hub {
	return s.hub
}

func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	// Public routes (no auth required)
	mux.HandleFunc("POST /auth/registration/{$}", s.authH.Register)
	mux.HandleFunc("POST /auth/login/{$}", s.authH.Login)
	mux.HandleFunc("GET /health", s.healthHandler)
	mux.Handle("GET /metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	mux.HandleFunc("GET /", s.staticHandler)

	requireAuth := middleware.RequireAuth(s.authSvc)
	protected := func(h http.HandlerFunc) http.Handler {
		return requireAuth(h)
	}
	admin := func(h http.HandlerFunc) http.Handler {
		return requireAuth(middleware.RequireAdmin(h))
	}

	mux.Handle("POST /auth/logout/{$}", protected(s.authH.Logout))
	mux.Handle("GET /auth/user/{$}", protected(s.authH.Me))
	mux.Handle("POST /auth/password/change/{$}", protected(s.authH.ChangePassword))

	mux.Handle("GET /ws", protected(ws.HandleWebSocket(s.hub, s.opts.AllowedOrigins, s.logger.With("component", "websocket"))))

	// Shopping list API routes
	mux.Handle("GET /shopping-lists/{$}", protected(s.shoppingListH.List))
	mux.Handle("POST /shopping-lists/{$}", protected(s.shoppingListH.Create))
	mux.Handle("GET /shopping-lists/{id}/{$}", protected(s.shoppingListH.Get))
	mux.Handle("PUT /shopping-lists/{id}/{$}", protected(s.shoppingListH.Update))
	mux.Handle("PATCH /shopping-lists/{id}/{$}", protected(s.shoppingListH.Patch))
	mux.Handle("DELETE /shopping-lists/{id}/{$}", protected(s.shoppingListH.Delete))

	// Todo API routes
	mux.Handle("GET /todo-lists/{$}", protected(s.todoH.List))
	mux.Handle("POST /todo-lists/{$}", protected(s.todoH.Create))
	mux.Handle("GET /todo-lists/{id}/{$}", protected(s.todoH.Get))
	mux.Handle("PUT /todo-lists/{id}/{$}", protected(s.todoH.Update))
	mux.Handle("PATCH /todo-lists/{id}/{$}", protected(s.todoH.Patch))
	mux.Handle("DELETE /todo-lists/{id}/{$}", protected(s.todoH.Delete))

	// Account administration
	mux.Handle("GET /users/{$}", admin(s.accountH.List))
	mux.Handle("POST /users/{$}", admin(s.accountH.Create))
	mux.Handle("GET /users/{id}/{$}", admin(s.accountH.Get))
	mux.Handle("PUT /users/{id}/{$}", admin(s.accountH.Update))
	mux.Handle("PATCH /users/{id}/{$}", admin(s.accountH.Patch))
	mux.Handle("DELETE /users/{id}/{$}", admin(s.accountH.Delete))

	logged := middleware.RequestLogger(s.logger.With("component", "http"))(mux)
	return s.metrics.Middleware(logged)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	if err := s.db.PingContext(r.Context()); err != nil {
		s.logger.Error("health check", "error", err)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		json.NewEncoder(w).Encode(map[string]string{"status": "unavailable"})
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// staticHandler serves the single-page client. Paths that name an existing
// file are served as-is, anything else gets index.html.
func (s *Server) staticHandler(w http.ResponseWriter, r *http.Request) {
	if s.opts.StaticDir == "" {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{"error": "not found"})
		return
	}

	name := filepath.Join(s.opts.StaticDir, filepath.FromSlash(filepath.Clean("/"+r.URL.Path)))
	if info, err := os.Stat(name); err == nil && !info.IsDir() && !strings.HasPrefix(filepath.Base(name), ".") {
		http.ServeFile(w, r, name)
		return
	}
	http.ServeFile(w, r, filepath.Join(s.opts.StaticDir, "index.html"))
}
