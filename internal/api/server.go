// Package api provides the HTTP API server and handlers for the Doable application.
package api

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/doableapp/doable-server/internal/config"
	"github.com/doableapp/doable-server/internal/logger"
	"github.com/doableapp/doable-server/internal/ratelimit"
	"github.com/doableapp/doable-server/internal/service"
	"github.com/doableapp/doable-server/internal/store/sqlite"
)

// Auth endpoints get a tighter limit than the rest of the API to slow
// down credential stuffing.
const (
	authRateLimitPerSecond = 1
	authRateLimitBurst     = 5
)

// Services bundles the application services the handlers depend on.
type Services struct {
	Auth    *service.AuthService
	Todo    *service.TodoService
	Tag     *service.TagService
	Subtask *service.SubtaskService
	AI      *service.AIService
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	store           *sqlite.Store
	services        *Services
	router          *chi.Mux
	api             huma.API
	logger          *logger.Logger
	authRateLimiter *ratelimit.KeyedRateLimiter
}

// NewServer creates a new HTTP server with all routes configured.
func NewServer(cfg *config.Config, store *sqlite.Store, services *Services, log *logger.Logger) *Server {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Recoverer)
	router.Use(middleware.Compress(5))
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.Server.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	humaConfig := huma.DefaultConfig(cfg.Server.Name, "1.0.0")
	humaConfig.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"bearer": {
			Type:         "http",
			Scheme:       "bearer",
			BearerFormat: "PASETO",
		},
	}

	api := humachi.New(router, humaConfig)
	RegisterErrorHandler()

	s := &Server{
		store:           store,
		services:        services,
		router:          router,
		api:             api,
		logger:          log,
		authRateLimiter: ratelimit.New(authRateLimitPerSecond, authRateLimitBurst),
	}

	s.registerHealthRoutes()
	s.registerAuthRoutes()
	s.registerTodoRoutes()
	s.registerSubtaskRoutes()
	s.registerTagRoutes()
	s.registerAIRoutes()

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
