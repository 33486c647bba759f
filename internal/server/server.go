// Package server exposes the chatbot over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"vanlang-chatbot/internal/chatbot"
	"vanlang-chatbot/internal/common/auth"
	apperrors "vanlang-chatbot/internal/common/errors"
	"vanlang-chatbot/internal/common/logger"
	"vanlang-chatbot/internal/models"
)

// ChatService is the part of the orchestrator the HTTP layer uses.
type ChatService interface {
	Handle(ctx context.Context, req *models.ChatRequest) *models.ChatResponse
	GetAnalytics(ctx context.Context) chatbot.AnalyticsReport
	HealthCheck(ctx context.Context) chatbot.HealthReport
	GetSystemStatus(ctx context.Context) chatbot.SystemStatus
	ClearCache(ctx context.Context) error
}

type Config struct {
	Address        string
	BasePath       string
	AllowedOrigins []string
	AdminRole      string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	// MaxBodyBytes caps the size of a chat request body.
	MaxBodyBytes int64
}

func (c Config) withDefaults() Config {
	if c.Address == "" {
		c.Address = ":8080"
	}
	if c.BasePath == "" {
		c.BasePath = "/api/chatbot"
	}
	c.BasePath = "/" + strings.Trim(c.BasePath, "/")
	if len(c.AllowedOrigins) == 0 {
		c.AllowedOrigins = []string{"*"}
	}
	if c.AdminRole == "" {
		c.AdminRole = "admin"
	}
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = 15 * time.Second
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = 60 * time.Second
	}
	if c.MaxBodyBytes <= 0 {
		c.MaxBodyBytes = 64 << 10
	}
	return c
}

type Server struct {
	config  Config
	router  *mux.Router
	chat    ChatService
	auth    auth.Authenticator
	errors  *apperrors.ErrorHandler
	logger  logger.Logger
	httpSrv *http.Server
}

func New(config Config, chat ChatService, authenticator auth.Authenticator, log logger.Logger) *Server {
	if authenticator == nil {
		authenticator = auth.HeaderAuthenticator{}
	}
	log = log.With(map[string]interface{}{"component": "http"})

	s := &Server{
		config: config.withDefaults(),
		router: mux.NewRouter(),
		chat:   chat,
		auth:   authenticator,
		errors: apperrors.NewErrorHandler(log),
		logger: log,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.Use(s.requestIDMiddleware, s.loggingMiddleware)

	s.router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	s.router.HandleFunc("/ready", s.readyHandler).Methods(http.MethodGet)

	api := s.router.PathPrefix(s.config.BasePath).Subrouter()
	api.Use(s.authMiddleware)

	// method mismatches under the subrouter answer 404 unless both routers set this
	s.router.MethodNotAllowedHandler = http.HandlerFunc(s.methodNotAllowedHandler)
	api.MethodNotAllowedHandler = http.HandlerFunc(s.methodNotAllowedHandler)

	api.HandleFunc("/enhanced", s.enhancedHandler).Methods(http.MethodPost)
	api.HandleFunc("/legacy", s.legacyHandler).Methods(http.MethodPost)
	api.HandleFunc("/health", s.healthHandler).Methods(http.MethodGet)
	api.HandleFunc("/analytics", s.requireAdmin(s.analyticsHandler)).Methods(http.MethodGet)
	api.HandleFunc("/clear-cache", s.requireAdmin(s.clearCacheHandler)).Methods(http.MethodPost)
	api.HandleFunc("/system-status", s.requireAdmin(s.systemStatusHandler)).Methods(http.MethodGet)
}

// Handler returns the router wrapped with CORS handling.
func (s *Server) Handler() http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins:   s.config.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "X-User-ID", "X-User-Role", HeaderRequestID},
		ExposedHeaders:   []string{HeaderRequestID},
		AllowCredentials: true,
	})
	return c.Handler(s.router)
}

// Start serves until Shutdown is called. It returns nil after a clean shutdown.
func (s *Server) Start() error {
	s.httpSrv = &http.Server{
		Addr:         s.config.Address,
		Handler:      s.Handler(),
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	s.logger.Info("HTTP server listening", map[string]interface{}{
		"address":  s.config.Address,
		"basePath": s.config.BasePath,
	})
	if err := s.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpSrv == nil {
		return nil
	}
	return s.httpSrv.Shutdown(ctx)
}
