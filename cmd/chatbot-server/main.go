// cmd/chatbot-server/main.go
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"vanlang-chatbot/internal/cache"
	"vanlang-chatbot/internal/chatbot"
	"vanlang-chatbot/internal/common/auth"
	"vanlang-chatbot/internal/common/config"
	"vanlang-chatbot/internal/common/database"
	"vanlang-chatbot/internal/common/logger"
	"vanlang-chatbot/internal/common/observability"
	"vanlang-chatbot/internal/finance"
	"vanlang-chatbot/internal/gemini"
	"vanlang-chatbot/internal/nlp"
	"vanlang-chatbot/internal/server"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

type pingCloser interface {
	Ping(ctx context.Context) error
	Close() error
}

// connect opens a client and pings it, retrying with backoff. Every attempt
// whose ping fails is closed before the next one; on failure the zero client
// is returned.
func connect[T pingCloser](ctx context.Context, open func() (T, error), maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) (T, error) {
	var client T
	err := retryWithBackoff(func() error {
		c, err := open()
		if err != nil {
			return err
		}
		if err := c.Ping(ctx); err != nil {
			_ = c.Close()
			return err
		}
		client = c
		return nil
	}, maxRetries, initialDelay, log, operationName)
	return client, err
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	defer zapLog.Sync()

	log := logger.NewZapAdapter(zapLog).With(map[string]interface{}{
		"service":     cfg.App.Name,
		"environment": cfg.App.Environment,
	})

	zapLog.Info("Starting chatbot server...", zap.String("version", cfg.App.Version))
	for _, warning := range config.Warnings(cfg) {
		zapLog.Warn(warning)
	}

	obs := observability.New(cfg.Observability.ServiceName, cfg.Observability.JaegerEndpoint)
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Init PostgreSQL with retry ---
	pg, err := connect(ctx, func() (*database.PostgresClient, error) {
		return database.NewPostgres(cfg.Database.Postgres)
	}, 5, 2*time.Second, zapLog, "PostgreSQL connection")

	if err != nil {
		// Chat keeps working without a database; financial context degrades.
		zapLog.Error("postgres unavailable, financial data disabled", zap.Error(err))
	} else {
		defer pg.Close()
		zapLog.Info("PostgreSQL connected successfully")
	}

	// --- Init Redis with retry ---
	var redisClient *database.RedisClient
	if cfg.Database.Redis.Enabled {
		redisClient, err = connect(ctx, func() (*database.RedisClient, error) {
			return database.NewRedis(cfg.Database.Redis)
		}, 5, time.Second, zapLog, "Redis connection")

		if err != nil {
			zapLog.Warn("redis unavailable, using in-memory cache only", zap.Error(err))
		} else {
			defer redisClient.Close()
			zapLog.Info("Redis connected successfully")
		}
	}

	// --- Build services ---
	cacheCfg := &cache.Config{
		Prefix:           cfg.Cache.Prefix,
		MemoryTTL:        config.GetSeconds(cfg.Cache.MemoryTTL),
		MemoryMaxEntries: cfg.Cache.MemoryMaxEntries,
		PromotionTTL:     config.GetSeconds(cfg.Cache.PromotionTTL),
		IntentTTL:        config.GetSeconds(cfg.Cache.IntentTTL),
		ResponseTTL:      config.GetSeconds(cfg.Cache.ResponseTTL),
		SweepInterval:    cache.DefaultConfig().SweepInterval,
		OperationTimeout: cache.DefaultConfig().OperationTimeout,
	}
	var rdb *redis.Client
	if redisClient != nil {
		rdb = redisClient.Client
	}
	chatCache := cache.New(cacheCfg, rdb, log)
	defer chatCache.Close()

	classifier, err := nlp.New(cfg.NLP, &nlpLoggerAdapter{log})
	if err != nil {
		zapLog.Fatal("failed to create intent classifier", zap.Error(err))
	}

	generator := gemini.NewClient(&gemini.Config{
		BaseURL:           cfg.APIs.Gemini.BaseURL,
		APIKey:            cfg.APIs.Gemini.APIKey,
		Model:             cfg.APIs.Gemini.Model,
		Timeout:           config.GetDuration(cfg.APIs.Gemini.Timeout),
		MaxRetries:        cfg.APIs.Gemini.MaxRetries,
		RequestsPerMinute: cfg.APIs.Gemini.RequestsPerMinute,
	}, &geminiLoggerAdapter{log})
	if !generator.HasAPIKey() {
		zapLog.Warn("GEMINI_API_KEY is not set, generated responses will fail")
	}

	deps := chatbot.Dependencies{
		Classifier:    classifier,
		Cache:         chatCache,
		Generator:     generator,
		Observability: obs,
	}
	if pg != nil {
		deps.Finance = finance.NewPostgresProvider(&finance.Config{
			QueryTimeout: config.GetDuration(cfg.Database.Postgres.QueryTimeout),
		}, pg.DB, &financeLoggerAdapter{log})
	}

	orchestrator := chatbot.NewOrchestrator(&chatbot.Config{
		Environment:         cfg.App.Environment,
		Version:             cfg.App.Version,
		MaxMessageLength:    cfg.Chatbot.MaxMessageLength,
		ConfidenceThreshold: cfg.NLP.ConfidenceThreshold,
		DatabaseConfigured:  cfg.Database.Postgres.IsConfigured(),
		Location:            time.Local,
	}, deps, &chatbotLoggerAdapter{log})

	var authenticator auth.Authenticator = auth.HeaderAuthenticator{}
	if cfg.Auth.Mode == config.AuthModeKeycloak {
		authenticator = auth.NewKeycloakClient(
			cfg.Auth.Keycloak.URL,
			cfg.Auth.Keycloak.Realm,
			cfg.Auth.Keycloak.ClientID,
			cfg.Auth.Keycloak.ClientSecret,
		)
	}

	srv := server.New(server.Config{
		Address:        cfg.Server.GetAddress(),
		BasePath:       cfg.Server.BasePath,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		AdminRole:      cfg.Auth.Keycloak.AdminRole,
		ReadTimeout:    config.GetDuration(cfg.Server.ReadTimeout),
		WriteTimeout:   config.GetDuration(cfg.Server.WriteTimeout),
	}, orchestrator, authenticator, log)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigCh:
		zapLog.Info("Shutdown signal received, stopping server...")
	case err := <-errCh:
		if err != nil {
			zapLog.Error("HTTP server failed", zap.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.GetDuration(cfg.Server.ShutdownTimeout))
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error shutting down HTTP server", zap.Error(err))
	}

	snapshot := orchestrator.Analytics().Snapshot()
	zapLog.Info("Chatbot server stopped gracefully",
		zap.Int64("requests", snapshot.Requests),
		zap.Int64("errors", snapshot.Errors),
	)
}

// Logger adapters for packages that declare their own Logger interfaces
type nlpLoggerAdapter struct {
	logger.Logger
}

func (a *nlpLoggerAdapter) With(fields map[string]interface{}) nlp.Logger {
	return &nlpLoggerAdapter{a.Logger.With(fields)}
}

type geminiLoggerAdapter struct {
	logger.Logger
}

func (a *geminiLoggerAdapter) With(fields map[string]interface{}) gemini.Logger {
	return &geminiLoggerAdapter{a.Logger.With(fields)}
}

type financeLoggerAdapter struct {
	logger.Logger
}

func (a *financeLoggerAdapter) With(fields map[string]interface{}) finance.Logger {
	return &financeLoggerAdapter{a.Logger.With(fields)}
}

type chatbotLoggerAdapter struct {
	logger.Logger
}

func (a *chatbotLoggerAdapter) With(fields map[string]interface{}) chatbot.Logger {
	return &chatbotLoggerAdapter{a.Logger.With(fields)}
}
