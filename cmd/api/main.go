package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SergeiKhy/ulvis-relay/internal/config"
	"github.com/SergeiKhy/ulvis-relay/internal/handler"
	"github.com/SergeiKhy/ulvis-relay/internal/metrics"
	"github.com/SergeiKhy/ulvis-relay/internal/middleware"
	"github.com/SergeiKhy/ulvis-relay/internal/repository"
	"github.com/SergeiKhy/ulvis-relay/internal/service"
	"github.com/SergeiKhy/ulvis-relay/internal/ulvis"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	// Загрузка конфига
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Инициализация логгера
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	gin.SetMode(gin.ReleaseMode)

	m := metrics.New()

	// Журнал выданных ссылок (postgres), опционально
	var (
		journal service.IssueJournal
		pgPing  handler.Pinger
	)
	if cfg.DB.Enabled() {
		db, err := repository.NewPostgresDB(cfg.DB)
		if err != nil {
			logger.Fatal("Failed to connect to database", zap.Error(err))
		}
		defer db.Close()

		migrateCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		err = db.Migrate(migrateCtx)
		cancel()
		if err != nil {
			logger.Fatal("Failed to migrate database", zap.Error(err))
		}
		logger.Info("Connected to PostgreSQL, issue journal enabled")

		journal = service.NewIssueJournal(repository.NewIssueRepository(db), logger)
		journal.Start()
		defer journal.Stop()
		pgPing = db
	} else {
		logger.Info("DB_HOST not set, issue journal disabled")
	}

	// Кэш статусов (redis), опционально
	var (
		statusCache repository.StatusCache
		redisPing   handler.Pinger
	)
	if cfg.Redis.Enabled() {
		redis, err := repository.NewRedisClient(cfg.Redis)
		if err != nil {
			logger.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		defer redis.Close()
		logger.Info("Connected to Redis", zap.Duration("verify_cache_ttl", cfg.Verify.CacheTTL))

		statusCache = repository.NewStatusCache(redis)
		redisPing = redis
	}

	location, err := time.LoadLocation(cfg.Verify.Timezone)
	if err != nil {
		logger.Warn("Unknown VERIFY_TIMEZONE, falling back to UTC",
			zap.String("timezone", cfg.Verify.Timezone),
			zap.Error(err),
		)
		location = time.UTC
	}

	// Клиент ulvis
	client := ulvis.NewClient(ulvis.Options{
		BaseURL:      cfg.Upstream.BaseURL,
		Timeout:      cfg.Upstream.Timeout,
		UserAgent:    cfg.Upstream.UserAgent,
		PreviewLimit: cfg.Upstream.PreviewLimit,
		Metrics:      m,
	})

	aliases, err := service.NewAliasGenerator(cfg.Upstream.AliasLength)
	if err != nil {
		logger.Fatal("Failed to create alias generator", zap.Error(err))
	}

	// Инициализация сервисов
	batchMode := service.BatchMode(cfg.Batch.Mode)

	var recorder service.IssueRecorder
	if journal != nil {
		recorder = journal
	}

	linkService := service.NewLinkService(client, aliases, recorder, service.LinkServiceOptions{
		ShortBaseURL: cfg.Upstream.ShortBaseURL,
		MaxAttempts:  cfg.Upstream.MaxAttempts,
		Batch: service.BatchOptions{
			Mode:        batchMode,
			Concurrency: cfg.Batch.Concurrency,
			Delay:       cfg.Batch.Delay,
		},
	}, m, logger)

	inspector := service.NewLinkInspector(client, statusCache, cfg.Verify.CacheTTL, location, logger)

	// Инициализация middleware
	rateLimiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{
		RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
		BurstSize:         cfg.RateLimit.BurstSize,
		CleanupInterval:   time.Minute,
	})
	defer rateLimiter.Stop()

	var apiKeyMiddleware gin.HandlerFunc
	if len(cfg.Auth.APIKeys) > 0 {
		apiKeyMiddleware = middleware.RequireAPIKey(cfg.Auth.APIKeys)
		logger.Info("API key authentication enabled", zap.Int("keys_count", len(cfg.Auth.APIKeys)))
	}

	// Настройка роутера
	router := handler.NewRouter(handler.RouterDeps{
		Links:       linkService,
		Inspector:   inspector,
		Journal:     journal,
		Health:      handler.NewHealthHandler(pgPing, redisPing, logger),
		Metrics:     m,
		RateLimiter: rateLimiter,
		APIKey:      apiKeyMiddleware,
		Batch: handler.BatchLimits{
			MaxURLs:     cfg.Batch.MaxURLs,
			DefaultMode: batchMode,
			Timeout:     cfg.Batch.Timeout,
		},
		Logger: logger,
	})

	writeTimeout := serverWriteTimeout(cfg)
	srv := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: writeTimeout,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("Server starting",
			zap.String("port", cfg.App.Port),
			zap.String("upstream", cfg.Upstream.BaseURL),
			zap.String("batch_mode", cfg.Batch.Mode),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}

// serverWriteTimeout запас над самым долгим обработчиком: /bulk ограничен BATCH_TIMEOUT,
// /short делает до UPSTREAM_MAX_ATTEMPTS запросов по UPSTREAM_TIMEOUT.
// Иначе сервер обрывает ответ, а созданные одноразовые ссылки теряются.
func serverWriteTimeout(cfg *config.Config) time.Duration {
	const margin = 10 * time.Second

	longest := max(cfg.Batch.Timeout, time.Duration(cfg.Upstream.MaxAttempts)*cfg.Upstream.Timeout)
	return longest + margin
}
