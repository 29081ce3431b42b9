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

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/sop/financialcontrol/config"
	"github.com/sop/financialcontrol/handlers"
	"github.com/sop/financialcontrol/middlewares"
	"github.com/sop/financialcontrol/models"
)

func corsConfig(s *config.Settings) cors.Config {
	corsConfig := cors.DefaultConfig()
	// Production requires an explicit allowlist via CORS_ALLOWED_ORIGINS (comma-separated).
	if s.IsProduction() {
		corsConfig.AllowOrigins = s.CorsAllowedOrigins
		if len(corsConfig.AllowOrigins) == 0 {
			// deny all if not configured
			corsConfig.AllowOriginFunc = func(string) bool { return false }
		}
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AddAllowMethods("GET", "POST", "PUT", "DELETE", "OPTIONS")
	corsConfig.AddAllowHeaders("Origin", "Content-Type", "Authorization", middlewares.CorrelationIdHeader)
	corsConfig.AddExposeHeaders("Content-Length", "Content-Disposition", middlewares.CorrelationIdHeader)
	corsConfig.AllowCredentials = !corsConfig.AllowAllOrigins
	return corsConfig
}

func newRouter(s *config.Settings) *gin.Engine {
	if s.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(middlewares.CorrelationMiddleware())
	// Until the DB is ready, app endpoints return 503.
	r.Use(middlewares.ReadinessMiddleware())

	r.Use(cors.New(corsConfig(s)))

	if s.RateLimit.Enabled {
		if rdb := config.GetRedisDB(); rdb != nil {
			rateLimiter := middlewares.NewRateLimiter(rdb, int64(s.RateLimit.MaxRequests), time.Duration(s.RateLimit.WindowSeconds)*time.Second)
			r.Use(rateLimiter.RateLimitMiddleware())
		} else {
			config.GetLogger().WithFields(logrus.Fields{"field": "rate limit"}).Warn("RATE_LIMIT_ENABLED=true but redis is not connected; rate limiting disabled")
		}
	}

	r.Use(middlewares.LoaderMiddleware())
	r.Use(middlewares.ErrorLogger())
	r.Use(gin.Recovery())
	handlers.RegisterRoutes(r)
	return r
}

func main() {
	settings, err := config.GetSettings()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	config.SetLogLevel(settings.LogLevel)
	logger := config.GetLogger()

	// Shutdown coordination.
	sigCtx, stopSignals := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stopSignals()

	shutdownTracing, err := config.SetupTracing(sigCtx, settings.Otel, settings.ServiceName)
	if err != nil {
		logger.WithFields(logrus.Fields{"field": "otel"}).Warn("tracing disabled: " + err.Error())
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracing(ctx)
	}()

	config.ConfigurePubSub(settings.PubSub)
	if config.PubSubEnabled() && settings.PubSub.CreateTopicIfNotExist {
		if _, err := config.CreateTopicIfNotExists(sigCtx, settings.PubSub.ExpenseStatusTopic); err != nil {
			config.LogError(logger, "main", "CreateTopicIfNotExists", settings.PubSub.ExpenseStatusTopic, nil, err)
		}
	}
	defer config.ClosePubSub()

	// Redis is optional: rate limiting only.
	if settings.RateLimit.Enabled {
		if err := config.ConnectRedisWithRetry(sigCtx, settings.RedisAddress, 5); err != nil {
			config.LogError(logger, "main", "ConnectRedisWithRetry", settings.RedisAddress, nil, err)
		}
	}
	defer config.CloseRedis()

	r := newRouter(settings)

	// Start listening before the DB is connected; readiness gate answers 503 meanwhile.
	srv := &http.Server{
		Addr:    ":" + settings.Port,
		Handler: r,
	}
	serverErrCh := make(chan error, 1)
	go func() {
		// ListenAndServe returns http.ErrServerClosed on graceful shutdown.
		serverErrCh <- srv.ListenAndServe()
	}()

	if err := config.ConnectDatabaseWithRetry(sigCtx, settings.Database); err != nil {
		logger.WithFields(logrus.Fields{"field": "database"}).Error("gave up connecting database: " + err.Error())
		return
	}
	db := config.GetDB()
	sqlDB, _ := db.DB()
	defer func() {
		if sqlDB != nil {
			_ = sqlDB.Close()
		}
	}()

	// AutoMigrate can run blocking DDL; allow running it as a separate job instead.
	if !settings.SkipMigrations {
		if err := models.MigrateTable(); err != nil {
			logger.WithFields(logrus.Fields{"field": "migrations"}).Error("migration failed: " + err.Error())
			return
		}
	} else {
		logger.WithFields(logrus.Fields{"field": "migrations"}).Warn("SKIP_MIGRATIONS=true; skipping AutoMigrate on startup")
	}

	logger.WithFields(logrus.Fields{
		"info": "Connection Established",
	}).Info("listening on port ", settings.Port)

	// Block until shutdown or server error.
	select {
	case <-sigCtx.Done():
	case err := <-serverErrCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithFields(logrus.Fields{"field": "http"}).Error("server stopped unexpectedly: " + err.Error())
		}
	}

	// Drain HTTP requests.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithFields(logrus.Fields{"field": "http"}).Error("graceful shutdown failed: " + err.Error())
	}
}
