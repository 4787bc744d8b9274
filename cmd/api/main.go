package main

// @title BuyerBase API
// @version 1.0
// @description Buyer lead intake and management API for real estate teams.

// @host localhost:8080
// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	sentryecho "github.com/getsentry/sentry-go/echo"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/propstack/buyerbase/config"
	"github.com/propstack/buyerbase/pkg/api/handlers"
	custommw "github.com/propstack/buyerbase/pkg/api/middleware"
	"github.com/propstack/buyerbase/pkg/buyers"
	"github.com/propstack/buyerbase/pkg/cache"
	"github.com/propstack/buyerbase/pkg/database"
	"github.com/propstack/buyerbase/pkg/importer"
	"github.com/propstack/buyerbase/pkg/logger"
	"github.com/propstack/buyerbase/pkg/metrics"
	custommiddleware "github.com/propstack/buyerbase/pkg/middleware"
)

func main() {
	// Load configuration
	cfg := config.Load()
	log.Printf("🔧 Configuration loaded (environment: %s)", cfg.APIEnvironment)

	// Initialize Sentry for error tracking
	if cfg.SentryDSN != "" {
		err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			Environment:      cfg.SentryEnvironment,
			TracesSampleRate: 1.0,
			AttachStacktrace: true,
		})
		if err != nil {
			log.Printf("⚠️  Failed to initialize Sentry: %v", err)
		} else {
			log.Printf("✅ Sentry initialized (environment: %s)", cfg.SentryEnvironment)
			defer sentry.Flush(2 * time.Second)
		}
	} else {
		log.Printf("ℹ️  Sentry disabled (no DSN configured)")
	}

	// Initialize database
	db, err := database.NewClient(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("❌ Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Initialize Redis cache
	redisClient, err := cache.NewClient(cfg.RedisURL)
	if err != nil {
		log.Fatalf("❌ Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()

	// Initialize Prometheus metrics
	prometheusMetrics := metrics.New()
	log.Printf("✅ Prometheus metrics initialized")

	// Initialize services
	listTTL := time.Duration(cfg.CacheListTTLSeconds) * time.Second
	buyerService := buyers.NewService(db.DB, redisClient, cfg.AdminEmail, listTTL)
	importService := importer.NewService(db.DB, redisClient)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(db.DB, cfg, prometheusMetrics)
	buyerHandler := handlers.NewBuyerHandler(buyerService, prometheusMetrics)
	importHandler := handlers.NewImportHandler(importService, prometheusMetrics)
	exportHandler := handlers.NewExportHandler(buyerService, prometheusMetrics)
	phoneHandler := handlers.NewPhoneHandler()

	// Initialize Echo
	e := echo.New()
	e.HideBanner = true

	// Initialize rate limiters
	globalRateLimiter := custommiddleware.NewRateLimiter(cfg.RateLimitRequestsPerMinute, cfg.RateLimitBurst)
	authRateLimiter := custommiddleware.NewRateLimiter(5, 2) // 5 req/min for login
	writeLimiter := custommiddleware.NewFixedWindowLimiter(
		time.Duration(cfg.WriteLimitWindowSeconds)*time.Second,
		cfg.WriteLimitRequests,
	)

	// Global middleware
	requestLogger := logger.New(cfg.LogLevel, cfg.LogFormat)
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:  true,
		LogURI:     true,
		LogMethod:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			requestLogger.Info("request",
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency_ms", v.Latency.Milliseconds(),
			)
			return nil
		},
	}))
	e.Use(middleware.Recover())

	// Sentry error tracking middleware (if configured)
	if cfg.SentryDSN != "" {
		e.Use(sentryecho.New(sentryecho.Options{
			Repanic: true,
		}))
	}

	// Prometheus metrics middleware
	e.Use(prometheusMetrics.Middleware())

	// CORS with restricted origins
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: cfg.CORSAllowedOrigins,
		AllowMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodPatch,
			http.MethodDelete,
		},
		AllowCredentials: true,
		AllowHeaders: []string{
			"Origin",
			"Content-Type",
			"Accept",
			"Authorization",
		},
	}))

	e.Use(middleware.Gzip())
	e.Use(middleware.Secure())

	// Global rate limiting
	e.Use(globalRateLimiter.RateLimitMiddleware())

	// Health check endpoints (public)
	e.GET("/", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]any{
			"name":        "BuyerBase API",
			"version":     "0.1.0",
			"status":      "running",
			"environment": cfg.APIEnvironment,
			"timestamp":   time.Now().Unix(),
		})
	})

	e.GET("/health", func(c echo.Context) error {
		if err := db.Ping(c.Request().Context()); err != nil {
			return c.JSON(http.StatusServiceUnavailable, map[string]any{
				"status":   "unhealthy",
				"database": "down",
			})
		}

		if _, err := redisClient.Redis.Ping(c.Request().Context()).Result(); err != nil {
			return c.JSON(http.StatusServiceUnavailable, map[string]any{
				"status": "unhealthy",
				"cache":  "down",
			})
		}

		return c.JSON(http.StatusOK, map[string]any{
			"status":   "healthy",
			"database": "up",
			"cache":    "up",
		})
	})

	// Prometheus metrics endpoint (public)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// API v1 routes
	v1 := e.Group("/api/v1")

	v1.GET("/ping", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"message": "pong",
		})
	})

	// Auth routes
	authRoutes := v1.Group("/auth")
	authRoutes.POST("/login", authHandler.Login, authRateLimiter.RateLimitMiddleware())
	authRoutes.GET("/me", authHandler.Me, custommw.JWTMiddleware(cfg.JWTSecret))

	// Protected routes
	protected := v1.Group("")
	protected.Use(custommw.JWTMiddleware(cfg.JWTSecret))

	buyerRoutes := protected.Group("/buyers")
	buyerRoutes.GET("", buyerHandler.List)
	buyerRoutes.POST("", buyerHandler.Create, writeLimiter.Middleware("create"))
	buyerRoutes.GET("/:id", buyerHandler.Get)
	buyerRoutes.PUT("/:id", buyerHandler.Update, writeLimiter.Middleware("update"))
	buyerRoutes.PATCH("/:id/status", buyerHandler.UpdateStatus, writeLimiter.Middleware("update"))
	buyerRoutes.DELETE("/:id", buyerHandler.Delete, writeLimiter.Middleware("delete"))
	buyerRoutes.GET("/:id/history", buyerHandler.History)
	buyerRoutes.POST("/import", importHandler.Import, writeLimiter.Middleware("import"))

	// Export accepts the token via query parameter for download links.
	v1.GET("/buyers/export", exportHandler.Export, custommw.JWTFromQueryOrHeader(cfg.JWTSecret))

	phoneRoutes := protected.Group("/phone")
	phoneRoutes.POST("/validate", phoneHandler.Validate)
	phoneRoutes.POST("/normalize", phoneHandler.Normalize)

	// Start server
	address := fmt.Sprintf("%s:%s", cfg.APIHost, cfg.APIPort)
	go func() {
		log.Printf("🚀 Starting BuyerBase API on %s", address)
		if err := e.Start(address); err != nil && err != http.ErrServerClosed {
			log.Fatalf("❌ Server error: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("🛑 Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		log.Fatalf("❌ Server shutdown failed: %v", err)
	}
	log.Println("✅ Server stopped")
}
