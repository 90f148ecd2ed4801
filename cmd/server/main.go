// cmd/server/main.go
package main

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"runtime/debug"
	"time"

	"github.com/aruna-wellness/backend/internal/analytics"
	"github.com/aruna-wellness/backend/internal/assessment"
	"github.com/aruna-wellness/backend/internal/chat"
	"github.com/aruna-wellness/backend/internal/config"
	"github.com/aruna-wellness/backend/internal/connections"
	"github.com/aruna-wellness/backend/internal/llm"
	"github.com/aruna-wellness/backend/internal/logger"
	"github.com/aruna-wellness/backend/internal/repository"
	"github.com/aruna-wellness/backend/internal/schedule"

	"github.com/getsentry/sentry-go"
	sentryecho "github.com/getsentry/sentry-go/echo"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

func slogPanicRecoverMiddleware(logger *slog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			defer func() {
				if r := recover(); r != nil {
					err, ok := r.(error)
					if !ok {
						err = fmt.Errorf("%v", r)
					}
					reqLogger := logger.With("request_id", c.Get("requestID"))
					reqLogger.ErrorContext(c.Request().Context(), "PANIC recovered",
						slog.Any("error", err),
						slog.String("stack", string(debug.Stack())),
					)
					c.Error(err)
				}
			}()
			return next(c)
		}
	}
}

func main() {
	// 1. Load application configuration FIRST.
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	// 2. Initialize Sentry.
	if err := sentry.Init(sentry.ClientOptions{
		Dsn:              cfg.SentryDSN,
		Environment:      cfg.AppEnv,
		TracesSampleRate: 1.0,
		Debug:            false,
	}); err != nil {
		fmt.Printf("Sentry initialization failed: %v\n", err)
	}
	defer sentry.Flush(2 * time.Second)

	// 3. Initialize the Logger.
	logger.InitLogger(cfg.AppEnv)
	appLogger := logger.L()

	appLogger.Info("Application starting up...", "environment", cfg.AppEnv)

	// 4. Connect to the database and Redis.
	dbClient, err := connections.ConnectDB(cfg.DatabaseURL, appLogger.With("component", "database_connector"))
	if err != nil {
		appLogger.Error("Failed to connect to database at startup", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbClient.Close()

	redisClient, err := connections.ConnectRedis(cfg.RedisAddr, cfg.RedisPassword, appLogger.With("component", "redis_connector"))
	if err != nil {
		appLogger.Error("Failed to connect to Redis at startup", slog.Any("error", err))
		os.Exit(1)
	}
	defer redisClient.Close()

	// 5. Initialize core application components.
	queries := repository.New(dbClient.Pool)
	apiLogger := appLogger.With("service", "api_handlers")

	relations, err := analytics.LoadRelationTable(filepath.Join(cfg.ConfigDir, "metric_relations.yaml"))
	if err != nil {
		appLogger.Error("Failed to load metric relationship table", slog.Any("error", err))
		os.Exit(1)
	}
	appLogger.Info("Metric relationship table loaded.")

	model := llm.NewClient(cfg.LLMURL, cfg.AIAPIKey, cfg.LLMModel, apiLogger)
	fetcher := analytics.NewDataAPIClient(cfg.DataAPIBaseURL, apiLogger)
	aggregator := analytics.NewAggregator(fetcher, relations, apiLogger)
	scheduleClient := schedule.NewClient(cfg.DataAPIBaseURL, apiLogger)

	catalog, err := chat.NewCatalog()
	if err != nil {
		appLogger.Error("Failed to build tool catalog", slog.Any("error", err))
		os.Exit(1)
	}

	router := chat.NewRouter(model, catalog, apiLogger)
	dispatcher := chat.NewDispatcher(catalog, queries, scheduleClient, aggregator, model, apiLogger)
	chatHandler := chat.NewHandler(router, dispatcher, apiLogger)

	sessionStore := assessment.NewRedisStore(redisClient)
	assessmentFlow := assessment.NewFlow(sessionStore, model, apiLogger)
	assessmentHandler := assessment.NewHandler(assessmentFlow, apiLogger)

	appLogger.Info("API handlers initialized.")

	// 6. Initialize Echo.
	e := echo.New()
	e.Logger.SetOutput(io.Discard)
	e.Logger.SetLevel(0)
	e.Logger.SetHeader("")

	// 7. Register middleware.
	e.Use(slogPanicRecoverMiddleware(appLogger))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"http://localhost:5173"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{"Origin", "Content-Length", "Content-Type", "Accept", "Authorization"},
	}))

	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			reqID := uuid.New().String()
			c.Set("requestID", reqID)

			start := time.Now()

			if hub := sentryecho.GetHubFromContext(c); hub != nil {
				hub.Scope().SetTag("request_id", reqID)
			}

			err := next(c)
			stop := time.Now()

			status := c.Response().Status
			if err != nil {
				if he, ok := err.(*echo.HTTPError); ok {
					status = he.Code
				}
			}

			appLogger.InfoContext(c.Request().Context(), "HTTP Request",
				"request_id", reqID,
				"method", c.Request().Method,
				"path", c.Request().URL.Path,
				"status", status,
				"latency_ms", stop.Sub(start).Milliseconds(),
				"user_agent", c.Request().UserAgent(),
				"ip", c.RealIP(),
			)
			return err
		}
	})

	e.Use(sentryecho.New(sentryecho.Options{
		Repanic: true,
	}))

	// 8. Register routes.
	e.GET("/health", func(c echo.Context) error {
		reqLogger := appLogger.With("request_id", c.Get("requestID"))

		if err := dbClient.Ping(); err != nil {
			reqLogger.ErrorContext(c.Request().Context(), "Database ping failed during health check", slog.Any("error", err))
			sentry.CaptureException(err)
			return c.String(http.StatusInternalServerError, "DB Not Ready")
		}
		if err := redisClient.Ping(c.Request().Context()).Err(); err != nil {
			reqLogger.ErrorContext(c.Request().Context(), "Redis ping failed during health check", slog.Any("error", err))
			sentry.CaptureException(err)
			return c.String(http.StatusInternalServerError, "Redis Not Ready")
		}
		return c.String(http.StatusOK, "OK")
	})

	apiGroup := e.Group("/api")
	chatHandler.RegisterRoutes(apiGroup)
	assessmentHandler.RegisterRoutes(apiGroup)

	// 9. Start the HTTP server.
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	address := fmt.Sprintf("0.0.0.0:%s", port)
	appLogger.Info("HTTP Server starting on port", "port", port)

	if err := e.Start(address); err != nil && err != http.ErrServerClosed {
		appLogger.Error("HTTP Server failed to start", slog.Any("error", err))
		os.Exit(1)
	}
	appLogger.Info("HTTP Server stopped gracefully.")
}
