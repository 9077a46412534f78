package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/Prodrious/new-payment-tracker/api/swagger"
	"github.com/Prodrious/new-payment-tracker/internal/handler"
	"github.com/Prodrious/new-payment-tracker/internal/middleware"
	"github.com/Prodrious/new-payment-tracker/internal/repository"
	"github.com/Prodrious/new-payment-tracker/internal/service"
	"github.com/Prodrious/new-payment-tracker/pkg/cache"
	"github.com/Prodrious/new-payment-tracker/pkg/config"
	"github.com/Prodrious/new-payment-tracker/pkg/database"
	"github.com/Prodrious/new-payment-tracker/pkg/jobs"
	"github.com/Prodrious/new-payment-tracker/pkg/logger"
	corsmiddleware "github.com/Prodrious/new-payment-tracker/pkg/middleware/cors"
	reqidmiddleware "github.com/Prodrious/new-payment-tracker/pkg/middleware/requestid"
	"github.com/Prodrious/new-payment-tracker/pkg/storage"
)

const httpShutdownTimeout = 10 * time.Second

// @title Tuition Tracker API
// @version 0.1.0
// @description Financial ledger backend for a tuition-management dashboard
// @BasePath /api/v1
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	validate := validator.New()
	metrics := service.NewMetricsService()

	var cacheSvc *service.CacheService
	if cfg.Dashboard.CacheEnabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Warnw("redis unavailable, dashboard cache disabled", "error", err)
		} else {
			defer redisClient.Close()
			cacheRepo := repository.NewCacheRepository(redisClient, logr)
			cacheSvc = service.NewCacheService(cacheRepo, metrics, cfg.Dashboard.CacheTTL, logr, true)
		}
	}

	studentRepo := repository.NewStudentRepository(db)
	sessionRepo := repository.NewSessionRepository(db)

	studentSvc := service.NewStudentService(studentRepo, cacheSvc, validate, logr)
	sessionSvc := service.NewSessionService(sessionRepo, studentRepo, cacheSvc, validate, logr)
	dashboardSvc := service.NewDashboardService(studentRepo, sessionRepo, cacheSvc, logr, service.DashboardServiceConfig{
		CacheTTL:      cfg.Dashboard.CacheTTL,
		UpcomingLimit: cfg.Dashboard.UpcomingLimit,
	})

	studentHandler := handler.NewStudentHandler(studentSvc)
	sessionHandler := handler.NewSessionHandler(sessionSvc)
	dashboardHandler := handler.NewDashboardHandler(dashboardSvc)
	metricsHandler := handler.NewMetricsHandler(metrics)

	var statementHandler *handler.StatementHandler
	if cfg.Statements.Enabled {
		store, err := storage.NewLocalStorage(cfg.Statements.StorageDir)
		if err != nil {
			logr.Sugar().Fatalw("failed to init statement storage", "error", err)
		}
		signer := storage.NewSignedURLSigner(cfg.Statements.SignedURLSecret, cfg.Statements.SignedURLTTL)
		exporter := service.NewExportService(studentRepo, sessionRepo, store, signer, service.ExportConfig{
			APIPrefix: cfg.APIPrefix,
			ResultTTL: cfg.Statements.SignedURLTTL,
		}, logr, nil, nil)

		statementRepo := repository.NewStatementRepository(db)
		worker := service.NewStatementWorker(statementRepo, exporter, cfg.Statements.WorkerRetries, logr)
		queue := jobs.NewQueue("statements", worker.Handle, jobs.QueueConfig{
			Workers:    cfg.Statements.WorkerConcurrency,
			MaxRetries: cfg.Statements.WorkerRetries,
			Logger:     logr,
		})
		queue.Start(ctx)
		defer queue.Stop()

		statementSvc := service.NewStatementService(statementRepo, studentRepo, queue, exporter, validate, logr, service.StatementServiceConfig{
			ResultTTL:       cfg.Statements.SignedURLTTL,
			CleanupInterval: cfg.Statements.CleanupInterval,
			MaxRetries:      cfg.Statements.WorkerRetries,
		})
		statementSvc.RecoverPendingJobs(ctx)
		statementSvc.StartCleanup(ctx)
		statementHandler = handler.NewStatementHandler(statementSvc)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))
	r.Use(middleware.WithResponseMeta())

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)
	r.GET("/metrics/snapshot", metricsHandler.Snapshot)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	{
		students := api.Group("/students")
		students.GET("", studentHandler.List)
		students.POST("", studentHandler.Create)
		students.PUT("", studentHandler.Replace)
		students.DELETE("", studentHandler.Clear)
		students.GET("/:id", studentHandler.Get)
		students.PUT("/:id", studentHandler.Update)
		students.POST("/:id/topups", studentHandler.AddTopup)

		sessions := api.Group("/sessions")
		sessions.GET("", sessionHandler.List)
		sessions.POST("", sessionHandler.Create)
		sessions.PUT("", sessionHandler.Replace)
		sessions.DELETE("", sessionHandler.Clear)
		sessions.GET("/:id", sessionHandler.Get)
		sessions.PATCH("/:id/status", sessionHandler.Transition)
		sessions.POST("/:id/pay", sessionHandler.MarkPaid)

		dashboard := api.Group("/dashboard")
		dashboard.GET("/overview", dashboardHandler.Overview)
		dashboard.GET("/income", dashboardHandler.Income)
		dashboard.GET("/receivables", dashboardHandler.Receivables)
		dashboard.GET("/invoice/:studentId", dashboardHandler.Invoice)

		if statementHandler != nil {
			statements := api.Group("/statements")
			statements.POST("", statementHandler.Create)
			statements.GET("/:id", statementHandler.Status)
			statements.GET("/download/:token", statementHandler.Download)
		}
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{Addr: addr, Handler: r}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), httpShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Warnw("graceful shutdown failed", "error", err)
	}
}
