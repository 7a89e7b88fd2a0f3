package main

import (
	"context"
	"errors"
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

	_ "github.com/transitdocs/dms-api/api/swagger"
	"github.com/transitdocs/dms-api/internal/ai"
	"github.com/transitdocs/dms-api/internal/handler"
	"github.com/transitdocs/dms-api/internal/middleware"
	"github.com/transitdocs/dms-api/internal/models"
	"github.com/transitdocs/dms-api/internal/repository"
	"github.com/transitdocs/dms-api/internal/service"
	"github.com/transitdocs/dms-api/pkg/cache"
	"github.com/transitdocs/dms-api/pkg/config"
	"github.com/transitdocs/dms-api/pkg/database"
	"github.com/transitdocs/dms-api/pkg/jobs"
	"github.com/transitdocs/dms-api/pkg/logger"
	corsmiddleware "github.com/transitdocs/dms-api/pkg/middleware/cors"
	reqidmiddleware "github.com/transitdocs/dms-api/pkg/middleware/requestid"
	"github.com/transitdocs/dms-api/pkg/storage"
)

// @title Transit DMS API
// @version 0.1.0
// @description Document intake, classification and workflow service for transit agencies
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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, caching disabled", "error", err)
		redisClient = nil
	}

	fileStorage, err := storage.NewLocalStorage(cfg.Uploads.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to init upload storage", "error", err)
	}

	metricsService := service.NewMetricsService()

	// Repositories.
	documentRepo := repository.NewDocumentRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	routeRepo := repository.NewRouteRepository(db)
	workflowRepo := repository.NewWorkflowRepository(db)
	departmentRepo := repository.NewDepartmentRepository(db)
	userRepo := repository.NewUserRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	defer cacheRepo.Close() //nolint:errcheck

	cacheService := service.NewCacheService(cacheRepo, metricsService, cfg.Dashboard.CacheTTL, logr, redisClient != nil)

	// Classification pipeline.
	completer := ai.NewBreakerClient(ai.NewClient(cfg.AI), ai.BreakerConfig{
		ConsecutiveFailures: cfg.AI.BreakerFailures,
		Cooldown:            cfg.AI.BreakerCooldown,
		Logger:              logr,
	})
	keywordClassifier := service.NewKeywordClassifier(service.DefaultKeywordConfig())
	classifierService := service.NewClassifierService(completer, keywordClassifier, cfg.AI.Model, logr).
		WithMetrics(metricsService)

	// The queue handler closes over the document service, which itself
	// enqueues onto the queue. Declare first, assign after construction.
	var documentService *service.DocumentService
	classifyQueue := jobs.NewQueue("classification", func(ctx context.Context, job jobs.Job) error {
		payload, ok := job.Payload.(service.ClassifyPayload)
		if !ok {
			return fmt.Errorf("job %s carries unexpected payload %T", job.ID, job.Payload)
		}
		return documentService.ClassifyDocument(ctx, payload.DocumentID, payload.ContentText)
	}, jobs.QueueConfig{
		Workers:    cfg.Intake.WorkerConcurrency,
		BufferSize: cfg.Intake.QueueSize,
		MaxRetries: cfg.Intake.MaxRetries,
		RetryDelay: cfg.Intake.RetryDelay,
		Logger:     logr,
		OnDepth:    metricsService.SetQueueDepth,
	})
	documentService = service.NewDocumentService(documentRepo, routeRepo, departmentRepo, classifierService, classifyQueue, logr)
	classifyQueue.Start(ctx)
	defer classifyQueue.Stop()

	workflowService := service.NewWorkflowService(documentRepo, workflowRepo, routeRepo, cacheService, cfg.Dashboard.CacheTTL, logr)
	exportService := service.NewExportService(documentRepo, logr)
	authService := service.NewAuthService(userRepo, auditRepo, validator.New(), logr, service.AuthConfig{
		Secret:     cfg.JWT.Secret,
		Expiration: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	})

	// Handlers.
	authHandler := handler.NewAuthHandler(authService)
	documentHandler := handler.NewDocumentHandler(documentService, fileStorage, handler.UploadPolicy{
		MaxFileSizeBytes: cfg.Uploads.MaxFileSizeBytes,
		AllowedMIMEs:     cfg.Uploads.AllowedMIMEs,
	})
	workflowHandler := handler.NewWorkflowHandler(workflowService, routeRepo)
	aiHandler := handler.NewAIHandler(classifierService, documentService)
	auditHandler := handler.NewAuditHandler(auditRepo)
	exportHandler := handler.NewExportHandler(exportService)
	departmentHandler := handler.NewDepartmentHandler(departmentRepo)
	metricsHandler := handler.NewMetricsHandler(metricsService)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsService))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Health)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.POST("/auth/login", authHandler.Login)

	documents := api.Group("/documents", middleware.OptionalJWT(authService))
	documents.POST("", documentHandler.Create)
	documents.POST("/upload", documentHandler.Upload)
	documents.GET("", documentHandler.List)
	documents.GET("/export", exportHandler.Export)
	documents.GET("/:id", documentHandler.Get)
	documents.GET("/:id/analysis", documentHandler.Analysis)
	documents.GET("/:id/routes", workflowHandler.Routes)
	documents.GET("/:id/audit", auditHandler.ByDocument)
	documents.PATCH("/:id", documentHandler.UpdateStatus)
	documents.POST("/:id", workflowHandler.Apply)

	aiGroup := api.Group("/ai", middleware.OptionalJWT(authService))
	aiGroup.POST("/process-document", aiHandler.ProcessDocument)
	aiGroup.POST("/classify", aiHandler.Classify)
	aiGroup.POST("/summarize", aiHandler.Summarize)
	aiGroup.POST("/chat", aiHandler.Chat)
	aiGroup.POST("/translate", aiHandler.Translate)

	if cfg.Dashboard.Enabled {
		api.GET("/workflows", middleware.OptionalJWT(authService), workflowHandler.Overview)
	}

	api.GET("/departments", departmentHandler.List)
	api.GET("/audit-logs",
		middleware.JWT(authService),
		middleware.RequireRoles(models.RoleSuperAdmin, models.RoleAdmin),
		auditHandler.List,
	)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: r,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Errorw("server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("server shutdown failed", "error", err)
	}
}
