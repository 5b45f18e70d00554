package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/noah-isme/sms-results-api/api/swagger"
	"github.com/noah-isme/sms-results-api/internal/handler"
	"github.com/noah-isme/sms-results-api/internal/middleware"
	"github.com/noah-isme/sms-results-api/internal/models"
	"github.com/noah-isme/sms-results-api/internal/repository"
	"github.com/noah-isme/sms-results-api/internal/service"
	"github.com/noah-isme/sms-results-api/pkg/cache"
	"github.com/noah-isme/sms-results-api/pkg/config"
	"github.com/noah-isme/sms-results-api/pkg/database"
	"github.com/noah-isme/sms-results-api/pkg/jobs"
	"github.com/noah-isme/sms-results-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/sms-results-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/sms-results-api/pkg/middleware/requestid"
	"github.com/noah-isme/sms-results-api/pkg/storage"
)

// @title SMS Results API
// @version 1.0.0
// @description Assessment scoring and report-card approval engine
// @BasePath /
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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close() //nolint:errcheck

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		// Redis only caches summaries; the engine runs without it.
		logr.Sugar().Warnw("redis unavailable, summaries uncached", "error", err)
		redisClient = nil
	}

	marksRepo := repository.NewMarksRepository(db)
	workflowRepo := repository.NewWorkflowRepository(db)
	scaleRepo := repository.NewGradeScaleRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	metricsSvc := service.NewMetricsService()
	scaleSvc := service.NewGradeScaleService(scaleRepo, logr)
	workflowSvc := service.NewWorkflowService(workflowRepo, nil, logr)

	maxima := models.ComponentMaxima{
		FirstTest:  cfg.Scoring.FirstTestMax,
		SecondTest: cfg.Scoring.SecondTestMax,
		Assignment: cfg.Scoring.AssignmentMax,
		Exam:       cfg.Scoring.ExamMax,
	}
	resultSvc := service.NewResultService(marksRepo, workflowSvc, scaleSvc, maxima, metricsSvc, nil, logr)
	summarySvc := service.NewSummaryService(marksRepo, scaleSvc, cacheRepo, cfg.Summary.CacheTTL, metricsSvc, logr)

	// Any approval or revocation can change any cumulative summary.
	workflowSvc.OnChange(func([]models.ReportCardWorkflowRecord) {
		summarySvc.InvalidateAll(context.Background())
	})

	files, err := storage.NewLocalStorage(cfg.Exports.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to prepare export storage", "error", err)
	}
	signer := storage.NewSignedURLSigner(cfg.Exports.SignedURLSecret, cfg.Exports.SignedURLTTL)
	exportSvc := service.NewExportService(resultSvc, files, signer, service.ExportConfig{APIPrefix: cfg.APIPrefix}, logr)

	exportQueue := jobs.NewQueue("exports", exportSvc.HandleJob, jobs.QueueConfig{
		Workers:    cfg.Exports.WorkerConcurrency,
		MaxRetries: cfg.Exports.WorkerRetries,
		Logger:     logr,
	})
	exportQueue.Start(context.Background())
	defer exportQueue.Stop()
	exportSvc.AttachQueue(exportQueue)

	resultHandler := handler.NewResultHandler(resultSvc)
	workflowHandler := handler.NewWorkflowHandler(workflowSvc, metricsSvc)
	summaryHandler := handler.NewSummaryHandler(summarySvc)
	scaleHandler := handler.NewGradeScaleHandler(scaleSvc)
	exportHandler := handler.NewExportHandler(exportSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ready", func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.Use(middleware.JWT(cfg.JWT.Secret))

	teachers := middleware.RequireRoles(models.RoleTeacher, models.RoleAdmin, models.RoleSuperAdmin)
	admins := middleware.RequireRoles(models.RoleAdmin, models.RoleSuperAdmin)

	results := api.Group("/results")
	{
		results.POST("/scores", teachers, resultHandler.EnterScores)
		results.POST("/scores/bulk", teachers, resultHandler.BulkEnterScores)
		results.POST("/recompute", teachers, resultHandler.Recompute)
		results.GET("/cohort", resultHandler.Cohort)
		results.GET("/students/:studentId", resultHandler.StudentRecord)
		results.GET("/students/:studentId/export", exportHandler.ReportCard)
		results.GET("/summary/:studentId", summaryHandler.Summarize)
		results.GET("/export", exportHandler.Broadsheet)
		results.POST("/export/async", teachers, exportHandler.BroadsheetAsync)
	}

	reportCards := api.Group("/report-cards")
	{
		reportCards.GET("", workflowHandler.Records)
		reportCards.GET("/status", workflowHandler.Status)
		reportCards.POST("/submit", teachers, workflowHandler.Submit)
		reportCards.POST("/cancel", teachers, workflowHandler.Cancel)
		reportCards.POST("/approve", admins, workflowHandler.Approve)
		reportCards.POST("/revoke", admins, workflowHandler.Revoke)
		reportCards.POST("/reset", admins, workflowHandler.Reset)
	}

	api.GET("/grade-scales", scaleHandler.Get)
	api.PUT("/grade-scales", admins, scaleHandler.Update)
	api.GET("/exports/:token", exportHandler.Download)

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
