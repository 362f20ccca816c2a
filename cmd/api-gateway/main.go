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
	"github.com/jmoiron/sqlx"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"

	_ "github.com/noah-isme/enrollment-api/api/swagger"
	"github.com/noah-isme/enrollment-api/internal/handler"
	"github.com/noah-isme/enrollment-api/internal/middleware"
	"github.com/noah-isme/enrollment-api/internal/repository"
	"github.com/noah-isme/enrollment-api/internal/service"
	"github.com/noah-isme/enrollment-api/pkg/cache"
	"github.com/noah-isme/enrollment-api/pkg/config"
	"github.com/noah-isme/enrollment-api/pkg/database"
	"github.com/noah-isme/enrollment-api/pkg/export"
	"github.com/noah-isme/enrollment-api/pkg/jobs"
	"github.com/noah-isme/enrollment-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/enrollment-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/enrollment-api/pkg/middleware/requestid"
	"github.com/noah-isme/enrollment-api/pkg/tracing"
)

// @title Enrollment API
// @version 1.0.0
// @description Student enrollment confirmation and panel service
// @BasePath /api/v1
// @schemes http

const shutdownTimeout = 15 * time.Second

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

	shutdownTracing := tracing.Init(ctx, cfg.Tracing, cfg.Env, logr)

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect database", zap.Error(err))
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, panel cache disabled", zap.Error(err))
		redisClient = nil
	}
	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	defer cacheRepo.Close() //nolint:errcheck

	var metricsSvc *service.MetricsService
	if cfg.Metrics.Enabled {
		metricsSvc = service.NewMetricsService()
	}
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Panel.CacheTTL, logr, redisClient != nil)

	events := jobs.NewRouter()
	eventQueue := jobs.NewQueue("enrollment-events", events.Dispatch, jobs.QueueConfig{
		Workers:    cfg.Enrollment.EventWorkers,
		MaxRetries: cfg.Enrollment.EventRetries,
		RetryDelay: cfg.Enrollment.EventRetryDelay,
		Logger:     logr,
	})
	eventSvc := service.NewEnrollmentEventService(cacheSvc, logr)
	events.Handle(service.EventEnrollmentConfirmed, eventSvc.HandleConfirmed)
	eventQueue.Start(ctx)

	router := newRouter(cfg, logr, db, cacheRepo, cacheSvc, metricsSvc, eventQueue)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("http shutdown failed", zap.Error(err))
	}
	eventQueue.Stop()
	if err := shutdownTracing(shutdownCtx); err != nil {
		logr.Warn("tracer shutdown failed", zap.Error(err))
	}
}

func newRouter(
	cfg *config.Config,
	logr *zap.Logger,
	db *sqlx.DB,
	cacheRepo *repository.CacheRepository,
	cacheSvc *service.CacheService,
	metricsSvc *service.MetricsService,
	events *jobs.Queue,
) *gin.Engine {
	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	studentRepo := repository.NewStudentRepository(db)
	periodRepo := repository.NewPeriodRepository(db)
	holdRepo := repository.NewHoldRepository(db)
	offeringRepo := repository.NewOfferingRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	confirmationRepo := repository.NewConfirmationRepository(db, enrollmentRepo, repository.NewSeatLedger())

	periodSvc := service.NewPeriodService(periodRepo, logr)
	holdSvc := service.NewHoldService(holdRepo, logr)
	confirmationSvc := service.NewConfirmationService(service.ConfirmationServiceParams{
		Students:    studentRepo,
		Periods:     periodSvc,
		Holds:       holdSvc,
		Offerings:   offeringRepo,
		Enrollments: enrollmentRepo,
		Store:       confirmationRepo,
		Events:      events,
		Metrics:     metricsSvc,
		Logger:      logr,
		TxTimeout:   cfg.Enrollment.TxTimeout,
	})
	panelSvc := service.NewPanelService(service.PanelServiceParams{
		Students:    studentRepo,
		Periods:     periodSvc,
		Holds:       holdSvc,
		Offerings:   offeringRepo,
		Enrollments: enrollmentRepo,
		Cache:       cacheSvc,
		PDF:         export.NewPDFExporter(),
		CSV:         export.NewCSVExporter(),
		Logger:      logr,
		Config:      service.PanelServiceConfig{University: cfg.Panel.University, CacheTTL: cfg.Panel.CacheTTL},
	})

	checks := map[string]handler.Pinger{"database": db}
	if cacheSvc.Enabled() {
		checks["redis"] = handler.PingFunc(cacheRepo.Ping)
	}
	metricsHandler := handler.NewMetricsHandler(metricsSvc, checks)
	enrollmentHandler := handler.NewEnrollmentHandler(confirmationSvc)
	panelHandler := handler.NewPanelHandler(panelSvc)
	periodHandler := handler.NewPeriodHandler(panelSvc)

	r := gin.New()
	// Period codes contain a slash and arrive URL encoded.
	r.UseRawPath = true
	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware(cfg.Tracing.ServiceName))
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	if metricsSvc != nil {
		r.GET("/metrics", metricsHandler.Prometheus)
		r.GET("/metrics/summary", metricsHandler.Summary)
	}
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.Use(middleware.WithResponseMeta())
	api.POST("/enrollments/confirm", enrollmentHandler.Confirm)

	if cfg.Panel.Enabled {
		students := api.Group("/students/:registration")
		students.GET("/enrollment-dates", panelHandler.EnrollmentDates)
		students.GET("/holds", panelHandler.Holds)
		students.GET("/available-courses", panelHandler.AvailableCourses)
		students.GET("/enabled-period", panelHandler.EnabledPeriod)
		students.GET("/enrollment", panelHandler.CurrentEnrollment)
		students.GET("/enrollment/slip", panelHandler.EnrollmentSlip)
		students.GET("/panel", panelHandler.Panel)

		periods := api.Group("/periods/:code")
		periods.GET("/offerings/export", periodHandler.ExportOfferings)
		periods.GET("/seat-audit", periodHandler.SeatAudit)
	}

	return r
}
