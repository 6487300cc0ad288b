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
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/campus-scheduler/api/swagger"
	"github.com/noah-isme/campus-scheduler/internal/handler"
	internalmiddleware "github.com/noah-isme/campus-scheduler/internal/middleware"
	"github.com/noah-isme/campus-scheduler/internal/models"
	"github.com/noah-isme/campus-scheduler/internal/repository"
	"github.com/noah-isme/campus-scheduler/internal/service"
	"github.com/noah-isme/campus-scheduler/pkg/cache"
	"github.com/noah-isme/campus-scheduler/pkg/config"
	"github.com/noah-isme/campus-scheduler/pkg/database"
	"github.com/noah-isme/campus-scheduler/pkg/jobs"
	"github.com/noah-isme/campus-scheduler/pkg/logger"
	corsmiddleware "github.com/noah-isme/campus-scheduler/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/campus-scheduler/pkg/middleware/requestid"
	"github.com/noah-isme/campus-scheduler/pkg/storage"
)

// @title Campus Scheduler API
// @version 1.0.0
// @description Course section timetabling, weekly schedules and calendar export.
// @BasePath /api/v1
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

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

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect database", zap.Error(err))
	}
	defer db.Close() //nolint:errcheck

	if cfg.RunMigrations {
		if err := database.RunMigrations(db.DB, logr); err != nil {
			logr.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	metrics := service.NewMetricsService()

	cacheRepo := repository.NewCacheRepository(nil, logr)
	if cfg.Cache.Enabled {
		redisClient, err := cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, weekly schedule cache disabled", zap.Error(err))
		} else {
			cacheRepo = repository.NewCacheRepository(redisClient, logr)
		}
	}
	defer cacheRepo.Close() //nolint:errcheck
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Cache.TTL, logr, cfg.Cache.Enabled)

	sectionRepo := repository.NewSectionRepository(db)
	classroomRepo := repository.NewClassroomRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	assignmentRepo := repository.NewAssignmentRepository(db)
	profileRepo := repository.NewProfileRepository(db)
	preferenceRepo := repository.NewInstructorPreferenceRepository(db)

	schedulingSvc := service.NewSchedulingService(
		sectionRepo,
		classroomRepo,
		enrollmentRepo,
		assignmentRepo,
		preferenceRepo,
		cacheSvc,
		metrics,
		service.NewValidator(),
		logr,
		service.SchedulingConfig{
			MaxNodes:  cfg.Scheduler.MaxNodes,
			Timeout:   cfg.Scheduler.Timeout,
			Optimizer: cfg.Scheduler.Optimizer,
			RunTTL:    cfg.Scheduler.RunTTL,
		},
	)
	runQueue := jobs.NewQueue(service.JobTypeScheduleRun, schedulingSvc.HandleRunJob, jobs.QueueConfig{
		Workers:    cfg.Scheduler.Workers,
		MaxRetries: cfg.Scheduler.Retries,
		JobTimeout: cfg.Scheduler.JobTimeout,
		Observer:   metrics,
		Logger:     logr,
	})
	runQueue.Start(ctx)
	defer runQueue.Stop()
	schedulingSvc.AttachQueue(runQueue)

	weeklySvc := service.NewWeeklyScheduleService(profileRepo, enrollmentRepo, sectionRepo, classroomRepo, assignmentRepo, cacheSvc, cfg.Cache.TTL, logr)

	loc, err := time.LoadLocation(cfg.Calendar.TimeZone)
	if err != nil {
		logr.Warn("unknown calendar time zone, using UTC", zap.String("tz", cfg.Calendar.TimeZone), zap.Error(err))
		loc = time.UTC
	}
	var signer *storage.FeedSigner
	if cfg.Calendar.FeedSecret != "" {
		signer = storage.NewFeedSigner(cfg.Calendar.FeedSecret, cfg.Calendar.FeedTTL)
	} else {
		logr.Warn("CALENDAR_FEED_SECRET not set, calendar subscription feeds disabled")
	}
	calendarSvc := service.NewCalendarExportService(weeklySvc, feedSigner(signer), metrics, logr, service.CalendarConfig{
		Location:  loc,
		UIDDomain: cfg.Calendar.UIDDomain,
	})
	tokenSvc := service.NewTokenService(cfg.JWT.Secret)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metrics))

	metricsHandler := handler.NewMetricsHandler(metrics, map[string]handler.Pinger{
		"postgres": db,
		"redis":    handler.PingFunc(cacheRepo.Ping),
	})
	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	schedulingHandler := handler.NewSchedulingHandler(schedulingSvc)
	scheduleHandler := handler.NewScheduleHandler(weeklySvc, calendarSvc, cfg.Calendar.PublicURL+cfg.APIPrefix+"/calendar")

	api := r.Group(cfg.APIPrefix)
	api.GET("/calendar/:token", scheduleHandler.Feed)

	authed := api.Group("", internalmiddleware.JWT(tokenSvc))
	authed.GET("/scheduling/default-timeslots", schedulingHandler.DefaultTimeSlots)

	admin := authed.Group("/scheduling", internalmiddleware.RequireRoles(models.RoleAdmin))
	admin.POST("/runs", internalmiddleware.Audit(logr, "schedule.run", "scheduling_run"), schedulingHandler.Run)
	admin.POST("/preview", internalmiddleware.Audit(logr, "schedule.preview", "scheduling_run"), schedulingHandler.Preview)
	admin.GET("/runs/:id", schedulingHandler.GetRun)

	authed.GET("/schedule/me", scheduleHandler.Me)
	authed.GET("/schedule/me/ical", scheduleHandler.ICal)
	authed.GET("/schedule/me/pdf", scheduleHandler.Document)
	authed.GET("/schedule/feed-url", scheduleHandler.FeedURL)
	authed.GET("/schedule/users/:id", internalmiddleware.RBAC(string(models.RoleAdmin), "SELF"), scheduleHandler.UserSchedule)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
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
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}

// feedSigner keeps a nil *FeedSigner from becoming a non-nil interface.
func feedSigner(s *storage.FeedSigner) interface {
	Generate(userID, role string) (string, time.Time, error)
	Parse(token string) (storage.FeedClaims, error)
} {
	if s == nil {
		return nil
	}
	return s
}
