package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/fyp-portal/fyp-admin-api/internal/handler"
	internalmiddleware "github.com/fyp-portal/fyp-admin-api/internal/middleware"
	"github.com/fyp-portal/fyp-admin-api/internal/repository"
	"github.com/fyp-portal/fyp-admin-api/internal/service"
	"github.com/fyp-portal/fyp-admin-api/pkg/cache"
	"github.com/fyp-portal/fyp-admin-api/pkg/config"
	"github.com/fyp-portal/fyp-admin-api/pkg/database"
	"github.com/fyp-portal/fyp-admin-api/pkg/logger"
	"github.com/fyp-portal/fyp-admin-api/pkg/mailer"
	corsmiddleware "github.com/fyp-portal/fyp-admin-api/pkg/middleware/cors"
	reqidmiddleware "github.com/fyp-portal/fyp-admin-api/pkg/middleware/requestid"
	"github.com/fyp-portal/fyp-admin-api/pkg/storage"
)

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
		logr.Sugar().Fatalw("failed to connect postgres", "error", err)
	}
	defer db.Close()

	var cacheRepo *repository.CacheRepository
	if cfg.Cache.Enabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Warnw("redis unavailable, dropdown cache disabled", "error", err)
		} else {
			defer redisClient.Close()
			cacheRepo = repository.NewCacheRepository(redisClient, logr)
		}
	}

	var mail mailer.Mailer
	if cfg.Mail.SendGridKey != "" {
		mail = mailer.NewSendGrid(cfg.Mail, logr)
	} else {
		logr.Info("no SendGrid key configured, using log mailer")
		mail = mailer.NewLog(logr)
	}

	reportStore, err := storage.NewFileStore(cfg.Report.Dir)
	if err != nil {
		logr.Sugar().Fatalw("failed to prepare reports directory", "error", err)
	}
	linkSigner := storage.NewLinkSigner(cfg.JWT.Secret, cfg.Report.URLTTL)
	if removed, err := reportStore.CleanupOlderThan(cfg.Report.URLTTL); err != nil {
		logr.Sugar().Warnw("stale report cleanup failed", "error", err)
	} else if len(removed) > 0 {
		logr.Sugar().Infow("stale reports removed", "count", len(removed))
	}

	validate := validator.New()

	adminRepo := repository.NewAdminRepository(db)
	divisionRepo := repository.NewDivisionRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	guideRepo := repository.NewGuideRepository(db)
	groupRepo := repository.NewGroupRepository(db)
	evaluationRepo := repository.NewEvaluationRepository(db)
	announcementRepo := repository.NewAnnouncementRepository(db)
	scheduleRepo := repository.NewScheduleRepository(db)

	tokens := service.NewTokenService(cfg.JWT)
	metrics := service.NewMetricsService()

	authSvc := service.NewAuthService(adminRepo, tokens, validate, logr)
	divisionSvc := service.NewDivisionService(divisionRepo, enrollmentRepo, cfg.Academic, validate, logr)
	enrollmentSvc := service.NewEnrollmentService(enrollmentRepo, divisionRepo, cfg.Academic, validate, logr)
	var guideSvc *service.GuideService
	if cacheRepo != nil {
		guideSvc = service.NewGuideService(guideRepo, cacheRepo, tokens, mail, cfg.Mail, cfg.Cache, validate, logr)
	} else {
		guideSvc = service.NewGuideService(guideRepo, nil, tokens, mail, cfg.Mail, cfg.Cache, validate, logr)
	}
	groupSvc := service.NewGroupService(groupRepo, guideRepo, enrollmentRepo, cfg.Academic, validate, logr)
	evaluationSvc := service.NewEvaluationService(evaluationRepo, groupRepo, validate, logr)

	notifier := service.NewGuideNotifier(guideRepo, mail, cfg.Jobs, logr)
	notifier.Start(context.Background())
	defer notifier.Stop()

	announcementSvc := service.NewAnnouncementService(announcementRepo, notifier, validate, logr)
	scheduleSvc := service.NewScheduleService(scheduleRepo, validate, logr)
	reportSvc := service.NewReportService(evaluationRepo, reportStore, linkSigner, logr)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metrics))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ready", func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	handler.RegisterRoutes(r, handler.Handlers{
		Auth:         handler.NewAuthHandler(authSvc),
		Division:     handler.NewDivisionHandler(divisionSvc),
		Enrollment:   handler.NewEnrollmentHandler(enrollmentSvc, groupSvc),
		Guide:        handler.NewGuideHandler(guideSvc),
		Group:        handler.NewGroupHandler(groupSvc),
		Evaluation:   handler.NewEvaluationHandler(evaluationSvc),
		Announcement: handler.NewAnnouncementHandler(announcementSvc),
		Schedule:     handler.NewScheduleHandler(scheduleSvc),
		Report:       handler.NewReportHandler(reportSvc, "/api/v1"),
	}, tokens)

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
