package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jdforge/core/internal/config"
	"github.com/jdforge/core/internal/database"
	"github.com/jdforge/core/internal/middleware"
	"github.com/jdforge/core/internal/modules/auth/user"
	"github.com/jdforge/core/internal/modules/processing/ai"
	pkgcron "github.com/jdforge/core/internal/pkg/cron"
	pkgredis "github.com/jdforge/core/internal/pkg/redis"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// App holds all application dependencies.
type App struct {
	cfg       *config.AppConfig
	router    *gin.Engine
	db        *gorm.DB
	rc        *pkgredis.Client
	completer ai.Completer
	logger    *zap.Logger
	cancel    context.CancelFunc
	sched     *pkgcron.Scheduler
}

// New initializes the application: completion provider → DB → Redis → routes.
// A missing API key fails before any connection is opened.
func New(logger *zap.Logger, cfg *config.AppConfig) (*App, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	if err := applyRuntimeSettings(cfg, logger); err != nil {
		return nil, err
	}

	completer, err := ai.NewCompleter(cfg.AI)
	if err != nil {
		return nil, fmt.Errorf("ai: %w", err)
	}

	db, err := database.Connect(cfg, true)
	if err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}

	rc, err := pkgredis.Connect(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("redis: %w", err)
	}

	if cfg.IsDev() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	a, err := assemble(logger, cfg, db, rc, completer)
	if err != nil {
		_ = rc.Close()
		return nil, err
	}
	logger.Info("application ready",
		zap.String("env", cfg.Env),
		zap.String("ai_provider", cfg.AI.Provider),
		zap.String("ai_model", completer.Model()),
	)
	return a, nil
}

// assemble builds the router and background jobs around already opened connections.
func assemble(logger *zap.Logger, cfg *config.AppConfig, db *gorm.DB, rc *pkgredis.Client, completer ai.Completer) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := user.RegisterValidators(); err != nil {
		return nil, err
	}

	router := gin.New()
	router.HandleMethodNotAllowed = true
	router.Use(gin.Recovery())
	router.Use(middleware.Logger(logger))
	router.Use(cors.New(corsConfig(cfg)))

	ctx, cancel := context.WithCancel(context.Background())
	sched := pkgcron.New(logger.Named("CronService"))
	registerCronJobs(sched, db, logger)
	sched.Start(ctx)

	a := &App{
		cfg:       cfg,
		router:    router,
		db:        db,
		rc:        rc,
		completer: completer,
		logger:    logger,
		cancel:    cancel,
		sched:     sched,
	}
	a.registerRoutes()
	return a, nil
}

// Addr returns the listen address.
func (a *App) Addr() string { return fmt.Sprintf(":%d", a.cfg.Port) }

// Router returns the HTTP handler.
func (a *App) Router() http.Handler { return a.router }

// Shutdown stops background jobs and closes connections.
func (a *App) Shutdown() {
	a.cancel()
	if a.rc != nil {
		if err := a.rc.Close(); err != nil {
			a.logger.Warn("failed to close redis", zap.Error(err))
		}
	}
	if sqlDB, err := a.db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			a.logger.Warn("failed to close database", zap.Error(err))
		}
	}
}
