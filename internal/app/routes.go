package app

import (
	"github.com/jdforge/core/internal/middleware"
	"github.com/jdforge/core/internal/modules/auth/user"
	"github.com/jdforge/core/internal/modules/content/generation"
	"github.com/jdforge/core/internal/modules/content/history"
	"github.com/jdforge/core/internal/modules/system/core/health"
	"github.com/jdforge/core/internal/pkg/formstate"
	"github.com/jdforge/core/internal/pkg/response"
	"github.com/jdforge/core/internal/pkg/validation"
)

const apiPrefix = "/api/v1"

func (a *App) registerRoutes() {
	rdb := a.rc.Raw()

	api := a.router.Group(apiPrefix)
	api.Use(middleware.RateLimit(rdb, middleware.DefaultRateLimit, a.logger))
	api.Use(middleware.Idempotence(rdb, idempotenceSkipPaths()...))

	authMW := middleware.Auth(a.db)
	forms := formstate.NewStore(a.rc, a.cfg.Auth.SessionTTL)
	domains := validation.NewDomainAllowList(a.cfg.Auth.AllowedEmailDomains)

	health.RegisterRoutes(api, a.db, a.rc, a.sched, authMW)

	userSvc := user.NewService(a.db, domains, forms, a.cfg.Auth.SessionTTL, a.logger)
	user.NewHandler(userSvc).RegisterRoutes(api, authMW)

	genSvc := generation.NewService(a.db, a.completer, forms, generation.Options{
		Mode:      a.cfg.AI.Mode,
		MaxTokens: a.cfg.AI.MaxTokens,
		Timeout:   a.cfg.AI.Timeout,
	}, a.logger)
	generation.NewHandler(genSvc).RegisterRoutes(api, authMW,
		middleware.RateLimit(rdb, middleware.GenerateRateLimit, a.logger))

	history.NewHandler(history.NewService(a.db, a.logger)).RegisterRoutes(api, authMW)

	a.router.NoRoute(response.NotFound)
	a.router.NoMethod(response.MethodNotAllowed)
}

// idempotenceSkipPaths lists POSTs that may legitimately repeat with the same body.
func idempotenceSkipPaths() []string {
	return []string{
		apiPrefix + "/auth/login",
		apiPrefix + "/auth/logout",
		apiPrefix + "/generate",
	}
}
