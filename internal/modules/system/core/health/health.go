package health

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jdforge/core/internal/pkg/cron"
	pkgredis "github.com/jdforge/core/internal/pkg/redis"
	"github.com/jdforge/core/internal/pkg/response"
	"gorm.io/gorm"
)

const pingTimeout = 2 * time.Second

func RegisterRoutes(rg *gin.RouterGroup, db *gorm.DB, rc *pkgredis.Client, sched *cron.Scheduler, authMW gin.HandlerFunc) {
	rg.GET("/health", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), pingTimeout)
		defer cancel()

		dbOK := false
		if sqlDB, err := db.DB(); err == nil {
			dbOK = sqlDB.PingContext(ctx) == nil
		}
		redisOK := rc != nil && rc.Ping(ctx) == nil

		status := "ok"
		code := http.StatusOK
		if !dbOK || !redisOK {
			status = "degraded"
			code = http.StatusServiceUnavailable
		}

		c.JSON(code, gin.H{
			"status":   status,
			"database": dbOK,
			"redis":    redisOK,
		})
	})

	cronGroup := rg.Group("/health/cron", authMW)
	cronGroup.GET("", func(c *gin.Context) {
		items := sched.List()
		byName := make(map[string]cron.Snapshot, len(items))
		for _, item := range items {
			byName[item.Name] = item
		}
		response.OK(c, byName)
	})
	cronGroup.POST("/run/:name", func(c *gin.Context) {
		if err := sched.RunNow(c.Request.Context(), c.Param("name")); err != nil {
			response.NotFoundMsg(c, err.Error())
			return
		}
		response.Message(c, "job finished")
	})
}
