package app

import (
	"context"
	"time"

	pkgcron "github.com/jdforge/core/internal/pkg/cron"
	sessionpkg "github.com/jdforge/core/internal/pkg/session"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	sessionCleanupInterval = 6 * time.Hour
	staleSessionAge        = 7 * 24 * time.Hour
)

// registerCronJobs registers all scheduled background jobs.
func registerCronJobs(sched *pkgcron.Scheduler, db *gorm.DB, logger *zap.Logger) {
	cronLogger := logger.Named("CronService")

	sched.Register(pkgcron.Job{
		Name:        "cleanup_sessions",
		Description: "Delete sessions that expired or were revoked more than 7 days ago",
		Interval:    sessionCleanupInterval,
		Fn: func(ctx context.Context) error {
			n, err := sessionpkg.PurgeStale(db.WithContext(ctx), time.Now().Add(-staleSessionAge))
			if err != nil {
				cronLogger.Warn("session cleanup failed", zap.Error(err))
				return err
			}
			cronLogger.Info("session cleanup finished", zap.Int64("deleted", n))
			return nil
		},
	})
}
