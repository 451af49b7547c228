package logging

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/unilak/community/internal/models"
	"gorm.io/gorm"
)

// Retention purges old system_logs rows on a cron schedule.
type Retention struct {
	cronEngine *cron.Cron
	db         *gorm.DB
	keep       time.Duration
	spec       string
}

func NewRetention(db *gorm.DB, keep time.Duration, spec string) *Retention {
	return &Retention{
		cronEngine: cron.New(cron.WithLocation(time.UTC)),
		db:         db,
		keep:       keep,
		spec:       spec,
	}
}

func (r *Retention) Start() error {
	if _, err := r.cronEngine.AddFunc(r.spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		r.Purge(ctx, time.Now())
	}); err != nil {
		return err
	}
	r.cronEngine.Start()
	slog.Info("log retention scheduled", "spec", r.spec, "keep", r.keep.String())
	return nil
}

// Purge deletes rows older than the retention window and returns the count.
func (r *Retention) Purge(ctx context.Context, now time.Time) int64 {
	cutoff := now.Add(-r.keep)
	result := r.db.WithContext(ctx).Where("timestamp < ?", cutoff).Delete(&models.SystemLog{})
	if result.Error != nil {
		slog.Error("log cleanup failed", "error", result.Error)
		return 0
	}
	if result.RowsAffected > 0 {
		slog.Info("log cleanup completed", "deleted", result.RowsAffected)
	}
	return result.RowsAffected
}

// Stop waits for a running purge to finish.
func (r *Retention) Stop() {
	<-r.cronEngine.Stop().Done()
}
