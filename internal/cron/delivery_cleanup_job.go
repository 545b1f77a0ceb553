package cron

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const defaultRetentionDays = 30

type DeliveryRepo interface {
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// DeliveryCleanupJob prunes terminal push-delivery log entries past the
// retention window. Runs nightly; entries still awaiting a client report are
// kept regardless of age.
type DeliveryCleanupJob struct {
	repo          DeliveryRepo
	cron          *cron.Cron
	retentionDays int
	now           func() time.Time
}

func NewDeliveryCleanupJob(repo DeliveryRepo, retentionDays int) *DeliveryCleanupJob {
	if retentionDays <= 0 {
		retentionDays = defaultRetentionDays
	}
	return &DeliveryCleanupJob{
		repo:          repo,
		cron:          cron.New(),
		retentionDays: retentionDays,
		now:           time.Now,
	}
}

func (j *DeliveryCleanupJob) Start() error {
	_, err := j.cron.AddFunc("@daily", func() {
		if err := j.Run(context.Background()); err != nil {
			zap.L().Error("Delivery log cleanup failed", zap.Error(err))
		}
	})
	if err != nil {
		return err
	}

	j.cron.Start()
	zap.L().Info("Delivery log cleanup job started", zap.Int("retentionDays", j.retentionDays))
	return nil
}

func (j *DeliveryCleanupJob) Stop() {
	j.cron.Stop()
	zap.L().Info("Delivery log cleanup job stopped")
}

func (j *DeliveryCleanupJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-time.Duration(j.retentionDays) * 24 * time.Hour)
	deleted, err := j.repo.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return err
	}
	zap.L().Info("Delivery log cleanup complete",
		zap.Time("cutoff", cutoff), zap.Int64("rowsDeleted", deleted))
	return nil
}
