package crontab

import (
	"context"
	"fmt"
	"time"

	"leadchat-server/services/routing-api/internal/config"
	"leadchat-server/services/routing-api/internal/domain/delivery"
	"leadchat-server/services/routing-api/internal/domain/reconcile"
	"leadchat-server/services/routing-api/internal/infrastructure/logger"
	"leadchat-server/services/routing-api/internal/infrastructure/metrics"
	"leadchat-server/services/routing-api/internal/utils/platformerrors"

	"github.com/mileusna/crontab"
)

const (
	DefaultReconcileInterval = 5  // in minutes
	DefaultResendInterval    = 30 // in minutes
	CronJobTimeout           = 10 * time.Minute
)

type Crontab struct {
	ctab       *crontab.Crontab
	reconciler *reconcile.Reconciler
	deliveries *delivery.Service
}

func NewCrontab(
	reconciler *reconcile.Reconciler,
	deliveries *delivery.Service,
) *Crontab {
	return &Crontab{
		ctab:       crontab.New(),
		reconciler: reconciler,
		deliveries: deliveries,
	}
}

func (c *Crontab) Run(ctx context.Context) error {
	log := logger.GetLogger()
	cfg := config.GetGlobal()

	// execute once on server start
	if cfg != nil && cfg.ReconcileEnabled {
		c.runReconcile(ctx)
	}

	if cfg != nil && cfg.ReconcileEnabled {
		interval := cfg.ReconcileIntervalMinutes
		if interval <= 0 {
			interval = DefaultReconcileInterval
		}
		cronExpr := fmt.Sprintf("*/%d * * * *", interval)
		if err := c.ctab.AddJob(cronExpr, func() {
			jobCtx, cancel := context.WithTimeout(context.Background(), CronJobTimeout)
			defer cancel()
			c.runReconcile(jobCtx)
		}); err != nil {
			return platformerrors.AsError(ctx, platformerrors.LayerInfrastructure, err, "failed to add reconcile job")
		}
		log.Warn().Msgf("Timeline reconciliation scheduled: every %d minute(s)", interval)
	}

	if cfg != nil && cfg.ResendEnabled {
		interval := cfg.ResendIntervalMinutes
		if interval <= 0 {
			interval = DefaultResendInterval
		}
		cronExpr := fmt.Sprintf("*/%d * * * *", interval)
		if err := c.ctab.AddJob(cronExpr, func() {
			jobCtx, cancel := context.WithTimeout(context.Background(), CronJobTimeout)
			defer cancel()
			c.runResend(jobCtx)
		}); err != nil {
			return platformerrors.AsError(ctx, platformerrors.LayerInfrastructure, err, "failed to add resend job")
		}
		log.Warn().Msgf("Notification resend scheduled: every %d minute(s)", interval)
	}

	<-ctx.Done()
	c.ctab.Shutdown()
	return nil
}

func (c *Crontab) runReconcile(ctx context.Context) {
	log := logger.GetLogger()
	cfg := config.GetGlobal()

	batchLimit := 0
	if cfg != nil {
		batchLimit = cfg.ReconcileBatchLimit
	}

	report, err := c.reconciler.Reconcile(ctx, batchLimit)
	if err != nil {
		log.Error().Err(err).Msg("Timeline reconciliation failed")
		return
	}
	metrics.ReconciledRowsTotal.WithLabelValues("synced").Add(float64(report.Synced))
	metrics.ReconciledRowsTotal.WithLabelValues("skipped").Add(float64(report.Skipped))
	metrics.ReconciledRowsTotal.WithLabelValues("failed").Add(float64(report.Failed))
}

func (c *Crontab) runResend(ctx context.Context) {
	log := logger.GetLogger()
	cfg := config.GetGlobal()

	lookback := time.Duration(0)
	if cfg != nil {
		lookback = cfg.ResendLookback
	}

	summary, err := c.deliveries.ResendFailed(ctx, lookback)
	if err != nil {
		log.Error().Err(err).Msg("Notification resend sweep failed")
		if summary == nil {
			return
		}
	}
	for _, result := range summary.Results {
		metrics.RecordResend(string(result.Status))
	}
}
