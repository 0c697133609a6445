package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/sla-engine/internal/service"
)

// StartSweepWorker runs the periodic sweep loop until ctx is cancelled.
// An initial sweep runs immediately so a freshly started sweeper does not
// wait a full interval before catching up.
func StartSweepWorker(ctx context.Context, sweeps *service.SweepService, interval time.Duration, logger *zap.Logger) {
	runOnce(ctx, sweeps, logger)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			logger.Info("sweep worker stopping")
			return
		case <-ticker.C:
			runOnce(ctx, sweeps, logger)
		}
	}
}

func runOnce(ctx context.Context, sweeps *service.SweepService, logger *zap.Logger) {
	report, err := sweeps.RunSweep(ctx, "", false)
	if err != nil {
		logger.Warn("scheduled sweep failed", zap.Error(err))
		return
	}
	logger.Info("scheduled sweep complete",
		zap.String("sweep_id", report.SweepID),
		zap.Int("tenants", len(report.Tenants)),
		zap.Int("violations", report.TotalViolations()),
		zap.Int("errors", report.TotalErrors()))
}
