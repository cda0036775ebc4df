package app

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
)

// RunContinuous starts the health/metrics HTTP server and scans sport on
// interval until the context is cancelled or a shutdown signal arrives.
func (a *App) RunContinuous(ctx context.Context, sport string, interval time.Duration) error {
	a.logger.Info("continuous-scan-starting", zap.String("sport", sport), zap.Duration("interval", interval))

	a.StartHTTPServer()
	defer func() {
		if err := a.Close(); err != nil {
			a.logger.Error("app-close-error", zap.Error(err))
		}
	}()

	runCtx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if _, err := a.Scan(runCtx, sport); err != nil {
		a.logger.Error("scan-error", zap.Error(err))
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-runCtx.Done():
			a.logger.Info("continuous-scan-shutting-down")
			return nil
		case <-ticker.C:
			if _, err := a.Scan(runCtx, sport); err != nil {
				a.logger.Error("scan-error", zap.Error(err))
			}
		}
	}
}
