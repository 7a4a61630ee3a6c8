// internal/app/bootstrap/shutdown.go
package bootstrap

import (
	"context"

	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// Shutdown drains in-flight side effects and tears down connections.
// Ordering matters: the outbox drains first so queued emails, notifications,
// and audit entries still have a live database underneath them.
func Shutdown(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if activeOutbox != nil {
		logger.Info("draining outbox")
		activeOutbox.Close()
	}
	if activeGate != nil {
		activeGate.Close()
	}
	if deps.MongoClient != nil {
		logger.Info("disconnecting MongoDB client")
		if err := deps.MongoClient.Disconnect(ctx); err != nil {
			logger.Error("MongoDB disconnect failed", zap.Error(err))
			return err
		}
	}
	return nil
}
