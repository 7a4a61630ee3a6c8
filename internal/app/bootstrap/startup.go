// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"

	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// Runtime handles created in BuildHandler that the Shutdown hook must close.
var (
	activeGate   interface{ Close() }
	activeOutbox interface{ Close() }
)

// Startup runs one-time application initialization after the DB connection
// and schema setup, before the HTTP handler is built.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if appCfg.MailSMTPHost == "" {
		logger.Warn("SMTP not configured; outbound email will be logged and skipped")
	}
	return nil
}
