// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"
	"strings"
	"time"

	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

const devJWTSecret = "dev-only-change-me-please-0123456789ABCDEF"

// appConfigKeys defines the configuration keys for CrewDesk, loaded through
// WAFFLE's config system: config files, CREWDESK_* environment variables, and
// command-line flags, merged with precedence flags > env > files > defaults.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "crewdesk", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size"},

	// Tokens and auth
	{Name: "jwt_secret", Default: devJWTSecret, Desc: "HMAC secret for signing tokens (must be strong in production)"},
	{Name: "token_ttl", Default: "24h", Desc: "Session token lifetime"},
	{Name: "link_token_ttl", Default: "1h", Desc: "Password-reset and magic-link token lifetime"},
	{Name: "auth_cache_ttl", Default: "5m", Desc: "Auth gate user-record cache TTL"},

	// CORS
	{Name: "cors_origins", Default: "*", Desc: "Comma-separated list of allowed CORS origins"},

	// Async dispatch
	{Name: "outbox_workers", Default: 4, Desc: "Workers draining the async outbox"},

	// File storage
	{Name: "storage_local_path", Default: "./uploads/attachments", Desc: "Local storage path for task attachments"},
	{Name: "storage_local_url", Default: "/files", Desc: "URL prefix for serving stored files"},

	// Email/SMTP
	{Name: "mail_smtp_host", Default: "", Desc: "SMTP server host (blank disables delivery)"},
	{Name: "mail_smtp_port", Default: 1025, Desc: "SMTP server port"},
	{Name: "mail_smtp_user", Default: "", Desc: "SMTP username"},
	{Name: "mail_smtp_pass", Default: "", Desc: "SMTP password"},
	{Name: "mail_from", Default: "noreply@crewdesk.local", Desc: "From email address"},
	{Name: "mail_from_name", Default: "CrewDesk", Desc: "From display name"},

	// Base URL for email links
	{Name: "base_url", Default: "http://localhost:3000", Desc: "Base URL for email links"},
}

// LoadConfig loads WAFFLE core config and app-specific config. It runs early
// in startup so both layers are available before any backends are built.
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "CREWDESK", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),

		JWTSecret:    appValues.String("jwt_secret"),
		TokenTTL:     appValues.Duration("token_ttl", 24*time.Hour),
		LinkTokenTTL: appValues.Duration("link_token_ttl", time.Hour),
		AuthCacheTTL: appValues.Duration("auth_cache_ttl", 5*time.Minute),

		CORSOrigins: splitOrigins(appValues.String("cors_origins")),

		OutboxWorkers: appValues.Int("outbox_workers"),

		StorageLocalPath: appValues.String("storage_local_path"),
		StorageLocalURL:  appValues.String("storage_local_url"),

		MailSMTPHost: appValues.String("mail_smtp_host"),
		MailSMTPPort: appValues.Int("mail_smtp_port"),
		MailSMTPUser: appValues.String("mail_smtp_user"),
		MailSMTPPass: appValues.String("mail_smtp_pass"),
		MailFrom:     appValues.String("mail_from"),
		MailFromName: appValues.String("mail_from_name"),

		BaseURL: appValues.String("base_url"),
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig enforces invariants that should abort startup, before any
// connection attempt. Development defaults are fine outside prod.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}
	if appCfg.OutboxWorkers < 1 {
		return fmt.Errorf("outbox_workers must be at least 1, got %d", appCfg.OutboxWorkers)
	}

	if coreCfg.Env == "prod" {
		if appCfg.JWTSecret == devJWTSecret || len(appCfg.JWTSecret) < 32 {
			return fmt.Errorf("jwt_secret must be set to a strong value (32+ chars) in production")
		}
		if appCfg.MailSMTPHost == "" {
			return fmt.Errorf("mail_smtp_host must be set in production")
		}
		if appCfg.BaseURL == "" {
			return fmt.Errorf("base_url must be set in production")
		}
	}

	return nil
}

func splitOrigins(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
