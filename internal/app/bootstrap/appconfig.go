// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// WAFFLE's CoreConfig covers framework-level settings (ports, TLS, logging).
// Everything specific to CrewDesk lives here and is passed to the lifecycle
// hooks that need it.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64 // Max connection pool size
	MongoMinPoolSize uint64 // Min connection pool size

	// Token and auth configuration
	JWTSecret    string        // HMAC secret for signing tokens (must be strong in production)
	TokenTTL     time.Duration // Session token lifetime (default 24h)
	LinkTokenTTL time.Duration // Reset/magic-link token lifetime (default 1h)
	AuthCacheTTL time.Duration // How long the auth gate may serve a cached user record

	// CORS
	CORSOrigins []string // Allowed origins for browser clients

	// Async side-effect dispatch
	OutboxWorkers int // Workers draining the outbox (emails, notifications, audit)

	// File storage configuration
	StorageLocalPath string // Local storage path for task attachments
	StorageLocalURL  string // URL prefix for serving stored files

	// Email/SMTP configuration
	MailSMTPHost string // SMTP server host (blank disables delivery; sends are logged)
	MailSMTPPort int    // SMTP server port
	MailSMTPUser string // SMTP username
	MailSMTPPass string // SMTP password
	MailFrom     string // From email address
	MailFromName string // From display name

	// Base URL for email links (magic links, password reset)
	BaseURL string // e.g., "https://crewdesk.example.com" or "http://localhost:3000"
}
