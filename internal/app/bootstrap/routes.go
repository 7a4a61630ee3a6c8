// internal/app/bootstrap/routes.go
package bootstrap

import (
	"context"
	"errors"
	"net/http"

	analyticsfeature "github.com/crewdesk/crewdesk/internal/app/features/analytics"
	authfeature "github.com/crewdesk/crewdesk/internal/app/features/auth"
	chatfeature "github.com/crewdesk/crewdesk/internal/app/features/chat"
	healthfeature "github.com/crewdesk/crewdesk/internal/app/features/health"
	logsfeature "github.com/crewdesk/crewdesk/internal/app/features/logs"
	notificationsfeature "github.com/crewdesk/crewdesk/internal/app/features/notifications"
	profilefeature "github.com/crewdesk/crewdesk/internal/app/features/profile"
	tasksfeature "github.com/crewdesk/crewdesk/internal/app/features/tasks"
	teamfeature "github.com/crewdesk/crewdesk/internal/app/features/team"
	templatesfeature "github.com/crewdesk/crewdesk/internal/app/features/templates"
	"github.com/crewdesk/crewdesk/internal/app/realtime"
	activitystore "github.com/crewdesk/crewdesk/internal/app/store/activity"
	companystore "github.com/crewdesk/crewdesk/internal/app/store/companies"
	messagestore "github.com/crewdesk/crewdesk/internal/app/store/messages"
	notificationstore "github.com/crewdesk/crewdesk/internal/app/store/notifications"
	taskfilestore "github.com/crewdesk/crewdesk/internal/app/store/taskfiles"
	taskstore "github.com/crewdesk/crewdesk/internal/app/store/tasks"
	templatestore "github.com/crewdesk/crewdesk/internal/app/store/templates"
	userstore "github.com/crewdesk/crewdesk/internal/app/store/users"
	"github.com/crewdesk/crewdesk/internal/app/system/activitylog"
	sysauth "github.com/crewdesk/crewdesk/internal/app/system/auth"
	"github.com/crewdesk/crewdesk/internal/app/system/mailer"
	"github.com/crewdesk/crewdesk/internal/app/system/notifier"
	"github.com/crewdesk/crewdesk/internal/app/system/outbox"
	"github.com/crewdesk/crewdesk/internal/app/system/storage"
	"github.com/crewdesk/crewdesk/internal/domain/models"
	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// gateLoader adapts the user store to the auth gate's UserLoader, translating
// the driver's not-found sentinel so the gate stays decoupled from Mongo.
type gateLoader struct {
	users *userstore.Store
}

func (l gateLoader) FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	u, err := l.users.GetByID(ctx, id)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, sysauth.ErrUserNotFound
	}
	return u, err
}

// BuildHandler constructs the root HTTP handler for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connection, schema setup, and
// Startup have completed. It wires the shared system services (tokens, auth
// gate, outbox, mailer, realtime hub, blob storage), builds the stores, and
// mounts one subrouter per feature.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	db := deps.MongoDatabase

	tokens, err := sysauth.NewTokenManager(appCfg.JWTSecret, appCfg.TokenTTL, appCfg.LinkTokenTTL)
	if err != nil {
		logger.Error("token manager init failed", zap.Error(err))
		return nil, err
	}

	// The gate reads through the base store; writes go through a store that
	// invalidates the gate's cache, so role changes take effect immediately.
	baseUsers := userstore.New(db)
	gate := sysauth.NewGate(tokens, gateLoader{users: baseUsers}, appCfg.AuthCacheTTL, logger)
	users := baseUsers.WithInvalidator(gate)

	companies := companystore.New(db)
	tasks := taskstore.New(db)
	taskFiles := taskfilestore.New(db)
	messages := messagestore.New(db)
	notifications := notificationstore.New(db)
	taskTemplates := templatestore.New(db)
	activity := activitystore.New(db)

	out := outbox.New(appCfg.OutboxWorkers, logger)
	auditor := activitylog.New(activity, out)
	hub := realtime.NewHub(logger)
	notify := notifier.New(notifications, hub, out, logger)

	mail := mailer.New(mailer.Config{
		Host:     appCfg.MailSMTPHost,
		Port:     appCfg.MailSMTPPort,
		Username: appCfg.MailSMTPUser,
		Password: appCfg.MailSMTPPass,
		From:     appCfg.MailFrom,
		FromName: appCfg.MailFromName,
	}, logger)
	emailTpl := mailer.Templates{BaseURL: appCfg.BaseURL}

	blobs, err := storage.NewLocal(appCfg.StorageLocalPath, appCfg.StorageLocalURL)
	if err != nil {
		logger.Error("blob storage init failed", zap.Error(err))
		return nil, err
	}

	// Keep handles the Shutdown hook must close.
	activeGate = gate
	activeOutbox = out

	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   appCfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check endpoint for load balancers and orchestrators
	r.Mount("/health", healthfeature.Routes(healthfeature.NewHandler(deps.MongoClient, logger)))

	// Stored task attachments
	r.Handle(appCfg.StorageLocalURL+"/*", blobs.Handler())

	// WebSocket endpoint; authenticates via ?token= and joins the company room
	r.Get("/ws", realtime.Handler(gate, hub, logger))

	authHandler := authfeature.NewHandler(users, companies, tokens, mail, emailTpl, out, auditor, logger, appCfg.LinkTokenTTL)
	r.Mount("/api/auth", authfeature.Routes(authHandler, gate))

	profileHandler := profilefeature.NewHandler(users, auditor, logger)
	r.Mount("/api/users", profilefeature.Routes(profileHandler, gate))

	tasksHandler := tasksfeature.NewHandler(tasks, taskFiles, users, blobs, notify, hub, auditor, logger)
	r.Mount("/api/tasks", tasksfeature.Routes(tasksHandler, gate))

	teamHandler := teamfeature.NewHandler(users, tasks, companies, notify, hub, mail, emailTpl, out, auditor, logger)
	r.Mount("/api/team", teamfeature.Routes(teamHandler, gate))

	chatHandler := chatfeature.NewHandler(messages, users, notify, hub, auditor, logger)
	r.Mount("/api/chat", chatfeature.Routes(chatHandler, gate))

	notificationsHandler := notificationsfeature.NewHandler(notifications, users, notify, logger)
	r.Mount("/api/notifications", notificationsfeature.Routes(notificationsHandler, gate))

	templatesHandler := templatesfeature.NewHandler(taskTemplates, tasks, users, notify, auditor, logger)
	r.Mount("/api/templates", templatesfeature.Routes(templatesHandler, gate))

	analyticsHandler := analyticsfeature.NewHandler(tasks, users, logger)
	r.Mount("/api/analytics", analyticsfeature.Routes(analyticsHandler, gate))

	logsHandler := logsfeature.NewHandler(activity, logger)
	r.Mount("/api/logs", logsfeature.Routes(logsHandler, gate))

	return r, nil
}
