package app

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
	"gorm.io/gorm"

	"zlatko/internal/config"
	"zlatko/internal/database"
	"zlatko/internal/events"
	"zlatko/internal/mailbox"
	"zlatko/internal/metrics"
	"zlatko/internal/repository"
	"zlatko/internal/service"
	"zlatko/internal/service/scheduler"
	"zlatko/internal/textgen"
)

// App holds the wired components shared by every command
type App struct {
	Config         *config.Config
	DB             *gorm.DB
	Repo           *repository.Repository
	Bus            *events.Bus
	Metrics        *metrics.Metrics
	OAuth          *oauth2.Config
	Providers      mailbox.Registry
	Sync           *service.SyncService
	Reconciler     *service.Reconciler
	Prospects      *service.ProspectService
	Communications *service.CommunicationService
	Credentials    *service.CredentialService
	Scheduler      *scheduler.Scheduler
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if logLevelFlag != "" {
		cfg.Log.Level = logLevelFlag
	}
	configureLogging(cfg.Log.Level)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func configureLogging(level string) {
	logrus.SetFormatter(&logrus.JSONFormatter{})
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		logrus.Warnf("Unknown log level %q, using info", level)
		lvl = logrus.InfoLevel
	}
	logrus.SetLevel(lvl)
}

// bootstrap loads the configuration and wires the whole pipeline
func bootstrap() (*App, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	db, err := database.InitDatabase(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	forwarder, err := events.NewForwarder(cfg.Events)
	if err != nil {
		return nil, fmt.Errorf("failed to create event forwarder: %w", err)
	}

	generator, err := textgen.New(cfg.AI)
	if err != nil {
		return nil, fmt.Errorf("failed to create text generator: %w", err)
	}
	if generator == nil {
		logrus.Info("Text generation disabled")
	}

	a := &App{
		Config:  cfg,
		DB:      db,
		Repo:    repository.New(db),
		Bus:     events.NewBus(forwarder),
		Metrics: metrics.NewMetrics(prometheus.DefaultRegisterer),
		OAuth:   mailbox.NewOAuthConfig(cfg.Google),
	}
	a.Providers = mailbox.NewRegistry(
		mailbox.NewGmailProvider(a.OAuth),
		mailbox.NewIMAPProvider(a.OAuth, cfg.IMAP),
	)

	importer := service.NewImporter(a.Repo, generator, a.Bus, a.Metrics, cfg.Sync.OutboundAuthor, cfg.Sync.SummaryMaxChars)
	tokens := service.NewTokenManager(a.Repo, a.Metrics)
	exchange := func(ctx context.Context, code string) (*mailbox.Token, error) {
		return mailbox.Exchange(ctx, a.OAuth, code)
	}

	a.Sync = service.NewSyncService(a.Providers, tokens, a.Repo, importer, a.Bus, a.Metrics, cfg.Sync.PageSize)
	a.Reconciler = service.NewReconciler(a.Repo, a.Repo, a.Bus, a.Metrics)
	a.Prospects = service.NewProspectService(a.Repo, generator, a.Bus)
	a.Communications = service.NewCommunicationService(a.Repo, a.Bus)
	a.Credentials = service.NewCredentialService(a.Repo, a.Providers, exchange, a.Bus)
	a.Scheduler = scheduler.New(cfg.Sync, cfg.Reconcile, a.Repo, a.Sync, a.Reconciler)

	return a, nil
}

// userID is the --user flag or the configured default
func (a *App) userID() (string, error) {
	if userFlag != "" {
		return userFlag, nil
	}
	if a.Config.Auth.DefaultUserID != "" {
		return a.Config.Auth.DefaultUserID, nil
	}
	return "", fmt.Errorf("--user is required when auth.default_user_id is not set")
}

// Close releases the event forwarder and the database pool
func (a *App) Close() {
	if err := a.Bus.Close(); err != nil {
		logrus.Errorf("Failed to close event forwarder: %v", err)
	}
	if sqlDB, err := a.DB.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			logrus.Errorf("Failed to close database: %v", err)
		}
	}
}
