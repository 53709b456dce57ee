package cmd

import (
	"context"
	"fmt"
	"time"

	"investa/application"
	"investa/config"
	"investa/database"
	"investa/domain/services"
	"investa/infrastructure"
	"investa/infrastructure/observability"
	"investa/server"

	log "github.com/sirupsen/logrus"
)

// ConfigureLogging applies the configured level and picks JSON output in production
func ConfigureLogging(cfg *config.Config) {
	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.WithError(err).Warnf("Unknown log level %q, using info", cfg.LogLevel)
		level = log.InfoLevel
	}
	log.SetLevel(level)

	if cfg.IsProduction() {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
}

// Run initializes and starts the application
func Run(ctx context.Context) error {
	cfg := config.Get()
	ConfigureLogging(cfg)
	log.WithField("environment", cfg.Environment).Info("Starting investa...")

	// Metrics
	metrics := observability.NewMetricsProvider(cfg)
	if err := metrics.Initialize(ctx); err != nil {
		return fmt.Errorf("failed to initialize metrics: %w", err)
	}

	// Database
	log.Info("Connecting to database...")
	db, err := database.NewConnection(ctx, cfg.GetDatabaseURL())
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	log.Info("Database connection established successfully")

	// Event publishing, NATS is optional
	mapper := infrastructure.NewEventSubjectMapper()
	var natsClient *infrastructure.NATSClient
	var messages infrastructure.MessagePublisher
	if cfg.NATSServers != "" {
		natsClient = infrastructure.NewNATSClient(cfg.NATSServers)
		if err := natsClient.Connect(ctx); err != nil {
			db.Close()
			return err
		}
		if err := infrastructure.EnsureDomainEventStream(natsClient, mapper); err != nil {
			natsClient.Close()
			db.Close()
			return err
		}
		messages = natsClient
	} else {
		log.Info("NATS_SERVERS not set, events stay in process")
	}

	publisher := infrastructure.NewEventPublisher(messages, mapper)
	publisher.OnPublished(metrics.RecordNATSPublished)
	application.RegisterSubscriptions(publisher, metrics)

	var notifierClose func() error
	if cfg.DiscordToken != "" && cfg.AdminChannelID != "" {
		session, err := infrastructure.OpenDiscordSession(cfg.DiscordToken)
		if err != nil {
			log.WithError(err).Error("Discord notifications disabled")
		} else {
			infrastructure.NewDiscordNotifier(session, cfg.AdminChannelID).Register(publisher)
			notifierClose = session.Close
			log.WithField("channel", cfg.AdminChannelID).Info("Discord admin notifications enabled")
		}
	}

	// Services
	uowFactory := infrastructure.NewUnitOfWorkFactory(db, publisher)
	locker := services.NewKeyedLocker()
	ledger := services.NewLedgerStore()
	settings := cfg.PlatformSettings()

	investorService := services.NewInvestorService(uowFactory, locker)
	walletService := services.NewWalletService(uowFactory, locker, ledger, settings)
	contractService := services.NewContractService(uowFactory, locker, ledger, cfg.PlatformSettings(), cfg.RefundPolicy())
	approvalService := services.NewApprovalService(uowFactory, locker, ledger, walletService, contractService, settings)

	// Workers
	stopAccrual := application.NewAccrualWorker(contractService).Start(ctx, cfg.AccrualHour)
	stopReminders := application.NewContractReminderWorker(contractService, publisher, cfg.ReminderWindowDays).Start(ctx, cfg.ReminderHour)

	// HTTP
	api := server.New(server.Options{
		Addr:        cfg.HTTPAddr,
		JWTSecret:   cfg.JWTSecret,
		CORSOrigins: cfg.CORSOrigins,
	}, server.Dependencies{
		Gate:      services.NewAccessGate(),
		Investors: investorService,
		Wallet:    walletService,
		Contracts: contractService,
		Approvals: approvalService,
		Metrics:   metrics,
		Health:    db.Healthy,
	})

	serveErr := api.ListenAndServe(ctx)
	if serveErr != nil {
		log.WithError(serveErr).Error("HTTP API stopped")
	}

	// Cleanup resources
	log.Info("Shutting down investa...")
	stopAccrual()
	stopReminders()

	if notifierClose != nil {
		if err := notifierClose(); err != nil {
			log.WithError(err).Warn("Error closing Discord session")
		}
	}
	if natsClient != nil {
		if err := natsClient.Close(); err != nil {
			log.WithError(err).Warn("Error closing NATS connection")
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := metrics.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("Error shutting down metrics")
	}

	log.Info("Closing database connection...")
	db.Close()
	log.Info("Shutdown completed")

	return serveErr
}
