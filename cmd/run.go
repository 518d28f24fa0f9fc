package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"prizedraw/application"
	"prizedraw/config"
	"prizedraw/database"
	"prizedraw/domain/entities"
	"prizedraw/domain/interfaces"
	"prizedraw/domain/services"
	"prizedraw/events"
	"prizedraw/httpapi"
	"prizedraw/infrastructure"
	"prizedraw/infrastructure/observability"
	"prizedraw/infrastructure/oracle"
	"prizedraw/notifier"
	"prizedraw/repository"

	log "github.com/sirupsen/logrus"
)

// Run initializes and starts the draw service
func Run(ctx context.Context) error {
	cfg := config.Get()
	log.SetLevel(cfg.LogLevel)
	log.WithField("environment", cfg.Environment).Info("Starting prize draw service...")

	metrics := observability.NewMetricsProvider(cfg)
	if err := metrics.Initialize(ctx); err != nil {
		return fmt.Errorf("failed to initialize metrics: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := metrics.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Warn("Failed to shut down metrics provider")
		}
	}()

	var db *database.DB
	if cfg.UsesDatabase() {
		log.Info("Connecting to database...")
		var err error
		db, err = database.NewConnection(ctx, cfg.GetDatabaseURL())
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer db.Close()
		log.Info("Database connection established successfully")
	}

	var natsClient *infrastructure.NATSClient
	if cfg.UsesNATS() {
		natsClient = infrastructure.NewNATSClient(cfg.NATSServers, "prizedraw")
		if err := natsClient.Connect(ctx); err != nil {
			return fmt.Errorf("failed to connect to NATS: %w", err)
		}
		defer natsClient.Close()
	}

	bus := events.NewBus()
	publisher, err := buildPublisher(bus, natsClient, metrics)
	if err != nil {
		return err
	}

	drawOracle, closeOracle, err := buildOracle(cfg, natsClient)
	if err != nil {
		return err
	}
	defer closeOracle()

	ledger, err := buildLedger(cfg, db, metrics)
	if err != nil {
		return err
	}

	deps := services.RegistryDeps{
		Rails:         ledger,
		Oracle:        drawOracle,
		Publisher:     publisher,
		OracleTimeout: cfg.OracleTimeout,
	}
	if db != nil {
		deps.Repository = repository.NewLotteryRepository(db, metrics)
	}
	registry := services.NewRegistry(deps)

	if _, err := registry.Restore(ctx); err != nil {
		return fmt.Errorf("failed to restore lotteries: %w", err)
	}
	if cfg.LotteryFile != "" {
		if err := applyLotteryFile(ctx, cfg.LotteryFile, registry, ledger); err != nil {
			return err
		}
	}

	if cfg.DiscordToken != "" {
		session, err := notifier.NewSession(cfg.DiscordToken)
		if err != nil {
			return err
		}
		defer session.Close()
		notifier.NewAnnouncer(session, cfg.DiscordChannelID).Subscribe(bus)
		log.WithField("channelID", cfg.DiscordChannelID).Info("Discord announcements enabled")
	}

	dispatcherDone := application.NewFulfillmentDispatcher(registry, drawOracle).Start(ctx)
	stopWorker := application.NewDrawWorker(registry, nil, cfg.DrawPollInterval).Start(ctx)

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           httpapi.New(registry).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	httpErr := make(chan error, 1)
	go func() {
		log.WithField("addr", cfg.HTTPAddr).Info("HTTP API listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			httpErr <- err
		}
	}()

	health, err := startHealthServer(cfg.GRPCHealthAddr)
	if err != nil {
		return err
	}

	log.WithField("environment", cfg.Environment).Info("Prize draw service is running")
	select {
	case <-ctx.Done():
	case err := <-httpErr:
		log.WithError(err).Error("HTTP API failed")
	}

	log.Info("Shutting down prize draw service...")
	health.Shutdown()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("HTTP API did not shut down cleanly")
	}

	stopWorker()
	select {
	case <-dispatcherDone:
	case <-shutdownCtx.Done():
		log.Warn("Fulfillment dispatcher did not stop before the shutdown timeout")
	}
	bus.Wait()

	log.Info("Shutdown completed")
	return nil
}

// buildPublisher fans events out to the in-process bus and, when configured,
// to NATS. Metrics are recorded for every event.
func buildPublisher(bus *events.Bus, natsClient *infrastructure.NATSClient, metrics *observability.MetricsProvider) (interfaces.EventPublisher, error) {
	var natsPublisher interfaces.EventPublisher
	if natsClient != nil {
		p := infrastructure.NewNATSEventPublisher(natsClient, infrastructure.NewEventSubjectMapper(), "prizedraw")
		if err := p.EnsureLotteryEventStream(); err != nil {
			return nil, fmt.Errorf("failed to ensure lottery event stream: %w", err)
		}
		p.SetRecorder(metrics)
		natsPublisher = p
	}
	return observability.NewMeteringPublisher(infrastructure.NewFanoutPublisher(bus, natsPublisher), metrics), nil
}

func buildOracle(cfg *config.Config, natsClient *infrastructure.NATSClient) (interfaces.RandomnessOracle, func(), error) {
	switch cfg.OracleMode {
	case config.OracleModeNATS:
		o := oracle.NewNATSOracle(natsClient)
		if err := o.Start(); err != nil {
			return nil, nil, fmt.Errorf("failed to start NATS oracle: %w", err)
		}
		log.Info("Using NATS randomness oracle")
		return o, func() {}, nil
	default:
		o := oracle.NewLocalOracle(oracle.CryptoSeed, 0)
		log.Info("Using local randomness oracle")
		return o, o.Close, nil
	}
}

// tokenLedger is a rail factory that can also mint balances
type tokenLedger interface {
	interfaces.RailFactory
	Credit(ctx context.Context, token string, account entities.AccountID, amount int64) error
}

func buildLedger(cfg *config.Config, db *database.DB, metrics *observability.MetricsProvider) (tokenLedger, error) {
	switch cfg.PaymentRail {
	case config.PaymentRailPostgres:
		if db == nil {
			return nil, fmt.Errorf("postgres payment rail requires a database")
		}
		return repository.NewTokenLedger(db, metrics), nil
	default:
		return infrastructure.NewMemoryTokenLedger(), nil
	}
}
