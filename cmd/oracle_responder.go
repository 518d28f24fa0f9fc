package cmd

import (
	"context"
	"fmt"

	"prizedraw/config"
	"prizedraw/infrastructure"
	"prizedraw/infrastructure/oracle"

	log "github.com/sirupsen/logrus"
)

// RunOracleResponder answers randomness requests published on NATS until ctx
// is cancelled
func RunOracleResponder(ctx context.Context) error {
	cfg := config.Get()
	log.SetLevel(cfg.LogLevel)
	if !cfg.UsesNATS() {
		return fmt.Errorf("NATS_SERVERS is required for the oracle responder")
	}

	client := infrastructure.NewNATSClient(cfg.NATSServers, "prizedraw-oracle")
	if err := client.Connect(ctx); err != nil {
		return fmt.Errorf("failed to connect to NATS: %w", err)
	}
	defer client.Close()

	if err := oracle.EnsureStream(client); err != nil {
		return fmt.Errorf("failed to ensure oracle stream: %w", err)
	}
	if err := oracle.NewResponder(client, oracle.CryptoSeed).Start(); err != nil {
		return fmt.Errorf("failed to start oracle responder: %w", err)
	}

	log.Info("Randomness oracle responder is running")
	<-ctx.Done()
	log.Info("Randomness oracle responder shutting down...")
	return nil
}
