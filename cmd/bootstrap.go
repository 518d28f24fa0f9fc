package cmd

import (
	"context"
	"fmt"

	"prizedraw/config"
	"prizedraw/database"
	"prizedraw/domain/entities"
	"prizedraw/domain/services"
	"prizedraw/infrastructure/oracle"
	"prizedraw/repository"

	log "github.com/sirupsen/logrus"
)

// lotteryCreator is the registry surface the bootstrap file needs
type lotteryCreator interface {
	Create(ctx context.Context, creator entities.AccountID, cfg entities.LotteryConfig) (entities.LotteryID, error)
}

// applyLotteryFile credits the listed accounts and creates the listed lotteries
func applyLotteryFile(ctx context.Context, path string, lotteries lotteryCreator, ledger tokenLedger) error {
	file, err := config.LoadLotteryFile(path)
	if err != nil {
		return err
	}

	for _, grant := range file.Accounts {
		if err := ledger.Credit(ctx, grant.Token, entities.AccountID(grant.Account), grant.Amount); err != nil {
			return fmt.Errorf("failed to credit %s: %w", grant.Account, err)
		}
	}

	for _, seed := range file.Lotteries {
		id, err := lotteries.Create(ctx, entities.AccountID(seed.Creator), seed.Config)
		if err != nil {
			return fmt.Errorf("failed to create lottery for %s: %w", seed.Creator, err)
		}
		log.WithFields(log.Fields{
			"lotteryID": id,
			"creator":   seed.Creator,
		}).Info("Created lottery from file")
	}

	log.WithFields(log.Fields{
		"accounts":  len(file.Accounts),
		"lotteries": len(file.Lotteries),
	}).Info("Applied lottery file")
	return nil
}

// CreateLotteries applies a lottery file against the database and exits. It
// needs persistence, since an in-memory registry would vanish with the process.
func CreateLotteries(ctx context.Context, path string) error {
	cfg := config.Get()
	if !cfg.UsesDatabase() {
		return fmt.Errorf("DATABASE_URL is required to create lotteries offline")
	}

	db, err := database.NewConnection(ctx, cfg.GetDatabaseURL())
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	registry := services.NewRegistry(services.RegistryDeps{
		Rails:      repository.NewTokenLedger(db, nil),
		Oracle:     oracle.NewLocalOracle(oracle.CryptoSeed, 0),
		Repository: repository.NewLotteryRepository(db, nil),
	})
	return applyLotteryFile(ctx, path, registry, repository.NewTokenLedger(db, nil))
}
