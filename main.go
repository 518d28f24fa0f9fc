package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"prizedraw/cmd"
	"prizedraw/database"

	log "github.com/sirupsen/logrus"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "migrate" {
		if err := handleMigrationCommand(); err != nil {
			log.Fatal("Migration error: ", err)
		}
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Info("Received shutdown signal, shutting down gracefully...")
		cancel()
	}()

	var err error
	switch {
	case len(os.Args) > 1 && os.Args[1] == "oracle-responder":
		err = cmd.RunOracleResponder(ctx)
	case len(os.Args) > 1 && os.Args[1] == "create-lottery":
		if len(os.Args) < 3 {
			log.Fatal("usage: prizedraw create-lottery <file.yaml>")
		}
		err = cmd.CreateLotteries(ctx, os.Args[2])
	case len(os.Args) > 1:
		err = fmt.Errorf("unknown command: %s", os.Args[1])
	default:
		err = cmd.Run(ctx)
	}
	if err != nil {
		log.Fatal("Application error: ", err)
	}
}

func handleMigrationCommand() error {
	if len(os.Args) < 3 {
		return fmt.Errorf("usage: prizedraw migrate [up|down|status] [args...]")
	}

	command := os.Args[2]
	switch command {
	case "up":
		return database.MigrateUp()
	case "down":
		steps := "1"
		if len(os.Args) > 3 {
			steps = os.Args[3]
		}
		return database.MigrateDown(steps)
	case "status":
		return database.MigrateStatus()
	default:
		return fmt.Errorf("unknown migration command: %s", command)
	}
}
