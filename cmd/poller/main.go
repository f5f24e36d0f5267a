package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"store-credit-ledger/config"
	kafkaAdapter "store-credit-ledger/internal/adapter/messaging/kafka"
	pgStorage "store-credit-ledger/internal/adapter/storage/postgres"
	"store-credit-ledger/internal/service"
	"store-credit-ledger/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New(cfg.Log.Level, cfg.Log.Pretty)
	log.Info().Msg("Starting outbox poller")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize PostgreSQL pool
	pool, err := pgStorage.NewPool(ctx, cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()
	log.Info().Msg("PostgreSQL connected")

	// Initialize Kafka writer
	writer := kafkaAdapter.NewWriter(cfg.Kafka)
	defer writer.Close()

	outboxRepo := pgStorage.NewOutboxRepo(pool)
	publisher := kafkaAdapter.NewPublisher(writer)

	relay := service.NewOutboxRelay(outboxRepo, publisher, cfg.Outbox, log)
	if err := relay.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal().Err(err).Msg("Outbox relay failed")
	}

	log.Info().Msg("Poller exited")
}
