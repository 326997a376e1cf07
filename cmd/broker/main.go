package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"

	"github.com/shake-karrot/kafkabroker/internal/blog"
	"github.com/shake-karrot/kafkabroker/internal/broker"
	"github.com/shake-karrot/kafkabroker/internal/coordinator"
	"github.com/shake-karrot/kafkabroker/internal/domain"
	"github.com/shake-karrot/kafkabroker/internal/storage"
	"github.com/shake-karrot/kafkabroker/internal/telemetry"
)

func main() {
	cfg := broker.DefaultConfig()
	cfg.IncarnationID = uuid.Must(uuid.NewV7()).String()

	logger := blog.NewDefault().With("node_id", cfg.NodeID)

	ctx := context.Background()
	res, err := telemetry.NewResource(ctx, cfg.ClusterID, cfg.IncarnationID)
	if err != nil {
		log.Fatalf("building telemetry resource: %v", err)
	}
	mp, tp := telemetry.NewProviders(res)
	tel, err := telemetry.New(mp, tp)
	if err != nil {
		log.Fatalf("building telemetry instruments: %v", err)
	}

	store := storage.NewStore(storage.DefaultConfig())
	defer store.Close()
	store.RegisterBroker(domain.BrokerInfo{
		NodeID: cfg.NodeID,
		Host:   cfg.AdvertisedHost,
		Port:   cfg.AdvertisedPort,
	})

	coord := coordinator.New()

	brk := broker.NewBroker(cfg, store, coord, tel, logger)

	go func() {
		if err := brk.Start(); err != nil {
			log.Fatalf("broker failed to start: %v", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info().Msg("shutting down broker")
	brk.Stop()
	logger.Info().Msg("broker stopped")
}
