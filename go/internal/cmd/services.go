package main

import (
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jonboulle/clockwork"

	"github.com/mcdev12/gavel/go/internal/auction"
	"github.com/mcdev12/gavel/go/internal/auction/broadcast"
	"github.com/mcdev12/gavel/go/internal/auction/engine"
	"github.com/mcdev12/gavel/go/internal/auction/gateway"
	"github.com/mcdev12/gavel/go/internal/catalog"
	"github.com/mcdev12/gavel/go/internal/groups"
)

type Services struct {
	Engine    *engine.Engine
	Auction   *auction.Service
	Groups    *groups.Service
	Gateway   *gateway.Handler
	Publisher *broadcast.Publisher
	Consumer  *gateway.EventConsumer
	Manager   *gateway.ConnectionManager
}

func setupServices(pool *pgxpool.Pool, cfg *Config) (*Services, error) {
	// Wire up dependency injection chain
	// Database layer → Repository layer → App layer → Engine/Service layer

	natsURL := getEnv("NATS_URL", "nats://localhost:4222")

	// Groups
	groupRepo := groups.NewRepository(pool)
	groupApp := groups.NewApp(groupRepo)

	// Catalog
	catalogRepo := catalog.NewRepository(pool)
	catalogApp := catalog.NewApp(catalogRepo)

	// Auction store
	auctionRepo := auction.NewRepository(pool)
	auctionApp := auction.NewApp(auctionRepo)

	// Room event fanout
	pubCfg := broadcast.DefaultConfig()
	pubCfg.URL = natsURL
	publisher, err := broadcast.NewPublisher(pubCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create event publisher: %w", err)
	}

	// Engine
	eng := engine.New(
		auctionApp,
		groupApp,
		catalogApp,
		publisher,
		clockwork.NewRealClock(),
		engine.NewRuntimeRegistry(),
		engineConfig(cfg),
	)

	// WebSocket gateway
	manager := gateway.NewConnectionManager(gateway.DefaultConnectionConfig())
	consumerCfg := gateway.DefaultConsumerConfig()
	consumerCfg.URL = natsURL
	consumer, err := gateway.NewEventConsumer(manager, consumerCfg)
	if err != nil {
		publisher.Close()
		return nil, fmt.Errorf("failed to create event consumer: %w", err)
	}

	return &Services{
		Engine:    eng,
		Auction:   auction.NewService(eng, auctionApp),
		Groups:    groups.NewService(groupApp),
		Gateway:   gateway.NewHandler(manager),
		Publisher: publisher,
		Consumer:  consumer,
		Manager:   manager,
	}, nil
}
