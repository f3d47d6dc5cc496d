package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/darrengowling/joeyjones-sub001/go/internal/auction/api"
	auctionrepo "github.com/darrengowling/joeyjones-sub001/go/internal/auction/auction"
	"github.com/darrengowling/joeyjones-sub001/go/internal/auction/bid"
	"github.com/darrengowling/joeyjones-sub001/go/internal/auction/engine"
	"github.com/darrengowling/joeyjones-sub001/go/internal/auction/gateway"
	"github.com/darrengowling/joeyjones-sub001/go/internal/auction/outbox"
	"github.com/darrengowling/joeyjones-sub001/go/internal/leagues"
)

type Services struct {
	Leagues      *leagues.App
	Auctions     *auctionrepo.App
	Bids         *bid.Repository
	Engine       *engine.Engine
	Publisher    *outbox.NATSPublisher
	OutboxWorker *outbox.Worker
	Gateway      *gateway.Service
	API          *api.Handler
}

func setupServices(ctx context.Context, database *sql.DB, config *Config) (*Services, error) {
	// Wire up dependency injection chain
	// Database layer → Repository layer → App layer → Engine/Gateway layer

	// Leagues
	leaguesRepo := leagues.NewRepository(database)
	leaguesApp := leagues.NewApp(leaguesRepo)

	// Auctions
	auctionRepo := auctionrepo.NewRepository(database)
	auctionApp := auctionrepo.NewApp(auctionRepo, leaguesApp)
	bidRepo := bid.NewRepository(database)

	// Event bus
	natsConfig := outbox.DefaultNATSConfig()
	natsConfig.URL = getEnv("NATS_URL", natsConfig.URL)
	if config.NATS.URL != "" {
		natsConfig.URL = config.NATS.URL
	}
	publisher, err := outbox.NewNATSPublisher(ctx, natsConfig)
	if err != nil {
		return nil, fmt.Errorf("create NATS publisher: %w", err)
	}

	// Outbox
	outboxRepo := outbox.NewRepository(database)
	workerConfig := outbox.DefaultConfig()
	workerConfig.PollInterval = config.outboxPollInterval()
	workerConfig.BatchSize = int32(getEnvAsInt("OUTBOX_BATCH_SIZE", config.Outbox.BatchSize))
	worker := outbox.NewWorker(database, outboxRepo, publisher, workerConfig,
		slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	// Engine
	emitter := outbox.NewEmitter(outboxRepo, publisher)
	engineConfig := engine.Config{TickInterval: config.tickInterval()}
	auctionEngine := engine.NewEngine(auctionRepo, leaguesApp, emitter,
		clockwork.NewRealClock(), engineConfig, log.Logger)

	// Gateway
	gatewayConfig := gateway.DefaultConfig()
	gatewayConfig.JetStreamConfig.URL = natsConfig.URL
	auctionGateway, err := gateway.NewService(gatewayConfig)
	if err != nil {
		return nil, fmt.Errorf("create gateway: %w", err)
	}

	return &Services{
		Leagues:      leaguesApp,
		Auctions:     auctionApp,
		Bids:         bidRepo,
		Engine:       auctionEngine,
		Publisher:    publisher,
		OutboxWorker: worker,
		Gateway:      auctionGateway,
		API:          api.NewHandler(auctionApp, leaguesApp, bidRepo, auctionEngine),
	}, nil
}
