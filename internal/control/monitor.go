// Package control wires the deposit monitor together and manages its
// lifecycle.
package control

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/custodia-labs/depositwatch/internal/core/config"
	"github.com/custodia-labs/depositwatch/internal/core/domain"
	"github.com/custodia-labs/depositwatch/internal/core/token"
	"github.com/custodia-labs/depositwatch/internal/infra/chain/bitcoin"
	"github.com/custodia-labs/depositwatch/internal/infra/chain/evm"
	"github.com/custodia-labs/depositwatch/internal/infra/chain/tron"
	"github.com/custodia-labs/depositwatch/internal/infra/notify"
	"github.com/custodia-labs/depositwatch/internal/infra/pending"
	redisclient "github.com/custodia-labs/depositwatch/internal/infra/redis"
	"github.com/custodia-labs/depositwatch/internal/infra/rpc"
	"github.com/custodia-labs/depositwatch/internal/infra/storage"
	"github.com/custodia-labs/depositwatch/internal/infra/storage/memory"
	"github.com/custodia-labs/depositwatch/internal/infra/storage/postgres"
	"github.com/custodia-labs/depositwatch/internal/monitor/health"
	"github.com/custodia-labs/depositwatch/internal/monitor/locks"
	"github.com/custodia-labs/depositwatch/internal/monitor/ratelimit"
	"github.com/custodia-labs/depositwatch/internal/monitor/registry"
	"github.com/custodia-labs/depositwatch/internal/monitor/scheduler"
	"github.com/custodia-labs/depositwatch/internal/monitor/sweep"
)

// Monitor is the main application struct that manages the pipeline lifecycle.
type Monitor struct {
	cfg          config.AppConfig
	registry     *registry.Registry
	scheduler    *scheduler.Scheduler
	sweeper      *sweep.Sweeper
	healthMon    *health.Monitor
	healthServer *health.Server
	gateway      notify.Gateway
	db           *postgres.DB
	redisClient  *redisclient.Client
	rpcClients   map[domain.ChainID]*rpc.Client
	log          *slog.Logger
}

// NewMonitor creates a Monitor with all dependencies initialized. Storage,
// pending store and broadcast backends fall back to in-process
// implementations when their endpoints are not configured, so a bare binary
// still runs end to end.
func NewMonitor(cfg config.AppConfig) (*Monitor, error) {
	// 1. Storage
	var (
		wallets       storage.WalletRepository
		ledger        storage.LedgerRepository
		notifications storage.NotificationRepository
		db            *postgres.DB
	)
	if cfg.Database.URL != "" {
		var err error
		db, err = postgres.NewDB(context.Background(), cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("database init: %w", err)
		}
		if err := db.Migrate("migrations"); err != nil {
			return nil, fmt.Errorf("migrations: %w", err)
		}
		wallets = postgres.NewWalletRepo(db)
		ledger = postgres.NewLedgerRepo(db)
		notifications = postgres.NewNotificationRepo(db)
	} else {
		slog.Warn("No database configured, using in-memory storage")
		store := memory.NewMemoryStorage()
		wallets = memory.NewWalletRepo(store)
		ledger = memory.NewLedgerRepo(store)
		notifications = memory.NewNotificationRepo(store)
	}

	// 2. Pending store
	var (
		pendingStore pending.Store
		redisClient  *redisclient.Client
	)
	if cfg.Redis.URL != "" {
		var err error
		redisClient, err = redisclient.NewClient(cfg.Redis)
		if err != nil {
			return nil, fmt.Errorf("redis init: %w", err)
		}
		pendingStore = pending.NewRedisStore(redisClient)
	} else {
		slog.Warn("No Redis configured, pending deposits will not survive restarts")
		pendingStore = pending.NewMemoryStore()
	}

	// 3. Notification gateway
	var gateway notify.Gateway
	if cfg.NATS.URL != "" {
		var err error
		gateway, err = notify.NewNATSGateway(cfg.NATS, notifications)
		if err != nil {
			return nil, fmt.Errorf("nats init: %w", err)
		}
	} else {
		slog.Warn("No NATS configured, deposit events will be logged only")
		gateway = notify.NewLogGateway(notifications)
	}

	// 4. Token registry and rate limiter from chain config
	tokens := token.NewStaticRegistry()
	limiter := ratelimit.NewLimiter(cfg.Monitor.APICallThreshold)
	for _, chainCfg := range cfg.Chains {
		needsExplorer := chainCfg.Explorer.URL != ""
		if !needsExplorer {
			// Explorer-free chains are watched through a self-hosted node
			// and carry no external call budget. The exemption takes effect
			// once a node-backed adapter is registered on the sweeper; until
			// then the chain is configured but not watchable.
			limiter.Exempt(chainCfg.ID)
		}
		for _, currency := range chainCfg.Currencies {
			tokens.Register(chainCfg.ID, token.Info{
				Symbol:        currency.Symbol,
				Class:         currency.Class,
				Contract:      currency.Contract,
				NeedsExplorer: needsExplorer,
			})
		}
	}

	// 5. Sweeper with one fetch adapter per configured chain
	sweeper := sweep.New(
		sweep.Config{FetchTimeout: cfg.Monitor.FetchTimeout},
		ledger, pendingStore, gateway, locks.NewManager(), limiter,
	)
	rpcClients := make(map[domain.ChainID]*rpc.Client)
	for _, chainCfg := range cfg.Chains {
		if chainCfg.Explorer.URL == "" {
			slog.Warn("Chain has no explorer endpoint, not watchable yet", "chain", chainCfg.ID)
			continue
		}
		client := rpc.NewClient(chainCfg.Explorer.Name, chainCfg.Explorer.URL, cfg.Monitor.FetchTimeout)
		rpcClients[chainCfg.ID] = client

		switch {
		case chainCfg.ID == domain.ChainTron:
			sweeper.RegisterAdapter(tron.NewAdapter(client))
		case chainCfg.Model == domain.ModelAccount:
			sweeper.RegisterAdapter(evm.NewAdapter(chainCfg.ID, client, chainCfg.RequiredConfirmations))
		case chainCfg.Model == domain.ModelUTXO:
			currency := nativeCurrency(chainCfg)
			sweeper.RegisterAdapter(bitcoin.NewAdapter(chainCfg.ID, currency, client, chainCfg.RequiredConfirmations))
		default:
			return nil, fmt.Errorf("no adapter for chain %s (model %s)", chainCfg.ID, chainCfg.Model)
		}
	}

	// 6. Registry built from custodial wallets; malformed input fails here,
	// before any timer starts.
	reg := registry.New(wallets, tokens)
	if err := reg.Rebuild(context.Background()); err != nil {
		return nil, fmt.Errorf("registry build: %w", err)
	}

	// 7. Health monitor and server
	cadences := make(map[domain.ChainID]time.Duration)
	for _, chainID := range reg.Chains() {
		if reg.HasContractTokens(chainID) {
			cadences[chainID] = cfg.Monitor.FastCadence
		} else {
			cadences[chainID] = cfg.Monitor.SlowCadence
		}
	}
	healthMon := health.NewMonitor(cadences, reg, pendingStore, limiter)
	sweeper.SetSweepHook(healthMon.RecordSweep)
	for chainID, client := range rpcClients {
		healthMon.TrackExplorer(chainID, client)
	}

	return &Monitor{
		cfg:          cfg,
		registry:     reg,
		scheduler:    scheduler.New(cfg.Monitor.FastCadence, cfg.Monitor.SlowCadence, reg, sweeper, limiter),
		sweeper:      sweeper,
		healthMon:    healthMon,
		healthServer: health.NewServer(healthMon, cfg.Server.Port),
		gateway:      gateway,
		db:           db,
		redisClient:  redisClient,
		rpcClients:   rpcClients,
		log:          slog.Default(),
	}, nil
}

// nativeCurrency picks the chain's native symbol for UTXO adapters.
func nativeCurrency(chainCfg config.ChainConfig) string {
	for _, currency := range chainCfg.Currencies {
		if currency.Class == domain.ClassNative {
			return currency.Symbol
		}
	}
	if len(chainCfg.Currencies) > 0 {
		return chainCfg.Currencies[0].Symbol
	}
	return ""
}

// Start launches the health server, DB metrics collector and the scheduler.
func (m *Monitor) Start(ctx context.Context) error {
	go func() {
		if err := m.healthServer.Start(); err != nil && err != http.ErrServerClosed {
			m.log.Error("Health server failed", "error", err)
		}
	}()

	if m.db != nil {
		m.db.StartMetricsCollector(ctx)
	}

	if !m.cfg.Monitor.Enabled {
		m.log.Warn("Deposit monitor disabled by config, serving health only")
		return nil
	}

	m.scheduler.Start(ctx)
	m.log.Info("Deposit monitor started", "chains", len(m.registry.Chains()))
	return nil
}

// Stop shuts everything down, draining any in-flight sweep first.
func (m *Monitor) Stop(ctx context.Context) error {
	m.log.Info("Stopping deposit monitor...")

	if m.cfg.Monitor.Enabled {
		m.scheduler.Stop()
	}

	if err := m.gateway.Close(); err != nil {
		m.log.Warn("Failed to close notification gateway", "error", err)
	}
	if m.redisClient != nil {
		if err := m.redisClient.Close(); err != nil {
			m.log.Warn("Failed to close Redis", "error", err)
		}
	}
	for _, client := range m.rpcClients {
		client.Close()
	}
	if m.db != nil {
		if err := m.db.Close(); err != nil {
			m.log.Warn("Failed to close database", "error", err)
		}
	}

	return m.healthServer.Stop(ctx)
}
