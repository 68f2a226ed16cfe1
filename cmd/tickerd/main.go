package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/ingmarAvocado/fullon-ticker-service/internal/config"
	"github.com/ingmarAvocado/fullon-ticker-service/internal/credential/envresolver"
	"github.com/ingmarAvocado/fullon-ticker-service/internal/daemon"
	"github.com/ingmarAvocado/fullon-ticker-service/internal/events"
	"github.com/ingmarAvocado/fullon-ticker-service/internal/store/pgconfig"
	"github.com/ingmarAvocado/fullon-ticker-service/internal/store/rediskv"
	"github.com/ingmarAvocado/fullon-ticker-service/internal/wsadapter"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "Path to config file")
	flag.Parse()

	logger, _ := zap.NewProduction()
	defer logger.Sync()
	sugar := logger.Sugar()

	sugar.Info("🛰️  Starting ticker daemon...")

	cfg, err := config.Load(*configPath)
	if err != nil {
		sugar.Fatalf("❌ failed to load config: %v", err)
	}

	ctx := context.Background()

	pgStore, err := pgconfig.Open(ctx, cfg.Postgres.DSN)
	if err != nil {
		sugar.Fatalf("❌ failed to connect to postgres: %v", err)
	}
	defer pgStore.Close()

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer rdb.Close()

	tickers := rediskv.NewTickerStore(rdb, "ticker:latest")
	registry := rediskv.NewProcessRegistry(rdb, "process")

	endpoints := make(map[string]wsadapter.Endpoint, len(cfg.Exchanges.Endpoints))
	exchangeNames := make(map[int]string)
	for name, ep := range cfg.Exchanges.Endpoints {
		endpoints[name] = wsadapter.Endpoint{BaseURL: ep.BaseURL, StreamSuffix: ep.StreamSuffix}
	}

	symbols, err := pgStore.ListAllSymbols(ctx)
	if err != nil {
		sugar.Fatalf("❌ failed to load configured symbols: %v", err)
	}
	for _, ref := range symbols {
		exchangeNames[ref.ExchangeID] = ref.ExchangeName
	}

	factory := wsadapter.NewFactory(endpoints, wsadapter.Config{
		HandshakeTimeout:  cfg.Exchanges.WebSocket.HandshakeTimeout,
		ReconnectDelay:    cfg.Exchanges.WebSocket.ReconnectDelay,
		MaxReconnectDelay: cfg.Exchanges.WebSocket.MaxReconnectDelay,
	}, sugar)

	resolver := envresolver.New(exchangeNames)

	var notifier events.Notifier = events.NoopNotifier{}
	nc, err := nats.Connect(cfg.NATS.URL,
		nats.Name("fullon-ticker-service"),
		nats.ReconnectWait(cfg.NATS.ReconnectWait),
		nats.MaxReconnects(cfg.NATS.MaxReconnects),
	)
	if err != nil {
		sugar.Warnf("⚠️  failed to connect to NATS, lifecycle events disabled: %v", err)
	} else {
		defer nc.Close()
		notifier = events.NewPublisher(nc, sugar)
		sugar.Info("✅ connected to NATS")
	}

	d := daemon.New(daemon.Deps{
		Config:          pgStore,
		Adapters:        factory,
		Resolver:        resolver,
		Tickers:         tickers,
		Registry:        registry,
		GateWindow:      cfg.Daemon.ReconnectWindow(),
		ShutdownTimeout: cfg.Daemon.ShutdownTimeout(),
		Logger:          sugar,
		Events:          notifier,
	})

	if err := d.Start(ctx); err != nil {
		sugar.Fatalf("❌ failed to start ticker daemon: %v", err)
	}
	sugar.Info("✅ ticker daemon running")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	sugar.Info("🛑 shutting down ticker daemon...")
	if err := d.Stop(ctx); err != nil {
		sugar.Warnf("⚠️  shutdown reported errors: %v", err)
	}
}
