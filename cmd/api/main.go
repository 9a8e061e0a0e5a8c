package main

import (
	"context"
	"errors"
	"github.com/ariefcatur/shopapp/internal/config"
	"github.com/ariefcatur/shopapp/internal/httpx"
	kafkax "github.com/ariefcatur/shopapp/internal/kafka"
	"github.com/ariefcatur/shopapp/internal/logging"
	"github.com/ariefcatur/shopapp/internal/postgres"
	"github.com/ariefcatur/shopapp/internal/redisx"
	"github.com/ariefcatur/shopapp/internal/shop"
	"go.uber.org/zap"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// logger config is part of cfg, so this one goes to a default logger
		zap.NewExample().Fatal("config", zap.Error(err))
	}
	log := logging.New(cfg.LogLevel, cfg.LogFormat).With(zap.String("service", cfg.ServiceName))
	defer func() { _ = log.Sync() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// DB
	db, err := postgres.Connect(ctx, postgres.Options{
		DSN:              cfg.PostgresDSN,
		MaxConns:         cfg.DBMaxConns,
		MinConns:         cfg.DBMinConns,
		StatementTimeout: cfg.StatementTimeout,
	})
	if err != nil {
		log.Fatal("db connect", zap.Error(err))
	}
	defer db.Close()

	if cfg.AutoMigrate {
		if err := postgres.Migrate(db, log); err != nil {
			log.Fatal("migrate", zap.Error(err))
		}
	}

	oh := &httpx.ShopHandler{
		Store: &shop.Repo{DB: db},
		Log:   log,
	}

	// Redis
	if cfg.RedisAddr != "" {
		rdb := redisx.New(cfg.RedisAddr)
		defer rdb.Close()
		if err := redisx.Ping(ctx, rdb); err != nil {
			log.Warn("redis unreachable, order cache calls will fail over to the db", zap.Error(err))
		}
		oh.Cache = redisx.NewOrderCache(rdb, cfg.OrderCacheTTL)
	}

	// Kafka producer
	var prod *kafkax.Producer
	if len(cfg.KafkaBrokers) > 0 {
		prod = kafkax.NewProducer(cfg.KafkaBrokers, shop.TopicOrderCreated, 1024, log.Named("kafka"))
		prod.Start()
		oh.Events = &kafkax.OrderEvents{Producer: prod, Service: cfg.ServiceName}
	}

	router := httpx.NewRouter(log.Named("http"), db)
	oh.Register(router)

	// HTTP server
	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		log.Info("HTTP listening", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("listen", zap.Error(err))
		}
	}()

	// wait signal
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Info("shutting down")

	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	if err := srv.Shutdown(ctx2); err != nil {
		log.Warn("http shutdown", zap.Error(err))
	}
	if prod != nil {
		prod.Close() // flush queued events
		prod.WaitClosed()
	}
}
