// Command seed loads the demo sellers, buyers, products and orders.
//
//	seed              # all steps
//	seed -step orders # one step: sellers, buyers, products or orders
package main

import (
	"context"
	"flag"
	"github.com/ariefcatur/shopapp/internal/config"
	"github.com/ariefcatur/shopapp/internal/logging"
	"github.com/ariefcatur/shopapp/internal/postgres"
	"github.com/ariefcatur/shopapp/internal/seed"
	"github.com/ariefcatur/shopapp/internal/shop"
	"go.uber.org/zap"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	step := flag.String("step", "all", "seed step: all, sellers, buyers, products, orders")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		zap.NewExample().Fatal("config", zap.Error(err))
	}
	log := logging.New(cfg.LogLevel, cfg.LogFormat).Named("seed")
	defer func() { _ = log.Sync() }()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

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

	repo := &shop.Repo{DB: db}
	s := &seed.Seeder{Store: repo, Log: log}

	switch *step {
	case "all":
		err = s.Run(ctx)
	case "sellers":
		_, err = s.AddSellers(ctx)
	case "buyers":
		_, err = s.AddBuyers(ctx)
	case "products":
		var sellers []shop.Seller
		if sellers, err = repo.ListSellers(ctx); err == nil {
			_, err = s.AddProducts(ctx, sellers)
		}
	case "orders":
		_, err = s.AddOrders(ctx)
	default:
		log.Fatal("unknown step", zap.String("step", *step))
	}
	if err != nil {
		log.Fatal("seed failed", zap.String("step", *step), zap.Error(err))
	}
	log.Info("seed done", zap.String("step", *step))
}
