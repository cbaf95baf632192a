package main

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/ledgerkit/statement-ledger/internal/api"
	"github.com/ledgerkit/statement-ledger/internal/config"
	"github.com/ledgerkit/statement-ledger/internal/events/kafka"
	"github.com/ledgerkit/statement-ledger/internal/interfaces"
	"github.com/ledgerkit/statement-ledger/internal/ledger"
	"github.com/ledgerkit/statement-ledger/internal/metrics"
	"github.com/ledgerkit/statement-ledger/internal/models"
	"github.com/ledgerkit/statement-ledger/internal/storage/memory"
	"github.com/ledgerkit/statement-ledger/internal/storage/postgres"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	var (
		store     interfaces.StatementStore
		directory interfaces.AccountDirectory
	)
	if cfg.DatabaseURL != "" {
		db, err := sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			logger.Fatal("open database", zap.Error(err))
		}
		defer db.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			logger.Fatal("ping database", zap.Error(err))
		}
		if err := postgres.EnsureSchema(ctx, db); err != nil {
			logger.Fatal("ensure schema", zap.Error(err))
		}

		store = postgres.NewStore(db)
		directory = postgres.NewAccountDirectory(db)
		logger.Info("using postgres store")
	} else {
		dir := memory.NewAccountDirectory()
		for _, id := range cfg.SeedAccounts {
			dir.Put(models.Account{ID: id, Name: id})
		}
		store = memory.NewStore()
		directory = dir
		logger.Info("using in-memory store, entries are not persisted",
			zap.Int("seeded_accounts", len(cfg.SeedAccounts)))
	}

	var publisher interfaces.EventPublisher
	if len(cfg.KafkaBrokers) > 0 {
		kp := kafka.NewPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		defer kp.Close()
		publisher = kp
		logger.Info("publishing operation events", zap.Strings("brokers", cfg.KafkaBrokers))
	}

	ledgerService := ledger.New(directory, store, publisher, logger)
	handler := api.NewHandler(ledgerService, metrics.NewCollector(), logger)

	logger.Info("starting server", zap.String("addr", cfg.HTTPAddr))
	if err := http.ListenAndServe(cfg.HTTPAddr, handler.Routes()); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}
