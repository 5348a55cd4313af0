package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/onebank/atm-terminal/internal/api"
	"github.com/onebank/atm-terminal/internal/core/service"
	"github.com/onebank/atm-terminal/internal/infrastructure/config"
	redisdb "github.com/onebank/atm-terminal/internal/infrastructure/db/redis"
	"github.com/onebank/atm-terminal/internal/infrastructure/loader"
	"github.com/onebank/atm-terminal/internal/infrastructure/memory"
	"github.com/onebank/atm-terminal/pkg/logger"
)

func main() {
	cfg := config.Load()
	log := logger.Init(logger.Options{
		Level:  cfg.LogLevel,
		Pretty: cfg.Env == "development",
	})

	ledger := memory.NewLedger()
	count, err := loader.LoadCustomers(cfg.CustomersFile, ledger)
	if err != nil {
		log.Fatal().Err(err).Str("file", cfg.CustomersFile).Msg("failed to load customer file")
	}
	log.Info().Int("customers", count).Str("file", cfg.CustomersFile).Msg("ledger populated")

	ctx := context.Background()

	var rdb *redis.Client
	rdb, err = redisdb.Connect(ctx, redisdb.Config{Addr: cfg.Redis.Addr, DB: cfg.Redis.DB})
	if err != nil {
		// The replay guard is protective, not load-bearing; start without it.
		log.Warn().Err(err).Msg("redis unavailable, idempotency replay guard disabled")
		rdb = nil
	}

	terminal := service.NewTerminalService(ledger, cfg.JWTSecret, cfg.TokenTTL, log)
	e := api.NewRouter(terminal, rdb, cfg.JWTSecret, log)

	go func() {
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server stopped")
		}
	}()
	log.Info().Str("port", cfg.Port).Msg("terminal API listening")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
	if rdb != nil {
		_ = rdb.Close()
	}
}
