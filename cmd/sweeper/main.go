package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"server/internal/adapter/repo"
	"server/internal/infra"
	"server/internal/ledger"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dbpool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect database")
	}
	defer dbpool.Close()

	runner := infra.NewSQLRunner(dbpool, logger)
	users := repo.NewUserRepository(runner)
	sessions := repo.NewSessionRepository(runner)

	sessionLedger, err := ledger.New(ledger.Options{
		Users:             users,
		Sessions:          sessions,
		Logger:            &logger,
		MinActiveDuration: cfg.SessionMinDuration,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build session ledger")
	}

	logger.Info().
		Dur("interval", cfg.SweepInterval).
		Dur("max_age", cfg.SessionMaxAge).
		Int("batch_size", cfg.SweepBatchSize).
		Msg("sweeper started")

	ticker := time.NewTicker(cfg.SweepInterval)
	defer ticker.Stop()

	sweep(ctx, sessionLedger, cfg, logger)
	for {
		select {
		case <-ctx.Done():
			logger.Info().Msg("sweeper stopped")
			return
		case <-ticker.C:
			sweep(ctx, sessionLedger, cfg, logger)
		}
	}
}

func sweep(ctx context.Context, l *ledger.Ledger, cfg *infra.Config, logger infra.Logger) {
	sweepCtx, cancel := context.WithTimeout(ctx, cfg.SweepInterval)
	defer cancel()

	closed, err := l.SweepExpired(sweepCtx, cfg.SessionMaxAge, cfg.SweepBatchSize)
	if err != nil {
		logger.Error().Err(err).Msg("sweep failed")
		return
	}
	if closed > 0 {
		logger.Info().Int("closed", closed).Msg("auto-ended stale sessions")
	}
}
