package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"

	"chatlog-archive/internal/adapters/repo"
	"chatlog-archive/internal/infra/config"
	"chatlog-archive/internal/infra/db"
	applog "chatlog-archive/internal/infra/log"
	"chatlog-archive/internal/infra/metrics"
	"chatlog-archive/internal/infra/queue"
	"chatlog-archive/internal/usecase/ingest"
)

func main() {
	cfg := config.Load()
	logger := applog.NewLogger(cfg.AppEnv)

	metrics.MustRegister(prometheus.DefaultRegisterer)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metrics.StartServer(ctx, logger.With().Str("component", "metrics").Logger(), cfg.MetricsAddr)

	pool, err := db.Connect(cfg.PGDSN)
	if err != nil {
		logger.Fatal().Err(err).Msg("ingest: нет подключения к БД")
	}
	defer pool.Close()

	if cfg.AMQP.URL == "" {
		logger.Fatal().Msg("ingest: не указан адрес RabbitMQ (AMQP_URL)")
	}
	lines, err := queue.NewAMQPLineQueue(cfg.AMQP.URL, cfg.AMQP.Queue)
	if err != nil {
		logger.Fatal().Err(err).Msg("ingest: не удалось подключиться к очереди")
	}
	defer lines.Close()

	repoAdapter := repo.NewPostgres(pool)
	service, err := ingest.NewService(lines, repoAdapter, repoAdapter, cfg.Ingest.IgnorePrefixes,
		logger.With().Str("component", "ingest").Logger())
	if err != nil {
		logger.Fatal().Err(err).Msg("ingest: некорректная конфигурация")
	}

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal().Err(err).Msg("ingest: приём остановлен с ошибкой")
	}
	logger.Info().Msg("ingest: остановка")
}
