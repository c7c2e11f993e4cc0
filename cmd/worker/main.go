package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/Hitansu2004/AI-TryOn-Studio/internal/adapter/repo"
	"github.com/Hitansu2004/AI-TryOn-Studio/internal/bus"
	"github.com/Hitansu2004/AI-TryOn-Studio/internal/domain"
	"github.com/Hitansu2004/AI-TryOn-Studio/internal/infra"
	"github.com/Hitansu2004/AI-TryOn-Studio/internal/telemetry"
)

const queueGroup = "tryon-analytics"

type eventWorker struct {
	analytics domain.AnalyticsRepository
	logger    infra.Logger
}

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	if cfg.NATSURL == "" || cfg.DatabaseURL == "" {
		logger.Fatal().Msg("worker: NATS_URL and DATABASE_URL are required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := infra.NewDBPool(ctx, cfg, "tryon-worker")
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: db connection failed")
	}
	defer pool.Close()

	nc, err := bus.Connect(cfg.NATSURL, "tryon-worker")
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: nats connection failed")
	}
	defer nc.Close()

	w := &eventWorker{
		analytics: repo.NewAnalyticsRepository(infra.NewSQLRunner(pool, logger)),
		logger:    logger,
	}
	if err := w.Run(ctx, nc, cfg.EventsSubject); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal().Err(err).Msg("worker: stopped with error")
	}
	logger.Info().Msg("worker: stopped")
}

func (w *eventWorker) Run(ctx context.Context, nc *bus.Client, subject string) error {
	sub, err := nc.SubscribeJSON(subject, queueGroup, w.handle)
	if err != nil {
		return err
	}
	defer func() { _ = sub.Unsubscribe() }()

	w.logger.Info().Str("subject", subject).Str("queue", queueGroup).Msg("worker: started")
	<-ctx.Done()
	return ctx.Err()
}

func (w *eventWorker) handle(ctx context.Context, data []byte) {
	ev, err := bus.DecodeEvent(data)
	if err != nil {
		w.logger.Warn().Err(err).Msg("worker: dropping malformed event")
		return
	}
	if err := telemetry.Record(ctx, w.analytics, ev); err != nil {
		w.logger.Error().Err(err).Str("kind", string(ev.Kind)).Str("job_id", ev.JobID).Msg("worker: record event failed")
		return
	}
	w.logger.Debug().Str("kind", string(ev.Kind)).Str("job_id", ev.JobID).Msg("worker: event recorded")
}
