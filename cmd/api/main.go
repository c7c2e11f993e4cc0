package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/Hitansu2004/AI-TryOn-Studio/internal/adapter/repo"
	"github.com/Hitansu2004/AI-TryOn-Studio/internal/bus"
	"github.com/Hitansu2004/AI-TryOn-Studio/internal/domain"
	"github.com/Hitansu2004/AI-TryOn-Studio/internal/http/handlers"
	httpapi "github.com/Hitansu2004/AI-TryOn-Studio/internal/http/httpapi"
	"github.com/Hitansu2004/AI-TryOn-Studio/internal/infra"
	"github.com/Hitansu2004/AI-TryOn-Studio/internal/infra/geoip"
	"github.com/Hitansu2004/AI-TryOn-Studio/internal/middleware"
	"github.com/Hitansu2004/AI-TryOn-Studio/internal/providers/tryonapi"
	"github.com/Hitansu2004/AI-TryOn-Studio/internal/session"
	"github.com/Hitansu2004/AI-TryOn-Studio/internal/storage"
	"github.com/Hitansu2004/AI-TryOn-Studio/internal/telemetry"
	"github.com/Hitansu2004/AI-TryOn-Studio/internal/tryon"
)

func main() {
	// .env is optional
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logs := telemetry.NewRing(cfg.LogRingSize)
	logs.MinLevel = zerolog.WarnLevel
	logger := infra.NewLogger(cfg.AppEnv, logs)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := tryonapi.NewClient(tryonapi.Options{
		BaseURL:        cfg.TryOnAPIBaseURL,
		Logger:         &logger,
		RequestTimeout: cfg.TryOnAPITimeout,
	})

	usage := telemetry.NewLogNotifier(logger)
	notifiers := tryon.Notifiers{usage}

	// Analytics are optional; without a database the stats endpoint reports 503.
	var analytics domain.AnalyticsRepository
	if cfg.DatabaseURL != "" {
		pool, err := infra.NewDBPool(ctx, cfg, "tryon-api")
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect database")
		}
		defer pool.Close()
		analytics = repo.NewAnalyticsRepository(infra.NewSQLRunner(pool, logger))
	}

	// With NATS configured, events go to the worker; otherwise they are
	// recorded in-process.
	var publisher *bus.Publisher
	if cfg.NATSURL != "" {
		nc, err := bus.Connect(cfg.NATSURL, "tryon-api")
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect nats")
		}
		defer nc.Close()
		publisher = bus.NewPublisher(nc, cfg.EventsSubject, logger)
		notifiers = append(notifiers, publisher)
	} else if analytics != nil {
		recorder := telemetry.NewAnalyticsNotifier(analytics, logger)
		defer recorder.Wait()
		notifiers = append(notifiers, recorder)
	}

	resolver, err := geoip.NewResolver(cfg.GeoIPDBPath)
	if err != nil {
		logger.Warn().Err(err).Msg("geoip disabled")
	}
	defer resolver.Close()
	var lookup middleware.CountryLookup
	if resolver != nil {
		lookup = resolver.Lookup
	}

	storagePath := cfg.StoragePath
	if abs, err := filepath.Abs(storagePath); err == nil {
		storagePath = abs
	}
	store, err := storage.NewFileStore(storagePath)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to configure storage")
	}

	sessions := session.NewRegistry(client, logger, session.Options{
		TTL: cfg.SessionTTL,
		Controller: tryon.Options{
			PollInterval:     cfg.PollInterval,
			TickInterval:     cfg.ElapsedTick,
			PollTimeout:      cfg.TryOnAPITimeout,
			PollFailureLimit: cfg.PollFailureLimit,
			JobTimeout:       cfg.JobTimeout,
		},
		Notifier: notifiers,
		OnEvent: func(ev tryon.Event) {
			if publisher != nil {
				publisher.Publish(ev)
			}
		},
	})
	defer sessions.Close()
	go sessions.Run(ctx)

	app := &handlers.App{
		Config:    cfg,
		Logger:    logger,
		Catalog:   client,
		Sessions:  sessions,
		Logs:      logs,
		Tracker:   usage,
		Analytics: analytics,
		Store:     store,
	}
	router := httpapi.NewRouter(app, httpapi.Options{
		AllowedOrigins:  cfg.CORSAllowedOrigins,
		DefaultLocale:   cfg.DefaultLocale,
		CountryLookup:   lookup,
		SubmitRateLimit: cfg.RateLimitPerMin,
	})

	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().Str("backend", client.BaseURL()).Msgf("API listening on %s", server.Addr())
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	logger.Info().Msg("server stopped")
}
