package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/ChaosClubCo/FlashFusion-sub000/internal/adapter/repo"
	"github.com/ChaosClubCo/FlashFusion-sub000/internal/http/handlers"
	"github.com/ChaosClubCo/FlashFusion-sub000/internal/http/httpapi"
	"github.com/ChaosClubCo/FlashFusion-sub000/internal/infra"
	"github.com/ChaosClubCo/FlashFusion-sub000/internal/providers/genai"
	"github.com/ChaosClubCo/FlashFusion-sub000/internal/queue"
	"github.com/ChaosClubCo/FlashFusion-sub000/internal/quota"
	"github.com/ChaosClubCo/FlashFusion-sub000/internal/service"
	"github.com/ChaosClubCo/FlashFusion-sub000/internal/worker"
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

	jobs := repo.NewJobRepository(runner)
	usage := repo.NewUsageRepository(runner)
	windows := repo.NewRateWindowRepository(runner)
	users := repo.NewUserRepository(runner)
	events := repo.NewUsageEventRepository(runner)

	q := queue.NewMemory()
	meter := quota.NewMeter(usage)
	limiter := quota.NewLimiter(users, windows, cfg.RateLimitForPlan, cfg.RateWindow)

	generator, err := genai.NewClient(genai.Options{
		APIKey:     cfg.GenAIAPIKey,
		BaseURL:    cfg.GenAIBaseURL,
		Model:      cfg.GenAIModel,
		HTTPClient: &http.Client{Timeout: cfg.GenAITimeout},
		Logger:     &logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build generation client")
	}

	hub := worker.NewHub()
	processor := worker.NewProcessor(q, jobs, generator, hub, events, logger)
	jobSvc := service.NewJobService(jobs, q, meter, events, logger)

	// Rebuild the queue from the store before accepting traffic: jobs that
	// were mid-flight when the previous process died go back to pending and
	// re-enter the queue in creation order.
	restored, err := jobSvc.Rehydrate(ctx)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to rehydrate job queue")
	}
	logger.Info().Int("restored", restored).Msg("job queue rehydrated")

	app := &handlers.App{
		Jobs:               jobSvc,
		Meter:              meter,
		Watcher:            hub,
		Generator:          generator,
		Stats:              events,
		Logger:             logger,
		QueueLen:           q.Len,
		StreamPollInterval: cfg.StreamPollInterval,
	}
	router := httpapi.NewRouter(app, limiter, logger, cfg.CORSAllowedOrigins)
	server := infra.NewHTTPServer(cfg, router)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := processor.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		logger.Info().Msgf("API listening on :%s", cfg.Port)
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error().Err(err).Msg("server exited with error")
	}
	logger.Info().Msg("server stopped")
}
