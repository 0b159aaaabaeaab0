package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"itinerary-planner/internal/config"
	"itinerary-planner/internal/database"
	"itinerary-planner/internal/distance"
	"itinerary-planner/internal/handlers"
	"itinerary-planner/internal/logging"
	"itinerary-planner/internal/routing"
	"itinerary-planner/internal/server"
	"itinerary-planner/internal/sqlite"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	cfg, err := config.Load(getEnv("PLANNER_CONFIG", ""))
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := logging.New(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer logger.Sync()

	ctx := context.Background()

	repo, health, closer, err := openStore(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to open distance store: %w", err)
	}
	var closers []io.Closer
	if closer != nil {
		closers = append(closers, closer)
	}

	opts := []distance.Option{
		distance.WithConfig(cfg.EstimatorConfig()),
		distance.WithLogger(logger),
	}
	if repo != nil {
		opts = append(opts, distance.WithStore(repo))
	}
	if cfg.Provider.Enabled {
		opts = append(opts, distance.WithProvider(distance.NewOSRMProvider(cfg.Provider.BaseURL, logger)))
		logger.Info("routing provider enabled", zap.String("base_url", cfg.Provider.BaseURL))
	} else {
		logger.Info("routing provider disabled; using fallback estimates")
	}
	estimator := distance.NewEstimator(distance.NewMemoryCache(cfg.Cache.Capacity), opts...)

	optimizer := routing.NewOptimizer(estimator,
		routing.WithDefaultAlgorithm(cfg.DefaultAlgorithm()),
		routing.WithDefaultWeights(cfg.Optimizer.Weights),
		routing.WithDefaultGenetic(cfg.Optimizer.Genetic),
		routing.WithOptimizerLogger(logger))

	handler := &handlers.Handler{
		Optimizer: optimizer,
		Estimator: estimator,
		Store:     health,
		Logger:    logger,
		FixedSeed: cfg.Optimizer.Genetic.Seed,
	}

	srv := server.New(server.Config{
		Addr:         cfg.Server.Addr,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}, handler, logger, closers...)

	actualAddr, err := srv.Start()
	if err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	logger.Info("itinerary planner listening",
		zap.String("addr", actualAddr),
		zap.String("store", cfg.Store.Driver),
		zap.String("default_algorithm", string(cfg.DefaultAlgorithm())))

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	sig := <-shutdown
	logger.Info("received signal, starting graceful shutdown", zap.String("signal", sig.String()))

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("could not gracefully shutdown the server: %w", err)
	}

	logger.Info("server stopped")
	return nil
}

// openStore selects the persistent tier named by store.driver
func openStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (database.DistanceCacheRepository, database.HealthChecker, io.Closer, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		path, err := cfg.SQLitePath()
		if err != nil {
			return nil, nil, nil, err
		}
		store, err := sqlite.New(path, logger)
		if err != nil {
			return nil, nil, nil, err
		}
		return store.DistanceCache(), store, store, nil
	case "redis":
		rc := cfg.RedisConfig()
		client, err := database.NewRedisClient(ctx, rc)
		if err != nil {
			return nil, nil, nil, err
		}
		logger.Info("redis distance cache connected", zap.String("address", rc.Address))
		cache := database.NewRedisDistanceCache(client, rc.TTL, rc.KeyPrefix)
		return cache, cache, client, nil
	default:
		return nil, nil, nil, nil
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
