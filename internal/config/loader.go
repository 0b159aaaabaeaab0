package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"itinerary-planner/internal/database"
	"itinerary-planner/internal/distance"
	"itinerary-planner/internal/models"
	"itinerary-planner/internal/routing"
)

// EnvPrefix namespaces environment overrides, e.g. PLANNER_STORE_DRIVER
const EnvPrefix = "PLANNER"

// Load reads defaults, an optional YAML file and the environment, in that order of precedence.
// An empty path searches for config.yaml in the working directory and ./configs.
func Load(path string) (*Config, error) {
	loadEnvFile()

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("error reading base config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// loadEnvFile loads the first .env found in the working directory or at the module root.
// Variables already set in the environment win.
func loadEnvFile() {
	paths := []string{".env"}
	if root := findProjectRoot(); root != "" {
		paths = append(paths, filepath.Join(root, ".env"))
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			if err := godotenv.Load(p); err == nil {
				return
			}
		}
	}
}

func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", "127.0.0.1:8080")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "120s")
	v.SetDefault("server.shutdown_timeout", "30s")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("cache.capacity", distance.DefaultCacheCapacity)

	v.SetDefault("store.driver", "none")
	v.SetDefault("store.sqlite_path", "")
	v.SetDefault("store.redis.address", "localhost:6379")
	v.SetDefault("store.redis.password", "")
	v.SetDefault("store.redis.db", 0)
	v.SetDefault("store.redis.ttl", "168h")
	v.SetDefault("store.redis.key_prefix", database.DefaultRedisKeyPrefix)

	est := distance.DefaultEstimatorConfig()
	v.SetDefault("provider.enabled", false)
	v.SetDefault("provider.base_url", distance.DefaultOSRMBaseURL)
	v.SetDefault("provider.single_timeout", est.SingleTimeout)
	v.SetDefault("provider.batch_timeout", est.BatchTimeout)
	v.SetDefault("provider.min_interval", est.MinInterval)
	v.SetDefault("provider.matrix_pair_limit", est.MatrixPairLimit)
	v.SetDefault("provider.cooldown", est.ProviderCooldown)

	v.SetDefault("optimizer.default_algorithm", string(routing.AlgorithmAdvancedGreedy))

	w := models.DefaultWeights()
	v.SetDefault("optimizer.weights.rating", w.Rating)
	v.SetDefault("optimizer.weights.distance", w.Distance)
	v.SetDefault("optimizer.weights.time_fit", w.TimeFit)
	v.SetDefault("optimizer.weights.cost_fit", w.CostFit)
	v.SetDefault("optimizer.weights.popularity", w.Popularity)
	v.SetDefault("optimizer.weights.diversity", w.Diversity)

	g := models.DefaultGeneticParams()
	v.SetDefault("optimizer.genetic.population_size", g.PopulationSize)
	v.SetDefault("optimizer.genetic.generations", g.Generations)
	v.SetDefault("optimizer.genetic.mutation_rate", *g.MutationRate)
	v.SetDefault("optimizer.genetic.crossover_rate", *g.CrossoverRate)
	v.SetDefault("optimizer.genetic.elite_count", *g.EliteCount)
	v.SetDefault("optimizer.genetic.tournament_size", g.TournamentSize)
	v.SetDefault("optimizer.genetic.stagnation_limit", g.StagnationLimit)
	v.SetDefault("optimizer.genetic.workers", g.Workers)
	v.SetDefault("optimizer.genetic.seed", g.Seed)
	v.SetDefault("optimizer.genetic.fitness.distance", g.Fitness.Distance)
	v.SetDefault("optimizer.genetic.fitness.time", g.Fitness.Time)
	v.SetDefault("optimizer.genetic.fitness.rating", g.Fitness.Rating)
	v.SetDefault("optimizer.genetic.fitness.diversity", g.Fitness.Diversity)
}

func validateConfig(cfg *Config) error {
	if err := validator.New(validator.WithRequiredStructEnabled()).Struct(cfg); err != nil {
		return err
	}
	if cfg.Store.Driver == "redis" && cfg.Store.Redis.Address == "" {
		return fmt.Errorf("store.redis.address is required when store.driver is redis")
	}
	if _, ok := routing.ParseAlgorithm(cfg.Optimizer.DefaultAlgorithm); !ok {
		return fmt.Errorf("optimizer.default_algorithm %q is not a known algorithm", cfg.Optimizer.DefaultAlgorithm)
	}
	if cfg.Optimizer.Weights.Sum() <= 0 {
		return fmt.Errorf("optimizer.weights must not all be zero")
	}
	return nil
}

// EstimatorConfig maps the provider section onto the estimator's limits
func (c *Config) EstimatorConfig() distance.EstimatorConfig {
	return distance.EstimatorConfig{
		SingleTimeout:    c.Provider.SingleTimeout,
		BatchTimeout:     c.Provider.BatchTimeout,
		MinInterval:      c.Provider.MinInterval,
		MatrixPairLimit:  c.Provider.MatrixPairLimit,
		ProviderCooldown: c.Provider.Cooldown,
	}
}

// DefaultAlgorithm returns the configured default as a routing algorithm
func (c *Config) DefaultAlgorithm() routing.Algorithm {
	a, _ := routing.ParseAlgorithm(c.Optimizer.DefaultAlgorithm)
	return a
}

// RedisConfig maps the redis section onto the client settings
func (c *Config) RedisConfig() database.RedisConfig {
	r := c.Store.Redis
	return database.RedisConfig{
		Address:   r.Address,
		Password:  r.Password,
		DB:        r.DB,
		TTL:       r.TTL,
		KeyPrefix: r.KeyPrefix,
	}
}

// SQLitePath returns the configured database file, or the per-user default
func (c *Config) SQLitePath() (string, error) {
	if c.Store.SQLitePath != "" {
		return c.Store.SQLitePath, nil
	}
	return database.GetDefaultDBPath()
}
