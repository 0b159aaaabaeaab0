package config

import (
	"time"

	"itinerary-planner/internal/models"
)

// Config is the planner service configuration
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Store     StoreConfig     `mapstructure:"store"`
	Provider  ProviderConfig  `mapstructure:"provider"`
	Optimizer OptimizerConfig `mapstructure:"optimizer"`
}

type ServerConfig struct {
	Addr            string        `mapstructure:"addr" validate:"required"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout" validate:"gt=0"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout" validate:"gt=0"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"gt=0"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"oneof=json console"`
}

// CacheConfig sizes the in-process estimate cache
type CacheConfig struct {
	Capacity int `mapstructure:"capacity" validate:"gt=0"`
}

// StoreConfig selects the persistent tier behind the memory cache
type StoreConfig struct {
	Driver     string      `mapstructure:"driver" validate:"oneof=none sqlite redis"`
	SQLitePath string      `mapstructure:"sqlite_path"`
	Redis      RedisConfig `mapstructure:"redis"`
}

type RedisConfig struct {
	Address   string        `mapstructure:"address"`
	Password  string        `mapstructure:"password"`
	DB        int           `mapstructure:"db" validate:"gte=0"`
	TTL       time.Duration `mapstructure:"ttl" validate:"gte=0"`
	KeyPrefix string        `mapstructure:"key_prefix"`
}

// ProviderConfig configures the OSRM routing provider
type ProviderConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	BaseURL         string        `mapstructure:"base_url" validate:"required_if=Enabled true"`
	SingleTimeout   time.Duration `mapstructure:"single_timeout" validate:"gt=0"`
	BatchTimeout    time.Duration `mapstructure:"batch_timeout" validate:"gt=0"`
	MinInterval     time.Duration `mapstructure:"min_interval" validate:"gte=0"`
	MatrixPairLimit int           `mapstructure:"matrix_pair_limit" validate:"gt=0"`
	Cooldown        time.Duration `mapstructure:"cooldown" validate:"gte=0"`
}

type OptimizerConfig struct {
	DefaultAlgorithm string               `mapstructure:"default_algorithm"`
	Weights          models.Weights       `mapstructure:"weights"`
	Genetic          models.GeneticParams `mapstructure:"genetic"`
}
