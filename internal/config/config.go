package config

import (
	"fmt"

	pkgconfig "github.com/utafrali/cartrecords/pkg/config"
)

// Store driver names.
const (
	StoreDriverMongo  = "mongo"
	StoreDriverMemory = "memory"
)

// Config holds all configuration for the cart record service.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// HTTP server
	HTTPPort int `env:"CART_HTTP_PORT" envDefault:"8004"`

	// Storage
	StoreDriver   string `env:"STORE_DRIVER" envDefault:"mongo"`
	MongoURI      string `env:"MONGO_URI" envDefault:"mongodb://localhost:27017"`
	MongoDatabase string `env:"MONGO_DATABASE" envDefault:"cartrecords"`

	// AddItem policy: create the cart when the user has none, instead of
	// failing with not-found.
	CreateIfMissing bool `env:"CART_CREATE_IF_MISSING" envDefault:"true"`

	// Worker pool for the async mutation variants
	WorkerPoolSize  int `env:"WORKER_POOL_SIZE" envDefault:"32"`
	WorkerQueueSize int `env:"WORKER_QUEUE_SIZE" envDefault:"256"`

	// Kafka
	KafkaBrokers []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`

	// Tracing
	TracingEnabled  bool    `env:"TRACING_ENABLED" envDefault:"false"`
	OTLPEndpoint    string  `env:"OTLP_ENDPOINT" envDefault:"localhost:4318"`
	TraceSampleRate float64 `env:"TRACE_SAMPLE_RATE" envDefault:"1.0"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load cartrecords config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validate checks configuration invariants.
func (c *Config) validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}
	if c.StoreDriver != StoreDriverMongo && c.StoreDriver != StoreDriverMemory {
		return fmt.Errorf("invalid store driver: %q", c.StoreDriver)
	}
	if c.WorkerPoolSize < 1 {
		return fmt.Errorf("worker pool size must be at least 1, got %d", c.WorkerPoolSize)
	}
	if c.WorkerQueueSize < 1 {
		return fmt.Errorf("worker queue size must be at least 1, got %d", c.WorkerQueueSize)
	}
	return nil
}
