package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

const (
	BackendMemory = "memory"
	BackendNone   = "none"
	BackendRedis  = "redis"
	BackendMongo  = "mongo"
)

var ErrInvalidConfig = errors.New("invalid config")

type HTTPConfig struct {
	Port               string        `envconfig:"HTTP_PORT" default:"8080"`
	RequestTimeout     time.Duration `envconfig:"REQUEST_TIMEOUT" default:"30s"`
	ShutdownTimeout    time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`
	MaxRequestBodySize int64         `envconfig:"MAX_REQUEST_BODY_SIZE" default:"1048576"`
}

type CartConfig struct {
	Backend      string        `envconfig:"CART_BACKEND" default:"memory"`
	StorageKey   string        `envconfig:"CART_STORAGE_KEY" default:"shopclassy_cart"`
	WriteTimeout time.Duration `envconfig:"CART_WRITE_TIMEOUT" default:"2s"`
}

type RedisConfig struct {
	Addr     string        `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	Password string        `envconfig:"REDIS_PASSWORD"`
	DB       int           `envconfig:"REDIS_DB" default:"0"`
	TTL      time.Duration `envconfig:"REDIS_TTL" default:"720h"`
}

type MongoConfig struct {
	URI        string `envconfig:"MONGO_URI" default:"mongodb://localhost:27017"`
	Database   string `envconfig:"MONGO_DATABASE" default:"shopclassy"`
	Collection string `envconfig:"MONGO_COLLECTION" default:"storefront_state"`
}

type CatalogConfig struct {
	// DBPath enables the sqlite catalog. Empty means the embedded catalog.
	DBPath          string        `envconfig:"CATALOG_DB_PATH"`
	RefreshInterval time.Duration `envconfig:"CATALOG_REFRESH_INTERVAL" default:"0s"`
}

type KafkaConfig struct {
	Brokers      []string `envconfig:"KAFKA_BROKERS"`
	Topic        string   `envconfig:"KAFKA_TOPIC" default:"storefront-cart-events"`
	CatalogTopic string   `envconfig:"KAFKA_CATALOG_TOPIC" default:"storefront-catalog-events"`
	GroupID      string   `envconfig:"KAFKA_GROUP_ID" default:"storefront"`
}

// Config is read from the environment, optionally seeded from a .env file.
type Config struct {
	Env      string `envconfig:"APP_ENV" default:"production"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	HTTP    HTTPConfig
	Cart    CartConfig
	Redis   RedisConfig
	Mongo   MongoConfig
	Catalog CatalogConfig
	Kafka   KafkaConfig
}

// Load reads envFile when it exists and then the process environment.
// Variables already set in the environment win over the file.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("process environment config: %w", err)
	}
	cfg.Cart.Backend = strings.ToLower(strings.TrimSpace(cfg.Cart.Backend))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.Cart.Backend {
	case BackendMemory, BackendNone, BackendRedis, BackendMongo:
	default:
		return fmt.Errorf("%w: unknown CART_BACKEND %q", ErrInvalidConfig, c.Cart.Backend)
	}
	if strings.TrimSpace(c.Cart.StorageKey) == "" {
		return fmt.Errorf("%w: CART_STORAGE_KEY must not be empty", ErrInvalidConfig)
	}
	if c.HTTP.MaxRequestBodySize <= 0 {
		return fmt.Errorf("%w: MAX_REQUEST_BODY_SIZE must be positive", ErrInvalidConfig)
	}
	if c.Catalog.RefreshInterval < 0 {
		return fmt.Errorf("%w: CATALOG_REFRESH_INTERVAL must not be negative", ErrInvalidConfig)
	}
	return nil
}

func (c *Config) IsDevelopment() bool {
	return strings.EqualFold(c.Env, "development") || strings.EqualFold(c.Env, "dev")
}

func (c *Config) KafkaEnabled() bool {
	return len(c.Kafka.Brokers) > 0
}
