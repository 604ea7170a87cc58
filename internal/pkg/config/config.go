package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port      string        `env:"PORT,      default=8080"`
	Env       string        `env:"ENV,       default=development"`
	LogLevel  string        `env:"LOG_LEVEL, default=info"`
	JWTSecret string        `env:"JWT_SECRET"`
	JWTTTL    time.Duration `env:"JWT_TTL,   default=24h"`

	Mongo  MongoConfig
	Redis  RedisConfig
	AMQP   AMQPConfig
	Parcel ParcelConfig
	Admin  AdminConfig
}

type MongoConfig struct {
	URI         string        `env:"MONGO_URI,           default=mongodb://localhost:27017"`
	Database    string        `env:"MONGO_DB,            default=courier_system"`
	MaxPoolSize uint64        `env:"MONGO_MAX_POOL_SIZE, default=50"`
	Timeout     time.Duration `env:"MONGO_TIMEOUT,       default=10s"`
}

type RedisConfig struct {
	Enabled          bool          `env:"REDIS_ENABLED,      default=true"`
	Addr             string        `env:"REDIS_ADDR,         default=localhost:6379"`
	Password         string        `env:"REDIS_PASSWORD"`
	DB               int           `env:"REDIS_DB,           default=0"`
	PoolSize         int           `env:"REDIS_POOL_SIZE,    default=10"`
	Timeout          time.Duration `env:"REDIS_TIMEOUT,      default=5s"`
	TrackingCacheTTL time.Duration `env:"TRACKING_CACHE_TTL, default=5m"`
	IdempotencyTTL   time.Duration `env:"IDEMPOTENCY_TTL,    default=24h"`
}

// AMQPConfig configures event publishing. An empty URL logs events instead.
type AMQPConfig struct {
	URL      string `env:"AMQP_URL"`
	Exchange string `env:"AMQP_EXCHANGE, default=parcels"`
	Workers  int    `env:"EVENT_WORKERS, default=4"`
}

type ParcelConfig struct {
	BaseFee        float64 `env:"FEE_BASE,        default=50"`
	PerKgFee       float64 `env:"FEE_PER_KG,      default=20"`
	ReceiverPolicy string  `env:"RECEIVER_POLICY, default=lenient"`
}

// AdminConfig seeds the admin account at startup when both fields are set.
type AdminConfig struct {
	Email    string `env:"ADMIN_EMAIL"`
	Password string `env:"ADMIN_PASSWORD"`
}

// IsDevelopment reports whether the service runs in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// Load reads a .env file when present, then configuration from environment
// variables using go-envconfig.
func Load() *Config {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		panic(fmt.Sprintf("config: failed to read .env: %v", err))
	}

	cfg, err := LoadFrom(context.Background(), envconfig.OsLookuper())
	if err != nil {
		panic(fmt.Sprintf("config: failed to load configuration: %v", err))
	}
	return cfg
}

// LoadFrom processes configuration from an arbitrary lookuper.
func LoadFrom(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: lookuper,
	}); err != nil {
		return nil, err
	}
	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}
	return &cfg, nil
}
