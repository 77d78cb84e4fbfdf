package app

import (
	"io/fs"
	"net"
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
	"github.com/joho/godotenv"

	"github.com/xenking/restaurant-pos/internal/storage"
)

const defaultAddr = "0.0.0.0:8000"

// Config holds the complete application configuration, loadable from
// environment variables (POS_ prefix), flags, a .env file or YAML config files.
type Config struct {
	Addr         string        `default:"0.0.0.0:8000" usage:"API server listen address"`
	DatabaseURL  string        `env:"DATABASE_URL" flag:"database-url" usage:"MongoDB or PostgreSQL connection URL (POS_DATABASE_URL or DATABASE_URL)"`
	DatabaseName string        `env:"DATABASE_NAME" flag:"database-name" default:"pos" usage:"MongoDB database used when the URL names none"`
	StoreTimeout time.Duration `env:"STORE_TIMEOUT" flag:"store-timeout" default:"5s" usage:"Store connect and server selection timeout"`
	AMQPURL      string        `env:"AMQP_URL" flag:"amqp-url" usage:"RabbitMQ URL; enables order events when set"`
	AMQPExchange string        `env:"AMQP_EXCHANGE" flag:"amqp-exchange" default:"pos.orders" usage:"Exchange for order events"`
	Breaker      storage.BreakerConfig
	CORS         CORSConfig
	Graceful     GracefulConfig
}

// CORSConfig controls Cross-Origin Resource Sharing headers.
type CORSConfig struct {
	Origins []string `default:"*" usage:"Allowed CORS origins"`
}

// GracefulConfig controls graceful shutdown timing.
type GracefulConfig struct {
	ReadinessDelay  time.Duration `default:"3s"  usage:"Delay after readiness=false before shutdown" flag:"readiness-delay"`
	ShutdownTimeout time.Duration `default:"15s" usage:"Maximum shutdown duration" flag:"shutdown-timeout"`
}

// LoadConfig loads .env, then configuration from environment variables,
// flags and YAML config files. A missing database URL is not an error: the
// server starts and reports the store as unavailable.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, errors.Wrap(err, "load .env")
	}
	return loadConfig(aconfig.Config{
		Files: []string{"config.yaml", "/etc/pos/config.yaml"},
	})
}

func loadConfig(base aconfig.Config) (*Config, error) {
	var cfg Config
	base.EnvPrefix = "POS"
	base.FileDecoders = map[string]aconfig.FileDecoder{
		".yaml": aconfigyaml.New(),
	}
	if err := aconfig.LoaderFor(&cfg, base).Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()
	return &cfg, nil
}

// applyPlatformDefaults maps the unprefixed variables hosting platforms
// provide onto the configuration.
func (c *Config) applyPlatformDefaults() {
	if c.DatabaseURL == "" {
		c.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	if v := os.Getenv("DATABASE_NAME"); v != "" && c.DatabaseName == "pos" {
		c.DatabaseName = v
	}
	if c.AMQPURL == "" {
		c.AMQPURL = os.Getenv("AMQP_URL")
	}
	if port := os.Getenv("PORT"); port != "" && c.Addr == defaultAddr {
		host, _, _ := net.SplitHostPort(defaultAddr)
		c.Addr = net.JoinHostPort(host, port)
	}
}
