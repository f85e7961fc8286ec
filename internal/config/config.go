package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
)

// DefaultEnvFiles are loaded, when present, before the environment is parsed.
// Variables already set in the process environment win.
var DefaultEnvFiles = []string{".env", ".env.local"}

type OxiDBOptions struct {
	Host       string `env:"OXIDB_HOST" envDefault:"127.0.0.1"`
	Port       int    `env:"OXIDB_PORT" envDefault:"4444" validate:"min=1,max=65535"`
	PoolSize   int    `env:"OXIDB_POOL_SIZE" envDefault:"3" validate:"min=1"`
	Collection string `env:"OXIDB_COLLECTION" envDefault:"_formqueue_state"`
}

func (o OxiDBOptions) Addr() string {
	return fmt.Sprintf("%s:%d", o.Host, o.Port)
}

type RateLimitOptions struct {
	Enabled  bool   `env:"RATE_LIMIT_ENABLED" envDefault:"true"`
	Rate     string `env:"RATE_LIMIT" envDefault:"120-M"`
	Storage  string `env:"RATE_LIMIT_STORAGE" envDefault:"memory" validate:"oneof=memory redis"`
	RedisURL string `env:"REDIS_URL" validate:"required_if=Storage redis"`
}

type Config struct {
	HTTPAddr        string        `env:"FORMQUEUE_ADDR" envDefault:":3000"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`

	APIKey     string `env:"API_KEY"`
	APIKeyHash string `env:"API_KEY_HASH"`
	JWTSecret  string `env:"JWT_SECRET"`

	StoreDriver string       `env:"STORE_DRIVER" envDefault:"file" validate:"oneof=file memory oxidb"`
	DBFile      string       `env:"DB_FILE" envDefault:"./database/database.json" validate:"required_if=StoreDriver file"`
	OxiDB       OxiDBOptions

	RateLimit   RateLimitOptions
	CORSOrigins []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info" validate:"oneof=trace debug info warn warning error fatal panic"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"text" validate:"oneof=text json"`
	GelfAddr  string `env:"GELF_ADDR"`
}

// HasCredentials reports whether any way to authenticate is configured.
func (c *Config) HasCredentials() bool {
	return c.APIKey != "" || c.APIKeyHash != "" || c.JWTSecret != ""
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Load reads env files (if they exist), then the environment, and validates.
func Load(envFiles ...string) (*Config, error) {
	if err := loadEnvFiles(envFiles); err != nil {
		return nil, err
	}
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, errors.Wrap(err, "parse env")
	}
	if err := validate.Struct(cfg); err != nil {
		return nil, errors.Wrap(err, "invalid config")
	}
	if !cfg.HasCredentials() {
		return nil, errors.New("invalid config: one of API_KEY, API_KEY_HASH or JWT_SECRET must be set")
	}
	return cfg, nil
}

func loadEnvFiles(files []string) error {
	existing := make([]string, 0, len(files))
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			existing = append(existing, f)
		}
	}
	if len(existing) == 0 {
		return nil
	}
	if err := godotenv.Load(existing...); err != nil {
		return errors.Wrap(err, "load env files")
	}
	return nil
}
