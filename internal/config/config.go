package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	Port         int           `env:"PORT" envDefault:"3000"`
	DatabaseURL  string        `env:"DATABASE_URL,required"`
	AIAPIURL     string        `env:"AI_API_URL,required"`
	FetchTimeout time.Duration `env:"AI_FETCH_TIMEOUT" envDefault:"45s"`
}

// Load reads .env if present, then parses the environment. A missing .env is
// fine in production where the environment is injected directly.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}
	return &cfg, nil
}
