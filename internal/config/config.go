package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"autobid/utils"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds the process configuration read from the environment
type Config struct {
	Env          string        `envconfig:"APP_ENV" default:"development"`
	Port         int           `envconfig:"PORT" default:"8080"`
	LogLevel     string        `envconfig:"LOG_LEVEL" default:"info"`
	DatabaseURL  string        `envconfig:"DATABASE_URL"`
	JWTSecret    string        `envconfig:"JWT_SECRET" required:"true"`
	JWTExpiry    time.Duration `envconfig:"JWT_EXPIRY" default:"168h"`
	RedisURL     string        `envconfig:"REDIS_URL"`
	AMQPURL      string        `envconfig:"AMQP_URL"`
	AMQPExchange string        `envconfig:"AMQP_EXCHANGE" default:"auction_events"`
	CORSOrigins  []string      `envconfig:"CORS_ORIGINS"`
	SeedDemo     bool          `envconfig:"SEED_DEMO" default:"false"`
}

// Load reads the first env file that exists (or .env when none is given) and then
// processes the environment into a Config.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, path := range envFiles {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			return nil, fmt.Errorf("config: load %s: %w", path, err)
		}
		utils.Debug("environment file loaded", map[string]any{"path": path})
		break
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return nil, fmt.Errorf("config: invalid PORT %d", cfg.Port)
	}
	if cfg.JWTExpiry <= 0 {
		return nil, fmt.Errorf("config: JWT_EXPIRY must be positive")
	}
	return &cfg, nil
}

// Addr returns the listen address for the HTTP server
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

// Fields renders the config for logging with secrets masked
func (c *Config) Fields() map[string]any {
	return map[string]any{
		"env":           c.Env,
		"port":          c.Port,
		"log_level":     c.LogLevel,
		"database_url":  maskValue(c.DatabaseURL),
		"jwt_secret":    maskValue(c.JWTSecret),
		"jwt_expiry":    c.JWTExpiry.String(),
		"redis_url":     maskValue(c.RedisURL),
		"amqp_url":      maskValue(c.AMQPURL),
		"amqp_exchange": c.AMQPExchange,
		"cors_origins":  c.CORSOrigins,
		"seed_demo":     c.SeedDemo,
	}
}

func maskValue(v string) string {
	if v == "" {
		return ""
	}
	if len(v) <= 6 {
		return "****"
	}
	return v[:3] + "****" + v[len(v)-3:]
}
