package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Load loads configuration from environment variables and an optional .env
// file in the working directory.
func Load() (*Config, error) {
	// Missing .env is fine; real environments set variables directly.
	_ = godotenv.Load()

	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix("")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config

	// Server
	cfg.Server.BindAddr = v.GetString("bind_addr")
	cfg.Server.Env = v.GetString("server_env")

	// PostgreSQL
	cfg.Postgres.URL = v.GetString("database_url")
	cfg.Postgres.MaxConns = int32(v.GetInt("postgres_max_conns"))
	cfg.Postgres.MinConns = int32(v.GetInt("postgres_min_conns"))

	// Auth
	cfg.Auth.BearerToken = v.GetString("api_bearer_token")
	cfg.Auth.PublicKey = firstNonEmpty(
		v.GetString("xtrace_public_key"),
		v.GetString("langfuse_public_key"),
	)
	cfg.Auth.SecretKey = firstNonEmpty(
		v.GetString("xtrace_secret_key"),
		v.GetString("langfuse_secret_key"),
	)

	// Ingest
	cfg.Ingest.QueueSize = v.GetInt("ingest_queue_size")
	cfg.Ingest.MaxBatch = v.GetInt("ingest_max_batch")
	cfg.Ingest.Window = time.Duration(v.GetInt("ingest_window_ms")) * time.Millisecond

	cfg.DefaultProjectID = v.GetString("default_project_id")

	// Logging
	cfg.Log.Level = v.GetString("log_level")
	cfg.Log.Format = v.GetString("log_format")

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("bind_addr", "127.0.0.1:8742")
	v.SetDefault("server_env", "development")

	// PostgreSQL defaults
	v.SetDefault("postgres_max_conns", 20)
	v.SetDefault("postgres_min_conns", 2)

	// Ingest defaults
	v.SetDefault("ingest_queue_size", 1000)
	v.SetDefault("ingest_max_batch", 200)
	v.SetDefault("ingest_window_ms", 50)

	v.SetDefault("default_project_id", "default")

	// Logging defaults
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "json")
}

func validate(cfg *Config) error {
	if cfg.Postgres.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.Auth.BearerToken == "" {
		return fmt.Errorf("API_BEARER_TOKEN is required")
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
