package config

import "time"

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig
	Postgres PostgresConfig
	Auth     AuthConfig
	Ingest   IngestConfig
	Log      LogConfig

	// DefaultProjectID is assigned to every ingested trace and observation
	// that does not carry its own project id.
	DefaultProjectID string
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	BindAddr string `mapstructure:"bind_addr"`
	Env      string `mapstructure:"env"`
}

// PostgresConfig holds PostgreSQL configuration
type PostgresConfig struct {
	URL      string `mapstructure:"url"`
	MaxConns int32  `mapstructure:"max_conns"`
	MinConns int32  `mapstructure:"min_conns"`
}

// AuthConfig holds API credential configuration.
//
// BearerToken authorizes any endpoint. PublicKey/SecretKey form the Basic
// credential pair used by SDK clients; when both are empty the SDK
// compatibility endpoints accept unauthenticated requests.
type AuthConfig struct {
	BearerToken string `mapstructure:"bearer_token"`
	PublicKey   string `mapstructure:"public_key"`
	SecretKey   string `mapstructure:"secret_key"`
}

// KeysConfigured reports whether any part of the Basic credential pair is
// set. The unauthenticated compatibility fallback applies only when neither
// key is configured.
func (c AuthConfig) KeysConfigured() bool {
	return c.PublicKey != "" || c.SecretKey != ""
}

// IngestConfig holds ingest queue and batching worker configuration
type IngestConfig struct {
	QueueSize int           `mapstructure:"queue_size"`
	MaxBatch  int           `mapstructure:"max_batch"`
	Window    time.Duration `mapstructure:"-"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// IsDevelopment returns true if running in development mode
func (c Config) IsDevelopment() bool {
	return c.Server.Env == "development"
}

// IsProduction returns true if running in production mode
func (c Config) IsProduction() bool {
	return c.Server.Env == "production"
}
