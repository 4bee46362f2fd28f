package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// ResponseTimePolicy selects how an emergency's response_time is computed
type ResponseTimePolicy string

const (
	// ResponseTimeFirstAssignment records creation->first reservation, then
	// recomputes creation->resolution when the emergency resolves
	ResponseTimeFirstAssignment ResponseTimePolicy = "first_assignment"

	// ResponseTimeResolution records only creation->resolution
	ResponseTimeResolution ResponseTimePolicy = "resolution"
)

// Config holds the application configuration
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Cache    CacheConfig
	Dispatch DispatchConfig
	Logging  LoggingConfig
	Metrics  MetricsConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// DatabaseConfig holds persistence backend configuration
type DatabaseConfig struct {
	Type     string // "memory", "postgres", "mongodb"
	Postgres PostgresConfig
	MongoDB  MongoDBConfig
}

// PostgresConfig holds PostgreSQL configuration
type PostgresConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	Database        string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// MongoDBConfig holds MongoDB configuration
type MongoDBConfig struct {
	URI         string
	Database    string
	MaxPoolSize int
	MinPoolSize int
}

// CacheConfig holds the optional emergency read cache configuration
type CacheConfig struct {
	Enabled    bool
	TTLSeconds int
	Redis      RedisConfig
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// DispatchConfig holds the coordination policy knobs
type DispatchConfig struct {
	// ResponseTimePolicy is "first_assignment" or "resolution"
	ResponseTimePolicy string

	// SweepInterval is the period of the pending-emergency re-dispatch sweep
	SweepInterval time.Duration

	// SeedDefaults provisions the default admins and units at startup
	SeedDefaults bool
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string // "debug", "info", "warn", "error"
	Format string // "json", "text"
}

// MetricsConfig holds metrics configuration
type MetricsConfig struct {
	Enabled bool
	Path    string
}

// Load loads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/dispatch")
	}

	v.AutomaticEnv()
	v.SetEnvPrefix("DISPATCH")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found; using defaults and environment variables
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validate(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

func validate(c *Config) error {
	switch c.Database.Type {
	case "memory", "postgres", "mongodb":
	default:
		return fmt.Errorf("unsupported database type: %s", c.Database.Type)
	}
	switch ResponseTimePolicy(c.Dispatch.ResponseTimePolicy) {
	case ResponseTimeFirstAssignment, ResponseTimeResolution:
	default:
		return fmt.Errorf("unsupported response time policy: %s", c.Dispatch.ResponseTimePolicy)
	}
	return nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.readTimeout", "30s")
	v.SetDefault("server.writeTimeout", "30s")
	v.SetDefault("server.idleTimeout", "120s")

	// Database defaults
	v.SetDefault("database.type", "memory")
	v.SetDefault("database.postgres.host", "localhost")
	v.SetDefault("database.postgres.port", 5432)
	v.SetDefault("database.postgres.user", "dispatch")
	v.SetDefault("database.postgres.password", "dispatch")
	v.SetDefault("database.postgres.database", "dispatch")
	v.SetDefault("database.postgres.sslMode", "disable")
	v.SetDefault("database.postgres.maxOpenConns", 25)
	v.SetDefault("database.postgres.maxIdleConns", 5)
	v.SetDefault("database.postgres.connMaxLifetime", "5m")
	v.SetDefault("database.mongodb.uri", "mongodb://localhost:27017")
	v.SetDefault("database.mongodb.database", "dispatch")
	v.SetDefault("database.mongodb.maxPoolSize", 100)
	v.SetDefault("database.mongodb.minPoolSize", 0)

	// Cache defaults
	v.SetDefault("cache.enabled", false)
	v.SetDefault("cache.ttlSeconds", 300)
	v.SetDefault("cache.redis.host", "localhost")
	v.SetDefault("cache.redis.port", 6379)
	v.SetDefault("cache.redis.password", "")
	v.SetDefault("cache.redis.db", 0)

	// Dispatch defaults
	v.SetDefault("dispatch.responseTimePolicy", "first_assignment")
	v.SetDefault("dispatch.sweepInterval", "30s")
	v.SetDefault("dispatch.seedDefaults", true)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	// Metrics defaults
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")
}
