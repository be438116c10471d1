package config

import (
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Database  DatabaseConfig  `koanf:"database"`
	Security  SecurityConfig  `koanf:"security"`
	RateLimit RateLimitConfig `koanf:"rate_limit"`
	Logging   LoggingConfig   `koanf:"logging"`
	Cache     CacheConfig     `koanf:"cache"`
	Tracing   TracingConfig   `koanf:"tracing"`
	Events    EventsConfig    `koanf:"events"`
	Catalog   CatalogConfig   `koanf:"catalog"`
}

// ServerConfig holds server-related configuration.
type ServerConfig struct {
	Port      string `koanf:"port"`
	Host      string `koanf:"host"`
	EnableTLS bool   `koanf:"enable_tls"`
	CertFile  string `koanf:"cert_file"`
	KeyFile   string `koanf:"key_file"`
	// TrustProxy takes the client address from X-Forwarded-For / X-Real-IP.
	// Only enable behind a proxy that overwrites those headers.
	TrustProxy bool `koanf:"trust_proxy"`
}

// DatabaseConfig holds database-related configuration.
type DatabaseConfig struct {
	Path string `koanf:"path"`
}

// SecurityConfig holds security-related configuration.
type SecurityConfig struct {
	// Max request body size in bytes (default: 10MB)
	MaxRequestBodySize int64 `koanf:"max_request_body_size"`
	// Allowed CORS origins (comma-separated)
	AllowedOrigins string `koanf:"allowed_origins"`
}

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	Enabled bool `koanf:"enabled"`
	Rate    int  `koanf:"rate"`
	Window  int  `koanf:"window"` // in seconds
}

// LoggingConfig holds logger configuration.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"` // json or console
}

// CacheConfig controls the recommendation cache. An empty RedisAddr selects
// the in-memory cache.
type CacheConfig struct {
	Enabled       bool   `koanf:"enabled"`
	RedisAddr     string `koanf:"redis_addr"`
	RedisPassword string `koanf:"redis_password"`
	RedisDB       int    `koanf:"redis_db"`
	TTL           int    `koanf:"ttl"` // in seconds
}

// TracingConfig holds OpenTelemetry configuration.
type TracingConfig struct {
	Enabled     bool   `koanf:"enabled"`
	Endpoint    string `koanf:"endpoint"`
	Environment string `koanf:"environment"`
}

// EventsConfig toggles in-process event hooks.
type EventsConfig struct {
	Enabled bool `koanf:"enabled"`
}

// CatalogConfig points at an optional file used to seed the offer catalog.
type CatalogConfig struct {
	SeedFile string `koanf:"seed_file"`
}

// envKeys maps environment variables to config paths.
var envKeys = map[string]string{
	"SERVER_PORT":           "server.port",
	"SERVER_HOST":           "server.host",
	"SERVER_ENABLE_TLS":     "server.enable_tls",
	"SERVER_CERT_FILE":      "server.cert_file",
	"SERVER_KEY_FILE":       "server.key_file",
	"SERVER_TRUST_PROXY":    "server.trust_proxy",
	"DATABASE_PATH":         "database.path",
	"MAX_REQUEST_BODY_SIZE": "security.max_request_body_size",
	"ALLOWED_ORIGINS":       "security.allowed_origins",
	"RATE_LIMIT_ENABLED":    "rate_limit.enabled",
	"RATE_LIMIT_RATE":       "rate_limit.rate",
	"RATE_LIMIT_WINDOW":     "rate_limit.window",
	"LOG_LEVEL":             "logging.level",
	"LOG_FORMAT":            "logging.format",
	"CACHE_ENABLED":         "cache.enabled",
	"REDIS_ADDR":            "cache.redis_addr",
	"REDIS_PASSWORD":        "cache.redis_password",
	"REDIS_DB":              "cache.redis_db",
	"CACHE_TTL":             "cache.ttl",
	"TRACING_ENABLED":       "tracing.enabled",
	"TRACING_ENDPOINT":      "tracing.endpoint",
	"TRACING_ENVIRONMENT":   "tracing.environment",
	"EVENTS_ENABLED":        "events.enabled",
	"CATALOG_SEED_FILE":     "catalog.seed_file",
}

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port: "8080",
		},
		Database: DatabaseConfig{
			Path: "./checkin_offers.db",
		},
		Security: SecurityConfig{
			MaxRequestBodySize: 10 << 20, // 10MB default
			AllowedOrigins:     "*",
		},
		RateLimit: RateLimitConfig{
			Enabled: true,
			Rate:    100,
			Window:  60,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Cache: CacheConfig{
			Enabled: true,
			TTL:     300,
		},
		Tracing: TracingConfig{
			Endpoint:    "http://localhost:14268/api/traces",
			Environment: "development",
		},
		Events: EventsConfig{
			Enabled: true,
		},
	}
}

// LoadConfig loads configuration in three layers: defaults, then the optional
// config file (JSON or YAML), then environment variables, which may also come
// from a .env file in the working directory.
func LoadConfig(configFile string) (*Config, error) {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// The YAML parser also reads JSON documents.
	if configFile != "" {
		if err := k.Load(file.Provider(configFile), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	}

	if err := k.Load(env.ProviderWithValue("", ".", envValue), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	return cfg, nil
}

// envValue keeps only known, non-empty variables.
func envValue(key, value string) (string, interface{}) {
	path, ok := envKeys[key]
	if !ok || value == "" {
		return "", nil
	}
	return path, value
}

// AllowedOriginList splits the comma-separated CORS origins.
func (c *Config) AllowedOriginList() []string {
	var origins []string
	for _, o := range strings.Split(c.Security.AllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

// Validate validates the configuration and returns any errors.
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database path is required")
	}
	if c.Security.MaxRequestBodySize <= 0 {
		return fmt.Errorf("max request body size must be positive")
	}
	if c.RateLimit.Enabled {
		if c.RateLimit.Rate <= 0 {
			return fmt.Errorf("rate limit rate must be positive")
		}
		if c.RateLimit.Window <= 0 {
			return fmt.Errorf("rate limit window must be positive")
		}
	}
	if c.Logging.Format != "json" && c.Logging.Format != "console" {
		return fmt.Errorf("log format must be json or console, got %q", c.Logging.Format)
	}
	if c.Cache.Enabled && c.Cache.TTL <= 0 {
		return fmt.Errorf("cache ttl must be positive")
	}
	if c.Tracing.Enabled && c.Tracing.Endpoint == "" {
		return fmt.Errorf("tracing endpoint is required when tracing is enabled")
	}
	return nil
}
