package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

func init() {
	// Load .env file if it exists (silent fail if not)
	_ = godotenv.Load()
}

// Config holds all application configuration loaded from environment variables.
type Config struct {
	Server   ServerConfig
	App      AppConfig
	Cache    CacheConfig
	MarketDB MarketDBConfig
	Market   MarketConfig
	Auth     AuthConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `envconfig:"SERVER_HOST" default:"0.0.0.0"`
	Port            int           `envconfig:"SERVER_PORT" default:"8080"`
	ReadTimeout     time.Duration `envconfig:"SERVER_READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `envconfig:"SERVER_WRITE_TIMEOUT" default:"30s"`
	ShutdownTimeout time.Duration `envconfig:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`
}

// AppConfig holds application-level settings.
type AppConfig struct {
	Name        string `envconfig:"APP_NAME" default:"itemmarket-api"`
	Environment string `envconfig:"APP_ENV" default:"development"`
	Debug       bool   `envconfig:"APP_DEBUG" default:"false"`
	Version     string `envconfig:"APP_VERSION" default:"1.0.0"`
}

// CacheConfig holds cache and Redis settings.
type CacheConfig struct {
	TTL time.Duration `envconfig:"CACHE_TTL" default:"30s"`

	RedisHost     string `envconfig:"REDIS_HOST" default:"localhost"`
	RedisPort     int    `envconfig:"REDIS_PORT" default:"6379"`
	RedisPassword string `envconfig:"REDIS_PASSWORD" default:""`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`
}

// MarketDBConfig holds market database settings.
type MarketDBConfig struct {
	Type string `envconfig:"MARKET_DB_TYPE" default:"sqlite"` // sqlite, postgres, mysql, or memory
	Path string `envconfig:"MARKET_DB_PATH" default:"./data/market.db"`
	// PostgreSQL / MySQL settings
	Host     string `envconfig:"MARKET_DB_HOST" default:"localhost"`
	Port     int    `envconfig:"MARKET_DB_PORT" default:"0"`
	Name     string `envconfig:"MARKET_DB_NAME" default:"itemmarket"`
	User     string `envconfig:"MARKET_DB_USER" default:""`
	Password string `envconfig:"MARKET_DB_PASS" default:""`
	SSLMode  string `envconfig:"MARKET_DB_SSLMODE" default:"disable"`
}

// MarketConfig holds marketplace behavior settings.
type MarketConfig struct {
	SweepInterval time.Duration `envconfig:"MARKET_SWEEP_INTERVAL" default:"10m"`
	SweepTimeout  time.Duration `envconfig:"MARKET_SWEEP_TIMEOUT" default:"1m"`
	PageSize      int           `envconfig:"MARKET_PAGE_SIZE" default:"45"`
	MaxRecent     int           `envconfig:"MARKET_MAX_RECENT" default:"100"`
}

// AuthConfig holds host authentication settings.
type AuthConfig struct {
	APIKeys string `envconfig:"API_KEYS" default:""` // comma-separated host API keys
}

// Keys returns the configured API keys as a slice.
func (a *AuthConfig) Keys() []string {
	if a.APIKeys == "" {
		return nil
	}
	keys := strings.Split(a.APIKeys, ",")
	for i := range keys {
		keys[i] = strings.TrimSpace(keys[i])
	}
	return keys
}

// PostgresDSN returns the PostgreSQL connection string.
func (m *MarketDBConfig) PostgresDSN() string {
	port := m.Port
	if port == 0 {
		port = 5432
	}
	user := m.User
	if user == "" {
		user = "postgres"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		user, m.Password, m.Host, port, m.Name, m.SSLMode)
}

// MySQLDSN returns the MySQL data source name.
func (m *MarketDBConfig) MySQLDSN() string {
	port := m.Port
	if port == 0 {
		port = 3306
	}
	user := m.User
	if user == "" {
		user = "root"
	}
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true",
		user, m.Password, m.Host, port, m.Name)
}

// Address returns the server address in host:port format.
func (s *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// RedisAddress returns the Redis address in host:port format.
func (c *CacheConfig) RedisAddress() string {
	return fmt.Sprintf("%s:%d", c.RedisHost, c.RedisPort)
}

// IsDevelopment returns true if running in development mode.
func (a *AppConfig) IsDevelopment() bool {
	return a.Environment == "development"
}

// IsProduction returns true if running in production mode.
func (a *AppConfig) IsProduction() bool {
	return a.Environment == "production"
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config

	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return &cfg, nil
}

// MustLoad loads configuration or panics on error.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}
