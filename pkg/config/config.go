package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Logger   LoggerConfig
	Engine   EngineConfig
	AI       AIConfig
	App      AppConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
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

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// LoggerConfig holds logging configuration
type LoggerConfig struct {
	Level  string
	Format string // json or text
}

// EngineConfig holds workflow engine configuration
type EngineConfig struct {
	NodeTimeout       time.Duration
	DefaultDelay      time.Duration
	IntegrationMocked bool
}

// AIConfig holds AI provider routing configuration
type AIConfig struct {
	Providers   []ProviderConfig
	MaxAttempts int
	Timeout     time.Duration
}

// ProviderConfig holds per-provider credentials and limits. Loaded once at
// process start; read-only afterward.
type ProviderConfig struct {
	Name              string
	APIKey            string
	BaseURL           string
	Models            []string
	MaxTokens         int
	RequestsPerSecond int
}

// AppConfig holds application-specific configuration
type AppConfig struct {
	Environment string
	Version     string
	Name        string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			Port:            getEnvAsInt("SERVER_PORT", 8080),
			ReadTimeout:     getEnvAsDuration("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    getEnvAsDuration("SERVER_WRITE_TIMEOUT", 15*time.Second),
			ShutdownTimeout: getEnvAsDuration("SERVER_SHUTDOWN_TIMEOUT", 30*time.Second),
		},
		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", ""),
			Port:            getEnvAsInt("DB_PORT", 5432),
			User:            getEnv("DB_USER", "postgres"),
			Password:        getEnv("DB_PASSWORD", "postgres"),
			Database:        getEnv("DB_NAME", "flowmesh"),
			SSLMode:         getEnv("DB_SSL_MODE", "disable"),
			MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", ""),
			Port:     getEnvAsInt("REDIS_PORT", 6379),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Logger: LoggerConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Engine: EngineConfig{
			NodeTimeout:       getEnvAsDuration("ENGINE_NODE_TIMEOUT", 30*time.Second),
			DefaultDelay:      getEnvAsDuration("ENGINE_DEFAULT_DELAY", time.Second),
			IntegrationMocked: getEnvAsBool("ENGINE_INTEGRATIONS_MOCKED", false),
		},
		AI: AIConfig{
			Providers:   loadProviders(),
			MaxAttempts: getEnvAsInt("AI_MAX_ATTEMPTS", 3),
			Timeout:     getEnvAsDuration("AI_TIMEOUT", 60*time.Second),
		},
		App: AppConfig{
			Environment: getEnv("APP_ENV", "development"),
			Version:     getEnv("APP_VERSION", "0.1.0"),
			Name:        getEnv("APP_NAME", "flowmesh"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// loadProviders reads provider credentials from the environment. A provider
// with no API key is considered unconfigured and omitted.
func loadProviders() []ProviderConfig {
	var providers []ProviderConfig

	if key := os.Getenv("ANTHROPIC_API_KEY"); key != "" {
		providers = append(providers, ProviderConfig{
			Name:              "anthropic",
			APIKey:            key,
			BaseURL:           getEnv("ANTHROPIC_BASE_URL", ""),
			Models:            getEnvAsSlice("ANTHROPIC_MODELS", []string{"claude-3-5-sonnet-20241022", "claude-3-5-haiku-20241022"}),
			MaxTokens:         getEnvAsInt("ANTHROPIC_MAX_TOKENS", 8192),
			RequestsPerSecond: getEnvAsInt("ANTHROPIC_RPS", 10),
		})
	}

	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		providers = append(providers, ProviderConfig{
			Name:              "openai",
			APIKey:            key,
			BaseURL:           getEnv("OPENAI_BASE_URL", ""),
			Models:            getEnvAsSlice("OPENAI_MODELS", []string{"gpt-4o", "gpt-4o-mini"}),
			MaxTokens:         getEnvAsInt("OPENAI_MAX_TOKENS", 16384),
			RequestsPerSecond: getEnvAsInt("OPENAI_RPS", 10),
		})
	}

	return providers
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	// An empty database or redis host disables that subsystem rather than
	// failing startup; the engine degrades to in-memory operation.
	if c.Database.Host != "" && c.Database.Database == "" {
		return fmt.Errorf("database name is required")
	}

	if c.AI.MaxAttempts <= 0 {
		return fmt.Errorf("ai max attempts must be positive: %d", c.AI.MaxAttempts)
	}

	return nil
}

// DatabaseDSN returns the PostgreSQL connection string
func (c *Config) DatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Database,
		c.Database.SSLMode,
	)
}

// RedisAddr returns the Redis address
func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		return parts
	}
	return defaultValue
}
