package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Kafka     KafkaConfig
	Inventory InventoryConfig
	Loyalty   LoyaltyConfig
	Checkout  CheckoutConfig
	OTP       OTPConfig
	Logger    LoggerConfig
	Auth      AuthConfig
}

// ServerConfig holds server-related configuration.
type ServerConfig struct {
	Host string
	Port int
}

// DatabaseConfig holds database-related configuration.
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	Database        string
	MaxConnections  int
	MinConnections  int
	MaxConnLifetime int // seconds
	MigrationsPath  string
}

// RedisConfig holds the connection settings for the OTP challenge store.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// KafkaConfig holds the notification channel settings. An empty broker
// list disables publishing (codes are only logged).
type KafkaConfig struct {
	Brokers string // comma-separated
	Topic   string
}

// InventoryConfig holds settings for the live-inventory lookup client.
type InventoryConfig struct {
	BaseURL string
	Timeout time.Duration
}

// LoyaltyConfig holds loyalty service settings and redemption constants.
type LoyaltyConfig struct {
	BaseURL       string
	Timeout       time.Duration
	PointValue    decimal.Decimal // currency value of one point
	RetryAttempts int             // bounded retries for the authoritative balance fetch
	RetryDelay    time.Duration
}

// CheckoutConfig holds per-order constants.
type CheckoutConfig struct {
	DeliveryFee decimal.Decimal // flat rate per order
}

// OTPConfig holds passcode issue/verify settings.
type OTPConfig struct {
	TTL        time.Duration
	CodeLength int
}

// LoggerConfig holds logger-related configuration.
type LoggerConfig struct {
	Level  string
	Format string // "json" or "console"
}

// AuthConfig holds authentication configuration.
type AuthConfig struct {
	APIKey string
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
			Port: getEnvAsInt("SERVER_PORT", 8080),
		},
		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnvAsInt("DB_PORT", 5432),
			User:            getEnv("DB_USER", "postgres"),
			Password:        getEnv("DB_PASSWORD", ""),
			Database:        getEnv("DB_NAME", "petkart"),
			MaxConnections:  getEnvAsInt("DB_MAX_CONNECTIONS", 25),
			MinConnections:  getEnvAsInt("DB_MIN_CONNECTIONS", 5),
			MaxConnLifetime: getEnvAsInt("DB_MAX_CONN_LIFETIME", 300),
			MigrationsPath:  getEnv("DB_MIGRATIONS_PATH", "migrations"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Kafka: KafkaConfig{
			Brokers: getEnv("KAFKA_BROKERS", ""),
			Topic:   getEnv("KAFKA_OTP_TOPIC", "petkart.notifications.otp"),
		},
		Inventory: InventoryConfig{
			BaseURL: getEnv("INVENTORY_BASE_URL", "http://localhost:8081"),
			Timeout: getEnvAsDuration("INVENTORY_TIMEOUT", 5*time.Second),
		},
		Loyalty: LoyaltyConfig{
			BaseURL:       getEnv("LOYALTY_BASE_URL", "http://localhost:8082"),
			Timeout:       getEnvAsDuration("LOYALTY_TIMEOUT", 5*time.Second),
			PointValue:    getEnvAsDecimal("LOYALTY_POINT_VALUE", decimal.NewFromInt(10)),
			RetryAttempts: getEnvAsInt("LOYALTY_RETRY_ATTEMPTS", 5),
			RetryDelay:    getEnvAsDuration("LOYALTY_RETRY_DELAY", 2*time.Second),
		},
		Checkout: CheckoutConfig{
			DeliveryFee: getEnvAsDecimal("DELIVERY_FEE", decimal.NewFromInt(300)),
		},
		OTP: OTPConfig{
			TTL:        getEnvAsDuration("OTP_TTL", 5*time.Minute),
			CodeLength: getEnvAsInt("OTP_CODE_LENGTH", 6),
		},
		Logger: LoggerConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Auth: AuthConfig{
			APIKey: getEnv("API_KEY", ""),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}

	if c.Database.Port < 1 || c.Database.Port > 65535 {
		return fmt.Errorf("invalid database port: %d", c.Database.Port)
	}

	if c.Database.User == "" {
		return fmt.Errorf("database user is required")
	}

	if c.Database.Database == "" {
		return fmt.Errorf("database name is required")
	}

	if c.Database.MaxConnections < 1 {
		return fmt.Errorf("database max connections must be at least 1")
	}

	if c.Database.MinConnections < 1 {
		return fmt.Errorf("database min connections must be at least 1")
	}

	if c.Database.MinConnections > c.Database.MaxConnections {
		return fmt.Errorf("database min connections cannot exceed max connections")
	}

	if c.Redis.Addr == "" {
		return fmt.Errorf("redis address is required")
	}

	if c.Inventory.BaseURL == "" {
		return fmt.Errorf("inventory base URL is required")
	}

	if c.Loyalty.BaseURL == "" {
		return fmt.Errorf("loyalty base URL is required")
	}

	if !c.Loyalty.PointValue.IsPositive() {
		return fmt.Errorf("loyalty point value must be positive")
	}

	if c.Loyalty.RetryAttempts < 1 {
		return fmt.Errorf("loyalty retry attempts must be at least 1")
	}

	if c.Checkout.DeliveryFee.IsNegative() {
		return fmt.Errorf("delivery fee cannot be negative")
	}

	if c.OTP.TTL <= 0 {
		return fmt.Errorf("OTP TTL must be positive")
	}

	if c.OTP.CodeLength != 6 {
		return fmt.Errorf("OTP code length must be 6, got %d", c.OTP.CodeLength)
	}

	if c.Auth.APIKey == "" {
		return fmt.Errorf("API key is required")
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}

	if !validLogLevels[c.Logger.Level] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	if c.Logger.Format != "json" && c.Logger.Format != "console" {
		return fmt.Errorf("invalid log format: %s (must be json or console)", c.Logger.Format)
	}

	return nil
}

// ConnectionString returns the PostgreSQL connection string.
func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.User,
		c.Password,
		c.Host,
		c.Port,
		c.Database,
	)
}

// Address returns the server address.
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// getEnv retrieves an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value.
func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvAsDuration retrieves an environment variable as a duration or returns a default value.
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// getEnvAsDecimal retrieves an environment variable as a decimal or returns a default value.
func getEnvAsDecimal(key string, defaultValue decimal.Decimal) decimal.Decimal {
	if value := os.Getenv(key); value != "" {
		if d, err := decimal.NewFromString(value); err == nil {
			return d
		}
	}
	return defaultValue
}
