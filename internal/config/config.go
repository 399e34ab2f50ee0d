// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for our application
type Config struct {
	App         AppConfig
	Server      ServerConfig
	Database    DatabaseConfig
	Redis       RedisConfig
	JWT         JWTConfig
	Security    SecurityConfig
	MercadoPago MercadoPagoConfig
	Checkout    CheckoutConfig
	Receipt     ReceiptConfig
	Seed        SeedConfig
	Logging     LoggingConfig
}

// AppConfig contains application-level configuration
type AppConfig struct {
	Name        string
	Version     string
	Environment string
	Debug       bool
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
	MaxBodyBytes int64
}

// DatabaseConfig contains database connection configuration
type DatabaseConfig struct {
	Host         string
	Port         string
	Name         string
	User         string
	Password     string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
	MaxLifetime  time.Duration
}

// RedisConfig contains Redis configuration
type RedisConfig struct {
	Host         string
	Port         string
	Password     string
	DB           int
	PoolSize     int
	MinIdleConns int
}

// JWTConfig contains JWT token configuration
type JWTConfig struct {
	Secret             string
	AccessTokenExpiry  time.Duration
	RefreshTokenExpiry time.Duration
}

// SecurityConfig contains security-related configuration
type SecurityConfig struct {
	BcryptCost         int
	RateLimitPerMinute int
	CORSAllowedOrigins []string
	CORSAllowedMethods []string
	CORSAllowedHeaders []string
	TrustedProxies     []string
}

// MercadoPagoConfig contains payment provider configuration
type MercadoPagoConfig struct {
	AccessToken         string
	BaseURL             string
	StatementDescriptor string
	Timeout             time.Duration
	BreakerMaxFailures  uint32
	BreakerOpenTimeout  time.Duration
}

// CheckoutConfig contains order and payment flow configuration
type CheckoutConfig struct {
	// BackendURL is the public base URL the provider calls back into.
	BackendURL string
	// FrontendRedirectBase receives the shopper after checkout, e.g. electrostore://payment
	FrontendRedirectBase string
	OrderCodePrefix      string
	DeliveryZones        []DeliveryZone
}

// DeliveryZone is a (region, sub-region) pair eligible for delivery
type DeliveryZone struct {
	Region    string
	SubRegion string
}

// ReceiptConfig contains data printed on order receipts
type ReceiptConfig struct {
	CompanyName    string
	CompanyAddress string
	CompanyEmail   string
}

// SeedConfig contains the development admin account created on startup
type SeedConfig struct {
	AdminEmail    string
	AdminPassword string
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string
	Format string
}

// Load loads configuration from environment variables and .env file
func Load() (*Config, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		fmt.Println("No .env file found, using environment variables")
	}

	config := &Config{
		App: AppConfig{
			Name:        getEnv("APP_NAME", "ElectroStore API"),
			Version:     getEnv("APP_VERSION", "1.0.0"),
			Environment: getEnv("APP_ENV", "development"),
			Debug:       getEnvAsBool("APP_DEBUG", true),
		},
		Server: ServerConfig{
			Port:         getEnv("APP_PORT", "8080"),
			ReadTimeout:  getEnvAsDuration("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout: getEnvAsDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
			IdleTimeout:  getEnvAsDuration("SERVER_IDLE_TIMEOUT", 60*time.Second),
			MaxBodyBytes: getEnvAsInt64("SERVER_MAX_BODY_BYTES", 1<<20),
		},
		Database: DatabaseConfig{
			Host:         getEnv("DB_HOST", "localhost"),
			Port:         getEnv("DB_PORT", "5432"),
			Name:         getEnv("DB_NAME", "electrostore"),
			User:         getEnv("DB_USER", "electrostore"),
			Password:     getEnv("DB_PASSWORD", "electrostore"),
			SSLMode:      getEnv("DB_SSL_MODE", "disable"),
			MaxOpenConns: getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns: getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
			MaxLifetime:  getEnvAsDuration("DB_MAX_LIFETIME", 300*time.Second),
		},
		Redis: RedisConfig{
			Host:         getEnv("REDIS_HOST", "localhost"),
			Port:         getEnv("REDIS_PORT", "6379"),
			Password:     getEnv("REDIS_PASSWORD", ""),
			DB:           getEnvAsInt("REDIS_DB", 0),
			PoolSize:     getEnvAsInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: getEnvAsInt("REDIS_MIN_IDLE_CONNS", 5),
		},
		JWT: JWTConfig{
			Secret:             getEnv("JWT_SECRET", "change-me-change-me-change-me-change-me"),
			AccessTokenExpiry:  getEnvAsDuration("JWT_ACCESS_EXPIRE", 15*time.Minute),
			RefreshTokenExpiry: getEnvAsDuration("JWT_REFRESH_EXPIRE", 15*24*time.Hour),
		},
		Security: SecurityConfig{
			BcryptCost:         getEnvAsInt("BCRYPT_COST", 12),
			RateLimitPerMinute: getEnvAsInt("RATE_LIMIT_PER_MINUTE", 120),
			CORSAllowedOrigins: getEnvAsSlice("CORS_ALLOWED_ORIGINS", []string{"*"}),
			CORSAllowedMethods: getEnvAsSlice("CORS_ALLOWED_METHODS", []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
			CORSAllowedHeaders: getEnvAsSlice("CORS_ALLOWED_HEADERS", []string{"Origin", "Content-Type", "Accept", "Authorization"}),
			TrustedProxies:     getEnvAsSlice("TRUSTED_PROXIES", []string{}),
		},
		MercadoPago: MercadoPagoConfig{
			AccessToken:         getEnv("MERCADOPAGO_ACCESS_TOKEN", ""),
			BaseURL:             getEnv("MERCADOPAGO_BASE_URL", "https://api.mercadopago.com"),
			StatementDescriptor: getEnv("MERCADOPAGO_STATEMENT_DESCRIPTOR", "ELECTROSTORE"),
			Timeout:             getEnvAsDuration("MERCADOPAGO_TIMEOUT", 10*time.Second),
			BreakerMaxFailures:  uint32(getEnvAsInt("MERCADOPAGO_BREAKER_MAX_FAILURES", 5)),
			BreakerOpenTimeout:  getEnvAsDuration("MERCADOPAGO_BREAKER_OPEN_TIMEOUT", 30*time.Second),
		},
		Checkout: CheckoutConfig{
			BackendURL:           strings.TrimRight(getEnv("BACKEND_URL", "http://localhost:8080"), "/"),
			FrontendRedirectBase: strings.TrimRight(getEnv("FRONTEND_REDIRECT_BASE", "electrostore://payment"), "/"),
			OrderCodePrefix:      getEnv("ORDER_CODE_PREFIX", "PED"),
			DeliveryZones:        ParseDeliveryZones(getEnv("DELIVERY_ZONES", "Lima:Lima,Lima:Callao")),
		},
		Receipt: ReceiptConfig{
			CompanyName:    getEnv("COMPANY_NAME", "ElectroStore"),
			CompanyAddress: getEnv("COMPANY_ADDRESS", ""),
			CompanyEmail:   getEnv("COMPANY_EMAIL", "ventas@electrostore.pe"),
		},
		Seed: SeedConfig{
			AdminEmail:    getEnv("SEED_ADMIN_EMAIL", "admin@electrostore.pe"),
			AdminPassword: getEnv("SEED_ADMIN_PASSWORD", "Admin2024x"),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	// Validate configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if len(c.JWT.Secret) < 32 {
		return fmt.Errorf("JWT_SECRET must be at least 32 characters long")
	}

	if c.Database.Host == "" {
		return fmt.Errorf("DB_HOST is required")
	}
	if c.Database.Name == "" {
		return fmt.Errorf("DB_NAME is required")
	}
	if c.Database.User == "" {
		return fmt.Errorf("DB_USER is required")
	}

	if c.Redis.Host == "" {
		return fmt.Errorf("REDIS_HOST is required")
	}

	if c.Server.Port == "" {
		return fmt.Errorf("APP_PORT is required")
	}

	if len(c.Checkout.OrderCodePrefix) != 3 {
		return fmt.Errorf("ORDER_CODE_PREFIX must be exactly 3 characters")
	}

	if c.IsProduction() && c.MercadoPago.AccessToken == "" {
		return fmt.Errorf("MERCADOPAGO_ACCESS_TOKEN is required in production")
	}

	return nil
}

// IsDevelopment returns true if the application is running in development mode
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

// IsProduction returns true if the application is running in production mode
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// GetDatabaseDSN returns the database connection string
func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// GetRedisAddr returns the Redis address
func (c *Config) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", c.Redis.Host, c.Redis.Port)
}

// IsDeliverable reports whether region/subRegion is one of the configured zones.
// Matching is case-insensitive and ignores surrounding whitespace.
func (c CheckoutConfig) IsDeliverable(region, subRegion string) bool {
	region = strings.ToLower(strings.TrimSpace(region))
	subRegion = strings.ToLower(strings.TrimSpace(subRegion))
	for _, zone := range c.DeliveryZones {
		if strings.ToLower(zone.Region) == region && strings.ToLower(zone.SubRegion) == subRegion {
			return true
		}
	}
	return false
}

// ParseDeliveryZones parses "Region:SubRegion,Region:SubRegion" into zones.
// Malformed entries are skipped.
func ParseDeliveryZones(raw string) []DeliveryZone {
	var zones []DeliveryZone
	for _, entry := range strings.Split(raw, ",") {
		parts := strings.SplitN(entry, ":", 2)
		if len(parts) != 2 {
			continue
		}
		region := strings.TrimSpace(parts[0])
		subRegion := strings.TrimSpace(parts[1])
		if region == "" || subRegion == "" {
			continue
		}
		zones = append(zones, DeliveryZone{Region: region, SubRegion: subRegion})
	}
	return zones
}

// Helper functions for environment variable parsing

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
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

func getEnvAsSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		return strings.Split(value, ",")
	}
	return defaultValue
}
