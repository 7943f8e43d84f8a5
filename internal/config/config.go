package config

import (
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	// Server
	Port string

	// Database
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// JWT
	JWTSecret        string
	JWTExpirationDur time.Duration

	// Redis (metal price cache)
	RedisURL string

	// Metal price fetching
	PriceAPIURL     string
	PriceAPIKey     string
	PriceTimeout    time.Duration
	PriceCacheTTL   time.Duration
	ReportingCurrency string

	// Field encryption key (hex, 32 bytes) for notes and audit payloads
	FieldKey string

	// Hawl detection scan
	ScanInterval time.Duration
}

var appConfig *Config

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if not already loaded
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	config := &Config{
		// Server
		Port: getEnv("PORT", "8080"),

		// Database
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "hawltrack"),
		DBPassword: getEnv("DB_PASSWORD", "hawltrack"),
		DBName:     getEnv("DB_NAME", "hawltrack"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		// JWT
		JWTSecret: getEnv("JWT_SECRET", "fallback-secret-key-for-dev-only"),

		RedisURL: getEnv("REDIS_URL", "redis://localhost:6379/0"),

		PriceAPIURL:       getEnv("PRICE_API_URL", "https://api.metals.dev/v1/latest"),
		PriceAPIKey:       getEnv("PRICE_API_KEY", ""),
		ReportingCurrency: getEnv("REPORTING_CURRENCY", "USD"),

		FieldKey: getEnv("FIELD_ENCRYPTION_KEY", ""),
	}

	config.JWTExpirationDur = getDuration("JWT_EXPIRES_IN", 24*time.Hour)
	config.PriceTimeout = getDuration("PRICE_TIMEOUT", 3*time.Second)
	config.PriceCacheTTL = getDuration("PRICE_CACHE_TTL", 24*time.Hour)
	config.ScanInterval = getDuration("SCAN_INTERVAL", time.Hour)

	appConfig = config
	return config, nil
}

// Get returns the application configuration
func Get() *Config {
	if appConfig == nil {
		var err error
		appConfig, err = Load()
		if err != nil {
			log.Fatalf("Failed to load configuration: %v", err)
		}
	}
	return appConfig
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getDuration parses a duration environment variable, falling back to the
// default when unset or malformed.
func getDuration(key string, defaultValue time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		log.Printf("Warning: invalid %s value '%s', falling back to %s\n", key, raw, defaultValue)
		return defaultValue
	}
	return d
}
