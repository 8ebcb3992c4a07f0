package config

import (
	"fmt"     // DSN formatting
	"os"      // For environment variables
	"strconv" // For string to int conversion
	"time"    // Cache TTL

	"github.com/joho/godotenv" // For loading .env files
)

// Supported DB_DRIVER values
const (
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
	DriverMemory   = "memory"
)

// Config holds the application configuration
type Config struct {
	AppPort       string        // Application port
	DBDriver      string        // postgres, mysql or memory
	DBUser        string        // Database user
	DBPassword    string        // Database password
	DBHost        string        // Database host
	DBPort        string        // Database port
	DBName        string        // Database name
	DBSSLMode     string        // Postgres sslmode
	JWTSecret     string        // JWT secret key
	RedisAddr     string        // Redis server address, empty disables the cache
	RedisPass     string        // Redis password
	RedisDB       int           // Redis database number
	CacheTTL      time.Duration // Lifetime of cached balances and history pages
	NATSURL       string        // NATS server, empty disables events
	InvoiceScheme string        // legacy or unique
	LogLevel      string        // logrus level name
	IsProd        bool          // Is production environment
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	_ = godotenv.Load() // Load .env file if present
	return &Config{
		AppPort:       getEnv("APP_PORT", "8080"),                                    // Application port
		DBDriver:      getEnv("DB_DRIVER", DriverPostgres),                           // Database driver
		DBUser:        os.Getenv("DB_USER"),                                          // Database user
		DBPassword:    os.Getenv("DB_PASSWORD"),                                      // Database password
		DBHost:        getEnv("DB_HOST", "localhost"),                                // Database host
		DBPort:        os.Getenv("DB_PORT"),                                          // Database port, driver default when empty
		DBName:        os.Getenv("DB_NAME"),                                          // Database name
		DBSSLMode:     getEnv("DB_SSLMODE", "disable"),                               // Postgres sslmode
		JWTSecret:     os.Getenv("JWT_SECRET"),                                       // JWT secret key
		RedisAddr:     os.Getenv("REDIS_ADDR"),                                       // Redis server address
		RedisPass:     os.Getenv("REDIS_PASS"),                                       // Redis password
		RedisDB:       getInt("REDIS_DB", 0),                                         // Redis database number
		CacheTTL:      time.Duration(getInt("CACHE_TTL_SECONDS", 300)) * time.Second, // Cache TTL
		NATSURL:       os.Getenv("NATS_URL"),                                         // NATS server
		InvoiceScheme: getEnv("INVOICE_SCHEME", "unique"),                            // Invoice numbering
		LogLevel:      getEnv("LOG_LEVEL", "info"),                                   // Log level
		IsProd:        os.Getenv("IS_PROD") == "true",                                // Is production environment
	}
}

// Validate reports settings the server cannot start without
func (c *Config) Validate() error {
	switch c.DBDriver {
	case DriverPostgres, DriverMySQL:
		if c.DBName == "" {
			return fmt.Errorf("DB_NAME is required for driver %s", c.DBDriver)
		}
	case DriverMemory:
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	return nil
}

// DSN builds the data source name for the configured driver
func (c *Config) DSN() string {
	switch c.DBDriver {
	case DriverMySQL:
		port := c.DBPort
		if port == "" {
			port = "3306"
		}
		return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true&charset=utf8mb4&loc=UTC",
			c.DBUser, c.DBPassword, c.DBHost, port, c.DBName)
	default:
		port := c.DBPort
		if port == "" {
			port = "5432"
		}
		return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
			c.DBHost, c.DBUser, c.DBPassword, c.DBName, port, c.DBSSLMode)
	}
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	n, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return n
}
