// internal/infrastructure/config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Seat transports
const (
	TransportSSE       = "sse"
	TransportWebSocket = "websocket"
)

// Recovery backends
const (
	BackendFile     = "file"
	BackendRedis    = "redis"
	BackendMongo    = "mongo"
	BackendPostgres = "postgres"
)

// Config holds all configuration for the application
type Config struct {
	// App
	AppVersion string
	LogLevel   string

	// API
	APIBaseURL     string
	RequestTimeout time.Duration
	APIRateLimit   float64
	APIRateBurst   int
	AuthToken      string

	// Seat channel
	SeatStreamURL string
	SeatTransport string

	// Booking and payment
	MaxSeatsPerBooking int
	PaymentCurrency    string

	// Recovery
	RecoveryBackend string
	RecoveryFile    string

	// Redis
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// MongoDB
	MongoURI      string
	MongoDB       string
	MongoUser     string
	MongoPassword string

	// PostgreSQL
	PostgresURI string

	// Metrics
	MetricsPort string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	// Load .env file if it exists
	godotenv.Load()

	// Set defaults and override with env vars
	config := &Config{
		AppVersion: getEnv("APP_VERSION", "1.0.0"),
		LogLevel:   getEnv("LOG_LEVEL", "info"),

		APIBaseURL:     strings.TrimRight(getEnv("API_BASE_URL", "http://localhost:8080/api"), "/"),
		RequestTimeout: getEnvAsDuration("REQUEST_TIMEOUT", 30*time.Second),
		APIRateLimit:   float64(getEnvAsInt("API_RATE_LIMIT", 10)),
		APIRateBurst:   getEnvAsInt("API_RATE_BURST", 5),
		AuthToken:      getEnv("AUTH_TOKEN", ""),

		SeatStreamURL: getEnv("SEAT_STREAM_URL", "http://localhost:8080/api/sse/seat-updates"),
		SeatTransport: strings.ToLower(getEnv("SEAT_TRANSPORT", TransportSSE)),

		MaxSeatsPerBooking: getEnvAsInt("MAX_SEATS_PER_BOOKING", 5),
		PaymentCurrency:    strings.ToUpper(getEnv("PAYMENT_CURRENCY", "RWF")),

		RecoveryBackend: strings.ToLower(getEnv("RECOVERY_BACKEND", BackendFile)),
		RecoveryFile:    getEnv("RECOVERY_FILE", "./.inzira/lastBooking.json"),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvAsInt("REDIS_DB", 0),

		MongoURI:      getEnv("MONGODB_DSN", "mongodb://localhost:27017"),
		MongoDB:       getEnv("MONGO_DB", "inzira"),
		MongoUser:     getEnv("MONGO_USER", ""),
		MongoPassword: getEnv("MONGO_PASSWORD", ""),

		PostgresURI: getEnv("POSTGRES_DSN", "postgres://localhost:5432/inzira?sslmode=disable"),

		MetricsPort: os.Getenv("METRICS_PORT"),
	}
	if _, set := os.LookupEnv("METRICS_PORT"); !set {
		config.MetricsPort = "9090"
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate rejects settings the client cannot run with
func (c *Config) Validate() error {
	switch c.SeatTransport {
	case TransportSSE, TransportWebSocket:
	default:
		return fmt.Errorf("unknown SEAT_TRANSPORT %q", c.SeatTransport)
	}

	switch c.RecoveryBackend {
	case BackendFile, BackendRedis, BackendMongo, BackendPostgres:
	default:
		return fmt.Errorf("unknown RECOVERY_BACKEND %q", c.RecoveryBackend)
	}

	if c.MaxSeatsPerBooking <= 0 {
		return fmt.Errorf("MAX_SEATS_PER_BOOKING must be positive, got %d", c.MaxSeatsPerBooking)
	}
	if c.APIRateLimit <= 0 || c.APIRateBurst <= 0 {
		return fmt.Errorf("API_RATE_LIMIT and API_RATE_BURST must be positive")
	}
	if c.APIBaseURL == "" {
		return fmt.Errorf("API_BASE_URL is required")
	}
	return nil
}

// Helper functions to get environment variables
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsDuration accepts plain seconds ("30") or a Go duration ("1m30s")
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if seconds, err := strconv.Atoi(valueStr); err == nil {
		return time.Duration(seconds) * time.Second
	}
	if d, err := time.ParseDuration(valueStr); err == nil {
		return d
	}
	return defaultValue
}
