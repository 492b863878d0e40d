package config

import (
	"errors"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// ErrMissingMongoURI is returned when MONGODB_URI is not set.
var ErrMissingMongoURI = errors.New("environment variable MONGODB_URI is required")

// Config holds application configuration
type Config struct {
	Server    ServerConfig
	MongoDB   MongoDBConfig
	Redis     RedisConfig
	Webhook   WebhookConfig
	Clerk     ClerkConfig
	RateLimit RateLimitConfig
	Relay     RelayConfig
}

type ServerConfig struct {
	Port            string
	Host            string
	Environment     string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

type MongoDBConfig struct {
	URI             string
	Database        string
	UsersCollection string
	Timeout         time.Duration
	ConnectAttempts int
	ConnectBackoff  time.Duration
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// WebhookConfig configures the identity-provider webhook endpoint.
// Secret is the Svix signing secret ("whsec_..."); an empty value makes every
// webhook request fail with a server error.
type WebhookConfig struct {
	Secret       string
	Path         string
	MaxBodyBytes int64
}

// ClerkConfig is used for the metadata write-back to the identity provider.
type ClerkConfig struct {
	SecretKey string
	APIURL    string
}

type RateLimitConfig struct {
	Enabled       bool
	UseRedis      bool
	RPS           float64
	Burst         int
	WindowSeconds int
}

// RelayConfig controls the background metadata write-back relay.
type RelayConfig struct {
	Enabled   bool
	Interval  time.Duration
	BatchSize int
	Lease     time.Duration
}

// LoadConfig loads configuration from environment variables and .env file
func LoadConfig() (*Config, error) {
	_ = godotenv.Load(".env")

	viper.AutomaticEnv()

	viper.SetDefault("SERVER_PORT", "5001")
	viper.SetDefault("SERVER_HOST", "0.0.0.0")
	viper.SetDefault("SERVER_ENVIRONMENT", "development")
	viper.SetDefault("SERVER_SHUTDOWN_TIMEOUT", 10)
	viper.SetDefault("MONGODB_DATABASE", "imaginify")
	viper.SetDefault("MONGODB_USERS_COLLECTION", "users")
	viper.SetDefault("MONGODB_TIMEOUT", 10)
	viper.SetDefault("MONGODB_CONNECT_ATTEMPTS", 5)
	viper.SetDefault("MONGODB_CONNECT_BACKOFF_MS", 1000)
	viper.SetDefault("REDIS_PORT", "6379")
	viper.SetDefault("WEBHOOK_PATH", "/api/webhooks/clerk")
	viper.SetDefault("WEBHOOK_MAX_BODY_BYTES", 1<<20)
	viper.SetDefault("RATE_LIMIT_ENABLED", false)
	viper.SetDefault("RATE_LIMIT_USE_REDIS", false)
	viper.SetDefault("RATE_LIMIT_RPS", 20)
	viper.SetDefault("RATE_LIMIT_BURST", 40)
	viper.SetDefault("RATE_LIMIT_WINDOW_SECONDS", 1)
	viper.SetDefault("RELAY_ENABLED", true)
	viper.SetDefault("RELAY_INTERVAL_MS", 5000)
	viper.SetDefault("RELAY_BATCH_SIZE", 25)
	viper.SetDefault("RELAY_LEASE_SECONDS", 60)

	cfg := &Config{
		Server: ServerConfig{
			Port:            viper.GetString("SERVER_PORT"),
			Host:            viper.GetString("SERVER_HOST"),
			Environment:     viper.GetString("SERVER_ENVIRONMENT"),
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: time.Duration(viper.GetInt("SERVER_SHUTDOWN_TIMEOUT")) * time.Second,
		},
		MongoDB: MongoDBConfig{
			URI:             os.Getenv("MONGODB_URI"),
			Database:        viper.GetString("MONGODB_DATABASE"),
			UsersCollection: viper.GetString("MONGODB_USERS_COLLECTION"),
			Timeout:         time.Duration(viper.GetInt("MONGODB_TIMEOUT")) * time.Second,
			ConnectAttempts: viper.GetInt("MONGODB_CONNECT_ATTEMPTS"),
			ConnectBackoff:  time.Duration(viper.GetInt("MONGODB_CONNECT_BACKOFF_MS")) * time.Millisecond,
		},
		Redis: RedisConfig{
			Host:     viper.GetString("REDIS_HOST"),
			Port:     viper.GetString("REDIS_PORT"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       viper.GetInt("REDIS_DB"),
		},
		Webhook: WebhookConfig{
			Secret:       os.Getenv("WEBHOOK_SECRET"),
			Path:         viper.GetString("WEBHOOK_PATH"),
			MaxBodyBytes: viper.GetInt64("WEBHOOK_MAX_BODY_BYTES"),
		},
		Clerk: ClerkConfig{
			SecretKey: os.Getenv("CLERK_SECRET_KEY"),
			APIURL:    viper.GetString("CLERK_API_URL"),
		},
		RateLimit: RateLimitConfig{
			Enabled:       viper.GetBool("RATE_LIMIT_ENABLED"),
			UseRedis:      viper.GetBool("RATE_LIMIT_USE_REDIS"),
			RPS:           viper.GetFloat64("RATE_LIMIT_RPS"),
			Burst:         viper.GetInt("RATE_LIMIT_BURST"),
			WindowSeconds: viper.GetInt("RATE_LIMIT_WINDOW_SECONDS"),
		},
		Relay: RelayConfig{
			Enabled:   viper.GetBool("RELAY_ENABLED"),
			Interval:  time.Duration(viper.GetInt("RELAY_INTERVAL_MS")) * time.Millisecond,
			BatchSize: viper.GetInt("RELAY_BATCH_SIZE"),
			Lease:     time.Duration(viper.GetInt("RELAY_LEASE_SECONDS")) * time.Second,
		},
	}

	if cfg.MongoDB.URI == "" {
		return nil, ErrMissingMongoURI
	}
	return cfg, nil
}
