package config

import (
	"os"
	"strconv"
	"time"

	"gatepass/internal/cache"
	"gatepass/internal/database"
	"gatepass/internal/external"
	"gatepass/internal/messaging"
	"gatepass/internal/scheduler"
	"gatepass/internal/search"
	"gatepass/internal/storage"
)

// Config holds the application configuration
type Config struct {
	Port           string
	GinMode        string
	LogLevel       string
	LogFormat      string
	RequestTimeout time.Duration

	// OfferDuration is the purchase window granted with a waiting-list offer
	OfferDuration time.Duration
	// ReaperInterval is how often the worker sweeps for stale offers
	ReaperInterval time.Duration

	Database  database.Config
	Redis     cache.Config
	Scheduler scheduler.Config
	NATS      messaging.Config
	Search    search.Config
	Storage   storage.Config
	Payment   external.PaymentConfig
}

// Load builds the configuration from environment variables
func Load() *Config {
	return &Config{
		Port:           getEnv("PORT", "8080"),
		GinMode:        getEnv("GIN_MODE", "debug"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogFormat:      getEnv("LOG_FORMAT", "json"),
		RequestTimeout: time.Duration(getEnvInt("REQUEST_TIMEOUT_SEC", 30)) * time.Second,

		OfferDuration:  time.Duration(getEnvInt("OFFER_DURATION_MIN", 15)) * time.Minute,
		ReaperInterval: time.Duration(getEnvInt("REAPER_INTERVAL_SEC", 30)) * time.Second,

		Database: database.Config{
			Host:               getEnv("DB_HOST", "localhost"),
			Port:               getEnvInt("DB_PORT", 5432),
			User:               getEnv("DB_USER", "gatepass"),
			Password:           getEnv("DB_PASSWORD", "gatepass"),
			DBName:             getEnv("DB_NAME", "gatepass"),
			SSLMode:            getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:       getEnvInt("DB_MAX_OPEN_CONNS", 50),
			MaxIdleConns:       getEnvInt("DB_MAX_IDLE_CONNS", 10),
			ConnMaxLifetimeMin: getEnvInt("DB_CONN_MAX_LIFETIME_MIN", 5),
			ConnMaxIdleTimeMin: getEnvInt("DB_CONN_MAX_IDLE_TIME_MIN", 1),
		},

		Redis: cache.Config{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
			ListTTL:  time.Duration(getEnvInt("EVENTS_CACHE_TTL_SEC", 60)) * time.Second,
		},

		Scheduler: scheduler.Config{
			RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
			RedisPassword: getEnv("REDIS_PASSWORD", ""),
			RedisDB:       getEnvInt("SCHEDULER_REDIS_DB", 1),
			Concurrency:   getEnvInt("SCHEDULER_CONCURRENCY", 10),
		},

		NATS: messaging.Config{
			URL:       getEnv("NATS_URL", "nats://localhost:4222"),
			ClusterID: getEnv("NATS_CLUSTER_ID", "gatepass"),
			ClientID:  getEnv("NATS_CLIENT_ID", "gatepass-api"),
		},

		Search: search.Config{
			URL:        getEnv("ELASTICSEARCH_URL", ""),
			Username:   getEnv("ELASTICSEARCH_USERNAME", ""),
			Password:   getEnv("ELASTICSEARCH_PASSWORD", ""),
			Index:      getEnv("ELASTICSEARCH_INDEX", "events"),
			MaxRetries: getEnvInt("ELASTICSEARCH_MAX_RETRIES", 3),
		},

		Storage: storage.Config{
			Bucket:          getEnv("S3_BUCKET", "gatepass-images"),
			Region:          getEnv("S3_REGION", "us-east-1"),
			Endpoint:        getEnv("S3_ENDPOINT", ""),
			AccessKeyID:     getEnv("S3_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("S3_SECRET_ACCESS_KEY", ""),
			PresignTTL:      time.Duration(getEnvInt("S3_PRESIGN_TTL_MIN", 15)) * time.Minute,
		},

		Payment: external.PaymentConfig{
			BaseURL:       getEnv("PAYMENT_GATEWAY_URL", "https://api.razorpay.com"),
			KeyID:         getEnv("PAYMENT_KEY_ID", ""),
			KeySecret:     getEnv("PAYMENT_KEY_SECRET", ""),
			WebhookSecret: getEnv("PAYMENT_WEBHOOK_SECRET", ""),
			Currency:      getEnv("PAYMENT_CURRENCY", "INR"),
			Timeout:       time.Duration(getEnvInt("PAYMENT_TIMEOUT_SEC", 30)) * time.Second,
		},
	}
}

// getEnv reads an environment variable with a fallback default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt reads an integer environment variable with a fallback default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
