// Package config centralizes how FreshKeep reads environment variables and
// exposes them as strongly typed Go values.
package config

import (
	"crypto/rand"
	"encoding/hex"
	"os"
	"strconv"
	"time"
)

// Config represents runtime configuration for the service.
type Config struct {
	Address string

	// Image upload limits.
	MaxImageBytes int64
	ImageDir      string

	// Classifier endpoints; externalized instead of hard-coded.
	PredictURL       string
	PredictBase64URL string
	MinConfidence    float64

	// Expiry watcher.
	CheckInterval time.Duration
	ExpiringDays  int

	// Native notification channel; empty means toast-only.
	WebhookURL string

	// Signed local image URLs.
	SigningSecret []byte
	SignedURLTTL  time.Duration

	// Durable stack.
	DatabaseURL   string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	WorkerCount   int

	// Object storage for item photos.
	S3Endpoint  string
	S3AccessKey string
	S3SecretKey string
	S3Region    string
	S3UseSSL    bool
	ImageBucket string
}

const (
	defaultAddress       = ":8080"
	defaultMaxImageBytes = 10 << 20 // 10 MiB
	defaultPredictURL    = "http://127.0.0.1:8000/predict"
	defaultBase64URL     = "http://127.0.0.1:5000/predict_base64"
	defaultMinConfidence = 0.6
	defaultCheckInterval = time.Hour
	defaultExpiringDays  = 3
	defaultSignedTTL     = 5 * time.Minute
	defaultRedisAddr     = "127.0.0.1:6379"
	defaultWorkerCount   = 2
	defaultImageBucket   = "freshkeep-images"
	defaultS3Region      = "us-east-1"
)

// Load reads configuration from environment variables falling back to
// defaults. Invalid values fall back rather than failing startup.
func Load() (*Config, error) {
	cfg := &Config{
		Address:          readEnv("FRESHKEEP_ADDRESS", defaultAddress),
		MaxImageBytes:    parseInt64("FRESHKEEP_MAX_IMAGE_BYTES", defaultMaxImageBytes),
		ImageDir:         readEnv("FRESHKEEP_IMAGE_DIR", ""),
		PredictURL:       readEnv("FRESHKEEP_PREDICT_URL", defaultPredictURL),
		PredictBase64URL: readEnv("FRESHKEEP_PREDICT_BASE64_URL", defaultBase64URL),
		MinConfidence:    parseFloat("FRESHKEEP_MIN_CONFIDENCE", defaultMinConfidence),
		CheckInterval:    parseDuration("FRESHKEEP_CHECK_INTERVAL", defaultCheckInterval),
		ExpiringDays:     parseInt("FRESHKEEP_EXPIRING_DAYS", defaultExpiringDays),
		WebhookURL:       readEnv("FRESHKEEP_WEBHOOK_URL", ""),
		SigningSecret:    parseSecret("FRESHKEEP_SIGNING_SECRET"),
		SignedURLTTL:     parseDuration("FRESHKEEP_SIGNED_TTL", defaultSignedTTL),
		DatabaseURL:      readEnv("FRESHKEEP_DATABASE_URL", ""),
		RedisAddr:        readEnv("FRESHKEEP_REDIS_ADDR", defaultRedisAddr),
		RedisPassword:    readEnv("FRESHKEEP_REDIS_PASSWORD", ""),
		RedisDB:          parseInt("FRESHKEEP_REDIS_DB", 0),
		WorkerCount:      parseInt("FRESHKEEP_WORKERS", defaultWorkerCount),
		S3Endpoint:       readEnv("FRESHKEEP_S3_ENDPOINT", ""),
		S3AccessKey:      readEnv("FRESHKEEP_S3_ACCESS_KEY", ""),
		S3SecretKey:      readEnv("FRESHKEEP_S3_SECRET_KEY", ""),
		S3Region:         readEnv("FRESHKEEP_S3_REGION", defaultS3Region),
		S3UseSSL:         parseBool("FRESHKEEP_S3_SSL", false),
		ImageBucket:      readEnv("FRESHKEEP_IMAGE_BUCKET", defaultImageBucket),
	}
	if cfg.SigningSecret == nil {
		cfg.SigningSecret = randomSecret()
	}
	if cfg.MaxImageBytes <= 0 {
		cfg.MaxImageBytes = defaultMaxImageBytes
	}
	if cfg.MinConfidence <= 0 || cfg.MinConfidence > 1 {
		cfg.MinConfidence = defaultMinConfidence
	}
	if cfg.CheckInterval <= 0 {
		cfg.CheckInterval = defaultCheckInterval
	}
	if cfg.ExpiringDays <= 0 {
		cfg.ExpiringDays = defaultExpiringDays
	}
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = defaultWorkerCount
	}
	return cfg, nil
}

func readEnv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func parseInt64(key string, def int64) int64 {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if parsed, err := strconv.ParseInt(v, 10, 64); err == nil {
			return parsed
		}
	}
	return def
}

func parseInt(key string, def int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return def
}

func parseFloat(key string, def float64) float64 {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil {
			return parsed
		}
	}
	return def
}

func parseBool(key string, def bool) bool {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if parsed, err := strconv.ParseBool(v); err == nil {
			return parsed
		}
	}
	return def
}

func parseDuration(key string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			return parsed
		}
	}
	return def
}

func parseSecret(key string) []byte {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return []byte(v)
	}
	return nil
}

func randomSecret() []byte {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return []byte(hex.EncodeToString([]byte("fallbacksecret")))
	}
	return buf
}
