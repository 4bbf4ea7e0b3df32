// Package config loads application configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds every runtime setting. Modules receive it through narrow
// getter interfaces so they only see what they use.
type Config struct {
	Env         string
	HTTPAddr    string
	DatabaseURL string

	JWTSecret      string
	AccessTokenTTL time.Duration

	CORSAllowAll bool
	CORSOrigins  []string

	RedisURL         string
	RedisTLSInsecure bool
	AsynqQueueName   string
	AsynqConcurrency int

	GenAIAPIKey string
	GenAIModel  string

	// Auto-send preview countdown: ticks of one second before auto-confirm.
	AutoSendCountdownTicks int
	// Confidence threshold (0-100) for shouldAutoMerge.
	AutoMergeThreshold int
	// Minimum spacing between sequential classifier calls in bulk analysis.
	ClassifierPace time.Duration

	EmailEnabled     bool
	SMTPHost         string
	SMTPPort         int
	SMTPUsername     string
	SMTPPassword     string
	EmailFromName    string
	EmailFromAddress string
	EscalationEmail  string

	MinIOEndpoint       string
	MinIOAccessKey      string
	MinIOSecretKey      string
	MinIOUseSSL         bool
	MinIOBucketWOPhotos string
	MinIOMaxFileSize    int64
}

// Load reads the environment (and an optional .env file) into a Config.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Env:         getEnv("APP_ENV", "development"),
		HTTPAddr:    getEnv("HTTP_ADDR", ":8080"),
		DatabaseURL: getEnv("DATABASE_URL", ""),

		JWTSecret:      getEnv("JWT_SECRET", ""),
		AccessTokenTTL: mustDuration(getEnv("JWT_ACCESS_TTL", "12h")),

		CORSAllowAll: strings.EqualFold(getEnv("CORS_ALLOW_ALL", "false"), "true"),
		CORSOrigins:  splitCSV(getEnv("CORS_ORIGINS", "http://localhost:5173")),

		RedisURL:         getEnv("REDIS_URL", ""),
		RedisTLSInsecure: strings.EqualFold(getEnv("REDIS_TLS_INSECURE", "false"), "true"),
		AsynqQueueName:   getEnv("ASYNQ_QUEUE", "maintops"),
		AsynqConcurrency: mustInt(getEnv("ASYNQ_CONCURRENCY", "10")),

		GenAIAPIKey: getEnv("GENAI_API_KEY", ""),
		GenAIModel:  getEnv("GENAI_MODEL", "gemini-2.0-flash"),

		AutoSendCountdownTicks: mustInt(getEnv("AUTOSEND_COUNTDOWN_SECONDS", "10")),
		AutoMergeThreshold:     mustInt(getEnv("AUTOMERGE_THRESHOLD", "90")),
		ClassifierPace:         mustDuration(getEnv("CLASSIFIER_PACE", "300ms")),

		EmailEnabled:     strings.EqualFold(getEnv("EMAIL_ENABLED", "false"), "true"),
		SMTPHost:         getEnv("SMTP_HOST", ""),
		SMTPPort:         mustInt(getEnv("SMTP_PORT", "587")),
		SMTPUsername:     getEnv("SMTP_USERNAME", ""),
		SMTPPassword:     getEnv("SMTP_PASSWORD", ""),
		EmailFromName:    getEnv("EMAIL_FROM_NAME", "Maintenance Operations"),
		EmailFromAddress: getEnv("EMAIL_FROM_ADDRESS", ""),
		EscalationEmail:  getEnv("ESCALATION_EMAIL", ""),

		MinIOEndpoint:       getEnv("MINIO_ENDPOINT", ""),
		MinIOAccessKey:      getEnv("MINIO_ACCESS_KEY", ""),
		MinIOSecretKey:      getEnv("MINIO_SECRET_KEY", ""),
		MinIOUseSSL:         strings.EqualFold(getEnv("MINIO_USE_SSL", "false"), "true"),
		MinIOBucketWOPhotos: getEnv("MINIO_BUCKET_WO_PHOTOS", "work-order-photos"),
		MinIOMaxFileSize:    int64(mustInt(getEnv("MINIO_MAX_FILE_SIZE_MB", "10"))) * 1024 * 1024,
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.EmailEnabled && (cfg.SMTPHost == "" || cfg.EmailFromAddress == "") {
		return nil, fmt.Errorf("SMTP_HOST and EMAIL_FROM_ADDRESS are required when EMAIL_ENABLED is true")
	}
	if cfg.AutoSendCountdownTicks < 1 {
		return nil, fmt.Errorf("AUTOSEND_COUNTDOWN_SECONDS must be at least 1")
	}

	return cfg, nil
}

// Getter methods satisfying the narrow config interfaces.

func (c *Config) GetDatabaseURL() string { return c.DatabaseURL }
func (c *Config) GetJWTSecret() string   { return c.JWTSecret }

func (c *Config) GetEnv() string           { return c.Env }
func (c *Config) GetHTTPAddr() string      { return c.HTTPAddr }
func (c *Config) GetCORSAllowAll() bool    { return c.CORSAllowAll }
func (c *Config) GetCORSOrigins() []string { return c.CORSOrigins }

func (c *Config) GetAccessTokenTTL() time.Duration { return c.AccessTokenTTL }

func (c *Config) GetRedisURL() string       { return c.RedisURL }
func (c *Config) GetRedisTLSInsecure() bool { return c.RedisTLSInsecure }
func (c *Config) GetAsynqQueueName() string { return c.AsynqQueueName }
func (c *Config) GetAsynqConcurrency() int  { return c.AsynqConcurrency }

func (c *Config) GetGenAIAPIKey() string { return c.GenAIAPIKey }
func (c *Config) GetGenAIModel() string  { return c.GenAIModel }

func (c *Config) GetAutoSendCountdownTicks() int   { return c.AutoSendCountdownTicks }
func (c *Config) GetAutoMergeThreshold() int       { return c.AutoMergeThreshold }
func (c *Config) GetClassifierPace() time.Duration { return c.ClassifierPace }

func (c *Config) GetEmailEnabled() bool       { return c.EmailEnabled }
func (c *Config) GetSMTPHost() string         { return c.SMTPHost }
func (c *Config) GetSMTPPort() int            { return c.SMTPPort }
func (c *Config) GetSMTPUsername() string     { return c.SMTPUsername }
func (c *Config) GetSMTPPassword() string     { return c.SMTPPassword }
func (c *Config) GetEmailFromName() string    { return c.EmailFromName }
func (c *Config) GetEmailFromAddress() string { return c.EmailFromAddress }
func (c *Config) GetEscalationEmail() string  { return c.EscalationEmail }

func (c *Config) GetMinIOEndpoint() string       { return c.MinIOEndpoint }
func (c *Config) GetMinIOAccessKey() string      { return c.MinIOAccessKey }
func (c *Config) GetMinIOSecretKey() string      { return c.MinIOSecretKey }
func (c *Config) GetMinIOUseSSL() bool           { return c.MinIOUseSSL }
func (c *Config) GetMinIOBucketWOPhotos() string { return c.MinIOBucketWOPhotos }
func (c *Config) GetMinIOMaxFileSize() int64     { return c.MinIOMaxFileSize }

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func mustDuration(value string) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0
	}
	return d
}

func mustInt(value string) int {
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0
	}
	return n
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	results := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			results = append(results, trimmed)
		}
	}
	return results
}
