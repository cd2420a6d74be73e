// Package config provides application configuration loading.
// This is part of the platform layer and contains no business logic.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// =============================================================================
// Module-Specific Config Interfaces (Principle of Least Privilege)
// =============================================================================

// DatabaseConfig provides database connection settings.
type DatabaseConfig interface {
	GetDatabaseURL() string
}

// JWTConfig provides JWT validation settings for middleware.
type JWTConfig interface {
	GetJWTAccessSecret() string
}

// AuthServiceConfig provides settings needed by the auth service.
type AuthServiceConfig interface {
	JWTConfig
	GetAccessTokenTTL() time.Duration
}

// HTTPConfig provides settings for the HTTP server.
type HTTPConfig interface {
	GetHTTPAddr() string
	GetCORSAllowAll() bool
	GetCORSOrigins() []string
	GetCORSAllowCreds() bool
}

// RedisConfig provides the Redis connection used by the website chat store.
type RedisConfig interface {
	GetRedisURL() string
	GetRedisTLSInsecure() bool
}

// SchedulerConfig provides asynq settings shared by the API and the worker.
type SchedulerConfig interface {
	RedisConfig
	GetAsynqQueueName() string
	GetAsynqConcurrency() int
}

// SMTPConfig provides settings for outgoing email.
type SMTPConfig interface {
	GetSMTPHost() string
	GetSMTPPort() int
	GetSMTPUsername() string
	GetSMTPPassword() string
	GetEmailFromName() string
	GetEmailFromAddress() string
	IsEmailEnabled() bool
}

// MinIOConfig provides settings for MinIO S3-compatible storage.
type MinIOConfig interface {
	GetMinIOEndpoint() string
	GetMinIOAccessKey() string
	GetMinIOSecretKey() string
	GetMinIOUseSSL() bool
	GetMinIOMaxFileSize() int64
	GetMinioBucketPaymentReceipts() string
	IsMinIOEnabled() bool
}

// WhatsAppConfig provides settings for the WhatsApp gateway.
type WhatsAppConfig interface {
	GetWhatsAppURL() string
	GetWhatsAppKey() string
	GetWhatsAppDeviceID() string
	GetWhatsAppBusinessNumber() string
}

// MetaConfig provides settings for the Meta Graph API.
type MetaConfig interface {
	GetMetaGraphVersion() string
	GetMetaAdAccountID() string
	GetMetaAccessToken() string
	IsMetaEnabled() bool
}

// MetaLeadsConfig provides settings for the lead ads webhook.
type MetaLeadsConfig interface {
	GetMetaGraphVersion() string
	GetMetaLeadsAccessToken() string
	GetMetaWebhookVerifyToken() string
	GetMetaAppSecret() string
}

// AssignmentConfig provides settings for counsellor assignment side effects.
type AssignmentConfig interface {
	GetL3AssignmentRecipients() []string
}

// ChatConfig provides settings for the website chat.
type ChatConfig interface {
	GetChatTimezone() string
	GetChatOpenHour() int
	GetChatCloseHour() int
}

// =============================================================================
// Main Config Struct
// =============================================================================

// Config holds all application configuration values.
type Config struct {
	Env                       string
	HTTPAddr                  string
	DatabaseURL               string
	MigrationsEnabled         bool
	JWTAccessSecret           string
	AccessTokenTTL            time.Duration
	CORSAllowAll              bool
	CORSOrigins               []string
	CORSAllowCreds            bool
	RedisURL                  string
	RedisTLSInsecure          bool
	AsynqQueueName            string
	AsynqConcurrency          int
	SMTPHost                  string
	SMTPPort                  int
	SMTPUsername              string
	SMTPPassword              string
	EmailFromName             string
	EmailFromAddress          string
	MinIOEndpoint             string
	MinIOAccessKey            string
	MinIOSecretKey            string
	MinIOUseSSL               bool
	MinIOMaxFileSize          int64
	MinioBucketPaymentReceipt string
	WhatsAppURL               string
	WhatsAppKey               string
	WhatsAppDeviceID          string
	WhatsAppBusinessNumber    string
	MetaGraphVersion          string
	MetaAdAccountID           string
	MetaAccessToken           string
	MetaLeadsAccessToken      string
	MetaWebhookVerifyToken    string
	MetaAppSecret             string
	L3AssignmentRecipients    []string
	ChatTimezone              string
	ChatOpenHour              int
	ChatCloseHour             int
}

// =============================================================================
// Interface Implementations
// =============================================================================

// DatabaseConfig implementation
func (c *Config) GetDatabaseURL() string { return c.DatabaseURL }

// JWTConfig implementation
func (c *Config) GetJWTAccessSecret() string { return c.JWTAccessSecret }

// AuthServiceConfig implementation
func (c *Config) GetAccessTokenTTL() time.Duration { return c.AccessTokenTTL }

// HTTPConfig implementation
func (c *Config) GetHTTPAddr() string      { return c.HTTPAddr }
func (c *Config) GetCORSAllowAll() bool    { return c.CORSAllowAll }
func (c *Config) GetCORSOrigins() []string { return c.CORSOrigins }
func (c *Config) GetCORSAllowCreds() bool  { return c.CORSAllowCreds }

// RedisConfig / SchedulerConfig implementation
func (c *Config) GetRedisURL() string       { return c.RedisURL }
func (c *Config) GetRedisTLSInsecure() bool { return c.RedisTLSInsecure }
func (c *Config) GetAsynqQueueName() string { return c.AsynqQueueName }
func (c *Config) GetAsynqConcurrency() int  { return c.AsynqConcurrency }

// SMTPConfig implementation
func (c *Config) GetSMTPHost() string         { return c.SMTPHost }
func (c *Config) GetSMTPPort() int            { return c.SMTPPort }
func (c *Config) GetSMTPUsername() string     { return c.SMTPUsername }
func (c *Config) GetSMTPPassword() string     { return c.SMTPPassword }
func (c *Config) GetEmailFromName() string    { return c.EmailFromName }
func (c *Config) GetEmailFromAddress() string { return c.EmailFromAddress }
func (c *Config) IsEmailEnabled() bool        { return c.SMTPHost != "" }

// MinIOConfig implementation
func (c *Config) GetMinIOEndpoint() string   { return c.MinIOEndpoint }
func (c *Config) GetMinIOAccessKey() string  { return c.MinIOAccessKey }
func (c *Config) GetMinIOSecretKey() string  { return c.MinIOSecretKey }
func (c *Config) GetMinIOUseSSL() bool       { return c.MinIOUseSSL }
func (c *Config) GetMinIOMaxFileSize() int64 { return c.MinIOMaxFileSize }
func (c *Config) GetMinioBucketPaymentReceipts() string {
	return c.MinioBucketPaymentReceipt
}
func (c *Config) IsMinIOEnabled() bool { return c.MinIOEndpoint != "" }

// WhatsAppConfig implementation
func (c *Config) GetWhatsAppURL() string            { return c.WhatsAppURL }
func (c *Config) GetWhatsAppKey() string            { return c.WhatsAppKey }
func (c *Config) GetWhatsAppDeviceID() string       { return c.WhatsAppDeviceID }
func (c *Config) GetWhatsAppBusinessNumber() string { return c.WhatsAppBusinessNumber }

// MetaConfig implementation
func (c *Config) GetMetaGraphVersion() string { return c.MetaGraphVersion }
func (c *Config) GetMetaAdAccountID() string  { return c.MetaAdAccountID }
func (c *Config) GetMetaAccessToken() string  { return c.MetaAccessToken }
func (c *Config) IsMetaEnabled() bool {
	return c.MetaAdAccountID != "" && c.MetaAccessToken != ""
}

// MetaLeadsConfig implementation
func (c *Config) GetMetaWebhookVerifyToken() string { return c.MetaWebhookVerifyToken }
func (c *Config) GetMetaAppSecret() string          { return c.MetaAppSecret }
func (c *Config) GetMetaLeadsAccessToken() string {
	if c.MetaLeadsAccessToken != "" {
		return c.MetaLeadsAccessToken
	}
	return c.MetaAccessToken
}

// AssignmentConfig implementation
func (c *Config) GetL3AssignmentRecipients() []string { return c.L3AssignmentRecipients }

// ChatConfig implementation
func (c *Config) GetChatTimezone() string { return c.ChatTimezone }
func (c *Config) GetChatOpenHour() int    { return c.ChatOpenHour }
func (c *Config) GetChatCloseHour() int   { return c.ChatCloseHour }

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	corsOrigins := splitCSV(getEnv("CORS_ORIGINS", "http://localhost:4200"))
	corsAllowAll := strings.EqualFold(getEnv("CORS_ALLOW_ALL", "false"), "true")
	if containsWildcard(corsOrigins) {
		corsAllowAll = true
	}

	cfg := &Config{
		Env:                       getEnv("APP_ENV", "development"),
		HTTPAddr:                  getEnv("HTTP_ADDR", ":3031"),
		DatabaseURL:               getEnv("DATABASE_URL", ""),
		MigrationsEnabled:         strings.EqualFold(getEnv("MIGRATIONS_ENABLED", "true"), "true"),
		JWTAccessSecret:           getEnv("JWT_ACCESS_SECRET", ""),
		AccessTokenTTL:            mustDuration(getEnv("JWT_ACCESS_TTL", "12h")),
		CORSAllowAll:              corsAllowAll,
		CORSOrigins:               corsOrigins,
		CORSAllowCreds:            strings.EqualFold(getEnv("CORS_ALLOW_CREDENTIALS", "true"), "true"),
		RedisURL:                  getEnv("REDIS_URL", ""),
		RedisTLSInsecure:          strings.EqualFold(getEnv("REDIS_TLS_INSECURE", "false"), "true"),
		AsynqQueueName:            getEnv("ASYNQ_QUEUE", "default"),
		AsynqConcurrency:          int(mustInt64(getEnv("ASYNQ_CONCURRENCY", "10"))),
		SMTPHost:                  getEnv("SMTP_HOST", ""),
		SMTPPort:                  int(mustInt64(getEnv("SMTP_PORT", "587"))),
		SMTPUsername:              getEnv("SMTP_USERNAME", ""),
		SMTPPassword:              getEnv("SMTP_PASSWORD", ""),
		EmailFromName:             getEnv("EMAIL_FROM_NAME", "Admissions Desk"),
		EmailFromAddress:          getEnv("EMAIL_FROM_ADDRESS", ""),
		MinIOEndpoint:             getEnv("MINIO_ENDPOINT", ""),
		MinIOAccessKey:            getEnv("MINIO_ACCESS_KEY", ""),
		MinIOSecretKey:            getEnv("MINIO_SECRET_KEY", ""),
		MinIOUseSSL:               strings.EqualFold(getEnv("MINIO_USE_SSL", "false"), "true"),
		MinIOMaxFileSize:          mustInt64(getEnv("MINIO_MAX_FILE_SIZE", "10485760")),
		MinioBucketPaymentReceipt: getEnv("MINIO_BUCKET_PAYMENT_RECEIPTS", "payment-receipts"),
		WhatsAppURL:               getEnv("WHATSAPP_URL", ""),
		WhatsAppKey:               getEnv("WHATSAPP_KEY", ""),
		WhatsAppDeviceID:          getEnv("WHATSAPP_DEVICE_ID", ""),
		WhatsAppBusinessNumber:    getEnv("WHATSAPP_BUSINESS_NUMBER", ""),
		MetaGraphVersion:          getEnv("META_GRAPH_VERSION", "v24.0"),
		MetaAdAccountID:           getEnv("META_AD_ACCOUNT_ID", ""),
		MetaAccessToken:           getEnv("META_GROUP_ACCESS_TOKEN", ""),
		MetaLeadsAccessToken:      getEnv("META_PAGE_ACCESS_TOKEN", ""),
		MetaWebhookVerifyToken:    getEnv("META_WEBHOOK_VERIFY_TOKEN", ""),
		MetaAppSecret:             getEnv("META_APP_SECRET", ""),
		L3AssignmentRecipients:    splitCSV(getEnv("L3_ASSIGNMENT_RECIPIENTS", "")),
		ChatTimezone:              getEnv("CHAT_TIMEZONE", "Asia/Kolkata"),
		ChatOpenHour:              int(mustInt64(getEnv("CHAT_OPEN_HOUR", "9"))),
		ChatCloseHour:             int(mustInt64(getEnv("CHAT_CLOSE_HOUR", "24"))),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.JWTAccessSecret == "" {
		return nil, fmt.Errorf("JWT_ACCESS_SECRET is required")
	}
	if cfg.AccessTokenTTL <= 0 {
		return nil, fmt.Errorf("JWT_ACCESS_TTL must be a positive duration")
	}
	if cfg.IsEmailEnabled() && cfg.EmailFromAddress == "" {
		return nil, fmt.Errorf("EMAIL_FROM_ADDRESS is required when SMTP_HOST is set")
	}
	if cfg.ChatOpenHour < 0 || cfg.ChatCloseHour > 24 || cfg.ChatOpenHour >= cfg.ChatCloseHour {
		return nil, fmt.Errorf("CHAT_OPEN_HOUR and CHAT_CLOSE_HOUR must form a window within 0-24")
	}
	if cfg.CORSAllowAll && cfg.CORSAllowCreds {
		return nil, fmt.Errorf("CORS_ALLOW_CREDENTIALS cannot be true when CORS_ALLOW_ALL is true")
	}

	return cfg, nil
}

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

func mustInt64(value string) int64 {
	result, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
	if err != nil {
		return 0
	}
	return result
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

func containsWildcard(values []string) bool {
	for _, value := range values {
		if value == "*" {
			return true
		}
	}
	return false
}
