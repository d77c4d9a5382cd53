package config

import (
	"os"
	"strconv"
	"time"
)

type R2 struct {
	AccountID  string
	AccessKey  string
	SecretKey  string
	BucketName string
}

type AI struct {
	URL          string
	Timeout      time.Duration
	ClientID     string
	ClientSecret string
	TokenURL     string
}

type Sweep struct {
	Driver         string // cron, asynq or external
	Spec           string
	Concurrency    int
	EntryTimeout   time.Duration
	MaxAttempts    int
	InitialBackoff time.Duration
}

const (
	SweepDriverCron     = "cron"
	SweepDriverAsynq    = "asynq"
	SweepDriverExternal = "external"
)

type Config struct {
	Port           string
	PostgresURI    string
	RedisURI       string
	FrontendURL    string
	SecretKey      string
	CookieName     string
	CronSecret     string
	ServerTimezone string
	LogLevel       string
	AI             AI
	Sweep          Sweep
	R2             R2
}

func LoadConfig() *Config {
	return &Config{
		Port:           getEnv("PORT", "3000"),
		PostgresURI:    getEnv("POSTGRES_URI", ""),
		RedisURI:       getEnv("REDIS_URI", "localhost:6379"),
		FrontendURL:    getEnv("FRONTEND_URL", "http://localhost:5173"),
		SecretKey:      getEnv("SECRET_KEY", ""),
		CookieName:     getEnv("COOKIE_NAME", "postcraft_session"),
		CronSecret:     getEnv("CRON_SECRET", ""),
		ServerTimezone: getEnv("SERVER_TIMEZONE", "Local"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		AI: AI{
			URL:          getEnv("AI_API_URL", "http://localhost:8000/api/generate-post"),
			Timeout:      getEnvAsDuration("AI_TIMEOUT", 5*time.Minute),
			ClientID:     getEnv("AI_CLIENT_ID", ""),
			ClientSecret: getEnv("AI_CLIENT_SECRET", ""),
			TokenURL:     getEnv("AI_TOKEN_URL", ""),
		},
		Sweep: Sweep{
			Driver:         getEnv("SWEEP_DRIVER", SweepDriverCron),
			Spec:           getEnv("SWEEP_SPEC", "@every 1m"),
			Concurrency:    getEnvAsInt("SWEEP_CONCURRENCY", 4),
			EntryTimeout:   getEnvAsDuration("SWEEP_ENTRY_TIMEOUT", 10*time.Second),
			MaxAttempts:    getEnvAsInt("SWEEP_MAX_ATTEMPTS", 3),
			InitialBackoff: getEnvAsDuration("SWEEP_INITIAL_BACKOFF", 200*time.Millisecond),
		},
		R2: R2{
			AccountID:  getEnv("R2_ACCOUNT_ID", ""),
			AccessKey:  getEnv("R2_ACCESS_KEY", ""),
			SecretKey:  getEnv("R2_SECRET_KEY", ""),
			BucketName: getEnv("R2_BUCKET_NAME", ""),
		},
	}
}

// ArchiveEnabled reports whether sweep reports should be uploaded to R2.
func (c *Config) ArchiveEnabled() bool {
	return c.R2.BucketName != "" && c.R2.AccountID != ""
}

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

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
