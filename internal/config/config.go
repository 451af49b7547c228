package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Database
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// JWT
	JWTSecret          string
	JWTAccessExpiry    time.Duration
	JWTRefreshExpiry   time.Duration
	RememberMeExpiry   time.Duration
	ReviewEditWindow   time.Duration
	RealtimeWriteLimit time.Duration

	// Cache
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	CacheTTL      time.Duration

	// Moderation
	ModeratorEmails string

	// Logging
	LogLevel       string
	LogRetention   time.Duration
	LogCleanupSpec string
	SentryDSN      string
	AppEnv         string

	// Server
	Port        string
	CORSOrigins string
}

// Load reads configuration from the environment. Values from .env files fill
// in anything not already set.
func Load() *Config {
	env := getEnv("APP_ENV", "development")
	_ = godotenv.Load(".env." + env + ".local")
	_ = godotenv.Load(".env.local")
	_ = godotenv.Load(".env")

	return &Config{
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBName:     getEnv("DB_NAME", "community"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		JWTSecret:          getEnv("JWT_SECRET", ""),
		JWTAccessExpiry:    parseDuration(getEnv("JWT_ACCESS_EXPIRY", "15m"), 15*time.Minute),
		JWTRefreshExpiry:   parseDuration(getEnv("JWT_REFRESH_EXPIRY", "24h"), 24*time.Hour),
		RememberMeExpiry:   parseDuration(getEnv("REMEMBER_ME_EXPIRY", "720h"), 30*24*time.Hour),
		ReviewEditWindow:   parseDuration(getEnv("REVIEW_EDIT_WINDOW", "24h"), 24*time.Hour),
		RealtimeWriteLimit: parseDuration(getEnv("REALTIME_WRITE_TIMEOUT", "10s"), 10*time.Second),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       parseInt(getEnv("REDIS_DB", "0"), 0),
		CacheTTL:      parseDuration(getEnv("CACHE_TTL", "5m"), 5*time.Minute),

		ModeratorEmails: getEnv("MODERATOR_EMAILS", ""),

		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogRetention:   parseDuration(getEnv("LOG_RETENTION", "720h"), 30*24*time.Hour),
		LogCleanupSpec: getEnv("LOG_CLEANUP_CRON", "@daily"),
		SentryDSN:      getEnv("SENTRY_DSN", ""),
		AppEnv:         env,

		Port:        getEnv("PORT", "8080"),
		CORSOrigins: getEnv("CORS_ORIGINS", "*"),
	}
}

func (c *Config) DSN() string {
	return "host=" + c.DBHost +
		" user=" + c.DBUser +
		" password=" + c.DBPassword +
		" dbname=" + c.DBName +
		" port=" + c.DBPort +
		" sslmode=" + c.DBSSLMode +
		" TimeZone=UTC"
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}

func parseInt(s string, fallback int) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return fallback
	}
	return n
}
