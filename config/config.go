package config

import (
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port          string
	DatabasePath  string
	UploadDir     string
	JWTSecret     string
	TokenTTL      time.Duration
	RedisAddr     string
	RedisPassword string
	CacheTTL      time.Duration
}

// Load reads .env when present and then the process environment.
func Load() *Config {
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			slog.Warn("could not load .env", "error", err)
		} else {
			slog.Debug(".env loaded")
		}
	}

	return &Config{
		Port:          getEnv("PORT", "3000"),
		DatabasePath:  getEnv("DATABASE_PATH", "database.db"),
		UploadDir:     getEnv("UPLOAD_DIR", "uploads"),
		JWTSecret:     getEnv("JWT_SECRET", "change-me"),
		TokenTTL:      getDuration("TOKEN_TTL", 24*time.Hour),
		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		CacheTTL:      getDuration("CACHE_TTL", 5*time.Minute),
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		slog.Warn("invalid duration, using default", "key", key, "value", value, "default", fallback)
		return fallback
	}
	return d
}
