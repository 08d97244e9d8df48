// Package config loads the runtime settings from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config is everything the server needs to start.
type Config struct {
	SupabaseURL string
	SupabaseKey string
	JWTSecret   string
	Port        string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	SessionTTL time.Duration
}

// Load reads configuration from the environment. The backend endpoint and
// access key are mandatory: without them the process must refuse to start
// rather than run with a null client.
func Load() (*Config, error) {
	supabaseURL := os.Getenv("SUPABASE_URL")
	supabaseKey := os.Getenv("SUPABASE_ANON_KEY")
	if supabaseURL == "" || supabaseKey == "" {
		return nil, errors.New("SUPABASE_URL and SUPABASE_ANON_KEY environment variables are required")
	}
	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		return nil, errors.New("JWT_SECRET environment variable is required")
	}

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("REDIS_DB must be an integer: %w", err)
	}
	ttlMinutes, err := strconv.Atoi(getEnv("SESSION_TTL_MINUTES", "30"))
	if err != nil {
		return nil, fmt.Errorf("SESSION_TTL_MINUTES must be an integer: %w", err)
	}

	return &Config{
		SupabaseURL:   supabaseURL,
		SupabaseKey:   supabaseKey,
		JWTSecret:     jwtSecret,
		Port:          getEnv("PORT", "8080"),
		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       redisDB,
		SessionTTL:    time.Duration(ttlMinutes) * time.Minute,
	}, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
