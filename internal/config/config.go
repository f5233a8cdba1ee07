package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Backend API
	APIBaseURL string
	APITimeout time.Duration

	// Session
	AccessToken string
	JWTSecret   string

	// Bridge server
	Port            string
	Env             string
	FrontendURL     string
	RateLimitPerMin int

	// Redis (optional, bridge event fanout)
	RedisURL string

	// Speech
	AudioPlayer     string
	AudioPlayerArgs []string

	// Languages
	DefaultLanguage   string
	TranslateLanguage string
}

func Load() *Config {
	// Load .env file if it exists
	godotenv.Load()

	cfg := &Config{
		APIBaseURL:        strings.TrimSuffix(getEnvOrDefault("API_BASE_URL", "http://localhost:8000/api"), "/"),
		APITimeout:        getEnvAsDurationOrDefault("API_TIMEOUT", 120*time.Second),
		AccessToken:       getEnvOrDefault("ACCESS_TOKEN", ""),
		JWTSecret:         getEnvOrDefault("JWT_SECRET", ""),
		Port:              getEnvOrDefault("PORT", "8081"),
		Env:               getEnvOrDefault("ENV", "development"),
		FrontendURL:       getEnvOrDefault("FRONTEND_URL", "http://localhost:5173"),
		RateLimitPerMin:   getEnvAsIntOrDefault("RATE_LIMIT_PER_MIN", 60),
		RedisURL:          getEnvOrDefault("REDIS_URL", ""),
		AudioPlayer:       getEnvOrDefault("AUDIO_PLAYER", "mpg123"),
		AudioPlayerArgs:   strings.Fields(getEnvOrDefault("AUDIO_PLAYER_ARGS", "-q")),
		DefaultLanguage:   getEnvOrDefault("DEFAULT_LANGUAGE", "en"),
		TranslateLanguage: getEnvOrDefault("TRANSLATE_LANGUAGE", "hi"),
	}

	return cfg
}

// RequireAccessToken returns the configured token or panics. The terminal
// client cannot run without one.
func (c *Config) RequireAccessToken() string {
	if c.AccessToken == "" {
		return mustGetEnv("ACCESS_TOKEN")
	}
	return c.AccessToken
}

func mustGetEnv(key string) string {
	val := os.Getenv(key)
	if val == "" {
		panic(fmt.Sprintf("required environment variable %s is not set", key))
	}
	return val
}

func getEnvOrDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func getEnvAsIntOrDefault(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return n
}

// getEnvAsDurationOrDefault accepts Go durations ("90s") or a bare number of seconds.
func getEnvAsDurationOrDefault(key string, defaultVal time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	if d, err := time.ParseDuration(val); err == nil && d > 0 {
		return d
	}
	if n, err := strconv.Atoi(val); err == nil && n > 0 {
		return time.Duration(n) * time.Second
	}
	return defaultVal
}
