package config

import (
	"os"
	"strconv"
)

// Config holds runtime settings for the server process.
type Config struct {
	Port           string
	Prod           bool
	MongoURI       string
	MongoDB        string
	SessionKey     string // cookie signing key
	CookieSecure   bool
	CookieSameSite string // Strict/Lax/None

	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string
	OAuthStateSecret   string

	RedisAddr       string // empty disables login rate limiting
	RateLimitPerMin int

	RabbitURL string // empty disables event publishing
}

// Load populates Config from environment variables with dev-friendly defaults.
func Load() Config {
	return Config{
		Port:           getenv("APP_PORT", "3000"),
		Prod:           boolFromEnv("APP_PROD", false),
		MongoURI:       getenv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:        getenv("MONGO_DB", "userDB"),
		SessionKey:     getenv("SESSION_KEY", "change-this-session-key"),
		CookieSecure:   boolFromEnv("COOKIE_SECURE", false),
		CookieSameSite: getenv("COOKIE_SAMESITE", "Lax"),

		GoogleClientID:     getenv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret: getenv("GOOGLE_CLIENT_SECRET", ""),
		GoogleRedirectURL:  getenv("GOOGLE_REDIRECT_URL", "http://localhost:3000/auth/google/callback"),
		OAuthStateSecret:   getenv("OAUTH_STATE_SECRET", "change-this-state-secret"),

		RedisAddr:       getenv("REDIS_ADDR", ""),
		RateLimitPerMin: intFromEnv("RATE_LIMIT_PER_MIN", 10),

		RabbitURL: getenv("RABBIT_URL", ""),
	}
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

// boolFromEnv reads a boolean from env var name, falling back to defaultVal when empty or invalid.
func boolFromEnv(name string, defaultVal bool) bool {
	if v := os.Getenv(name); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return defaultVal
}

// intFromEnv reads an int from env var name, falling back to defaultVal when empty or invalid.
func intFromEnv(name string, defaultVal int) int {
	if v := os.Getenv(name); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}
