package config

import (
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
)

// Chat provider names recognized by CHAT_PROVIDER.
const (
	ProviderPollinations = "pollinations"
	ProviderGroq         = "groq"
	ProviderGemini       = "gemini"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Server struct {
		Port           string
		Env            string
		AllowedOrigins []string
		StaticDir      string
	}

	// Database configuration
	Database struct {
		Path string
	}

	// Chat provider configuration
	Chat struct {
		Provider            string
		PollinationsBaseURL string
		HistoryLimit        int
		Timeout             time.Duration
	}

	// Security configuration
	Security struct {
		RateLimit      float64
		RateLimitBurst int
	}

	// Logging configuration
	Logging struct {
		Level  string
		Format string
	}

	// Cache settings for synthesized audio
	Cache struct {
		TTL         time.Duration
		MaxSize     int
		PurgeWindow time.Duration
		RedisURL    string
	}
}

var (
	instance *Config
	once     sync.Once
)

// New creates a new Config instance with values from environment variables
// Uses singleton pattern to ensure only one instance exists
func New() *Config {
	once.Do(func() {
		// Load .env file if exists
		godotenv.Load()

		instance = &Config{}

		// Server config
		instance.Server.Port = getEnvString("PORT", "3001")
		instance.Server.Env = getEnvString("APP_ENV", "development")
		instance.Server.AllowedOrigins = getEnvStringSlice("ALLOWED_ORIGINS", []string{
			"http://localhost",
			"http://localhost:3000",
			"capacitor://localhost",
			"ionic://localhost",
		})
		instance.Server.StaticDir = getEnvString("STATIC_DIR", "dist")

		// Database config
		instance.Database.Path = getEnvString("DB_PATH", "data/companion.db")

		// Chat provider config
		instance.Chat.Provider = strings.ToLower(getEnvString("CHAT_PROVIDER", ProviderPollinations))
		instance.Chat.PollinationsBaseURL = getEnvString("POLLINATIONS_BASE_URL", "")
		instance.Chat.HistoryLimit = getEnvInt("CHAT_HISTORY_LIMIT", 20)
		instance.Chat.Timeout = getEnvDuration("CHAT_TIMEOUT", 30*time.Second)

		// Security config
		instance.Security.RateLimit = float64(getEnvInt("RATE_LIMIT", 5))
		instance.Security.RateLimitBurst = getEnvInt("RATE_LIMIT_BURST", 10)

		// Logging config
		instance.Logging.Level = getEnvString("LOG_LEVEL", "info")
		instance.Logging.Format = getEnvString("LOG_FORMAT", "json")

		// Cache settings
		instance.Cache.TTL = getEnvDuration("CACHE_TTL", time.Hour)
		instance.Cache.MaxSize = getEnvInt("CACHE_MAX_SIZE", 256)
		instance.Cache.PurgeWindow = getEnvDuration("CACHE_PURGE_WINDOW", 10*time.Minute)
		instance.Cache.RedisURL = getEnvString("REDIS_URL", "")
	})

	return instance
}

// Get returns the singleton Config instance
func Get() *Config {
	if instance == nil {
		return New()
	}
	return instance
}

// Helper functions to read environment variables with default values

func getEnvString(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvStringSlice(key string, defaultValue []string) []string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		parts := strings.Split(value, ",")
		result := make([]string, 0, len(parts))
		for _, part := range parts {
			if trimmed := strings.TrimSpace(part); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		if len(result) > 0 {
			return result
		}
	}
	return defaultValue
}
