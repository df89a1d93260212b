package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// AppConfig holds the application configuration.
type AppConfig struct {
	Port             string
	Environment      string // "development", "staging", "production"
	AppVersion       string
	HostVersion      string // CMS version reported in the x-goog-api-client header
	LogLevel         string
	LogFile          string
	LogMaxSizeMB     int
	DBDriver         string // "postgres" or "sqlite"
	DBHost           string
	DBPort           string
	DBUser           string
	DBPassword       string
	DBName           string
	EnableDBSSL      bool
	SQLitePath       string
	RedisAddr        string
	RedisPassword    string
	RedisDB          int
	OptionsCacheTTL  time.Duration
	JWTSecret        string
	JWTTokenLifespan time.Duration
	GCSBucketName    string // seeded into gcs_bucket on activation
	UploadsDir       string
	UploadsBaseURL   string
	FeatureToggles   map[string]bool
}

var Cfg AppConfig

// LoadConfig loads the application configuration from environment variables.
func LoadConfig() {
	// .env is for local development; production images ship without one.
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found or failed to load:", err)
	}

	Cfg.Port = getEnv("PORT", "8080")
	Cfg.Environment = getEnv("ENVIRONMENT", "development")
	Cfg.AppVersion = getEnv("APP_VERSION", "0.1.9")
	Cfg.HostVersion = getEnv("HOST_VERSION", "6.5.3")
	Cfg.LogLevel = getEnv("LOG_LEVEL", "info")
	Cfg.LogFile = getEnv("LOG_FILE", "")
	Cfg.LogMaxSizeMB = getEnvAsInt("LOG_MAX_SIZE_MB", 100)

	Cfg.DBDriver = strings.ToLower(getEnv("DB_DRIVER", "postgres"))
	Cfg.DBHost = getEnv("DB_HOST", "localhost")
	Cfg.DBPort = getEnv("DB_PORT", "5432")
	Cfg.DBUser = getEnv("DB_USER", "gcsmedia")
	Cfg.DBPassword = getEnv("DB_PASSWORD", "gcsmedia")
	Cfg.DBName = getEnv("DB_NAME", "gcsmedia")
	Cfg.EnableDBSSL = getEnvAsBool("DB_SSL_ENABLE", false)
	Cfg.SQLitePath = getEnv("SQLITE_PATH", "gcsmedia.db")

	Cfg.RedisAddr = getEnv("REDIS_ADDR", "")
	Cfg.RedisPassword = getEnv("REDIS_PASSWORD", "")
	Cfg.RedisDB = getEnvAsInt("REDIS_DB", 0)
	Cfg.OptionsCacheTTL = getEnvAsDuration("OPTIONS_CACHE_TTL", 5*time.Minute)

	Cfg.JWTSecret = getEnv("JWT_SECRET_KEY", "a_very_secure_secret_key_please_change_me_32_chars_long")
	Cfg.JWTTokenLifespan = time.Duration(getEnvAsInt("JWT_TOKEN_LIFESPAN_HOURS", 24)) * time.Hour

	Cfg.GCSBucketName = getEnv("GCS_BUCKET_NAME", "")
	Cfg.UploadsDir = getEnv("UPLOADS_DIR", "./uploads")
	Cfg.UploadsBaseURL = strings.TrimRight(getEnv("UPLOADS_BASE_URL", "http://localhost:8080/uploads"), "/")

	Cfg.FeatureToggles = loadFeatureToggles(os.Environ())

	log.Printf("Configuration loaded for environment: %s", Cfg.Environment)
}

// DSN builds the postgres connection string from the loaded configuration.
func (c AppConfig) DSN() string {
	sslMode := "disable"
	if c.EnableDBSSL {
		sslMode = "require"
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s TimeZone=UTC",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, sslMode)
}

// loadFeatureToggles collects FEATURE_<NAME>=<bool> variables, keyed by NAME.
func loadFeatureToggles(environ []string) map[string]bool {
	toggles := make(map[string]bool)
	for _, kv := range environ {
		key, value, found := strings.Cut(kv, "=")
		if !found || !strings.HasPrefix(key, "FEATURE_") {
			continue
		}
		name := strings.TrimPrefix(key, "FEATURE_")
		if name == "" {
			continue
		}
		enabled, err := strconv.ParseBool(value)
		if err != nil {
			log.Printf("Warning: feature toggle '%s' has invalid value '%s', treating as disabled", key, value)
			enabled = false
		}
		toggles[name] = enabled
	}
	return toggles
}

// getEnv returns the value of an environment variable or a default.
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// getEnvAsBool returns the boolean value of an environment variable or a default.
func getEnvAsBool(key string, defaultValue bool) bool {
	valStr := getEnv(key, "")
	if valStr == "" {
		return defaultValue
	}
	valBool, err := strconv.ParseBool(valStr)
	if err != nil {
		log.Printf("Warning: boolean environment variable '%s' has invalid value '%s', using default: %t. Error: %v", key, valStr, defaultValue, err)
		return defaultValue
	}
	return valBool
}

func getEnvAsInt(key string, defaultValue int) int {
	valStr := getEnv(key, "")
	if valStr == "" {
		return defaultValue
	}
	valInt, err := strconv.Atoi(valStr)
	if err != nil {
		log.Printf("Warning: integer environment variable '%s' has invalid value '%s', using default: %d. Error: %v", key, valStr, defaultValue, err)
		return defaultValue
	}
	return valInt
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valStr := getEnv(key, "")
	if valStr == "" {
		return defaultValue
	}
	valDur, err := time.ParseDuration(valStr)
	if err != nil {
		log.Printf("Warning: duration environment variable '%s' has invalid value '%s', using default: %s. Error: %v", key, valStr, defaultValue, err)
		return defaultValue
	}
	return valDur
}

func init() {
	LoadConfig()
}
