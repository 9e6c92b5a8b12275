package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// AppConfig holds all configuration for the application.
// The values are loaded from environment variables.
type AppConfig struct {
	// Core settings
	Port     string
	LogLevel string

	// Upload limits
	MaxUploadSizeBytes int64
	// MaxRowCount is a defensive upper bound on ingested rows; it guards
	// against accidental misuse, it is not part of the classification
	// algorithm itself.
	MaxRowCount int

	// Ingestion defaults. These resolve the source spreadsheets'
	// inconsistent schemas once, at the boundary; the engine only ever
	// sees a canonical amount field.
	DefaultSheetName     string
	DefaultHeaderKeyword string
	DefaultAmountColumn  string

	// Result cache
	CacheExpiration      time.Duration
	CacheCleanupInterval time.Duration

	// Frontend origins allowed by CORS
	AllowedOrigins []string
}

// Cfg is a global instance of the AppConfig.
var Cfg *AppConfig

// LoadConfig loads configuration from environment variables or a .env file.
// It centralizes all configuration logic for the application.
func LoadConfig() {
	// 1. Try loading from the current directory (standard behavior)
	errEnv := godotenv.Load()

	// 2. If not found, try loading from the parent directory (common when running from /backend)
	if errEnv != nil {
		errEnv = godotenv.Load("../.env")
	}

	if errEnv != nil {
		if os.IsNotExist(errEnv) {
			log.Println("Info: No .env file found in current or parent directory. Relying on OS environment variables (expected in production).")
		} else {
			log.Printf("Warning: Error loading .env file: %v. Relying on OS environment variables.", errEnv)
		}
	} else {
		log.Println(".env file loaded successfully.")
	}

	log.Println("Loading application configuration...")

	maxUploadSizeBytesStr := getEnv("MAX_UPLOAD_SIZE_BYTES", "10485760") // 10MB default
	maxUploadSizeBytes, err := strconv.ParseInt(maxUploadSizeBytesStr, 10, 64)
	if err != nil {
		log.Printf("WARNING: Invalid MAX_UPLOAD_SIZE_BYTES format '%s'. Using default 10MB. Error: %v", maxUploadSizeBytesStr, err)
		maxUploadSizeBytes = 10 * 1024 * 1024
	}

	Cfg = &AppConfig{
		// Core
		Port:     getEnv("PORT", "8080"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		// Uploads
		MaxUploadSizeBytes: maxUploadSizeBytes,
		MaxRowCount:        getEnvAsInt("MAX_ROW_COUNT", 50000),

		// Ingestion defaults
		DefaultSheetName:     getEnv("DEFAULT_SHEET_NAME", "ARP"),
		DefaultHeaderKeyword: getEnv("DEFAULT_HEADER_KEYWORD", "ITEM"),
		DefaultAmountColumn:  getEnv("DEFAULT_AMOUNT_COLUMN", "TOTAL"),

		// Cache
		CacheExpiration:      getEnvAsDuration("CACHE_EXPIRATION", 15*time.Minute),
		CacheCleanupInterval: getEnvAsDuration("CACHE_CLEANUP_INTERVAL", 30*time.Minute),

		// CORS
		AllowedOrigins: getAllowedOrigins("ALLOWED_ORIGINS"),
	}

	log.Printf("Configuration loaded: Port=%s, LogLevel=%s, MaxUploadSizeBytes=%d, MaxRowCount=%d",
		Cfg.Port, Cfg.LogLevel, Cfg.MaxUploadSizeBytes, Cfg.MaxRowCount)
}

// getEnv retrieves an environment variable or returns a fallback value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	log.Printf("Environment variable %s not set, using default: %s", key, fallback)
	return fallback
}

// getEnvAsInt retrieves an environment variable as an integer or returns a fallback.
func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	log.Printf("Invalid integer value for %s ('%s'), using default: %d", key, valueStr, fallback)
	return fallback
}

// getEnvAsDuration retrieves an environment variable as a time.Duration or returns a fallback.
func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	log.Printf("Invalid duration value for %s ('%s'), using default: %s", key, valueStr, fallback.String())
	return fallback
}

// getAllowedOrigins retrieves and parses the comma-separated list of CORS origins.
func getAllowedOrigins(key string) []string {
	originsStr := getEnv(key, "http://localhost:3000")
	if originsStr == "" {
		return []string{}
	}
	origins := strings.Split(originsStr, ",")
	for i, origin := range origins {
		origins[i] = strings.TrimSpace(origin)
	}
	return origins
}
