package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	NodeEnv   string
	Port      string
	JWTSecret string
	Database  DatabaseConfig
	AI        AIConfig
	Storage   StorageConfig
}

// DatabaseConfig holds database configuration. EmbeddedDir and EmbeddedPort
// only apply in embedded mode (localhost host with an empty password).
type DatabaseConfig struct {
	Host         string
	Port         string
	Username     string
	Password     string
	Database     string
	EmbeddedDir  string
	EmbeddedPort int
	LogQueries   bool
}

// AIConfig holds Gemini configuration
type AIConfig struct {
	GeminiAPIKey string
	GeminiModel  string
}

// StorageConfig holds upload storage configuration. When Bucket is empty the
// server stores files on local disk under LocalDir.
type StorageConfig struct {
	Bucket        string
	LocalDir      string
	PublicBaseURL string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	port := getEnv("PORT", "3001")

	return &Config{
		NodeEnv:   getEnv("NODE_ENV", "development"),
		Port:      port,
		JWTSecret: jwtSecret,
		Database: DatabaseConfig{
			Host:         getEnv("PG_HOST", "localhost"),
			Port:         getEnv("PG_PORT", "5432"),
			Username:     getEnv("PG_USERNAME", "postgres"),
			Password:     os.Getenv("PG_PASSWORD"),
			Database:     getEnv("PG_DATABASE", "systemage"),
			EmbeddedDir:  getEnv("PG_EMBEDDED_DIR", "./db_data"),
			EmbeddedPort: getEnvInt("PG_EMBEDDED_PORT", 5433),
			LogQueries:   getEnv("DB_LOG_QUERIES", "false") == "true",
		},
		AI: AIConfig{
			GeminiAPIKey: os.Getenv("GEMINI_API_KEY"),
			GeminiModel:  getEnv("GEMINI_MODEL", "gemini-3-flash-preview"),
		},
		Storage: StorageConfig{
			Bucket:        os.Getenv("STORAGE_BUCKET"),
			LocalDir:      getEnv("STORAGE_LOCAL_DIR", "./uploads"),
			PublicBaseURL: getEnv("PUBLIC_BASE_URL", "http://localhost:"+port),
		},
	}, nil
}

// getEnv gets environment variable with default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}
