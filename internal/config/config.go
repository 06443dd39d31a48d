package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	Port string
	Env  string

	// Database
	DatabaseURL   string
	MigrationsDir string

	// Redis
	RedisURL string

	// JWT
	JWTSecret string

	// Gemini AI. An empty key leaves the AI endpoints answering with a
	// configuration error instead of failing startup.
	GeminiAPIKey string
	GeminiModel  string

	// Storage
	StorageType string
	StoragePath string
	S3Endpoint  string
	S3Region    string
	S3AccessKey string
	S3SecretKey string
	S3Bucket    string
	S3UseSSL    bool

	// Worker
	WorkerCount int

	// Uploads per client per minute
	UploadRateLimit int

	// Frontend
	FrontendURL string
}

func Load() *Config {
	// Load .env file if it exists
	godotenv.Load()

	cfg := &Config{
		Port:            getEnvOrDefault("PORT", "8080"),
		Env:             getEnvOrDefault("ENV", "development"),
		DatabaseURL:     mustGetEnv("DATABASE_URL"),
		MigrationsDir:   getEnvOrDefault("MIGRATIONS_DIR", "migrations"),
		RedisURL:        mustGetEnv("REDIS_URL"),
		JWTSecret:       mustGetEnv("JWT_SECRET"),
		GeminiAPIKey:    getEnvOrDefault("GEMINI_API_KEY", ""),
		GeminiModel:     getEnvOrDefault("GEMINI_MODEL", "gemini-2.0-flash"),
		StorageType:     getEnvOrDefault("STORAGE_TYPE", "local"),
		StoragePath:     getEnvOrDefault("STORAGE_PATH", "./uploads"),
		S3Endpoint:      getEnvOrDefault("S3_ENDPOINT", ""),
		S3Region:        getEnvOrDefault("S3_REGION", "us-east-1"),
		S3AccessKey:     getEnvOrDefault("S3_ACCESS_KEY", ""),
		S3SecretKey:     getEnvOrDefault("S3_SECRET_KEY", ""),
		S3Bucket:        getEnvOrDefault("S3_BUCKET", "notebooklm-uploads"),
		S3UseSSL:        getEnvAsBoolOrDefault("S3_USE_SSL", true),
		WorkerCount:     getEnvAsIntOrDefault("WORKER_COUNT", 5),
		UploadRateLimit: getEnvAsIntOrDefault("UPLOAD_RATE_LIMIT", 20),
		FrontendURL:     getEnvOrDefault("FRONTEND_URL", "http://localhost:5173"),
	}

	return cfg
}

func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
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

func getEnvAsBoolOrDefault(key string, defaultVal bool) bool {
	b, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return defaultVal
	}
	return b
}
