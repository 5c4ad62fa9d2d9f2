package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	Port   string
	DBName string

	AWSRegion    string
	AWSBucket    string
	AWSEndpoint  string // optional, for MinIO and other S3-compatible stores
	SignedURLTTL int    // seconds, for read links on honor assets
	UploadURLTTL int    // seconds, for freshly uploaded files

	ChromiumPath  string
	RenderTimeout int // seconds, cap on a single render-engine invocation

	JobPollIntervalMs      int
	JobMaxAttempts         int
	AssetWorkerConcurrency int

	EmailSender string
	Password    string // SMTP Password

	WebhookURL string // optional, POSTed to when honor assets finish
}

// AppConfig is a global variable to access configuration
var AppConfig *Config

// LoadConfig initializes configuration from environment variables or defaults
func LoadConfig() {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found. Using system environment variables.")
	}

	// Initialize AppConfig with values from environment variables
	AppConfig = &Config{
		Port:   getEnv("PORT", "4005"),
		DBName: getEnv("DB_NAME", "nexsaa_honors_dev"),

		AWSRegion:    getEnv("AWS_REGION", "ap-south-1"),
		AWSBucket:    getEnv("AWS_S3_BUCKET", "nexsaa-honors"),
		AWSEndpoint:  getEnv("AWS_S3_ENDPOINT", ""),
		SignedURLTTL: getEnvInt("SIGNED_URL_TTL_SEC", 600),
		UploadURLTTL: getEnvInt("UPLOAD_URL_TTL_SEC", 3600),

		ChromiumPath:  getEnv("CHROMIUM_PATH", "chromium"),
		RenderTimeout: getEnvInt("RENDER_TIMEOUT_SEC", 120),

		JobPollIntervalMs:      getEnvInt("JOB_POLL_INTERVAL_MS", 1000),
		JobMaxAttempts:         getEnvInt("JOB_MAX_ATTEMPTS", 3),
		AssetWorkerConcurrency: getEnvInt("ASSET_WORKER_CONCURRENCY", 2),

		EmailSender: getEnv("EMAIL_SENDER", ""),
		Password:    getEnv("PASSWORD", ""),

		WebhookURL: getEnv("WEBHOOK_URL", ""),
	}

	// Validate critical configuration
	if AppConfig.AWSBucket == "nexsaa-honors" {
		log.Println("Warning: Using default AWS_S3_BUCKET. Update it in your environment.")
	}
	if AppConfig.DBName == "nexsaa_honors_dev" {
		log.Println("Warning: Using default DBName. Update it in your environment.")
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvInt retrieves an environment variable as an integer or returns the default integer value
func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	intValue, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("Error converting environment variable %s to int: %v", key, err)
		return defaultValue
	}
	return intValue
}
