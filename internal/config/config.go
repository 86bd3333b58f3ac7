package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	ServerPort string
	BaseURL    string

	// Database: sqlite (default), postgres or mysql
	DatabaseType string
	DatabaseURL  string
	DatabasePath string

	MigrationsPath  string
	TemplatesPath   string
	StaticFilesPath string
	UploadsPath     string
	UploadMaxSize   int64

	SessionDuration time.Duration
	SessionSecret   string
	JWTSecret       string

	// Amazon SES notification email
	AWSRegion    string
	SESFromEmail string
	SESFromName  string

	// SMSPortal notifications (optional)
	SMSPortalClientID string
	SMSPortalSecret   string

	// Payment gateway (mobile checkout)
	GatewayPublicKey   string
	GatewaySecret      string
	GatewayCheckoutURL string

	// Google social login (optional)
	GoogleClientID     string
	GoogleClientSecret string

	// Clan bank account quoted in EFT instructions
	BankName          string
	BankAccountNumber string
	BankBranchCode    string

	NotifyWorkers int
}

// Load reads configuration from the environment with sensible defaults.
// A .env file in the working directory is loaded first when present.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		ServerPort: getEnv("PORT", "8080"),
		BaseURL:    getEnv("BASE_URL", "http://localhost:8080"),

		DatabaseType: getEnv("DB_TYPE", "sqlite"),
		DatabaseURL:  getEnv("DB_URL", ""),
		DatabasePath: getEnv("DB_PATH", "./clanledger.db"),

		MigrationsPath:  getEnv("MIGRATIONS_PATH", "./migrations"),
		TemplatesPath:   getEnv("TEMPLATES_PATH", "./internal/templates"),
		StaticFilesPath: getEnv("STATIC_PATH", "./static"),
		UploadsPath:     getEnv("UPLOADS_PATH", "./uploads"),
		UploadMaxSize:   10 * 1024 * 1024, // 10MB

		SessionDuration: getEnvDuration("SESSION_DURATION", 24*time.Hour),
		SessionSecret:   getEnv("SESSION_SECRET", "insecure-dev-secret"),
		JWTSecret:       getEnv("JWT_SECRET", "insecure-dev-secret"),

		AWSRegion:    getEnv("AWS_REGION", "af-south-1"),
		SESFromEmail: getEnv("SES_FROM_EMAIL", ""),
		SESFromName:  getEnv("SES_FROM_NAME", "Clan Ledger"),

		SMSPortalClientID: getEnv("SMSPORTAL_CLIENT_ID", ""),
		SMSPortalSecret:   getEnv("SMSPORTAL_SECRET", ""),

		GatewayPublicKey:   getEnv("GATEWAY_PUBLIC_KEY", ""),
		GatewaySecret:      getEnv("GATEWAY_SECRET", ""),
		GatewayCheckoutURL: getEnv("GATEWAY_CHECKOUT_URL", "https://payments.yoco.com/api/checkouts"),

		GoogleClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),

		BankName:          getEnv("BANK_NAME", ""),
		BankAccountNumber: getEnv("BANK_ACCOUNT_NUMBER", ""),
		BankBranchCode:    getEnv("BANK_BRANCH_CODE", ""),

		NotifyWorkers: getEnvInt("NOTIFY_WORKERS", 2),
	}
}

// getEnv reads an environment variable or returns a default value
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

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
