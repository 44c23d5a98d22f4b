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
	DatabasePath string
	LogLevel     string
	DryRun       bool

	// Mailbox settings (IMAP)
	IMAPHost        string
	IMAPPort        int
	IMAPUser        string
	IMAPPassword    string
	IMAPFolder      string
	SubjectCriteria []string
	FetchLimit      uint32
	FetchTimeout    time.Duration

	// Status API settings
	ServeAPI bool
	Port     string
}

// Cfg is a global instance of the AppConfig.
var Cfg *AppConfig

// LoadConfig loads configuration from environment variables or a .env file.
// It centralizes all configuration logic for the application.
func LoadConfig() {
	// 1. Try loading from the current directory (standard behavior)
	errEnv := godotenv.Load()

	// 2. If not found, try loading from the parent directory (common when running from a subdir)
	if errEnv != nil {
		errEnv = godotenv.Load("../.env")
	}

	if errEnv != nil {
		if os.IsNotExist(errEnv) {
			log.Println("Info: No .env file found. Relying on OS environment variables.")
		} else {
			log.Printf("Warning: Error loading .env file: %v. Relying on OS environment variables.", errEnv)
		}
	} else {
		log.Println(".env file loaded successfully.")
	}

	log.Println("Loading application configuration...")

	// --- Mailbox credentials (required) ---
	imapHost := getRequiredEnv("EMAIL_HOST")
	imapUser := getRequiredEnv("EMAIL_USER")
	imapPassword := getRequiredEnv("EMAIL_PASS")

	// --- Populate the Global Config Struct ---
	Cfg = &AppConfig{
		// Core
		DatabasePath: getEnv("DATABASE_PATH", "./tradefolio.db"),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
		DryRun:       getEnvAsBool("DRY_RUN", true),

		// Mailbox
		IMAPHost:        imapHost,
		IMAPPort:        getEnvAsInt("EMAIL_PORT", 993),
		IMAPUser:        imapUser,
		IMAPPassword:    imapPassword,
		IMAPFolder:      getEnv("EMAIL_FOLDER", "INBOX"),
		SubjectCriteria: getSubjectCriteria("SUBJECT_CRITERIA"),
		FetchLimit:      uint32(getEnvAsInt("FETCH_LIMIT", 50)),
		FetchTimeout:    getEnvAsDuration("FETCH_TIMEOUT", 60*time.Second),

		// Status API
		ServeAPI: getEnvAsBool("SERVE_API", false),
		Port:     getEnv("PORT", "8080"),
	}

	log.Printf("Configuration loaded: LogLevel=%s, DBPath=%s, DryRun=%t, Folder=%s",
		Cfg.LogLevel, Cfg.DatabasePath, Cfg.DryRun, Cfg.IMAPFolder)
	log.Printf("Subject criteria loaded: %d", len(Cfg.SubjectCriteria))
}

// getEnv retrieves an environment variable or returns a fallback value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	log.Printf("Environment variable %s not set, using default: %s", key, fallback)
	return fallback
}

// getRequiredEnv retrieves an environment variable or terminates the application if not set.
func getRequiredEnv(key string) string {
	value, exists := os.LookupEnv(key)
	if !exists || strings.TrimSpace(value) == "" {
		log.Fatalf("FATAL: Required environment variable %s is not set or is empty. Application cannot start.", key)
	}
	return value
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

// getEnvAsBool retrieves an environment variable as a boolean or returns a fallback.
func getEnvAsBool(key string, fallback bool) bool {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	if value, err := strconv.ParseBool(strings.ToLower(valueStr)); err == nil {
		return value
	}
	log.Printf("Invalid boolean value for %s ('%s'), using default: %t", key, valueStr, fallback)
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

// getSubjectCriteria retrieves and parses the comma-separated list of subject
// markers that identify trade-confirmation emails.
func getSubjectCriteria(key string) []string {
	criteriaStr := getEnv(key, "Trade Confirmation,富邦證券")
	if criteriaStr == "" {
		return []string{}
	}
	criteria := strings.Split(criteriaStr, ",")
	for i, c := range criteria {
		criteria[i] = strings.TrimSpace(c)
	}
	return criteria
}
