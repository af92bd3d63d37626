package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port          string
	DatabaseURL   string
	JWTSecret     string
	EncryptionKey string

	JWTAccessExpiry  time.Duration
	JWTRefreshExpiry time.Duration

	// Scan job liveness sweep
	SweepInterval     time.Duration
	StuckTimeout      time.Duration
	StagnationTimeout time.Duration

	// Mailbox sync
	DefaultFolder     string
	IMAPDialTimeout   time.Duration
	DefaultMaxEmails  int
	IncrementalWindow time.Duration
}

func Load() *Config {
	// Load .env file if it exists
	_ = godotenv.Load()

	return &Config{
		Port:          getEnv("PORT", "8080"),
		DatabaseURL:   getEnv("DATABASE_URL", "host=localhost user=postgres password=postgres dbname=invoicescan port=5432 sslmode=disable"),
		JWTSecret:     getEnv("JWT_SECRET", "your-secret-key-change-in-production"),
		EncryptionKey: getEnv("ENCRYPTION_KEY", "dev-encryption-key-change-in-production"),

		JWTAccessExpiry:  getDurationEnv("JWT_ACCESS_EXPIRY", 15*time.Minute),
		JWTRefreshExpiry: getDurationEnv("JWT_REFRESH_EXPIRY", 7*24*time.Hour),

		SweepInterval:     getDurationEnv("SWEEP_INTERVAL", 5*time.Minute),
		StuckTimeout:      getDurationEnv("STUCK_JOB_TIMEOUT", 15*time.Minute),
		StagnationTimeout: getDurationEnv("STAGNATION_TIMEOUT", 10*time.Minute),

		DefaultFolder:     getEnv("IMAP_DEFAULT_FOLDER", "INBOX"),
		IMAPDialTimeout:   getDurationEnv("IMAP_DIAL_TIMEOUT", 30*time.Second),
		DefaultMaxEmails:  getIntEnv("SCAN_MAX_EMAILS", 100),
		IncrementalWindow: getDurationEnv("INCREMENTAL_WINDOW", 180*24*time.Hour),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
