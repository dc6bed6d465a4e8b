package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all runtime settings, loaded from environment variables with
// an optional .env file for local development.
type Config struct {
	HTTPPort    string
	DatabaseURL string // empty selects the in-memory dev mode
	DBMaxConn   int

	JWTSecret     string
	AdminIdentity string

	MetadataKeyHex string // 32-byte hex key for the metadata envelope

	RiskServiceURL string
	RiskDelta      int

	AgentIdentity    string
	RiskInterval     time.Duration
	ProofInterval    time.Duration
	ExpiryInterval   time.Duration
	PaymentTTL       time.Duration
	ScanBatchSize    int
	VerifyingKeyPath string // Groth16 verifying key; proof worker disabled when unset
}

// Load reads configuration from the environment.
func Load() (*Config, error) {
	// Load .env file (optional - for local development)
	_ = godotenv.Load()

	cfg := &Config{
		HTTPPort:    getEnv("HTTP_PORT", "8080"),
		DatabaseURL: getEnv("DATABASE_URL", ""),
		DBMaxConn:   getEnvAsInt("DB_MAX_CONN", 10),

		JWTSecret:     getEnv("JWT_SECRET", ""),
		AdminIdentity: getEnv("ADMIN_IDENTITY", ""),

		MetadataKeyHex: getEnv("METADATA_KEY", ""),

		RiskServiceURL: getEnv("RISK_SERVICE_URL", "http://localhost:9090"),
		RiskDelta:      getEnvAsInt("RISK_SIGNIFICANT_DELTA", 5),

		AgentIdentity:    getEnv("AGENT_IDENTITY", ""),
		RiskInterval:     getEnvAsDuration("RISK_SCAN_INTERVAL", 15*time.Second),
		ProofInterval:    getEnvAsDuration("PROOF_SCAN_INTERVAL", 30*time.Second),
		ExpiryInterval:   getEnvAsDuration("EXPIRY_SCAN_INTERVAL", 5*time.Minute),
		PaymentTTL:       getEnvAsDuration("PAYMENT_TTL", 24*time.Hour),
		ScanBatchSize:    getEnvAsInt("SCAN_BATCH_SIZE", 50),
		VerifyingKeyPath: getEnv("GROTH16_VK_PATH", ""),
	}

	// Validate required fields
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.AdminIdentity == "" {
		return nil, fmt.Errorf("ADMIN_IDENTITY is required")
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}
