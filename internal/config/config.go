package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// Level tally modes
const (
	TallyModeFull    = "full"
	TallyModePartial = "partial"
)

// Config holds all application configuration
type Config struct {
	Database  DatabaseConfig
	Server    ServerConfig
	App       AppConfig
	Network   NetworkConfig
	Codes     CodesConfig
	Jobs      JobsConfig
	RateLimit RateLimitConfig
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// ServerConfig holds server settings
type ServerConfig struct {
	Port           string
	Env            string
	AllowedOrigins []string
}

// AppConfig holds application-specific settings
type AppConfig struct {
	JWTSecret         string
	JWTTTL            time.Duration
	RewardCatalogFile string
}

// NetworkConfig holds the referral engine parameters
type NetworkConfig struct {
	MaxLevel             int
	InitialReward        decimal.Decimal
	LevelReward          decimal.Decimal
	DirectReferralUnlock int64
	TallyMode            string
}

// CodesConfig holds activation code settings
type CodesConfig struct {
	TTL      time.Duration
	BatchMax int
}

// JobsConfig holds background job settings
type JobsConfig struct {
	TallyReconcileEnabled  bool
	TallyReconcileInterval time.Duration
}

// RateLimitConfig holds per-user limits for write endpoints
type RateLimitConfig struct {
	RequestsPerSecond float64
	Burst             int
	CleanupInterval   time.Duration
	IdleTTL           time.Duration
}

// DefaultNetworkConfig returns the engine parameters used when nothing is overridden.
func DefaultNetworkConfig() NetworkConfig {
	return NetworkConfig{
		MaxLevel:             6,
		InitialReward:        decimal.NewFromInt(300),
		LevelReward:          decimal.NewFromInt(30),
		DirectReferralUnlock: 10,
		TallyMode:            TallyModeFull,
	}
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	jwtTTL, err := getEnvDuration("JWT_TTL", 24*time.Hour)
	if err != nil {
		return nil, err
	}
	codeTTL, err := getEnvDuration("ACTIVATION_CODE_TTL", 30*24*time.Hour)
	if err != nil {
		return nil, err
	}
	reconcileInterval, err := getEnvDuration("TALLY_RECONCILE_INTERVAL", 6*time.Hour)
	if err != nil {
		return nil, err
	}
	limiterCleanup, err := getEnvDuration("RATE_LIMIT_CLEANUP_INTERVAL", time.Minute)
	if err != nil {
		return nil, err
	}
	limiterIdle, err := getEnvDuration("RATE_LIMIT_IDLE_TTL", 10*time.Minute)
	if err != nil {
		return nil, err
	}

	defaults := DefaultNetworkConfig()
	initialReward, err := getEnvDecimal("COMMISSION_INITIAL_REWARD", defaults.InitialReward)
	if err != nil {
		return nil, err
	}
	levelReward, err := getEnvDecimal("COMMISSION_LEVEL_REWARD", defaults.LevelReward)
	if err != nil {
		return nil, err
	}

	config := &Config{
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			DBName:   getEnv("DB_NAME", "mlm_platform"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Server: ServerConfig{
			Port:           getEnv("SERVER_PORT", "8080"),
			Env:            getEnv("ENV", "development"),
			AllowedOrigins: splitList(getEnv("ALLOWED_ORIGINS", "http://localhost:3000")),
		},
		App: AppConfig{
			JWTSecret:         getEnv("JWT_SECRET", ""),
			JWTTTL:            jwtTTL,
			RewardCatalogFile: getEnv("REWARD_CATALOG_FILE", "rewards.yaml"),
		},
		Network: NetworkConfig{
			MaxLevel:             getEnvInt("COMMISSION_MAX_LEVEL", defaults.MaxLevel),
			InitialReward:        initialReward,
			LevelReward:          levelReward,
			DirectReferralUnlock: int64(getEnvInt("DIRECT_REFERRAL_UNLOCK", int(defaults.DirectReferralUnlock))),
			TallyMode:            getEnv("LEVEL_TALLY_MODE", defaults.TallyMode),
		},
		Codes: CodesConfig{
			TTL:      codeTTL,
			BatchMax: getEnvInt("ACTIVATION_CODE_BATCH_MAX", 500),
		},
		Jobs: JobsConfig{
			TallyReconcileEnabled:  getEnvBool("TALLY_RECONCILE_ENABLED", true),
			TallyReconcileInterval: reconcileInterval,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: getEnvFloat("RATE_LIMIT_RPS", 2),
			Burst:             getEnvInt("RATE_LIMIT_BURST", 5),
			CleanupInterval:   limiterCleanup,
			IdleTTL:           limiterIdle,
		},
	}

	// Validate required fields
	if config.App.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	if config.Network.TallyMode != TallyModeFull && config.Network.TallyMode != TallyModePartial {
		return nil, fmt.Errorf("LEVEL_TALLY_MODE must be %q or %q, got %q",
			TallyModeFull, TallyModePartial, config.Network.TallyMode)
	}

	if config.Network.MaxLevel < 1 {
		return nil, fmt.Errorf("COMMISSION_MAX_LEVEL must be positive")
	}

	return config, nil
}

// IsProduction reports whether the service runs with production settings
func (c *Config) IsProduction() bool {
	return c.Server.Env == "production"
}

// GetDSN returns the PostgreSQL connection string
func (c *Config) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.DBName,
		c.Database.SSLMode,
	)
}

// getEnv gets an environment variable with a fallback default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	if value := os.Getenv(key); value != "" {
		duration, err := time.ParseDuration(value)
		if err != nil {
			return 0, fmt.Errorf("invalid duration for %s: %q (%w)", key, value, err)
		}
		return duration, nil
	}
	return defaultValue, nil
}

func getEnvDecimal(key string, defaultValue decimal.Decimal) (decimal.Decimal, error) {
	if value := os.Getenv(key); value != "" {
		d, err := decimal.NewFromString(value)
		if err != nil {
			return decimal.Zero, fmt.Errorf("invalid amount for %s: %q (%w)", key, value, err)
		}
		return d, nil
	}
	return defaultValue, nil
}

func splitList(raw string) []string {
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
