// Package config loads deployment configuration from the environment,
// with an optional .env file for local development. The quota table and
// cycle length live here so they can vary per deployment and per test
// instead of being baked in as constants.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/bybuy30/leave-tracker/cycle"
	"github.com/bybuy30/leave-tracker/ledger"
)

type Config struct {
	Addr        string
	StoreDriver string // "memory", "sqlite", or "postgres"
	SQLitePath  string
	DatabaseURL string
	JWTSecret   string
	TokenTTL    time.Duration
	LogFile     string
	LogLevel    string

	CycleDays   int
	SickQuota   int
	CasualQuota int
	PublicQuota int
}

// Load reads configuration from the environment. A missing .env file
// is not an error.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		Addr:        getEnv("APP_ADDR", ":8080"),
		StoreDriver: getEnv("STORE_DRIVER", "sqlite"),
		SQLitePath:  getEnv("SQLITE_PATH", "leave-tracker.db"),
		DatabaseURL: getEnv("DATABASE_URL", ""),
		JWTSecret:   getEnv("JWT_SECRET", ""),
		TokenTTL:    getEnvDuration("TOKEN_TTL", 24*time.Hour),
		LogFile:     getEnv("LOG_FILE", ""),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		CycleDays:   getEnvInt("CYCLE_DAYS", cycle.DefaultDays),
		SickQuota:   getEnvInt("SICK_QUOTA", 12),
		CasualQuota: getEnvInt("CASUAL_QUOTA", 12),
		PublicQuota: getEnvInt("PUBLIC_QUOTA", 11),
	}
}

// Quotas assembles the configured allowance table.
func (c Config) Quotas() ledger.Quotas {
	return ledger.Quotas{
		ledger.Sick:   c.SickQuota,
		ledger.Casual: c.CasualQuota,
		ledger.Public: c.PublicQuota,
	}
}

// CyclePolicy assembles the configured cycle policy.
func (c Config) CyclePolicy() cycle.Policy {
	return cycle.Policy{Days: c.CycleDays}
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return fallback
}
