package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type Config struct {
	Port            string
	DBDriver        string
	DBSource        string
	SessionTTL      time.Duration
	CleanupInterval time.Duration
}

// LoadConfig reads configuration from the environment with development
// fallbacks. godotenv is loaded by main before this runs.
func LoadConfig() *Config {
	return &Config{
		Port:            getEnv("PORT", "8080"),
		DBDriver:        getEnv("DB_DRIVER", "sqlite"),
		DBSource:        getEnv("DB_SOURCE", "orderq.db"),
		SessionTTL:      getEnvDuration("SESSION_TTL_MINUTES", 120),
		CleanupInterval: getEnvDuration("CLEANUP_INTERVAL_MINUTES", 5),
	}
}

// InitDB opens the gorm connection for the configured driver.
func (c *Config) InitDB() (*gorm.DB, error) {
	switch c.DBDriver {
	case "mysql":
		return gorm.Open(mysql.Open(c.DBSource), &gorm.Config{})
	case "sqlite":
		return gorm.Open(sqlite.Open(c.DBSource), &gorm.Config{})
	}
	return nil, fmt.Errorf("unsupported DB_DRIVER: %s", c.DBDriver)
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}

func getEnvDuration(key string, fallbackMinutes int) time.Duration {
	if v, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return time.Duration(n) * time.Minute
		}
	}
	return time.Duration(fallbackMinutes) * time.Minute
}
