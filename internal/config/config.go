// Package config loads server settings from the environment.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/erazemk/zaloga/internal/model"
)

// Item store backends.
const (
	StoreMemory = "memory"
	StoreSQLite = "sqlite"
)

// Config holds the server settings. Flags may override values loaded from
// the environment before Validate is called.
type Config struct {
	Addr            string
	Username        string
	Password        string
	Store           string
	LogPath         string
	ShutdownTimeout time.Duration
}

// Load reads the configuration from ZALOGA_* environment variables, falling
// back to defaults for anything unset.
func Load() *Config {
	return &Config{
		Addr:            getEnvString("ZALOGA_ADDR", ":8080"),
		Username:        getEnvString("ZALOGA_USERNAME", "admin"),
		Password:        getEnvString("ZALOGA_PASSWORD", "password"),
		Store:           getEnvString("ZALOGA_STORE", StoreMemory),
		LogPath:         getEnvString("ZALOGA_LOG", ""),
		ShutdownTimeout: getEnvDuration("ZALOGA_SHUTDOWN_TIMEOUT", 5*time.Second),
	}
}

// Credential returns the login credential.
func (c *Config) Credential() model.Credential {
	return model.Credential{Username: c.Username, Password: c.Password}
}

// Validate checks the configuration for unusable values.
func (c *Config) Validate() error {
	if err := c.Credential().Validate(); err != nil {
		return err
	}
	if c.Store != StoreMemory && c.Store != StoreSQLite {
		return fmt.Errorf("unknown store %q (want %s or %s)", c.Store, StoreMemory, StoreSQLite)
	}
	if c.ShutdownTimeout <= 0 {
		return fmt.Errorf("shutdown timeout must be positive, got %s", c.ShutdownTimeout)
	}
	return nil
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}
