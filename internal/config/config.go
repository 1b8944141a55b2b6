package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/sadopc/cmdvault/internal/store"
)

// Environment keys.
const (
	EnvDB          = "CMDVAULT_DB"
	EnvLogLevel    = "CMDVAULT_LOG_LEVEL"
	EnvLogFile     = "CMDVAULT_LOG_FILE"
	EnvExecTimeout = "CMDVAULT_EXEC_TIMEOUT"
	EnvFile        = "CMDVAULT_ENV_FILE"
)

const DefaultExecTimeout = 10 * time.Minute

type Config struct {
	DBPath      string
	LogLevel    string
	LogFile     string
	ExecTimeout time.Duration
}

// LoadEnv loads variables from a .env file without overriding ones already
// set in the process environment. A missing file is not an error.
func LoadEnv(path string) error {
	if path == "" {
		path = ".env"
	}
	err := godotenv.Load(path)
	if err != nil && errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// GetEnv gets an environment variable or returns fallback when it is unset.
func GetEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

// Load reads the .env file named by CMDVAULT_ENV_FILE (or ./.env) and then
// resolves every setting from the environment, falling back to defaults.
func Load() (Config, error) {
	if err := LoadEnv(os.Getenv(EnvFile)); err != nil {
		return Config{}, err
	}

	var cfg Config
	cfg.DBPath = GetEnv(EnvDB, "")
	if cfg.DBPath == "" {
		p, err := store.DefaultDBPath()
		if err != nil {
			return Config{}, fmt.Errorf("resolve database path: %w", err)
		}
		cfg.DBPath = p
	}
	cfg.LogLevel = GetEnv(EnvLogLevel, "info")
	cfg.LogFile = GetEnv(EnvLogFile, filepath.Join(filepath.Dir(cfg.DBPath), "cmdvault.log"))

	cfg.ExecTimeout = DefaultExecTimeout
	if raw := GetEnv(EnvExecTimeout, ""); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", EnvExecTimeout, err)
		}
		if d <= 0 {
			return Config{}, fmt.Errorf("parse %s: must be positive, got %s", EnvExecTimeout, raw)
		}
		cfg.ExecTimeout = d
	}
	return cfg, nil
}
