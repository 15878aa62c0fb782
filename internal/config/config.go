package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all application configuration.
type Config struct {
	// RPC surface bind
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
	// Origins
	AllowOrigins string `yaml:"allow_origins"`

	// Deployment safety
	RequireApproval bool   `yaml:"require_approval"`
	RollbackTimeout int    `yaml:"rollback_timeout"` // default watchdog deadline, seconds
	BackupDir       string `yaml:"backup_dir"`

	// Database (optional; empty DSN disables the audit trail)
	PostgresDSN string `yaml:"postgres_dsn"`

	// Live traffic monitoring
	TrafficMonitor bool `yaml:"traffic_monitor"`

	// Logging
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"` // "json" or "text"
}

// DefaultBackupDir is where pre-apply ruleset snapshots are written.
const DefaultBackupDir = "/var/lib/afo/backups"

// Load reads configuration from environment variables with sensible defaults.
func Load() (*Config, error) {
	// Load .env file if it exists (won't override existing env vars)
	_ = godotenv.Load()

	cfg := &Config{
		Host:            getEnv("MCP_HOST", "127.0.0.1"),
		Port:            getEnvInt("MCP_PORT", 8765),
		AllowOrigins:    getEnv("ALLOW_ORIGINS", "*"),
		RequireApproval: getEnv("REQUIRE_APPROVAL", "1") == "1",
		RollbackTimeout: getEnvInt("ROLLBACK_TIMEOUT", 30),
		BackupDir:       getEnv("BACKUP_DIR", DefaultBackupDir),
		PostgresDSN:     getEnv("DATABASE_DSN", ""),
		TrafficMonitor:  getEnvBool("TRAFFIC_MONITOR", true),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		LogFormat:       getEnv("LOG_FORMAT", "json"),
	}

	if cfg.Port < 1 || cfg.Port > 65535 {
		return nil, fmt.Errorf("invalid MCP_PORT: %d", cfg.Port)
	}
	if cfg.RollbackTimeout < 1 {
		return nil, fmt.Errorf("invalid ROLLBACK_TIMEOUT: %d", cfg.RollbackTimeout)
	}
	if !cfg.RequireApproval {
		fmt.Fprintln(os.Stderr, "WARNING: REQUIRE_APPROVAL=0 disables the approval gate. Rules will apply without approved=true!")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
