// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	DataDir  string // Base directory for the warehouse and job-history databases (always absolute)
	Port     int
	LogLevel string
	DevMode  bool

	// Reporting
	Timezone            string // IANA zone used for "today" comparisons (e.g. "Europe/Amsterdam")
	WithinThresholdDays int    // Completed-within-threshold split for timelines

	// Reference cache
	CacheTTLSeconds int    // Single process-wide TTL for every cache entry
	CacheSpillPath  string // Optional msgpack spill file, empty disables spill

	// Warmup scheduler
	WarmupCron           string   // Five-field cron expression, validated at scheduler start
	FilterOptionVariants []string // Extra filter-option sets warmed per snapshot (e.g. "closed-included")

	// Backup
	Backup *BackupConfig
}

// BackupConfig holds the S3 warehouse backup settings.
// Backup is disabled when Bucket is empty.
type BackupConfig struct {
	Bucket        string
	Region        string
	Prefix        string
	Cron          string
	RetentionDays int // 0 keeps everything beyond the minimum
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	dataDir := getEnv("CASEFLOW_DATA_DIR", "")
	if dataDir == "" {
		dataDir = "./data"
	}

	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}

	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	cfg := &Config{
		DataDir:             absDataDir,
		Port:                getEnvAsInt("CASEFLOW_PORT", 8040),
		LogLevel:            getEnv("LOG_LEVEL", "info"),
		DevMode:             getEnvAsBool("DEV_MODE", false),
		Timezone:            getEnv("REPORT_TIMEZONE", "Europe/Amsterdam"),
		WithinThresholdDays: getEnvAsInt("WITHIN_THRESHOLD_DAYS", 5),
		CacheTTLSeconds:     getEnvAsInt("CACHE_TTL_SECONDS", 300),
		CacheSpillPath:      getEnv("CACHE_SPILL_PATH", filepath.Join(absDataDir, "refcache.msgpack")),
		// Default: five past every hour. An invalid override disables the
		// scheduler at start rather than falling back to this value.
		WarmupCron:           getEnv("WARMUP_CRON", "5 * * * *"),
		FilterOptionVariants: getEnvAsList("FILTER_OPTION_VARIANTS", nil),
		Backup:               loadBackupConfig(),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if required configuration is present
func (c *Config) Validate() error {
	if c.CacheTTLSeconds <= 0 {
		return fmt.Errorf("CACHE_TTL_SECONDS must be positive, got %d", c.CacheTTLSeconds)
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("invalid REPORT_TIMEZONE %q: %w", c.Timezone, err)
	}
	return nil
}

// Location resolves the configured reporting timezone.
// Validate has already confirmed the zone exists.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// CacheTTL returns the cache TTL as a duration
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLSeconds) * time.Second
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}

// loadBackupConfig loads S3 backup settings, nil-safe defaults
func loadBackupConfig() *BackupConfig {
	return &BackupConfig{
		Bucket:        getEnv("BACKUP_S3_BUCKET", ""),
		Region:        getEnv("BACKUP_S3_REGION", "eu-west-1"),
		Prefix:        getEnv("BACKUP_S3_PREFIX", "caseflow"),
		Cron:          getEnv("BACKUP_CRON", "30 2 * * *"),
		RetentionDays: getEnvAsInt("BACKUP_RETENTION_DAYS", 30),
	}
}
