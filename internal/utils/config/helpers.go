package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// ConfigHelpers provides convenient access to global configuration
type ConfigHelpers struct {
	config *GlobalConfig
}

// NewConfigHelpers creates a new config helpers instance
func NewConfigHelpers(config *GlobalConfig) *ConfigHelpers {
	return &ConfigHelpers{config: config}
}

// Workers returns the number of concurrent workers
func (c *ConfigHelpers) Workers() int {
	return c.config.Workers
}

// CacheDir returns the absolute path to the metadata cache, or "" when
// caching is switched off with an empty cache_dir.
func (c *ConfigHelpers) CacheDir() (string, error) {
	if c.config.CacheDir == "" {
		return "", nil
	}
	return filepath.Abs(c.config.CacheDir)
}

// LogLevel returns the configured log level
func (c *ConfigHelpers) LogLevel() string {
	return c.config.Logging.Level
}

// HTTPTimeout returns the per-request timeout, zero meaning none
func (c *ConfigHelpers) HTTPTimeout() time.Duration {
	return time.Duration(c.config.HTTP.TimeoutSeconds) * time.Second
}

// DownloadPath returns the absolute sync destination
func (c *ConfigHelpers) DownloadPath() (string, error) {
	return filepath.Abs(c.config.Sync.DownloadPath)
}

// CreateDownloadPath ensures the sync destination exists and is writable
func (c *ConfigHelpers) CreateDownloadPath() (string, error) {
	dir, err := c.DownloadPath()
	if err != nil {
		return "", fmt.Errorf("resolving download path: %w", err)
	}
	if err := createDirIfNotExists(dir); err != nil {
		return "", fmt.Errorf("cannot create destination dir %s: %w", dir, err)
	}
	probe, err := os.CreateTemp(dir, ".write-test-*")
	if err != nil {
		return "", fmt.Errorf("cannot write to destination dir %s: %w", dir, err)
	}
	probe.Close()
	os.Remove(probe.Name())
	return dir, nil
}

// Helper function to create directories
func createDirIfNotExists(dir string) error {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return os.MkdirAll(dir, 0755)
	}
	return nil
}
