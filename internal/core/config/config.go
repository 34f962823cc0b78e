// Package config provides configuration management for the rules service.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// ServerConfig holds configuration for the HTTP rules API service.
type ServerConfig struct {
	Host           string
	Port           int
	DatabaseURL    string
	DataDir        string
	RequestTimeout time.Duration
	LogFormat      string
	LogLevel       string
	// CapacityLimits maps "kind:target" (e.g. "user:alice") to a maximum
	// concurrent lead load. Targets absent from the map are unlimited.
	CapacityLimits map[string]int
}

// DefaultServerConfig returns configuration with default values.
func DefaultServerConfig() *ServerConfig {
	return &ServerConfig{
		Host:           "0.0.0.0",
		Port:           8080,
		DatabaseURL:    "sqlite://./data/rules.db",
		DataDir:        "./data",
		RequestTimeout: 30 * time.Second,
		LogFormat:      "json",
		LogLevel:       "info",
		CapacityLimits: map[string]int{},
	}
}

// APIKeys extracts API keys from environment variables. Supports
// CRM_API_KEY (single) and CRM_API_KEY_N (rotation: old and new keys stay
// valid during migration). Keys never come from config files.
func APIKeys() ([]string, error) {
	var keys []string

	if val := strings.TrimSpace(os.Getenv("CRM_API_KEY")); val != "" {
		if err := validateAPIKey(val); err != nil {
			return nil, fmt.Errorf("CRM_API_KEY: %w", err)
		}
		keys = append(keys, val)
	}

	for i := 1; ; i++ {
		name := fmt.Sprintf("CRM_API_KEY_%d", i)
		val := strings.TrimSpace(os.Getenv(name))
		if val == "" {
			break
		}
		if err := validateAPIKey(val); err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		keys = append(keys, val)
	}

	return keys, nil
}

func validateAPIKey(key string) error {
	if len(key) < 32 {
		return fmt.Errorf("key must be at least 32 characters, got %d", len(key))
	}
	return nil
}
