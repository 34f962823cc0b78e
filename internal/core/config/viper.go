package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// LoadConfig loads configuration from file using viper.
// Environment > config file > defaults precedence.
func LoadConfig(configPath string) (*ServerConfig, error) {
	v := viper.New()

	// Defaults matching DefaultServerConfig
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.database_url", "sqlite://./data/rules.db")
	v.SetDefault("server.data_dir", "./data")
	v.SetDefault("server.request_timeout", "30s")
	v.SetDefault("server.log_format", "json")
	v.SetDefault("server.log_level", "info")

	// Bind environment variables with CRM_ prefix
	v.SetEnvPrefix("CRM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// API keys are environment-only; a key in a config file is a mistake.
	if err := validateNoSecretsInConfig(v); err != nil {
		return nil, err
	}

	cfg := &ServerConfig{
		Host:           v.GetString("server.host"),
		Port:           v.GetInt("server.port"),
		DatabaseURL:    v.GetString("server.database_url"),
		DataDir:        v.GetString("server.data_dir"),
		RequestTimeout: v.GetDuration("server.request_timeout"),
		LogFormat:      v.GetString("server.log_format"),
		LogLevel:       v.GetString("server.log_level"),
		CapacityLimits: capacityLimits(v),
	}

	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// capacityLimits reads the capacity section:
//
//	capacity:
//	  user:alice: 25
//	  team:inside-sales: 100
func capacityLimits(v *viper.Viper) map[string]int {
	limits := make(map[string]int)
	for key, val := range v.GetStringMap("capacity") {
		limits[key] = toInt(val)
	}
	return limits
}

func toInt(val any) int {
	switch n := val.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	default:
		return 0
	}
}

// validateConfig checks port range and positive timeout.
func validateConfig(cfg *ServerConfig) error {
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", cfg.Port)
	}
	if cfg.RequestTimeout <= 0 {
		return fmt.Errorf("request_timeout must be positive, got %v", cfg.RequestTimeout)
	}
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("database_url must not be empty")
	}
	for key, max := range cfg.CapacityLimits {
		if max <= 0 {
			return fmt.Errorf("capacity limit for %q must be positive, got %d", key, max)
		}
		if !strings.Contains(key, ":") {
			return fmt.Errorf("capacity key %q must be of the form kind:target", key)
		}
	}
	return nil
}

// validateNoSecretsInConfig enforces environment-only secrets.
func validateNoSecretsInConfig(v *viper.Viper) error {
	if v.IsSet("api_key") || v.IsSet("server.api_key") {
		return fmt.Errorf("API keys not allowed in config files (use CRM_API_KEY environment variable)")
	}
	return nil
}
