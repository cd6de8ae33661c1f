package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g. PARLEY_STORE_BACKEND.
const EnvPrefix = "PARLEY"

// SetDefaults registers the default value of every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("store.backend", BackendMemory)
	v.SetDefault("store.file.dir", ".parley/conversations")
	v.SetDefault("store.redis.address", "")
	v.SetDefault("store.redis.password", "")
	v.SetDefault("store.redis.db", 0)
	v.SetDefault("store.redis.prefix", "parley:")
	v.SetDefault("store.redis.ttl", "0s")
	v.SetDefault("store.dynamodb.table", "")
	v.SetDefault("store.dynamodb.region", "")
	v.SetDefault("store.dynamodb.ttl", "0s")
	v.SetDefault("store.postgres.dsn", "")
	v.SetDefault("store.postgres.table", "parley_conversations")
	v.SetDefault("store.encryption.key", "")
	v.SetDefault("store.encryption.fallback_keys", []string{})
	v.SetDefault("lock.distributed", false)
	v.SetDefault("lock.ttl", "30s")
	v.SetDefault("http.port", 8080)
	v.SetDefault("mcp.transport", "stdio")
	v.SetDefault("mcp.port", 8081)
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("registry.file", "")
	v.SetDefault("input.max_size", 4096)
}

// Load reads configuration into a Config. file may be empty, in which case
// parley.yaml is looked up in ./configs and the working directory; a missing
// file is not an error. A .env file in the working directory is loaded first
// and never overrides variables already set in the environment.
func Load(v *viper.Viper, file string) (*Config, error) {
	if err := loadEnvFile(".env"); err != nil {
		return nil, err
	}

	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("parley")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func loadEnvFile(path string) error {
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}
