// Package config loads parley's runtime configuration from a YAML file,
// a .env file and PARLEY_* environment variables, in increasing priority.
package config

import (
	"fmt"
	"time"
)

// Config is the root configuration.
type Config struct {
	Log      LogConfig      `mapstructure:"log"`
	Store    StoreConfig    `mapstructure:"store"`
	Lock     LockConfig     `mapstructure:"lock"`
	HTTP     HTTPConfig     `mapstructure:"http"`
	MCP      MCPConfig      `mapstructure:"mcp"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	Registry RegistryConfig `mapstructure:"registry"`
	Input    InputConfig    `mapstructure:"input"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// StoreConfig selects and configures the conversation state backend.
type StoreConfig struct {
	Backend    string           `mapstructure:"backend"`
	File       FileConfig       `mapstructure:"file"`
	Redis      RedisConfig      `mapstructure:"redis"`
	DynamoDB   DynamoDBConfig   `mapstructure:"dynamodb"`
	Postgres   PostgresConfig   `mapstructure:"postgres"`
	Encryption EncryptionConfig `mapstructure:"encryption"`
}

type FileConfig struct {
	Dir string `mapstructure:"dir"`
}

type RedisConfig struct {
	Address  string        `mapstructure:"address"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	Prefix   string        `mapstructure:"prefix"`
	TTL      time.Duration `mapstructure:"ttl"`
}

type DynamoDBConfig struct {
	Table  string        `mapstructure:"table"`
	Region string        `mapstructure:"region"`
	TTL    time.Duration `mapstructure:"ttl"`
}

type PostgresConfig struct {
	DSN   string `mapstructure:"dsn"`
	Table string `mapstructure:"table"`
}

// EncryptionConfig holds base64-encoded AES-256 keys. An empty Key disables encryption.
type EncryptionConfig struct {
	Key          string   `mapstructure:"key"`
	FallbackKeys []string `mapstructure:"fallback_keys"`
}

// LockConfig enables the Redis-backed distributed lock for multi-replica deployments.
type LockConfig struct {
	Distributed bool          `mapstructure:"distributed"`
	TTL         time.Duration `mapstructure:"ttl"`
}

type HTTPConfig struct {
	Port int `mapstructure:"port"`
}

type MCPConfig struct {
	Transport string `mapstructure:"transport"`
	Port      int    `mapstructure:"port"`
}

type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

type RegistryConfig struct {
	File string `mapstructure:"file"`
}

type InputConfig struct {
	MaxSize int `mapstructure:"max_size"`
}

// Backends supported by store.backend.
const (
	BackendMemory   = "memory"
	BackendFile     = "file"
	BackendRedis    = "redis"
	BackendDynamoDB = "dynamodb"
	BackendPostgres = "postgres"
)

// Validate checks the fields that would otherwise fail late, at first use.
func (c *Config) Validate() error {
	switch c.Log.Format {
	case "json", "text":
	default:
		return fmt.Errorf("log.format must be json or text, got %q", c.Log.Format)
	}

	switch c.Store.Backend {
	case BackendMemory, BackendFile:
	case BackendRedis:
		if c.Store.Redis.Address == "" {
			return fmt.Errorf("store.redis.address is required")
		}
	case BackendDynamoDB:
		if c.Store.DynamoDB.Table == "" {
			return fmt.Errorf("store.dynamodb.table is required")
		}
	case BackendPostgres:
		if c.Store.Postgres.DSN == "" {
			return fmt.Errorf("store.postgres.dsn is required")
		}
	default:
		return fmt.Errorf("unknown store.backend %q", c.Store.Backend)
	}

	if c.Lock.Distributed && c.Store.Redis.Address == "" {
		return fmt.Errorf("lock.distributed requires store.redis.address")
	}
	if c.Lock.TTL <= 0 {
		return fmt.Errorf("lock.ttl must be positive")
	}

	switch c.MCP.Transport {
	case "stdio", "sse":
	default:
		return fmt.Errorf("mcp.transport must be stdio or sse, got %q", c.MCP.Transport)
	}
	if c.Input.MaxSize < 0 {
		return fmt.Errorf("input.max_size must not be negative")
	}
	return nil
}
