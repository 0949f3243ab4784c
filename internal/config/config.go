// Package config loads runtime configuration from defaults, an optional YAML
// file and ETHICURE_* environment variables (optionally seeded from .env).
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Write modes accepted by WriteMode.
const (
	WriteModeLastWriterWins = "lww"
	WriteModeCompareAndSwap = "cas"
)

// Config is the full runtime configuration.
type Config struct {
	KeyPrefix string  `yaml:"key_prefix"`
	WriteMode string  `yaml:"write_mode"`
	Storage   Storage `yaml:"storage"`
	Log       Log     `yaml:"log"`
	Metrics   Metrics `yaml:"metrics"`
}

// Storage selects and configures the key-value driver.
type Storage struct {
	Driver      string `yaml:"driver"`
	FSRoot      string `yaml:"fs_root"`
	SQLitePath  string `yaml:"sqlite_path"`
	PostgresDSN string `yaml:"postgres_dsn"`
	Mongo       Mongo  `yaml:"mongo"`
	S3          S3     `yaml:"s3"`
}

// Mongo configures the mongo driver.
type Mongo struct {
	URI        string `yaml:"uri"`
	Database   string `yaml:"database"`
	Collection string `yaml:"collection"`
}

// S3 configures the s3 driver.
type S3 struct {
	Bucket          string `yaml:"bucket"`
	Region          string `yaml:"region"`
	Endpoint        string `yaml:"endpoint"`
	PathStyle       bool   `yaml:"path_style"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	SessionToken    string `yaml:"session_token"`
}

// Log configures the structured logger.
type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Metrics configures the metrics recorder.
type Metrics struct {
	// Backend is one of none, expvar, prometheus.
	Backend   string `yaml:"backend"`
	Namespace string `yaml:"namespace"`
}

// Default returns the configuration used when nothing is overridden.
func Default() Config {
	return Config{
		KeyPrefix: "app",
		WriteMode: WriteModeLastWriterWins,
		Storage: Storage{
			Driver:     "fs",
			FSRoot:     "./data",
			SQLitePath: "ethicure.db",
			Mongo:      Mongo{Database: "ethicure", Collection: "kv_entries"},
			S3:         S3{Region: "us-east-1"},
		},
		Log:     Log{Level: "info", Format: "text"},
		Metrics: Metrics{Backend: "none", Namespace: "ethicure"},
	}
}

// Load reads .env (when present), the YAML file named by ETHICURE_CONFIG
// (when set) and the process environment, in increasing precedence.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	return LoadFrom(os.LookupEnv)
}

// LoadFrom builds a configuration using lookup for environment access.
func LoadFrom(lookup func(string) (string, bool)) (Config, error) {
	cfg := Default()
	if path, ok := lookup("ETHICURE_CONFIG"); ok && path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return Config{}, err
		}
	}
	if err := cfg.applyEnv(lookup); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) mergeFile(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(b, c); err != nil {
		return fmt.Errorf("decode config %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	str("ETHICURE_KEY_PREFIX", &c.KeyPrefix)
	str("ETHICURE_WRITE_MODE", &c.WriteMode)
	str("ETHICURE_STORAGE_DRIVER", &c.Storage.Driver)
	str("ETHICURE_FS_ROOT", &c.Storage.FSRoot)
	str("ETHICURE_SQLITE_PATH", &c.Storage.SQLitePath)
	str("ETHICURE_POSTGRES_DSN", &c.Storage.PostgresDSN)
	str("ETHICURE_MONGO_URI", &c.Storage.Mongo.URI)
	str("ETHICURE_MONGO_DATABASE", &c.Storage.Mongo.Database)
	str("ETHICURE_MONGO_COLLECTION", &c.Storage.Mongo.Collection)
	str("ETHICURE_S3_BUCKET", &c.Storage.S3.Bucket)
	str("ETHICURE_S3_REGION", &c.Storage.S3.Region)
	str("ETHICURE_S3_ENDPOINT", &c.Storage.S3.Endpoint)
	str("ETHICURE_S3_ACCESS_KEY_ID", &c.Storage.S3.AccessKeyID)
	str("ETHICURE_S3_SECRET_ACCESS_KEY", &c.Storage.S3.SecretAccessKey)
	str("ETHICURE_S3_SESSION_TOKEN", &c.Storage.S3.SessionToken)
	str("ETHICURE_LOG_LEVEL", &c.Log.Level)
	str("ETHICURE_LOG_FORMAT", &c.Log.Format)
	str("ETHICURE_METRICS_BACKEND", &c.Metrics.Backend)
	str("ETHICURE_METRICS_NAMESPACE", &c.Metrics.Namespace)
	if v, ok := lookup("ETHICURE_S3_PATH_STYLE"); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("ETHICURE_S3_PATH_STYLE: %w", err)
		}
		c.Storage.S3.PathStyle = b
	}
	return nil
}

// Validate checks enumerated settings.
func (c Config) Validate() error {
	if strings.TrimSpace(c.KeyPrefix) == "" {
		return fmt.Errorf("key prefix must not be empty")
	}
	switch c.WriteMode {
	case WriteModeLastWriterWins, WriteModeCompareAndSwap:
	default:
		return fmt.Errorf("unknown write mode %q", c.WriteMode)
	}
	switch c.Storage.Driver {
	case "memory", "fs", "sqlite", "postgres", "mongo":
	case "s3":
		if c.Storage.S3.Bucket == "" {
			return fmt.Errorf("s3 driver requires a bucket")
		}
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	switch c.Metrics.Backend {
	case "", "none", "expvar", "prometheus":
	default:
		return fmt.Errorf("unknown metrics backend %q", c.Metrics.Backend)
	}
	return nil
}
