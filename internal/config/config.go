package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ErrConfigNotFound is returned when the config file does not exist.
// Callers can check for this with errors.Is(err, config.ErrConfigNotFound).
var ErrConfigNotFound = errors.New("config file not found")

// ConfigFileName is the file Load looks for.
const ConfigFileName = "sphelper.yaml"

// EnvFileName is the dotenv file LoadEnv reads by default.
const EnvFileName = ".env"

// ConnectionConfig describes the database either as a connection string or
// field by field. The password is never read from the file; use the
// connection string, SPHELPER_PASSWORD or the .env file.
type ConnectionConfig struct {
	ConnectionString string `yaml:"connection_string,omitempty"`
	Driver           string `yaml:"driver,omitempty"`
	Host             string `yaml:"host,omitempty"`
	Port             int    `yaml:"port,omitempty"`
	Instance         string `yaml:"instance,omitempty"`
	Username         string `yaml:"username,omitempty"`
	Database         string `yaml:"database,omitempty"`
	SSLMode          string `yaml:"sslmode,omitempty"`
	AppName          string `yaml:"app_name,omitempty"`
	AuthMethod       string `yaml:"auth_method,omitempty"`
	AzureTenantID    string `yaml:"azure_tenant_id,omitempty"`
	AzureClientID    string `yaml:"azure_client_id,omitempty"`
	AWSRegion        string `yaml:"aws_region,omitempty"`
	GoogleInstance   string `yaml:"google_instance,omitempty"`
}

// IsEmpty reports whether no connection setting was given.
func (c ConnectionConfig) IsEmpty() bool {
	return c == ConnectionConfig{}
}

// RedisConfig points the parameter cache at a shared Redis.
type RedisConfig struct {
	Address  string `yaml:"address,omitempty"`
	Password string `yaml:"password,omitempty"`
	DB       int    `yaml:"db,omitempty"`
	Prefix   string `yaml:"prefix,omitempty"`
	TTL      string `yaml:"ttl,omitempty"`
}

// TTLDuration parses TTL; an empty TTL means entries never expire.
func (r RedisConfig) TTLDuration() (time.Duration, error) {
	return parseDuration("cache.redis.ttl", r.TTL)
}

// CacheConfig configures the parameter-set cache.
type CacheConfig struct {
	Singleflight bool        `yaml:"singleflight,omitempty"`
	Redis        RedisConfig `yaml:"redis,omitempty"`
}

// ProjectConfig is the content of sphelper.yaml.
type ProjectConfig struct {
	Connection ConnectionConfig `yaml:"connection"`
	Cache      CacheConfig      `yaml:"cache"`

	// Warm lists procedures the warm command discovers when none are given.
	Warm []string `yaml:"warm"`

	Timeout string `yaml:"timeout"`
}

// TimeoutDuration parses Timeout; empty means no configured timeout.
func (c *ProjectConfig) TimeoutDuration() (time.Duration, error) {
	return parseDuration("timeout", c.Timeout)
}

// Load reads ConfigFileName from dir.
func Load(dir string) (*ProjectConfig, error) {
	return LoadFile(filepath.Join(dir, ConfigFileName))
}

// LoadFile reads a config file from an explicit path.
func LoadFile(path string) (*ProjectConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	var cfg ProjectConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &cfg, nil
}

// LoadEnv loads dotenv files into the process environment without
// overriding variables that are already set. With no arguments it reads
// EnvFileName from the working directory. Missing files are skipped.
func LoadEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{EnvFileName}
	}
	for _, path := range paths {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
	}
	return nil
}

func parseDuration(field, value string) (time.Duration, error) {
	if value == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", field, value, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("invalid %s %q: must not be negative", field, value)
	}
	return d, nil
}
