package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Store types.
const (
	StoreFile     = "file"
	StorePostgres = "postgres"
)

// DefaultTokenAudience is both the expected issuer and audience of BI tokens
// unless configured otherwise.
const DefaultTokenAudience = "BusinessIntelligenceApp"

// Config holds all configuration for ekaya-bi.
// Configuration can come from an optional YAML file (config.yaml) and
// environment variables. Environment variables always override YAML values.
// Secrets (passwords, keys) must only come from environment variables.
type Config struct {
	// Server configuration
	BindAddr string `yaml:"bind_addr" env:"BIND_ADDR" env-default:"127.0.0.1"`
	Port     string `yaml:"port" env:"PORT" env-default:"5080"`
	Env      string `yaml:"env" env:"ENVIRONMENT" env-default:"local"`
	BaseURL  string `yaml:"base_url" env:"BASE_URL" env-default:""` // Auto-derived from Port if empty
	Version  string `yaml:"-"`                                      // Set at load time, not from config

	// TLS configuration (optional - if both provided, server uses HTTPS)
	TLSCertPath string `yaml:"tls_cert_path" env:"TLS_CERT_PATH" env-default:""`
	TLSKeyPath  string `yaml:"tls_key_path" env:"TLS_KEY_PATH" env-default:""`

	Auth     AuthConfig     `yaml:"auth"`
	Store    StoreConfig    `yaml:"store"`
	Database DatabaseConfig `yaml:"database"`

	// Encryption key for connection strings kept in the metadata database.
	// 32 bytes, base64 encoded. Generate with: openssl rand -base64 32
	// Required when store.type is postgres.
	ConnectionEncryptionKey string `yaml:"-" env:"CONNECTION_ENCRYPTION_KEY"` // Secret - not in YAML
}

// AuthConfig holds bearer token validation settings.
type AuthConfig struct {
	// Enabled controls whether API requests must carry a valid JWT.
	// Set to false for local development.
	Enabled bool `yaml:"enabled" env:"AUTH_ENABLED" env-default:"true"`

	Issuer   string `yaml:"issuer" env:"AUTH_ISSUER" env-default:"BusinessIntelligenceApp"`
	Audience string `yaml:"audience" env:"AUTH_AUDIENCE" env-default:"BusinessIntelligenceApp"`

	// JWKSURL switches validation to RS256 keys fetched from this URL.
	// When empty, tokens are HS256 signed with SigningKey.
	JWKSURL string `yaml:"jwks_url" env:"AUTH_JWKS_URL" env-default:""`

	SigningKey string `yaml:"-" env:"AUTH_SIGNING_KEY"` // Secret - not in YAML

	ClockSkew time.Duration `yaml:"clock_skew" env:"AUTH_CLOCK_SKEW" env-default:"30s"`
}

// StoreConfig selects where connection definitions are kept.
type StoreConfig struct {
	Type    string `yaml:"type" env:"STORE_TYPE" env-default:"file"`
	DataDir string `yaml:"data_dir" env:"DATA_DIR" env-default:"data"`
}

// ConnectionsFile is the path of the file store's document.
func (s *StoreConfig) ConnectionsFile() string {
	return filepath.Join(s.DataDir, "connections.json")
}

// DatabaseConfig holds the metadata PostgreSQL database configuration,
// used only when the store type is postgres.
type DatabaseConfig struct {
	Host           string `yaml:"host" env:"PGHOST" env-default:"localhost"`
	Port           int    `yaml:"port" env:"PGPORT" env-default:"5432"`
	User           string `yaml:"user" env:"PGUSER" env-default:"ekaya"`
	Password       string `yaml:"-" env:"PGPASSWORD"` // Secret - not in YAML
	Database       string `yaml:"database" env:"PGDATABASE" env-default:"ekaya_bi"`
	MaxConnections int32  `yaml:"max_connections" env:"PGMAX_CONNECTIONS" env-default:"10"`
	SSLMode        string `yaml:"ssl_mode" env:"PGSSLMODE" env-default:"disable"`
	MigrationsPath string `yaml:"migrations_path" env:"MIGRATIONS_PATH" env-default:""` // Empty uses the embedded migrations
}

// Load reads configuration from path (usually config.yaml) with environment
// variable overrides. A missing file is not an error; defaults and the
// environment apply.
func Load(path, version string) (*Config, error) {
	cfg := &Config{
		Version: version,
	}

	if _, err := os.Stat(path); err == nil {
		if err := cleanenv.ReadConfig(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
	} else if errors.Is(err, fs.ErrNotExist) {
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return nil, fmt.Errorf("failed to read environment: %w", err)
		}
	} else {
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	if cfg.BaseURL == "" {
		scheme := "http"
		if cfg.TLSCertPath != "" {
			scheme = "https"
		}
		cfg.BaseURL = (&url.URL{
			Scheme: scheme,
			Host:   "localhost:" + cfg.Port,
		}).String()
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if err := c.validateTLS(); err != nil {
		return fmt.Errorf("invalid TLS configuration: %w", err)
	}

	c.Store.Type = strings.ToLower(strings.TrimSpace(c.Store.Type))
	switch c.Store.Type {
	case StoreFile:
		if c.Store.DataDir == "" {
			return fmt.Errorf("store.data_dir is required for the file store")
		}
	case StorePostgres:
		if c.ConnectionEncryptionKey == "" {
			return fmt.Errorf("CONNECTION_ENCRYPTION_KEY is required for the postgres store")
		}
	default:
		return fmt.Errorf("unknown store type %q (expected %q or %q)", c.Store.Type, StoreFile, StorePostgres)
	}

	if c.Auth.Enabled && c.Auth.JWKSURL == "" && c.Auth.SigningKey == "" {
		return fmt.Errorf("auth is enabled but neither auth.jwks_url nor AUTH_SIGNING_KEY is set")
	}
	if c.Auth.ClockSkew < 0 {
		return fmt.Errorf("auth.clock_skew must not be negative")
	}

	return nil
}

// validateTLS ensures TLS configuration is valid if provided.
// Both cert and key must be provided together, and files must exist.
func (c *Config) validateTLS() error {
	certSet := c.TLSCertPath != ""
	keySet := c.TLSKeyPath != ""

	if certSet != keySet {
		return fmt.Errorf("both tls_cert_path and tls_key_path must be provided together")
	}

	if certSet {
		if _, err := os.Stat(c.TLSCertPath); err != nil {
			return fmt.Errorf("TLS cert file does not exist: %w", err)
		}
		if _, err := os.Stat(c.TLSKeyPath); err != nil {
			return fmt.Errorf("TLS key file does not exist: %w", err)
		}
	}

	return nil
}

// ConnectionString returns a PostgreSQL connection string for the metadata
// database. The host is adjusted when running inside Docker.
func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		ResolveHostForDocker(c.Host), c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}
