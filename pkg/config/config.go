package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/ilyakaznacheev/cleanenv"
)

// DefaultPath is the config file read by Load.
const DefaultPath = "config.yaml"

// Config holds all configuration for ekaya-sheets.
// Values come from config.yaml with environment variable overrides.
// Secrets (passwords, keys) only come from environment variables.
type Config struct {
	// Server configuration
	BindAddr string `yaml:"bind_addr" env:"BIND_ADDR" env-default:"127.0.0.1"`
	Port     string `yaml:"port" env:"PORT" env-default:"3444"`
	Env      string `yaml:"env" env:"ENVIRONMENT" env-default:"local"`
	Version  string `yaml:"-"`

	// TLS is enabled when both paths are set.
	TLSCertPath string `yaml:"tls_cert_path" env:"TLS_CERT_PATH" env-default:""`
	TLSKeyPath  string `yaml:"tls_key_path" env:"TLS_KEY_PATH" env-default:""`

	Auth         AuthConfig         `yaml:"auth"`
	Database     DatabaseConfig     `yaml:"database"`
	CentralStore CentralStoreConfig `yaml:"central_store"`
	Import       ImportConfig       `yaml:"import"`
	Profiling    ProfilingConfig    `yaml:"profiling"`

	// Key for project datastore secrets: 32 bytes, base64 encoded.
	// Generate with: openssl rand -base64 32
	ProjectCredentialsKey string `yaml:"-" env:"PROJECT_CREDENTIALS_KEY"`
}

// AuthConfig holds authentication-related configuration.
type AuthConfig struct {
	// EnableVerification controls whether JWT signatures are checked.
	// Set to false for local development without an auth server.
	EnableVerification bool `yaml:"enable_verification" env:"AUTH_ENABLE_VERIFICATION" env-default:"true"`

	// JWKSEndpointsStr is a comma-separated list of issuer=jwks_url pairs.
	JWKSEndpointsStr string `yaml:"jwks_endpoints" env:"JWKS_ENDPOINTS" env-default:"https://auth.ekaya.ai=https://auth.ekaya.ai/.well-known/jwks.json"`

	// JWKSEndpoints is parsed from JWKSEndpointsStr.
	JWKSEndpoints map[string]string `yaml:"-"`

	// Audience is required in the aud claim when set.
	Audience string `yaml:"audience" env:"AUTH_AUDIENCE" env-default:""`
}

// DatabaseConfig holds the engine metadata database configuration.
type DatabaseConfig struct {
	Host           string `yaml:"host" env:"PGHOST" env-default:"localhost"`
	Port           int    `yaml:"port" env:"PGPORT" env-default:"5432"`
	User           string `yaml:"user" env:"PGUSER" env-default:"ekaya"`
	Password       string `yaml:"-" env:"PGPASSWORD"`
	Database       string `yaml:"database" env:"PGDATABASE" env-default:"ekaya_sheets"`
	MaxConnections int32  `yaml:"max_connections" env:"PGMAX_CONNECTIONS" env-default:"10"`
	SSLMode        string `yaml:"ssl_mode" env:"PGSSLMODE" env-default:"disable"`
}

// CentralStoreConfig is the shared datastore used by projects that have no
// dedicated one. It is read once at startup and never changes.
type CentralStoreConfig struct {
	// Type names the adapter; empty derives it from Address.
	Type    string `yaml:"type" env:"CENTRAL_STORE_TYPE" env-default:""`
	Address string `yaml:"address" env:"CENTRAL_STORE_ADDRESS" env-default:""`
	Secret  string `yaml:"-" env:"CENTRAL_STORE_SECRET"`
}

// IsConfigured reports whether a central store address is set.
func (c *CentralStoreConfig) IsConfigured() bool {
	return strings.TrimSpace(c.Address) != ""
}

// HasSecret reports whether the shared central secret is set.
func (c *CentralStoreConfig) HasSecret() bool {
	return c.Secret != ""
}

// ImportConfig holds ingestion settings.
type ImportConfig struct {
	DirectBatchSize     int `yaml:"direct_batch_size" env:"IMPORT_DIRECT_BATCH_SIZE" env-default:"100"`
	StructuredBatchSize int `yaml:"structured_batch_size" env:"IMPORT_STRUCTURED_BATCH_SIZE" env-default:"500"`
	// MaxUploadMB caps the multipart request body.
	MaxUploadMB int `yaml:"max_upload_mb" env:"IMPORT_MAX_UPLOAD_MB" env-default:"25"`
	// HistoryLimit is the number of batches returned by the history endpoint.
	HistoryLimit int `yaml:"history_limit" env:"IMPORT_HISTORY_LIMIT" env-default:"50"`
}

// MaxUploadBytes returns MaxUploadMB in bytes.
func (c *ImportConfig) MaxUploadBytes() int64 {
	return int64(c.MaxUploadMB) << 20
}

// ProfilingConfig points at optional overrides of the built-in dictionaries.
type ProfilingConfig struct {
	DictionaryPath string `yaml:"dictionary_path" env:"PROFILING_DICTIONARY_PATH" env-default:""`
	LayoutsPath    string `yaml:"layouts_path" env:"PROFILING_LAYOUTS_PATH" env-default:""`
	// Workers bounds parallel column analysis.
	Workers int `yaml:"workers" env:"PROFILING_WORKERS" env-default:"8"`
}

// Load reads DefaultPath with environment variable overrides.
// The version is injected at build time.
func Load(version string) (*Config, error) {
	return LoadFrom(DefaultPath, version)
}

// LoadFrom reads the config file at path with environment variable overrides.
func LoadFrom(path, version string) (*Config, error) {
	cfg := &Config{
		Version: version,
	}

	if err := cleanenv.ReadConfig(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	cfg.Auth.JWKSEndpoints = parseJWKSEndpoints(cfg.Auth.JWKSEndpointsStr)

	if err := cfg.validateTLS(); err != nil {
		return nil, fmt.Errorf("invalid TLS configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks settings that have no usable default.
func (c *Config) Validate() error {
	var errs []error
	if c.ProjectCredentialsKey == "" {
		errs = append(errs, errors.New("PROJECT_CREDENTIALS_KEY is required"))
	}
	if c.Import.DirectBatchSize <= 0 {
		errs = append(errs, errors.New("import.direct_batch_size must be positive"))
	}
	if c.Import.StructuredBatchSize <= 0 {
		errs = append(errs, errors.New("import.structured_batch_size must be positive"))
	}
	if c.Import.MaxUploadMB <= 0 {
		errs = append(errs, errors.New("import.max_upload_mb must be positive"))
	}
	if c.Auth.EnableVerification && len(c.Auth.JWKSEndpoints) == 0 {
		errs = append(errs, errors.New("auth.jwks_endpoints is required when verification is enabled"))
	}
	if c.CentralStore.IsConfigured() {
		if _, err := url.Parse(c.CentralStore.Address); err != nil {
			errs = append(errs, fmt.Errorf("central_store.address is invalid: %w", err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}
	return nil
}

// validateTLS ensures cert and key are set together and exist.
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

// parseJWKSEndpoints parses "issuer1=url1,issuer2=url2" into a map.
// Pairs are split on the first '=' so URLs may carry query strings.
func parseJWKSEndpoints(value string) map[string]string {
	endpoints := make(map[string]string)
	for _, pair := range strings.Split(value, ",") {
		issuer, jwksURL, ok := strings.Cut(pair, "=")
		issuer, jwksURL = strings.TrimSpace(issuer), strings.TrimSpace(jwksURL)
		if ok && issuer != "" && jwksURL != "" {
			endpoints[issuer] = jwksURL
		}
	}
	return endpoints
}

// ConnectionString returns a PostgreSQL URL for the engine database.
func (c *DatabaseConfig) ConnectionString() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     net.JoinHostPort(c.Host, strconv.Itoa(c.Port)),
		Path:     "/" + c.Database,
		RawQuery: url.Values{"sslmode": {c.SSLMode}}.Encode(),
	}
	return u.String()
}

// IsDevelopment reports whether the server runs in a local or dev environment.
func (c *Config) IsDevelopment() bool {
	return c.Env == "local" || c.Env == "dev" || c.Env == "development"
}
