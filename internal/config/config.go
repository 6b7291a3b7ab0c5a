package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the reconciler configuration.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Database  DatabaseConfig  `yaml:"database"`
	Geocoding GeocodingConfig `yaml:"geocoding"`
	LLM       LLMConfig       `yaml:"llm"`
	Reconcile ReconcileConfig `yaml:"reconcile"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int   `yaml:"port"`
	ReadTimeoutSec  int   `yaml:"read_timeout_sec"`
	WriteTimeoutSec int   `yaml:"write_timeout_sec"`
	ShutdownSec     int   `yaml:"shutdown_timeout_sec"`
	MaxBodyBytes    int64 `yaml:"max_body_bytes"`
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	DSN              string `yaml:"dsn"`
	MaxConns         int32  `yaml:"max_conns"`
	MinConns         int32  `yaml:"min_conns"`
	MaxConnIdleSec   int    `yaml:"max_conn_idle_sec"`
	ReadinessTimeout int    `yaml:"readiness_timeout_sec"`
	QueryTimeoutMs   int    `yaml:"query_timeout_ms"`
}

// QueryTimeout returns the per-query timeout.
func (d DatabaseConfig) QueryTimeout() time.Duration {
	return time.Duration(d.QueryTimeoutMs) * time.Millisecond
}

// GeocodingConfig holds settings for the Nominatim-compatible location channel.
type GeocodingConfig struct {
	Enabled      bool     `yaml:"enabled"`
	BaseURL      string   `yaml:"base_url"`
	UserAgent    string   `yaml:"user_agent"`
	Email        string   `yaml:"email"`
	Language     string   `yaml:"language"`
	CountryCodes []string `yaml:"country_codes"`
	RatePerSec   float64  `yaml:"rate_per_sec"`
	Burst        int      `yaml:"burst"`
	TimeoutMs    int      `yaml:"timeout_ms"`
}

// Timeout returns the per-request timeout.
func (g GeocodingConfig) Timeout() time.Duration {
	return time.Duration(g.TimeoutMs) * time.Millisecond
}

// ReconcileConfig holds service-level reconciliation settings.
type ReconcileConfig struct {
	ServiceName  string                    `yaml:"service_name"`
	Namespace    string                    `yaml:"namespace"`
	SchemaSpace  string                    `yaml:"schema_space"`
	Threshold    float64                   `yaml:"threshold"`
	DefaultLimit int                       `yaml:"default_limit"`
	MaxLimit     int                       `yaml:"max_limit"`
	MaxBatchSize int                       `yaml:"max_batch_size"`
	Entities     map[string]EntityOverride `yaml:"entities"`
	Lookups      []LookupConfig            `yaml:"lookups"`
}

// EntityOverride adjusts a built-in entity type.
type EntityOverride struct {
	Disabled  bool              `yaml:"disabled"`
	Threshold float64           `yaml:"threshold"`
	Templates map[string]string `yaml:"templates"`
}

// LookupConfig declares a controlled vocabulary reconciled by the LLM channel.
type LookupConfig struct {
	Key         string  `yaml:"key"`
	Name        string  `yaml:"name"`
	TypePath    string  `yaml:"type_path"`
	TableSQL    string  `yaml:"table_sql"`
	DetailsSQL  string  `yaml:"details_sql"`
	Description string  `yaml:"description"`
	Context     string  `yaml:"context"`
	Threshold   float64 `yaml:"threshold"`
	// Columns maps logical columns (id, label, value, description, language)
	// onto table_sql columns. Empty keeps canonical names.
	Columns map[string]string `yaml:"columns"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	return LoadFile(findConfigPath(env))
}

// LoadFile reads configuration from an explicit path.
func LoadFile(configPath string) (Config, error) {
	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 60
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.HTTP.MaxBodyBytes <= 0 {
		c.HTTP.MaxBodyBytes = 1 << 20
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Database.QueryTimeoutMs <= 0 {
		c.Database.QueryTimeoutMs = 5000
	}
	if c.Database.MaxConnIdleSec <= 0 {
		c.Database.MaxConnIdleSec = 300
	}
	if c.Geocoding.BaseURL == "" {
		c.Geocoding.BaseURL = "https://nominatim.openstreetmap.org"
	}
	if c.Geocoding.UserAgent == "" {
		c.Geocoding.UserAgent = "reconciler"
	}
	if c.Geocoding.RatePerSec <= 0 {
		c.Geocoding.RatePerSec = 1
	}
	if c.Geocoding.Burst <= 0 {
		c.Geocoding.Burst = 1
	}
	if c.Geocoding.TimeoutMs <= 0 {
		c.Geocoding.TimeoutMs = 10000
	}
	c.LLM.applyDefaults()
	if c.Reconcile.ServiceName == "" {
		c.Reconcile.ServiceName = "Reconciler"
	}
	if c.Reconcile.Namespace == "" {
		c.Reconcile.Namespace = "http://localhost:8080/entities"
	}
	if c.Reconcile.SchemaSpace == "" {
		c.Reconcile.SchemaSpace = c.Reconcile.Namespace + "/schema"
	}
	if c.Reconcile.Threshold <= 0 {
		c.Reconcile.Threshold = 0.85
	}
	if c.Reconcile.DefaultLimit <= 0 {
		c.Reconcile.DefaultLimit = 10
	}
	if c.Reconcile.MaxLimit <= 0 {
		c.Reconcile.MaxLimit = 100
	}
	if c.Reconcile.MaxBatchSize <= 0 {
		c.Reconcile.MaxBatchSize = 50
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if c.Database.DSN == "" {
		return fmt.Errorf("database.dsn is required")
	}
	if c.Database.MinConns > c.Database.MaxConns && c.Database.MaxConns > 0 {
		return fmt.Errorf("database.min_conns (%d) exceeds max_conns (%d)", c.Database.MinConns, c.Database.MaxConns)
	}
	if c.Reconcile.Threshold > 1 {
		return fmt.Errorf("reconcile.threshold must be in (0,1], got %v", c.Reconcile.Threshold)
	}
	if c.Reconcile.DefaultLimit > c.Reconcile.MaxLimit {
		return fmt.Errorf("reconcile.default_limit (%d) exceeds max_limit (%d)",
			c.Reconcile.DefaultLimit, c.Reconcile.MaxLimit)
	}
	for key, e := range c.Reconcile.Entities {
		if e.Threshold < 0 || e.Threshold > 1 {
			return fmt.Errorf("reconcile.entities.%s.threshold must be in [0,1], got %v", key, e.Threshold)
		}
	}
	seen := make(map[string]bool, len(c.Reconcile.Lookups))
	for i, l := range c.Reconcile.Lookups {
		if l.Key == "" {
			return fmt.Errorf("reconcile.lookups[%d].key is required", i)
		}
		if seen[l.Key] {
			return fmt.Errorf("reconcile.lookups: duplicate key %q", l.Key)
		}
		seen[l.Key] = true
		if l.TableSQL == "" {
			return fmt.Errorf("reconcile.lookups.%s.table_sql is required", l.Key)
		}
	}
	if len(c.Reconcile.Lookups) > 0 && len(c.LLM.Providers) == 0 {
		return fmt.Errorf("reconcile.lookups require at least one llm provider")
	}
	return c.LLM.validate()
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
