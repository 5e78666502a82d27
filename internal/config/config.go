package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the expertmatch API configuration.
type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	Database DatabaseConfig `yaml:"database"`
	Match    MatchConfig    `yaml:"match"`
	Semantic SemanticConfig `yaml:"semantic"`
	Throttle ThrottleConfig `yaml:"throttle"`
	Auth     AuthConfig     `yaml:"auth"`
	Storage  StorageConfig  `yaml:"storage"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// DatabaseConfig holds catalog store connection settings.
type DatabaseConfig struct {
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// MatchConfig holds score fusion weights. They are intended to sum to 1 but
// are not required to.
type MatchConfig struct {
	WeightSemantic float64 `yaml:"w_sem"`
	WeightKeyword  float64 `yaml:"w_kw"`
	WeightFilter   float64 `yaml:"w_filt"`
}

// SemanticConfig holds semantic backend settings. Mode is one of:
// "on" (always call the backend), "off" (lexical-only), "probe"
// (lexical-only unless GET /health reports ok for this request).
type SemanticConfig struct {
	BaseURL    string `yaml:"base_url"`
	Mode       string `yaml:"mode"`
	TimeoutSec int    `yaml:"timeout_sec"`
}

// ThrottleConfig holds per-client request throttling settings.
type ThrottleConfig struct {
	WindowSec   int `yaml:"window_sec"`
	MaxRequests int `yaml:"max_requests"`
	MaxClients  int `yaml:"max_clients"`
}

// AuthConfig holds admin API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// StorageConfig holds storage settings.
type StorageConfig struct {
	KeyPrefix string `yaml:"key_prefix"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR} / ${VAR:-default}
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
		c.HTTP.WriteTimeoutSec = 10
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Match.WeightSemantic == 0 && c.Match.WeightKeyword == 0 && c.Match.WeightFilter == 0 {
		c.Match.WeightSemantic = 0.60
		c.Match.WeightKeyword = 0.25
		c.Match.WeightFilter = 0.15
	}
	if c.Semantic.Mode == "" {
		c.Semantic.Mode = "on"
	}
	if c.Semantic.TimeoutSec <= 0 {
		c.Semantic.TimeoutSec = 5
	}
	if c.Throttle.WindowSec <= 0 {
		c.Throttle.WindowSec = 60
	}
	if c.Throttle.MaxRequests <= 0 {
		c.Throttle.MaxRequests = 60
	}
	if c.Throttle.MaxClients <= 0 {
		c.Throttle.MaxClients = 10000
	}
	if c.Storage.KeyPrefix == "" {
		c.Storage.KeyPrefix = "expertmatch:"
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if len(c.Database.Addrs) == 0 {
		return fmt.Errorf("database.addrs is required")
	}
	switch c.Semantic.Mode {
	case "on", "off", "probe":
		// ok
	default:
		return fmt.Errorf(`semantic.mode must be "on", "off" or "probe", got %q`, c.Semantic.Mode)
	}
	if c.Semantic.Mode != "off" && c.Semantic.BaseURL == "" {
		return fmt.Errorf("semantic.base_url is required unless semantic.mode is %q", "off")
	}
	if c.Match.WeightSemantic < 0 || c.Match.WeightKeyword < 0 || c.Match.WeightFilter < 0 {
		return fmt.Errorf("match weights must be non-negative")
	}
	return nil
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
	return envVarRegex.ReplaceAllFunc(data, func(m []byte) []byte {
		expr := string(m[2 : len(m)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
