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

// Config holds the ieql scan service configuration.
type Config struct {
	HTTP    HTTPConfig    `yaml:"http"`
	Queue   QueueConfig   `yaml:"queue"`
	Scan    ScanConfig    `yaml:"scan"`
	Queries QueriesConfig `yaml:"queries"`
	Logging LoggingConfig `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// HTTPConfig holds the ops HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// QueueConfig holds the Redis stream queue settings.
type QueueConfig struct {
	Driver           string   `yaml:"driver"` // redis, valkey (default: redis)
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
	DocumentStream   string   `yaml:"document_stream"`
	ResponseStream   string   `yaml:"response_stream"`
	ConsumerGroup    string   `yaml:"consumer_group"`
	Consumer         string   `yaml:"consumer"`
}

// ScanConfig holds the scan engine settings.
type ScanConfig struct {
	Workers             int  `yaml:"workers"` // 0 = hardware threads
	ExcerptWindowBytes  int  `yaml:"excerpt_window_bytes"`
	InputQueueCapacity  int  `yaml:"input_queue_capacity"`
	OutputQueueCapacity int  `yaml:"output_queue_capacity"`
	AllowTextFallback   bool `yaml:"allow_text_fallback"`
	// NoTextFallback inverts AllowTextFallback's default-true semantics in
	// YAML, where absent booleans decode to false.
	NoTextFallback bool `yaml:"no_text_fallback"`
}

// QueriesConfig holds query loading settings.
type QueriesConfig struct {
	// Dir is scanned non-recursively for *.ieql files at startup.
	Dir string `yaml:"dir"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

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
		c.HTTP.WriteTimeoutSec = 10
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Queue.Driver == "" {
		c.Queue.Driver = "redis"
	}
	if c.Queue.ReadinessTimeout <= 0 {
		c.Queue.ReadinessTimeout = 10
	}
	if c.Queue.DocumentStream == "" {
		c.Queue.DocumentStream = "ieql:documents"
	}
	if c.Queue.ResponseStream == "" {
		c.Queue.ResponseStream = "ieql:responses"
	}
	if c.Queue.ConsumerGroup == "" {
		c.Queue.ConsumerGroup = "ieql-scanners"
	}
	if c.Queue.Consumer == "" {
		host, err := os.Hostname()
		if err != nil || host == "" {
			host = "scanner"
		}
		c.Queue.Consumer = host
	}
	if c.Scan.ExcerptWindowBytes <= 0 {
		c.Scan.ExcerptWindowBytes = 64
	}
	if c.Scan.InputQueueCapacity <= 0 {
		c.Scan.InputQueueCapacity = 256
	}
	if c.Scan.OutputQueueCapacity <= 0 {
		c.Scan.OutputQueueCapacity = 256
	}
	c.Scan.AllowTextFallback = !c.Scan.NoTextFallback
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	switch c.Queue.Driver {
	case "redis", "valkey":
	default:
		return fmt.Errorf("queue.driver must be \"redis\" or \"valkey\", got %q", c.Queue.Driver)
	}
	if len(c.Queue.Addrs) == 0 {
		return fmt.Errorf("queue.addrs is required")
	}
	if c.Scan.Workers < 0 {
		return fmt.Errorf("scan.workers must not be negative, got %d", c.Scan.Workers)
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
