package config

import (
	"os"

	"granville/pkg/logger"

	"gopkg.in/yaml.v3"
)

// Config global configuration
type Config struct {
	Server ServerConfig  `yaml:"server"`
	Ranker RankerConfig  `yaml:"ranker"`
	Logger logger.Config `yaml:"logger"`
}

// ServerConfig serve configuration
type ServerConfig struct {
	Socket     string `yaml:"socket"`      // unix socket path (POSIX) or pipe name (Windows)
	QueueSize  int    `yaml:"queue_size"`  // ranked queue capacity
	Workers    int    `yaml:"workers"`     // worker count, 0 means min(num models, 8)
	Driver     string `yaml:"driver"`      // backend driver name
	StatusPort int    `yaml:"status_port"` // HTTP status endpoint port, 0 disables
}

// RankerConfig classification configuration
type RankerConfig struct {
	MaxTokens        int `yaml:"max_tokens"`         // generation budget for the priority line
	MaxResponseBytes int `yaml:"max_response_bytes"` // result truncation limit
}

const (
	DefaultSocket           = "/tmp/granville.sock"
	DefaultPipeName         = `\\.\pipe\granville`
	DefaultQueueSize        = 1000
	DefaultDriver           = "echo"
	DefaultRankerMaxTokens  = 24
	DefaultMaxResponseBytes = 56 * 1024
)

// Default returns a configuration with all defaults applied.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Socket:    DefaultSocket,
			QueueSize: DefaultQueueSize,
			Driver:    DefaultDriver,
		},
		Ranker: RankerConfig{
			MaxTokens:        DefaultRankerMaxTokens,
			MaxResponseBytes: DefaultMaxResponseBytes,
		},
		Logger: logger.Config{
			Level:  "info",
			Output: "console",
		},
	}
}

// Load reads a YAML configuration file and applies defaults for every
// missing or invalid value. An empty path returns the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	validateAndApplyDefaults(cfg)
	return cfg, nil
}

// validateAndApplyDefaults clamps invalid values back to defaults so a bad
// config file degrades instead of taking the server down.
func validateAndApplyDefaults(cfg *Config) {
	if cfg.Server.Socket == "" {
		cfg.Server.Socket = DefaultSocket
	}
	if cfg.Server.QueueSize <= 0 {
		cfg.Server.QueueSize = DefaultQueueSize
	}
	if cfg.Server.Workers < 0 {
		cfg.Server.Workers = 0
	}
	if cfg.Server.Driver == "" {
		cfg.Server.Driver = DefaultDriver
	}
	if cfg.Server.StatusPort < 0 || cfg.Server.StatusPort > 65535 {
		cfg.Server.StatusPort = 0
	}
	if cfg.Ranker.MaxTokens <= 0 {
		cfg.Ranker.MaxTokens = DefaultRankerMaxTokens
	}
	if cfg.Ranker.MaxResponseBytes <= 0 {
		cfg.Ranker.MaxResponseBytes = DefaultMaxResponseBytes
	}
}
