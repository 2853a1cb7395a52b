package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// DefaultPort is the TCP port the server binds when the descriptor
// and environment are silent
const DefaultPort = 9292

// Config represents the startup descriptor: which app to run, where
// to bind, and how to log
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	App     AppConfig     `yaml:"app"`
	Mounts  []MountConfig `yaml:"mounts"`
	Logging LogConfig     `yaml:"logging"`
}

// ServerConfig contains settings for the hosting server
type ServerConfig struct {
	Host            string `yaml:"host"`
	Port            int    `yaml:"port"`
	MaxInFlight     int    `yaml:"max_in_flight"`    // 0 means unlimited
	ShutdownTimeout int    `yaml:"shutdown_timeout"` // in seconds
}

// AppConfig names the app instance to run and carries its options
type AppConfig struct {
	Name    string                 `yaml:"name"`
	Options map[string]interface{} `yaml:"options"`
}

// MountConfig mounts a named app at a path prefix. When any mounts
// are present they take the place of the single App entry.
type MountConfig struct {
	Path    string                 `yaml:"path"`
	App     string                 `yaml:"app"`
	Options map[string]interface{} `yaml:"options"`
}

// LogConfig contains settings for logging
type LogConfig struct {
	LogToFile   bool   `yaml:"log_to_file"`
	LogFilePath string `yaml:"log_file_path"`
	MaxSize     int    `yaml:"max_size"`    // maximum size in megabytes
	MaxBackups  int    `yaml:"max_backups"` // maximum number of old log files to retain
	MaxAge      int    `yaml:"max_age"`     // maximum number of days to retain old log files
	Compress    bool   `yaml:"compress"`    // compress determines if the rotated log files should be compressed
}

// LoadDefault returns a configuration with default values
func LoadDefault() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            DefaultPort,
			MaxInFlight:     0,
			ShutdownTimeout: 10,
		},
		App: AppConfig{
			Name:    "hello",
			Options: nil,
		},
		Logging: LogConfig{
			LogToFile:   false,
			LogFilePath: "plank.log",
			MaxSize:     10,
			MaxBackups:  3,
			MaxAge:      28,
			Compress:    true,
		},
	}
}

// Default returns a configuration with default values
func Default() *Config {
	return LoadDefault()
}

// Load reads a descriptor from a file and merges it with default
// values. The PORT environment variable overrides the file's port.
func Load(configPath string) (*Config, error) {
	// Start with default configuration
	cfg := LoadDefault()

	// Read descriptor file
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Parse into a temporary config so omitted sections keep their defaults
	var fileCfg Config
	if err := yaml.Unmarshal(data, &fileCfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Merge server configuration
	if fileCfg.Server.Host != "" {
		cfg.Server.Host = fileCfg.Server.Host
	}
	if fileCfg.Server.Port > 0 {
		cfg.Server.Port = fileCfg.Server.Port
	}
	if fileCfg.Server.MaxInFlight > 0 {
		cfg.Server.MaxInFlight = fileCfg.Server.MaxInFlight
	}
	if fileCfg.Server.ShutdownTimeout > 0 {
		cfg.Server.ShutdownTimeout = fileCfg.Server.ShutdownTimeout
	}

	// Merge app configuration
	if fileCfg.App.Name != "" {
		cfg.App.Name = fileCfg.App.Name
	}
	if fileCfg.App.Options != nil {
		cfg.App.Options = fileCfg.App.Options
	}

	// A mounts list replaces the single app entry wholesale
	if len(fileCfg.Mounts) > 0 {
		cfg.Mounts = fileCfg.Mounts
	}

	// Merge logging configuration
	if fileCfg.Logging.LogToFile {
		cfg.Logging.LogToFile = fileCfg.Logging.LogToFile
	}
	if fileCfg.Logging.LogFilePath != "" {
		cfg.Logging.LogFilePath = fileCfg.Logging.LogFilePath
	}
	if fileCfg.Logging.MaxSize > 0 {
		cfg.Logging.MaxSize = fileCfg.Logging.MaxSize
	}
	if fileCfg.Logging.MaxBackups > 0 {
		cfg.Logging.MaxBackups = fileCfg.Logging.MaxBackups
	}
	if fileCfg.Logging.MaxAge > 0 {
		cfg.Logging.MaxAge = fileCfg.Logging.MaxAge
	}
	if fileCfg.Logging.Compress {
		cfg.Logging.Compress = fileCfg.Logging.Compress
	}

	applyEnv(cfg)

	return cfg, nil
}

// LoadOrDefault attempts to load a descriptor from a file. If the
// file doesn't exist or can't be parsed, it returns the default
// configuration instead.
func LoadOrDefault(configPath string) *Config {
	cfg, err := Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Failed to load config from %s: %v\n", configPath, err)
		fmt.Fprintf(os.Stderr, "Using default configuration\n")
		cfg = LoadDefault()
		applyEnv(cfg)
	}
	return cfg
}

// Validate checks the descriptor for values no server could start
// with. Port 0 is allowed and asks the kernel for an ephemeral port.
func (c *Config) Validate() error {
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Server.Port)
	}
	if len(c.Mounts) == 0 && c.App.Name == "" {
		return fmt.Errorf("no app configured")
	}
	seen := make(map[string]bool)
	for _, m := range c.Mounts {
		if m.Path == "" || m.Path[0] != '/' {
			return fmt.Errorf("mount path must start with '/': %q", m.Path)
		}
		if m.App == "" {
			return fmt.Errorf("mount at %s names no app", m.Path)
		}
		if seen[m.Path] {
			return fmt.Errorf("duplicate mount path: %s", m.Path)
		}
		seen[m.Path] = true
	}
	return nil
}

// applyEnv applies environment overrides. PORT follows the common
// hosting convention of overriding the descriptor's port.
func applyEnv(cfg *Config) {
	if envPort := os.Getenv("PORT"); envPort != "" {
		if port, err := strconv.Atoi(envPort); err == nil && port > 0 {
			cfg.Server.Port = port
		}
	}
}
