// Package config loads and saves the vcfbin YAML configuration.
package config

import (
	"crypto/rand"
	"encoding/hex"
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"

	"github.com/CEA-LIST/sgntx/pkg/codec"
)

// ErrInvalidConfig is returned by Validate.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config represents the vcfbin configuration
type Config struct {
	InputDir   string  `yaml:"input_dir"`
	OutputDir  string  `yaml:"output_dir"`
	Mode       string  `yaml:"mode"`
	Workers    int     `yaml:"workers"`
	Extension  string  `yaml:"extension"`
	Recursive  bool    `yaml:"recursive"`
	CatalogDir string  `yaml:"catalog_dir"`
	Logging    Logging `yaml:"logging"`
	Server     Server  `yaml:"server"`
}

// Logging contains logging configuration
type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Server contains HTTP API configuration
type Server struct {
	Port   int    `yaml:"port"`
	Bind   string `yaml:"bind"`
	APIKey string `yaml:"api_key"`
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		InputDir:   "./vcf",
		OutputDir:  "./bin",
		Mode:       codec.ModeFixed.String(),
		Workers:    0,
		Extension:  ".vcf",
		Recursive:  true,
		CatalogDir: "./data/catalog",
		Logging: Logging{
			Level:  "info",
			Format: "text",
		},
		Server: Server{
			Port: 8080,
			Bind: "127.0.0.1",
		},
	}
}

// CodecMode parses the configured mode.
func (c *Config) CodecMode() (codec.Mode, error) {
	return codec.ParseMode(c.Mode)
}

// Validate checks field ranges and enumerations.
func (c *Config) Validate() error {
	if _, err := c.CodecMode(); err != nil {
		return errors.Wrapf(ErrInvalidConfig, "mode: %v", err)
	}
	if c.Workers < 0 {
		return errors.Wrapf(ErrInvalidConfig, "workers must be >= 0, got %d", c.Workers)
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return errors.Wrapf(ErrInvalidConfig, "server.port out of range: %d", c.Server.Port)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "", "text", "json":
	default:
		return errors.Wrapf(ErrInvalidConfig, "logging.format must be text or json, got %q", c.Logging.Format)
	}
	switch strings.ToLower(c.Logging.Level) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		return errors.Wrapf(ErrInvalidConfig, "logging.level unknown: %q", c.Logging.Level)
	}
	return nil
}

// LoadConfig loads configuration from the specified path. Fields missing from
// the file keep their default values.
func LoadConfig(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, errors.Newf("config file does not exist: %s", configPath)
	}

	if !filepath.IsAbs(configPath) {
		absPath, err := filepath.Abs(configPath)
		if err != nil {
			return nil, errors.Wrap(err, "invalid config path")
		}
		configPath = absPath
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read config file")
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, errors.Wrap(err, "failed to parse config file")
	}

	return config, nil
}

// SaveConfig saves the configuration to the specified path with secure permissions
func SaveConfig(config *Config, configPath string) error {
	configDir := filepath.Dir(configPath)
	if err := os.MkdirAll(configDir, 0750); err != nil {
		return errors.Wrap(err, "failed to create config directory")
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return errors.Wrap(err, "failed to marshal config")
	}

	// 0600: the file may hold the API key
	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return errors.Wrap(err, "failed to write config file")
	}

	return nil
}

// GenerateSecureKey generates a cryptographically secure random key
func GenerateSecureKey(length int) (string, error) {
	bytes := make([]byte, length)
	if _, err := rand.Read(bytes); err != nil {
		return "", errors.Wrap(err, "failed to generate secure key")
	}
	return hex.EncodeToString(bytes), nil
}

// BootstrapConfig writes a default configuration to configPath. When
// withAPIKey is set the server section gets a generated key.
func BootstrapConfig(configPath string, withAPIKey bool) (*Config, error) {
	config := DefaultConfig()

	if withAPIKey {
		key, err := GenerateSecureKey(32) // 256 bits
		if err != nil {
			return nil, errors.Wrap(err, "failed to generate api key")
		}
		config.Server.APIKey = key
	}

	if err := SaveConfig(config, configPath); err != nil {
		return nil, errors.Wrap(err, "failed to save bootstrap config")
	}

	return config, nil
}

// GetDefaultConfigPath returns the default configuration path for the current platform
func GetDefaultConfigPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "./vcfbin.yaml"
	}

	// ~/.config/vcfbin/config.yaml
	return filepath.Join(homeDir, ".config", "vcfbin", "config.yaml")
}

// ConfigExists checks if a configuration file exists
func ConfigExists(configPath string) bool {
	_, err := os.Stat(configPath)
	return !os.IsNotExist(err)
}
